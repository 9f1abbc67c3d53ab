package parser

import (
	"time"

	"github.com/EugeneSatt/VKP-Table/internal/model"
)

// Cell 原始单元格值：nil、string、float64（或其他数字）、time.Time
type Cell = any

// Grid 第一个工作表的原始单元格
type Grid [][]Cell

// Layout 采购计划模板的表头位置
type Layout struct {
	HeaderRows      []int    // 候选表头行，从 0 开始，按优先级
	ArticleColumn   int      // 标签未命中时使用的物料列，从 0 开始
	DateStartColumn int      // 日期表头起始列，从 0 开始
	ArticleLabels   []string // 物料列表头关键字，不区分大小写
	MinRows         int      // 行数不足时拒绝
}

// DefaultLayout 表头在第 4 行，物料在 F 列，日期从 P 列开始
func DefaultLayout() Layout {
	return Layout{
		HeaderRows:      []int{3, 2, 1, 0},
		ArticleColumn:   5,
		DateStartColumn: 15,
		ArticleLabels:   []string{"артикул", "article", "sku"},
		MinRows:         5,
	}
}

// Header 定位到的表头行和物料列
type Header struct {
	Row           int  `json:"row"`           // 从 0 开始
	ArticleColumn int  `json:"articleColumn"` // 从 0 开始
	LabelMatched  bool `json:"labelMatched"`  // 使用位置回退时为 false
}

// DateColumn 日期列
type DateColumn struct {
	Index int        `json:"index"`
	Date  model.Date `json:"date"`
}

// Extraction 提取结果
type Extraction struct {
	Header      Header             `json:"header"`
	DateColumns []DateColumn       `json:"dateColumns"`
	Records     []model.PlanRecord `json:"records"`
	Duration    time.Duration      `json:"duration"`
}

func cellAt(row []Cell, idx int) Cell {
	if idx < 0 || idx >= len(row) {
		return nil
	}
	return row[idx]
}
