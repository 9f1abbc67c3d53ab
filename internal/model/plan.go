package model

import (
	"math"
	"strings"
)

// MaxQty 单条计划数量上限，与数据库 INTEGER 列一致
const MaxQty = math.MaxInt32

// PlanRecord 采购计划记录：某物料某天的计划数量
type PlanRecord struct {
	Date    Date   `json:"date"`
	Article string `json:"article"`
	Qty     int    `json:"qty"`
}

// Key 记录的 (物料, 日期) 标识
func (r PlanRecord) Key() string {
	return r.Article + "__" + r.Date.Key()
}

// NormalizeArticle 去除首尾空白并转大写，幂等
func NormalizeArticle(article string) string {
	return strings.ToUpper(strings.TrimSpace(article))
}

// RenameRequest 物料改名请求
type RenameRequest struct {
	OldArticle string `json:"oldArticle"`
	NewArticle string `json:"newArticle"`
}

// RenameResult 改名影响的记录数
type RenameResult struct {
	Updated int `json:"updated"`
}

// ArticleEntry 新建物料时附带的单日数量
type ArticleEntry struct {
	Date Date `json:"date"`
	Qty  int  `json:"qty"`
}

// Stats 存储概况
type Stats struct {
	Records   int    `json:"records"`
	Articles  int    `json:"articles"`
	FirstDate string `json:"firstDate,omitempty"`
	LastDate  string `json:"lastDate,omitempty"`
}
