package plan

import (
	"context"
	"fmt"
	"strings"

	"github.com/EugeneSatt/VKP-Table/internal/model"
)

// Saver 保存编辑结果所需的存储操作
type Saver interface {
	RenameArticle(ctx context.Context, oldArticle, newArticle string) (model.RenameResult, error)
	BulkUpsert(ctx context.Context, records []model.PlanRecord) (int, error)
}

// SaveResult 一次保存的结果
type SaveResult struct {
	Renamed  int `json:"renamed"`  // 改名移动的记录数
	Upserted int `json:"upserted"` // 写入的记录数
}

// Editor 客户端矩阵编辑状态，保存时生成改名列表和写入载荷
type Editor struct {
	dates []model.Date
	rows  []model.MatrixRow
}

// NewEditor 复制矩阵作为编辑起点
func NewEditor(m model.ScheduleMatrix) *Editor {
	e := &Editor{
		dates: append([]model.Date(nil), m.Dates...),
		rows:  make([]model.MatrixRow, len(m.Rows)),
	}
	for i, r := range m.Rows {
		values := make([]*int, len(e.dates))
		for j := 0; j < len(values) && j < len(r.Values); j++ {
			if r.Values[j] != nil {
				v := *r.Values[j]
				values[j] = &v
			}
		}
		e.rows[i] = model.MatrixRow{
			Article:         r.Article,
			OriginalArticle: r.OriginalArticle,
			Values:          values,
		}
	}
	return e
}

// Dates 日期轴
func (e *Editor) Dates() []model.Date { return e.dates }

// Rows 当前行（只读）
func (e *Editor) Rows() []model.MatrixRow { return e.rows }

// UpdateCell 设置单元格，nil 表示清空
func (e *Editor) UpdateCell(row, col int, value *int) error {
	if err := e.checkRow(row); err != nil {
		return err
	}
	if col < 0 || col >= len(e.dates) {
		return fmt.Errorf("column %d out of range [0, %d)", col, len(e.dates))
	}
	if value == nil {
		e.rows[row].Values[col] = nil
		return nil
	}
	if *value < 0 {
		return model.Invalidf("qty must be non-negative, got %d", *value)
	}
	v := *value
	e.rows[row].Values[col] = &v
	return nil
}

// UpdateArticle 修改行的物料号，原始物料号保持不变
func (e *Editor) UpdateArticle(row int, article string) error {
	if err := e.checkRow(row); err != nil {
		return err
	}
	e.rows[row].Article = article
	return nil
}

// AddRow 追加空行，返回行号
func (e *Editor) AddRow() int {
	e.rows = append(e.rows, model.MatrixRow{Values: make([]*int, len(e.dates))})
	return len(e.rows) - 1
}

func (e *Editor) checkRow(row int) error {
	if row < 0 || row >= len(e.rows) {
		return fmt.Errorf("row %d out of range [0, %d)", row, len(e.rows))
	}
	return nil
}

// Payload 每个有物料号的行在每个日期上一条记录，空格子按 0 写入
func (e *Editor) Payload() []model.PlanRecord {
	out := make([]model.PlanRecord, 0, len(e.rows)*len(e.dates))
	for _, r := range e.rows {
		article := model.NormalizeArticle(r.Article)
		if article == "" {
			continue
		}
		for i, d := range e.dates {
			qty := 0
			if r.Values[i] != nil {
				qty = *r.Values[i]
			}
			out = append(out, model.PlanRecord{Date: d, Article: article, Qty: qty})
		}
	}
	return out
}

// Renames 原始物料号非空且被修改为非空新值的行
func (e *Editor) Renames() []model.RenameRequest {
	out := make([]model.RenameRequest, 0)
	for _, r := range e.rows {
		original := strings.TrimSpace(r.OriginalArticle)
		current := strings.TrimSpace(r.Article)
		if original == "" || current == "" {
			continue
		}
		if model.NormalizeArticle(original) == model.NormalizeArticle(current) {
			continue
		}
		out = append(out, model.RenameRequest{OldArticle: original, NewArticle: current})
	}
	return out
}

// Save 先执行改名，再批量写入载荷
func (e *Editor) Save(ctx context.Context, saver Saver) (SaveResult, error) {
	var res SaveResult
	for _, rn := range e.Renames() {
		moved, err := saver.RenameArticle(ctx, rn.OldArticle, rn.NewArticle)
		if err != nil {
			return res, fmt.Errorf("rename %s -> %s: %w", rn.OldArticle, rn.NewArticle, err)
		}
		res.Renamed += moved.Updated
	}

	payload := e.Payload()
	if len(payload) == 0 {
		return res, nil
	}
	n, err := saver.BulkUpsert(ctx, payload)
	if err != nil {
		return res, fmt.Errorf("bulk upsert: %w", err)
	}
	res.Upserted = n

	for i := range e.rows {
		e.rows[i].OriginalArticle = model.NormalizeArticle(e.rows[i].Article)
	}
	return res, nil
}
