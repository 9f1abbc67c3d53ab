package parser

import (
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/EugeneSatt/VKP-Table/internal/model"
)

// LocateHeader 定位表头行和物料列
// 按候选顺序逐行尝试：先找含物料关键字的单元格，找不到再看回退列是否非空
func LocateHeader(grid Grid, layout Layout) (Header, error) {
	if len(grid) < layout.MinRows {
		return Header{}, model.Invalidf(
			"too few rows in workbook: got %d, need at least %d (header rows + data)",
			len(grid), layout.MinRows,
		)
	}

	for _, rowIdx := range layout.HeaderRows {
		if rowIdx < 0 || rowIdx >= len(grid) {
			continue
		}
		row := grid[rowIdx]
		if col := findLabelColumn(row, layout.ArticleLabels); col >= 0 {
			return Header{Row: rowIdx, ArticleColumn: col, LabelMatched: true}, nil
		}
		if strings.TrimSpace(CellText(cellAt(row, layout.ArticleColumn))) != "" {
			return Header{Row: rowIdx, ArticleColumn: layout.ArticleColumn}, nil
		}
	}

	return Header{}, model.Invalidf(
		"cannot locate headers: no article column in rows %s (expected a %q header or a value in column %s)",
		rowList(layout.HeaderRows), strings.Join(layout.ArticleLabels, "/"), ColumnName(layout.ArticleColumn),
	)
}

// LocateDateColumns 从日期起始列向右扫描表头，收集可识别为日期的列
func LocateDateColumns(grid Grid, header Header, layout Layout) ([]DateColumn, error) {
	if header.Row < 0 || header.Row >= len(grid) {
		return nil, model.Invalidf("header row %d is missing", header.Row+1)
	}

	row := grid[header.Row]
	columns := make([]DateColumn, 0)
	for col := layout.DateStartColumn; col < len(row); col++ {
		if col == header.ArticleColumn {
			continue
		}
		if d, ok := CellToDate(row[col]); ok {
			columns = append(columns, DateColumn{Index: col, Date: d})
		}
	}

	if len(columns) == 0 {
		return nil, model.Invalidf(
			"no date columns found in header row %d starting from column %s",
			header.Row+1, ColumnName(layout.DateStartColumn),
		)
	}
	return columns, nil
}

func findLabelColumn(row []Cell, labels []string) int {
	for i, cell := range row {
		if s, ok := cell.(string); ok && ContainsAny(s, labels) {
			return i
		}
	}
	return -1
}

// ColumnName 列索引（从 0 开始）转列字母
func ColumnName(idx int) string {
	name, err := excelize.ColumnNumberToName(idx + 1)
	if err != nil {
		return strconv.Itoa(idx + 1)
	}
	return name
}

func rowList(rows []int) string {
	parts := make([]string, 0, len(rows))
	for _, r := range rows {
		parts = append(parts, strconv.Itoa(r+1))
	}
	return strings.Join(parts, ", ")
}
