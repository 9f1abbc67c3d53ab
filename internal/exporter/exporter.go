package exporter

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/EugeneSatt/VKP-Table/internal/model"
	"github.com/EugeneSatt/VKP-Table/internal/parser"
)

const (
	sheetName     = "План"
	title         = "План закупок"
	articleHeader = "Артикул"
	dateNumFmt    = "dd.mm.yyyy"
)

// WriteMatrix 按导入模板布局导出矩阵：A1 标题，表头行放物料列名和日期，数据行在其下
// 导出的文件可以原样再导入
func WriteMatrix(m model.ScheduleMatrix, layout parser.Layout) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headerRow := 1
	if len(layout.HeaderRows) > 0 {
		headerRow = layout.HeaderRows[0] + 1
	}
	articleCol := layout.ArticleColumn + 1
	dateCol := layout.DateStartColumn + 1

	if err := f.SetCellStr(sheetName, "A1", title); err != nil {
		return nil, err
	}
	if headerRow > 1 && len(m.Dates) > 0 {
		period := fmt.Sprintf("%s .. %s", m.Dates[0].Time().Format("02.01.2006"), m.Dates[len(m.Dates)-1].Time().Format("02.01.2006"))
		if err := f.SetCellStr(sheetName, "A2", period); err != nil {
			return nil, err
		}
	}

	cell, err := excelize.CoordinatesToCellName(articleCol, headerRow)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStr(sheetName, cell, articleHeader); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Border: thinBorder(),
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	numFmt := dateNumFmt
	dateStyle, err := f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Bold: true},
		Border:       thinBorder(),
		CustomNumFmt: &numFmt,
		Alignment:    &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create date style: %w", err)
	}
	if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
		return nil, err
	}

	for i, d := range m.Dates {
		cell, err := excelize.CoordinatesToCellName(dateCol+i, headerRow)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, d.Time()); err != nil {
			return nil, fmt.Errorf("write date %s: %w", d, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, dateStyle); err != nil {
			return nil, err
		}
	}

	for r, row := range m.Rows {
		excelRow := headerRow + 1 + r
		cell, err := excelize.CoordinatesToCellName(articleCol, excelRow)
		if err != nil {
			return nil, err
		}
		// 文本写入，保留前导零
		if err := f.SetCellStr(sheetName, cell, row.Article); err != nil {
			return nil, err
		}
		for i, v := range row.Values {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(dateCol+i, excelRow)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, *v); err != nil {
				return nil, err
			}
		}
	}

	articleColName := parser.ColumnName(layout.ArticleColumn)
	if err := f.SetColWidth(sheetName, articleColName, articleColName, 18); err != nil {
		return nil, err
	}
	if len(m.Dates) > 0 {
		first := parser.ColumnName(layout.DateStartColumn)
		last := parser.ColumnName(layout.DateStartColumn + len(m.Dates) - 1)
		if err := f.SetColWidth(sheetName, first, last, 11); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// Filename 导出文件名
func Filename(m model.ScheduleMatrix) string {
	if len(m.Dates) == 0 {
		return fmt.Sprintf("plan_%s.xlsx", m.StartDate.Key())
	}
	return fmt.Sprintf("plan_%s_%s.xlsx", m.Dates[0].Key(), m.Dates[len(m.Dates)-1].Key())
}

func thinBorder() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "BFBFBF", Style: 1},
		{Type: "top", Color: "BFBFBF", Style: 1},
		{Type: "right", Color: "BFBFBF", Style: 1},
		{Type: "bottom", Color: "BFBFBF", Style: 1},
	}
}
