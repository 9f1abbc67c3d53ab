package parser

import (
	"time"

	"github.com/EugeneSatt/VKP-Table/internal/model"
)

// ExtractRecords 按行提取 (物料, 日期, 数量)
// 无物料号的行整行跳过；空值、非数字和零值单元格跳过
func ExtractRecords(grid Grid, header Header, dateColumns []DateColumn) []model.PlanRecord {
	records := make([]model.PlanRecord, 0)
	for r := header.Row + 1; r < len(grid); r++ {
		row := grid[r]
		article := ArticleFromCell(cellAt(row, header.ArticleColumn))
		if article == "" {
			continue
		}
		for _, dc := range dateColumns {
			qty, ok := QtyFromCell(cellAt(row, dc.Index))
			if !ok {
				continue
			}
			records = append(records, model.PlanRecord{
				Date:    dc.Date,
				Article: article,
				Qty:     qty,
			})
		}
	}
	return records
}

// Extract 定位表头和日期列后提取记录，定位失败时不产生任何记录
func Extract(grid Grid, layout Layout) (*Extraction, error) {
	start := time.Now()

	header, err := LocateHeader(grid, layout)
	if err != nil {
		return nil, err
	}
	dateColumns, err := LocateDateColumns(grid, header, layout)
	if err != nil {
		return nil, err
	}

	return &Extraction{
		Header:      header,
		DateColumns: dateColumns,
		Records:     ExtractRecords(grid, header, dateColumns),
		Duration:    time.Since(start),
	}, nil
}
