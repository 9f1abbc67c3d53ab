package parser

import (
	"bytes"
	"fmt"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"github.com/EugeneSatt/VKP-Table/internal/model"
)

// Format 工作簿格式
type Format string

const (
	FormatUnknown Format = "unknown"
	FormatXLSX    Format = "xlsx"
	FormatXLS     Format = "xls"
)

var (
	zipSignature = []byte{0x50, 0x4B, 0x03, 0x04}
	oleSignature = []byte{0xD0, 0xCF, 0x11, 0xE0}
)

// oleMinSize OLE2 文件头加一个扇区
const oleMinSize = 1024

// DetectFormat 按文件头签名识别格式
func DetectFormat(data []byte) Format {
	switch {
	case bytes.HasPrefix(data, zipSignature):
		return FormatXLSX
	case bytes.HasPrefix(data, oleSignature):
		return FormatXLS
	default:
		return FormatUnknown
	}
}

// ReadGrid 读取 xlsx/xls 第一个工作表的原始单元格
func ReadGrid(data []byte) (Grid, error) {
	if len(data) == 0 {
		return nil, model.Invalidf("uploaded file is empty")
	}
	switch DetectFormat(data) {
	case FormatXLSX:
		return readXLSX(data)
	case FormatXLS:
		return readXLS(data)
	default:
		return nil, model.Invalidf("unsupported file type: expected an .xlsx or .xls workbook")
	}
}

func readXLSX(data []byte) (Grid, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, model.Invalidf("failed to open excel: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, model.Invalidf("workbook has no sheets")
	}

	// 原始值：日期列按序列号读出，不受单元格格式影响
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return gridFromStrings(rows), nil
}

func readXLS(data []byte) (grid Grid, err error) {
	// extrame/xls 遇到损坏文件可能 panic
	defer func() {
		if r := recover(); r != nil {
			grid = nil
			err = model.Invalidf("failed to open excel: %v", r)
		}
	}()

	if len(data) < oleMinSize {
		return nil, model.Invalidf("failed to open excel: xls file is truncated")
	}

	// 旧版 BIFF5 文件多为 cp1251
	wb, err := xls.OpenReader(bytes.NewReader(data), "windows-1251")
	if err != nil {
		wb, err = xls.OpenReader(bytes.NewReader(data), "utf-8")
	}
	if err != nil {
		return nil, model.Invalidf("failed to open excel: %v", err)
	}
	// 没有 Workbook 流时 OpenReader 返回 nil, nil
	if wb == nil {
		return nil, model.Invalidf("failed to open excel: no workbook stream")
	}
	if wb.NumSheets() == 0 {
		return nil, model.Invalidf("workbook has no sheets")
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, model.Invalidf("workbook has no sheets")
	}

	rows := make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cols := make([]string, 0, row.LastCol()+1)
		for j := 0; j <= row.LastCol(); j++ {
			cols = append(cols, row.Col(j))
		}
		rows = append(rows, cols)
	}
	return gridFromStrings(trimTrailingEmptyRows(rows)), nil
}

func gridFromStrings(rows [][]string) Grid {
	grid := make(Grid, len(rows))
	for i, row := range rows {
		cells := make([]Cell, len(row))
		for j, v := range row {
			if v != "" {
				cells[j] = v
			}
		}
		grid[i] = cells
	}
	return grid
}

func trimTrailingEmptyRows(rows [][]string) [][]string {
	for len(rows) > 0 {
		last := rows[len(rows)-1]
		empty := true
		for _, v := range last {
			if v != "" {
				empty = false
				break
			}
		}
		if !empty {
			break
		}
		rows = rows[:len(rows)-1]
	}
	return rows
}
