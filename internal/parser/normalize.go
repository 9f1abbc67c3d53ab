package parser

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"

	"github.com/EugeneSatt/VKP-Table/internal/model"
)

// 9999-12-31 的序列号
const maxExcelSerial = 2958465

var textDateLayouts = []string{
	model.DateLayout,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"02.01.2006",
	"02.01.06",
	"2006/01/02",
}

// CellToDate 单元格转日期，非日期返回 false
func CellToDate(cell Cell) (model.Date, bool) {
	switch v := cell.(type) {
	case nil:
		return model.Date{}, false
	case time.Time:
		if v.IsZero() {
			return model.Date{}, false
		}
		return model.DateOf(v), true
	case float64:
		return serialToDate(v)
	case float32:
		return serialToDate(float64(v))
	case int:
		return serialToDate(float64(v))
	case int64:
		return serialToDate(float64(v))
	case string:
		return textToDate(v)
	}
	return model.Date{}, false
}

// serialToDate Excel 序列号（1900 体系）转日期，忽略时分秒
func serialToDate(serial float64) (model.Date, bool) {
	if math.IsNaN(serial) || math.IsInf(serial, 0) {
		return model.Date{}, false
	}
	day := math.Floor(serial)
	if day < 1 || day > maxExcelSerial {
		return model.Date{}, false
	}
	t, err := excelize.ExcelDateToTime(day, false)
	if err != nil {
		return model.Date{}, false
	}
	return model.DateOf(t), true
}

func textToDate(s string) (model.Date, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return model.Date{}, false
	}
	if f, ok := parseNumber(s); ok {
		return serialToDate(f)
	}
	for _, layout := range textDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return model.DateOf(t), true
		}
	}
	t, err := dateparse.ParseStrict(s)
	if err != nil {
		return model.Date{}, false
	}
	return model.DateOf(t), true
}

func parseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// CellText 单元格转文本，数字不带指数和多余的零
func CellText(cell Cell) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case time.Time:
		return model.DateOf(v).Key()
	}
	return fmt.Sprint(cell)
}

// ArticleFromCell 单元格中的规范化物料号，没有时返回 ""
func ArticleFromCell(cell Cell) string {
	return model.NormalizeArticle(CellText(cell))
}

// maxQty 单元格数量上限，超出视为非数字
var maxQty = decimal.NewFromInt(model.MaxQty)

// QtyFromCell 数量向零截断；空值、非数字、非正数和超出上限的值返回 false
func QtyFromCell(cell Cell) (int, bool) {
	var d decimal.Decimal
	switch v := cell.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		d = decimal.NewFromFloat(v)
	case float32:
		d = decimal.NewFromFloat32(v)
	case int:
		d = decimal.NewFromInt(int64(v))
	case int64:
		d = decimal.NewFromInt(v)
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false
		}
		parsed, err := decimal.NewFromString(s)
		if err != nil {
			return 0, false
		}
		d = parsed
	default:
		return 0, false
	}
	if d.Sign() <= 0 {
		return 0, false
	}
	whole := d.Truncate(0)
	if whole.GreaterThan(maxQty) {
		return 0, false
	}
	return int(whole.IntPart()), true
}

// NormalizeHeaderText 合并空白并做大小写折叠，用于表头匹配
func NormalizeHeaderText(text string) string {
	return cases.Fold().String(strings.Join(strings.Fields(text), " "))
}

// ContainsAny 折叠后的文本是否包含任一标签
func ContainsAny(text string, labels []string) bool {
	folded := NormalizeHeaderText(text)
	if folded == "" {
		return false
	}
	for _, label := range labels {
		l := NormalizeHeaderText(label)
		if l != "" && strings.Contains(folded, l) {
			return true
		}
	}
	return false
}
