package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout 日期文本格式
const DateLayout = "2006-01-02"

// Date 日历日，不含时间，内部为 UTC 零点
type Date struct {
	t time.Time
}

// NewDate 按年月日构造，越界部分与 time.Date 一样归一化
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf 取 t 在其自身时区下的日期
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// Today 当前 UTC 日期
func Today() Date {
	return DateOf(time.Now().UTC())
}

// ParseDate 解析 YYYY-MM-DD 或 RFC 3339 时间戳（只取日期部分）
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return DateOf(t), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return DateOf(t), nil
	}
	return Date{}, fmt.Errorf("invalid date %q", s)
}

// MustParseDate 解析失败时 panic，用于测试和默认值中的字面量
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// AddDays 偏移 n 天
func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

// Before d 是否早于 o
func (d Date) Before(o Date) bool { return d.t.Before(o.t) }

// After d 是否晚于 o
func (d Date) After(o Date) bool { return d.t.After(o.t) }

// Equal 是否同一天
func (d Date) Equal(o Date) bool { return d.t.Equal(o.t) }

// IsZero 是否为零值
func (d Date) IsZero() bool { return d.t.IsZero() }

// Time 当天 UTC 零点
func (d Date) Time() time.Time { return d.t }

// Key YYYY-MM-DD，用作 map 键和存储值
func (d Date) Key() string { return d.t.Format(DateLayout) }

func (d Date) String() string { return d.Key() }

// MarshalJSON 编码为 "YYYY-MM-DD"
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Key())
}

// UnmarshalJSON 解码 "YYYY-MM-DD" 或 RFC 3339 字符串
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
