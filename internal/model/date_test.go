package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	t.Parallel()

	ok := map[string]string{
		"2025-10-01":                "2025-10-01",
		"  2025-10-01 ":             "2025-10-01",
		"2025-10-01T00:00:00Z":      "2025-10-01",
		"2025-10-01T23:30:00-05:00": "2025-10-01", // 取时间戳自身时区的日期，不换算到 UTC
		"2025-10-02T01:00:00+03:00": "2025-10-02",
		"2024-02-29T12:00:00.5Z":    "2024-02-29",
	}
	for in, want := range ok {
		d, err := ParseDate(in)
		if err != nil {
			t.Fatalf("ParseDate(%q): %v", in, err)
		}
		if d.Key() != want {
			t.Fatalf("ParseDate(%q) want=%s got=%s", in, want, d.Key())
		}
		if d.Time().Location() != time.UTC || d.Time().Hour() != 0 {
			t.Fatalf("ParseDate(%q) must be UTC midnight, got %v", in, d.Time())
		}
	}

	for _, in := range []string{"", "2025-13-01", "2025-02-30", "01.10.2025", "2025/10/01", "tomorrow"} {
		if d, err := ParseDate(in); err == nil {
			t.Fatalf("ParseDate(%q) expected error, got %s", in, d)
		}
	}
}

func TestDate_Arithmetic(t *testing.T) {
	t.Parallel()

	d := MustParseDate("2024-12-31")
	next := d.AddDays(1)
	if next.Key() != "2025-01-01" {
		t.Fatalf("AddDays across year: %s", next)
	}
	if !d.Before(next) || !next.After(d) || d.Equal(next) {
		t.Fatalf("ordering broken for %s / %s", d, next)
	}
	if !next.AddDays(-1).Equal(d) {
		t.Fatalf("AddDays(-1) should return to %s", d)
	}
	if !(Date{}).IsZero() || d.IsZero() {
		t.Fatalf("IsZero mismatch")
	}
	if NewDate(2025, time.February, 29).Key() != "2025-03-01" {
		t.Fatalf("NewDate should normalize like time.Date")
	}
}

func TestDate_JSON(t *testing.T) {
	t.Parallel()

	type payload struct {
		Date Date `json:"date"`
	}

	raw, err := json.Marshal(payload{Date: NewDate(2025, time.October, 5)})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(raw) != `{"date":"2025-10-05"}` {
		t.Fatalf("unexpected json: %s", raw)
	}

	var p payload
	if err := json.Unmarshal([]byte(`{"date":"2025-10-05T22:00:00+02:00"}`), &p); err != nil {
		t.Fatalf("Unmarshal RFC 3339: %v", err)
	}
	if p.Date.Key() != "2025-10-05" {
		t.Fatalf("unexpected date: %s", p.Date)
	}

	// null 解码为空字符串，同样是无效日期
	for _, in := range []string{`{"date":20251005}`, `{"date":"05.10.2025"}`, `{"date":null}`} {
		var bad payload
		if err := json.Unmarshal([]byte(in), &bad); err == nil {
			t.Fatalf("Unmarshal(%s) expected error, got %s", in, bad.Date)
		}
	}
}

func TestPlanRecord_Key(t *testing.T) {
	t.Parallel()

	a := PlanRecord{Date: MustParseDate("2025-10-01"), Article: "ABC", Qty: 1}
	b := PlanRecord{Date: MustParseDate("2025-10-01"), Article: "ABC", Qty: 9}
	c := PlanRecord{Date: MustParseDate("2025-10-02"), Article: "ABC", Qty: 1}

	if a.Key() != "ABC__2025-10-01" {
		t.Fatalf("unexpected key %q", a.Key())
	}
	if a.Key() != b.Key() {
		t.Fatalf("qty must not affect the key")
	}
	if a.Key() == c.Key() {
		t.Fatalf("different dates must have different keys")
	}
	if NormalizeArticle("  abc ") != "ABC" || NormalizeArticle(NormalizeArticle(" x ")) != "X" {
		t.Fatalf("NormalizeArticle must trim, upper-case and be idempotent")
	}
}

func TestInputError(t *testing.T) {
	t.Parallel()

	err := Invalidf("row %d: bad qty", 7)
	if !IsInputError(err) || err.Error() != "row 7: bad qty" {
		t.Fatalf("unexpected input error: %v", err)
	}
	if !IsInputError(fmt.Errorf("import: %w", err)) {
		t.Fatalf("wrapped input error must still match")
	}
	if IsInputError(errors.New("disk full")) || IsInputError(nil) {
		t.Fatalf("plain errors are not input errors")
	}
}
