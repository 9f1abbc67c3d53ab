package plan

import (
	"sort"

	"github.com/EugeneSatt/VKP-Table/internal/model"
)

// DateAxis 从 start 开始的连续 days 天
func DateAxis(start model.Date, days int) []model.Date {
	if days < 0 {
		days = 0
	}
	dates := make([]model.Date, days)
	for i := range dates {
		dates[i] = start.AddDays(i)
	}
	return dates
}

// Project 将稀疏记录投影为 物料 x 日期 矩阵
// 区间外的记录忽略；行按物料号升序；无记录的格子为 nil
func Project(start model.Date, days int, records []model.PlanRecord) model.ScheduleMatrix {
	dates := DateAxis(start, days)
	column := make(map[string]int, len(dates))
	for i, d := range dates {
		column[d.Key()] = i
	}

	byArticle := make(map[string][]*int)
	for _, r := range records {
		col, ok := column[r.Date.Key()]
		if !ok {
			continue
		}
		article := model.NormalizeArticle(r.Article)
		if article == "" {
			continue
		}
		values, ok := byArticle[article]
		if !ok {
			values = make([]*int, len(dates))
			byArticle[article] = values
		}
		qty := r.Qty
		values[col] = &qty
	}

	articles := make([]string, 0, len(byArticle))
	for a := range byArticle {
		articles = append(articles, a)
	}
	sort.Strings(articles)

	rows := make([]model.MatrixRow, 0, len(articles))
	for _, a := range articles {
		rows = append(rows, model.MatrixRow{
			Article:         a,
			OriginalArticle: a,
			Values:          byArticle[a],
		})
	}

	return model.ScheduleMatrix{
		StartDate: start,
		Days:      len(dates),
		Dates:     dates,
		Rows:      rows,
	}
}
