package model

// MatrixRow 计划矩阵中的一行（一个物料）
type MatrixRow struct {
	Article         string `json:"article"`         // 当前物料号，客户端可编辑
	OriginalArticle string `json:"originalArticle"` // 加载时的物料号；客户端新增行为 ""
	Values          []*int `json:"values"`          // 与 ScheduleMatrix.Dates 对齐，nil 表示无记录
}

// ScheduleMatrix 物料 x 日期 的计划矩阵
type ScheduleMatrix struct {
	StartDate Date        `json:"startDate"`
	Days      int         `json:"days"`
	Dates     []Date      `json:"dates"`
	Rows      []MatrixRow `json:"rows"`
}
