package plan

import "github.com/EugeneSatt/VKP-Table/internal/model"

// Deduplicate 按 (物料, 日期) 去重，后出现的记录覆盖先出现的
// 输出按键首次出现的顺序排列
func Deduplicate(records []model.PlanRecord) []model.PlanRecord {
	if len(records) == 0 {
		return []model.PlanRecord{}
	}

	index := make(map[string]int, len(records))
	out := make([]model.PlanRecord, 0, len(records))
	for _, r := range records {
		key := r.Key()
		if i, ok := index[key]; ok {
			out[i] = r
			continue
		}
		index[key] = len(out)
		out = append(out, r)
	}
	return out
}
