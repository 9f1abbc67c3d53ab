package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/EugeneSatt/VKP-Table/internal/model"
)

// MemoryStore 内存数据存储，DISABLE_DB=1 时使用
type MemoryStore struct {
	records map[string]model.PlanRecord
	imports []model.ImportLog
	mu      sync.RWMutex
}

// NewMemoryStore 创建内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]model.PlanRecord),
	}
}

// ListRange 获取 [start, end) 内的记录，按物料、日期排序
func (s *MemoryStore) ListRange(_ context.Context, start, end model.Date) ([]model.PlanRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]model.PlanRecord, 0)
	for _, r := range s.records {
		if r.Date.Before(start) || !r.Date.Before(end) {
			continue
		}
		result = append(result, r)
	}
	sortRecords(result)
	return result, nil
}

// UpsertBatch 写入记录，同键覆盖
func (s *MemoryStore) UpsertBatch(_ context.Context, records []model.PlanRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		r.Article = model.NormalizeArticle(r.Article)
		s.records[r.Key()] = r
	}
	return nil
}

// RenameArticle 将 oldArticle 的全部记录移到 newArticle 下
// 与 newArticle 已有记录同日冲突时，移动过来的值覆盖原值
func (s *MemoryStore) RenameArticle(_ context.Context, oldArticle, newArticle string) (int, error) {
	oldArticle = model.NormalizeArticle(oldArticle)
	newArticle = model.NormalizeArticle(newArticle)
	if oldArticle == newArticle {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	moved := make([]model.PlanRecord, 0)
	for k, r := range s.records {
		if r.Article == oldArticle {
			moved = append(moved, r)
			delete(s.records, k)
		}
	}
	for _, r := range moved {
		r.Article = newArticle
		s.records[r.Key()] = r
	}
	return len(moved), nil
}

// Stats 存储概况
func (s *MemoryStore) Stats(_ context.Context) (model.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := model.Stats{Records: len(s.records)}
	articles := make(map[string]struct{})
	var first, last model.Date
	for _, r := range s.records {
		articles[r.Article] = struct{}{}
		if first.IsZero() || r.Date.Before(first) {
			first = r.Date
		}
		if last.IsZero() || r.Date.After(last) {
			last = r.Date
		}
	}
	st.Articles = len(articles)
	if !first.IsZero() {
		st.FirstDate = first.Key()
		st.LastDate = last.Key()
	}
	return st, nil
}

// Count 记录数
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Driver 存储类型
func (s *MemoryStore) Driver() string {
	return "memory"
}

// Ping 内存存储始终可用
func (s *MemoryStore) Ping(_ context.Context) error {
	return nil
}

// CreateImportLog 记录一次导入开始
func (s *MemoryStore) CreateImportLog(_ context.Context, log *model.ImportLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if log.StartedAt.IsZero() {
		log.StartedAt = time.Now()
	}
	s.imports = append(s.imports, *log)
	return nil
}

// FinishImportLog 更新导入结果
func (s *MemoryStore) FinishImportLog(_ context.Context, log *model.ImportLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if log.CompletedAt == nil {
		now := time.Now()
		log.CompletedAt = &now
	}
	for i := range s.imports {
		if s.imports[i].ID == log.ID {
			s.imports[i] = *log
			return nil
		}
	}
	s.imports = append(s.imports, *log)
	return nil
}

// ListImportLogs 最近的导入日志，新的在前
func (s *MemoryStore) ListImportLogs(_ context.Context, limit int) ([]model.ImportLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.imports)
	if limit <= 0 || limit > n {
		limit = n
	}
	result := make([]model.ImportLog, 0, limit)
	for i := n - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, s.imports[i])
	}
	return result, nil
}

func sortRecords(records []model.PlanRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].Article != records[j].Article {
			return records[i].Article < records[j].Article
		}
		return records[i].Date.Before(records[j].Date)
	})
}

// Close 内存存储无需释放资源
func (s *MemoryStore) Close() error {
	return nil
}
