package schedule

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/EugeneSatt/VKP-Table/internal/model"
	"github.com/EugeneSatt/VKP-Table/internal/plan"
)

// Repository 计划记录存储；SQL 存储和内存存储都实现该接口
type Repository interface {
	ListRange(ctx context.Context, start, end model.Date) ([]model.PlanRecord, error)
	UpsertBatch(ctx context.Context, records []model.PlanRecord) error
	RenameArticle(ctx context.Context, oldArticle, newArticle string) (int, error)
	Stats(ctx context.Context) (model.Stats, error)
}

// Options 服务参数
type Options struct {
	BatchSize   int // 每批写入条数
	DefaultDays int // 未指定 days 时的天数
	MaxDays     int // 单次查询的最大天数
}

// DefaultOptions 默认参数
func DefaultOptions() Options {
	return Options{
		BatchSize:   600,
		DefaultDays: 30,
		MaxDays:     366,
	}
}

// Service 采购计划服务
type Service struct {
	repo Repository
	opts Options
}

var _ plan.Saver = (*Service)(nil)

// NewService 创建服务，未设置的参数取默认值
func NewService(repo Repository, opts Options) *Service {
	def := DefaultOptions()
	if opts.BatchSize <= 0 {
		opts.BatchSize = def.BatchSize
	}
	if opts.DefaultDays <= 0 {
		opts.DefaultDays = def.DefaultDays
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = def.MaxDays
	}
	if opts.DefaultDays > opts.MaxDays {
		opts.DefaultDays = opts.MaxDays
	}
	return &Service{repo: repo, opts: opts}
}

// Options 当前参数
func (s *Service) Options() Options {
	return s.opts
}

// ResolveRange 解析查询参数 startDate/days，空值取今天和默认天数
func (s *Service) ResolveRange(startParam, daysParam string) (model.Date, int, error) {
	start := model.Today()
	if v := strings.TrimSpace(startParam); v != "" {
		d, err := model.ParseDate(v)
		if err != nil {
			return model.Date{}, 0, model.Invalidf("invalid startDate %q: expected YYYY-MM-DD", v)
		}
		start = d
	}

	days := s.opts.DefaultDays
	if v := strings.TrimSpace(daysParam); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return model.Date{}, 0, model.Invalidf("invalid days %q: expected an integer", v)
		}
		days = n
	}
	if err := s.validateDays(days); err != nil {
		return model.Date{}, 0, err
	}
	return start, days, nil
}

func (s *Service) validateDays(days int) error {
	if days < 1 || days > s.opts.MaxDays {
		return model.Invalidf("days must be between 1 and %d, got %d", s.opts.MaxDays, days)
	}
	return nil
}

// Raw 区间内的记录，按物料、日期排序
func (s *Service) Raw(ctx context.Context, start model.Date, days int) ([]model.PlanRecord, error) {
	if err := s.validateDays(days); err != nil {
		return nil, err
	}
	records, err := s.repo.ListRange(ctx, start, start.AddDays(days))
	if err != nil {
		return nil, fmt.Errorf("list plan records: %w", err)
	}
	return records, nil
}

// Matrix 区间内的计划矩阵
func (s *Service) Matrix(ctx context.Context, start model.Date, days int) (model.ScheduleMatrix, error) {
	records, err := s.Raw(ctx, start, days)
	if err != nil {
		return model.ScheduleMatrix{}, err
	}
	return plan.Project(start, days, records), nil
}

// BulkUpsert 校验并写入客户端提交的记录，返回写入条数
func (s *Service) BulkUpsert(ctx context.Context, entries []model.PlanRecord) (int, error) {
	records := make([]model.PlanRecord, 0, len(entries))
	for i, e := range entries {
		e.Article = model.NormalizeArticle(e.Article)
		if err := validateEntry(i, e); err != nil {
			return 0, err
		}
		records = append(records, e)
	}
	return s.Save(ctx, records)
}

func validateEntry(i int, e model.PlanRecord) error {
	if e.Date.IsZero() {
		return model.Invalidf("entry %d: date is required", i)
	}
	if e.Article == "" {
		return model.Invalidf("entry %d: article is required", i)
	}
	if e.Qty < 0 {
		return model.Invalidf("entry %d: qty must be non-negative, got %d", i, e.Qty)
	}
	if e.Qty > model.MaxQty {
		return model.Invalidf("entry %d: qty exceeds %d", i, model.MaxQty)
	}
	return nil
}

// Save 去重后分批写入，返回写入条数
func (s *Service) Save(ctx context.Context, records []model.PlanRecord) (int, error) {
	records = plan.Deduplicate(records)
	written := 0
	for start := 0; start < len(records); start += s.opts.BatchSize {
		end := min(start+s.opts.BatchSize, len(records))
		if err := s.repo.UpsertBatch(ctx, records[start:end]); err != nil {
			return written, fmt.Errorf("upsert batch %d-%d: %w", start, end, err)
		}
		written = end
	}
	return written, nil
}

// RenameArticle 物料改名，目标已有同日记录时以移动过来的值为准
func (s *Service) RenameArticle(ctx context.Context, oldArticle, newArticle string) (model.RenameResult, error) {
	oldArticle = model.NormalizeArticle(oldArticle)
	newArticle = model.NormalizeArticle(newArticle)
	if oldArticle == "" || newArticle == "" {
		return model.RenameResult{}, model.Invalidf("oldArticle and newArticle are required")
	}
	if oldArticle == newArticle {
		return model.RenameResult{}, nil
	}

	n, err := s.repo.RenameArticle(ctx, oldArticle, newArticle)
	if err != nil {
		return model.RenameResult{}, fmt.Errorf("rename article: %w", err)
	}
	return model.RenameResult{Updated: n}, nil
}

// CreateArticle 新建物料并写入其各日数量
func (s *Service) CreateArticle(ctx context.Context, article string, entries []model.ArticleEntry) (int, error) {
	article = model.NormalizeArticle(article)
	if article == "" {
		return 0, model.Invalidf("article is required")
	}
	records := make([]model.PlanRecord, 0, len(entries))
	for _, e := range entries {
		records = append(records, model.PlanRecord{Date: e.Date, Article: article, Qty: e.Qty})
	}
	return s.BulkUpsert(ctx, records)
}

// Stats 存储概况
func (s *Service) Stats(ctx context.Context) (model.Stats, error) {
	st, err := s.repo.Stats(ctx)
	if err != nil {
		return st, fmt.Errorf("stats: %w", err)
	}
	return st, nil
}
