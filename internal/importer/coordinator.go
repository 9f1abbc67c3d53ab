package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/EugeneSatt/VKP-Table/internal/model"
	"github.com/EugeneSatt/VKP-Table/internal/parser"
)

// 事件类型
const (
	EventStart   = "start"
	EventInfo    = "info"
	EventWarning = "warning"
	EventError   = "error"
	EventDone    = "done"
)

// Saver 去重并持久化提取出的记录
type Saver interface {
	Save(ctx context.Context, records []model.PlanRecord) (int, error)
}

// LogStore 导入日志存储
type LogStore interface {
	CreateImportLog(ctx context.Context, log *model.ImportLog) error
	FinishImportLog(ctx context.Context, log *model.ImportLog) error
}

// Coordinator 导入协调器
type Coordinator struct {
	saver  Saver
	logs   LogStore
	layout parser.Layout
}

// NewCoordinator 创建导入协调器
func NewCoordinator(saver Saver, logs LogStore, layout parser.Layout) *Coordinator {
	return &Coordinator{
		saver:  saver,
		logs:   logs,
		layout: layout,
	}
}

// ImportOptions 导入选项
type ImportOptions struct {
	Filename string // 上传时的文件名
	Data     []byte // 文件内容
}

// ProgressEvent 进度事件
type ProgressEvent struct {
	Type      string      `json:"type"`      // start/info/warning/error/done
	Message   string      `json:"message"`   // 事件消息
	Data      interface{} `json:"data"`      // 附加数据
	Timestamp time.Time   `json:"timestamp"` // 时间戳

	Err error `json:"-"` // error 事件对应的错误
}

// Summary 导入完成时随 done 事件发送
type Summary struct {
	ImportID      string        `json:"importId"`
	Filename      string        `json:"filename"`
	HeaderRow     int           `json:"headerRow"`     // 从 1 开始
	ArticleColumn string        `json:"articleColumn"` // 列字母
	DateColumns   int           `json:"dateColumns"`
	FirstDate     string        `json:"firstDate"`
	LastDate      string        `json:"lastDate"`
	Extracted     int           `json:"extracted"` // 去重前
	Inserted      int           `json:"inserted"`
	Duration      time.Duration `json:"duration"`
}

// Import 执行导入，返回进度通道
func (c *Coordinator) Import(ctx context.Context, opts ImportOptions) <-chan ProgressEvent {
	progressChan := make(chan ProgressEvent, 100)

	go func() {
		defer close(progressChan)
		c.doImport(ctx, opts, progressChan)
	}()

	return progressChan
}

// Run 同步执行导入，返回写入条数或导入错误
func (c *Coordinator) Run(ctx context.Context, opts ImportOptions) (model.ImportResult, error) {
	var (
		result model.ImportResult
		err    = errors.New("import finished without result")
	)
	for evt := range c.Import(ctx, opts) {
		switch evt.Type {
		case EventDone:
			if s, ok := evt.Data.(*Summary); ok {
				result.Inserted = s.Inserted
			}
			err = nil
		case EventError:
			err = evt.Err
		}
	}
	return result, err
}

// doImport 执行导入逻辑
func (c *Coordinator) doImport(ctx context.Context, opts ImportOptions, progressChan chan ProgressEvent) {
	startTime := time.Now()
	logger := zerolog.Ctx(ctx).With().Str("filename", opts.Filename).Logger()

	importLog := &model.ImportLog{
		ID:        uuid.NewString(),
		Filename:  opts.Filename,
		FileSize:  int64(len(opts.Data)),
		Status:    model.ImportStatusProcessing,
		StartedAt: startTime.UTC(),
	}
	if err := c.logs.CreateImportLog(ctx, importLog); err != nil {
		c.fail(ctx, progressChan, nil, fmt.Errorf("create import log: %w", err))
		return
	}
	logger = logger.With().Str("import_id", importLog.ID).Logger()

	c.sendProgress(progressChan, ProgressEvent{
		Type:    EventStart,
		Message: "Excel import started",
		Data: map[string]interface{}{
			"import_id": importLog.ID,
			"filename":  opts.Filename,
			"size":      importLog.FileSize,
		},
		Timestamp: time.Now(),
	})

	// 读取第一个工作表
	grid, err := parser.ReadGrid(opts.Data)
	if err != nil {
		c.fail(ctx, progressChan, importLog, err)
		return
	}
	c.sendProgress(progressChan, ProgressEvent{
		Type:      EventInfo,
		Message:   fmt.Sprintf("Read %d rows from the first sheet", len(grid)),
		Data:      map[string]interface{}{"rows": len(grid)},
		Timestamp: time.Now(),
	})

	// 定位表头和日期列，提取记录
	ex, err := parser.Extract(grid, c.layout)
	if err != nil {
		c.fail(ctx, progressChan, importLog, err)
		return
	}
	importLog.HeaderRow = ex.Header.Row + 1
	importLog.ArticleColumn = ex.Header.ArticleColumn + 1
	importLog.DateColumns = len(ex.DateColumns)
	importLog.Extracted = len(ex.Records)

	articleCol := parser.ColumnName(ex.Header.ArticleColumn)
	c.sendProgress(progressChan, ProgressEvent{
		Type:    EventInfo,
		Message: fmt.Sprintf("Header row %d, article column %s", ex.Header.Row+1, articleCol),
		Data: map[string]interface{}{
			"header_row":     ex.Header.Row + 1,
			"article_column": articleCol,
			"label_matched":  ex.Header.LabelMatched,
		},
		Timestamp: time.Now(),
	})
	if !ex.Header.LabelMatched {
		c.sendProgress(progressChan, ProgressEvent{
			Type:      EventWarning,
			Message:   fmt.Sprintf("No article header label found, using column %s by position", articleCol),
			Timestamp: time.Now(),
		})
	}

	first, last := ex.DateColumns[0].Date, ex.DateColumns[0].Date
	for _, dc := range ex.DateColumns[1:] {
		if dc.Date.Before(first) {
			first = dc.Date
		}
		if dc.Date.After(last) {
			last = dc.Date
		}
	}
	c.sendProgress(progressChan, ProgressEvent{
		Type:    EventInfo,
		Message: fmt.Sprintf("Found %d date columns (%s .. %s), %d quantities", len(ex.DateColumns), first, last, len(ex.Records)),
		Data: map[string]interface{}{
			"date_columns": len(ex.DateColumns),
			"first_date":   first.Key(),
			"last_date":    last.Key(),
			"extracted":    len(ex.Records),
		},
		Timestamp: time.Now(),
	})
	if len(ex.Records) == 0 {
		c.sendProgress(progressChan, ProgressEvent{
			Type:      EventWarning,
			Message:   "No non-zero quantities found, nothing to import",
			Timestamp: time.Now(),
		})
	}

	// 去重并写入
	inserted, err := c.saver.Save(ctx, ex.Records)
	if err != nil {
		importLog.Inserted = inserted
		c.fail(ctx, progressChan, importLog, fmt.Errorf("save records: %w", err))
		return
	}

	importLog.Inserted = inserted
	importLog.Status = model.ImportStatusImported
	if err := c.logs.FinishImportLog(ctx, importLog); err != nil {
		logger.Warn().Err(err).Msg("failed to finish import log")
	}

	summary := &Summary{
		ImportID:      importLog.ID,
		Filename:      opts.Filename,
		HeaderRow:     ex.Header.Row + 1,
		ArticleColumn: articleCol,
		DateColumns:   len(ex.DateColumns),
		FirstDate:     first.Key(),
		LastDate:      last.Key(),
		Extracted:     len(ex.Records),
		Inserted:      inserted,
		Duration:      time.Since(startTime),
	}
	logger.Info().
		Int("extracted", summary.Extracted).
		Int("inserted", summary.Inserted).
		Dur("duration", summary.Duration).
		Msg("excel import done")

	c.sendProgress(progressChan, ProgressEvent{
		Type:      EventDone,
		Message:   fmt.Sprintf("Import finished: %d records saved", inserted),
		Data:      summary,
		Timestamp: time.Now(),
	})
}

// fail 记录失败并发送 error 事件；输入错误记为 rejected，其余为 failed
func (c *Coordinator) fail(ctx context.Context, progressChan chan ProgressEvent, importLog *model.ImportLog, err error) {
	invalid := model.IsInputError(err)
	logger := zerolog.Ctx(ctx)

	data := map[string]interface{}{"invalid": invalid}
	if importLog != nil {
		data["import_id"] = importLog.ID
		importLog.ErrorMessage = err.Error()
		importLog.Status = model.ImportStatusFailed
		if invalid {
			importLog.Status = model.ImportStatusRejected
		}
		// 请求已取消时仍要落日志
		if ferr := c.logs.FinishImportLog(context.WithoutCancel(ctx), importLog); ferr != nil {
			logger.Warn().Err(ferr).Str("import_id", importLog.ID).Msg("failed to finish import log")
		}
	}

	if invalid {
		logger.Info().Err(err).Msg("excel import rejected")
	} else {
		logger.Error().Err(err).Msg("excel import failed")
	}

	c.sendProgress(progressChan, ProgressEvent{
		Type:      EventError,
		Message:   err.Error(),
		Data:      data,
		Timestamp: time.Now(),
		Err:       err,
	})
}

func (c *Coordinator) sendProgress(ch chan ProgressEvent, event ProgressEvent) {
	select {
	case ch <- event:
	default:
		// 通道已满，丢弃事件
	}
}
