package v1

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/EugeneSatt/VKP-Table/internal/importer"
	"github.com/EugeneSatt/VKP-Table/internal/model"
	"github.com/EugeneSatt/VKP-Table/internal/parser"
	"github.com/EugeneSatt/VKP-Table/internal/service/schedule"
)

// Storage 导入日志查询与存储探活
type Storage interface {
	ListImportLogs(ctx context.Context, limit int) ([]model.ImportLog, error)
	Driver() string
	Ping(ctx context.Context) error
}

// Options 处理器参数
type Options struct {
	Layout         parser.Layout     // 导入/导出模板布局
	MaxUploadBytes int64             // 上传大小上限
	UploadGuards   []gin.HandlerFunc // 上传接口前置中间件（限流等）
}

// Handler V1 API 处理器
type Handler struct {
	svc      *schedule.Service
	importer *importer.Coordinator
	storage  Storage
	opts     Options
}

// NewHandler 创建 V1 API 处理器
func NewHandler(svc *schedule.Service, coordinator *importer.Coordinator, storage Storage, opts Options) *Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 20 << 20
	}
	return &Handler{
		svc:      svc,
		importer: coordinator,
		storage:  storage,
		opts:     opts,
	}
}

// RegisterRoutes 注册 V1 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态
	router.GET("/health", h.Health)
	router.GET("/status", h.GetStatus)

	sched := router.Group("/schedule")
	// 矩阵与原始记录
	sched.GET("", h.GetSchedule)
	sched.GET("/raw", h.GetRaw)
	// 编辑保存
	sched.POST("/bulk", h.BulkUpsert)
	sched.POST("/rename-article", h.RenameArticle)
	sched.POST("/articles", h.CreateArticle)

	// Excel 导入
	upload := append(append([]gin.HandlerFunc{}, h.opts.UploadGuards...), h.UploadExcel)
	sched.POST("/upload-excel", upload...)
	stream := append(append([]gin.HandlerFunc{}, h.opts.UploadGuards...), h.UploadExcelStream)
	sched.POST("/upload-excel/stream", stream...)
	sched.GET("/imports", h.ListImports)

	// 导出
	sched.GET("/export", h.Export)
}

// respondError 输入错误返回 400，其余 500
func respondError(c *gin.Context, err error) {
	if model.IsInputError(err) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	zerolog.Ctx(c.Request.Context()).Error().Err(err).
		Str("path", c.FullPath()).
		Msg("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
