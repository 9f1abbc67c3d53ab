package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	v1 "github.com/EugeneSatt/VKP-Table/internal/api/v1"
	"github.com/EugeneSatt/VKP-Table/internal/config"
	"github.com/EugeneSatt/VKP-Table/internal/importer"
	"github.com/EugeneSatt/VKP-Table/internal/logger"
	"github.com/EugeneSatt/VKP-Table/internal/model"
	"github.com/EugeneSatt/VKP-Table/internal/service/schedule"
	memstore "github.com/EugeneSatt/VKP-Table/internal/service/store"
	"github.com/EugeneSatt/VKP-Table/internal/store"
)

// Backend 存储后端：计划记录 + 导入日志
type Backend interface {
	schedule.Repository
	CreateImportLog(ctx context.Context, log *model.ImportLog) error
	FinishImportLog(ctx context.Context, log *model.ImportLog) error
	ListImportLogs(ctx context.Context, limit int) ([]model.ImportLog, error)
	Driver() string
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Backend = (*store.Store)(nil)
	_ Backend = (*memstore.MemoryStore)(nil)
)

// Server HTTP服务器
type Server struct {
	router  *gin.Engine
	backend Backend
	storage string
	log     zerolog.Logger
	http    *http.Server
	v1      *v1.Handler
}

// OpenBackend 按配置打开存储
func OpenBackend(cfg *config.AppConfig, dataDir string) (Backend, error) {
	switch cfg.Database.Driver {
	case config.DriverMemory:
		return memstore.NewMemoryStore(), nil
	case config.DriverSQLite, config.DriverPostgres:
		st, err := store.Open(cfg.Database.Driver, config.DatabaseDSN(cfg, dataDir))
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", cfg.Database.Driver)
	}
}

// NewServer 创建服务器
func NewServer(cfg *config.AppConfig, backend Backend, log zerolog.Logger) (*Server, error) {
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}

	layout, err := cfg.Import.Layout()
	if err != nil {
		return nil, fmt.Errorf("invalid import layout: %w", err)
	}

	svc := schedule.NewService(backend, schedule.Options{
		BatchSize:   cfg.Schedule.BatchSize,
		DefaultDays: cfg.Schedule.DefaultDays,
		MaxDays:     cfg.Schedule.MaxDays,
	})
	coordinator := importer.NewCoordinator(svc, backend, layout)

	guards := make([]gin.HandlerFunc, 0, 1)
	if cfg.Server.UploadRatePerMin > 0 {
		guards = append(guards, RateLimit(cfg.Server.UploadRatePerMin, cfg.Server.UploadBurst))
	}

	s := &Server{
		router:  gin.New(),
		backend: backend,
		storage: backend.Driver(),
		log:     log,
		v1: v1.NewHandler(svc, coordinator, backend, v1.Options{
			Layout:         layout,
			MaxUploadBytes: cfg.Import.MaxUploadBytes(),
			UploadGuards:   guards,
		}),
	}

	s.setupRoutes(cfg)

	return s, nil
}

// setupRoutes 设置路由
func (s *Server) setupRoutes(cfg *config.AppConfig) {
	s.router.Use(gin.Recovery())
	s.router.Use(logger.Middleware(s.log))

	// CORS
	corsCfg := cors.DefaultConfig()
	if len(cfg.Server.AllowOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.Server.AllowOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", logger.RequestIDHeader}
	corsCfg.ExposeHeaders = []string{"Content-Disposition", logger.RequestIDHeader}
	s.router.Use(cors.New(corsCfg))

	// V1 API 路由
	api := s.router.Group("/api")
	{
		s.v1.RegisterRoutes(api)
	}

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
}

// Handler 路由（用于测试）
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run 启动服务器，Shutdown 后返回 nil
func (s *Server) Run(addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info().Str("addr", addr).Str("storage", s.storage).Msg("server listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 优雅关闭并释放存储
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.http != nil {
		err = s.http.Shutdown(ctx)
	}
	if cerr := s.backend.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
