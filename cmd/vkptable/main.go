package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/EugeneSatt/VKP-Table/internal/config"
	"github.com/EugeneSatt/VKP-Table/internal/logger"
	"github.com/EugeneSatt/VKP-Table/internal/server"
)

var (
	port       = flag.Int("port", 0, "服务端口 (config.toml 优先；仅当未显式配置 port 时生效)")
	devMode    = flag.Bool("dev", false, "开发模式")
	dataDir    = flag.String("dataDir", "", "数据目录 (覆盖配置文件)")
	configPath = flag.String("config", "", "配置文件路径 (默认为可执行文件同目录的 config.toml)")
)

func main() {
	flag.Parse()

	fmt.Println("==========================================")
	fmt.Println("  VKP-Table - План закупок")
	fmt.Println("==========================================")

	// 加载配置
	var (
		cfg  *config.AppConfig
		info config.LoadConfigInfo
		err  error
	)
	if *configPath != "" {
		cfg, info, err = config.LoadConfigFrom(*configPath)
	} else {
		cfg, info, err = config.LoadConfigWithInfo()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败，使用默认配置: %v\n", err)
		cfg = config.DefaultConfig()
		info = config.LoadConfigInfo{}
	}

	// 命令行参数覆盖配置
	if *port > 0 && !info.PortSpecified {
		cfg.Server.Port = *port
	}
	if *devMode {
		cfg.Server.DevMode = true
		cfg.Log.Pretty = true
	}
	if *dataDir != "" {
		cfg.Data.DataDir = *dataDir
	}

	log := logger.New(logger.Options{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty}, os.Stderr)
	if info.Path != "" {
		log.Info().Str("path", info.Path).Msg("config loaded")
	}

	// 确保数据目录存在
	dir, err := config.EnsureDataDir(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create data directory")
	}
	log.Info().Str("data_dir", dir).Str("storage", cfg.Database.Driver).Msg("data directory ready")

	backend, err := server.OpenBackend(cfg, dir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}

	// 创建服务器
	srv, err := server.NewServer(cfg, backend, log)
	if err != nil {
		_ = backend.Close()
		log.Fatal().Err(err).Msg("failed to create server")
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	// 启动服务器
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(addr)
	}()

	fmt.Printf("服务已启动: http://localhost:%d/api/health\n", cfg.Server.Port)
	fmt.Println("\n按 Ctrl+C 停止服务...")

	// 等待信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("server stopped")
		}
	}

	fmt.Println("\n正在关闭服务...")
	timeout := time.Duration(cfg.Server.ShutdownTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
}
