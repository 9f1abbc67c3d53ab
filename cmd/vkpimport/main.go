package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/EugeneSatt/VKP-Table/internal/config"
	"github.com/EugeneSatt/VKP-Table/internal/importer"
	"github.com/EugeneSatt/VKP-Table/internal/logger"
	"github.com/EugeneSatt/VKP-Table/internal/server"
	"github.com/EugeneSatt/VKP-Table/internal/service/schedule"
)

var (
	configPath = flag.String("config", "", "配置文件路径 (默认为可执行文件同目录的 config.toml)")
	dataDir    = flag.String("dataDir", "", "数据目录 (覆盖配置文件)")
)

// 离线导入：vkpimport [-config path] [-dataDir dir] plan1.xlsx [plan2.xls ...]
func main() {
	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: vkpimport [-config path] [-dataDir dir] file.xlsx ...")
		os.Exit(2)
	}
	os.Exit(run(flag.Args()))
}

// run 导入全部文件，返回进程退出码
func run(files []string) int {
	var (
		cfg *config.AppConfig
		err error
	)
	if *configPath != "" {
		cfg, _, err = config.LoadConfigFrom(*configPath)
	} else {
		cfg, _, err = config.LoadConfigWithInfo()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 1
	}
	if *dataDir != "" {
		cfg.Data.DataDir = *dataDir
	}

	log := logger.New(logger.Options{Level: cfg.Log.Level, Pretty: true}, os.Stderr)
	if cfg.Database.Driver == config.DriverMemory {
		log.Error().Msg("offline import needs a database; unset DISABLE_DB")
		return 1
	}

	dir, err := config.EnsureDataDir(cfg)
	if err != nil {
		log.Error().Err(err).Msg("failed to create data directory")
		return 1
	}
	backend, err := server.OpenBackend(cfg, dir)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize storage")
		return 1
	}
	defer func() { _ = backend.Close() }()

	layout, err := cfg.Import.Layout()
	if err != nil {
		log.Error().Err(err).Msg("invalid import layout")
		return 1
	}
	svc := schedule.NewService(backend, schedule.Options{
		BatchSize:   cfg.Schedule.BatchSize,
		DefaultDays: cfg.Schedule.DefaultDays,
		MaxDays:     cfg.Schedule.MaxDays,
	})
	coord := importer.NewCoordinator(svc, backend, layout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = log.WithContext(ctx)

	failed := 0
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Error().Err(err).Str("file", path).Msg("read file")
			failed++
			continue
		}

		ch := coord.Import(ctx, importer.ImportOptions{Filename: filepath.Base(path), Data: data})
		for evt := range ch {
			fmt.Printf("[%s] %s: %s\n", filepath.Base(path), evt.Type, evt.Message)
			if evt.Type == importer.EventError {
				failed++
			}
		}
	}

	if failed > 0 {
		return 1
	}
	return 0
}
