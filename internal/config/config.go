package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/xuri/excelize/v2"

	"github.com/EugeneSatt/VKP-Table/internal/parser"
)

// 存储类型
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// AppConfig 应用配置
type AppConfig struct {
	Server   ServerConfig   `toml:"server"`
	Data     DataConfig     `toml:"data"`
	Database DatabaseConfig `toml:"database"`
	Schedule ScheduleConfig `toml:"schedule"`
	Import   ImportConfig   `toml:"import"`
	Log      LogConfig      `toml:"log"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port               int      `toml:"port"`
	DevMode            bool     `toml:"dev_mode"`
	AllowOrigins       []string `toml:"allow_origins"`        // CORS 允许的来源，空表示全部
	UploadRatePerMin   int      `toml:"upload_rate_per_min"`  // 上传限流，0 表示不限
	UploadBurst        int      `toml:"upload_burst"`         // 限流突发数
	ShutdownTimeoutSec int      `toml:"shutdown_timeout_sec"` // 优雅关闭等待秒数
}

// DataConfig 数据配置
type DataConfig struct {
	DataDir string `toml:"data_dir"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver     string `toml:"driver"`      // sqlite3 / postgres / memory
	DSN        string `toml:"dsn"`         // postgres 连接串；sqlite3 为空时使用 data_dir/sqlite_file
	SQLiteFile string `toml:"sqlite_file"` // SQLite 文件名
}

// ScheduleConfig 计划矩阵配置
type ScheduleConfig struct {
	DefaultDays int `toml:"default_days"`
	MaxDays     int `toml:"max_days"`
	BatchSize   int `toml:"batch_size"`
}

// ImportConfig Excel 模板布局配置，行号从 1 开始，列用字母
type ImportConfig struct {
	HeaderRows      []int    `toml:"header_rows"`       // 候选表头行，按优先级
	ArticleColumn   string   `toml:"article_column"`    // 物料列回退位置
	DateStartColumn string   `toml:"date_start_column"` // 日期起始列
	ArticleLabels   []string `toml:"article_labels"`    // 物料列表头关键字
	MinRows         int      `toml:"min_rows"`
	MaxUploadMB     int      `toml:"max_upload_mb"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `toml:"level"`  // debug / info / warn / error
	Pretty bool   `toml:"pretty"` // 控制台格式输出
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	Path          string // 实际读取的配置文件，未找到时为空
	PortSpecified bool
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:               8080,
			DevMode:            false,
			UploadRatePerMin:   30,
			UploadBurst:        5,
			ShutdownTimeoutSec: 10,
		},
		Data: DataConfig{
			DataDir: "data",
		},
		Database: DatabaseConfig{
			Driver:     DriverSQLite,
			SQLiteFile: "vkp.db",
		},
		Schedule: ScheduleConfig{
			DefaultDays: 30,
			MaxDays:     366,
			BatchSize:   600,
		},
		Import: ImportConfig{
			HeaderRows:      []int{4, 3, 2, 1},
			ArticleColumn:   "F",
			DateStartColumn: "P",
			ArticleLabels:   []string{"артикул", "article", "sku"},
			MinRows:         5,
			MaxUploadMB:     20,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverAny, ok := raw["server"]
	if !ok {
		return false
	}

	serverMap, ok := serverAny.(map[string]any)
	if !ok {
		return false
	}

	_, ok = serverMap["port"]
	return ok
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// LoadConfigWithInfo 从可执行文件同目录的 config.toml 加载配置并返回元信息
func LoadConfigWithInfo() (*AppConfig, LoadConfigInfo, error) {
	exeDir, err := GetExeDir()
	if err != nil {
		// 无法获取可执行文件目录，使用当前目录
		exeDir = "."
	}
	loadDotEnv(exeDir)
	return LoadConfigFrom(filepath.Join(exeDir, "config.toml"))
}

// LoadConfigFrom 从指定路径加载配置，文件不存在时使用默认配置；之后应用环境变量
func LoadConfigFrom(configPath string) (*AppConfig, LoadConfigInfo, error) {
	info := LoadConfigInfo{}
	config := DefaultConfig()

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		info.Path = configPath
		info.PortSpecified = isPortSpecifiedInToml(data)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, info, fmt.Errorf("parse %s: %w", configPath, err)
		}
	case os.IsNotExist(err):
		// 配置文件不存在，使用默认配置
	default:
		return nil, info, err
	}

	if err := applyEnv(config, &info); err != nil {
		return nil, info, err
	}
	return config, info, nil
}

// loadDotEnv 加载 .env（当前目录和可执行文件目录），已有环境变量不覆盖
func loadDotEnv(exeDir string) {
	for _, p := range []string{".env", filepath.Join(exeDir, ".env")} {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
		}
	}
}

// applyEnv 环境变量覆盖
func applyEnv(config *AppConfig, info *LoadConfigInfo) error {
	if v := os.Getenv("VKP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid VKP_PORT %q: %w", v, err)
		}
		config.Server.Port = port
		info.PortSpecified = true
	}
	if v := os.Getenv("VKP_LOG_LEVEL"); v != "" {
		config.Log.Level = v
	}
	if v := os.Getenv("VKP_DB_DRIVER"); v != "" {
		config.Database.Driver = v
	}
	if v := os.Getenv("VKP_DB_DSN"); v != "" {
		config.Database.DSN = v
	}

	// DB_* 组成 PostgreSQL 连接串
	if host := os.Getenv("DB_HOST"); host != "" && os.Getenv("VKP_DB_DSN") == "" {
		config.Database.Driver = DriverPostgres
		config.Database.DSN = postgresDSN(
			host,
			envOr("DB_PORT", "5432"),
			os.Getenv("DB_USERNAME"),
			os.Getenv("DB_PASSWORD"),
			envOr("DB_NAME", "postgres"),
		)
	}

	if v := os.Getenv("DISABLE_DB"); v == "1" || strings.EqualFold(v, "true") {
		config.Database.Driver = DriverMemory
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func postgresDSN(host, port, user, password, name string) string {
	parts := []string{"host=" + host, "port=" + port}
	if user != "" {
		parts = append(parts, "user="+user)
	}
	if password != "" {
		parts = append(parts, "password="+password)
	}
	parts = append(parts, "dbname="+name, "sslmode=disable")
	return strings.Join(parts, " ")
}

// EnsureDataDir 确保数据目录存在
// 相对路径以可执行文件所在目录为基准
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := config.Data.DataDir
	if !filepath.IsAbs(dataDir) {
		exeDir, err := GetExeDir()
		if err != nil {
			exeDir = "."
		}
		dataDir = filepath.Join(exeDir, dataDir)
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}
	return dataDir, nil
}

// DatabaseDSN 实际使用的连接串
func DatabaseDSN(config *AppConfig, dataDir string) string {
	if config.Database.Driver == DriverSQLite && config.Database.DSN == "" {
		return filepath.Join(dataDir, config.Database.SQLiteFile)
	}
	return config.Database.DSN
}

// Layout 将 [import] 配置转换为解析器布局
func (c ImportConfig) Layout() (parser.Layout, error) {
	layout := parser.DefaultLayout()

	if len(c.HeaderRows) > 0 {
		rows := make([]int, 0, len(c.HeaderRows))
		for _, r := range c.HeaderRows {
			if r < 1 {
				return layout, fmt.Errorf("import.header_rows: row %d must be >= 1", r)
			}
			rows = append(rows, r-1)
		}
		layout.HeaderRows = rows
	}
	if c.ArticleColumn != "" {
		n, err := excelize.ColumnNameToNumber(c.ArticleColumn)
		if err != nil {
			return layout, fmt.Errorf("import.article_column: %w", err)
		}
		layout.ArticleColumn = n - 1
	}
	if c.DateStartColumn != "" {
		n, err := excelize.ColumnNameToNumber(c.DateStartColumn)
		if err != nil {
			return layout, fmt.Errorf("import.date_start_column: %w", err)
		}
		layout.DateStartColumn = n - 1
	}
	if len(c.ArticleLabels) > 0 {
		layout.ArticleLabels = c.ArticleLabels
	}
	if c.MinRows > 0 {
		layout.MinRows = c.MinRows
	}
	return layout, nil
}

// MaxUploadBytes 上传大小上限
func (c ImportConfig) MaxUploadBytes() int64 {
	mb := c.MaxUploadMB
	if mb <= 0 {
		mb = 20
	}
	return int64(mb) << 20
}
