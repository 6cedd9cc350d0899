package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"dailyhealth/internal/aggregate"
	"dailyhealth/internal/model"
)

// 环境变量覆盖
const (
	EnvScanRoot = "DAILYHEALTH_SCAN_ROOT"
	EnvDataDir  = "DAILYHEALTH_DATA_DIR"
)

// ConfigFileName 默认配置文件名（位于可执行文件同目录）
const ConfigFileName = "config.toml"

// ErrUnknownScalarMerge merge.scalar 取值不合法
var ErrUnknownScalarMerge = errors.New("unknown scalar merge strategy")

// AppConfig 应用配置
type AppConfig struct {
	Server ServerConfig `toml:"server"`
	Data   DataConfig   `toml:"data"`
	Scan   ScanConfig   `toml:"scan"`
	Merge  MergeConfig  `toml:"merge"`

	// BaseDir 相对路径的基准目录（配置文件所在目录）
	BaseDir string `toml:"-"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port      int     `toml:"port"`
	DevMode   bool    `toml:"dev_mode"`
	RateLimit float64 `toml:"rate_limit"` // API 每秒请求数，0 表示不限流
	RateBurst int     `toml:"rate_burst"`
}

// DataConfig 数据配置
type DataConfig struct {
	DataDir   string `toml:"data_dir"`
	OutputDir string `toml:"output_dir"`
	DBName    string `toml:"db_name"`
	Workbook  bool   `toml:"workbook"`
}

// ScanConfig 目录扫描配置
type ScanConfig struct {
	Root        string   `toml:"root"`
	Extensions  []string `toml:"extensions"`
	Keywords    []string `toml:"keywords"`
	ExcludeDirs []string `toml:"exclude_dirs,omitempty"` // 按目录名跳过；数据目录与输出目录总是按路径跳过
	Workers     int      `toml:"workers"`
}

// MergeConfig 同日合并配置
type MergeConfig struct {
	Scalar    string `toml:"scalar"`    // Weight 的合并策略：last/first/mean
	Separator string `toml:"separator"` // 文本字段连接符
	Recover   bool   `toml:"recover"`   // 未解析值做二次提取
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:      20261,
			DevMode:   false,
			RateLimit: 20,
			RateBurst: 40,
		},
		Data: DataConfig{
			DataDir:   "data",
			OutputDir: "output",
			DBName:    "dailyhealth.db",
			Workbook:  true,
		},
		Scan: ScanConfig{
			Root:       ".",
			Extensions: []string{".csv", ".xlsx", ".xlsm"},
			Keywords:   []string{"health"},
			Workers:    4,
		},
		Merge: MergeConfig{
			Scalar:    "last",
			Separator: aggregate.DefaultSeparator,
			Recover:   true,
		},
		BaseDir: ".",
	}
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// Load 加载配置：path 为空时读取可执行文件同目录下的 config.toml（不存在则使用默认配置）；
// 显式指定的 path 必须存在
func Load(path string) (*AppConfig, error) {
	config := DefaultConfig()

	explicit := path != ""
	if !explicit {
		exeDir, err := GetExeDir()
		if err != nil {
			// 无法获取可执行文件目录，使用当前目录
			exeDir = "."
		}
		path = filepath.Join(exeDir, ConfigFileName)
	}
	config.BaseDir = filepath.Dir(path)

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
		// 配置文件不存在，使用默认配置；相对路径以当前目录为准
		config.BaseDir = "."
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	applyEnv(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// applyEnv 环境变量覆盖（用于 E2E / 本地运行）
func applyEnv(config *AppConfig) {
	if v := os.Getenv(EnvScanRoot); v != "" {
		config.Scan.Root = v
	}
	if v := os.Getenv(EnvDataDir); v != "" {
		config.Data.DataDir = v
	}
}

// Validate 校验配置
func (c *AppConfig) Validate() error {
	if _, ok := aggregate.MergerByName(c.Merge.Scalar); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownScalarMerge, c.Merge.Scalar)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.RateLimit < 0 || (c.Server.RateLimit > 0 && c.Server.RateBurst < 1) {
		return fmt.Errorf("invalid rate limit: %v/s burst %d", c.Server.RateLimit, c.Server.RateBurst)
	}
	return nil
}

// Aggregator 按 merge 配置构造聚合器
func (c *AppConfig) Aggregator() (*aggregate.Aggregator, error) {
	scalar, ok := aggregate.MergerByName(c.Merge.Scalar)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScalarMerge, c.Merge.Scalar)
	}
	opts := []aggregate.Option{aggregate.WithMerger(model.FieldWeight, scalar)}
	if c.Merge.Separator != "" {
		opts = append(opts, aggregate.WithSeparator(c.Merge.Separator))
	}
	return aggregate.New(opts...), nil
}

// SaveConfig 保存配置到 path
func SaveConfig(config *AppConfig, path string) error {
	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ResolvePath 相对路径按 BaseDir 解析
func (c *AppConfig) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.BaseDir, p)
}

// EnsureDataDir 确保数据目录与输出目录存在，返回数据目录
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := config.ResolvePath(config.Data.DataDir)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}
	if err := os.MkdirAll(OutputDir(config), 0755); err != nil {
		return "", err
	}
	return dataDir, nil
}

// OutputDir 平面文件输出目录（相对路径位于数据目录下）
func OutputDir(config *AppConfig) string {
	if filepath.IsAbs(config.Data.OutputDir) {
		return config.Data.OutputDir
	}
	return filepath.Join(config.ResolvePath(config.Data.DataDir), config.Data.OutputDir)
}

// DBPath SQLite 文件路径
func DBPath(config *AppConfig) string {
	return filepath.Join(config.ResolvePath(config.Data.DataDir), config.Data.DBName)
}
