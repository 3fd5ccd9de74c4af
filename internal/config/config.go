package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// AppConfig 应用配置
type AppConfig struct {
	Server    ServerConfig        `toml:"server"`
	Data      DataConfig          `toml:"data"`
	Sheets    SheetsConfig        `toml:"sheets"`
	Identity  IdentityConfig      `toml:"identity"`
	Auth      AuthConfig          `toml:"auth"`
	Aliases   map[string][]string `toml:"aliases"`
	Birthdays []Birthday          `toml:"birthdays"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port    int  `toml:"port"`
	DevMode bool `toml:"dev_mode"`
}

// DataConfig 数据配置
type DataConfig struct {
	DataDir string `toml:"data_dir"`
	Store   string `toml:"store"` // sqlite / json / memory
}

// SheetsConfig 远程表格访问配置
type SheetsConfig struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	Concurrency    int    `toml:"concurrency"`
}

// IdentityConfig 身份规范化配置
type IdentityConfig struct {
	Domain string `toml:"domain"`
}

// AuthConfig 登录配置：用户名 -> 密码
type AuthConfig struct {
	Users map[string]string `toml:"users"`
}

// Birthday 生日提醒
type Birthday struct {
	Name string `toml:"name" json:"name"`
	Date string `toml:"date" json:"date"` // MM-DD
	Role string `toml:"role" json:"role,omitempty"`
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	PortSpecified bool
}

const (
	StoreSQLite = "sqlite"
	StoreJSON   = "json"
	StoreMemory = "memory"
)

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:    20262,
			DevMode: false,
		},
		Data: DataConfig{
			DataDir: "data",
			Store:   StoreSQLite,
		},
		Sheets: SheetsConfig{
			BaseURL:        "https://docs.google.com/spreadsheets/d",
			TimeoutSeconds: 30,
			Concurrency:    8,
		},
		Identity: IdentityConfig{
			Domain: "rprocess.in",
		},
		Auth: AuthConfig{
			Users: map[string]string{
				"admin": "admin123",
			},
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

// ConfigPath config.toml 路径（可执行文件同目录，可由环境变量覆盖）
func ConfigPath() string {
	if v := os.Getenv("USERPERF_CONFIG"); v != "" {
		return v
	}
	exeDir, err := GetExeDir()
	if err != nil {
		// 无法获取可执行文件目录，使用当前目录
		exeDir = "."
	}
	return filepath.Join(exeDir, "config.toml")
}

// LoadConfigWithInfo 从 config.toml 加载配置并返回元信息
func LoadConfigWithInfo() (*AppConfig, LoadConfigInfo, error) {
	return LoadFile(ConfigPath())
}

// LoadFile 从指定路径加载配置；文件不存在时使用默认配置
func LoadFile(path string) (*AppConfig, LoadConfigInfo, error) {
	info := LoadConfigInfo{}
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(config)
			return config, info, nil
		}
		return nil, info, err
	}

	info.PortSpecified = isPortSpecifiedInToml(data)

	if err := toml.Unmarshal(data, config); err != nil {
		return nil, info, err
	}

	applyEnv(config)
	config.normalize()
	return config, info, nil
}

// applyEnv 环境变量覆盖（用于容器 / 本地运行）
func applyEnv(config *AppConfig) {
	if v := os.Getenv("USERPERF_DATA_DIR"); v != "" {
		config.Data.DataDir = v
	}
	if v := os.Getenv("USERPERF_IDENTITY_DOMAIN"); v != "" {
		config.Identity.Domain = v
	}
	if v := os.Getenv("USERPERF_SHEETS_BASE_URL"); v != "" {
		config.Sheets.BaseURL = v
	}
	if v := os.Getenv("USERPERF_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			config.Server.Port = port
		}
	}
}

// normalize 补齐非法或缺失的取值
func (c *AppConfig) normalize() {
	def := DefaultConfig()
	if c.Sheets.BaseURL == "" {
		c.Sheets.BaseURL = def.Sheets.BaseURL
	}
	if c.Sheets.TimeoutSeconds <= 0 {
		c.Sheets.TimeoutSeconds = def.Sheets.TimeoutSeconds
	}
	if c.Sheets.Concurrency <= 0 {
		c.Sheets.Concurrency = def.Sheets.Concurrency
	}
	switch c.Data.Store {
	case StoreJSON, StoreMemory:
	default:
		c.Data.Store = StoreSQLite
	}
	if c.Data.DataDir == "" {
		c.Data.DataDir = def.Data.DataDir
	}
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

	// 创建子目录
	subdirs := []string{"exports", "backups"}
	for _, subdir := range subdirs {
		path := filepath.Join(dataDir, subdir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return "", err
		}
	}

	return dataDir, nil
}
