package log

import (
	"log/slog"
	"os"
	"strings"
)

// Format 日志输出格式
type Format int

const (
	// FormatText 文本格式（默认）
	FormatText Format = iota
	// FormatJSON JSON 格式
	FormatJSON
)

// 环境变量
const (
	EnvLevel     = "LOBBY_LOG_LEVEL"
	EnvFormat    = "LOBBY_LOG_FORMAT"
	EnvAddSource = "LOBBY_LOG_ADD_SOURCE"
)

// Config 日志配置
type Config struct {
	// DefaultLevel 默认日志级别
	DefaultLevel slog.Level

	// SubsystemLevels 组件级别，键可以是完整组件名（lobby/scanner）
	// 或最后一段（scanner）
	SubsystemLevels map[string]slog.Level

	// Format 输出格式
	Format Format

	// AddSource 是否添加源码位置
	AddSource bool
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		DefaultLevel:    slog.LevelInfo,
		SubsystemLevels: make(map[string]slog.Level),
		Format:          FormatText,
	}
}

// LevelForSubsystem 获取指定组件的日志级别
func (c *Config) LevelForSubsystem(component string) slog.Level {
	if level, ok := c.SubsystemLevels[component]; ok {
		return level
	}
	if i := strings.LastIndex(component, "/"); i >= 0 {
		if level, ok := c.SubsystemLevels[component[i+1:]]; ok {
			return level
		}
	}
	return c.DefaultLevel
}

// ConfigFromEnv 从环境变量解析配置
//
//   - LOBBY_LOG_LEVEL: 子系统=级别,子系统=级别,默认级别
//     示例: scanner=debug,broadcaster=warn,info
//   - LOBBY_LOG_FORMAT: text 或 json
//   - LOBBY_LOG_ADD_SOURCE: true 或 false
func ConfigFromEnv() *Config {
	cfg := DefaultConfig()

	if levelStr := os.Getenv(EnvLevel); levelStr != "" {
		ParseLevelConfig(cfg, levelStr)
	}

	if strings.EqualFold(os.Getenv(EnvFormat), "json") {
		cfg.Format = FormatJSON
	}

	if s := os.Getenv(EnvAddSource); s != "" {
		cfg.AddSource = s != "false" && s != "0"
	}

	return cfg
}

// ParseLevelConfig 解析日志级别配置字符串，无法识别的片段被忽略
func ParseLevelConfig(cfg *Config, levelStr string) {
	for _, part := range strings.Split(levelStr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		subsystem, levelName, found := strings.Cut(part, "=")
		if !found {
			if level, ok := ParseLevel(part); ok {
				cfg.DefaultLevel = level
			}
			continue
		}
		if level, ok := ParseLevel(strings.TrimSpace(levelName)); ok {
			cfg.SubsystemLevels[strings.TrimSpace(subsystem)] = level
		}
	}
}

// ParseLevel 解析日志级别名称
func ParseLevel(name string) (slog.Level, bool) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}
