package ws

import (
	"errors"
	"strings"
	"time"
)

const (
	// DefaultPath WebSocket 升级路径
	DefaultPath = "/lobby"

	// DefaultDialTimeout 握手超时
	DefaultDialTimeout = 3 * time.Second

	// DefaultShutdownTimeout 关闭 HTTP 服务的等待上限
	DefaultShutdownTimeout = time.Second
)

// Config WebSocket 传输配置
type Config struct {
	// Path 升级路径
	Path string

	// DialTimeout 客户端握手超时
	DialTimeout time.Duration

	// ShutdownTimeout 关闭等待上限
	ShutdownTimeout time.Duration
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Path:            DefaultPath,
		DialTimeout:     DefaultDialTimeout,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if !strings.HasPrefix(c.Path, "/") {
		return errors.New("path must start with /")
	}
	if c.DialTimeout <= 0 || c.ShutdownTimeout <= 0 {
		return errors.New("timeouts must be positive")
	}
	return nil
}
