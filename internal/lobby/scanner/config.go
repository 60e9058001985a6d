package scanner

import (
	"errors"
	"time"
)

const (
	// DefaultPort 发现端口
	DefaultPort = 7778

	// DefaultTimeout 扫描总预算
	DefaultTimeout = 5 * time.Second

	// DefaultStopTimeout 停止时等待后台 goroutine 的上限
	DefaultStopTimeout = time.Second

	// transientBackoff 非超时接收错误后的退避，避免空转
	transientBackoff = 50 * time.Millisecond
)

// Config 扫描器配置
type Config struct {
	// ListenAddress 监听地址，默认 0.0.0.0
	ListenAddress string

	// Port 发现端口
	Port int

	// Timeout 扫描总预算
	Timeout time.Duration

	// StopTimeout 停止等待上限
	StopTimeout time.Duration
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		ListenAddress: "0.0.0.0",
		Port:          DefaultPort,
		Timeout:       DefaultTimeout,
		StopTimeout:   DefaultStopTimeout,
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return errors.New("port out of range")
	}
	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	if c.StopTimeout <= 0 {
		return errors.New("stop timeout must be positive")
	}
	return nil
}

// ApplyOptions 应用配置选项
func (c *Config) ApplyOptions(opts ...ConfigOption) {
	for _, opt := range opts {
		opt(c)
	}
}

// ConfigOption 配置选项函数
type ConfigOption func(*Config)

// WithListenAddress 设置监听地址
func WithListenAddress(addr string) ConfigOption {
	return func(c *Config) {
		c.ListenAddress = addr
	}
}

// WithPort 设置发现端口
func WithPort(port int) ConfigOption {
	return func(c *Config) {
		c.Port = port
	}
}

// WithTimeout 设置扫描预算
func WithTimeout(timeout time.Duration) ConfigOption {
	return func(c *Config) {
		c.Timeout = timeout
	}
}
