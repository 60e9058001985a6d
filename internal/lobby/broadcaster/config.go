package broadcaster

import (
	"errors"
	"net"
	"time"
)

const (
	// DefaultPort 发现端口
	DefaultPort = 7778

	// DefaultBroadcastAddress 受限广播地址
	DefaultBroadcastAddress = "255.255.255.255"

	// DefaultInterval 广播间隔
	DefaultInterval = time.Second

	// DefaultStopTimeout 停止时等待后台 goroutine 的上限
	DefaultStopTimeout = time.Second
)

// Config 广播器配置
type Config struct {
	// Port 目标发现端口
	Port int

	// BroadcastAddress 目标广播地址
	BroadcastAddress string

	// Interval 广播间隔
	Interval time.Duration

	// StopTimeout 停止等待上限
	StopTimeout time.Duration
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Port:             DefaultPort,
		BroadcastAddress: DefaultBroadcastAddress,
		Interval:         DefaultInterval,
		StopTimeout:      DefaultStopTimeout,
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
	if ip := net.ParseIP(c.BroadcastAddress); ip == nil || ip.To4() == nil {
		return errors.New("broadcast address must be IPv4")
	}
	if c.Interval <= 0 {
		return errors.New("interval must be positive")
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

// WithPort 设置目标端口
func WithPort(port int) ConfigOption {
	return func(c *Config) {
		c.Port = port
	}
}

// WithBroadcastAddress 设置广播地址
func WithBroadcastAddress(addr string) ConfigOption {
	return func(c *Config) {
		c.BroadcastAddress = addr
	}
}

// WithInterval 设置广播间隔
func WithInterval(interval time.Duration) ConfigOption {
	return func(c *Config) {
		c.Interval = interval
	}
}
