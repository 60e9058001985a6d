package config

import (
	"errors"
	"fmt"
	"net"
)

// ErrPortConflict 发现端口与游戏端口相同
var ErrPortConflict = errors.New("discovery port must differ from gameplay port")

// SessionConfig 会话配置
type SessionConfig struct {
	// GameplayPort 游戏传输监听端口，写入广播包
	GameplayPort uint16 `json:"gameplay_port" yaml:"gameplay_port"`

	// BindAddress 游戏传输监听地址
	BindAddress string `json:"bind_address" yaml:"bind_address"`

	// AdvertiseAddress 广播包中的主机地址，留空时自动探测本机 IPv4
	AdvertiseAddress string `json:"advertise_address,omitempty" yaml:"advertise_address,omitempty"`
}

// DefaultSessionConfig 返回默认会话配置
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		GameplayPort: 7777,
		BindAddress:  "0.0.0.0",
	}
}

// Validate 验证会话配置
func (c SessionConfig) Validate() error {
	if net.ParseIP(c.BindAddress) == nil {
		return fmt.Errorf("invalid bind address: %q", c.BindAddress)
	}
	if c.AdvertiseAddress != "" {
		if ip := net.ParseIP(c.AdvertiseAddress); ip == nil || ip.To4() == nil {
			return fmt.Errorf("advertise address must be IPv4: %q", c.AdvertiseAddress)
		}
	}
	return nil
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	// Enabled 是否启用 Prometheus 指标
	Enabled bool `json:"enabled" yaml:"enabled"`

	// ListenAddr 指标 HTTP 监听地址，例如 127.0.0.1:9102
	ListenAddr string `json:"listen_addr,omitempty" yaml:"listen_addr,omitempty"`
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{}
}

// Validate 验证指标配置
func (c MetricsConfig) Validate() error {
	if c.ListenAddr == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.ListenAddr); err != nil {
		return fmt.Errorf("invalid metrics listen address %q: %w", c.ListenAddr, err)
	}
	return nil
}
