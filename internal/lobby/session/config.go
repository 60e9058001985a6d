package session

import (
	"errors"
	"net"
)

const (
	// DefaultGameplayPort 游戏传输端口
	DefaultGameplayPort = 7777

	// DefaultBindAddress 游戏传输监听地址
	DefaultBindAddress = "0.0.0.0"
)

// Config 会话协调器配置
type Config struct {
	// GameplayPort 游戏端口，主机写入广播包并在其上监听
	GameplayPort uint16

	// BindAddress 主机监听地址
	BindAddress string

	// AdvertiseAddress 广播的主机地址，留空时自动探测
	AdvertiseAddress string
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		GameplayPort: DefaultGameplayPort,
		BindAddress:  DefaultBindAddress,
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.GameplayPort == 0 {
		return errors.New("gameplay port must be set")
	}
	if net.ParseIP(c.BindAddress) == nil {
		return errors.New("invalid bind address")
	}
	if c.AdvertiseAddress != "" {
		if ip := net.ParseIP(c.AdvertiseAddress); ip == nil || ip.To4() == nil {
			return errors.New("advertise address must be IPv4")
		}
	}
	return nil
}
