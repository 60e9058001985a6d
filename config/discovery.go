package config

import (
	"errors"
	"fmt"
	"net"
	"time"
)

// DiscoveryConfig 局域网发现配置
type DiscoveryConfig struct {
	// Port 发现端口，主机广播到此端口，客户端监听此端口
	Port int `json:"port" yaml:"port"`

	// BroadcastAddress 广播目标地址，默认受限广播 255.255.255.255
	BroadcastAddress string `json:"broadcast_address" yaml:"broadcast_address"`

	// BroadcastInterval 广播间隔
	BroadcastInterval Duration `json:"broadcast_interval" yaml:"broadcast_interval"`

	// ScanTimeout 扫描总预算，从开始扫描计时
	ScanTimeout Duration `json:"scan_timeout" yaml:"scan_timeout"`

	// StopTimeout 停止时等待后台 goroutine 退出的上限
	StopTimeout Duration `json:"stop_timeout" yaml:"stop_timeout"`
}

// DefaultDiscoveryConfig 返回默认发现配置
func DefaultDiscoveryConfig() DiscoveryConfig {
	return DiscoveryConfig{
		Port:              7778,
		BroadcastAddress:  "255.255.255.255",
		BroadcastInterval: Duration(time.Second),
		ScanTimeout:       Duration(5 * time.Second),
		StopTimeout:       Duration(time.Second),
	}
}

// Validate 验证发现配置
func (c DiscoveryConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("discovery port out of range: %d", c.Port)
	}
	if ip := net.ParseIP(c.BroadcastAddress); ip == nil || ip.To4() == nil {
		return fmt.Errorf("broadcast address must be IPv4: %q", c.BroadcastAddress)
	}
	if c.BroadcastInterval <= 0 {
		return errors.New("broadcast interval must be positive")
	}
	if c.ScanTimeout <= 0 {
		return errors.New("scan timeout must be positive")
	}
	if c.StopTimeout <= 0 {
		return errors.New("stop timeout must be positive")
	}
	return nil
}
