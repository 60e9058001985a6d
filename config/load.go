package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// 环境变量
const (
	EnvPrefix           = "LOBBY_"
	EnvGameplayPort     = "GAMEPLAY_PORT"
	EnvDiscoveryPort    = "DISCOVERY_PORT"
	EnvBroadcastAddress = "BROADCAST_ADDRESS"
	EnvAdvertiseAddress = "ADVERTISE_ADDRESS"
)

// Load 从文件加载配置，未出现的字段保留默认值
//
// 按扩展名选择格式：.yaml / .yml 使用 YAML，其余按 JSON 解析。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: 用户指定的配置文件路径是预期行为
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FromYAML(data)
	default:
		return FromJSON(data)
	}
}

// FromJSON 从 JSON 解析配置
func FromJSON(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse json config: %w", err)
	}
	return cfg, nil
}

// FromYAML 从 YAML 解析配置
func FromYAML(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse yaml config: %w", err)
	}
	return cfg, nil
}

// ApplyEnvOverrides 应用环境变量覆盖
//
// 环境变量优先级高于配置文件，低于命令行参数。无法解析的值被忽略。
//   - LOBBY_GAMEPLAY_PORT
//   - LOBBY_DISCOVERY_PORT
//   - LOBBY_BROADCAST_ADDRESS
//   - LOBBY_ADVERTISE_ADDRESS
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvPrefix + EnvGameplayPort); v != "" {
		if port, err := strconv.ParseUint(v, 10, 16); err == nil {
			cfg.Session.GameplayPort = uint16(port)
		}
	}
	if v := os.Getenv(EnvPrefix + EnvDiscoveryPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Discovery.Port = port
		}
	}
	if v := os.Getenv(EnvPrefix + EnvBroadcastAddress); v != "" {
		cfg.Discovery.BroadcastAddress = v
	}
	if v := os.Getenv(EnvPrefix + EnvAdvertiseAddress); v != "" {
		cfg.Session.AdvertiseAddress = v
	}
}
