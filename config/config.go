// Package config 提供统一的配置管理
//
// 主 Config 结构体嵌入所有子配置，每个子配置在独立文件中定义，
// 支持从 JSON 或 YAML 文件加载，环境变量可覆盖部分字段。
//
// 使用示例：
//
//	cfg := config.NewConfig()
//	cfg.Session.GameplayPort = 9000
//
//	// 从文件加载（.json / .yaml / .yml）
//	cfg, err := config.Load("lobby.yaml")
package config

// Config 是 go-lobby 的完整配置结构
//
//   - Discovery: 局域网广播与扫描
//   - Session: 会话协调与游戏传输
//   - Metrics: Prometheus 指标
type Config struct {
	// Discovery 发现配置
	Discovery DiscoveryConfig `json:"discovery" yaml:"discovery"`

	// Session 会话配置
	Session SessionConfig `json:"session" yaml:"session"`

	// Metrics 指标配置
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		Discovery: DefaultDiscoveryConfig(),
		Session:   DefaultSessionConfig(),
		Metrics:   DefaultMetricsConfig(),
	}
}

// Validate 验证配置的有效性
func (c *Config) Validate() error {
	if err := c.Discovery.Validate(); err != nil {
		return err
	}
	if err := c.Session.Validate(); err != nil {
		return err
	}
	if err := c.Metrics.Validate(); err != nil {
		return err
	}
	if c.Discovery.Port == int(c.Session.GameplayPort) && c.Discovery.Port != 0 {
		return ErrPortConflict
	}
	return nil
}
