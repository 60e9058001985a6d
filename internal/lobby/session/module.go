package session

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-lobby/config"
	"github.com/dep2p/go-lobby/internal/lobby/broadcaster"
	"github.com/dep2p/go-lobby/internal/lobby/metrics"
	"github.com/dep2p/go-lobby/internal/lobby/scanner"
	"github.com/dep2p/go-lobby/pkg/interfaces"
)

// Module 返回 Fx 模块
var Module = fx.Module("lobby/session",
	fx.Provide(ProvideCoordinator),
	fx.Invoke(registerLifecycle),
)

// ModuleInput Fx 输入参数
type ModuleInput struct {
	fx.In
	Broadcaster *broadcaster.Broadcaster
	Scanner     *scanner.Scanner
	Transport   interfaces.Transport
	UnifiedCfg  *config.Config     `optional:"true"`
	Metrics     *metrics.Collector `optional:"true"`
	Observer    StateObserver      `optional:"true"`
}

// ConfigFromUnified 从统一配置创建协调器配置
func ConfigFromUnified(cfg *config.Config) *Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return &Config{
		GameplayPort:     cfg.Session.GameplayPort,
		BindAddress:      cfg.Session.BindAddress,
		AdvertiseAddress: cfg.Session.AdvertiseAddress,
	}
}

// ProvideCoordinator 提供会话协调器
func ProvideCoordinator(input ModuleInput) (*Coordinator, error) {
	return New(ConfigFromUnified(input.UnifiedCfg),
		input.Broadcaster, input.Scanner, input.Transport,
		WithMetrics(input.Metrics),
		WithStateObserver(input.Observer),
	)
}

func registerLifecycle(lc fx.Lifecycle, c *Coordinator) {
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return c.Stop()
		},
	})
}
