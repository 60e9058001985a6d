package ws

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-lobby/internal/lobby/dispatcher"
	"github.com/dep2p/go-lobby/pkg/interfaces"
)

// Module 返回 Fx 模块
//
// 同时提供 *Transport 和 interfaces.Transport。
var Module = fx.Module("transport/ws",
	fx.Provide(
		ProvideTransport,
		func(t *Transport) interfaces.Transport { return t },
	),
	fx.Invoke(registerLifecycle),
)

// ModuleInput Fx 输入参数
type ModuleInput struct {
	fx.In
	Dispatcher *dispatcher.Dispatcher `optional:"true"`
	Config     *Config                `optional:"true"`
}

// ProvideTransport 提供 WebSocket 传输
func ProvideTransport(input ModuleInput) (*Transport, error) {
	return New(input.Config, input.Dispatcher)
}

func registerLifecycle(lc fx.Lifecycle, t *Transport) {
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			t.Shutdown()
			return nil
		},
	})
}
