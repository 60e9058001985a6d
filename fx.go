package lobby

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/dep2p/go-lobby/internal/lobby/broadcaster"
	"github.com/dep2p/go-lobby/internal/lobby/dispatcher"
	"github.com/dep2p/go-lobby/internal/lobby/metrics"
	"github.com/dep2p/go-lobby/internal/lobby/scanner"
	"github.com/dep2p/go-lobby/internal/lobby/session"
	"github.com/dep2p/go-lobby/internal/transport/ws"
	"github.com/dep2p/go-lobby/pkg/interfaces"
	"github.com/dep2p/go-lobby/pkg/lib/log"
)

var fxLogger = log.Logger("lobby/fx")

// buildFxApp 构建 Fx 应用
//
// 加载顺序（按依赖）：
//  1. 配置与指标
//  2. Dispatcher
//  3. 游戏传输（外部注入或内置 WebSocket）
//  4. Broadcaster → Scanner → Coordinator
//
// OnStop 按逆序执行，协调器最先停止。
func buildFxApp(opts *options, l *Lobby) (*fx.App, error) {
	// ════════════════════════════════════════════════════════════════════════
	// 1. 配置验证（前置）
	// ════════════════════════════════════════════════════════════════════════
	cfg := *opts.config
	if opts.registerer != nil {
		cfg.Metrics.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	modules := []fx.Option{
		fx.Supply(&cfg),
		metrics.Module,
		dispatcher.Module,
	}
	if opts.registerer != nil {
		reg := opts.registerer
		modules = append(modules, fx.Provide(func() prometheus.Registerer { return reg }))
	}

	// ════════════════════════════════════════════════════════════════════════
	// 2. 游戏传输
	// ════════════════════════════════════════════════════════════════════════
	if opts.transport != nil {
		t := opts.transport
		modules = append(modules, fx.Provide(func() interfaces.Transport { return t }))
		fxLogger.Debug("使用外部游戏传输")
	} else {
		modules = append(modules, ws.Module)
		fxLogger.Debug("使用内置 WebSocket 传输")
	}

	// ════════════════════════════════════════════════════════════════════════
	// 3. 发现与会话
	// ════════════════════════════════════════════════════════════════════════
	if opts.observer != nil {
		obs := opts.observer
		modules = append(modules, fx.Provide(func() session.StateObserver { return obs }))
	}
	modules = append(modules,
		broadcaster.Module,
		scanner.Module,
		session.Module,
	)

	// ════════════════════════════════════════════════════════════════════════
	// 4. 用户自定义与注入目标
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules, opts.fxOptions...)
	modules = append(modules,
		fx.Populate(&l.dispatcher, &l.coordinator, &l.transport),
	)

	zl := zap.NewNop()
	if opts.verboseFx {
		dev, err := zap.NewDevelopment()
		if err != nil {
			return nil, fmt.Errorf("create fx logger: %w", err)
		}
		zl = dev
	}
	modules = append(modules, fx.WithLogger(func() fxevent.Logger {
		return &fxevent.ZapLogger{Logger: zl}
	}))

	app := fx.New(modules...)
	if err := app.Err(); err != nil {
		return nil, fmt.Errorf("build fx app: %w", err)
	}
	return app, nil
}
