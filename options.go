package lobby

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-lobby/config"
	"github.com/dep2p/go-lobby/internal/lobby/session"
	"github.com/dep2p/go-lobby/pkg/interfaces"
)

// Option 用户配置选项函数
type Option func(*options) error

// options 内部选项结构
type options struct {
	// 统一配置，为空时使用默认配置
	config *config.Config

	// 游戏传输，为空时使用内置 WebSocket 传输
	transport interfaces.Transport

	// 指标注册器，为空时使用 prometheus.DefaultRegisterer
	registerer prometheus.Registerer

	// 状态观察者
	observer session.StateObserver

	// 输出 Fx 依赖注入日志
	verboseFx bool

	// 用户自定义 Fx 选项
	fxOptions []fx.Option
}

// newOptions 创建默认选项
func newOptions() *options {
	return &options{}
}

// apply 依次应用选项
func (o *options) apply(opts ...Option) error {
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(o); err != nil {
			return err
		}
	}
	if o.config == nil {
		o.config = config.NewConfig()
	}
	return nil
}

// WithConfig 使用给定的统一配置
func WithConfig(cfg *config.Config) Option {
	return func(o *options) error {
		if cfg == nil {
			return errors.New("config is nil")
		}
		o.config = cfg
		return nil
	}
}

// WithConfigFile 从文件加载配置（.json / .yaml / .yml）
func WithConfigFile(path string) Option {
	return func(o *options) error {
		cfg, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		o.config = cfg
		return nil
	}
}

// WithTransport 使用外部游戏传输
func WithTransport(t interfaces.Transport) Option {
	return func(o *options) error {
		if t == nil {
			return errors.New("transport is nil")
		}
		o.transport = t
		return nil
	}
}

// WithRegisterer 设置指标注册器，同时启用指标
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) error {
		o.registerer = reg
		return nil
	}
}

// WithStateObserver 设置会话状态观察者，在消费者 goroutine 上调用
func WithStateObserver(fn session.StateObserver) Option {
	return func(o *options) error {
		o.observer = fn
		return nil
	}
}

// WithVerboseFx 输出 Fx 依赖注入日志
func WithVerboseFx(enable bool) Option {
	return func(o *options) error {
		o.verboseFx = enable
		return nil
	}
}

// WithFxOptions 追加自定义 Fx 选项
func WithFxOptions(opts ...fx.Option) Option {
	return func(o *options) error {
		o.fxOptions = append(o.fxOptions, opts...)
		return nil
	}
}
