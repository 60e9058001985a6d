package lobby

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/multierr"

	"github.com/dep2p/go-lobby/internal/lobby/code"
	"github.com/dep2p/go-lobby/internal/lobby/dispatcher"
	"github.com/dep2p/go-lobby/internal/lobby/session"
	"github.com/dep2p/go-lobby/internal/transport/ws"
	"github.com/dep2p/go-lobby/pkg/interfaces"
	"github.com/dep2p/go-lobby/pkg/lib/log"
	"github.com/dep2p/go-lobby/pkg/types"
)

var logger = log.Logger("lobby")

const (
	// startTimeout Fx App 启动超时
	startTimeout = 10 * time.Second
)

// peerNotifier 能在对端接入时通知的传输
type peerNotifier interface {
	OnPeer(fn ws.PeerFunc)
}

// Lobby 局域网会话门面
//
// 组装 Dispatcher、广播器、扫描器、会话协调器和游戏传输。
type Lobby struct {
	opts *options
	app  *fx.App

	// 由 Fx 注入
	dispatcher  *dispatcher.Dispatcher
	coordinator *session.Coordinator
	transport   interfaces.Transport

	mu      sync.Mutex
	started bool
	closed  bool
}

// New 创建 Lobby（未启动）
func New(opts ...Option) (*Lobby, error) {
	o := newOptions()
	if err := o.apply(opts...); err != nil {
		return nil, err
	}

	l := &Lobby{opts: o}
	app, err := buildFxApp(o, l)
	if err != nil {
		return nil, err
	}
	l.app = app

	// 主机的游戏传输接入对端时进入 Connected
	if pn, ok := l.transport.(peerNotifier); ok {
		pn.OnPeer(func(remote string) {
			if err := l.coordinator.TransportStarted(); err != nil {
				logger.Debug("忽略对端接入通知", "remote", remote, "error", err)
			}
		})
	}
	return l, nil
}

// Start 启动 Lobby
func (l *Lobby) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrClosed
	}
	if l.started {
		return ErrAlreadyStarted
	}

	startCtx, cancel := context.WithTimeout(ctx, startTimeout)
	defer cancel()
	if err := l.app.Start(startCtx); err != nil {
		return fmt.Errorf("start failed: %w", err)
	}
	l.started = true
	logger.Info("Lobby 已启动", "version", Version)
	return nil
}

// Stop 停止会话并关闭所有组件，之后不能再次启动
func (l *Lobby) Stop(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	if !l.started {
		return nil
	}
	l.started = false

	err := multierr.Combine(
		l.coordinator.Stop(),
		l.app.Stop(ctx),
	)
	logger.Info("Lobby 已停止")
	return err
}

// running 检查是否已启动
func (l *Lobby) running() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	if !l.started {
		return ErrNotStarted
	}
	return nil
}

// ════════════════════════════════════════════════════════════════════════════
//                              会话操作
// ════════════════════════════════════════════════════════════════════════════

// Host 生成会话码并开始托管，返回会话码
func (l *Lobby) Host() (string, error) {
	c := code.Generate()
	if err := l.HostWithCode(c); err != nil {
		return "", err
	}
	return c, nil
}

// HostWithCode 以指定会话码开始托管
func (l *Lobby) HostWithCode(sessionCode string) error {
	if err := l.running(); err != nil {
		return err
	}
	return l.coordinator.StartHosting(sessionCode)
}

// Join 扫描会话码对应的主机，结果在之后的 Tick 中处理
func (l *Lobby) Join(sessionCode string) error {
	if err := l.running(); err != nil {
		return err
	}
	return l.coordinator.StartScanning(sessionCode)
}

// Retry 扫描超时后重试
func (l *Lobby) Retry() error {
	if err := l.running(); err != nil {
		return err
	}
	return l.coordinator.Retry()
}

// Leave 结束当前会话，回到 Idle
func (l *Lobby) Leave() error {
	if err := l.running(); err != nil {
		return err
	}
	return l.coordinator.Stop()
}

// Tick 在当前 goroutine 上执行所有待处理的回调，返回执行数量
func (l *Lobby) Tick() int {
	return l.dispatcher.DrainAndRun()
}

// Status 返回会话快照
func (l *Lobby) Status() types.SessionStatus {
	return l.coordinator.Status()
}

// State 返回会话状态
func (l *Lobby) State() types.SessionState {
	return l.coordinator.State()
}

// IsTransportError 判断 err 是否为游戏传输失败，并返回失败的操作名
func IsTransportError(err error) (string, bool) {
	var terr *TransportError
	if errors.As(err, &terr) {
		return terr.Op, true
	}
	return "", false
}
