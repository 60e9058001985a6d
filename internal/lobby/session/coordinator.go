// Package session 实现会话协调器
//
// Coordinator 是驱动托管与加入流程的状态机：
//
//	Idle --StartHosting--> Hosting --TransportStarted--> Connected
//	Idle --StartScanning--> Scanning --找到--> Found --Connect--> Connected
//	Scanning --超时--> TimedOut --Retry--> Scanning
//	任意状态 --Stop--> Idle
//
// 除快照读取（State/Role/Status）外，所有方法和扫描回调都应在消费者
// goroutine 上调用，扫描结果经 Dispatcher 回到这里。
package session

import (
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/dep2p/go-lobby/internal/lobby/code"
	"github.com/dep2p/go-lobby/internal/lobby/metrics"
	"github.com/dep2p/go-lobby/internal/lobby/netutil"
	"github.com/dep2p/go-lobby/internal/lobby/scanner"
	"github.com/dep2p/go-lobby/pkg/interfaces"
	"github.com/dep2p/go-lobby/pkg/lib/log"
	"github.com/dep2p/go-lobby/pkg/types"
)

var logger = log.Logger("lobby/session")

// Advertiser 会话广播（由 broadcaster.Broadcaster 实现）
type Advertiser interface {
	Start(code, hostAddress string, hostPort uint16) error
	Stop() error
}

// Finder 会话扫描（由 scanner.Scanner 实现）
type Finder interface {
	Start(targetCode string, onFound scanner.FoundFunc, onTimeout scanner.TimeoutFunc) error
	Stop() error
}

// StateObserver 状态变化观察者，在消费者 goroutine 上调用
type StateObserver func(from, to types.SessionState)

// Option 协调器选项
type Option func(*Coordinator)

// WithMetrics 设置指标收集器
func WithMetrics(m *metrics.Collector) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

// WithAddressResolver 替换本机地址探测
func WithAddressResolver(resolve func() string) Option {
	return func(c *Coordinator) {
		if resolve != nil {
			c.resolveAddress = resolve
		}
	}
}

// WithStateObserver 设置状态变化观察者
func WithStateObserver(fn StateObserver) Option {
	return func(c *Coordinator) {
		c.observer = fn
	}
}

// Coordinator 会话协调器
type Coordinator struct {
	config         *Config
	advertiser     Advertiser
	finder         Finder
	transport      interfaces.Transport
	metrics        *metrics.Collector
	resolveAddress func() string
	observer       StateObserver

	// transportUp 游戏传输已 Listen 或已尝试 Connect，Stop 时需要 Shutdown
	transportUp bool

	mu     sync.RWMutex
	status types.SessionStatus
}

// New 创建会话协调器
func New(config *Config, adv Advertiser, finder Finder, transport interfaces.Transport, opts ...Option) (*Coordinator, error) {
	if adv == nil || finder == nil {
		return nil, ErrNilDiscovery
	}
	if transport == nil {
		return nil, ErrNilTransport
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	c := &Coordinator{
		config:         config,
		advertiser:     adv,
		finder:         finder,
		transport:      transport,
		resolveAddress: netutil.LocalIPv4,
	}
	if config.AdvertiseAddress != "" {
		addr := config.AdvertiseAddress
		c.resolveAddress = func() string { return addr }
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ============================================================================
//                              托管
// ============================================================================

// StartHosting 以 sessionCode 开始托管
//
// 要求处于 Idle。先启动广播，再请求游戏传输监听；传输拒绝时
// 回滚广播并进入 Error，返回 *TransportError。
func (c *Coordinator) StartHosting(sessionCode string) error {
	normalized, err := validCode(sessionCode)
	if err != nil {
		return err
	}
	if state := c.State(); state != types.StateIdle {
		return stateError("start hosting", state)
	}

	addr := c.resolveAddress()
	port := c.config.GameplayPort
	if err := c.advertiser.Start(normalized, addr, port); err != nil {
		return fmt.Errorf("session: start broadcaster: %w", err)
	}

	attempt := uuid.NewString()
	c.update(types.StateHosting, func(s *types.SessionStatus) {
		*s = types.SessionStatus{
			Role:        types.RoleHost,
			Code:        normalized,
			AttemptID:   attempt,
			HostAddress: addr,
			HostPort:    port,
		}
	})

	if !c.transport.Listen(c.config.BindAddress, port) {
		if err := c.advertiser.Stop(); err != nil {
			logger.Warn("回滚广播失败", "error", err)
		}
		terr := &TransportError{Op: OpListen, Address: c.config.BindAddress, Port: port}
		c.fail(terr)
		return terr
	}
	c.transportUp = true

	logger.Info("开始托管会话", "code", normalized, "advertise", addr, "port", port, "attempt", attempt)
	return nil
}

// TransportStarted 外部游戏传输已接入对端，Hosting 进入 Connected
//
// 广播继续运行，直到 Stop 或 Disconnect。
func (c *Coordinator) TransportStarted() error {
	if state := c.State(); state != types.StateHosting {
		return stateError("transport started", state)
	}
	c.update(types.StateConnected, nil)
	return nil
}

// ============================================================================
//                              加入
// ============================================================================

// StartScanning 扫描 sessionCode 对应的主机
//
// 要求处于 Idle 或 TimedOut。会话码不合法时直接返回 ErrInvalidCode，不打开套接字。
func (c *Coordinator) StartScanning(sessionCode string) error {
	normalized, err := validCode(sessionCode)
	if err != nil {
		return err
	}
	if state := c.State(); state != types.StateIdle && state != types.StateTimedOut {
		return stateError("start scanning", state)
	}

	attempt := uuid.NewString()
	onFound := func(ip string, port uint16) { c.handleFound(attempt, ip, port) }
	onTimeout := func() { c.handleTimeout(attempt) }
	if err := c.finder.Start(normalized, onFound, onTimeout); err != nil {
		return fmt.Errorf("session: start scanner: %w", err)
	}

	c.update(types.StateScanning, func(s *types.SessionStatus) {
		*s = types.SessionStatus{
			Role:      types.RoleClient,
			Code:      normalized,
			AttemptID: attempt,
		}
	})

	logger.Info("开始扫描会话", "code", normalized, "attempt", attempt)
	return nil
}

// Retry 超时后以上一次的会话码重新扫描
func (c *Coordinator) Retry() error {
	status := c.Status()
	if status.State != types.StateTimedOut {
		return stateError("retry", status.State)
	}
	return c.StartScanning(status.Code)
}

// handleFound 扫描匹配回调
func (c *Coordinator) handleFound(attempt, ip string, port uint16) {
	if !c.current(attempt, types.StateScanning) {
		logger.Debug("忽略过期扫描结果", "attempt", attempt, "host", ip)
		return
	}

	c.update(types.StateFound, func(s *types.SessionStatus) {
		s.HostAddress = ip
		s.HostPort = port
	})

	c.transportUp = true
	if !c.transport.Connect(ip, port) {
		c.fail(&TransportError{Op: OpConnect, Address: ip, Port: port})
		return
	}

	logger.Info("已连接到主机", "host", net.JoinHostPort(ip, strconv.Itoa(int(port))), "attempt", attempt)
	c.update(types.StateConnected, nil)
}

// handleTimeout 扫描超时回调
func (c *Coordinator) handleTimeout(attempt string) {
	if !c.current(attempt, types.StateScanning) {
		logger.Debug("忽略过期扫描超时", "attempt", attempt)
		return
	}
	c.update(types.StateTimedOut, nil)
}

// ============================================================================
//                              停止
// ============================================================================

// Stop 从任意状态回到 Idle
//
// 停止广播和扫描，若游戏传输已启动则关闭它。可重复调用。
func (c *Coordinator) Stop() error {
	err := multierr.Combine(
		c.advertiser.Stop(),
		c.finder.Stop(),
	)
	if c.transportUp {
		c.transport.Shutdown()
		c.transportUp = false
	}

	if c.State() != types.StateIdle {
		c.update(types.StateIdle, func(s *types.SessionStatus) {
			*s = types.SessionStatus{}
		})
		logger.Info("会话已停止")
	}
	return err
}

// Disconnect 断开已建立的会话
func (c *Coordinator) Disconnect() error {
	if state := c.State(); state != types.StateConnected {
		return stateError("disconnect", state)
	}
	return c.Stop()
}

// ============================================================================
//                              查询
// ============================================================================

// State 返回当前状态
func (c *Coordinator) State() types.SessionState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status.State
}

// Role 返回当前角色
func (c *Coordinator) Role() types.SessionRole {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status.Role
}

// Status 返回会话快照
func (c *Coordinator) Status() types.SessionStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// OnStateChange 设置状态变化观察者
func (c *Coordinator) OnStateChange(fn StateObserver) {
	c.observer = fn
}

// ============================================================================
//                              内部方法
// ============================================================================

// update 切换状态并在锁外通知观察者
func (c *Coordinator) update(to types.SessionState, mutate func(*types.SessionStatus)) {
	c.mu.Lock()
	from := c.status.State
	if mutate != nil {
		mutate(&c.status)
	}
	c.status.State = to
	c.mu.Unlock()

	c.metrics.Transition(to.String())
	logger.Debug("会话状态变化", "from", from, "to", to)
	if c.observer != nil {
		c.observer(from, to)
	}
}

// fail 进入 Error 状态
func (c *Coordinator) fail(err *TransportError) {
	logger.Warn("游戏传输失败", "op", err.Op, "address", err.Address, "port", err.Port)
	c.update(types.StateError, func(s *types.SessionStatus) {
		s.Reason = err.Op
	})
}

// current 判断 attempt 是否仍是当前尝试且处于 want 状态
func (c *Coordinator) current(attempt string, want types.SessionState) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status.AttemptID == attempt && c.status.State == want
}

// validCode 规范化并校验会话码
func validCode(s string) (string, error) {
	normalized := code.Normalize(s)
	if !code.Validate(normalized) {
		return "", fmt.Errorf("%w: %q", ErrInvalidCode, s)
	}
	return normalized, nil
}
