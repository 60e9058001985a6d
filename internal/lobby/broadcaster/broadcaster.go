// Package broadcaster 实现主机端的局域网会话广播
//
// 主机开始托管后，Broadcaster 在一个后台 goroutine 中每秒向广播地址的
// 发现端口发送一次 "CODE|IP|PORT"，直到 Stop 或套接字被外部关闭。
// 发送失败只记录日志（限流），不会终止广播。
package broadcaster

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/time/rate"

	"github.com/dep2p/go-lobby/internal/lobby/metrics"
	"github.com/dep2p/go-lobby/internal/lobby/netutil"
	"github.com/dep2p/go-lobby/internal/lobby/protocol"
	"github.com/dep2p/go-lobby/pkg/lib/log"
)

var logger = log.Logger("lobby/broadcaster")

// Option 广播器选项
type Option func(*Broadcaster)

// WithClock 替换时钟（测试使用 clock.NewMock）
func WithClock(clk clock.Clock) Option {
	return func(b *Broadcaster) {
		b.clock = clk
	}
}

// WithMetrics 设置指标收集器
func WithMetrics(m *metrics.Collector) Option {
	return func(b *Broadcaster) {
		b.metrics = m
	}
}

// Broadcaster 会话广播器
type Broadcaster struct {
	config  *Config
	clock   clock.Clock
	metrics *metrics.Collector
	listen  func() (net.PacketConn, error)

	// warnLimiter 限制发送失败告警频率
	warnLimiter *rate.Limiter

	// mu 保护以下字段，Stop 期间一直持有
	mu     sync.Mutex
	conn   net.PacketConn
	cancel context.CancelFunc
	done   chan struct{}
	packet protocol.Packet
}

// New 创建广播器
func New(config *Config, opts ...Option) (*Broadcaster, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	b := &Broadcaster{
		config:      config,
		clock:       clock.New(),
		warnLimiter: rate.NewLimiter(rate.Every(5*time.Second), 1),
		listen: func() (net.PacketConn, error) {
			return netutil.ListenUDP("0.0.0.0:0", true)
		},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Start 开始广播
//
// 已在广播时返回 ErrAlreadyActive，不做任何改动。
func (b *Broadcaster) Start(code, hostAddress string, hostPort uint16) error {
	if !validField(code) || !validField(hostAddress) {
		return ErrInvalidField
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conn != nil {
		return ErrAlreadyActive
	}

	target, err := net.ResolveUDPAddr("udp4",
		net.JoinHostPort(b.config.BroadcastAddress, strconv.Itoa(b.config.Port)))
	if err != nil {
		return fmt.Errorf("broadcaster: resolve target: %w", err)
	}

	conn, err := b.listen()
	if err != nil {
		return fmt.Errorf("broadcaster: open socket: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	pkt := protocol.Packet{Code: code, HostAddress: hostAddress, HostPort: hostPort}

	// ticker 在启动 goroutine 前创建，保证第一次 Interval 计时从 Start 开始
	ticker := b.clock.Ticker(b.config.Interval)

	b.conn = conn
	b.cancel = cancel
	b.done = done
	b.packet = pkt

	go b.loop(ctx, conn, target, pkt.Encode(), ticker, done)

	logger.Info("开始广播会话",
		"code", code,
		"host", hostAddress,
		"port", hostPort,
		"target", target.String())
	return nil
}

// loop 广播循环：立即发送一次，之后每个 Interval 发送一次
func (b *Broadcaster) loop(ctx context.Context, conn net.PacketConn, target net.Addr, payload []byte, ticker *clock.Ticker, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()

	for {
		if !b.send(ctx, conn, target, payload) {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// send 发送一个数据包，返回 false 表示循环应当退出
func (b *Broadcaster) send(ctx context.Context, conn net.PacketConn, target net.Addr, payload []byte) bool {
	_, err := conn.WriteTo(payload, target)
	if err == nil {
		b.metrics.PacketSent()
		return true
	}

	if ctx.Err() != nil {
		// 停止过程中的关闭/截止错误属于预期
		return false
	}
	if netutil.IsClosed(err) {
		logger.Debug("广播套接字已被关闭，退出广播循环")
		return false
	}

	b.metrics.SendError()
	if b.warnLimiter.Allow() {
		logger.Warn("广播发送失败，继续重试", "error", err)
	}
	return true
}

// Stop 停止广播
//
// 发出停止信号并唤醒阻塞中的发送，最多等待 StopTimeout，
// 无论 goroutine 是否按时退出都会关闭套接字。未在广播时为空操作。
func (b *Broadcaster) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conn == nil {
		return nil
	}

	conn, done := b.conn, b.done
	b.cancel()
	_ = conn.SetDeadline(time.Now())

	timer := time.NewTimer(b.config.StopTimeout)
	select {
	case <-done:
	case <-timer.C:
		logger.Warn("广播 goroutine 未在超时内退出，强制关闭套接字", "timeout", b.config.StopTimeout)
	}
	timer.Stop()

	err := conn.Close()
	if netutil.IsClosed(err) {
		err = nil
	}

	b.conn = nil
	b.cancel = nil
	b.done = nil
	b.packet = protocol.Packet{}

	logger.Info("停止广播")
	return err
}

// Active 报告是否在广播
func (b *Broadcaster) Active() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn != nil
}

// Packet 返回当前广播的数据包，未广播时返回零值
func (b *Broadcaster) Packet() protocol.Packet {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.packet
}

func validField(s string) bool {
	return s != "" && !strings.Contains(s, protocol.Separator)
}
