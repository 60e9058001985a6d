// Package scanner 实现客户端的局域网会话扫描
//
// Scanner 绑定发现端口，在一个后台 goroutine 中逐个接收数据报，寻找与目标
// 会话码匹配的广播。第一个匹配的数据包获胜：onFound 经 Dispatcher 投递，
// 循环结束并释放套接字。预算（默认 5s）耗尽仍未匹配时投递 onTimeout。
//
// 每次运行到结束的 Start 恰好投递一次结果，并且总在消费者 goroutine 上
// 执行。被 Stop 中断的扫描不投递结果。
package scanner

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-lobby/internal/lobby/code"
	"github.com/dep2p/go-lobby/internal/lobby/dispatcher"
	"github.com/dep2p/go-lobby/internal/lobby/metrics"
	"github.com/dep2p/go-lobby/internal/lobby/netutil"
	"github.com/dep2p/go-lobby/internal/lobby/protocol"
	"github.com/dep2p/go-lobby/pkg/lib/log"
)

var logger = log.Logger("lobby/scanner")

// FoundFunc 匹配回调，在消费者 goroutine 上执行
type FoundFunc func(ip string, port uint16)

// TimeoutFunc 超时回调，在消费者 goroutine 上执行
type TimeoutFunc func()

// Option 扫描器选项
type Option func(*Scanner)

// WithClock 替换时钟
func WithClock(clk clock.Clock) Option {
	return func(s *Scanner) {
		s.clock = clk
	}
}

// WithMetrics 设置指标收集器
func WithMetrics(m *metrics.Collector) Option {
	return func(s *Scanner) {
		s.metrics = m
	}
}

// Scanner 会话扫描器
type Scanner struct {
	config     *Config
	dispatcher *dispatcher.Dispatcher
	clock      clock.Clock
	metrics    *metrics.Collector
	listen     func(addr string) (net.PacketConn, error)

	mu  sync.Mutex
	run *scanRun
}

// scanRun 一次扫描的资源，只属于其后台 goroutine 和 Stop
type scanRun struct {
	conn   net.PacketConn
	cancel context.CancelFunc
	done   chan struct{}
	target string
}

// New 创建扫描器
func New(config *Config, d *dispatcher.Dispatcher, opts ...Option) (*Scanner, error) {
	if d == nil {
		return nil, ErrNilDispatcher
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	s := &Scanner{
		config:     config,
		dispatcher: d,
		clock:      clock.New(),
		listen: func(addr string) (net.PacketConn, error) {
			return netutil.ListenUDP(addr, false)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start 开始扫描 targetCode
//
// 已有扫描在进行时返回 ErrAlreadyActive。
func (s *Scanner) Start(targetCode string, onFound FoundFunc, onTimeout TimeoutFunc) error {
	target := code.Normalize(targetCode)
	if target == "" {
		return ErrEmptyCode
	}
	if onFound == nil || onTimeout == nil {
		return ErrNilCallback
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.run != nil {
		return ErrAlreadyActive
	}

	addr := net.JoinHostPort(s.config.ListenAddress, strconv.Itoa(s.config.Port))
	conn, err := s.listen(addr)
	if err != nil {
		return fmt.Errorf("scanner: bind %s: %w", addr, err)
	}

	started := s.clock.Now()
	deadline := started.Add(s.config.Timeout)
	if err := conn.SetReadDeadline(time.Now().Add(s.config.Timeout)); err != nil {
		_ = conn.Close()
		return fmt.Errorf("scanner: set deadline: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &scanRun{
		conn:   conn,
		cancel: cancel,
		done:   make(chan struct{}),
		target: target,
	}
	s.run = r

	go s.loop(ctx, r, deadline, onFound, onTimeout)

	logger.Info("开始扫描会话", "code", target, "listen", addr, "timeout", s.config.Timeout)
	return nil
}

// loop 接收循环
func (s *Scanner) loop(ctx context.Context, r *scanRun, deadline time.Time, onFound FoundFunc, onTimeout TimeoutFunc) {
	defer close(r.done)
	defer s.release(r)

	buf := make([]byte, protocol.MaxPacketSize)
	for {
		if ctx.Err() != nil {
			return
		}

		remaining := deadline.Sub(s.clock.Now())
		if remaining <= 0 {
			logger.Info("扫描超时，未找到会话", "code", r.target)
			s.metrics.ScanOutcome(metrics.OutcomeTimeout)
			s.dispatcher.Enqueue(dispatcher.Action(onTimeout))
			return
		}
		_ = r.conn.SetReadDeadline(time.Now().Add(remaining))

		n, from, err := r.conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil || netutil.IsClosed(err) {
				return
			}
			if netutil.IsTimeout(err) {
				// 空闲等待的正常结果，回到循环顶部检查预算
				continue
			}
			logger.Warn("接收发现数据包失败", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(transientBackoff):
			}
			continue
		}

		s.metrics.PacketReceived()
		pkt, err := protocol.Decode(buf[:n])
		if err != nil {
			s.metrics.PacketMalformed()
			logger.Debug("丢弃畸形数据包", "from", from, "error", err)
			continue
		}
		if !pkt.Matches(r.target) {
			s.metrics.PacketIgnored()
			logger.Debug("忽略其他会话的广播", "code", pkt.Code, "from", from)
			continue
		}

		logger.Info("找到会话", "code", r.target, "host", pkt.HostAddress, "port", pkt.HostPort)
		s.metrics.ScanOutcome(metrics.OutcomeFound)
		ip, port := pkt.HostAddress, pkt.HostPort
		s.dispatcher.Enqueue(func() { onFound(ip, port) })
		return
	}
}

// release 扫描结束时释放套接字；若已被 Stop 接管则由 Stop 负责
func (s *Scanner) release(r *scanRun) {
	s.mu.Lock()
	owned := s.run == r
	if owned {
		s.run = nil
	}
	s.mu.Unlock()

	if owned {
		r.cancel()
		_ = r.conn.Close()
	}
}

// Stop 停止扫描
//
// 发出停止信号并唤醒阻塞中的接收，最多等待 StopTimeout，
// 然后关闭套接字。匹配或超时之后调用、或从未启动时为空操作。
func (s *Scanner) Stop() error {
	s.mu.Lock()
	r := s.run
	s.run = nil
	s.mu.Unlock()

	if r == nil {
		return nil
	}

	r.cancel()
	_ = r.conn.SetReadDeadline(time.Now())

	timer := time.NewTimer(s.config.StopTimeout)
	select {
	case <-r.done:
	case <-timer.C:
		logger.Warn("扫描 goroutine 未在超时内退出，强制关闭套接字", "timeout", s.config.StopTimeout)
	}
	timer.Stop()

	err := r.conn.Close()
	if netutil.IsClosed(err) {
		err = nil
	}

	logger.Info("停止扫描", "code", r.target)
	return err
}

// Active 报告是否有扫描在进行
func (s *Scanner) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run != nil
}
