package broadcaster

import (
	"errors"
	"net"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-lobby/config"
	"github.com/dep2p/go-lobby/internal/lobby/metrics"
	"github.com/dep2p/go-lobby/internal/lobby/netutil"
	"github.com/dep2p/go-lobby/internal/lobby/protocol"
)

// ============================================================================
//                              fakeConn
// ============================================================================

// fakeConn 记录写入的 PacketConn，writeErrs 按顺序作为每次写入的返回值
type fakeConn struct {
	mu        sync.Mutex
	writes    chan string
	writeErrs []error
	closed    bool
}

func newFakeConn(errs ...error) *fakeConn {
	return &fakeConn{writes: make(chan string, 16), writeErrs: errs}
}

func (c *fakeConn) WriteTo(p []byte, _ net.Addr) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, net.ErrClosed
	}
	if len(c.writeErrs) > 0 {
		err := c.writeErrs[0]
		c.writeErrs = c.writeErrs[1:]
		if err != nil {
			return 0, err
		}
	}
	c.writes <- string(p)
	return len(p), nil
}

func (c *fakeConn) ReadFrom([]byte) (int, net.Addr, error) { return 0, nil, errors.New("not implemented") }
func (c *fakeConn) LocalAddr() net.Addr                    { return &net.UDPAddr{IP: net.IPv4zero} }
func (c *fakeConn) SetDeadline(time.Time) error            { return nil }
func (c *fakeConn) SetReadDeadline(time.Time) error        { return nil }
func (c *fakeConn) SetWriteDeadline(time.Time) error       { return nil }

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return net.ErrClosed
	}
	c.closed = true
	return nil
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func withConn(conn net.PacketConn) Option {
	return func(b *Broadcaster) {
		b.listen = func() (net.PacketConn, error) { return conn, nil }
	}
}

func nextWrite(t *testing.T, conn *fakeConn) string {
	t.Helper()
	select {
	case w := <-conn.writes:
		return w
	case <-time.After(time.Second):
		t.Fatal("没有等到广播数据包")
		return ""
	}
}

// ============================================================================
//                              测试
// ============================================================================

// TestNew_InvalidConfig 测试无效配置
func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		opt  ConfigOption
	}{
		{"zero port", WithPort(0)},
		{"ipv6 target", WithBroadcastAddress("ff02::1")},
		{"zero interval", WithInterval(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.ApplyOptions(tt.opt)
			_, err := New(cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

// TestBroadcaster_Cadence 测试立即发送并按间隔重复
func TestBroadcaster_Cadence(t *testing.T) {
	mock := clock.NewMock()
	conn := newFakeConn()

	b, err := New(DefaultConfig(), WithClock(mock), withConn(conn))
	require.NoError(t, err)

	require.NoError(t, b.Start("MATCH1", "10.0.0.9", 7777))
	defer b.Stop()

	assert.Equal(t, "MATCH1|10.0.0.9|7777", nextWrite(t, conn))

	// 未到间隔不应再发送
	mock.Add(500 * time.Millisecond)
	select {
	case w := <-conn.writes:
		t.Fatalf("间隔未到就发送了: %s", w)
	case <-time.After(20 * time.Millisecond):
	}

	mock.Add(500 * time.Millisecond)
	assert.Equal(t, "MATCH1|10.0.0.9|7777", nextWrite(t, conn))

	mock.Add(time.Second)
	assert.Equal(t, "MATCH1|10.0.0.9|7777", nextWrite(t, conn))
}

// TestBroadcaster_AlreadyActive 测试重复启动
func TestBroadcaster_AlreadyActive(t *testing.T) {
	conn := newFakeConn()
	b, err := New(DefaultConfig(), WithClock(clock.NewMock()), withConn(conn))
	require.NoError(t, err)

	require.NoError(t, b.Start("AAAAAA", "10.0.0.1", 7777))
	defer b.Stop()

	err = b.Start("BBBBBB", "10.0.0.2", 7778)
	assert.ErrorIs(t, err, ErrAlreadyActive)
	assert.Equal(t, protocol.Packet{Code: "AAAAAA", HostAddress: "10.0.0.1", HostPort: 7777}, b.Packet())
}

// TestBroadcaster_InvalidField 测试无法组包的字段
func TestBroadcaster_InvalidField(t *testing.T) {
	b, err := New(DefaultConfig(), withConn(newFakeConn()))
	require.NoError(t, err)

	assert.ErrorIs(t, b.Start("", "10.0.0.1", 7777), ErrInvalidField)
	assert.ErrorIs(t, b.Start("AB|CD", "10.0.0.1", 7777), ErrInvalidField)
	assert.ErrorIs(t, b.Start("ABCDEF", "", 7777), ErrInvalidField)
	assert.False(t, b.Active())
}

// TestBroadcaster_TransientSendError 测试发送失败不终止广播
func TestBroadcaster_TransientSendError(t *testing.T) {
	mock := clock.NewMock()
	conn := newFakeConn(&net.OpError{Op: "write", Net: "udp", Err: syscall.ENETUNREACH})

	reg := prometheus.NewRegistry()
	m, err := metrics.NewCollector(reg)
	require.NoError(t, err)

	b, err := New(DefaultConfig(), WithClock(mock), withConn(conn), WithMetrics(m))
	require.NoError(t, err)
	require.NoError(t, b.Start("RETRY2", "10.0.0.9", 7777))
	defer b.Stop()

	// 第一次发送失败，下一个间隔恢复
	require.Eventually(t, func() bool { return conn.pendingErrs() == 0 }, time.Second, 5*time.Millisecond)
	mock.Add(time.Second)
	assert.Equal(t, "RETRY2|10.0.0.9|7777", nextWrite(t, conn))
	assert.True(t, b.Active())

	assert.Equal(t, 1.0, counterValue(t, reg, "lobby_discovery_send_errors_total"))
	assert.Equal(t, 1.0, counterValue(t, reg, "lobby_discovery_packets_sent_total"))
}

func (c *fakeConn) pendingErrs() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.writeErrs)
}

// counterValue 从注册表读取计数器当前值
func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name {
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	return 0
}

// TestBroadcaster_ClosedOutOfBand 测试套接字被外部关闭后循环退出
func TestBroadcaster_ClosedOutOfBand(t *testing.T) {
	mock := clock.NewMock()
	conn := newFakeConn()
	b, err := New(DefaultConfig(), WithClock(mock), withConn(conn))
	require.NoError(t, err)

	require.NoError(t, b.Start("CLOSE1", "10.0.0.9", 7777))
	nextWrite(t, conn)
	require.NoError(t, conn.Close())

	b.mu.Lock()
	done := b.done
	b.mu.Unlock()
	mock.Add(time.Second)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("广播循环未退出")
	}

	// 仍视为活动直到 Stop
	assert.True(t, b.Active())
	assert.NoError(t, b.Stop())
	assert.False(t, b.Active())
}

// TestBroadcaster_StopIdempotent 测试重复停止和未启动时停止
func TestBroadcaster_StopIdempotent(t *testing.T) {
	conn := newFakeConn()
	b, err := New(DefaultConfig(), WithClock(clock.NewMock()), withConn(conn))
	require.NoError(t, err)

	assert.NoError(t, b.Stop())

	require.NoError(t, b.Start("STOP22", "10.0.0.9", 7777))
	assert.NoError(t, b.Stop())
	assert.NoError(t, b.Stop())
	assert.True(t, conn.isClosed())
	assert.False(t, b.Active())
	assert.Equal(t, protocol.Packet{}, b.Packet())
}

// TestBroadcaster_Restart 测试停止后可以重新启动
func TestBroadcaster_Restart(t *testing.T) {
	b, err := New(DefaultConfig(), WithClock(clock.NewMock()))
	require.NoError(t, err)

	first, second := newFakeConn(), newFakeConn()
	conns := []*fakeConn{first, second}
	b.listen = func() (net.PacketConn, error) {
		c := conns[0]
		conns = conns[1:]
		return c, nil
	}

	require.NoError(t, b.Start("FIRST2", "10.0.0.9", 7777))
	nextWrite(t, first)
	require.NoError(t, b.Stop())

	require.NoError(t, b.Start("SECND2", "10.0.0.9", 7777))
	assert.Equal(t, "SECND2|10.0.0.9|7777", nextWrite(t, second))
	require.NoError(t, b.Stop())
}

// TestBroadcaster_UDP 测试真实 UDP 发送
func TestBroadcaster_UDP(t *testing.T) {
	rx, err := netutil.ListenUDP("127.0.0.1:0", false)
	require.NoError(t, err)
	defer rx.Close()

	cfg := DefaultConfig()
	cfg.ApplyOptions(
		WithBroadcastAddress("127.0.0.1"),
		WithPort(rx.LocalAddr().(*net.UDPAddr).Port),
		WithInterval(50*time.Millisecond),
	)

	b, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, b.Start("MATCH1", "10.0.0.9", 7777))
	defer b.Stop()

	buf := make([]byte, protocol.MaxPacketSize)
	for i := 0; i < 2; i++ {
		require.NoError(t, rx.SetReadDeadline(time.Now().Add(time.Second)))
		n, _, err := rx.ReadFrom(buf)
		require.NoError(t, err)

		pkt, err := protocol.Decode(buf[:n])
		require.NoError(t, err)
		assert.Equal(t, protocol.Packet{Code: "MATCH1", HostAddress: "10.0.0.9", HostPort: 7777}, pkt)
	}
}

// TestBroadcaster_StopLatency 测试停止耗时有界
func TestBroadcaster_StopLatency(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ApplyOptions(WithBroadcastAddress("127.0.0.1"), WithPort(freePort(t)))

	b, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, b.Start("LATNCY", "10.0.0.9", 7777))

	start := time.Now()
	require.NoError(t, b.Stop())
	assert.Less(t, time.Since(start), 1200*time.Millisecond)
}

func freePort(t *testing.T) int {
	t.Helper()
	conn, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).Port
}

// TestModule_Lifecycle 测试 Fx 模块停止时释放广播
func TestModule_Lifecycle(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Discovery.BroadcastAddress = "127.0.0.1"
	cfg.Discovery.Port = freePort(t)

	var b *Broadcaster
	app := fxtest.New(t,
		Module,
		fx.Supply(cfg),
		fx.Populate(&b),
	)
	app.RequireStart()

	require.NotNil(t, b)
	assert.Equal(t, cfg.Discovery.Port, b.config.Port)
	require.NoError(t, b.Start("FXFXFX", "10.0.0.9", 7777))

	app.RequireStop()
	assert.False(t, b.Active())
}
