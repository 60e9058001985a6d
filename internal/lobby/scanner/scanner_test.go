package scanner

import (
	"errors"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-lobby/config"
	"github.com/dep2p/go-lobby/internal/lobby/broadcaster"
	"github.com/dep2p/go-lobby/internal/lobby/dispatcher"
)

// ============================================================================
//                              辅助函数
// ============================================================================

// outcomes 记录回调，只在消费者 goroutine（测试 goroutine）上修改
type outcomes struct {
	found    []string
	ports    []uint16
	timeouts int
}

func (o *outcomes) onFound(ip string, port uint16) {
	o.found = append(o.found, ip)
	o.ports = append(o.ports, port)
}

func (o *outcomes) onTimeout() {
	o.timeouts++
}

func (o *outcomes) total() int {
	return len(o.found) + o.timeouts
}

// pump 模拟消费循环，每 5ms 排空一次 Dispatcher，直到 cond 成立或超时
func pump(d *dispatcher.Dispatcher, within time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(within)
	for time.Now().Before(deadline) {
		d.DrainAndRun()
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	d.DrainAndRun()
	return cond()
}

func freePort(t *testing.T) int {
	t.Helper()
	conn, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).Port
}

func newLoopbackScanner(t *testing.T, port int, opts ...ConfigOption) (*Scanner, *dispatcher.Dispatcher) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.ApplyOptions(WithListenAddress("127.0.0.1"), WithPort(port))
	cfg.ApplyOptions(opts...)

	d := dispatcher.New()
	s, err := New(cfg, d)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })
	return s, d
}

// inject 向扫描器端口发送原始数据报
func inject(t *testing.T, port int, payloads ...string) {
	t.Helper()
	conn, err := net.Dial("udp4", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	require.NoError(t, err)
	defer conn.Close()
	for _, p := range payloads {
		_, err := conn.Write([]byte(p))
		require.NoError(t, err)
	}
}


// ============================================================================
//                              测试
// ============================================================================

// TestNew_Invalid 测试构造参数校验
func TestNew_Invalid(t *testing.T) {
	_, err := New(DefaultConfig(), nil)
	assert.ErrorIs(t, err, ErrNilDispatcher)

	cfg := DefaultConfig()
	cfg.ApplyOptions(WithTimeout(0))
	_, err = New(cfg, dispatcher.New())
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

// TestScanner_StartInvalid 测试非法参数不打开套接字
func TestScanner_StartInvalid(t *testing.T) {
	s, _ := newLoopbackScanner(t, freePort(t))
	var o outcomes

	assert.ErrorIs(t, s.Start("  ", o.onFound, o.onTimeout), ErrEmptyCode)
	assert.ErrorIs(t, s.Start("ABCDEF", nil, o.onTimeout), ErrNilCallback)
	assert.ErrorIs(t, s.Start("ABCDEF", o.onFound, nil), ErrNilCallback)
	assert.False(t, s.Active())
}

// TestScanner_MatchDelivery 测试与广播器配合的匹配投递
func TestScanner_MatchDelivery(t *testing.T) {
	port := freePort(t)
	s, d := newLoopbackScanner(t, port)

	bcfg := broadcaster.DefaultConfig()
	bcfg.ApplyOptions(broadcaster.WithBroadcastAddress("127.0.0.1"), broadcaster.WithPort(port))
	b, err := broadcaster.New(bcfg)
	require.NoError(t, err)
	defer b.Stop()

	var o outcomes
	require.NoError(t, s.Start("MATCH1", o.onFound, o.onTimeout))
	require.NoError(t, b.Start("MATCH1", "10.0.0.9", 7777))

	require.True(t, pump(d, 1100*time.Millisecond, func() bool { return o.total() > 0 }), "1100ms 内未找到会话")
	assert.Equal(t, []string{"10.0.0.9"}, o.found)
	assert.Equal(t, []uint16{7777}, o.ports)
	assert.Zero(t, o.timeouts)

	// 匹配后扫描器自行释放，之后不再有回调
	assert.Eventually(t, func() bool { return !s.Active() }, time.Second, 5*time.Millisecond)
	pump(d, 1200*time.Millisecond, func() bool { return false })
	assert.Equal(t, 1, o.total())
}

// TestScanner_NonMatchTimeout 测试默认预算下的超时
func TestScanner_NonMatchTimeout(t *testing.T) {
	if testing.Short() {
		t.Skip("需要完整的 5s 扫描预算")
	}

	port := freePort(t)
	s, d := newLoopbackScanner(t, port)

	bcfg := broadcaster.DefaultConfig()
	bcfg.ApplyOptions(broadcaster.WithBroadcastAddress("127.0.0.1"), broadcaster.WithPort(port))
	b, err := broadcaster.New(bcfg)
	require.NoError(t, err)
	defer b.Stop()

	var o outcomes
	start := time.Now()
	require.NoError(t, s.Start("NOPE99", o.onFound, o.onTimeout))
	require.NoError(t, b.Start("OTHER1", "10.0.0.9", 7777))

	require.True(t, pump(d, 6*time.Second, func() bool { return o.total() > 0 }))
	elapsed := time.Since(start)

	assert.Equal(t, 1, o.timeouts)
	assert.Empty(t, o.found)
	assert.GreaterOrEqual(t, elapsed, 4900*time.Millisecond)
	assert.Less(t, elapsed, 5800*time.Millisecond)

	pump(d, 200*time.Millisecond, func() bool { return false })
	assert.Equal(t, 1, o.total())
	assert.False(t, s.Active())
}

// TestScanner_MalformedResilience 测试畸形数据包不会中断扫描
func TestScanner_MalformedResilience(t *testing.T) {
	port := freePort(t)
	s, d := newLoopbackScanner(t, port)

	var o outcomes
	require.NoError(t, s.Start("MATCH1", o.onFound, o.onTimeout))

	inject(t, port,
		"GARBAGE",
		"MATCH1|10.0.0.9",
		"MATCH1|10.0.0.9|notaport",
		"MATCH1|10.0.0.9|70000",
		"OTHER1|10.0.0.8|7000",
		"MATCH1|10.0.0.9|7777",
	)

	require.True(t, pump(d, time.Second, func() bool { return o.total() > 0 }))
	assert.Equal(t, []string{"10.0.0.9"}, o.found)
	assert.Equal(t, []uint16{7777}, o.ports)
	assert.Zero(t, o.timeouts)
}

// TestScanner_CaseInsensitive 测试会话码大小写不敏感
func TestScanner_CaseInsensitive(t *testing.T) {
	port := freePort(t)
	s, d := newLoopbackScanner(t, port)

	var o outcomes
	require.NoError(t, s.Start(" match1 ", o.onFound, o.onTimeout))
	inject(t, port, "Match1|192.168.0.4|9000")

	require.True(t, pump(d, time.Second, func() bool { return o.total() > 0 }))
	assert.Equal(t, []string{"192.168.0.4"}, o.found)
	assert.Equal(t, []uint16{9000}, o.ports)
}

// TestScanner_FirstMatchWins 测试只投递第一个匹配
func TestScanner_FirstMatchWins(t *testing.T) {
	port := freePort(t)
	s, d := newLoopbackScanner(t, port)

	var o outcomes
	require.NoError(t, s.Start("MATCH1", o.onFound, o.onTimeout))
	inject(t, port, "MATCH1|10.0.0.1|1111", "MATCH1|10.0.0.2|2222")

	require.True(t, pump(d, time.Second, func() bool { return o.total() > 0 }))
	pump(d, 100*time.Millisecond, func() bool { return false })

	assert.Equal(t, []string{"10.0.0.1"}, o.found)
	assert.Equal(t, []uint16{1111}, o.ports)
}

// TestScanner_AlreadyActive 测试拒绝并发扫描
func TestScanner_AlreadyActive(t *testing.T) {
	s, _ := newLoopbackScanner(t, freePort(t))

	var o outcomes
	require.NoError(t, s.Start("AAAAAA", o.onFound, o.onTimeout))
	assert.ErrorIs(t, s.Start("BBBBBB", o.onFound, o.onTimeout), ErrAlreadyActive)
	assert.True(t, s.Active())
}

// TestScanner_StopIdempotent 测试重复停止
func TestScanner_StopIdempotent(t *testing.T) {
	port := freePort(t)
	s, d := newLoopbackScanner(t, port)

	assert.NoError(t, s.Stop())

	var o outcomes
	require.NoError(t, s.Start("STOP22", o.onFound, o.onTimeout))
	assert.NoError(t, s.Stop())
	assert.NoError(t, s.Stop())
	assert.False(t, s.Active())

	// 停止的扫描不投递结果
	pump(d, 100*time.Millisecond, func() bool { return false })
	assert.Zero(t, o.total())

	// 端口已释放，可以再次绑定
	conn, err := net.ListenPacket("udp4", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	require.NoError(t, err)
	conn.Close()
}

// TestScanner_StopLatency 测试阻塞接收中停止耗时有界
func TestScanner_StopLatency(t *testing.T) {
	s, _ := newLoopbackScanner(t, freePort(t))

	var o outcomes
	require.NoError(t, s.Start("LATNCY", o.onFound, o.onTimeout))
	time.Sleep(50 * time.Millisecond) // 确保后台 goroutine 阻塞在接收上

	start := time.Now()
	require.NoError(t, s.Stop())
	assert.Less(t, time.Since(start), 1200*time.Millisecond)
}

// TestScanner_StopAfterOutcome 测试结果之后停止为空操作
func TestScanner_StopAfterOutcome(t *testing.T) {
	port := freePort(t)
	s, d := newLoopbackScanner(t, port, WithTimeout(100*time.Millisecond))

	var o outcomes
	require.NoError(t, s.Start("ZZZZZZ", o.onFound, o.onTimeout))
	require.True(t, pump(d, time.Second, func() bool { return o.total() > 0 }))
	require.Eventually(t, func() bool { return !s.Active() }, time.Second, 5*time.Millisecond)

	assert.NoError(t, s.Stop())
	assert.Equal(t, 1, o.timeouts)

	// 超时后无需 Stop 即可重新扫描
	require.NoError(t, s.Start("ZZZZZZ", o.onFound, o.onTimeout))
	inject(t, port, "ZZZZZZ|10.1.1.1|4000")
	require.True(t, pump(d, time.Second, func() bool { return len(o.found) > 0 }))
	assert.Equal(t, 1, o.timeouts)
	assert.Equal(t, []string{"10.1.1.1"}, o.found)
}

// ============================================================================
//                              瞬时错误
// ============================================================================

// scriptedConn 按脚本返回接收结果的 PacketConn
type scriptedConn struct {
	mu     sync.Mutex
	reads  []scriptedRead
	closed chan struct{}
	once   sync.Once
}

type scriptedRead struct {
	data string
	err  error
}

func (c *scriptedConn) ReadFrom(p []byte) (int, net.Addr, error) {
	c.mu.Lock()
	if len(c.reads) > 0 {
		r := c.reads[0]
		c.reads = c.reads[1:]
		c.mu.Unlock()
		if r.err != nil {
			return 0, nil, r.err
		}
		return copy(p, r.data), &net.UDPAddr{IP: net.IPv4(10, 0, 0, 1), Port: 5000}, nil
	}
	c.mu.Unlock()
	<-c.closed
	return 0, nil, net.ErrClosed
}

func (c *scriptedConn) WriteTo(p []byte, _ net.Addr) (int, error) { return len(p), nil }
func (c *scriptedConn) LocalAddr() net.Addr                        { return &net.UDPAddr{} }
func (c *scriptedConn) SetDeadline(time.Time) error                { return nil }
func (c *scriptedConn) SetReadDeadline(time.Time) error            { return nil }
func (c *scriptedConn) SetWriteDeadline(time.Time) error           { return nil }

func (c *scriptedConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

// TestScanner_TransientReceiveError 测试非超时接收错误后继续扫描
func TestScanner_TransientReceiveError(t *testing.T) {
	conn := &scriptedConn{
		closed: make(chan struct{}),
		reads: []scriptedRead{
			{err: &net.OpError{Op: "read", Net: "udp", Err: errors.New("connection refused")}},
			{data: "MATCH1|10.0.0.9|7777"},
		},
	}

	d := dispatcher.New()
	s, err := New(DefaultConfig(), d)
	require.NoError(t, err)
	s.listen = func(string) (net.PacketConn, error) { return conn, nil }

	var o outcomes
	require.NoError(t, s.Start("MATCH1", o.onFound, o.onTimeout))
	require.True(t, pump(d, time.Second, func() bool { return o.total() > 0 }))
	assert.Equal(t, []string{"10.0.0.9"}, o.found)
}

// TestModule_Provide 测试 Fx 模块
func TestModule_Provide(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Discovery.Port = freePort(t)

	var s *Scanner
	app := fxtest.New(t,
		dispatcher.Module,
		Module,
		fx.Supply(cfg),
		fx.Populate(&s),
	)
	app.RequireStart()

	require.NotNil(t, s)
	assert.Equal(t, cfg.Discovery.Port, s.config.Port)
	assert.Equal(t, cfg.Discovery.ScanTimeout.Duration(), s.config.Timeout)

	var o outcomes
	require.NoError(t, s.Start("FXFXFX", o.onFound, o.onTimeout))
	app.RequireStop()
	assert.False(t, s.Active())
}
