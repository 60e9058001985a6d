// Package ws 提供基于 WebSocket 的演示游戏传输
//
// 主机在 gameplay 端口上接受 WebSocket 连接，客户端拨号连接。
// 它只用于让 CLI 端到端可运行，不承载任何游戏协议。
package ws

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dep2p/go-lobby/internal/lobby/dispatcher"
	"github.com/dep2p/go-lobby/pkg/interfaces"
	"github.com/dep2p/go-lobby/pkg/lib/log"
)

var logger = log.Logger("transport/ws")

var _ interfaces.Transport = (*Transport)(nil)

// PeerFunc 对端接入回调
type PeerFunc func(remote string)

// Transport WebSocket 游戏传输
type Transport struct {
	config     *Config
	dispatcher *dispatcher.Dispatcher
	upgrader   websocket.Upgrader

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	peers    map[*websocket.Conn]struct{}
	client   *websocket.Conn
	onPeer   PeerFunc
}

// New 创建传输
//
// d 非空时，对端接入回调经 Dispatcher 投递到消费者 goroutine。
func New(config *Config, d *dispatcher.Dispatcher) (*Transport, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("ws: invalid config: %w", err)
	}
	return &Transport{
		config:     config,
		dispatcher: d,
		upgrader: websocket.Upgrader{
			// 局域网演示传输，不校验 Origin
			CheckOrigin: func(*http.Request) bool { return true },
		},
		peers: make(map[*websocket.Conn]struct{}),
	}, nil
}

// OnPeer 设置对端接入回调
func (t *Transport) OnPeer(fn PeerFunc) {
	t.mu.Lock()
	t.onPeer = fn
	t.mu.Unlock()
}

// Listen 在 bindAddress:port 上接受 WebSocket 连接
func (t *Transport) Listen(bindAddress string, port uint16) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.server != nil {
		logger.Warn("传输已在监听")
		return false
	}

	addr := net.JoinHostPort(bindAddress, strconv.Itoa(int(port)))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Warn("监听失败", "addr", addr, "error", err)
		return false
	}

	mux := http.NewServeMux()
	mux.HandleFunc(t.config.Path, t.handleUpgrade)
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: t.config.DialTimeout,
	}
	t.server = srv
	t.listener = ln

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("HTTP 服务退出", "error", err)
		}
	}()

	logger.Info("游戏传输开始监听", "addr", ln.Addr().String())
	return true
}

// Addr 返回监听地址，未监听时为 nil
func (t *Transport) Addr() net.Addr {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.listener == nil {
		return nil
	}
	return t.listener.Addr()
}

func (t *Transport) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Debug("WebSocket 升级失败", "remote", r.RemoteAddr, "error", err)
		return
	}

	t.mu.Lock()
	if t.server == nil {
		t.mu.Unlock()
		_ = conn.Close()
		return
	}
	t.peers[conn] = struct{}{}
	onPeer := t.onPeer
	t.mu.Unlock()

	remote := r.RemoteAddr
	logger.Info("对端已接入", "remote", remote)
	if onPeer != nil {
		if t.dispatcher != nil {
			t.dispatcher.Enqueue(func() { onPeer(remote) })
		} else {
			onPeer(remote)
		}
	}

	go t.drain(conn, func() {
		t.mu.Lock()
		delete(t.peers, conn)
		t.mu.Unlock()
		logger.Info("对端已断开", "remote", remote)
	})
}

// Connect 拨号连接 address:port
func (t *Transport) Connect(address string, port uint16) bool {
	u := url.URL{
		Scheme: "ws",
		Host:   net.JoinHostPort(address, strconv.Itoa(int(port))),
		Path:   t.config.Path,
	}

	dialer := websocket.Dialer{HandshakeTimeout: t.config.DialTimeout}
	ctx, cancel := context.WithTimeout(context.Background(), t.config.DialTimeout)
	defer cancel()

	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		logger.Warn("连接主机失败", "url", u.String(), "error", err)
		return false
	}

	t.mu.Lock()
	old := t.client
	t.client = conn
	t.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}

	go t.drain(conn, func() {
		t.mu.Lock()
		if t.client == conn {
			t.client = nil
		}
		t.mu.Unlock()
	})

	logger.Info("已连接主机", "url", u.String())
	return true
}

// drain 读取并丢弃消息直到连接关闭
func (t *Transport) drain(conn *websocket.Conn, onClose func()) {
	defer onClose()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Peers 返回已接入的对端数量
func (t *Transport) Peers() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.peers)
}

// Connected 报告客户端连接是否存在
func (t *Transport) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.client != nil
}

// Shutdown 关闭监听、所有对端和客户端连接，可重复调用
func (t *Transport) Shutdown() {
	t.mu.Lock()
	srv := t.server
	t.server = nil
	t.listener = nil
	peers := make([]*websocket.Conn, 0, len(t.peers))
	for c := range t.peers {
		peers = append(peers, c)
	}
	t.peers = make(map[*websocket.Conn]struct{})
	client := t.client
	t.client = nil
	t.mu.Unlock()

	deadline := time.Now().Add(t.config.ShutdownTimeout)
	closeMsg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutdown")
	for _, c := range append(peers, client) {
		if c == nil {
			continue
		}
		_ = c.WriteControl(websocket.CloseMessage, closeMsg, deadline)
		_ = c.Close()
	}

	if srv != nil {
		ctx, cancel := context.WithDeadline(context.Background(), deadline)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			_ = srv.Close()
		}
		logger.Info("游戏传输已关闭")
	}
}
