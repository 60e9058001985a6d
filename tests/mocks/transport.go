package mocks

import (
	"sync"

	"github.com/dep2p/go-lobby/pkg/interfaces"
)

var _ interfaces.Transport = (*MockTransport)(nil)

// MockTransport 模拟 Transport 接口实现
//
// 未设置 XxxFunc 时 Listen/Connect 返回 true。
type MockTransport struct {
	// 可覆盖的方法
	ListenFunc   func(bindAddress string, port uint16) bool
	ConnectFunc  func(address string, port uint16) bool
	ShutdownFunc func()

	mu sync.Mutex

	// 调用记录
	ListenCalls   []EndpointCall
	ConnectCalls  []EndpointCall
	ShutdownCalls int
}

// EndpointCall 记录 Listen/Connect 调用
type EndpointCall struct {
	Address string
	Port    uint16
}

// NewMockTransport 创建默认成功的 MockTransport
func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

// Listen 开始监听
func (m *MockTransport) Listen(bindAddress string, port uint16) bool {
	m.mu.Lock()
	m.ListenCalls = append(m.ListenCalls, EndpointCall{Address: bindAddress, Port: port})
	m.mu.Unlock()

	if m.ListenFunc != nil {
		return m.ListenFunc(bindAddress, port)
	}
	return true
}

// Connect 连接主机
func (m *MockTransport) Connect(address string, port uint16) bool {
	m.mu.Lock()
	m.ConnectCalls = append(m.ConnectCalls, EndpointCall{Address: address, Port: port})
	m.mu.Unlock()

	if m.ConnectFunc != nil {
		return m.ConnectFunc(address, port)
	}
	return true
}

// Shutdown 关闭传输
func (m *MockTransport) Shutdown() {
	m.mu.Lock()
	m.ShutdownCalls++
	m.mu.Unlock()

	if m.ShutdownFunc != nil {
		m.ShutdownFunc()
	}
}

// Shutdowns 返回 Shutdown 调用次数
func (m *MockTransport) Shutdowns() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ShutdownCalls
}
