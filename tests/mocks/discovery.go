package mocks

import (
	"github.com/dep2p/go-lobby/internal/lobby/scanner"
)

// MockAdvertiser 模拟会话广播
type MockAdvertiser struct {
	// 可覆盖的方法
	StartFunc func(code, hostAddress string, hostPort uint16) error
	StopFunc  func() error

	// Active 是否正在广播
	Active bool

	// 调用记录
	StartCalls []AdvertiseCall
	StopCalls  int
}

// AdvertiseCall 记录 Start 调用
type AdvertiseCall struct {
	Code        string
	HostAddress string
	HostPort    uint16
}

// Start 开始广播
func (m *MockAdvertiser) Start(code, hostAddress string, hostPort uint16) error {
	m.StartCalls = append(m.StartCalls, AdvertiseCall{Code: code, HostAddress: hostAddress, HostPort: hostPort})
	if m.StartFunc != nil {
		if err := m.StartFunc(code, hostAddress, hostPort); err != nil {
			return err
		}
	}
	m.Active = true
	return nil
}

// Stop 停止广播
func (m *MockAdvertiser) Stop() error {
	m.StopCalls++
	m.Active = false
	if m.StopFunc != nil {
		return m.StopFunc()
	}
	return nil
}

// MockFinder 模拟会话扫描
//
// Start 只记录回调，测试通过 Found/Timeout 手动触发结果。
type MockFinder struct {
	// 可覆盖的方法
	StartFunc func(targetCode string) error
	StopFunc  func() error

	// Active 是否正在扫描
	Active bool

	// 最近一次 Start 的参数
	Target    string
	onFound   scanner.FoundFunc
	onTimeout scanner.TimeoutFunc

	// 调用记录
	StartCalls int
	StopCalls  int
}

// Start 开始扫描
func (m *MockFinder) Start(targetCode string, onFound scanner.FoundFunc, onTimeout scanner.TimeoutFunc) error {
	m.StartCalls++
	if m.StartFunc != nil {
		if err := m.StartFunc(targetCode); err != nil {
			return err
		}
	}
	m.Active = true
	m.Target = targetCode
	m.onFound = onFound
	m.onTimeout = onTimeout
	return nil
}

// Stop 停止扫描
func (m *MockFinder) Stop() error {
	m.StopCalls++
	m.Active = false
	if m.StopFunc != nil {
		return m.StopFunc()
	}
	return nil
}

// Callbacks 返回最近一次 Start 收到的回调，用于模拟过期结果
func (m *MockFinder) Callbacks() (scanner.FoundFunc, scanner.TimeoutFunc) {
	return m.onFound, m.onTimeout
}

// Found 模拟匹配
func (m *MockFinder) Found(ip string, port uint16) {
	m.Active = false
	m.onFound(ip, port)
}

// Timeout 模拟超时
func (m *MockFinder) Timeout() {
	m.Active = false
	m.onTimeout()
}
