package session

import (
	"errors"
	"fmt"
)

// 预定义错误
var (
	// ErrInvalidCode 会话码不合法
	ErrInvalidCode = errors.New("session: invalid code")

	// ErrInvalidState 当前状态不允许该操作
	ErrInvalidState = errors.New("session: operation not allowed in current state")

	// ErrInvalidConfig 无效配置
	ErrInvalidConfig = errors.New("session: invalid config")

	// ErrNilTransport 未提供游戏传输
	ErrNilTransport = errors.New("session: transport is nil")

	// ErrNilDiscovery 未提供广播器或扫描器
	ErrNilDiscovery = errors.New("session: broadcaster or scanner is nil")

	// ErrTransport 游戏传输拒绝了请求
	ErrTransport = errors.New("session: transport failure")
)

// 传输操作名
const (
	OpListen  = "listen"
	OpConnect = "connect"
)

// TransportError 游戏传输失败
type TransportError struct {
	Op      string // 失败的传输操作
	Address string // 目标地址
	Port    uint16 // 目标端口
}

// Error 实现 error 接口
func (e *TransportError) Error() string {
	return fmt.Sprintf("session: transport %s %s:%d refused", e.Op, e.Address, e.Port)
}

// Unwrap 支持 errors.Is(err, ErrTransport)
func (e *TransportError) Unwrap() error {
	return ErrTransport
}

// stateError 构造状态不匹配错误
func stateError(op string, state fmt.Stringer) error {
	return fmt.Errorf("%w: %s in state %s", ErrInvalidState, op, state)
}
