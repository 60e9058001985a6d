package lobby

import (
	"errors"

	"github.com/dep2p/go-lobby/internal/lobby/session"
)

// 公共错误定义
var (
	// ────────────────────────────────────────────────────────────────────────
	// 生命周期错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrNotStarted Lobby 未启动
	ErrNotStarted = errors.New("lobby not started")

	// ErrAlreadyStarted Lobby 已启动
	ErrAlreadyStarted = errors.New("lobby already started")

	// ErrClosed Lobby 已关闭
	ErrClosed = errors.New("lobby closed")

	// ────────────────────────────────────────────────────────────────────────
	// 会话错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrInvalidCode 会话码不合法
	ErrInvalidCode = session.ErrInvalidCode

	// ErrInvalidState 当前会话状态不允许该操作
	ErrInvalidState = session.ErrInvalidState

	// ErrTransport 游戏传输失败，具体操作见 *TransportError
	ErrTransport = session.ErrTransport
)

// TransportError 游戏传输失败
type TransportError = session.TransportError
