package types

// ============================================================================
//                              SessionState - 会话状态
// ============================================================================

// SessionState 会话协调器状态
type SessionState int

const (
	// StateIdle 空闲（初始状态）
	StateIdle SessionState = iota
	// StateHosting 托管中，正在广播
	StateHosting
	// StateScanning 扫描中
	StateScanning
	// StateFound 已发现主机，正在连接游戏传输
	StateFound
	// StateConnected 已连接
	StateConnected
	// StateTimedOut 扫描超时，可重试
	StateTimedOut
	// StateError 游戏传输失败
	StateError
)

// String 返回状态的字符串表示
func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateHosting:
		return "hosting"
	case StateScanning:
		return "scanning"
	case StateFound:
		return "found"
	case StateConnected:
		return "connected"
	case StateTimedOut:
		return "timed_out"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// ============================================================================
//                              SessionRole - 会话角色
// ============================================================================

// SessionRole 进程当前的会话角色
type SessionRole int

const (
	// RoleNone 无角色
	RoleNone SessionRole = iota
	// RoleHost 主机
	RoleHost
	// RoleClient 客户端
	RoleClient
)

// String 返回角色的字符串表示
func (r SessionRole) String() string {
	switch r {
	case RoleHost:
		return "host"
	case RoleClient:
		return "client"
	default:
		return "none"
	}
}

// ============================================================================
//                              SessionStatus - 会话快照
// ============================================================================

// SessionStatus 会话状态快照
type SessionStatus struct {
	// State 当前状态
	State SessionState
	// Role 当前角色
	Role SessionRole
	// Code 当前会话码
	Code string
	// AttemptID 当前托管/扫描尝试的 ID
	AttemptID string
	// HostAddress 发现的主机地址（客户端）或广播的本机地址（主机）
	HostAddress string
	// HostPort 游戏端口
	HostPort uint16
	// Reason Error 状态的原因
	Reason string
}
