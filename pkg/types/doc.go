// Package types 定义 go-lobby 的公共基础类型
//
// 会话相关：
//   - SessionState: 会话协调器状态
//   - SessionRole: 主机/客户端角色
//   - SessionStatus: 会话快照
package types
