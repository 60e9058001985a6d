// Package interfaces 定义 go-lobby 公共接口
//
// 本文件定义 Transport 接口，即会话协调器消费的游戏传输。
package interfaces

// Transport 游戏传输
//
// 发现子系统只负责得到主机地址，真正承载游戏流量的是外部传输。
// 协调器在托管时调用 Listen，在发现主机后调用 Connect。
// 返回 false 表示传输拒绝或失败。
type Transport interface {
	// Listen 在 bindAddress:port 上开始监听
	Listen(bindAddress string, port uint16) bool

	// Connect 连接到 address:port
	Connect(address string, port uint16) bool

	// Shutdown 关闭监听和所有连接
	Shutdown()
}
