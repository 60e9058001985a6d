// Package lobby 提供局域网会话发现与建立
//
// 主机生成一个短会话码并每秒在局域网上广播 "CODE|IP|PORT"；
// 客户端输入会话码后监听广播，找到匹配的主机即交给游戏传输连接。
//
// # 快速开始
//
//	import "github.com/dep2p/go-lobby"
//
//	l, err := lobby.New(lobby.WithConfigFile("lobby.yaml"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := l.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer l.Stop(context.Background())
//
//	code, _ := l.Host()          // 主机
//	// 或 l.Join("XY7K2M")        // 客户端
//
//	for range time.Tick(50 * time.Millisecond) {
//	    l.Tick()                  // 在消费者 goroutine 上执行回调
//	}
//
// # 线程模型
//
// 广播器和扫描器各自在一个后台 goroutine 中做阻塞套接字 I/O，结果只通过
// Dispatcher 队列回到消费者。Host/Join/Retry/Leave/Tick 应在同一个
// 消费者 goroutine 上调用；Status/State 可以在任意 goroutine 读取。
//
// # 文件组织
//
//	lobby/
//	├── doc.go       # 包文档
//	├── version.go   # 版本信息
//	├── lobby.go     # Lobby 门面：生命周期与会话操作
//	├── options.go   # 函数式选项
//	├── errors.go    # 公共错误
//	└── fx.go        # Fx 应用组装
package lobby
