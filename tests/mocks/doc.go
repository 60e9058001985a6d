// Package mocks 提供统一的测试 Mock 实现
//
// # 传输 Mock
//
//   - MockTransport: 模拟 interfaces.Transport，记录 Listen/Connect/Shutdown
//
// # 发现 Mock
//
//   - MockAdvertiser: 模拟广播器
//   - MockFinder: 模拟扫描器，测试手动触发 Found/Timeout
//
// # 设计原则
//
// 1. 函数式注入: 每个 Mock 都支持通过 XxxFunc 字段注入自定义行为
// 2. 调用记录: 关键 Mock 记录调用历史，便于验证测试行为
//
// # 使用示例
//
//	tr := mocks.NewMockTransport()
//	tr.ConnectFunc = func(string, uint16) bool { return false }
//	coord, _ := session.New(nil, &mocks.MockAdvertiser{}, &mocks.MockFinder{}, tr)
package mocks
