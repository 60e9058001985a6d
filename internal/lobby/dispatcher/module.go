package dispatcher

import "go.uber.org/fx"

// Module 返回 Fx 模块
//
// Dispatcher 在整个应用生命周期内唯一，由 Fx 单例保证。
var Module = fx.Module("lobby/dispatcher",
	fx.Provide(New),
)
