// Package log 提供 go-lobby 统一日志接口
//
// 基于 log/slog 封装。每个组件通过 Logger("lobby/scanner") 获取一个懒加载
// logger，日志调用时才读取当前默认 handler，因此 CLI 可以在启动后重定向输出。
//
// 组件级别过滤由 Config.SubsystemLevels 控制，见 env.go。
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
)

// 日志级别常量
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// active 当前生效的日志配置
var active atomic.Pointer[Config]

// Setup 按配置重建默认 logger
func Setup(w io.Writer, cfg *Config) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if w == nil {
		w = os.Stderr
	}

	opts := &slog.HandlerOptions{
		// handler 放行所有级别，组件级别在 LazyLogger 中过滤
		Level:     slog.LevelDebug,
		AddSource: cfg.AddSource,
	}

	var h slog.Handler
	if cfg.Format == FormatJSON {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}

	active.Store(cfg)
	slog.SetDefault(slog.New(h))
}

// SetOutputWithLevel 设置输出目标和默认级别
//
// 示例：
//
//	file, _ := os.OpenFile("lobby.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
//	log.SetOutputWithLevel(file, slog.LevelDebug)
func SetOutputWithLevel(w io.Writer, level slog.Level) {
	cfg := DefaultConfig()
	if cur := active.Load(); cur != nil {
		c := *cur
		cfg = &c
	}
	cfg.DefaultLevel = level
	Setup(w, cfg)
}

// Default 返回默认 logger
func Default() *slog.Logger {
	return slog.Default()
}

// ============================================================================
//                              LazyLogger
// ============================================================================

// LazyLogger 懒加载 logger
//
//	var logger = log.Logger("lobby/scanner")
//	logger.Debug("丢弃畸形数据包", "from", addr)
type LazyLogger struct {
	component string
}

// Logger 返回带组件名的 LazyLogger
func Logger(component string) *LazyLogger {
	return &LazyLogger{component: component}
}

// Component 返回组件名
func (l *LazyLogger) Component() string {
	return l.component
}

// Enabled 报告该组件是否输出指定级别
func (l *LazyLogger) Enabled(level slog.Level) bool {
	cfg := active.Load()
	if cfg == nil {
		return level >= slog.LevelInfo
	}
	return level >= cfg.LevelForSubsystem(l.component)
}

func (l *LazyLogger) log(ctx context.Context, level slog.Level, msg string, args ...any) {
	if !l.Enabled(level) {
		return
	}
	slog.Default().With("component", l.component).Log(ctx, level, msg, args...)
}

// Debug 输出 Debug 级别日志
func (l *LazyLogger) Debug(msg string, args ...any) {
	l.log(context.Background(), slog.LevelDebug, msg, args...)
}

// Info 输出 Info 级别日志
func (l *LazyLogger) Info(msg string, args ...any) {
	l.log(context.Background(), slog.LevelInfo, msg, args...)
}

// Warn 输出 Warn 级别日志
func (l *LazyLogger) Warn(msg string, args ...any) {
	l.log(context.Background(), slog.LevelWarn, msg, args...)
}

// Error 输出 Error 级别日志
func (l *LazyLogger) Error(msg string, args ...any) {
	l.log(context.Background(), slog.LevelError, msg, args...)
}

// InfoContext 带 context 的 Info 日志
func (l *LazyLogger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelInfo, msg, args...)
}

// WarnContext 带 context 的 Warn 日志
func (l *LazyLogger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelWarn, msg, args...)
}

// TruncateID 安全截取 ID 用于日志显示
func TruncateID(id string, maxLen int) string {
	if len(id) <= maxLen {
		return id
	}
	return id[:maxLen]
}
