package scanner

import "errors"

// 预定义错误
var (
	// ErrAlreadyActive 已有扫描在进行
	ErrAlreadyActive = errors.New("scanner: already active")

	// ErrInvalidConfig 无效配置
	ErrInvalidConfig = errors.New("scanner: invalid config")

	// ErrEmptyCode 目标会话码为空
	ErrEmptyCode = errors.New("scanner: empty target code")

	// ErrNilCallback 回调为 nil
	ErrNilCallback = errors.New("scanner: nil callback")

	// ErrNilDispatcher Dispatcher 为 nil
	ErrNilDispatcher = errors.New("scanner: dispatcher is nil")
)
