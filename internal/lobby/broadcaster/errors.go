package broadcaster

import "errors"

// 预定义错误
var (
	// ErrAlreadyActive 已在广播
	ErrAlreadyActive = errors.New("broadcaster: already active")

	// ErrInvalidConfig 无效配置
	ErrInvalidConfig = errors.New("broadcaster: invalid config")

	// ErrInvalidField 字段包含分隔符或为空，无法组成数据包
	ErrInvalidField = errors.New("broadcaster: invalid packet field")
)
