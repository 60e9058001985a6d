// Package code 生成和校验会话码
//
// 会话码由 31 个字符组成的字母表构成，排除了容易混淆的 0 O 1 I L，
// 便于玩家口头或手写分享。生成的会话码固定 6 位；校验接受 4 到 6 位，
// 兼容手动输入的缩短码。
package code

import (
	"crypto/rand"
	"strings"
)

const (
	// Alphabet 会话码字母表
	Alphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

	// Length 生成的会话码长度
	Length = 6

	// MinLength 校验接受的最短长度
	MinLength = 4

	// MaxLength 校验接受的最长长度
	MaxLength = Length
)

// 256 以内 len(Alphabet) 的最大整数倍，超出部分拒绝采样以保证均匀分布
var maxUnbiased = byte(256 - 256%len(Alphabet))

// Generate 生成一个 6 位会话码
//
// 每一位独立均匀采样。crypto/rand 读取失败时 panic，与标准库
// rand.Text 的处理一致。
func Generate() string {
	out := make([]byte, 0, Length)
	buf := make([]byte, Length*2)

	for len(out) < Length {
		if _, err := rand.Read(buf); err != nil {
			panic("code: crypto/rand unavailable: " + err.Error())
		}
		for _, b := range buf {
			if b >= maxUnbiased {
				continue
			}
			out = append(out, Alphabet[int(b)%len(Alphabet)])
			if len(out) == Length {
				break
			}
		}
	}

	return string(out)
}

// Validate 报告 candidate 是否为合法会话码
//
// 大小写不敏感，长度必须在 [MinLength, MaxLength] 内。
func Validate(candidate string) bool {
	if len(candidate) < MinLength || len(candidate) > MaxLength {
		return false
	}
	for _, r := range strings.ToUpper(candidate) {
		if !strings.ContainsRune(Alphabet, r) {
			return false
		}
	}
	return true
}

// Normalize 去除首尾空白并转为大写
func Normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
