// Package protocol 定义局域网发现数据包的线格式
//
// 数据包为 UTF-8 文本，三个字段以 '|' 连接，无结尾分隔符：
//
//	AB3C9Q|192.168.1.42|7777
package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// DefaultDiscoveryPort 固定的发现端口，与游戏端口不同
	DefaultDiscoveryPort = 7778

	// Separator 字段分隔符
	Separator = "|"

	// MaxPacketSize 接收缓冲区大小，远大于合法数据包
	MaxPacketSize = 1024
)

// ErrMalformedPacket 数据包格式错误
var ErrMalformedPacket = errors.New("protocol: malformed discovery packet")

// Packet 发现数据包
type Packet struct {
	// Code 会话码
	Code string
	// HostAddress 主机 IPv4 地址（点分十进制）
	HostAddress string
	// HostPort 游戏端口
	HostPort uint16
}

// Encode 序列化为线格式
func (p Packet) Encode() []byte {
	return []byte(p.String())
}

// String 返回线格式文本
func (p Packet) String() string {
	return p.Code + Separator + p.HostAddress + Separator + strconv.FormatUint(uint64(p.HostPort), 10)
}

// Decode 解析线格式
//
// 分割后必须恰好三个字段，端口必须是 [0, 65535] 内的无符号整数。
// 其余字段不做进一步校验。
func Decode(data []byte) (Packet, error) {
	fields := strings.Split(string(data), Separator)
	if len(fields) != 3 {
		return Packet{}, fmt.Errorf("%w: want 3 fields, got %d", ErrMalformedPacket, len(fields))
	}

	port, err := strconv.ParseUint(fields[2], 10, 16)
	if err != nil {
		return Packet{}, fmt.Errorf("%w: bad port %q", ErrMalformedPacket, fields[2])
	}

	return Packet{
		Code:        fields[0],
		HostAddress: fields[1],
		HostPort:    uint16(port),
	}, nil
}

// Matches 报告数据包会话码是否等于 code（大小写不敏感）
func (p Packet) Matches(code string) bool {
	return strings.EqualFold(p.Code, code)
}
