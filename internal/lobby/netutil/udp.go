// Package netutil 提供发现子系统使用的 UDP 套接字和本机地址探测
package netutil

import (
	"context"
	"errors"
	"net"
	"os"
	"syscall"

	"github.com/dep2p/go-lobby/pkg/lib/log"
)

var logger = log.Logger("lobby/netutil")

// ListenUDP 打开 IPv4 UDP 套接字
//
// 套接字总是设置 SO_REUSEADDR，允许快速重新绑定发现端口；broadcast 为
// true 时额外设置 SO_BROADCAST。
func ListenUDP(addr string, broadcast bool) (net.PacketConn, error) {
	lc := net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			var opErr error
			err := c.Control(func(fd uintptr) {
				opErr = setSockopts(fd, broadcast)
			})
			if err != nil {
				return err
			}
			return opErr
		},
	}
	return lc.ListenPacket(context.Background(), "udp4", addr)
}

// IsClosed 报告 err 是否由套接字关闭引起
func IsClosed(err error) bool {
	return errors.Is(err, net.ErrClosed)
}

// IsTimeout 报告 err 是否为读写截止时间到期
func IsTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
