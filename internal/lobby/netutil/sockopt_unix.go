//go:build unix

package netutil

import (
	"fmt"

	"golang.org/x/sys/unix"
)

func setSockopts(fd uintptr, broadcast bool) error {
	if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		return fmt.Errorf("set SO_REUSEADDR: %w", err)
	}
	if broadcast {
		if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1); err != nil {
			return fmt.Errorf("set SO_BROADCAST: %w", err)
		}
	}
	return nil
}
