//go:build !unix

package netutil

// Windows 上 net 包默认已为 UDP 套接字开启 SO_BROADCAST
func setSockopts(_ uintptr, _ bool) error {
	return nil
}
