package netutil

import (
	"net"
	"strings"

	"github.com/jackpal/gateway"
	psnet "github.com/shirou/gopsutil/v3/net"
)

// LoopbackIPv4 探测失败时的兜底地址
const LoopbackIPv4 = "127.0.0.1"

// 便于测试替换
var (
	discoverInterface = gateway.DiscoverInterface
	listInterfaces    = psnet.Interfaces
)

// LocalIPv4 尽力返回本机在局域网中的 IPv4 地址
//
// 依次尝试：
//  1. 默认网关所在接口的地址（jackpal/gateway）
//  2. 遍历网络接口，取第一个可广播的私有地址，其次任意可广播地址
//  3. 127.0.0.1
func LocalIPv4() string {
	if ip, err := discoverInterface(); err == nil {
		if ip4 := ip.To4(); ip4 != nil && isAdvertisable(ip4) {
			return ip4.String()
		}
	} else {
		logger.Debug("网关接口探测失败，回退到接口遍历", "error", err)
	}

	if ip := scanInterfaces(); ip != nil {
		return ip.String()
	}

	logger.Warn("未找到局域网 IPv4 地址，使用回环地址")
	return LoopbackIPv4
}

// scanInterfaces 遍历网络接口，私有地址优先
func scanInterfaces() net.IP {
	ifaces, err := listInterfaces()
	if err != nil {
		logger.Debug("枚举网络接口失败", "error", err)
		return nil
	}

	var fallback net.IP
	for _, iface := range ifaces {
		if !hasFlag(iface.Flags, "up") || hasFlag(iface.Flags, "loopback") {
			continue
		}
		if isVirtualBridgeInterface(iface.Name) {
			continue
		}

		for _, addr := range iface.Addrs {
			ip, _, err := net.ParseCIDR(addr.Addr)
			if err != nil {
				ip = net.ParseIP(addr.Addr)
			}
			ip4 := ip.To4()
			if ip4 == nil || !isAdvertisable(ip4) {
				continue
			}
			if ip4.IsPrivate() {
				return ip4
			}
			if fallback == nil {
				fallback = ip4
			}
		}
	}
	return fallback
}

func hasFlag(flags []string, want string) bool {
	for _, f := range flags {
		if strings.EqualFold(f, want) {
			return true
		}
	}
	return false
}

// isAdvertisable 检查 IPv4 地址能否被局域网其他主机访问
//
// 排除回环、链路本地、未指定地址，以及 198.18.0.0/15（VPN/代理虚拟
// 接口常用）和 100.64.0.0/10（CGNAT）。
func isAdvertisable(ip4 net.IP) bool {
	if ip4.IsLoopback() || ip4.IsLinkLocalUnicast() || ip4.IsUnspecified() {
		return false
	}
	if ip4[0] == 198 && (ip4[1] == 18 || ip4[1] == 19) {
		return false
	}
	if ip4[0] == 100 && ip4[1] >= 64 && ip4[1] <= 127 {
		return false
	}
	return true
}

// isVirtualBridgeInterface 检查接口是否为容器或虚拟机网桥
//
// 这些接口的地址通常只对本机可达。
func isVirtualBridgeInterface(name string) bool {
	if name == "docker0" || name == "docker_gwbridge" {
		return true
	}
	for _, prefix := range []string{"br-", "veth", "cni", "flannel", "calico", "weave", "virbr", "lxcbr", "lxdbr"} {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}
