package netutils

import (
	"encoding/binary"
	"fmt"
	"net"
)

// LocalAddresses returns every IPv4 address assigned to a local interface,
// in host byte order, the way the reference whitelists its own interfaces
// so the daemon never bans itself.
func LocalAddresses() ([]uint32, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil, fmt.Errorf("listing interface addresses: %w", err)
	}

	var out []uint32
	for _, addr := range addrs {
		netAddr, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		ip4 := netAddr.IP.To4()
		if ip4 == nil {
			continue
		}
		out = append(out, binary.BigEndian.Uint32(ip4))
	}
	return out, nil
}
