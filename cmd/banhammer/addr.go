package main

import (
	"encoding/binary"
	"fmt"
	"net"
)

func parseDottedAddr(s string) (uint32, error) {
	ip := net.ParseIP(s)
	if ip == nil {
		return 0, fmt.Errorf("%q is not a valid IPv4 address", s)
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return 0, fmt.Errorf("%q is not an IPv4 address", s)
	}
	return binary.BigEndian.Uint32(ip4), nil
}
