// Package netutils classifies IPv4 addresses into the special ranges the
// firewall refuses to track (private, loopback, documentation, multicast,
// and similar reserved blocks), mirroring the classification style of a
// full netutils package but scoped to exactly the table the firewall needs.
package netutils

// IsSpecial reports whether addr (host byte order IPv4) falls into one of
// the blocks the firewall excludes from all accounting, per the first-octet
// dispatch table:
//
//	0        any                 "this network"
//	10       any                 RFC1918 private
//	100      64-127 (2nd octet)  CGNAT
//	127      any                 loopback
//	169      254 (2nd octet)     link-local
//	172      16-31 (2nd octet)   RFC1918 private
//	192      0.0/24, 0.2/24, 88.99/24, 168/16
//	198      18-19/15, 51.100/24
//	203      0.113/24            TEST-NET-3
//	>=224    any                 multicast/reserved
func IsSpecial(addr uint32) bool {
	b1 := byte(addr >> 24)
	b2 := byte(addr >> 16)
	b3 := byte(addr >> 8)

	switch b1 {
	case 0, 10, 127:
		return true
	case 100:
		return b2 >= 64 && b2 <= 127
	case 169:
		return b2 == 254
	case 172:
		// RFC1918 is 172.16.0.0/12, i.e. second octet 16-31 inclusive.
		return b2 >= 16 && b2 <= 31
	case 192:
		switch {
		case b2 == 0 && (b3 == 0 || b3 == 2):
			return true
		case b2 == 88 && b3 == 99:
			return true
		case b2 == 168:
			return true
		}
		return false
	case 198:
		switch {
		case b2 >= 18 && b2 <= 19:
			return true
		case b2 == 51 && b3 == 100:
			return true
		}
		return false
	case 203:
		return b2 == 0 && b3 == 113
	}

	return b1 >= 224
}
