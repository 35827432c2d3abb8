//go:build !linux

package blocker

import "errors"

// NewIPTablesBlocker is only available on Linux; other platforms should
// fall back to Noop.
func NewIPTablesBlocker() (Blocker, error) {
	return nil, errors.New("blocker: iptables blocking is only supported on linux")
}
