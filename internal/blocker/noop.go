package blocker

import "sync"

// Noop records ban/unban calls without touching the system firewall. Used
// in tests and on platforms without iptables/conntrack.
type Noop struct {
	mu     sync.Mutex
	Banned map[uint32]struct{}
}

// NewNoop returns an empty Noop blocker.
func NewNoop() *Noop {
	return &Noop{Banned: make(map[uint32]struct{})}
}

func (n *Noop) Ban(addr uint32) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Banned[addr] = struct{}{}
	return nil
}

func (n *Noop) Unban(addr uint32) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.Banned, addr)
	return nil
}

func (n *Noop) Close() error { return nil }

// IsBanned reports whether addr is currently recorded as banned.
func (n *Noop) IsBanned(addr uint32) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, ok := n.Banned[addr]
	return ok
}
