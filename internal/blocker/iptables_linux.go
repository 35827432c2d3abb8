//go:build linux

package blocker

import (
	"fmt"
	"net"
	"sync"

	"github.com/coreos/go-iptables/iptables"
	ct "github.com/florianl/go-conntrack"
)

const (
	table = "filter"
	chain = "BANHAMMER"
)

// IPTablesBlocker drops traffic from banned addresses via a dedicated
// iptables chain, jumped to from INPUT, and flushes conntrack state for an
// address the moment it's banned.
type IPTablesBlocker struct {
	ipt  *iptables.IPTables
	nfct *ct.Nfct

	mu     sync.Mutex
	banned map[uint32]struct{}
}

// NewIPTablesBlocker creates the BANHAMMER chain (if missing), wires it
// into INPUT, and opens a conntrack handle for ban-time flushing.
func NewIPTablesBlocker() (*IPTablesBlocker, error) {
	ipt, err := iptables.NewWithProtocol(iptables.ProtocolIPv4)
	if err != nil {
		return nil, fmt.Errorf("initializing iptables: %w", err)
	}

	exists, err := ipt.ChainExists(table, chain)
	if err != nil {
		return nil, fmt.Errorf("checking for %s chain: %w", chain, err)
	}
	if !exists {
		if err := ipt.NewChain(table, chain); err != nil {
			return nil, fmt.Errorf("creating %s chain: %w", chain, err)
		}
	}

	if err := ensureJumpRule(ipt); err != nil {
		return nil, err
	}

	nfct, err := ct.Open(&ct.Config{})
	if err != nil {
		return nil, fmt.Errorf("opening conntrack handle: %w", err)
	}

	return &IPTablesBlocker{
		ipt:    ipt,
		nfct:   nfct,
		banned: make(map[uint32]struct{}),
	}, nil
}

func ensureJumpRule(ipt *iptables.IPTables) error {
	exists, err := ipt.Exists(table, "INPUT", "-j", chain)
	if err != nil {
		return fmt.Errorf("checking for INPUT jump rule: %w", err)
	}
	if !exists {
		if err := ipt.Insert(table, "INPUT", 1, "-j", chain); err != nil {
			return fmt.Errorf("inserting INPUT jump rule: %w", err)
		}
	}
	return nil
}

// Ban inserts a DROP rule for addr and flushes its conntrack state.
func (b *IPTablesBlocker) Ban(addr uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, already := b.banned[addr]; already {
		return nil
	}

	ip := dotted(addr)
	if err := b.ipt.AppendUnique(table, chain, "-s", ip, "-j", "DROP"); err != nil {
		return fmt.Errorf("appending drop rule for %s: %w", ip, err)
	}
	b.banned[addr] = struct{}{}

	if err := flushConntrack(b.nfct, addr); err != nil {
		return fmt.Errorf("flushing conntrack for %s: %w", ip, err)
	}
	return nil
}

// Unban removes the DROP rule for addr, if present.
func (b *IPTablesBlocker) Unban(addr uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, present := b.banned[addr]; !present {
		return nil
	}

	ip := dotted(addr)
	if err := b.ipt.Delete(table, chain, "-s", ip, "-j", "DROP"); err != nil {
		return fmt.Errorf("deleting drop rule for %s: %w", ip, err)
	}
	delete(b.banned, addr)
	return nil
}

// Close flushes the chain, removes the jump rule, and releases conntrack.
func (b *IPTablesBlocker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	_ = b.ipt.Delete(table, "INPUT", "-j", chain)
	_ = b.ipt.ClearChain(table, chain)
	_ = b.ipt.DeleteChain(table, chain)
	if b.nfct != nil {
		return b.nfct.Close()
	}
	return nil
}

// flushConntrack deletes every IPv4 conntrack entry whose origin or reply
// source matches addr, so a banned address can't ride an existing
// connection past the new DROP rule.
func flushConntrack(nfct *ct.Nfct, addr uint32) error {
	if nfct == nil {
		return nil
	}

	ip := net.IPv4(byte(addr>>24), byte(addr>>16), byte(addr>>8), byte(addr)).To4()

	filter := ct.FilterAttr{}
	conns, err := nfct.Query(ct.Conntrack, ct.IPv4, filter)
	if err != nil {
		return fmt.Errorf("querying conntrack table: %w", err)
	}

	var firstErr error
	for _, conn := range conns {
		if !connMatchesAddr(conn, ip) {
			continue
		}
		if err := nfct.Delete(ct.Conntrack, ct.IPv4, conn); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func connMatchesAddr(conn ct.Con, ip net.IP) bool {
	if conn.Origin != nil && conn.Origin.Src != nil && conn.Origin.Src.Equal(ip) {
		return true
	}
	if conn.Reply != nil && conn.Reply.Src != nil && conn.Reply.Src.Equal(ip) {
		return true
	}
	return false
}
