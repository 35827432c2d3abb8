// Package bantable implements the firewall's ban table: a simple mapping
// from address to ban expiry, with no operations beyond insertion, lookup,
// removal, and iteration during purge.
package bantable

import "time"

// Info holds the expiry of a single address's ban.
type Info struct {
	expiry time.Time
}

// New creates ban info that expires duration after now.
func New(now time.Time, duration time.Duration) Info {
	return Info{expiry: now.Add(duration)}
}

// Expiry returns the time at which the ban lapses.
func (i Info) Expiry() time.Time {
	return i.expiry
}

// TimedOut reports whether now is at or past the ban's expiry.
func (i Info) TimedOut(now time.Time) bool {
	return !now.Before(i.expiry)
}

// Table is a mapping from address to its ban info.
type Table struct {
	bans map[uint32]Info
}

// NewTable returns an empty ban table.
func NewTable() *Table {
	return &Table{bans: make(map[uint32]Info)}
}

// Get returns the ban info for addr, if any.
func (t *Table) Get(addr uint32) (Info, bool) {
	info, ok := t.bans[addr]
	return info, ok
}

// Insert records a ban for addr, expiring duration after now.
func (t *Table) Insert(addr uint32, now time.Time, duration time.Duration) Info {
	info := New(now, duration)
	t.bans[addr] = info
	return info
}

// Remove deletes addr's ban, if present.
func (t *Table) Remove(addr uint32) {
	delete(t.bans, addr)
}

// Len returns the number of currently banned addresses.
func (t *Table) Len() int {
	return len(t.bans)
}

// Range calls fn for every banned address. fn may Remove the address it is
// called with; an address inserted during Range may or may not be visited.
func (t *Table) Range(fn func(addr uint32, info Info)) {
	for addr, info := range t.bans {
		fn(addr, info)
	}
}

// Addresses returns a snapshot slice of every currently banned address.
func (t *Table) Addresses() []uint32 {
	addrs := make([]uint32, 0, len(t.bans))
	for addr := range t.bans {
		addrs = append(addrs, addr)
	}
	return addrs
}
