package cidrset

import (
	"net"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ip4(a, b, c, d byte) uint32 {
	ip := net.IPv4(a, b, c, d).To4()
	return uint32(ip[0])<<24 | uint32(ip[1])<<16 | uint32(ip[2])<<8 | uint32(ip[3])
}

func TestLoadAndContains(t *testing.T) {
	s := New()
	err := s.Load(strings.NewReader(`
# comment line
10.0.0.0/8
203.0.113.0/24

192.168.1.128/25
`))
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())

	assert.True(t, s.Contains(ip4(10, 1, 2, 3)))
	assert.True(t, s.Contains(ip4(203, 0, 113, 200)))
	assert.True(t, s.Contains(ip4(192, 168, 1, 200)))
	assert.False(t, s.Contains(ip4(192, 168, 1, 100)))
	assert.False(t, s.Contains(ip4(8, 8, 8, 8)))
}

func TestLoadMalformedInput(t *testing.T) {
	s := New()
	err := s.Load(strings.NewReader("10.0.0.0/8\nnot-a-cidr\n"))
	require.Error(t, err)

	var malformed *MalformedInput
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, 2, malformed.Line)
}

func TestMalformedPrefixLength(t *testing.T) {
	s := New()
	err := s.Load(strings.NewReader("10.0.0.0/33"))
	require.Error(t, err)
}

func TestEmptySetNeverMatches(t *testing.T) {
	s := New()
	assert.False(t, s.Contains(ip4(1, 2, 3, 4)))
}

func TestNilSetNeverMatches(t *testing.T) {
	var s *Set
	assert.False(t, s.Contains(ip4(1, 2, 3, 4)))
}

func TestZeroPrefixMatchesEverything(t *testing.T) {
	s := New()
	require.NoError(t, s.Load(strings.NewReader("0.0.0.0/0")))
	assert.True(t, s.Contains(ip4(1, 2, 3, 4)))
	assert.True(t, s.Contains(ip4(255, 255, 255, 255)))
}

func TestReloadReplacesContents(t *testing.T) {
	s := New()
	require.NoError(t, s.Load(strings.NewReader("10.0.0.0/8")))
	assert.True(t, s.Contains(ip4(10, 0, 0, 1)))

	require.NoError(t, s.Load(strings.NewReader("192.168.0.0/16")))
	assert.False(t, s.Contains(ip4(10, 0, 0, 1)))
	assert.True(t, s.Contains(ip4(192, 168, 0, 1)))
}

func TestMembershipEquivalenceWithNaiveScan(t *testing.T) {
	type prefix struct {
		network uint32
		bits    int
	}
	prefixes := []prefix{
		{ip4(10, 0, 0, 0), 8},
		{ip4(172, 16, 0, 0), 12},
		{ip4(192, 168, 0, 0), 16},
		{ip4(198, 51, 100, 0), 24},
		{ip4(203, 0, 113, 0), 24},
	}

	lines := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		ip := net.IPv4(byte(p.network>>24), byte(p.network>>16), byte(p.network>>8), byte(p.network))
		lines = append(lines, ip.String()+"/"+strconv.Itoa(p.bits))
	}

	s := New()
	require.NoError(t, s.Load(strings.NewReader(strings.Join(lines, "\n"))))

	naive := func(addr uint32) bool {
		for _, p := range prefixes {
			var mask uint32
			if p.bits > 0 {
				mask = ^uint32(0) << (32 - p.bits)
			}
			if addr&mask == p.network&mask {
				return true
			}
		}
		return false
	}

	candidates := []uint32{
		ip4(10, 5, 5, 5),
		ip4(172, 20, 1, 1),
		ip4(172, 32, 1, 1),
		ip4(192, 168, 50, 50),
		ip4(198, 51, 100, 7),
		ip4(203, 0, 113, 99),
		ip4(8, 8, 4, 4),
		ip4(1, 1, 1, 1),
	}
	for _, c := range candidates {
		assert.Equal(t, naive(c), s.Contains(c), "mismatch for %d", c)
	}
}
