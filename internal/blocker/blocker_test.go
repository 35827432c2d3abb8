package blocker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDotted(t *testing.T) {
	assert.Equal(t, "1.2.3.4", dotted(0x01020304))
	assert.Equal(t, "255.255.255.255", dotted(0xFFFFFFFF))
	assert.Equal(t, "0.0.0.0", dotted(0))
}

func TestNoopBanUnban(t *testing.T) {
	b := NewNoop()
	addr := uint32(0x01020304)

	assert.False(t, b.IsBanned(addr))
	assert.NoError(t, b.Ban(addr))
	assert.True(t, b.IsBanned(addr))
	assert.NoError(t, b.Unban(addr))
	assert.False(t, b.IsBanned(addr))
	assert.NoError(t, b.Close())
}
