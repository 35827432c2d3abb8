package addrstats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(seconds float64) time.Time {
	return time.Unix(0, 0).Add(time.Duration(seconds * float64(time.Second)))
}

func TestNewAccountsFirstPacket(t *testing.T) {
	s := New(5000, at(0), DefaultRingSize)
	assert.Equal(t, uint64(1), s.PacketCount())
	assert.Equal(t, 1, s.PortCount())
}

func TestResetReinitializesRecord(t *testing.T) {
	s := New(5000, at(0), DefaultRingSize)
	s.SeePort(5001, at(1))
	s.RecordPacket(at(1))
	require.Equal(t, uint64(2), s.PacketCount())
	require.Equal(t, 2, s.PortCount())

	s.Reset(6000, at(100))
	assert.Equal(t, uint64(1), s.PacketCount())
	assert.Equal(t, 1, s.PortCount())
	assert.False(t, s.TimedOut(at(100), Timeout))
}

func TestHitLimitNeverFiresBeforeRingFills(t *testing.T) {
	s := New(0, at(0), DefaultRingSize)
	for i := 1; i < DefaultRingSize; i++ {
		s.SeePort(0, at(float64(i)*0.01))
		s.RecordPacket(at(float64(i) * 0.01))
		assert.False(t, s.HitLimit(DefaultMaxPacketFrame), "packet %d should not hit limit", i+1)
	}
	// Exactly DefaultRingSize packets recorded; still must not fire.
	assert.Equal(t, uint64(DefaultRingSize), s.PacketCount())
	assert.False(t, s.HitLimit(DefaultMaxPacketFrame))
}

func TestHitLimitFiresOnFirstPostRingFillPacketWithinFrame(t *testing.T) {
	s := New(0, at(0), DefaultRingSize)
	// Fill the ring with DefaultRingSize-1 more packets, 10ms apart.
	for i := 1; i < DefaultRingSize; i++ {
		s.SeePort(0, at(float64(i)*0.01))
		s.RecordPacket(at(float64(i) * 0.01))
	}
	// One more packet: this is the DefaultRingSize+1th, i.e. packetCount
	// becomes DefaultRingSize+1 (81), strictly greater than DefaultRingSize
	// (80).
	s.SeePort(0, at(0.81))
	s.RecordPacket(at(0.81))
	assert.Equal(t, uint64(DefaultRingSize+1), s.PacketCount())
	assert.True(t, s.HitLimit(DefaultMaxPacketFrame))
}

func TestHitLimitDoesNotFireForSlowTraffic(t *testing.T) {
	s := New(0, at(0), DefaultRingSize)
	now := at(0)
	for i := 1; i <= 200; i++ {
		now = now.Add(2 * time.Second)
		s.SeePort(0, now)
		s.RecordPacket(now)
		assert.False(t, s.HitLimit(DefaultMaxPacketFrame), "packet %d at 2s intervals should never hit limit", i+1)
	}
}

func TestHitLimitHonorsCustomRingSizeAndFrame(t *testing.T) {
	s := New(0, at(0), 4)
	for i := 1; i < 4; i++ {
		s.SeePort(0, at(float64(i)*0.01))
		s.RecordPacket(at(float64(i) * 0.01))
		assert.False(t, s.HitLimit(500*time.Millisecond))
	}
	// 5th packet, still inside a 500ms custom frame: fires with the smaller
	// ring even though it never would have with DefaultRingSize.
	s.SeePort(0, at(0.05))
	s.RecordPacket(at(0.05))
	assert.True(t, s.HitLimit(500*time.Millisecond))
}

func TestRemoveStalePorts(t *testing.T) {
	s := New(5000, at(0), DefaultRingSize)
	s.SeePort(5001, at(10))
	s.SeePort(5002, at(70))
	assert.Equal(t, 3, s.PortCount())

	s.RemoveStalePorts(at(70), Timeout)
	// Port 5000 was last seen at t=0; 70-0=70 > Timeout(60) so it's stale.
	// Port 5001 was seen at t=10; 70-10=60, not strictly greater than 60.
	assert.Equal(t, 2, s.PortCount())
}

func TestRemoveStalePortsHonorsCustomTimeout(t *testing.T) {
	s := New(5000, at(0), DefaultRingSize)
	s.SeePort(5001, at(10))
	assert.Equal(t, 2, s.PortCount())

	s.RemoveStalePorts(at(15), 5*time.Second)
	// With a 5s timeout port 5000 (15s old) is stale, unlike under the
	// default 60s timeout; port 5001 is exactly 5s old, not strictly older.
	assert.Equal(t, 1, s.PortCount())
}

func TestTimedOutClampsNegativeClockDrift(t *testing.T) {
	s := New(5000, at(100), DefaultRingSize)
	// Clock steps backward relative to the last recorded packet.
	assert.False(t, s.TimedOut(at(50), Timeout))
}

func TestTimedOutAfterTimeout(t *testing.T) {
	s := New(5000, at(0), DefaultRingSize)
	assert.False(t, s.TimedOut(at(60), Timeout))
	assert.True(t, s.TimedOut(at(60).Add(time.Nanosecond), Timeout))
}
