package audit

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safing/banhammer/internal/firewall"
)

func TestRecorderWritesToTrailAndLog(t *testing.T) {
	dir := t.TempDir()
	trail, err := Open(filepath.Join(dir, "audit.db"))
	require.NoError(t, err)
	defer trail.Close()

	logPath := filepath.Join(dir, "events.log")
	evLog := NewEventLog(logPath, 1, 1, 1)
	defer evLog.Close()

	fixedNow := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	rec := &Recorder{Trail: trail, Log: evLog, Now: func() time.Time { return fixedNow }}

	rec.Event(firewall.ReasonFlood, 0x01020304)
	require.NoError(t, evLog.Close())

	n, err := trail.CountByAddress("1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	contents, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(contents), "Flood: 1.2.3.4")
	assert.Contains(t, string(contents), "2026-03-04 05:06:07")
}

func TestVerdictForReason(t *testing.T) {
	assert.Equal(t, "ban", verdictForReason(firewall.ReasonFlood))
	assert.Equal(t, "ban", verdictForReason(firewall.ReasonMultiport))
	assert.Equal(t, "ban", verdictForReason(firewall.ReasonBlacklist))
	assert.Equal(t, "unban", verdictForReason(firewall.ReasonUnban))
	assert.Equal(t, "whitelist", verdictForReason(firewall.ReasonWhitelist))
	assert.Equal(t, "observe", verdictForReason(firewall.ReasonFirstPacket))
}
