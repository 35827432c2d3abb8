package metrics

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safing/banhammer/internal/cidrset"
)

func TestCIDRInfoHandlerReportsCount(t *testing.T) {
	set := cidrset.New()
	require.NoError(t, set.Load(strings.NewReader("10.0.0.0/8\n192.168.0.0/16")))

	srv := NewServer("127.0.0.1:0", New(), set, nil)
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/cidr/blacklist", nil)
	srv.httpServer.Handler.ServeHTTP(w, r)

	assert.Equal(t, 200, w.Code)
	var info cidrInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, 2, info.Count)
	assert.Nil(t, info.Contains)
}

func TestCIDRInfoHandlerReportsContainment(t *testing.T) {
	set := cidrset.New()
	require.NoError(t, set.Load(strings.NewReader("10.0.0.0/8")))

	srv := NewServer("127.0.0.1:0", New(), nil, set)
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/cidr/exception?addr=10.1.2.3", nil)
	srv.httpServer.Handler.ServeHTTP(w, r)

	assert.Equal(t, 200, w.Code)
	var info cidrInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, 1, info.Count)
	require.NotNil(t, info.Contains)
	assert.True(t, *info.Contains)
}

func TestCIDRInfoHandlerRejectsBadAddr(t *testing.T) {
	srv := NewServer("127.0.0.1:0", New(), cidrset.New(), nil)
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/cidr/blacklist?addr=not-an-ip", nil)
	srv.httpServer.Handler.ServeHTTP(w, r)

	assert.Equal(t, 400, w.Code)
}

func TestCIDRInfoHandlerHandlesNilSet(t *testing.T) {
	srv := NewServer("127.0.0.1:0", New(), nil, nil)
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/cidr/blacklist", nil)
	srv.httpServer.Handler.ServeHTTP(w, r)

	assert.Equal(t, 200, w.Code)
	var info cidrInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, 0, info.Count)
}
