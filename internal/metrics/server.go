package metrics

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/safing/banhammer/internal/cidrset"
)

// Server is the small HTTP admin API: a Prometheus scrape endpoint, a
// liveness probe, and read-only introspection of the loaded CIDR lists,
// routed with gorilla/mux the way the teacher's own base/api and
// Go2NetSpectra's query API do.
type Server struct {
	httpServer *http.Server
}

// NewServer builds the admin HTTP server bound to addr, serving metrics
// from set and introspection of the blacklist/exception CIDR sets. Either
// set may be nil, meaning "no such list configured".
func NewServer(addr string, set *Set, blacklist, exception *cidrset.Set) *Server {
	router := mux.NewRouter()

	router.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		set.WritePrometheus(w)
	}).Methods(http.MethodGet)

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	router.HandleFunc("/cidr/blacklist", cidrInfoHandler(blacklist)).Methods(http.MethodGet)
	router.HandleFunc("/cidr/exception", cidrInfoHandler(exception)).Methods(http.MethodGet)

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// cidrInfo is the read-only snapshot an operator gets back from
// /cidr/blacklist and /cidr/exception.
type cidrInfo struct {
	Count    int   `json:"count"`
	Contains *bool `json:"contains,omitempty"`
}

// cidrInfoHandler reports how many prefixes set holds and, given an ?addr=
// query parameter, whether that address is covered by it. set may be nil.
func cidrInfoHandler(set *cidrset.Set) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info := cidrInfo{Count: set.Len()}

		if q := r.URL.Query().Get("addr"); q != "" {
			addr, ok := parseDottedAddr(q)
			if !ok {
				http.Error(w, "invalid addr query parameter", http.StatusBadRequest)
				return
			}
			contains := set.Contains(addr)
			info.Contains = &contains
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(info)
	}
}

// parseDottedAddr parses a dotted-quad IPv4 address into its host-byte-order
// 32-bit representation.
func parseDottedAddr(s string) (uint32, bool) {
	ip := net.ParseIP(s)
	if ip == nil {
		return 0, false
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return 0, false
	}
	return binary.BigEndian.Uint32(ip4), true
}

// ListenAndServe blocks serving the admin API until Shutdown is called.
func (s *Server) ListenAndServe() error {
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the admin API.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
