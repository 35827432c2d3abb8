// Package query implements the loopback verification service the original
// HaxWall exposes on UDP port 1337 (original_source/HaxWall/HaxWall.cpp):
// a front end such as the game server sends the 4-byte big-endian address
// it wants to check and gets back a single byte answering whether the
// firewall currently considers that address active.
package query

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"github.com/safing/banhammer/internal/firewall"
)

// DefaultAddress is the loopback address the original binds, matching
// HaxWall.cpp's VERIFICATION_PORT.
const DefaultAddress = "127.0.0.1:1337"

// Server answers is-active queries over UDP.
type Server struct {
	conn   *net.UDPConn
	fw     *firewall.Firewall
	logger *slog.Logger
}

// Listen binds addr and returns a Server ready to Serve.
func Listen(addr string, fw *firewall.Firewall, logger *slog.Logger) (*Server, error) {
	udpAddr, err := net.ResolveUDPAddr("udp4", addr)
	if err != nil {
		return nil, fmt.Errorf("query: resolving %s: %w", addr, err)
	}
	conn, err := net.ListenUDP("udp4", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("query: binding %s: %w", addr, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{conn: conn, fw: fw, logger: logger}, nil
}

// Serve reads query packets until Close is called. Each query is a 4-byte
// big-endian address; a well-formed query gets a single-byte reply, 1 if
// Firewall.Query reports the address active, 0 otherwise. Malformed
// packets (wrong length) are silently dropped, matching the original.
func (s *Server) Serve() error {
	// One spare byte, so an oversized datagram reads as n > 4 rather than
	// being truncated to a seemingly well-formed 4-byte query.
	buf := make([]byte, 5)
	for {
		n, raddr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		if n != 4 {
			continue
		}

		addr := binary.BigEndian.Uint32(buf)
		reply := byte(0)
		if s.fw.Query(addr) {
			reply = 1
		}

		if _, err := s.conn.WriteToUDP([]byte{reply}, raddr); err != nil {
			s.logger.Warn("query: writing reply failed", "error", err)
		}
	}
}

// Close releases the listening socket, causing a blocked Serve call to
// return nil.
func (s *Server) Close() error {
	return s.conn.Close()
}
