// Package capture is the packet-capture front end: promiscuous-mode live
// capture or offline pcap replay via gopacket/pcap, plus the coarse
// pre-filter that decides which UDP datagrams are worth handing to the
// firewall core at all.
package capture

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
)

// Packet is the (source address, source port, destination port) tuple the
// front end extracts from a UDP datagram; the firewall core only needs the
// first two, but the destination port is kept around for the pre-filter
// and for audit/debug logging.
type Packet struct {
	SrcAddr uint32
	SrcPort uint16
	DstPort uint16
	Seen    time.Time
}

// Source produces a stream of raw decoded packets. Both the live capture
// and the offline replay implementations satisfy it.
type Source interface {
	Packets() <-chan Packet
	Close() error
}

const (
	snapshotLength int32 = 1600
	promiscuous          = true
)

// liveSource wraps a live pcap.Handle bound to a network interface.
type liveSource struct {
	handle *pcap.Handle
	out    chan Packet
	done   chan struct{}
}

// OpenLive starts promiscuous-mode capture on the named interface.
func OpenLive(ifaceName string) (Source, error) {
	handle, err := pcap.OpenLive(ifaceName, snapshotLength, promiscuous, pcap.BlockForever)
	if err != nil {
		return nil, fmt.Errorf("opening interface %s for capture: %w", ifaceName, err)
	}
	s := &liveSource{
		handle: handle,
		out:    make(chan Packet, 256),
		done:   make(chan struct{}),
	}
	go s.run()
	return s, nil
}

func (s *liveSource) run() {
	defer close(s.out)
	src := gopacket.NewPacketSource(s.handle, s.handle.LinkType())
	for {
		select {
		case <-s.done:
			return
		case packet, ok := <-src.Packets():
			if !ok {
				return
			}
			if pkt, ok := decodeUDP(packet); ok {
				select {
				case s.out <- pkt:
				case <-s.done:
					return
				}
			}
		}
	}
}

func (s *liveSource) Packets() <-chan Packet { return s.out }

func (s *liveSource) Close() error {
	close(s.done)
	s.handle.Close()
	return nil
}

// offlineSource replays a pcap capture file, for tests and forensic
// replay against a recorded attack.
type offlineSource struct {
	handle *pcap.Handle
	out    chan Packet
}

// OpenOffline replays packets recorded in the pcap file at path.
func OpenOffline(path string) (Source, error) {
	handle, err := pcap.OpenOffline(path)
	if err != nil {
		return nil, fmt.Errorf("opening pcap file %s: %w", path, err)
	}
	s := &offlineSource{
		handle: handle,
		out:    make(chan Packet, 256),
	}
	go s.run()
	return s, nil
}

func (s *offlineSource) run() {
	defer close(s.out)
	src := gopacket.NewPacketSource(s.handle, s.handle.LinkType())
	for packet := range src.Packets() {
		if pkt, ok := decodeUDP(packet); ok {
			s.out <- pkt
		}
	}
}

func (s *offlineSource) Packets() <-chan Packet { return s.out }

func (s *offlineSource) Close() error {
	s.handle.Close()
	return nil
}

// decodeUDP extracts a Packet from a decoded gopacket.Packet, reporting ok
// = false for anything that isn't an IPv4/UDP datagram.
func decodeUDP(packet gopacket.Packet) (Packet, bool) {
	ipLayer := packet.Layer(layers.LayerTypeIPv4)
	if ipLayer == nil {
		return Packet{}, false
	}
	ip, ok := ipLayer.(*layers.IPv4)
	if !ok || ip.Protocol != layers.IPProtocolUDP {
		return Packet{}, false
	}

	udpLayer := packet.Layer(layers.LayerTypeUDP)
	if udpLayer == nil {
		return Packet{}, false
	}
	udp, ok := udpLayer.(*layers.UDP)
	if !ok {
		return Packet{}, false
	}

	seen := time.Now()
	if meta := packet.Metadata(); meta != nil {
		seen = meta.Timestamp
	}

	return Packet{
		SrcAddr: ipv4ToUint32(ip.SrcIP.To4()),
		SrcPort: uint16(udp.SrcPort),
		DstPort: uint16(udp.DstPort),
		Seen:    seen,
	}, true
}

func ipv4ToUint32(ip []byte) uint32 {
	if len(ip) != 4 {
		return 0
	}
	return binary.BigEndian.Uint32(ip)
}

// ShouldObserve is the coarse front-end pre-filter: an address/port pair
// is worth handing to the firewall core only if both ports are in the
// unprivileged range and the destination isn't RDP. This mirrors the
// reference front end's filter exactly and is deliberately front-end
// policy, not core policy.
func ShouldObserve(p Packet) bool {
	return p.SrcPort >= 1024 && p.DstPort >= 1024 && p.DstPort != 3389
}
