// SPDX-License-Identifier: MIT
package udp

import (
	"errors"
	"fmt"
	"net"
	"sync"

	applog "barvis/internal/log"
	"barvis/internal/transport"
)

// MaxDatagramSize is the largest UDP payload deliverable over IPv4.
const MaxDatagramSize = 65507

// ErrDatagramTooLarge is returned for payloads that would be fragmented away.
var ErrDatagramTooLarge = errors.New("udp: datagram exceeds maximum size")

// SenderStats counts what a UDPSender has put on the wire.
type SenderStats struct {
	Datagrams uint64
	Bytes     uint64
	Errors    uint64
}

// UDPSender writes datagrams to one connected peer.
type UDPSender struct {
	conn *net.UDPConn

	mu     sync.Mutex // guards conn, closed and stats
	closed bool
	stats  SenderStats
}

// NewUDPSender connects to targetAddress ("host:port", e.g. "127.0.0.1:9090").
func NewUDPSender(targetAddress string) (*UDPSender, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", targetAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve UDP target address '%s': %w", targetAddress, err)
	}

	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial UDP for target '%s': %w", targetAddress, err)
	}
	applog.Debugf("UDPSender: %s -> %s", conn.LocalAddr(), conn.RemoteAddr())

	return &UDPSender{conn: conn}, nil
}

// RemoteAddr returns the peer address.
func (s *UDPSender) RemoteAddr() net.Addr {
	return s.conn.RemoteAddr()
}

// Send writes data as a single datagram.
func (s *UDPSender) Send(data []byte) error {
	if len(data) > MaxDatagramSize {
		return fmt.Errorf("%w: %d bytes", ErrDatagramTooLarge, len(data))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return transport.ErrClosed
	}
	n, err := s.conn.Write(data)
	if err != nil {
		s.stats.Errors++
		return fmt.Errorf("failed to send UDP packet: %w", err)
	}
	s.stats.Datagrams++
	s.stats.Bytes += uint64(n)
	return nil
}

// Stats returns a copy of the traffic counters.
func (s *UDPSender) Stats() SenderStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Close releases the socket. It is safe to call more than once.
func (s *UDPSender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	applog.Debugf("UDPSender: closing %s after %d datagrams (%d bytes, %d errors)",
		s.conn.RemoteAddr(), s.stats.Datagrams, s.stats.Bytes, s.stats.Errors)
	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close UDP connection: %w", err)
	}
	return nil
}
