// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	applog "barvis/internal/log"
	"barvis/internal/transport"
)

// HeaderSize is the fixed packet header length in bytes.
const HeaderSize = 4 + 8 + 2

// BucketPublisher packs every bucket snapshot it is sent into one UDP packet.
// It implements transport.Transport; Start dials the target.
type BucketPublisher struct {
	target string

	mu           sync.Mutex
	sender       *UDPSender
	sequenceNum  uint32        // Monotonically increasing sequence number for packets.
	packetBuffer *bytes.Buffer // Reusable buffer for constructing the binary packet.
	now          func() time.Time
}

// NewBucketPublisher returns a publisher for target ("host:port"). Nothing
// is dialled until Start.
func NewBucketPublisher(target string) *BucketPublisher {
	return &BucketPublisher{
		target:       target,
		packetBuffer: new(bytes.Buffer),
		now:          time.Now,
	}
}

// Start dials the UDP target. Calling Start again is a no-op.
func (p *BucketPublisher) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sender != nil {
		return nil
	}
	sender, err := NewUDPSender(p.target)
	if err != nil {
		return err
	}
	p.sender = sender
	applog.Infof("BucketPublisher: Publishing to %s", p.target)
	return nil
}

/*
UDP Packet Structure (BigEndian)

|<---- 4 Bytes ---->|<------ 8 Bytes ------>|<-- 2 Bytes -->|<----- N * 4 Bytes ----->|
+-------------------+-----------------------+---------------+-------------------------+
|  Sequence Number  |       Timestamp       |    Bucket     |         Buckets         |
|      (uint32)     |   (int64, unix ns)    |     Count     |      (N * float32)      |
|                   |                       |    (uint16)   |                         |
+-------------------+-----------------------+---------------+-------------------------+
*/

// Send packs a transport.Snapshot or []float32 and sends it.
func (p *BucketPublisher) Send(data any) error {
	var values []float32
	switch v := data.(type) {
	case transport.Snapshot:
		values = v.Values
	case []float32:
		values = v
	default:
		return fmt.Errorf("BucketPublisher: unsupported payload %T", data)
	}
	if len(values) > math.MaxUint16 {
		return fmt.Errorf("BucketPublisher: %d buckets exceed packet limit", len(values))
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sender == nil {
		return errors.New("BucketPublisher: not started")
	}

	p.sequenceNum++
	p.packetBuffer.Reset()
	packPacket(p.packetBuffer, p.sequenceNum, p.now().UnixNano(), values)

	if err := p.sender.Send(p.packetBuffer.Bytes()); err != nil {
		return err
	}
	applog.Debugf("BucketPublisher: Sent packet %d (%d bytes)", p.sequenceNum, p.packetBuffer.Len())
	return nil
}

// Close closes the socket if Start opened one.
func (p *BucketPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sender == nil {
		return nil
	}
	return p.sender.Close()
}

func packPacket(buf *bytes.Buffer, seq uint32, timestamp int64, values []float32) {
	var hdr [HeaderSize]byte
	binary.BigEndian.PutUint32(hdr[0:4], seq)
	binary.BigEndian.PutUint64(hdr[4:12], uint64(timestamp))
	binary.BigEndian.PutUint16(hdr[12:14], uint16(len(values)))
	buf.Write(hdr[:])

	var f [4]byte
	for _, v := range values {
		binary.BigEndian.PutUint32(f[:], math.Float32bits(v))
		buf.Write(f[:])
	}
}

// Packet is a decoded bucket datagram.
type Packet struct {
	Sequence  uint32
	Timestamp int64
	Buckets   []float32
}

// DecodePacket parses a datagram produced by BucketPublisher.
func DecodePacket(b []byte) (Packet, error) {
	if len(b) < HeaderSize {
		return Packet{}, fmt.Errorf("packet too short: %d bytes", len(b))
	}
	pkt := Packet{
		Sequence:  binary.BigEndian.Uint32(b[0:4]),
		Timestamp: int64(binary.BigEndian.Uint64(b[4:12])),
	}
	n := int(binary.BigEndian.Uint16(b[12:14]))
	body := b[HeaderSize:]
	if len(body) != n*4 {
		return Packet{}, fmt.Errorf("packet declares %d buckets but carries %d bytes", n, len(body))
	}
	pkt.Buckets = make([]float32, n)
	for i := range pkt.Buckets {
		pkt.Buckets[i] = math.Float32frombits(binary.BigEndian.Uint32(body[i*4:]))
	}
	return pkt, nil
}

var (
	_ transport.Transport = (*BucketPublisher)(nil)
	_ transport.Starter   = (*BucketPublisher)(nil)
)
