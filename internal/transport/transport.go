// SPDX-License-Identifier: MIT
package transport

import "errors"

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("transport: closed")

// SnapshotType tags bucket snapshots on the wire.
const SnapshotType = "buckets"

// Transport defines a generic interface for sending processed data or events.
// Implementations should be thread-safe.
type Transport interface {
	Send(data any) error
	Close() error
}

// Starter is implemented by transports that need to acquire resources
// (listeners, sockets) before the first Send.
type Starter interface {
	Start() error
}

// Snapshot is one frame's bucket energies.
type Snapshot struct {
	Type   string    `json:"type"`
	Frame  int       `json:"frame"`
	Values []float32 `json:"values"`
}
