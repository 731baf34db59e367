// SPDX-License-Identifier: MIT
package transport

import (
	"sync/atomic"

	applog "barvis/internal/log"
)

// LoggingTransport implements the Transport interface by logging data at
// debug level instead of sending it anywhere.
type LoggingTransport struct {
	sent atomic.Int64
}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	applog.Infof("Transport: Using LoggingTransport")
	return &LoggingTransport{}
}

// Send logs the received data.
func (lt *LoggingTransport) Send(data any) error {
	n := lt.sent.Add(1)
	if s, ok := data.(Snapshot); ok {
		applog.Debugf("LoggingTransport: frame %d, %d buckets: %v", s.Frame, len(s.Values), s.Values)
		return nil
	}
	applog.Debugf("LoggingTransport: message %d (%T): %+v", n, data, data)
	return nil
}

// Sent returns how many messages have passed through.
func (lt *LoggingTransport) Sent() int64 { return lt.sent.Load() }

// Close is a no-op apart from a summary line.
func (lt *LoggingTransport) Close() error {
	applog.Infof("LoggingTransport: Closed after %d messages", lt.sent.Load())
	return nil
}

// Ensure LoggingTransport satisfies the interface at compile time.
var _ Transport = (*LoggingTransport)(nil)
