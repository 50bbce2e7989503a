// SPDX-License-Identifier: MIT
package transport

import (
	"encoding/json"
	"sync"

	applog "spectrum/internal/log"
)

// LoggingTransport implements Transport by logging a summary of each
// message at debug level. It is used when no network transport is enabled.
type LoggingTransport struct {
	mu     sync.Mutex
	count  uint64
	closed bool
}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	applog.Infof("Transport: Using LoggingTransport")
	return &LoggingTransport{}
}

// Send logs the message type and its encoded size.
func (lt *LoggingTransport) Send(data any) error {
	lt.mu.Lock()
	if lt.closed {
		lt.mu.Unlock()
		return ErrClosed
	}
	lt.count++
	n := lt.count
	lt.mu.Unlock()

	payload, err := json.Marshal(data)
	if err != nil {
		applog.Debugf("LoggingTransport: #%d %T (not encodable: %v)", n, data, err)
		return nil
	}
	applog.Debugf("LoggingTransport: #%d %T (%d bytes)", n, data, len(payload))
	return nil
}

// Count reports how many messages have been sent.
func (lt *LoggingTransport) Count() uint64 {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	return lt.count
}

// Close marks the transport closed.
func (lt *LoggingTransport) Close() error {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	if !lt.closed {
		lt.closed = true
		applog.Debugf("LoggingTransport: Closed after %d messages", lt.count)
	}
	return nil
}

var _ Transport = (*LoggingTransport)(nil)
