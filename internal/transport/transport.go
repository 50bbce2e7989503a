// SPDX-License-Identifier: MIT
package transport

import "errors"

// ErrClosed is returned by Send once a transport has been closed.
var ErrClosed = errors.New("transport closed")

// Transport defines a generic interface for sending rendered frames or
// events off-process. Implementations must be safe for concurrent use and
// must not block the caller for longer than it takes to queue the data.
type Transport interface {
	Send(data any) error
	Close() error
}

// Multi fans a message out to several transports. Send returns the first
// error but always tries every transport.
type Multi []Transport

// Send forwards data to each transport in order.
func (m Multi) Send(data any) error {
	var first error
	for _, t := range m {
		if err := t.Send(data); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Close closes every transport and joins their errors.
func (m Multi) Close() error {
	errs := make([]error, 0, len(m))
	for _, t := range m {
		errs = append(errs, t.Close())
	}
	return errors.Join(errs...)
}

var _ Transport = Multi(nil)
