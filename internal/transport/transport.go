// Package transport defines the duplex frame transport the dispatcher runs
// on, together with its error taxonomy. Implementations carry opaque text
// frames; envelope parsing belongs to the layers above.
package transport

import "errors"

// ErrClosed is returned by Read and Write after Close was called on the
// transport. I/O failures on a still-open transport are reported as wrapped
// errors instead.
var ErrClosed = errors.New("transport: closed")

// Transport is a single duplex connection. Write sends one outbound frame;
// Read blocks until one full inbound frame is available. Close is idempotent
// and unblocks any in-progress Read or Write with ErrClosed.
//
// Implementations serialize concurrent writers; Read is owned by a single
// reader (the dispatcher pump).
type Transport interface {
	Read() ([]byte, error)
	Write(data []byte) error
	Close() error
}
