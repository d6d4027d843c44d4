// ABOUTME: Connection abstraction used by a session loop
// ABOUTME: Decouples the state machine from the websocket reader and writer goroutines
package session

import (
	"context"
	"errors"
	"time"
)

// Receive wait modes
const (
	// NoWait polls for an already queued message
	NoWait time.Duration = 0

	// Forever blocks until a message arrives or the connection closes
	Forever time.Duration = -1
)

// ErrClosed is returned once the peer has gone away
var ErrClosed = errors.New("connection closed")

// Transport carries frames between a session and its client
type Transport interface {
	// Receive returns the next inbound text frame, waiting up to wait.
	// It returns nil, nil when nothing arrived in time.
	Receive(ctx context.Context, wait time.Duration) ([]byte, error)

	// SendBinary queues an audio frame, blocking while the queue is full
	SendBinary(data []byte) error

	// SendJSON queues a status message
	SendJSON(v any) error

	// Pending returns the number of queued outbound messages
	Pending() int
}
