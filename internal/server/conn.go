// ABOUTME: WebSocket transport for a session
// ABOUTME: Reader and writer goroutines around one connection with a bounded send queue
package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/Resonate-Protocol/filterstream/internal/session"
)

const (
	writeDeadline = 10 * time.Second
	pingInterval  = 30 * time.Second
	pongWait      = 2 * pingInterval

	// maxMessageSize bounds inbound control frames
	maxMessageSize = 64 * 1024

	defaultQueueDepth = 8
)

// connTransport adapts a websocket connection to session.Transport
type connTransport struct {
	conn *websocket.Conn

	inbound  chan []byte
	sendChan chan any
	done     chan struct{} // closed when the reader exits
	quit     chan struct{} // closed when the session is finished with the transport

	closeOnce sync.Once
}

func newConnTransport(conn *websocket.Conn, queueDepth int) *connTransport {
	if queueDepth <= 0 {
		queueDepth = defaultQueueDepth
	}
	return &connTransport{
		conn:     conn,
		inbound:  make(chan []byte, 16),
		sendChan: make(chan any, queueDepth),
		done:     make(chan struct{}),
		quit:     make(chan struct{}),
	}
}

// start launches the reader and writer goroutines
func (t *connTransport) start(wg *sync.WaitGroup) {
	wg.Add(2)
	go func() {
		defer wg.Done()
		t.reader()
	}()
	go func() {
		defer wg.Done()
		t.writer()
	}()
}

// reader forwards text frames until the connection fails
func (t *connTransport) reader() {
	defer close(t.done)
	defer close(t.inbound)

	t.conn.SetReadLimit(maxMessageSize)
	t.conn.SetReadDeadline(time.Now().Add(pongWait))
	t.conn.SetPongHandler(func(string) error {
		return t.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		msgType, data, err := t.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logrus.WithError(err).Debug("WebSocket read error")
			}
			return
		}
		t.conn.SetReadDeadline(time.Now().Add(pongWait))

		if msgType != websocket.TextMessage {
			continue
		}
		select {
		case t.inbound <- data:
		case <-t.quit:
			return
		}
	}
}

// writer sends queued messages and keepalive pings
func (t *connTransport) writer() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	// A failed write ends the reader too
	defer t.conn.Close()

	for {
		select {
		case msg, ok := <-t.sendChan:
			if !ok {
				t.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
				t.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			switch v := msg.(type) {
			case []byte:
				t.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
				if err := t.conn.WriteMessage(websocket.BinaryMessage, v); err != nil {
					logrus.WithError(err).Debug("Error writing binary message")
					return
				}
			default:
				data, err := json.Marshal(v)
				if err != nil {
					logrus.WithError(err).Error("Error marshaling message")
					continue
				}
				t.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
				if err := t.conn.WriteMessage(websocket.TextMessage, data); err != nil {
					logrus.WithError(err).Debug("Error writing text message")
					return
				}
			}

		case <-ticker.C:
			if err := t.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeDeadline)); err != nil {
				return
			}

		case <-t.done:
			return
		}
	}
}

func (t *connTransport) Receive(ctx context.Context, wait time.Duration) ([]byte, error) {
	if wait == session.NoWait {
		select {
		case data, ok := <-t.inbound:
			return received(data, ok)
		default:
			return nil, nil
		}
	}

	var timeout <-chan time.Time
	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case data, ok := <-t.inbound:
		return received(data, ok)
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timeout:
		return nil, nil
	}
}

func received(data []byte, ok bool) ([]byte, error) {
	if !ok {
		return nil, session.ErrClosed
	}
	return data, nil
}

func (t *connTransport) SendBinary(data []byte) error {
	return t.enqueue(data)
}

func (t *connTransport) SendJSON(v any) error {
	return t.enqueue(v)
}

// enqueue blocks while the queue is full so chunks are never dropped
func (t *connTransport) enqueue(msg any) error {
	select {
	case <-t.done:
		return session.ErrClosed
	default:
	}

	select {
	case t.sendChan <- msg:
		return nil
	case <-t.done:
		return session.ErrClosed
	}
}

func (t *connTransport) Pending() int {
	return len(t.sendChan)
}

// Done is closed once the client connection has gone away
func (t *connTransport) Done() <-chan struct{} {
	return t.done
}

// close releases a reader stuck on a full inbound queue, then flushes the
// send queue and closes the connection. Call it once the session has
// stopped sending.
func (t *connTransport) close() {
	t.closeOnce.Do(func() {
		close(t.quit)
		close(t.sendChan)
	})
}
