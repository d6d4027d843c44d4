// ABOUTME: WebSocket client for filterstream servers
// ABOUTME: Sends load and control requests and routes framed audio and status replies
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/Resonate-Protocol/filterstream/internal/protocol"
	"github.com/Resonate-Protocol/filterstream/pkg/audio/codec"
)

// Config holds client configuration
type Config struct {
	// URL is the server's websocket endpoint, e.g. ws://host:5000/stream
	URL string
}

// Chunk is one decoded audio frame from the server
type Chunk struct {
	Header codec.Header
	PCM    []byte
}

// Client represents a WebSocket client
type Client struct {
	config Config
	conn   *websocket.Conn
	mu     sync.RWMutex

	// Message channels
	Chunks chan Chunk
	Info   chan protocol.GetResponse

	// State
	connected bool
	ctx       context.Context
	cancel    context.CancelFunc
	eof       chan struct{}
	eofOnce   sync.Once
}

// NewClient creates a new WebSocket client
func NewClient(config Config) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		config: config,
		Chunks: make(chan Chunk, 32),
		Info:   make(chan protocol.GetResponse, 4),
		ctx:    ctx,
		cancel: cancel,
		eof:    make(chan struct{}),
	}
}

// Connect dials the server and starts the reader
func (c *Client) Connect(ctx context.Context) error {
	logrus.WithField("url", c.config.URL).Info("Connecting")

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.config.URL, nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	go c.readMessages()
	return nil
}

// Load asks the server to open a source and then run commands.
// kind is "file" or "remote"; ref is the file name or search query.
func (c *Client) Load(kind, ref string, commands ...string) error {
	return c.Send(protocol.Request{
		Source:   kind,
		Query:    ref,
		Commands: commands,
	})
}

// Command sends commands that need no value
func (c *Client) Command(commands ...string) error {
	return c.Send(protocol.Request{Commands: commands})
}

// Update sends UPDATE_SPEED or UPDATE_FILTER with value
func (c *Client) Update(command string, value int) error {
	return c.Send(protocol.Request{
		Commands: []string{command},
		Value:    json.RawMessage(strconv.Itoa(value)),
	})
}

// Stop ends streaming and releases the server-side source
func (c *Client) Stop() error {
	return c.Command(protocol.CommandStop)
}

// Send writes one request frame
func (c *Client) Send(req protocol.Request) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return fmt.Errorf("not connected")
	}
	return c.conn.WriteJSON(req)
}

// readMessages reads and routes incoming messages
func (c *Client) readMessages() {
	defer c.Close()
	defer close(c.Chunks)

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.ctx.Done():
			default:
				logrus.WithError(err).Debug("Read error")
			}
			return
		}

		switch messageType {
		case websocket.BinaryMessage:
			if !c.handleBinaryMessage(data) {
				return
			}
		case websocket.TextMessage:
			c.handleJSONMessage(data)
		}
	}
}

// handleBinaryMessage parses a framed chunk; it reports false once closed
func (c *Client) handleBinaryMessage(data []byte) bool {
	header, pcm, err := codec.ParseHeader(data)
	if err != nil {
		logrus.WithError(err).Warn("Dropping malformed audio frame")
		return true
	}

	select {
	case c.Chunks <- Chunk{Header: header, PCM: pcm}:
		return true
	case <-c.ctx.Done():
		return false
	}
}

// handleJSONMessage routes status messages by their command field
func (c *Client) handleJSONMessage(data []byte) {
	var status protocol.Status
	if err := json.Unmarshal(data, &status); err != nil {
		logrus.WithError(err).Warn("Failed to parse JSON message")
		return
	}

	switch status.Command {
	case protocol.CommandGet:
		var info protocol.GetResponse
		if err := json.Unmarshal(data, &info); err != nil {
			logrus.WithError(err).Warn("Failed to parse GET reply")
			return
		}
		select {
		case c.Info <- info:
		default:
			logrus.Debug("Dropping GET reply, nobody is reading")
		}

	case protocol.CommandEOF:
		logrus.Info("End of stream")
		c.eofOnce.Do(func() { close(c.eof) })

	default:
		logrus.WithField("command", status.Command).Debug("Unknown status message")
	}
}

// EOF is closed when the server reports the end of the stream
func (c *Client) EOF() <-chan struct{} {
	return c.eof
}

// Close closes the connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		c.connected = false
		c.cancel()
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
		logrus.Debug("Connection closed")
	}
}

// IsConnected returns connection status
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}
