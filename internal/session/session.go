// ABOUTME: Per-connection streaming state machine
// ABOUTME: Loads sources, runs the channel pipeline and answers GET/NEXT/STOP/UPDATE commands
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Resonate-Protocol/filterstream/internal/pipeline"
	"github.com/Resonate-Protocol/filterstream/internal/protocol"
	"github.com/Resonate-Protocol/filterstream/internal/source"
)

// ErrNoSource is returned when a command needs a loaded source
var ErrNoSource = errors.New("no source loaded")

// State is the session's position in its lifecycle
type State int

const (
	// StateEmpty has no source
	StateEmpty State = iota
	// StateLoaded has a source and produces a chunk per NEXT
	StateLoaded
	// StateStreaming produces a chunk every loop iteration
	StateStreaming
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoaded:
		return "loaded"
	case StateStreaming:
		return "streaming"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Opener opens the source named by a load request
type Opener interface {
	Open(ctx context.Context, kind source.Kind, ref string) (source.Source, error)
}

// Config holds session tuning
type Config struct {
	ChunkFrames  int
	PollInterval time.Duration
	OpenTimeout  time.Duration
	QueueDepth   int
	Chain        []pipeline.Stage
	Settings     pipeline.Settings

	// Observer receives a snapshot after every state change. It runs on the
	// session goroutine and must not block.
	Observer func(Snapshot)
}

// DefaultConfig returns the defaults used when fields are left zero
func DefaultConfig() Config {
	return Config{
		ChunkFrames:  1024,
		PollInterval: 20 * time.Millisecond,
		OpenTimeout:  time.Minute,
		QueueDepth:   8,
		Chain:        pipeline.DefaultChain,
		Settings:     pipeline.DefaultSettings(),
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ChunkFrames <= 0 {
		c.ChunkFrames = d.ChunkFrames
	}
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = d.OpenTimeout
	}
	if c.QueueDepth <= 0 {
		c.QueueDepth = d.QueueDepth
	}
	if len(c.Chain) == 0 {
		c.Chain = d.Chain
	}
	if c.Settings == (pipeline.Settings{}) {
		c.Settings = d.Settings
	}
	return c
}

// Session owns everything one client has loaded. Only Run's goroutine
// touches its fields.
type Session struct {
	id        string
	cfg       Config
	transport Transport
	opener    Opener
	logger    *logrus.Entry

	state    State
	src      source.Source
	pipe     *pipeline.Pipeline
	settings pipeline.Settings
	duration protocol.Duration
	chunks   int64
}

// New creates a session in StateEmpty
func New(id string, transport Transport, opener Opener, cfg Config) *Session {
	cfg = cfg.withDefaults()
	return &Session{
		id:        id,
		cfg:       cfg,
		transport: transport,
		opener:    opener,
		settings:  cfg.Settings,
		logger: logrus.WithFields(logrus.Fields{
			"session": id,
		}),
	}
}

// Run processes messages until ctx is cancelled or the transport closes.
// A panic inside the loop is recovered and returned as an error.
func (s *Session) Run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.WithField("panic", r).Error("Session loop panicked")
			err = fmt.Errorf("session panic: %v", r)
		}
		s.release()
		s.notify()
	}()

	s.logger.Info("Session started")
	s.notify()

	for {
		if ctx.Err() != nil {
			return nil
		}

		data, err := s.transport.Receive(ctx, s.wait())
		if errors.Is(err, ErrClosed) || errors.Is(err, context.Canceled) {
			s.logger.Info("Session ended")
			return nil
		}
		if err != nil {
			return err
		}

		if data != nil {
			s.Handle(ctx, data)
		}

		if s.state == StateStreaming && s.transport.Pending() < s.cfg.QueueDepth {
			if err := s.produce(); errors.Is(err, ErrClosed) {
				return nil
			}
			s.notify()
		}
	}
}

// wait picks how long Receive may block: idle sessions sleep until a
// message arrives, streaming sessions only poll unless the queue is full.
func (s *Session) wait() time.Duration {
	switch {
	case s.state != StateStreaming:
		return Forever
	case s.transport.Pending() >= s.cfg.QueueDepth:
		return s.cfg.PollInterval
	default:
		return NoWait
	}
}

// Handle applies one inbound text frame: an optional load, then each
// command in order
func (s *Session) Handle(ctx context.Context, data []byte) {
	req, err := protocol.ParseRequest(data)
	if err != nil {
		s.logger.WithError(err).Warn("Ignoring malformed request")
		return
	}
	defer s.notify()

	if req.Source != "" {
		s.load(ctx, req)
	}

	for _, cmd := range req.Commands {
		if err := s.command(cmd, req); err != nil {
			s.logger.WithFields(logrus.Fields{
				"command": cmd,
				"error":   err,
			}).Warn("Command rejected")
		}
	}
}

func (s *Session) command(cmd string, req protocol.Request) error {
	switch cmd {
	case protocol.CommandGet:
		return s.transport.SendJSON(s.getResponse())
	case protocol.CommandNext:
		return s.produce()
	case protocol.CommandStream:
		if s.src == nil {
			return ErrNoSource
		}
		s.state = StateStreaming
		return nil
	case protocol.CommandStop:
		s.release()
		s.logger.Info("Stopped")
		return nil
	case protocol.CommandUpdateSpeed:
		return s.updateSpeed(req)
	case protocol.CommandUpdateFilter:
		return s.updateFilter(req)
	default:
		s.logger.WithField("command", cmd).Debug("Ignoring unknown command")
		return nil
	}
}

// load replaces the current source. Failure leaves the session empty.
func (s *Session) load(ctx context.Context, req protocol.Request) {
	s.release()

	kind, ref := loadTarget(req)
	logger := s.logger.WithFields(logrus.Fields{
		"kind": kind,
		"ref":  ref,
	})

	openCtx, cancel := context.WithTimeout(ctx, s.cfg.OpenTimeout)
	src, err := s.opener.Open(openCtx, kind, ref)
	cancel()
	if err != nil {
		logger.WithError(err).Warn("Failed to open source")
		return
	}

	pipe, err := pipeline.New(src.Format(), src.Frames(), s.cfg.Chain, s.settings)
	if err != nil {
		src.Close()
		logger.WithError(err).Warn("Failed to build pipeline")
		return
	}

	s.src = src
	s.pipe = pipe
	s.duration = protocol.DurationFromFrames(src.Frames(), src.Format().SampleRate)
	s.chunks = 0
	s.state = StateLoaded

	logger.WithFields(logrus.Fields{
		"title":    src.Title(),
		"frames":   src.Frames(),
		"duration": src.Format().Duration(src.Frames()).String(),
	}).Info("Source loaded")
}

// loadTarget maps the request's source field to a kind and reference.
// A source value that is not a known kind is a file name.
func loadTarget(req protocol.Request) (source.Kind, string) {
	if kind, ok := source.ParseKind(req.Source); ok {
		return kind, req.Query
	}
	return source.KindFile, req.Source
}

// produce reads, filters and sends one chunk
func (s *Session) produce() error {
	if s.src == nil {
		return ErrNoSource
	}

	if s.src.Position() >= s.src.Frames() {
		return s.endOfStream()
	}

	raw, err := s.src.ReadFrames(s.cfg.ChunkFrames)
	if errors.Is(err, io.EOF) || (err == nil && len(raw) == 0) {
		return s.endOfStream()
	}
	if err != nil {
		s.logger.WithError(err).Error("Source read failed")
		s.release()
		return err
	}

	if err := s.transport.SendBinary(s.pipe.Process(raw)); err != nil {
		return err
	}
	s.chunks++
	return nil
}

func (s *Session) endOfStream() error {
	s.logger.WithFields(logrus.Fields{
		"title":  s.src.Title(),
		"chunks": s.chunks,
	}).Info("End of stream")

	s.release()
	return s.transport.SendJSON(protocol.Status{Command: protocol.CommandEOF})
}

func (s *Session) updateSpeed(req protocol.Request) error {
	v, err := req.IntValue()
	if err != nil {
		return err
	}

	settings, err := s.settings.WithSpeed(v)
	if err != nil {
		return err
	}
	if s.pipe != nil {
		if err := s.pipe.SetSpeed(v); err != nil {
			return err
		}
	}

	s.settings = settings
	s.logger.WithField("speed", v).Info("Speed updated")
	return nil
}

func (s *Session) updateFilter(req protocol.Request) error {
	v, err := req.IntValue()
	if err != nil {
		return err
	}

	settings, err := s.settings.WithIntensity(v)
	if err != nil {
		return err
	}
	if s.pipe != nil {
		if err := s.pipe.SetIntensity(v); err != nil {
			return err
		}
	}

	s.settings = settings
	s.logger.WithField("intensity", v).Info("Filter updated")
	return nil
}

func (s *Session) getResponse() protocol.GetResponse {
	resp := protocol.GetResponse{
		Command:  protocol.CommandGet,
		Duration: s.duration,
		Speed:    s.settings.Speed,
		Filter:   s.settings.Intensity,
	}
	if s.src != nil {
		format := s.src.Format()
		resp.Format = &protocol.FormatInfo{
			Title:       s.src.Title(),
			SampleRate:  format.SampleRate,
			Channels:    format.Channels,
			SampleWidth: format.SampleWidth,
			Frames:      s.src.Frames(),
			Position:    s.src.Position(),
		}
	}
	return resp
}

// release drops the source and channels and returns to StateEmpty
func (s *Session) release() {
	if s.src != nil {
		if err := s.src.Close(); err != nil {
			s.logger.WithError(err).Debug("Error closing source")
		}
	}
	s.src = nil
	s.pipe = nil
	s.duration = protocol.Duration{}
	s.state = StateEmpty
}

// State returns the current lifecycle state
func (s *Session) State() State { return s.state }

// Settings returns the live control values
func (s *Session) Settings() pipeline.Settings { return s.settings }
