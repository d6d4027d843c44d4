// ABOUTME: WebSocket server for filtered audio streaming
// ABOUTME: Accepts connections, runs one session per client and tracks their status
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/Resonate-Protocol/filterstream/internal/discovery"
	"github.com/Resonate-Protocol/filterstream/internal/session"
)

const (
	// StreamPath is the websocket route
	StreamPath = "/stream"

	// HealthPath reports liveness and session count
	HealthPath = "/healthz"

	shutdownTimeout = 5 * time.Second
)

// Config holds server configuration
type Config struct {
	Port       int
	Name       string
	EnableMDNS bool
	Debug      bool
	UseTUI     bool

	// Session is the template for every connection's session
	Session session.Config
}

// Server represents the filterstream server
type Server struct {
	config   Config
	serverID string
	opener   session.Opener

	upgrader websocket.Upgrader

	httpServer *http.Server
	mux        *http.ServeMux
	addr       net.Addr
	ready      chan struct{}

	// Session registry, snapshots only
	sessions   map[string]*SessionInfo
	sessionsMu sync.RWMutex

	mdnsManager *discovery.Manager

	tui       *ServerTUI
	startTime time.Time

	// Sessions run under ctx; cancel ends them on shutdown
	ctx    context.Context
	cancel context.CancelFunc

	stopChan   chan struct{}
	stopOnce   sync.Once
	shutdownMu sync.RWMutex
	isShutdown bool
	wg         sync.WaitGroup
}

// SessionInfo is the registry entry for one connection
type SessionInfo struct {
	RemoteAddr  string
	ConnectedAt time.Time
	session.Snapshot
}

// New creates a server that opens sources through opener
func New(config Config, opener session.Opener) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		config:   config,
		serverID: uuid.New().String(),
		opener:   opener,
		mux:      http.NewServeMux(),
		ready:    make(chan struct{}),
		upgrader: websocket.Upgrader{
			// Browser players may be served from any local origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		sessions:  make(map[string]*SessionInfo),
		startTime: time.Now(),
		ctx:       ctx,
		cancel:    cancel,
		stopChan:  make(chan struct{}),
	}

	s.mux.HandleFunc(StreamPath, s.handleWebSocket)
	s.mux.HandleFunc(HealthPath, s.handleHealth)
	return s
}

// Handler returns the HTTP handler serving every route
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start serves until Stop is called, the TUI quits or the listener fails
func (s *Server) Start() error {
	if s.config.UseTUI {
		s.tui = NewServerTUI(s.config.Name, s.config.Port)

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.tui.Start(s.config.Name, s.config.Port); err != nil {
				logrus.WithError(err).Error("TUI exited with error")
			}
		}()

		// Give TUI time to initialize
		time.Sleep(100 * time.Millisecond)
	}

	logrus.WithFields(logrus.Fields{
		"name": s.config.Name,
		"id":   s.serverID,
	}).Info("Server starting")

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", s.config.Port))
	if err != nil {
		close(s.ready)
		s.shutdown()
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.addr = listener.Addr()
	close(s.ready)

	if s.config.EnableMDNS {
		s.mdnsManager = discovery.NewManager(discovery.Config{
			ServiceName: s.config.Name,
			Port:        listener.Addr().(*net.TCPAddr).Port,
			Path:        StreamPath,
		})

		if err := s.mdnsManager.Advertise(); err != nil {
			logrus.WithError(err).Warn("Failed to start mDNS advertisement")
		}
	}

	logrus.WithField("addr", s.addr.String()).Info("WebSocket server listening")

	s.httpServer = &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(listener); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	var serverErr error
	var tuiQuitChan <-chan struct{}
	if s.tui != nil {
		tuiQuitChan = s.tui.QuitChan()
	}

	select {
	case <-s.stopChan:
		logrus.Info("Server shutting down...")
	case <-tuiQuitChan:
		logrus.Info("TUI quit requested, shutting down...")
	case err := <-errChan:
		logrus.WithError(err).Error("HTTP server error")
		serverErr = err
	}

	s.shutdown()

	if serverErr != nil {
		return fmt.Errorf("HTTP server failed: %w", serverErr)
	}
	return nil
}

// shutdown rejects new connections, ends every session and waits for them
func (s *Server) shutdown() {
	s.shutdownMu.Lock()
	s.isShutdown = true
	s.shutdownMu.Unlock()

	if s.tui != nil {
		s.tui.Stop()
	}

	if s.mdnsManager != nil {
		s.mdnsManager.Stop()
	}

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			logrus.WithError(err).Warn("HTTP server shutdown error")
		}
	}

	// Hijacked websocket connections are not closed by Shutdown
	s.cancel()
	s.wg.Wait()
	logrus.Info("Server stopped cleanly")
}

// Stop stops the server
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}

// Addr waits until the server is listening and returns its address.
// It returns nil if the listener could not be opened.
func (s *Server) Addr() net.Addr {
	<-s.ready
	return s.addr
}

// handleWebSocket upgrades the request and runs a session on it
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.shutdownMu.RLock()
	shuttingDown := s.isShutdown
	if !shuttingDown {
		s.wg.Add(1)
	}
	s.shutdownMu.RUnlock()
	if shuttingDown {
		http.Error(w, "server is shutting down", http.StatusServiceUnavailable)
		return
	}
	defer s.wg.Done()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Warn("WebSocket upgrade error")
		return
	}

	s.handleConnection(conn, r.RemoteAddr)
}

// handleConnection runs one session until the client leaves
func (s *Server) handleConnection(conn *websocket.Conn, remoteAddr string) {
	id := uuid.New().String()
	logger := logrus.WithFields(logrus.Fields{
		"session": id,
		"remote":  remoteAddr,
	})
	logger.Info("New WebSocket connection")

	s.register(id, remoteAddr)
	defer s.unregister(id)

	cfg := s.config.Session
	cfg.Observer = s.observe

	transport := newConnTransport(conn, cfg.QueueDepth)
	transport.start(&s.wg)
	defer transport.close()

	// A load in progress is abandoned as soon as the client leaves
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	go func() {
		select {
		case <-transport.Done():
			cancel()
		case <-ctx.Done():
		}
	}()

	sess := session.New(id, transport, s.opener, cfg)
	if err := sess.Run(ctx); err != nil {
		logger.WithError(err).Error("Session failed")
	}

	logger.Info("Client disconnected")
}

func (s *Server) register(id, remoteAddr string) {
	s.sessionsMu.Lock()
	s.sessions[id] = &SessionInfo{
		RemoteAddr:  remoteAddr,
		ConnectedAt: time.Now(),
		Snapshot:    session.Snapshot{ID: id},
	}
	s.sessionsMu.Unlock()

	s.updateTUI()
}

func (s *Server) unregister(id string) {
	s.sessionsMu.Lock()
	delete(s.sessions, id)
	s.sessionsMu.Unlock()

	s.updateTUI()
}

// observe stores a session's latest snapshot
func (s *Server) observe(snap session.Snapshot) {
	s.sessionsMu.Lock()
	info, ok := s.sessions[snap.ID]
	if ok {
		info.Snapshot = snap
	}
	s.sessionsMu.Unlock()

	if ok {
		s.updateTUI()
	}
}

// Sessions returns the registry ordered by connection time
func (s *Server) Sessions() []SessionInfo {
	s.sessionsMu.RLock()
	infos := make([]SessionInfo, 0, len(s.sessions))
	for _, info := range s.sessions {
		infos = append(infos, *info)
	}
	s.sessionsMu.RUnlock()

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].ConnectedAt.Before(infos[j].ConnectedAt)
	})
	return infos
}

type healthResponse struct {
	Status   string `json:"status"`
	Name     string `json:"name"`
	ServerID string `json:"server_id"`
	Sessions int    `json:"sessions"`
	Uptime   string `json:"uptime"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.sessionsMu.RLock()
	count := len(s.sessions)
	s.sessionsMu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(healthResponse{
		Status:   "ok",
		Name:     s.config.Name,
		ServerID: s.serverID,
		Sessions: count,
		Uptime:   time.Since(s.startTime).Round(time.Second).String(),
	})
}
