package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/zeusync/fpnav/internal/config"
	"github.com/zeusync/fpnav/internal/core/events/bus"
	"github.com/zeusync/fpnav/internal/core/observability/log"
	"github.com/zeusync/fpnav/internal/core/session"
)

const clientQueue = 32

// Session is the part of a navigation session the transport drives.
type Session interface {
	ID() string
	Submit(bus.Event) error
	Snapshot() session.Snapshot
	OnSnapshot(func(session.Snapshot)) (bus.Subscription, error)
}

// Server accepts websocket clients on /ws, turns their frames into session
// events and broadcasts pose snapshots back.
type Server struct {
	config  config.ServerConfig
	session Session
	logger  log.Log

	upgrader websocket.Upgrader
	clients  sync.Map // map[string]*Connection
	count    atomic.Int64
	maxConns int64

	httpServer *http.Server
	listener   net.Listener
	snapshots  bus.Subscription
	workers    sync.WaitGroup

	// mu orders client admission against Stop, so no client is added after
	// the shutdown sweep.
	mu      sync.Mutex
	running atomic.Bool
	closed  atomic.Bool
}

type Option func(*Server)

// WithMaxClients caps concurrent clients. Zero means unlimited.
func WithMaxClients(n int) Option {
	return func(s *Server) { s.maxConns = int64(n) }
}

func New(cfg config.ServerConfig, sess Session, logger log.Log, opts ...Option) (*Server, error) {
	if logger == nil {
		logger = log.NewNop()
	}
	s := &Server{
		config:  cfg,
		session: sess,
		logger:  logger.With(log.String("component", "server")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	sub, err := sess.OnSnapshot(s.onSnapshot)
	if err != nil {
		return nil, err
	}
	s.snapshots = sub
	return s, nil
}

// Handler exposes the /ws endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start(_ context.Context) error {
	if s.closed.Load() {
		return ErrServerClosed
	}
	if !s.running.CompareAndSwap(false, true) {
		return ErrServerAlreadyRunning
	}

	listener, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		s.running.Store(false)
		s.logger.Error("Failed to create listener", log.Error(err))
		return errors.Join(ErrListenerFailed, err)
	}
	s.listener = listener
	s.httpServer = &http.Server{Handler: s.Handler()}

	s.workers.Add(1)
	go func() {
		defer s.workers.Done()
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Serve failed", log.Error(err))
		}
	}()

	s.logger.Info("Server listening", log.String("addr", listener.Addr().String()))
	return nil
}

// Addr is the bound listen address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop shuts the HTTP server down and disconnects every client.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return ErrServerNotRunning
	}
	s.mu.Lock()
	s.closed.Store(true)
	s.mu.Unlock()
	s.logger.Info("Stopping server")

	if s.snapshots != nil {
		_ = s.snapshots.Cancel()
	}
	err := s.httpServer.Shutdown(ctx)

	// hijacked websocket connections are not closed by Shutdown
	s.clients.Range(func(_, value any) bool {
		_ = value.(*Connection).Close()
		return true
	})

	done := make(chan struct{})
	go func() {
		s.workers.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("Stop timed out waiting for workers", log.Error(ctx.Err()))
		return errors.Join(err, ctx.Err())
	}

	s.logger.Info("Server stopped")
	return err
}

// ClientCount reports connected clients.
func (s *Server) ClientCount() int { return int(s.count.Load()) }

// admit registers conn unless the server is stopping. On success the caller
// owns one workers slot.
func (s *Server) admit(conn *Connection) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return false
	}
	s.clients.Store(conn.ID(), conn)
	s.count.Add(1)
	s.workers.Add(1)
	return true
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.maxConns > 0 && s.count.Load() >= s.maxConns {
		s.logger.Warn("Maximum clients reached, rejecting connection", log.String("remote_addr", r.RemoteAddr))
		http.Error(w, ErrMaxClientsReached.Error(), http.StatusServiceUnavailable)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Upgrade failed", log.String("remote_addr", r.RemoteAddr), log.Error(err))
		return
	}

	conn := newConnection(ws, s.config.WriteTimeout, clientQueue)
	if !s.admit(conn) {
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, ErrServerClosed.Error()),
			time.Now().Add(time.Second))
		_ = ws.Close()
		return
	}

	clientLogger := s.logger.With(log.String("client_id", conn.ID()))
	clientLogger.Info("Client connected",
		log.String("remote_addr", conn.RemoteAddr().String()),
		log.Int64("total_clients", s.count.Load()))

	go func() {
		defer s.workers.Done()
		if err := conn.writeLoop(); err != nil {
			clientLogger.Debug("Writer stopped", log.Error(err))
			_ = conn.Close()
		}
	}()

	snap := s.session.Snapshot()
	_ = conn.EnqueueJSON(ServerMessage{Type: MessageSnapshot, Snapshot: &snap})

	held := newHeldInput()
	s.readLoop(conn, held, clientLogger)
	s.release(conn, held, clientLogger)

	s.clients.Delete(conn.ID())
	s.count.Add(-1)
	_ = conn.Close()

	sent, received, dropped := conn.Stats()
	clientLogger.Info("Client disconnected",
		log.Uint64("sent", sent),
		log.Uint64("received", received),
		log.Uint64("dropped", dropped),
		log.Duration("connected_for", time.Since(conn.connectedAt)),
		log.Int64("total_clients", s.count.Load()))
}

func (s *Server) readLoop(conn *Connection, held *heldInput, logger log.Log) {
	for {
		msg, err := conn.ReceiveMessage()
		if errors.Is(err, ErrInvalidMessage) {
			logger.Warn("Invalid message", log.Error(err))
			_ = conn.EnqueueJSON(ServerMessage{Type: MessageError, Error: err.Error()})
			continue
		}
		if err != nil {
			if !conn.IsClosed() && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("Read failed", log.Error(err))
			}
			return
		}
		if s.handleMessage(conn, msg, logger) {
			held.track(msg)
		}
	}
}

// release lets go of everything a departing client still holds.
func (s *Server) release(conn *Connection, held *heldInput, logger log.Log) {
	for _, ev := range held.releases(conn.ID()) {
		if err := s.session.Submit(ev); err != nil {
			logger.Warn("Release dropped", log.String("type", ev.Type()), log.Error(err))
		}
	}
}

// handleMessage submits msg to the session and reports whether it was queued.
func (s *Server) handleMessage(conn *Connection, msg ClientMessage, logger log.Log) bool {
	ev, err := msg.Event(conn.ID())
	if err == nil {
		err = s.session.Submit(ev)
	}
	if err != nil {
		logger.Warn("Message rejected", log.String("type", msg.Type), log.Error(err))
		_ = conn.EnqueueJSON(ServerMessage{Type: MessageError, Error: err.Error()})
		return false
	}
	logger.Debug("Message queued", log.String("type", msg.Type))
	return true
}

// onSnapshot runs on the tick goroutine; it marshals once and never blocks.
func (s *Server) onSnapshot(snap session.Snapshot) {
	every := uint64(max(s.config.BroadcastEvery, 1))
	if snap.Tick%every != 0 || s.count.Load() == 0 {
		return
	}
	data, err := json.Marshal(ServerMessage{Type: MessageSnapshot, Snapshot: &snap})
	if err != nil {
		s.logger.Error("Failed to marshal snapshot", log.Error(err))
		return
	}
	s.clients.Range(func(_, value any) bool {
		if conn := value.(*Connection); !conn.Enqueue(data) {
			s.logger.Debug("Snapshot dropped", log.String("client_id", conn.ID()))
		}
		return true
	})
}
