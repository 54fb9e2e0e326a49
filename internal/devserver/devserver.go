// Package devserver serves live analysis results over HTTP: a health
// endpoint, the latest YAML report, and a WebSocket feed that pushes a fresh
// report to every connected client after each re-analysis.
package devserver

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vk/weft/internal/ctxlog"
)

const (
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
)

// Server broadcasts analysis reports to WebSocket subscribers.
type Server struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	// latest is replayed to clients that connect between broadcasts.
	latest []byte
}

// New creates a broadcast server with no subscribers.
func New() *Server {
	return &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // local development tool, any origin may subscribe
			},
		},
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// Publish stores the report as the latest state and pushes it to every
// subscriber. Connections that fail to accept the write are dropped.
func (s *Server) Publish(report []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = append([]byte(nil), report...)

	for conn := range s.clients {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, s.latest); err != nil {
			conn.Close()
			delete(s.clients, conn)
		}
	}
}

// Subscribers returns the number of connected clients.
func (s *Server) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Handler returns the HTTP mux: /health, /report, and the /ws feed.
func (s *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth(ctx))
	mux.HandleFunc("/report", s.handleReport)
	mux.HandleFunc("/ws", s.handleWS(ctx))
	return mux
}

func (s *Server) handleHealth(ctx context.Context) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctxlog.FromContext(ctx).Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK\n"))
	}
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	latest := s.latest
	s.mu.Unlock()

	if latest == nil {
		http.Error(w, "no analysis has completed yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.Write(latest)
}

func (s *Server) handleWS(ctx context.Context) http.HandlerFunc {
	logger := ctxlog.FromContext(ctx)
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("WebSocket upgrade failed.", "error", err, "remote_addr", r.RemoteAddr)
			return
		}
		logger.Debug("Subscriber connected.", "remote_addr", r.RemoteAddr)

		s.mu.Lock()
		s.clients[conn] = struct{}{}
		latest := s.latest
		s.mu.Unlock()

		if latest != nil {
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			conn.WriteMessage(websocket.TextMessage, latest)
		}

		go s.keepalive(conn)

		// Subscribers never send payloads; the read loop exists to observe
		// disconnects and pong frames.
		go func() {
			defer func() {
				s.mu.Lock()
				delete(s.clients, conn)
				s.mu.Unlock()
				conn.Close()
				logger.Debug("Subscriber disconnected.", "remote_addr", r.RemoteAddr)
			}()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	}
}

func (s *Server) keepalive(conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for range ticker.C {
		s.mu.Lock()
		_, alive := s.clients[conn]
		s.mu.Unlock()
		if !alive {
			return
		}
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
			return
		}
	}
}

// Start runs the server until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	logger := ctxlog.FromContext(ctx)
	srv := &http.Server{Addr: addr, Handler: s.Handler(ctx)}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("Live report server starting.", "address", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
