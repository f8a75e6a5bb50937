package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// writeWait bounds how long a slow client may stall one write.
const writeWait = 5 * time.Second

// Server broadcasts collector events to WebSocket clients. It
// serves /ws for the event stream, /stats for a JSON counter
// snapshot, and /health.
type Server struct {
	mu        sync.Mutex
	collector *Collector
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]chan []byte
	mux       *http.ServeMux
	addr      string
	server    *http.Server
}

// NewServer creates a monitor server on the given address and
// subscribes it to the collector's event stream.
func NewServer(addr string, collector *Collector) *Server {
	s := &Server{
		collector: collector,
		addr:      addr,
		upgrader: websocket.Upgrader{
			// The dashboard is served from anywhere on the
			// local network; origin checking buys nothing for
			// a read-only event stream.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]chan []byte),
	}

	s.mux = http.NewServeMux()
	s.mux.HandleFunc("/ws", s.handleWS)
	s.mux.HandleFunc("/stats", s.handleStats)
	s.mux.HandleFunc(
		"/health",
		func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ok"))
		},
	)

	collector.OnEvent(func(event Event) {
		data, err := json.Marshal(event)
		if err != nil {
			return
		}
		s.broadcast(data)
	})
	return s
}

// ServeHTTP dispatches to the monitor endpoints.
func (s *Server) ServeHTTP(
	w http.ResponseWriter, r *http.Request,
) {
	s.mux.ServeHTTP(w, r)
}

// Start begins serving and blocks until the context is
// cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{Addr: s.addr, Handler: s}

	go func() {
		<-ctx.Done()
		s.server.Close()
	}()

	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("monitor server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleWS(
	w http.ResponseWriter, r *http.Request,
) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	ch := make(chan []byte, 32)
	s.mu.Lock()
	s.clients[conn] = ch
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	// Discard inbound frames but notice the close handshake.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.mu.Lock()
				c, ok := s.clients[conn]
				if ok {
					delete(s.clients, conn)
					close(c)
				}
				s.mu.Unlock()
				return
			}
		}
	}()

	for data := range ch {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(
			websocket.TextMessage, data,
		); err != nil {
			return
		}
	}
}

func (s *Server) handleStats(
	w http.ResponseWriter, _ *http.Request,
) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.collector.Stats())
}

func (s *Server) broadcast(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.clients {
		select {
		case ch <- data:
		default:
			// Client too slow, skip.
		}
	}
}
