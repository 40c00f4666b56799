package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/GriffinCanCode/whisper-agent/internal/trace"
	"github.com/GriffinCanCode/whisper-agent/internal/transcript"
)

// TranscriptMessage is pushed to every WebSocket client per utterance.
type TranscriptMessage struct {
	Type       string `json:"type"`
	ID         string `json:"id"`
	Text       string `json:"text"`
	DurationMS int64  `json:"duration_ms"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// StatusProvider reports component states for /healthz.
type StatusProvider interface {
	Status() map[string]string
}

// Server handles HTTP and WebSocket connections.
type Server struct {
	store    transcript.Store
	gatherer prometheus.Gatherer
	status   StatusProvider
	mu       sync.RWMutex
	conns    map[*websocket.Conn]struct{}
}

// New creates a new server. status may be nil.
func New(store transcript.Store, gatherer prometheus.Gatherer, status StatusProvider) *Server {
	return &Server{
		store:    store,
		gatherer: gatherer,
		status:   status,
		conns:    make(map[*websocket.Conn]struct{}),
	}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/transcripts", s.handleTranscripts)

	// Apply middleware: trace -> CORS
	return corsMiddleware(trace.Middleware(mux))
}

// ListenAndServe serves on addr and broadcasts transcripts until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	go s.Broadcast(ctx)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("http server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("websocket accept error", "error", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
	}()

	log := trace.Logger(r.Context())
	log.Info("websocket connected", "remote", r.RemoteAddr)

	// The feed is one-way; CloseRead discards client frames and ends ctx on close.
	ctx := conn.CloseRead(r.Context())
	<-ctx.Done()
	log.Debug("websocket disconnected", "remote", r.RemoteAddr)
}

// Broadcast forwards transcript events to every connected client until ctx is done.
func (s *Server) Broadcast(ctx context.Context) {
	events := s.store.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-events:
			s.broadcast(ctx, TranscriptMessage{
				Type:       "transcript",
				ID:         evt.ID,
				Text:       evt.Text,
				DurationMS: evt.Duration.Milliseconds(),
			})
		}
	}
}

func (s *Server) broadcast(ctx context.Context, msg TranscriptMessage) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for conn := range s.conns {
		go func(c *websocket.Conn) {
			wctx, cancel := context.WithTimeout(ctx, BroadcastWriteTimeout)
			defer cancel()
			if err := wsjson.Write(wctx, c, msg); err != nil {
				slog.Debug("websocket write failed", "error", err)
			}
		}(conn)
	}
}

func (s *Server) clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conns)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{"status": "ok"}
	if s.status != nil {
		for k, v := range s.status.Status() {
			body[k] = v
		}
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleTranscripts(w http.ResponseWriter, r *http.Request) {
	seconds := DefaultRecentSeconds
	if v := r.URL.Query().Get("seconds"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > MaxRecentSeconds {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "seconds must be an integer in [1, 86400]"})
			return
		}
		seconds = n
	}

	entries := s.store.Recent(time.Duration(seconds) * time.Second)
	if entries == nil {
		entries = []transcript.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("response encode failed", "error", err)
	}
}
