// Package feed publishes notifications to websocket subscribers. Each
// subscriber gets a hello frame with the current account status, then one
// frame per notification in the order the sessions emitted them.
package feed

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/soyeahso/imbridge/internal/config"
	"github.com/soyeahso/imbridge/internal/domain"
	"github.com/soyeahso/imbridge/internal/logging"
	"github.com/soyeahso/imbridge/internal/version"
)

// DefaultListen is used when the config leaves Listen empty.
const DefaultListen = "127.0.0.1:7878"

// Frame types.
const (
	FrameHello        = "hello"
	FrameNotification = "notification"
)

// Frame is one JSON message written to a subscriber.
type Frame struct {
	Type         string                 `json:"type"`
	Seq          int64                  `json:"seq,omitempty"`
	Version      string                 `json:"version,omitempty"`
	Accounts     []domain.AccountStatus `json:"accounts,omitempty"`
	Notification *domain.Notification   `json:"notification,omitempty"`
}

// StatusFunc reports per-account status. account.Manager.Status satisfies it.
type StatusFunc func() []domain.AccountStatus

// Server implements domain.Notifier by broadcasting to websocket clients.
type Server struct {
	cfg      config.FeedConfig
	token    string
	log      *logging.Logger
	upgrader websocket.Upgrader
	clients  *registry
	now      func() time.Time

	// pubMu orders publishes: seq assignment and fan-out happen together,
	// and a new subscriber is queued its hello between two publishes.
	pubMu sync.Mutex
	seq   int64

	mu     sync.RWMutex
	status StatusFunc
	addr   string
}

// New creates a feed server. The token comes from the config or, failing
// that, IMBRIDGE_FEED_TOKEN; an empty token disables authentication.
func New(cfg config.FeedConfig, log *logging.Logger) *Server {
	token := cfg.Token
	if token == "" {
		token = os.Getenv("IMBRIDGE_FEED_TOKEN")
	}
	s := &Server{
		cfg:     cfg,
		token:   token,
		log:     log.Sub("feed"),
		clients: newRegistry(),
		now:     time.Now,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

var _ domain.Notifier = (*Server)(nil)

// Bind sets where hello frames and /status get account status from.
func (s *Server) Bind(status StatusFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

// Clients returns the number of connected subscribers.
func (s *Server) Clients() int { return s.clients.count() }

// Addr returns the address the server is listening on, once started.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

// Handler returns the HTTP handler with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /status", s.requireToken(s.handleStatus))
	mux.HandleFunc("GET /events", s.requireToken(s.handleEvents))
	return withMiddleware(mux, s.log)
}

// Start listens and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	listen := s.cfg.Listen
	if listen == "" {
		listen = DefaultListen
	}
	ln, err := net.Listen("tcp", listen)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.mu.Unlock()

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.Addr()).Bool("auth", s.token != "").Msg("notification feed listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.clients.closeAll()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Warn().Err(err).Msg("feed shutdown")
		}
		return ctx.Err()
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": version.Version,
		"clients": s.Clients(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"accounts": s.accounts(),
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}

	c := newClient(uuid.New().String(), conn)
	hello := Frame{Type: FrameHello, Version: version.Version, Accounts: s.accounts()}
	s.pubMu.Lock()
	c.offer(hello)
	s.clients.add(c)
	s.pubMu.Unlock()
	s.log.Info().Str("client", c.id).Str("remote", r.RemoteAddr).Msg("feed subscriber connected")

	go c.writePump()
	c.readPump()

	s.clients.remove(c.id)
	s.log.Info().Str("client", c.id).Msg("feed subscriber disconnected")
}

func (s *Server) accounts() []domain.AccountStatus {
	s.mu.RLock()
	status := s.status
	s.mu.RUnlock()
	if status == nil {
		return []domain.AccountStatus{}
	}
	return status()
}

// requireToken rejects requests that do not carry the feed token as a
// bearer header or a token query parameter.
func (s *Server) requireToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.token == "" {
			next(w, r)
			return
		}
		got := r.URL.Query().Get("token")
		if h := r.Header.Get("Authorization"); h != "" {
			got = strings.TrimPrefix(h, "Bearer ")
		}
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.token)) != 1 {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next(w, r)
	}
}

// checkOrigin accepts requests without an Origin header (non-browser
// clients) and browser requests from an allowed origin.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return isOriginAllowed(origin, s.cfg.AllowedOrigins)
}

func (s *Server) publish(n domain.Notification) {
	s.pubMu.Lock()
	n.Timestamp = s.now()
	s.seq++
	f := Frame{Type: FrameNotification, Seq: s.seq, Notification: &n}
	slow := s.clients.broadcast(f)
	s.pubMu.Unlock()

	for _, c := range slow {
		s.log.Warn().Str("client", c.id).Msg("dropping slow feed subscriber")
		s.clients.remove(c.id)
		c.close()
	}
}

func (s *Server) Error(ic *domain.ConnectionContext, reason string) {
	s.publish(domain.Notification{Kind: domain.NotifyError, AccountID: ic.AccountID, Reason: reason})
}

func (s *Server) Disconnected(ic *domain.ConnectionContext, allowReconnect bool) {
	s.publish(domain.Notification{Kind: domain.NotifyDisconnected, AccountID: ic.AccountID, AllowReconnect: allowReconnect})
}

func (s *Server) Connected(ic *domain.ConnectionContext) {
	s.publish(domain.Notification{Kind: domain.NotifyConnected, AccountID: ic.AccountID})
}

func (s *Server) BuddyAdded(ic *domain.ConnectionContext, name, group string) {
	s.publish(domain.Notification{Kind: domain.NotifyBuddyAdded, AccountID: ic.AccountID, Name: name, Group: group})
}

func (s *Server) BuddyRemoved(ic *domain.ConnectionContext, name, group string) {
	s.publish(domain.Notification{Kind: domain.NotifyBuddyRemoved, AccountID: ic.AccountID, Name: name, Group: group})
}

func (s *Server) MessageReceived(ic *domain.ConnectionContext, name, message string) {
	s.publish(domain.Notification{Kind: domain.NotifyMessageReceived, AccountID: ic.AccountID, Name: name, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
