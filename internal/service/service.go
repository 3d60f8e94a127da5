package service

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/dshills/jsinspect"
)

// Protocol version reported by the version endpoint.
const protocolVersion = "1.2"

// ErrNotListening indicates an operation that requires an active listener.
var ErrNotListening = errors.New("service is not listening")

// Option configures a Service.
type Option func(*Service)

// WithLogger installs a logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithName sets the service name and description shown in target lists.
func WithName(name, description string) Option {
	return func(s *Service) {
		s.name = name
		if description != "" {
			s.description = description
		} else {
			s.description = name
		}
	}
}

// WithFavIcon sets the favicon URL advertised for every target.
func WithFavIcon(url string) Option {
	return func(s *Service) { s.favIconURL = url }
}

// WithVersion sets the engine version reported by the version endpoint.
func WithVersion(version string) Option {
	return func(s *Service) { s.version = version }
}

// Service serves debug targets over WebSocket plus the discovery endpoints.
type Service struct {
	log         *zap.Logger
	name        string
	description string
	favIconURL  string
	version     string

	upgrader websocket.Upgrader

	mu       sync.Mutex
	targets  map[string]*target
	port     int
	listener net.Listener
	server   *http.Server
}

// New creates an idle service.
func New(opts ...Option) *Service {
	s := &Service{
		log:         zap.NewNop(),
		name:        "JavaScript Instance",
		description: "JavaScript Instance",
		version:     "0.0.0",
		targets:     make(map[string]*target),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterHandler adds a debug target. An empty id is replaced with a
// generated one. Returns the target id.
func (s *Service) RegisterHandler(id string, handler *jsinspect.Handler, breakOnFirstLine bool) string {
	if id == "" {
		id = uuid.NewString()
	}

	s.mu.Lock()
	s.targets[id] = newTarget(id, handler, breakOnFirstLine, s.log)
	s.mu.Unlock()

	return id
}

// UnregisterHandler removes a debug target, disconnecting any attached
// frontend.
func (s *Service) UnregisterHandler(id string) {
	s.mu.Lock()
	t, ok := s.targets[id]
	delete(s.targets, id)
	s.mu.Unlock()

	if ok {
		t.disconnect()
	}
}

// Listen starts serving on 127.0.0.1:port.
func (s *Service) Listen(port uint16) error {
	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return fmt.Errorf("listen on port %d: %w", port, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/json/protocol", s.handleProtocol)
	mux.HandleFunc("/json/version", s.handleVersion)
	mux.HandleFunc("/json/list", s.handleList)
	mux.HandleFunc("/json", s.handleList)
	mux.HandleFunc("/", s.handleTarget)

	server := &http.Server{Handler: mux}

	s.mu.Lock()
	s.listener = listener
	s.server = server
	s.port = listener.Addr().(*net.TCPAddr).Port
	s.mu.Unlock()

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("serve", zap.Error(err))
		}
	}()

	s.log.Info("debug service listening", zap.Int("port", s.Port()))
	return nil
}

// Port returns the bound port, or zero before Listen.
func (s *Service) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

// Close stops listening and disconnects every attached frontend. Teardown
// is best effort.
func (s *Service) Close() error {
	s.mu.Lock()
	server := s.server
	s.server = nil
	s.listener = nil
	s.port = 0
	targets := make([]*target, 0, len(s.targets))
	for _, t := range s.targets {
		targets = append(targets, t)
	}
	s.mu.Unlock()

	for _, t := range targets {
		t.disconnect()
	}

	if server == nil {
		return ErrNotListening
	}
	return server.Close()
}

// handleTarget upgrades a WebSocket connection for the target named by the
// request path.
func (s *Service) handleTarget(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/")

	s.mu.Lock()
	t, ok := s.targets[id]
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade", zap.String("target", id), zap.Error(err))
		return
	}

	t.serve(conn)
}

func (s *Service) handleProtocol(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, "{}")
}

func (s *Service) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, versionJSON(s.version))
}

func (s *Service) handleList(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	port := s.port
	ids := make([]string, 0, len(s.targets))
	for id := range s.targets {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	writeJSON(w, targetListJSON(ids, port, s.name, s.description, s.favIconURL))
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write([]byte(body))
}
