// Package live serves a livebind component over a websocket: every client
// action re-renders the component into a per-connection container and the
// resulting markup is sent back as a JSON frame.
package live

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/livefir/livebind"
	"github.com/livefir/livebind/internal/session"
)

// Component is the state behind one connection.
type Component interface {
	// Render describes the current view.
	Render() *livebind.TemplateResult
	// HandleAction applies a client action. FieldError and MultiError values
	// are reported per field; other errors under "_general".
	HandleAction(action string, data *ActionData) error
}

// Frame is one update sent to the client
type Frame struct {
	HTML string    `json:"html"`
	Meta *Metadata `json:"meta"`
}

// Metadata describes the action a frame answers
type Metadata struct {
	Success bool              `json:"success"`
	Errors  map[string]string `json:"errors,omitempty"`
	Action  string            `json:"action,omitempty"`
	Session string            `json:"session,omitempty"`
}

// Config configures the handler
type Config struct {
	NewComponent func() Component
	Logger       *zap.Logger
	Metrics      *livebind.Metrics
	Upgrader     *websocket.Upgrader
	Sessions     *session.Registry
	Minify       bool
	ContainerTag string
}

// Option is a functional option for configuring the handler
type Option func(*Config)

// WithLogger sets the handler and render logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithMetrics records render activity of every connection into m
func WithMetrics(m *livebind.Metrics) Option {
	return func(c *Config) {
		c.Metrics = m
	}
}

// WithMinify strips insignificant whitespace from frames
func WithMinify(enabled bool) Option {
	return func(c *Config) {
		c.Minify = enabled
	}
}

// WithUpgrader replaces the default websocket upgrader
func WithUpgrader(u *websocket.Upgrader) Option {
	return func(c *Config) {
		c.Upgrader = u
	}
}

// WithSessions records open connections in r
func WithSessions(r *session.Registry) Option {
	return func(c *Config) {
		c.Sessions = r
	}
}

// Handler serves the initial markup over HTTP GET and live updates over a
// websocket on the same path.
type Handler struct {
	config Config

	mu   sync.Mutex
	live map[string]*liveSession
}

// NewHandler creates a handler that builds one component per connection.
func NewHandler(newComponent func() Component, opts ...Option) *Handler {
	config := Config{
		NewComponent: newComponent,
		Logger:       zap.NewNop(),
		Upgrader: &websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		Sessions:     session.NewRegistry(),
		ContainerTag: "div",
	}

	for _, opt := range opts {
		opt(&config)
	}

	return &Handler{
		config: config,
		live:   make(map[string]*liveSession),
	}
}

// Sessions returns the registry of open websocket connections.
func (h *Handler) Sessions() *session.Registry {
	return h.config.Sessions
}

// CloseIdle closes the websocket connections without an action for longer
// than ttl and returns how many were closed.
func (h *Handler) CloseIdle(ttl time.Duration) int {
	closed := 0
	for _, id := range h.config.Sessions.Idle(ttl) {
		h.mu.Lock()
		s := h.live[id]
		h.mu.Unlock()
		if s == nil {
			continue
		}
		h.config.Logger.Info("closing idle session", zap.String("session", id))
		s.conn.Close()
		closed++
	}
	return closed
}

// SweepIdle calls CloseIdle every ttl/2 until ctx is done. A ttl of zero
// disables sweeping.
func (h *Handler) SweepIdle(ctx context.Context, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.CloseIdle(ttl)
		}
	}
}

func (h *Handler) track(s *liveSession) {
	h.mu.Lock()
	h.live[s.id] = s
	h.mu.Unlock()
}

func (h *Handler) untrack(s *liveSession) {
	h.mu.Lock()
	delete(h.live, s.id)
	h.mu.Unlock()
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if websocket.IsWebSocketUpgrade(r) {
		h.handleWebSocket(w, r)
		return
	}

	switch r.Method {
	case http.MethodHead:
		return
	case http.MethodGet:
		h.handleHTTP(w)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleHTTP(w http.ResponseWriter) {
	s := h.newSession(nil)
	defer s.close()

	frame, err := s.render("", nil)
	if err != nil {
		h.config.Logger.Error("initial render failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, frame.HTML)
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	logger := h.config.Logger

	conn, err := h.config.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	info, err := h.config.Sessions.Open(conn.RemoteAddr().String())
	if err != nil {
		logger.Error("failed to open session", zap.Error(err))
		return
	}
	defer h.config.Sessions.Close(info.ID)
	logger = logger.With(zap.String("session", info.ID))
	logger.Info("client connected", zap.String("remote", info.Remote))

	s := h.newSession(conn)
	s.id = info.ID
	defer s.close()
	h.track(s)
	defer h.untrack(s)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go s.push(ctx)

	s.mu.Lock()
	err = s.renderAndSend("", nil)
	s.mu.Unlock()
	if err != nil {
		logger.Error("failed to send initial frame", zap.Error(err))
		return
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("websocket read failed", zap.Error(err))
			}
			break
		}

		msg, err := parseMessage(data)
		if err != nil {
			logger.Warn("dropping malformed message", zap.Error(err))
			continue
		}

		h.config.Sessions.Touch(s.id)
		h.config.Metrics.IncrementCustomCounter(msg.Action)

		s.mu.Lock()
		actionErr := s.component.HandleAction(msg.Action, NewActionData(msg.Data))
		err = s.renderAndSend(msg.Action, actionErr)
		s.mu.Unlock()
		if err != nil {
			logger.Error("failed to send frame", zap.String("action", msg.Action), zap.Error(err))
			break
		}
	}

	logger.Info("client disconnected")
}

// liveSession is one connection: its component and the container it renders into.
type liveSession struct {
	id        string
	handler   *Handler
	conn      *websocket.Conn
	component Component
	container *html.Node
	queue     *livebind.TaskQueue
	wake      chan struct{}
	closed    atomic.Bool

	// mu serialises everything that touches the container.
	mu sync.Mutex
}

func (h *Handler) newSession(conn *websocket.Conn) *liveSession {
	return &liveSession{
		handler:   h,
		conn:      conn,
		component: h.config.NewComponent(),
		container: livebind.NewContainer(h.config.ContainerTag),
		queue:     livebind.NewTaskQueue(),
		wake:      make(chan struct{}, 1),
	}
}

// Schedule queues a future continuation and wakes the push loop. Tasks for
// a closed session are dropped.
func (s *liveSession) Schedule(task func()) {
	if s.closed.Load() {
		return
	}
	s.queue.Schedule(task)
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *liveSession) render(action string, actionErr error) (Frame, error) {
	config := s.handler.config
	err := livebind.Render(s.component.Render(), s.container,
		livebind.WithLogger(config.Logger),
		livebind.WithMetrics(config.Metrics),
		livebind.WithScheduler(s))
	if err != nil {
		return Frame{}, fmt.Errorf("render failed: %w", err)
	}

	// Futures that were already settled apply before the frame is taken.
	s.queue.Flush()
	return s.snapshot(action, actionErr)
}

func (s *liveSession) snapshot(action string, actionErr error) (Frame, error) {
	var markup string
	var err error
	if s.handler.config.Minify {
		markup, err = livebind.RenderMinifiedHTML(s.container)
	} else {
		markup, err = livebind.RenderHTML(s.container)
	}
	if err != nil {
		return Frame{}, err
	}

	errs := fieldErrors(actionErr)
	return Frame{
		HTML: markup,
		Meta: &Metadata{
			Success: len(errs) == 0,
			Errors:  errs,
			Action:  action,
			Session: s.id,
		},
	}, nil
}

// renderAndSend must be called with mu held.
func (s *liveSession) renderAndSend(action string, actionErr error) error {
	frame, err := s.render(action, actionErr)
	if err != nil {
		return err
	}
	return s.send(frame)
}

func (s *liveSession) send(frame Frame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("failed to marshal frame: %w", err)
	}
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// push sends a frame whenever settled futures change the tree outside of an
// action.
func (s *liveSession) push(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
		}

		s.mu.Lock()
		if s.queue.Flush() > 0 {
			frame, err := s.snapshot("", nil)
			if err == nil {
				err = s.send(frame)
			}
			if err != nil {
				s.handler.config.Logger.Warn("failed to push frame", zap.Error(err))
			}
		}
		s.mu.Unlock()
	}
}

func (s *liveSession) close() {
	s.closed.Store(true)
	livebind.Unmount(s.container)
}
