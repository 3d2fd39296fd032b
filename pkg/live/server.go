package live

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	vmerrors "github.com/vango-dev/vmirror/internal/errors"
	"github.com/vango-dev/vmirror/pkg/engine"
	"github.com/vango-dev/vmirror/pkg/protocol"
	"github.com/vango-dev/vmirror/pkg/snapshot"
	"github.com/vango-dev/vmirror/pkg/vdom"
)

//go:embed client/vmirror.js
var clientFS embed.FS

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<div id="{{.Container}}"></div>
<script id="vmirror-listeners" type="application/json">{{.Listeners}}</script>
<script src="/client.js" data-container="{{.Container}}"></script>
</body>
</html>
`))

// ServerConfig configures a Server.
type ServerConfig struct {
	// Addr is the listen address (default: "localhost:7070").
	Addr string

	// Title is the page title (default: "vmirror").
	Title string

	// Gatherer serves /metrics (default: prometheus.DefaultGatherer).
	Gatherer prometheus.Gatherer

	// Snapshots enables POST /snapshot when set.
	Snapshots snapshot.Store

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Server serves a page mirroring an engine's committed tree, and streams
// mutation frames to it over a websocket.
//
// Routes:
//   - GET  /          page with the mount container and client script
//   - GET  /client.js client script
//   - GET  /ws        websocket carrying mutation, event and control frames
//   - GET  /markup    committed markup
//   - POST /snapshot  store the committed markup
//   - GET  /metrics   Prometheus metrics
//   - GET  /healthz   liveness
type Server struct {
	cfg       ServerConfig
	engine    *engine.Engine
	target    *Target
	listeners *Listeners
	upgrader  websocket.Upgrader
	router    chi.Router
	logger    *slog.Logger
}

// NewServer creates a server for e, which must write to target.
func NewServer(e *engine.Engine, target *Target, cfg ServerConfig) *Server {
	if cfg.Addr == "" {
		cfg.Addr = "localhost:7070"
	}
	if cfg.Title == "" {
		cfg.Title = "vmirror"
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	s := &Server{
		cfg:       cfg,
		engine:    e,
		target:    target,
		listeners: NewListeners(),
		logger:    cfg.Logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
	s.router = s.routes()
	return s
}

// Listeners returns the event listener registry.
func (s *Server) Listeners() *Listeners { return s.listeners }

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handlePage)
	r.Get("/client.js", s.handleClient)
	r.Get("/ws", s.handleWebSocket)
	r.Get("/markup", s.handleMarkup)
	r.Post("/snapshot", s.handleSnapshot)
	r.Handle("/metrics", promhttp.HandlerFor(s.cfg.Gatherer, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	return r
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.target.Hub().Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	listeners, err := json.Marshal(s.listeners.Registrations())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err = pageTemplate.Execute(w, map[string]any{
		"Title":     s.cfg.Title,
		"Container": s.target.container,
		"Listeners": template.JS(listeners),
	})
	if err != nil {
		s.logger.Error("render page", "error", err)
	}
}

func (s *Server) handleClient(w http.ResponseWriter, r *http.Request) {
	js, err := clientFS.ReadFile("client/vmirror.js")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	w.Write(js)
}

func (s *Server) handleMarkup(w http.ResponseWriter, r *http.Request) {
	markup, err := s.engine.Markup()
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(markup))
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Snapshots == nil {
		writeError(w, vmerrors.New("C123"))
		return
	}
	markup, err := s.engine.Markup()
	if err != nil {
		writeError(w, err)
		return
	}
	name, err := s.cfg.Snapshots.Save(r.Context(), []byte(markup))
	if err != nil {
		s.logger.Error("snapshot failed", "error", err)
		writeError(w, err)
		return
	}
	s.logger.Info("snapshot saved", "name", name, "bytes", len(markup))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"name": name})
}

// writeError answers with the JSON report of err.
func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(errorStatus(err))
	vmerrors.Fprint(w, err, vmerrors.StyleJSON)
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, vdom.ErrNotMounted):
		return http.StatusServiceUnavailable
	case errors.Is(err, vmerrors.New("C123")):
		return http.StatusNotImplemented
	}
	var ve *vmerrors.VmError
	if !errors.As(err, &ve) {
		// Store failures arrive as plain SDK or filesystem errors.
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	conn.SetReadLimit(protocol.FrameHeaderSize + protocol.MaxAllocation)

	var c *client
	s.engine.View(func(markup string, mounted bool) {
		c = s.target.Hub().attach(conn, s.target.ResetFrame(markup))
	})
	logger := s.logger.With("session", c.id)
	logger.Debug("client connected", "remote", r.RemoteAddr)
	defer func() {
		s.target.Hub().drop(c)
		logger.Debug("client disconnected")
	}()

	ctx := r.Context()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if err := s.handleFrame(ctx, c, data); err != nil {
			logger.Warn("frame rejected", "error", err)
			s.sendError(c, err)
		}
	}
}

// handleFrame processes one frame from a client.
func (s *Server) handleFrame(ctx context.Context, c *client, data []byte) error {
	f, err := protocol.DecodeFrame(data)
	if err != nil {
		return vmerrors.New("R011").Wrap(err)
	}
	switch f.Type {
	case protocol.FrameEvent:
		ev, err := protocol.DecodeEvent(f.Payload)
		if err != nil {
			return vmerrors.New("R011").Wrap(err)
		}
		return s.listeners.Dispatch(ctx, ev)
	case protocol.FrameControl:
		ctl, err := protocol.DecodeControl(f.Payload)
		if err != nil {
			return vmerrors.New("R011").Wrap(err)
		}
		if ctl.Type == protocol.ControlPing {
			pong := &protocol.Control{Type: protocol.ControlPong, Value: ctl.Value}
			s.target.Hub().queue(c, protocol.NewFrame(protocol.FrameControl, protocol.EncodeControl(pong)).Encode())
		}
		return nil
	default:
		return vmerrors.New("R011").WithDetailf("unexpected %s frame from client", f.Type)
	}
}

func (s *Server) sendError(c *client, err error) {
	em := &protocol.ErrorMessage{Message: err.Error()}
	var ve *vmerrors.VmError
	if errors.As(err, &ve) {
		em.Code = ve.Code
	}
	s.target.Hub().queue(c, protocol.NewFrame(protocol.FrameError, protocol.EncodeErrorMessage(em)).Encode())
}
