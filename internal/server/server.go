package server

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jpalmerr/sensorboard/internal/surface"
)

const (
	// sseWriteTimeout is the maximum time allowed for a single SSE write.
	// Must be <= shutdown timeout so handlers exit before shutdown gives up.
	sseWriteTimeout = 5 * time.Second

	shutdownTimeout = 5 * time.Second

	defaultTitle     = "SensorBoard"
	defaultSurfaceID = "readings"

	titlePlaceholder   = "{{.Title}}"
	surfacePlaceholder = "{{.SurfaceID}}"
)

// Page holds the values substituted into the dashboard HTML.
type Page struct {
	// Title is shown in the browser tab and header. Defaults to "SensorBoard".
	Title string

	// SurfaceID is the id of the element that shows the reading.
	// Defaults to "readings".
	SurfaceID string
}

// Server serves the display surface to browsers.
//
// Routes:
//   - GET /: the embedded dashboard page
//   - GET /api/surface: current surface contents as JSON
//   - GET /api/sse: Server-Sent Events stream of surface writes
//   - GET /metrics: Prometheus exposition (when a gatherer is configured)
type Server struct {
	surface    surface.Surface
	port       int
	httpServer *http.Server
	assets     fs.FS
	page       Page
	gatherer   prometheus.Gatherer
	logger     *slog.Logger
}

// NewServer creates a new HTTP [Server].
//
// assets may be nil, in which case "/" is not served. gatherer may be nil, in
// which case "/metrics" is not served. The server is not started until
// [Server.Start] is called.
func NewServer(s surface.Surface, port int, assets fs.FS, page Page, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	if page.Title == "" {
		page.Title = defaultTitle
	}
	if page.SurfaceID == "" {
		page.SurfaceID = defaultSurfaceID
	}
	return &Server{
		surface:  s,
		port:     port,
		assets:   assets,
		page:     page,
		gatherer: gatherer,
		logger:   logger,
	}
}

// Handler returns the route multiplexer.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/surface", s.handleSurface)
	mux.HandleFunc("/api/sse", s.handleSSE)

	if s.gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	if s.assets != nil {
		mux.HandleFunc("/", s.handleDashboard)
	}
	return mux
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start returns once the listener is bound. The server runs until ctx is
// cancelled, then shuts down with a 5-second timeout.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// request contexts derive from ctx so SSE streams end on shutdown
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	return nil
}

// handleDashboard serves the main dashboard page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	if s.assets == nil {
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}

	content, err := fs.ReadFile(s.assets, "assets/index.html")
	if err != nil {
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}

	// both values are HTML-escaped; the surface id also lands in an attribute
	rendered := strings.NewReplacer(
		titlePlaceholder, html.EscapeString(s.page.Title),
		surfacePlaceholder, html.EscapeString(s.page.SurfaceID),
	).Replace(string(content))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err = w.Write([]byte(rendered)); err != nil {
		s.logger.Error("failed to write dashboard response", "error", err)
	}
}

// handleSurface returns all surface contents as JSON.
func (s *Server) handleSurface(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")

	if err := json.NewEncoder(w).Encode(s.surface.GetAll()); err != nil {
		s.logger.Error("failed to encode surface response", "error", err)
	}
}

// handleSSE streams surface writes via Server-Sent Events.
//
// Each write is bounded by a deadline so a stalled client cannot keep the
// handler from noticing shutdown.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	rc := http.NewResponseController(w)
	deadlinesSupported := true

	writeAndFlush := func(data []byte) error {
		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
				s.logger.Warn("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}

		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		return rc.Flush()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	// subscribe before the snapshot so no write falls between the two
	ch := s.surface.Subscribe()
	defer s.surface.Unsubscribe(ch)

	// commit headers now; the surface may stay empty for a long time
	if err := rc.Flush(); err != nil {
		return
	}

	for _, c := range s.surface.GetAll() {
		data, err := json.Marshal(c)
		if err != nil {
			continue
		}
		if err := writeAndFlush(data); err != nil {
			return
		}
	}

	for {
		select {
		case c, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(c)
			if err != nil {
				continue
			}
			if err := writeAndFlush(data); err != nil {
				return
			}

		case <-r.Context().Done():
			// fires on client disconnect and on server shutdown (BaseContext)
			return
		}
	}
}
