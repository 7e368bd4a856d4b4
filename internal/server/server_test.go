package server

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jpalmerr/sensorboard/internal/surface"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(s surface.Surface, assets fs.FS, page Page) *Server {
	return NewServer(s, 0, assets, page, nil, testLogger())
}

// mockFS implements fs.ReadFileFS for testing dashboard rendering.
type mockFS struct {
	content string
}

func (m *mockFS) Open(name string) (fs.File, error) {
	return nil, fs.ErrNotExist
}

func (m *mockFS) ReadFile(name string) ([]byte, error) {
	if name == "assets/index.html" {
		return []byte(m.content), nil
	}
	return nil, fs.ErrNotExist
}

// --- SSE ---

func TestHandleSSE_SendsCurrentContent(t *testing.T) {
	s := surface.NewMemorySurface()
	s.Write(surface.Content{ID: "readings", Body: "24.5C / 60%", Seq: 4})

	srv := newTestServer(s, nil, Page{})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/sse", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	srv.handleSSE(rec, req)

	body := rec.Body.String()
	if !strings.HasPrefix(body, "data: ") {
		t.Fatalf("expected SSE data line, got: %q", body)
	}
	var got surface.Content
	line := strings.TrimSpace(strings.TrimPrefix(strings.SplitN(body, "\n", 2)[0], "data: "))
	if err := json.Unmarshal([]byte(line), &got); err != nil {
		t.Fatalf("invalid JSON in SSE event: %v", err)
	}
	if got.ID != "readings" || got.Body != "24.5C / 60%" || got.Seq != 4 {
		t.Errorf("event = %+v, want readings/24.5C / 60%%/4", got)
	}
}

func TestHandleSSE_StreamsWrites(t *testing.T) {
	s := surface.NewMemorySurface()
	srv := newTestServer(s, nil, Page{})

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/sse", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		srv.handleSSE(rec, req)
		close(done)
	}()

	// give handler time to subscribe
	time.Sleep(50 * time.Millisecond)
	s.Write(surface.Content{ID: "readings", Body: "<b>19.9C</b>"})
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler did not exit after context cancellation")
	}

	// markup survives the JSON round trip untouched
	for _, line := range strings.Split(rec.Body.String(), "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var c surface.Content
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &c); err != nil {
			t.Fatalf("invalid JSON in SSE event: %v", err)
		}
		if c.Body == "<b>19.9C</b>" {
			return
		}
	}
	t.Errorf("streamed write not found in: %s", rec.Body.String())
}

func TestHandleSSE_Headers(t *testing.T) {
	srv := newTestServer(surface.NewMemorySurface(), nil, Page{})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/sse", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	srv.handleSSE(rec, req)

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("Cache-Control = %q, want no-cache", cc)
	}
}

func TestHandleSSE_EmptySurfaceSendsHeaders(t *testing.T) {
	srv := newTestServer(surface.NewMemorySurface(), nil, Page{})

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/sse", nil)
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /api/sse on empty surface error = %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}
}

// nonFlusher is a ResponseWriter without http.Flusher.
type nonFlusher struct {
	header http.Header
	code   int
}

func (n *nonFlusher) Header() http.Header         { return n.header }
func (n *nonFlusher) Write(b []byte) (int, error) { return len(b), nil }
func (n *nonFlusher) WriteHeader(code int)        { n.code = code }

func TestHandleSSE_SSENotSupported(t *testing.T) {
	srv := newTestServer(surface.NewMemorySurface(), nil, Page{})

	w := &nonFlusher{header: make(http.Header)}
	srv.handleSSE(w, httptest.NewRequest(http.MethodGet, "/api/sse", nil))

	if w.code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.code)
	}
}

func TestHandleSSE_ConcurrentClientsShutdown(t *testing.T) {
	s := surface.NewMemorySurface()
	s.Write(surface.Content{ID: "readings", Body: "x"})
	srv := newTestServer(s, nil, Page{})

	serverCtx, serverCancel := context.WithCancel(context.Background())

	const numClients = 10
	var wg sync.WaitGroup
	started := make(chan struct{})
	var startedCount atomic.Int32

	for i := 0; i < numClients; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodGet, "/api/sse", nil).WithContext(serverCtx)
			rec := httptest.NewRecorder()
			if startedCount.Add(1) == numClients {
				close(started)
			}
			srv.handleSSE(rec, req)
		}()
	}

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("clients did not start in time")
	}
	time.Sleep(100 * time.Millisecond)
	serverCancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("not all handlers exited after shutdown")
	}
}

func TestHandleSSE_NoGoroutineLeaks(t *testing.T) {
	runtime.GC()
	time.Sleep(100 * time.Millisecond)
	before := runtime.NumGoroutine()

	srv := newTestServer(surface.NewMemorySurface(), nil, Page{})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			req := httptest.NewRequest(http.MethodGet, "/api/sse", nil).WithContext(ctx)
			srv.handleSSE(httptest.NewRecorder(), req)
		}()
	}
	wg.Wait()

	runtime.GC()
	time.Sleep(200 * time.Millisecond)

	after := runtime.NumGoroutine()
	if after > before+2 {
		t.Errorf("potential goroutine leak: before=%d, after=%d", before, after)
	}
}

func TestServer_SSEIntegration(t *testing.T) {
	s := surface.NewMemorySurface()
	srv := newTestServer(s, nil, Page{})

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/sse")
	if err != nil {
		t.Fatalf("GET /api/sse error = %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	go func() {
		time.Sleep(50 * time.Millisecond)
		s.Write(surface.Content{ID: "readings", Body: "22.1C / 55%"})
	}()

	events := make(chan surface.Content, 1)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			var c surface.Content
			if json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &c) == nil {
				events <- c
				return
			}
		}
	}()

	select {
	case c := <-events:
		if c.Body != "22.1C / 55%" {
			t.Errorf("Body = %q, want %q", c.Body, "22.1C / 55%")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no SSE event received")
	}
}

// --- Snapshot API ---

func TestHandleSurface_ReturnsContents(t *testing.T) {
	s := surface.NewMemorySurface()
	s.Write(surface.Content{ID: "readings", Body: "24.5C / 60%"})
	srv := newTestServer(s, nil, Page{})

	rec := httptest.NewRecorder()
	srv.handleSurface(rec, httptest.NewRequest(http.MethodGet, "/api/surface", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got []surface.Content
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(got) != 1 || got[0].Body != "24.5C / 60%" {
		t.Errorf("contents = %+v, want one readings entry", got)
	}
}

func TestHandleSurface_EmptyIsArray(t *testing.T) {
	srv := newTestServer(surface.NewMemorySurface(), nil, Page{})

	rec := httptest.NewRecorder()
	srv.handleSurface(rec, httptest.NewRequest(http.MethodGet, "/api/surface", nil))

	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("body = %q, want []", got)
	}
}

func TestHandleSurface_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(surface.NewMemorySurface(), nil, Page{})

	rec := httptest.NewRecorder()
	srv.handleSurface(rec, httptest.NewRequest(http.MethodPost, "/api/surface", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

// --- Metrics ---

func TestHandler_MetricsRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "sensorboard_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()

	srv := NewServer(surface.NewMemorySurface(), 0, nil, Page{}, reg, testLogger())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if !strings.Contains(rec.Body.String(), "sensorboard_test_total 1") {
		t.Errorf("metrics output missing counter: %s", rec.Body.String())
	}
}

func TestHandler_NoMetricsWithoutGatherer(t *testing.T) {
	srv := newTestServer(surface.NewMemorySurface(), nil, Page{})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

// --- Start ---

func TestStart_AvailablePort_ReturnsNil(t *testing.T) {
	srv := newTestServer(surface.NewMemorySurface(), nil, Page{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := srv.Start(ctx); err != nil {
		t.Errorf("Start() on available port returned error: %v", err)
	}
}

func TestStart_PortInUse_ReturnsError(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("failed to create listener: %v", err)
	}
	defer func() { _ = ln.Close() }()

	port := ln.Addr().(*net.TCPAddr).Port
	srv := NewServer(surface.NewMemorySurface(), port, nil, Page{}, nil, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err = srv.Start(ctx)
	if err == nil {
		t.Fatal("Start() on occupied port should return error")
	}
	if !strings.Contains(err.Error(), "failed to bind") {
		t.Errorf("expected bind error, got: %v", err)
	}
}

func TestStart_InvalidPort_ReturnsError(t *testing.T) {
	srv := NewServer(surface.NewMemorySurface(), -1, nil, Page{}, nil, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := srv.Start(ctx); err == nil {
		t.Fatal("Start() with invalid port should return error")
	}
}

// --- Dashboard ---

func TestHandleDashboard_Substitutions(t *testing.T) {
	assets := &mockFS{content: `<title>{{.Title}}</title><div id="{{.SurfaceID}}"></div>`}
	srv := newTestServer(surface.NewMemorySurface(), assets, Page{Title: "Greenhouse", SurfaceID: "sensor-1"})

	rec := httptest.NewRecorder()
	srv.handleDashboard(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	body := rec.Body.String()
	if !strings.Contains(body, "<title>Greenhouse</title>") {
		t.Errorf("expected custom title, got: %s", body)
	}
	if !strings.Contains(body, `<div id="sensor-1"></div>`) {
		t.Errorf("expected custom surface id, got: %s", body)
	}
}

func TestHandleDashboard_Defaults(t *testing.T) {
	assets := &mockFS{content: `<title>{{.Title}}</title><div id="{{.SurfaceID}}"></div>`}
	srv := newTestServer(surface.NewMemorySurface(), assets, Page{})

	rec := httptest.NewRecorder()
	srv.handleDashboard(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	body := rec.Body.String()
	if !strings.Contains(body, "<title>SensorBoard</title>") {
		t.Errorf("expected default title, got: %s", body)
	}
	if !strings.Contains(body, `<div id="readings"></div>`) {
		t.Errorf("expected default readings element, got: %s", body)
	}
}

func TestHandleDashboard_EscapesValues(t *testing.T) {
	assets := &mockFS{content: `<title>{{.Title}}</title><div id="{{.SurfaceID}}"></div>`}
	srv := newTestServer(surface.NewMemorySurface(), assets, Page{
		Title:     "<script>alert('xss')</script>",
		SurfaceID: `x" onload="alert(1)`,
	})

	rec := httptest.NewRecorder()
	srv.handleDashboard(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	body := rec.Body.String()
	if strings.Contains(body, "<script>") {
		t.Error("title should be HTML-escaped")
	}
	if strings.Contains(body, `x" onload`) {
		t.Error("surface id should be HTML-escaped")
	}
}

func TestHandleDashboard_NotFound(t *testing.T) {
	srv := newTestServer(surface.NewMemorySurface(), nil, Page{})

	rec := httptest.NewRecorder()
	srv.handleDashboard(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestHandleDashboard_NonRootPath(t *testing.T) {
	srv := newTestServer(surface.NewMemorySurface(), &mockFS{content: "x"}, Page{})

	rec := httptest.NewRecorder()
	srv.handleDashboard(rec, httptest.NewRequest(http.MethodGet, "/other", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
