package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/jpalmerr/sensorboard/internal/metrics"
	"github.com/jpalmerr/sensorboard/internal/surface"
)

// Surface is the write side of the display surface.
type Surface interface {
	Write(c surface.Content)
}

// Config describes what the poller reads and where it writes.
type Config struct {
	// URL is the absolute URL of the read endpoint.
	URL string

	// Headers are sent with every request.
	Headers map[string]string

	// Timeout bounds each request. Zero means no per-request timeout.
	Timeout time.Duration

	// Interval is the fixed tick period.
	Interval time.Duration

	// SurfaceID is the element the body is written to.
	SurfaceID string
}

// Result is the outcome of one tick.
type Result struct {
	// Seq is the tick sequence number, starting at 1 and assigned when the
	// tick fires.
	Seq uint64

	// URL is the URL that was requested.
	URL string

	// StatusCode is the HTTP status code, or zero if no response arrived.
	StatusCode int

	// Body is the raw response body.
	Body []byte

	// Latency is the request duration.
	Latency time.Duration

	// IssuedAt is when the tick fired.
	IssuedAt time.Time

	// Error is non-nil when the request did not complete.
	Error error

	// Applied reports whether Body was written to the surface.
	Applied bool
}

// Outcome classifies the result for logging and metrics.
func (r Result) Outcome() string {
	switch {
	case r.Applied:
		return metrics.OutcomeApplied
	case r.Error != nil:
		return metrics.OutcomeFailed
	default:
		return metrics.OutcomeDroppedStatus
	}
}

// Option configures a [Poller].
type Option func(*Poller)

// WithClock sets the clock used for the ticker and timestamps.
func WithClock(c clock.Clock) Option {
	return func(p *Poller) { p.clock = c }
}

// WithLogger sets the logger. Defaults to [slog.Default].
func WithLogger(l *slog.Logger) Option {
	return func(p *Poller) { p.logger = l }
}

// WithMetrics sets the metrics sink. A nil value disables metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Poller) { p.metrics = m }
}

// WithResultHook registers a function called with every [Result] after the
// surface decision has been made. Hooks run on the completing goroutine, so
// they may run concurrently with each other for overlapping ticks.
func WithResultHook(fn func(Result)) Option {
	return func(p *Poller) {
		if fn != nil {
			p.hooks = append(p.hooks, fn)
		}
	}
}

// Poller issues one read per tick and mirrors successful bodies onto the
// display surface.
//
// Poller is a lifecycle handle: [Poller.Start] begins ticking and
// [Poller.Stop] ends it, cancelling outstanding reads. All methods are safe
// for concurrent use.
type Poller struct {
	cfg     Config
	fetcher Fetcher
	surface Surface
	clock   clock.Clock
	logger  *slog.Logger
	metrics *metrics.Metrics
	hooks   []func(Result)

	seq atomic.Uint64

	// life is cancelled by Stop; every outstanding read observes it.
	life context.Context
	kill context.CancelFunc

	mu      sync.Mutex
	started bool
	stopped bool
	wg      sync.WaitGroup
}

// New creates a [Poller]. The poller does nothing until started or ticked.
func New(cfg Config, f Fetcher, s Surface, opts ...Option) (*Poller, error) {
	if f == nil {
		return nil, errors.New("poller: fetcher is required")
	}
	if s == nil {
		return nil, errors.New("poller: surface is required")
	}
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("poller: invalid url: %w", err)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("poller: url %q must be absolute", cfg.URL)
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if cfg.SurfaceID == "" {
		return nil, errors.New("poller: surface id is required")
	}

	p := &Poller{
		cfg:     cfg,
		fetcher: f,
		surface: s,
		clock:   clock.New(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.life, p.kill = context.WithCancel(context.Background())
	return p, nil
}

// Start begins the fixed-period ticker in a background goroutine.
//
// The first tick fires one interval after Start returns. Ticks continue until
// ctx is cancelled or [Poller.Stop] is called; failures never change the
// period. Start is idempotent and a no-op after Stop.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started || p.stopped {
		p.mu.Unlock()
		return
	}
	p.started = true
	if ctx == nil {
		ctx = context.Background()
	}
	// created before returning so a mock clock can be advanced right away
	ticker := p.clock.Ticker(p.cfg.Interval)
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-p.life.Done():
				return
			case <-ticker.C:
				p.Tick(ctx)
			}
		}
	}()
}

// Stop halts ticking, cancels outstanding reads and waits for their
// goroutines to return. Safe to call multiple times, and before Start.
func (p *Poller) Stop() {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()

	p.kill()
	p.wg.Wait()
}

// Tick fires one read-and-update cycle without waiting for it.
//
// The request runs on its own goroutine; its result is applied when it
// arrives, regardless of other ticks still outstanding. Tick is a no-op after
// Stop.
func (p *Poller) Tick(ctx context.Context) {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.wg.Add(1)
	p.mu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}
	p.metrics.TickStarted()
	seq := p.seq.Add(1)
	go func() {
		defer p.wg.Done()
		reqCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		stop := context.AfterFunc(p.life, cancel)
		defer stop()

		p.cycle(reqCtx, seq)
	}()
}

// Poll runs one read-and-update cycle and waits for its [Result].
// It shares the tick sequence but is not counted as a tick.
func (p *Poller) Poll(ctx context.Context) Result {
	if ctx == nil {
		ctx = context.Background()
	}
	return p.cycle(ctx, p.seq.Add(1))
}

// cycle issues the request and applies its single result.
func (p *Poller) cycle(ctx context.Context, seq uint64) Result {
	issuedAt := p.clock.Now()
	p.metrics.ReadStarted()
	resp := p.fetcher.Fetch(ctx, Request{
		URL:     p.cfg.URL,
		Headers: p.cfg.Headers,
		Timeout: p.cfg.Timeout,
	})

	res := Result{
		Seq:        seq,
		URL:        p.cfg.URL,
		StatusCode: resp.StatusCode,
		Body:       resp.Body,
		Latency:    resp.Latency,
		IssuedAt:   issuedAt,
		Error:      resp.Error,
	}

	// only a complete 200 response reaches the surface
	if res.Error == nil && res.StatusCode == http.StatusOK {
		p.surface.Write(surface.Content{
			ID:        p.cfg.SurfaceID,
			Body:      string(res.Body),
			Seq:       seq,
			UpdatedAt: p.clock.Now(),
		})
		res.Applied = true
	}

	p.metrics.ReadCompleted(res.Outcome(), res.Latency)
	p.logResult(res)
	for _, hook := range p.hooks {
		p.invokeHookSafe(hook, res)
	}
	return res
}

func (p *Poller) logResult(res Result) {
	attrs := []any{
		"seq", res.Seq,
		"outcome", res.Outcome(),
		"status_code", res.StatusCode,
		"latency_ms", res.Latency.Milliseconds(),
	}
	if res.Error != nil {
		attrs = append(attrs, "error", res.Error.Error())
	}
	p.logger.Debug("tick completed", attrs...)
}

// invokeHookSafe calls a result hook with panic recovery.
// The stack trace is logged under a correlation id; the panic does not
// propagate.
func (p *Poller) invokeHookSafe(hook func(Result), res Result) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("result hook panicked",
				"correlation_id", uuid.NewString(),
				"panic", fmt.Sprintf("%v", r),
				"seq", res.Seq,
				"stack", string(debug.Stack()),
			)
		}
	}()
	hook(res)
}
