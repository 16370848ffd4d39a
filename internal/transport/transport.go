package transport

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/angeloszaimis/cluster-transport/internal/conn"
	"github.com/angeloszaimis/cluster-transport/internal/metrics"
	"github.com/angeloszaimis/cluster-transport/internal/pool"
	"github.com/angeloszaimis/cluster-transport/pkg/logger"
)

// DefaultRetryStatuses are the response codes treated as node unavailability
// unless the configuration overrides them.
var DefaultRetryStatuses = []int{
	http.StatusBadGateway,
	http.StatusServiceUnavailable,
	http.StatusGatewayTimeout,
}

// Config carries the retry policy of a Transport.
type Config struct {
	// MaxRetries is the total attempt budget per logical request, counting
	// the first try. Zero means one attempt per pooled connection.
	MaxRetries int

	// RetryStatuses is the set of response codes that mark a node dead and
	// trigger a retry. Nil means DefaultRetryStatuses.
	RetryStatuses []int
}

// Transport executes logical requests against the cluster. It is safe for
// concurrent use; retries within one request are sequential.
type Transport struct {
	pool          *pool.Pool
	maxRetries    int
	retryStatuses map[int]struct{}
	logger        *slog.Logger
	trace         *slog.Logger
	collector     *metrics.Collector

	mutex    sync.Mutex
	lastConn *conn.Conn
}

// New creates a transport over the given pool. The trace logger may be nil;
// the collector may be nil to disable event emission.
func New(p *pool.Pool, cfg Config, log *slog.Logger, trace *slog.Logger, collector *metrics.Collector) *Transport {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = p.Len()
	}
	if cfg.MaxRetries <= 0 {
		// Empty pool; one pass is enough to surface ErrNoConnections.
		cfg.MaxRetries = 1
	}
	if cfg.RetryStatuses == nil {
		cfg.RetryStatuses = DefaultRetryStatuses
	}
	if trace == nil {
		trace = logger.NewTrace(false, "")
	}

	retryStatuses := make(map[int]struct{}, len(cfg.RetryStatuses))
	for _, status := range cfg.RetryStatuses {
		retryStatuses[status] = struct{}{}
	}

	return &Transport{
		pool:          p,
		maxRetries:    cfg.MaxRetries,
		retryStatuses: retryStatuses,
		logger:        log,
		trace:         trace,
		collector:     collector,
	}
}

// Execute runs one logical request: select a connection, perform the
// exchange, retry on another connection after a transport-level failure or
// a retryable status. The response of the first non-retryable exchange is
// returned as-is, whatever its status code.
//
// Only pool.ErrNoConnections, *MaxRetriesError and the caller's context
// error ever come back; connection-level failures stay inside the loop.
func (t *Transport) Execute(ctx context.Context, req *conn.Request) (*conn.Response, error) {
	var lastErr error

	for attempt := 1; attempt <= t.maxRetries; attempt++ {
		c, err := t.pool.Next()
		if err != nil {
			return nil, err
		}

		t.setLastConn(c)
		t.emit(metrics.Event{
			Type:      metrics.EventAttempt,
			Timestamp: time.Now(),
			Node:      c.URL().String(),
		})

		t.logger.Debug("Attempting request",
			slog.String("node", c.URL().String()),
			slog.String("method", req.Method),
			slog.String("path", req.Path),
			slog.Int("attempt", attempt))

		t.trace.Debug("Executing request",
			slog.String("node", c.URL().String()),
			slog.String("method", req.Method),
			slog.String("path", req.Path),
			slog.Int("attempt", attempt),
			slog.String("body", string(req.Body)))

		resp, err := c.Perform(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				// The caller gave up; the node is not at fault.
				return nil, ctx.Err()
			}

			t.logger.Warn("Node request failed",
				slog.String("node", c.URL().String()),
				slog.Int("attempt", attempt),
				slog.Any("err", err))

			lastErr = err
			t.markDead(c, attempt < t.maxRetries)
			continue
		}

		t.trace.Debug("Received response",
			slog.String("node", c.URL().String()),
			slog.Int("status", resp.StatusCode),
			slog.Duration("duration", resp.Duration),
			slog.String("body", string(resp.Body)))

		if t.retryable(resp.StatusCode) {
			t.logger.Warn("Node returned retryable status",
				slog.String("node", c.URL().String()),
				slog.Int("status", resp.StatusCode),
				slog.Int("attempt", attempt))

			lastErr = &RetryableStatusError{URL: c.URL(), StatusCode: resp.StatusCode}
			t.markDead(c, attempt < t.maxRetries)
			continue
		}

		t.markAlive(c)
		t.emit(metrics.Event{
			Type:       metrics.EventResponse,
			Timestamp:  time.Now(),
			Node:       c.URL().String(),
			Duration:   resp.Duration,
			StatusCode: resp.StatusCode,
		})

		return resp, nil
	}

	return nil, &MaxRetriesError{Attempts: t.maxRetries, Err: lastErr}
}

// Pool returns the connection pool backing this transport.
func (t *Transport) Pool() *pool.Pool {
	return t.pool
}

// LastConn returns the connection used by the most recent attempt of any
// Execute call, or nil before the first attempt.
func (t *Transport) LastConn() *conn.Conn {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.lastConn
}

func (t *Transport) setLastConn(c *conn.Conn) {
	t.mutex.Lock()
	t.lastConn = c
	t.mutex.Unlock()
}

func (t *Transport) retryable(status int) bool {
	_, ok := t.retryStatuses[status]
	return ok
}

func (t *Transport) markDead(c *conn.Conn, willRetry bool) {
	t.pool.MarkDead(c)

	node := c.URL().String()
	t.emit(metrics.Event{Type: metrics.EventNodeDead, Timestamp: time.Now(), Node: node})
	if willRetry {
		t.emit(metrics.Event{Type: metrics.EventRetry, Timestamp: time.Now(), Node: node})
	}
}

func (t *Transport) markAlive(c *conn.Conn) {
	t.pool.MarkAlive(c)
	t.emit(metrics.Event{Type: metrics.EventNodeAlive, Timestamp: time.Now(), Node: c.URL().String()})
}

func (t *Transport) emit(event metrics.Event) {
	if t.collector == nil {
		return
	}

	select {
	case t.collector.EventChannel() <- event:
	default:
	}
}
