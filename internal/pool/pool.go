package pool

import (
	"errors"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/angeloszaimis/cluster-transport/internal/conn"
	"github.com/angeloszaimis/cluster-transport/internal/selector"
)

// ErrNoConnections is returned by Next when the pool holds no connections
// at all. A non-empty pool never returns it: when every connection is dead
// and backing off, Next falls back to a last-resort probe instead.
var ErrNoConnections = errors.New("no connections available")

const (
	DefaultBaseDelay = 5 * time.Second
	DefaultMaxDelay  = 60 * time.Second
)

// Config carries the pool policies: the selection algorithm and the revival
// backoff curve for dead connections.
type Config struct {
	Selector  selector.Selector
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// Pool owns an ordered set of connections. Selection and health transitions
// are serialized; the I/O of an exchange happens outside the pool's lock.
type Pool struct {
	mutex     sync.Mutex
	conns     []*conn.Conn
	selector  selector.Selector
	baseDelay time.Duration
	maxDelay  time.Duration
	logger    *slog.Logger
}

// New creates a pool over the given connections. Zero-valued config fields
// fall back to round-robin selection and the default backoff delays; a nil
// logger falls back to slog.Default.
func New(conns []*conn.Conn, cfg Config, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Selector == nil {
		cfg.Selector = selector.NewRoundRobinSelector()
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = DefaultMaxDelay
	}

	return &Pool{
		conns:     conns,
		selector:  cfg.Selector,
		baseDelay: cfg.BaseDelay,
		maxDelay:  cfg.MaxDelay,
		logger:    logger,
	}
}

// Next returns the connection to try for the next request: the selector's
// pick among alive connections and dead ones whose backoff has elapsed.
// When everything is dead and still backing off, the connection that has
// been dead the longest is returned as a probe, so a silently recovered
// node gets re-tried.
func (p *Pool) Next() (*conn.Conn, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if len(p.conns) == 0 {
		return nil, ErrNoConnections
	}

	eligible := p.eligibleConns(time.Now())
	if len(eligible) > 0 {
		if chosen := p.selector.Next(eligible); chosen != nil {
			return chosen, nil
		}
	}

	return p.oldestDead(), nil
}

// MarkAlive resets the connection's health after a successful exchange.
func (p *Pool) MarkAlive(c *conn.Conn) {
	if changed := c.MarkAlive(); changed {
		p.logger.Info("Node is back up",
			slog.String("node", c.URL().String()))
	}
}

// MarkDead records a failed exchange against the connection.
func (p *Pool) MarkDead(c *conn.Conn) {
	c.MarkDead()

	p.logger.Warn("Node marked dead",
		slog.String("node", c.URL().String()),
		slog.Int("failures", c.Failures()))
}

// Len returns the number of connections in the pool.
func (p *Pool) Len() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return len(p.conns)
}

// Conns returns a copy of the pool's connections in insertion order.
func (p *Pool) Conns() []*conn.Conn {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	conns := make([]*conn.Conn, len(p.conns))
	copy(conns, p.conns)
	return conns
}

// URLs returns the node endpoints in insertion order.
func (p *Pool) URLs() []*url.URL {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	urls := make([]*url.URL, len(p.conns))
	for i, c := range p.conns {
		urls[i] = c.URL()
	}
	return urls
}

func (p *Pool) eligibleConns(now time.Time) []*conn.Conn {
	eligible := make([]*conn.Conn, 0, len(p.conns))

	for _, c := range p.conns {
		if c.IsAlive() || p.revivable(c, now) {
			eligible = append(eligible, c)
		}
	}

	return eligible
}

func (p *Pool) revivable(c *conn.Conn, now time.Time) bool {
	return now.Sub(c.LastFailure()) >= p.backoff(c.Failures())
}

// backoff grows linearly with consecutive failures, capped at maxDelay.
func (p *Pool) backoff(failures int) time.Duration {
	delay := time.Duration(failures) * p.baseDelay
	if delay > p.maxDelay {
		return p.maxDelay
	}
	return delay
}

// oldestDead picks the connection with the oldest failure timestamp.
// Insertion order breaks ties.
func (p *Pool) oldestDead() *conn.Conn {
	oldest := p.conns[0]
	for _, c := range p.conns[1:] {
		if c.LastFailure().Before(oldest.LastFailure()) {
			oldest = c
		}
	}
	return oldest
}
