package conn

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// Request is one logical exchange to be executed against a node. The body is
// held as a byte slice so that the transport can replay it on another node
// after a failure.
type Request struct {
	Method  string
	Path    string
	Params  url.Values
	Header  http.Header
	Body    []byte
	Timeout time.Duration
}

// Response is a fully read HTTP response from a node.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
	Duration   time.Duration
}

// Exchange is the diagnostics snapshot of the most recent Perform call.
// Response is nil and Err is set when the exchange could not be completed.
type Exchange struct {
	Request  *Request
	Response *Response
	Err      error
	At       time.Time
}

// Error reports a transport-level failure to complete an exchange with a
// node: timeout, refused connection, DNS, TLS. It never wraps a received
// HTTP response.
type Error struct {
	URL *url.URL
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("node %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Conn is a client-side handle to one cluster node. The identity is
// immutable after construction. Health state is mutated exclusively through
// MarkAlive and MarkDead, which the pool calls based on request outcomes.
type Conn struct {
	url       *url.URL
	performer Performer

	mutex       sync.Mutex
	alive       bool
	failures    int
	lastFailure time.Time
	last        Exchange
}

// New creates a connection for the given node URL performing exchanges
// through p. The connection starts alive.
func New(u *url.URL, p Performer) *Conn {
	return &Conn{
		url:       u,
		performer: p,
		alive:     true,
	}
}

// URL returns the node endpoint this connection points at.
func (c *Conn) URL() *url.URL {
	return c.url
}

// Perform executes one exchange against the node and overwrites the stored
// last-exchange diagnostics whether it succeeded or not. A returned error is
// always transport-level; any received HTTP response, whatever its status,
// comes back with a nil error. Status interpretation is the transport's job.
func (c *Conn) Perform(ctx context.Context, req *Request) (*Response, error) {
	resp, err := c.performer.Perform(ctx, req)
	if err != nil {
		err = &Error{URL: c.url, Err: err}
	}

	c.mutex.Lock()
	c.last = Exchange{
		Request:  req,
		Response: resp,
		Err:      err,
		At:       time.Now(),
	}
	c.mutex.Unlock()

	if err != nil {
		return nil, err
	}

	return resp, nil
}

// IsAlive reports the cached health flag. It performs no I/O.
func (c *Conn) IsAlive() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.alive
}

// MarkAlive resets the connection to healthy: failure count zeroed, last
// failure cleared. Returns true if the alive flag actually flipped.
func (c *Conn) MarkAlive() (changed bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	changed = !c.alive
	c.alive = true
	c.failures = 0
	c.lastFailure = time.Time{}
	return changed
}

// MarkDead records a failure: alive flag cleared, failure count incremented,
// failure time stamped. Returns true if the alive flag actually flipped.
func (c *Conn) MarkDead() (changed bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	changed = c.alive
	c.alive = false
	c.failures++
	c.lastFailure = time.Now()
	return changed
}

// Failures returns the number of consecutive failures since the connection
// was last marked alive.
func (c *Conn) Failures() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.failures
}

// LastFailure returns the time of the most recent MarkDead call, or the zero
// time if the connection has never failed since it was last marked alive.
func (c *Conn) LastFailure() time.Time {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.lastFailure
}

// LastExchange returns a copy of the most recent exchange diagnostics. All
// fields are zero-valued before the first Perform call.
func (c *Conn) LastExchange() Exchange {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.last
}
