package conn

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"
)

// Performer executes a single HTTP exchange against a node. It is the sole
// I/O boundary of the transport layer: TLS, redirects, compression and raw
// socket handling all live behind this interface.
type Performer interface {
	Perform(ctx context.Context, req *Request) (*Response, error)
}

// PerformerFunc adapts a plain function to the Performer interface.
type PerformerFunc func(ctx context.Context, req *Request) (*Response, error)

func (f PerformerFunc) Perform(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Middleware wraps a Performer to inject behavior before or after the
// delegated exchange.
type Middleware func(Performer) Performer

// Wrap applies middlewares to p, first middleware outermost.
func Wrap(p Performer, middlewares ...Middleware) Performer {
	for i := len(middlewares) - 1; i >= 0; i-- {
		p = middlewares[i](p)
	}
	return p
}

// HTTPPerformer executes exchanges with a shared http.Client against a
// single node base URL. The base URL's path acts as a prefix for every
// request path.
type HTTPPerformer struct {
	base    *url.URL
	client  *http.Client
	timeout time.Duration
}

// NewHTTPPerformer creates a performer for the given node base URL. The
// timeout bounds each exchange unless the request carries its own.
func NewHTTPPerformer(base *url.URL, timeout time.Duration) *HTTPPerformer {
	return &HTTPPerformer{
		base: base,
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
		},
		timeout: timeout,
	}
}

func (p *HTTPPerformer) Perform(ctx context.Context, req *Request) (*Response, error) {
	timeout := p.timeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	u := *p.base
	u.Path = path.Join(p.base.Path, req.Path)
	if len(req.Params) > 0 {
		u.RawQuery = req.Params.Encode()
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), body)
	if err != nil {
		return nil, err
	}

	for key, values := range req.Header {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}

	start := time.Now()

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Status:     httpResp.Status,
		Header:     httpResp.Header,
		Body:       raw,
		Duration:   time.Since(start),
	}, nil
}
