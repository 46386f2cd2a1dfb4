package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/kbukum/podscribe/resilience"
)

// Request is one outbound call.
type Request struct {
	Method string
	// Path is joined to Config.BaseURL unless it is an absolute URL.
	Path    string
	Query   map[string]string
	Headers map[string]string
	// Body may be an io.Reader, []byte, string or a value to encode as JSON.
	Body any
	// Auth replaces Config.Auth for this call.
	Auth *AuthConfig
}

// Response is a fully buffered reply.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

func (r *Response) IsSuccess() bool { return r.StatusCode >= 200 && r.StatusCode < 300 }

// Header returns the first value of a response header, case-insensitively.
func (r *Response) Header(name string) string { return r.Headers.Get(name) }

// Client sends requests with the configured auth, TLS, retry and circuit
// breaker. Non-2xx replies come back as *Error alongside the response.
type Client struct {
	cfg  Config
	http *http.Client
	cb   *resilience.CircuitBreaker
}

func New(cfg Config) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	tlsCfg, err := cfg.TLS.Build()
	if err != nil {
		return nil, err
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if tlsCfg != nil {
		transport.TLSClientConfig = tlsCfg
	}

	c := &Client{cfg: cfg, http: &http.Client{Transport: transport, Timeout: cfg.Timeout}}
	if cfg.CircuitBreaker != nil {
		c.cb = resilience.NewCircuitBreaker(*cfg.CircuitBreaker)
	}
	return c, nil
}

// Do sends req, retrying per Config.Retry.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	once := func() (*Response, error) {
		if c.cb == nil {
			return c.send(ctx, req)
		}
		return resilience.Guard(ctx, c.cb, func(ctx context.Context) (*Response, error) {
			return c.send(ctx, req)
		})
	}
	if c.cfg.Retry == nil {
		return once()
	}
	return resilience.Retry(ctx, *c.cfg.Retry, once)
}

func (c *Client) send(ctx context.Context, req Request) (*Response, error) {
	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, NewTimeoutError(err)
		}
		return nil, NewConnectionError(err)
	}
	defer resp.Body.Close()

	limit := c.cfg.MaxResponseBytes
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, NewConnectionError(fmt.Errorf("read response body: %w", err))
	}
	if int64(len(body)) > limit {
		return nil, NewValidationError(fmt.Sprintf("response body exceeds %d bytes", limit))
	}

	out := &Response{StatusCode: resp.StatusCode, Headers: resp.Header, Body: body}
	if err := ClassifyStatusCode(resp.StatusCode, body); err != nil {
		return out, err
	}
	return out, nil
}

func (c *Client) newRequest(ctx context.Context, req Request) (*http.Request, error) {
	target, err := c.resolve(req.Path, req.Query)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("request url: %v", err))
	}
	body, contentType, err := encodeBody(req.Body)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("encode body: %v", err))
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("create request: %v", err))
	}

	for _, headers := range []map[string]string{c.cfg.Headers, req.Headers} {
		for k, v := range headers {
			httpReq.Header.Set(k, v)
		}
	}
	if contentType != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	auth := c.cfg.Auth
	if req.Auth != nil {
		auth = req.Auth
	}
	auth.apply(httpReq)
	return httpReq, nil
}

func (c *Client) resolve(path string, query map[string]string) (string, error) {
	target := path
	if c.cfg.BaseURL != "" && !strings.Contains(path, "://") {
		target = strings.TrimRight(c.cfg.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
	}
	if len(query) == 0 {
		return target, nil
	}
	u, err := url.Parse(target)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for k, v := range query {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func encodeBody(body any) (io.Reader, string, error) {
	switch v := body.(type) {
	case nil:
		return nil, "", nil
	case io.Reader:
		return v, "", nil
	case []byte:
		return bytes.NewReader(v), "", nil
	case string:
		return strings.NewReader(v), "text/plain", nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, "", err
	}
	return bytes.NewReader(data), "application/json", nil
}
