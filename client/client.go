// Package client talks to the marketplace REST API on behalf of a device.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ArcaneNova/annadata-client-sub001/api/middleware"
	"github.com/ArcaneNova/annadata-client-sub001/random"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"
)

// Error is a non 2xx answer of the remote API.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote api: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("remote api: %d %s", e.Status, e.Message)
}

// RemoteMessage is the explanation the remote API gave, safe to show.
func (e *Error) RemoteMessage() string { return e.Message }

func (e *Error) StatusCode() int { return e.Status }

// IsNotFound reports whether err is a remote 404.
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Status == http.StatusNotFound
}

type Client struct {
	base      *url.URL
	timeout   time.Duration
	transport http.RoundTripper
	http      *http.Client
}

type Option func(*Client)

// WithTransport replaces the base round tripper. Tracing still wraps it.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.transport = rt }
}

func New(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing remote url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("remote url %q must be absolute", baseURL)
	}

	c := &Client{
		base:      u,
		timeout:   timeout,
		transport: http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.transport = otelhttp.NewTransport(c.transport)
	c.http = &http.Client{Timeout: c.timeout, Transport: c.transport}
	return c, nil
}

// WithToken returns a client that sends token as a bearer credential. An
// empty token yields an anonymous client.
func (c *Client) WithToken(token string) *Client {
	if token == "" {
		return c
	}

	cp := *c
	cp.http = &http.Client{
		Timeout: c.timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   c.transport,
		},
	}
	return &cp
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return fmt.Errorf("building %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rid := middleware.ContextRequestID(ctx)
	if rid == "" {
		rid = random.RequestID("sf")
	}
	req.Header.Set(middleware.RequestIDHeader, rid)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("reading %s %s: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Status: resp.StatusCode, Message: remoteMessage(data)}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding %s %s: %w", method, path, err)
	}
	return nil
}

// remoteMessage digs the human message out of an error body, which the
// marketplace sends as either {"message": ...} or {"error": ...}.
func remoteMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}
