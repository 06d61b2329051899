package jsonapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// DefaultPort is the port the JSONAPI plugin listens on out of the box.
const DefaultPort = 20059

// Config holds the connection settings shared with the server.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	Salt     string
}

func (c Config) validate() error {
	required := []struct{ field, value string }{
		{"host", c.Host},
		{"username", c.Username},
		{"password", c.Password},
		{"salt", c.Salt},
	}
	for _, r := range required {
		if r.value == "" {
			return &ConfigError{Field: r.field, Reason: "must not be empty"}
		}
	}
	if c.Port < 1 || c.Port > 65535 {
		return &ConfigError{Field: "port", Reason: fmt.Sprintf("%d out of range 1-65535", c.Port)}
	}
	return nil
}

// Client calls methods on a JSONAPI server. It holds no mutable state and is
// safe for concurrent use.
type Client struct {
	config     Config
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client. Redirects are never
// followed regardless of the client's own policy.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout bounds each request, including reading the body.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger enables debug records for every request.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New validates cfg and returns a Client bound to it.
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	c := &Client{config: cfg}
	for _, opt := range opts {
		opt(c)
	}

	base := c.httpClient
	if base == nil {
		base = &http.Client{}
	}
	hc := *base
	hc.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	if c.timeout > 0 {
		hc.Timeout = c.timeout
	}
	c.httpClient = &hc

	return c, nil
}

// Config returns a copy of the client's connection settings.
func (c *Client) Config() Config {
	return c.config
}

// Call invokes a single method and returns the decoded response body.
// Numeric arguments and numeric strings are sent as floats.
func (c *Client) Call(ctx context.Context, method string, args ...any) (any, error) {
	target, err := c.BuildCallURL(method, NormalizeArgs(args)...)
	if err != nil {
		return nil, err
	}

	body, err := c.get(ctx, method, target)
	if err != nil {
		return nil, err
	}

	var result any
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &DecodeError{Body: snippet(body), Err: err}
	}
	return result, nil
}

// CallMultiple invokes methods[i] with argsList[i] in one request. A JSON
// array response yields one element per entry; a JSON object response is
// returned as the only element.
func (c *Client) CallMultiple(ctx context.Context, methods []string, argsList [][]any) ([]any, error) {
	if len(methods) != len(argsList) || len(methods) == 0 {
		return nil, &ArityMismatchError{Methods: len(methods), Args: len(argsList)}
	}

	normalized := make([][]any, len(argsList))
	for i, args := range argsList {
		normalized[i] = NormalizeArgs(args)
	}

	target, err := c.BuildMultiCallURL(methods, normalized)
	if err != nil {
		return nil, err
	}

	body, err := c.get(ctx, methods[0], target)
	if err != nil {
		return nil, err
	}

	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, &DecodeError{Body: snippet(body), Err: err}
	}

	switch v := decoded.(type) {
	case []any:
		return v, nil
	case map[string]any:
		return []any{v}, nil
	default:
		return nil, &DecodeError{
			Body: snippet(body),
			Err:  fmt.Errorf("expected array or object, got %T", decoded),
		}
	}
}

// get issues the GET and returns the raw body. Non-2xx responses are not
// errors; their bodies are decoded like any other.
func (c *Client) get(ctx context.Context, method, target string) ([]byte, error) {
	redacted := redactKey(target)
	callID := uuid.NewString()
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &TransportError{URL: redacted, Err: stripURL(err)}
	}

	c.debug(ctx, "sending request", "call_id", callID, "method", method, "url", redacted)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.debug(ctx, "request failed", "call_id", callID, "error", stripURL(err))
		return nil, &TransportError{URL: redacted, Err: stripURL(err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{URL: redacted, Err: fmt.Errorf("read body: %w", err)}
	}

	c.debug(ctx, "received response",
		"call_id", callID,
		"status", resp.StatusCode,
		"bytes", len(body),
		"elapsed", time.Since(start),
	)
	return body, nil
}

func (c *Client) debug(ctx context.Context, msg string, args ...any) {
	if c.logger == nil {
		return
	}
	c.logger.DebugContext(ctx, msg, args...)
}

// stripURL drops the *url.Error wrapper, whose message repeats the full URL
// including the key.
func stripURL(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return uerr.Err
	}
	return err
}
