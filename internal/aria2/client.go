// Package aria2 provides a minimal JSON-RPC client for the aria2 daemon,
// limited to the read-only status methods the monitor needs.
package aria2

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/okvee/aria2mon/internal/metrics"
)

const (
	// idPrefix tags every request id so calls are attributable in aria2 logs.
	idPrefix = "aria2mon"

	defaultPort    = 6800
	defaultTimeout = 10 * time.Second
)

// Config holds the connection settings for one aria2 endpoint. Immutable
// once the Client is constructed.
type Config struct {
	Host   string
	Port   int
	Secret string
	// Timeout bounds each RPC round trip. Zero means defaultTimeout.
	Timeout time.Duration
}

// Validate rejects configs we cannot build an endpoint URL from.
func (c Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("aria2: host is required")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("aria2: port %d out of range 1-65535", c.Port)
	}
	return nil
}

// URL returns the JSON-RPC endpoint for this config.
func (c Config) URL() *url.URL {
	return &url.URL{
		Scheme: "http",
		Host:   c.Host + ":" + strconv.Itoa(c.Port),
		Path:   "/jsonrpc",
	}
}

// RPCError is an error object carried inside a JSON-RPC response body, as
// opposed to a transport failure reaching the daemon at all.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("aria2 rpc error %d: %s", e.Code, e.Message)
}

// ErrorHandler observes protocol-level errors before they are returned.
type ErrorHandler func(code int, message string)

// Client issues JSON-RPC calls against a single aria2 endpoint. It is safe
// for concurrent use.
type Client struct {
	baseURL    *url.URL
	secret     string
	http       *http.Client
	log        *slog.Logger
	onRPCError ErrorHandler
}

// New builds a Client from cfg. A zero Port means the aria2 default 6800.
// The RPC-error handler defaults to logging the code and message.
func New(cfg Config) (*Client, error) {
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &Client{
		baseURL: cfg.URL(),
		secret:  cfg.Secret,
		http:    &http.Client{Timeout: timeout},
		log:     slog.Default(),
	}
	c.onRPCError = c.logRPCError
	return c, nil
}

// SetLogger wires a shared application logger into the client.
func (c *Client) SetLogger(l *slog.Logger) {
	if l != nil {
		c.log = l
	}
}

// SetErrorHandler replaces the default protocol-error handler.
func (c *Client) SetErrorHandler(h ErrorHandler) {
	if h != nil {
		c.onRPCError = h
	}
}

// BaseURL returns the endpoint this client posts to.
func (c *Client) BaseURL() *url.URL { return c.baseURL }

func (c *Client) logRPCError(code int, message string) {
	c.log.Error("aria2 rpc error", "code", code, "message", message)
}

// --- JSON-RPC wire types ---

type request struct {
	Jsonrpc string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params,omitempty"`
}

type response struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// tokenParams returns the leading "token:<secret>" parameter aria2 expects
// when a secret is configured.
func (c *Client) tokenParams() []any {
	if c.secret != "" {
		return []any{"token:" + c.secret}
	}
	return nil
}

// call posts one JSON-RPC request and returns the raw result. idSuffix, when
// non-empty, is appended to the request id to distinguish call sites.
// Protocol errors are passed to the error handler and returned as *RPCError.
func (c *Client) call(ctx context.Context, method, idSuffix string, params []any) (json.RawMessage, error) {
	timer := prometheus.NewTimer(metrics.RPCLatency.WithLabelValues(method))
	defer timer.ObserveDuration()

	id := idPrefix
	if idSuffix != "" {
		id += "-" + idSuffix
	}
	body, _ := json.Marshal(request{Jsonrpc: "2.0", ID: id, Method: method, Params: params})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RPCErrors.WithLabelValues(method).Inc()
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	b, _ := io.ReadAll(resp.Body)

	var rr response
	if err := json.Unmarshal(b, &rr); err != nil {
		metrics.RPCErrors.WithLabelValues(method).Inc()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("aria2 http %d: %s", resp.StatusCode, string(b))
		}
		return nil, fmt.Errorf("aria2 rpc decode: %w (%s)", err, string(b))
	}
	// aria2 pairs RPC errors with a 4xx status; the error object wins so
	// callers see a protocol error rather than transport noise.
	if rr.Error != nil {
		metrics.RPCErrors.WithLabelValues(method).Inc()
		c.onRPCError(rr.Error.Code, rr.Error.Message)
		return nil, rr.Error
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.RPCErrors.WithLabelValues(method).Inc()
		return nil, fmt.Errorf("aria2 http %d: %s", resp.StatusCode, string(b))
	}
	return rr.Result, nil
}
