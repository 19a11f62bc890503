// Package gemini is a small REST client for the Gemini generateContent API.
//
// Only the two calls the classifier needs are implemented: a lightweight
// model listing used as a credential probe, and a single-turn text
// generation with fixed sampling and safety settings.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-1.5-flash"
	defaultTimeout = 120 * time.Second
	maxErrorBody   = 4 << 10
)

// Client talks to one model on one endpoint. It is safe for concurrent use.
type Client struct {
	baseURL string
	model   string
	http    *http.Client
	log     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another endpoint, e.g. a test server.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithModel selects the model used by Generate.
func WithModel(m string) Option {
	return func(c *Client) {
		if m != "" {
			c.model = strings.TrimPrefix(m, "models/")
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http = &http.Client{Timeout: d}
		}
	}
}

// WithLogger sets the logger; slog.Default is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New returns a client for DefaultModel at DefaultBaseURL unless overridden.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		model:   DefaultModel,
		http:    &http.Client{Timeout: defaultTimeout},
		log:     slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

// Ping lists a single model to confirm the key is accepted.
func (c *Client) Ping(ctx context.Context, apiKey string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models?pageSize=1", nil)
	if err != nil {
		return fmt.Errorf("gemini: build request: %w", err)
	}
	var out struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := c.do(req, apiKey, &out); err != nil {
		return err
	}
	c.log.Debug("gemini: connectivity ok", "models", len(out.Models))
	return nil
}

// Generate sends prompt as a single user turn and returns the raw response.
// A blocked prompt or an empty candidate list is not an error here; callers
// inspect the Response.
func (c *Client) Generate(ctx context.Context, apiKey, prompt string) (*Response, error) {
	body, err := json.Marshal(newRequest(prompt))
	if err != nil {
		return nil, fmt.Errorf("gemini: marshal: %w", err)
	}
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gemini: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out Response
	start := time.Now()
	if err := c.do(req, apiKey, &out); err != nil {
		return nil, err
	}
	c.log.Debug("gemini: generate done", "model", c.model, "candidates", len(out.Candidates), "elapsed", time.Since(start))
	return &out, nil
}

func (c *Client) do(req *http.Request, apiKey string, out any) error {
	req.Header.Set("x-goog-api-key", apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return ctxErr
		}
		return &TransportError{Op: req.Method + " " + req.URL.Path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return parseAPIError(resp.StatusCode, raw)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &DecodeError{Op: "decode " + req.URL.Path, Err: err}
	}
	return nil
}
