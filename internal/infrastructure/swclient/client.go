// Package swclient talks to the worker endpoints of a running ventas server.
// It implements the bootstrap registrar and cleaner for remote foregrounds
// and reads the worker event stream.
package swclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	appoffline "github.com/Erickgiber/debts-my-clients/internal/application/offline"
	"github.com/Erickgiber/debts-my-clients/internal/domain/offline"
	"go.uber.org/zap"
)

const maxErrorBody = 64 << 10

// APIError is a non-2xx answer from the server
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("server answered %d", e.Status)
	}
	return fmt.Sprintf("server answered %d %s: %s", e.Status, e.Code, e.Message)
}

// Unwrap maps known codes back to domain errors
func (e *APIError) Unwrap() error {
	switch e.Code {
	case "ERR_NO_WAITING_WORKER":
		return offline.ErrNoWaitingWorker
	case "ERR_OFFLINE":
		return offline.ErrNavigationUnavailable
	}
	return nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// CacheList is the bucket listing of the server's cache storage
type CacheList struct {
	Prefix  string   `json:"prefix"`
	Buckets []string `json:"buckets"`
}

// Client is a worker endpoint client
type Client struct {
	base   *url.URL
	http   *http.Client
	stream *http.Client
	logger *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the client used for request/response calls
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a client for the server at baseURL
func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("server url %q must be http or https", baseURL)
	}
	c := &Client{
		base:   base,
		http:   &http.Client{Timeout: 60 * time.Second},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	// event streams have no overall deadline
	c.stream = &http.Client{Transport: c.http.Transport}
	return c, nil
}

func (c *Client) resolve(ref string) string {
	u, err := c.base.Parse(ref)
	if err != nil {
		return c.base.String() + ref
	}
	return u.String()
}

func (c *Client) do(ctx context.Context, method, ref string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.resolve(ref), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, ref, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode %s response: %w", ref, err)
	}
	if len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var env envelope
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if json.Unmarshal(data, &env) == nil && env.Error != nil {
		apiErr.Code = env.Error.Code
		apiErr.Message = env.Error.Message
	}
	return apiErr
}

// Register loads the worker script, which installs that version
func (c *Client) Register(ctx context.Context, scriptURL string) error {
	return c.do(ctx, http.MethodGet, scriptURL, nil, nil)
}

// Unregister retires every worker on the server
func (c *Client) Unregister(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/sw/registrations", nil, nil)
}

// DeletePrefix deletes every bucket under prefix
func (c *Client) DeletePrefix(ctx context.Context, prefix string) ([]string, error) {
	var out struct {
		Deleted []string `json:"deleted"`
	}
	ref := "/sw/caches?" + url.Values{"prefix": {prefix}}.Encode()
	if err := c.do(ctx, http.MethodDelete, ref, nil, &out); err != nil {
		return nil, err
	}
	return out.Deleted, nil
}

// ListCaches lists the buckets of the server's cache storage
func (c *Client) ListCaches(ctx context.Context) (*CacheList, error) {
	var out CacheList
	if err := c.do(ctx, http.MethodGet, "/sw/caches", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Status returns the registration slots
func (c *Client) Status(ctx context.Context) (*appoffline.Status, error) {
	var out appoffline.Status
	if err := c.do(ctx, http.MethodGet, "/sw/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Promote asks the waiting worker to take control. Without one it fails
// with offline.ErrNoWaitingWorker.
func (c *Client) Promote(ctx context.Context) (*appoffline.Status, error) {
	var out appoffline.Status
	if err := c.do(ctx, http.MethodPost, "/sw/promote", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PostMessage sends a foreground message to the live workers
func (c *Client) PostMessage(ctx context.Context, msg offline.Message) error {
	return c.do(ctx, http.MethodPost, "/sw/messages", msg, nil)
}
