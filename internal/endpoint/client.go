package endpoint

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"
)

// Service location.
const (
	EnvBaseURL     = "MARIMO_RUN_ENDPOINT"
	DefaultBaseURL = "http://localhost:6000"
	defaultTimeout = 10 * time.Minute
	keyLength      = 5
)

// Sentinel errors for client failures.
var (
	ErrRequest = errors.New("render service request failed")
	ErrStatus  = errors.New("render service rejected request")
	ErrOptions = errors.New("invalid execute options")
)

const keyLetters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Target names the app a call belongs to and whether lookups should return
// native Pandoc elements.
type Target struct {
	App           string
	MimeSensitive bool
}

// Response is the raw reply of the service.
type Response struct {
	Status int
	Body   string
}

// OK reports a 2xx status.
func (r Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Client talks to a render service.
type Client struct {
	baseURL string
	http    *http.Client
	key     func() string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
// Panics if c is nil.
func WithHTTPClient(c *http.Client) Option {
	if c == nil {
		panic("endpoint: nil http client")
	}
	return func(cl *Client) {
		cl.http = c
	}
}

// WithKeyFunc sets the generator of /run keys.
// Panics if fn is nil.
func WithKeyFunc(fn func() string) Option {
	if fn == nil {
		panic("endpoint: nil key func")
	}
	return func(cl *Client) {
		cl.key = fn
	}
}

// NewClient creates a Client for baseURL. An empty baseURL means
// DefaultBaseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
		key:     randomKey,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURLFromEnv returns the service URL from the environment.
func BaseURLFromEnv(getenv func(string) string) string {
	if v := strings.TrimSpace(getenv(EnvBaseURL)); v != "" {
		return v
	}
	return DefaultBaseURL
}

// BaseURL returns the service URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Post sends data to endpoint with the target's app and mime_sensitive
// fields merged in. Non-2xx replies are returned, not reported as errors.
func (c *Client) Post(ctx context.Context, t Target, endpoint string, data map[string]any) (Response, error) {
	body := make(map[string]any, len(data)+2)
	for k, v := range data {
		body[k] = v
	}
	body["app"] = t.App
	body["mime_sensitive"] = t.MimeSensitive

	payload, err := json.Marshal(body)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrRequest, err)
	}

	url := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrRequest, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrRequest, err)
	}
	defer func() { _ = resp.Body.Close() }()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("%w: reading reply: %v", ErrRequest, err)
	}
	return Response{Status: resp.StatusCode, Body: string(b)}, nil
}

// Health checks that the service answers GET /healthz.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequest, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequest, err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: healthz: %d", ErrStatus, resp.StatusCode)
	}
	return nil
}

// Run posts a cell under a fresh key and returns the key.
func (c *Client) Run(ctx context.Context, t Target, code string) (string, error) {
	key := c.key()
	resp, err := c.Post(ctx, t, "run", map[string]any{"code": code, "key": key})
	if err != nil {
		return "", err
	}
	if !resp.OK() {
		return "", fmt.Errorf("%w: run: %d %s", ErrStatus, resp.Status, strings.TrimSpace(resp.Body))
	}
	return key, nil
}

// Lookup returns the rendered fragment for key.
func (c *Client) Lookup(ctx context.Context, t Target, key string) (string, error) {
	resp, err := c.Post(ctx, t, "lookup", map[string]any{"key": strings.TrimSpace(key)})
	if err != nil {
		return "", err
	}
	return resp.Body, nil
}

// Execute builds the app with document options given as JSON. Empty
// options arrive from Lua as an array and are sent as an object.
func (c *Client) Execute(ctx context.Context, t Target, options string) (string, error) {
	opts, err := decodeOptions(options)
	if err != nil {
		return "", err
	}
	resp, err := c.Post(ctx, t, "execute", map[string]any{"options": opts})
	if err != nil {
		return "", err
	}
	return resp.Body, nil
}

// Dispatch performs one protocol step. run, execute and lookup consume
// payload; any other endpoint is posted without data.
func (c *Client) Dispatch(ctx context.Context, t Target, endpoint, payload string) (string, error) {
	switch endpoint {
	case "run":
		return c.Run(ctx, t, payload)
	case "execute":
		return c.Execute(ctx, t, payload)
	case "lookup":
		return c.Lookup(ctx, t, payload)
	}
	resp, err := c.Post(ctx, t, endpoint, nil)
	if err != nil {
		return "", err
	}
	return resp.Body, nil
}

func decodeOptions(s string) (map[string]any, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return map[string]any{}, nil
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOptions, err)
	}
	switch opts := v.(type) {
	case map[string]any:
		return opts, nil
	case []any, nil:
		return map[string]any{}, nil
	default:
		return nil, fmt.Errorf("%w: expected an object, got %T", ErrOptions, v)
	}
}

func randomKey() string {
	b := make([]byte, keyLength)
	for i := range b {
		b[i] = keyLetters[rand.IntN(len(keyLetters))]
	}
	return string(b)
}
