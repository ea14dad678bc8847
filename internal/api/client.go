// Package api is the typed client of the remote expense REST API.
//
// Request is the single HTTP wrapper every resource method goes through: it
// resolves the path against a fixed base URL, JSON-encodes bodies, attaches
// the bearer token of the bound session and turns non-2xx responses into
// *RequestError. It never retries and never treats 401 specially; callers
// decide what an unauthorized response means for them.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tracker/internal/log"
)

// DefaultTimeout bounds a single call when the caller's context has no deadline.
const DefaultTimeout = 15 * time.Second

// Credentials supplies the bearer token for outgoing requests. An empty token
// means the request is sent unauthenticated.
type Credentials interface {
	BearerToken() string
}

// RequestOptions describes one call. Method defaults to GET; a non-nil Body is
// JSON-encoded.
type RequestOptions struct {
	Method string
	Header http.Header
	Body   any
}

func (o RequestOptions) method() string {
	if o.Method == "" {
		return http.MethodGet
	}
	return o.Method
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	creds      Credentials
	logger     *log.Logger
}

// NewClient returns an unauthenticated client. A nil httpClient gets one with
// DefaultTimeout.
func NewClient(baseURL string, httpClient *http.Client, logger *log.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger.WithComponent(log.ComponentAPI),
	}
}

// WithCredentials returns a copy of c bound to creds. The receiver is not
// modified, so one base client can serve many sessions.
func (c *Client) WithCredentials(creds Credentials) *Client {
	cp := *c
	cp.creds = creds
	return &cp
}

// BaseURL returns the API root the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Request performs one call and returns the raw JSON body. A 204 response or
// an empty body yields nil.
func (c *Client) Request(ctx context.Context, path string, opts RequestOptions) (json.RawMessage, error) {
	method := opts.method()
	url := c.baseURL + path

	var body io.Reader
	if opts.Body != nil {
		b, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, &TransportError{Op: "encode", Method: method, URL: url, Err: err}
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, &TransportError{Op: "build", Method: method, URL: url, Err: err}
	}
	req.Header = c.headers(opts.Header)
	if rid := log.RequestID(ctx); rid != "" {
		req.Header.Set("X-Request-ID", rid)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "API request failed",
			log.FieldMethod, method,
			log.FieldPath, path,
			log.FieldError, err.Error(),
			log.FieldErrorType, log.ErrorTypeNetwork)
		return nil, &TransportError{Op: "do", Method: method, URL: url, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "read", Method: method, URL: url, Err: err}
	}

	c.logger.DebugContext(ctx, "API request completed",
		log.FieldMethod, method,
		log.FieldPath, path,
		log.FieldStatusCode, resp.StatusCode,
		log.FieldDuration, time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newRequestError(resp, raw)
	}
	if resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	if !json.Valid(raw) {
		return nil, &TransportError{Op: "decode", Method: method, URL: url, Err: fmt.Errorf("malformed JSON body (%d bytes)", len(raw))}
	}
	return json.RawMessage(raw), nil
}

// headers merges the JSON defaults with the caller's headers; the caller wins.
func (c *Client) headers(extra http.Header) http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("Accept", "application/json")
	for k, vs := range extra {
		h.Del(k)
		for _, v := range vs {
			h.Add(k, v)
		}
	}
	if c.creds != nil {
		if token := c.creds.BearerToken(); token != "" {
			h.Set("Authorization", "Bearer "+token)
		}
	}
	return h
}

// do calls Request and decodes a non-empty body into out.
func (c *Client) do(ctx context.Context, path string, opts RequestOptions, out any) error {
	raw, err := c.Request(ctx, path, opts)
	if err != nil {
		return err
	}
	if raw == nil || out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &TransportError{Op: "decode", Method: opts.method(), URL: c.baseURL + path, Err: err}
	}
	return nil
}
