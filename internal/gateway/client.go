package gateway

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tidwall/gjson"

	"github.com/angelmondragon/bazaar-console/pkg/config"
	pkgerrors "github.com/angelmondragon/bazaar-console/pkg/errors"
	"github.com/angelmondragon/bazaar-console/pkg/logger"
	"github.com/angelmondragon/bazaar-console/pkg/metrics"
)

const (
	maxErrorBodyBytes    = 1 << 20
	maxSuccessBodyBytes  = 64 << 20
	maxBackendMessageLen = 512
)

// ErrEmptyBody marks a successful response that carried no entity.
var ErrEmptyBody = errors.New("empty response body")

// Client issues REST calls against the console backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logg       *logger.Logger
	metrics    *metrics.GatewayMetrics
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithLogger(logg *logger.Logger) Option {
	return func(c *Client) {
		if logg != nil {
			c.logg = logg
		}
	}
}

func WithMetrics(m *metrics.GatewayMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logg:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClientFromConfig builds a client whose transport honours the backend timeout and TLS settings.
func NewClientFromConfig(cfg config.BackendConfig, opts ...Option) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // dev backends use self-signed certs
	}
	hc := &http.Client{Transport: transport, Timeout: cfg.Timeout}
	return NewClient(cfg.BaseURL, append([]Option{WithHTTPClient(hc)}, opts...)...)
}

// BaseURL returns the normalised backend root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Request describes one backend call.
type Request struct {
	Resource  string
	Operation string
	Method    string
	Path      string
	Body      Body
	// AllowEmpty accepts a 2xx response without a body, leaving out untouched.
	AllowEmpty bool
}

// GetJSON performs a GET and decodes the JSON response into out.
func (c *Client) GetJSON(ctx context.Context, resource, operation, path string, out any) error {
	return c.Do(ctx, Request{Resource: resource, Operation: operation, Method: http.MethodGet, Path: path}, out)
}

// Do executes the request and decodes a successful response into out when out is non-nil.
// Transport failures map to NETWORK_ERROR, 404 to NOT_FOUND, other 4xx to VALIDATION_ERROR
// and 5xx or undecodable bodies to DEPENDENCY_ERROR.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	err := c.do(ctx, req, out)
	c.metrics.ObserveDuration(req.Resource, req.Operation, time.Since(start))

	logCtx := c.logg.WithFields(ctx, map[string]any{
		"resource":    req.Resource,
		"operation":   req.Operation,
		"method":      req.Method,
		"path":        req.Path,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	if err != nil {
		code := pkgerrors.CodeOf(err)
		c.metrics.IncFailure(req.Resource, req.Operation, string(code))
		switch code {
		case pkgerrors.CodeValidation, pkgerrors.CodeNotFound:
			c.logg.Warn(c.logg.WithField(logCtx, "error", err.Error()), "gateway.request.rejected")
		default:
			c.logg.Error(logCtx, "gateway.request.failed", err)
		}
		return err
	}
	c.logg.Debug(logCtx, "gateway.request.complete")
	return nil
}

func (c *Client) do(ctx context.Context, req Request, out any) error {
	target := c.baseURL + req.Path

	var (
		reader      io.Reader
		contentType string
	)
	if req.Body != nil {
		ct, r, err := req.Body.Encode()
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "encode request body")
		}
		contentType, reader = ct, r
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build backend request")
	}
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeNetwork, err, fmt.Sprintf("%s %s: backend unreachable", req.Method, req.Path))
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return statusError(req, target, resp.StatusCode, body)
	}

	if out == nil {
		return nil
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSuccessBodyBytes))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeNetwork, err, "read backend response")
	}
	if len(bytes.TrimSpace(body)) == 0 {
		if req.AllowEmpty {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, ErrEmptyBody, fmt.Sprintf("%s %s returned no content", req.Method, req.Path))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "malformed backend response")
	}
	return nil
}

func statusError(req Request, target string, status int, body []byte) error {
	upstream := &RequestError{
		Method:  req.Method,
		Target:  target,
		Status:  status,
		Message: backendMessage(body),
	}

	switch {
	case status == http.StatusNotFound:
		msg := upstream.Message
		if msg == "" {
			msg = fmt.Sprintf("%s not found", resourceLabel(req.Resource))
		}
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, upstream, msg)
	case status >= 400 && status < 500:
		msg := upstream.Message
		if msg == "" {
			msg = "the backend rejected the request"
		}
		wrapped := pkgerrors.Wrap(pkgerrors.CodeValidation, upstream, msg)
		if details := backendDetails(body); details != nil {
			wrapped = wrapped.WithDetails(details)
		}
		return wrapped
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, upstream, fmt.Sprintf("backend failed with status %d", status))
	}
}

// backendMessage extracts a human message from the error payloads the backend emits:
// {"message": ...}, ASP.NET problem details {"title": ..., "detail": ...}, a bare JSON string or plain text.
func backendMessage(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}
	if gjson.ValidBytes(trimmed) {
		parsed := gjson.ParseBytes(trimmed)
		if parsed.Type == gjson.String {
			return clip(parsed.String())
		}
		for _, path := range []string{"message", "title", "detail", "error.message", "error"} {
			if v := parsed.Get(path); v.Exists() && v.Type == gjson.String && strings.TrimSpace(v.String()) != "" {
				return clip(v.String())
			}
		}
		return ""
	}
	return clip(string(trimmed))
}

func backendDetails(body []byte) any {
	if !gjson.ValidBytes(body) {
		return nil
	}
	errs := gjson.GetBytes(body, "errors")
	if !errs.Exists() || !errs.IsObject() {
		return nil
	}
	return errs.Value()
}

func clip(msg string) string {
	msg = strings.TrimSpace(msg)
	if len(msg) <= maxBackendMessageLen {
		return msg
	}
	cut := maxBackendMessageLen
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}
	return msg[:cut]
}

func resourceLabel(resource string) string {
	if resource == "" {
		return "resource"
	}
	return resource
}

// RequestError describes a non-2xx backend response.
type RequestError struct {
	Method  string
	Target  string
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return fmt.Sprintf("%s %s: http %d: %s", e.Method, e.Target, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: http %d", e.Method, e.Target, e.Status)
}

func (e *RequestError) StatusCode() int {
	if e == nil {
		return 0
	}
	return e.Status
}

func (e *RequestError) URL() string {
	if e == nil {
		return ""
	}
	return e.Target
}

// Ping reports whether the backend answers HTTP at all; any status counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL, nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build ping request")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeNetwork, err, "backend unreachable")
	}
	_ = resp.Body.Close()
	return nil
}
