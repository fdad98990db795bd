package gemini

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

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/angelmondragon/bazaar-console/pkg/config"
	pkgerrors "github.com/angelmondragon/bazaar-console/pkg/errors"
)

const (
	defaultBaseURL             = "https://generativelanguage.googleapis.com"
	defaultModel               = "gemini-2.0-flash"
	apiVersion                 = "v1beta"
	responseBodyReadLimit int64 = 1 << 20
)

var errAPIKeyRequired = errors.New("gemini api key is required")

// GenerationConfig carries the static sampling parameters sent with every request.
type GenerationConfig struct {
	Temperature      float64 `json:"temperature"`
	TopP             float64 `json:"topP"`
	TopK             int     `json:"topK"`
	MaxOutputTokens  int     `json:"maxOutputTokens"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

// DefaultGenerationConfig mirrors the console's assistant settings.
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		Temperature:      1,
		TopP:             0.95,
		TopK:             40,
		MaxOutputTokens:  8192,
		ResponseMimeType: "text/plain",
	}
}

// Content is one conversation turn. Role is "user" or "model".
type Content struct {
	Role string
	Text string
}

// Client calls the generateContent endpoint of the Gemini API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	generation GenerationConfig
	limiter    *rate.Limiter
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the API endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

func WithModel(model string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(model); trimmed != "" {
			c.model = trimmed
		}
	}
}

func WithGenerationConfig(gc GenerationConfig) Option {
	return func(c *Client) {
		c.generation = gc
	}
}

// WithRequestsPerMinute paces outgoing calls. Zero or less disables pacing.
func WithRequestsPerMinute(rpm int) Option {
	return func(c *Client) {
		c.limiter = newLimiter(rpm)
	}
}

// NewClient builds a Gemini client given an API key.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	trimmedKey := strings.TrimSpace(apiKey)
	if trimmedKey == "" {
		return nil, errAPIKeyRequired
	}

	// No client timeout: a slow completion keeps the chat pending until it resolves.
	client := &Client{
		apiKey:     trimmedKey,
		baseURL:    defaultBaseURL,
		model:      defaultModel,
		generation: DefaultGenerationConfig(),
		httpClient: &http.Client{},
		limiter:    newLimiter(0),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// NewClientFromConfig builds a client from the console configuration.
func NewClientFromConfig(cfg config.GeminiConfig, opts ...Option) (*Client, error) {
	base := []Option{
		WithBaseURL(cfg.Endpoint),
		WithModel(cfg.Model),
		WithGenerationConfig(GenerationConfig{
			Temperature:      cfg.Temperature,
			TopP:             cfg.TopP,
			TopK:             cfg.TopK,
			MaxOutputTokens:  cfg.MaxOutputTokens,
			ResponseMimeType: cfg.ResponseMimeType,
		}),
		WithRequestsPerMinute(cfg.RequestsPerMinute),
	}
	return NewClient(cfg.APIKey, append(base, opts...)...)
}

func (c *Client) Model() string {
	return c.model
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig GenerationConfig `json:"generationConfig"`
}

// Generate sends history followed by a user turn carrying text and returns the model's reply.
func (c *Client) Generate(ctx context.Context, history []Content, text string) (string, error) {
	if c == nil {
		return "", pkgerrors.New(pkgerrors.CodeChat, "gemini client not configured")
	}
	if strings.TrimSpace(text) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "prompt text is required")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeChat, err, "waiting for gemini rate limit")
	}

	contents := make([]content, 0, len(history)+1)
	for _, turn := range history {
		role := turn.Role
		if role != "model" {
			role = "user"
		}
		contents = append(contents, content{Role: role, Parts: []part{{Text: turn.Text}}})
	}
	contents = append(contents, content{Role: "user", Parts: []part{{Text: text}}})

	payload, err := json.Marshal(generateRequest{Contents: contents, GenerationConfig: c.generation})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeChat, err, "marshal generate request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.generateURL(), bytes.NewReader(payload))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeChat, err, "build generate request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Goog-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeChat, err, "execute generate request")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeChat, err, "read generate response")
	}

	if resp.StatusCode != http.StatusOK {
		msg := gjson.GetBytes(body, "error.message").String()
		if msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeChat, fmt.Errorf("status %d: %s", resp.StatusCode, msg), "generate request failed").
			WithDetails(map[string]any{"status": resp.StatusCode})
	}

	if !gjson.ValidBytes(body) {
		return "", pkgerrors.New(pkgerrors.CodeChat, "malformed generate response")
	}

	var sb strings.Builder
	for _, p := range gjson.GetBytes(body, "candidates.0.content.parts.#.text").Array() {
		sb.WriteString(p.String())
	}
	if sb.Len() == 0 {
		if reason := gjson.GetBytes(body, "promptFeedback.blockReason").String(); reason != "" {
			return "", pkgerrors.New(pkgerrors.CodeChat, "prompt blocked: "+reason)
		}
		return "", pkgerrors.New(pkgerrors.CodeChat, "empty generate response")
	}
	return sb.String(), nil
}

func (c *Client) generateURL() string {
	trimmed := strings.TrimRight(c.baseURL, "/")
	return fmt.Sprintf("%s/%s/models/%s:generateContent", trimmed, apiVersion, url.PathEscape(c.model))
}

func newLimiter(rpm int) *rate.Limiter {
	if rpm <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)
}
