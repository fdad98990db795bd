package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App     AppConfig
	Backend BackendConfig
	Gemini  GeminiConfig
	Console ConsoleConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Backend.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BAZAAR_APP_ENV" default:"dev"`
	Port         string `envconfig:"BAZAAR_APP_PORT" default:"8090"`
	LogLevel     string `envconfig:"BAZAAR_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"BAZAAR_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"BAZAAR_LOG_WARN_STACK" default:"false"`

	ShutdownTimeout time.Duration `envconfig:"BAZAAR_APP_SHUTDOWN_TIMEOUT" default:"15s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// BackendConfig points the console at the product/user REST API.
type BackendConfig struct {
	BaseURL            string        `envconfig:"BAZAAR_BACKEND_BASE_URL" required:"true"`
	Timeout            time.Duration `envconfig:"BAZAAR_BACKEND_TIMEOUT" default:"30s"`
	InsecureSkipVerify bool          `envconfig:"BAZAAR_BACKEND_INSECURE_SKIP_VERIFY" default:"false"`
}

func (b *BackendConfig) validate() error {
	b.BaseURL = strings.TrimRight(strings.TrimSpace(b.BaseURL), "/")
	u, err := url.Parse(b.BaseURL)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", EnvBackendBaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) url, got %q", EnvBackendBaseURL, b.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("%s is missing a host", EnvBackendBaseURL)
	}
	return nil
}

// GeminiConfig holds the static generation parameters of the chat assistant.
// They are read once at startup and are not tunable at runtime.
type GeminiConfig struct {
	APIKey            string  `envconfig:"BAZAAR_GEMINI_API_KEY"`
	Endpoint          string  `envconfig:"BAZAAR_GEMINI_ENDPOINT" default:"https://generativelanguage.googleapis.com"`
	Model             string  `envconfig:"BAZAAR_GEMINI_MODEL" default:"gemini-2.0-flash"`
	Temperature       float64 `envconfig:"BAZAAR_GEMINI_TEMPERATURE" default:"1"`
	TopP              float64 `envconfig:"BAZAAR_GEMINI_TOP_P" default:"0.95"`
	TopK              int     `envconfig:"BAZAAR_GEMINI_TOP_K" default:"40"`
	MaxOutputTokens   int     `envconfig:"BAZAAR_GEMINI_MAX_OUTPUT_TOKENS" default:"8192"`
	ResponseMimeType  string  `envconfig:"BAZAAR_GEMINI_RESPONSE_MIME_TYPE" default:"text/plain"`
	RequestsPerMinute int     `envconfig:"BAZAAR_GEMINI_REQUESTS_PER_MINUTE" default:"0"`
	SendHistory       bool    `envconfig:"BAZAAR_GEMINI_SEND_HISTORY" default:"false"`
}

// Enabled reports whether an API key was provided.
func (g GeminiConfig) Enabled() bool {
	return strings.TrimSpace(g.APIKey) != ""
}

type ConsoleConfig struct {
	AllowedOrigins  []string `envconfig:"BAZAAR_CONSOLE_ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
	MaxAttachmentMB int      `envconfig:"BAZAAR_CONSOLE_MAX_ATTACHMENT_MB" default:"10"`
	MaxUploadMB     int      `envconfig:"BAZAAR_CONSOLE_MAX_UPLOAD_MB" default:"20"`
}

// MaxAttachmentBytes converts the configured chat attachment cap to bytes.
func (c ConsoleConfig) MaxAttachmentBytes() int64 {
	if c.MaxAttachmentMB <= 0 {
		return 0
	}
	return int64(c.MaxAttachmentMB) << 20
}

// MaxUploadBytes caps multipart request bodies accepted by the console.
func (c ConsoleConfig) MaxUploadBytes() int64 {
	if c.MaxUploadMB <= 0 {
		return 32 << 20
	}
	return int64(c.MaxUploadMB) << 20
}
