package config

const EnvPrefix = "BAZAAR"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv             = "BAZAAR_APP_ENV"
	EnvPort               = "BAZAAR_APP_PORT"
	EnvLogLevel           = "BAZAAR_LOG_LEVEL"
	EnvBackendBaseURL     = "BAZAAR_BACKEND_BASE_URL"
	EnvBackendTimeout     = "BAZAAR_BACKEND_TIMEOUT"
	EnvGeminiAPIKey       = "BAZAAR_GEMINI_API_KEY"
	EnvGeminiModel        = "BAZAAR_GEMINI_MODEL"
	EnvGeminiTemperature  = "BAZAAR_GEMINI_TEMPERATURE"
	EnvConsoleOrigins     = "BAZAAR_CONSOLE_ALLOWED_ORIGINS"
	EnvConsoleAttachMaxMB = "BAZAAR_CONSOLE_MAX_ATTACHMENT_MB"
)
