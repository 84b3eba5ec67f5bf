package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string `validate:"required,numeric"`
	AppEnv  string `validate:"required"`

	AWSRegion      string `validate:"required"`
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string

	DynamoTables DynamoTables

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string `validate:"required"`
	JWTExpiry         time.Duration

	AuthAPIURL     string        `validate:"required,url"`
	AuthAPITimeout time.Duration `validate:"gt=0"`

	FlowSignedInURL string        `validate:"required"`
	FlowSessionTTL  time.Duration `validate:"gt=0"`
	FlowBusyTTL     time.Duration `validate:"gt=0"`
	FlowHide        []string      // component identities that never render, e.g. "VerifyContact"
	DefaultLocale   string        `validate:"required"`
	ThemePath       string        // optional YAML theme override
	AllowedOrigins  []string      // CORS allowed origins
	TrustProxy      bool          // read client IPs from X-Forwarded-For / X-Real-IP
	RateLimitPerSec int           `validate:"gt=0"`
	RateLimitBurst  int           `validate:"gt=0"`
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	AuthFlows string `validate:"required"`
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),

		DynamoTables: DynamoTables{
			AuthFlows: getEnv("DYNAMO_TABLE_AUTH_FLOWS", "auth_flows"),
		},

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", ""),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         time.Duration(getEnvInt("JWT_EXPIRY_DAYS", 7)) * 24 * time.Hour,

		AuthAPIURL:     getEnv("AUTH_API_URL", "http://localhost:3001"),
		AuthAPITimeout: time.Duration(getEnvInt("AUTH_API_TIMEOUT_SECONDS", 10)) * time.Second,

		FlowSignedInURL: getEnv("FLOW_SIGNED_IN_URL", "/"),
		FlowSessionTTL:  time.Duration(getEnvInt("FLOW_SESSION_TTL_MINUTES", 30)) * time.Minute,
		FlowBusyTTL:     time.Duration(getEnvInt("FLOW_BUSY_TTL_SECONDS", 30)) * time.Second,
		FlowHide:        getEnvList("FLOW_HIDE", ""),
		DefaultLocale:   getEnv("DEFAULT_LOCALE", "en"),
		ThemePath:       getEnv("THEME_PATH", ""),
		AllowedOrigins:  getEnvList("ALLOWED_ORIGINS", "*"),
		TrustProxy:      getEnv("TRUST_PROXY_HEADERS", "false") == "true",
		RateLimitPerSec: getEnvInt("RATE_LIMIT_PER_SECOND", 5),
		RateLimitBurst:  getEnvInt("RATE_LIMIT_BURST", 10),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// getEnvList splits a comma-separated variable, dropping blank entries.
func getEnvList(key, fallback string) []string {
	var out []string
	for _, s := range strings.Split(getEnv(key, fallback), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
