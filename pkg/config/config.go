package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "veloura"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv          = "VELOURA_APP_ENV"
	EnvPort            = "VELOURA_APP_PORT"
	EnvUpstreamBaseURL = "VELOURA_UPSTREAM_BASE_URL"
	EnvServiceKey      = "VELOURA_UPSTREAM_SERVICE_KEY"
	EnvServiceSecret   = "VELOURA_UPSTREAM_SERVICE_SECRET"
)

type Config struct {
	App           AppConfig
	Upstream      UpstreamConfig
	CORS          CORSConfig
	Redis         RedisConfig
	AuthRateLimit AuthRateLimitConfig
	Stripe        StripeConfig
	Client        ClientConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Upstream.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"VELOURA_APP_ENV" required:"true"`
	Port         string `envconfig:"VELOURA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"VELOURA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"VELOURA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// UpstreamConfig points the relay at the external commerce platform.
type UpstreamConfig struct {
	BaseURL       string        `envconfig:"VELOURA_UPSTREAM_BASE_URL" required:"true"`
	StorePrefix   string        `envconfig:"VELOURA_UPSTREAM_STORE_PREFIX" default:"/store/v1"`
	AuthPrefix    string        `envconfig:"VELOURA_UPSTREAM_AUTH_PREFIX" default:"/auth/v1"`
	AdminPrefix   string        `envconfig:"VELOURA_UPSTREAM_ADMIN_PREFIX" default:"/admin/v1"`
	ServiceKey    string        `envconfig:"VELOURA_UPSTREAM_SERVICE_KEY" required:"true"`
	ServiceSecret string        `envconfig:"VELOURA_UPSTREAM_SERVICE_SECRET" required:"true"`
	UserAgent     string        `envconfig:"VELOURA_UPSTREAM_USER_AGENT" default:"veloura-storefront/1.0"`
	Timeout       time.Duration `envconfig:"VELOURA_UPSTREAM_TIMEOUT" default:"30s"`
}

func (u UpstreamConfig) validate() error {
	parsed, err := url.Parse(u.BaseURL)
	if err != nil {
		return fmt.Errorf("parsing upstream base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("upstream base url must be http(s), got %q", u.BaseURL)
	}
	return nil
}

// Host returns the hostname portion of the upstream base URL.
func (u UpstreamConfig) Host() string {
	parsed, err := url.Parse(u.BaseURL)
	if err != nil {
		return ""
	}
	return parsed.Host
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"VELOURA_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type RedisConfig struct {
	URL          string        `envconfig:"VELOURA_REDIS_URL"`
	Address      string        `envconfig:"VELOURA_REDIS_ADDR"`
	Password     string        `envconfig:"VELOURA_REDIS_PASSWORD"`
	DB           int           `envconfig:"VELOURA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VELOURA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VELOURA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VELOURA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VELOURA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VELOURA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a Redis endpoint is configured at all. The gateway
// runs without Redis; auth rate limiting is skipped when it is absent.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"VELOURA_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"VELOURA_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"VELOURA_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"VELOURA_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"VELOURA_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"VELOURA_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type StripeConfig struct {
	APIKey   string `envconfig:"VELOURA_STRIPE_API_KEY"`
	Env      string `envconfig:"VELOURA_STRIPE_ENV" default:"test"`
	Currency string `envconfig:"VELOURA_STRIPE_CURRENCY" default:"inr"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

// ClientConfig feeds the headless SDK and shopctl.
type ClientConfig struct {
	StorePath  string `envconfig:"VELOURA_CLIENT_STORE_PATH" default:"storefront.db"`
	GatewayURL string `envconfig:"VELOURA_CLIENT_GATEWAY_URL" default:"http://localhost:8080"`
}
