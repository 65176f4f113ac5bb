package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"

	"github.com/xenking/storefront-checkout/internal/gateway"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (CHECKOUT_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (CHECKOUT_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	Domain      string `default:"http://localhost:8080" usage:"Public storefront origin used for checkout redirects"`
	Stripe      StripeConfig
	Gateway     GatewayConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Health      HealthConfig
	Graceful    GracefulConfig
}

// StripeConfig holds the two provider accounts: EUR payments use EUR,
// every other currency uses Default.
type StripeConfig struct {
	Default StripeKeys
	EUR     StripeKeys
}

// StripeKeys is one provider key pair.
type StripeKeys struct {
	PublishableKey string `usage:"Stripe publishable key"`
	SecretKey      string `usage:"Stripe secret key"`
}

// GatewayConfig bounds calls to the payment provider.
type GatewayConfig struct {
	Timeout         time.Duration `default:"10s" usage:"Timeout of a single payment provider call"`
	BreakerFailures uint32        `default:"5"   usage:"Consecutive provider failures that open the circuit"`
	BreakerTimeout  time.Duration `default:"30s" usage:"How long the open circuit rejects calls"`
}

// RateLimitConfig controls the per-client fixed window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// HealthConfig controls how often health checks run.
type HealthConfig struct {
	Interval         time.Duration `default:"10s" usage:"Interval between health check runs"`
	FailureThreshold int           `default:"3"   usage:"Consecutive failures before a check reports unhealthy"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// KeyRing returns the gateway credentials.
func (c *Config) KeyRing() gateway.KeyRing {
	return gateway.KeyRing{
		Default: gateway.Credentials{
			PublishableKey: c.Stripe.Default.PublishableKey,
			SecretKey:      c.Stripe.Default.SecretKey,
		},
		EUR: gateway.Credentials{
			PublishableKey: c.Stripe.EUR.PublishableKey,
			SecretKey:      c.Stripe.EUR.SecretKey,
		},
	}
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	return loadConfig(aconfig.Config{
		EnvPrefix: "CHECKOUT",
		Files:     []string{"config.yaml", "/etc/checkout/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
}

func loadConfig(ac aconfig.Config) (*Config, error) {
	var cfg Config
	if err := aconfig.LoaderFor(&cfg, ac).Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set CHECKOUT_DATABASE_URL or DATABASE_URL")
	}
	// Missing Stripe keys are not fatal: the affected currency fails per
	// request with a configuration error.
	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) and the conventional Stripe variable names to the
// CHECKOUT_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	setFromEnv(&c.DatabaseURL, "DATABASE_URL")
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
	setFromEnv(&c.Stripe.Default.PublishableKey, "STRIPE_PUBLISHABLE_KEY")
	setFromEnv(&c.Stripe.Default.SecretKey, "STRIPE_SECRET_KEY")
	setFromEnv(&c.Stripe.EUR.PublishableKey, "STRIPE_PUBLISHABLE_KEY_EUR")
	setFromEnv(&c.Stripe.EUR.SecretKey, "STRIPE_SECRET_KEY_EUR")
}

func setFromEnv(dst *string, key string) {
	if *dst != "" {
		return
	}
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
