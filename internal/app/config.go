package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/vkushwaha/storefront/internal/domain/checkout"
)

// Config holds the complete application configuration, loadable from
// environment variables (STORE_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (STORE_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	RedisAddr   string `default:"" usage:"Redis address for the offer cache; empty disables caching" flag:"redis-addr"`
	Pricing     PricingConfig
	OfferCache  OfferCacheConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Graceful    GracefulConfig
}

// PricingConfig holds the business rules of the breakdown computation.
// Values are decimal strings so currency amounts never pass through
// binary floats.
type PricingConfig struct {
	TaxRate               string `default:"0.18" usage:"Flat tax rate applied to the subtotal" flag:"tax-rate"`
	FreeShippingThreshold string `default:"1000" usage:"Subtotal above which shipping is free" flag:"free-shipping-threshold"`
	ShippingFee           string `default:"100"  usage:"Flat shipping fee below the threshold" flag:"shipping-fee"`
}

// Checkout converts the pricing configuration into checkout rules.
func (p PricingConfig) Checkout() (checkout.Config, error) {
	taxRate, err := decimal.NewFromString(p.TaxRate)
	if err != nil {
		return checkout.Config{}, errors.Wrap(err, "parse tax rate")
	}
	threshold, err := decimal.NewFromString(p.FreeShippingThreshold)
	if err != nil {
		return checkout.Config{}, errors.Wrap(err, "parse free shipping threshold")
	}
	fee, err := decimal.NewFromString(p.ShippingFee)
	if err != nil {
		return checkout.Config{}, errors.Wrap(err, "parse shipping fee")
	}
	return checkout.Config{
		TaxRate:               taxRate,
		FreeShippingThreshold: threshold,
		ShippingFee:           fee,
	}, nil
}

// OfferCacheConfig controls the Redis offer cache.
type OfferCacheConfig struct {
	TTL time.Duration `default:"30s" usage:"Offer cache entry TTL; admin edits take effect within this bound" flag:"offer-cache-ttl"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML
// config files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "STORE",
		Files:     []string{"config.yaml", "/etc/storefront/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set STORE_DATABASE_URL or DATABASE_URL")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables
// that use standard names like DATABASE_URL and PORT to the STORE_-
// prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
