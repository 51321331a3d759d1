package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Config holds the complete application configuration, loadable from
// environment variables (TRADE_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (TRADE_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	ShippingFee string `default:"5.00" usage:"Flat shipping fee charged per order" flag:"shipping-fee"`
	RateLimit   RateLimitConfig
	Kafka       KafkaConfig
	Graceful    GracefulConfig
}

// RateLimitConfig controls the per-client token bucket rate limiter.
type RateLimitConfig struct {
	RPS   float64 `default:"10"  usage:"Sustained requests per second per client"`
	Burst int     `default:"100" usage:"Burst size per client"`
}

// KafkaConfig controls the optional order event publisher. When Brokers is
// empty, no events are published.
type KafkaConfig struct {
	Brokers  string `default:""             usage:"Kafka bootstrap servers; empty disables event publishing"`
	Topic    string `default:"trade.orders" usage:"Topic for order created events"`
	ClientID string `default:"trade-service" usage:"Kafka client id" flag:"kafka-client-id"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// ShippingFeeDecimal parses the configured shipping fee.
func (c *Config) ShippingFeeDecimal() (decimal.Decimal, error) {
	fee, err := decimal.NewFromString(c.ShippingFee)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "parse shipping fee %q", c.ShippingFee)
	}
	if fee.IsNegative() {
		return decimal.Zero, errors.Errorf("shipping fee %q is negative", c.ShippingFee)
	}
	return fee, nil
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "TRADE",
		Files:     []string{"config.yaml", "/etc/trade/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set TRADE_DATABASE_URL or DATABASE_URL")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables that use
// standard names like DATABASE_URL and PORT to the TRADE_-prefixed
// configuration.
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
