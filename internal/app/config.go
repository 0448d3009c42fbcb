package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (STOREFRONT_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	OrderPrefix string `default:"SDP" usage:"Storefront-specific order number prefix" flag:"order-prefix"`
	StorePath   string `default:"storefront-store.json" usage:"Path of the key-value store file" flag:"store-path"`

	Catalog   CatalogConfig
	Sink      SinkConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Graceful  GracefulConfig
}

// CatalogConfig selects where the product catalog comes from. When URL is
// set the spreadsheet-backed HTTP source is used; otherwise the static
// data directory.
type CatalogConfig struct {
	URL     string `default:"" usage:"Catalog feed base URL (spreadsheet-backed API)" flag:"catalog-url"`
	DataDir string `default:"data" usage:"Directory with food.json/merch.json/addresses.json" flag:"data-dir"`
}

// SinkConfig selects the order submission backend.
type SinkConfig struct {
	// Kind is one of: webhook, postgres, file.
	Kind        string `default:"file" usage:"Order sink: webhook, postgres, or file" flag:"sink"`
	WebhookURL  string `default:"" usage:"Order webhook endpoint (sink=webhook)" flag:"webhook-url"`
	DatabaseURL string `default:"" usage:"PostgreSQL connection URL (sink=postgres)" flag:"database-url"`
	DropDir     string `default:"orders" usage:"Directory for order files (sink=file)" flag:"drop-dir"`
}

// RateLimitConfig controls the per-client rate limiter.
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

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "STOREFRONT",
		Files:     []string{"config.yaml", "/etc/storefront/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	switch cfg.Sink.Kind {
	case "webhook":
		if cfg.Sink.WebhookURL == "" {
			return nil, errors.New("webhook sink requires STOREFRONT_SINK_WEBHOOK_URL")
		}
	case "postgres":
		if cfg.Sink.DatabaseURL == "" {
			return nil, errors.New("postgres sink requires STOREFRONT_SINK_DATABASE_URL or DATABASE_URL")
		}
	case "file":
	default:
		return nil, errors.Errorf("unknown sink kind %q", cfg.Sink.Kind)
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables
// (Railway, Render, etc.) that use standard names like DATABASE_URL and
// PORT to the application's STOREFRONT_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.Sink.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.Sink.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
