package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/anime-shed/image-srcset-go/pkg/srcset"
)

// Catalog sources understood by CATALOG_SOURCE
const (
	CatalogSourceBuiltin = "builtin"
	CatalogSourceLocal   = "local"
	CatalogSourceHTTP    = "http"
	CatalogSourceAzure   = "azure"
)

type Config struct {
	Host                string
	Port                string
	RequestTimeout      time.Duration
	CatalogFetchTimeout time.Duration
	MaxRequestBodySize  int64

	// URLTemplate is a pattern with [id], [type] and [size] placeholders
	URLTemplate string

	CatalogSource    string
	CatalogLocation  string
	AzureAccountName string
	AzureAccountKey  string

	// DefaultViewport fills in whatever a request does not say about its display
	DefaultViewport srcset.Viewport

	BatchWorkers int
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

func LoadFromEnv() (*Config, error) {
	// Set defaults
	cfg := &Config{
		Host:                getEnvOrDefault("HOST", "0.0.0.0"),
		Port:                getEnvOrDefault("PORT", "8080"),
		RequestTimeout:      parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		CatalogFetchTimeout: parseDurationOrDefault("CATALOG_FETCH_TIMEOUT", 15*time.Second),
		MaxRequestBodySize:  parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 1024*1024), // 1MB
		URLTemplate:         getEnvOrDefault("URL_TEMPLATE", srcset.DefaultURLPattern),
		CatalogSource:       strings.ToLower(getEnvOrDefault("CATALOG_SOURCE", CatalogSourceBuiltin)),
		CatalogLocation:     strings.TrimSpace(os.Getenv("CATALOG_LOCATION")),
		AzureAccountName:    strings.TrimSpace(os.Getenv("AZURE_STORAGE_ACCOUNT")),
		AzureAccountKey:     strings.TrimSpace(os.Getenv("AZURE_STORAGE_KEY")),
		DefaultViewport: srcset.Viewport{
			Width:   parseFloatOrDefault("DEFAULT_VIEWPORT_WIDTH", 1024),
			Height:  parseFloatOrDefault("DEFAULT_VIEWPORT_HEIGHT", 768),
			Density: parseFloatOrDefault("DEFAULT_VIEWPORT_DENSITY", 1),
		},
		BatchWorkers: int(parseIntOrDefault("BATCH_WORKERS", 0)),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the loaded values for consistency
func (c *Config) Validate() error {
	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.RequestTimeout <= 0 || c.CatalogFetchTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, catalog=%s)",
			c.RequestTimeout, c.CatalogFetchTimeout)
	}
	if !strings.Contains(c.URLTemplate, "[id]") {
		return fmt.Errorf("URL_TEMPLATE must contain an [id] placeholder (got %q)", c.URLTemplate)
	}

	switch c.CatalogSource {
	case CatalogSourceBuiltin:
	case CatalogSourceLocal, CatalogSourceHTTP:
		if c.CatalogLocation == "" {
			return fmt.Errorf("CATALOG_LOCATION is required for catalog source %q", c.CatalogSource)
		}
	case CatalogSourceAzure:
		if c.CatalogLocation == "" || c.AzureAccountName == "" || c.AzureAccountKey == "" {
			return fmt.Errorf("azure catalog source requires CATALOG_LOCATION, AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY")
		}
	default:
		return fmt.Errorf("invalid CATALOG_SOURCE: %q", c.CatalogSource)
	}

	vp := c.DefaultViewport
	if vp.Width <= 0 || vp.Height <= 0 || vp.Density <= 0 {
		return fmt.Errorf("default viewport must be positive (got %vx%v@%v)", vp.Width, vp.Height, vp.Density)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
