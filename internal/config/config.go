package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Defaults mirror the values the sheet-era automation ran with.
const (
	defaultQikinkBaseURL   = "https://api.qikink.com"
	defaultShopifyVersion  = "2024-01"
	defaultPageCap         = 80
	defaultOrderPrefix     = "172086_"
	defaultDisplayPrefix   = "#KC"
	defaultTimezone        = "Asia/Kolkata"
	defaultNameLookupLimit = 2000
	defaultExportDir       = "."
)

// Config carries every credential and tunable the engine needs. It is
// loaded once in main and injected into each constructor; core logic
// never reads the environment.
type Config struct {
	DatabaseURL string

	// Upstream (Qikink).
	QikinkBaseURL      string
	QikinkClientID     string
	QikinkClientSecret string
	// PageCap bounds the page-numbered fetch. The upstream API has no
	// total-count field, so the cap is a safety bound; the client also
	// stops on the first empty page.
	PageCap int

	// Downstream (Shopify).
	ShopifyShop       string // store subdomain, e.g. "kumudcreations"
	ShopifyToken      string
	ShopifyAPIVersion string

	// Order numbering: upstream numbers look like "172086_4848", the
	// downstream display name for the same order is "#KC4848".
	OrderPrefix   string
	DisplayPrefix string

	// Export settings.
	PaidOnly        bool   // keep only paid / partially_paid orders
	Timezone        string // IANA name for all export date math
	ExportDir       string
	NameLookupLimit int // ledger rows scanned for the customer-name lookup

	LogLevel string
}

// Load reads the configuration from the environment. Callers are
// expected to have run godotenv.Load first.
func Load() Config {
	return Config{
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		QikinkBaseURL:      envOr("QIKINK_BASE_URL", defaultQikinkBaseURL),
		QikinkClientID:     os.Getenv("QIKINK_CLIENT_ID"),
		QikinkClientSecret: os.Getenv("QIKINK_CLIENT_SECRET"),
		PageCap:            envIntOr("QIKINK_PAGE_CAP", defaultPageCap),
		ShopifyShop:        os.Getenv("SHOPIFY_SHOP"),
		ShopifyToken:       os.Getenv("SHOPIFY_ACCESS_TOKEN"),
		ShopifyAPIVersion:  envOr("SHOPIFY_API_VERSION", defaultShopifyVersion),
		OrderPrefix:        envOr("ORDER_PREFIX", defaultOrderPrefix),
		DisplayPrefix:      envOr("ORDER_DISPLAY_PREFIX", defaultDisplayPrefix),
		PaidOnly:           envBool("EXPORT_PAID_ONLY"),
		Timezone:           envOr("EXPORT_TIMEZONE", defaultTimezone),
		ExportDir:          envOr("EXPORT_DIR", defaultExportDir),
		NameLookupLimit:    envIntOr("NAME_LOOKUP_LIMIT", defaultNameLookupLimit),
		LogLevel:           envOr("LOG_LEVEL", "info"),
	}
}

// Validate reports every missing required setting at once so the
// operator fixes the environment in one round trip.
func (c Config) Validate() error {
	var missing []string
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.QikinkClientID == "" {
		missing = append(missing, "QIKINK_CLIENT_ID")
	}
	if c.QikinkClientSecret == "" {
		missing = append(missing, "QIKINK_CLIENT_SECRET")
	}
	if c.ShopifyShop == "" {
		missing = append(missing, "SHOPIFY_SHOP")
	}
	if c.ShopifyToken == "" {
		missing = append(missing, "SHOPIFY_ACCESS_TOKEN")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if c.PageCap <= 0 {
		return fmt.Errorf("QIKINK_PAGE_CAP must be positive, got %d", c.PageCap)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid EXPORT_TIMEZONE %q: %w", c.Timezone, err)
	}
	return nil
}

// Location resolves the configured timezone. Validate must have passed.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes"
}
