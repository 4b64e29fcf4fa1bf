package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/shopspring/decimal"
)

const (
	TaxPolicyFlat   = "flat"
	TaxPolicySource = "source"
)

var (
	ErrMissingDatabaseURL = errors.New("config: DB_URL is required for mysql and postgres drivers")
	ErrUnknownDriver      = errors.New("config: unknown DB_DRIVER")
	ErrInvalidRate        = errors.New("config: TALLY_EXCHANGE_RATE must be positive")
	ErrInvalidTaxPercent  = errors.New("config: TALLY_TAX_PERCENT must be between 0 and 100")
	ErrUnknownTaxPolicy   = errors.New("config: TALLY_TAX_POLICY must be flat or source")
	ErrInvalidTimezone    = errors.New("config: TALLY_TIMEZONE is not a known IANA zone")
)

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	BaseURL     string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	APIKey      string `env:"API_KEY"`

	Database Database `envPrefix:"DB_"`
	Shopify  Shopify  `envPrefix:"SHOPIFY_"`
	Tally    Tally    `envPrefix:"TALLY_"`
}

type Shopify struct {
	Store          string `env:"STORE"` // myshop.myshopify.com
	AccessToken    string `env:"TOKEN"`
	APIVersion     string `env:"API_VERSION" envDefault:"2025-01"`
	ClientID       string `env:"CLIENT_ID"`
	ClientSecret   string `env:"CLIENT_SECRET"`
	Scopes         string `env:"SCOPES" envDefault:"read_orders,write_orders,read_customers"`
	RedirectURL    string `env:"REDIRECT_URL"`
	WebhookSecret  string `env:"WEBHOOK_SECRET"`
	UseGraphQL     bool   `env:"USE_GRAPHQL" envDefault:"false"`
	PageLimit      int    `env:"PAGE_LIMIT" envDefault:"250"`
	TimeoutSeconds int    `env:"TIMEOUT_SECONDS" envDefault:"30"`
}

// Tally holds the ledger-side normalization settings. They are fixed for the
// lifetime of the process.
type Tally struct {
	ExchangeRate   float64 `env:"EXCHANGE_RATE" envDefault:"1"`
	TaxPercent     float64 `env:"TAX_PERCENT" envDefault:"18"`
	TaxPolicy      string  `env:"TAX_POLICY" envDefault:"flat"`
	LocalCurrency  string  `env:"LOCAL_CURRENCY" envDefault:"INR"`
	DefaultChannel string  `env:"DEFAULT_CHANNEL" envDefault:"Pending"`
	FallbackName   string  `env:"FALLBACK_CUSTOMER" envDefault:"Unknown Customer"`
	VoucherPrefix  string  `env:"VOUCHER_PREFIX" envDefault:"Sales"`
	Source         string  `env:"SOURCE" envDefault:"Shopify"`
	Timezone       string  `env:"TIMEZONE" envDefault:"Asia/Kolkata"`
}

type Database struct {
	Driver       string `env:"DRIVER" envDefault:"sqlite"` // sqlite, mysql, postgres
	URL          string `env:"URL" envDefault:"tally.db"`
	MaxIdleConns int    `env:"MAX_IDLE_CONNS" envDefault:"10"`
	MaxOpenConns int    `env:"MAX_OPEN_CONNS" envDefault:"50"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"warn"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT"` // json or console; empty picks by ENVIRONMENT
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}

// Load parses the process environment into a Config and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch strings.ToLower(c.Database.Driver) {
	case "sqlite":
	case "mysql", "postgres":
		if c.Database.URL == "" {
			return ErrMissingDatabaseURL
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.Database.Driver)
	}

	if c.Tally.ExchangeRate <= 0 {
		return ErrInvalidRate
	}
	if c.Tally.TaxPercent < 0 || c.Tally.TaxPercent > 100 {
		return ErrInvalidTaxPercent
	}
	switch c.Tally.TaxPolicy {
	case TaxPolicyFlat, TaxPolicySource:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTaxPolicy, c.Tally.TaxPolicy)
	}
	if _, err := time.LoadLocation(c.Tally.Timezone); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidTimezone, c.Tally.Timezone)
	}
	return nil
}

func (c *Config) Addr() string {
	return c.HTTP.Host + ":" + c.HTTP.Port
}

// Rate returns the configured exchange rate as a decimal.
func (t Tally) Rate() decimal.Decimal {
	return decimal.NewFromFloat(t.ExchangeRate)
}

func (t Tally) TaxRate() decimal.Decimal {
	return decimal.NewFromFloat(t.TaxPercent)
}

// Configured reports whether enough credentials exist to call the Admin API.
func (s Shopify) Configured() bool {
	return s.Store != ""
}

func (s Shopify) BaseURL() string {
	return ShopURL(s.Store)
}

// ShopURL turns a shop domain into an https base URL. Values that already
// carry a scheme are kept as they are.
func ShopURL(shop string) string {
	shop = strings.TrimSuffix(shop, "/")
	if strings.HasPrefix(shop, "http://") || strings.HasPrefix(shop, "https://") {
		return shop
	}
	return "https://" + shop
}
