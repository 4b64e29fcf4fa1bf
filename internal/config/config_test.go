package config

import (
	"testing"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "2025-01", cfg.Shopify.APIVersion)
	assert.Equal(t, 250, cfg.Shopify.PageLimit)
	assert.Equal(t, TaxPolicyFlat, cfg.Tally.TaxPolicy)
	assert.Equal(t, "Pending", cfg.Tally.DefaultChannel)
	assert.Equal(t, "Unknown Customer", cfg.Tally.FallbackName)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("SHOPIFY_STORE", "demo.myshopify.com")
	t.Setenv("TALLY_EXCHANGE_RATE", "83")
	t.Setenv("TALLY_TAX_PERCENT", "12")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_URL", "postgres://u:p@localhost:5432/tally")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Shopify.Configured())
	assert.Equal(t, "https://demo.myshopify.com", cfg.Shopify.BaseURL())
	assert.Equal(t, "83", cfg.Tally.Rate().String())
	assert.Equal(t, "12", cfg.Tally.TaxRate().String())
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Database: Database{Driver: "sqlite", URL: ":memory:"},
			Tally:    Tally{ExchangeRate: 1, TaxPercent: 18, TaxPolicy: TaxPolicyFlat},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "mysql without url", mutate: func(c *Config) { c.Database = Database{Driver: "mysql"} }, wantErr: ErrMissingDatabaseURL},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "oracle" }, wantErr: ErrUnknownDriver},
		{name: "zero rate", mutate: func(c *Config) { c.Tally.ExchangeRate = 0 }, wantErr: ErrInvalidRate},
		{name: "tax over 100", mutate: func(c *Config) { c.Tally.TaxPercent = 120 }, wantErr: ErrInvalidTaxPercent},
		{name: "unknown policy", mutate: func(c *Config) { c.Tally.TaxPolicy = "vat" }, wantErr: ErrUnknownTaxPolicy},
		{name: "source policy", mutate: func(c *Config) { c.Tally.TaxPolicy = TaxPolicySource }},
		{name: "known timezone", mutate: func(c *Config) { c.Tally.Timezone = "Asia/Kolkata" }},
		{name: "unknown timezone", mutate: func(c *Config) { c.Tally.Timezone = "Mars/Olympus" }, wantErr: ErrInvalidTimezone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestLoad_RejectsUnknownTimezone(t *testing.T) {
	t.Setenv("TALLY_TIMEZONE", "Asia/Kolkatta")
	_, err := Load()
	assert.ErrorIs(t, err, ErrInvalidTimezone)
}

func TestShopify_BaseURL(t *testing.T) {
	assert.Equal(t, "http://127.0.0.1:9999", Shopify{Store: "http://127.0.0.1:9999/"}.BaseURL())
	assert.Equal(t, "https://a.myshopify.com", Shopify{Store: "a.myshopify.com"}.BaseURL())
	assert.False(t, Shopify{}.Configured())
}
