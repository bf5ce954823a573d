// Package configpkg provides parsing functionality for environment variables.
package configpkg

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
//
// The values are read by viper fron a config file or environement variables.
type Config struct {
	ServerAddress     string `mapstructure:"SERVER_ADDRESS"`
	Environement      string `mapstructure:"GO_ENV"`
	ReferenceCurrency string `mapstructure:"REFERENCE_CURRENCY"`
	Prices            string `mapstructure:"PRICES"`
	SeedBalances      string `mapstructure:"SEED_BALANCES"`
	StrictCurrencies  bool   `mapstructure:"STRICT_CURRENCIES"`
	RateLimit         string `mapstructure:"RATE_LIMIT"`
}

// Load read configuration from file or environment variables.
func Load(path string) (Config, error) {
	var c Config

	v := viper.New()

	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")

	v.SetDefault("SERVER_ADDRESS", "0.0.0.0:8080")
	v.SetDefault("GO_ENV", "production")
	v.SetDefault("REFERENCE_CURRENCY", "USD")
	v.SetDefault("RATE_LIMIT", "20-S")

	v.AutomaticEnv()

	err := v.ReadInConfig()
	if err != nil {
		return c, err
	}

	err = v.Unmarshal(&c)
	if err != nil {
		return c, err
	}

	return c, nil
}

// ParseAmounts parses a comma separated list of CODE:decimal pairs,
// e.g. "BTC:45000,ETH:3200". Blank input yields an empty map.
func ParseAmounts(s string) (map[string]decimal.Decimal, error) {
	items := make(map[string]decimal.Decimal)

	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		code, value, ok := strings.Cut(pair, ":")
		code = strings.TrimSpace(code)
		if !ok || code == "" {
			return nil, fmt.Errorf("malformed pair %q", pair)
		}

		if _, dup := items[code]; dup {
			return nil, fmt.Errorf("duplicate currency %q", code)
		}

		d, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("pair %q: %w", pair, err)
		}

		items[code] = d
	}

	return items, nil
}
