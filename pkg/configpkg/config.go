// Package configpkg provides parsing functionality for environment variables.
package configpkg

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/go-petr/pet-wallet/pkg/moneypkg"
)

// Config stores all configuration of the application.
//
// The values are read by viper fron a config file or environement variables.
type Config struct {
	DBDriver            string        `mapstructure:"DB_DRIVER"`
	DBSource            string        `mapstructure:"DB_SOURCE"`
	ServerAddress       string        `mapstructure:"SERVER_ADDRESS"`
	TokenType           string        `mapstructure:"TOKEN_TYPE"`
	TokenSymmetricKey   string        `mapstructure:"TOKEN_SYMMETRIC_KEY"`
	AccessTokenDuration time.Duration `mapstructure:"ACCESS_TOKEN_DURATION"`
	Environement        string        `mapstructure:"GO_ENV"`
	RedisURL            string        `mapstructure:"REDIS_URL"`
	RateLimitPerMinute  int           `mapstructure:"RATE_LIMIT_PER_MINUTE"`
	MaxCommitRetries    int           `mapstructure:"MAX_COMMIT_RETRIES"`
	RetryBaseDelay      time.Duration `mapstructure:"RETRY_BASE_DELAY"`
	LimitTimezone       string        `mapstructure:"LIMIT_TIMEZONE"`
	TransferTxCap       string        `mapstructure:"TRANSFER_TX_CAP"`
	TransferDailyCap    string        `mapstructure:"TRANSFER_DAILY_CAP"`
	TransferMonthlyCap  string        `mapstructure:"TRANSFER_MONTHLY_CAP"`
	RechargeTxCap       string        `mapstructure:"RECHARGE_TX_CAP"`
	RechargeDailyCap    string        `mapstructure:"RECHARGE_DAILY_CAP"`
	RechargeMonthlyCap  string        `mapstructure:"RECHARGE_MONTHLY_CAP"`
}

// Load read configuration from file or environment variables.
func Load(path string) (Config, error) {
	var c Config

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")

	v.SetDefault("DB_DRIVER", "memory")
	v.SetDefault("SERVER_ADDRESS", "0.0.0.0:8080")
	v.SetDefault("TOKEN_TYPE", "paseto")
	v.SetDefault("ACCESS_TOKEN_DURATION", 15*time.Minute)
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 30)
	v.SetDefault("MAX_COMMIT_RETRIES", 3)
	v.SetDefault("RETRY_BASE_DELAY", 10*time.Millisecond)
	v.SetDefault("LIMIT_TIMEZONE", "UTC")

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

// Location returns the time zone used for daily and monthly limit windows.
func (c Config) Location() (*time.Location, error) {
	if c.LimitTimezone == "" {
		return time.UTC, nil
	}

	return time.LoadLocation(c.LimitTimezone)
}

// DefaultCaps returns the configured caps per operation kind.
func (c Config) DefaultCaps() (map[domain.Kind]domain.Caps, error) {
	raw := map[domain.Kind][3]string{
		domain.KindTransfer: {c.TransferTxCap, c.TransferDailyCap, c.TransferMonthlyCap},
		domain.KindRecharge: {c.RechargeTxCap, c.RechargeDailyCap, c.RechargeMonthlyCap},
	}

	caps := make(map[domain.Kind]domain.Caps, len(raw))

	for op, values := range raw {
		var parsed [3]decimal.Decimal

		for i, v := range values {
			d, err := moneypkg.Parse(v)
			if err != nil {
				return nil, fmt.Errorf("invalid %s cap %q: %w", op, v, err)
			}

			if d.IsNegative() {
				return nil, fmt.Errorf("invalid %s cap %q: negative", op, v)
			}

			parsed[i] = d
		}

		caps[op] = domain.Caps{Transaction: parsed[0], Daily: parsed[1], Monthly: parsed[2]}
	}

	return caps, nil
}
