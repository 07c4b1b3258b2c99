// Package config loads service configuration from an optional YAML file and
// DEX_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"dex-markets/internal/dex"
	"dex-markets/internal/domain"
)

// EnvPrefix prefixes every environment variable, e.g. DEX_LEDGER_BACKEND.
const EnvPrefix = "dex"

// Ledger backends.
const (
	LedgerRPC        = "rpc"
	LedgerPostgres   = "postgres"
	LedgerClickhouse = "clickhouse"
)

// Metadata store backends.
const (
	MetadataNone     = "none"
	MetadataMemory   = "memory"
	MetadataPostgres = "postgres"
	MetadataRedis    = "redis"
)

// Config is the full service configuration.
type Config struct {
	Ledger   LedgerConfig   `yaml:"ledger"`
	Metadata MetadataConfig `yaml:"metadata"`
	Reserves ReservesConfig `yaml:"reserves"`
	Market   MarketConfig   `yaml:"market"`
	HTTP     HTTPConfig     `yaml:"http"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LedgerConfig selects and configures the ledger backend queries run against.
type LedgerConfig struct {
	Backend       string        `yaml:"backend"`
	Endpoint      string        `yaml:"endpoint"`
	Username      string        `yaml:"username"`
	Password      string        `yaml:"password"`
	Timeout       time.Duration `yaml:"timeout"`
	MaxRetries    int           `yaml:"maxRetries" split_words:"true"`
	SupplyMethod  string        `yaml:"supplyMethod" split_words:"true"`
	PostgresDSN   string        `yaml:"postgresDsn" split_words:"true"`
	ClickhouseDSN string        `yaml:"clickhouseDsn" split_words:"true"`
	Migrate       bool          `yaml:"migrate"`
}

// MetadataConfig selects the asset metadata store. SeedFile, when set, is a
// YAML list of asset metadata entries upserted into the store at startup.
type MetadataConfig struct {
	Backend       string `yaml:"backend"`
	PostgresDSN   string `yaml:"postgresDsn" split_words:"true"`
	RedisAddr     string `yaml:"redisAddr" split_words:"true"`
	RedisPassword string `yaml:"redisPassword" split_words:"true"`
	RedisDB       int    `yaml:"redisDb" split_words:"true"`
	SeedFile      string `yaml:"seedFile" split_words:"true"`
}

// ReservesConfig names the two reserve assets.
type ReservesConfig struct {
	Primary   string `yaml:"primary"`
	Secondary string `yaml:"secondary"`
}

// MarketConfig holds the market analytics thresholds and limits.
type MarketConfig struct {
	MinFeeProvided float64 `yaml:"minFeeProvided" split_words:"true"`
	MaxFeeRequired float64 `yaml:"maxFeeRequired" split_words:"true"`
	TradeLimit     int     `yaml:"tradeLimit" split_words:"true"`
	ListSize       int     `yaml:"listSize" split_words:"true"`
	UserPairCap    int     `yaml:"userPairCap" split_words:"true"`
	FixTrendQuirk  bool    `yaml:"fixTrendQuirk" split_words:"true"`
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	ListenAddr     string        `yaml:"listenAddr" split_words:"true"`
	StreamInterval time.Duration `yaml:"streamInterval" split_words:"true"`
	RequestTimeout time.Duration `yaml:"requestTimeout" split_words:"true"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	opts := dex.DefaultOptions()
	return &Config{
		Ledger: LedgerConfig{
			Backend:      LedgerRPC,
			Endpoint:     "http://localhost:4000/api/",
			Timeout:      30 * time.Second,
			MaxRetries:   3,
			SupplyMethod: "get_xcp_supply",
		},
		Metadata: MetadataConfig{
			Backend: MetadataNone,
		},
		Reserves: ReservesConfig{
			Primary:   opts.Reserves.Primary,
			Secondary: opts.Reserves.Secondary,
		},
		Market: MarketConfig{
			MinFeeProvided: opts.MinFeeProvided,
			MaxFeeRequired: opts.MaxFeeRequired,
			TradeLimit:     opts.TradeLimit,
			ListSize:       opts.ListSize,
			UserPairCap:    opts.UserPairCap,
		},
		HTTP: HTTPConfig{
			ListenAddr:     ":8080",
			StreamInterval: 30 * time.Second,
			RequestTimeout: 60 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configFile (if not empty) over the defaults, applies
// environment overrides and validates the result.
func Load(configFile string) (*Config, error) {
	cfg := Default()
	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every configuration error at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.Ledger.Backend {
	case LedgerRPC:
		if c.Ledger.Endpoint == "" {
			errs = append(errs, errors.New("ledger.endpoint is required for the rpc backend"))
		}
	case LedgerPostgres:
		if c.Ledger.PostgresDSN == "" {
			errs = append(errs, errors.New("ledger.postgresDsn is required for the postgres backend"))
		}
	case LedgerClickhouse:
		if c.Ledger.ClickhouseDSN == "" {
			errs = append(errs, errors.New("ledger.clickhouseDsn is required for the clickhouse backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown ledger backend %q", c.Ledger.Backend))
	}
	if c.Ledger.MaxRetries < 0 {
		errs = append(errs, errors.New("ledger.maxRetries must not be negative"))
	}

	switch c.Metadata.Backend {
	case "", MetadataNone:
		if c.Metadata.SeedFile != "" {
			errs = append(errs, errors.New("metadata.seedFile needs a metadata backend"))
		}
	case MetadataMemory:
	case MetadataPostgres:
		if c.Metadata.PostgresDSN == "" && c.Ledger.PostgresDSN == "" {
			errs = append(errs, errors.New("metadata.postgresDsn is required for the postgres backend"))
		}
	case MetadataRedis:
		if c.Metadata.RedisAddr == "" {
			errs = append(errs, errors.New("metadata.redisAddr is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown metadata backend %q", c.Metadata.Backend))
	}

	if c.Reserves.Primary == "" || c.Reserves.Secondary == "" {
		errs = append(errs, errors.New("reserves.primary and reserves.secondary are required"))
	} else if c.Reserves.Primary == c.Reserves.Secondary {
		errs = append(errs, errors.New("reserves.primary and reserves.secondary must differ"))
	}

	if c.Market.MinFeeProvided < 0 || c.Market.MaxFeeRequired < 0 {
		errs = append(errs, errors.New("market fee thresholds must not be negative"))
	}
	if c.Market.TradeLimit <= 0 || c.Market.ListSize <= 0 || c.Market.UserPairCap <= 0 {
		errs = append(errs, errors.New("market.tradeLimit, market.listSize and market.userPairCap must be positive"))
	}

	if c.HTTP.StreamInterval <= 0 {
		errs = append(errs, errors.New("http.streamInterval must be positive"))
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("unknown logging format %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}

// MetadataDSN returns the metadata store DSN, falling back to the ledger
// mirror database.
func (c *Config) MetadataDSN() string {
	if c.Metadata.PostgresDSN != "" {
		return c.Metadata.PostgresDSN
	}
	return c.Ledger.PostgresDSN
}

// DexOptions converts the market section into service options.
func (c *Config) DexOptions() dex.Options {
	return dex.Options{
		Reserves: domain.Reserves{
			Primary:   c.Reserves.Primary,
			Secondary: c.Reserves.Secondary,
		},
		MinFeeProvided: c.Market.MinFeeProvided,
		MaxFeeRequired: c.Market.MaxFeeRequired,
		TradeLimit:     c.Market.TradeLimit,
		ListSize:       c.Market.ListSize,
		UserPairCap:    c.Market.UserPairCap,
		FixTrendQuirk:  c.Market.FixTrendQuirk,
	}
}
