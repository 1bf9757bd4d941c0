package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server" envconfig:"SERVER"`
	Pebble     PebbleConfig     `yaml:"pebble" envconfig:"PEBBLE"`
	Log        LogConfig        `yaml:"log" envconfig:"LOG"`
	Redis      RedisConfig      `yaml:"redis" envconfig:"REDIS"`
	Aggregator AggregatorConfig `yaml:"aggregator" envconfig:"AGGREGATOR"`
	Bitcoin    ChainConfig      `yaml:"bitcoin" envconfig:"BTC"`
	Litecoin   ChainConfig      `yaml:"litecoin" envconfig:"LTC"`
}

// ServerConfig represents the HTTP server configuration
type ServerConfig struct {
	Port int    `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	Host string `yaml:"host" envconfig:"HOST"`
}

// PebbleConfig represents the Pebble database configuration
type PebbleConfig struct {
	Path string `yaml:"path" envconfig:"PATH" validate:"required"`
}

// LogConfig controls the process logger
type LogConfig struct {
	Level string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
}

// RedisConfig configures the optional address summary cache. An empty Addr
// disables the cache.
type RedisConfig struct {
	Addr     string        `yaml:"addr" envconfig:"ADDR"`
	Username string        `yaml:"username" envconfig:"USERNAME"`
	Password string        `yaml:"password" envconfig:"PASSWORD"`
	DB       int           `yaml:"db" envconfig:"DB" validate:"min=0"`
	TTL      time.Duration `yaml:"ttl" envconfig:"TTL" validate:"min=0"`
}

// AggregatorConfig holds the page size ceiling and the fan-out limits used
// when querying many addresses at once.
type AggregatorConfig struct {
	MaxBatchSize              int `yaml:"max_batch_size" envconfig:"MAX_BATCH_SIZE" validate:"min=1"`
	FetchConcurrency          int `yaml:"fetch_concurrency" envconfig:"FETCH_CONCURRENCY" validate:"min=1"`
	DepositAddressConcurrency int `yaml:"deposit_address_concurrency" envconfig:"DEPOSIT_ADDRESS_CONCURRENCY" validate:"min=1"`
	DepositTxConcurrency      int `yaml:"deposit_tx_concurrency" envconfig:"DEPOSIT_TX_CONCURRENCY" validate:"min=1"`
}

// ChainConfig represents the configuration for a blockchain node
type ChainConfig struct {
	Enabled      bool          `yaml:"enabled" envconfig:"ENABLED"`
	Network      string        `yaml:"network" envconfig:"NETWORK" validate:"omitempty,oneof=mainnet testnet regtest"`
	Host         string        `yaml:"host" envconfig:"HOST" validate:"required_if=Enabled true"`
	User         string        `yaml:"user" envconfig:"USER"`
	Pass         string        `yaml:"pass" envconfig:"PASS"`
	DisableTLS   bool          `yaml:"disable_tls" envconfig:"DISABLE_TLS"`
	PollInterval time.Duration `yaml:"poll_interval" envconfig:"POLL_INTERVAL" validate:"min=0"`
	StartHeight  int64         `yaml:"start_height" envconfig:"START_HEIGHT" validate:"min=0"`
}

// Default returns the configuration used when neither the file nor the
// environment set a value.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
			Host: "0.0.0.0",
		},
		Pebble: PebbleConfig{
			Path: "./data/pebble",
		},
		Log: LogConfig{
			Level: "info",
		},
		Redis: RedisConfig{
			TTL: 30 * time.Second,
		},
		Aggregator: AggregatorConfig{
			MaxBatchSize:              100,
			FetchConcurrency:          5,
			DepositAddressConcurrency: 2,
			DepositTxConcurrency:      1,
		},
		Bitcoin: ChainConfig{
			Network:      "mainnet",
			PollInterval: 10 * time.Second,
		},
		Litecoin: ChainConfig{
			Network:      "mainnet",
			PollInterval: 10 * time.Second,
		},
	}
}

// Load loads configuration from a YAML file, applies environment overrides
// and validates the result
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	// Unset variables leave the file values untouched.
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Chains returns the enabled chain configurations keyed by chain name
func (c *Config) Chains() map[string]ChainConfig {
	chains := make(map[string]ChainConfig)
	if c.Bitcoin.Enabled {
		chains["btc"] = c.Bitcoin
	}
	if c.Litecoin.Enabled {
		chains["ltc"] = c.Litecoin
	}
	return chains
}
