package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration loaded from YAML.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	NATS       NATSConfig       `yaml:"nats"`
	CORS       CORSConfig       `yaml:"cors"`
	Networks   []NetworkConfig  `yaml:"networks"`
	Settlement SettlementConfig `yaml:"settlement"`
	Providers  []ProviderConfig `yaml:"providers"`
	Quotes     QuotesConfig     `yaml:"quotes"`
	Executor   ExecutorConfig   `yaml:"executor"`
	Intents    IntentsConfig    `yaml:"intents"`
	Admin      AdminConfig      `yaml:"admin"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	Mode string `yaml:"mode"` // gin mode: debug | release
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

type NATSConfig struct {
	URL     string `yaml:"url"`
	Timeout int    `yaml:"timeout"` // seconds
}

type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowed_origins"`
	AllowCredentials bool     `yaml:"allow_credentials"`
	MaxAge           int      `yaml:"max_age"`
}

// AdminConfig scopes operator endpoints to an IP whitelist; empty means
// localhost only.
type AdminConfig struct {
	AllowedIPs []string `yaml:"allowed_ips"`
}

// NetworkConfig describes one EVM network the service can reach.
type NetworkConfig struct {
	ChainID      int64    `yaml:"chain_id"`
	Name         string   `yaml:"name"`
	RPCEndpoints []string `yaml:"rpc_endpoints"`
}

// SettlementConfig pins the canonical destination of every bridge:
// all quotes convert into this token on this chain.
type SettlementConfig struct {
	ChainID       int64  `yaml:"chain_id"`
	TokenAddress  string `yaml:"token_address"`
	TokenSymbol   string `yaml:"token_symbol"`
	TokenDecimals int    `yaml:"token_decimals"`
}

// ProviderConfig configures one bridge/swap provider integration.
// Priority is the stable tie-break order for quote ranking (lower wins).
type ProviderConfig struct {
	Name     string `yaml:"name"`
	BaseURL  string `yaml:"base_url"`
	APIKey   string `yaml:"api_key"`
	Enabled  bool   `yaml:"enabled"`
	Priority int    `yaml:"priority"`
}

type QuotesConfig struct {
	ValiditySeconds    int `yaml:"validity_seconds"`     // quote freshness window
	WarningSeconds     int `yaml:"warning_seconds"`      // advisory near-expiry threshold
	DebounceMillis     int `yaml:"debounce_ms"`          // input debounce before fetch
	RefreshSeconds     int `yaml:"refresh_seconds"`      // idle auto-refresh interval
	MaxDurationSeconds int `yaml:"max_duration_seconds"` // estimated-time ceiling for ranking
	ProviderTimeout    int `yaml:"provider_timeout_seconds"`
}

type ExecutorConfig struct {
	ReceiptPollSeconds int `yaml:"receipt_poll_seconds"`
}

type IntentsConfig struct {
	TTLHours             int `yaml:"ttl_hours"`
	SweepIntervalSeconds int `yaml:"sweep_interval_seconds"`
}

// AppConfig is the globally loaded configuration.
var AppConfig *Config

// LoadConfig reads the YAML config file and applies environment overrides.
// An empty path falls back to CONFIG_PATH or ./config.yaml.
func LoadConfig(path string) error {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.applyDefaults()
	cfg.overrideFromEnv()

	AppConfig = cfg
	log.Printf("✅ Config loaded: %s (%d networks, %d providers)", path, len(cfg.Networks), len(cfg.Providers))
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Quotes.ValiditySeconds == 0 {
		c.Quotes.ValiditySeconds = 30
	}
	if c.Quotes.WarningSeconds == 0 {
		c.Quotes.WarningSeconds = 10
	}
	if c.Quotes.DebounceMillis == 0 {
		c.Quotes.DebounceMillis = 500
	}
	if c.Quotes.RefreshSeconds == 0 {
		c.Quotes.RefreshSeconds = 30
	}
	if c.Quotes.MaxDurationSeconds == 0 {
		c.Quotes.MaxDurationSeconds = 1800
	}
	if c.Quotes.ProviderTimeout == 0 {
		c.Quotes.ProviderTimeout = 15
	}
	if c.Executor.ReceiptPollSeconds == 0 {
		c.Executor.ReceiptPollSeconds = 2
	}
	if c.Intents.TTLHours == 0 {
		c.Intents.TTLHours = 24
	}
	if c.Intents.SweepIntervalSeconds == 0 {
		c.Intents.SweepIntervalSeconds = 60
	}
}

// overrideFromEnv lets deployment environments override file values.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("DB_HOST"); v != "" {
		c.Database.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Database.Port = port
		}
	}
	if v := os.Getenv("DB_USER"); v != "" {
		c.Database.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		c.Database.DBName = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		c.NATS.URL = v
	}
}

// DSN builds the postgres connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// GetNetworkByChainID returns the configured network for a chain ID.
func (c *Config) GetNetworkByChainID(chainID int64) (*NetworkConfig, bool) {
	for i := range c.Networks {
		if c.Networks[i].ChainID == chainID {
			return &c.Networks[i], true
		}
	}
	return nil, false
}

// GetProvider returns the configuration for a named provider.
func (c *Config) GetProvider(name string) (*ProviderConfig, bool) {
	for i := range c.Providers {
		if c.Providers[i].Name == name {
			return &c.Providers[i], true
		}
	}
	return nil, false
}
