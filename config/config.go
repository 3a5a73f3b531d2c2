// Package config loads the bridge configuration file.
//
// The file is YAML. ${VAR} references are expanded from the environment before
// parsing and durations are written as Go duration strings ("30s", "5m").
// Values missing from the file keep their defaults.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Ledger modes.
const (
	LedgerModeFabric = "fabric"
	LedgerModeMemory = "memory"
)

// MinPoolIdleTTL is the shortest accepted bridge.pool_idle_ttl.
const MinPoolIdleTTL = time.Second

// Config is the complete bridge configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Wallet    WalletConfig    `yaml:"wallet"`
	Bridge    BridgeConfig    `yaml:"bridge"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	ListenAddr  string `yaml:"listen_addr"`
	MetricsAddr string `yaml:"metrics_addr"`
	StaticDir   string `yaml:"static_dir"`
	EnablePprof bool   `yaml:"enable_pprof"`

	DrainDuration time.Duration `yaml:"-"`

	DrainDurationRaw string `yaml:"drain_duration"`
}

// LedgerConfig selects and describes the ledger network.
type LedgerConfig struct {
	Mode              string `yaml:"mode"`
	ConnectionProfile string `yaml:"connection_profile"`
	Channel           string `yaml:"channel"`
	Contract          string `yaml:"contract"`

	CommitTimeout time.Duration `yaml:"-"`

	CommitTimeoutRaw string `yaml:"commit_timeout"`
}

// WalletConfig lists credential store URIs and the identity to sign with.
type WalletConfig struct {
	URIs     []string `yaml:"uris"`
	Identity string   `yaml:"identity"`
}

// BridgeConfig holds request handling settings.
type BridgeConfig struct {
	RequestTimeout time.Duration `yaml:"-"`
	PoolEnabled    bool          `yaml:"pool_enabled"`
	PoolIdleTTL    time.Duration `yaml:"-"`

	RequestTimeoutRaw string `yaml:"request_timeout"`
	PoolIdleTTLRaw    string `yaml:"pool_idle_ttl"`
}

// RateLimitConfig limits write requests per client address. RPS 0 disables it.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Debug   bool   `yaml:"debug"`
	JSON    bool   `yaml:"json"`
	Service string `yaml:"service"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:    "0.0.0.0:8080",
			MetricsAddr:   "",
			DrainDuration: 45 * time.Second,
		},
		Ledger: LedgerConfig{
			Mode:              LedgerModeFabric,
			ConnectionProfile: "../network/connection.json",
			Channel:           "mychannel",
			Contract:          "dolphins",
			CommitTimeout:     30 * time.Second,
		},
		Wallet: WalletConfig{
			URIs:     []string{"file://./wallet"},
			Identity: "user1",
		},
		Bridge: BridgeConfig{
			RequestTimeout: 30 * time.Second,
			PoolIdleTTL:    5 * time.Minute,
		},
		Logging: LoggingConfig{
			Service: "dolphins-bridge",
		},
	}
}

// Load reads the configuration file at path on top of Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration content on top of Default.
func Parse(data []byte) (*Config, error) {
	expanded := expandEnvVars(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} with environment variable values.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		return os.Getenv(name)
	})
}

func parseDurations(cfg *Config) error {
	fields := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"server.drain_duration", cfg.Server.DrainDurationRaw, &cfg.Server.DrainDuration},
		{"ledger.commit_timeout", cfg.Ledger.CommitTimeoutRaw, &cfg.Ledger.CommitTimeout},
		{"bridge.request_timeout", cfg.Bridge.RequestTimeoutRaw, &cfg.Bridge.RequestTimeout},
		{"bridge.pool_idle_ttl", cfg.Bridge.PoolIdleTTLRaw, &cfg.Bridge.PoolIdleTTL},
	}
	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", f.name, f.raw, err)
		}
		*f.dst = d
	}
	return nil
}

// Validate checks that required fields are present and valid.
func (c *Config) Validate() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server.listen_addr is required")
	}
	switch c.Ledger.Mode {
	case LedgerModeFabric:
		if c.Ledger.ConnectionProfile == "" {
			return fmt.Errorf("ledger.connection_profile is required in fabric mode")
		}
	case LedgerModeMemory:
	default:
		return fmt.Errorf("ledger.mode must be %q or %q, got %q", LedgerModeFabric, LedgerModeMemory, c.Ledger.Mode)
	}
	if c.Ledger.Channel == "" {
		return fmt.Errorf("ledger.channel is required")
	}
	if c.Ledger.Contract == "" {
		return fmt.Errorf("ledger.contract is required")
	}
	if c.Wallet.Identity == "" {
		return fmt.Errorf("wallet.identity is required")
	}
	if len(c.Wallet.URIs) == 0 {
		return fmt.Errorf("wallet.uris must list at least one credential store")
	}
	if c.Bridge.RequestTimeout <= 0 {
		return fmt.Errorf("bridge.request_timeout must be positive")
	}
	if c.Bridge.PoolIdleTTL < MinPoolIdleTTL {
		return fmt.Errorf("bridge.pool_idle_ttl must be at least %s", MinPoolIdleTTL)
	}
	if c.RateLimit.RPS < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("rate_limit values must not be negative")
	}
	return nil
}
