package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ValidConfig(t *testing.T) {
	t.Setenv("TEST_VAULT_TOKEN", "s.abc")

	path := filepath.Join(t.TempDir(), "bridge.yaml")
	content := `
server:
  listen_addr: "127.0.0.1:9090"
  metrics_addr: "127.0.0.1:9091"
  static_dir: "./views"
  drain_duration: "5s"

ledger:
  mode: fabric
  connection_profile: "./connection.yaml"
  channel: "divers"
  contract: "dolphins"
  commit_timeout: "1m"

wallet:
  identity: "admin"
  uris:
    - "file://./wallet"
    - "vault://${TEST_VAULT_TOKEN}@vault:8200/secret/wallet"

bridge:
  request_timeout: "10s"
  pool_enabled: true
  pool_idle_ttl: "90s"

rate_limit:
  rps: 5
  burst: 10

logging:
  debug: true
  json: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9090", cfg.Server.ListenAddr)
	assert.Equal(t, 5*time.Second, cfg.Server.DrainDuration)
	assert.Equal(t, "divers", cfg.Ledger.Channel)
	assert.Equal(t, time.Minute, cfg.Ledger.CommitTimeout)
	assert.Equal(t, "admin", cfg.Wallet.Identity)
	assert.Equal(t, "vault://s.abc@vault:8200/secret/wallet", cfg.Wallet.URIs[1])
	assert.Equal(t, 10*time.Second, cfg.Bridge.RequestTimeout)
	assert.True(t, cfg.Bridge.PoolEnabled)
	assert.Equal(t, 90*time.Second, cfg.Bridge.PoolIdleTTL)
	assert.Equal(t, 5.0, cfg.RateLimit.RPS)
	assert.Equal(t, 10, cfg.RateLimit.Burst)
	assert.True(t, cfg.Logging.JSON)
	// untouched values keep defaults
	assert.Equal(t, "dolphins-bridge", cfg.Logging.Service)
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("{}"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.ListenAddr)
	assert.Equal(t, "user1", cfg.Wallet.Identity)
	assert.Equal(t, "mychannel", cfg.Ledger.Channel)
	assert.Equal(t, "dolphins", cfg.Ledger.Contract)
	assert.Equal(t, "../network/connection.json", cfg.Ledger.ConnectionProfile)
	assert.False(t, cfg.Bridge.PoolEnabled)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "server: [unterminated"},
		{"bad duration", "bridge:\n  request_timeout: soon\n"},
		{"unknown mode", "ledger:\n  mode: ethereum\n"},
		{"missing profile", "ledger:\n  connection_profile: \"\"\n"},
		{"missing identity", "wallet:\n  identity: \"\"\n"},
		{"no stores", "wallet:\n  uris: []\n"},
		{"negative rate", "rate_limit:\n  rps: -1\n"},
		{"zero request timeout", "bridge:\n  request_timeout: 0s\n"},
		{"tiny pool ttl", "bridge:\n  pool_idle_ttl: 1ns\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content))
			assert.Error(t, err)
		})
	}
}

func TestParse_MemoryModeNeedsNoProfile(t *testing.T) {
	cfg, err := Parse([]byte("ledger:\n  mode: memory\n  connection_profile: \"\"\n"))
	require.NoError(t, err)
	assert.Equal(t, LedgerModeMemory, cfg.Ledger.Mode)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
