package flags

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ruteri/dolphins-ledger-bridge/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func runWithFlags(t *testing.T, args ...string) (*config.Config, error) {
	t.Helper()
	var cfg *config.Config
	var loadErr error
	app := &cli.App{
		Name:  "test",
		Flags: ServerFlags,
		Action: func(cCtx *cli.Context) error {
			cfg, loadErr = LoadConfig(cCtx)
			return nil
		},
	}
	require.NoError(t, app.Run(append([]string{"test"}, args...)))
	return cfg, loadErr
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := runWithFlags(t)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.ListenAddr)
	assert.Equal(t, "user1", cfg.Wallet.Identity)
	assert.Equal(t, "mychannel", cfg.Ledger.Channel)
	assert.Equal(t, "dolphins", cfg.Ledger.Contract)
	assert.Equal(t, []string{"file://./wallet"}, cfg.Wallet.URIs)
	assert.Equal(t, 45*time.Second, cfg.Server.DrainDuration)
	assert.False(t, cfg.Bridge.PoolEnabled)
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  listen_addr: 127.0.0.1:9000
ledger:
  mode: memory
  channel: filechannel
bridge:
  request_timeout: 5s
`), 0o644))

	cfg, err := runWithFlags(t,
		"--config", path,
		"--channel", "flagchannel",
		"--wallet", "memory://",
		"--wallet", "file:///tmp/wallet",
		"--session-pool",
	)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.ListenAddr)
	assert.Equal(t, config.LedgerModeMemory, cfg.Ledger.Mode)
	assert.Equal(t, "flagchannel", cfg.Ledger.Channel)
	assert.Equal(t, 5*time.Second, cfg.Bridge.RequestTimeout)
	assert.Equal(t, []string{"memory://", "file:///tmp/wallet"}, cfg.Wallet.URIs)
	assert.True(t, cfg.Bridge.PoolEnabled)
}

func TestLoadConfig_EnvVars(t *testing.T) {
	t.Setenv("LISTEN_ADDR", "127.0.0.1:7000")
	t.Setenv("IDENTITY", "admin")

	cfg, err := runWithFlags(t)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7000", cfg.Server.ListenAddr)
	assert.Equal(t, "admin", cfg.Wallet.Identity)
}

func TestLoadConfig_Invalid(t *testing.T) {
	_, err := runWithFlags(t, "--ledger-mode", "paper")
	assert.Error(t, err)

	_, err = runWithFlags(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestConfigureServer(t *testing.T) {
	cfg := config.Default()
	cfg.RateLimit.RPS = 5
	cfg.Server.StaticDir = "./views"

	srvCfg := ConfigureServer(cfg, nil)
	assert.Equal(t, cfg.Server.ListenAddr, srvCfg.ListenAddr)
	assert.Equal(t, "./views", srvCfg.StaticDir)
	assert.Equal(t, float64(5), srvCfg.RateLimitRPS)
	assert.Greater(t, srvCfg.WriteTimeout, cfg.Bridge.RequestTimeout)
}
