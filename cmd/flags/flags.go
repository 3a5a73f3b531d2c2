package flags

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ruteri/dolphins-ledger-bridge/api"
	"github.com/ruteri/dolphins-ledger-bridge/common"
	"github.com/ruteri/dolphins-ledger-bridge/config"
	"github.com/urfave/cli/v2"
)

var defaults = config.Default()

var ConfigFlag = &cli.StringFlag{
	Name:    "config",
	EnvVars: []string{"BRIDGE_CONFIG"},
	Usage:   "YAML configuration file; flags set explicitly override its values",
}

var ListenAddrFlag = &cli.StringFlag{
	Name:    "listen-addr",
	EnvVars: []string{"LISTEN_ADDR"},
	Value:   defaults.Server.ListenAddr,
	Usage:   "address to listen on for API",
}
var MetricsAddrFlag = &cli.StringFlag{
	Name:    "metrics-addr",
	EnvVars: []string{"METRICS_ADDR"},
	Value:   "127.0.0.1:8090",
	Usage:   "address to listen on for Prometheus metrics",
}
var StaticDirFlag = &cli.StringFlag{
	Name:    "static-dir",
	EnvVars: []string{"STATIC_DIR"},
	Usage:   "directory served at / (index.html is the landing page)",
}

var LedgerModeFlag = &cli.StringFlag{
	Name:    "ledger-mode",
	EnvVars: []string{"LEDGER_MODE"},
	Value:   defaults.Ledger.Mode,
	Usage:   "'fabric' to connect to a network, 'memory' for the in-process simulator",
}
var ConnectionProfileFlag = &cli.StringFlag{
	Name:    "connection-profile",
	EnvVars: []string{"CONNECTION_PROFILE"},
	Value:   defaults.Ledger.ConnectionProfile,
	Usage:   "path of the network connection profile (JSON or YAML)",
}
var ChannelFlag = &cli.StringFlag{
	Name:    "channel",
	EnvVars: []string{"CHANNEL"},
	Value:   defaults.Ledger.Channel,
	Usage:   "channel the contract is deployed on",
}
var ContractFlag = &cli.StringFlag{
	Name:    "contract",
	EnvVars: []string{"CONTRACT"},
	Value:   defaults.Ledger.Contract,
	Usage:   "chaincode name",
}
var CommitTimeoutFlag = &cli.DurationFlag{
	Name:    "commit-timeout",
	EnvVars: []string{"COMMIT_TIMEOUT"},
	Value:   defaults.Ledger.CommitTimeout,
	Usage:   "how long the gateway waits for commit events",
}

var WalletFlag = &cli.StringSliceFlag{
	Name:    "wallet",
	EnvVars: []string{"WALLET_URIS"},
	Value:   cli.NewStringSlice(defaults.Wallet.URIs...),
	Usage:   "credential store URI (file://, vault://, s3://, memory://); repeat to fall back across stores",
}
var IdentityFlag = &cli.StringFlag{
	Name:    "identity",
	EnvVars: []string{"IDENTITY"},
	Value:   defaults.Wallet.Identity,
	Usage:   "wallet label of the identity transactions are signed with",
}

var RequestTimeoutFlag = &cli.DurationFlag{
	Name:    "request-timeout",
	EnvVars: []string{"REQUEST_TIMEOUT"},
	Value:   defaults.Bridge.RequestTimeout,
	Usage:   "deadline for one bridge call, connect included",
}
var PoolFlag = &cli.BoolFlag{
	Name:    "session-pool",
	EnvVars: []string{"SESSION_POOL"},
	Usage:   "reuse gateways across requests instead of one per request",
}
var PoolIdleTTLFlag = &cli.DurationFlag{
	Name:    "session-pool-idle-ttl",
	EnvVars: []string{"SESSION_POOL_IDLE_TTL"},
	Value:   defaults.Bridge.PoolIdleTTL,
	Usage:   "idle time after which a pooled gateway is closed",
}

var RateLimitRPSFlag = &cli.Float64Flag{
	Name:    "rate-limit-rps",
	EnvVars: []string{"RATE_LIMIT_RPS"},
	Usage:   "write requests per second allowed per client address, 0 disables",
}
var RateLimitBurstFlag = &cli.IntFlag{
	Name:    "rate-limit-burst",
	EnvVars: []string{"RATE_LIMIT_BURST"},
	Usage:   "burst size for the write rate limit",
}

var LogJsonFlag = &cli.BoolFlag{
	Name:  "log-json",
	Value: false,
	Usage: "log in JSON format",
}
var LogDebugFlag = &cli.BoolFlag{
	Name:  "log-debug",
	Value: false,
	Usage: "log debug messages",
}
var LogUidFlag = &cli.BoolFlag{
	Name:  "log-uid",
	Value: false,
	Usage: "generate a uuid and add to all log messages",
}
var LogServiceFlag = &cli.StringFlag{
	Name:  "log-service",
	Value: defaults.Logging.Service,
	Usage: "add 'service' tag to logs",
}

var PprofFlag = &cli.BoolFlag{
	Name:  "pprof",
	Value: false,
	Usage: "enable pprof debug endpoint",
}
var DrainSecondsFlag = &cli.Int64Flag{
	Name:  "drain-seconds",
	Value: int64(defaults.Server.DrainDuration / time.Second),
	Usage: "seconds to wait in drain HTTP request",
}

var CommonFlags = []cli.Flag{
	LogJsonFlag,
	LogDebugFlag,
	LogUidFlag,
	LogServiceFlag,
	PprofFlag,
	DrainSecondsFlag,
	MetricsAddrFlag,
}

var ServerFlags = append([]cli.Flag{
	ConfigFlag,
	ListenAddrFlag,
	StaticDirFlag,
	LedgerModeFlag,
	ConnectionProfileFlag,
	ChannelFlag,
	ContractFlag,
	CommitTimeoutFlag,
	WalletFlag,
	IdentityFlag,
	RequestTimeoutFlag,
	PoolFlag,
	PoolIdleTTLFlag,
	RateLimitRPSFlag,
	RateLimitBurstFlag,
}, CommonFlags...)

// LoadConfig reads --config when given and applies every flag that was set on the
// command line or through its environment variable.
func LoadConfig(cCtx *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	cfg.Server.MetricsAddr = MetricsAddrFlag.Value
	if path := cCtx.String(ConfigFlag.Name); path != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return nil, err
		}
	}

	set := func(name string, apply func()) {
		if cCtx.IsSet(name) {
			apply()
		}
	}
	set(ListenAddrFlag.Name, func() { cfg.Server.ListenAddr = cCtx.String(ListenAddrFlag.Name) })
	set(MetricsAddrFlag.Name, func() { cfg.Server.MetricsAddr = cCtx.String(MetricsAddrFlag.Name) })
	set(StaticDirFlag.Name, func() { cfg.Server.StaticDir = cCtx.String(StaticDirFlag.Name) })
	set(PprofFlag.Name, func() { cfg.Server.EnablePprof = cCtx.Bool(PprofFlag.Name) })
	set(DrainSecondsFlag.Name, func() {
		cfg.Server.DrainDuration = time.Duration(cCtx.Int64(DrainSecondsFlag.Name)) * time.Second
	})
	set(LedgerModeFlag.Name, func() { cfg.Ledger.Mode = cCtx.String(LedgerModeFlag.Name) })
	set(ConnectionProfileFlag.Name, func() { cfg.Ledger.ConnectionProfile = cCtx.String(ConnectionProfileFlag.Name) })
	set(ChannelFlag.Name, func() { cfg.Ledger.Channel = cCtx.String(ChannelFlag.Name) })
	set(ContractFlag.Name, func() { cfg.Ledger.Contract = cCtx.String(ContractFlag.Name) })
	set(CommitTimeoutFlag.Name, func() { cfg.Ledger.CommitTimeout = cCtx.Duration(CommitTimeoutFlag.Name) })
	set(WalletFlag.Name, func() { cfg.Wallet.URIs = cCtx.StringSlice(WalletFlag.Name) })
	set(IdentityFlag.Name, func() { cfg.Wallet.Identity = cCtx.String(IdentityFlag.Name) })
	set(RequestTimeoutFlag.Name, func() { cfg.Bridge.RequestTimeout = cCtx.Duration(RequestTimeoutFlag.Name) })
	set(PoolFlag.Name, func() { cfg.Bridge.PoolEnabled = cCtx.Bool(PoolFlag.Name) })
	set(PoolIdleTTLFlag.Name, func() { cfg.Bridge.PoolIdleTTL = cCtx.Duration(PoolIdleTTLFlag.Name) })
	set(RateLimitRPSFlag.Name, func() { cfg.RateLimit.RPS = cCtx.Float64(RateLimitRPSFlag.Name) })
	set(RateLimitBurstFlag.Name, func() { cfg.RateLimit.Burst = cCtx.Int(RateLimitBurstFlag.Name) })
	set(LogJsonFlag.Name, func() { cfg.Logging.JSON = cCtx.Bool(LogJsonFlag.Name) })
	set(LogDebugFlag.Name, func() { cfg.Logging.Debug = cCtx.Bool(LogDebugFlag.Name) })
	set(LogServiceFlag.Name, func() { cfg.Logging.Service = cCtx.String(LogServiceFlag.Name) })

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func SetupLogger(cCtx *cli.Context, cfg *config.Config) (log *slog.Logger) {
	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   cfg.Logging.Debug,
		JSON:    cfg.Logging.JSON,
		Service: cfg.Logging.Service,
		Version: common.Version,
	})

	if cCtx.Bool(LogUidFlag.Name) {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

func ConfigureServer(cfg *config.Config, logger *slog.Logger) *api.HTTPServerConfig {
	return &api.HTTPServerConfig{
		ListenAddr:               cfg.Server.ListenAddr,
		MetricsAddr:              cfg.Server.MetricsAddr,
		StaticDir:                cfg.Server.StaticDir,
		RateLimitRPS:             cfg.RateLimit.RPS,
		RateLimitBurst:           cfg.RateLimit.Burst,
		Log:                      logger,
		EnablePprof:              cfg.Server.EnablePprof,
		DrainDuration:            cfg.Server.DrainDuration,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              60 * time.Second,
		// writes wait for commit, so allow the full request timeout plus headroom
		WriteTimeout: cfg.Bridge.RequestTimeout + 10*time.Second,
	}
}
