package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ruteri/dolphins-ledger-bridge/bridge"
	"github.com/ruteri/dolphins-ledger-bridge/cmd/flags"
	"github.com/ruteri/dolphins-ledger-bridge/common"
	"github.com/ruteri/dolphins-ledger-bridge/config"
	"github.com/ruteri/dolphins-ledger-bridge/cryptoutils"
	"github.com/ruteri/dolphins-ledger-bridge/httpserver"
	"github.com/ruteri/dolphins-ledger-bridge/interfaces"
	"github.com/ruteri/dolphins-ledger-bridge/ledger"
	"github.com/ruteri/dolphins-ledger-bridge/metrics"
	"github.com/ruteri/dolphins-ledger-bridge/wallet"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:    "dolphins-bridge",
		Usage:   "Serve the diver certification REST API on top of a Fabric ledger",
		Version: common.Version,
		Flags:   flags.ServerFlags,
		Action:  runServer,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runServer(cCtx *cli.Context) error {
	cfg, err := flags.LoadConfig(cCtx)
	if err != nil {
		return err
	}
	logger := flags.SetupLogger(cCtx, cfg)

	storeFactory := wallet.NewStoreFactory(logger)
	store, err := storeFactory.CreateMultiStore(cfg.Wallet.URIs)
	if err != nil {
		logger.Error("Failed to open credential stores", "err", err)
		return err
	}
	if ms, ok := store.(*wallet.MemoryStore); ok && cfg.Ledger.Mode == config.LedgerModeMemory {
		if err := enrollDevIdentity(ms, cfg.Wallet.Identity); err != nil {
			logger.Error("Failed to enroll development identity", "err", err)
			return err
		}
		logger.Info("Enrolled self-signed development identity", slog.String("identity", cfg.Wallet.Identity))
	}
	verifier := wallet.NewVerifier(store, logger)
	if cfg.Ledger.Mode == config.LedgerModeFabric {
		verifier = verifier.WithCertificateCheck()
	}

	// The identity may be enrolled after startup, so a missing one is only reported.
	if ok, err := verifier.Check(cCtx.Context, cfg.Wallet.Identity); err != nil {
		logger.Warn("Credential store not reachable at startup", "err", err, slog.String("store", store.Name()))
	} else if !ok {
		logger.Warn("Identity does not exist in the wallet yet",
			slog.String("identity", cfg.Wallet.Identity),
			slog.String("store", store.LocationURI()))
	}

	connector, err := newConnector(cfg, logger)
	if err != nil {
		return err
	}

	metricsSrv, err := metrics.New(common.PackageName, cfg.Server.MetricsAddr)
	if err != nil {
		logger.Error("Failed to create metrics server", "err", err)
		return err
	}

	sm := bridge.NewSessionManager(connector, metricsSrv.Bridge(), logger)
	var sessions bridge.SessionRunner = sm
	if cfg.Bridge.PoolEnabled {
		logger.Info("Session pool enabled", slog.Duration("idleTTL", cfg.Bridge.PoolIdleTTL))
		pool := bridge.NewSessionPool(sm, cfg.Bridge.PoolIdleTTL, logger)
		defer pool.Close()
		sessions = pool
	}

	b, err := bridge.New(bridge.Config{
		Identity: cfg.Wallet.Identity,
		Channel:  cfg.Ledger.Channel,
		Contract: cfg.Ledger.Contract,
		Timeout:  cfg.Bridge.RequestTimeout,
	}, bridge.MustDefaultRegistry(), verifier, sessions, metricsSrv.Bridge(), logger)
	if err != nil {
		logger.Error("Failed to create bridge", "err", err)
		return err
	}

	server, err := httpserver.New(flags.ConfigureServer(cfg, logger), httpserver.NewHandler(b, logger), metricsSrv)
	if err != nil {
		logger.Error("Failed to create server", "err", err)
		return err
	}

	logger.Info("Starting bridge",
		slog.String("mode", cfg.Ledger.Mode),
		slog.String("channel", cfg.Ledger.Channel),
		slog.String("contract", cfg.Ledger.Contract),
		slog.String("identity", cfg.Wallet.Identity))
	server.RunInBackground()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Server is running, press Ctrl+C to stop")
	<-ctx.Done()
	logger.Info("Shutdown signal received")

	server.Shutdown()
	logger.Info("Server shutdown complete")
	return nil
}

func enrollDevIdentity(store *wallet.MemoryStore, label string) error {
	certPEM, keyPEM, err := cryptoutils.NewIdentity(label, "Org1MSP", time.Now().Add(-time.Minute), 365*24*time.Hour)
	if err != nil {
		return err
	}
	return store.Put(&interfaces.Credential{
		Label:       label,
		MSPID:       "Org1MSP",
		Certificate: string(certPEM),
		PrivateKey:  string(keyPEM),
	})
}

func newConnector(cfg *config.Config, logger *slog.Logger) (interfaces.Connector, error) {
	if cfg.Ledger.Mode == config.LedgerModeMemory {
		logger.Warn("Using in-memory ledger, state is lost on exit")
		return ledger.NewMemoryLedger(cfg.Ledger.Channel, cfg.Ledger.Contract, logger), nil
	}

	profile, err := ledger.LoadConnectionProfile(cfg.Ledger.ConnectionProfile)
	if err != nil {
		logger.Error("Failed to load connection profile", "err", err, slog.String("path", cfg.Ledger.ConnectionProfile))
		return nil, err
	}
	logger.Info("Loaded connection profile", slog.String("path", profile.Path), slog.String("name", profile.Name))
	return ledger.NewFabricConnector(profile, cfg.Ledger.CommitTimeout, logger), nil
}
