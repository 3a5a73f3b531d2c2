package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ruteri/dolphins-ledger-bridge/interfaces"
	"github.com/ruteri/dolphins-ledger-bridge/metrics"
)

// IdentityVerifier resolves an identity name to verified credential material.
type IdentityVerifier interface {
	Verify(ctx context.Context, name string) (interfaces.VerifiedIdentity, error)
}

// Config is the bridge's explicit, immutable deployment configuration.
type Config struct {
	// Identity is the wallet label every transaction is signed with.
	Identity string
	Channel  string
	Contract string
	// Timeout bounds a whole Invoke, session open included. It must be positive.
	Timeout time.Duration
}

// Validate checks that all names are set.
func (c Config) Validate() error {
	switch {
	case c.Identity == "":
		return errors.New("identity is required")
	case c.Channel == "":
		return errors.New("channel is required")
	case c.Contract == "":
		return errors.New("contract is required")
	case c.Timeout <= 0:
		return errors.New("timeout must be positive")
	}
	return nil
}

// Bridge turns logical operation requests into ledger transactions.
type Bridge struct {
	cfg      Config
	router   *Router
	registry *OperationRegistry
	verifier IdentityVerifier
	sessions SessionRunner
	metrics  *metrics.BridgeMetrics
	log      *slog.Logger
}

// New creates a bridge. m may be nil.
func New(cfg Config, registry *OperationRegistry, verifier IdentityVerifier, sessions SessionRunner, m *metrics.BridgeMetrics, log *slog.Logger) (*Bridge, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid bridge config: %w", err)
	}
	return &Bridge{
		cfg:      cfg,
		router:   NewRouter(registry, log),
		registry: registry,
		verifier: verifier,
		sessions: sessions,
		metrics:  m,
		log:      log,
	}, nil
}

// Operations lists the operations the bridge accepts.
func (b *Bridge) Operations() []interfaces.OperationSpec {
	return b.registry.Operations()
}

// Config returns the bridge configuration.
func (b *Bridge) Config() Config {
	return b.cfg
}

// Invoke validates op and args, verifies the configured identity, runs the
// transaction in a session and normalizes the result. Validation failures never
// reach the credential store or the network.
func (b *Bridge) Invoke(ctx context.Context, op string, args []string) (resp *Response, err error) {
	start := time.Now()
	log := b.log.With(slog.String("uid", uuid.NewString()), slog.String("operation", op))

	spec, err := b.router.Validate(op, args)
	if err != nil {
		b.metrics.ObserveTransaction("unknown", "unknown", interfaces.ErrorCode(err), time.Since(start))
		log.Debug("Rejected request", "err", err)
		return nil, err
	}

	defer func() {
		b.metrics.ObserveTransaction(spec.Name, spec.Kind.String(), interfaces.ErrorCode(err), time.Since(start))
		if err != nil {
			log.Error("Transaction failed",
				slog.String("code", interfaces.ErrorCode(err)),
				slog.Duration("duration", time.Since(start)),
				"err", err)
		} else {
			log.Info("Transaction completed",
				slog.String("kind", spec.Kind.String()),
				slog.Duration("duration", time.Since(start)))
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
	defer cancel()

	id, err := b.verifier.Verify(ctx, b.cfg.Identity)
	if err != nil {
		b.metrics.IdentityChecked(interfaces.ErrorCode(err))
		return nil, err
	}
	b.metrics.IdentityChecked("OK")

	err = b.sessions.WithSession(ctx, id, b.cfg.Channel, b.cfg.Contract, func(s *Session) error {
		result, err := b.router.Execute(ctx, s, spec.Name, args)
		if err != nil {
			return err
		}
		resp, err = Normalize(result)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
