package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ruteri/dolphins-ledger-bridge/interfaces"
	"github.com/ruteri/dolphins-ledger-bridge/ledger"
	"github.com/ruteri/dolphins-ledger-bridge/metrics"
)

// SessionRunner runs fn inside a ledger session and releases the session afterwards.
type SessionRunner interface {
	WithSession(ctx context.Context, id interfaces.VerifiedIdentity, channel, contract string, fn func(*Session) error) error
}

// Session is a resolved contract handle scoped to one identity, channel and contract.
// Every call is bounded by the caller's context.
type Session struct {
	identity string
	channel  string
	contract interfaces.Contract
	name     string
}

// Identity returns the label of the identity the session signs with.
func (s *Session) Identity() string { return s.identity }

// Submit sends a state-changing transaction.
func (s *Session) Submit(ctx context.Context, name string, args ...string) ([]byte, error) {
	return bounded(ctx, func() ([]byte, error) {
		return s.contract.Submit(ctx, name, args...)
	}, nil, interfaces.ErrTransactionRejected)
}

// Evaluate runs a read-only query.
func (s *Session) Evaluate(ctx context.Context, name string, args ...string) ([]byte, error) {
	return bounded(ctx, func() ([]byte, error) {
		return s.contract.Evaluate(ctx, name, args...)
	}, nil, interfaces.ErrTransactionRejected)
}

// SessionManager opens one gateway per WithSession call and always closes it.
type SessionManager struct {
	connector interfaces.Connector
	metrics   *metrics.BridgeMetrics
	log       *slog.Logger
}

// NewSessionManager creates a session manager. m may be nil.
func NewSessionManager(connector interfaces.Connector, m *metrics.BridgeMetrics, log *slog.Logger) *SessionManager {
	return &SessionManager{
		connector: connector,
		metrics:   m,
		log:       log,
	}
}

// WithSession opens a gateway for id, resolves channel and contract, and runs fn.
// The gateway is closed exactly once on every exit path, including a panic in fn.
func (sm *SessionManager) WithSession(ctx context.Context, id interfaces.VerifiedIdentity, channel, contract string, fn func(*Session) error) error {
	gw, session, err := sm.open(ctx, id, channel, contract)
	if err != nil {
		return err
	}
	defer sm.closeGateway(gw, id.Label())

	return fn(session)
}

// open connects and resolves the contract. A gateway whose resolution fails is
// closed before returning.
func (sm *SessionManager) open(ctx context.Context, id interfaces.VerifiedIdentity, channel, contract string) (interfaces.Gateway, *Session, error) {
	if !id.Valid() {
		return nil, nil, fmt.Errorf("%w: session requested without a verified identity", interfaces.ErrIdentityUnavailable)
	}

	start := time.Now()
	gw, err := bounded(ctx, func() (interfaces.Gateway, error) {
		return sm.connector.Connect(ctx, id.Credential())
	}, func(late interfaces.Gateway) {
		// connect finished after the caller gave up
		sm.metrics.SessionOpened()
		sm.closeGateway(late, id.Label())
	}, interfaces.ErrNetworkUnavailable)
	if err != nil {
		sm.log.Error("Failed to open ledger session",
			slog.String("identity", id.Label()),
			slog.String("channel", channel),
			"err", err)
		return nil, nil, err
	}
	sm.metrics.SessionOpened()

	network, err := gw.Network(channel)
	if err != nil {
		sm.closeGateway(gw, id.Label())
		return nil, nil, ledger.Classify(err, interfaces.ErrChannelNotFound)
	}
	c, err := network.Contract(contract)
	if err != nil {
		sm.closeGateway(gw, id.Label())
		return nil, nil, ledger.Classify(err, interfaces.ErrContractNotFound)
	}

	sm.log.Debug("Ledger session opened",
		slog.String("identity", id.Label()),
		slog.String("channel", channel),
		slog.String("contract", contract),
		slog.Duration("duration", time.Since(start)))

	return gw, &Session{
		identity: id.Label(),
		channel:  channel,
		contract: c,
		name:     contract,
	}, nil
}

func (sm *SessionManager) closeGateway(gw interfaces.Gateway, identity string) {
	gw.Close()
	sm.metrics.SessionClosed()
	sm.log.Debug("Ledger session closed", slog.String("identity", identity))
}

// bounded runs fn and waits for it or for ctx, whichever comes first. If ctx wins,
// onLate receives the result fn eventually produces, when it produced no error.
// Errors are classified with fallback.
func bounded[T any](ctx context.Context, fn func() (T, error), onLate func(T), fallback error) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, fmt.Errorf("%w: %v", interfaces.ErrTimeout, err)
	}

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			if ctx.Err() != nil && !errors.Is(r.err, interfaces.ErrTimeout) {
				return zero, fmt.Errorf("%w: %v", interfaces.ErrTimeout, r.err)
			}
			return zero, ledger.Classify(r.err, fallback)
		}
		return r.v, nil
	case <-ctx.Done():
		if onLate != nil {
			go func() {
				if r := <-done; r.err == nil {
					onLate(r.v)
				}
			}()
		}
		return zero, fmt.Errorf("%w: %v", interfaces.ErrTimeout, ctx.Err())
	}
}
