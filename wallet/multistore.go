package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ruteri/dolphins-ledger-bridge/interfaces"
)

// MultiStore consults several credential stores in order and uses the first one
// that holds the requested identity.
type MultiStore struct {
	stores []interfaces.CredentialStore
	log    *slog.Logger
}

// NewMultiStore creates a fallback store over stores.
func NewMultiStore(stores []interfaces.CredentialStore, logger *slog.Logger) *MultiStore {
	if logger == nil {
		logger = slog.Default()
	}

	return &MultiStore{
		stores: stores,
		log:    logger,
	}
}

// Exists reports true as soon as one store has the identity. It fails only when
// every store failed to answer.
func (m *MultiStore) Exists(ctx context.Context, label string) (bool, error) {
	var errs []error
	for _, store := range m.stores {
		ok, err := store.Exists(ctx, label)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", store.Name(), err))
			m.log.Debug("Store failed to answer",
				slog.String("store", store.Name()),
				slog.String("label", label),
				"err", err)
			continue
		}
		if ok {
			return true, nil
		}
	}

	if len(errs) > 0 && len(errs) == len(m.stores) {
		return false, fmt.Errorf("%w: all stores failed: %v", interfaces.ErrCredentialStoreUnavailable, errors.Join(errs...))
	}
	return false, nil
}

// Load returns the identity from the first store that can provide it.
func (m *MultiStore) Load(ctx context.Context, label string) (*interfaces.Credential, error) {
	start := time.Now()
	var errs []error
	unavailable := 0

	for _, store := range m.stores {
		cred, err := store.Load(ctx, label)
		if err == nil {
			m.log.Debug("Loaded identity",
				slog.String("store", store.Name()),
				slog.String("label", label),
				slog.Duration("duration", time.Since(start)))
			return cred, nil
		}
		if errors.Is(err, interfaces.ErrCredentialStoreUnavailable) {
			unavailable++
		}
		errs = append(errs, fmt.Errorf("%s: %w", store.Name(), err))
	}

	if len(m.stores) > 0 && unavailable == len(m.stores) {
		return nil, fmt.Errorf("%w: all stores failed: %v", interfaces.ErrCredentialStoreUnavailable, errors.Join(errs...))
	}
	return nil, fmt.Errorf("%w: %s not found in any store: %v", interfaces.ErrIdentityUnavailable, label, errors.Join(errs...))
}

func (m *MultiStore) Name() string {
	return "multi-store"
}

func (m *MultiStore) LocationURI() string {
	var locations []string
	for _, store := range m.stores {
		locations = append(locations, store.LocationURI())
	}

	return "multi:[" + strings.Join(locations, ",") + "]"
}
