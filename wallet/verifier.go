package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ruteri/dolphins-ledger-bridge/cryptoutils"
	"github.com/ruteri/dolphins-ledger-bridge/interfaces"
)

// Verifier checks that a named identity is provisioned before any ledger traffic is attempted.
type Verifier struct {
	store interfaces.CredentialStore
	log   *slog.Logger

	checkCerts bool
	now        func() time.Time
}

// NewVerifier creates a verifier backed by store.
func NewVerifier(store interfaces.CredentialStore, log *slog.Logger) *Verifier {
	return &Verifier{store: store, log: log, now: time.Now}
}

// WithCertificateCheck makes Verify also parse the certificate, check its validity
// period and match it against the private key.
func (v *Verifier) WithCertificateCheck() *Verifier {
	v.checkCerts = true
	return v
}

// Store returns the backing credential store.
func (v *Verifier) Store() interfaces.CredentialStore {
	return v.store
}

// Check reports whether name is present in the store. An error means the store
// could not be consulted; a missing identity is (false, nil).
func (v *Verifier) Check(ctx context.Context, name string) (bool, error) {
	if name == "" {
		return false, nil
	}
	ok, err := v.store.Exists(ctx, name)
	if err != nil {
		if !errors.Is(err, interfaces.ErrCredentialStoreUnavailable) {
			err = fmt.Errorf("%w: %v", interfaces.ErrCredentialStoreUnavailable, err)
		}
		return false, err
	}
	return ok, nil
}

// Verify resolves name to a VerifiedIdentity. It never returns a valid identity
// together with an error.
func (v *Verifier) Verify(ctx context.Context, name string) (interfaces.VerifiedIdentity, error) {
	ok, err := v.Check(ctx, name)
	if err != nil {
		v.log.Error("Credential store unavailable",
			slog.String("store", v.store.Name()),
			slog.String("identity", name),
			"err", err)
		return interfaces.VerifiedIdentity{}, err
	}
	if !ok {
		v.log.Warn("An identity for the user does not exist in the wallet",
			slog.String("identity", name),
			slog.String("store", v.store.Name()))
		return interfaces.VerifiedIdentity{}, fmt.Errorf("%w: %q not found in %s", interfaces.ErrIdentityUnavailable, name, v.store.Name())
	}

	cred, err := v.store.Load(ctx, name)
	if err != nil {
		if errors.Is(err, interfaces.ErrCredentialStoreUnavailable) {
			return interfaces.VerifiedIdentity{}, err
		}
		if !errors.Is(err, interfaces.ErrIdentityUnavailable) {
			err = fmt.Errorf("%w: %v", interfaces.ErrIdentityUnavailable, err)
		}
		return interfaces.VerifiedIdentity{}, err
	}

	id := interfaces.NewVerifiedIdentity(cred)
	if !id.Valid() {
		return interfaces.VerifiedIdentity{}, fmt.Errorf("%w: %q has incomplete credential material", interfaces.ErrIdentityUnavailable, name)
	}
	if v.checkCerts {
		if err := cryptoutils.CheckIdentity([]byte(cred.Certificate), []byte(cred.PrivateKey), v.now()); err != nil {
			v.log.Warn("Rejecting identity with unusable certificate", slog.String("identity", name), "err", err)
			return interfaces.VerifiedIdentity{}, fmt.Errorf("%w: %v", interfaces.ErrIdentityUnavailable, err)
		}
	}
	return id, nil
}
