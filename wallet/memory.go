package wallet

import (
	"context"
	"fmt"

	"github.com/hyperledger/fabric-sdk-go/pkg/gateway"
	"github.com/ruteri/dolphins-ledger-bridge/interfaces"
	"go.uber.org/atomic"
)

// MemoryStore keeps identities in a Fabric in-memory wallet.
// SetUnavailable simulates an unreachable store.
type MemoryStore struct {
	wallet      *gateway.Wallet
	unavailable atomic.Bool
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{wallet: gateway.NewInMemoryWallet()}
}

// Put stores an identity.
func (s *MemoryStore) Put(cred *interfaces.Credential) error {
	return s.wallet.Put(cred.Label, gateway.NewX509Identity(cred.MSPID, cred.Certificate, cred.PrivateKey))
}

// Remove deletes an identity.
func (s *MemoryStore) Remove(label string) error {
	return s.wallet.Remove(label)
}

// SetUnavailable makes every subsequent call fail with ErrCredentialStoreUnavailable.
func (s *MemoryStore) SetUnavailable(v bool) {
	s.unavailable.Store(v)
}

func (s *MemoryStore) Exists(ctx context.Context, label string) (bool, error) {
	if s.unavailable.Load() {
		return false, interfaces.ErrCredentialStoreUnavailable
	}
	return s.wallet.Exists(label), nil
}

func (s *MemoryStore) Load(ctx context.Context, label string) (*interfaces.Credential, error) {
	if s.unavailable.Load() {
		return nil, interfaces.ErrCredentialStoreUnavailable
	}
	id, err := s.wallet.Get(label)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrIdentityUnavailable, err)
	}
	x509, ok := id.(*gateway.X509Identity)
	if !ok {
		return nil, fmt.Errorf("%w: identity %s is not an X.509 identity", interfaces.ErrIdentityUnavailable, label)
	}
	return &interfaces.Credential{
		Label:       label,
		MSPID:       x509.MspID,
		Certificate: x509.Certificate(),
		PrivateKey:  x509.Key(),
	}, nil
}

func (s *MemoryStore) Name() string {
	return "memory"
}

func (s *MemoryStore) LocationURI() string {
	return "memory://"
}
