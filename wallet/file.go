package wallet

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hyperledger/fabric-sdk-go/pkg/gateway"
	"github.com/ruteri/dolphins-ledger-bridge/interfaces"
)

// FileStore reads identities from a Fabric file system wallet directory.
type FileStore struct {
	wallet      *gateway.Wallet
	dir         string
	log         *slog.Logger
	locationURI string
}

// NewFileStore opens the wallet directory at dir, creating it if it does not exist.
func NewFileStore(dir string, log *slog.Logger) (*FileStore, error) {
	w, err := gateway.NewFileSystemWallet(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open wallet directory: %v", interfaces.ErrCredentialStoreUnavailable, err)
	}

	return &FileStore{
		wallet:      w,
		dir:         dir,
		log:         log,
		locationURI: fmt.Sprintf("file://%s", dir),
	}, nil
}

// Exists reports whether an identity file for label is present.
// It fails with ErrCredentialStoreUnavailable when the directory cannot be read.
func (s *FileStore) Exists(ctx context.Context, label string) (bool, error) {
	info, err := os.Stat(s.dir)
	if err != nil {
		s.log.Error("Wallet directory unreadable", "err", err, slog.String("dir", s.dir))
		return false, fmt.Errorf("%w: %v", interfaces.ErrCredentialStoreUnavailable, err)
	}
	if !info.IsDir() {
		return false, fmt.Errorf("%w: %s is not a directory", interfaces.ErrCredentialStoreUnavailable, s.dir)
	}

	return s.wallet.Exists(label), nil
}

// Load reads the identity stored under label.
func (s *FileStore) Load(ctx context.Context, label string) (*interfaces.Credential, error) {
	id, err := s.wallet.Get(label)
	if err != nil {
		if _, statErr := os.Stat(s.dir); statErr != nil {
			return nil, fmt.Errorf("%w: %v", interfaces.ErrCredentialStoreUnavailable, statErr)
		}
		return nil, fmt.Errorf("%w: %v", interfaces.ErrIdentityUnavailable, err)
	}

	x509, ok := id.(*gateway.X509Identity)
	if !ok {
		return nil, fmt.Errorf("%w: identity %s is not an X.509 identity", interfaces.ErrIdentityUnavailable, label)
	}

	s.log.Debug("Loaded identity from wallet",
		slog.String("label", label),
		slog.String("path", filepath.Join(s.dir, label+identityFileExt)))

	return &interfaces.Credential{
		Label:       label,
		MSPID:       x509.MspID,
		Certificate: x509.Certificate(),
		PrivateKey:  x509.Key(),
	}, nil
}

// Put writes an identity into the wallet. The bridge itself never provisions identities;
// this is used by tooling and tests.
func (s *FileStore) Put(cred *interfaces.Credential) error {
	return s.wallet.Put(cred.Label, gateway.NewX509Identity(cred.MSPID, cred.Certificate, cred.PrivateKey))
}

// Name returns a unique identifier for this store.
func (s *FileStore) Name() string {
	return fmt.Sprintf("file-%s", filepath.Base(s.dir))
}

// LocationURI returns the URI that identifies this store.
func (s *FileStore) LocationURI() string {
	return s.locationURI
}
