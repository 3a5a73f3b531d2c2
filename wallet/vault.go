package wallet

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/vault/api"
	"github.com/ruteri/dolphins-ledger-bridge/interfaces"
)

// VaultStore reads identities from a HashiCorp Vault KV v2 mount.
// Each identity is a secret at <mount>/data/<path>/<label> whose "content" field holds
// the wallet entry JSON.
type VaultStore struct {
	client      *api.Client
	mountPath   string
	dataPath    string
	log         *slog.Logger
	locationURI string
}

// NewVaultStore creates a Vault-backed credential store.
//
// Parameters:
//   - address: Vault server address (e.g. https://vault.example.com:8200)
//   - mountPath: KV v2 mount path (e.g. "secret")
//   - dataPath: Path within the mount holding identities (e.g. "dolphins/wallet")
//   - token: Vault token; if empty the client falls back to VAULT_TOKEN
//   - log: Structured logger for operational insights
func NewVaultStore(address, mountPath, dataPath, token string, log *slog.Logger) (*VaultStore, error) {
	config := api.DefaultConfig()
	config.Address = address
	config.HttpClient = &http.Client{
		Timeout: 30 * time.Second,
	}

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	if token != "" {
		client.SetToken(token)
	}

	mountPath = strings.Trim(mountPath, "/")
	dataPath = strings.Trim(dataPath, "/")

	return &VaultStore{
		client:      client,
		mountPath:   mountPath,
		dataPath:    dataPath,
		log:         log,
		locationURI: fmt.Sprintf("vault://%s/%s/%s", strings.TrimPrefix(strings.TrimPrefix(address, "https://"), "http://"), mountPath, dataPath),
	}, nil
}

// Exists reports whether a secret is stored for label.
func (s *VaultStore) Exists(ctx context.Context, label string) (bool, error) {
	content, err := s.read(ctx, label)
	if err != nil {
		return false, err
	}
	return content != nil, nil
}

// Load reads and decodes the identity stored for label.
func (s *VaultStore) Load(ctx context.Context, label string) (*interfaces.Credential, error) {
	content, err := s.read(ctx, label)
	if err != nil {
		return nil, err
	}
	if content == nil {
		return nil, fmt.Errorf("%w: %s not found in Vault", interfaces.ErrIdentityUnavailable, label)
	}

	cred, err := DecodeIdentity(label, content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrIdentityUnavailable, err)
	}
	return cred, nil
}

// read returns the raw wallet entry for label, nil if there is none.
func (s *VaultStore) read(ctx context.Context, label string) ([]byte, error) {
	start := time.Now()
	path := s.secretPath(label)

	secret, err := s.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		s.log.Error("Failed to read from Vault",
			slog.String("path", path),
			"err", err)
		return nil, fmt.Errorf("%w: %v", interfaces.ErrCredentialStoreUnavailable, err)
	}

	if secret == nil || secret.Data == nil {
		s.log.Debug("Identity not found in Vault", slog.String("path", path))
		return nil, nil
	}

	// KV v2 nests the payload under "data"
	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		// a deleted KV v2 version reports data: null
		return nil, nil
	}

	content, ok := data["content"].(string)
	if !ok {
		s.log.Error("Content key not found in Vault data", slog.String("path", path))
		return nil, fmt.Errorf("%w: content key not found in Vault data for %s", interfaces.ErrIdentityUnavailable, label)
	}

	s.log.Debug("Read identity from Vault",
		slog.String("path", path),
		slog.Duration("duration", time.Since(start)))

	return []byte(content), nil
}

func (s *VaultStore) secretPath(label string) string {
	if s.dataPath == "" {
		return fmt.Sprintf("%s/data/%s", s.mountPath, label)
	}
	return fmt.Sprintf("%s/data/%s/%s", s.mountPath, s.dataPath, label)
}

// Name returns a unique identifier for this store.
func (s *VaultStore) Name() string {
	return fmt.Sprintf("vault-%s-%s", s.mountPath, s.dataPath)
}

// LocationURI returns the URI that identifies this store.
func (s *VaultStore) LocationURI() string {
	return s.locationURI
}
