package wallet

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/ruteri/dolphins-ledger-bridge/interfaces"
)

// StoreFactory creates credential stores from URI strings.
type StoreFactory struct {
	log *slog.Logger
}

// NewStoreFactory creates a new factory.
func NewStoreFactory(logger *slog.Logger) *StoreFactory {
	return &StoreFactory{log: logger}
}

// StoreFor creates a credential store from a location URI.
// The URI format is [scheme]://[auth@]host[:port][/path][?params]
//
// Supported schemes:
//   - file:// - Fabric file system wallet directory
//   - vault:// - HashiCorp Vault KV v2 mount
//   - s3:// - Amazon S3 or compatible object storage
//   - memory:// - empty in-memory wallet
func (sf *StoreFactory) StoreFor(locationURI string) (interfaces.CredentialStore, error) {
	u, err := url.Parse(locationURI)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidLocationURI, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "file":
		return sf.createFileStore(u)
	case "vault":
		return sf.createVaultStore(u)
	case "s3":
		return sf.createS3Store(u)
	case "memory":
		return NewMemoryStore(), nil
	case "":
		return nil, fmt.Errorf("%w: missing scheme in %q", interfaces.ErrInvalidLocationURI, locationURI)
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %s", interfaces.ErrInvalidLocationURI, u.Scheme)
	}
}

// CreateMultiStore creates a fallback store from a list of URIs. URIs that fail to
// produce a store are logged and skipped.
func (sf *StoreFactory) CreateMultiStore(locationURIs []string) (interfaces.CredentialStore, error) {
	stores := make([]interfaces.CredentialStore, 0, len(locationURIs))

	for _, uri := range locationURIs {
		store, err := sf.StoreFor(uri)
		if err != nil {
			sf.log.Warn("Failed to create credential store",
				"err", err,
				slog.String("locationURI", uri))
			continue
		}
		stores = append(stores, store)
	}

	if len(stores) == 0 {
		return nil, fmt.Errorf("no valid credential stores created")
	}
	if len(stores) == 1 {
		return stores[0], nil
	}

	return NewMultiStore(stores, sf.log), nil
}

// createFileStore handles file:///absolute/path and file://./relative/path.
func (sf *StoreFactory) createFileStore(u *url.URL) (interfaces.CredentialStore, error) {
	sf.log.Debug("Creating file credential store", slog.String("uri", u.String()))

	path := u.Path
	if u.Host != "" {
		path = u.Host + "/" + strings.TrimPrefix(path, "/")
	}
	if path == "" {
		return nil, fmt.Errorf("%w: empty path in file URI: %s", interfaces.ErrInvalidLocationURI, u.String())
	}

	return NewFileStore(path, sf.log)
}

// createVaultStore handles vault://host:port/mount/path?tls=true.
// The token is read from the userinfo part or from VAULT_TOKEN.
func (sf *StoreFactory) createVaultStore(u *url.URL) (interfaces.CredentialStore, error) {
	sf.log.Debug("Creating Vault credential store", slog.String("host", u.Host))

	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host in Vault URI", interfaces.ErrInvalidLocationURI)
	}

	parts := strings.SplitN(strings.Trim(u.Path, "/"), "/", 2)
	if parts[0] == "" {
		return nil, fmt.Errorf("%w: missing mount path in Vault URI", interfaces.ErrInvalidLocationURI)
	}
	mountPath := parts[0]
	dataPath := ""
	if len(parts) == 2 {
		dataPath = parts[1]
	}

	scheme := "https"
	if u.Query().Get("tls") == "false" {
		scheme = "http"
	}
	address := fmt.Sprintf("%s://%s", scheme, u.Host)

	token := os.Getenv("VAULT_TOKEN")
	if u.User != nil && u.User.Username() != "" {
		token = u.User.Username()
	}

	return NewVaultStore(address, mountPath, dataPath, token, sf.log)
}

// createS3Store handles s3://[ACCESS_KEY:SECRET_KEY@]bucket/prefix/?region=us-west-2&endpoint=custom.s3.com
func (sf *StoreFactory) createS3Store(u *url.URL) (interfaces.CredentialStore, error) {
	sf.log.Debug("Creating S3 credential store", slog.String("bucket", u.Host))

	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing bucket in S3 URI", interfaces.ErrInvalidLocationURI)
	}

	query := u.Query()
	region := query.Get("region")
	if region == "" {
		region = "us-east-1"
	}

	var accessKey, secretKey string
	if u.User != nil {
		accessKey = u.User.Username()
		secretKey, _ = u.User.Password()
	}

	return NewS3Store(u.Host, strings.TrimPrefix(u.Path, "/"), region, query.Get("endpoint"), accessKey, secretKey, sf.log)
}
