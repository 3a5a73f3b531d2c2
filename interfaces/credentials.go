package interfaces

import (
	"context"
	"errors"
)

// ErrInvalidLocationURI is returned when a credential store URI is malformed or unsupported.
// URIs follow the format: [scheme]://[auth@]host[:port][/path][?params]
var ErrInvalidLocationURI = errors.New("invalid credential store URI")

// Credential is the X.509 material of one ledger identity.
type Credential struct {
	Label       string
	MSPID       string
	Certificate string
	PrivateKey  string
}

// Usable reports whether all parts needed to sign transactions are present.
func (c *Credential) Usable() bool {
	return c != nil && c.Label != "" && c.MSPID != "" && c.Certificate != "" && c.PrivateKey != ""
}

// CredentialStore gives read access to provisioned identities.
type CredentialStore interface {
	// Exists reports whether an identity is stored under label.
	// An error means the store could not be queried.
	Exists(ctx context.Context, label string) (bool, error)

	// Load returns the stored credential for label.
	Load(ctx context.Context, label string) (*Credential, error)

	// Name returns a short identifier for logs.
	Name() string

	// LocationURI returns the URI the store was created from.
	LocationURI() string
}

// VerifiedIdentity is an identity that passed verification against a credential store.
// The zero value is not verified.
type VerifiedIdentity struct {
	cred *Credential
}

// NewVerifiedIdentity wraps a credential that was checked to be usable.
func NewVerifiedIdentity(cred *Credential) VerifiedIdentity {
	if !cred.Usable() {
		return VerifiedIdentity{}
	}
	return VerifiedIdentity{cred: cred}
}

// Valid reports whether the identity carries usable material.
func (v VerifiedIdentity) Valid() bool {
	return v.cred.Usable()
}

// Label returns the identity name, or "" for the zero value.
func (v VerifiedIdentity) Label() string {
	if v.cred == nil {
		return ""
	}
	return v.cred.Label
}

// Credential returns the verified material.
func (v VerifiedIdentity) Credential() *Credential {
	return v.cred
}
