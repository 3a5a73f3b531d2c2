// Package cryptoutils checks and generates the X.509 material of ledger identities.
//
// CheckIdentity is used by the credential verifier to reject identities whose
// certificate is unparsable, outside its validity window or not matching the
// private key. NewIdentity produces self-signed ECDSA material for development
// wallets and tests.
package cryptoutils
