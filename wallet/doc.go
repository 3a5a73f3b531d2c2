// Package wallet provides credential stores holding ledger identities and the
// verifier that checks an identity is provisioned before a session is opened.
//
// Stores are created from location URIs:
//
//	file://./wallet
//	vault://vault.example.com:8200/secret/dolphins/wallet?tls=true
//	s3://bucket-name/wallet/?region=us-west-2
//	memory://
//
// All stores read the same identity entry format written by Fabric wallets
// ({"version":1,"mspId":...,"type":"X.509","credentials":{...}}), so a wallet
// directory can be copied to Vault or S3 unchanged.
//
// A missing identity is reported as interfaces.ErrIdentityUnavailable. A store
// that cannot be read is reported as interfaces.ErrCredentialStoreUnavailable.
package wallet
