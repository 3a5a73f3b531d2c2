package wallet

import (
	"encoding/json"
	"fmt"

	"github.com/hyperledger/fabric-sdk-go/pkg/gateway"
	"github.com/ruteri/dolphins-ledger-bridge/interfaces"
)

// identityFileExt is the suffix the Fabric file system wallet gives identity files.
const identityFileExt = ".id"

// x509IdentityType is the type tag of X.509 wallet entries.
const x509IdentityType = "X.509"

// EncodeIdentity serializes a credential as a Fabric wallet X.509 identity, so a
// wallet directory can be copied to Vault or S3 unchanged.
func EncodeIdentity(cred *interfaces.Credential) ([]byte, error) {
	return json.Marshal(gateway.NewX509Identity(cred.MSPID, cred.Certificate, cred.PrivateKey))
}

// DecodeIdentity parses a wallet X.509 identity stored under label.
func DecodeIdentity(label string, data []byte) (*interfaces.Credential, error) {
	var id gateway.X509Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return nil, fmt.Errorf("invalid identity entry for %s: %w", label, err)
	}
	if id.IDType != "" && id.IDType != x509IdentityType {
		return nil, fmt.Errorf("unsupported identity type %q for %s", id.IDType, label)
	}
	return &interfaces.Credential{
		Label:       label,
		MSPID:       id.MspID,
		Certificate: id.Certificate(),
		PrivateKey:  id.Key(),
	}, nil
}
