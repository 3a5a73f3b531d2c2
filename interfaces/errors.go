package interfaces

import "errors"

var (
	// ErrIdentityUnavailable is returned when the configured identity is absent from the
	// credential store or its material is unusable.
	ErrIdentityUnavailable = errors.New("identity unavailable")

	// ErrCredentialStoreUnavailable is returned when the credential store itself cannot be read.
	// It is never used for a missing identity.
	ErrCredentialStoreUnavailable = errors.New("credential store unavailable")

	// ErrNetworkUnavailable is returned when no peer or orderer could be reached.
	ErrNetworkUnavailable = errors.New("ledger network unavailable")

	// ErrChannelNotFound is returned when the requested channel does not exist for the identity.
	ErrChannelNotFound = errors.New("channel not found")

	// ErrContractNotFound is returned when the contract is not deployed on the channel.
	ErrContractNotFound = errors.New("contract not found")

	// ErrUnknownOperation is returned for operation names missing from the registry.
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrArityMismatch is returned when the argument count differs from the operation's parameters.
	ErrArityMismatch = errors.New("argument count mismatch")

	// ErrMalformedLedgerResponse is returned when an evaluate result cannot be decoded.
	ErrMalformedLedgerResponse = errors.New("malformed ledger response")

	// ErrTimeout is returned when a network call exceeds the caller-supplied deadline.
	ErrTimeout = errors.New("ledger call timed out")

	// ErrTransactionRejected is returned when endorsement, ordering or commit fails.
	ErrTransactionRejected = errors.New("transaction rejected")

	// ErrRecordNotFound is returned when the chaincode reports that the requested key is absent.
	ErrRecordNotFound = errors.New("record not found")
)

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrIdentityUnavailable, "IdentityUnavailable"},
	{ErrCredentialStoreUnavailable, "CredentialStoreUnavailable"},
	{ErrTimeout, "Timeout"},
	{ErrNetworkUnavailable, "NetworkUnavailable"},
	{ErrChannelNotFound, "ChannelNotFound"},
	{ErrContractNotFound, "ContractNotFound"},
	{ErrUnknownOperation, "UnknownOperation"},
	{ErrArityMismatch, "ArityMismatch"},
	{ErrMalformedLedgerResponse, "MalformedLedgerResponse"},
	{ErrRecordNotFound, "RecordNotFound"},
	{ErrTransactionRejected, "TransactionRejected"},
}

// ErrorCode returns the taxonomy name of err, "OK" for nil and "Internal" for
// errors that carry no sentinel.
func ErrorCode(err error) string {
	if err == nil {
		return "OK"
	}
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "Internal"
}

// ErrorForCode returns the sentinel named by code, or nil if code is not part of
// the taxonomy.
func ErrorForCode(code string) error {
	for _, c := range errorCodes {
		if c.code == code {
			return c.err
		}
	}
	return nil
}
