// Package interfaces defines the collaborator interfaces, shared types and error
// taxonomy of the diver ledger bridge, separating definitions from implementations.
//
// # Ledger Interfaces
//
// Connector, Gateway, Network and Contract mirror the layers of a permissioned ledger
// client: a connector opens a gateway for one identity, the gateway resolves a channel
// (Network), the network resolves a deployed chaincode (Contract), and the contract runs
// Submit (endorse, order, commit) or Evaluate (read-only query) transactions.
//
// # Credential Interfaces
//
// CredentialStore gives read-only access to provisioned identities. VerifiedIdentity is
// produced only after an identity has been checked against a store; the session layer
// refuses to connect with a zero value.
//
// # Types
//
//   - OperationSpec / TxKind: static description of a chaincode function
//   - TransactionRequest: operation name plus positional arguments
//   - Diver / Level / HistoryEntry: ledger records returned by read operations
//
// # Error Types
//
// Every failure the bridge surfaces wraps one sentinel (ErrIdentityUnavailable,
// ErrNetworkUnavailable, ErrTimeout, ...). Match them with errors.Is; ErrorCode maps
// an error to its taxonomy name for responses and metrics.
package interfaces
