// Package ledger connects the bridge to a Hyperledger Fabric network.
//
// FabricConnector implements interfaces.Connector with the fabric-sdk-go gateway
// package, driven by a connection profile loaded once at startup. SDK failures are
// mapped onto the bridge error taxonomy by Classify.
//
// MemoryLedger is an in-process stand-in that runs the diver certification
// chaincode against a map-backed world state, used for development mode and tests.
// The testify mocks in mock.go cover the collaborator interfaces.
package ledger
