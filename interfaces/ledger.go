package interfaces

import "context"

// Contract executes transactions against one deployed chaincode.
type Contract interface {
	// Submit sends a state-changing transaction for endorsement, ordering and commit.
	Submit(ctx context.Context, name string, args ...string) ([]byte, error)

	// Evaluate runs a read-only query on a peer without ordering.
	Evaluate(ctx context.Context, name string, args ...string) ([]byte, error)
}

// Network is a channel reachable through a gateway.
type Network interface {
	// Contract resolves a chaincode deployed on the channel.
	Contract(name string) (Contract, error)
}

// Gateway is a live connection to the ledger network on behalf of one identity.
type Gateway interface {
	// Network resolves a channel by name.
	Network(name string) (Network, error)

	// Close releases the connection. It must be safe to call more than once.
	Close()
}

// Connector opens gateways to the ledger network.
type Connector interface {
	// Connect opens a gateway authenticated with the given credential.
	Connect(ctx context.Context, cred *Credential) (Gateway, error)
}
