package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hyperledger/fabric-sdk-go/pkg/core/config"
	"github.com/hyperledger/fabric-sdk-go/pkg/gateway"
	"github.com/ruteri/dolphins-ledger-bridge/interfaces"
)

// FabricConnector opens gateways to a Hyperledger Fabric network described by a
// connection profile.
type FabricConnector struct {
	profile       *ConnectionProfile
	commitTimeout time.Duration
	log           *slog.Logger
}

// NewFabricConnector creates a connector for profile. commitTimeout bounds how long
// the SDK waits for commit events after a submit; zero keeps the SDK default.
func NewFabricConnector(profile *ConnectionProfile, commitTimeout time.Duration, log *slog.Logger) *FabricConnector {
	return &FabricConnector{
		profile:       profile,
		commitTimeout: commitTimeout,
		log:           log,
	}
}

// Connect opens a gateway signed by cred. The credential is copied into a
// connection-scoped in-memory wallet so the SDK never touches the backing store.
func (c *FabricConnector) Connect(ctx context.Context, cred *interfaces.Credential) (interfaces.Gateway, error) {
	if !cred.Usable() {
		return nil, fmt.Errorf("%w: credential material incomplete", interfaces.ErrIdentityUnavailable)
	}
	if err := ctx.Err(); err != nil {
		return nil, Classify(err, interfaces.ErrTimeout)
	}

	w := gateway.NewInMemoryWallet()
	if err := w.Put(cred.Label, gateway.NewX509Identity(cred.MSPID, cred.Certificate, cred.PrivateKey)); err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrIdentityUnavailable, err)
	}

	opts := []gateway.Option{}
	if c.commitTimeout > 0 {
		opts = append(opts, gateway.WithTimeout(c.commitTimeout))
	}

	start := time.Now()
	gw, err := gateway.Connect(
		gateway.WithConfig(config.FromRaw(c.profile.Raw, c.profile.Format)),
		gateway.WithIdentity(w, cred.Label),
		opts...,
	)
	if err != nil {
		c.log.Error("Failed to connect to gateway",
			slog.String("profile", c.profile.Path),
			slog.String("identity", cred.Label),
			"err", err)
		return nil, Classify(err, interfaces.ErrNetworkUnavailable)
	}

	c.log.Debug("Gateway connected",
		slog.String("identity", cred.Label),
		slog.Duration("duration", time.Since(start)))

	return &fabricGateway{gw: gw}, nil
}

type fabricGateway struct {
	gw        *gateway.Gateway
	closeOnce sync.Once
}

func (g *fabricGateway) Network(name string) (interfaces.Network, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty channel name", interfaces.ErrChannelNotFound)
	}
	network, err := g.gw.GetNetwork(name)
	if err != nil {
		return nil, Classify(err, interfaces.ErrChannelNotFound)
	}
	return &fabricNetwork{network: network}, nil
}

func (g *fabricGateway) Close() {
	g.closeOnce.Do(g.gw.Close)
}

type fabricNetwork struct {
	network *gateway.Network
}

// Contract resolves the chaincode lazily; the SDK reports an undeployed
// chaincode only when a transaction is sent, which Classify maps to ErrContractNotFound.
func (n *fabricNetwork) Contract(name string) (interfaces.Contract, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty contract name", interfaces.ErrContractNotFound)
	}
	return &fabricContract{contract: n.network.GetContract(name)}, nil
}

type fabricContract struct {
	contract *gateway.Contract
}

func (c *fabricContract) Submit(ctx context.Context, name string, args ...string) ([]byte, error) {
	return callWithContext(ctx, func() ([]byte, error) {
		return c.contract.SubmitTransaction(name, args...)
	})
}

func (c *fabricContract) Evaluate(ctx context.Context, name string, args ...string) ([]byte, error) {
	return callWithContext(ctx, func() ([]byte, error) {
		return c.contract.EvaluateTransaction(name, args...)
	})
}

// callWithContext bounds an SDK call that has no context parameter. The call
// keeps running in the background after ctx expires; its result is dropped.
func callWithContext(ctx context.Context, fn func() ([]byte, error)) ([]byte, error) {
	type result struct {
		payload []byte
		err     error
	}
	done := make(chan result, 1)
	go func() {
		payload, err := fn()
		done <- result{payload, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, Classify(r.err, interfaces.ErrTransactionRejected)
		}
		return r.payload, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", interfaces.ErrTimeout, ctx.Err())
	}
}
