package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ruteri/dolphins-ledger-bridge/interfaces"
	"go.uber.org/atomic"
)

// MemoryLedger is an in-process ledger running the diver chaincode. It serves
// development mode and tests, and counts gateway opens and closes so that
// connection balance can be asserted.
type MemoryLedger struct {
	channel  string
	contract string
	log      *slog.Logger

	mu    sync.Mutex
	state *worldState

	opened atomic.Int64
	closed atomic.Int64

	// Latency delays every connect and transaction; zero disables it.
	Latency time.Duration
	// Unreachable makes Connect fail with ErrNetworkUnavailable.
	Unreachable atomic.Bool
}

// NewMemoryLedger creates an empty ledger with one channel and one deployed contract.
func NewMemoryLedger(channel, contract string, log *slog.Logger) *MemoryLedger {
	return &MemoryLedger{
		channel:  channel,
		contract: contract,
		log:      log,
		state:    newWorldState(),
	}
}

// Opened returns the number of gateways opened so far.
func (l *MemoryLedger) Opened() int64 { return l.opened.Load() }

// Closed returns the number of gateways closed so far.
func (l *MemoryLedger) Closed() int64 { return l.closed.Load() }

// Open returns the number of gateways currently open.
func (l *MemoryLedger) Open() int64 { return l.opened.Load() - l.closed.Load() }

func (l *MemoryLedger) wait(ctx context.Context) error {
	if l.Latency <= 0 {
		return nil
	}
	t := time.NewTimer(l.Latency)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", interfaces.ErrTimeout, ctx.Err())
	}
}

// Connect implements interfaces.Connector.
func (l *MemoryLedger) Connect(ctx context.Context, cred *interfaces.Credential) (interfaces.Gateway, error) {
	if !cred.Usable() {
		return nil, fmt.Errorf("%w: credential material incomplete", interfaces.ErrIdentityUnavailable)
	}
	if l.Unreachable.Load() {
		return nil, fmt.Errorf("%w: no peers reachable", interfaces.ErrNetworkUnavailable)
	}
	if err := l.wait(ctx); err != nil {
		return nil, err
	}

	l.opened.Inc()
	l.log.Debug("Memory gateway opened", slog.String("identity", cred.Label))
	return &memoryGateway{ledger: l}, nil
}

// invoke runs fn against the world state. Writes are committed only for submits.
func (l *MemoryLedger) invoke(ctx context.Context, submit bool, name string, args []string) ([]byte, error) {
	if err := l.wait(ctx); err != nil {
		return nil, err
	}

	fn, ok := diverChaincode[name]
	if !ok {
		return nil, fmt.Errorf("%w: chaincode function %s not supported", interfaces.ErrTransactionRejected, name)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	tx := &txContext{
		state:  l.state,
		txID:   newTxID(),
		writes: make(map[string][]byte),
		now:    time.Now().UTC(),
	}
	payload, err := fn(tx, args)
	if err != nil {
		return nil, Classify(err, interfaces.ErrTransactionRejected)
	}
	if submit {
		tx.commit()
	}
	return payload, nil
}

type memoryGateway struct {
	ledger    *MemoryLedger
	closeOnce sync.Once
}

func (g *memoryGateway) Network(name string) (interfaces.Network, error) {
	if name != g.ledger.channel {
		return nil, fmt.Errorf("%w: %q", interfaces.ErrChannelNotFound, name)
	}
	return &memoryNetwork{ledger: g.ledger}, nil
}

func (g *memoryGateway) Close() {
	g.closeOnce.Do(func() {
		g.ledger.closed.Inc()
	})
}

type memoryNetwork struct {
	ledger *MemoryLedger
}

func (n *memoryNetwork) Contract(name string) (interfaces.Contract, error) {
	if name != n.ledger.contract {
		return nil, fmt.Errorf("%w: %q", interfaces.ErrContractNotFound, name)
	}
	return &memoryContract{ledger: n.ledger}, nil
}

type memoryContract struct {
	ledger *MemoryLedger
}

func (c *memoryContract) Submit(ctx context.Context, name string, args ...string) ([]byte, error) {
	return c.ledger.invoke(ctx, true, name, args)
}

func (c *memoryContract) Evaluate(ctx context.Context, name string, args ...string) ([]byte, error) {
	return c.ledger.invoke(ctx, false, name, args)
}
