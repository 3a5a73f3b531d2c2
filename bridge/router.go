package bridge

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ruteri/dolphins-ledger-bridge/interfaces"
)

// TransactionResult is the raw outcome of one routed call.
type TransactionResult struct {
	Spec    interfaces.OperationSpec
	Payload []byte
}

// Router dispatches validated requests to Submit or Evaluate. It never retries.
type Router struct {
	registry *OperationRegistry
	log      *slog.Logger
}

func NewRouter(registry *OperationRegistry, log *slog.Logger) *Router {
	return &Router{registry: registry, log: log}
}

// Validate checks op and args against the registry without touching the network.
func (r *Router) Validate(op string, args []string) (interfaces.OperationSpec, error) {
	spec, ok := r.registry.Resolve(op)
	if !ok {
		return interfaces.OperationSpec{}, fmt.Errorf("%w: %q", interfaces.ErrUnknownOperation, op)
	}
	if len(args) != spec.Arity() {
		return interfaces.OperationSpec{}, fmt.Errorf("%w: %s expects %d arguments, got %d",
			interfaces.ErrArityMismatch, op, spec.Arity(), len(args))
	}
	return spec, nil
}

// Execute validates the request and runs it against contract, passing args in order.
func (r *Router) Execute(ctx context.Context, contract interfaces.Contract, op string, args []string) (*TransactionResult, error) {
	spec, err := r.Validate(op, args)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch spec.Kind {
	case interfaces.Submit:
		payload, err = contract.Submit(ctx, spec.Name, args...)
	case interfaces.Evaluate:
		payload, err = contract.Evaluate(ctx, spec.Name, args...)
	default:
		return nil, fmt.Errorf("operation %s: invalid kind %v", spec.Name, spec.Kind)
	}
	if err != nil {
		r.log.Debug("Transaction failed",
			slog.String("operation", spec.Name),
			slog.String("kind", spec.Kind.String()),
			"err", err)
		return nil, err
	}

	return &TransactionResult{Spec: spec, Payload: payload}, nil
}
