package bridge

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/ruteri/dolphins-ledger-bridge/interfaces"
	"github.com/ruteri/dolphins-ledger-bridge/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testLog = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestOperationRegistry_Resolve(t *testing.T) {
	r := MustDefaultRegistry()

	arity := map[string]int{
		"addDiver":         5,
		"addLevel":         4,
		"addCourse":        3,
		"addTestResult":    3,
		"getLevel":         1,
		"getHistoryForKey": 1,
	}
	for name, n := range arity {
		spec, ok := r.Resolve(name)
		require.True(t, ok, name)
		assert.Equal(t, n, spec.Arity(), name)
	}

	kinds := map[string]interfaces.TxKind{
		"addDiver": interfaces.Submit,
		"getLevel": interfaces.Evaluate,
	}
	for name, kind := range kinds {
		spec, _ := r.Resolve(name)
		assert.Equal(t, kind, spec.Kind, name)
	}

	for _, name := range []string{"deleteDiver", "", "AddDiver", "getlevel"} {
		_, ok := r.Resolve(name)
		assert.False(t, ok, name)
	}
}

func TestOperationRegistry_Operations(t *testing.T) {
	ops := MustDefaultRegistry().Operations()
	require.Len(t, ops, len(DefaultOperations))
	for i := 1; i < len(ops); i++ {
		assert.Less(t, ops[i-1].Name, ops[i].Name)
	}
}

func TestNewOperationRegistry_Rejects(t *testing.T) {
	_, err := NewOperationRegistry(
		interfaces.OperationSpec{Name: "a", Kind: interfaces.Submit},
		interfaces.OperationSpec{Name: "a", Kind: interfaces.Evaluate},
	)
	assert.Error(t, err)

	_, err = NewOperationRegistry(interfaces.OperationSpec{Name: "a"})
	assert.Error(t, err)

	_, err = NewOperationRegistry(interfaces.OperationSpec{Kind: interfaces.Submit})
	assert.Error(t, err)
}

func TestRouter_Validate(t *testing.T) {
	router := NewRouter(MustDefaultRegistry(), testLog)

	_, err := router.Validate("deleteDiver", []string{"D1"})
	assert.ErrorIs(t, err, interfaces.ErrUnknownOperation)

	_, err = router.Validate("addDiver", []string{"D1", "Alice"})
	assert.ErrorIs(t, err, interfaces.ErrArityMismatch)

	_, err = router.Validate("getLevel", nil)
	assert.ErrorIs(t, err, interfaces.ErrArityMismatch)

	spec, err := router.Validate("getLevel", []string{"D1"})
	require.NoError(t, err)
	assert.Equal(t, interfaces.Evaluate, spec.Kind)
}

func TestRouter_ArityMismatchMakesNoCall(t *testing.T) {
	router := NewRouter(MustDefaultRegistry(), testLog)
	contract := &ledger.MockContract{}

	for _, spec := range DefaultOperations {
		args := make([]string, spec.Arity()+1)
		_, err := router.Execute(context.Background(), contract, spec.Name, args)
		assert.ErrorIs(t, err, interfaces.ErrArityMismatch, spec.Name)

		if spec.Arity() > 0 {
			_, err = router.Execute(context.Background(), contract, spec.Name, args[:spec.Arity()-1])
			assert.ErrorIs(t, err, interfaces.ErrArityMismatch, spec.Name)
		}
	}

	_, err := router.Execute(context.Background(), contract, "deleteDiver", []string{"D1"})
	assert.ErrorIs(t, err, interfaces.ErrUnknownOperation)

	contract.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything, mock.Anything)
	contract.AssertNotCalled(t, "Evaluate", mock.Anything, mock.Anything, mock.Anything)
}

func TestRouter_DispatchesByKind(t *testing.T) {
	router := NewRouter(MustDefaultRegistry(), testLog)
	ctx := context.Background()

	contract := &ledger.MockContract{}
	args := []string{"D1", "Alice", "1990-01-01", "F", "O+"}
	contract.On("Submit", ctx, "addDiver", args).Return([]byte(`{"id":"D1"}`), nil).Once()
	contract.On("Evaluate", ctx, "getLevel", []string{"D1"}).Return([]byte(`{"id":"D1"}`), nil).Once()

	res, err := router.Execute(ctx, contract, "addDiver", args)
	require.NoError(t, err)
	assert.Equal(t, interfaces.Submit, res.Spec.Kind)

	res, err = router.Execute(ctx, contract, "getLevel", []string{"D1"})
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"id":"D1"}`), res.Payload)

	contract.AssertExpectations(t)
}

func TestRouter_PropagatesRejection(t *testing.T) {
	router := NewRouter(MustDefaultRegistry(), testLog)
	ctx := context.Background()

	contract := &ledger.MockContract{}
	contract.On("Submit", ctx, "addLevel", mock.Anything).Return(nil, interfaces.ErrTransactionRejected).Once()

	_, err := router.Execute(ctx, contract, "addLevel", []string{"D1", "OW", "PADI", "i1"})
	assert.ErrorIs(t, err, interfaces.ErrTransactionRejected)
	contract.AssertNumberOfCalls(t, "Submit", 1)
}

func TestNormalize(t *testing.T) {
	evaluate := interfaces.OperationSpec{Name: "getLevel", Kind: interfaces.Evaluate, Params: []string{"id"}}
	submit := interfaces.OperationSpec{Name: "addDiver", Kind: interfaces.Submit}

	resp, err := Normalize(&TransactionResult{Spec: submit, Payload: []byte("anything")})
	require.NoError(t, err)
	assert.Equal(t, SubmitResult, resp.Body)

	resp, err = Normalize(&TransactionResult{Spec: evaluate, Payload: []byte(` {"id":"D1","levels":[{"n":12345678901234567890}]} `)})
	require.NoError(t, err)
	encoded, err := json.Marshal(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"D1","levels":[{"n":12345678901234567890}]}`, string(encoded))
	assert.Contains(t, string(encoded), "12345678901234567890")

	resp, err = Normalize(&TransactionResult{Spec: evaluate, Payload: []byte(`[]`)})
	require.NoError(t, err)
	assert.Equal(t, []any{}, resp.Body)

	for _, payload := range []string{"", "   ", "null", `"text"`, "42", `{"id":`, `{"a":1} {"b":2}`, "not supported function"} {
		_, err := Normalize(&TransactionResult{Spec: evaluate, Payload: []byte(payload)})
		assert.ErrorIs(t, err, interfaces.ErrMalformedLedgerResponse, payload)
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	evaluate := interfaces.OperationSpec{Name: "getLevel", Kind: interfaces.Evaluate}
	payload := []byte(`{"id":"D1","name":"Alice","levels":[{"levelname":"OW","courses":["a","b"]}],"score":1.50}`)

	var outputs [][]byte
	for i := 0; i < 5; i++ {
		resp, err := Normalize(&TransactionResult{Spec: evaluate, Payload: payload})
		require.NoError(t, err)
		out, err := json.Marshal(resp.Body)
		require.NoError(t, err)
		outputs = append(outputs, out)
	}
	for _, out := range outputs[1:] {
		assert.Equal(t, outputs[0], out)
	}
}
