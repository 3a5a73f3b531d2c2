package bridge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/ruteri/dolphins-ledger-bridge/interfaces"
)

// SubmitResult is the fixed body returned for a committed submit.
var SubmitResult = map[string]string{"result": "success"}

// Response is a normalized, JSON-encodable bridge result.
type Response struct {
	Operation string
	Kind      interfaces.TxKind
	Body      any
}

// Normalize turns a routed result into a Response. Evaluate payloads must hold a
// JSON object or array; numbers are kept as json.Number so that re-encoding is exact.
func Normalize(result *TransactionResult) (*Response, error) {
	resp := &Response{Operation: result.Spec.Name, Kind: result.Spec.Kind}

	switch result.Spec.Kind {
	case interfaces.Submit:
		resp.Body = SubmitResult
		return resp, nil
	case interfaces.Evaluate:
		body, err := decodeStructured(result.Payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", interfaces.ErrMalformedLedgerResponse, result.Spec.Name, err)
		}
		resp.Body = body
		return resp, nil
	default:
		return nil, fmt.Errorf("operation %s: invalid kind %v", result.Spec.Name, result.Spec.Kind)
	}
}

func decodeStructured(payload []byte) (any, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty payload")
	}
	if trimmed[0] != '{' && trimmed[0] != '[' {
		return nil, fmt.Errorf("payload is not a JSON object or array")
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("trailing data after JSON value")
	}
	return v, nil
}
