package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ruteri/dolphins-ledger-bridge/api"
	"github.com/ruteri/dolphins-ledger-bridge/interfaces"
)

// codeInvalidRequest marks malformed request bodies and missing fields.
const codeInvalidRequest = "InvalidRequest"

// RequestError is a client error detected before the bridge is called.
type RequestError struct {
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	return e.Err.Error()
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

var statusByError = []struct {
	err    error
	status int
}{
	{interfaces.ErrUnknownOperation, http.StatusBadRequest},
	{interfaces.ErrArityMismatch, http.StatusBadRequest},
	{interfaces.ErrIdentityUnavailable, http.StatusForbidden},
	{interfaces.ErrCredentialStoreUnavailable, http.StatusServiceUnavailable},
	{interfaces.ErrTimeout, http.StatusGatewayTimeout},
	{interfaces.ErrNetworkUnavailable, http.StatusBadGateway},
	{interfaces.ErrChannelNotFound, http.StatusBadGateway},
	{interfaces.ErrContractNotFound, http.StatusBadGateway},
	{interfaces.ErrRecordNotFound, http.StatusNotFound},
	{interfaces.ErrTransactionRejected, http.StatusConflict},
	{interfaces.ErrMalformedLedgerResponse, http.StatusInternalServerError},
}

// StatusFor maps a bridge error to its HTTP status code.
func StatusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.StatusCode
	}
	for _, s := range statusByError {
		if errors.Is(err, s.err) {
			return s.status
		}
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	code := interfaces.ErrorCode(err)
	var reqErr *RequestError
	if errors.As(err, &reqErr) && code == "Internal" {
		code = codeInvalidRequest
	}
	writeJSONError(w, StatusFor(err), code, err.Error())
}

func writeJSONError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, api.ErrorResponse{Error: msg, Code: code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
