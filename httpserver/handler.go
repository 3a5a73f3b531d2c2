package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/ruteri/dolphins-ledger-bridge/api"
	"github.com/ruteri/dolphins-ledger-bridge/bridge"
	"github.com/ruteri/dolphins-ledger-bridge/interfaces"
)

// maxBodySize is the maximum allowed request body size (1MB).
const maxBodySize = 1024 * 1024

// Invoker runs bridge operations.
type Invoker interface {
	Invoke(ctx context.Context, op string, args []string) (*bridge.Response, error)
	Operations() []interfaces.OperationSpec
}

// writeRoute binds a POST path to an operation. fields are the body keys, in
// argument order.
type writeRoute struct {
	path      string
	operation string
	fields    []string
}

var writeRoutes = []writeRoute{
	{path: "/diver", operation: "addDiver", fields: []string{"id", "name", "bdate", "gender", "btype"}},
	{path: "/level", operation: "addLevel", fields: []string{"id", "levelname", "org", "instid"}},
	{path: "/course", operation: "addCourse", fields: []string{"id", "levelname", "course"}},
	{path: "/test", operation: "addTestResult", fields: []string{"id", "levelname", "status"}},
}

// Handler serves the diver REST API on top of the bridge.
type Handler struct {
	bridge Invoker
	log    *slog.Logger
}

// NewHandler creates a new HTTP request handler.
func NewHandler(b Invoker, log *slog.Logger) *Handler {
	return &Handler{
		bridge: b,
		log:    log,
	}
}

// HandleWrite returns the handler for a write route. The response is written only
// after the transaction has been committed or has failed.
func (h *Handler) HandleWrite(route writeRoute) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		args, err := readArgs(w, r, route.fields)
		if err != nil {
			h.log.Debug("Invalid write request", slog.String("path", route.path), "err", err)
			writeError(w, err)
			return
		}

		h.log.Info("Write request",
			slog.String("operation", route.operation),
			slog.String("id", args[0]))

		if _, err := h.bridge.Invoke(r.Context(), route.operation, args); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, api.ResultResponse{Result: "success"})
	}
}

// HandleGetDiver returns the diver record for ?id=.
//
// URL format: GET /diver?id={id}
func (h *Handler) HandleGetDiver(w http.ResponseWriter, r *http.Request) {
	h.handleRead(w, r, "getLevel")
}

// HandleDiverHistory returns every committed version of the diver record for ?id=.
//
// URL format: GET /diver/history?id={id}
func (h *Handler) HandleDiverHistory(w http.ResponseWriter, r *http.Request) {
	h.handleRead(w, r, "getHistoryForKey")
}

func (h *Handler) handleRead(w http.ResponseWriter, r *http.Request, operation string) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		writeError(w, &RequestError{StatusCode: http.StatusBadRequest, Err: errors.New("missing id query parameter")})
		return
	}

	resp, err := h.bridge.Invoke(r.Context(), operation, []string{id})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp.Body)
}

// HandleOperations lists the operations the bridge accepts.
func (h *Handler) HandleOperations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, api.OperationsResponse{Operations: api.OperationInfoFrom(h.bridge.Operations())})
}

// readArgs extracts fields from a JSON or form encoded body. Every field must be
// present and non-empty.
func readArgs(w http.ResponseWriter, r *http.Request, fields []string) ([]string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	values, err := readBody(r)
	if err != nil {
		return nil, &RequestError{StatusCode: http.StatusBadRequest, Err: err}
	}

	args := make([]string, len(fields))
	var missing []string
	for i, f := range fields {
		args[i] = strings.TrimSpace(values[f])
		if args[i] == "" {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return nil, &RequestError{
			StatusCode: http.StatusBadRequest,
			Err:        fmt.Errorf("missing required fields: %s", strings.Join(missing, ", ")),
		}
	}
	return args, nil
}

func readBody(r *http.Request) (map[string]string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mediaType == "application/json" {
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		var raw map[string]any
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("invalid JSON body: %w", err)
		}
		values := make(map[string]string, len(raw))
		for k, v := range raw {
			switch tv := v.(type) {
			case string:
				values[k] = tv
			case json.Number:
				values[k] = tv.String()
			case bool:
				values[k] = fmt.Sprint(tv)
			case nil:
			default:
				return nil, fmt.Errorf("field %s must be a scalar", k)
			}
		}
		return values, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("invalid form body: %w", err)
	}
	values := make(map[string]string, len(r.PostForm))
	for k := range r.PostForm {
		values[k] = r.PostForm.Get(k)
	}
	return values, nil
}
