package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/ruteri/dolphins-ledger-bridge/api"
	"github.com/ruteri/dolphins-ledger-bridge/api/clients"
	"github.com/ruteri/dolphins-ledger-bridge/bridge"
	"github.com/ruteri/dolphins-ledger-bridge/interfaces"
	"github.com/ruteri/dolphins-ledger-bridge/ledger"
	"github.com/ruteri/dolphins-ledger-bridge/metrics"
	"github.com/ruteri/dolphins-ledger-bridge/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testLog = slog.New(slog.NewTextHandler(io.Discard, nil))

var testCred = &interfaces.Credential{
	Label:       "user1",
	MSPID:       "Org1MSP",
	Certificate: "cert",
	PrivateKey:  "key",
}

type testEnv struct {
	server *Server
	ledger *ledger.MemoryLedger
	store  *wallet.MemoryStore
}

func newTestEnv(t *testing.T, cfg *api.HTTPServerConfig) *testEnv {
	t.Helper()

	store := wallet.NewMemoryStore()
	require.NoError(t, store.Put(testCred))
	l := ledger.NewMemoryLedger("mychannel", "dolphins", testLog)

	bm, err := metrics.NewBridgeMetrics("test", prometheus.NewRegistry())
	require.NoError(t, err)

	b, err := bridge.New(bridge.Config{
		Identity: "user1",
		Channel:  "mychannel",
		Contract: "dolphins",
		Timeout:  time.Second,
	}, bridge.MustDefaultRegistry(), wallet.NewVerifier(store, testLog), bridge.NewSessionManager(l, bm, testLog), bm, testLog)
	require.NoError(t, err)

	if cfg == nil {
		cfg = &api.HTTPServerConfig{}
	}
	cfg.Log = testLog

	srv, err := New(cfg, NewHandler(b, testLog), nil)
	require.NoError(t, err)

	return &testEnv{server: srv, ledger: l, store: store}
}

func (e *testEnv) do(t *testing.T, method, target, contentType string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) postJSON(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	return e.do(t, http.MethodPost, path, "application/json", bytes.NewReader(data))
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) api.ErrorResponse {
	t.Helper()
	var resp api.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func TestHandler_DiverLifecycle(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := env.postJSON(t, "/diver", api.AddDiverRequest{ID: "D1", Name: "Alice", Bdate: "1990-01-01", Gender: "F", Btype: "O+"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.JSONEq(t, `{"result":"success"}`, rr.Body.String())

	form := url.Values{"id": {"D1"}, "levelname": {"OpenWater"}, "org": {"PADI"}, "instid": {"I7"}}
	rr = env.do(t, http.MethodPost, "/level", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = env.postJSON(t, "/course", api.AddCourseRequest{ID: "D1", Levelname: "OpenWater", Course: "Buoyancy"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = env.postJSON(t, "/test", api.AddTestResultRequest{ID: "D1", Levelname: "OpenWater", Status: "Qualified"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = env.do(t, http.MethodGet, "/diver?id=D1", "", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var d interfaces.Diver
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &d))
	assert.Equal(t, "Alice", d.Name)
	require.Len(t, d.Levels, 1)
	assert.Equal(t, "PADI", d.Levels[0].Org)
	assert.Equal(t, []string{"Buoyancy"}, d.Levels[0].Courses)
	assert.Equal(t, "Qualified", d.Levels[0].Status)

	rr = env.do(t, http.MethodGet, "/diver/history?id=D1", "", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var history []interfaces.HistoryEntry
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &history))
	assert.Len(t, history, 4)

	assert.Equal(t, env.ledger.Opened(), env.ledger.Closed())
}

func TestHandler_RequestValidation(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name        string
		method      string
		target      string
		contentType string
		body        string
	}{
		{"missing fields", http.MethodPost, "/diver", "application/json", `{"id":"D1","name":"Alice"}`},
		{"empty field", http.MethodPost, "/course", "application/json", `{"id":"D1","levelname":"","course":"x"}`},
		{"invalid json", http.MethodPost, "/level", "application/json", `{"id":`},
		{"nested value", http.MethodPost, "/test", "application/json", `{"id":"D1","levelname":{"a":1},"status":"ok"}`},
		{"empty form", http.MethodPost, "/test", "application/x-www-form-urlencoded", ``},
		{"missing id", http.MethodGet, "/diver", "", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, tt.method, tt.target, tt.contentType, strings.NewReader(tt.body))
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, codeInvalidRequest, decodeError(t, rr).Code)
		})
	}

	assert.Equal(t, int64(0), env.ledger.Opened())
}

func TestHandler_ErrorStatuses(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := env.do(t, http.MethodGet, "/diver?id=nobody", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "RecordNotFound", decodeError(t, rr).Code)

	require.NoError(t, env.store.Remove("user1"))
	rr = env.do(t, http.MethodGet, "/diver?id=D1", "", nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "IdentityUnavailable", decodeError(t, rr).Code)

	require.NoError(t, env.store.Put(testCred))
	env.store.SetUnavailable(true)
	rr = env.postJSON(t, "/diver", api.AddDiverRequest{ID: "D1", Name: "Alice", Bdate: "1990-01-01", Gender: "F", Btype: "O+"})
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, "CredentialStoreUnavailable", decodeError(t, rr).Code)
	env.store.SetUnavailable(false)

	env.ledger.Unreachable.Store(true)
	rr = env.postJSON(t, "/diver", api.AddDiverRequest{ID: "D1", Name: "Alice", Bdate: "1990-01-01", Gender: "F", Btype: "O+"})
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Equal(t, "NetworkUnavailable", decodeError(t, rr).Code)
	env.ledger.Unreachable.Store(false)

	rr = env.postJSON(t, "/diver", api.AddDiverRequest{ID: "D1", Name: "Alice", Bdate: "1990-01-01", Gender: "F", Btype: "O+"})
	require.Equal(t, http.StatusOK, rr.Code)
	rr = env.postJSON(t, "/course", api.AddCourseRequest{ID: "D1", Levelname: "OpenWater", Course: "Buoyancy"})
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "TransactionRejected", decodeError(t, rr).Code)

	env.ledger.Latency = 2 * time.Second
	rr = env.do(t, http.MethodGet, "/diver?id=D1", "", nil)
	assert.Equal(t, http.StatusGatewayTimeout, rr.Code)
	assert.Equal(t, "Timeout", decodeError(t, rr).Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{interfaces.ErrUnknownOperation, http.StatusBadRequest},
		{interfaces.ErrArityMismatch, http.StatusBadRequest},
		{interfaces.ErrIdentityUnavailable, http.StatusForbidden},
		{interfaces.ErrCredentialStoreUnavailable, http.StatusServiceUnavailable},
		{interfaces.ErrNetworkUnavailable, http.StatusBadGateway},
		{interfaces.ErrChannelNotFound, http.StatusBadGateway},
		{interfaces.ErrContractNotFound, http.StatusBadGateway},
		{interfaces.ErrTimeout, http.StatusGatewayTimeout},
		{interfaces.ErrMalformedLedgerResponse, http.StatusInternalServerError},
		{interfaces.ErrTransactionRejected, http.StatusConflict},
		{interfaces.ErrRecordNotFound, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", interfaces.ErrTimeout), http.StatusGatewayTimeout},
		{errors.New("anything else"), http.StatusInternalServerError},
		{&RequestError{StatusCode: http.StatusBadRequest, Err: errors.New("bad")}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), fmt.Sprint(tt.err))
	}
}

// MockInvoker mocks the Invoker interface
type MockInvoker struct {
	mock.Mock
}

func (m *MockInvoker) Invoke(ctx context.Context, op string, args []string) (*bridge.Response, error) {
	ret := m.Called(ctx, op, args)
	if ret.Get(0) == nil {
		return nil, ret.Error(1)
	}
	return ret.Get(0).(*bridge.Response), ret.Error(1)
}

func (m *MockInvoker) Operations() []interfaces.OperationSpec {
	return m.Called().Get(0).([]interfaces.OperationSpec)
}

func TestHandler_WriteWaitsForBridge(t *testing.T) {
	invoker := &MockInvoker{}
	release := make(chan time.Time)
	invoker.On("Invoke", mock.Anything, "addDiver", []string{"D1", "Alice", "1990-01-01", "F", "O+"}).
		WaitUntil(release).
		Return(nil, fmt.Errorf("%w: endorsement failed", interfaces.ErrTransactionRejected)).
		Once()

	h := NewHandler(invoker, testLog)
	route := writeRoutes[0]

	done := make(chan *httptest.ResponseRecorder)
	go func() {
		body := `{"id":"D1","name":"Alice","bdate":"1990-01-01","gender":"F","btype":"O+"}`
		req := httptest.NewRequest(http.MethodPost, route.path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		h.HandleWrite(route)(rr, req)
		done <- rr
	}()

	select {
	case <-done:
		t.Fatal("handler responded before the bridge returned")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	rr := <-done
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.NotContains(t, rr.Body.String(), "success")
	invoker.AssertExpectations(t)
}

func TestHandler_Operations(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := env.do(t, http.MethodGet, "/api/operations", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp api.OperationsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Operations, len(bridge.DefaultOperations))
	assert.Equal(t, "addCourse", resp.Operations[0].Name)
	assert.Equal(t, "submit", resp.Operations[0].Kind)
}

func TestServer_HealthAndDrain(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := env.do(t, http.MethodGet, "/livez", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(t, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(t, http.MethodGet, "/drain", "", nil)
	assert.Contains(t, rr.Body.String(), `"draining"`)
	rr = env.do(t, http.MethodGet, "/drain", "", nil)
	assert.Contains(t, rr.Body.String(), "already draining")

	rr = env.do(t, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	rr = env.do(t, http.MethodGet, "/undrain", "", nil)
	assert.Contains(t, rr.Body.String(), `"ready"`)
	rr = env.do(t, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestServer_RateLimitsWrites(t *testing.T) {
	env := newTestEnv(t, &api.HTTPServerConfig{RateLimitRPS: 0.001, RateLimitBurst: 1})

	body := api.AddDiverRequest{ID: "D1", Name: "Alice", Bdate: "1990-01-01", Gender: "F", Btype: "O+"}
	rr := env.postJSON(t, "/diver", body)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = env.postJSON(t, "/diver", body)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "RateLimited", decodeError(t, rr).Code)

	// reads are not limited
	rr = env.do(t, http.MethodGet, "/diver?id=D1", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestServer_StaticFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>dolphins</h1>"), 0o644))

	env := newTestEnv(t, &api.HTTPServerConfig{StaticDir: dir})

	rr := env.do(t, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "dolphins")

	rr = env.do(t, http.MethodGet, "/diver?id=nobody", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "RecordNotFound", decodeError(t, rr).Code)
}

func TestServer_WithClient(t *testing.T) {
	env := newTestEnv(t, nil)
	ts := httptest.NewServer(env.server.Handler())
	defer ts.Close()

	c := clients.NewBridgeClient(ts.URL)
	ctx := context.Background()

	require.NoError(t, c.AddDiver(ctx, api.AddDiverRequest{ID: "D1", Name: "Alice", Bdate: "1990-01-01", Gender: "F", Btype: "O+"}))
	require.NoError(t, c.AddLevel(ctx, api.AddLevelRequest{ID: "D1", Levelname: "OpenWater", Org: "PADI", Instid: "I7"}))

	d, err := c.GetDiver(ctx, "D1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", d.Name)
	require.Len(t, d.Levels, 1)
	assert.Equal(t, ledger.LevelStatusInCourse, d.Levels[0].Status)

	_, err = c.GetDiver(ctx, "D2")
	assert.ErrorIs(t, err, interfaces.ErrRecordNotFound)

	err = c.AddCourse(ctx, api.AddCourseRequest{ID: "D1"})
	var apiErr *clients.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
}
