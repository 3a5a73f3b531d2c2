package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ruteri/dolphins-ledger-bridge/api"
	"github.com/ruteri/dolphins-ledger-bridge/interfaces"
	"github.com/stretchr/testify/mock"
)

// APIError is a non-2xx response from the bridge.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("bridge returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("bridge returned %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

// Unwrap returns the taxonomy sentinel named by Code, so errors.Is works on
// client-side errors.
func (e *APIError) Unwrap() error {
	return interfaces.ErrorForCode(e.Code)
}

// BridgeClient implements api.DiverLedger over HTTP.
type BridgeClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewBridgeClient creates a client for the bridge at baseURL (e.g. "http://localhost:8080").
// timeout defaults to 30 seconds.
func NewBridgeClient(baseURL string, timeout ...time.Duration) *BridgeClient {
	clientTimeout := 30 * time.Second
	if len(timeout) > 0 {
		clientTimeout = timeout[0]
	}

	return &BridgeClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: clientTimeout,
		},
	}
}

func (c *BridgeClient) AddDiver(ctx context.Context, req api.AddDiverRequest) error {
	return c.post(ctx, "/diver", req)
}

func (c *BridgeClient) AddLevel(ctx context.Context, req api.AddLevelRequest) error {
	return c.post(ctx, "/level", req)
}

func (c *BridgeClient) AddCourse(ctx context.Context, req api.AddCourseRequest) error {
	return c.post(ctx, "/course", req)
}

func (c *BridgeClient) AddTestResult(ctx context.Context, req api.AddTestResultRequest) error {
	return c.post(ctx, "/test", req)
}

// GetDiver fetches the diver record with its levels.
func (c *BridgeClient) GetDiver(ctx context.Context, id string) (*interfaces.Diver, error) {
	var d interfaces.Diver
	if err := c.get(ctx, "/diver?id="+url.QueryEscape(id), &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// GetHistory fetches every committed version of the diver record.
func (c *BridgeClient) GetHistory(ctx context.Context, id string) ([]interfaces.HistoryEntry, error) {
	var entries []interfaces.HistoryEntry
	if err := c.get(ctx, "/diver/history?id="+url.QueryEscape(id), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *BridgeClient) Operations(ctx context.Context) ([]api.OperationInfo, error) {
	var resp api.OperationsResponse
	if err := c.get(ctx, "/api/operations", &resp); err != nil {
		return nil, err
	}
	return resp.Operations, nil
}

func (c *BridgeClient) post(ctx context.Context, path string, body any) error {
	reqJSON, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(reqJSON))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	var result api.ResultResponse
	if err := c.do(req, &result); err != nil {
		return err
	}
	if result.Result != "success" {
		return fmt.Errorf("unexpected result %q from %s", result.Result, path)
	}
	return nil
}

func (c *BridgeClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *BridgeClient) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: string(body)}
		var errResp api.ErrorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
			apiErr.Code = errResp.Code
			apiErr.Message = errResp.Error
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response from %s: %w", req.URL.Path, err)
	}
	return nil
}

// MockDiverLedger mocks api.DiverLedger for testing.
type MockDiverLedger struct {
	mock.Mock
}

func (m *MockDiverLedger) AddDiver(ctx context.Context, req api.AddDiverRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *MockDiverLedger) AddLevel(ctx context.Context, req api.AddLevelRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *MockDiverLedger) AddCourse(ctx context.Context, req api.AddCourseRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *MockDiverLedger) AddTestResult(ctx context.Context, req api.AddTestResultRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *MockDiverLedger) GetDiver(ctx context.Context, id string) (*interfaces.Diver, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.Diver), args.Error(1)
}

func (m *MockDiverLedger) GetHistory(ctx context.Context, id string) ([]interfaces.HistoryEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]interfaces.HistoryEntry), args.Error(1)
}

func (m *MockDiverLedger) Operations(ctx context.Context) ([]api.OperationInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]api.OperationInfo), args.Error(1)
}
