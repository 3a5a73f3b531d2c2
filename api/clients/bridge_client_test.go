package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ruteri/dolphins-ledger-bridge/api"
	"github.com/ruteri/dolphins-ledger-bridge/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBridgeClient(t *testing.T) {
	var lastBody api.AddDiverRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/diver":
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&lastBody))
			_, _ = w.Write([]byte(`{"result":"success"}`))
		case r.Method == http.MethodPost && r.URL.Path == "/level":
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":"identity unavailable: \"user1\"","code":"IdentityUnavailable"}`))
		case r.Method == http.MethodGet && r.URL.Path == "/diver":
			if r.URL.Query().Get("id") != "D 1" {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`{"error":"record not found","code":"RecordNotFound"}`))
				return
			}
			_, _ = w.Write([]byte(`{"id":"D 1","name":"Alice","levels":[{"levelname":"OW","status":"Incourse"}]}`))
		case r.Method == http.MethodGet && r.URL.Path == "/diver/history":
			_, _ = w.Write([]byte(`[{"TxId":"tx1", "Value":{"id":"D 1","name":"Alice"}, "Timestamp":"2019-06-01 10:00:00 +0000 UTC", "IsDelete":"false"},` +
				`{"TxId":"tx2", "Value":null, "Timestamp":"2019-06-02 11:30:00.5 +0900 KST", "IsDelete":"true"}]`))
		case r.Method == http.MethodGet && r.URL.Path == "/api/operations":
			_, _ = w.Write([]byte(`{"operations":[{"name":"getLevel","kind":"evaluate","params":["id"]}]}`))
		default:
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`upstream down`))
		}
	}))
	defer srv.Close()

	c := NewBridgeClient(srv.URL)
	ctx := context.Background()

	req := api.AddDiverRequest{ID: "D1", Name: "Alice", Bdate: "1990-01-01", Gender: "F", Btype: "O+"}
	require.NoError(t, c.AddDiver(ctx, req))
	assert.Equal(t, req, lastBody)

	err := c.AddLevel(ctx, api.AddLevelRequest{ID: "D1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, interfaces.ErrIdentityUnavailable)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)

	d, err := c.GetDiver(ctx, "D 1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", d.Name)
	require.Len(t, d.Levels, 1)

	_, err = c.GetDiver(ctx, "D2")
	assert.ErrorIs(t, err, interfaces.ErrRecordNotFound)

	history, err := c.GetHistory(ctx, "D 1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "tx1", history[0].TxID)
	assert.JSONEq(t, `{"id":"D 1","name":"Alice"}`, string(history[0].Value))
	assert.True(t, history[0].Timestamp.Equal(time.Date(2019, 6, 1, 10, 0, 0, 0, time.UTC)))
	assert.False(t, history[0].IsDelete)
	assert.Equal(t, "tx2", history[1].TxID)
	assert.Nil(t, history[1].Value)
	assert.True(t, history[1].IsDelete)
	assert.True(t, history[1].Timestamp.Equal(time.Date(2019, 6, 2, 2, 30, 0, 500000000, time.UTC)))

	ops, err := c.Operations(ctx)
	require.NoError(t, err)
	assert.Equal(t, []api.OperationInfo{{Name: "getLevel", Kind: "evaluate", Params: []string{"id"}}}, ops)

	err = c.AddCourse(ctx, api.AddCourseRequest{ID: "D1"})
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "upstream down", apiErr.Message)
	assert.Nil(t, apiErr.Unwrap())
}
