package api

import (
	"context"

	"github.com/ruteri/dolphins-ledger-bridge/interfaces"
)

// DiverLedger is the diver certification API. The HTTP client implements it;
// the server exposes the same operations over REST.
type DiverLedger interface {
	AddDiver(ctx context.Context, req AddDiverRequest) error
	AddLevel(ctx context.Context, req AddLevelRequest) error
	AddCourse(ctx context.Context, req AddCourseRequest) error
	AddTestResult(ctx context.Context, req AddTestResultRequest) error
	GetDiver(ctx context.Context, id string) (*interfaces.Diver, error)
	GetHistory(ctx context.Context, id string) ([]interfaces.HistoryEntry, error)
	Operations(ctx context.Context) ([]OperationInfo, error)
}

// AddDiverRequest is the body of POST /diver.
type AddDiverRequest struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Bdate  string `json:"bdate"`
	Gender string `json:"gender"`
	Btype  string `json:"btype"`
}

// AddLevelRequest is the body of POST /level.
type AddLevelRequest struct {
	ID        string `json:"id"`
	Levelname string `json:"levelname"`
	Org       string `json:"org"`
	Instid    string `json:"instid"`
}

// AddCourseRequest is the body of POST /course.
type AddCourseRequest struct {
	ID        string `json:"id"`
	Levelname string `json:"levelname"`
	Course    string `json:"course"`
}

// AddTestResultRequest is the body of POST /test.
type AddTestResultRequest struct {
	ID        string `json:"id"`
	Levelname string `json:"levelname"`
	Status    string `json:"status"`
}

// ResultResponse acknowledges a committed write.
type ResultResponse struct {
	Result string `json:"result"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// OperationInfo describes one operation accepted by the bridge.
type OperationInfo struct {
	Name   string   `json:"name"`
	Kind   string   `json:"kind"`
	Params []string `json:"params"`
}

// OperationsResponse is the body of GET /api/operations.
type OperationsResponse struct {
	Operations []OperationInfo `json:"operations"`
}

// OperationInfoFrom converts registry specs to their wire form.
func OperationInfoFrom(specs []interfaces.OperationSpec) []OperationInfo {
	out := make([]OperationInfo, 0, len(specs))
	for _, s := range specs {
		params := s.Params
		if params == nil {
			params = []string{}
		}
		out = append(out, OperationInfo{Name: s.Name, Kind: s.Kind.String(), Params: params})
	}
	return out
}
