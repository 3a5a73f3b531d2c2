package interfaces

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TxKind tells whether an operation changes ledger state.
type TxKind int

const (
	// Submit operations go through endorsement and ordering.
	Submit TxKind = iota + 1
	// Evaluate operations are read-only queries against committed state.
	Evaluate
)

// String returns the kind name.
func (k TxKind) String() string {
	switch k {
	case Submit:
		return "submit"
	case Evaluate:
		return "evaluate"
	default:
		return fmt.Sprintf("TxKind(%d)", int(k))
	}
}

// OperationSpec describes one chaincode function the bridge is allowed to call.
type OperationSpec struct {
	Name   string
	Kind   TxKind
	Params []string
}

// Arity is the number of positional arguments the operation takes.
func (s OperationSpec) Arity() int {
	return len(s.Params)
}

// TransactionRequest is a logical operation name plus its positional arguments.
type TransactionRequest struct {
	Operation string
	Args      []string
}

// Diver is the ledger record kept under a diver id.
type Diver struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Bdate  string  `json:"bdate"`
	Gender string  `json:"gender"`
	Btype  string  `json:"btype"`
	Levels []Level `json:"levels"`
}

// Level is one certification level a diver is pursuing or holds.
type Level struct {
	Levelname string   `json:"levelname"`
	Org       string   `json:"org"`
	Instid    string   `json:"instid"`
	Courses   []string `json:"courses"`
	Status    string   `json:"status"`
}

// HistoryTimeLayout is the layout of time.Time.String, which the diver chaincode
// uses for history timestamps.
const HistoryTimeLayout = "2006-01-02 15:04:05.999999999 -0700 MST"

// HistoryEntry is one committed modification of a ledger key. Its JSON form is the
// one the diver chaincode writes: {"TxId","Value","Timestamp","IsDelete"} with the
// timestamp in HistoryTimeLayout and IsDelete as the string "true" or "false".
type HistoryEntry struct {
	TxID      string
	Value     json.RawMessage
	Timestamp time.Time
	IsDelete  bool
}

type historyEntryJSON struct {
	TxID      string          `json:"TxId"`
	Value     json.RawMessage `json:"Value"`
	Timestamp string          `json:"Timestamp"`
	IsDelete  json.RawMessage `json:"IsDelete"`
}

// MarshalJSON writes the chaincode history format. Deleted entries carry a null value.
func (e HistoryEntry) MarshalJSON() ([]byte, error) {
	value := e.Value
	if e.IsDelete || len(value) == 0 {
		value = json.RawMessage("null")
	}
	isDelete, err := json.Marshal(strconv.FormatBool(e.IsDelete))
	if err != nil {
		return nil, err
	}
	return json.Marshal(historyEntryJSON{
		TxID:      e.TxID,
		Value:     value,
		Timestamp: e.Timestamp.String(),
		IsDelete:  isDelete,
	})
}

// UnmarshalJSON accepts the chaincode history format. RFC 3339 timestamps and a
// boolean IsDelete are accepted too.
func (e *HistoryEntry) UnmarshalJSON(data []byte) error {
	var raw historyEntryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	ts, err := parseHistoryTime(raw.Timestamp)
	if err != nil {
		return fmt.Errorf("history entry %s: %w", raw.TxID, err)
	}
	isDelete, err := parseHistoryBool(raw.IsDelete)
	if err != nil {
		return fmt.Errorf("history entry %s: %w", raw.TxID, err)
	}

	value := raw.Value
	if string(value) == "null" {
		value = nil
	}
	*e = HistoryEntry{TxID: raw.TxID, Value: value, Timestamp: ts, IsDelete: isDelete}
	return nil
}

func parseHistoryTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	// time.Time.String appends the monotonic clock reading when present
	if i := strings.Index(s, " m="); i >= 0 {
		s = s[:i]
	}
	if t, err := time.Parse(HistoryTimeLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
	}
	return t, nil
}

func parseHistoryBool(raw json.RawMessage) (bool, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return false, nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return false, fmt.Errorf("invalid IsDelete %s", raw)
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid IsDelete %q", s)
	}
	return b, nil
}
