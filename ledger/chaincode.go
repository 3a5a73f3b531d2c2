package ledger

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ruteri/dolphins-ledger-bridge/interfaces"
)

// LevelStatusInCourse is the status a level starts in.
const LevelStatusInCourse = "Incourse"

type version struct {
	txID      string
	value     []byte
	timestamp time.Time
}

// worldState is the key/value state of one contract plus its per-key history.
type worldState struct {
	current map[string][]byte
	history map[string][]version
}

func newWorldState() *worldState {
	return &worldState{
		current: make(map[string][]byte),
		history: make(map[string][]version),
	}
}

// txContext buffers the writes of one transaction.
type txContext struct {
	state  *worldState
	txID   string
	writes map[string][]byte
	now    time.Time
}

func (tx *txContext) get(key string) []byte {
	if v, ok := tx.writes[key]; ok {
		return v
	}
	return tx.state.current[key]
}

func (tx *txContext) put(key string, value []byte) {
	tx.writes[key] = value
}

func (tx *txContext) commit() {
	for key, value := range tx.writes {
		tx.state.current[key] = value
		tx.state.history[key] = append(tx.state.history[key], version{
			txID:      tx.txID,
			value:     value,
			timestamp: tx.now,
		})
	}
}

type chaincodeFunc func(tx *txContext, args []string) ([]byte, error)

// diverChaincode implements the diver certification contract.
var diverChaincode = map[string]chaincodeFunc{
	"addDiver":         addDiver,
	"addLevel":         addLevel,
	"addCourse":        addCourse,
	"addTestResult":    addTestResult,
	"getLevel":         getLevel,
	"getHistoryForKey": getHistoryForKey,
}

func expectArgs(args []string, n int) error {
	if len(args) != n {
		return fmt.Errorf("incorrect arguments, expecting %d parameters", n)
	}
	return nil
}

func loadDiver(tx *txContext, id string) (*interfaces.Diver, error) {
	value := tx.get(id)
	if value == nil {
		return nil, fmt.Errorf("diver not found: %s", id)
	}
	var d interfaces.Diver
	if err := json.Unmarshal(value, &d); err != nil {
		return nil, fmt.Errorf("failed to decode diver %s: %w", id, err)
	}
	return &d, nil
}

func storeDiver(tx *txContext, d *interfaces.Diver) ([]byte, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	tx.put(d.ID, data)
	return data, nil
}

// addDiver creates or overwrites the diver record.
func addDiver(tx *txContext, args []string) ([]byte, error) {
	if err := expectArgs(args, 5); err != nil {
		return nil, err
	}
	return storeDiver(tx, &interfaces.Diver{
		ID:     args[0],
		Name:   args[1],
		Bdate:  args[2],
		Gender: args[3],
		Btype:  args[4],
	})
}

func addLevel(tx *txContext, args []string) ([]byte, error) {
	if err := expectArgs(args, 4); err != nil {
		return nil, err
	}
	d, err := loadDiver(tx, args[0])
	if err != nil {
		return nil, err
	}
	d.Levels = append(d.Levels, interfaces.Level{
		Levelname: args[1],
		Org:       args[2],
		Instid:    args[3],
		Status:    LevelStatusInCourse,
	})
	return storeDiver(tx, d)
}

// lastLevel returns the diver's most recent level if its name is levelName.
// A name mismatch is not an error: the record is written back unchanged.
func lastLevel(d *interfaces.Diver, levelName string) (*interfaces.Level, error) {
	if len(d.Levels) == 0 {
		return nil, fmt.Errorf("diver %s has no levels", d.ID)
	}
	last := &d.Levels[len(d.Levels)-1]
	if last.Levelname != levelName {
		return nil, nil
	}
	return last, nil
}

func addCourse(tx *txContext, args []string) ([]byte, error) {
	if err := expectArgs(args, 3); err != nil {
		return nil, err
	}
	d, err := loadDiver(tx, args[0])
	if err != nil {
		return nil, err
	}
	level, err := lastLevel(d, args[1])
	if err != nil {
		return nil, err
	}
	if level != nil {
		level.Courses = append(level.Courses, args[2])
	}
	return storeDiver(tx, d)
}

func addTestResult(tx *txContext, args []string) ([]byte, error) {
	if err := expectArgs(args, 3); err != nil {
		return nil, err
	}
	d, err := loadDiver(tx, args[0])
	if err != nil {
		return nil, err
	}
	level, err := lastLevel(d, args[1])
	if err != nil {
		return nil, err
	}
	if level != nil {
		level.Status = args[2]
	}
	return storeDiver(tx, d)
}

func getLevel(tx *txContext, args []string) ([]byte, error) {
	if err := expectArgs(args, 1); err != nil {
		return nil, err
	}
	value := tx.get(args[0])
	if value == nil {
		return nil, fmt.Errorf("diver not found: %s", args[0])
	}
	return value, nil
}

func getHistoryForKey(tx *txContext, args []string) ([]byte, error) {
	if err := expectArgs(args, 1); err != nil {
		return nil, err
	}
	versions := tx.state.history[args[0]]
	entries := make([]interfaces.HistoryEntry, 0, len(versions))
	for _, v := range versions {
		entries = append(entries, interfaces.HistoryEntry{
			TxID:      v.txID,
			Value:     json.RawMessage(v.value),
			Timestamp: v.timestamp,
		})
	}
	return json.Marshal(entries)
}

func newTxID() string {
	return uuid.NewString()
}
