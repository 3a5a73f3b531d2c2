package bridge

import (
	"fmt"
	"sort"

	"github.com/ruteri/dolphins-ledger-bridge/interfaces"
)

// DefaultOperations is the diver certification contract's callable surface.
var DefaultOperations = []interfaces.OperationSpec{
	{Name: "addDiver", Kind: interfaces.Submit, Params: []string{"id", "name", "birthdate", "gender", "bloodType"}},
	{Name: "addLevel", Kind: interfaces.Submit, Params: []string{"id", "levelName", "org", "instructorId"}},
	{Name: "addCourse", Kind: interfaces.Submit, Params: []string{"id", "levelName", "course"}},
	{Name: "addTestResult", Kind: interfaces.Submit, Params: []string{"id", "levelName", "status"}},
	{Name: "getLevel", Kind: interfaces.Evaluate, Params: []string{"id"}},
	{Name: "getHistoryForKey", Kind: interfaces.Evaluate, Params: []string{"id"}},
}

// OperationRegistry is an immutable table of allowed operations, safe for
// concurrent reads.
type OperationRegistry struct {
	specs map[string]interfaces.OperationSpec
}

// NewOperationRegistry builds a registry from specs. Duplicate or empty names and
// unknown kinds are rejected.
func NewOperationRegistry(specs ...interfaces.OperationSpec) (*OperationRegistry, error) {
	r := &OperationRegistry{specs: make(map[string]interfaces.OperationSpec, len(specs))}
	for _, spec := range specs {
		if spec.Name == "" {
			return nil, fmt.Errorf("operation with empty name")
		}
		if spec.Kind != interfaces.Submit && spec.Kind != interfaces.Evaluate {
			return nil, fmt.Errorf("operation %s: invalid kind %v", spec.Name, spec.Kind)
		}
		if _, dup := r.specs[spec.Name]; dup {
			return nil, fmt.Errorf("operation %s registered twice", spec.Name)
		}
		spec.Params = append([]string(nil), spec.Params...)
		r.specs[spec.Name] = spec
	}
	return r, nil
}

// MustDefaultRegistry returns a registry of DefaultOperations.
func MustDefaultRegistry() *OperationRegistry {
	r, err := NewOperationRegistry(DefaultOperations...)
	if err != nil {
		panic(err)
	}
	return r
}

// Resolve looks up an operation by name.
func (r *OperationRegistry) Resolve(name string) (interfaces.OperationSpec, bool) {
	spec, ok := r.specs[name]
	return spec, ok
}

// Operations returns all registered operations sorted by name.
func (r *OperationRegistry) Operations() []interfaces.OperationSpec {
	out := make([]interfaces.OperationSpec, 0, len(r.specs))
	for _, spec := range r.specs {
		out = append(out, spec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
