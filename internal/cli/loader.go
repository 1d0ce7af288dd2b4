package cli

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed operations.cue
var operationsCUE []byte

// OperationSpec describes one CLI operation as declared in the embedded
// table: its wire name, the minimum positional arity, and which flags it
// accepts.
type OperationSpec struct {
	Name    string `json:"name"`
	Summary string `json:"summary"`
	MinArgs int    `json:"minArgs"`
	Value   bool   `json:"value"`
	Timeout bool   `json:"timeout"`
	Target  bool   `json:"target"`
	Bounds  bool   `json:"bounds"`
}

// OperationTable is the loaded, schema-validated operation table keyed
// by operation name.
type OperationTable map[string]OperationSpec

// LoadOperationTable compiles the embedded CUE table and validates every
// entry against its schema. A malformed table is a build defect, so the
// error carries the CUE position detail verbatim.
func LoadOperationTable() (OperationTable, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(operationsCUE)
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("compiling operation table: %w", err)
	}

	ops := value.LookupPath(cue.ParsePath("operations"))
	if !ops.Exists() {
		return nil, fmt.Errorf("operation table has no operations list")
	}
	if err := ops.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("validating operation table: %w", err)
	}

	var specs []OperationSpec
	if err := ops.Decode(&specs); err != nil {
		return nil, fmt.Errorf("decoding operation table: %w", err)
	}

	table := make(OperationTable, len(specs))
	for _, spec := range specs {
		if _, dup := table[spec.Name]; dup {
			return nil, fmt.Errorf("duplicate operation %q in table", spec.Name)
		}
		table[spec.Name] = spec
	}
	return table, nil
}

// CheckInvocation validates positional arity for an operation before it
// is encoded and dispatched.
func (t OperationTable) CheckInvocation(name string, argc int) error {
	spec, ok := t[name]
	if !ok {
		return fmt.Errorf("unknown operation %q", name)
	}
	if argc < spec.MinArgs {
		return fmt.Errorf("%s requires at least %d argument(s), got %d", name, spec.MinArgs, argc)
	}
	return nil
}
