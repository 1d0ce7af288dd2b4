package harness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mbridge/mbridge/internal/bridge"
	"github.com/mbridge/mbridge/internal/codec"
	"github.com/mbridge/mbridge/internal/engine"
	"github.com/mbridge/mbridge/internal/token"
)

// Scenario defines a scripted bridge session. Scenarios run against a
// fresh in-memory engine and record every operation's result, so a
// scenario file pins the host-facing behavior of a whole call sequence.
type Scenario struct {
	// Name uniquely identifies this scenario. It doubles as the golden
	// file name.
	Name string `yaml:"name"`

	// Description explains what this scenario exercises.
	Description string `yaml:"description"`

	// Mode selects value typing for the whole session: "strict" or
	// "canonical". Defaults to canonical.
	Mode string `yaml:"mode,omitempty"`

	// Steps is the operation sequence.
	Steps []Step `yaml:"steps"`
}

// Step is one operation invocation.
type Step struct {
	// Op is the operation's wire name ("get", "set", "next_node", ...).
	Op string `yaml:"op"`

	// Name is the global, local or routine name. Optional for the
	// argumentless forms (unlock, version, directories).
	Name string `yaml:"name,omitempty"`

	// Subs are the subscripts or call arguments.
	Subs []string `yaml:"subs,omitempty"`

	// Value is the payload for set, the delta for increment.
	Value string `yaml:"value,omitempty"`

	// Timeout is the lock wait in seconds.
	Timeout float64 `yaml:"timeout,omitempty"`

	// To is the merge target.
	To *Target `yaml:"to,omitempty"`

	// ExpectError marks a step whose failure is the expected outcome;
	// the error code is recorded in the trace instead of a result.
	ExpectError bool `yaml:"expect_error,omitempty"`
}

// Target is a secondary reference (merge destination).
type Target struct {
	Name string   `yaml:"name"`
	Subs []string `yaml:"subs,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Mode != "" && s.Mode != "strict" && s.Mode != "canonical" {
		return fmt.Errorf("mode must be strict or canonical, got %q", s.Mode)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	for i, step := range s.Steps {
		if step.Op == "" {
			return fmt.Errorf("steps[%d]: op is required", i)
		}
		if _, err := bridge.ParseOperation(step.Op); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
		if step.To != nil && step.To.Name == "" {
			return fmt.Errorf("steps[%d].to: name is required", i)
		}
	}
	return nil
}

// Result is the recorded outcome of a scenario run.
type Result struct {
	Scenario *Scenario

	// Trace has one line per step: "<op> <result-json>" on success,
	// "<op> !<error-code>" for an expected failure.
	Trace []string
}

// Run executes the scenario against a fresh in-memory engine. An
// unexpected step failure aborts the run; a failure on a step marked
// expect_error is recorded and the run continues.
func Run(s *Scenario) (*Result, error) {
	db, err := engine.Open("")
	if err != nil {
		return nil, fmt.Errorf("open engine: %w", err)
	}
	b := bridge.New(db)
	defer b.Close()

	mode := codec.Canonical
	if s.Mode == "strict" {
		mode = codec.Strict
	}

	res := &Result{Scenario: s}
	ctx := context.Background()
	for i, step := range s.Steps {
		op, _ := bridge.ParseOperation(step.Op)
		req := bridge.Request{
			Name:       step.Name,
			Subscripts: token.List(step.Subs),
			Value:      step.Value,
			Mode:       mode,
			Timeout:    step.Timeout,
		}
		if step.To != nil {
			req.To.Name = step.To.Name
			req.To.Subscripts = token.List(step.To.Subs)
		}

		result, err := b.Do(ctx, op, req)
		switch {
		case err != nil && step.ExpectError:
			res.Trace = append(res.Trace, fmt.Sprintf("%s !%s", step.Op, errorCode(err)))
		case err != nil:
			return nil, fmt.Errorf("steps[%d] %s: %w", i, step.Op, err)
		case step.ExpectError:
			return nil, fmt.Errorf("steps[%d] %s: expected an error, got %s", i, step.Op, result)
		default:
			res.Trace = append(res.Trace, fmt.Sprintf("%s %s", step.Op, result))
		}
	}
	return res, nil
}

func errorCode(err error) string {
	var be *bridge.BridgeError
	if errors.As(err, &be) {
		return string(be.Code)
	}
	return "ERROR"
}
