// Package result defines the outcome model for passoff test
// units: a three-value severity lattice and the algebra for
// folding several outcomes into one verdict.
package result

import "fmt"

// Outcome is the severity of a test result, totally ordered by
// strictness: Success < Warning < Error.
type Outcome int

const (
	// Success indicates the check found no issue.
	Success Outcome = iota

	// Warning indicates a deviation that does not invalidate
	// the run but must be surfaced (e.g., missing optional
	// build output, untracked files).
	Warning

	// Error indicates a deviation that invalidates correctness
	// (e.g., a command could not run or exited non-zero).
	Error
)

// String returns the display form of an outcome.
func (o Outcome) String() string {
	switch o {
	case Success:
		return "Success"
	case Warning:
		return "Warning"
	case Error:
		return "Error"
	default:
		return "Unknown"
	}
}

// Max returns the stricter of two outcomes.
func Max(a, b Outcome) Outcome {
	if a > b {
		return a
	}
	return b
}

// Unit is the minimal view of a test unit a Result needs: its
// display name. The full unit contract lives in pkg/unit.
type Unit interface {
	Name() string
}

// Result captures the outcome of one test unit invocation. A
// Result always names the exact unit it reports on, even after
// merging. Results are never mutated after construction;
// merging produces a fresh Result.
type Result struct {
	// Unit is the test unit that produced (or owns) this
	// result.
	Unit Unit

	// Outcome is the severity of the result.
	Outcome Outcome

	// Msg is an optional human-readable message. Empty means
	// no message.
	Msg string
}

// New creates a Result for the given unit.
func New(unit Unit, outcome Outcome, msg string) *Result {
	return &Result{Unit: unit, Outcome: outcome, Msg: msg}
}

// String renders the result as "<Outcome>: <unit name>".
func (r *Result) String() string {
	name := ""
	if r.Unit != nil {
		name = r.Unit.Name()
	}
	return fmt.Sprintf("%s: %s", r.Outcome, name)
}

// Merge folds two results into one. Either argument may be nil;
// merging with nil returns a copy of the other (nil is the
// neutral element). The merged outcome is the stricter of the
// two, the messages are joined with a newline when both are
// present, and the owning unit reference is taken from the
// left operand. This left bias lets a chain report itself as
// the test even when the severity comes from a later link.
func Merge(a, b *Result) *Result {
	if a == nil && b == nil {
		return nil
	}
	if a == nil {
		return &Result{Unit: b.Unit, Outcome: b.Outcome, Msg: b.Msg}
	}
	if b == nil {
		return &Result{Unit: a.Unit, Outcome: a.Outcome, Msg: a.Msg}
	}

	msg := a.Msg
	if b.Msg != "" {
		if msg != "" {
			msg += "\n" + b.Msg
		} else {
			msg = b.Msg
		}
	}

	return &Result{
		Unit:    a.Unit,
		Outcome: Max(a.Outcome, b.Outcome),
		Msg:     msg,
	}
}
