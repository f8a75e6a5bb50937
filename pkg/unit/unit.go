package unit

import (
	"os"

	"digital.vasic.passoff/pkg/result"
)

// Unit is the contract every checkable thing in a passoff run
// implements. Composites (Chain, Follow, Group) satisfy the
// same contract as leaves, so they nest transparently.
type Unit interface {
	// Name returns the stable display identity of the unit.
	Name() string

	// Invoke is the externally visible, possibly cascading
	// entry point. For a leaf it is equivalent to Check; for a
	// composite it runs every constituent check and folds the
	// results into one.
	Invoke() *result.Result

	// Check performs the single, non-cascading check this unit
	// is responsible for.
	Check() *result.Result

	// Cleanup deletes any temporary files the unit created. It
	// is idempotent and safe to call even if the unit never
	// ran.
	Cleanup()
}

// Base provides the common state and helpers for concrete
// units. Embed it and implement Check (plus a one-line Invoke
// forwarding to Check for leaves).
type Base struct {
	ctx  *Context
	name string

	// AbortOnError is advisory metadata for callers that
	// compose units: it records whether a failure of this unit
	// makes continuing pointless. The engine itself never
	// short-circuits on it; every queued unit always runs so a
	// single run surfaces maximum diagnostic information.
	AbortOnError bool

	// OutputFilename, when set, names a dedicated log file
	// (under the context's log dir) that receives the output
	// of commands this unit executes.
	OutputFilename string

	// TimeoutSeconds bounds the wall-clock time of commands
	// this unit executes. Zero or negative means unbounded.
	TimeoutSeconds int

	filesToDelete []string
}

// NewBase creates a Base bound to the given context. The
// AbortOnError flag defaults to true.
func NewBase(ctx *Context, name string) Base {
	return Base{ctx: ctx, name: name, AbortOnError: true}
}

// Name returns the unit's display name.
func (b *Base) Name() string { return b.name }

// Context returns the shared execution context.
func (b *Base) Context() *Context { return b.ctx }

// SuccessResult creates a Success result owned by this unit.
func (b *Base) SuccessResult(msg string) *result.Result {
	return result.New(b, result.Success, msg)
}

// WarningResult creates a Warning result owned by this unit.
func (b *Base) WarningResult(msg string) *result.Result {
	return result.New(b, result.Warning, msg)
}

// ErrorResult creates an Error result owned by this unit.
func (b *Base) ErrorResult(msg string) *result.Result {
	return result.New(b, result.Error, msg)
}

// TrackFile records a file this unit created so Cleanup can
// remove it. Files tracked by one unit are owned exclusively
// by that unit.
func (b *Base) TrackFile(path string) {
	b.filesToDelete = append(b.filesToDelete, path)
}

// Cleanup removes every file this unit is known to have
// created. Missing files are ignored, so repeated calls are
// safe.
func (b *Base) Cleanup() {
	for _, path := range b.filesToDelete {
		if _, err := os.Stat(path); err == nil {
			_ = os.Remove(path)
		}
	}
	b.filesToDelete = nil
}
