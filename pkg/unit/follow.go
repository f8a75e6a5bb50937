package unit

import "digital.vasic.passoff/pkg/result"

// Follow pairs a primary unit with an ordered list of
// subordinate units that depend on it, such as a build command
// followed by checks on the files it produced. Invoking a
// Follow runs the primary and then every subordinate
// unconditionally: subordinates run even when the primary
// fails, so one run collects the full diagnostic picture
// instead of stopping at the first failure.
type Follow struct {
	Base
	primary Unit
	subs    []Unit
}

// NewFollow creates a Follow around the given primary unit.
func NewFollow(ctx *Context, name string, primary Unit) *Follow {
	return &Follow{Base: NewBase(ctx, name), primary: primary}
}

// Add appends a subordinate unit. Subordinates run in the
// order they were added.
func (f *Follow) Add(u Unit) {
	f.subs = append(f.subs, u)
}

// Primary returns the primary unit.
func (f *Follow) Primary() Unit { return f.primary }

// Check performs only the primary unit's check.
func (f *Follow) Check() *result.Result {
	if f.primary == nil {
		return f.SuccessResult("")
	}
	return f.primary.Check()
}

// Invoke runs the primary check followed by every subordinate
// check, folding all results primary-first through
// result.Merge. The merged result keeps the primary's unit
// identity.
func (f *Follow) Invoke() *result.Result {
	merged := f.Check()
	for _, sub := range f.subs {
		merged = result.Merge(merged, sub.Check())
	}
	return merged
}

// Cleanup cleans the primary, every subordinate, and the
// Follow's own tracked files.
func (f *Follow) Cleanup() {
	if f.primary != nil {
		f.primary.Cleanup()
	}
	for _, sub := range f.subs {
		sub.Cleanup()
	}
	f.Base.Cleanup()
}
