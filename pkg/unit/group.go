package unit

import (
	"fmt"

	"digital.vasic.passoff/pkg/result"
)

// Group is a named, ordered collection of units executed in
// order. Unlike Chain and Follow, a Group keeps the individual
// per-member result in a table for reporting, in addition to
// producing one folded verdict. The table is keyed by member
// identity, so two members sharing a display name (a repeated
// clean step, say) keep separate results. Groups satisfy the
// Unit contract themselves, so they can be nested inside other
// groups.
type Group struct {
	ctx     *Context
	name    string
	members []Unit
	table   map[Unit]*result.Result

	// OnStart, when set, is called before each member runs
	// during InvokeAll. Used by live monitoring.
	OnStart func(u Unit)

	// OnResult, when set, is called after each member's result
	// is recorded during InvokeAll. Used by live monitoring;
	// it must not mutate the unit or the result.
	OnResult func(u Unit, r *result.Result)
}

// NewGroup creates an empty group with the given display name.
func NewGroup(ctx *Context, name string) *Group {
	return &Group{
		ctx:   ctx,
		name:  name,
		table: make(map[Unit]*result.Result),
	}
}

// Name returns the group's display name.
func (g *Group) Name() string { return g.name }

// Len returns the number of members in the group.
func (g *Group) Len() int { return len(g.members) }

// Members returns the members in execution order.
func (g *Group) Members() []Unit { return g.members }

// Add appends a unit to the group. Membership order determines
// execution order and summary order.
func (g *Group) Add(u Unit) {
	g.members = append(g.members, u)
}

// AddAt inserts a unit at the given position when the index is
// valid; otherwise the unit is appended.
func (g *Group) AddAt(u Unit, pos int) {
	if pos < 0 || pos >= len(g.members) {
		g.members = append(g.members, u)
		return
	}
	g.members = append(g.members, nil)
	copy(g.members[pos+1:], g.members[pos:])
	g.members[pos] = u
}

// Absorb appends every member of another group to this one.
// This is list concatenation, not nesting: the absorbed
// group's identity is discarded.
func (g *Group) Absorb(other *Group) {
	g.members = append(g.members, other.members...)
}

// Find returns the first member with the given display name,
// or nil when no member matches. Used to run a single named
// step on demand.
func (g *Group) Find(name string) Unit {
	for _, m := range g.members {
		if m.Name() == name {
			return m
		}
	}
	return nil
}

// Result folds the result table into a single group-level
// verdict: the worst severity across members, with a message
// built from every member's textual result. The folded result
// is owned by the group itself.
func (g *Group) Result() *result.Result {
	outcome := result.Success
	msg := ""
	for _, m := range g.members {
		r, ok := g.table[m]
		if !ok {
			continue
		}
		outcome = result.Max(outcome, r.Outcome)
		msg += r.String() + "\n"
	}
	return result.New(g, outcome, msg)
}

// MemberResult returns the recorded result for a member, or
// nil when the member has not run.
func (g *Group) MemberResult(u Unit) *result.Result {
	return g.table[u]
}

// TableResult returns the recorded result for the first member
// with the given display name, or nil when no such member has
// run.
func (g *Group) TableResult(name string) *result.Result {
	for _, m := range g.members {
		if m.Name() != name {
			continue
		}
		if r, ok := g.table[m]; ok {
			return r
		}
	}
	return nil
}

// InvokeAll runs every member in order, records each member's
// result in the table (overwriting that member's prior entry
// when re-invoked), and returns the folded group verdict.
// Every member always runs; the group never short-circuits on
// an earlier Error.
func (g *Group) InvokeAll() *result.Result {
	g.ctx.PrintStatus(
		fmt.Sprintf("Executing Test Set: %s", g.name),
	)
	for _, m := range g.members {
		g.ctx.PrintStatus(
			fmt.Sprintf(" Executing Test: %s", m.Name()),
		)
		if g.OnStart != nil {
			g.OnStart(m)
		}
		r := m.Invoke()
		g.table[m] = r
		if g.OnResult != nil {
			g.OnResult(m, r)
		}
		g.ctx.PrintStatus(r.String())
	}
	return g.Result()
}

// Invoke satisfies the Unit contract by running all members.
func (g *Group) Invoke() *result.Result { return g.InvokeAll() }

// Check satisfies the Unit contract. A group has no primary
// action of its own, so Check runs all members as well.
func (g *Group) Check() *result.Result { return g.InvokeAll() }

// Successes returns the recorded results with Success outcome,
// in member order.
func (g *Group) Successes() []*result.Result {
	return g.partition(result.Success)
}

// Warnings returns the recorded results with Warning outcome,
// in member order.
func (g *Group) Warnings() []*result.Result {
	return g.partition(result.Warning)
}

// Errors returns the recorded results with Error outcome, in
// member order.
func (g *Group) Errors() []*result.Result {
	return g.partition(result.Error)
}

func (g *Group) partition(o result.Outcome) []*result.Result {
	var out []*result.Result
	for _, m := range g.members {
		r, ok := g.table[m]
		if ok && r.Outcome == o {
			out = append(out, r)
		}
	}
	return out
}

// Summarize prints a categorized report of the recorded
// results: warning and error counts with each offending unit's
// name and message, or a single "no errors or warnings" line
// for a clean run. Reporting only; the result table is not
// modified.
func (g *Group) Summarize() {
	warnings := g.Warnings()
	errs := g.Errors()

	if len(warnings) == 0 && len(errs) == 0 {
		g.ctx.PrintStatus("  No errors or warnings")
		return
	}
	if len(warnings) != 0 {
		g.ctx.PrintError(
			fmt.Sprintf(" %d Warnings", len(warnings)),
		)
		for _, w := range warnings {
			g.ctx.PrintError("  " + w.Unit.Name())
			if w.Msg != "" {
				g.ctx.PrintError("   " + w.Msg)
			}
		}
	}
	if len(errs) != 0 {
		g.ctx.PrintError(
			fmt.Sprintf(" %d Errors", len(errs)),
		)
		for _, e := range errs {
			g.ctx.PrintError("  " + e.Unit.Name())
			if e.Msg != "" {
				g.ctx.PrintError("   " + e.Msg)
			}
		}
	}
}

// Cleanup calls Cleanup on every member.
func (g *Group) Cleanup() {
	for _, m := range g.members {
		m.Cleanup()
	}
}
