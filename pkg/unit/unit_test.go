package unit_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digital.vasic.passoff/pkg/result"
	"digital.vasic.passoff/pkg/unit"
)

// spy is a scripted unit recording every call made to it.
type spy struct {
	name    string
	outcome result.Outcome
	msg     string
	checks  int
	cleans  int
}

func (s *spy) Name() string { return s.name }

func (s *spy) Invoke() *result.Result { return s.Check() }

func (s *spy) Check() *result.Result {
	s.checks++
	return result.New(s, s.outcome, s.msg)
}

func (s *spy) Cleanup() { s.cleans++ }

func quietContext(t *testing.T) *unit.Context {
	t.Helper()
	ctx := unit.NewContext(t.TempDir())
	ctx.Echo = false
	ctx.DisableColors()
	return ctx
}

func TestBaseResults(t *testing.T) {
	ctx := quietContext(t)
	b := unit.NewBase(ctx, "base")

	assert.Equal(t, "base", b.Name())
	assert.True(t, b.AbortOnError)
	assert.Same(t, ctx, b.Context())

	assert.Equal(t, result.Success, b.SuccessResult("").Outcome)
	assert.Equal(t, result.Warning, b.WarningResult("w").Outcome)
	assert.Equal(t, result.Error, b.ErrorResult("e").Outcome)
	assert.Equal(t, "e", b.ErrorResult("e").Msg)
}

func TestBaseCleanupRemovesTrackedFiles(t *testing.T) {
	ctx := quietContext(t)
	b := unit.NewBase(ctx, "base")

	path := filepath.Join(t.TempDir(), "scratch.log")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	b.TrackFile(path)

	b.Cleanup()
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Second call must not fail on the missing file.
	b.Cleanup()
}

func TestChainRunsEveryLink(t *testing.T) {
	ctx := quietContext(t)
	c := unit.NewChain(ctx, "chain")

	head := &spy{name: "head", outcome: result.Error, msg: "boom"}
	mid := &spy{name: "mid", outcome: result.Success}
	tail := &spy{name: "tail", outcome: result.Warning, msg: "odd"}
	c.Append(head)
	c.Append(mid)
	c.Append(tail)
	require.Equal(t, 3, c.Len())

	r := c.Invoke()
	require.NotNil(t, r)

	// An early Error never skips later links.
	assert.Equal(t, 1, head.checks)
	assert.Equal(t, 1, mid.checks)
	assert.Equal(t, 1, tail.checks)

	assert.Equal(t, result.Error, r.Outcome)
	assert.Equal(t, "boom\nodd", r.Msg)
	assert.Equal(t, "head", r.Unit.Name(), "chain reports through its head")
}

func TestChainCheckOnlyTouchesHead(t *testing.T) {
	ctx := quietContext(t)
	c := unit.NewChain(ctx, "chain")

	head := &spy{name: "head", outcome: result.Warning}
	tail := &spy{name: "tail", outcome: result.Error}
	c.Append(head)
	c.Append(tail)

	r := c.Check()
	require.NotNil(t, r)
	assert.Equal(t, result.Warning, r.Outcome)
	assert.Equal(t, 1, head.checks)
	assert.Equal(t, 0, tail.checks)
}

func TestChainEmpty(t *testing.T) {
	ctx := quietContext(t)
	c := unit.NewChain(ctx, "empty")

	r := c.Invoke()
	require.NotNil(t, r)
	assert.Equal(t, result.Success, r.Outcome)
	assert.Equal(t, "empty", r.Unit.Name())

	r = c.Check()
	require.NotNil(t, r)
	assert.Equal(t, result.Success, r.Outcome)
}

func TestChainCleanupReachesEveryLink(t *testing.T) {
	ctx := quietContext(t)
	c := unit.NewChain(ctx, "chain")
	a := &spy{name: "a"}
	b := &spy{name: "b"}
	c.Append(a)
	c.Append(b)

	c.Cleanup()
	assert.Equal(t, 1, a.cleans)
	assert.Equal(t, 1, b.cleans)
}

func TestFollowRunsSubsEvenWhenPrimaryFails(t *testing.T) {
	ctx := quietContext(t)
	primary := &spy{name: "build", outcome: result.Error, msg: "exit 2"}
	f := unit.NewFollow(ctx, "build rule", primary)

	sub1 := &spy{name: "log check", outcome: result.Success}
	sub2 := &spy{name: "output check", outcome: result.Warning, msg: "missing"}
	f.Add(sub1)
	f.Add(sub2)

	r := f.Invoke()
	require.NotNil(t, r)

	assert.Equal(t, 1, primary.checks)
	assert.Equal(t, 1, sub1.checks)
	assert.Equal(t, 1, sub2.checks)

	assert.Equal(t, result.Error, r.Outcome)
	assert.Equal(t, "exit 2\nmissing", r.Msg)
	assert.Equal(t, "build", r.Unit.Name(), "primary owns the merged result")
}

func TestFollowCheckIsPrimaryOnly(t *testing.T) {
	ctx := quietContext(t)
	primary := &spy{name: "build", outcome: result.Warning}
	f := unit.NewFollow(ctx, "build rule", primary)
	sub := &spy{name: "sub", outcome: result.Error}
	f.Add(sub)

	r := f.Check()
	require.NotNil(t, r)
	assert.Equal(t, result.Warning, r.Outcome)
	assert.Equal(t, 0, sub.checks)
	assert.Same(t, primary, f.Primary())
}

func TestFollowNilPrimary(t *testing.T) {
	ctx := quietContext(t)
	f := unit.NewFollow(ctx, "hollow", nil)

	r := f.Invoke()
	require.NotNil(t, r)
	assert.Equal(t, result.Success, r.Outcome)

	f.Cleanup()
}

func TestGroupInvokeAllRecordsTable(t *testing.T) {
	ctx := quietContext(t)
	g := unit.NewGroup(ctx, "repo tests")

	ok := &spy{name: "ok", outcome: result.Success}
	warn := &spy{name: "warn", outcome: result.Warning, msg: "w"}
	bad := &spy{name: "bad", outcome: result.Error, msg: "e"}
	g.Add(ok)
	g.Add(warn)
	g.Add(bad)

	r := g.InvokeAll()
	require.NotNil(t, r)
	assert.Equal(t, result.Error, r.Outcome)
	assert.Equal(t, "repo tests", r.Unit.Name())

	require.NotNil(t, g.TableResult("warn"))
	assert.Equal(t, result.Warning, g.TableResult("warn").Outcome)
	assert.Nil(t, g.TableResult("missing"))

	assert.Len(t, g.Successes(), 1)
	assert.Len(t, g.Warnings(), 1)
	assert.Len(t, g.Errors(), 1)
}

func TestGroupReinvokeOverwritesTable(t *testing.T) {
	ctx := quietContext(t)
	g := unit.NewGroup(ctx, "g")

	s := &spy{name: "flaky", outcome: result.Error, msg: "first"}
	g.Add(s)

	r := g.InvokeAll()
	assert.Equal(t, result.Error, r.Outcome)

	s.outcome = result.Success
	s.msg = ""
	r = g.InvokeAll()
	assert.Equal(t, result.Success, r.Outcome)
	assert.Equal(t, result.Success, g.TableResult("flaky").Outcome)
	assert.Equal(t, 2, s.checks)
}

func TestGroupDuplicateNamesKeepSeparateResults(t *testing.T) {
	ctx := quietContext(t)
	g := unit.NewGroup(ctx, "g")

	// Two distinct members may share a display name, like the
	// pre-build and post-build clean steps of a full run.
	first := &spy{name: "clean", outcome: result.Error, msg: "dirty"}
	second := &spy{name: "clean", outcome: result.Success}
	g.Add(first)
	g.Add(second)

	r := g.InvokeAll()
	require.NotNil(t, r)
	assert.Equal(
		t, result.Error, r.Outcome,
		"the first member's Error must survive the duplicate",
	)

	assert.Len(t, g.Errors(), 1)
	assert.Len(t, g.Successes(), 1)

	require.NotNil(t, g.MemberResult(first))
	assert.Equal(t, result.Error, g.MemberResult(first).Outcome)
	require.NotNil(t, g.MemberResult(second))
	assert.Equal(
		t, result.Success, g.MemberResult(second).Outcome,
	)

	// Name lookup resolves to the first member with that name.
	require.NotNil(t, g.TableResult("clean"))
	assert.Equal(t, result.Error, g.TableResult("clean").Outcome)
}

func TestGroupOnStartHook(t *testing.T) {
	ctx := quietContext(t)
	g := unit.NewGroup(ctx, "g")
	g.Add(&spy{name: "a"})
	g.Add(&spy{name: "b"})

	var order []string
	g.OnStart = func(u unit.Unit) {
		order = append(order, "start:"+u.Name())
	}
	g.OnResult = func(u unit.Unit, r *result.Result) {
		order = append(order, "done:"+u.Name())
	}

	g.InvokeAll()
	assert.Equal(
		t,
		[]string{"start:a", "done:a", "start:b", "done:b"},
		order,
	)
}

func TestGroupAddAt(t *testing.T) {
	ctx := quietContext(t)
	g := unit.NewGroup(ctx, "g")
	g.Add(&spy{name: "a"})
	g.Add(&spy{name: "c"})

	g.AddAt(&spy{name: "b"}, 1)
	g.AddAt(&spy{name: "z"}, 99)

	var names []string
	for _, m := range g.Members() {
		names = append(names, m.Name())
	}
	assert.Equal(t, []string{"a", "b", "c", "z"}, names)
}

func TestGroupFind(t *testing.T) {
	ctx := quietContext(t)
	g := unit.NewGroup(ctx, "g")
	want := &spy{name: "needle"}
	g.Add(&spy{name: "hay"})
	g.Add(want)

	found := g.Find("needle")
	require.NotNil(t, found)
	assert.Equal(t, "needle", found.Name())
	assert.Nil(t, g.Find("absent"))
}

func TestGroupAbsorb(t *testing.T) {
	ctx := quietContext(t)
	outer := unit.NewGroup(ctx, "outer")
	outer.Add(&spy{name: "one"})

	inner := unit.NewGroup(ctx, "inner")
	inner.Add(&spy{name: "two"})
	inner.Add(&spy{name: "three"})

	outer.Absorb(inner)
	assert.Equal(t, 3, outer.Len())
	assert.NotNil(t, outer.Find("three"))
}

func TestGroupOnResultHook(t *testing.T) {
	ctx := quietContext(t)
	g := unit.NewGroup(ctx, "g")
	g.Add(&spy{name: "a", outcome: result.Warning})
	g.Add(&spy{name: "b", outcome: result.Success})

	var seen []string
	g.OnResult = func(u unit.Unit, r *result.Result) {
		seen = append(seen, u.Name()+"="+r.Outcome.String())
	}

	g.InvokeAll()
	assert.Equal(t, []string{"a=Warning", "b=Success"}, seen)
}

func TestGroupResultBeforeRun(t *testing.T) {
	ctx := quietContext(t)
	g := unit.NewGroup(ctx, "g")
	g.Add(&spy{name: "never ran"})

	r := g.Result()
	require.NotNil(t, r)
	assert.Equal(t, result.Success, r.Outcome)
	assert.Empty(t, r.Msg)
}
