package report_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digital.vasic.passoff/pkg/report"
	"digital.vasic.passoff/pkg/result"
	"digital.vasic.passoff/pkg/unit"
)

type stub struct {
	name    string
	outcome result.Outcome
	msg     string
}

func (s *stub) Name() string { return s.name }

func (s *stub) Invoke() *result.Result { return s.Check() }

func (s *stub) Check() *result.Result {
	return result.New(s, s.outcome, s.msg)
}

func (s *stub) Cleanup() {}

func ranGroup(t *testing.T) *unit.Group {
	t.Helper()
	ctx := unit.NewContext(t.TempDir())
	ctx.Echo = false
	ctx.DisableColors()

	g := unit.NewGroup(ctx, "repo tests")
	g.Add(&stub{name: "make sim", outcome: result.Success})
	g.Add(&stub{
		name:    "make synth",
		outcome: result.Warning,
		msg:     "Missing build files: top.bit",
	})
	g.Add(&stub{
		name:    "required files",
		outcome: result.Error,
		msg:     "untracked required files: top.sv",
	})
	g.InvokeAll()
	return g
}

func TestFromGroup(t *testing.T) {
	s := report.FromGroup("lab03", ranGroup(t))

	assert.Equal(t, "lab03", s.Assignment)
	assert.Equal(t, "Error", s.Outcome)
	assert.Equal(t, 1, s.Successes)
	assert.Equal(t, 1, s.Warnings)
	assert.Equal(t, 1, s.Errors)

	require.Len(t, s.Lines, 3)
	assert.Equal(t, "make sim", s.Lines[0].Name)
	assert.Equal(t, "Success", s.Lines[0].Outcome)
	assert.Equal(t, "make synth", s.Lines[1].Name)
	assert.Equal(
		t, "Missing build files: top.bit", s.Lines[1].Message,
	)
}

func TestFromGroupDuplicateNames(t *testing.T) {
	ctx := unit.NewContext(t.TempDir())
	ctx.Echo = false
	ctx.DisableColors()

	g := unit.NewGroup(ctx, "g")
	g.Add(&stub{
		name: "clean", outcome: result.Error, msg: "dirty",
	})
	g.Add(&stub{name: "clean", outcome: result.Success})
	g.InvokeAll()

	s := report.FromGroup("lab01", g)
	assert.Equal(t, "Error", s.Outcome)
	assert.Equal(t, 1, s.Errors)
	assert.Equal(t, 1, s.Successes)

	require.Len(t, s.Lines, 2)
	assert.Equal(t, "Error", s.Lines[0].Outcome)
	assert.Equal(t, "Success", s.Lines[1].Outcome)
}

func TestFromGroupSkipsUnranMembers(t *testing.T) {
	ctx := unit.NewContext(t.TempDir())
	ctx.Echo = false
	g := unit.NewGroup(ctx, "g")
	g.Add(&stub{name: "never ran"})

	s := report.FromGroup("lab01", g)
	assert.Empty(t, s.Lines)
	assert.Equal(t, "Success", s.Outcome)
}

func TestWriteTable(t *testing.T) {
	s := report.FromGroup("lab03", ranGroup(t))

	var buf bytes.Buffer
	s.WriteTable(&buf, false)

	out := buf.String()
	assert.Contains(t, out, "lab03")
	assert.Contains(t, out, "make sim")
	assert.Contains(t, out, "Warning")
	assert.Contains(t, out, "1 passed, 1 warnings, 1 errors")
}

func TestWriteJSON(t *testing.T) {
	s := report.FromGroup("lab03", ranGroup(t))

	var buf bytes.Buffer
	require.NoError(t, s.WriteJSON(&buf))

	var decoded report.Summary
	require.NoError(
		t, json.Unmarshal(buf.Bytes(), &decoded),
	)
	assert.Equal(t, "lab03", decoded.Assignment)
	assert.Equal(t, "Error", decoded.Outcome)
	assert.Len(t, decoded.Lines, 3)
}

func TestWriteMarkdown(t *testing.T) {
	s := report.FromGroup("lab03", ranGroup(t))
	s.Duration = 1500 * time.Millisecond

	var buf bytes.Buffer
	require.NoError(t, s.WriteMarkdown(&buf))

	out := buf.String()
	assert.Contains(t, out, "# Passoff Results: lab03")
	assert.Contains(t, out, "in 1.5s")
	assert.Contains(t, out, "| make sim | Success |")
	assert.Contains(
		t, out, "**Error**: 1 passed, 1 warnings, 1 errors",
	)

	// The summary line stays plain ASCII.
	for _, r := range out {
		assert.Less(t, r, rune(128))
	}
}

func TestMarkdownEscapesPipesAndNewlines(t *testing.T) {
	ctx := unit.NewContext(t.TempDir())
	ctx.Echo = false
	g := unit.NewGroup(ctx, "g")
	g.Add(&stub{
		name:    "odd | name",
		outcome: result.Error,
		msg:     "line one\nline two",
	})
	g.InvokeAll()

	s := report.FromGroup("lab01", g)
	var buf bytes.Buffer
	require.NoError(t, s.WriteMarkdown(&buf))

	out := buf.String()
	assert.Contains(t, out, `odd \| name`)
	assert.Contains(t, out, "line one ...")
	assert.NotContains(t, out, "line two |")
}

func TestSaveArtifacts(t *testing.T) {
	s := report.FromGroup("lab03", ranGroup(t))
	dir := filepath.Join(t.TempDir(), "reports")

	require.NoError(t, s.SaveArtifacts(dir))

	jsonData, err := os.ReadFile(
		filepath.Join(dir, "summary.json"),
	)
	require.NoError(t, err)
	assert.Contains(t, string(jsonData), `"lab03"`)

	mdData, err := os.ReadFile(
		filepath.Join(dir, "summary.md"),
	)
	require.NoError(t, err)
	assert.Contains(
		t, string(mdData), "# Passoff Results: lab03",
	)
}
