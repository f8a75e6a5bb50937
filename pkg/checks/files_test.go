package checks_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digital.vasic.passoff/pkg/checks"
	"digital.vasic.passoff/pkg/result"
	"digital.vasic.passoff/pkg/unit"
)

func quietContext(t *testing.T) *unit.Context {
	t.Helper()
	ctx := unit.NewContext(t.TempDir())
	ctx.Echo = false
	ctx.DisableColors()
	return ctx
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(
		t, os.WriteFile(path, []byte(content), 0o644),
	)
}

func TestFileExists(t *testing.T) {
	ctx := quietContext(t)
	writeFile(t, ctx.WorkDir, "present.sv", "module m; endmodule")

	t.Run("all present", func(t *testing.T) {
		c := checks.NewFileExists(ctx, []string{"present.sv"})
		r := c.Invoke()
		assert.Equal(t, result.Success, r.Outcome)
	})

	t.Run("missing file", func(t *testing.T) {
		c := checks.NewFileExists(
			ctx, []string{"present.sv", "absent.sv"},
		)
		r := c.Invoke()
		assert.Equal(t, result.Error, r.Outcome)
	})
}

func TestFileExistsCopiesToReviewDir(t *testing.T) {
	ctx := quietContext(t)
	writeFile(t, ctx.WorkDir, "top.bit", "bitstream")

	copyDir := t.TempDir()
	c := checks.NewFileExists(ctx, []string{"top.bit"})
	c.CopyDir = copyDir
	c.CopyPrefix = "lab1_"

	r := c.Invoke()
	assert.Equal(t, result.Success, r.Outcome)

	data, err := os.ReadFile(
		filepath.Join(copyDir, "lab1_top.bit"),
	)
	require.NoError(t, err)
	assert.Equal(t, "bitstream", string(data))
}

func TestFileRegex(t *testing.T) {
	ctx := quietContext(t)
	writeFile(
		t, ctx.WorkDir, "sim.log",
		"starting\nTESTS PASSED\ndone\n",
	)

	tests := []struct {
		name         string
		pattern      string
		matchIsError bool
		want         result.Outcome
	}{
		{"required match found", "TESTS PASSED", false, result.Success},
		{"required match missing", "TESTS FAILED", false, result.Error},
		{"forbidden match absent", "ERROR", true, result.Success},
		{"forbidden match present", "TESTS", true, result.Error},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := checks.NewFileRegex(
				ctx, "sim.log", tt.pattern, "", tt.matchIsError,
			)
			require.NoError(t, err)
			r := c.Invoke()
			assert.Equal(t, tt.want, r.Outcome)
		})
	}
}

func TestFileRegexGeneratedName(t *testing.T) {
	ctx := quietContext(t)
	c, err := checks.NewFileRegex(
		ctx, "sim.log", "PASS", "", false,
	)
	require.NoError(t, err)
	assert.Equal(
		t,
		"File Regex Check: sim.log - PASS - Error on match: false",
		c.Name(),
	)

	named, err := checks.NewFileRegex(
		ctx, "sim.log", "PASS", "Simulation Passed", false,
	)
	require.NoError(t, err)
	assert.Equal(t, "Simulation Passed", named.Name())
}

func TestFileRegexErrMsgOverride(t *testing.T) {
	ctx := quietContext(t)
	writeFile(t, ctx.WorkDir, "sim.log", "nothing here\n")

	c, err := checks.NewFileRegex(
		ctx, "sim.log", "PASS", "", false,
	)
	require.NoError(t, err)
	c.ErrMsg = "The testbench did not report success"

	r := c.Invoke()
	assert.Equal(t, result.Error, r.Outcome)
	assert.Equal(t, "The testbench did not report success", r.Msg)
}

func TestFileRegexMissingFile(t *testing.T) {
	ctx := quietContext(t)
	c, err := checks.NewFileRegex(
		ctx, "never-written.log", "PASS", "", false,
	)
	require.NoError(t, err)
	r := c.Invoke()
	assert.Equal(t, result.Error, r.Outcome)
}

func TestFileRegexBadPattern(t *testing.T) {
	ctx := quietContext(t)
	_, err := checks.NewFileRegex(ctx, "x.log", "(", "", false)
	assert.Error(t, err)
}

func TestFileRegexAbsolutePath(t *testing.T) {
	ctx := quietContext(t)
	other := t.TempDir()
	path := filepath.Join(other, "build.log")
	require.NoError(
		t, os.WriteFile(path, []byte("all ok\n"), 0o644),
	)

	c, err := checks.NewFileRegex(ctx, path, "all ok", "", false)
	require.NoError(t, err)
	r := c.Invoke()
	assert.Equal(t, result.Success, r.Outcome)
}

func TestExecsExist(t *testing.T) {
	ctx := quietContext(t)

	t.Run("found", func(t *testing.T) {
		c := checks.NewExecsExist(ctx, []string{"sh"})
		r := c.Invoke()
		assert.Equal(t, result.Success, r.Outcome)
	})

	t.Run("missing", func(t *testing.T) {
		c := checks.NewExecsExist(
			ctx, []string{"sh", "no-such-tool-passoff"},
		)
		r := c.Invoke()
		assert.Equal(t, result.Error, r.Outcome)
		assert.Contains(t, r.Msg, "no-such-tool-passoff")
	})
}
