// Package checks provides the concrete test units of the
// passoff harness: file-system checks, git hygiene checks, and
// build-rule execution. Every check converts what it finds
// into a result at the point of detection; no raw errors cross
// a unit boundary.
package checks

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"digital.vasic.passoff/pkg/result"
	"digital.vasic.passoff/pkg/unit"
)

// FileExists checks that a set of files exists in the working
// directory. This is a file-system check, not a git check: its
// usual role is verifying that files appeared after some other
// command ran. Existing files can optionally be copied to a
// review directory.
type FileExists struct {
	unit.Base
	Files      []string
	CopyDir    string
	CopyPrefix string
}

// NewFileExists creates a FileExists check for the given
// files.
func NewFileExists(
	ctx *unit.Context,
	files []string,
) *FileExists {
	name := "Files Exist: " + strings.Join(files, ", ")
	return &FileExists{
		Base:  unit.NewBase(ctx, name),
		Files: files,
	}
}

// Invoke runs the single check.
func (t *FileExists) Invoke() *result.Result {
	return t.Check()
}

// Check verifies every file exists, copying the ones that do
// when a copy directory is configured.
func (t *FileExists) Check() *result.Result {
	ctx := t.Context()
	ok := true
	var existing []string
	for _, f := range t.Files {
		path := filepath.Join(ctx.WorkDir, f)
		if _, err := os.Stat(path); err != nil {
			ctx.PrintError("File does not exist: " + path)
			ok = false
			continue
		}
		ctx.Print("File exists: " + path)
		existing = append(existing, path)
	}

	if t.CopyDir != "" {
		t.copyFiles(existing)
	}

	if !ok {
		return t.ErrorResult("missing files")
	}
	return t.SuccessResult("")
}

func (t *FileExists) copyFiles(paths []string) {
	ctx := t.Context()
	if _, err := os.Stat(t.CopyDir); err != nil {
		ctx.PrintError(
			"Copy directory does not exist: " + t.CopyDir,
		)
		return
	}
	for _, src := range paths {
		name := t.CopyPrefix + filepath.Base(src)
		dst := filepath.Join(t.CopyDir, name)
		if err := copyFile(src, dst); err != nil {
			ctx.PrintError(fmt.Sprintf(
				"Error copying file %s to %s: %v", src, dst, err,
			))
			continue
		}
		ctx.Print(
			fmt.Sprintf("Copied %s to %s", src, dst),
		)
	}
}

// FileRegex checks a file's contents against a regular
// expression. Depending on MatchIsError, a match is either the
// failure condition (e.g., "ERROR" in a build log) or the
// success condition (e.g., a testbench's pass banner).
type FileRegex struct {
	unit.Base
	Filename string
	Pattern  *regexp.Regexp

	// MatchIsError inverts the check: when true, a match is an
	// error; when false, a missing match is an error.
	MatchIsError bool

	// ErrMsg, when set, is printed and attached to a failing
	// result.
	ErrMsg string
}

// NewFileRegex creates a FileRegex check. An empty displayName
// gets a generated one describing the check.
func NewFileRegex(
	ctx *unit.Context,
	filename, pattern, displayName string,
	matchIsError bool,
) (*FileRegex, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf(
			"bad pattern %q: %w", pattern, err,
		)
	}
	if displayName == "" {
		displayName = fmt.Sprintf(
			"File Regex Check: %s - %s - Error on match: %t",
			filename, pattern, matchIsError,
		)
	}
	return &FileRegex{
		Base:         unit.NewBase(ctx, displayName),
		Filename:     filename,
		Pattern:      re,
		MatchIsError: matchIsError,
	}, nil
}

// Invoke runs the single check.
func (t *FileRegex) Invoke() *result.Result {
	return t.Check()
}

// Check reads the file and applies the pattern. A relative
// filename is resolved against the working directory.
func (t *FileRegex) Check() *result.Result {
	ctx := t.Context()
	path := t.Filename
	if !filepath.IsAbs(path) {
		path = filepath.Join(ctx.WorkDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		msg := "File does not exist: " + path
		ctx.PrintError(msg)
		return t.ErrorResult(msg)
	}

	matched := t.Pattern.Match(data)
	if t.MatchIsError && matched {
		msg := fmt.Sprintf(
			"Regex '%s' matches in file %s",
			t.Pattern, t.Filename,
		)
		return t.fail(msg)
	}
	if !t.MatchIsError && !matched {
		msg := fmt.Sprintf(
			"Regex '%s' does not match in file %s",
			t.Pattern, t.Filename,
		)
		return t.fail(msg)
	}

	ctx.Print(fmt.Sprintf(
		"Regex '%s' check passed in file %s",
		t.Pattern, t.Filename,
	))
	return t.SuccessResult("")
}

func (t *FileRegex) fail(msg string) *result.Result {
	ctx := t.Context()
	ctx.PrintError(msg)
	if t.ErrMsg != "" {
		ctx.PrintError(t.ErrMsg)
		msg = t.ErrMsg
	}
	return t.ErrorResult(msg)
}

// ExecsExist checks that a set of executables can be found in
// the PATH, giving a clear message before some later command
// fails trying to run them.
type ExecsExist struct {
	unit.Base
	Executables []string
}

// NewExecsExist creates an ExecsExist check.
func NewExecsExist(
	ctx *unit.Context,
	executables []string,
) *ExecsExist {
	name := "Executables Exist: " +
		strings.Join(executables, ", ")
	return &ExecsExist{
		Base:        unit.NewBase(ctx, name),
		Executables: executables,
	}
}

// Invoke runs the single check.
func (t *ExecsExist) Invoke() *result.Result {
	return t.Check()
}

// Check looks up every executable in the PATH.
func (t *ExecsExist) Check() *result.Result {
	ctx := t.Context()
	var missing []string
	for _, e := range t.Executables {
		if _, err := exec.LookPath(e); err != nil {
			ctx.PrintError(
				"Executable not found in PATH: " + e,
			)
			missing = append(missing, e)
		}
	}
	if len(missing) > 0 {
		return t.ErrorResult(
			"missing executables: " +
				strings.Join(missing, ", "),
		)
	}
	return t.SuccessResult("")
}

// copyFile copies src to dst, replacing dst if present.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
