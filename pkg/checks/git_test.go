package checks_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digital.vasic.passoff/pkg/checks"
	"digital.vasic.passoff/pkg/gitrepo"
	"digital.vasic.passoff/pkg/result"
	"digital.vasic.passoff/pkg/unit"
)

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=Test",
		"GIT_AUTHOR_EMAIL=test@example.com",
		"GIT_COMMITTER_NAME=Test",
		"GIT_COMMITTER_EMAIL=test@example.com",
	)
	out, err := cmd.CombinedOutput()
	require.NoError(
		t, err, "git %v failed: %s", args, string(out),
	)
}

func commitFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(
		t, os.WriteFile(path, []byte(content), 0o644),
	)
	runGit(t, dir, "add", name)
	runGit(t, dir, "commit", "-m", "add "+name)
}

// gitContext creates a repository with one tracked file and a
// context rooted in it.
func gitContext(t *testing.T) (*unit.Context, *gitrepo.Repo) {
	t.Helper()
	dir := t.TempDir()
	runGit(t, dir, "init", "-b", "main")
	commitFile(t, dir, "README.md", "# test\n")

	repo, err := gitrepo.Open(dir)
	require.NoError(t, err)

	ctx := unit.NewContext(dir)
	ctx.Echo = false
	ctx.DisableColors()
	return ctx, repo
}

// withRemote attaches a local bare origin with main pushed.
func withRemote(t *testing.T, ctx *unit.Context) {
	t.Helper()
	bare := t.TempDir()
	runGit(t, bare, "init", "--bare", "-b", "main")
	runGit(t, ctx.WorkDir, "remote", "add", "origin", bare)
	runGit(t, ctx.WorkDir, "push", "-u", "origin", "main")
}

func TestUntrackedFilesCheck(t *testing.T) {
	ctx, repo := gitContext(t)
	c := checks.NewUntrackedFiles(ctx, repo)

	r := c.Invoke()
	assert.Equal(t, result.Success, r.Outcome)

	require.NoError(t, os.WriteFile(
		filepath.Join(ctx.WorkDir, "stray.txt"),
		[]byte("x"), 0o644,
	))
	r = c.Invoke()
	assert.Equal(t, result.Warning, r.Outcome)
	assert.Contains(t, r.Msg, "stray.txt")
}

func TestUncommittedFilesCheck(t *testing.T) {
	ctx, repo := gitContext(t)
	c := checks.NewUncommittedFiles(ctx, repo)

	r := c.Invoke()
	assert.Equal(t, result.Success, r.Outcome)

	require.NoError(t, os.WriteFile(
		filepath.Join(ctx.WorkDir, "README.md"),
		[]byte("# edited\n"), 0o644,
	))
	r = c.Invoke()
	assert.Equal(t, result.Warning, r.Outcome)
	assert.Contains(t, r.Msg, "README.md")
}

func TestIgnoredFilesCheck(t *testing.T) {
	ctx, repo := gitContext(t)
	commitFile(t, ctx.WorkDir, ".gitignore", "*.log\n")
	require.NoError(t, os.WriteFile(
		filepath.Join(ctx.WorkDir, "build.log"),
		[]byte("x"), 0o644,
	))

	c := checks.NewIgnoredFiles(ctx, repo)
	r := c.Invoke()
	assert.Equal(t, result.Warning, r.Outcome)
	assert.Contains(t, r.Msg, "build.log")
}

func TestFilesTrackedCheck(t *testing.T) {
	ctx, repo := gitContext(t)
	commitFile(t, ctx.WorkDir, "top.sv", "module top;\n")

	t.Run("all tracked", func(t *testing.T) {
		c := checks.NewFilesTracked(
			ctx, repo, []string{"README.md", "top.sv"},
		)
		r := c.Invoke()
		assert.Equal(t, result.Success, r.Outcome)
	})

	t.Run("missing required file is an error", func(t *testing.T) {
		c := checks.NewFilesTracked(
			ctx, repo, []string{"top.sv", "missing.sv"},
		)
		r := c.Invoke()
		assert.Equal(t, result.Error, r.Outcome)
		assert.Contains(t, r.Msg, "missing.sv")
	})
}

func TestFilesNotTrackedCheck(t *testing.T) {
	ctx, repo := gitContext(t)
	commitFile(t, ctx.WorkDir, "top.bit", "bits\n")

	t.Run("clean", func(t *testing.T) {
		c := checks.NewFilesNotTracked(
			ctx, repo, []string{"other.bit"},
		)
		r := c.Invoke()
		assert.Equal(t, result.Success, r.Outcome)
	})

	t.Run("tracked build product is an error", func(t *testing.T) {
		c := checks.NewFilesNotTracked(
			ctx, repo, []string{"top.bit"},
		)
		r := c.Invoke()
		assert.Equal(t, result.Error, r.Outcome)
		assert.Contains(t, r.Msg, "top.bit")
	})
}

func TestMaxTrackedFilesCheck(t *testing.T) {
	ctx, repo := gitContext(t)
	commitFile(t, ctx.WorkDir, "a.sv", "a\n")
	commitFile(t, ctx.WorkDir, "b.sv", "b\n")

	under := checks.NewMaxTrackedFiles(ctx, repo, 10)
	assert.Equal(
		t, result.Success, under.Invoke().Outcome,
	)

	over := checks.NewMaxTrackedFiles(ctx, repo, 2)
	r := over.Invoke()
	assert.Equal(t, result.Warning, r.Outcome)
	assert.Contains(t, r.Msg, "exceeds limit")
}

func TestRemoteOriginCheck(t *testing.T) {
	ctx, repo := gitContext(t)
	withRemote(t, ctx)

	c := checks.NewRemoteOrigin(ctx, repo)
	r := c.Invoke()
	assert.Equal(t, result.Success, r.Outcome)

	commitFile(t, ctx.WorkDir, "local.sv", "x\n")
	r = c.Invoke()
	assert.Equal(t, result.Warning, r.Outcome)
	assert.Contains(t, r.Msg, "unpushed")
}

func TestRemoteOriginCheckNoRemoteIsError(t *testing.T) {
	ctx, repo := gitContext(t)
	c := checks.NewRemoteOrigin(ctx, repo)
	r := c.Invoke()
	assert.Equal(t, result.Error, r.Outcome)
}

func TestRemoteStarterCheck(t *testing.T) {
	ctx, repo := gitContext(t)
	withRemote(t, ctx)
	runGit(t, ctx.WorkDir, "remote", "rename", "origin", "startercode")

	c := checks.NewRemoteStarter(
		ctx, repo, "startercode", "", time.Time{},
	)
	assert.Equal(
		t, "Check for updates from remote: startercode/main",
		c.Name(),
	)
	r := c.Invoke()
	assert.Equal(t, result.Success, r.Outcome)
}

func TestTagExistsCheck(t *testing.T) {
	ctx, repo := gitContext(t)

	c := checks.NewTagExists(ctx, repo, "lab01")
	r := c.Invoke()
	assert.Equal(t, result.Warning, r.Outcome)

	require.NoError(t, repo.CreateTag("lab01"))
	r = c.Invoke()
	assert.Equal(t, result.Success, r.Outcome)
}
