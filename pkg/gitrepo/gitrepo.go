// Package gitrepo supplies version-control queries for the
// passoff harness as already-resolved data structures. It
// treats git as an opaque external tool: every query shells
// out to the git CLI and parses its plain-text output. The
// severity classification of what the queries find lives in
// pkg/checks, not here.
package gitrepo

import (
	"bytes"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Repo is a handle to a local git repository. Dir may be any
// directory inside the working tree.
type Repo struct {
	// Dir is the directory queries run in.
	Dir string
}

// Commit is one resolved commit: short hash, subject line, and
// commit date.
type Commit struct {
	Hash    string
	Subject string
	Date    time.Time
}

// String renders a commit as "<hash>: <subject>".
func (c Commit) String() string {
	return fmt.Sprintf("%s: %s", c.Hash, c.Subject)
}

// Open verifies that dir is inside a git working tree and
// returns a handle to it.
func Open(dir string) (*Repo, error) {
	r := &Repo{Dir: dir}
	if _, err := r.TopLevel(); err != nil {
		return nil, fmt.Errorf(
			"%s is not inside a git repository: %w", dir, err,
		)
	}
	return r, nil
}

// git runs a git subcommand in the repository directory and
// returns its trimmed stdout.
func (r *Repo) git(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return "", fmt.Errorf(
			"git %s: %s", strings.Join(args, " "), detail,
		)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// TopLevel returns the absolute path of the working tree root.
func (r *Repo) TopLevel() (string, error) {
	return r.git("rev-parse", "--show-toplevel")
}

// Fetch fetches updates from the named remote ("origin" when
// empty).
func (r *Repo) Fetch(remote string) error {
	if remote == "" {
		remote = "origin"
	}
	if _, err := r.git("fetch", remote); err != nil {
		return fmt.Errorf(
			"fetching updates from remote %s: %w", remote, err,
		)
	}
	return nil
}

// FetchTags force-fetches all tags from the default remote.
func (r *Repo) FetchTags() error {
	_, err := r.git("fetch", "--tags", "--force")
	return err
}

// logRange lists the commits in a git revision range, newest
// first.
func (r *Repo) logRange(rng string) ([]Commit, error) {
	out, err := r.git(
		"log", "--format=%h%x09%ct%x09%s", rng,
	)
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}

	var commits []Commit
	for _, line := range strings.Split(out, "\n") {
		parts := strings.SplitN(line, "\t", 3)
		if len(parts) != 3 {
			continue
		}
		epoch, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			continue
		}
		commits = append(commits, Commit{
			Hash:    parts[0],
			Subject: parts[2],
			Date:    time.Unix(epoch, 0),
		})
	}
	return commits, nil
}

// UnpushedCommits fetches the remote and returns local commits
// not yet on remote/branch ("origin"/"main" when empty).
func (r *Repo) UnpushedCommits(
	remote, branch string,
) ([]Commit, error) {
	if remote == "" {
		remote = "origin"
	}
	if branch == "" {
		branch = "main"
	}
	if err := r.Fetch(remote); err != nil {
		return nil, err
	}
	return r.logRange(
		fmt.Sprintf("%s/%s..HEAD", remote, branch),
	)
}

// UnpulledCommits fetches the remote and returns commits on
// remote/branch not yet in the local HEAD. When dateLimit is
// non-zero, only commits at or before that time are returned;
// later upstream commits are not the student's concern yet.
func (r *Repo) UnpulledCommits(
	remote, branch string,
	dateLimit time.Time,
) ([]Commit, error) {
	if remote == "" {
		remote = "origin"
	}
	if branch == "" {
		branch = "main"
	}
	if err := r.Fetch(remote); err != nil {
		return nil, err
	}
	commits, err := r.logRange(
		fmt.Sprintf("HEAD..%s/%s", remote, branch),
	)
	if err != nil {
		return nil, err
	}
	if dateLimit.IsZero() {
		return commits, nil
	}
	var filtered []Commit
	for _, c := range commits {
		if !c.Date.After(dateLimit) {
			filtered = append(filtered, c)
		}
	}
	return filtered, nil
}

// UncommittedTrackedFiles returns tracked files with
// uncommitted modifications.
func (r *Repo) UncommittedTrackedFiles() ([]string, error) {
	out, err := r.git("diff", "--name-only")
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// UntrackedFiles returns files present in the working tree but
// not tracked and not ignored.
func (r *Repo) UntrackedFiles() ([]string, error) {
	out, err := r.git(
		"ls-files", "--others", "--exclude-standard",
	)
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// IgnoredFiles returns ignored files under the given path,
// typically build products a clean rule should have removed.
func (r *Repo) IgnoredFiles(path string) ([]string, error) {
	out, err := r.git(
		"ls-files", "--others", "--ignored",
		"--exclude-standard", "--", path,
	)
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// TrackedFiles returns the tracked files under the given path,
// relative to the repository root.
func (r *Repo) TrackedFiles(path string) ([]string, error) {
	args := []string{"ls-files"}
	if path != "" {
		args = append(args, "--", path)
	}
	out, err := r.git(args...)
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// TagCommit resolves a tag to its commit. It returns nil (and
// no error) when the tag does not exist.
func (r *Repo) TagCommit(tag string) (*Commit, error) {
	out, err := r.git("tag", "--list", tag)
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	info, err := r.git(
		"log", "-1", "--format=%h%x09%ct%x09%s", tag,
	)
	if err != nil {
		return nil, err
	}
	parts := strings.SplitN(info, "\t", 3)
	if len(parts) != 3 {
		return nil, fmt.Errorf(
			"unexpected log output for tag %s: %q", tag, info,
		)
	}
	epoch, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf(
			"parse commit date for tag %s: %w", tag, err,
		)
	}
	return &Commit{
		Hash:    parts[0],
		Subject: parts[2],
		Date:    time.Unix(epoch, 0),
	}, nil
}

// Head returns the commit at HEAD.
func (r *Repo) Head() (*Commit, error) {
	info, err := r.git(
		"log", "-1", "--format=%h%x09%ct%x09%s", "HEAD",
	)
	if err != nil {
		return nil, err
	}
	parts := strings.SplitN(info, "\t", 3)
	if len(parts) != 3 {
		return nil, fmt.Errorf(
			"unexpected log output for HEAD: %q", info,
		)
	}
	epoch, _ := strconv.ParseInt(parts[1], 10, 64)
	return &Commit{
		Hash:    parts[0],
		Subject: parts[2],
		Date:    time.Unix(epoch, 0),
	}, nil
}

// CommitFileContents reads a file's contents as of the given
// ref (a tag, branch, or commit). It returns the empty string
// (and no error) when the file does not exist at that ref.
func (r *Repo) CommitFileContents(
	ref, path string,
) (string, error) {
	out, err := r.git("show", ref+":"+path)
	if err != nil {
		// A missing path at the ref is not an error for
		// callers; they look for optional files.
		if strings.Contains(err.Error(), "does not exist") ||
			strings.Contains(err.Error(), "exists on disk") ||
			strings.Contains(err.Error(), "invalid object name") {
			return "", nil
		}
		return "", err
	}
	return out, nil
}

// CreateTag creates a lightweight tag at HEAD.
func (r *Repo) CreateTag(tag string) error {
	_, err := r.git("tag", tag)
	return err
}

// DeleteTag removes a local tag.
func (r *Repo) DeleteTag(tag string) error {
	_, err := r.git("tag", "--delete", tag)
	return err
}

// PushTag pushes a tag to the named remote ("origin" when
// empty), optionally forcing an update of a moved tag.
func (r *Repo) PushTag(remote, tag string, force bool) error {
	if remote == "" {
		remote = "origin"
	}
	args := []string{"push", remote, tag}
	if force {
		args = append(args, "--force")
	}
	_, err := r.git(args...)
	return err
}

// splitLines splits command output into non-empty lines.
func splitLines(out string) []string {
	if out == "" {
		return nil
	}
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
