package checks

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"digital.vasic.passoff/pkg/gitrepo"
	"digital.vasic.passoff/pkg/result"
	"digital.vasic.passoff/pkg/unit"
)

// UntrackedFiles reports untracked files in the repository.
// Untracked files are a hygiene deviation, not a correctness
// failure, so they classify as a warning.
type UntrackedFiles struct {
	unit.Base
	Repo *gitrepo.Repo
}

// NewUntrackedFiles creates an UntrackedFiles check.
func NewUntrackedFiles(
	ctx *unit.Context,
	repo *gitrepo.Repo,
) *UntrackedFiles {
	return &UntrackedFiles{
		Base: unit.NewBase(ctx, "Check for untracked GIT files"),
		Repo: repo,
	}
}

// Invoke runs the single check.
func (t *UntrackedFiles) Invoke() *result.Result {
	return t.Check()
}

// Check lists untracked files and classifies the finding.
func (t *UntrackedFiles) Check() *result.Result {
	ctx := t.Context()
	files, err := t.Repo.UntrackedFiles()
	if err != nil {
		ctx.PrintError(err.Error())
		return t.ErrorResult(err.Error())
	}
	if len(files) > 0 {
		ctx.PrintError("Untracked files found in repository:")
		for _, f := range files {
			ctx.PrintError("  " + f)
		}
		return t.WarningResult(
			"untracked files: " + strings.Join(files, ", "),
		)
	}
	ctx.Print("No untracked files found in repository")
	return t.SuccessResult("")
}

// UncommittedFiles reports tracked files with uncommitted
// modifications. A warning, like UntrackedFiles.
type UncommittedFiles struct {
	unit.Base
	Repo *gitrepo.Repo
}

// NewUncommittedFiles creates an UncommittedFiles check.
func NewUncommittedFiles(
	ctx *unit.Context,
	repo *gitrepo.Repo,
) *UncommittedFiles {
	return &UncommittedFiles{
		Base: unit.NewBase(
			ctx, "Check for uncommitted git files",
		),
		Repo: repo,
	}
}

// Invoke runs the single check.
func (t *UncommittedFiles) Invoke() *result.Result {
	return t.Check()
}

// Check lists modified tracked files.
func (t *UncommittedFiles) Check() *result.Result {
	ctx := t.Context()
	files, err := t.Repo.UncommittedTrackedFiles()
	if err != nil {
		ctx.PrintError(err.Error())
		return t.ErrorResult(err.Error())
	}
	if len(files) > 0 {
		ctx.PrintError("Uncommitted files found in repository:")
		for _, f := range files {
			ctx.PrintError("  " + f)
		}
		return t.WarningResult(
			"uncommitted files: " + strings.Join(files, ", "),
		)
	}
	ctx.Print("No uncommitted files found in repository")
	return t.SuccessResult("")
}

// IgnoredFiles reports ignored files under the working
// directory. These are usually build products a clean rule
// should have removed.
type IgnoredFiles struct {
	unit.Base
	Repo *gitrepo.Repo
}

// NewIgnoredFiles creates an IgnoredFiles check.
func NewIgnoredFiles(
	ctx *unit.Context,
	repo *gitrepo.Repo,
) *IgnoredFiles {
	return &IgnoredFiles{
		Base: unit.NewBase(ctx, "Check for ignored GIT files"),
		Repo: repo,
	}
}

// Invoke runs the single check.
func (t *IgnoredFiles) Invoke() *result.Result {
	return t.Check()
}

// Check lists ignored files under the working directory.
func (t *IgnoredFiles) Check() *result.Result {
	ctx := t.Context()
	ctx.Print(
		"Checking for ignored files at " + ctx.WorkDir,
	)
	files, err := t.Repo.IgnoredFiles(ctx.WorkDir)
	if err != nil {
		ctx.PrintError(err.Error())
		return t.ErrorResult(err.Error())
	}
	if len(files) > 0 {
		ctx.PrintError(
			"Ignored files found in repository " +
				"(update your 'clean' rule):",
		)
		for _, f := range files {
			ctx.PrintError("  " + f)
		}
		return t.WarningResult(
			"ignored files: " + strings.Join(files, ", "),
		)
	}
	ctx.Print("No ignored files found in repository")
	return t.SuccessResult("")
}

// FilesTracked checks that a set of files is tracked in the
// repository, relative to the working directory.
type FilesTracked struct {
	unit.Base
	Repo  *gitrepo.Repo
	Files []string
}

// NewFilesTracked creates a FilesTracked check.
func NewFilesTracked(
	ctx *unit.Context,
	repo *gitrepo.Repo,
	files []string,
) *FilesTracked {
	return &FilesTracked{
		Base: unit.NewBase(
			ctx, "Files Tracked: "+strings.Join(files, ", "),
		),
		Repo:  repo,
		Files: files,
	}
}

// Invoke runs the single check.
func (t *FilesTracked) Invoke() *result.Result {
	return t.Check()
}

// Check verifies every required file is tracked.
func (t *FilesTracked) Check() *result.Result {
	ctx := t.Context()
	tracked, err := t.Repo.TrackedFiles(ctx.WorkDir)
	if err != nil {
		ctx.PrintError(err.Error())
		return t.ErrorResult(err.Error())
	}
	trackedNames := make(map[string]bool, len(tracked))
	for _, f := range tracked {
		trackedNames[filepath.Base(f)] = true
	}

	var missing []string
	for _, f := range t.Files {
		if !trackedNames[filepath.Base(f)] {
			ctx.PrintError(
				"*** File should be tracked in the repository: " + f,
			)
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return t.ErrorResult(
			"untracked required files: " +
				strings.Join(missing, ", "),
		)
	}
	return t.SuccessResult("")
}

// FilesNotTracked checks that a set of files is NOT tracked in
// the repository. Typically used for build products that must
// never be committed.
type FilesNotTracked struct {
	unit.Base
	Repo  *gitrepo.Repo
	Files []string
}

// NewFilesNotTracked creates a FilesNotTracked check.
func NewFilesNotTracked(
	ctx *unit.Context,
	repo *gitrepo.Repo,
	files []string,
) *FilesNotTracked {
	return &FilesNotTracked{
		Base: unit.NewBase(
			ctx,
			"Files Not Tracked: "+strings.Join(files, ", "),
		),
		Repo:  repo,
		Files: files,
	}
}

// Invoke runs the single check.
func (t *FilesNotTracked) Invoke() *result.Result {
	return t.Check()
}

// Check verifies none of the files is tracked.
func (t *FilesNotTracked) Check() *result.Result {
	ctx := t.Context()
	tracked, err := t.Repo.TrackedFiles(ctx.WorkDir)
	if err != nil {
		ctx.PrintError(err.Error())
		return t.ErrorResult(err.Error())
	}
	trackedNames := make(map[string]bool, len(tracked))
	for _, f := range tracked {
		trackedNames[filepath.Base(f)] = true
	}

	var offending []string
	for _, f := range t.Files {
		if trackedNames[filepath.Base(f)] {
			ctx.PrintError(
				"File should NOT be tracked in the repository: " + f,
			)
			offending = append(offending, f)
		}
	}
	if len(offending) > 0 {
		return t.ErrorResult(
			"tracked build products: " +
				strings.Join(offending, ", "),
		)
	}
	return t.SuccessResult("")
}

// MaxTrackedFiles warns when the repository tracks more than a
// given number of files under the working directory.
type MaxTrackedFiles struct {
	unit.Base
	Repo *gitrepo.Repo
	Max  int
}

// NewMaxTrackedFiles creates a MaxTrackedFiles check.
func NewMaxTrackedFiles(
	ctx *unit.Context,
	repo *gitrepo.Repo,
	max int,
) *MaxTrackedFiles {
	return &MaxTrackedFiles{
		Base: unit.NewBase(ctx, fmt.Sprintf(
			"Check for max tracked repo files:%d", max,
		)),
		Repo: repo,
		Max:  max,
	}
}

// Invoke runs the single check.
func (t *MaxTrackedFiles) Invoke() *result.Result {
	return t.Check()
}

// Check counts tracked files against the limit.
func (t *MaxTrackedFiles) Check() *result.Result {
	ctx := t.Context()
	tracked, err := t.Repo.TrackedFiles(ctx.WorkDir)
	if err != nil {
		ctx.PrintError(err.Error())
		return t.ErrorResult(err.Error())
	}
	n := len(tracked)
	ctx.Print(fmt.Sprintf(
		"%d Tracked git files in %s (max allowed: %d)",
		n, ctx.WorkDir, t.Max,
	))
	if n > t.Max {
		ctx.PrintError("  Too many tracked files")
		return t.WarningResult(fmt.Sprintf(
			"%d tracked files exceeds limit of %d", n, t.Max,
		))
	}
	return t.SuccessResult("")
}

// RemoteOrigin compares the local repository against its
// origin remote. Unpushed or unpulled commits are warnings;
// failure to reach or query the remote is an error.
type RemoteOrigin struct {
	unit.Base
	Repo *gitrepo.Repo
}

// NewRemoteOrigin creates a RemoteOrigin check.
func NewRemoteOrigin(
	ctx *unit.Context,
	repo *gitrepo.Repo,
) *RemoteOrigin {
	return &RemoteOrigin{
		Base: unit.NewBase(
			ctx, "Compare local repository to remote",
		),
		Repo: repo,
	}
}

// Invoke runs the single check.
func (t *RemoteOrigin) Invoke() *result.Result {
	return t.Check()
}

// Check looks for unpushed and unpulled commits.
func (t *RemoteOrigin) Check() *result.Result {
	ctx := t.Context()

	unpushed, err := t.Repo.UnpushedCommits("", "")
	if err != nil {
		msg := "Error checking remote origin: " + err.Error()
		ctx.PrintError(msg)
		return t.ErrorResult(msg)
	}
	if len(unpushed) > 0 {
		ctx.PrintError("Local branch has unpushed commits:")
		for _, c := range unpushed {
			ctx.PrintError("  - " + c.String())
		}
		return t.WarningResult("unpushed commits")
	}

	unpulled, err := t.Repo.UnpulledCommits("", "", time.Time{})
	if err != nil {
		msg := "Error checking remote origin: " + err.Error()
		ctx.PrintError(msg)
		return t.ErrorResult(msg)
	}
	if len(unpulled) > 0 {
		ctx.PrintError("Local branch has unpulled commits:")
		for _, c := range unpulled {
			ctx.PrintError("  - " + c.String())
		}
		return t.WarningResult("unpulled commits")
	}

	return t.SuccessResult("")
}

// RemoteStarter checks whether the starter-code remote has
// commits the student has not pulled. Only commits at or
// before DateLimit count; later instructor pushes are not the
// student's problem yet.
type RemoteStarter struct {
	unit.Base
	Repo      *gitrepo.Repo
	Remote    string
	Branch    string
	DateLimit time.Time
}

// NewRemoteStarter creates a RemoteStarter check. Branch
// defaults to "main".
func NewRemoteStarter(
	ctx *unit.Context,
	repo *gitrepo.Repo,
	remote, branch string,
	dateLimit time.Time,
) *RemoteStarter {
	if branch == "" {
		branch = "main"
	}
	return &RemoteStarter{
		Base: unit.NewBase(ctx, fmt.Sprintf(
			"Check for updates from remote: %s/%s",
			remote, branch,
		)),
		Repo:      repo,
		Remote:    remote,
		Branch:    branch,
		DateLimit: dateLimit,
	}
}

// Invoke runs the single check.
func (t *RemoteStarter) Invoke() *result.Result {
	return t.Check()
}

// Check looks for unpulled starter commits.
func (t *RemoteStarter) Check() *result.Result {
	ctx := t.Context()
	unpulled, err := t.Repo.UnpulledCommits(
		t.Remote, t.Branch, t.DateLimit,
	)
	if err != nil {
		msg := "Error: " + err.Error()
		ctx.PrintError(msg)
		return t.ErrorResult(msg)
	}
	if len(unpulled) > 0 {
		ctx.PrintError("Remote Branch has unpulled commits:")
		for _, c := range unpulled {
			ctx.PrintError("  - " + c.String())
		}
		return t.WarningResult("unpulled starter commits")
	}
	return t.SuccessResult("")
}

// TagExists checks whether a tag exists in the repository. A
// missing tag is a warning: the submission may simply not have
// happened yet.
type TagExists struct {
	unit.Base
	Repo *gitrepo.Repo
	Tag  string
}

// NewTagExists creates a TagExists check.
func NewTagExists(
	ctx *unit.Context,
	repo *gitrepo.Repo,
	tag string,
) *TagExists {
	return &TagExists{
		Base: unit.NewBase(
			ctx, fmt.Sprintf("Check for tag '%s'", tag),
		),
		Repo: repo,
		Tag:  tag,
	}
}

// Invoke runs the single check.
func (t *TagExists) Invoke() *result.Result {
	return t.Check()
}

// Check resolves the tag.
func (t *TagExists) Check() *result.Result {
	ctx := t.Context()
	commit, err := t.Repo.TagCommit(t.Tag)
	if err != nil {
		ctx.PrintError(err.Error())
		return t.ErrorResult(err.Error())
	}
	if commit == nil {
		msg := fmt.Sprintf(
			"Tag %s not found in repository", t.Tag,
		)
		ctx.PrintError(msg)
		return t.WarningResult(msg)
	}
	ctx.Print(fmt.Sprintf(
		"Tag '%s' found in repository (commit date: %s)",
		t.Tag, commit.Date.Format("2006-01-02 15:04:05"),
	))
	return t.SuccessResult("")
}
