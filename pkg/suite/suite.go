// Package suite manages the execution of passoff tests against
// a student repository: the build-step and repository-hygiene
// test groups, the shared execution context, and the
// submission workflow (tag, push, and commit-date wait).
package suite

import (
	"fmt"
	"sort"
	"time"

	"digital.vasic.passoff/pkg/checks"
	"digital.vasic.passoff/pkg/gitrepo"
	"digital.vasic.passoff/pkg/logging"
	"digital.vasic.passoff/pkg/monitor"
	"digital.vasic.passoff/pkg/result"
	"digital.vasic.passoff/pkg/unit"
)

// Suite drives one assignment's passoff. It owns the shared
// Context, a "Build Steps" group holding the Makefile-rule
// tests, and a "Repository Tests" group assembled at run time
// from clean steps, the build steps, and the repo hygiene
// checks.
type Suite struct {
	// AssignmentName names the assignment (and its submission
	// tag), e.g. "lab01".
	AssignmentName string

	// Ctx is the shared execution context for every unit.
	Ctx *unit.Context

	// Repo is the student repository under test.
	Repo *gitrepo.Repo

	// BuildSteps holds the Makefile-rule tests in the order
	// they were declared.
	BuildSteps *unit.Group

	// RepoTests is the group actually executed by Run; its
	// contents are assembled at run time.
	RepoTests *unit.Group

	// MaxRepoFiles caps the tracked files under the working
	// directory; zero disables the check.
	MaxRepoFiles int

	// StarterRemote, when set, names the starter-code remote
	// checked for unpulled instructor commits.
	StarterRemote string

	// StarterBranch is the starter remote's branch ("main"
	// when empty).
	StarterBranch string

	// StarterDateLimit bounds which starter commits count as
	// missed updates.
	StarterDateLimit time.Time

	requiredFiles []string
	excludedFiles []string
	requiredExecs []string
	requiredSet   map[string]bool
	excludedSet   map[string]bool

	logger    logging.Logger
	collector *monitor.Collector
}

// New creates a Suite for the given assignment and repository.
// The context's working directory defaults to the repository
// directory; options adjust the rest.
func New(
	assignmentName string,
	repo *gitrepo.Repo,
	opts ...Option,
) *Suite {
	ctx := unit.NewContext(repo.Dir)
	s := &Suite{
		AssignmentName: assignmentName,
		Ctx:            ctx,
		Repo:           repo,
		BuildSteps:     unit.NewGroup(ctx, "Build Steps"),
		RepoTests:      unit.NewGroup(ctx, "Repository Tests"),
		requiredSet:    make(map[string]bool),
		excludedSet:    make(map[string]bool),
		logger:         logging.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.collector != nil {
		s.RepoTests.OnStart = s.emitStart
		s.RepoTests.OnResult = s.emitResult
		s.BuildSteps.OnStart = s.emitStart
		s.BuildSteps.OnResult = s.emitResult
		ctx.OnLine = func(line string) {
			s.emit(monitor.Event{
				Type:    monitor.EventOutputLine,
				Run:     s.AssignmentName,
				Message: line,
			})
		}
	}
	return s
}

// AddRequiredFiles adds files that must be tracked in the
// repository. Duplicates are ignored.
func (s *Suite) AddRequiredFiles(files []string) {
	for _, f := range files {
		if !s.requiredSet[f] {
			s.requiredSet[f] = true
			s.requiredFiles = append(s.requiredFiles, f)
		}
	}
}

// AddExcludedFiles adds files that must NOT be tracked in the
// repository (typically build products). Duplicates are
// ignored.
func (s *Suite) AddExcludedFiles(files []string) {
	for _, f := range files {
		if !s.excludedSet[f] {
			s.excludedSet[f] = true
			s.excludedFiles = append(s.excludedFiles, f)
		}
	}
}

// AddRequiredExecutables adds tools that must be on the PATH
// before the build steps run.
func (s *Suite) AddRequiredExecutables(execs []string) {
	s.requiredExecs = append(s.requiredExecs, execs...)
}

// RequiredFiles returns the required files in declaration
// order.
func (s *Suite) RequiredFiles() []string {
	return s.requiredFiles
}

// ExcludedFiles returns the excluded files in declaration
// order.
func (s *Suite) ExcludedFiles() []string {
	return s.excludedFiles
}

// AddBuildRule declares a Makefile-rule test and adds it to
// the build steps. The rule's expected outputs are build
// products, so they are automatically added to the excluded
// file set. The returned BuildRule accepts subordinate checks
// (e.g., a log pattern check) via Add.
func (s *Suite) AddBuildRule(
	rule string,
	requiredInputs, expectedOutputs []string,
	timeoutSeconds int,
) *checks.BuildRule {
	bt := checks.NewBuildRule(
		s.Ctx, rule, requiredInputs, expectedOutputs,
		timeoutSeconds,
	)
	s.AddExcludedFiles(expectedOutputs)
	s.BuildSteps.Add(bt)
	return bt
}

// AddCleanStep appends a `make clean` step to the repo tests.
func (s *Suite) AddCleanStep() {
	s.RepoTests.Add(checks.NewClean(s.Ctx))
}

// AddBuildSteps splices the declared build steps into the repo
// tests (list concatenation, not nesting).
func (s *Suite) AddBuildSteps() {
	s.RepoTests.Absorb(s.BuildSteps)
}

// AddRepoChecks appends the repository hygiene checks:
// uncommitted files, tracked-file limit, excluded and required
// file tracking, remote origin comparison, and (when a starter
// remote is configured and checkStarter is true) the starter
// update check.
func (s *Suite) AddRepoChecks(checkStarter bool) {
	s.RepoTests.Add(
		checks.NewUncommittedFiles(s.Ctx, s.Repo),
	)
	if s.MaxRepoFiles > 0 {
		s.RepoTests.Add(checks.NewMaxTrackedFiles(
			s.Ctx, s.Repo, s.MaxRepoFiles,
		))
	}
	if len(s.excludedFiles) > 0 {
		s.RepoTests.Add(checks.NewFilesNotTracked(
			s.Ctx, s.Repo, s.excludedFiles,
		))
	}
	if len(s.requiredFiles) > 0 {
		s.RepoTests.Add(checks.NewFilesTracked(
			s.Ctx, s.Repo, s.requiredFiles,
		))
	}
	s.RepoTests.Add(checks.NewRemoteOrigin(s.Ctx, s.Repo))
	if checkStarter && s.StarterRemote != "" {
		s.RepoTests.Add(checks.NewRemoteStarter(
			s.Ctx, s.Repo,
			s.StarterRemote, s.StarterBranch,
			s.StarterDateLimit,
		))
	}
}

// AddAllTests assembles the full passoff sequence: tool
// pre-flight, clean, build steps, post-build clean, repo
// checks.
func (s *Suite) AddAllTests() {
	if len(s.requiredExecs) > 0 {
		s.RepoTests.Add(
			checks.NewExecsExist(s.Ctx, s.requiredExecs),
		)
	}
	s.AddCleanStep()
	s.AddBuildSteps()
	s.AddCleanStep()
	s.AddRepoChecks(true)
}

// Run executes the assembled repo tests and prints the
// categorized summary. The returned result is the group-level
// verdict.
func (s *Suite) Run() *result.Result {
	s.printStartMessage()
	s.emit(monitor.Event{
		Type: monitor.EventRunStarted,
		Run:  s.AssignmentName,
	})
	s.logger.Info(
		"passoff run started",
		logging.F("assignment", s.AssignmentName),
		logging.F("tests", s.RepoTests.Len()),
	)

	res := s.RepoTests.InvokeAll()
	s.RepoTests.Summarize()

	s.logger.Info(
		"passoff run completed",
		logging.F("assignment", s.AssignmentName),
		logging.F("outcome", res.Outcome.String()),
	)
	s.emit(monitor.Event{
		Type:    monitor.EventRunCompleted,
		Run:     s.AssignmentName,
		Outcome: res.Outcome.String(),
	})
	return res
}

// RunBuildRule runs a single named build rule on demand.
func (s *Suite) RunBuildRule(rule string) *result.Result {
	t := s.BuildSteps.Find(rule)
	if t == nil {
		s.Ctx.PrintError(
			fmt.Sprintf("Build rule '%s' not found", rule),
		)
		return nil
	}
	return t.Invoke()
}

// SummarizeRequiredFiles prints the required and excluded file
// sets.
func (s *Suite) SummarizeRequiredFiles() {
	s.Ctx.PrintStatus("Repository Requirements Summary:")
	if len(s.requiredFiles) == 0 {
		s.Ctx.Print(" Required files in repository: None")
	} else {
		s.Ctx.Print(" Required files in repository:")
		for _, f := range s.requiredFiles {
			s.Ctx.Print("  " + f)
		}
	}
	excluded := append([]string(nil), s.excludedFiles...)
	sort.Strings(excluded)
	if len(excluded) == 0 {
		s.Ctx.Print(
			" Files that should NOT be in the repository: None",
		)
	} else {
		s.Ctx.Print(
			" Files that should NOT be in the repository:",
		)
		for _, f := range excluded {
			s.Ctx.Print("  " + f)
		}
	}
}

// SummarizeBuildRules prints each declared build rule with its
// input and output files.
func (s *Suite) SummarizeBuildRules() {
	s.Ctx.PrintStatus("Makefile Build Steps Summary:")
	for _, m := range s.BuildSteps.Members() {
		bt, ok := m.(*checks.BuildRule)
		if !ok {
			continue
		}
		s.Ctx.Print(bt.Summary())
	}
}

// Cleanup removes temporary files created by every test and
// closes the aggregate log.
func (s *Suite) Cleanup() {
	s.RepoTests.Cleanup()
	s.BuildSteps.Cleanup()
	_ = s.Ctx.Close()
}

func (s *Suite) printStartMessage() {
	s.Ctx.PrintStatus(fmt.Sprintf(
		"Running test '%s'", s.AssignmentName,
	))
	s.Ctx.PrintStatus("")
}

func (s *Suite) emit(e monitor.Event) {
	if s.collector != nil {
		s.collector.Emit(e)
	}
}

func (s *Suite) emitStart(u unit.Unit) {
	s.emit(monitor.Event{
		Type: monitor.EventTestStarted,
		Run:  s.AssignmentName,
		Test: u.Name(),
	})
}

func (s *Suite) emitResult(u unit.Unit, r *result.Result) {
	s.emit(monitor.Event{
		Type:    monitor.EventTestCompleted,
		Run:     s.AssignmentName,
		Test:    u.Name(),
		Outcome: r.Outcome.String(),
		Message: r.Msg,
	})
}
