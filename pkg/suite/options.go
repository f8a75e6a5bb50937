package suite

import (
	"time"

	"digital.vasic.passoff/pkg/logging"
	"digital.vasic.passoff/pkg/monitor"
)

// Option configures a Suite at construction time.
type Option func(*Suite)

// WithWorkDir overrides the working directory commands run in.
// The default is the repository directory.
func WithWorkDir(dir string) Option {
	return func(s *Suite) {
		s.Ctx.WorkDir = dir
	}
}

// WithLogDir sets the directory for the aggregate and
// per-command log files.
func WithLogDir(dir string) Option {
	return func(s *Suite) {
		s.Ctx.LogDir = dir
	}
}

// WithMaxRepoFiles caps the number of tracked repository files.
func WithMaxRepoFiles(n int) Option {
	return func(s *Suite) {
		s.MaxRepoFiles = n
	}
}

// WithStarterRemote configures the starter-code remote checked
// for missed instructor updates. An empty branch means "main".
func WithStarterRemote(
	remote, branch string, dateLimit time.Time,
) Option {
	return func(s *Suite) {
		s.StarterRemote = remote
		s.StarterBranch = branch
		s.StarterDateLimit = dateLimit
	}
}

// WithLogger sets the structured logger for run lifecycle
// events.
func WithLogger(logger logging.Logger) Option {
	return func(s *Suite) {
		s.logger = logger
	}
}

// WithCollector attaches a monitor collector; test outcomes
// and run lifecycle events are emitted into it.
func WithCollector(c *monitor.Collector) Option {
	return func(s *Suite) {
		s.collector = c
	}
}

// WithNoColor disables ANSI colors on console output.
func WithNoColor() Option {
	return func(s *Suite) {
		s.Ctx.DisableColors()
	}
}

// WithVerbose enables verbose console output.
func WithVerbose() Option {
	return func(s *Suite) {
		s.Ctx.Verbose = true
	}
}

// WithQuiet suppresses command output echo on the console.
func WithQuiet() Option {
	return func(s *Suite) {
		s.Ctx.Echo = false
	}
}
