// Package assignment loads passoff assignment definitions from
// YAML files and assembles them into runnable suites. A
// definition names the assignment, the repository requirements,
// and the Makefile build rules with their expected inputs,
// outputs, and log checks.
package assignment

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"digital.vasic.passoff/pkg/checks"
	"digital.vasic.passoff/pkg/gitrepo"
	"digital.vasic.passoff/pkg/suite"
)

// LogCheck is a pattern check run against a build rule's log
// output file.
type LogCheck struct {
	// Name is the check's display name.
	Name string `yaml:"name"`

	// Pattern is the regular expression searched for.
	Pattern string `yaml:"pattern"`

	// MatchIsError inverts the check: a match produces an
	// Error instead of a match being required.
	MatchIsError bool `yaml:"match_is_error"`

	// ErrorMessage overrides the generated failure message.
	ErrorMessage string `yaml:"error_message"`
}

// BuildRule is one Makefile rule tested during the passoff.
type BuildRule struct {
	// Rule is the Makefile target.
	Rule string `yaml:"rule"`

	// Inputs are files that must exist before the rule runs.
	Inputs []string `yaml:"inputs"`

	// Outputs are files the rule is expected to produce.
	Outputs []string `yaml:"outputs"`

	// TimeoutSeconds bounds the rule's run time; zero means
	// the default build timeout.
	TimeoutSeconds int `yaml:"timeout_seconds"`

	// LogChecks run against the rule's captured output.
	LogChecks []LogCheck `yaml:"log_checks"`
}

// Starter names the starter-code remote checked for missed
// instructor updates.
type Starter struct {
	Remote string `yaml:"remote"`
	Branch string `yaml:"branch"`

	// DateLimit bounds which starter commits count; RFC 3339.
	DateLimit string `yaml:"date_limit"`
}

// Definition is one assignment's passoff configuration.
type Definition struct {
	// Name is the assignment identifier, also used as the
	// submission tag.
	Name string `yaml:"name"`

	// MaxRepoFiles caps tracked repository files; zero
	// disables the check.
	MaxRepoFiles int `yaml:"max_repo_files"`

	// RequiredFiles must be tracked in the repository.
	RequiredFiles []string `yaml:"required_files"`

	// RequiredExecutables must be on the PATH before any build
	// rule runs (simulators, synthesis tools).
	RequiredExecutables []string `yaml:"required_executables"`

	// BuildRules are tested in declaration order.
	BuildRules []BuildRule `yaml:"build_rules"`

	// Starter configures the starter-remote check; optional.
	Starter *Starter `yaml:"starter"`
}

// Load reads and validates one assignment definition.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf(
			"reading assignment file: %w", err,
		)
	}
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf(
			"parsing assignment file %s: %w", path, err,
		)
	}
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &def, nil
}

// LoadDir loads every .yaml/.yml definition in a directory,
// sorted by assignment name.
func LoadDir(dir string) ([]*Definition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf(
			"reading assignment dir: %w", err,
		)
	}
	var defs []*Definition
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		def, err := Load(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool {
		return defs[i].Name < defs[j].Name
	})
	return defs, nil
}

// DateLimitTime parses the starter date limit, or returns the
// zero time when no starter or limit is configured.
func (d *Definition) DateLimitTime() (time.Time, error) {
	if d.Starter == nil || d.Starter.DateLimit == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, d.Starter.DateLimit)
	if err != nil {
		return time.Time{}, fmt.Errorf(
			"parsing starter date_limit: %w", err,
		)
	}
	return t, nil
}

// BuildSuite assembles a runnable suite for this assignment
// against the given repository.
func (d *Definition) BuildSuite(
	repo *gitrepo.Repo, opts ...suite.Option,
) (*suite.Suite, error) {
	dateLimit, err := d.DateLimitTime()
	if err != nil {
		return nil, err
	}

	all := []suite.Option{
		suite.WithMaxRepoFiles(d.MaxRepoFiles),
	}
	if d.Starter != nil {
		all = append(all, suite.WithStarterRemote(
			d.Starter.Remote, d.Starter.Branch, dateLimit,
		))
	}
	all = append(all, opts...)

	s := suite.New(d.Name, repo, all...)
	s.AddRequiredFiles(d.RequiredFiles)
	s.AddRequiredExecutables(d.RequiredExecutables)

	for _, br := range d.BuildRules {
		timeout := br.TimeoutSeconds
		if timeout == 0 {
			timeout = checks.DefaultBuildTimeoutSeconds
		}
		bt := s.AddBuildRule(
			br.Rule, br.Inputs, br.Outputs, timeout,
		)
		for _, lc := range br.LogChecks {
			logFile := filepath.Join(
				s.Ctx.LogDir,
				fmt.Sprintf("make_%s.log", br.Rule),
			)
			fr, err := checks.NewFileRegex(
				s.Ctx, logFile, lc.Pattern,
				lc.Name, lc.MatchIsError,
			)
			if err != nil {
				return nil, fmt.Errorf(
					"rule %s log check: %w", br.Rule, err,
				)
			}
			if lc.ErrorMessage != "" {
				fr.ErrMsg = lc.ErrorMessage
			}
			bt.Add(fr)
		}
	}
	return s, nil
}
