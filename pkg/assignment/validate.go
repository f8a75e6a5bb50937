package assignment

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// tagNamePattern restricts assignment names to things that are
// safe to use as git tag names and file name stems.
var tagNamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// ValidationError aggregates every problem found in a
// definition so an author can fix them all in one pass.
type ValidationError struct {
	Problems []string
}

// Error renders all accumulated problems.
func (e *ValidationError) Error() string {
	return fmt.Sprintf(
		"invalid assignment definition:\n  %s",
		strings.Join(e.Problems, "\n  "),
	)
}

func (e *ValidationError) add(format string, args ...any) {
	e.Problems = append(
		e.Problems, fmt.Sprintf(format, args...),
	)
}

// Validate checks the definition for structural problems. It
// returns a *ValidationError listing every problem found, or
// nil when the definition is usable.
func (d *Definition) Validate() error {
	ve := &ValidationError{}

	if d.Name == "" {
		ve.add("name is required")
	} else if !tagNamePattern.MatchString(d.Name) {
		ve.add(
			"name %q contains characters unusable in a tag",
			d.Name,
		)
	}
	if d.MaxRepoFiles < 0 {
		ve.add("max_repo_files must not be negative")
	}

	seen := make(map[string]bool)
	for i, br := range d.BuildRules {
		where := fmt.Sprintf("build_rules[%d]", i)
		if br.Rule == "" {
			ve.add("%s: rule is required", where)
		} else {
			if seen[br.Rule] {
				ve.add(
					"%s: duplicate rule %q", where, br.Rule,
				)
			}
			seen[br.Rule] = true
		}
		if br.TimeoutSeconds < 0 {
			ve.add(
				"%s: timeout_seconds must not be negative",
				where,
			)
		}
		for j, lc := range br.LogChecks {
			if lc.Pattern == "" {
				ve.add(
					"%s.log_checks[%d]: pattern is required",
					where, j,
				)
				continue
			}
			if _, err := regexp.Compile(lc.Pattern); err != nil {
				ve.add(
					"%s.log_checks[%d]: bad pattern: %v",
					where, j, err,
				)
			}
		}
	}

	if d.Starter != nil {
		if d.Starter.Remote == "" {
			ve.add("starter: remote is required")
		}
		if d.Starter.DateLimit != "" {
			_, err := time.Parse(
				time.RFC3339, d.Starter.DateLimit,
			)
			if err != nil {
				ve.add(
					"starter: date_limit is not RFC 3339: %v",
					err,
				)
			}
		}
	}

	if len(ve.Problems) > 0 {
		return ve
	}
	return nil
}
