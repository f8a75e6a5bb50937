package suite

import (
	"fmt"
	"strings"
	"time"
)

// Submission timing. The grading server stamps a .commitdate
// file onto the submission tag; AwaitCommitDate polls for it.
const (
	commitDatePollInterval = 5 * time.Second
	commitDateWaitLimit    = 3 * time.Minute
)

// commitDateFile is the path the grading server writes the
// submission timestamp to, relative to the repository root.
const commitDateFile = ".commitdate"

// SubmissionTag returns the tag name used for this
// assignment's submission.
func (s *Suite) SubmissionTag() string {
	return s.AssignmentName
}

// SubmissionStatus prints whether the submission tag exists,
// which commit it points at, and whether that commit is the
// current HEAD.
func (s *Suite) SubmissionStatus() error {
	tag := s.SubmissionTag()
	if err := s.Repo.FetchTags(); err != nil {
		return fmt.Errorf("fetching tags: %w", err)
	}

	tagged, err := s.Repo.TagCommit(tag)
	if err != nil {
		return err
	}
	if tagged == nil {
		s.Ctx.PrintStatus(fmt.Sprintf(
			"No submission found for '%s'", tag,
		))
		return nil
	}

	s.Ctx.PrintStatus(fmt.Sprintf(
		"Submission '%s' points at commit %s", tag, tagged,
	))

	date, err := s.Repo.CommitFileContents(tag, commitDateFile)
	if err != nil {
		return err
	}
	if date != "" {
		s.Ctx.PrintStatus(fmt.Sprintf(
			" Recorded submission time: %s",
			strings.TrimSpace(date),
		))
	} else {
		s.Ctx.PrintWarning(
			" Submission not yet recorded by the grading server",
		)
	}

	head, err := s.Repo.Head()
	if err != nil {
		return err
	}
	if head.Hash != tagged.Hash {
		s.Ctx.PrintWarning(fmt.Sprintf(
			" Current HEAD %s differs from the submission",
			head,
		))
	}
	return nil
}

// Submit tags HEAD with the submission tag and pushes it. When
// the tag already exists on a different commit, confirm is
// consulted before moving it; a nil confirm together with
// force=false refuses to move an existing tag.
func (s *Suite) Submit(
	force bool,
	confirm func(prompt string) bool,
) error {
	tag := s.SubmissionTag()
	if err := s.Repo.FetchTags(); err != nil {
		return fmt.Errorf("fetching tags: %w", err)
	}

	head, err := s.Repo.Head()
	if err != nil {
		return err
	}

	tagged, err := s.Repo.TagCommit(tag)
	if err != nil {
		return err
	}
	if tagged != nil {
		if tagged.Hash == head.Hash {
			s.Ctx.PrintStatus(fmt.Sprintf(
				"'%s' is already submitted at %s", tag, head,
			))
			return nil
		}
		if !force {
			prompt := fmt.Sprintf(
				"Move existing submission '%s' from %s to %s?",
				tag, tagged, head,
			)
			if confirm == nil || !confirm(prompt) {
				return fmt.Errorf(
					"submission '%s' already exists at %s",
					tag, tagged,
				)
			}
		}
		if err := s.Repo.DeleteTag(tag); err != nil {
			return err
		}
	}

	if err := s.Repo.CreateTag(tag); err != nil {
		return err
	}
	if err := s.Repo.PushTag("origin", tag, true); err != nil {
		return err
	}
	s.Ctx.PrintStatus(fmt.Sprintf(
		"Submitted '%s' at %s", tag, head,
	))
	return nil
}

// AwaitCommitDate polls the submission tag until the grading
// server records the submission time, then prints it. It gives
// up after a few minutes.
func (s *Suite) AwaitCommitDate() error {
	tag := s.SubmissionTag()
	s.Ctx.PrintStatus(
		"Waiting for the submission to be recorded...",
	)

	deadline := time.Now().Add(commitDateWaitLimit)
	for {
		if err := s.Repo.FetchTags(); err != nil {
			return fmt.Errorf("fetching tags: %w", err)
		}
		date, err := s.awaitProbe(tag)
		if err != nil {
			return err
		}
		if date != "" {
			s.Ctx.PrintStatus(fmt.Sprintf(
				"Submission recorded at %s", date,
			))
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf(
				"submission '%s' was not recorded within %s",
				tag, commitDateWaitLimit,
			)
		}
		time.Sleep(commitDatePollInterval)
	}
}

// awaitProbe reads the recorded submission time at the tag, or
// "" when it is not there yet.
func (s *Suite) awaitProbe(tag string) (string, error) {
	tagged, err := s.Repo.TagCommit(tag)
	if err != nil {
		return "", err
	}
	if tagged == nil {
		return "", nil
	}
	date, err := s.Repo.CommitFileContents(tag, commitDateFile)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(date), nil
}
