// Package report renders the results of a passoff run: a
// console table, a JSON artifact for tooling, and a Markdown
// artifact suitable for posting on a submission.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"digital.vasic.passoff/pkg/result"
	"digital.vasic.passoff/pkg/unit"
)

// Line is one test's entry in a run summary.
type Line struct {
	Name    string `json:"name"`
	Outcome string `json:"outcome"`
	Message string `json:"message,omitempty"`
}

// Summary aggregates one run of a test group.
type Summary struct {
	Assignment string        `json:"assignment"`
	Timestamp  time.Time     `json:"timestamp"`
	Duration   time.Duration `json:"duration_ns,omitempty"`
	Lines      []Line        `json:"tests"`
	Successes  int           `json:"successes"`
	Warnings   int           `json:"warnings"`
	Errors     int           `json:"errors"`
	Outcome    string        `json:"outcome"`
}

// FromGroup builds a Summary from a group's recorded result
// table, in member order. Members that have not run are
// skipped.
func FromGroup(assignment string, g *unit.Group) *Summary {
	s := &Summary{
		Assignment: assignment,
		Timestamp:  time.Now(),
	}
	worst := result.Success
	for _, m := range g.Members() {
		r := g.MemberResult(m)
		if r == nil {
			continue
		}
		s.Lines = append(s.Lines, Line{
			Name:    m.Name(),
			Outcome: r.Outcome.String(),
			Message: r.Msg,
		})
		worst = result.Max(worst, r.Outcome)
		switch r.Outcome {
		case result.Success:
			s.Successes++
		case result.Warning:
			s.Warnings++
		case result.Error:
			s.Errors++
		}
	}
	s.Outcome = worst.String()
	return s
}

// WriteTable renders the summary as a console table.
func (s *Summary) WriteTable(w io.Writer, color bool) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Passoff: %s", s.Assignment)
	t.AppendHeader(table.Row{"Test", "Outcome", "Message"})

	for _, line := range s.Lines {
		outcome := line.Outcome
		if color {
			outcome = colorize(line.Outcome)
		}
		t.AppendRow(table.Row{
			line.Name, outcome, firstLine(line.Message),
		})
	}

	t.AppendFooter(table.Row{
		"Total",
		s.Outcome,
		fmt.Sprintf(
			"%d passed, %d warnings, %d errors",
			s.Successes, s.Warnings, s.Errors,
		),
	})
	t.Render()
}

// WriteJSON writes the summary as indented JSON.
func (s *Summary) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// WriteMarkdown writes the summary as a Markdown document.
func (s *Summary) WriteMarkdown(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# Passoff Results: %s\n\n", s.Assignment)
	fmt.Fprintf(
		&b, "Run at %s", s.Timestamp.Format(time.RFC1123),
	)
	if s.Duration > 0 {
		fmt.Fprintf(
			&b, " in %s", s.Duration.Round(time.Millisecond),
		)
	}
	b.WriteString("\n\n")
	fmt.Fprintf(
		&b,
		"**%s**: %d passed, %d warnings, %d errors\n\n",
		s.Outcome, s.Successes, s.Warnings, s.Errors,
	)
	b.WriteString("| Test | Outcome | Message |\n")
	b.WriteString("|------|---------|---------|\n")
	for _, line := range s.Lines {
		fmt.Fprintf(
			&b, "| %s | %s | %s |\n",
			escapePipes(line.Name),
			line.Outcome,
			escapePipes(firstLine(line.Message)),
		)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// SaveArtifacts writes summary.json and summary.md into dir,
// creating it if needed.
func (s *Summary) SaveArtifacts(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating report dir: %w", err)
	}

	jf, err := os.Create(filepath.Join(dir, "summary.json"))
	if err != nil {
		return err
	}
	defer jf.Close()
	if err := s.WriteJSON(jf); err != nil {
		return err
	}

	mf, err := os.Create(filepath.Join(dir, "summary.md"))
	if err != nil {
		return err
	}
	defer mf.Close()
	return s.WriteMarkdown(mf)
}

func colorize(outcome string) string {
	switch outcome {
	case "Success":
		return text.FgGreen.Sprint(outcome)
	case "Warning":
		return text.FgYellow.Sprint(outcome)
	case "Error":
		return text.FgRed.Sprint(outcome)
	}
	return outcome
}

// firstLine keeps multi-line messages from breaking table and
// Markdown rows.
func firstLine(msg string) string {
	msg = strings.TrimSpace(msg)
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		return msg[:i] + " ..."
	}
	return msg
}

func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
