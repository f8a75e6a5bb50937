// Command passoff runs an assignment's passoff tests against a
// student repository, reports the results, and optionally
// submits the work by pushing the assignment tag.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"digital.vasic.passoff/pkg/assignment"
	"digital.vasic.passoff/pkg/gitrepo"
	"digital.vasic.passoff/pkg/logging"
	"digital.vasic.passoff/pkg/monitor"
	"digital.vasic.passoff/pkg/report"
	"digital.vasic.passoff/pkg/result"
	"digital.vasic.passoff/pkg/suite"
)

func main() {
	app := &cli.App{
		Name:  "passoff",
		Usage: "run assignment passoff tests against a repository",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "assignment",
				Aliases:  []string{"a"},
				Usage:    "path to the assignment definition YAML",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "repo",
				Aliases: []string{"r"},
				Usage:   "path to the student repository",
				Value:   ".",
			},
			&cli.StringFlag{
				Name:    "build",
				Aliases: []string{"make-rule"},
				Usage:   "run only the named Makefile rule",
			},
			&cli.BoolFlag{
				Name:  "check-repo",
				Usage: "run only the repository hygiene checks",
			},
			&cli.BoolFlag{
				Name:  "required-files",
				Usage: "print the required and excluded files and exit",
			},
			&cli.BoolFlag{
				Name:  "makefile-rules",
				Usage: "print the tested Makefile rules and exit",
			},
			&cli.BoolFlag{
				Name:  "noclean",
				Usage: "skip the 'make clean' steps",
			},
			&cli.BoolFlag{
				Name:  "nocolor",
				Usage: "disable colored console output",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "enable verbose output",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "suppress command output echo",
			},
			&cli.StringFlag{
				Name:  "log",
				Usage: "aggregate log file name",
			},
			&cli.StringFlag{
				Name:  "log-dir",
				Usage: "directory for log files",
			},
			&cli.StringFlag{
				Name:  "json-log",
				Usage: "write structured run events to this JSON file",
			},
			&cli.StringFlag{
				Name:  "report-dir",
				Usage: "write summary.json and summary.md into this directory",
			},
			&cli.BoolFlag{
				Name:  "submit",
				Usage: "tag and push the submission after the tests",
			},
			&cli.BoolFlag{
				Name:    "force",
				Aliases: []string{"f"},
				Usage:   "move an existing submission tag without asking",
			},
			&cli.BoolFlag{
				Name:  "submission-status",
				Usage: "show the submission status and exit",
			},
			&cli.StringFlag{
				Name:  "monitor-addr",
				Usage: "serve live run events on this address (e.g. :8090)",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	def, err := assignment.Load(c.String("assignment"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	repo, err := gitrepo.Open(c.String("repo"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	opts, logger, collector, cleanup, err := buildOptions(c)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer cleanup()

	s, err := def.BuildSuite(repo, opts...)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer s.Cleanup()

	if name := c.String("log"); name != "" {
		if err := s.Ctx.OpenLogFile(name); err != nil {
			return cli.Exit(err.Error(), 1)
		}
	}

	if addr := c.String("monitor-addr"); addr != "" {
		srv := monitor.NewServer(addr, collector)
		ctx, cancel := context.WithCancel(c.Context)
		defer cancel()
		go func() {
			if err := srv.Start(ctx); err != nil {
				logger.Error(
					"monitor server stopped",
					logging.F("error", err.Error()),
				)
			}
		}()
	}

	// Informational modes.
	switch {
	case c.Bool("submission-status"):
		if err := s.SubmissionStatus(); err != nil {
			return cli.Exit(err.Error(), 1)
		}
		return nil
	case c.Bool("required-files"):
		s.SummarizeRequiredFiles()
		return nil
	case c.Bool("makefile-rules"):
		s.SummarizeBuildRules()
		return nil
	case c.String("build") != "":
		r := s.RunBuildRule(c.String("build"))
		if r == nil || r.Outcome == result.Error {
			return cli.Exit("", 1)
		}
		return nil
	}

	// Full passoff run.
	if c.Bool("check-repo") {
		s.AddRepoChecks(true)
	} else if c.Bool("noclean") {
		s.AddBuildSteps()
		s.AddRepoChecks(true)
	} else {
		s.AddAllTests()
	}

	start := time.Now()
	res := s.Run()

	summary := report.FromGroup(def.Name, s.RepoTests)
	summary.Duration = time.Since(start)
	summary.WriteTable(os.Stdout, !c.Bool("nocolor"))
	if dir := c.String("report-dir"); dir != "" {
		if err := summary.SaveArtifacts(dir); err != nil {
			return cli.Exit(err.Error(), 1)
		}
	}

	if c.Bool("submit") {
		if res.Outcome == result.Error {
			return cli.Exit(
				"submission refused: the passoff has errors", 1,
			)
		}
		err := s.Submit(c.Bool("force"), confirmOnTerminal)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		if err := s.AwaitCommitDate(); err != nil {
			return cli.Exit(err.Error(), 1)
		}
	}

	if res.Outcome == result.Error {
		return cli.Exit("", 1)
	}
	return nil
}

// buildOptions translates CLI flags into suite options plus the
// logger and collector shared with the monitor server.
func buildOptions(c *cli.Context) (
	[]suite.Option,
	logging.Logger,
	*monitor.Collector,
	func(),
	error,
) {
	var opts []suite.Option
	var logger logging.Logger = logging.NewNullLogger()
	cleanup := func() {}

	if path := c.String("json-log"); path != "" {
		jl, err := logging.NewJSONFileLogger(path)
		if err != nil {
			return nil, nil, nil, cleanup, err
		}
		logger = jl
		cleanup = func() { jl.Close() }
	}
	opts = append(opts, suite.WithLogger(logger))

	collector := monitor.NewCollector()
	opts = append(opts, suite.WithCollector(collector))

	if dir := c.String("log-dir"); dir != "" {
		opts = append(opts, suite.WithLogDir(dir))
	}
	if c.Bool("nocolor") {
		opts = append(opts, suite.WithNoColor())
	}
	if c.Bool("verbose") {
		opts = append(opts, suite.WithVerbose())
	}
	if c.Bool("quiet") {
		opts = append(opts, suite.WithQuiet())
	}
	return opts, logger, collector, cleanup, nil
}

// confirmOnTerminal asks a yes/no question on the terminal.
func confirmOnTerminal(prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
