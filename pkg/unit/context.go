// Package unit provides the test orchestration core of the
// passoff harness: the shared execution context, the Unit
// contract every check implements, the process executor, and
// the Chain/Follow/Group composition strategies.
package unit

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ANSI color codes used for console output. Colors are applied
// only at the final render step and are never written to log
// files.
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[91m"
	ColorGreen  = "\033[92m"
	ColorYellow = "\033[93m"
	ColorBlue   = "\033[94m"
	ColorPurple = "\033[95m"
	ColorBold   = "\033[1m"
)

// Context holds the shared, read-mostly configuration for one
// passoff run. It is created once at harness start, passed by
// pointer to every unit constructor, and torn down (aggregate
// log closed) at harness end. It is never global.
type Context struct {
	// WorkDir is the directory in which commands execute. It
	// may be anywhere, not necessarily inside the repository.
	WorkDir string

	// LogDir is the directory where per-command log files are
	// created. Empty disables per-command logging.
	LogDir string

	// Echo controls whether command output and messages are
	// echoed to the console.
	Echo bool

	// Verbose enables verbose-only messages.
	Verbose bool

	// StatusColor, WarningColor and ErrorColor wrap status,
	// warning and error text on the console. Empty disables
	// coloring for that class.
	StatusColor  string
	WarningColor string
	ErrorColor   string

	// OnLine, when set, receives every relayed line of command
	// output, after the file sinks. Used by live monitoring.
	OnLine func(line string)

	mu      sync.Mutex
	logFile *os.File
}

// NewContext creates a Context rooted at the given working
// directory with console echo enabled and the default color
// scheme (yellow status and warnings, red errors).
func NewContext(workDir string) *Context {
	return &Context{
		WorkDir:      workDir,
		Echo:         true,
		StatusColor:  ColorYellow,
		WarningColor: ColorYellow,
		ErrorColor:   ColorRed,
	}
}

// DisableColors removes all color codes from console output.
func (c *Context) DisableColors() {
	c.StatusColor = ""
	c.WarningColor = ""
	c.ErrorColor = ""
}

// OpenLogFile opens the aggregate log file with the given name
// under LogDir (creating the directory if needed). All printed
// messages and relayed command output are appended to it until
// Close is called.
func (c *Context) OpenLogFile(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	dir := c.LogDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create log dir %s: %w", dir, err)
	}

	path := filepath.Join(dir, name)
	fp, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open log file %s: %w", path, err)
	}
	c.logFile = fp
	return nil
}

// Close closes the aggregate log file if one is open. Safe to
// call when no log file was opened.
func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.logFile == nil {
		return nil
	}
	err := c.logFile.Close()
	c.logFile = nil
	return err
}

// writeLog appends a line to the aggregate log file if open.
// Color codes must already be stripped by the caller.
func (c *Context) writeLog(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.logFile != nil {
		fmt.Fprintln(c.logFile, line)
	}
}

// Print writes a message to the console (when echo is on) and
// to the aggregate log.
func (c *Context) Print(msg string) {
	if c.Echo {
		fmt.Println(msg)
	}
	c.writeLog(msg)
}

// PrintVerbose prints a message only when verbose mode is on.
func (c *Context) PrintVerbose(msg string) {
	if !c.Verbose {
		return
	}
	c.Print(msg)
}

// printColor prints a message to the console wrapped in the
// given color and to the aggregate log without color codes.
// Unlike Print, colored messages are always shown on the
// console; they carry run status the user must see.
func (c *Context) printColor(color, msg string) {
	c.writeLog(msg)
	if color != "" {
		msg = color + msg + ColorReset
	}
	fmt.Println(msg)
}

// PrintStatus prints a test-status message in the status color.
func (c *Context) PrintStatus(msg string) {
	c.printColor(c.StatusColor, msg)
}

// PrintWarning prints a message in the warning color.
func (c *Context) PrintWarning(msg string) {
	c.printColor(c.WarningColor, msg)
}

// PrintError prints a message in the error color.
func (c *Context) PrintError(msg string) {
	c.printColor(c.ErrorColor, msg)
}
