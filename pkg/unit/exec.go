package unit

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

// ErrTimeout is returned by ExecuteCommand when a command
// exceeds its configured wall-clock timeout and is terminated.
// It is distinct from a normal non-zero exit so callers can
// report "exceeded N seconds" rather than a generic failure.
var ErrTimeout = errors.New("command timeout exceeded")

// lineBuffer is the capacity of the channel between the output
// reader goroutine and the relay loop. The reader blocks when
// the relay falls this far behind, which preserves emission
// order without unbounded memory.
const lineBuffer = 256

// drainGrace bounds how long the relay loop keeps draining
// output after a timeout kill. A descendant that escaped the
// process group could otherwise hold the pipe open forever.
const drainGrace = 2 * time.Second

// ExecuteCommand runs an external command in the context's
// working directory and returns its exit status. While the
// command runs, its combined stdout/stderr is relayed line by
// line, in emission order, to the console (when echo is on),
// the aggregate log, and a dedicated per-command log file when
// the unit has an OutputFilename configured.
//
// A positive TimeoutSeconds on the unit bounds the command's
// wall-clock time; on expiry the child is killed and ErrTimeout
// is returned. The final buffered output is always drained
// before returning.
func (b *Base) ExecuteCommand(argv []string) (int, error) {
	return b.ExecuteCommandCapture(argv, nil)
}

// ExecuteCommandCapture behaves like ExecuteCommand and
// additionally hands every relayed line to capture, letting
// callers collect command output without a temporary file.
func (b *Base) ExecuteCommandCapture(
	argv []string,
	capture func(line string),
) (int, error) {
	if len(argv) == 0 {
		return -1, errors.New("empty command")
	}

	// Per-command log file.
	var fp *os.File
	if b.ctx.LogDir != "" && b.OutputFilename != "" {
		if err := os.MkdirAll(b.ctx.LogDir, 0o755); err != nil {
			return -1, fmt.Errorf(
				"create log dir %s: %w", b.ctx.LogDir, err,
			)
		}
		path := filepath.Join(b.ctx.LogDir, b.OutputFilename)
		var err error
		fp, err = os.Create(path)
		if err != nil {
			return -1, fmt.Errorf(
				"open command log %s: %w", path, err,
			)
		}
		defer fp.Close()
		b.TrackFile(path)
		b.ctx.Print("Writing output to: " + path)
	}

	cmdStr := strings.Join(argv, " ")
	msg := fmt.Sprintf(
		"Executing the following command in directory %s: %s",
		b.ctx.WorkDir, cmdStr,
	)
	b.ctx.Print(msg)
	if fp != nil {
		fmt.Fprintln(fp, msg)
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = b.ctx.WorkDir
	// Run the child in its own process group so a timeout kill
	// reaches its descendants (make spawns the actual tools).
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	// Merge stdout and stderr into one pipe so interleaving
	// matches what the child emitted.
	pr, pw, err := os.Pipe()
	if err != nil {
		return -1, fmt.Errorf("create output pipe: %w", err)
	}
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pw.Close()
		pr.Close()
		return -1, fmt.Errorf("start command %q: %w", cmdStr, err)
	}
	// The child holds its own copy of the write end; close
	// ours so the reader sees EOF when the child exits.
	pw.Close()

	lines := make(chan string, lineBuffer)
	go func() {
		defer close(lines)
		defer pr.Close()
		scanner := bufio.NewScanner(pr)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	waitDone := make(chan error, 1)
	go func() { waitDone <- cmd.Wait() }()

	var timeoutC <-chan time.Time
	if b.TimeoutSeconds > 0 {
		timer := time.NewTimer(
			time.Duration(b.TimeoutSeconds) * time.Second,
		)
		defer timer.Stop()
		timeoutC = timer.C
	}

	for {
		select {
		case line, ok := <-lines:
			if !ok {
				// Pipe drained; the child has exited (or
				// closed its output). Collect the status.
				waitErr := <-waitDone
				return exitStatus(waitErr)
			}
			b.relayLine(line, fp, capture)

		case <-timeoutC:
			b.ctx.PrintError(fmt.Sprintf(
				"Process exceeded %d seconds and was terminated.",
				b.TimeoutSeconds,
			))
			killProcessGroup(cmd)
			b.drainAfterKill(lines, pr, fp, capture)
			<-waitDone
			return -1, ErrTimeout
		}
	}
}

// drainAfterKill relays whatever the killed process tree
// managed to emit so no output is dropped. The drain is
// bounded: if a straggler still holds the pipe open after the
// grace period, the read end is closed to force the reader
// goroutine to finish.
func (b *Base) drainAfterKill(
	lines chan string,
	pr *os.File,
	fp *os.File,
	capture func(line string),
) {
	deadline := time.NewTimer(drainGrace)
	defer deadline.Stop()
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				return
			}
			b.relayLine(line, fp, capture)
		case <-deadline.C:
			pr.Close()
			for line := range lines {
				b.relayLine(line, fp, capture)
			}
			return
		}
	}
}

// killProcessGroup kills the command's whole process group,
// falling back to the direct child if the group signal fails.
func killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	if err := syscall.Kill(
		-cmd.Process.Pid, syscall.SIGKILL,
	); err != nil {
		_ = cmd.Process.Kill()
	}
}

// relayLine forwards one output line to every configured sink
// in a fixed order: console, aggregate log, per-command log,
// line hook, capture callback.
func (b *Base) relayLine(
	line string,
	fp *os.File,
	capture func(line string),
) {
	if b.ctx.Echo {
		fmt.Println(line)
	}
	b.ctx.writeLog(line)
	if fp != nil {
		fmt.Fprintln(fp, line)
	}
	if b.ctx.OnLine != nil {
		b.ctx.OnLine(line)
	}
	if capture != nil {
		capture(line)
	}
}

// exitStatus converts the error from cmd.Wait into an exit
// code. A nil error is exit 0; an ExitError carries the
// child's code; anything else is a launch/runtime failure.
func exitStatus(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}
