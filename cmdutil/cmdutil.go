// Package cmdutil runs shell commands with captured output, a merged
// environment and line-by-line output monitoring.
package cmdutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/jongio/amqp-core/env"
	"github.com/jongio/amqp-core/logutil"
	"github.com/jongio/amqp-core/security"
)

// DefaultWaitDelay bounds how long Run waits for output pipes to close after
// the process exits or is killed.
const DefaultWaitDelay = 5 * time.Second

// ErrEmptyCommand is returned when Options.Command is blank.
var ErrEmptyCommand = errors.New("empty command")

// OutputLineHandler is a callback for processing output lines in real-time.
type OutputLineHandler func(line string)

// Options configures Run.
type Options struct {
	// Command is the script handed to the shell.
	Command string
	// Shell defaults to DefaultShell().
	Shell string
	// Dir is the working directory. Empty means the current directory.
	Dir string
	// Env is applied on top of the parent environment.
	Env map[string]string
	// Timeout of zero means the command runs until ctx is done.
	Timeout time.Duration
	// Stdin is connected to the command when non-nil.
	Stdin io.Reader
	// OnLine receives every complete line of stdout and stderr.
	// Calls are serialized.
	OnLine OutputLineHandler
}

// Result holds the captured output of a finished command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// CommandError reports a command that could not start, exited non-zero or
// was stopped by its context. ExitCode is -1 when no exit status is known.
type CommandError struct {
	Command  string
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	stderr := strings.TrimSpace(e.Stderr)
	if e.ExitCode < 0 || stderr == "" {
		return fmt.Sprintf("command %q failed: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("command %q failed with exit code %d: %s", e.Command, e.ExitCode, stderr)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ExecLocal runs command through sh -c with the parent environment plus
// envVars and returns its stdout.
//
// Example:
//
//	out, err := cmdutil.ExecLocal(ctx, "rabbitmqctl list_queues", env.FromAddress(addr))
func ExecLocal(ctx context.Context, command string, envVars map[string]string) (string, error) {
	res, err := Run(ctx, Options{
		Command: command,
		Shell:   ShellSh,
		Env:     envVars,
	})
	return res.Stdout, err
}

// Run executes opts.Command and waits for it. The process is always reaped,
// including when ctx is cancelled or the timeout fires.
func Run(ctx context.Context, opts Options) (Result, error) {
	if strings.TrimSpace(opts.Command) == "" {
		return Result{ExitCode: -1}, ErrEmptyCommand
	}
	for key := range opts.Env {
		if err := security.ValidateEnvKey(key); err != nil {
			return Result{ExitCode: -1}, err
		}
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	shell := opts.Shell
	if shell == "" {
		shell = DefaultShell()
	}

	logger := logutil.NewLogger("cmdutil").WithOperation("run")
	logger.Info("running command", "shell", shell, "dir", opts.Dir, "env", env.Keys(opts.Env))

	var handlerMu sync.Mutex
	handler := func(line string) {
		logger.Debug("output", "line", line)
		if opts.OnLine != nil {
			handlerMu.Lock()
			defer handlerMu.Unlock()
			opts.OnLine(line)
		}
	}

	var stdout, stderr bytes.Buffer
	stdoutWriter := &lineWriter{output: &stdout, handler: handler}
	stderrWriter := &lineWriter{output: &stderr, handler: handler}

	cmd := shellCommand(ctx, shell, opts.Command)
	cmd.Dir = opts.Dir
	cmd.Env = env.Merge(os.Environ(), opts.Env)
	cmd.Stdin = opts.Stdin
	cmd.Stdout = stdoutWriter
	cmd.Stderr = stderrWriter
	cmd.WaitDelay = DefaultWaitDelay

	start := time.Now()
	runErr := cmd.Run()
	stdoutWriter.Flush()
	stderrWriter.Flush()

	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode(cmd, runErr),
		Duration: time.Since(start),
	}

	if runErr != nil {
		cause := runErr
		if ctxErr := ctx.Err(); ctxErr != nil {
			cause = ctxErr
			res.ExitCode = -1
		}
		logger.Warn("command failed", "exit_code", res.ExitCode, "duration", res.Duration, "error", cause)
		return res, &CommandError{
			Command:  opts.Command,
			ExitCode: res.ExitCode,
			Stdout:   res.Stdout,
			Stderr:   res.Stderr,
			Err:      cause,
		}
	}

	logger.Info("command finished", "exit_code", res.ExitCode, "duration", res.Duration)
	return res, nil
}

func exitCode(cmd *exec.Cmd, err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	if err != nil || cmd.ProcessState == nil {
		return -1
	}
	return cmd.ProcessState.ExitCode()
}
