package gitutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Result is the captured output of a finished command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Output returns stdout and stderr joined, for error messages.
func (r Result) Output() string {
	return strings.TrimSpace(strings.TrimSpace(r.Stdout) + "\n" + strings.TrimSpace(r.Stderr))
}

// CommandError is returned when a command exits with a non-zero status.
type CommandError struct {
	Command string
	Result  Result
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s failed (exit %d): %s", e.Command, e.Result.ExitCode, e.Result.Output())
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Runner executes external commands.
type Runner interface {
	Run(ctx context.Context, dir, stdin, name string, args ...string) (Result, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run starts the command in dir, feeding stdin, and waits for it. A non-zero
// exit status yields a *CommandError carrying the captured output.
func (ExecRunner) Run(ctx context.Context, dir, stdin, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		} else {
			res.ExitCode = -1
		}
		return res, &CommandError{Command: name + " " + strings.Join(args, " "), Result: res, Err: err}
	}
	return res, nil
}
