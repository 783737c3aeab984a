package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Executor runs an external program and returns its stdout.
type Executor interface {
	Execute(ctx context.Context, name string, args ...string) (string, error)
}

// InputExecutor is an Executor that can also feed the program's stdin.
type InputExecutor interface {
	Executor
	ExecuteInput(ctx context.Context, input io.Reader, name string, args ...string) ([]byte, error)
}

// ExecError is returned when a program cannot start or exits non-zero.
// Stderr keeps the tool's own diagnostics.
type ExecError struct {
	Name   string
	Err    error
	Stderr string
}

func (e *ExecError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("command '%s' failed: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("command '%s' failed: %v\nstderr: %s", e.Name, e.Err, e.Stderr)
}

func (e *ExecError) Unwrap() error { return e.Err }

// CommandExecutor runs programs with os/exec.
type CommandExecutor struct{}

func NewCommandExecutor() *CommandExecutor {
	return &CommandExecutor{}
}

// Execute runs name with args, bound to ctx.
func (e *CommandExecutor) Execute(ctx context.Context, name string, args ...string) (string, error) {
	out, err := e.run(ctx, nil, name, args...)
	return string(out), err
}

// ExecuteInput runs name with input piped to stdin and returns raw stdout.
func (e *CommandExecutor) ExecuteInput(ctx context.Context, input io.Reader, name string, args ...string) ([]byte, error) {
	return e.run(ctx, input, name, args...)
}

func (e *CommandExecutor) run(ctx context.Context, input io.Reader, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = input

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, &ExecError{Name: name, Err: err, Stderr: strings.TrimSpace(stderr.String())}
	}
	return stdout.Bytes(), nil
}
