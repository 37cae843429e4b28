// Package external locates and runs the command-line converters used for rendering.
package external

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Kind classifies a failure of an external tool.
type Kind string

const (
	KindToolNotFound  Kind = "tool_not_found"
	KindProcessFailed Kind = "process_failed"
	KindTimeout       Kind = "timeout"
	KindNoOutput      Kind = "no_output"
)

// Error is returned for every external tool failure. Stdout and Stderr hold whatever the
// process wrote before it failed.
type Error struct {
	Kind    Kind
	Message string
	Stdout  string
	Stderr  string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Output joins the captured stderr and stdout, stderr first.
func (e *Error) Output() string {
	var parts []string
	if s := strings.TrimSpace(e.Stderr); s != "" {
		parts = append(parts, s)
	}
	if s := strings.TrimSpace(e.Stdout); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, "\n")
}

// NewError creates a new external tool error
func NewError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// NoOutputError reports a tool that exited cleanly without producing its artifact.
func NoOutputError(message string) *Error {
	return NewError(KindNoOutput, message, nil)
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var extErr *Error
	return errors.As(err, &extErr) && extErr.Kind == kind
}

// Find returns the path of the first candidate program found on PATH.
func Find(candidates ...string) (string, error) {
	for _, name := range candidates {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", NewError(KindToolNotFound,
		fmt.Sprintf("none of [%s] found; install it and ensure its executable is in your PATH", strings.Join(candidates, ", ")), nil)
}

// Result holds the captured output of a successful run.
type Result struct {
	Stdout string
	Stderr string
}

// waitDelay bounds how long Run waits for output pipes after the process is killed, in case
// a grandchild still holds them open.
const waitDelay = 2 * time.Second

// Run executes a program and waits for it, killing it once timeout elapses. The run is not
// tied to any caller context: once started it finishes, fails or times out.
func Run(timeout time.Duration, name string, args ...string) (Result, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	err := cmd.Run()
	result := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return result, nil
	}

	extErr := &Error{Stdout: result.Stdout, Stderr: result.Stderr, Err: err}
	var exitErr *exec.ExitError
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		extErr.Kind = KindTimeout
		extErr.Message = fmt.Sprintf("%s timed out after %s", baseName(name), timeout)
	case errors.As(err, &exitErr):
		extErr.Kind = KindProcessFailed
		extErr.Message = fmt.Sprintf("%s failed with exit code %d", baseName(name), exitErr.ExitCode())
	default:
		extErr.Kind = KindProcessFailed
		extErr.Message = fmt.Sprintf("%s could not be started", baseName(name))
	}
	return result, extErr
}

func baseName(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		return name[i+1:]
	}
	return name
}
