package execs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/macropower/kdev/pkg/log"
)

var (
	// ErrLaunch is returned when a command could not be started at all, e.g.
	// because the binary is missing. It is distinct from a nonzero exit code,
	// which is reported via [Result.ExitCode].
	ErrLaunch = errors.New("unable to launch")

	// ErrEmptyCommand is returned when a command name is empty.
	ErrEmptyCommand = errors.New("empty command")
)

// Result is the outcome of one external command invocation. Stdout and
// Stderr are always captured, including on nonzero exit.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Succeeded reports whether the command exited zero.
func (r *Result) Succeeded() bool {
	return r.ExitCode == 0
}

// Invoker runs external commands. Implementations must capture stdout and
// stderr on every run and must report launch failures as errors rather than
// synthesizing an exit code.
type Invoker interface {
	Exec(ctx context.Context, name string, args ...string) (*Result, error)
	ExecWithStdin(ctx context.Context, stdin []byte, name string, args ...string) (*Result, error)
	ExecInteractive(ctx context.Context, name string, args ...string) (int, error)
}

// ShellInvoker is the default [Invoker], backed by [exec.CommandContext].
type ShellInvoker struct {
	tracer trace.Tracer
	// Dir is the working directory for spawned commands. Empty means the
	// caller's working directory.
	Dir string
}

// NewShellInvoker creates a new [ShellInvoker].
func NewShellInvoker() *ShellInvoker {
	return &ShellInvoker{
		tracer: otel.Tracer("execs"),
	}
}

// Exec runs the command and waits for it to finish.
func (si *ShellInvoker) Exec(ctx context.Context, name string, args ...string) (*Result, error) {
	return si.ExecWithStdin(ctx, nil, name, args...)
}

// ExecWithStdin runs the command with the given bytes fed to stdin.
func (si *ShellInvoker) ExecWithStdin(ctx context.Context, stdin []byte, name string, args ...string) (*Result, error) {
	ctx, span := si.tracer.Start(ctx, "exec", trace.WithAttributes(
		attribute.String("command", commandString(name, args)),
	))
	defer span.End()

	if name == "" {
		return nil, ErrEmptyCommand
	}

	logger := log.WithContext(ctx).With(
		slog.String("command", commandString(name, args)),
	)

	start := time.Now()

	//nolint:gosec // G204: the command line is caller-supplied.
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = si.Dir
	cmd.Stdin = bytes.NewReader(stdin)

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := &Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	var exitErr *exec.ExitError

	switch {
	case err == nil:
		// Exit code zero.

	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()

	default:
		// The process never ran.
		logger.DebugContext(ctx, "command launch failed",
			slog.Any("error", err),
		)

		return nil, fmt.Errorf("%w %s: %w", ErrLaunch, name, err)
	}

	logger.DebugContext(ctx, "command finished",
		slog.Int("exit_code", result.ExitCode),
		slog.Duration("duration", time.Since(start)),
	)

	return result, nil
}

// ExecInteractive runs the command attached to the caller's terminal. It is
// used for long-lived foreground processes like port-forwarding or an
// external debugger, where output streaming matters more than capture.
func (si *ShellInvoker) ExecInteractive(ctx context.Context, name string, args ...string) (int, error) {
	if name == "" {
		return 0, ErrEmptyCommand
	}

	//nolint:gosec // G204: the command line is caller-supplied.
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = si.Dir
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()

	var exitErr *exec.ExitError

	switch {
	case err == nil:
		return 0, nil

	case errors.As(err, &exitErr):
		return exitErr.ExitCode(), nil

	default:
		return 0, fmt.Errorf("%w %s: %w", ErrLaunch, name, err)
	}
}

func commandString(name string, args []string) string {
	if len(args) == 0 {
		return name
	}

	return fmt.Sprintf("%s %s", name, strings.Join(args, " "))
}
