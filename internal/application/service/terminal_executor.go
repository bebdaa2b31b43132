package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"syscall"
	"time"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"

	"github.com/YoshitsuguKoike/evolve/internal/application/port/output"
	"github.com/YoshitsuguKoike/evolve/internal/domain/model/script"
)

// ExitCannotExecute is the exit code recorded when the script itself
// cannot be executed, matching what a shell reports for the same case.
const ExitCannotExecute = 127

// ExecutableProbe reports whether a file can be run directly
type ExecutableProbe func(path string) bool

// TerminalExecutor runs one attempt of a script under a process session
// and captures everything it prints.
//
// No timeout is applied: a child that never exits blocks Execute until ctx
// is cancelled.
type TerminalExecutor struct {
	spawner output.ProcessSpawner
	probe   ExecutableProbe
	echo    io.Writer
	dir     string
	env     []string
}

// ExecutorOption customizes a TerminalExecutor
type ExecutorOption func(*TerminalExecutor)

// WithEcho mirrors captured output to w while the attempt runs
func WithEcho(w io.Writer) ExecutorOption {
	return func(e *TerminalExecutor) { e.echo = w }
}

// WithWorkDir runs the child in dir
func WithWorkDir(dir string) ExecutorOption {
	return func(e *TerminalExecutor) { e.dir = dir }
}

// WithEnv sets the child environment
func WithEnv(env []string) ExecutorOption {
	return func(e *TerminalExecutor) { e.env = env }
}

// NewTerminalExecutor creates an executor
func NewTerminalExecutor(spawner output.ProcessSpawner, probe ExecutableProbe, opts ...ExecutorOption) *TerminalExecutor {
	e := &TerminalExecutor{spawner: spawner, probe: probe}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs the target once. The executable probe runs immediately
// before spawning. The returned attempt has Output and ExitCode set; its
// Outcome is left for the classifier.
func (e *TerminalExecutor) Execute(ctx context.Context, target script.Target, number int) (*script.Attempt, error) {
	executable := e.probe != nil && e.probe(target.Path())
	inv := output.Invocation{
		Argv: target.Command(executable),
		Dir:  e.dir,
		Env:  e.env,
	}

	attempt := &script.Attempt{
		ID:        script.NewAttemptID(),
		Number:    number,
		StartedAt: time.Now(),
	}

	session, err := e.spawner.Spawn(ctx, inv)
	if err != nil {
		// A bad directive or a body the kernel will not run is a script
		// defect; it goes to repair like any other failed attempt.
		if inv.Argv[0] == target.Path() && isScriptExecError(err) {
			attempt.Duration = time.Since(attempt.StartedAt)
			attempt.ExitCode = ExitCannotExecute
			attempt.Output = sanitize(err.Error())
			if e.echo != nil {
				_, _ = io.WriteString(e.echo, attempt.Output+"\n")
			}
			return attempt, nil
		}
		return nil, fmt.Errorf("%w: %s: %v", script.ErrSpawn, strings.Join(inv.Argv, " "), err)
	}
	defer session.Close()

	var captured strings.Builder
	for chunk := range session.Output() {
		captured.Write(chunk)
		if e.echo != nil {
			_, _ = e.echo.Write(chunk) // echo is best effort
		}
	}

	exitCode, err := session.Wait()
	attempt.Duration = time.Since(attempt.StartedAt)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		return nil, fmt.Errorf("wait for script: %w", err)
	}

	attempt.ExitCode = exitCode
	attempt.Output = sanitize(captured.String())
	return attempt, nil
}

func isScriptExecError(err error) bool {
	return errors.Is(err, fs.ErrNotExist) ||
		errors.Is(err, fs.ErrPermission) ||
		errors.Is(err, syscall.ENOEXEC)
}

// sanitize replaces ill-formed UTF-8 so the output can travel as JSON text
func sanitize(raw string) string {
	clean, _, err := transform.String(runes.ReplaceIllFormed(), raw)
	if err != nil {
		return strings.ToValidUTF8(raw, "\uFFFD")
	}
	return clean
}
