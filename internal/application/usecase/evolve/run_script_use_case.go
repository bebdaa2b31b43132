package evolve

import (
	"context"
	"fmt"
	"time"

	"github.com/YoshitsuguKoike/evolve/internal/app"
	"github.com/YoshitsuguKoike/evolve/internal/application/dto"
	"github.com/YoshitsuguKoike/evolve/internal/application/port/output"
	"github.com/YoshitsuguKoike/evolve/internal/domain/model/script"
	"github.com/YoshitsuguKoike/evolve/internal/domain/service"
)

// Defaults applied when RunScriptInput carries a negative delay or no
// ceiling. A zero RetryDelay retries without waiting.
const (
	DefaultRetryDelay    = time.Second
	DefaultMaxRetryDelay = time.Minute
)

// AttemptExecutor runs the script once and captures its output
type AttemptExecutor interface {
	Execute(ctx context.Context, target script.Target, number int) (*script.Attempt, error)
}

// ScriptNormalizer adds a missing interpreter directive to the file on disk
type ScriptNormalizer interface {
	EnsureShebang(path string) (string, bool, error)
}

// SleepFunc waits for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// RunScriptUseCase is the retry loop: normalize, execute, classify and
// repair until an attempt succeeds.
type RunScriptUseCase struct {
	normalizer  ScriptNormalizer
	executor    AttemptExecutor
	classifier  service.FailureClassifier
	coordinator *RepairCoordinator
	journal     output.AttemptJournal
	logger      app.Logger
	sleep       SleepFunc
}

// NewRunScriptUseCase creates the loop. A nil journal discards entries.
func NewRunScriptUseCase(
	normalizer ScriptNormalizer,
	executor AttemptExecutor,
	classifier service.FailureClassifier,
	coordinator *RepairCoordinator,
	journal output.AttemptJournal,
	logger app.Logger,
) *RunScriptUseCase {
	if journal == nil {
		journal = output.NopJournal{}
	}
	if logger == nil {
		logger = app.GetLogger()
	}
	return &RunScriptUseCase{
		normalizer:  normalizer,
		executor:    executor,
		classifier:  classifier,
		coordinator: coordinator,
		journal:     journal,
		logger:      logger,
		sleep:       sleepContext,
	}
}

// WithSleep replaces the backoff wait
func (uc *RunScriptUseCase) WithSleep(sleep SleepFunc) *RunScriptUseCase {
	uc.sleep = sleep
	return uc
}

// Execute runs the loop until an attempt is classified as a success,
// the attempt cap is reached, ctx is cancelled, or a fatal error occurs.
// The report is returned in every case where the loop started.
func (uc *RunScriptUseCase) Execute(ctx context.Context, input dto.RunScriptInput) (*dto.RunReport, error) {
	target, err := script.NewTarget(input.Path, input.Runtime, input.Args)
	if err != nil {
		return nil, err
	}
	session := script.NewRepairSession(target, input.BackupSuffix)
	backoff := newBackoff(input.RetryDelay, input.MaxRetryDelay)

	startTime := time.Now()
	report := &dto.RunReport{
		Script:   target.Path(),
		Runtime:  target.Runtime(),
		Outcome:  string(script.OutcomeFailure),
		LastExit: -1,
	}
	finish := func(err error) (*dto.RunReport, error) {
		report.Repairs = session.Repairs()
		report.Unavailable = session.Unavailable()
		if session.BackupWritten() {
			report.BackupPath = session.BackupPath()
		}
		report.Duration = time.Since(startTime)
		if err != nil {
			report.Error = err.Error()
		}
		return report, err
	}

	for number := 1; ; number++ {
		if err := ctx.Err(); err != nil {
			return finish(err)
		}

		// 1. Normalize the directive before every run
		if _, changed, err := uc.normalizer.EnsureShebang(target.Path()); err != nil {
			return finish(fmt.Errorf("failed to prepare script: %w", err))
		} else if changed {
			uc.logger.Debug("Added interpreter directive to %s", target.Path())
		}

		// 2. Run under the terminal channel
		attempt, err := uc.executor.Execute(ctx, target, number)
		if err != nil {
			return finish(err)
		}
		report.Attempts = number
		report.LastExit = attempt.ExitCode

		// 3. Classify
		attempt.Outcome = uc.classifier.Classify(attempt.ExitCode, attempt.Output)
		uc.logger.Debug("Attempt %d exited with code %d: %s", number, attempt.ExitCode, attempt.Outcome)

		if attempt.Outcome.IsSuccess() {
			uc.record(target, attempt, RepairResult{}, output.RepairSkipped, nil)
			report.Outcome = string(script.OutcomeSuccess)
			return finish(nil)
		}

		// 4. Repair, then decide whether to go around again
		result, err := uc.coordinator.Repair(ctx, target, session, attempt.Output)
		if err != nil {
			uc.record(target, attempt, result, output.RepairSkipped, err)
			return finish(err)
		}
		if result.Applied {
			uc.record(target, attempt, result, output.RepairApplied, nil)
			backoff.reset()
		} else {
			uc.record(target, attempt, result, output.RepairUnavailable, result.Cause)
		}

		if input.MaxAttempts > 0 && number >= input.MaxAttempts {
			return finish(fmt.Errorf("%w: %d attempts", script.ErrAttemptsExhausted, number))
		}

		if !result.Applied {
			delay := backoff.next()
			uc.logger.Debug("Retrying in %s", delay)
			if err := uc.sleep(ctx, delay); err != nil {
				return finish(err)
			}
		}
	}
}

func (uc *RunScriptUseCase) record(target script.Target, attempt *script.Attempt, result RepairResult, repair string, cause error) {
	entry := output.JournalEntry{
		ID:        attempt.ID,
		Script:    target.Path(),
		Attempt:   attempt.Number,
		ExitCode:  attempt.ExitCode,
		Outcome:   string(attempt.Outcome),
		ElapsedMs: attempt.Duration.Milliseconds(),
		Repair:    repair,
		Backup:    result.Backup,
	}
	if cause != nil {
		entry.Error = cause.Error()
	}
	if err := uc.journal.Append(entry); err != nil {
		uc.logger.Warn("Failed to write journal entry: %v", err)
	}
}

// backoff doubles the delay for each consecutive unavailable round
type backoff struct {
	base    time.Duration
	max     time.Duration
	current time.Duration
}

func newBackoff(base, maxDelay time.Duration) *backoff {
	if base < 0 {
		base = DefaultRetryDelay
	}
	if maxDelay <= 0 {
		maxDelay = DefaultMaxRetryDelay
	}
	if maxDelay < base {
		maxDelay = base
	}
	return &backoff{base: base, max: maxDelay}
}

func (b *backoff) next() time.Duration {
	if b.current == 0 {
		b.current = b.base
	} else {
		b.current *= 2
		if b.current > b.max {
			b.current = b.max
		}
	}
	return b.current
}

func (b *backoff) reset() {
	b.current = 0
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
