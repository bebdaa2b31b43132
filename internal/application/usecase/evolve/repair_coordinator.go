package evolve

import (
	"context"
	"errors"
	"fmt"

	"github.com/YoshitsuguKoike/evolve/internal/app"
	"github.com/YoshitsuguKoike/evolve/internal/application/port/output"
	"github.com/YoshitsuguKoike/evolve/internal/domain/model/script"
	"github.com/YoshitsuguKoike/evolve/internal/domain/service"
)

// RepairResult tells the loop what happened to the script during a repair round
type RepairResult struct {
	Applied bool
	// Backup is set when this round wrote the backup file
	Backup string
	// Cause holds the reason the repair service could not help
	Cause error
}

// RepairCoordinator asks the repair service for a corrected script and
// writes it over the live file, preserving the original once.
type RepairCoordinator struct {
	gateway output.RepairGateway
	scripts output.ScriptRepository
	logger  app.Logger
}

// NewRepairCoordinator creates a coordinator
func NewRepairCoordinator(gateway output.RepairGateway, scripts output.ScriptRepository, logger app.Logger) *RepairCoordinator {
	if logger == nil {
		logger = app.GetLogger()
	}
	return &RepairCoordinator{gateway: gateway, scripts: scripts, logger: logger}
}

// Repair handles one failed attempt. An unreachable or unhappy repair
// service is not an error: the file is left untouched and the result says
// so. Errors are returned only when the script or its backup cannot be
// read or written.
func (c *RepairCoordinator) Repair(ctx context.Context, target script.Target, session *script.RepairSession, crashLog string) (RepairResult, error) {
	c.logger.Error("Script crashed with the following error:\n%s", crashLog)

	// 1. Current body, including any directive added this attempt
	body, err := c.scripts.Load(target.Path())
	if err != nil {
		return RepairResult{}, fmt.Errorf("failed to read script: %w", err)
	}

	// 2. Ask for help
	c.logger.Info("Getting help...")
	resp, err := c.gateway.Repair(ctx, output.RepairRequest{
		ScriptFile: service.WrapInFence(body),
		CrashLog:   crashLog,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return RepairResult{}, ctxErr
		}
		if !errors.Is(err, script.ErrRepairUnavailable) {
			err = fmt.Errorf("%w: %v", script.ErrRepairUnavailable, err)
		}
		session.RecordUnavailable()
		c.logger.Warn("Repair unavailable, script left unchanged: %v", err)
		return RepairResult{Cause: err}, nil
	}

	// 3. Unwrap the corrected script
	replacement := service.ExtractFromFence(resp.Body)
	c.logger.Info("Corrected Script:\n%s", replacement)

	// 4. Preserve the original exactly once per run
	result := RepairResult{Applied: true}
	if session.NeedsBackup() {
		if err := c.scripts.SaveCopy(target.Path(), session.BackupPath(), body); err != nil {
			return RepairResult{}, fmt.Errorf("failed to write backup: %w", err)
		}
		session.MarkBackupWritten()
		result.Backup = session.BackupPath()
		c.logger.Info("Original script backed up as '%s'", session.BackupPath())
	}

	// 5. Overwrite the live script
	if err := c.scripts.Save(target.Path(), replacement); err != nil {
		return RepairResult{}, fmt.Errorf("failed to save corrected script: %w", err)
	}
	session.RecordRepair()
	c.logger.Info("Corrected script saved as: %s", target.Path())

	return result, nil
}
