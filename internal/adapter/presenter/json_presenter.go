package presenter

import (
	"encoding/json"
	"io"

	"github.com/YoshitsuguKoike/evolve/internal/application/dto"
	"github.com/YoshitsuguKoike/evolve/internal/application/port/output"
)

// JSONPresenter writes the run report as a single JSON object
// for programmatic consumption
type JSONPresenter struct {
	output io.Writer
}

// NewJSONPresenter creates a new JSON presenter
func NewJSONPresenter(output io.Writer) output.RunPresenter {
	return &JSONPresenter{output: output}
}

// PresentRun encodes the report
func (p *JSONPresenter) PresentRun(report *dto.RunReport) error {
	result := map[string]interface{}{
		"success":        report.Succeeded(),
		"script":         report.Script,
		"attempts":       report.Attempts,
		"repairs":        report.Repairs,
		"unavailable":    report.Unavailable,
		"outcome":        report.Outcome,
		"last_exit_code": report.LastExit,
		"duration_ms":    report.Duration.Milliseconds(),
	}
	if report.Runtime != "" {
		result["runtime"] = report.Runtime
	}
	if report.BackupPath != "" {
		result["backup_path"] = report.BackupPath
	}
	if report.Error != "" {
		result["error"] = report.Error
	}
	return json.NewEncoder(p.output).Encode(result)
}
