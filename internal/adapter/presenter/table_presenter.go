package presenter

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/YoshitsuguKoike/evolve/internal/application/dto"
	"github.com/YoshitsuguKoike/evolve/internal/application/port/output"
)

// TablePresenter renders the run report as a two-column table
type TablePresenter struct {
	output io.Writer
}

// NewTablePresenter creates a new table presenter
func NewTablePresenter(output io.Writer) output.RunPresenter {
	return &TablePresenter{output: output}
}

// PresentRun renders the report
func (p *TablePresenter) PresentRun(report *dto.RunReport) error {
	backup := report.BackupPath
	if backup == "" {
		backup = "-"
	}

	table := tablewriter.NewWriter(p.output)
	table.Header("Field", "Value")

	rows := [][]string{
		{"Script", report.Script},
		{"Outcome", report.Outcome},
		{"Attempts", strconv.Itoa(report.Attempts)},
		{"Repairs", strconv.Itoa(report.Repairs)},
		{"Unavailable", strconv.Itoa(report.Unavailable)},
		{"Last exit code", strconv.Itoa(report.LastExit)},
		{"Backup", backup},
		{"Duration", report.Duration.Round(time.Millisecond).String()},
	}
	if report.Runtime != "" {
		rows = append(rows[:1], append([][]string{{"Runtime", report.Runtime}}, rows[1:]...)...)
	}
	if report.Error != "" {
		rows = append(rows, []string{"Error", report.Error})
	}

	for _, row := range rows {
		if err := table.Append(row[0], row[1]); err != nil {
			return fmt.Errorf("failed to render summary: %w", err)
		}
	}
	return table.Render()
}
