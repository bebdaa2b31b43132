package output

import "github.com/YoshitsuguKoike/evolve/internal/application/dto"

// RunPresenter renders the final report of an evolve run
type RunPresenter interface {
	PresentRun(report *dto.RunReport) error
}
