package presenter

import (
	"fmt"
	"io"

	"github.com/YoshitsuguKoike/evolve/internal/application/dto"
	"github.com/YoshitsuguKoike/evolve/internal/application/port/output"
)

// Summary formats accepted by NewRunPresenter
const (
	FormatNone  = "none"
	FormatTable = "table"
	FormatJSON  = "json"
)

// NopPresenter renders nothing
type NopPresenter struct{}

// PresentRun implements output.RunPresenter
func (NopPresenter) PresentRun(*dto.RunReport) error { return nil }

// NewRunPresenter returns the presenter for format. An empty format is "none".
func NewRunPresenter(format string, w io.Writer) (output.RunPresenter, error) {
	switch format {
	case "", FormatNone:
		return NopPresenter{}, nil
	case FormatTable:
		return NewTablePresenter(w), nil
	case FormatJSON:
		return NewJSONPresenter(w), nil
	default:
		return nil, fmt.Errorf("unknown summary format %q (want none, table or json)", format)
	}
}
