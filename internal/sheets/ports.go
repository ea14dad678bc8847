package sheets

import (
	"context"
	"time"

	"tracker/internal/core"
)

// Export is one snapshot of the dashboard list pushed to a spreadsheet.
type Export struct {
	SessionID string
	Filters   core.Filters
	Expenses  []core.Expense
	At        time.Time
}

// Result tells where the rows landed.
type Result struct {
	Range string
	Rows  int
}

// Exporter is the outbound port for spreadsheet export.
type Exporter interface {
	Export(ctx context.Context, e Export) (Result, error)
}
