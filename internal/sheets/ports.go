package sheets

import (
	"context"

	"cartao/internal/core"
)

// Ports for outbound adapters.
type (
	// ReportWriter replaces the content of one tab of a spreadsheet.
	ReportWriter interface {
		WriteTab(ctx context.Context, tab string, rows [][]any) error
	}

	// MonthlyReporter returns the per-person breakdown of an invoice period.
	MonthlyReporter interface {
		Monthly(ctx context.Context, p core.Period) (core.MonthlySpending, error)
	}
)
