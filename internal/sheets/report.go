package sheets

import (
	"context"
	"fmt"
	"log/slog"

	"cartao/internal/core"
)

var reportHeader = []any{"Pessoa", "Total", "Pago", "Pendente", "Parcelas", "Pagas"}

// TabName is the spreadsheet tab holding the report of p, e.g. "2025-04".
func TabName(p core.Period) string {
	return p.String()
}

// BuildReportRows lays out a monthly report as a header row, one row per
// person and a closing total row. Amounts are written as numbers.
func BuildReportRows(m core.MonthlySpending) [][]any {
	rows := make([][]any, 0, len(m.ByPerson)+2)
	rows = append(rows, reportHeader)

	var count, paid int
	for _, ps := range m.ByPerson {
		rows = append(rows, []any{
			ps.PersonName,
			ps.TotalAmount.InexactFloat64(),
			ps.PaidAmount.InexactFloat64(),
			ps.PendingAmount.InexactFloat64(),
			ps.InstallmentsCount,
			ps.PaidInstallmentsCount,
		})
		count += ps.InstallmentsCount
		paid += ps.PaidInstallmentsCount
	}

	rows = append(rows, []any{
		"Total",
		m.TotalAmount.InexactFloat64(),
		m.PaidAmount.InexactFloat64(),
		m.PendingAmount.InexactFloat64(),
		count,
		paid,
	})
	return rows
}

// Export writes the report of p into its tab.
func Export(ctx context.Context, reporter MonthlyReporter, w ReportWriter, p core.Period) error {
	m, err := reporter.Monthly(ctx, p)
	if err != nil {
		return fmt.Errorf("build report %s: %w", p, err)
	}
	tab := TabName(p)
	rows := BuildReportRows(m)
	if err := w.WriteTab(ctx, tab, rows); err != nil {
		return fmt.Errorf("write tab %s: %w", tab, err)
	}
	slog.InfoContext(ctx, "Report exported",
		"period", p.String(),
		"tab", tab,
		"people", len(m.ByPerson),
		"total", m.TotalAmount.StringFixed(2))
	return nil
}
