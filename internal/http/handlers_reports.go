package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"cartao/internal/core"
)

type reportsPage struct {
	Title    string
	ByPerson []core.PersonSpending
	Monthly  core.MonthlySpending
	Periods  []periodOption
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := ParsePeriodParams(r.URL.Query(), s.reports.CurrentPeriod())

	byPerson, err := s.reports.SpendingByPerson(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	monthly, err := s.reports.Monthly(ctx, p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	periods, err := s.reports.Periods(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.render(w, r, "reports.html", reportsPage{
		Title:    "Relatórios",
		ByPerson: byPerson,
		Monthly:  monthly,
		Periods:  periodOptions(periods, p),
	})
}

type personSpendingJSON struct {
	PersonID              string  `json:"personId"`
	PersonName            string  `json:"personName"`
	TotalAmount           float64 `json:"totalAmount"`
	PaidAmount            float64 `json:"paidAmount"`
	PendingAmount         float64 `json:"pendingAmount"`
	InstallmentsCount     int     `json:"installmentsCount"`
	PaidInstallmentsCount int     `json:"paidInstallmentsCount"`
}

type monthlySpendingJSON struct {
	Month         int                  `json:"month"`
	Year          int                  `json:"year"`
	TotalAmount   float64              `json:"totalAmount"`
	PaidAmount    float64              `json:"paidAmount"`
	PendingAmount float64              `json:"pendingAmount"`
	ByPerson      []personSpendingJSON `json:"byPerson"`
}

func newMonthlySpendingJSON(m core.MonthlySpending) monthlySpendingJSON {
	out := monthlySpendingJSON{
		Month:         m.Period.Month,
		Year:          m.Period.Year,
		TotalAmount:   m.TotalAmount.InexactFloat64(),
		PaidAmount:    m.PaidAmount.InexactFloat64(),
		PendingAmount: m.PendingAmount.InexactFloat64(),
		ByPerson:      make([]personSpendingJSON, 0, len(m.ByPerson)),
	}
	for _, ps := range m.ByPerson {
		out.ByPerson = append(out.ByPerson, personSpendingJSON{
			PersonID:              ps.PersonID,
			PersonName:            ps.PersonName,
			TotalAmount:           ps.TotalAmount.InexactFloat64(),
			PaidAmount:            ps.PaidAmount.InexactFloat64(),
			PendingAmount:         ps.PendingAmount.InexactFloat64(),
			InstallmentsCount:     ps.InstallmentsCount,
			PaidInstallmentsCount: ps.PaidInstallmentsCount,
		})
	}
	return out
}

// handleMonthlyReportAPI serves the monthly spending report as JSON.
// Missing month or year default to the current invoice period.
func (s *Server) handleMonthlyReportAPI(w http.ResponseWriter, r *http.Request) {
	p, err := parseReportPeriod(r.URL.Query(), s.reports.CurrentPeriod())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	monthly, err := s.reports.Monthly(r.Context(), p)
	if err != nil {
		slog.ErrorContext(r.Context(), "Monthly report failed", "error", err, "period", p.String())
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, newMonthlySpendingJSON(monthly))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to encode JSON response", "error", err)
	}
}

// periodOption is one entry of the invoice period selector.
type periodOption struct {
	Period   core.Period
	Selected bool
}

// periodOptions marks selected in periods, adding it when missing so the
// selector always shows what is displayed.
func periodOptions(periods []core.Period, selected core.Period) []periodOption {
	out := make([]periodOption, 0, len(periods)+1)
	found := false
	for _, p := range periods {
		out = append(out, periodOption{Period: p, Selected: p == selected})
		found = found || p == selected
	}
	if !found {
		out = append(out, periodOption{Period: selected, Selected: true})
	}
	return out
}
