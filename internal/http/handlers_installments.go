package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cartao/internal/core"
)

type installmentsPage struct {
	Title        string
	Period       core.Period
	DueDate      core.Date
	Installments []core.InstallmentDetail
	Summary      core.MonthlySpending
	Periods      []periodOption
}

// handleInstallments lists the installments billed in one invoice period,
// the current one unless month and year say otherwise.
func (s *Server) handleInstallments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := ParsePeriodParams(r.URL.Query(), s.reports.CurrentPeriod())

	list, err := s.installments.ListByPeriod(ctx, p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	summary, err := s.reports.Monthly(ctx, p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	periods, err := s.reports.Periods(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.render(w, r, "installments.html", installmentsPage{
		Title:        "Parcelas",
		Period:       p,
		DueDate:      s.reports.DueDate(p),
		Installments: list,
		Summary:      summary,
		Periods:      periodOptions(periods, p),
	})
}

func (s *Server) handlePay(w http.ResponseWriter, r *http.Request) {
	if err := parseUploadForm(w, r); err != nil {
		s.writeUploadError(w, r, err)
		return
	}
	receipt, err := receiptFromRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	id := r.PathValue("id")
	if err := s.installments.Pay(r.Context(), id, receipt); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respondInstallment(w, r, id, "Parcela marcada como paga")
}

func (s *Server) handleUnpay(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.installments.Unpay(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respondInstallment(w, r, id, "Pagamento desfeito")
}

// respondInstallment answers a state change with the refreshed table row for
// HTMX clients and a redirect to the installment's period for plain forms.
func (s *Server) respondInstallment(w http.ResponseWriter, r *http.Request, id, message string) {
	inst, err := s.installments.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !isHTMX(r) {
		http.Redirect(w, r, installmentsURL(inst.Period), http.StatusSeeOther)
		return
	}

	NewHTMXResponse().
		TriggerInstallmentsChanged(inst.Period).
		TriggerSuccessNotification(message).
		ApplyHeaders(w)
	s.renderTemplate(w, r, "installments.html", "installment_row", http.StatusOK, inst)
}

func (s *Server) handleSettle(w http.ResponseWriter, r *http.Request) {
	if err := parseUploadForm(w, r); err != nil {
		s.writeUploadError(w, r, err)
		return
	}
	p, err := parseSettlePeriod(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	receipt, err := receiptFromRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	n, err := s.installments.Settle(r.Context(), sanitizeInput(r.FormValue("personId")), p, receipt)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !isHTMX(r) {
		http.Redirect(w, r, installmentsURL(p), http.StatusSeeOther)
		return
	}

	resp := NewHTMXResponse().
		Refresh().
		TriggerInstallmentsChanged(p)
	if n == 0 {
		resp.Notify(NotificationInfo, "Nenhuma parcela pendente neste período")
	} else {
		resp.TriggerSuccessNotification(fmt.Sprintf("%d parcela(s) marcada(s) como paga(s)", n))
	}
	resp.Write(w)
}

func parseSettlePeriod(r *http.Request) (core.Period, error) {
	month, err := strconv.Atoi(strings.TrimSpace(r.FormValue("month")))
	if err != nil {
		return core.Period{}, core.ErrInvalidMonth
	}
	year, err := strconv.Atoi(strings.TrimSpace(r.FormValue("year")))
	if err != nil {
		return core.Period{}, fmt.Errorf("%w: invalid year", core.ErrValidation)
	}
	p := core.NewPeriod(month, year)
	return p, p.Validate()
}

func (s *Server) writeUploadError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, core.ErrValidation) {
		s.writeError(w, r, err)
		return
	}
	slog.WarnContext(r.Context(), "Malformed upload", "error", err, "path", r.URL.Path)
	BadRequestError("Formato de requisição inválido").Write(w)
}

// handleReceipt streams the receipt image of an installment. References are
// immutable, so the response can be cached forever by the browser.
func (s *Server) handleReceipt(w http.ResponseWriter, r *http.Request) {
	obj, err := s.installments.Receipt(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", obj.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(obj.Data)))
	w.Header().Set("Cache-Control", "private, max-age=31536000, immutable")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(obj.Data)
}

type installmentJSON struct {
	ID                  string     `json:"id"`
	PurchaseID          string     `json:"purchaseId"`
	PurchaseDescription string     `json:"purchaseDescription"`
	PurchaseDate        string     `json:"purchaseDate"`
	PersonID            string     `json:"personId"`
	PersonName          string     `json:"personName"`
	Number              int        `json:"installmentNumber"`
	Count               int        `json:"installmentsCount"`
	Amount              float64    `json:"amount"`
	Month               int        `json:"invoiceMonth"`
	Year                int        `json:"invoiceYear"`
	Status              string     `json:"status"`
	PaidAt              *time.Time `json:"paidAt,omitempty"`
	HasReceipt          bool       `json:"hasReceipt"`
}

func newInstallmentJSON(d core.InstallmentDetail) installmentJSON {
	return installmentJSON{
		ID:                  d.ID,
		PurchaseID:          d.PurchaseID,
		PurchaseDescription: d.PurchaseDescription,
		PurchaseDate:        d.PurchaseDate.String(),
		PersonID:            d.PersonID,
		PersonName:          d.PersonName,
		Number:              d.Number,
		Count:               d.InstallmentsCount,
		Amount:              d.Amount.InexactFloat64(),
		Month:               d.Period.Month,
		Year:                d.Period.Year,
		Status:              string(d.Status),
		PaidAt:              d.PaidAt,
		HasReceipt:          d.PaymentReceipt != "",
	}
}

// handleInstallmentsAPI lists installments as JSON across all invoice
// periods, either of one person (?person=) or every pending one
// (?status=pending). Both together give the pending installments of a person.
func (s *Server) handleInstallmentsAPI(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	personID := strings.TrimSpace(q.Get("person"))
	status := strings.ToLower(strings.TrimSpace(q.Get("status")))
	if status != "" && status != "pending" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status must be pending"})
		return
	}
	if personID == "" && status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "person or status is required"})
		return
	}

	var (
		list []core.InstallmentDetail
		err  error
	)
	if personID != "" {
		list, err = s.installments.ListByPerson(r.Context(), personID)
	} else {
		list, err = s.installments.ListPending(r.Context())
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Installment listing failed", "error", err, "person", personID)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	out := make([]installmentJSON, 0, len(list))
	for _, d := range list {
		if status == "pending" && d.IsPaid() {
			continue
		}
		out = append(out, newInstallmentJSON(d))
	}
	writeJSON(w, http.StatusOK, out)
}

func installmentsURL(p core.Period) string {
	return fmt.Sprintf("/installments?month=%d&year=%d", p.Month, p.Year)
}
