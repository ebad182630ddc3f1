package http

import (
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"cartao/internal/core"
	applog "cartao/internal/log"
)

var monthNames = [...]string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

// monthName returns the Portuguese name of month (1-12).
func monthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return monthNames[month-1]
}

func periodLabel(p core.Period) string {
	return monthName(p.Month) + " " + strconv.Itoa(p.Year)
}

// formatBRL formats an amount as Brazilian reais, e.g. "R$ 1.234,56".
func formatBRL(d decimal.Decimal) string {
	neg := d.IsNegative()
	s := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(c)
	}
	out := "R$ " + b.String() + "," + frac
	if neg {
		return "-" + out
	}
	return out
}

func formatDate(d core.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.Format("02/01/2006")
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

var templateFuncs = template.FuncMap{
	"brl":         formatBRL,
	"date":        formatDate,
	"monthName":   monthName,
	"periodLabel": periodLabel,
	"isPaid":      func(s core.Status) bool { return s == core.StatusPaid },
	"add":         func(a, b int) int { return a + b },
	"months":      func() []int { return []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12} },
}

// userMessage strips the error category prefix so the message reads well in
// the UI, e.g. "validation error: invalid amount" becomes "invalid amount".
func userMessage(err error) string {
	msg := err.Error()
	for _, category := range []error{core.ErrValidation, core.ErrInvalidState, core.ErrNotFound} {
		if rest, ok := strings.CutPrefix(msg, category.Error()+": "); ok {
			return rest
		}
	}
	return msg
}

// writeError maps domain errors onto HTTP statuses: validation 422, invalid
// state 409, not found 404. Anything else is logged and answered with a
// generic 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	var msg string
	switch {
	case errors.Is(err, core.ErrValidation):
		status, msg = http.StatusUnprocessableEntity, userMessage(err)
	case errors.Is(err, core.ErrInvalidState):
		status, msg = http.StatusConflict, userMessage(err)
	case errors.Is(err, core.ErrNotFound):
		status, msg = http.StatusNotFound, "Registro não encontrado"
	default:
		fields := applog.NewFields().
			WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.UserAgent()).
			WithError(err)
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed", fields.ToSlice()...)
		status, msg = http.StatusInternalServerError, "Erro interno, tente novamente"
	}
	ErrorResponse(status, msg).TriggerErrorNotification(msg).Write(w)
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// redirect sends HTMX clients an HX-Redirect and everyone else a 303.
func redirect(w http.ResponseWriter, r *http.Request, url string) {
	if isHTMX(r) {
		NewHTMXResponse().Redirect(url).Write(w)
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}
