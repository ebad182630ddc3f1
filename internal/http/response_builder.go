// Package http serves the web UI and the small JSON API.
package http

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"

	"cartao/internal/core"
)

// HTMXResponseBuilder assembles a response for HTMX clients: status, extra
// headers, HX-Trigger events and an optional HTML body.
type HTMXResponseBuilder struct {
	status   int
	header   http.Header
	triggers map[string]any
	body     []byte
}

func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{
		status:   http.StatusOK,
		header:   make(http.Header),
		triggers: make(map[string]any),
	}
}

func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.status = code
	return b
}

func (b *HTMXResponseBuilder) Header(name, value string) *HTMXResponseBuilder {
	b.header.Set(name, value)
	return b
}

// Redirect makes HTMX navigate to url after the request.
func (b *HTMXResponseBuilder) Redirect(url string) *HTMXResponseBuilder {
	return b.Header("HX-Redirect", url)
}

// Refresh makes HTMX reload the current page.
func (b *HTMXResponseBuilder) Refresh() *HTMXResponseBuilder {
	return b.Header("HX-Refresh", "true")
}

// Trigger adds an event to HX-Trigger. A later trigger with the same name
// replaces the earlier one.
func (b *HTMXResponseBuilder) Trigger(name string, data any) *HTMXResponseBuilder {
	b.triggers[name] = data
	return b
}

// TriggerInstallmentsChanged tells listeners which invoice period changed.
func (b *HTMXResponseBuilder) TriggerInstallmentsChanged(p core.Period) *HTMXResponseBuilder {
	return b.Trigger("installments:changed", map[string]int{"year": p.Year, "month": p.Month})
}

type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
	NotificationWarning NotificationType = "warning"
	NotificationInfo    NotificationType = "info"
)

// Notify shows a toast through the show-notification event. Errors and
// warnings stay on screen longer.
func (b *HTMXResponseBuilder) Notify(kind NotificationType, message string) *HTMXResponseBuilder {
	duration := 3000
	if kind == NotificationError || kind == NotificationWarning {
		duration = 5000
	}
	return b.Trigger("show-notification", map[string]any{
		"type":     string(kind),
		"message":  message,
		"duration": duration,
	})
}

func (b *HTMXResponseBuilder) TriggerSuccessNotification(message string) *HTMXResponseBuilder {
	return b.Notify(NotificationSuccess, message)
}

func (b *HTMXResponseBuilder) TriggerErrorNotification(message string) *HTMXResponseBuilder {
	return b.Notify(NotificationError, message)
}

// HTML sets an HTML body.
func (b *HTMXResponseBuilder) HTML(body string) *HTMXResponseBuilder {
	b.header.Set("Content-Type", "text/html; charset=utf-8")
	b.body = []byte(body)
	return b
}

// ApplyHeaders copies the headers and HX-Trigger onto w without writing the
// status, for handlers that render the body themselves.
func (b *HTMXResponseBuilder) ApplyHeaders(w http.ResponseWriter) {
	for name, values := range b.header {
		w.Header()[name] = values
	}
	if len(b.triggers) == 0 {
		return
	}
	data, err := json.Marshal(b.triggers)
	if err != nil {
		slog.Warn("Failed to encode HX-Trigger", "error", err)
		return
	}
	w.Header().Set("HX-Trigger", string(data))
}

func (b *HTMXResponseBuilder) Write(w http.ResponseWriter) {
	b.ApplyHeaders(w)
	w.WriteHeader(b.status)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// ErrorResponse renders message, escaped, as an alert fragment.
func ErrorResponse(status int, message string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(status).
		HTML(`<div class="alert alert-error">` + template.HTMLEscapeString(message) + `</div>`)
}

func BadRequestError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}
