package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cartao/internal/core"
)

func TestHTMXResponse_DefaultsToEmptyOK(t *testing.T) {
	w := httptest.NewRecorder()
	NewHTMXResponse().Write(w)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if w.Body.Len() != 0 || w.Header().Get("HX-Trigger") != "" {
		t.Errorf("unexpected body %q or trigger %q", w.Body.String(), w.Header().Get("HX-Trigger"))
	}
}

func TestHTMXResponse_Triggers(t *testing.T) {
	w := httptest.NewRecorder()
	NewHTMXResponse().
		TriggerInstallmentsChanged(core.NewPeriod(4, 2025)).
		TriggerSuccessNotification("Parcela paga").
		Write(w)

	var triggers map[string]map[string]any
	if err := json.Unmarshal([]byte(w.Header().Get("HX-Trigger")), &triggers); err != nil {
		t.Fatalf("HX-Trigger is not JSON: %v", err)
	}
	changed := triggers["installments:changed"]
	if changed["year"] != 2025.0 || changed["month"] != 4.0 {
		t.Errorf("installments:changed = %v", changed)
	}
	note := triggers["show-notification"]
	if note["type"] != "success" || note["message"] != "Parcela paga" || note["duration"] != 3000.0 {
		t.Errorf("show-notification = %v", note)
	}
}

func TestHTMXResponse_NotifyDurations(t *testing.T) {
	tests := []struct {
		kind NotificationType
		want float64
	}{
		{NotificationSuccess, 3000},
		{NotificationInfo, 3000},
		{NotificationWarning, 5000},
		{NotificationError, 5000},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			w := httptest.NewRecorder()
			NewHTMXResponse().Notify(tt.kind, "x").Write(w)

			var triggers map[string]map[string]any
			if err := json.Unmarshal([]byte(w.Header().Get("HX-Trigger")), &triggers); err != nil {
				t.Fatalf("HX-Trigger is not JSON: %v", err)
			}
			if got := triggers["show-notification"]["duration"]; got != tt.want {
				t.Errorf("duration = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHTMXResponse_LastNotificationWins(t *testing.T) {
	w := httptest.NewRecorder()
	NewHTMXResponse().
		TriggerSuccessNotification("first").
		TriggerErrorNotification("second").
		Write(w)

	trigger := w.Header().Get("HX-Trigger")
	if strings.Contains(trigger, "first") || !strings.Contains(trigger, "second") {
		t.Errorf("HX-Trigger = %s", trigger)
	}
}

func TestHTMXResponse_NavigationHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	NewHTMXResponse().Redirect("/people").Write(w)
	if got := w.Header().Get("HX-Redirect"); got != "/people" {
		t.Errorf("HX-Redirect = %q, want /people", got)
	}

	w = httptest.NewRecorder()
	NewHTMXResponse().Refresh().Header("X-Custom", "v").Write(w)
	if w.Header().Get("HX-Refresh") != "true" || w.Header().Get("X-Custom") != "v" {
		t.Errorf("headers = %v", w.Header())
	}
}

func TestHTMXResponse_ApplyHeadersLeavesStatus(t *testing.T) {
	w := httptest.NewRecorder()
	NewHTMXResponse().
		Status(http.StatusTeapot).
		TriggerInstallmentsChanged(core.NewPeriod(1, 2026)).
		ApplyHeaders(w)
	w.WriteHeader(http.StatusAccepted)

	if w.Code != http.StatusAccepted {
		t.Errorf("status = %d, want 202", w.Code)
	}
	if !strings.Contains(w.Header().Get("HX-Trigger"), "installments:changed") {
		t.Errorf("HX-Trigger = %q", w.Header().Get("HX-Trigger"))
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name       string
		resp       *HTMXResponseBuilder
		wantStatus int
		wantBody   string
	}{
		{"bad request", BadRequestError("Formato inválido"), http.StatusBadRequest, "Formato inválido"},
		{"conflict", ErrorResponse(http.StatusConflict, "Parcela já paga"), http.StatusConflict, "Parcela já paga"},
		{"escapes html", ErrorResponse(http.StatusUnprocessableEntity, "<script>x</script>"), http.StatusUnprocessableEntity, "&lt;script&gt;x&lt;/script&gt;"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.resp.Write(w)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			body := w.Body.String()
			if !strings.Contains(body, `class="alert alert-error"`) || !strings.Contains(body, tt.wantBody) {
				t.Errorf("body = %q, want alert containing %q", body, tt.wantBody)
			}
			if ct := w.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
				t.Errorf("Content-Type = %q", ct)
			}
		})
	}
}
