package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	goption "google.golang.org/api/option"
)

type fakeSheets struct {
	mu      sync.Mutex
	titles  []string
	calls   []string
	added   string
	written [][]any
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	body, _ := io.ReadAll(r.Body)
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet:
		f.calls = append(f.calls, "get")
		sheets := make([]map[string]any, 0, len(f.titles))
		for _, t := range f.titles {
			sheets = append(sheets, map[string]any{"properties": map[string]any{"title": t}})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"spreadsheetId": "sheet-1", "sheets": sheets})
	case strings.HasSuffix(r.URL.Path, ":batchUpdate"):
		f.calls = append(f.calls, "add")
		var req struct {
			Requests []struct {
				AddSheet struct {
					Properties struct {
						Title string `json:"title"`
					} `json:"properties"`
				} `json:"addSheet"`
			} `json:"requests"`
		}
		_ = json.Unmarshal(body, &req)
		if len(req.Requests) == 1 {
			f.added = req.Requests[0].AddSheet.Properties.Title
			f.titles = append(f.titles, f.added)
		}
		_, _ = io.WriteString(w, `{"spreadsheetId":"sheet-1"}`)
	case strings.HasSuffix(r.URL.Path, ":clear"):
		f.calls = append(f.calls, "clear")
		_, _ = io.WriteString(w, `{"spreadsheetId":"sheet-1"}`)
	case r.Method == http.MethodPut:
		f.calls = append(f.calls, "update")
		var vr struct {
			Values [][]any `json:"values"`
		}
		_ = json.Unmarshal(body, &vr)
		f.written = vr.Values
		_ = json.NewEncoder(w).Encode(map[string]any{"updatedRows": len(vr.Values)})
	default:
		http.Error(w, `{"error":{"code":404}}`, http.StatusNotFound)
	}
}

func newFakeClient(t *testing.T, fake *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c, err := newWithOptions(context.Background(), "sheet-1",
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("newWithOptions: %v", err)
	}
	return c
}

func TestWriteTab_CreatesMissingTab(t *testing.T) {
	fake := &fakeSheets{titles: []string{"2025-03"}}
	c := newFakeClient(t, fake)

	rows := [][]any{{"Pessoa", "Total"}, {"Ana", 617.28}}
	if err := c.WriteTab(context.Background(), "2025-04", rows); err != nil {
		t.Fatalf("WriteTab: %v", err)
	}

	want := []string{"get", "add", "clear", "update"}
	if strings.Join(fake.calls, ",") != strings.Join(want, ",") {
		t.Fatalf("calls = %v, want %v", fake.calls, want)
	}
	if fake.added != "2025-04" {
		t.Errorf("added tab = %q, want 2025-04", fake.added)
	}
	if len(fake.written) != 2 || fake.written[1][0] != "Ana" || fake.written[1][1] != 617.28 {
		t.Errorf("written = %v", fake.written)
	}
}

func TestWriteTab_ExistingTabIsReplaced(t *testing.T) {
	fake := &fakeSheets{titles: []string{"2025-04"}}
	c := newFakeClient(t, fake)

	if err := c.WriteTab(context.Background(), "2025-04", [][]any{{"Pessoa"}}); err != nil {
		t.Fatalf("WriteTab: %v", err)
	}
	want := []string{"get", "clear", "update"}
	if strings.Join(fake.calls, ",") != strings.Join(want, ",") {
		t.Fatalf("calls = %v, want %v", fake.calls, want)
	}
}

func TestWriteTab_NilService(t *testing.T) {
	c := &Client{spreadsheetID: "sheet-1"}
	if err := c.WriteTab(context.Background(), "2025-04", nil); err == nil {
		t.Fatal("expected error without a service")
	}
}

func TestNew_Credentials(t *testing.T) {
	if _, err := New(context.Background(), Config{SpreadsheetID: "sheet-1"}); err == nil ||
		!strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("expected missing credentials error, got %v", err)
	}

	missing := filepath.Join(t.TempDir(), "missing.json")
	if _, err := New(context.Background(), Config{SpreadsheetID: "sheet-1", CredentialsFile: missing}); err == nil ||
		!strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("expected read error, got %v", err)
	}

	if _, err := newWithOptions(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty spreadsheet id")
	}
}

func TestServiceAccountJSON_Precedence(t *testing.T) {
	file := filepath.Join(t.TempDir(), "sa.json")
	if err := os.WriteFile(file, []byte(`{"from":"file"}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := serviceAccountJSON(Config{CredentialsJSON: `{"from":"env"}`, CredentialsFile: file})
	if err != nil || string(got) != `{"from":"env"}` {
		t.Fatalf("inline json: got %s, %v", got, err)
	}
	got, err = serviceAccountJSON(Config{CredentialsFile: file})
	if err != nil || string(got) != `{"from":"file"}` {
		t.Fatalf("file json: got %s, %v", got, err)
	}
}

func TestQuoteTab(t *testing.T) {
	tests := map[string]string{
		"2025-04":   "'2025-04'",
		"Ana's tab": "'Ana''s tab'",
	}
	for in, want := range tests {
		if got := quoteTab(in); got != want {
			t.Errorf("quoteTab(%q) = %q, want %q", in, got, want)
		}
	}
}
