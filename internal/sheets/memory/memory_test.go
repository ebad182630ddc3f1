package memory

import (
	"context"
	"testing"
)

func TestStoreWriteTabCopiesRows(t *testing.T) {
	s := New()
	rows := [][]any{{"Pessoa", "Total"}, {"Ana", 10.5}}
	if err := s.WriteTab(context.Background(), "2025-04", rows); err != nil {
		t.Fatalf("WriteTab: %v", err)
	}
	rows[1][0] = "changed"

	got, ok := s.Tab("2025-04")
	if !ok || len(got) != 2 || got[1][0] != "Ana" {
		t.Fatalf("unexpected tab: %v %v", got, ok)
	}
	if _, ok := s.Tab("2025-05"); ok {
		t.Error("unexpected tab 2025-05")
	}
}
