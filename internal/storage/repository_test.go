package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"cartao/internal/core"

	"github.com/shopspring/decimal"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "cartao.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

var testCycle = core.BillingCycle{TurnoverDay: 2, DueDay: 12}

func createTestPurchase(t *testing.T, repo *SQLiteRepository, personID string, date core.Date, total string, count int) core.Purchase {
	t.Helper()
	in := core.PurchaseInput{
		PersonID:          personID,
		PurchaseDate:      date,
		Description:       "test purchase",
		TotalAmount:       decimal.RequireFromString(total),
		InstallmentsCount: count,
	}
	plans := core.GenerateInstallments(testCycle, date, in.TotalAmount, count)
	p, err := repo.CreatePurchase(context.Background(), in, plans)
	if err != nil {
		t.Fatalf("create purchase: %v", err)
	}
	return p
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cartao.db")
	first, err := RunMigrations(path)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first != 1 {
		t.Errorf("schema version = %d, want 1", first)
	}
	second, err := RunMigrations(path)
	if err != nil || second != first {
		t.Fatalf("second run = %d, %v; want %d, nil", second, err, first)
	}
}

func TestPeopleCRUD(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	bruno, err := repo.CreatePerson(ctx, "Bruno")
	if err != nil {
		t.Fatalf("create person: %v", err)
	}
	if _, err := repo.CreatePerson(ctx, "Ana"); err != nil {
		t.Fatalf("create person: %v", err)
	}

	people, err := repo.ListPeople(ctx)
	if err != nil {
		t.Fatalf("list people: %v", err)
	}
	if len(people) != 2 || people[0].Name != "Ana" || people[1].Name != "Bruno" {
		t.Fatalf("unexpected people: %+v", people)
	}

	renamed, err := repo.RenamePerson(ctx, bruno.ID, "Bruno S.")
	if err != nil || renamed.Name != "Bruno S." {
		t.Fatalf("rename: %+v (err=%v)", renamed, err)
	}

	if _, err := repo.RenamePerson(ctx, "missing", "x"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.GetPerson(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.DeletePerson(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreatePurchasePersistsInstallments(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	person, _ := repo.CreatePerson(ctx, "Ana")

	p := createTestPurchase(t, repo, person.ID, core.NewDate(2024, 10, 15), "100.00", 3)
	if p.PersonName != "Ana" || p.InstallmentsCount != 3 {
		t.Fatalf("unexpected purchase: %+v", p)
	}
	if len(p.Installments) != 3 {
		t.Fatalf("expected 3 installments, got %d", len(p.Installments))
	}
	want := []string{"33.33", "33.33", "33.34"}
	for i, inst := range p.Installments {
		if !inst.Amount.Equal(decimal.RequireFromString(want[i])) {
			t.Fatalf("installment %d: expected %s, got %s", i+1, want[i], inst.Amount)
		}
		if inst.Status != core.StatusPending || inst.PaidAt != nil || inst.PaymentReceipt != "" {
			t.Fatalf("installment %d not pending: %+v", i+1, inst)
		}
	}
	if p.Installments[2].Period != (core.Period{Month: 1, Year: 2025}) {
		t.Fatalf("third installment expected 2025-01, got %s", p.Installments[2].Period)
	}
}

func TestCreatePurchaseUnknownPerson(t *testing.T) {
	repo := newTestRepo(t)
	in := core.PurchaseInput{
		PersonID:          "nobody",
		PurchaseDate:      core.NewDate(2025, 1, 1),
		TotalAmount:       decimal.NewFromInt(10),
		InstallmentsCount: 1,
	}
	plans := core.GenerateInstallments(testCycle, in.PurchaseDate, in.TotalAmount, 1)
	if _, err := repo.CreatePurchase(context.Background(), in, plans); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMarkPaidAndPending(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	person, _ := repo.CreatePerson(ctx, "Ana")
	p := createTestPurchase(t, repo, person.ID, core.NewDate(2025, 1, 10), "50.00", 2)
	id := p.Installments[0].ID
	paidAt := time.Date(2025, 2, 10, 14, 30, 0, 0, time.UTC)

	if _, _, err := repo.MarkPending(ctx, id); !errors.Is(err, core.ErrNotPaid) {
		t.Fatalf("expected ErrNotPaid, got %v", err)
	}

	if err := repo.MarkPaid(ctx, id, paidAt, "receipts/a.png"); err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if err := repo.MarkPaid(ctx, id, paidAt, ""); !errors.Is(err, core.ErrAlreadyPaid) {
		t.Fatalf("expected ErrAlreadyPaid, got %v", err)
	}

	d, err := repo.GetInstallment(ctx, id)
	if err != nil {
		t.Fatalf("get installment: %v", err)
	}
	if d.Status != core.StatusPaid || d.PaidAt == nil || !d.PaidAt.Equal(paidAt) || d.PaymentReceipt != "receipts/a.png" {
		t.Fatalf("unexpected paid installment: %+v", d.Installment)
	}
	if d.PersonName != "Ana" || d.InstallmentsCount != 2 {
		t.Fatalf("unexpected detail: %+v", d)
	}

	ref, orphaned, err := repo.MarkPending(ctx, id)
	if err != nil {
		t.Fatalf("mark pending: %v", err)
	}
	if ref != "receipts/a.png" || !orphaned {
		t.Fatalf("expected orphaned receipts/a.png, got %q orphaned=%v", ref, orphaned)
	}
	d, _ = repo.GetInstallment(ctx, id)
	if d.Status != core.StatusPending || d.PaidAt != nil || d.PaymentReceipt != "" {
		t.Fatalf("installment not reset: %+v", d.Installment)
	}

	if err := repo.MarkPaid(ctx, "missing", paidAt, ""); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSettlePeriod(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	ana, _ := repo.CreatePerson(ctx, "Ana")
	bruno, _ := repo.CreatePerson(ctx, "Bruno")

	// Both land on the 2025-02 invoice first.
	p1 := createTestPurchase(t, repo, ana.ID, core.NewDate(2025, 1, 10), "30.00", 3)
	createTestPurchase(t, repo, ana.ID, core.NewDate(2025, 1, 20), "10.00", 1)
	createTestPurchase(t, repo, bruno.ID, core.NewDate(2025, 1, 20), "99.00", 1)

	period := core.Period{Month: 2, Year: 2025}
	paidAt := time.Date(2025, 2, 12, 9, 0, 0, 0, time.UTC)

	// One installment already paid in the period keeps its own data.
	earlier := paidAt.Add(-24 * time.Hour)
	if err := repo.MarkPaid(ctx, p1.Installments[0].ID, earlier, "receipts/own.png"); err != nil {
		t.Fatalf("mark paid: %v", err)
	}

	n, err := repo.SettlePeriod(ctx, ana.ID, period, paidAt, "receipts/shared.png")
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 updated installment, got %d", n)
	}

	insts, err := repo.ListInstallmentsByPeriod(ctx, period)
	if err != nil {
		t.Fatalf("list by period: %v", err)
	}
	for _, d := range insts {
		switch d.PersonID {
		case ana.ID:
			if d.Status != core.StatusPaid {
				t.Fatalf("ana installment not paid: %+v", d.Installment)
			}
			if d.ID == p1.Installments[0].ID {
				if !d.PaidAt.Equal(earlier) || d.PaymentReceipt != "receipts/own.png" {
					t.Fatalf("already paid installment was overwritten: %+v", d.Installment)
				}
			} else if !d.PaidAt.Equal(paidAt) || d.PaymentReceipt != "receipts/shared.png" {
				t.Fatalf("settled installment has wrong payment data: %+v", d.Installment)
			}
		case bruno.ID:
			if d.Status != core.StatusPending {
				t.Fatalf("bruno installment was settled: %+v", d.Installment)
			}
		}
	}

	// Nothing left to settle.
	n, err = repo.SettlePeriod(ctx, ana.ID, period, paidAt, "")
	if err != nil || n != 0 {
		t.Fatalf("expected 0 updated, got %d (err=%v)", n, err)
	}

	if _, err := repo.SettlePeriod(ctx, "missing", period, paidAt, ""); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSharedReceiptIsOrphanedOnlyWhenUnused(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	ana, _ := repo.CreatePerson(ctx, "Ana")
	p1 := createTestPurchase(t, repo, ana.ID, core.NewDate(2025, 1, 10), "10.00", 1)
	p2 := createTestPurchase(t, repo, ana.ID, core.NewDate(2025, 1, 11), "20.00", 1)

	period := core.Period{Month: 2, Year: 2025}
	if _, err := repo.SettlePeriod(ctx, ana.ID, period, time.Now(), "receipts/shared.png"); err != nil {
		t.Fatalf("settle: %v", err)
	}

	_, orphaned, err := repo.MarkPending(ctx, p1.Installments[0].ID)
	if err != nil || orphaned {
		t.Fatalf("receipt still used by another installment, orphaned=%v err=%v", orphaned, err)
	}

	refs, err := repo.DeletePurchase(ctx, p2.ID)
	if err != nil {
		t.Fatalf("delete purchase: %v", err)
	}
	if len(refs) != 1 || refs[0] != "receipts/shared.png" {
		t.Fatalf("expected shared receipt to be released, got %v", refs)
	}
}

func TestDeletePersonCascades(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	ana, _ := repo.CreatePerson(ctx, "Ana")
	p := createTestPurchase(t, repo, ana.ID, core.NewDate(2025, 1, 10), "10.00", 2)
	if err := repo.MarkPaid(ctx, p.Installments[0].ID, time.Now(), "receipts/a.png"); err != nil {
		t.Fatalf("mark paid: %v", err)
	}

	refs, err := repo.DeletePerson(ctx, ana.ID)
	if err != nil {
		t.Fatalf("delete person: %v", err)
	}
	if len(refs) != 1 || refs[0] != "receipts/a.png" {
		t.Fatalf("expected released receipt, got %v", refs)
	}
	if _, err := repo.GetPurchase(ctx, p.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected purchase to be gone, got %v", err)
	}
	counts, err := repo.DashboardCounts(ctx)
	if err != nil {
		t.Fatalf("dashboard counts: %v", err)
	}
	if counts != (DashboardCounts{}) {
		t.Fatalf("expected empty database, got %+v", counts)
	}
}

func TestListingsAndSpendingRows(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	ana, _ := repo.CreatePerson(ctx, "Ana")
	bruno, _ := repo.CreatePerson(ctx, "Bruno")
	createTestPurchase(t, repo, ana.ID, core.NewDate(2025, 1, 10), "30.00", 3)
	createTestPurchase(t, repo, bruno.ID, core.NewDate(2025, 3, 1), "15.00", 1)

	all, err := repo.ListPurchases(ctx, "", 0)
	if err != nil || len(all) != 2 {
		t.Fatalf("expected 2 purchases, got %d (err=%v)", len(all), err)
	}
	if all[0].PersonID != bruno.ID {
		t.Fatalf("expected newest purchase first, got %+v", all[0])
	}
	if len(all[1].Installments) != 3 {
		t.Fatalf("expected installments to be attached, got %d", len(all[1].Installments))
	}

	mine, _ := repo.ListPurchases(ctx, ana.ID, 0)
	if len(mine) != 1 {
		t.Fatalf("expected 1 purchase for ana, got %d", len(mine))
	}
	recent, _ := repo.ListPurchases(ctx, "", 1)
	if len(recent) != 1 {
		t.Fatalf("expected limit to apply, got %d", len(recent))
	}

	march := core.Period{Month: 3, Year: 2025}
	rows, err := repo.SpendingRowsByPeriod(ctx, march)
	if err != nil {
		t.Fatalf("spending rows: %v", err)
	}
	ms := core.SummarizePeriod(march, rows)
	if !ms.TotalAmount.Equal(decimal.RequireFromString("25")) || len(ms.ByPerson) != 2 {
		t.Fatalf("unexpected march summary: %+v", ms)
	}

	periods, err := repo.InvoicePeriods(ctx)
	if err != nil {
		t.Fatalf("invoice periods: %v", err)
	}
	if len(periods) != 3 || periods[0] != (core.Period{Month: 4, Year: 2025}) || periods[1] != march {
		t.Fatalf("unexpected periods: %v", periods)
	}

	pending, _ := repo.ListPendingInstallments(ctx)
	if len(pending) != 4 {
		t.Fatalf("expected 4 pending, got %d", len(pending))
	}
	byPerson, _ := repo.ListInstallmentsByPerson(ctx, ana.ID)
	if len(byPerson) != 3 || byPerson[0].Period != (core.Period{Month: 4, Year: 2025}) {
		t.Fatalf("unexpected installments by person: %+v", byPerson)
	}
}
