package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cartao/internal/core"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

// DashboardCounts holds the headline counters shown on the dashboard.
type DashboardCounts struct {
	People              int
	Purchases           int
	PendingInstallments int
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}, nil
}

// dsn enables foreign keys on every pooled connection; cascading deletes
// depend on it.
func dsn(dbPath string) string {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) withTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(r.queries.WithTx(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func notFound(kind, id string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", kind, id, core.ErrNotFound)
	}
	return fmt.Errorf("get %s: %w", kind, err)
}

// ---- people ----

func (r *SQLiteRepository) CreatePerson(ctx context.Context, name string) (core.Person, error) {
	p, err := r.queries.CreatePerson(ctx, CreatePersonParams{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: r.now().UnixMilli(),
	})
	if err != nil {
		return core.Person{}, fmt.Errorf("create person: %w", err)
	}

	slog.InfoContext(ctx, "Person saved to SQLite", "person_id", p.ID, "name", p.Name)
	return toPerson(p), nil
}

func (r *SQLiteRepository) GetPerson(ctx context.Context, id string) (core.Person, error) {
	p, err := r.queries.GetPerson(ctx, id)
	if err != nil {
		return core.Person{}, notFound("person", id, err)
	}
	return toPerson(p), nil
}

func (r *SQLiteRepository) ListPeople(ctx context.Context) ([]core.Person, error) {
	rows, err := r.queries.ListPeople(ctx)
	if err != nil {
		return nil, fmt.Errorf("list people: %w", err)
	}
	people := make([]core.Person, 0, len(rows))
	for _, p := range rows {
		people = append(people, toPerson(p))
	}
	return people, nil
}

func (r *SQLiteRepository) RenamePerson(ctx context.Context, id, name string) (core.Person, error) {
	n, err := r.queries.UpdatePersonName(ctx, UpdatePersonNameParams{Name: name, ID: id})
	if err != nil {
		return core.Person{}, fmt.Errorf("update person: %w", err)
	}
	if n == 0 {
		return core.Person{}, fmt.Errorf("person %s: %w", id, core.ErrNotFound)
	}
	return r.GetPerson(ctx, id)
}

// DeletePerson removes a person together with their purchases and
// installments. It returns the receipt references that are no longer used by
// any installment.
func (r *SQLiteRepository) DeletePerson(ctx context.Context, id string) ([]string, error) {
	var orphaned []string
	err := r.withTx(ctx, func(q *Queries) error {
		refs, err := q.ListReceiptsByPerson(ctx, id)
		if err != nil {
			return fmt.Errorf("list person receipts: %w", err)
		}
		n, err := q.DeletePerson(ctx, id)
		if err != nil {
			return fmt.Errorf("delete person: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("person %s: %w", id, core.ErrNotFound)
		}
		orphaned, err = unreferenced(ctx, q, refs)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Person deleted from SQLite", "person_id", id, "released_receipts", len(orphaned))
	return orphaned, nil
}

func unreferenced(ctx context.Context, q *Queries, refs []string) ([]string, error) {
	var out []string
	for _, ref := range refs {
		n, err := q.CountReceiptReferences(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("count receipt references: %w", err)
		}
		if n == 0 {
			out = append(out, ref)
		}
	}
	return out, nil
}

// ---- purchases ----

// CreatePurchase stores a purchase and its installments atomically.
func (r *SQLiteRepository) CreatePurchase(ctx context.Context, in core.PurchaseInput, plans []core.InstallmentPlan) (core.Purchase, error) {
	purchaseID := uuid.NewString()
	err := r.withTx(ctx, func(q *Queries) error {
		if _, err := q.GetPerson(ctx, in.PersonID); err != nil {
			return notFound("person", in.PersonID, err)
		}
		err := q.CreatePurchase(ctx, CreatePurchaseParams{
			ID:                purchaseID,
			PersonID:          in.PersonID,
			PurchaseDate:      in.PurchaseDate.String(),
			Description:       nullString(in.Description),
			TotalAmountCents:  core.ToCents(in.TotalAmount),
			InstallmentsCount: int64(in.InstallmentsCount),
			CreatedAt:         r.now().UnixMilli(),
		})
		if err != nil {
			return fmt.Errorf("create purchase: %w", err)
		}
		for _, plan := range plans {
			err := q.CreateInstallment(ctx, CreateInstallmentParams{
				ID:                uuid.NewString(),
				PurchaseID:        purchaseID,
				InstallmentNumber: int64(plan.Number),
				AmountCents:       core.ToCents(plan.Amount),
				InvoiceMonth:      int64(plan.Period.Month),
				InvoiceYear:       int64(plan.Period.Year),
			})
			if err != nil {
				return fmt.Errorf("create installment %d: %w", plan.Number, err)
			}
		}
		return nil
	})
	if err != nil {
		return core.Purchase{}, err
	}

	slog.InfoContext(ctx, "Purchase saved to SQLite",
		"purchase_id", purchaseID,
		"person_id", in.PersonID,
		"amount", in.TotalAmount.StringFixed(2),
		"installments", len(plans))

	return r.GetPurchase(ctx, purchaseID)
}

func (r *SQLiteRepository) GetPurchase(ctx context.Context, id string) (core.Purchase, error) {
	row, err := r.queries.GetPurchase(ctx, id)
	if err != nil {
		return core.Purchase{}, notFound("purchase", id, err)
	}
	insts, err := r.queries.ListInstallmentsByPurchase(ctx, id)
	if err != nil {
		return core.Purchase{}, fmt.Errorf("list installments: %w", err)
	}
	p, err := toPurchase(row)
	if err != nil {
		return core.Purchase{}, err
	}
	for _, i := range insts {
		p.Installments = append(p.Installments, toInstallment(i))
	}
	return p, nil
}

// ListPurchases returns purchases, newest first, with their installments.
// An empty personID lists everyone; limit <= 0 means no limit.
func (r *SQLiteRepository) ListPurchases(ctx context.Context, personID string, limit int) ([]core.Purchase, error) {
	lim := int64(limit)
	if limit <= 0 {
		lim = -1
	}
	rows, err := r.queries.ListPurchases(ctx, ListPurchasesParams{PersonID: personID, Limit: lim})
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	insts, err := r.queries.ListPurchaseInstallments(ctx, personID)
	if err != nil {
		return nil, fmt.Errorf("list purchase installments: %w", err)
	}
	byPurchase := make(map[string][]core.Installment, len(rows))
	for _, i := range insts {
		byPurchase[i.PurchaseID] = append(byPurchase[i.PurchaseID], toInstallment(i))
	}

	purchases := make([]core.Purchase, 0, len(rows))
	for _, row := range rows {
		p, err := toPurchase(row)
		if err != nil {
			return nil, err
		}
		p.Installments = byPurchase[p.ID]
		purchases = append(purchases, p)
	}
	return purchases, nil
}

// DeletePurchase removes a purchase and its installments. It returns the
// receipt references that are no longer used by any installment.
func (r *SQLiteRepository) DeletePurchase(ctx context.Context, id string) ([]string, error) {
	var orphaned []string
	err := r.withTx(ctx, func(q *Queries) error {
		refs, err := q.ListReceiptsByPurchase(ctx, id)
		if err != nil {
			return fmt.Errorf("list purchase receipts: %w", err)
		}
		n, err := q.DeletePurchase(ctx, id)
		if err != nil {
			return fmt.Errorf("delete purchase: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("purchase %s: %w", id, core.ErrNotFound)
		}
		orphaned, err = unreferenced(ctx, q, refs)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Purchase deleted from SQLite", "purchase_id", id, "released_receipts", len(orphaned))
	return orphaned, nil
}

// ---- installments ----

func (r *SQLiteRepository) GetInstallment(ctx context.Context, id string) (core.InstallmentDetail, error) {
	row, err := r.queries.GetInstallmentDetail(ctx, id)
	if err != nil {
		return core.InstallmentDetail{}, notFound("installment", id, err)
	}
	return toInstallmentDetail(row)
}

func (r *SQLiteRepository) ListInstallmentsByPeriod(ctx context.Context, p core.Period) ([]core.InstallmentDetail, error) {
	rows, err := r.queries.ListInstallmentsByPeriod(ctx, ListInstallmentsByPeriodParams{
		InvoiceMonth: int64(p.Month),
		InvoiceYear:  int64(p.Year),
	})
	if err != nil {
		return nil, fmt.Errorf("list installments by period: %w", err)
	}
	return toInstallmentDetails(rows)
}

func (r *SQLiteRepository) ListPendingInstallments(ctx context.Context) ([]core.InstallmentDetail, error) {
	rows, err := r.queries.ListPendingInstallments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending installments: %w", err)
	}
	return toInstallmentDetails(rows)
}

func (r *SQLiteRepository) ListInstallmentsByPerson(ctx context.Context, personID string) ([]core.InstallmentDetail, error) {
	rows, err := r.queries.ListInstallmentsByPerson(ctx, personID)
	if err != nil {
		return nil, fmt.Errorf("list installments by person: %w", err)
	}
	return toInstallmentDetails(rows)
}

// MarkPaid moves a pending installment to PAID.
func (r *SQLiteRepository) MarkPaid(ctx context.Context, id string, paidAt time.Time, receipt string) error {
	return r.withTx(ctx, func(q *Queries) error {
		inst, err := q.GetInstallment(ctx, id)
		if err != nil {
			return notFound("installment", id, err)
		}
		if core.Status(inst.Status) == core.StatusPaid {
			return fmt.Errorf("installment %s: %w", id, core.ErrAlreadyPaid)
		}
		n, err := q.MarkInstallmentPaid(ctx, MarkInstallmentPaidParams{
			PaidAt:         paidAt.UnixMilli(),
			PaymentReceipt: nullString(receipt),
			ID:             id,
		})
		if err != nil {
			return fmt.Errorf("mark installment paid: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("installment %s: %w", id, core.ErrAlreadyPaid)
		}
		return nil
	})
}

// MarkPending moves a paid installment back to PENDING. It returns the
// receipt reference it held and whether that receipt is now unused.
func (r *SQLiteRepository) MarkPending(ctx context.Context, id string) (receipt string, orphaned bool, err error) {
	err = r.withTx(ctx, func(q *Queries) error {
		inst, err := q.GetInstallment(ctx, id)
		if err != nil {
			return notFound("installment", id, err)
		}
		if core.Status(inst.Status) != core.StatusPaid {
			return fmt.Errorf("installment %s: %w", id, core.ErrNotPaid)
		}
		n, err := q.MarkInstallmentPending(ctx, id)
		if err != nil {
			return fmt.Errorf("mark installment pending: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("installment %s: %w", id, core.ErrNotPaid)
		}
		if !inst.PaymentReceipt.Valid || inst.PaymentReceipt.String == "" {
			return nil
		}
		receipt = inst.PaymentReceipt.String
		refs, err := q.CountReceiptReferences(ctx, receipt)
		if err != nil {
			return fmt.Errorf("count receipt references: %w", err)
		}
		orphaned = refs == 0
		return nil
	})
	if err != nil {
		return "", false, err
	}
	return receipt, orphaned, nil
}

// SettlePeriod marks every non-paid installment of a person in period p as
// PAID with the same payment time and receipt. It returns the number of
// installments updated; zero matches is not an error.
func (r *SQLiteRepository) SettlePeriod(ctx context.Context, personID string, p core.Period, paidAt time.Time, receipt string) (int, error) {
	var updated int64
	err := r.withTx(ctx, func(q *Queries) error {
		if _, err := q.GetPerson(ctx, personID); err != nil {
			return notFound("person", personID, err)
		}
		n, err := q.SettlePersonPeriod(ctx, SettlePersonPeriodParams{
			PaidAt:         paidAt.UnixMilli(),
			PaymentReceipt: nullString(receipt),
			InvoiceMonth:   int64(p.Month),
			InvoiceYear:    int64(p.Year),
			PersonID:       personID,
		})
		if err != nil {
			return fmt.Errorf("settle installments: %w", err)
		}
		updated = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int(updated), nil
}

func (r *SQLiteRepository) CountReceiptReferences(ctx context.Context, ref string) (int, error) {
	n, err := r.queries.CountReceiptReferences(ctx, ref)
	if err != nil {
		return 0, fmt.Errorf("count receipt references: %w", err)
	}
	return int(n), nil
}

// InvoicePeriods lists every period that has at least one installment,
// newest first.
func (r *SQLiteRepository) InvoicePeriods(ctx context.Context) ([]core.Period, error) {
	rows, err := r.queries.ListInvoicePeriods(ctx)
	if err != nil {
		return nil, fmt.Errorf("list invoice periods: %w", err)
	}
	periods := make([]core.Period, 0, len(rows))
	for _, row := range rows {
		periods = append(periods, core.NewPeriod(int(row.InvoiceMonth), int(row.InvoiceYear)))
	}
	return periods, nil
}

// ---- reports ----

func (r *SQLiteRepository) SpendingRows(ctx context.Context) ([]core.SpendingRow, error) {
	rows, err := r.queries.ListSpendingRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("list spending rows: %w", err)
	}
	return toSpendingRows(rows), nil
}

func (r *SQLiteRepository) SpendingRowsByPeriod(ctx context.Context, p core.Period) ([]core.SpendingRow, error) {
	rows, err := r.queries.ListSpendingRowsByPeriod(ctx, ListSpendingRowsByPeriodParams{
		InvoiceMonth: int64(p.Month),
		InvoiceYear:  int64(p.Year),
	})
	if err != nil {
		return nil, fmt.Errorf("list spending rows by period: %w", err)
	}
	return toSpendingRows(rows), nil
}

func (r *SQLiteRepository) DashboardCounts(ctx context.Context) (DashboardCounts, error) {
	people, err := r.queries.CountPeople(ctx)
	if err != nil {
		return DashboardCounts{}, fmt.Errorf("count people: %w", err)
	}
	purchases, err := r.queries.CountPurchases(ctx)
	if err != nil {
		return DashboardCounts{}, fmt.Errorf("count purchases: %w", err)
	}
	pending, err := r.queries.CountPendingInstallments(ctx)
	if err != nil {
		return DashboardCounts{}, fmt.Errorf("count pending installments: %w", err)
	}
	return DashboardCounts{
		People:              int(people),
		Purchases:           int(purchases),
		PendingInstallments: int(pending),
	}, nil
}

// ---- conversions ----

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func toPerson(p Person) core.Person {
	return core.Person{ID: p.ID, Name: p.Name, CreatedAt: fromMillis(p.CreatedAt)}
}

func toPurchase(row PurchaseRow) (core.Purchase, error) {
	date, err := core.ParseDate(row.PurchaseDate)
	if err != nil {
		return core.Purchase{}, fmt.Errorf("purchase %s has invalid date %q: %w", row.ID, row.PurchaseDate, err)
	}
	return core.Purchase{
		ID:                row.ID,
		PersonID:          row.PersonID,
		PersonName:        row.PersonName,
		PurchaseDate:      date,
		Description:       row.Description.String,
		TotalAmount:       core.FromCents(row.TotalAmountCents),
		InstallmentsCount: int(row.InstallmentsCount),
		CreatedAt:         fromMillis(row.CreatedAt),
	}, nil
}

func toInstallment(i Installment) core.Installment {
	inst := core.Installment{
		ID:             i.ID,
		PurchaseID:     i.PurchaseID,
		Number:         int(i.InstallmentNumber),
		Amount:         core.FromCents(i.AmountCents),
		Period:         core.NewPeriod(int(i.InvoiceMonth), int(i.InvoiceYear)),
		Status:         core.Status(i.Status),
		PaymentReceipt: i.PaymentReceipt.String,
	}
	if i.PaidAt.Valid {
		t := fromMillis(i.PaidAt.Int64)
		inst.PaidAt = &t
	}
	return inst
}

func toInstallmentDetail(row InstallmentDetailRow) (core.InstallmentDetail, error) {
	date, err := core.ParseDate(row.PurchaseDate)
	if err != nil {
		return core.InstallmentDetail{}, fmt.Errorf("installment %s has invalid purchase date %q: %w", row.ID, row.PurchaseDate, err)
	}
	inst := toInstallment(row.Installment)
	if err := inst.Validate(); err != nil {
		return core.InstallmentDetail{}, fmt.Errorf("installment %s: %w", row.ID, err)
	}
	return core.InstallmentDetail{
		Installment:         inst,
		PurchaseDate:        date,
		PurchaseDescription: row.PurchaseDescription.String,
		InstallmentsCount:   int(row.InstallmentsCount),
		PersonID:            row.PersonID,
		PersonName:          row.PersonName,
	}, nil
}

func toInstallmentDetails(rows []InstallmentDetailRow) ([]core.InstallmentDetail, error) {
	out := make([]core.InstallmentDetail, 0, len(rows))
	for _, row := range rows {
		d, err := toInstallmentDetail(row)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func toSpendingRows(rows []SpendingRow) []core.SpendingRow {
	out := make([]core.SpendingRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, core.SpendingRow{
			PersonID:   r.PersonID,
			PersonName: r.PersonName,
			Amount:     core.FromCents(r.AmountCents),
			Status:     core.Status(r.Status),
		})
	}
	return out
}
