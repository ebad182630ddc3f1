package storage

import (
	"context"
	"database/sql"
)

const installmentColumns = `i.id, i.purchase_id, i.installment_number, i.amount_cents, i.invoice_month, i.invoice_year, i.status, i.paid_at, i.payment_receipt`

// ---- people ----

const createPerson = `INSERT INTO people (id, name, created_at) VALUES (?, ?, ?)
RETURNING id, name, created_at`

type CreatePersonParams struct {
	ID        string
	Name      string
	CreatedAt int64
}

func (q *Queries) CreatePerson(ctx context.Context, arg CreatePersonParams) (Person, error) {
	row := q.db.QueryRowContext(ctx, createPerson, arg.ID, arg.Name, arg.CreatedAt)
	var i Person
	err := row.Scan(&i.ID, &i.Name, &i.CreatedAt)
	return i, err
}

const getPerson = `SELECT id, name, created_at FROM people WHERE id = ?`

func (q *Queries) GetPerson(ctx context.Context, id string) (Person, error) {
	row := q.db.QueryRowContext(ctx, getPerson, id)
	var i Person
	err := row.Scan(&i.ID, &i.Name, &i.CreatedAt)
	return i, err
}

const listPeople = `SELECT id, name, created_at FROM people ORDER BY name ASC, id ASC`

func (q *Queries) ListPeople(ctx context.Context) ([]Person, error) {
	rows, err := q.db.QueryContext(ctx, listPeople)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Person
	for rows.Next() {
		var i Person
		if err := rows.Scan(&i.ID, &i.Name, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updatePersonName = `UPDATE people SET name = ? WHERE id = ?`

type UpdatePersonNameParams struct {
	Name string
	ID   string
}

func (q *Queries) UpdatePersonName(ctx context.Context, arg UpdatePersonNameParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updatePersonName, arg.Name, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deletePerson = `DELETE FROM people WHERE id = ?`

func (q *Queries) DeletePerson(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deletePerson, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const countPeople = `SELECT COUNT(*) FROM people`

func (q *Queries) CountPeople(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countPeople)
	var count int64
	err := row.Scan(&count)
	return count, err
}

// ---- purchases ----

const createPurchase = `INSERT INTO purchases (id, person_id, purchase_date, description, total_amount_cents, installments_count, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`

type CreatePurchaseParams struct {
	ID                string
	PersonID          string
	PurchaseDate      string
	Description       sql.NullString
	TotalAmountCents  int64
	InstallmentsCount int64
	CreatedAt         int64
}

func (q *Queries) CreatePurchase(ctx context.Context, arg CreatePurchaseParams) error {
	_, err := q.db.ExecContext(ctx, createPurchase,
		arg.ID,
		arg.PersonID,
		arg.PurchaseDate,
		arg.Description,
		arg.TotalAmountCents,
		arg.InstallmentsCount,
		arg.CreatedAt,
	)
	return err
}

const purchaseColumns = `p.id, p.person_id, p.purchase_date, p.description, p.total_amount_cents, p.installments_count, p.created_at, pe.name`

type PurchaseRow struct {
	Purchase
	PersonName string
}

func scanPurchaseRow(s interface{ Scan(...interface{}) error }) (PurchaseRow, error) {
	var i PurchaseRow
	err := s.Scan(
		&i.ID,
		&i.PersonID,
		&i.PurchaseDate,
		&i.Description,
		&i.TotalAmountCents,
		&i.InstallmentsCount,
		&i.CreatedAt,
		&i.PersonName,
	)
	return i, err
}

const getPurchase = `SELECT ` + purchaseColumns + `
FROM purchases p JOIN people pe ON pe.id = p.person_id
WHERE p.id = ?`

func (q *Queries) GetPurchase(ctx context.Context, id string) (PurchaseRow, error) {
	return scanPurchaseRow(q.db.QueryRowContext(ctx, getPurchase, id))
}

// An empty person id lists the purchases of everyone.
const listPurchases = `SELECT ` + purchaseColumns + `
FROM purchases p JOIN people pe ON pe.id = p.person_id
WHERE (?1 = '' OR p.person_id = ?1)
ORDER BY p.purchase_date DESC, p.created_at DESC
LIMIT ?2`

type ListPurchasesParams struct {
	PersonID string
	Limit    int64
}

func (q *Queries) ListPurchases(ctx context.Context, arg ListPurchasesParams) ([]PurchaseRow, error) {
	rows, err := q.db.QueryContext(ctx, listPurchases, arg.PersonID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PurchaseRow
	for rows.Next() {
		i, err := scanPurchaseRow(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deletePurchase = `DELETE FROM purchases WHERE id = ?`

func (q *Queries) DeletePurchase(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deletePurchase, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const countPurchases = `SELECT COUNT(*) FROM purchases`

func (q *Queries) CountPurchases(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countPurchases)
	var count int64
	err := row.Scan(&count)
	return count, err
}

// ---- installments ----

const createInstallment = `INSERT INTO installments (id, purchase_id, installment_number, amount_cents, invoice_month, invoice_year, status)
VALUES (?, ?, ?, ?, ?, ?, 'PENDING')`

type CreateInstallmentParams struct {
	ID                string
	PurchaseID        string
	InstallmentNumber int64
	AmountCents       int64
	InvoiceMonth      int64
	InvoiceYear       int64
}

func (q *Queries) CreateInstallment(ctx context.Context, arg CreateInstallmentParams) error {
	_, err := q.db.ExecContext(ctx, createInstallment,
		arg.ID,
		arg.PurchaseID,
		arg.InstallmentNumber,
		arg.AmountCents,
		arg.InvoiceMonth,
		arg.InvoiceYear,
	)
	return err
}

func scanInstallment(s interface{ Scan(...interface{}) error }, extra ...interface{}) (Installment, error) {
	var i Installment
	dest := []interface{}{
		&i.ID,
		&i.PurchaseID,
		&i.InstallmentNumber,
		&i.AmountCents,
		&i.InvoiceMonth,
		&i.InvoiceYear,
		&i.Status,
		&i.PaidAt,
		&i.PaymentReceipt,
	}
	err := s.Scan(append(dest, extra...)...)
	return i, err
}

const getInstallment = `SELECT ` + installmentColumns + ` FROM installments i WHERE i.id = ?`

func (q *Queries) GetInstallment(ctx context.Context, id string) (Installment, error) {
	return scanInstallment(q.db.QueryRowContext(ctx, getInstallment, id))
}

// An empty person id lists the installments of everyone.
const listPurchaseInstallments = `SELECT ` + installmentColumns + `
FROM installments i JOIN purchases p ON p.id = i.purchase_id
WHERE (?1 = '' OR p.person_id = ?1)
ORDER BY i.purchase_id, i.installment_number`

func (q *Queries) ListPurchaseInstallments(ctx context.Context, personID string) ([]Installment, error) {
	return q.queryInstallments(ctx, listPurchaseInstallments, personID)
}

const listInstallmentsByPurchase = `SELECT ` + installmentColumns + `
FROM installments i WHERE i.purchase_id = ? ORDER BY i.installment_number`

func (q *Queries) ListInstallmentsByPurchase(ctx context.Context, purchaseID string) ([]Installment, error) {
	return q.queryInstallments(ctx, listInstallmentsByPurchase, purchaseID)
}

func (q *Queries) queryInstallments(ctx context.Context, query string, args ...interface{}) ([]Installment, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Installment
	for rows.Next() {
		i, err := scanInstallment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

type InstallmentDetailRow struct {
	Installment
	PurchaseDate        string
	PurchaseDescription sql.NullString
	InstallmentsCount   int64
	PersonID            string
	PersonName          string
}

const installmentDetailFrom = `SELECT ` + installmentColumns + `, p.purchase_date, p.description, p.installments_count, pe.id, pe.name
FROM installments i
JOIN purchases p ON p.id = i.purchase_id
JOIN people pe ON pe.id = p.person_id`

const getInstallmentDetail = installmentDetailFrom + ` WHERE i.id = ?`

func (q *Queries) GetInstallmentDetail(ctx context.Context, id string) (InstallmentDetailRow, error) {
	var d InstallmentDetailRow
	inst, err := scanInstallment(q.db.QueryRowContext(ctx, getInstallmentDetail, id),
		&d.PurchaseDate, &d.PurchaseDescription, &d.InstallmentsCount, &d.PersonID, &d.PersonName)
	d.Installment = inst
	return d, err
}

const listInstallmentsByPeriod = installmentDetailFrom + `
WHERE i.invoice_month = ? AND i.invoice_year = ?
ORDER BY pe.name ASC, pe.id ASC, p.purchase_date DESC, i.installment_number ASC`

type ListInstallmentsByPeriodParams struct {
	InvoiceMonth int64
	InvoiceYear  int64
}

func (q *Queries) ListInstallmentsByPeriod(ctx context.Context, arg ListInstallmentsByPeriodParams) ([]InstallmentDetailRow, error) {
	return q.queryInstallmentDetails(ctx, listInstallmentsByPeriod, arg.InvoiceMonth, arg.InvoiceYear)
}

const listPendingInstallments = installmentDetailFrom + `
WHERE i.status = 'PENDING'
ORDER BY i.invoice_year ASC, i.invoice_month ASC, pe.name ASC, i.installment_number ASC`

func (q *Queries) ListPendingInstallments(ctx context.Context) ([]InstallmentDetailRow, error) {
	return q.queryInstallmentDetails(ctx, listPendingInstallments)
}

const listInstallmentsByPerson = installmentDetailFrom + `
WHERE pe.id = ?
ORDER BY i.invoice_year DESC, i.invoice_month DESC, i.installment_number ASC`

func (q *Queries) ListInstallmentsByPerson(ctx context.Context, personID string) ([]InstallmentDetailRow, error) {
	return q.queryInstallmentDetails(ctx, listInstallmentsByPerson, personID)
}

func (q *Queries) queryInstallmentDetails(ctx context.Context, query string, args ...interface{}) ([]InstallmentDetailRow, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []InstallmentDetailRow
	for rows.Next() {
		var d InstallmentDetailRow
		inst, err := scanInstallment(rows,
			&d.PurchaseDate, &d.PurchaseDescription, &d.InstallmentsCount, &d.PersonID, &d.PersonName)
		if err != nil {
			return nil, err
		}
		d.Installment = inst
		items = append(items, d)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countPendingInstallments = `SELECT COUNT(*) FROM installments WHERE status = 'PENDING'`

func (q *Queries) CountPendingInstallments(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countPendingInstallments)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const listInvoicePeriods = `SELECT DISTINCT invoice_year, invoice_month FROM installments
ORDER BY invoice_year DESC, invoice_month DESC`

type InvoicePeriodRow struct {
	InvoiceYear  int64
	InvoiceMonth int64
}

func (q *Queries) ListInvoicePeriods(ctx context.Context) ([]InvoicePeriodRow, error) {
	rows, err := q.db.QueryContext(ctx, listInvoicePeriods)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []InvoicePeriodRow
	for rows.Next() {
		var i InvoicePeriodRow
		if err := rows.Scan(&i.InvoiceYear, &i.InvoiceMonth); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const markInstallmentPaid = `UPDATE installments
SET status = 'PAID', paid_at = ?, payment_receipt = ?
WHERE id = ? AND status = 'PENDING'`

type MarkInstallmentPaidParams struct {
	PaidAt         int64
	PaymentReceipt sql.NullString
	ID             string
}

func (q *Queries) MarkInstallmentPaid(ctx context.Context, arg MarkInstallmentPaidParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, markInstallmentPaid, arg.PaidAt, arg.PaymentReceipt, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const markInstallmentPending = `UPDATE installments
SET status = 'PENDING', paid_at = NULL, payment_receipt = NULL
WHERE id = ? AND status = 'PAID'`

func (q *Queries) MarkInstallmentPending(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, markInstallmentPending, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const settlePersonPeriod = `UPDATE installments
SET status = 'PAID', paid_at = ?, payment_receipt = ?
WHERE status != 'PAID'
  AND invoice_month = ?
  AND invoice_year = ?
  AND purchase_id IN (SELECT id FROM purchases WHERE person_id = ?)`

type SettlePersonPeriodParams struct {
	PaidAt         int64
	PaymentReceipt sql.NullString
	InvoiceMonth   int64
	InvoiceYear    int64
	PersonID       string
}

func (q *Queries) SettlePersonPeriod(ctx context.Context, arg SettlePersonPeriodParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, settlePersonPeriod,
		arg.PaidAt,
		arg.PaymentReceipt,
		arg.InvoiceMonth,
		arg.InvoiceYear,
		arg.PersonID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const countReceiptReferences = `SELECT COUNT(*) FROM installments WHERE payment_receipt = ?`

func (q *Queries) CountReceiptReferences(ctx context.Context, ref string) (int64, error) {
	row := q.db.QueryRowContext(ctx, countReceiptReferences, ref)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const listReceiptsByPerson = `SELECT DISTINCT i.payment_receipt
FROM installments i JOIN purchases p ON p.id = i.purchase_id
WHERE p.person_id = ? AND i.payment_receipt IS NOT NULL`

func (q *Queries) ListReceiptsByPerson(ctx context.Context, personID string) ([]string, error) {
	return q.queryStrings(ctx, listReceiptsByPerson, personID)
}

const listReceiptsByPurchase = `SELECT DISTINCT payment_receipt FROM installments
WHERE purchase_id = ? AND payment_receipt IS NOT NULL`

func (q *Queries) ListReceiptsByPurchase(ctx context.Context, purchaseID string) ([]string, error) {
	return q.queryStrings(ctx, listReceiptsByPurchase, purchaseID)
}

func (q *Queries) queryStrings(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// ---- reports ----

const spendingFrom = `SELECT pe.id, pe.name, i.amount_cents, i.status
FROM installments i
JOIN purchases p ON p.id = i.purchase_id
JOIN people pe ON pe.id = p.person_id`

type SpendingRow struct {
	PersonID    string
	PersonName  string
	AmountCents int64
	Status      string
}

const listSpendingRows = spendingFrom

func (q *Queries) ListSpendingRows(ctx context.Context) ([]SpendingRow, error) {
	return q.querySpendingRows(ctx, listSpendingRows)
}

const listSpendingRowsByPeriod = spendingFrom + ` WHERE i.invoice_month = ? AND i.invoice_year = ?`

type ListSpendingRowsByPeriodParams struct {
	InvoiceMonth int64
	InvoiceYear  int64
}

func (q *Queries) ListSpendingRowsByPeriod(ctx context.Context, arg ListSpendingRowsByPeriodParams) ([]SpendingRow, error) {
	return q.querySpendingRows(ctx, listSpendingRowsByPeriod, arg.InvoiceMonth, arg.InvoiceYear)
}

func (q *Queries) querySpendingRows(ctx context.Context, query string, args ...interface{}) ([]SpendingRow, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SpendingRow
	for rows.Next() {
		var i SpendingRow
		if err := rows.Scan(&i.PersonID, &i.PersonName, &i.AmountCents, &i.Status); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
