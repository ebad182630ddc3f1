package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	PrepareContext(context.Context, string) (*sql.Stmt, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{
		db: tx,
	}
}

type Person struct {
	ID        string
	Name      string
	CreatedAt int64
}

type Purchase struct {
	ID                string
	PersonID          string
	PurchaseDate      string
	Description       sql.NullString
	TotalAmountCents  int64
	InstallmentsCount int64
	CreatedAt         int64
}

type Installment struct {
	ID                string
	PurchaseID        string
	InstallmentNumber int64
	AmountCents       int64
	InvoiceMonth      int64
	InvoiceYear       int64
	Status            string
	PaidAt            sql.NullInt64
	PaymentReceipt    sql.NullString
}
