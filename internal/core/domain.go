package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusPending Status = "PENDING"
	StatusPaid    Status = "PAID"
)

// DefaultMaxInstallments is the policy limit applied when the configuration
// does not override it.
const DefaultMaxInstallments = 48

type (
	Status string

	// Date is a calendar date. The time-of-day is always midnight UTC.
	Date struct {
		time.Time
	}

	Person struct {
		ID        string
		Name      string
		CreatedAt time.Time
	}

	Purchase struct {
		ID                string
		PersonID          string
		PersonName        string
		PurchaseDate      Date
		Description       string // optional
		TotalAmount       decimal.Decimal
		InstallmentsCount int
		CreatedAt         time.Time
		Installments      []Installment // ordered by Number
	}

	Installment struct {
		ID             string
		PurchaseID     string
		Number         int
		Amount         decimal.Decimal
		Period         Period
		Status         Status
		PaidAt         *time.Time
		PaymentReceipt string // blob reference, empty when absent
	}

	// InstallmentDetail is an installment together with the purchase and
	// person it belongs to, as shown on invoice listings.
	InstallmentDetail struct {
		Installment
		PurchaseDate        Date
		PurchaseDescription string
		InstallmentsCount   int
		PersonID            string
		PersonName          string
	}

	// PurchaseInput carries the user-supplied fields of a new purchase.
	PurchaseInput struct {
		PersonID          string
		PurchaseDate      Date
		Description       string
		TotalAmount       decimal.Decimal
		InstallmentsCount int
	}
)

// Error categories. Every error returned by the domain wraps one of these.
var (
	ErrValidation   = errors.New("validation error")
	ErrInvalidState = errors.New("invalid state")
	ErrNotFound     = errors.New("not found")
)

var (
	ErrInvalidDay          = fmt.Errorf("%w: invalid day", ErrValidation)
	ErrInvalidMonth        = fmt.Errorf("%w: invalid month", ErrValidation)
	ErrInvalidDate         = fmt.Errorf("%w: invalid date", ErrValidation)
	ErrInvalidAmount       = fmt.Errorf("%w: invalid amount", ErrValidation)
	ErrInvalidInstallments = fmt.Errorf("%w: invalid installments count", ErrValidation)
	ErrEmptyName           = fmt.Errorf("%w: empty name", ErrValidation)
	ErrNameTooLong         = fmt.Errorf("%w: name too long (max 100 characters)", ErrValidation)
	ErrDescriptionTooLong  = fmt.Errorf("%w: description too long (max 200 characters)", ErrValidation)
	ErrMissingPerson       = fmt.Errorf("%w: missing person", ErrValidation)
	ErrMissingID           = fmt.Errorf("%w: missing id", ErrValidation)

	ErrAlreadyPaid = fmt.Errorf("%w: installment already paid", ErrInvalidState)
	ErrNotPaid     = fmt.Errorf("%w: installment is not paid", ErrInvalidState)
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t as seen in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a date in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return DateOf(t), nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(time.DateOnly)
}

// ValidatePersonName trims the name and checks it is usable.
func ValidatePersonName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	if len([]rune(name)) > 100 {
		return "", ErrNameTooLong
	}
	return name, nil
}

// Validate checks a purchase input against the installments policy limit.
// It must pass before GenerateInstallments is called.
func (in PurchaseInput) Validate(maxInstallments int) error {
	if strings.TrimSpace(in.PersonID) == "" {
		return ErrMissingPerson
	}
	if err := in.PurchaseDate.Validate(); err != nil {
		return err
	}
	if len(in.Description) > 200 {
		return ErrDescriptionTooLong
	}
	if !in.TotalAmount.IsPositive() || in.TotalAmount.GreaterThan(MaxAmount) {
		return ErrInvalidAmount
	}
	if !in.TotalAmount.Equal(in.TotalAmount.Round(2)) {
		return ErrInvalidAmount
	}
	if maxInstallments <= 0 {
		maxInstallments = DefaultMaxInstallments
	}
	if in.InstallmentsCount < 1 || in.InstallmentsCount > maxInstallments {
		return fmt.Errorf("%w: must be between 1 and %d", ErrInvalidInstallments, maxInstallments)
	}
	return nil
}

// Validate checks the status/paidAt/receipt invariant of an installment.
func (i Installment) Validate() error {
	switch i.Status {
	case StatusPaid:
		if i.PaidAt == nil {
			return fmt.Errorf("%w: paid installment without payment time", ErrInvalidState)
		}
	case StatusPending:
		if i.PaidAt != nil || i.PaymentReceipt != "" {
			return fmt.Errorf("%w: pending installment with payment data", ErrInvalidState)
		}
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidState, i.Status)
	}
	if i.Number < 1 {
		return fmt.Errorf("%w: installment number must be positive", ErrValidation)
	}
	return i.Period.Validate()
}

// IsPaid reports whether the installment has been paid.
func (i Installment) IsPaid() bool {
	return i.Status == StatusPaid
}

// PaidCount returns how many of the purchase installments are paid.
func (p Purchase) PaidCount() int {
	n := 0
	for _, inst := range p.Installments {
		if inst.IsPaid() {
			n++
		}
	}
	return n
}
