package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Revenue Kind = "revenue"
	Expense Kind = "expense"
)

type (
	Kind string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Transaction struct {
		ID          int64
		Date        Date
		Amount      Money // positive magnitude, sign comes from Kind
		Kind        Kind
		Description string
	}

	// MonthBucket aggregates revenue and expenses for one calendar month.
	MonthBucket struct {
		Month    time.Month
		Revenue  Money
		Expenses Money
	}

	Account struct {
		ID             string
		InitialBalance Money
		Balance        Money
		TotalRevenue   Money
		TotalExpenses  Money
		Buckets        []MonthBucket // ordered by Month, at most 12
		Transactions   []Transaction
		NextTxID       int64
		Revision       int64
	}
)

// Taxonomy of failures surfaced by the ledger and forecasting packages.
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrInsufficientData = errors.New("insufficient data")
	ErrModelUnavailable = errors.New("model unavailable")
)

var (
	ErrInvalidDate        = fmt.Errorf("%w: invalid date", ErrInvalidInput)
	ErrInvalidMonth       = fmt.Errorf("%w: invalid month", ErrInvalidInput)
	ErrInvalidAmount      = fmt.Errorf("%w: invalid amount", ErrInvalidInput)
	ErrInvalidKind        = fmt.Errorf("%w: unknown transaction kind", ErrInvalidInput)
	ErrDescriptionTooLong = fmt.Errorf("%w: description too long (max 200 characters)", ErrInvalidInput)
	ErrEmptyAccountID     = fmt.Errorf("%w: empty account id", ErrInvalidInput)
	ErrAccountExists      = fmt.Errorf("%w: account already exists", ErrInvalidInput)
)

// ParseKind accepts the kind names used at the API boundary.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case Revenue:
		return Revenue, nil
	case Expense:
		return Expense, nil
	default:
		return "", ErrInvalidKind
	}
}

func (k Kind) Validate() error {
	if k != Revenue && k != Expense {
		return ErrInvalidKind
	}
	return nil
}

// Sign returns +1 for revenue and -1 for expenses.
func (k Kind) Sign() int64 {
	if k == Expense {
		return -1
	}
	return 1
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a calendar day in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) String() string {
	return d.Format(time.DateOnly)
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Signed returns the amount with the sign implied by kind.
func (t Transaction) Signed() Money {
	return Money{Cents: t.Amount.Cents * t.Kind.Sign()}
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := t.Kind.Validate(); err != nil {
		return err
	}
	if len(t.Description) > 200 {
		return ErrDescriptionTooLong
	}
	return nil
}

// Name returns the English month name used as the bucket label.
func (b MonthBucket) Name() string {
	return b.Month.String()
}

// Net is revenue minus expenses for the month.
func (b MonthBucket) Net() Money {
	return b.Revenue.Sub(b.Expenses)
}

// ValidMonth reports whether m is a calendar month.
func ValidMonth(m time.Month) bool {
	return m >= time.January && m <= time.December
}

// NewAccount returns an empty account with buckets seeded from January up to
// the month of now.
func NewAccount(id string, initial Money, now time.Time) (*Account, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrEmptyAccountID
	}
	a := &Account{
		ID:             id,
		InitialBalance: initial,
		Balance:        initial,
		NextTxID:       1,
	}
	for m := time.January; m <= now.Month(); m++ {
		a.Buckets = append(a.Buckets, MonthBucket{Month: m})
	}
	return a, nil
}

// Clone returns a deep copy so mutations can be staged and discarded.
func (a *Account) Clone() *Account {
	c := *a
	c.Buckets = append([]MonthBucket(nil), a.Buckets...)
	c.Transactions = append([]Transaction(nil), a.Transactions...)
	return &c
}

// Bucket returns the bucket for month m, if it exists.
func (a *Account) Bucket(m time.Month) (MonthBucket, bool) {
	for _, b := range a.Buckets {
		if b.Month == m {
			return b, true
		}
	}
	return MonthBucket{}, false
}

// TransactionIndex returns the position of the transaction with the given id.
func (a *Account) TransactionIndex(id int64) (int, bool) {
	for i, t := range a.Transactions {
		if t.ID == id {
			return i, true
		}
	}
	return -1, false
}
