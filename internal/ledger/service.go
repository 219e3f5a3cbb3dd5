package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bilancio/internal/core"
	applog "bilancio/internal/log"
)

// TransactionInput carries the caller-supplied fields of a transaction write.
type TransactionInput struct {
	Date        core.Date
	Amount      core.Money
	Kind        core.Kind
	Description string
}

// Service orchestrates ledger writes: it serializes them per account, runs the
// mutator, persists the aggregate and announces the change.
type Service struct {
	store    Store
	notifier Notifier
	locks    *accountLocks
	now      func() time.Time
}

func NewService(store Store, notifier Notifier) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		locks:    newAccountLocks(),
		now:      time.Now,
	}
}

// CreateAccount stores a new account seeded with buckets up to the current month.
func (s *Service) CreateAccount(ctx context.Context, id string, initial core.Money) (*core.Account, error) {
	a, err := core.NewAccount(id, initial, s.now())
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(id)
	defer unlock()

	if err := s.store.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	slog.InfoContext(ctx, "Account created",
		applog.FieldAccountID, id,
		applog.FieldAmountCents, initial.Cents)
	return a, nil
}

// Snapshot returns the current state of an account.
func (s *Service) Snapshot(ctx context.Context, id string) (*core.Account, error) {
	a, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load account %s: %w", id, err)
	}
	return a, nil
}

func (s *Service) AddTransaction(ctx context.Context, accountID string, in TransactionInput) (core.Transaction, error) {
	var created core.Transaction
	_, err := s.mutate(ctx, accountID, applog.OpCreate, func(a *core.Account) (time.Month, error) {
		t, err := AddTransaction(a, in.Date, in.Amount, in.Kind, in.Description)
		created = t
		return t.Date.Month(), err
	})
	return created, err
}

func (s *Service) EditTransaction(ctx context.Context, accountID string, txID int64, in TransactionInput) (core.Transaction, error) {
	var edited core.Transaction
	_, err := s.mutate(ctx, accountID, applog.OpUpdate, func(a *core.Account) (time.Month, error) {
		t, err := EditTransaction(a, txID, in.Date, in.Amount, in.Kind, in.Description)
		edited = t
		return t.Date.Month(), err
	})
	return edited, err
}

func (s *Service) DeleteTransaction(ctx context.Context, accountID string, txID int64) error {
	_, err := s.mutate(ctx, accountID, applog.OpDelete, func(a *core.Account) (time.Month, error) {
		var month time.Month
		if i, ok := a.TransactionIndex(txID); ok {
			month = a.Transactions[i].Date.Month()
		}
		return month, DeleteTransaction(a, txID)
	})
	return err
}

// EditMonthlyData is the privileged bulk-edit path that overwrites one bucket.
func (s *Service) EditMonthlyData(ctx context.Context, accountID string, month time.Month, revenue, expenses core.Money) (*core.Account, error) {
	return s.mutate(ctx, accountID, applog.OpOverwrite, func(a *core.Account) (time.Month, error) {
		return month, EditMonthlyData(a, month, revenue, expenses)
	})
}

// mutate holds the account lock for the whole load, change and save sequence.
// The notifier runs after the lock is released; its failures are logged only.
func (s *Service) mutate(ctx context.Context, accountID, op string, fn func(*core.Account) (time.Month, error)) (*core.Account, error) {
	unlock := s.locks.lock(accountID)
	a, month, err := s.mutateLocked(ctx, accountID, fn)
	unlock()
	if err != nil {
		slog.WarnContext(ctx, "Ledger operation rejected",
			applog.FieldAccountID, accountID,
			applog.FieldOperation, op,
			applog.FieldError, err)
		return nil, err
	}

	slog.InfoContext(ctx, "Ledger operation applied",
		applog.FieldAccountID, accountID,
		applog.FieldOperation, op,
		applog.FieldMonth, month.String(),
		applog.FieldRevision, a.Revision)

	if s.notifier != nil {
		if err := s.notifier.PublishLedgerChange(ctx, accountID, op, month, a.Revision); err != nil {
			slog.ErrorContext(ctx, "Failed to publish ledger change",
				applog.FieldAccountID, accountID,
				applog.FieldError, err)
		}
	}
	return a, nil
}

func (s *Service) mutateLocked(ctx context.Context, accountID string, fn func(*core.Account) (time.Month, error)) (*core.Account, time.Month, error) {
	a, err := s.store.Load(ctx, accountID)
	if err != nil {
		return nil, 0, fmt.Errorf("load account %s: %w", accountID, err)
	}
	month, err := fn(a)
	if err != nil {
		return nil, 0, err
	}
	if err := s.store.Save(ctx, a); err != nil {
		return nil, 0, fmt.Errorf("save account %s: %w", accountID, err)
	}
	return a, month, nil
}
