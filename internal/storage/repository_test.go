package storage

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/ledger"
)

var _ ledger.Store = (*SQLiteRepository)(nil)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "bilancio.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seededAccount(t *testing.T, id string) *core.Account {
	t.Helper()
	a, err := core.NewAccount(id, core.Money{Cents: 2500}, time.Date(2024, time.April, 2, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func TestRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	a := seededAccount(t, "acc-1")
	if err := repo.Create(ctx, a); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := ledger.AddTransaction(a, core.NewDate(2024, 2, 14), core.Money{Cents: 12345}, core.Revenue, "invoice #12"); err != nil {
		t.Fatal(err)
	}
	if _, err := ledger.AddTransaction(a, core.NewDate(2024, 9, 1), core.Money{Cents: 999}, core.Expense, ""); err != nil {
		t.Fatal(err)
	}
	if err := ledger.EditMonthlyData(a, time.March, core.Money{Cents: 50000}, core.Money{Cents: 100}); err != nil {
		t.Fatal(err)
	}
	if err := repo.Save(ctx, a); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := repo.Load(ctx, "acc-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(got.Buckets, a.Buckets) {
		t.Errorf("Buckets = %+v, want %+v", got.Buckets, a.Buckets)
	}
	if len(got.Transactions) != 2 {
		t.Fatalf("Transactions = %d, want 2", len(got.Transactions))
	}
	for i := range a.Transactions {
		g, w := got.Transactions[i], a.Transactions[i]
		if g.ID != w.ID || !g.Date.Equal(w.Date.Time) || g.Amount != w.Amount || g.Kind != w.Kind || g.Description != w.Description {
			t.Errorf("transaction %d = %+v, want %+v", i, g, w)
		}
	}
	if got.Balance != a.Balance || got.TotalRevenue != a.TotalRevenue || got.TotalExpenses != a.TotalExpenses {
		t.Errorf("header = %+v, want %+v", got, a)
	}
	if got.NextTxID != a.NextTxID || got.Revision != a.Revision {
		t.Errorf("NextTxID/Revision = %d/%d, want %d/%d", got.NextTxID, got.Revision, a.NextTxID, a.Revision)
	}
	var rev, exp int64
	for _, b := range got.Buckets {
		rev += b.Revenue.Cents
		exp += b.Expenses.Cents
	}
	if rev != got.TotalRevenue.Cents || exp != got.TotalExpenses.Cents {
		t.Errorf("loaded totals %d/%d do not match bucket sums %d/%d",
			got.TotalRevenue.Cents, got.TotalExpenses.Cents, rev, exp)
	}
}

func TestRepositorySaveReplacesChildren(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	a := seededAccount(t, "acc-1")
	if err := repo.Create(ctx, a); err != nil {
		t.Fatal(err)
	}
	tx, err := ledger.AddTransaction(a, core.NewDate(2024, 1, 5), core.Money{Cents: 100}, core.Revenue, "x")
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.Save(ctx, a); err != nil {
		t.Fatal(err)
	}
	if err := ledger.DeleteTransaction(a, tx.ID); err != nil {
		t.Fatal(err)
	}
	if err := repo.Save(ctx, a); err != nil {
		t.Fatal(err)
	}

	got, err := repo.Load(ctx, "acc-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Transactions) != 0 {
		t.Errorf("deleted transaction still stored: %+v", got.Transactions)
	}
	if got.Balance.Cents != 2500 {
		t.Errorf("Balance = %d, want 2500", got.Balance.Cents)
	}
}

func TestRepositoryErrors(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	a := seededAccount(t, "acc-1")

	if _, err := repo.Load(ctx, "acc-1"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Load missing: expected ErrNotFound, got %v", err)
	}
	if err := repo.Save(ctx, a); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Save missing: expected ErrNotFound, got %v", err)
	}
	if err := repo.Create(ctx, a); err != nil {
		t.Fatal(err)
	}
	if err := repo.Create(ctx, a); !errors.Is(err, core.ErrAccountExists) {
		t.Errorf("duplicate Create: expected ErrAccountExists, got %v", err)
	}
}

func TestRepositoryListAndHistory(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	for _, id := range []string{"b", "a", "idle"} {
		a := seededAccount(t, id)
		if id != "idle" {
			if err := ledger.EditMonthlyData(a, time.February, core.Money{Cents: 1000}, core.Money{Cents: 300}); err != nil {
				t.Fatal(err)
			}
		}
		if err := repo.Create(ctx, a); err != nil {
			t.Fatal(err)
		}
	}

	ids, err := repo.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ids, []string{"a", "b", "idle"}) {
		t.Errorf("List() = %v", ids)
	}

	history, err := repo.History(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 {
		t.Fatalf("History() = %d series, want 2 (idle skipped)", len(history))
	}
	feb := history[0][1]
	if feb.Month != time.February || feb.Revenue != 10 || feb.Expenses != 3 {
		t.Errorf("February point = %+v", feb)
	}
}

func TestRepositoryReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "bilancio.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.Create(ctx, seededAccount(t, "acc-1")); err != nil {
		t.Fatal(err)
	}
	repo.Close()

	repo, err = NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer repo.Close()
	if _, err := repo.Load(ctx, "acc-1"); err != nil {
		t.Errorf("Load after reopen: %v", err)
	}
}
