// Package storage persists account aggregates in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"bilancio/internal/core"
	applog "bilancio/internal/log"

	_ "modernc.org/sqlite"
)

// SQLiteRepository stores each account across three tables: the aggregate
// header, its transactions and its month buckets.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single writer connection avoids SQLITE_BUSY between pooled handles.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, err
	}

	slog.Info("SQLite repository ready",
		applog.FieldComponent, applog.ComponentStorage,
		"path", dbPath)
	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Create inserts a new account. An existing id is rejected with
// core.ErrAccountExists.
func (r *SQLiteRepository) Create(ctx context.Context, a *core.Account) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM accounts WHERE id = ?`, a.ID).Scan(&exists)
		if err == nil {
			return fmt.Errorf("account %s: %w", a.ID, core.ErrAccountExists)
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("check account: %w", err)
		}

		_, err = tx.ExecContext(ctx, `INSERT INTO accounts
			(id, initial_balance_cents, balance_cents, total_revenue_cents,
			 total_expenses_cents, next_tx_id, revision)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			a.ID, a.InitialBalance.Cents, a.Balance.Cents, a.TotalRevenue.Cents,
			a.TotalExpenses.Cents, a.NextTxID, a.Revision)
		if err != nil {
			return fmt.Errorf("insert account: %w", err)
		}
		return writeChildren(ctx, tx, a)
	})
}

// Save overwrites the stored aggregate in one transaction, replacing its
// transactions and buckets wholesale.
func (r *SQLiteRepository) Save(ctx context.Context, a *core.Account) error {
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE accounts SET
			initial_balance_cents = ?, balance_cents = ?, total_revenue_cents = ?,
			total_expenses_cents = ?, next_tx_id = ?, revision = ?,
			updated_at = CURRENT_TIMESTAMP
			WHERE id = ?`,
			a.InitialBalance.Cents, a.Balance.Cents, a.TotalRevenue.Cents,
			a.TotalExpenses.Cents, a.NextTxID, a.Revision, a.ID)
		if err != nil {
			return fmt.Errorf("update account: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("update account: %w", err)
		} else if n == 0 {
			return fmt.Errorf("account %s: %w", a.ID, core.ErrNotFound)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE account_id = ?`, a.ID); err != nil {
			return fmt.Errorf("clear transactions: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM month_buckets WHERE account_id = ?`, a.ID); err != nil {
			return fmt.Errorf("clear buckets: %w", err)
		}
		return writeChildren(ctx, tx, a)
	})
	if err != nil {
		return err
	}

	slog.DebugContext(ctx, "Account saved to SQLite",
		applog.FieldAccountID, a.ID,
		applog.FieldRevision, a.Revision,
		"transactions", len(a.Transactions),
		"buckets", len(a.Buckets))
	return nil
}

func writeChildren(ctx context.Context, tx *sql.Tx, a *core.Account) error {
	for _, t := range a.Transactions {
		_, err := tx.ExecContext(ctx, `INSERT INTO transactions
			(account_id, id, day, amount_cents, kind, description)
			VALUES (?, ?, ?, ?, ?, ?)`,
			a.ID, t.ID, t.Date.String(), t.Amount.Cents, string(t.Kind), t.Description)
		if err != nil {
			return fmt.Errorf("insert transaction %d: %w", t.ID, err)
		}
	}
	for _, b := range a.Buckets {
		_, err := tx.ExecContext(ctx, `INSERT INTO month_buckets
			(account_id, month, revenue_cents, expenses_cents)
			VALUES (?, ?, ?, ?)`,
			a.ID, int(b.Month), b.Revenue.Cents, b.Expenses.Cents)
		if err != nil {
			return fmt.Errorf("insert bucket %s: %w", b.Month, err)
		}
	}
	return nil
}

// Load reads the full aggregate for id.
func (r *SQLiteRepository) Load(ctx context.Context, id string) (*core.Account, error) {
	a := &core.Account{ID: id}
	err := r.db.QueryRowContext(ctx, `SELECT initial_balance_cents, balance_cents,
		total_revenue_cents, total_expenses_cents, next_tx_id, revision
		FROM accounts WHERE id = ?`, id).Scan(
		&a.InitialBalance.Cents, &a.Balance.Cents, &a.TotalRevenue.Cents,
		&a.TotalExpenses.Cents, &a.NextTxID, &a.Revision)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("account %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}

	if a.Transactions, err = r.loadTransactions(ctx, id); err != nil {
		return nil, err
	}
	buckets, err := r.loadBuckets(ctx, `WHERE account_id = ?`, id)
	if err != nil {
		return nil, err
	}
	a.Buckets = buckets[id]
	return a, nil
}

func (r *SQLiteRepository) loadTransactions(ctx context.Context, id string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, day, amount_cents, kind, description
		FROM transactions WHERE account_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			t   core.Transaction
			day string
		)
		if err := rows.Scan(&t.ID, &day, &t.Amount.Cents, &t.Kind, &t.Description); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if t.Date, err = core.ParseDate(day); err != nil {
			return nil, fmt.Errorf("transaction %d: %w", t.ID, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) loadBuckets(ctx context.Context, where string, args ...any) (map[string][]core.MonthBucket, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT account_id, month, revenue_cents, expenses_cents
		FROM month_buckets `+where+` ORDER BY account_id, month`, args...)
	if err != nil {
		return nil, fmt.Errorf("query buckets: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]core.MonthBucket)
	for rows.Next() {
		var (
			id    string
			month int
			b     core.MonthBucket
		)
		if err := rows.Scan(&id, &month, &b.Revenue.Cents, &b.Expenses.Cents); err != nil {
			return nil, fmt.Errorf("scan bucket: %w", err)
		}
		b.Month = time.Month(month)
		out[id] = append(out[id], b)
	}
	return out, rows.Err()
}

// List returns every account id in lexical order.
func (r *SQLiteRepository) List(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM accounts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan account id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// History returns the bucket series of every stored account, for use as a
// training corpus. Accounts without any recorded activity are skipped.
func (r *SQLiteRepository) History(ctx context.Context) ([]core.MonthlySeries, error) {
	buckets, err := r.loadBuckets(ctx, "")
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(buckets))
	for id := range buckets {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	var out []core.MonthlySeries
	for _, id := range ids {
		s := make(core.MonthlySeries, 0, len(buckets[id]))
		active := false
		for _, b := range buckets[id] {
			p := core.MonthlyPoint{Month: b.Month, Revenue: b.Revenue.Float(), Expenses: b.Expenses.Float()}
			active = active || p.HasData()
			s = append(s, p)
		}
		if active {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *SQLiteRepository) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
