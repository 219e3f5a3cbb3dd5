// Package ledger keeps an account's totals and month buckets consistent with
// its transactions.
//
// Totals are always re-derived from the buckets after a mutation. The
// transaction path posts into a bucket and the balance; the monthly bulk-edit
// path overwrites a bucket. Both then call recomputeTotals, so the two paths
// share a single source of truth for totalRevenue and totalExpenses.
//
// An overwritten bucket is authoritative: a later revert may only subtract
// what the bucket still holds. A revert that would push a bucket figure below
// zero fails with ErrInvalidInput and the account is left unchanged.
package ledger

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"bilancio/internal/core"
)

// effect is the contribution of one transaction to an account.
type effect struct {
	month  time.Month
	kind   core.Kind
	amount core.Money
}

func effectOf(t core.Transaction) effect {
	return effect{month: t.Date.Month(), kind: t.Kind, amount: t.Amount}
}

func (e effect) apply(a *core.Account) { e.post(a, e.amount) }

func (e effect) revert(a *core.Account) error {
	b := bucketFor(a, e.month)
	held := b.Revenue
	if e.kind == core.Expense {
		held = b.Expenses
	}
	if held.Cents < e.amount.Cents {
		return fmt.Errorf("%w: reverting %s %s from %s leaves the bucket negative (holds %s)",
			core.ErrInvalidInput, e.kind, e.amount, e.month, held)
	}
	e.post(a, e.amount.Neg())
	return nil
}

func (e effect) post(a *core.Account, amt core.Money) {
	b := bucketFor(a, e.month)
	switch e.kind {
	case core.Revenue:
		b.Revenue = b.Revenue.Add(amt)
		a.Balance = a.Balance.Add(amt)
	case core.Expense:
		b.Expenses = b.Expenses.Add(amt)
		a.Balance = a.Balance.Sub(amt)
	}
}

// EditCommand moves a stored transaction to new values in two phases.
// Revert undoes Old against the bucket of Old's date; Apply posts New as a
// fresh transaction. Running Revert then Apply is the only supported way to
// change date, amount or kind.
type EditCommand struct {
	Old core.Transaction
	New core.Transaction
}

func (c EditCommand) Revert(a *core.Account) error {
	if err := effectOf(c.Old).revert(a); err != nil {
		return err
	}
	recomputeTotals(a)
	return nil
}

func (c EditCommand) Apply(a *core.Account) {
	effectOf(c.New).apply(a)
	recomputeTotals(a)
}

// bucketFor returns the bucket for month m, creating it in calendar order on
// first use.
func bucketFor(a *core.Account, m time.Month) *core.MonthBucket {
	i := sort.Search(len(a.Buckets), func(i int) bool { return a.Buckets[i].Month >= m })
	if i < len(a.Buckets) && a.Buckets[i].Month == m {
		return &a.Buckets[i]
	}
	a.Buckets = append(a.Buckets, core.MonthBucket{})
	copy(a.Buckets[i+1:], a.Buckets[i:])
	a.Buckets[i] = core.MonthBucket{Month: m}
	return &a.Buckets[i]
}

func recomputeTotals(a *core.Account) {
	var rev, exp core.Money
	for _, b := range a.Buckets {
		rev = rev.Add(b.Revenue)
		exp = exp.Add(b.Expenses)
	}
	a.TotalRevenue = rev
	a.TotalExpenses = exp
}

// stage runs fn on a copy of a and commits it only when fn succeeds and the
// copy is still consistent.
func stage(a *core.Account, fn func(*core.Account) error) error {
	c := a.Clone()
	if err := fn(c); err != nil {
		return err
	}
	if err := checkConsistency(c); err != nil {
		return fmt.Errorf("ledger inconsistent after mutation: %w", err)
	}
	c.Revision++
	*a = *c
	return nil
}

func newTransaction(id int64, date core.Date, amount core.Money, kind core.Kind, description string) (core.Transaction, error) {
	if !date.IsZero() {
		y, m, d := date.Date()
		date = core.NewDate(y, int(m), d)
	}
	t := core.Transaction{
		ID:          id,
		Date:        date,
		Amount:      amount,
		Kind:        kind,
		Description: strings.TrimSpace(description),
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

// AddTransaction appends a transaction and posts its effect.
func AddTransaction(a *core.Account, date core.Date, amount core.Money, kind core.Kind, description string) (core.Transaction, error) {
	var created core.Transaction
	err := stage(a, func(c *core.Account) error {
		t, err := newTransaction(c.NextTxID, date, amount, kind, description)
		if err != nil {
			return err
		}
		c.NextTxID++
		c.Transactions = append(c.Transactions, t)
		effectOf(t).apply(c)
		recomputeTotals(c)
		created = t
		return nil
	})
	return created, err
}

// EditTransaction replaces transaction id with the new values, reverting the
// stored effect against its original month before applying the new one.
func EditTransaction(a *core.Account, id int64, date core.Date, amount core.Money, kind core.Kind, description string) (core.Transaction, error) {
	var edited core.Transaction
	err := stage(a, func(c *core.Account) error {
		i, ok := c.TransactionIndex(id)
		if !ok {
			return fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
		}
		t, err := newTransaction(id, date, amount, kind, description)
		if err != nil {
			return err
		}
		cmd := EditCommand{Old: c.Transactions[i], New: t}
		if err := cmd.Revert(c); err != nil {
			return err
		}
		cmd.Apply(c)
		c.Transactions[i] = t
		edited = t
		return nil
	})
	return edited, err
}

// DeleteTransaction reverts the transaction's effect and removes it.
func DeleteTransaction(a *core.Account, id int64) error {
	return stage(a, func(c *core.Account) error {
		i, ok := c.TransactionIndex(id)
		if !ok {
			return fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
		}
		if err := effectOf(c.Transactions[i]).revert(c); err != nil {
			return err
		}
		recomputeTotals(c)
		c.Transactions = append(c.Transactions[:i], c.Transactions[i+1:]...)
		return nil
	})
}

// EditMonthlyData overwrites a bucket's figures and re-derives the totals from
// all buckets. The balance is left alone: it only follows transactions.
func EditMonthlyData(a *core.Account, month time.Month, revenue, expenses core.Money) error {
	if !core.ValidMonth(month) {
		return fmt.Errorf("%w: %d", core.ErrInvalidMonth, month)
	}
	if revenue.Cents < 0 || expenses.Cents < 0 {
		return fmt.Errorf("%w: monthly figures must not be negative", core.ErrInvalidAmount)
	}
	return stage(a, func(c *core.Account) error {
		b := bucketFor(c, month)
		b.Revenue = revenue
		b.Expenses = expenses
		recomputeTotals(c)
		return nil
	})
}

// checkConsistency verifies the aggregate invariants: buckets are ordered and
// non-negative, totals equal the bucket sums, and the balance equals the
// initial balance plus every live transaction's signed amount.
func checkConsistency(a *core.Account) error {
	var rev, exp core.Money
	for i, b := range a.Buckets {
		if i > 0 && a.Buckets[i-1].Month >= b.Month {
			return fmt.Errorf("buckets out of order at %s", b.Month)
		}
		if b.Revenue.Cents < 0 || b.Expenses.Cents < 0 {
			return fmt.Errorf("bucket %s is negative", b.Month)
		}
		rev = rev.Add(b.Revenue)
		exp = exp.Add(b.Expenses)
	}
	if rev != a.TotalRevenue {
		return fmt.Errorf("total revenue %s does not match bucket sum %s", a.TotalRevenue, rev)
	}
	if exp != a.TotalExpenses {
		return fmt.Errorf("total expenses %s does not match bucket sum %s", a.TotalExpenses, exp)
	}
	bal := a.InitialBalance
	for _, t := range a.Transactions {
		bal = bal.Add(t.Signed())
	}
	if bal != a.Balance {
		return fmt.Errorf("balance %s does not match transactions %s", a.Balance, bal)
	}
	return nil
}
