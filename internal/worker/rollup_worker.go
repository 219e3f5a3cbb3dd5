// Package worker keeps the spreadsheet rollups in step with the ledger.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	applog "bilancio/internal/log"
	"bilancio/internal/sheets"
)

// AccountStore is the read side of the account store the worker needs.
type AccountStore interface {
	Load(ctx context.Context, id string) (*core.Account, error)
	List(ctx context.Context) ([]string, error)
}

// RollupWorker rewrites an account's monthly rollup whenever its ledger
// changes. Messages only name the account; the worker always exports the
// current stored state, so replays and reordering are harmless.
type RollupWorker struct {
	accounts AccountStore
	writer   sheets.RollupWriter
	reader   sheets.RollupReader
}

// NewRollupWorker wires a worker. reader may be nil, in which case every
// message triggers a write.
func NewRollupWorker(accounts AccountStore, writer sheets.RollupWriter, reader sheets.RollupReader) *RollupWorker {
	return &RollupWorker{accounts: accounts, writer: writer, reader: reader}
}

// HandleLedgerChange processes one ledger.changed message.
func (w *RollupWorker) HandleLedgerChange(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
	a, err := w.accounts.Load(ctx, msg.AccountID)
	if errors.Is(err, core.ErrNotFound) {
		// Nothing to export; acking drops the message.
		slog.WarnContext(ctx, "Ledger change for unknown account",
			applog.FieldAccountID, msg.AccountID,
			applog.FieldRevision, msg.Revision)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load account: %w", err)
	}
	if a.Revision < msg.Revision {
		return fmt.Errorf("account %s at revision %d, message announces %d", a.ID, a.Revision, msg.Revision)
	}
	return w.export(ctx, a)
}

func (w *RollupWorker) export(ctx context.Context, a *core.Account) error {
	if w.reader != nil {
		current, err := w.reader.ReadRollup(ctx, a.ID)
		if err == nil && sameRollup(current, a.Buckets) {
			slog.DebugContext(ctx, "Rollup already current",
				applog.FieldAccountID, a.ID,
				applog.FieldRevision, a.Revision)
			return nil
		}
	}
	if err := w.writer.WriteRollup(ctx, a.ID, a.Buckets); err != nil {
		return fmt.Errorf("write rollup: %w", err)
	}
	slog.InfoContext(ctx, "Rollup exported",
		applog.FieldAccountID, a.ID,
		applog.FieldRevision, a.Revision,
		applog.FieldOperation, applog.OpExport)
	return nil
}

// sameRollup compares two rollups month by month, treating a missing month
// as an empty one.
func sameRollup(a, b []core.MonthBucket) bool {
	return slices.Equal(fill(a), fill(b))
}

func fill(buckets []core.MonthBucket) []core.MonthBucket {
	out := make([]core.MonthBucket, 12)
	for i := range out {
		out[i].Month = time.Month(i + 1)
	}
	for _, b := range buckets {
		if core.ValidMonth(b.Month) {
			out[b.Month-1] = b
		}
	}
	return out
}

// ReconcileAll exports every stored account. It backs up the message path
// when events were lost while the worker was down. Failures are logged and
// counted; the sweep continues with the next account.
func (w *RollupWorker) ReconcileAll(ctx context.Context) (exported, failed int, err error) {
	ids, err := w.accounts.List(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("list accounts: %w", err)
	}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return exported, failed, err
		}
		a, err := w.accounts.Load(ctx, id)
		if err == nil {
			err = w.export(ctx, a)
		}
		if err != nil {
			failed++
			slog.ErrorContext(ctx, "Reconcile failed",
				applog.FieldAccountID, id,
				applog.FieldError, err)
			continue
		}
		exported++
	}
	slog.InfoContext(ctx, "Reconcile finished",
		"exported", exported,
		"failed", failed)
	return exported, failed, nil
}
