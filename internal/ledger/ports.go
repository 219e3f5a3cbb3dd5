package ledger

import (
	"context"
	"time"

	"bilancio/internal/core"
)

// Ports for outbound adapters.
type (
	// Store persists whole account aggregates. Load and Save must return
	// core.ErrNotFound for unknown accounts.
	Store interface {
		Create(ctx context.Context, a *core.Account) error
		Load(ctx context.Context, id string) (*core.Account, error)
		Save(ctx context.Context, a *core.Account) error
		List(ctx context.Context) ([]string, error)
	}

	// Notifier announces committed ledger changes to other processes.
	Notifier interface {
		PublishLedgerChange(ctx context.Context, accountID, operation string, month time.Month, revision int64) error
	}
)
