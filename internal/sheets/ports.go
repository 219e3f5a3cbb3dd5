package sheets

import (
	"context"

	"bilancio/internal/core"
)

// Ports for outbound adapters.
type (
	// RollupWriter publishes an account's monthly rollup (one row per
	// calendar month) to an external spreadsheet.
	RollupWriter interface {
		WriteRollup(ctx context.Context, accountID string, buckets []core.MonthBucket) error
	}

	// RollupReader returns the rollup currently published for an account.
	RollupReader interface {
		ReadRollup(ctx context.Context, accountID string) ([]core.MonthBucket, error)
	}
)
