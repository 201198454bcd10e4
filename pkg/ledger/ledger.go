package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Ledger records (credential_id, nonce, context_hash) consumption and
// rejects repeats, per spec.md §4.5 step 3. Implementations must make
// TryConsume atomic: two concurrent calls with the same key must not both
// return consumed == true (spec.md §5 ordering guarantee (a)).
type Ledger interface {
	// TryConsume marks (credentialID, nonce, contextHash) consumed at now.
	// consumed reports whether this call was the one that claimed the
	// key; false means the pair was already present (a replay).
	TryConsume(ctx context.Context, credentialID uuid.UUID, nonce uint64, contextHash []byte, now time.Time) (consumed bool, err error)

	// UsedNonceCount returns the number of distinct nonces ever consumed
	// for credentialID, used for audit and capacity reporting.
	UsedNonceCount(ctx context.Context, credentialID uuid.UUID) (int, error)

	// Prune removes ledger entries older than retention, relative to now
	// (spec.md §6.6 "presentation_ledger_retention").
	Prune(ctx context.Context, now time.Time, retention time.Duration) error
}
