package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/acdp/acdp-core/pkg/credential"
)

var (
	// ErrNotFound is returned when a credential ID has no matching row.
	ErrNotFound = errors.New("store: credential not found")

	// ErrReplay is returned by RecordPresentation when the
	// (nonce, context_hash) pair was already consumed for this credential.
	ErrReplay = errors.New("store: nonce/context pair already consumed")

	// ErrRateLimitExceeded is returned by RecordPresentation when
	// incrementing presentations_used would exceed max_presentations.
	ErrRateLimitExceeded = errors.New("store: presentation rate limit exceeded")
)

// Store is the persistence contract for the verification orchestrator and
// delegation engine (spec.md §6.4). Implementations must make
// RecordPresentation atomic across the credential row's presentations_used
// counter and the ledger table's uniqueness constraint.
type Store interface {
	CreateCredential(ctx context.Context, cred *credential.Credential) error
	GetCredential(ctx context.Context, id uuid.UUID) (*credential.Credential, error)
	ListByAgent(ctx context.Context, agentID string) ([]*credential.Credential, error)

	// RecordPresentation atomically checks replay, checks and increments
	// the rate limit, and reports presentations remaining after the
	// increment. It must not mutate state on ErrReplay or
	// ErrRateLimitExceeded.
	RecordPresentation(ctx context.Context, id uuid.UUID, nonce uint64, contextHash []byte, now time.Time) (presentationsRemaining int, err error)

	Revoke(ctx context.Context, id uuid.UUID, reason string, now time.Time) error

	// Close releases the underlying connection/pool.
	Close() error
}
