// Package memstore implements pkg/store.Store entirely in process memory,
// backed by pkg/ledger for replay detection. It is the reference/demo
// backend for single-process, no-database deployments (spec.md §9's
// "embedded or single-process" deployment note) — sqlitestore and pgstore
// are for when a real database is available.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/acdp/acdp-core/pkg/credential"
	"github.com/acdp/acdp-core/pkg/ledger"
	"github.com/acdp/acdp-core/pkg/store"
)

// Store is a mutex-guarded, map-backed store.Store. Credential rows and
// the presentation ledger are deliberately separate collaborators, the
// same split pkg/ledger's own doc comment describes: presentations_used
// is a property of the credential record, replay/uniqueness is the
// ledger's job.
type Store struct {
	mu          sync.Mutex
	credentials map[uuid.UUID]*credential.Credential
	ledger      *ledger.InMemory
}

// New builds a Store with a ledger sized for nonces in [0, nonceWindow);
// nonceWindow <= 0 uses common.DefaultNonceWindow (see pkg/ledger.NewInMemory).
func New(nonceWindow int) *Store {
	return &Store{
		credentials: make(map[uuid.UUID]*credential.Credential),
		ledger:      ledger.NewInMemory(nonceWindow),
	}
}

func clone(cred *credential.Credential) *credential.Credential {
	c := *cred
	return &c
}

func (s *Store) CreateCredential(ctx context.Context, cred *credential.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials[cred.CredentialID] = clone(cred)
	return nil
}

func (s *Store) GetCredential(ctx context.Context, id uuid.UUID) (*credential.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.credentials[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return clone(cred), nil
}

func (s *Store) ListByAgent(ctx context.Context, agentID string) ([]*credential.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*credential.Credential
	for _, cred := range s.credentials {
		if cred.AgentID == agentID {
			out = append(out, clone(cred))
		}
	}
	return out, nil
}

// RecordPresentation checks the rate limit before consulting the ledger,
// the reverse of sqlitestore/pgstore's replay-then-rate-limit order (there,
// a single SQL transaction can roll back a ledger insert it decides not to
// keep; pkg/ledger's in-memory TryConsume has no such rollback). Checking
// the counter first means a rate-limited call never touches the ledger at
// all, and the ledger is only ever consulted once the credential is known
// to have room for one more presentation — so neither failure path
// mutates any state, matching store.Store's contract. The store's mutex
// is held for the whole call, serializing it with any concurrent
// RecordPresentation for the same credential; that coarser-than-sqlitestore
// locking is fine for this package's single-process demo use.
func (s *Store) RecordPresentation(ctx context.Context, id uuid.UUID, nonce uint64, contextHash []byte, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.credentials[id]
	if !ok {
		return 0, store.ErrNotFound
	}
	if cred.PresentationsUsed+1 > cred.Capabilities.MaxPresentations {
		return 0, store.ErrRateLimitExceeded
	}

	consumed, err := s.ledger.TryConsume(ctx, id, nonce, contextHash, now)
	if err != nil {
		return 0, err
	}
	if !consumed {
		return 0, store.ErrReplay
	}

	cred.PresentationsUsed++
	return cred.Capabilities.MaxPresentations - cred.PresentationsUsed, nil
}

func (s *Store) Revoke(ctx context.Context, id uuid.UUID, reason string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.credentials[id]
	if !ok {
		return store.ErrNotFound
	}
	cred.Revoked = true
	revokedAt := now
	cred.RevokedAt = &revokedAt
	cred.RevocationReason = reason
	return nil
}

func (s *Store) Close() error { return nil }
