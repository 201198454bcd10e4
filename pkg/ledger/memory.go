package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/bits-and-blooms/bitset"
	"github.com/google/uuid"

	"github.com/acdp/acdp-core/internal/common"
)

type consumedKey struct {
	nonce       uint64
	contextHash string
}

type credentialLedger struct {
	mu        sync.Mutex
	consumed  map[consumedKey]time.Time
	nonceSeen *bitset.BitSet // coarse per-nonce usage, for UsedNonceCount
}

// InMemory is a process-local Ledger backed by a bitset per credential for
// cheap nonce-usage accounting, plus an exact map for the
// (nonce, context_hash) uniqueness the replay check actually needs — a
// single bitset bit can't distinguish "this nonce used once for context A"
// from "used for both A and B", which spec.md §4.5 explicitly allows.
// Intended as the reference/test-harness ledger; production deployments
// use pkg/store's SQL-backed ledger table instead.
type InMemory struct {
	mu          sync.Mutex
	perCredential map[uuid.UUID]*credentialLedger
	nonceWindow int
}

// NewInMemory builds an in-memory ledger sized for nonces in [0, nonceWindow).
func NewInMemory(nonceWindow int) *InMemory {
	if nonceWindow <= 0 {
		nonceWindow = common.DefaultNonceWindow
	}
	return &InMemory{
		perCredential: make(map[uuid.UUID]*credentialLedger),
		nonceWindow:   nonceWindow,
	}
}

func (m *InMemory) entryFor(credentialID uuid.UUID) *credentialLedger {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.perCredential[credentialID]
	if !ok {
		entry = &credentialLedger{
			consumed:  make(map[consumedKey]time.Time),
			nonceSeen: bitset.New(uint(m.nonceWindow)),
		}
		m.perCredential[credentialID] = entry
	}
	return entry
}

func (m *InMemory) TryConsume(_ context.Context, credentialID uuid.UUID, nonce uint64, contextHash []byte, now time.Time) (bool, error) {
	entry := m.entryFor(credentialID)
	key := consumedKey{nonce: nonce, contextHash: string(contextHash)}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if _, exists := entry.consumed[key]; exists {
		return false, nil
	}
	entry.consumed[key] = now
	if nonce < uint64(m.nonceWindow) {
		entry.nonceSeen.Set(uint(nonce))
	}
	return true, nil
}

// UsedNonceCount counts the distinct nonces in [0, nonceWindow) consumed for
// credentialID; nonces at or above the window are not counted.
func (m *InMemory) UsedNonceCount(_ context.Context, credentialID uuid.UUID) (int, error) {
	entry := m.entryFor(credentialID)
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return int(entry.nonceSeen.Count()), nil
}

func (m *InMemory) Prune(_ context.Context, now time.Time, retention time.Duration) error {
	cutoff := now.Add(-retention)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, entry := range m.perCredential {
		entry.mu.Lock()
		for key, consumedAt := range entry.consumed {
			if consumedAt.Before(cutoff) {
				delete(entry.consumed, key)
			}
		}
		entry.mu.Unlock()
	}
	return nil
}
