package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestTryConsumeRejectsReplay(t *testing.T) {
	l := NewInMemory(16)
	ctx := context.Background()
	credID := uuid.New()
	now := time.Now()

	ok, err := l.TryConsume(ctx, credID, 7, []byte("ctxA"), now)
	if err != nil {
		t.Fatalf("TryConsume: %v", err)
	}
	if !ok {
		t.Fatal("expected first consume to succeed")
	}

	ok, err = l.TryConsume(ctx, credID, 7, []byte("ctxA"), now)
	if err != nil {
		t.Fatalf("TryConsume: %v", err)
	}
	if ok {
		t.Fatal("expected replay to be rejected")
	}
}

func TestTryConsumeAllowsSameNonceDifferentContext(t *testing.T) {
	l := NewInMemory(16)
	ctx := context.Background()
	credID := uuid.New()
	now := time.Now()

	if ok, err := l.TryConsume(ctx, credID, 3, []byte("ctxA"), now); err != nil || !ok {
		t.Fatalf("first consume: ok=%v err=%v", ok, err)
	}
	if ok, err := l.TryConsume(ctx, credID, 3, []byte("ctxB"), now); err != nil || !ok {
		t.Fatalf("second consume with different context should succeed: ok=%v err=%v", ok, err)
	}
}

func TestUsedNonceCount(t *testing.T) {
	l := NewInMemory(16)
	ctx := context.Background()
	credID := uuid.New()
	now := time.Now()

	for _, n := range []uint64{0, 1, 2} {
		if _, err := l.TryConsume(ctx, credID, n, []byte("ctx"), now); err != nil {
			t.Fatalf("TryConsume: %v", err)
		}
	}
	count, err := l.UsedNonceCount(ctx, credID)
	if err != nil {
		t.Fatalf("UsedNonceCount: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 used nonces, got %d", count)
	}
}

func TestTryConsumeConcurrentOnlyOneWinsPerKey(t *testing.T) {
	l := NewInMemory(16)
	ctx := context.Background()
	credID := uuid.New()
	now := time.Now()

	const attempts = 32
	var wg sync.WaitGroup
	successes := make([]bool, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			ok, err := l.TryConsume(ctx, credID, 5, []byte("ctxRace"), now)
			if err != nil {
				t.Errorf("TryConsume: %v", err)
				return
			}
			successes[idx] = ok
		}(i)
	}
	wg.Wait()

	won := 0
	for _, s := range successes {
		if s {
			won++
		}
	}
	if won != 1 {
		t.Fatalf("expected exactly 1 winner for the same key, got %d", won)
	}
}
