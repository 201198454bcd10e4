package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/acdp/acdp-core/pkg/credential"
	"github.com/acdp/acdp-core/pkg/store"
)

func newTestCredential(t *testing.T) *credential.Credential {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	return &credential.Credential{
		Version:          credential.CurrentVersion,
		CredentialID:     uuid.New(),
		CredentialType:   credential.IdentityBound,
		PrincipalSubject: "user-123",
		PrincipalIssuer:  "https://idp.example.com",
		AgentID:          "agent-abc",
		Capabilities: credential.Capabilities{
			AllowedTools:     []string{"search.*"},
			MaxPresentations: 3,
		},
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
	}
}

func TestCreateAndGetCredential(t *testing.T) {
	s := New(0)
	ctx := context.Background()
	cred := newTestCredential(t)

	if err := s.CreateCredential(ctx, cred); err != nil {
		t.Fatalf("CreateCredential: %v", err)
	}
	got, err := s.GetCredential(ctx, cred.CredentialID)
	if err != nil {
		t.Fatalf("GetCredential: %v", err)
	}
	if got.AgentID != cred.AgentID {
		t.Fatalf("agent id mismatch: got %q want %q", got.AgentID, cred.AgentID)
	}
}

func TestGetCredentialNotFound(t *testing.T) {
	s := New(0)
	_, err := s.GetCredential(context.Background(), uuid.New())
	if err != store.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecordPresentationReplayRejected(t *testing.T) {
	s := New(0)
	ctx := context.Background()
	cred := newTestCredential(t)
	if err := s.CreateCredential(ctx, cred); err != nil {
		t.Fatalf("CreateCredential: %v", err)
	}

	now := time.Now()
	if _, err := s.RecordPresentation(ctx, cred.CredentialID, 1, []byte("ctx"), now); err != nil {
		t.Fatalf("first RecordPresentation: %v", err)
	}
	if _, err := s.RecordPresentation(ctx, cred.CredentialID, 1, []byte("ctx"), now); err != store.ErrReplay {
		t.Fatalf("expected ErrReplay, got %v", err)
	}
}

func TestRecordPresentationRateLimitExceeded(t *testing.T) {
	s := New(0)
	ctx := context.Background()
	cred := newTestCredential(t)
	cred.Capabilities.MaxPresentations = 1
	if err := s.CreateCredential(ctx, cred); err != nil {
		t.Fatalf("CreateCredential: %v", err)
	}

	now := time.Now()
	if _, err := s.RecordPresentation(ctx, cred.CredentialID, 1, []byte("ctxA"), now); err != nil {
		t.Fatalf("first RecordPresentation: %v", err)
	}
	if _, err := s.RecordPresentation(ctx, cred.CredentialID, 2, []byte("ctxB"), now); err != store.ErrRateLimitExceeded {
		t.Fatalf("expected ErrRateLimitExceeded, got %v", err)
	}

	got, err := s.GetCredential(ctx, cred.CredentialID)
	if err != nil {
		t.Fatalf("GetCredential: %v", err)
	}
	if got.PresentationsUsed != 1 {
		t.Fatalf("expected presentations_used to stay at 1, got %d", got.PresentationsUsed)
	}

	// The rejected nonce must not have been consumed either, or a
	// legitimate retry after the caller raises its rate limit would be
	// mistaken for a replay.
	cred.Capabilities.MaxPresentations = 2
	s.credentials[cred.CredentialID].Capabilities.MaxPresentations = 2
	if _, err := s.RecordPresentation(ctx, cred.CredentialID, 2, []byte("ctxB"), now); err != nil {
		t.Fatalf("expected nonce 2 to still be available, got %v", err)
	}
}

func TestRevoke(t *testing.T) {
	s := New(0)
	ctx := context.Background()
	cred := newTestCredential(t)
	if err := s.CreateCredential(ctx, cred); err != nil {
		t.Fatalf("CreateCredential: %v", err)
	}

	if err := s.Revoke(ctx, cred.CredentialID, "compromised", time.Now()); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	got, err := s.GetCredential(ctx, cred.CredentialID)
	if err != nil {
		t.Fatalf("GetCredential: %v", err)
	}
	if !got.Revoked {
		t.Fatal("expected credential to be marked revoked")
	}
}
