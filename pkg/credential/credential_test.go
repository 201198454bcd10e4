package credential

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/acdp/acdp-core/pkg/group"
)

func newTestCredential(t *testing.T, typ Type) *Credential {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	cred := &Credential{
		Version:        CurrentVersion,
		CredentialID:   uuid.New(),
		CredentialType: typ,
		AgentID:        "agent-1",
		AgentPublicKey: make([]byte, ed25519.PublicKeySize),
		Capabilities: Capabilities{
			AllowedTools:     []string{"fs/read", "fs/write"},
			MaxPresentations: 3,
		},
		Delegation: DelegationPolicy{CanDelegate: true, MaxDepth: 2},
		IssuedAt:   now,
		ExpiresAt:  now.Add(24 * time.Hour),
	}
	if typ != IdentityBound {
		m1, err := group.RandomScalar(rand.Reader)
		if err != nil {
			t.Fatalf("RandomScalar: %v", err)
		}
		cred.ARC = &ARCData{
			U:        group.HashToCurve("test-u", []byte("u")),
			Q:        group.HashToCurve("test-q", []byte("q")),
			X1:       group.ScalarBaseMul(m1),
			M1Commit: group.HashToCurve("test-commit", []byte("commit")),
		}
	}
	return cred
}

func TestSignVerifyRoundTripIdentityBound(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	cred := newTestCredential(t, IdentityBound)

	if err := cred.Sign(priv); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if err := cred.VerifySignature(pub); err != nil {
		t.Fatalf("VerifySignature: %v", err)
	}
}

func TestVerifySignatureRejectsTamperedField(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	cred := newTestCredential(t, Hybrid)
	if err := cred.Sign(priv); err != nil {
		t.Fatalf("Sign: %v", err)
	}

	cred.AgentID = "agent-2"
	if err := cred.VerifySignature(pub); err == nil {
		t.Fatal("expected signature verification failure after tampering")
	}
}

func TestAnonymousVerifySignatureTrivial(t *testing.T) {
	cred := newTestCredential(t, Anonymous)
	if err := cred.VerifySignature(ed25519.PublicKey(make([]byte, ed25519.PublicKeySize))); err != nil {
		t.Fatalf("anonymous VerifySignature should not fail: %v", err)
	}
}

func TestAnonymousSignRejected(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	cred := newTestCredential(t, Anonymous)
	if err := cred.Sign(priv); err != ErrUnsupportedVariant {
		t.Fatalf("expected ErrUnsupportedVariant, got %v", err)
	}
}

func TestCredentialJSONRoundTrip(t *testing.T) {
	cred := newTestCredential(t, Hybrid)
	data, err := json.Marshal(cred)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded Credential
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.CredentialID != cred.CredentialID {
		t.Fatal("credential id did not round-trip")
	}
	if !decoded.ARC.U.Equal(cred.ARC.U) {
		t.Fatal("ARC.U did not round-trip")
	}
	if decoded.Version != cred.Version {
		t.Fatalf("version did not round-trip: got %q want %q", decoded.Version, cred.Version)
	}
}

func TestCheckVersionRejectsUnknown(t *testing.T) {
	cred := newTestCredential(t, IdentityBound)
	if err := cred.CheckVersion(); err != nil {
		t.Fatalf("CheckVersion on a current-version credential: %v", err)
	}

	cred.Version = "0.2"
	if err := cred.CheckVersion(); err != ErrUnsupportedVersion {
		t.Fatalf("expected ErrUnsupportedVersion, got %v", err)
	}
}

func TestUnmarshalJSONRejectsOversized(t *testing.T) {
	oversized := make([]byte, MaxCredentialSize+1)
	var cred Credential
	if err := cred.UnmarshalJSON(oversized); err != ErrCredentialTooLarge {
		t.Fatalf("expected ErrCredentialTooLarge, got %v", err)
	}
}

func TestCapabilitiesAllows(t *testing.T) {
	caps := Capabilities{AllowedTools: []string{"fs/*"}, DeniedTools: []string{"fs/delete"}}
	if !caps.Allows("fs/read") {
		t.Fatal("expected fs/read to be allowed")
	}
	if caps.Allows("fs/delete") {
		t.Fatal("expected fs/delete to be denied")
	}
	if caps.Allows("net/http") {
		t.Fatal("expected net/http to not match any allow pattern")
	}
}

func TestCapabilitiesIsReductionOf(t *testing.T) {
	parent := Capabilities{AllowedTools: []string{"fs/read", "fs/write"}, DeniedTools: []string{}}
	validChild := Capabilities{AllowedTools: []string{"fs/read"}, DeniedTools: []string{}}
	invalidChild := Capabilities{AllowedTools: []string{"fs/read", "net/http"}, DeniedTools: []string{}}

	if !validChild.IsReductionOf(parent) {
		t.Fatal("expected validChild to be a reduction of parent")
	}
	if invalidChild.IsReductionOf(parent) {
		t.Fatal("expected invalidChild (capability escalation) to be rejected")
	}
}

func TestCredentialIsExpired(t *testing.T) {
	cred := newTestCredential(t, IdentityBound)
	if cred.IsExpired(cred.IssuedAt) {
		t.Fatal("credential should not be expired at issuance")
	}
	if !cred.IsExpired(cred.ExpiresAt) {
		t.Fatal("credential should be expired at its ExpiresAt boundary (exclusive)")
	}
}
