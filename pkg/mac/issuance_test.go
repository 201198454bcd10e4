package mac

import (
	"crypto/rand"
	"errors"
	"testing"

	"github.com/acdp/acdp-core/pkg/group"
)

func TestBlindedIssuanceFullRoundTrip(t *testing.T) {
	key, err := GenerateKeyPair(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}

	req, reqSecret, err := CreateIssuanceRequest(key.Public, rand.Reader)
	if err != nil {
		t.Fatalf("CreateIssuanceRequest: %v", err)
	}
	if err := VerifyIssuanceRequest(key.Public, req); err != nil {
		t.Fatalf("VerifyIssuanceRequest: %v", err)
	}

	resp, err := CreateIssuanceResponse(key, req, rand.Reader)
	if err != nil {
		t.Fatalf("CreateIssuanceResponse: %v", err)
	}
	if err := VerifyIssuanceResponse(key.Public, req.Commit, resp); err != nil {
		t.Fatalf("VerifyIssuanceResponse: %v", err)
	}

	mac, err := FinalizeIssuance(reqSecret, resp, rand.Reader)
	if err != nil {
		t.Fatalf("FinalizeIssuance: %v", err)
	}
	if mac.U.IsIdentity() {
		t.Fatal("finalized U must not be the identity point")
	}

	if err := VerifyMAC(&key.Secret, reqSecret.M1, mac); err != nil {
		t.Fatalf("VerifyMAC: %v", err)
	}
}

func TestIssueDirectARCRoundTrip(t *testing.T) {
	key, err := GenerateKeyPair(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}

	direct, err := IssueDirectARC(key, rand.Reader)
	if err != nil {
		t.Fatalf("IssueDirectARC: %v", err)
	}
	if direct.U.IsIdentity() {
		t.Fatal("direct issuance U must not be the identity point")
	}
	if !direct.X1.Equal(key.Public.X1) {
		t.Fatal("X1 must echo the issuer's published X1")
	}

	got := &MAC{U: direct.U, Q: direct.Q}
	if err := VerifyMAC(&key.Secret, direct.M1, got); err != nil {
		t.Fatalf("VerifyMAC: %v", err)
	}
}

func TestIssueDirectARCProducesIndependentIssuances(t *testing.T) {
	key, err := GenerateKeyPair(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}

	a, err := IssueDirectARC(key, rand.Reader)
	if err != nil {
		t.Fatalf("IssueDirectARC a: %v", err)
	}
	b, err := IssueDirectARC(key, rand.Reader)
	if err != nil {
		t.Fatalf("IssueDirectARC b: %v", err)
	}

	if a.U.Equal(b.U) || a.M1.Equal(b.M1) {
		t.Fatal("two direct issuances must not share U or m1")
	}
}

func TestVerifyIssuanceRequestRejectsTamperedCommit(t *testing.T) {
	key, err := GenerateKeyPair(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	req, _, err := CreateIssuanceRequest(key.Public, rand.Reader)
	if err != nil {
		t.Fatalf("CreateIssuanceRequest: %v", err)
	}

	req.Commit = req.Commit.Add(group.G())
	err = VerifyIssuanceRequest(key.Public, req)
	if !errors.Is(err, ErrRequestProofInvalid) {
		t.Fatalf("expected ErrRequestProofInvalid, got %v", err)
	}
}

func TestVerifyIssuanceResponseRejectsWrongKey(t *testing.T) {
	key, err := GenerateKeyPair(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	other, err := GenerateKeyPair(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}

	req, _, err := CreateIssuanceRequest(key.Public, rand.Reader)
	if err != nil {
		t.Fatalf("CreateIssuanceRequest: %v", err)
	}
	resp, err := CreateIssuanceResponse(key, req, rand.Reader)
	if err != nil {
		t.Fatalf("CreateIssuanceResponse: %v", err)
	}

	err = VerifyIssuanceResponse(other.Public, req.Commit, resp)
	if !errors.Is(err, ErrIssuerProofInvalid) {
		t.Fatalf("expected ErrIssuerProofInvalid, got %v", err)
	}
}

func TestVerifyMACRejectsWrongM1(t *testing.T) {
	key, err := GenerateKeyPair(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	req, reqSecret, err := CreateIssuanceRequest(key.Public, rand.Reader)
	if err != nil {
		t.Fatalf("CreateIssuanceRequest: %v", err)
	}
	resp, err := CreateIssuanceResponse(key, req, rand.Reader)
	if err != nil {
		t.Fatalf("CreateIssuanceResponse: %v", err)
	}
	mac, err := FinalizeIssuance(reqSecret, resp, rand.Reader)
	if err != nil {
		t.Fatalf("FinalizeIssuance: %v", err)
	}

	wrongM1, err := group.RandomScalar(rand.Reader)
	if err != nil {
		t.Fatalf("RandomScalar: %v", err)
	}
	err = VerifyMAC(&key.Secret, wrongM1, mac)
	if !errors.Is(err, ErrMacMismatch) {
		t.Fatalf("expected ErrMacMismatch, got %v", err)
	}
}

func TestKeyPairZeroize(t *testing.T) {
	key, err := GenerateKeyPair(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	key.Secret.Zeroize()
	zero := group.NewScalar()
	if !key.Secret.X0.Equal(zero) || !key.Secret.X1.Equal(zero) ||
		!key.Secret.X2.Equal(zero) || !key.Secret.X0Blind.Equal(zero) {
		t.Fatal("Zeroize did not clear all secret scalars")
	}
}
