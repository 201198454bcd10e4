package config

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
)

func writeTestYAML(t *testing.T, dir string) (string, string, string) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	privHex := hex.EncodeToString(priv)
	pubHex := hex.EncodeToString(pub)

	content := "gateway_issuer_url: https://issuer.example.test\n" +
		"signing_key: " + privHex + "\n" +
		"public_key: " + pubHex + "\n" +
		"idp_base_url: https://idp.example.test\n" +
		"idp_jwks_refresh: 5m\n" +
		"rate_limit_window_default: 30m\n" +
		"max_delegation_depth_default: 3\n" +
		"presentation_ledger_retention: 168h\n" +
		"bind_addr: 127.0.0.1:9443\n"

	path := filepath.Join(dir, "gateway.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path, privHex, pubHex
}

func TestLoadParsesYAML(t *testing.T) {
	path, privHex, pubHex := writeTestYAML(t, t.TempDir())

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GatewayIssuerURL != "https://issuer.example.test" {
		t.Fatalf("unexpected gateway_issuer_url: %q", cfg.GatewayIssuerURL)
	}
	if cfg.SigningKeyHex != privHex || cfg.PublicKeyHex != pubHex {
		t.Fatal("signing/public key not parsed as given")
	}
	if cfg.MaxDelegationDepthDefault != 3 {
		t.Fatalf("expected max_delegation_depth_default 3, got %d", cfg.MaxDelegationDepthDefault)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestDefaultFillsUnsetOptions(t *testing.T) {
	cfg := Default()
	if cfg.MaxDelegationDepthDefault != 5 {
		t.Fatalf("expected default max_delegation_depth_default 5, got %d", cfg.MaxDelegationDepthDefault)
	}
	if cfg.BindAddr == "" {
		t.Fatal("expected a non-empty default bind_addr")
	}
}

func TestEnvOverridesYAML(t *testing.T) {
	path, _, pubHex := writeTestYAML(t, t.TempDir())

	t.Setenv("ACDP_GATEWAY_ISSUER_URL", "https://override.example.test")
	t.Setenv("ACDP_MAX_DELEGATION_DEPTH_DEFAULT", "9")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GatewayIssuerURL != "https://override.example.test" {
		t.Fatalf("expected env override to win, got %q", cfg.GatewayIssuerURL)
	}
	if cfg.MaxDelegationDepthDefault != 9 {
		t.Fatalf("expected env override 9, got %d", cfg.MaxDelegationDepthDefault)
	}
	if cfg.PublicKeyHex != pubHex {
		t.Fatal("non-overridden field should retain YAML value")
	}
}

func TestValidateRejectsMissingFields(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing gateway_issuer_url/idp_base_url/keys")
	}
}

func TestSigningKeyRejectsWrongLength(t *testing.T) {
	cfg := Default()
	cfg.SigningKeyHex = hex.EncodeToString([]byte("too-short"))
	if _, err := cfg.SigningKey(); err == nil {
		t.Fatal("expected error for undersized signing key")
	}
}
