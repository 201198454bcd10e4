// Package config loads the gateway's §6.6 configuration: a YAML file merged
// with environment overrides.
package config

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the recognized options from spec.md §6.6.
type Config struct {
	GatewayIssuerURL            string        `yaml:"gateway_issuer_url"`
	SigningKeyHex               string        `yaml:"signing_key"`
	PublicKeyHex                string        `yaml:"public_key"`
	IDPBaseURL                  string        `yaml:"idp_base_url"`
	IDPJWKSRefresh              time.Duration `yaml:"idp_jwks_refresh"`
	RateLimitWindowDefault      time.Duration `yaml:"rate_limit_window_default"`
	MaxDelegationDepthDefault   int           `yaml:"max_delegation_depth_default"`
	PresentationLedgerRetention time.Duration `yaml:"presentation_ledger_retention"`
	BindAddr                    string        `yaml:"bind_addr"`
}

// Default returns the gateway's out-of-the-box option set.
func Default() Config {
	return Config{
		IDPJWKSRefresh:              15 * time.Minute,
		RateLimitWindowDefault:      time.Hour,
		MaxDelegationDepthDefault:   5,
		PresentationLedgerRetention: 30 * 24 * time.Hour,
		BindAddr:                    "0.0.0.0:8443",
	}
}

// Load reads path as YAML over Default, then applies ACDP_-prefixed
// environment overrides (Load lets an operator keep key material out of
// the checked-in file: ACDP_SIGNING_KEY overrides signing_key).
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v, ok := os.LookupEnv("ACDP_GATEWAY_ISSUER_URL"); ok {
		cfg.GatewayIssuerURL = v
	}
	if v, ok := os.LookupEnv("ACDP_SIGNING_KEY"); ok {
		cfg.SigningKeyHex = v
	}
	if v, ok := os.LookupEnv("ACDP_PUBLIC_KEY"); ok {
		cfg.PublicKeyHex = v
	}
	if v, ok := os.LookupEnv("ACDP_IDP_BASE_URL"); ok {
		cfg.IDPBaseURL = v
	}
	if v, ok := os.LookupEnv("ACDP_IDP_JWKS_REFRESH"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.IDPJWKSRefresh = d
		}
	}
	if v, ok := os.LookupEnv("ACDP_RATE_LIMIT_WINDOW_DEFAULT"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RateLimitWindowDefault = d
		}
	}
	if v, ok := os.LookupEnv("ACDP_MAX_DELEGATION_DEPTH_DEFAULT"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxDelegationDepthDefault = n
		}
	}
	if v, ok := os.LookupEnv("ACDP_PRESENTATION_LEDGER_RETENTION"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.PresentationLedgerRetention = d
		}
	}
	if v, ok := os.LookupEnv("ACDP_BIND_ADDR"); ok {
		cfg.BindAddr = v
	}
}

// SigningKey decodes SigningKeyHex into an Ed25519 private key.
func (c Config) SigningKey() (ed25519.PrivateKey, error) {
	raw, err := hex.DecodeString(c.SigningKeyHex)
	if err != nil {
		return nil, fmt.Errorf("config: signing_key: %w", err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("config: signing_key: want %d bytes, got %d", ed25519.PrivateKeySize, len(raw))
	}
	return ed25519.PrivateKey(raw), nil
}

// PublicKey decodes PublicKeyHex into an Ed25519 public key.
func (c Config) PublicKey() (ed25519.PublicKey, error) {
	raw, err := hex.DecodeString(c.PublicKeyHex)
	if err != nil {
		return nil, fmt.Errorf("config: public_key: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("config: public_key: want %d bytes, got %d", ed25519.PublicKeySize, len(raw))
	}
	return ed25519.PublicKey(raw), nil
}

// Validate checks that required fields are present and well-formed.
func (c Config) Validate() error {
	if c.GatewayIssuerURL == "" {
		return fmt.Errorf("config: gateway_issuer_url is required")
	}
	if c.IDPBaseURL == "" {
		return fmt.Errorf("config: idp_base_url is required")
	}
	if _, err := c.SigningKey(); err != nil {
		return err
	}
	if _, err := c.PublicKey(); err != nil {
		return err
	}
	if c.MaxDelegationDepthDefault < 1 {
		return fmt.Errorf("config: max_delegation_depth_default must be at least 1")
	}
	return nil
}
