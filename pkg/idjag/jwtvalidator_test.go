package idjag

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

func startJWKSServer(t *testing.T, kid string, pub *ecdsa.PublicKey) *httptest.Server {
	t.Helper()
	set := jwkSet{Keys: []jwk{{
		Kty: "EC",
		Kid: kid,
		Crv: "P-256",
		X:   base64.RawURLEncoding.EncodeToString(pub.X.Bytes()),
		Y:   base64.RawURLEncoding.EncodeToString(pub.Y.Bytes()),
	}}}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(set)
	}))
}

func signTestToken(t *testing.T, priv *ecdsa.PrivateKey, kid, aud, typ string, expiresIn time.Duration) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   "agent-runner-1",
		Issuer:    "https://idp.example.com",
		Audience:  jwt.ClaimStrings{aud},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["kid"] = kid
	if typ != "" {
		token.Header["typ"] = typ
	}
	signed, err := token.SignedString(priv)
	if err != nil {
		t.Fatalf("signing test token: %v", err)
	}
	return signed
}

func TestValidateAcceptsWellFormedToken(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generating key: %v", err)
	}
	srv := startJWKSServer(t, "key-1", &priv.PublicKey)
	defer srv.Close()

	v := NewJWTValidator(srv.URL, time.Minute)
	tok := signTestToken(t, priv, "key-1", "https://gateway.example.com", TokenType, time.Hour)

	claims, err := v.Validate(context.Background(), tok, "https://gateway.example.com")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.Subject != "agent-runner-1" {
		t.Fatalf("unexpected subject: %q", claims.Subject)
	}
}

func TestValidateRejectsWrongAudience(t *testing.T) {
	priv, _ := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	srv := startJWKSServer(t, "key-1", &priv.PublicKey)
	defer srv.Close()

	v := NewJWTValidator(srv.URL, time.Minute)
	tok := signTestToken(t, priv, "key-1", "https://someone-else.example.com", TokenType, time.Hour)

	if _, err := v.Validate(context.Background(), tok, "https://gateway.example.com"); err != ErrAudienceMismatch {
		t.Fatalf("expected ErrAudienceMismatch, got %v", err)
	}
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	priv, _ := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	srv := startJWKSServer(t, "key-1", &priv.PublicKey)
	defer srv.Close()

	v := NewJWTValidator(srv.URL, time.Minute)
	tok := signTestToken(t, priv, "key-1", "https://gateway.example.com", TokenType, -time.Hour)

	if _, err := v.Validate(context.Background(), tok, "https://gateway.example.com"); err != ErrExpired {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestValidateRejectsWrongTokenType(t *testing.T) {
	priv, _ := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	srv := startJWKSServer(t, "key-1", &priv.PublicKey)
	defer srv.Close()

	v := NewJWTValidator(srv.URL, time.Minute)
	tok := signTestToken(t, priv, "key-1", "https://gateway.example.com", "jwt", time.Hour)

	if _, err := v.Validate(context.Background(), tok, "https://gateway.example.com"); err != ErrWrongTokenType {
		t.Fatalf("expected ErrWrongTokenType, got %v", err)
	}
}

func TestValidateRejectsUnknownKid(t *testing.T) {
	priv, _ := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	srv := startJWKSServer(t, "key-1", &priv.PublicKey)
	defer srv.Close()

	v := NewJWTValidator(srv.URL, time.Minute)
	tok := signTestToken(t, priv, "key-unknown", "https://gateway.example.com", TokenType, time.Hour)

	if _, err := v.Validate(context.Background(), tok, "https://gateway.example.com"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
