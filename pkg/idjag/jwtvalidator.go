package idjag

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// jagClaims mirrors golang-jwt's RegisteredClaims but keeps Audience as a
// raw string slice so callers get every aud entry, not just a match bool.
type jagClaims struct {
	jwt.RegisteredClaims
}

// jwtValidator is the concrete Validator backed by golang-jwt/jwt/v4 and a
// JWKS refresh cache, grounded on the pack-wide convention of validating
// bearer JWTs at a service boundary rather than trusting an opaque token.
type jwtValidator struct {
	jwks *jwksCache
}

// NewJWTValidator builds a Validator that fetches IdP signing keys from
// jwksURL. The cached key set is refetched once it is older than
// refreshInterval, and also whenever a token names a kid the cache does not
// hold.
func NewJWTValidator(jwksURL string, refreshInterval time.Duration) Validator {
	return &jwtValidator{jwks: newJWKSCache(jwksURL, refreshInterval)}
}

func (v *jwtValidator) Validate(ctx context.Context, bearerToken string, expectedAudience string) (*Claims, error) {
	var claims jagClaims
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"RS256", "ES256", "ES384"}))

	token, err := parser.ParseWithClaims(bearerToken, &claims, func(t *jwt.Token) (interface{}, error) {
		if typ, ok := t.Header["typ"].(string); !ok || typ != TokenType {
			return nil, ErrWrongTokenType
		}
		kid, _ := t.Header["kid"].(string)
		return v.jwks.keyForKid(kid)
	})
	if err != nil {
		switch {
		case errIsExpired(err):
			return nil, ErrExpired
		case errors.Is(err, ErrWrongTokenType):
			return nil, ErrWrongTokenType
		default:
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	audMatch := false
	for _, a := range claims.Audience {
		if a == expectedAudience {
			audMatch = true
			break
		}
	}
	if !audMatch {
		return nil, ErrAudienceMismatch
	}

	out := &Claims{
		Subject:  claims.Subject,
		Issuer:   claims.Issuer,
		Audience: []string(claims.Audience),
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}

func errIsExpired(err error) bool {
	ve, ok := err.(*jwt.ValidationError)
	return ok && ve.Errors&jwt.ValidationErrorExpired != 0
}
