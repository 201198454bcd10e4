// Package idjag is the boundary to the ID-JAG (Identity Join-Authorization
// Grant) subsystem: OIDC token parsing and IdP key discovery are out of
// scope for the gateway core, so this package only defines the interface
// the issuance handler depends on, plus one concrete adapter.
package idjag

import (
	"context"
	"errors"
	"time"
)

// TokenType is the JWT "typ" header ID-JAG tokens must carry.
const TokenType = "oauth-id-jag+jwt"

var (
	// ErrInvalidToken covers malformed JWTs, bad signatures, and unsupported algorithms.
	ErrInvalidToken = errors.New("idjag: invalid token")
	// ErrExpired is returned for a token whose exp has passed.
	ErrExpired = errors.New("idjag: token expired")
	// ErrAudienceMismatch is returned when aud does not contain the expected gateway identity.
	ErrAudienceMismatch = errors.New("idjag: audience mismatch")
	// ErrWrongTokenType is returned when typ is not TokenType.
	ErrWrongTokenType = errors.New("idjag: wrong token type")
)

// Claims is the subset of an ID-JAG's payload the gateway core consumes.
type Claims struct {
	Subject   string
	Issuer    string
	Audience  []string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// Validator checks a bearer ID-JAG against an expected audience. Concrete
// adapters own all OIDC/JWKS machinery; the core only ever sees Claims.
type Validator interface {
	Validate(ctx context.Context, bearerToken string, expectedAudience string) (*Claims, error)
}
