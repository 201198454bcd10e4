// Package pgstore implements pkg/store.Store directly on jackc/pgx/v5,
// for production multi-instance ACDP gateway deployments where the
// serializable-transaction guarantees spec.md §5 requires must hold across
// concurrent gateway processes, not just within one.
package pgstore

import (
	"context"
	"encoding/hex"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/google/uuid"

	"github.com/acdp/acdp-core/pkg/credential"
	"github.com/acdp/acdp-core/pkg/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS credentials (
	credential_id TEXT PRIMARY KEY,
	credential_type INT NOT NULL,
	principal_subject TEXT,
	principal_issuer TEXT,
	agent_id TEXT NOT NULL,
	credential_data BYTEA NOT NULL,
	max_presentations INT NOT NULL,
	presentations_used INT NOT NULL DEFAULT 0,
	issued_at TIMESTAMPTZ NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL,
	parent_credential_id TEXT,
	revoked BOOLEAN NOT NULL DEFAULT FALSE,
	revoked_at TIMESTAMPTZ,
	revocation_reason TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_credentials_agent_id ON credentials (agent_id);
CREATE INDEX IF NOT EXISTS idx_credentials_principal ON credentials (principal_subject, principal_issuer);
CREATE INDEX IF NOT EXISTS idx_credentials_expires_at ON credentials (expires_at);
CREATE INDEX IF NOT EXISTS idx_credentials_parent ON credentials (parent_credential_id);

CREATE TABLE IF NOT EXISTS presentation_ledger (
	credential_id TEXT NOT NULL,
	nonce BIGINT NOT NULL,
	context_hash TEXT NOT NULL,
	consumed_at TIMESTAMPTZ NOT NULL,
	UNIQUE (credential_id, nonce, context_hash)
);
`

// Store is a pgx/v5-backed implementation of store.Store.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to Postgres at connString and ensures the schema exists.
func Open(ctx context.Context, connString string) (*Store, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) CreateCredential(ctx context.Context, cred *credential.Credential) error {
	data, err := cred.MarshalJSON()
	if err != nil {
		return err
	}
	var parentID *string
	if cred.ParentCredential != nil {
		id := cred.ParentCredential.String()
		parentID = &id
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO credentials
			(credential_id, credential_type, principal_subject, principal_issuer, agent_id,
			 credential_data, max_presentations, presentations_used, issued_at, expires_at,
			 parent_credential_id, revoked)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		cred.CredentialID.String(), int(cred.CredentialType), cred.PrincipalSubject, cred.PrincipalIssuer,
		cred.AgentID, data, cred.Capabilities.MaxPresentations, cred.PresentationsUsed,
		cred.IssuedAt, cred.ExpiresAt, parentID, cred.Revoked,
	)
	return err
}

func scanCredential(data []byte, presentationsUsed int, revoked bool, revokedAt *time.Time, reason string) (*credential.Credential, error) {
	var cred credential.Credential
	if err := cred.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	cred.PresentationsUsed = presentationsUsed
	cred.Revoked = revoked
	cred.RevokedAt = revokedAt
	cred.RevocationReason = reason
	return &cred, nil
}

func (s *Store) GetCredential(ctx context.Context, id uuid.UUID) (*credential.Credential, error) {
	var (
		data              []byte
		presentationsUsed int
		revoked           bool
		revokedAt         *time.Time
		reason            string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT credential_data, presentations_used, revoked, revoked_at, revocation_reason
		FROM credentials WHERE credential_id = $1`, id.String(),
	).Scan(&data, &presentationsUsed, &revoked, &revokedAt, &reason)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return scanCredential(data, presentationsUsed, revoked, revokedAt, reason)
}

func (s *Store) ListByAgent(ctx context.Context, agentID string) ([]*credential.Credential, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT credential_data, presentations_used, revoked, revoked_at, revocation_reason
		FROM credentials WHERE agent_id = $1`, agentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*credential.Credential
	for rows.Next() {
		var (
			data              []byte
			presentationsUsed int
			revoked           bool
			revokedAt         *time.Time
			reason            string
		)
		if err := rows.Scan(&data, &presentationsUsed, &revoked, &revokedAt, &reason); err != nil {
			return nil, err
		}
		cred, err := scanCredential(data, presentationsUsed, revoked, revokedAt, reason)
		if err != nil {
			return nil, err
		}
		out = append(out, cred)
	}
	return out, rows.Err()
}

// RecordPresentation runs the replay check, rate-limit check, and counter
// increment inside a single Serializable transaction (spec.md §5, §9).
func (s *Store) RecordPresentation(ctx context.Context, id uuid.UUID, nonce uint64, contextHash []byte, now time.Time) (int, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var maxPresentations, presentationsUsed int
	err = tx.QueryRow(ctx, `
		SELECT max_presentations, presentations_used FROM credentials
		WHERE credential_id = $1 FOR UPDATE`, id.String(),
	).Scan(&maxPresentations, &presentationsUsed)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, store.ErrNotFound
	}
	if err != nil {
		return 0, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO presentation_ledger (credential_id, nonce, context_hash, consumed_at)
		VALUES ($1,$2,$3,$4)`,
		id.String(), nonce, hex.EncodeToString(contextHash), now,
	)
	if err != nil {
		// Unique-violation on (credential_id, nonce, context_hash).
		return 0, store.ErrReplay
	}

	if presentationsUsed+1 > maxPresentations {
		return 0, store.ErrRateLimitExceeded
	}
	presentationsUsed++

	if _, err := tx.Exec(ctx, `
		UPDATE credentials SET presentations_used = $1, updated_at = now()
		WHERE credential_id = $2`, presentationsUsed, id.String(),
	); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return maxPresentations - presentationsUsed, nil
}

func (s *Store) Revoke(ctx context.Context, id uuid.UUID, reason string, now time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE credentials SET revoked = TRUE, revoked_at = $1, revocation_reason = $2, updated_at = now()
		WHERE credential_id = $3`, now, reason, id.String())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
