// Package sqlitestore implements pkg/store.Store on top of gorm and
// glebarez/sqlite (a pure-Go, cgo-free sqlite driver), for embedded or
// single-process ACDP gateway deployments.
package sqlitestore

import (
	"context"
	"encoding/hex"
	"errors"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/acdp/acdp-core/pkg/credential"
	"github.com/acdp/acdp-core/pkg/store"
)

// credentialRow is the gorm model backing the credential table (spec.md
// §6.4). CredentialData holds the credential's own canonical+signature
// JSON encoding; the structured columns alongside it exist purely for
// indexed lookups.
type credentialRow struct {
	CredentialID      string `gorm:"primaryKey"`
	CredentialType    int
	PrincipalSubject  string `gorm:"index:idx_principal"`
	PrincipalIssuer   string `gorm:"index:idx_principal"`
	AgentID           string `gorm:"index"`
	CredentialData    []byte
	MaxPresentations  int
	PresentationsUsed int
	IssuedAt          time.Time
	ExpiresAt         time.Time `gorm:"index"`
	ParentCredentialID string   `gorm:"index"`
	Revoked           bool
	RevokedAt         *time.Time
	RevocationReason  string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (credentialRow) TableName() string { return "credentials" }

// ledgerRow is the gorm model backing the presentation ledger table.
type ledgerRow struct {
	CredentialID string `gorm:"uniqueIndex:idx_ledger_key"`
	Nonce        uint64 `gorm:"uniqueIndex:idx_ledger_key"`
	ContextHash  string `gorm:"uniqueIndex:idx_ledger_key"`
	ConsumedAt   time.Time
}

func (ledgerRow) TableName() string { return "presentation_ledger" }

// Store is a gorm-backed, sqlite-embedded implementation of
// store.Store.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if necessary) a sqlite database at path and
// migrates the schema.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&credentialRow{}, &ledgerRow{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func toRow(cred *credential.Credential) (*credentialRow, error) {
	data, err := cred.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var parentID string
	if cred.ParentCredential != nil {
		parentID = cred.ParentCredential.String()
	}
	return &credentialRow{
		CredentialID:       cred.CredentialID.String(),
		CredentialType:     int(cred.CredentialType),
		PrincipalSubject:   cred.PrincipalSubject,
		PrincipalIssuer:    cred.PrincipalIssuer,
		AgentID:            cred.AgentID,
		CredentialData:     data,
		MaxPresentations:   cred.Capabilities.MaxPresentations,
		PresentationsUsed:  cred.PresentationsUsed,
		IssuedAt:           cred.IssuedAt,
		ExpiresAt:          cred.ExpiresAt,
		ParentCredentialID: parentID,
		Revoked:            cred.Revoked,
		RevokedAt:          cred.RevokedAt,
		RevocationReason:   cred.RevocationReason,
	}, nil
}

func fromRow(row *credentialRow) (*credential.Credential, error) {
	var cred credential.Credential
	if err := cred.UnmarshalJSON(row.CredentialData); err != nil {
		return nil, err
	}
	// The structured columns are the source of truth for mutable fields
	// a concurrent RecordPresentation call may have advanced since
	// CredentialData was last written.
	cred.PresentationsUsed = row.PresentationsUsed
	cred.Revoked = row.Revoked
	cred.RevokedAt = row.RevokedAt
	cred.RevocationReason = row.RevocationReason
	return &cred, nil
}

func (s *Store) CreateCredential(ctx context.Context, cred *credential.Credential) error {
	row, err := toRow(cred)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Create(row).Error
}

func (s *Store) GetCredential(ctx context.Context, id uuid.UUID) (*credential.Credential, error) {
	var row credentialRow
	err := s.db.WithContext(ctx).First(&row, "credential_id = ?", id.String()).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return fromRow(&row)
}

func (s *Store) ListByAgent(ctx context.Context, agentID string) ([]*credential.Credential, error) {
	var rows []credentialRow
	if err := s.db.WithContext(ctx).Find(&rows, "agent_id = ?", agentID).Error; err != nil {
		return nil, err
	}
	out := make([]*credential.Credential, 0, len(rows))
	for i := range rows {
		cred, err := fromRow(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, cred)
	}
	return out, nil
}

// RecordPresentation performs the replay check, rate-limit check, and
// counter increment inside one serializable gorm transaction, satisfying
// spec.md §9's "Transactional ledger" requirement.
func (s *Store) RecordPresentation(ctx context.Context, id uuid.UUID, nonce uint64, contextHash []byte, now time.Time) (int, error) {
	var remaining int
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row credentialRow
		if err := tx.Set("gorm:query_option", "FOR UPDATE").First(&row, "credential_id = ?", id.String()).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return store.ErrNotFound
			}
			return err
		}

		entry := ledgerRow{
			CredentialID: id.String(),
			Nonce:        nonce,
			ContextHash:  hex.EncodeToString(contextHash),
			ConsumedAt:   now,
		}
		if err := tx.Create(&entry).Error; err != nil {
			// The unique index on (credential_id, nonce, context_hash)
			// is what actually enforces replay rejection.
			return store.ErrReplay
		}

		if row.PresentationsUsed+1 > row.MaxPresentations {
			return store.ErrRateLimitExceeded
		}
		row.PresentationsUsed++
		if err := tx.Model(&credentialRow{}).
			Where("credential_id = ?", id.String()).
			Update("presentations_used", row.PresentationsUsed).Error; err != nil {
			return err
		}

		remaining = row.MaxPresentations - row.PresentationsUsed
		return nil
	})
	if txErr != nil {
		return 0, txErr
	}
	return remaining, nil
}

func (s *Store) Revoke(ctx context.Context, id uuid.UUID, reason string, now time.Time) error {
	result := s.db.WithContext(ctx).Model(&credentialRow{}).
		Where("credential_id = ?", id.String()).
		Updates(map[string]interface{}{
			"revoked":           true,
			"revoked_at":        now,
			"revocation_reason": reason,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
