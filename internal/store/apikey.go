// ABOUTME: Store methods for API key lifecycle management.
// ABOUTME: LookupAPIKey is the authentication hot-path; does not take orgID.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// APIKey is an api_keys row. MaxLevel caps the access level any request made
// with the key can reach, regardless of what the org type allows.
type APIKey struct {
	ID              uuid.UUID
	OrgID           uuid.UUID
	CreatedByUserID uuid.UUID
	KeyHash         string
	Name            string
	MaxLevel        string
	ExpiresAt       *time.Time
	RevokedAt       *time.Time
	LastUsedAt      *time.Time
	CreatedAt       time.Time
}

const apiKeyColumns = "id, org_id, created_by_user_id, key_hash, name, max_level, expires_at, revoked_at, last_used_at, created_at"

func scanAPIKey(row pgx.Row) (*APIKey, error) {
	var k APIKey
	if err := row.Scan(&k.ID, &k.OrgID, &k.CreatedByUserID, &k.KeyHash, &k.Name, &k.MaxLevel,
		&k.ExpiresAt, &k.RevokedAt, &k.LastUsedAt, &k.CreatedAt); err != nil {
		return nil, err
	}
	return &k, nil
}

// CreateAPIKey inserts a new API key record. keyHash is sha256(raw_key).
// expiresAt may be nil for a never-expiring key.
func (s *Store) CreateAPIKey(ctx context.Context, orgID, createdBy uuid.UUID, keyHash, name, maxLevel string, expiresAt *time.Time) (*APIKey, error) {
	k, err := scanAPIKey(s.pool.QueryRow(ctx, `
		INSERT INTO api_keys (org_id, created_by_user_id, key_hash, name, max_level, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+apiKeyColumns,
		orgID, createdBy, keyHash, name, maxLevel, expiresAt))
	if err != nil {
		return nil, fmt.Errorf("create api key: %w", err)
	}
	return k, nil
}

// LookupAPIKey returns the active (non-revoked, non-expired) key matching
// keyHash, or (nil, nil) if there is none.
func (s *Store) LookupAPIKey(ctx context.Context, keyHash string) (*APIKey, error) {
	k, err := scanAPIKey(s.pool.QueryRow(ctx, `
		SELECT `+apiKeyColumns+`
		FROM api_keys
		WHERE key_hash = $1
		  AND revoked_at IS NULL
		  AND (expires_at IS NULL OR expires_at > now())`,
		keyHash))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup api key: %w", err)
	}
	return k, nil
}

// ListOrgAPIKeys returns all API keys for an org, newest first.
func (s *Store) ListOrgAPIKeys(ctx context.Context, orgID uuid.UUID) ([]APIKey, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+apiKeyColumns+`
		FROM api_keys
		WHERE org_id = $1
		ORDER BY created_at DESC, id`, orgID)
	if err != nil {
		return nil, fmt.Errorf("list org api keys: %w", err)
	}
	defer rows.Close()

	var result []APIKey
	for rows.Next() {
		k, err := scanAPIKey(rows)
		if err != nil {
			return nil, fmt.Errorf("list org api keys: scan: %w", err)
		}
		result = append(result, *k)
	}
	return result, rows.Err()
}

// RevokeAPIKey marks the key as revoked. Returns false if no active key with
// that id exists in orgID.
func (s *Store) RevokeAPIKey(ctx context.Context, orgID, id uuid.UUID) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE api_keys SET revoked_at = now()
		WHERE org_id = $1 AND id = $2 AND revoked_at IS NULL`,
		orgID, id)
	if err != nil {
		return false, fmt.Errorf("revoke api key: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// UpdateAPIKeyLastUsed records the current time as last_used_at for the key.
func (s *Store) UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error {
	if _, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET last_used_at = now() WHERE id = $1`, id); err != nil {
		return fmt.Errorf("update api key last used: %w", err)
	}
	return nil
}

// PruneAPIKeys deletes keys that were revoked or expired more than retention
// ago. Returns the number of rows removed.
func (s *Store) PruneAPIKeys(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM api_keys
		WHERE (revoked_at IS NOT NULL AND revoked_at < $1)
		   OR (expires_at IS NOT NULL AND expires_at < $1)`,
		cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune api keys: %w", err)
	}
	return tag.RowsAffected(), nil
}
