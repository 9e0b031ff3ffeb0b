// ABOUTME: Store methods for organizations and membership.
// ABOUTME: GetMemberOrgType is the session-boundary hot path used by RequireOrgProfile.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Organization is a tenant row. OrgType is the stored name; callers parse it
// with access.ParseOrgType at the boundary.
type Organization struct {
	ID        uuid.UUID
	Name      string
	OrgType   string
	CreatedAt time.Time
}

const orgColumns = "id, name, org_type, created_at"

func scanOrg(row pgx.Row) (*Organization, error) {
	var o Organization
	if err := row.Scan(&o.ID, &o.Name, &o.OrgType, &o.CreatedAt); err != nil {
		return nil, err
	}
	return &o, nil
}

// CreateOrg inserts a new organization row.
func (s *Store) CreateOrg(ctx context.Context, name, orgType string) (*Organization, error) {
	org, err := scanOrg(s.pool.QueryRow(ctx,
		`INSERT INTO organizations (name, org_type) VALUES ($1, $2) RETURNING `+orgColumns,
		name, orgType))
	if err != nil {
		return nil, fmt.Errorf("create org: %w", err)
	}
	return org, nil
}

// CreateOrgWithMember atomically creates an org and adds userID as its first member.
func (s *Store) CreateOrgWithMember(ctx context.Context, name, orgType string, userID uuid.UUID) (*Organization, error) {
	var org *Organization
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		var err error
		org, err = scanOrg(tx.QueryRow(ctx,
			`INSERT INTO organizations (name, org_type) VALUES ($1, $2) RETURNING `+orgColumns,
			name, orgType))
		if err != nil {
			return fmt.Errorf("create org: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO org_members (org_id, user_id) VALUES ($1, $2)`,
			org.ID, userID); err != nil {
			return fmt.Errorf("create org member: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return org, nil
}

// GetOrgByID returns the org with the given ID, or (nil, nil) if not found.
func (s *Store) GetOrgByID(ctx context.Context, id uuid.UUID) (*Organization, error) {
	org, err := scanOrg(s.pool.QueryRow(ctx,
		`SELECT `+orgColumns+` FROM organizations WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get org by id: %w", err)
	}
	return org, nil
}

// ListOrgsParams filters ListOrgs. AfterID is the keyset cursor from the last
// row of the previous page.
type ListOrgsParams struct {
	OrgType *string
	AfterID *uuid.UUID
	Limit   int
}

// ListOrgs returns a page of organizations ordered by id. Callers pass
// Limit+1 to detect whether a next page exists.
func (s *Store) ListOrgs(ctx context.Context, p ListOrgsParams) ([]Organization, error) {
	sb := psql.
		Select(orgColumns).
		From("organizations").
		OrderBy("id").
		Limit(uint64(p.Limit)) //nolint:gosec // G115: limit validated by caller
	if p.OrgType != nil {
		sb = sb.Where(sq.Eq{"org_type": *p.OrgType})
	}
	if p.AfterID != nil {
		sb = sb.Where(sq.Gt{"id": *p.AfterID})
	}

	query, args, err := sb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("list orgs: build query: %w", err)
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orgs: %w", err)
	}
	defer rows.Close()

	var result []Organization
	for rows.Next() {
		o, err := scanOrg(rows)
		if err != nil {
			return nil, fmt.Errorf("list orgs: scan: %w", err)
		}
		result = append(result, *o)
	}
	return result, rows.Err()
}

// AddOrgMember adds userID to orgID. Adding an existing member is a no-op.
func (s *Store) AddOrgMember(ctx context.Context, orgID, userID uuid.UUID) error {
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO org_members (org_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		orgID, userID); err != nil {
		return fmt.Errorf("add org member: %w", err)
	}
	return nil
}

// RemoveOrgMember removes userID from orgID.
func (s *Store) RemoveOrgMember(ctx context.Context, orgID, userID uuid.UUID) error {
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM org_members WHERE org_id = $1 AND user_id = $2`,
		orgID, userID); err != nil {
		return fmt.Errorf("remove org member: %w", err)
	}
	return nil
}

// GetMemberOrgType returns the org type of orgID if userID is a member of it,
// or (nil, nil) if the user is not a member or the org does not exist.
func (s *Store) GetMemberOrgType(ctx context.Context, orgID, userID uuid.UUID) (*string, error) {
	var orgType string
	err := s.pool.QueryRow(ctx, `
		SELECT o.org_type
		FROM organizations o
		JOIN org_members m ON m.org_id = o.id
		WHERE o.id = $1 AND m.user_id = $2`,
		orgID, userID).Scan(&orgType)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member org type: %w", err)
	}
	return &orgType, nil
}

// ListUserOrgs returns all orgs userID belongs to, ordered by name.
func (s *Store) ListUserOrgs(ctx context.Context, userID uuid.UUID) ([]Organization, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT o.id, o.name, o.org_type, o.created_at
		FROM organizations o
		JOIN org_members m ON m.org_id = o.id
		WHERE m.user_id = $1
		ORDER BY o.name, o.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user orgs: %w", err)
	}
	defer rows.Close()

	var result []Organization
	for rows.Next() {
		o, err := scanOrg(rows)
		if err != nil {
			return nil, fmt.Errorf("list user orgs: scan: %w", err)
		}
		result = append(result, *o)
	}
	return result, rows.Err()
}
