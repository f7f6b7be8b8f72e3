package postgres

import (
	"context"
	"database/sql"
	"errors"

	"communityhub/internal/domain"
)

type organizationRepository struct {
	DB *sql.DB
}

func NewOrganizationRepository(db *sql.DB) domain.OrganizationRepository {
	return &organizationRepository{DB: db}
}

func (r *organizationRepository) Create(ctx context.Context, org *domain.Organization) error {
	query := `
		INSERT INTO organizations (name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query, org.Name, org.Description, org.CreatedAt, org.UpdatedAt).Scan(&org.ID)
}

func (r *organizationRepository) GetByID(ctx context.Context, id string) (*domain.Organization, error) {
	query := `
		SELECT id, name, description, created_at, updated_at
		FROM organizations
		WHERE id = $1
	`
	org := &domain.Organization{}
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&org.ID, &org.Name, &org.Description, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return org, nil
}

// ListByUserID returns the user's active organizations ordered by when the
// user joined, so downstream color assignment stays stable.
func (r *organizationRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Organization, error) {
	query := `
		SELECT o.id, o.name, o.description, o.created_at, o.updated_at
		FROM organizations o
		JOIN memberships m ON m.organization_id = o.id
		WHERE m.user_id = $1 AND m.status = 'active'
		ORDER BY m.joined_at ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	orgs := make([]*domain.Organization, 0)
	for rows.Next() {
		org := &domain.Organization{}
		if err := rows.Scan(&org.ID, &org.Name, &org.Description, &org.CreatedAt, &org.UpdatedAt); err != nil {
			return nil, err
		}
		orgs = append(orgs, org)
	}
	return orgs, rows.Err()
}

func (r *organizationRepository) AddMember(ctx context.Context, m *domain.Membership) error {
	query := `
		INSERT INTO memberships (user_id, organization_id, role, status, joined_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, organization_id)
		DO UPDATE SET role = EXCLUDED.role, status = EXCLUDED.status
	`
	_, err := r.DB.ExecContext(ctx, query, m.UserID, m.OrganizationID, m.Role, m.Status, m.JoinedAt)
	return err
}

func (r *organizationRepository) GetMembership(ctx context.Context, userID, orgID string) (*domain.Membership, error) {
	query := `
		SELECT user_id, organization_id, role, status, joined_at
		FROM memberships
		WHERE user_id = $1 AND organization_id = $2
	`
	m := &domain.Membership{}
	err := r.DB.QueryRowContext(ctx, query, userID, orgID).Scan(&m.UserID, &m.OrganizationID, &m.Role, &m.Status, &m.JoinedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return m, nil
}
