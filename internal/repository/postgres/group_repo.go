package postgres

import (
	"context"
	"database/sql"
	"errors"

	"communityhub/internal/domain"
)

type groupRepository struct {
	DB *sql.DB
}

func NewGroupRepository(db *sql.DB) domain.GroupRepository {
	return &groupRepository{DB: db}
}

func (r *groupRepository) Create(ctx context.Context, g *domain.Group) error {
	query := `
		INSERT INTO groups (organization_id, name, created_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query, g.OrganizationID, g.Name, g.CreatedAt).Scan(&g.ID)
}

func (r *groupRepository) GetByID(ctx context.Context, id string) (*domain.Group, error) {
	query := `
		SELECT id, organization_id, name, created_at
		FROM groups
		WHERE id = $1
	`
	g := &domain.Group{}
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&g.ID, &g.OrganizationID, &g.Name, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return g, nil
}

func (r *groupRepository) ListByOrganization(ctx context.Context, orgID string) ([]*domain.Group, error) {
	query := `
		SELECT id, organization_id, name, created_at
		FROM groups
		WHERE organization_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	groups := make([]*domain.Group, 0)
	for rows.Next() {
		g := &domain.Group{}
		if err := rows.Scan(&g.ID, &g.OrganizationID, &g.Name, &g.CreatedAt); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (r *groupRepository) AddMember(ctx context.Context, groupID, userID string) error {
	query := `
		INSERT INTO group_members (group_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (group_id, user_id) DO NOTHING
	`
	_, err := r.DB.ExecContext(ctx, query, groupID, userID)
	return err
}

func (r *groupRepository) ListGroupIDsByUser(ctx context.Context, userID string) ([]string, error) {
	query := `SELECT group_id FROM group_members WHERE user_id = $1`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
