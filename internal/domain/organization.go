package domain

import (
	"context"
	"time"
)

// Organization is a community an event belongs to.
type Organization struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewOrganization returns a new Organization. ID is set by the repository on create.
func NewOrganization(name, description string, createdAt, updatedAt time.Time) *Organization {
	return &Organization{
		Name:        name,
		Description: description,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
}

// MembershipRole is a member's role within an organization.
type MembershipRole string

const (
	RoleAdmin  MembershipRole = "admin"
	RoleMember MembershipRole = "member"
)

// MembershipStatus marks whether a membership is currently active.
type MembershipStatus string

const (
	StatusActive   MembershipStatus = "active"
	StatusInactive MembershipStatus = "inactive"
)

// Membership links a user to an organization with a role and status.
type Membership struct {
	UserID         string           `json:"user_id"`
	OrganizationID string           `json:"organization_id"`
	Role           MembershipRole   `json:"role"`
	Status         MembershipStatus `json:"status"`
	JoinedAt       time.Time        `json:"joined_at"`
}

// Active reports whether the membership is active.
func (m *Membership) Active() bool {
	return m != nil && m.Status == StatusActive
}

// IsAdmin reports whether the membership is an active admin membership.
func (m *Membership) IsAdmin() bool {
	return m.Active() && m.Role == RoleAdmin
}

// Group is a subset of an organization's members, used for group-scoped
// event visibility.
type Group struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Name           string    `json:"name"`
	CreatedAt      time.Time `json:"created_at"`
}

// OrganizationRepository defines the interface for organization and
// membership storage.
type OrganizationRepository interface {
	Create(ctx context.Context, org *Organization) error
	GetByID(ctx context.Context, id string) (*Organization, error)
	// ListByUserID returns the organizations the user is an active member of,
	// in join order. The order is stable so the calendar palette assignment
	// stays the same between requests.
	ListByUserID(ctx context.Context, userID string) ([]*Organization, error)
	AddMember(ctx context.Context, m *Membership) error
	// GetMembership returns ErrNotFound when the user has no membership row.
	GetMembership(ctx context.Context, userID, orgID string) (*Membership, error)
}

// GroupRepository defines the interface for group storage and membership
// lookup.
type GroupRepository interface {
	Create(ctx context.Context, group *Group) error
	GetByID(ctx context.Context, id string) (*Group, error)
	ListByOrganization(ctx context.Context, orgID string) ([]*Group, error)
	AddMember(ctx context.Context, groupID, userID string) error
	// ListGroupIDsByUser returns every group id the user belongs to, across
	// all organizations. Consumed by the visibility resolver.
	ListGroupIDsByUser(ctx context.Context, userID string) ([]string, error)
}

// OrganizationService manages organizations, groups, and memberships.
type OrganizationService interface {
	CreateOrganization(ctx context.Context, userID, name, description string) (*Organization, error)
	Join(ctx context.Context, userID, orgID string) error
	ListForUser(ctx context.Context, userID string) ([]*Organization, error)
	CreateGroup(ctx context.Context, userID, orgID, name string) (*Group, error)
	JoinGroup(ctx context.Context, userID, groupID string) error
}
