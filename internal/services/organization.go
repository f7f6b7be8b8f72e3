package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"communityhub/internal/domain"
)

type organizationService struct {
	orgRepo        domain.OrganizationRepository
	groupRepo      domain.GroupRepository
	contextTimeout time.Duration
}

// NewOrganizationService creates the organization/group membership service.
func NewOrganizationService(orgRepo domain.OrganizationRepository, groupRepo domain.GroupRepository, timeout time.Duration) domain.OrganizationService {
	return &organizationService{
		orgRepo:        orgRepo,
		groupRepo:      groupRepo,
		contextTimeout: timeout,
	}
}

func (s *organizationService) CreateOrganization(ctx context.Context, userID, name, description string) (*domain.Organization, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	now := time.Now()
	org := domain.NewOrganization(name, description, now, now)
	if err := s.orgRepo.Create(ctx, org); err != nil {
		return nil, fmt.Errorf("create organization: %w", err)
	}
	// The creator becomes the first admin.
	member := &domain.Membership{
		UserID:         userID,
		OrganizationID: org.ID,
		Role:           domain.RoleAdmin,
		Status:         domain.StatusActive,
		JoinedAt:       now,
	}
	if err := s.orgRepo.AddMember(ctx, member); err != nil {
		return nil, fmt.Errorf("add creator membership: %w", err)
	}
	return org, nil
}

func (s *organizationService) Join(ctx context.Context, userID, orgID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.orgRepo.GetByID(ctx, orgID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get organization: %w", err)
	}
	member := &domain.Membership{
		UserID:         userID,
		OrganizationID: orgID,
		Role:           domain.RoleMember,
		Status:         domain.StatusActive,
		JoinedAt:       time.Now(),
	}
	if err := s.orgRepo.AddMember(ctx, member); err != nil {
		return fmt.Errorf("add membership: %w", err)
	}
	return nil
}

func (s *organizationService) ListForUser(ctx context.Context, userID string) ([]*domain.Organization, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	orgs, err := s.orgRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	if orgs == nil {
		orgs = []*domain.Organization{}
	}
	return orgs, nil
}

func (s *organizationService) CreateGroup(ctx context.Context, userID, orgID, name string) (*domain.Group, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	membership, err := s.orgRepo.GetMembership(ctx, userID, orgID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrForbidden
		}
		return nil, fmt.Errorf("get membership: %w", err)
	}
	if !membership.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	group := &domain.Group{
		OrganizationID: orgID,
		Name:           name,
		CreatedAt:      time.Now(),
	}
	if err := s.groupRepo.Create(ctx, group); err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}
	return group, nil
}

func (s *organizationService) JoinGroup(ctx context.Context, userID, groupID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get group: %w", err)
	}
	membership, err := s.orgRepo.GetMembership(ctx, userID, group.OrganizationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrForbidden
		}
		return fmt.Errorf("get membership: %w", err)
	}
	if !membership.Active() {
		return domain.ErrForbidden
	}
	if err := s.groupRepo.AddMember(ctx, groupID, userID); err != nil {
		return fmt.Errorf("add group member: %w", err)
	}
	return nil
}
