package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"communityhub/internal/domain"
)

type seriesService struct {
	eventRepo      domain.EventRepository
	orgRepo        domain.OrganizationRepository
	groupRepo      domain.GroupRepository
	emailService   domain.EmailService
	userRepo       domain.UserRepository
	logger         *slog.Logger
	horizonMonths  int
	contextTimeout time.Duration
	now            func() time.Time
}

// NewEventService creates the event/series service. horizonMonths is how far
// forward instances are materialized when a series is created or re-extended.
func NewEventService(
	eventRepo domain.EventRepository,
	orgRepo domain.OrganizationRepository,
	groupRepo domain.GroupRepository,
	userRepo domain.UserRepository,
	emailService domain.EmailService,
	logger *slog.Logger,
	horizonMonths int,
	timeout time.Duration,
) domain.EventService {
	return &seriesService{
		eventRepo:      eventRepo,
		orgRepo:        orgRepo,
		groupRepo:      groupRepo,
		userRepo:       userRepo,
		emailService:   emailService,
		logger:         logger,
		horizonMonths:  horizonMonths,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func (s *seriesService) CreateEvent(ctx context.Context, userID string, event *domain.Event) (*domain.SeriesResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.validateNewEvent(event); err != nil {
		return nil, err
	}
	membership, err := s.orgRepo.GetMembership(ctx, userID, event.OrganizationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrForbidden
		}
		return nil, fmt.Errorf("get membership: %w", err)
	}
	if !membership.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if event.Visibility == domain.VisibilityGroups {
		for _, groupID := range event.GroupIDs {
			group, err := s.groupRepo.GetByID(ctx, groupID)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return nil, fmt.Errorf("%w: unknown group %q", domain.ErrInvalidInput, groupID)
				}
				return nil, fmt.Errorf("get group: %w", err)
			}
			if group.OrganizationID != event.OrganizationID {
				return nil, fmt.Errorf("%w: group %q belongs to another organization", domain.ErrInvalidInput, groupID)
			}
		}
	}

	now := s.now()
	event.CreatedBy = userID
	event.ParentEventID = nil
	event.CreatedAt = now
	event.UpdatedAt = now

	if !event.IsRecurring {
		if err := s.eventRepo.Create(ctx, event); err != nil {
			return nil, fmt.Errorf("create event: %w", err)
		}
		return &domain.SeriesResult{Event: event}, nil
	}

	// The template commits first; instance generation failures after this
	// point are reported as warnings, never rolled back.
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create series template: %w", err)
	}

	horizon := now.AddDate(0, s.horizonMonths, 0)
	dates := domain.Materialize(event.RecurrenceRule, event.StartTime, event.RecurrenceEndDate, horizon)

	result := &domain.SeriesResult{Event: event}
	if len(dates) == 0 {
		result.Warnings = append(result.Warnings, "the recurrence pattern produced no occurrences within the materialization window")
	}
	for _, d := range dates {
		instance := instanceOf(event, d, now)
		if err := s.eventRepo.Create(ctx, instance); err != nil {
			s.logger.WarnContext(ctx, "instance insert failed",
				"template_id", event.ID, "start_time", d, "err", err)
			result.FailedDates = append(result.FailedDates, d)
			result.Warnings = append(result.Warnings, fmt.Sprintf("instance for %s was not created", d.Format(time.RFC3339)))
			continue
		}
		result.Instances = append(result.Instances, instance)
	}

	s.sendSeriesReport(ctx, userID, event, result)
	return result, nil
}

// instanceOf builds a frozen copy of the template for one occurrence. The
// template's duration is preserved and its group-visibility bindings are
// copied so each instance enforces the same audience on its own.
func instanceOf(template *domain.Event, start time.Time, now time.Time) *domain.Event {
	groupIDs := make([]string, len(template.GroupIDs))
	copy(groupIDs, template.GroupIDs)
	return &domain.Event{
		OrganizationID: template.OrganizationID,
		CreatedBy:      template.CreatedBy,
		Title:          template.Title,
		Description:    template.Description,
		StartTime:      start,
		EndTime:        start.Add(template.Duration()),
		Location:       template.Location,
		VirtualLink:    template.VirtualLink,
		IsVirtual:      template.IsVirtual,
		MaxAttendees:   template.MaxAttendees,
		Visibility:     template.Visibility,
		EventTimezone:  template.EventTimezone,
		IsRecurring:    true,
		ParentEventID:  &template.ID,
		GroupIDs:       groupIDs,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (s *seriesService) validateNewEvent(event *domain.Event) error {
	if event.OrganizationID == "" {
		return fmt.Errorf("%w: organization is required", domain.ErrInvalidInput)
	}
	if event.Title == "" {
		return fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}
	if !event.EndTime.After(event.StartTime) {
		return fmt.Errorf("%w: end time must be after start time", domain.ErrInvalidInput)
	}
	if !event.Visibility.Valid() {
		return fmt.Errorf("%w: unknown visibility %q", domain.ErrInvalidInput, event.Visibility)
	}
	if event.Visibility == domain.VisibilityGroups && len(event.GroupIDs) == 0 {
		return fmt.Errorf("%w: group visibility requires at least one group", domain.ErrInvalidInput)
	}
	if event.EventTimezone != "" {
		if _, err := time.LoadLocation(event.EventTimezone); err != nil {
			return fmt.Errorf("%w: unknown timezone %q", domain.ErrInvalidInput, event.EventTimezone)
		}
	}
	if event.IsRecurring {
		if event.RecurrenceRule == nil {
			return fmt.Errorf("%w: recurring event requires a recurrence rule", domain.ErrInvalidInput)
		}
		if err := event.RecurrenceRule.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (s *seriesService) sendSeriesReport(ctx context.Context, userID string, event *domain.Event, result *domain.SeriesResult) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		s.logger.WarnContext(ctx, "series report skipped, user lookup failed", "user_id", userID, "err", err)
		return
	}
	data := &domain.SeriesReportEmailData{
		Email:            user.Email,
		EventTitle:       event.Title,
		InstancesCreated: len(result.Instances),
		InstancesFailed:  len(result.FailedDates),
		Warnings:         result.Warnings,
	}
	if err := s.emailService.SendSeriesReport(ctx, data); err != nil {
		// Best effort only; the series itself is already committed.
		s.logger.WarnContext(ctx, "series report email failed", "user_id", userID, "err", err)
	}
}

func (s *seriesService) GetEvent(ctx context.Context, userID, eventID string) (*domain.Event, []*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, fmt.Errorf("get event: %w", err)
	}
	membership, err := s.requireActiveMember(ctx, userID, event.OrganizationID)
	if err != nil {
		return nil, nil, err
	}
	// Membership alone is not enough: drafts are admin-only and groups scope
	// needs a binding match. Same resolver as the calendar read.
	viewer, err := s.viewerFor(ctx, userID, membership)
	if err != nil {
		return nil, nil, err
	}
	if !Visible(event, viewer) {
		return nil, nil, domain.ErrForbidden
	}
	if event.Kind() != domain.KindTemplate {
		return event, nil, nil
	}
	instances, err := s.eventRepo.ListInstances(ctx, event.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("list instances: %w", err)
	}
	return event, instances, nil
}

func (s *seriesService) ListOrganizationEvents(ctx context.Context, userID, orgID string, p domain.PaginationParams) ([]*domain.Event, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	membership, err := s.requireActiveMember(ctx, userID, orgID)
	if err != nil {
		return nil, 0, err
	}
	viewer, err := s.viewerFor(ctx, userID, membership)
	if err != nil {
		return nil, 0, err
	}
	events, total, err := s.eventRepo.ListByOrganization(ctx, orgID, p)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	// Resolved after paging, so a page may come back short; total still
	// counts stored rows.
	visible := events[:0]
	for _, e := range events {
		if Visible(e, viewer) {
			visible = append(visible, e)
		}
	}
	return visible, total, nil
}

// viewerFor assembles the resolver input for a single-organization check: the
// caller's membership plus every group they belong to.
func (s *seriesService) viewerFor(ctx context.Context, userID string, membership *domain.Membership) (domain.Viewer, error) {
	viewer := domain.Viewer{
		UserID:      userID,
		Memberships: map[string]*domain.Membership{membership.OrganizationID: membership},
		GroupIDs:    make(map[string]struct{}),
	}
	groupIDs, err := s.groupRepo.ListGroupIDsByUser(ctx, userID)
	if err != nil {
		return domain.Viewer{}, fmt.Errorf("list viewer groups: %w", err)
	}
	for _, id := range groupIDs {
		viewer.GroupIDs[id] = struct{}{}
	}
	return viewer, nil
}

func (s *seriesService) UpdateEvent(ctx context.Context, userID, eventID string, upd domain.EventUpdate) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	membership, err := s.requireActiveMember(ctx, userID, event.OrganizationID)
	if err != nil {
		return nil, err
	}
	if !membership.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	if upd.Title != nil {
		event.Title = *upd.Title
	}
	if upd.Description != nil {
		event.Description = *upd.Description
	}
	if upd.Location != nil {
		event.Location = *upd.Location
	}
	if upd.VirtualLink != nil {
		event.VirtualLink = *upd.VirtualLink
	}
	event.UpdatedAt = s.now()

	// Instances already materialized from a template are frozen copies; only
	// the addressed row is written.
	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	return event, nil
}

func (s *seriesService) DeleteEvent(ctx context.Context, userID, eventID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get event: %w", err)
	}
	membership, err := s.requireActiveMember(ctx, userID, event.OrganizationID)
	if err != nil {
		return err
	}
	if !membership.IsAdmin() {
		return domain.ErrForbidden
	}

	now := s.now()
	if err := s.eventRepo.Cancel(ctx, event.ID, now); err != nil {
		return fmt.Errorf("cancel event: %w", err)
	}
	if event.Kind() == domain.KindTemplate {
		// Future instances are invalidated with the template; past instances
		// stay as historical record.
		if err := s.eventRepo.CancelFutureInstances(ctx, event.ID, now, now); err != nil {
			return fmt.Errorf("cancel future instances: %w", err)
		}
	}
	return nil
}

func (s *seriesService) ExtendHorizon(ctx context.Context, now time.Time) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	templates, err := s.eventRepo.ListTemplates(ctx)
	if err != nil {
		return 0, fmt.Errorf("list templates: %w", err)
	}

	horizon := now.AddDate(0, s.horizonMonths, 0)
	created := 0
	for _, template := range templates {
		if template.RecurrenceRule == nil {
			s.logger.WarnContext(ctx, "template without rule skipped", "template_id", template.ID)
			continue
		}
		existing, err := s.eventRepo.InstanceStartTimes(ctx, template.ID)
		if err != nil {
			s.logger.WarnContext(ctx, "horizon extension skipped template", "template_id", template.ID, "err", err)
			continue
		}
		dates := domain.Materialize(template.RecurrenceRule, template.StartTime, template.RecurrenceEndDate, horizon)
		for _, d := range dates {
			// Keys are UTC-normalized so DB round-trips compare cleanly.
			if _, ok := existing[d.UTC()]; ok {
				continue
			}
			instance := instanceOf(template, d, now)
			if err := s.eventRepo.Create(ctx, instance); err != nil {
				if errors.Is(err, domain.ErrDuplicateInstance) {
					// A concurrent run got there first; the window is full.
					continue
				}
				s.logger.WarnContext(ctx, "horizon instance insert failed",
					"template_id", template.ID, "start_time", d, "err", err)
				continue
			}
			created++
		}
	}
	return created, nil
}

func (s *seriesService) requireActiveMember(ctx context.Context, userID, orgID string) (*domain.Membership, error) {
	membership, err := s.orgRepo.GetMembership(ctx, userID, orgID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrForbidden
		}
		return nil, fmt.Errorf("get membership: %w", err)
	}
	if !membership.Active() {
		return nil, domain.ErrForbidden
	}
	return membership, nil
}
