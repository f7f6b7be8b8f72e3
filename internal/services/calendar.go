package services

import (
	"context"
	"fmt"
	"time"

	"communityhub/internal/domain"
)

// calendarPalette is the stable color cycle for a viewer's organizations.
// An organization's color is its index in the viewer's organization list,
// wrapping modulo the palette size.
var calendarPalette = []string{
	"#2563eb", // blue
	"#16a34a", // green
	"#d97706", // amber
	"#dc2626", // red
	"#7c3aed", // violet
	"#0d9488", // teal
	"#db2777", // pink
	"#65a30d", // lime
}

type calendarService struct {
	eventRepo      domain.EventRepository
	orgRepo        domain.OrganizationRepository
	groupRepo      domain.GroupRepository
	contextTimeout time.Duration
}

// NewCalendarService creates the calendar read service.
func NewCalendarService(
	eventRepo domain.EventRepository,
	orgRepo domain.OrganizationRepository,
	groupRepo domain.GroupRepository,
	timeout time.Duration,
) domain.CalendarService {
	return &calendarService{
		eventRepo:      eventRepo,
		orgRepo:        orgRepo,
		groupRepo:      groupRepo,
		contextTimeout: timeout,
	}
}

func (s *calendarService) Calendar(ctx context.Context, userID string, from, to time.Time, tz string) ([]domain.CalendarItem, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	viewerLoc := time.Local
	if tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("%w: unknown timezone %q", domain.ErrInvalidInput, tz)
		}
		viewerLoc = loc
	}

	orgs, err := s.orgRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	if len(orgs) == 0 {
		return []domain.CalendarItem{}, nil
	}
	orgIDs := make([]string, len(orgs))
	viewer := domain.Viewer{
		UserID:      userID,
		Memberships: make(map[string]*domain.Membership, len(orgs)),
		GroupIDs:    make(map[string]struct{}),
	}
	for i, org := range orgs {
		orgIDs[i] = org.ID
		m, err := s.orgRepo.GetMembership(ctx, userID, org.ID)
		if err != nil {
			return nil, fmt.Errorf("get membership: %w", err)
		}
		viewer.Memberships[org.ID] = m
	}
	groupIDs, err := s.groupRepo.ListGroupIDsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list viewer groups: %w", err)
	}
	for _, id := range groupIDs {
		viewer.GroupIDs[id] = struct{}{}
	}

	events, err := s.eventRepo.ListByOrganizations(ctx, orgIDs, from, to)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	visible := events[:0]
	for _, e := range events {
		if Visible(e, viewer) {
			visible = append(visible, e)
		}
	}
	return Project(visible, orgIDs, viewerLoc), nil
}

// Visible is the visibility resolver: it decides whether a single event may
// be seen by the viewer. Pure; evaluated independently per event.
func Visible(e *domain.Event, viewer domain.Viewer) bool {
	switch e.Visibility {
	case domain.VisibilityPublic:
		return true
	case domain.VisibilityMembers:
		return viewer.MembershipIn(e.OrganizationID).Active()
	case domain.VisibilityGroups:
		if !viewer.MembershipIn(e.OrganizationID).Active() {
			return false
		}
		for _, groupID := range e.GroupIDs {
			if viewer.InGroup(groupID) {
				return true
			}
		}
		return false
	case domain.VisibilityDraft:
		return viewer.MembershipIn(e.OrganizationID).IsAdmin()
	default:
		return false
	}
}

// Project is the calendar projector: it maps stored events to renderable
// calendar items. Series templates are metadata-only rows and are always
// excluded, as are canceled events. orgOrder is the viewer's organization
// list, which fixes each organization's palette color.
func Project(events []*domain.Event, orgOrder []string, viewerLoc *time.Location) []domain.CalendarItem {
	colorByOrg := make(map[string]string, len(orgOrder))
	for i, orgID := range orgOrder {
		colorByOrg[orgID] = calendarPalette[i%len(calendarPalette)]
	}

	items := make([]domain.CalendarItem, 0, len(events))
	for _, e := range events {
		if e.Kind() == domain.KindTemplate || e.Canceled() {
			continue
		}
		item := domain.CalendarItem{
			EventID:        e.ID,
			OrganizationID: e.OrganizationID,
			Title:          e.Title,
			Start:          e.StartTime,
			End:            e.EndTime,
			Color:          colorByOrg[e.OrganizationID],
			Class:          classify(e),
			Location:       e.Location,
			VirtualLink:    e.VirtualLink,
		}
		if e.EventTimezone != "" {
			if eventLoc, err := time.LoadLocation(e.EventTimezone); err == nil {
				_, eventOffset := e.StartTime.In(eventLoc).Zone()
				_, viewerOffset := e.StartTime.In(viewerLoc).Zone()
				item.EventTimezone = e.EventTimezone
				item.TimezoneOffsetMinutes = (eventOffset - viewerOffset) / 60
				item.DifferentTimezone = item.TimezoneOffsetMinutes != 0
				item.Start = e.StartTime.In(viewerLoc)
				item.End = e.EndTime.In(viewerLoc)
			}
		}
		items = append(items, item)
	}
	return items
}

// classify derives the calendar location class: virtual when flagged virtual
// with no physical location, hybrid when both a location and a virtual link
// are present, otherwise in-person.
func classify(e *domain.Event) domain.EventClass {
	switch {
	case e.Location != "" && e.VirtualLink != "":
		return domain.EventHybrid
	case e.IsVirtual && e.Location == "":
		return domain.EventVirtual
	default:
		return domain.EventInPerson
	}
}
