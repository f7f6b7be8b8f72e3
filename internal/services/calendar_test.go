package services

import (
	"context"
	"testing"
	"time"

	"communityhub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activeViewer(orgID string, role domain.MembershipRole, groups ...string) domain.Viewer {
	v := domain.Viewer{
		UserID: "viewer-1",
		Memberships: map[string]*domain.Membership{
			orgID: {UserID: "viewer-1", OrganizationID: orgID, Role: role, Status: domain.StatusActive},
		},
		GroupIDs: make(map[string]struct{}),
	}
	for _, g := range groups {
		v.GroupIDs[g] = struct{}{}
	}
	return v
}

func TestVisible(t *testing.T) {
	nonMember := domain.Viewer{
		UserID:      "viewer-1",
		Memberships: map[string]*domain.Membership{},
		GroupIDs:    map[string]struct{}{},
	}
	inactive := activeViewer("org-1", domain.RoleMember)
	inactive.Memberships["org-1"].Status = domain.StatusInactive

	tests := []struct {
		name   string
		event  domain.Event
		viewer domain.Viewer
		want   bool
	}{
		{"public to non-member", domain.Event{OrganizationID: "org-1", Visibility: domain.VisibilityPublic}, nonMember, true},
		{"members to member", domain.Event{OrganizationID: "org-1", Visibility: domain.VisibilityMembers}, activeViewer("org-1", domain.RoleMember), true},
		{"members to non-member", domain.Event{OrganizationID: "org-1", Visibility: domain.VisibilityMembers}, nonMember, false},
		{"members to inactive member", domain.Event{OrganizationID: "org-1", Visibility: domain.VisibilityMembers}, inactive, false},
		{"groups to member of a bound group", domain.Event{OrganizationID: "org-1", Visibility: domain.VisibilityGroups, GroupIDs: []string{"g1", "g2"}}, activeViewer("org-1", domain.RoleMember, "g2"), true},
		{"groups to member of no bound group", domain.Event{OrganizationID: "org-1", Visibility: domain.VisibilityGroups, GroupIDs: []string{"g1", "g2"}}, activeViewer("org-1", domain.RoleMember, "g3"), false},
		{"groups to non-member in a bound group", domain.Event{OrganizationID: "org-1", Visibility: domain.VisibilityGroups, GroupIDs: []string{"g1"}}, nonMember, false},
		{"draft to admin", domain.Event{OrganizationID: "org-1", Visibility: domain.VisibilityDraft}, activeViewer("org-1", domain.RoleAdmin), true},
		{"draft to plain member", domain.Event{OrganizationID: "org-1", Visibility: domain.VisibilityDraft}, activeViewer("org-1", domain.RoleMember), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Visible(&tt.event, tt.viewer))
		})
	}
}

func TestProject_ExcludesTemplatesAndCanceled(t *testing.T) {
	parent := "ev-1"
	canceledAt := time.Date(2026, time.January, 2, 0, 0, 0, 0, time.UTC)
	events := []*domain.Event{
		{ID: "ev-1", OrganizationID: "org-1", Title: "Series", IsRecurring: true},                          // template
		{ID: "ev-2", OrganizationID: "org-1", Title: "Series", IsRecurring: true, ParentEventID: &parent}, // instance
		{ID: "ev-3", OrganizationID: "org-1", Title: "One-off"},
		{ID: "ev-4", OrganizationID: "org-1", Title: "Gone", CanceledAt: &canceledAt},
	}

	items := Project(events, []string{"org-1"}, time.UTC)
	require.Len(t, items, 2)
	ids := []string{items[0].EventID, items[1].EventID}
	assert.ElementsMatch(t, []string{"ev-2", "ev-3"}, ids)
}

func TestProject_ColorAssignment(t *testing.T) {
	var events []*domain.Event
	var orgOrder []string
	for i := 0; i < len(calendarPalette)+2; i++ {
		orgID := string(rune('a' + i))
		orgOrder = append(orgOrder, orgID)
		events = append(events, &domain.Event{ID: orgID + "-ev", OrganizationID: orgID, Title: "E"})
	}

	items := Project(events, orgOrder, time.UTC)
	require.Len(t, items, len(orgOrder))
	for i, item := range items {
		assert.Equal(t, calendarPalette[i%len(calendarPalette)], item.Color)
	}
	// The palette wraps: the (n+1)th organization shares the first color.
	assert.Equal(t, items[0].Color, items[len(calendarPalette)].Color)

	// Same inputs, same colors.
	again := Project(events, orgOrder, time.UTC)
	for i := range items {
		assert.Equal(t, items[i].Color, again[i].Color)
	}
}

func TestProject_Classification(t *testing.T) {
	tests := []struct {
		name  string
		event domain.Event
		want  domain.EventClass
	}{
		{"in-person", domain.Event{Location: "Hall A"}, domain.EventInPerson},
		{"virtual", domain.Event{IsVirtual: true, VirtualLink: "https://meet.example.com/x"}, domain.EventVirtual},
		{"hybrid", domain.Event{Location: "Hall A", VirtualLink: "https://meet.example.com/x"}, domain.EventHybrid},
		{"no location at all", domain.Event{}, domain.EventInPerson},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.event.ID = "ev-1"
			tt.event.OrganizationID = "org-1"
			items := Project([]*domain.Event{&tt.event}, []string{"org-1"}, time.UTC)
			require.Len(t, items, 1)
			require.Equal(t, tt.want, items[0].Class)
		})
	}
}

func TestProject_TimezoneOffset(t *testing.T) {
	// Mid-January: New York is UTC-5.
	start := time.Date(2026, time.January, 15, 18, 0, 0, 0, time.UTC)
	events := []*domain.Event{
		{ID: "ev-1", OrganizationID: "org-1", Title: "Zoned", StartTime: start, EndTime: start.Add(time.Hour), EventTimezone: "America/New_York"},
		{ID: "ev-2", OrganizationID: "org-1", Title: "Unzoned", StartTime: start, EndTime: start.Add(time.Hour)},
	}

	items := Project(events, []string{"org-1"}, time.UTC)
	require.Len(t, items, 2)

	zoned := items[0]
	require.Equal(t, "America/New_York", zoned.EventTimezone)
	require.Equal(t, -300, zoned.TimezoneOffsetMinutes)
	require.True(t, zoned.DifferentTimezone)

	unzoned := items[1]
	require.Empty(t, unzoned.EventTimezone)
	require.Zero(t, unzoned.TimezoneOffsetMinutes)
	require.False(t, unzoned.DifferentTimezone)
	// Without an explicit zone the timestamps pass through as authored.
	require.Equal(t, start, unzoned.Start)

	// A viewer in the event's own zone sees no difference.
	nyc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	sameZone := Project(events[:1], []string{"org-1"}, nyc)
	require.Len(t, sameZone, 1)
	require.Zero(t, sameZone[0].TimezoneOffsetMinutes)
	require.False(t, sameZone[0].DifferentTimezone)
}

func TestCalendar_GroupScopedSeries(t *testing.T) {
	// A series template with two bound groups materialized into 3 instances:
	// the calendar never shows the template, and a viewer in neither group
	// sees none of the 4 rows.
	now := time.Date(2026, time.January, 1, 12, 0, 0, 0, time.UTC)
	f := newSeriesFixture(t, now)
	f.groupRepo.addGroup("grp-a", "org-1")
	f.groupRepo.addGroup("grp-b", "org-1")
	f.orgRepo.addMembership("outsider", "org-1", domain.RoleMember, domain.StatusActive)
	f.orgRepo.addMembership("insider", "org-1", domain.RoleMember, domain.StatusActive)
	f.groupRepo.groupsByUser["insider"] = []string{"grp-a"}
	ctx := context.Background()

	start := time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.January, 9, 0, 0, 0, 0, time.UTC)
	template := weeklyTemplate(start)
	template.Visibility = domain.VisibilityGroups
	template.GroupIDs = []string{"grp-a", "grp-b"}
	template.RecurrenceEndDate = &end
	result, err := f.svc.CreateEvent(ctx, "admin-1", template)
	require.NoError(t, err)
	require.Len(t, result.Instances, 3)

	cal := NewCalendarService(f.eventRepo, f.orgRepo, f.groupRepo, 5*time.Second)
	from := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)

	items, err := cal.Calendar(ctx, "insider", from, to, "UTC")
	require.NoError(t, err)
	require.Len(t, items, 3, "group member sees all instances, never the template")
	for _, item := range items {
		assert.NotEqual(t, template.ID, item.EventID)
	}

	items, err = cal.Calendar(ctx, "outsider", from, to, "UTC")
	require.NoError(t, err)
	require.Empty(t, items, "viewer in neither group sees nothing")
}

func TestCalendar_UnknownTimezone(t *testing.T) {
	now := time.Date(2026, time.January, 1, 12, 0, 0, 0, time.UTC)
	f := newSeriesFixture(t, now)
	cal := NewCalendarService(f.eventRepo, f.orgRepo, f.groupRepo, 5*time.Second)

	_, err := cal.Calendar(context.Background(), "admin-1", now, now.AddDate(0, 1, 0), "Mars/Olympus")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}
