package domain

import (
	"context"
	"time"
)

// EventClass is the location classification shown on the calendar.
type EventClass string

const (
	EventInPerson EventClass = "in-person"
	EventVirtual  EventClass = "virtual"
	EventHybrid   EventClass = "hybrid"
)

// CalendarItem is one renderable calendar entry: a standalone event or a
// series instance, never a template.
// swagger:model CalendarItem
type CalendarItem struct {
	EventID        string     `json:"event_id"`
	OrganizationID string     `json:"organization_id"`
	Title          string     `json:"title"`
	Start          time.Time  `json:"start"`
	End            time.Time  `json:"end"`
	Color          string     `json:"color"`
	Class          EventClass `json:"class"`
	Location       string     `json:"location,omitempty"`
	VirtualLink    string     `json:"virtual_link,omitempty"`

	// EventTimezone is set when the event carries an explicit zone.
	// TimezoneOffsetMinutes is the offset of that zone relative to the
	// viewer's zone at the event start, so the UI can warn the viewer when
	// they are looking at the event from a different zone.
	EventTimezone         string `json:"event_timezone,omitempty"`
	TimezoneOffsetMinutes int    `json:"timezone_offset_minutes"`
	DifferentTimezone     bool   `json:"different_timezone"`
}

// Viewer is the identity the calendar is resolved against: the user's active
// memberships by organization id and the set of group ids they belong to.
type Viewer struct {
	UserID      string
	Memberships map[string]*Membership
	GroupIDs    map[string]struct{}
}

// MembershipIn returns the viewer's membership in the organization, or nil.
func (v Viewer) MembershipIn(orgID string) *Membership {
	return v.Memberships[orgID]
}

// InGroup reports whether the viewer belongs to the group.
func (v Viewer) InGroup(groupID string) bool {
	_, ok := v.GroupIDs[groupID]
	return ok
}

// CalendarService produces the visibility-filtered, display-ready calendar
// for a viewer.
type CalendarService interface {
	// Calendar returns the viewer's calendar items for [from, to]. tz is the
	// viewer's IANA zone name; empty means the server's local zone.
	Calendar(ctx context.Context, userID string, from, to time.Time, tz string) ([]CalendarItem, error)
}
