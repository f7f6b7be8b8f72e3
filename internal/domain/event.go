package domain

import (
	"context"
	"time"
)

// VisibilityScope is the audience-restriction mode of an event.
type VisibilityScope string

const (
	VisibilityPublic  VisibilityScope = "public"
	VisibilityMembers VisibilityScope = "members"
	VisibilityGroups  VisibilityScope = "groups"
	VisibilityDraft   VisibilityScope = "draft"
)

// Valid reports whether v is a known scope.
func (v VisibilityScope) Valid() bool {
	switch v {
	case VisibilityPublic, VisibilityMembers, VisibilityGroups, VisibilityDraft:
		return true
	}
	return false
}

// EventKind classifies an event row by (IsRecurring, ParentEventID).
type EventKind int

const (
	// KindStandalone is a one-off event.
	KindStandalone EventKind = iota
	// KindTemplate is the non-rendered parent of a recurring series. It holds
	// the rule and is the join target for instances; it is never shown on a
	// calendar as an attendable occurrence.
	KindTemplate
	// KindInstance is one concrete occurrence of a series, a frozen copy of
	// the template at materialization time.
	KindInstance
)

// Event represents a community event: a standalone event, a series template,
// or a materialized series instance.
type Event struct {
	ID             string          `json:"id"`
	OrganizationID string          `json:"organization_id"`
	CreatedBy      string          `json:"created_by"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	StartTime      time.Time       `json:"start_time"`
	EndTime        time.Time       `json:"end_time"`
	Location       string          `json:"location"`
	VirtualLink    string          `json:"virtual_link,omitempty"`
	IsVirtual      bool            `json:"is_virtual"`
	MaxAttendees   *int            `json:"max_attendees,omitempty"`
	Visibility     VisibilityScope `json:"visibility"`

	// EventTimezone is an optional IANA zone name. When empty, viewers see the
	// timestamps as authored, assumed local.
	EventTimezone string `json:"event_timezone,omitempty"`

	IsRecurring       bool           `json:"is_recurring"`
	RecurrenceRule    RecurrenceRule `json:"-"`
	RecurrenceEndDate *time.Time     `json:"recurrence_end_date,omitempty"`
	ParentEventID     *string        `json:"parent_event_id,omitempty"`

	// GroupIDs are the group-visibility bindings, meaningful only when
	// Visibility is VisibilityGroups.
	GroupIDs []string `json:"group_ids,omitempty"`

	CanceledAt *time.Time `json:"canceled_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Kind returns the event's kind. Every event is exactly one of the three.
func (e *Event) Kind() EventKind {
	switch {
	case e.IsRecurring && e.ParentEventID == nil:
		return KindTemplate
	case e.IsRecurring && e.ParentEventID != nil:
		return KindInstance
	default:
		return KindStandalone
	}
}

// Duration returns the span between start and end.
func (e *Event) Duration() time.Duration {
	return e.EndTime.Sub(e.StartTime)
}

// Canceled reports whether the event has been canceled (soft-deleted).
func (e *Event) Canceled() bool {
	return e.CanceledAt != nil
}

// EventUpdate carries the editable descriptive fields; nil means unchanged.
// Edits to a template never rewrite already-materialized instances.
type EventUpdate struct {
	Title       *string
	Description *string
	Location    *string
	VirtualLink *string
}

// EventRepository defines the interface for event storage
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	// ListByOrganizations returns non-canceled events of the given
	// organizations whose start time falls within [from, to].
	ListByOrganizations(ctx context.Context, orgIDs []string, from, to time.Time) ([]*Event, error)
	// ListByOrganization returns a page of the organization's events, newest
	// first, plus the total count.
	ListByOrganization(ctx context.Context, orgID string, p PaginationParams) ([]*Event, int, error)
	// ListTemplates returns all non-canceled series templates.
	ListTemplates(ctx context.Context) ([]*Event, error)
	ListInstances(ctx context.Context, parentEventID string) ([]*Event, error)
	// InstanceStartTimes returns the start times of all existing instances of
	// a template, for idempotent horizon extension.
	InstanceStartTimes(ctx context.Context, parentEventID string) (map[time.Time]struct{}, error)
	Update(ctx context.Context, event *Event) error
	// Cancel soft-deletes a single event row.
	Cancel(ctx context.Context, id string, at time.Time) error
	// CancelFutureInstances soft-deletes instances of the template starting at
	// or after from. Past instances are kept as historical record.
	CancelFutureInstances(ctx context.Context, parentEventID string, from, at time.Time) error
}

// SeriesResult reports the outcome of creating an event. For a recurring
// series it distinguishes "series created" from "all instances generated":
// the template may commit while some instance writes fail, which is surfaced
// through Warnings rather than failing the whole operation.
type SeriesResult struct {
	Event       *Event      `json:"event"`
	Instances   []*Event    `json:"instances,omitempty"`
	FailedDates []time.Time `json:"failed_dates,omitempty"`
	Warnings    []string    `json:"warnings,omitempty"`
}

// EventService manages events and recurring series.
type EventService interface {
	// CreateEvent persists a standalone event or a series template plus its
	// materialized instances up to the horizon.
	CreateEvent(ctx context.Context, userID string, event *Event) (*SeriesResult, error)
	// GetEvent returns the event and, for a template, its instances.
	GetEvent(ctx context.Context, userID, eventID string) (*Event, []*Event, error)
	ListOrganizationEvents(ctx context.Context, userID, orgID string, p PaginationParams) ([]*Event, int, error)
	UpdateEvent(ctx context.Context, userID, eventID string, upd EventUpdate) (*Event, error)
	// DeleteEvent cancels the event; for a template it also cancels future,
	// not-yet-occurred instances.
	DeleteEvent(ctx context.Context, userID, eventID string) error
	// ExtendHorizon re-materializes every live template up to now + horizon,
	// inserting only dates not already present. Returns the number created.
	ExtendHorizon(ctx context.Context, now time.Time) (int, error)
}
