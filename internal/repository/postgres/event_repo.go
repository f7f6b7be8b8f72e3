package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"communityhub/internal/domain"
)

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

const eventColumns = `id, organization_id, created_by, title, description, start_time, end_time,
		location, virtual_link, is_virtual, max_attendees, visibility, event_timezone,
		is_recurring, recurrence_rule, recurrence_end_date, parent_event_id, canceled_at,
		created_at, updated_at`

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	var ruleJSON interface{}
	if e.RecurrenceRule != nil {
		data, err := domain.EncodeRule(e.RecurrenceRule)
		if err != nil {
			return fmt.Errorf("encode recurrence rule: %w", err)
		}
		ruleJSON = data
	}
	query := `
		INSERT INTO events (organization_id, created_by, title, description, start_time, end_time,
			location, virtual_link, is_virtual, max_attendees, visibility, event_timezone,
			is_recurring, recurrence_rule, recurrence_end_date, parent_event_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query,
		e.OrganizationID, e.CreatedBy, e.Title, e.Description, e.StartTime, e.EndTime,
		e.Location, e.VirtualLink, e.IsVirtual, e.MaxAttendees, e.Visibility, e.EventTimezone,
		e.IsRecurring, ruleJSON, e.RecurrenceEndDate, e.ParentEventID, e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
	if err != nil {
		if isUniqueViolation(err, "events_parent_start_key") {
			return domain.ErrDuplicateInstance
		}
		return err
	}
	for _, groupID := range e.GroupIDs {
		_, err := r.DB.ExecContext(ctx, `
			INSERT INTO event_group_visibility (event_id, group_id)
			VALUES ($1, $2)
			ON CONFLICT (event_id, group_id) DO NOTHING
		`, e.ID, groupID)
		if err != nil {
			return fmt.Errorf("bind group %s: %w", groupID, err)
		}
	}
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := r.loadBindings(ctx, []*domain.Event{e}); err != nil {
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) ListByOrganizations(ctx context.Context, orgIDs []string, from, to time.Time) ([]*domain.Event, error) {
	if len(orgIDs) == 0 {
		return []*domain.Event{}, nil
	}
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE organization_id = ANY($1)
		  AND canceled_at IS NULL
		  AND start_time BETWEEN $2 AND $3
		ORDER BY start_time ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, pq.Array(orgIDs), from, to)
	if err != nil {
		return nil, err
	}
	events, err := collectEvents(rows)
	if err != nil {
		return nil, err
	}
	if err := r.loadBindings(ctx, events); err != nil {
		return nil, err
	}
	return events, nil
}

func (r *eventRepository) ListByOrganization(ctx context.Context, orgID string, p domain.PaginationParams) ([]*domain.Event, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM events WHERE organization_id = $1 AND canceled_at IS NULL`
	if err := r.DB.QueryRowContext(ctx, countQuery, orgID).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE organization_id = $1 AND canceled_at IS NULL
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.DB.QueryContext(ctx, query, orgID, p.PageSize, p.Offset())
	if err != nil {
		return nil, 0, err
	}
	events, err := collectEvents(rows)
	if err != nil {
		return nil, 0, err
	}
	if err := r.loadBindings(ctx, events); err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

func (r *eventRepository) ListTemplates(ctx context.Context) ([]*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE is_recurring AND parent_event_id IS NULL AND canceled_at IS NULL
		ORDER BY created_at ASC
	`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	events, err := collectEvents(rows)
	if err != nil {
		return nil, err
	}
	if err := r.loadBindings(ctx, events); err != nil {
		return nil, err
	}
	return events, nil
}

func (r *eventRepository) ListInstances(ctx context.Context, parentEventID string) ([]*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE parent_event_id = $1
		ORDER BY start_time ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, parentEventID)
	if err != nil {
		return nil, err
	}
	events, err := collectEvents(rows)
	if err != nil {
		return nil, err
	}
	if err := r.loadBindings(ctx, events); err != nil {
		return nil, err
	}
	return events, nil
}

func (r *eventRepository) InstanceStartTimes(ctx context.Context, parentEventID string) (map[time.Time]struct{}, error) {
	query := `SELECT start_time FROM events WHERE parent_event_id = $1`
	rows, err := r.DB.QueryContext(ctx, query, parentEventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	starts := make(map[time.Time]struct{})
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		starts[t.UTC()] = struct{}{}
	}
	return starts, rows.Err()
}

func (r *eventRepository) Update(ctx context.Context, e *domain.Event) error {
	query := `
		UPDATE events
		SET title = $1, description = $2, location = $3, virtual_link = $4, updated_at = $5
		WHERE id = $6
	`
	result, err := r.DB.ExecContext(ctx, query,
		e.Title, e.Description, e.Location, e.VirtualLink, e.UpdatedAt, e.ID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *eventRepository) Cancel(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE events SET canceled_at = $2, updated_at = $2 WHERE id = $1`
	result, err := r.DB.ExecContext(ctx, query, id, at)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *eventRepository) CancelFutureInstances(ctx context.Context, parentEventID string, from, at time.Time) error {
	query := `
		UPDATE events
		SET canceled_at = $3, updated_at = $3
		WHERE parent_event_id = $1 AND start_time >= $2 AND canceled_at IS NULL
	`
	_, err := r.DB.ExecContext(ctx, query, parentEventID, from, at)
	return err
}

// loadBindings attaches the group-visibility bindings to each event in one
// query.
func (r *eventRepository) loadBindings(ctx context.Context, events []*domain.Event) error {
	if len(events) == 0 {
		return nil
	}
	byID := make(map[string]*domain.Event, len(events))
	ids := make([]string, 0, len(events))
	for _, e := range events {
		byID[e.ID] = e
		ids = append(ids, e.ID)
	}
	query := `SELECT event_id, group_id FROM event_group_visibility WHERE event_id = ANY($1)`
	rows, err := r.DB.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var eventID, groupID string
		if err := rows.Scan(&eventID, &groupID); err != nil {
			return err
		}
		if e, ok := byID[eventID]; ok {
			e.GroupIDs = append(e.GroupIDs, groupID)
		}
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	e := &domain.Event{}
	var (
		maxAttendees sql.NullInt64
		ruleJSON     sql.NullString
		ruleEnd      sql.NullTime
		parentID     sql.NullString
		canceledAt   sql.NullTime
	)
	err := row.Scan(
		&e.ID, &e.OrganizationID, &e.CreatedBy, &e.Title, &e.Description, &e.StartTime, &e.EndTime,
		&e.Location, &e.VirtualLink, &e.IsVirtual, &maxAttendees, &e.Visibility, &e.EventTimezone,
		&e.IsRecurring, &ruleJSON, &ruleEnd, &parentID, &canceledAt,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if maxAttendees.Valid {
		n := int(maxAttendees.Int64)
		e.MaxAttendees = &n
	}
	if ruleJSON.Valid {
		rule, err := domain.DecodeRule([]byte(ruleJSON.String))
		if err != nil {
			return nil, fmt.Errorf("decode recurrence rule for event %s: %w", e.ID, err)
		}
		e.RecurrenceRule = rule
	}
	if ruleEnd.Valid {
		e.RecurrenceEndDate = &ruleEnd.Time
	}
	if parentID.Valid {
		e.ParentEventID = &parentID.String
	}
	if canceledAt.Valid {
		e.CanceledAt = &canceledAt.Time
	}
	return e, nil
}

func collectEvents(rows *sql.Rows) ([]*domain.Event, error) {
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation on the named constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "23505" && pqErr.Constraint == constraint
}
