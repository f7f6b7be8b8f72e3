package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Frequency identifies a recurrence rule variant.
type Frequency string

const (
	FrequencyMonthly Frequency = "monthly"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyDaily   Frequency = "daily"
)

// WeekLast selects the last occurrence of a weekday within a month,
// whether that month has four or five of them.
const WeekLast = -1

// TimeOfDay is a wall-clock time without a date, serialized as "HH:MM:SS".
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// ParseTimeOfDay parses "HH:MM:SS" into a TimeOfDay.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var t TimeOfDay
	n, err := fmt.Sscanf(s, "%02d:%02d:%02d", &t.Hour, &t.Minute, &t.Second)
	if err != nil || n != 3 {
		return TimeOfDay{}, fmt.Errorf("%w: time must be HH:MM:SS, got %q", ErrInvalidInput, s)
	}
	if t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 || t.Second < 0 || t.Second > 59 {
		return TimeOfDay{}, fmt.Errorf("%w: time out of range: %q", ErrInvalidInput, s)
	}
	return t, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// On places the time of day onto the given date, keeping its location.
func (t TimeOfDay) On(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour, t.Minute, t.Second, 0, d.Location())
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: time must be a string", ErrInvalidInput)
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// RecurrenceRule is one of the supported recurrence patterns. Rules are pure
// date arithmetic: they never read the clock and never touch storage.
type RecurrenceRule interface {
	Frequency() Frequency
	Validate() error
	// Occurrences returns every occurrence start within [from, until], in
	// ascending order. Both bounds are resolved by Materialize; from is a
	// midnight and until an end-of-day instant.
	Occurrences(from, until time.Time) []time.Time
}

// MonthlyRule fires on the Nth weekday of each month, e.g. "first Tuesday"
// or, with WeekOfMonth = WeekLast, "last Friday".
type MonthlyRule struct {
	Weekday     time.Weekday `json:"day_of_week"`
	WeekOfMonth int          `json:"week_of_month"`
	TimeOfDay   TimeOfDay    `json:"time"`
}

func (r *MonthlyRule) Frequency() Frequency { return FrequencyMonthly }

func (r *MonthlyRule) Validate() error {
	if r.Weekday < time.Sunday || r.Weekday > time.Saturday {
		return fmt.Errorf("%w: day_of_week must be 0-6, got %d", ErrInvalidInput, r.Weekday)
	}
	if r.WeekOfMonth != WeekLast && (r.WeekOfMonth < 1 || r.WeekOfMonth > 4) {
		return fmt.Errorf("%w: week_of_month must be 1-4 or -1 for last, got %d", ErrInvalidInput, r.WeekOfMonth)
	}
	return nil
}

// dateInMonth returns the rule's date within the month that contains monthStart
// (the first of a month, at midnight).
func (r *MonthlyRule) dateInMonth(monthStart time.Time) time.Time {
	if r.WeekOfMonth == WeekLast {
		lastDay := monthStart.AddDate(0, 1, -1)
		back := int(lastDay.Weekday()-r.Weekday+7) % 7
		return lastDay.AddDate(0, 0, -back)
	}
	offset := int(r.Weekday-monthStart.Weekday()+7) % 7
	return monthStart.AddDate(0, 0, offset+7*(r.WeekOfMonth-1))
}

func (r *MonthlyRule) Occurrences(from, until time.Time) []time.Time {
	var out []time.Time
	monthStart := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, from.Location())
	for ; ; monthStart = monthStart.AddDate(0, 1, 0) {
		occ := r.TimeOfDay.On(r.dateInMonth(monthStart))
		if occ.After(until) {
			return out
		}
		if occ.Before(from) {
			continue
		}
		out = append(out, occ)
	}
}

// WeeklyRule fires on a fixed set of weekdays every week.
type WeeklyRule struct {
	Weekdays  []time.Weekday `json:"days_of_week"`
	TimeOfDay TimeOfDay      `json:"time"`
}

func (r *WeeklyRule) Frequency() Frequency { return FrequencyWeekly }

func (r *WeeklyRule) Validate() error {
	if len(r.Weekdays) == 0 {
		return fmt.Errorf("%w: days_of_week must not be empty", ErrInvalidInput)
	}
	seen := make(map[time.Weekday]bool, len(r.Weekdays))
	for _, d := range r.Weekdays {
		if d < time.Sunday || d > time.Saturday {
			return fmt.Errorf("%w: days_of_week entries must be 0-6, got %d", ErrInvalidInput, d)
		}
		if seen[d] {
			return fmt.Errorf("%w: duplicate weekday %d in days_of_week", ErrInvalidInput, d)
		}
		seen[d] = true
	}
	return nil
}

func (r *WeeklyRule) Occurrences(from, until time.Time) []time.Time {
	selected := make(map[time.Weekday]bool, len(r.Weekdays))
	for _, d := range r.Weekdays {
		selected[d] = true
	}
	var out []time.Time
	for d := from; !d.After(until); d = d.AddDate(0, 0, 1) {
		if !selected[d.Weekday()] {
			continue
		}
		if occ := r.TimeOfDay.On(d); !occ.After(until) {
			out = append(out, occ)
		}
	}
	return out
}

// DailyRule fires every Interval calendar days. With WeekdaysOnly the
// interval keeps counting through weekends but weekend landings are dropped,
// so the cadence never shifts.
type DailyRule struct {
	Interval     int       `json:"interval"`
	WeekdaysOnly bool      `json:"weekdays_only,omitempty"`
	TimeOfDay    TimeOfDay `json:"time"`
}

func (r *DailyRule) Frequency() Frequency { return FrequencyDaily }

func (r *DailyRule) Validate() error {
	if r.Interval < 1 {
		return fmt.Errorf("%w: interval must be at least 1, got %d", ErrInvalidInput, r.Interval)
	}
	return nil
}

func (r *DailyRule) Occurrences(from, until time.Time) []time.Time {
	var out []time.Time
	for d := from; !d.After(until); d = d.AddDate(0, 0, r.Interval) {
		if r.WeekdaysOnly && (d.Weekday() == time.Saturday || d.Weekday() == time.Sunday) {
			continue
		}
		if occ := r.TimeOfDay.On(d); !occ.After(until) {
			out = append(out, occ)
		}
	}
	return out
}

// dateOf truncates t to midnight in its own location.
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// endOfDay returns the last representable second of t's date.
func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

// Materialize expands a rule into concrete occurrence start times. The window
// runs from the anchor's date through the earlier of the rule's end date and
// the horizon, both inclusive at date granularity. A nil rule yields nothing.
//
// "After the series start" is read at date granularity too: the anchor is
// truncated to midnight, so an occurrence on the anchor's own date is emitted
// even when the rule's time of day is earlier than the anchor's clock time.
// The anchor fixes the first eligible day, the rule fixes the time.
func Materialize(rule RecurrenceRule, anchor time.Time, until *time.Time, horizonEnd time.Time) []time.Time {
	if rule == nil {
		return nil
	}
	limit := endOfDay(horizonEnd)
	if until != nil {
		if u := endOfDay(*until); u.Before(limit) {
			limit = u
		}
	}
	from := dateOf(anchor)
	if limit.Before(from) {
		return nil
	}
	return rule.Occurrences(from, limit)
}

// ruleEnvelope is the persisted / wire shape of a rule: the variant's own
// fields plus a frequency discriminator.
type ruleEnvelope struct {
	Frequency Frequency `json:"frequency"`
}

// EncodeRule serializes a rule to its tagged JSON form.
func EncodeRule(rule RecurrenceRule) ([]byte, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	switch r := rule.(type) {
	case *MonthlyRule:
		return json.Marshal(struct {
			ruleEnvelope
			*MonthlyRule
		}{ruleEnvelope{FrequencyMonthly}, r})
	case *WeeklyRule:
		return json.Marshal(struct {
			ruleEnvelope
			*WeeklyRule
		}{ruleEnvelope{FrequencyWeekly}, r})
	case *DailyRule:
		return json.Marshal(struct {
			ruleEnvelope
			*DailyRule
		}{ruleEnvelope{FrequencyDaily}, r})
	default:
		return nil, fmt.Errorf("%w: unknown rule type %T", ErrInvalidInput, rule)
	}
}

// DecodeRule parses the tagged JSON form back into a validated rule. Fields
// belonging to a different variant are rejected rather than ignored.
func DecodeRule(data []byte) (RecurrenceRule, error) {
	var head ruleEnvelope
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("%w: malformed recurrence rule: %v", ErrInvalidInput, err)
	}
	var rule RecurrenceRule
	switch head.Frequency {
	case FrequencyMonthly:
		rule = &MonthlyRule{}
	case FrequencyWeekly:
		rule = &WeeklyRule{}
	case FrequencyDaily:
		rule = &DailyRule{}
	default:
		return nil, fmt.Errorf("%w: unknown frequency %q", ErrInvalidInput, head.Frequency)
	}
	dec := json.NewDecoder(bytes.NewReader(stripFrequency(data)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(rule); err != nil {
		return nil, fmt.Errorf("%w: malformed %s rule: %v", ErrInvalidInput, head.Frequency, err)
	}
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	return rule, nil
}

// stripFrequency removes the discriminator so the strict per-variant decode
// does not trip over it.
func stripFrequency(data []byte) []byte {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return data
	}
	delete(m, "frequency")
	out, err := json.Marshal(m)
	if err != nil {
		return data
	}
	return out
}
