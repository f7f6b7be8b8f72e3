package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"communityhub/internal/delivery/http/helpers"
	"communityhub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCalendarService implements domain.CalendarService for controller tests.
type fakeCalendarService struct {
	items   []domain.CalendarItem
	err     error
	gotFrom time.Time
	gotTo   time.Time
	gotTZ   string
}

func (f *fakeCalendarService) Calendar(_ context.Context, _ string, from, to time.Time, tz string) ([]domain.CalendarItem, error) {
	f.gotFrom = from
	f.gotTo = to
	f.gotTZ = tz
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}

func TestCalendarController_Calendar(t *testing.T) {
	items := []domain.CalendarItem{
		{EventID: "evt-1", Title: "Meetup", Color: "#3B82F6", Class: domain.EventInPerson},
		{EventID: "evt-2", Title: "Standup", Color: "#10B981", Class: domain.EventVirtual},
	}

	tests := []struct {
		name       string
		query      string
		svc        *fakeCalendarService
		wantStatus int
		wantCode   string
		check      func(t *testing.T, svc *fakeCalendarService)
	}{
		{
			name:       "date-only range",
			query:      "from=2026-01-01&to=2026-01-31&tz=Europe/Madrid",
			svc:        &fakeCalendarService{items: items},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, svc *fakeCalendarService) {
				assert.Equal(t, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), svc.gotFrom)
				assert.Equal(t, time.Date(2026, time.January, 31, 0, 0, 0, 0, time.UTC), svc.gotTo)
				assert.Equal(t, "Europe/Madrid", svc.gotTZ)
			},
		},
		{
			name:       "rfc3339 range without tz",
			query:      "from=2026-01-01T00:00:00Z&to=2026-01-31T23:59:59Z",
			svc:        &fakeCalendarService{items: items},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, svc *fakeCalendarService) {
				assert.Equal(t, "", svc.gotTZ)
			},
		},
		{
			name:       "missing from",
			query:      "to=2026-01-31",
			svc:        &fakeCalendarService{},
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeBadRequest,
		},
		{
			name:       "unparseable to",
			query:      "from=2026-01-01&to=January",
			svc:        &fakeCalendarService{},
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeBadRequest,
		},
		{
			name:       "inverted range",
			query:      "from=2026-02-01&to=2026-01-01",
			svc:        &fakeCalendarService{},
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeBadRequest,
		},
		{
			name:       "unknown timezone surfaces as bad request",
			query:      "from=2026-01-01&to=2026-01-31&tz=Mars/Olympus",
			svc:        &fakeCalendarService{err: domain.ErrInvalidInput},
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeBadRequest,
		},
		{
			name:       "service failure",
			query:      "from=2026-01-01&to=2026-01-31",
			svc:        &fakeCalendarService{err: errors.New("db down")},
			wantStatus: http.StatusInternalServerError,
			wantCode:   helpers.ErrCodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := NewCalendarController(testLogger(), tt.svc)
			req := authedRequest(http.MethodGet, "http://test/calendar?"+tt.query, "")
			rr := httptest.NewRecorder()

			ctrl.Calendar(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			envelope := decodeEnvelope(t, rr)
			if tt.wantCode != "" {
				require.NotNil(t, envelope.Error)
				assert.Equal(t, tt.wantCode, envelope.Error.Code)
				return
			}
			data, ok := envelope.Data.([]any)
			require.True(t, ok)
			assert.Len(t, data, len(tt.svc.items))
			if tt.check != nil {
				tt.check(t, tt.svc)
			}
		})
	}
}

func TestCalendarController_Calendar_EmptyIsArray(t *testing.T) {
	ctrl := NewCalendarController(testLogger(), &fakeCalendarService{items: nil})
	req := authedRequest(http.MethodGet, "http://test/calendar?from=2026-01-01&to=2026-01-31", "")
	rr := httptest.NewRecorder()

	ctrl.Calendar(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"data":[]`)
}

func TestCalendarController_Calendar_Unauthenticated(t *testing.T) {
	ctrl := NewCalendarController(testLogger(), &fakeCalendarService{})
	req := httptest.NewRequest(http.MethodGet, "http://test/calendar?from=2026-01-01&to=2026-01-31", nil)
	rr := httptest.NewRecorder()

	ctrl.Calendar(rr, req)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
}
