package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"communityhub/internal/delivery/http/helpers"
	"communityhub/internal/delivery/http/middleware"
	"communityhub/internal/domain"
)

type CalendarController struct {
	Logger  *slog.Logger
	Service domain.CalendarService
}

func NewCalendarController(logger *slog.Logger, svc domain.CalendarService) *CalendarController {
	return &CalendarController{
		Logger:  logger,
		Service: svc,
	}
}

// CalendarSuccessResponse is the success response envelope for GET /calendar (200).
type CalendarSuccessResponse struct {
	Data  []domain.CalendarItem `json:"data"`
	Error *helpers.APIError     `json:"error"`
}

// Calendar godoc
// @Summary Get the viewer's calendar
// @Description Returns the visibility-filtered calendar items for the authenticated user across all their organizations, within [from, to]. Templates are excluded; only standalone events and series instances appear. tz is the viewer's IANA zone name and drives the timezone difference fields.
// @Tags calendar
// @Produce json
// @Security BearerAuth
// @Param from query string true "Range start, RFC3339 or YYYY-MM-DD"
// @Param to query string true "Range end, RFC3339 or YYYY-MM-DD"
// @Param tz query string false "Viewer IANA timezone, e.g. Europe/Madrid"
// @Success 200 {object} controllers.CalendarSuccessResponse "data is an array of calendar items"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /calendar [get]
func (c *CalendarController) Calendar(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	from, err := parseRangeBound(r.URL.Query().Get("from"))
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "from must be RFC3339 or YYYY-MM-DD")
		return
	}
	to, err := parseRangeBound(r.URL.Query().Get("to"))
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "to must be RFC3339 or YYYY-MM-DD")
		return
	}
	if to.Before(from) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "to must not be before from")
		return
	}
	tz := r.URL.Query().Get("tz")

	items, err := c.Service.Calendar(r.Context(), userID, from, to, tz)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	if items == nil {
		items = []domain.CalendarItem{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, items)
}

// parseRangeBound accepts an RFC3339 timestamp or a bare date. A bare date is
// interpreted at midnight UTC.
func parseRangeBound(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, errors.New("missing value")
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}
