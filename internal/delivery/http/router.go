package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"communityhub/internal/delivery/http/controllers"
	"communityhub/internal/delivery/http/middleware"
	"communityhub/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes.
// Everything except /auth/* and /swagger/ requires a Bearer token.
func NewRouter(
	logger *slog.Logger,
	verifier domain.TokenVerifier,
	authController *controllers.AuthController,
	orgController *controllers.OrganizationController,
	eventController *controllers.EventController,
	calendarController *controllers.CalendarController,
) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier, logger)

	// Auth
	mux.HandleFunc("POST /auth/signup", authController.SignUp)
	mux.HandleFunc("POST /auth/login", authController.Login)

	// Organizations and groups
	mux.HandleFunc("POST /orgs", auth(orgController.CreateOrganization))
	mux.HandleFunc("GET /orgs/me", auth(orgController.ListMyOrganizations))
	mux.HandleFunc("POST /orgs/{orgID}/join", auth(orgController.Join))
	mux.HandleFunc("POST /orgs/{orgID}/groups", auth(orgController.CreateGroup))
	mux.HandleFunc("POST /groups/{groupID}/join", auth(orgController.JoinGroup))

	// Events
	mux.HandleFunc("POST /events", auth(eventController.CreateEvent))
	mux.HandleFunc("GET /events/{eventID}", auth(eventController.GetEvent))
	mux.HandleFunc("PATCH /events/{eventID}", auth(eventController.UpdateEvent))
	mux.HandleFunc("DELETE /events/{eventID}", auth(eventController.DeleteEvent))
	mux.HandleFunc("GET /orgs/{orgID}/events", auth(eventController.ListOrganizationEvents))

	// Calendar
	mux.HandleFunc("GET /calendar", auth(calendarController.Calendar))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
