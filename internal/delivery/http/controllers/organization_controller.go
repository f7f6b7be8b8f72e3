package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"communityhub/internal/delivery/http/helpers"
	"communityhub/internal/delivery/http/middleware"
	"communityhub/internal/domain"
)

type OrganizationController struct {
	Logger  *slog.Logger
	Service domain.OrganizationService
}

func NewOrganizationController(logger *slog.Logger, svc domain.OrganizationService) *OrganizationController {
	return &OrganizationController{
		Logger:  logger,
		Service: svc,
	}
}

// CreateOrganizationRequest is the request body for POST /orgs.
type CreateOrganizationRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Validate implements Validator.
func (c CreateOrganizationRequest) Validate() []string {
	var errs []string
	if c.Name == "" {
		errs = append(errs, "name is required")
	}
	return errs
}

// CreateOrganizationSuccessResponse is the success response envelope for POST /orgs (201).
type CreateOrganizationSuccessResponse struct {
	Data  *domain.Organization `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

// CreateOrganization godoc
// @Summary Create an organization
// @Description Creates an organization. The authenticated user becomes its first admin member.
// @Tags organizations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateOrganizationRequest true "Organization data"
// @Success 201 {object} controllers.CreateOrganizationSuccessResponse "data contains the created organization"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /orgs [post]
func (c *OrganizationController) CreateOrganization(w http.ResponseWriter, r *http.Request) {
	var req CreateOrganizationRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	org, err := c.Service.CreateOrganization(r.Context(), userID, req.Name, req.Description)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, org)
}

// JoinOrganizationResponse is the data payload for POST /orgs/{orgID}/join (200).
type JoinOrganizationResponse struct {
	Status string `json:"status"`
}

// JoinOrganizationSuccessResponse is the success response envelope for POST /orgs/{orgID}/join (200).
type JoinOrganizationSuccessResponse struct {
	Data  JoinOrganizationResponse `json:"data"`
	Error *helpers.APIError        `json:"error"`
}

// Join godoc
// @Summary Join an organization
// @Description Adds the authenticated user as an active member of the organization.
// @Tags organizations
// @Produce json
// @Security BearerAuth
// @Param orgID path string true "Organization ID (UUID)"
// @Success 200 {object} controllers.JoinOrganizationSuccessResponse "data contains status"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /orgs/{orgID}/join [post]
func (c *OrganizationController) Join(w http.ResponseWriter, r *http.Request) {
	orgID := r.PathValue("orgID")
	if orgID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing orgID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.Join(r.Context(), userID, orgID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "organization not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, JoinOrganizationResponse{Status: "joined"})
}

// ListMyOrganizationsSuccessResponse is the success response envelope for GET /orgs/me (200).
type ListMyOrganizationsSuccessResponse struct {
	Data  []*domain.Organization `json:"data"`
	Error *helpers.APIError      `json:"error"`
}

// ListMyOrganizations godoc
// @Summary List organizations of the current user
// @Description Returns the organizations the authenticated user is an active member of, in join order.
// @Tags organizations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.ListMyOrganizationsSuccessResponse "data is an array of organizations"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /orgs/me [get]
func (c *OrganizationController) ListMyOrganizations(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	orgs, err := c.Service.ListForUser(r.Context(), userID)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	if orgs == nil {
		orgs = []*domain.Organization{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, orgs)
}

// CreateGroupRequest is the request body for POST /orgs/{orgID}/groups.
type CreateGroupRequest struct {
	Name string `json:"name"`
}

// Validate implements Validator.
func (c CreateGroupRequest) Validate() []string {
	var errs []string
	if c.Name == "" {
		errs = append(errs, "name is required")
	}
	return errs
}

// CreateGroupSuccessResponse is the success response envelope for POST /orgs/{orgID}/groups (201).
type CreateGroupSuccessResponse struct {
	Data  *domain.Group     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// CreateGroup godoc
// @Summary Create a group
// @Description Creates a group within the organization. Only organization admins can create groups.
// @Tags organizations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param orgID path string true "Organization ID (UUID)"
// @Param body body CreateGroupRequest true "Group data"
// @Success 201 {object} controllers.CreateGroupSuccessResponse "data contains the created group"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not an admin)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /orgs/{orgID}/groups [post]
func (c *OrganizationController) CreateGroup(w http.ResponseWriter, r *http.Request) {
	orgID := r.PathValue("orgID")
	if orgID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing orgID")
		return
	}
	var req CreateGroupRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	group, err := c.Service.CreateGroup(r.Context(), userID, orgID, req.Name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "organization not found")
			return
		}
		if errors.Is(err, domain.ErrForbidden) {
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
			return
		}
		if errors.Is(err, domain.ErrInvalidInput) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, group)
}

// JoinGroupResponse is the data payload for POST /groups/{groupID}/join (200).
type JoinGroupResponse struct {
	Status string `json:"status"`
}

// JoinGroupSuccessResponse is the success response envelope for POST /groups/{groupID}/join (200).
type JoinGroupSuccessResponse struct {
	Data  JoinGroupResponse `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// JoinGroup godoc
// @Summary Join a group
// @Description Adds the authenticated user to the group. The user must be an active member of the group's organization.
// @Tags organizations
// @Produce json
// @Security BearerAuth
// @Param groupID path string true "Group ID (UUID)"
// @Success 200 {object} controllers.JoinGroupSuccessResponse "data contains status"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not an organization member)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /groups/{groupID}/join [post]
func (c *OrganizationController) JoinGroup(w http.ResponseWriter, r *http.Request) {
	groupID := r.PathValue("groupID")
	if groupID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing groupID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.JoinGroup(r.Context(), userID, groupID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "group not found")
			return
		}
		if errors.Is(err, domain.ErrForbidden) {
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, JoinGroupResponse{Status: "joined"})
}
