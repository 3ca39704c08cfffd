package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"socialevents/internal/delivery/http/helpers"
	"socialevents/internal/delivery/http/middleware"
	"socialevents/internal/domain"
)

// validParticipationStatuses is the closed set accepted in list filters.
var validParticipationStatuses = map[domain.ParticipationStatus]struct{}{
	domain.ParticipationPending:   {},
	domain.ParticipationConfirmed: {},
	domain.ParticipationRejected:  {},
	domain.ParticipationCancelled: {},
}

// ParticipationSuccessResponse is the success response envelope for endpoints
// returning a single participation.
type ParticipationSuccessResponse struct {
	Data  *domain.Participation `json:"data"`
	Error *helpers.APIError     `json:"error"`
}

// ParticipationListSuccessResponse is the success response envelope for
// endpoints returning an array of participations.
type ParticipationListSuccessResponse struct {
	Data  []*domain.Participation `json:"data"`
	Error *helpers.APIError       `json:"error"`
}

// FavoriteStatusResponse is the data payload for GET /users/me/favorites/{eventID}.
type FavoriteStatusResponse struct {
	IsFavorite bool `json:"is_favorite"`
}

// FavoriteStatusSuccessResponse is the success response envelope for
// FavoriteStatusResponse payloads.
type FavoriteStatusSuccessResponse struct {
	Data  FavoriteStatusResponse `json:"data"`
	Error *helpers.APIError      `json:"error"`
}

type ParticipationController struct {
	Logger  *slog.Logger
	Service domain.ParticipationService
}

func NewParticipationController(logger *slog.Logger, svc domain.ParticipationService) *ParticipationController {
	return &ParticipationController{
		Logger:  logger,
		Service: svc,
	}
}

func (c *ParticipationController) handleError(w http.ResponseWriter, r *http.Request, err error) {
	if !helpers.KnownDomainError(err) {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
	}
	helpers.WriteDomainError(w, err)
}

// Register godoc
// @Summary Register for an event
// @Description Registers the authenticated user for the event. Registration is immediately confirmed unless the event requires manual approval, in which case it is pending. A full event rejects new confirmed registrations.
// @Tags participations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 201 {object} controllers.ParticipationSuccessResponse "data contains the registration"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (full or already registered)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/participations [post]
func (c *ParticipationController) Register(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	p, err := c.Service.Register(r.Context(), eventID, userID)
	if err != nil {
		c.handleError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, p)
}

// CancelRegistration godoc
// @Summary Cancel own registration
// @Description Cancels the authenticated user's active registration for the event. The freed slot is not handed to pending registrants.
// @Tags participations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} controllers.ParticipationSuccessResponse "data contains the cancelled registration"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (not registered)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/participations/me [delete]
func (c *ParticipationController) CancelRegistration(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	p, err := c.Service.CancelRegistration(r.Context(), eventID, userID)
	if err != nil {
		c.handleError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, p)
}

// RemoveParticipant godoc
// @Summary Remove a participant
// @Description Cancels another user's registration. Only the event organizer can remove participants.
// @Tags participations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param userID path string true "User ID of the participant"
// @Success 200 {object} controllers.StatusSuccessResponse "data contains status"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not organizer)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/participations/{userID} [delete]
func (c *ParticipationController) RemoveParticipant(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	userID := r.PathValue("userID")
	if eventID == "" || userID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID or userID")
		return
	}
	callerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.RemoveParticipant(r.Context(), eventID, userID, callerID); err != nil {
		c.handleError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, StatusResponse{Status: "removed"})
}

// ApproveParticipant godoc
// @Summary Approve a pending registration
// @Description Confirms a pending registration. Only the event organizer can approve. Approval re-checks capacity and fails with conflict when the event is full.
// @Tags participations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param userID path string true "User ID of the pending registrant"
// @Success 200 {object} controllers.ParticipationSuccessResponse "data contains the confirmed registration"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not organizer)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (no pending registration)"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (event is full)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/participations/{userID}/approve [post]
func (c *ParticipationController) ApproveParticipant(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	userID := r.PathValue("userID")
	if eventID == "" || userID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID or userID")
		return
	}
	approverID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	p, err := c.Service.ApproveParticipant(r.Context(), eventID, userID, approverID)
	if err != nil {
		c.handleError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, p)
}

// RejectParticipantRequest is the request body for rejecting a pending
// registration. Reason is optional.
type RejectParticipantRequest struct {
	Reason *string `json:"reason"`
}

// Validate implements Validator.
func (rr RejectParticipantRequest) Validate() []string {
	if rr.Reason != nil && strings.TrimSpace(*rr.Reason) == "" {
		return []string{"reason cannot be blank"}
	}
	return nil
}

// RejectParticipant godoc
// @Summary Reject a pending registration
// @Description Rejects a pending registration with an optional reason. Only the event organizer can reject. A rejected user cannot re-register for the event.
// @Tags participations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param userID path string true "User ID of the pending registrant"
// @Param body body RejectParticipantRequest true "Optional reason"
// @Success 200 {object} controllers.ParticipationSuccessResponse "data contains the rejected registration"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not organizer)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (no pending registration)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/participations/{userID}/reject [post]
func (c *ParticipationController) RejectParticipant(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	userID := r.PathValue("userID")
	if eventID == "" || userID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID or userID")
		return
	}
	var req RejectParticipantRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	callerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	p, err := c.Service.RejectParticipant(r.Context(), eventID, userID, callerID, req.Reason)
	if err != nil {
		c.handleError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, p)
}

// ListParticipations godoc
// @Summary List participations for an event
// @Description Returns registrations for the event, optionally filtered by status.
// @Tags participations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param status query string false "Filter by status (PENDING, CONFIRMED, REJECTED, CANCELLED)"
// @Success 200 {object} controllers.ParticipationListSuccessResponse "data is an array of participations"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/participations [get]
func (c *ParticipationController) ListParticipations(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	var status *domain.ParticipationStatus
	if s := r.URL.Query().Get("status"); s != "" {
		st := domain.ParticipationStatus(s)
		if _, ok := validParticipationStatuses[st]; !ok {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "status is not a known participation status")
			return
		}
		status = &st
	}
	list, err := c.Service.ListParticipations(r.Context(), eventID, status)
	if err != nil {
		c.handleError(w, r, err)
		return
	}
	if list == nil {
		list = []*domain.Participation{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, list)
}

// ListPendingApprovals godoc
// @Summary List pending registrations awaiting approval
// @Description Returns pending registrations for the event. Only the event organizer can list them.
// @Tags participations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} controllers.ParticipationListSuccessResponse "data is an array of pending participations"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not organizer)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/participations/pending [get]
func (c *ParticipationController) ListPendingApprovals(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	callerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	list, err := c.Service.ListPendingApprovals(r.Context(), eventID, callerID)
	if err != nil {
		c.handleError(w, r, err)
		return
	}
	if list == nil {
		list = []*domain.Participation{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, list)
}

// ListMyParticipations godoc
// @Summary List own participations
// @Description Returns the authenticated user's active registrations across events.
// @Tags participations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.ParticipationListSuccessResponse "data is an array of participations"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/me/participations [get]
func (c *ParticipationController) ListMyParticipations(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	list, err := c.Service.ListUserParticipations(r.Context(), userID)
	if err != nil {
		c.handleError(w, r, err)
		return
	}
	if list == nil {
		list = []*domain.Participation{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, list)
}

// AddFavorite godoc
// @Summary Add an event to favorites
// @Description Adds the event to the authenticated user's favorites. Adding an existing favorite is a no-op. The favorites set is limited per account tier.
// @Tags favorites
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} controllers.EventSuccessResponse "data contains the favorited event"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: quota_exceeded"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/me/favorites/{eventID} [post]
func (c *ParticipationController) AddFavorite(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	role := middleware.RoleFromContext(r.Context())
	event, err := c.Service.AddFavorite(r.Context(), userID, role, eventID)
	if err != nil {
		c.handleError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// RemoveFavorite godoc
// @Summary Remove an event from favorites
// @Description Removes the event from the authenticated user's favorites. Removing a non-favorite is a no-op.
// @Tags favorites
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} controllers.EventSuccessResponse "data contains the unfavorited event"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/me/favorites/{eventID} [delete]
func (c *ParticipationController) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	event, err := c.Service.RemoveFavorite(r.Context(), userID, eventID)
	if err != nil {
		c.handleError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// ListFavorites godoc
// @Summary List favorite events
// @Description Returns the authenticated user's favorite events, most recently added first.
// @Tags favorites
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.EventListSuccessResponse "data is an array of events"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/me/favorites [get]
func (c *ParticipationController) ListFavorites(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	events, err := c.Service.ListFavorites(r.Context(), userID)
	if err != nil {
		c.handleError(w, r, err)
		return
	}
	if events == nil {
		events = []*domain.Event{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, events)
}

// IsFavorite godoc
// @Summary Check whether an event is a favorite
// @Description Reports whether the event is in the authenticated user's favorites.
// @Tags favorites
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} controllers.FavoriteStatusSuccessResponse "data contains is_favorite"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/me/favorites/{eventID} [get]
func (c *ParticipationController) IsFavorite(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	fav, err := c.Service.IsFavorite(r.Context(), userID, eventID)
	if err != nil {
		c.handleError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, FavoriteStatusResponse{IsFavorite: fav})
}
