package controllers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"socialevents/internal/delivery/http/helpers"
	"socialevents/internal/delivery/http/middleware"
	"socialevents/internal/domain"
)

// validCategories is the closed set accepted in requests and filters.
var validCategories = map[domain.EventCategory]struct{}{
	domain.CategorySortie: {},
	domain.CategorySport:  {},
	domain.CategoryMusee:  {},
	domain.CategoryDanse:  {},
	domain.CategoryHiking: {},
	domain.CategoryDrinks: {},
	domain.CategoryOther:  {},
}

// CreateEventRequest is the request body for POST /events.
type CreateEventRequest struct {
	Title                      string              `json:"title"`
	Description                *string             `json:"description"`
	Image                      *string             `json:"image"`
	Category                   string              `json:"category"`
	Date                       time.Time           `json:"date"`
	Time                       string              `json:"time"`
	Location                   string              `json:"location"`
	Coordinates                *domain.Coordinates `json:"coordinates"`
	MaxAttendees               int                 `json:"max_attendees"`
	Price                      float64             `json:"price"`
	Currency                   string              `json:"currency"`
	HideAddressUntilRegistered bool                `json:"hide_address_until_registered"`
	RequireManualApproval      bool                `json:"require_manual_approval"`
}

// Validate implements Validator.
func (c CreateEventRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.Title) == "" {
		errs = append(errs, "title is required")
	}
	if c.Date.IsZero() {
		errs = append(errs, "date is required")
	}
	if c.MaxAttendees <= 0 {
		errs = append(errs, "max_attendees must be positive")
	}
	if c.Price < 0 {
		errs = append(errs, "price must be non-negative")
	}
	if c.Category != "" {
		if _, ok := validCategories[domain.EventCategory(c.Category)]; !ok {
			errs = append(errs, "category is not a known category")
		}
	}
	if c.Coordinates != nil {
		if c.Coordinates.Latitude < -90 || c.Coordinates.Latitude > 90 {
			errs = append(errs, "coordinates.latitude must be between -90 and 90")
		}
		if c.Coordinates.Longitude < -180 || c.Coordinates.Longitude > 180 {
			errs = append(errs, "coordinates.longitude must be between -180 and 180")
		}
	}
	return errs
}

// EventSuccessResponse is the success response envelope for endpoints
// returning a single event.
type EventSuccessResponse struct {
	Data  *domain.Event     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// EventListSuccessResponse is the success response envelope for endpoints
// returning an array of events.
type EventListSuccessResponse struct {
	Data  []*domain.Event   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// EventPageSuccessResponse is the success response envelope for GET /events.
type EventPageSuccessResponse struct {
	Data  *domain.EventPage `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// StatusResponse is the data payload for endpoints that confirm an action
// without returning a resource.
type StatusResponse struct {
	Status string `json:"status"`
}

// StatusSuccessResponse is the success response envelope for StatusResponse
// payloads.
type StatusSuccessResponse struct {
	Data  StatusResponse    `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// CountResponse is the data payload for count endpoints.
type CountResponse struct {
	Count int `json:"count"`
}

// CountSuccessResponse is the success response envelope for CountResponse
// payloads.
type CountSuccessResponse struct {
	Data  CountResponse     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
	}
}

func (c *EventController) handleError(w http.ResponseWriter, r *http.Request, err error) {
	if !helpers.KnownDomainError(err) {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
	}
	helpers.WriteDomainError(w, err)
}

// CreateEvent godoc
// @Summary Create a new event
// @Description Create a new event owned by the authenticated user. Active event count is limited per account tier. Currency defaults to EUR and category to OTHER when omitted.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param event body CreateEventRequest true "Event data"
// @Success 201 {object} controllers.EventSuccessResponse "data contains the created event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: quota_exceeded"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	role := middleware.RoleFromContext(r.Context())
	event := &domain.Event{
		Title:                      req.Title,
		Description:                req.Description,
		Image:                      req.Image,
		Category:                   domain.EventCategory(req.Category),
		Date:                       req.Date,
		Time:                       req.Time,
		Location:                   req.Location,
		Coordinates:                req.Coordinates,
		MaxAttendees:               req.MaxAttendees,
		Price:                      req.Price,
		Currency:                   req.Currency,
		HideAddressUntilRegistered: req.HideAddressUntilRegistered,
		RequireManualApproval:      req.RequireManualApproval,
	}
	if err := c.Service.CreateEvent(r.Context(), userID, role, event); err != nil {
		c.handleError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, event)
}

// GetEvent godoc
// @Summary Get an event by ID
// @Description Returns a single event, including cancelled ones.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} controllers.EventSuccessResponse "data contains the event"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [get]
func (c *EventController) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	event, err := c.Service.GetEvent(r.Context(), eventID)
	if err != nil {
		c.handleError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// ListEvents godoc
// @Summary List events
// @Description Returns a paginated list of non-cancelled events ordered by date ascending. Supports filtering by category, date range, location substring, max price, organizer, and available spots.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param category query string false "Filter by category"
// @Param date_from query string false "RFC 3339 lower bound on event date"
// @Param date_to query string false "RFC 3339 upper bound on event date"
// @Param location query string false "Location substring filter (case-insensitive)"
// @Param max_price query number false "Maximum price"
// @Param organizer_id query string false "Filter by organizer"
// @Param has_available_spots query bool false "Only events with free confirmed slots"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.EventPageSuccessResponse "data contains items, total_count, and has_more"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [get]
func (c *EventController) ListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filters domain.EventFilters
	if s := q.Get("category"); s != "" {
		category := domain.EventCategory(s)
		if _, ok := validCategories[category]; !ok {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "category is not a known category")
			return
		}
		filters.Category = &category
	}
	if s := q.Get("date_from"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "date_from must be RFC 3339")
			return
		}
		filters.DateFrom = &t
	}
	if s := q.Get("date_to"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "date_to must be RFC 3339")
			return
		}
		filters.DateTo = &t
	}
	if s := strings.TrimSpace(q.Get("location")); s != "" {
		filters.Location = &s
	}
	if s := q.Get("max_price"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v < 0 {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "max_price must be a non-negative number")
			return
		}
		filters.MaxPrice = &v
	}
	if s := q.Get("organizer_id"); s != "" {
		filters.OrganizerID = &s
	}
	filters.HasAvailableSpots = q.Get("has_available_spots") == "true"

	params := helpers.ParsePagination(r)
	page, err := c.Service.ListEvents(r.Context(), filters, params)
	if err != nil {
		c.handleError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, page)
}

// ListMyEvents godoc
// @Summary List events organized by the current user
// @Description Returns events where the authenticated user is the organizer, cancelled ones included.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.EventListSuccessResponse "data is an array of events"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/me [get]
func (c *EventController) ListMyEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	events, err := c.Service.ListEventsByOrganizer(r.Context(), userID)
	if err != nil {
		c.handleError(w, r, err)
		return
	}
	if events == nil {
		events = []*domain.Event{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, events)
}

// ListTrendingEvents godoc
// @Summary List trending events
// @Description Returns upcoming events ranked by confirmed attendee count, most popular first.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum number of events (default 10)"
// @Success 200 {object} controllers.EventListSuccessResponse "data is an array of events"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/trending [get]
func (c *EventController) ListTrendingEvents(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 1 {
			limit = v
		}
	}
	events, err := c.Service.ListTrendingEvents(r.Context(), limit)
	if err != nil {
		c.handleError(w, r, err)
		return
	}
	if events == nil {
		events = []*domain.Event{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, events)
}

// ListEventsForDate godoc
// @Summary List events on a calendar day
// @Description Returns non-cancelled events whose date falls on the given UTC day.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param date query string true "Day in YYYY-MM-DD form"
// @Success 200 {object} controllers.EventListSuccessResponse "data is an array of events"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/calendar [get]
func (c *EventController) ListEventsForDate(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing date")
		return
	}
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "date must be YYYY-MM-DD")
		return
	}
	events, err := c.Service.ListEventsForDate(r.Context(), date)
	if err != nil {
		c.handleError(w, r, err)
		return
	}
	if events == nil {
		events = []*domain.Event{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, events)
}

// UpdateEventRequest is the request body for PATCH /events/{eventID}. All
// fields optional; omitted fields are unchanged.
type UpdateEventRequest struct {
	Title                      *string             `json:"title"`
	Description                *string             `json:"description"`
	Image                      *string             `json:"image"`
	Category                   *string             `json:"category"`
	Date                       *time.Time          `json:"date"`
	Time                       *string             `json:"time"`
	Location                   *string             `json:"location"`
	Coordinates                *domain.Coordinates `json:"coordinates"`
	MaxAttendees               *int                `json:"max_attendees"`
	Price                      *float64            `json:"price"`
	Currency                   *string             `json:"currency"`
	HideAddressUntilRegistered *bool               `json:"hide_address_until_registered"`
	RequireManualApproval      *bool               `json:"require_manual_approval"`
}

// Validate implements Validator.
func (u UpdateEventRequest) Validate() []string {
	var errs []string
	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		errs = append(errs, "title cannot be empty")
	}
	if u.Category != nil {
		if _, ok := validCategories[domain.EventCategory(*u.Category)]; !ok {
			errs = append(errs, "category is not a known category")
		}
	}
	if u.MaxAttendees != nil && *u.MaxAttendees <= 0 {
		errs = append(errs, "max_attendees must be positive")
	}
	if u.Price != nil && *u.Price < 0 {
		errs = append(errs, "price must be non-negative")
	}
	if u.Coordinates != nil {
		if u.Coordinates.Latitude < -90 || u.Coordinates.Latitude > 90 {
			errs = append(errs, "coordinates.latitude must be between -90 and 90")
		}
		if u.Coordinates.Longitude < -180 || u.Coordinates.Longitude > 180 {
			errs = append(errs, "coordinates.longitude must be between -180 and 180")
		}
	}
	return errs
}

// UpdateEvent godoc
// @Summary Update event details
// @Description Updates event fields. Only the organizer or an admin can update. Optional fields omitted from body are unchanged.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param body body UpdateEventRequest true "Fields to update (all optional)"
// @Success 200 {object} controllers.EventSuccessResponse "data contains the updated event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not organizer)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [patch]
func (c *EventController) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	var req UpdateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	callerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	role := middleware.RoleFromContext(r.Context())
	patch := domain.EventPatch{
		Title:                      req.Title,
		Description:                req.Description,
		Image:                      req.Image,
		Date:                       req.Date,
		Time:                       req.Time,
		Location:                   req.Location,
		Coordinates:                req.Coordinates,
		MaxAttendees:               req.MaxAttendees,
		Price:                      req.Price,
		Currency:                   req.Currency,
		HideAddressUntilRegistered: req.HideAddressUntilRegistered,
		RequireManualApproval:      req.RequireManualApproval,
	}
	if req.Category != nil {
		category := domain.EventCategory(*req.Category)
		patch.Category = &category
	}
	event, err := c.Service.UpdateEvent(r.Context(), eventID, callerID, role, patch)
	if err != nil {
		c.handleError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// CancelEvent godoc
// @Summary Cancel an event
// @Description Marks the event cancelled and notifies active participants. Only the organizer or an admin can cancel. Cancelling twice is a no-op.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} controllers.EventSuccessResponse "data contains the cancelled event"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not organizer)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/cancel [post]
func (c *EventController) CancelEvent(w http.ResponseWriter, r *http.Request) {
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
	role := middleware.RoleFromContext(r.Context())
	event, err := c.Service.CancelEvent(r.Context(), eventID, callerID, role)
	if err != nil {
		c.handleError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// DeleteEvent godoc
// @Summary Delete an event
// @Description Permanently deletes an event. Only the organizer or an admin can delete.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} controllers.StatusSuccessResponse "data contains status"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not organizer)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [delete]
func (c *EventController) DeleteEvent(w http.ResponseWriter, r *http.Request) {
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
	role := middleware.RoleFromContext(r.Context())
	if err := c.Service.DeleteEvent(r.Context(), eventID, callerID, role); err != nil {
		c.handleError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, StatusResponse{Status: "deleted"})
}

// AttendeesCount godoc
// @Summary Count confirmed attendees
// @Description Returns the number of confirmed participants for the event.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} controllers.CountSuccessResponse "data contains count"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/attendees/count [get]
func (c *EventController) AttendeesCount(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	count, err := c.Service.AttendeesCount(r.Context(), eventID)
	if err != nil {
		c.handleError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, CountResponse{Count: count})
}

// AvailableSpots godoc
// @Summary Count remaining spots
// @Description Returns how many seats remain before the event reaches capacity.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} controllers.CountSuccessResponse "data contains count"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/spots [get]
func (c *EventController) AvailableSpots(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	spots, err := c.Service.AvailableSpots(r.Context(), eventID)
	if err != nil {
		c.handleError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, CountResponse{Count: spots})
}
