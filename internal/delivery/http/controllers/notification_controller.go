package controllers

import (
	"log/slog"
	"net/http"

	"socialevents/internal/delivery/http/helpers"
	"socialevents/internal/delivery/http/middleware"
	"socialevents/internal/domain"
)

// NotificationSuccessResponse is the success response envelope for endpoints
// returning a single notification.
type NotificationSuccessResponse struct {
	Data  *domain.Notification `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

// NotificationListResponse is the data payload for GET /notifications.
// A full page suggests more may follow; there is no exact total.
type NotificationListResponse struct {
	Items    []*domain.Notification `json:"items"`
	Page     int                    `json:"page"`
	PageSize int                    `json:"page_size"`
	HasMore  bool                   `json:"has_more"`
}

// NotificationListSuccessResponse is the success response envelope for GET
// /notifications.
type NotificationListSuccessResponse struct {
	Data  NotificationListResponse `json:"data"`
	Error *helpers.APIError        `json:"error"`
}

type NotificationController struct {
	Logger  *slog.Logger
	Service domain.NotificationService
}

func NewNotificationController(logger *slog.Logger, svc domain.NotificationService) *NotificationController {
	return &NotificationController{
		Logger:  logger,
		Service: svc,
	}
}

func (c *NotificationController) handleError(w http.ResponseWriter, r *http.Request, err error) {
	if !helpers.KnownDomainError(err) {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
	}
	helpers.WriteDomainError(w, err)
}

// ListMyNotifications godoc
// @Summary List own notifications
// @Description Returns the authenticated user's notifications newest first, paginated. Pass unread_only=true to restrict to unread ones.
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param unread_only query bool false "Only unread notifications"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.NotificationListSuccessResponse "data contains items and pagination"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /notifications [get]
func (c *NotificationController) ListMyNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	unreadOnly := r.URL.Query().Get("unread_only") == "true"
	params := helpers.ParsePagination(r)
	items, err := c.Service.ListUserNotifications(r.Context(), userID, unreadOnly, params)
	if err != nil {
		c.handleError(w, r, err)
		return
	}
	if items == nil {
		items = []*domain.Notification{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, NotificationListResponse{
		Items:    items,
		Page:     params.Page,
		PageSize: params.PageSize,
		HasMore:  len(items) == params.PageSize,
	})
}

// UnreadCount godoc
// @Summary Count unread notifications
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.CountSuccessResponse "data contains count"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /notifications/unread/count [get]
func (c *NotificationController) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	count, err := c.Service.UnreadCount(r.Context(), userID)
	if err != nil {
		c.handleError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, CountResponse{Count: count})
}

// MarkAsRead godoc
// @Summary Mark a notification as read
// @Description Marks the notification as read. Only the recipient can mark it. Marking an already read notification keeps its original read time.
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param notificationID path string true "Notification ID"
// @Success 200 {object} controllers.NotificationSuccessResponse "data contains the notification"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not the recipient)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /notifications/{notificationID}/read [post]
func (c *NotificationController) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	notificationID := r.PathValue("notificationID")
	if notificationID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing notificationID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	n, err := c.Service.MarkAsRead(r.Context(), notificationID, userID)
	if err != nil {
		c.handleError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, n)
}

// MarkAllAsRead godoc
// @Summary Mark all notifications as read
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.StatusSuccessResponse "data contains status"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /notifications/read-all [post]
func (c *NotificationController) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.MarkAllAsRead(r.Context(), userID); err != nil {
		c.handleError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, StatusResponse{Status: "read"})
}

// DeleteNotification godoc
// @Summary Delete a notification
// @Description Deletes the notification. Only the recipient can delete it. Deleting a missing notification reports the outcome instead of failing.
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param notificationID path string true "Notification ID"
// @Success 200 {object} controllers.DeletedSuccessResponse "data reports whether the notification is deleted"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not the recipient)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /notifications/{notificationID} [delete]
func (c *NotificationController) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	notificationID := r.PathValue("notificationID")
	if notificationID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing notificationID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	deleted, err := c.Service.DeleteNotification(r.Context(), notificationID, userID)
	if err != nil {
		c.handleError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, DeletedResponse{Deleted: deleted})
}
