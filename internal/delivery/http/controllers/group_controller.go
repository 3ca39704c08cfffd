package controllers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"socialevents/internal/delivery/http/helpers"
	"socialevents/internal/delivery/http/middleware"
	"socialevents/internal/domain"
)

// CreateGroupRequest is the request body for POST /groups. MemberIDs are
// seeded as plain members; the creator always becomes the admin.
type CreateGroupRequest struct {
	Name        string   `json:"name"`
	Image       *string  `json:"image"`
	Description *string  `json:"description"`
	EventID     *string  `json:"event_id"`
	MemberIDs   []string `json:"member_ids"`
}

// Validate implements Validator.
func (c CreateGroupRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, "name is required")
	}
	return errs
}

// GroupSuccessResponse is the success response envelope for endpoints
// returning a single group.
type GroupSuccessResponse struct {
	Data  *domain.Group     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// GroupListSuccessResponse is the success response envelope for endpoints
// returning an array of groups.
type GroupListSuccessResponse struct {
	Data  []*domain.Group   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// GroupMemberSuccessResponse is the success response envelope for endpoints
// returning a single membership record.
type GroupMemberSuccessResponse struct {
	Data  *domain.GroupMember `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

// GroupMemberListSuccessResponse is the success response envelope for
// endpoints returning an array of membership records.
type GroupMemberListSuccessResponse struct {
	Data  []*domain.GroupMember `json:"data"`
	Error *helpers.APIError     `json:"error"`
}

type GroupController struct {
	Logger  *slog.Logger
	Service domain.GroupService
}

func NewGroupController(logger *slog.Logger, svc domain.GroupService) *GroupController {
	return &GroupController{
		Logger:  logger,
		Service: svc,
	}
}

func (c *GroupController) handleError(w http.ResponseWriter, r *http.Request, err error) {
	if !helpers.KnownDomainError(err) {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
	}
	helpers.WriteDomainError(w, err)
}

// CreateGroup godoc
// @Summary Create a group
// @Description Creates a chat group with the authenticated user as its admin. Listed member IDs join as plain members.
// @Tags groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateGroupRequest true "Group data"
// @Success 201 {object} controllers.GroupSuccessResponse "data contains the created group"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /groups [post]
func (c *GroupController) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req CreateGroupRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	creatorID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	group, err := c.Service.CreateGroup(r.Context(), creatorID, domain.CreateGroupInput{
		Name:        req.Name,
		Image:       req.Image,
		Description: req.Description,
		EventID:     req.EventID,
		MemberIDs:   req.MemberIDs,
	})
	if err != nil {
		c.handleError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, group)
}

// GetGroup godoc
// @Summary Get a group by ID
// @Tags groups
// @Produce json
// @Security BearerAuth
// @Param groupID path string true "Group ID"
// @Success 200 {object} controllers.GroupSuccessResponse "data contains the group"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /groups/{groupID} [get]
func (c *GroupController) GetGroup(w http.ResponseWriter, r *http.Request) {
	groupID := r.PathValue("groupID")
	if groupID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing groupID")
		return
	}
	group, err := c.Service.GetGroup(r.Context(), groupID)
	if err != nil {
		c.handleError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, group)
}

// ListMyGroups godoc
// @Summary List groups the current user belongs to
// @Description Returns groups where the authenticated user is an active member, most recently active first. Kicked memberships are excluded.
// @Tags groups
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.GroupListSuccessResponse "data is an array of groups"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /groups/me [get]
func (c *GroupController) ListMyGroups(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	groups, err := c.Service.ListUserGroups(r.Context(), userID)
	if err != nil {
		c.handleError(w, r, err)
		return
	}
	if groups == nil {
		groups = []*domain.Group{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, groups)
}

// UpdateGroupRequest is the request body for PATCH /groups/{groupID}. All
// fields optional; omitted fields are unchanged.
type UpdateGroupRequest struct {
	Name        *string `json:"name"`
	Image       *string `json:"image"`
	Description *string `json:"description"`
}

// Validate implements Validator.
func (u UpdateGroupRequest) Validate() []string {
	var errs []string
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		errs = append(errs, "name cannot be empty")
	}
	return errs
}

// UpdateGroup godoc
// @Summary Update group details
// @Description Updates group name, image, and description. Only a group admin can update.
// @Tags groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param groupID path string true "Group ID"
// @Param body body UpdateGroupRequest true "Fields to update (all optional)"
// @Success 200 {object} controllers.GroupSuccessResponse "data contains the updated group"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not admin)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /groups/{groupID} [patch]
func (c *GroupController) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	groupID := r.PathValue("groupID")
	if groupID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing groupID")
		return
	}
	var req UpdateGroupRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	callerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	group, err := c.Service.UpdateGroup(r.Context(), groupID, callerID, domain.GroupPatch{
		Name:        req.Name,
		Image:       req.Image,
		Description: req.Description,
	})
	if err != nil {
		c.handleError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, group)
}

// DeleteGroup godoc
// @Summary Delete a group
// @Description Deletes a group and its memberships. Only a group admin can delete.
// @Tags groups
// @Produce json
// @Security BearerAuth
// @Param groupID path string true "Group ID"
// @Success 200 {object} controllers.StatusSuccessResponse "data contains status"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not admin)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /groups/{groupID} [delete]
func (c *GroupController) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	groupID := r.PathValue("groupID")
	if groupID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing groupID")
		return
	}
	callerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.DeleteGroup(r.Context(), groupID, callerID); err != nil {
		c.handleError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, StatusResponse{Status: "deleted"})
}

// JoinGroup godoc
// @Summary Join a group
// @Description Joins the authenticated user to the group as a plain member. A kicked user rejoining is refused; re-admission goes through an admin.
// @Tags groups
// @Produce json
// @Security BearerAuth
// @Param groupID path string true "Group ID"
// @Success 201 {object} controllers.GroupMemberSuccessResponse "data contains the membership"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already a member)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /groups/{groupID}/join [post]
func (c *GroupController) JoinGroup(w http.ResponseWriter, r *http.Request) {
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
	member, err := c.Service.JoinGroup(r.Context(), groupID, userID)
	if err != nil {
		c.handleError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, member)
}

// LeaveGroup godoc
// @Summary Leave a group
// @Description Removes the authenticated user's membership record. A later join starts fresh.
// @Tags groups
// @Produce json
// @Security BearerAuth
// @Param groupID path string true "Group ID"
// @Success 200 {object} controllers.StatusSuccessResponse "data contains status"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (not a member)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /groups/{groupID}/leave [post]
func (c *GroupController) LeaveGroup(w http.ResponseWriter, r *http.Request) {
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
	if err := c.Service.LeaveGroup(r.Context(), groupID, userID); err != nil {
		c.handleError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, StatusResponse{Status: "left"})
}

// AddMemberRequest is the request body for POST /groups/{groupID}/members.
type AddMemberRequest struct {
	UserID string `json:"user_id"`
}

// Validate implements Validator.
func (a AddMemberRequest) Validate() []string {
	if strings.TrimSpace(a.UserID) == "" {
		return []string{"user_id is required"}
	}
	return nil
}

// AddMember godoc
// @Summary Add a member to a group
// @Description Adds a user as a plain member. Only a group admin can add. Adding a previously kicked user reinstates the same membership record with the kick cleared.
// @Tags groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param groupID path string true "Group ID"
// @Param body body AddMemberRequest true "User to add"
// @Success 201 {object} controllers.GroupMemberSuccessResponse "data contains the membership"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not admin)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already a member)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /groups/{groupID}/members [post]
func (c *GroupController) AddMember(w http.ResponseWriter, r *http.Request) {
	groupID := r.PathValue("groupID")
	if groupID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing groupID")
		return
	}
	var req AddMemberRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	callerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	member, err := c.Service.AddMember(r.Context(), groupID, req.UserID, callerID)
	if err != nil {
		c.handleError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, member)
}

// RemoveMember godoc
// @Summary Remove a member from a group
// @Description Deletes the member's record entirely, so a later join starts fresh. Only a group admin can remove.
// @Tags groups
// @Produce json
// @Security BearerAuth
// @Param groupID path string true "Group ID"
// @Param userID path string true "User ID of the member"
// @Success 200 {object} controllers.StatusSuccessResponse "data contains status"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not admin)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /groups/{groupID}/members/{userID} [delete]
func (c *GroupController) RemoveMember(w http.ResponseWriter, r *http.Request) {
	groupID := r.PathValue("groupID")
	userID := r.PathValue("userID")
	if groupID == "" || userID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing groupID or userID")
		return
	}
	callerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.RemoveMember(r.Context(), groupID, userID, callerID); err != nil {
		c.handleError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, StatusResponse{Status: "removed"})
}

// KickMember godoc
// @Summary Kick a member
// @Description Disables the member's record without deleting it. The kicked user cannot rejoin on their own; an admin re-adding them reinstates the same record. Admins cannot kick themselves.
// @Tags groups
// @Produce json
// @Security BearerAuth
// @Param groupID path string true "Group ID"
// @Param userID path string true "User ID of the member"
// @Success 200 {object} controllers.GroupMemberSuccessResponse "data contains the kicked membership"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (self-kick)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not admin)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /groups/{groupID}/members/{userID}/kick [post]
func (c *GroupController) KickMember(w http.ResponseWriter, r *http.Request) {
	groupID := r.PathValue("groupID")
	userID := r.PathValue("userID")
	if groupID == "" || userID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing groupID or userID")
		return
	}
	callerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	member, err := c.Service.KickMember(r.Context(), groupID, userID, callerID)
	if err != nil {
		c.handleError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, member)
}

// PromoteToAdmin godoc
// @Summary Promote a member to admin
// @Description Grants the member the admin role. Only a group admin can promote.
// @Tags groups
// @Produce json
// @Security BearerAuth
// @Param groupID path string true "Group ID"
// @Param userID path string true "User ID of the member"
// @Success 200 {object} controllers.GroupMemberSuccessResponse "data contains the promoted membership"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not admin)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /groups/{groupID}/members/{userID}/promote [post]
func (c *GroupController) PromoteToAdmin(w http.ResponseWriter, r *http.Request) {
	groupID := r.PathValue("groupID")
	userID := r.PathValue("userID")
	if groupID == "" || userID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing groupID or userID")
		return
	}
	callerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	member, err := c.Service.PromoteToAdmin(r.Context(), groupID, userID, callerID)
	if err != nil {
		c.handleError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, member)
}

// MuteGroupRequest is the request body for POST /groups/{groupID}/mute. A nil
// until mutes indefinitely.
type MuteGroupRequest struct {
	Until *time.Time `json:"until"`
}

// Validate implements Validator.
func (m MuteGroupRequest) Validate() []string {
	if m.Until != nil && m.Until.Before(time.Now()) {
		return []string{"until must be in the future"}
	}
	return nil
}

// MuteGroup godoc
// @Summary Mute a group
// @Description Mutes group notifications for the authenticated member until the given time, or indefinitely when until is omitted.
// @Tags groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param groupID path string true "Group ID"
// @Param body body MuteGroupRequest true "Optional mute horizon"
// @Success 200 {object} controllers.GroupMemberSuccessResponse "data contains the muted membership"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (not a member)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /groups/{groupID}/mute [post]
func (c *GroupController) MuteGroup(w http.ResponseWriter, r *http.Request) {
	groupID := r.PathValue("groupID")
	if groupID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing groupID")
		return
	}
	var req MuteGroupRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	member, err := c.Service.MuteGroup(r.Context(), groupID, userID, req.Until)
	if err != nil {
		c.handleError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, member)
}

// UnmuteGroup godoc
// @Summary Unmute a group
// @Description Clears the authenticated member's mute for the group.
// @Tags groups
// @Produce json
// @Security BearerAuth
// @Param groupID path string true "Group ID"
// @Success 200 {object} controllers.GroupMemberSuccessResponse "data contains the unmuted membership"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (not a member)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /groups/{groupID}/unmute [post]
func (c *GroupController) UnmuteGroup(w http.ResponseWriter, r *http.Request) {
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
	member, err := c.Service.UnmuteGroup(r.Context(), groupID, userID)
	if err != nil {
		c.handleError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, member)
}

// ListMembers godoc
// @Summary List active members of a group
// @Description Returns active membership records ordered by join time. Kicked members are excluded.
// @Tags groups
// @Produce json
// @Security BearerAuth
// @Param groupID path string true "Group ID"
// @Success 200 {object} controllers.GroupMemberListSuccessResponse "data is an array of memberships"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /groups/{groupID}/members [get]
func (c *GroupController) ListMembers(w http.ResponseWriter, r *http.Request) {
	groupID := r.PathValue("groupID")
	if groupID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing groupID")
		return
	}
	members, err := c.Service.ListMembers(r.Context(), groupID)
	if err != nil {
		c.handleError(w, r, err)
		return
	}
	if members == nil {
		members = []*domain.GroupMember{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, members)
}
