package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"socialevents/internal/delivery/http/helpers"
	"socialevents/internal/delivery/http/middleware"
	"socialevents/internal/domain"
)

// validMessageTypes is the closed set accepted in send requests.
var validMessageTypes = map[domain.MessageType]struct{}{
	domain.MessageTypeText:   {},
	domain.MessageTypeImage:  {},
	domain.MessageTypeSystem: {},
}

// ConversationSuccessResponse is the success response envelope for endpoints
// returning a single conversation.
type ConversationSuccessResponse struct {
	Data  *domain.Conversation `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

// ConversationListSuccessResponse is the success response envelope for
// endpoints returning an array of conversations.
type ConversationListSuccessResponse struct {
	Data  []*domain.Conversation `json:"data"`
	Error *helpers.APIError      `json:"error"`
}

// MessageSuccessResponse is the success response envelope for endpoints
// returning a single message.
type MessageSuccessResponse struct {
	Data  *domain.Message   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// MessagePageSuccessResponse is the success response envelope for message
// listing endpoints.
type MessagePageSuccessResponse struct {
	Data  *domain.MessagePage `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

type MessageController struct {
	Logger  *slog.Logger
	Service domain.MessageService
}

func NewMessageController(logger *slog.Logger, svc domain.MessageService) *MessageController {
	return &MessageController{
		Logger:  logger,
		Service: svc,
	}
}

func (c *MessageController) handleError(w http.ResponseWriter, r *http.Request, err error) {
	if !helpers.KnownDomainError(err) {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
	}
	helpers.WriteDomainError(w, err)
}

// StartConversationRequest is the request body for POST /conversations.
type StartConversationRequest struct {
	UserID string `json:"user_id"`
}

// Validate implements Validator.
func (s StartConversationRequest) Validate() []string {
	if strings.TrimSpace(s.UserID) == "" {
		return []string{"user_id is required"}
	}
	return nil
}

// StartConversation godoc
// @Summary Start a direct conversation
// @Description Returns the conversation between the authenticated user and the given user, creating it when none exists. At most one conversation exists per pair.
// @Tags conversations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body StartConversationRequest true "The other participant"
// @Success 200 {object} controllers.ConversationSuccessResponse "data contains the conversation"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (self or empty pair)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /conversations [post]
func (c *MessageController) StartConversation(w http.ResponseWriter, r *http.Request) {
	var req StartConversationRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	conv, err := c.Service.StartConversation(r.Context(), userID, req.UserID)
	if err != nil {
		c.handleError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, conv)
}

// GetConversation godoc
// @Summary Get a conversation by ID
// @Description Returns the conversation. Only a participant can read it.
// @Tags conversations
// @Produce json
// @Security BearerAuth
// @Param conversationID path string true "Conversation ID"
// @Success 200 {object} controllers.ConversationSuccessResponse "data contains the conversation"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not a participant)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /conversations/{conversationID} [get]
func (c *MessageController) GetConversation(w http.ResponseWriter, r *http.Request) {
	conversationID := r.PathValue("conversationID")
	if conversationID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing conversationID")
		return
	}
	callerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	conv, err := c.Service.GetConversation(r.Context(), conversationID, callerID)
	if err != nil {
		c.handleError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, conv)
}

// ConversationWithUser godoc
// @Summary Find the conversation with a specific user
// @Description Returns the existing conversation between the authenticated user and the given user, without creating one.
// @Tags conversations
// @Produce json
// @Security BearerAuth
// @Param userID path string true "The other participant"
// @Success 200 {object} controllers.ConversationSuccessResponse "data contains the conversation"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /conversations/with/{userID} [get]
func (c *MessageController) ConversationWithUser(w http.ResponseWriter, r *http.Request) {
	otherID := r.PathValue("userID")
	if otherID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing userID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	conv, err := c.Service.ConversationWithUser(r.Context(), userID, otherID)
	if err != nil {
		c.handleError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, conv)
}

// ListMyConversations godoc
// @Summary List the current user's conversations
// @Description Returns conversations the authenticated user participates in, most recently active first.
// @Tags conversations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.ConversationListSuccessResponse "data is an array of conversations"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /conversations [get]
func (c *MessageController) ListMyConversations(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	convs, err := c.Service.ListUserConversations(r.Context(), userID)
	if err != nil {
		c.handleError(w, r, err)
		return
	}
	if convs == nil {
		convs = []*domain.Conversation{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, convs)
}

// DeleteConversation godoc
// @Summary Delete a conversation
// @Description Deletes the conversation. Only a participant can delete it.
// @Tags conversations
// @Produce json
// @Security BearerAuth
// @Param conversationID path string true "Conversation ID"
// @Success 200 {object} controllers.StatusSuccessResponse "data contains status"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not a participant)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /conversations/{conversationID} [delete]
func (c *MessageController) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	conversationID := r.PathValue("conversationID")
	if conversationID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing conversationID")
		return
	}
	callerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.DeleteConversation(r.Context(), conversationID, callerID); err != nil {
		c.handleError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, StatusResponse{Status: "deleted"})
}

// SendMessageRequest is the request body for POST /messages. Exactly one of
// ConversationID and GroupID must be set.
type SendMessageRequest struct {
	Content        string  `json:"content"`
	Type           string  `json:"type"`
	ConversationID *string `json:"conversation_id"`
	GroupID        *string `json:"group_id"`
}

// Validate implements Validator.
func (s SendMessageRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(s.Content) == "" {
		errs = append(errs, "content is required")
	}
	if (s.ConversationID == nil) == (s.GroupID == nil) {
		errs = append(errs, "exactly one of conversation_id and group_id is required")
	}
	if s.Type != "" {
		if _, ok := validMessageTypes[domain.MessageType(s.Type)]; !ok {
			errs = append(errs, "type is not a known message type")
		}
	}
	return errs
}

// SendMessage godoc
// @Summary Send a message
// @Description Sends a message to a conversation or a group. The sender must be a conversation participant or an active group member. Other recipients are notified.
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body SendMessageRequest true "Message content and destination"
// @Success 201 {object} controllers.MessageSuccessResponse "data contains the message"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not a participant or member)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /messages [post]
func (c *MessageController) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	senderID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	msg, err := c.Service.SendMessage(r.Context(), domain.SendMessageInput{
		Content:        req.Content,
		Type:           domain.MessageType(req.Type),
		SenderID:       senderID,
		ConversationID: req.ConversationID,
		GroupID:        req.GroupID,
	})
	if err != nil {
		c.handleError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, msg)
}

// EditMessageRequest is the request body for PATCH /messages/{messageID}.
type EditMessageRequest struct {
	Content string `json:"content"`
}

// Validate implements Validator.
func (e EditMessageRequest) Validate() []string {
	if strings.TrimSpace(e.Content) == "" {
		return []string{"content is required"}
	}
	return nil
}

// EditMessage godoc
// @Summary Edit a message
// @Description Replaces the message content and marks it edited. Only the sender can edit. Deleted messages cannot be edited.
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param messageID path string true "Message ID"
// @Param body body EditMessageRequest true "New content"
// @Success 200 {object} controllers.MessageSuccessResponse "data contains the edited message"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (deleted message)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not the sender)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /messages/{messageID} [patch]
func (c *MessageController) EditMessage(w http.ResponseWriter, r *http.Request) {
	messageID := r.PathValue("messageID")
	if messageID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing messageID")
		return
	}
	var req EditMessageRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	callerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	msg, err := c.Service.EditMessage(r.Context(), messageID, callerID, req.Content)
	if err != nil {
		c.handleError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, msg)
}

// DeletedResponse is the data payload for DELETE /messages/{messageID}.
type DeletedResponse struct {
	Deleted bool `json:"deleted"`
}

// DeletedSuccessResponse is the success response envelope for
// DeletedResponse payloads.
type DeletedSuccessResponse struct {
	Data  DeletedResponse   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// DeleteMessage godoc
// @Summary Delete a message
// @Description Soft-deletes the message so it drops out of listings but stays readable by ID. Only the sender can delete. Deleting an already deleted or missing message reports the outcome instead of failing.
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param messageID path string true "Message ID"
// @Success 200 {object} controllers.DeletedSuccessResponse "data reports whether the message is deleted"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not the sender)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /messages/{messageID} [delete]
func (c *MessageController) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	messageID := r.PathValue("messageID")
	if messageID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing messageID")
		return
	}
	callerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	deleted, err := c.Service.DeleteMessage(r.Context(), messageID, callerID)
	if err != nil {
		c.handleError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, DeletedResponse{Deleted: deleted})
}

// MarkAsReadRequest is the request body for POST /messages/read. Exactly one
// of ConversationID and GroupID must be set.
type MarkAsReadRequest struct {
	ConversationID *string `json:"conversation_id"`
	GroupID        *string `json:"group_id"`
}

// Validate implements Validator.
func (m MarkAsReadRequest) Validate() []string {
	if (m.ConversationID == nil) == (m.GroupID == nil) {
		return []string{"exactly one of conversation_id and group_id is required"}
	}
	return nil
}

// MarkAsRead godoc
// @Summary Mark a thread as read
// @Description Marks all messages from other senders in the conversation or group as read by the authenticated user.
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body MarkAsReadRequest true "Thread to mark"
// @Success 200 {object} controllers.StatusSuccessResponse "data contains status"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not a participant or member)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /messages/read [post]
func (c *MessageController) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	var req MarkAsReadRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	readerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.MarkAsRead(r.Context(), req.ConversationID, req.GroupID, readerID); err != nil {
		c.handleError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, StatusResponse{Status: "read"})
}

// ListConversationMessages godoc
// @Summary List messages in a conversation
// @Description Returns non-deleted messages newest first, paginated. Only a participant can list.
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param conversationID path string true "Conversation ID"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.MessagePageSuccessResponse "data contains items, total_count, and has_more"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not a participant)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /conversations/{conversationID}/messages [get]
func (c *MessageController) ListConversationMessages(w http.ResponseWriter, r *http.Request) {
	conversationID := r.PathValue("conversationID")
	if conversationID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing conversationID")
		return
	}
	callerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	params := helpers.ParsePagination(r)
	page, err := c.Service.ListConversationMessages(r.Context(), conversationID, callerID, params)
	if err != nil {
		c.handleError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, page)
}

// ListGroupMessages godoc
// @Summary List messages in a group
// @Description Returns non-deleted messages newest first, paginated. Only an active group member can list.
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param groupID path string true "Group ID"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.MessagePageSuccessResponse "data contains items, total_count, and has_more"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not a member)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /groups/{groupID}/messages [get]
func (c *MessageController) ListGroupMessages(w http.ResponseWriter, r *http.Request) {
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
	params := helpers.ParsePagination(r)
	page, err := c.Service.ListGroupMessages(r.Context(), groupID, callerID, params)
	if err != nil {
		c.handleError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, page)
}

// threadRef resolves the conversation_id or group_id query parameter pair.
// Exactly one must be set.
func threadRef(r *http.Request) (conversationID, groupID *string, ok bool) {
	if s := r.URL.Query().Get("conversation_id"); s != "" {
		conversationID = &s
	}
	if s := r.URL.Query().Get("group_id"); s != "" {
		groupID = &s
	}
	return conversationID, groupID, (conversationID == nil) != (groupID == nil)
}

// LastMessage godoc
// @Summary Get the last message of a thread
// @Description Returns the most recent non-deleted message of the conversation or group identified by query parameter.
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param conversation_id query string false "Conversation ID"
// @Param group_id query string false "Group ID"
// @Success 200 {object} controllers.MessageSuccessResponse "data contains the message"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (empty thread)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /messages/last [get]
func (c *MessageController) LastMessage(w http.ResponseWriter, r *http.Request) {
	conversationID, groupID, ok := threadRef(r)
	if !ok {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "exactly one of conversation_id and group_id is required")
		return
	}
	msg, err := c.Service.LastMessage(r.Context(), conversationID, groupID)
	if err != nil {
		c.handleError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, msg)
}

// UnreadCount godoc
// @Summary Count unread messages in a thread
// @Description Returns the number of unread messages from other senders in the conversation or group identified by query parameter.
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param conversation_id query string false "Conversation ID"
// @Param group_id query string false "Group ID"
// @Success 200 {object} controllers.CountSuccessResponse "data contains count"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /messages/unread/count [get]
func (c *MessageController) UnreadCount(w http.ResponseWriter, r *http.Request) {
	conversationID, groupID, ok := threadRef(r)
	if !ok {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "exactly one of conversation_id and group_id is required")
		return
	}
	userID, authed := middleware.UserIDFromContext(r.Context())
	if !authed {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	count, err := c.Service.UnreadCount(r.Context(), conversationID, groupID, userID)
	if err != nil {
		c.handleError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, CountResponse{Count: count})
}
