package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"socialevents/internal/delivery/http/controllers"
	"socialevents/internal/delivery/http/helpers"
	"socialevents/internal/delivery/http/middleware"
	"socialevents/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes. Every
// route except health and swagger requires a Bearer token.
func NewRouter(
	verifier domain.TokenVerifier,
	events *controllers.EventController,
	participations *controllers.ParticipationController,
	groups *controllers.GroupController,
	messages *controllers.MessageController,
	notifications *controllers.NotificationController,
) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier)

	// Events
	mux.HandleFunc("POST /events", auth(events.CreateEvent))
	mux.HandleFunc("GET /events", auth(events.ListEvents))
	mux.HandleFunc("GET /events/me", auth(events.ListMyEvents))
	mux.HandleFunc("GET /events/trending", auth(events.ListTrendingEvents))
	mux.HandleFunc("GET /events/calendar", auth(events.ListEventsForDate))
	mux.HandleFunc("GET /events/{eventID}", auth(events.GetEvent))
	mux.HandleFunc("PATCH /events/{eventID}", auth(events.UpdateEvent))
	mux.HandleFunc("DELETE /events/{eventID}", auth(events.DeleteEvent))
	mux.HandleFunc("POST /events/{eventID}/cancel", auth(events.CancelEvent))
	mux.HandleFunc("GET /events/{eventID}/attendees/count", auth(events.AttendeesCount))
	mux.HandleFunc("GET /events/{eventID}/spots", auth(events.AvailableSpots))

	// Participations
	mux.HandleFunc("POST /events/{eventID}/participations", auth(participations.Register))
	mux.HandleFunc("GET /events/{eventID}/participations", auth(participations.ListParticipations))
	mux.HandleFunc("GET /events/{eventID}/participations/pending", auth(participations.ListPendingApprovals))
	mux.HandleFunc("DELETE /events/{eventID}/participations/me", auth(participations.CancelRegistration))
	mux.HandleFunc("DELETE /events/{eventID}/participations/{userID}", auth(participations.RemoveParticipant))
	mux.HandleFunc("POST /events/{eventID}/participations/{userID}/approve", auth(participations.ApproveParticipant))
	mux.HandleFunc("POST /events/{eventID}/participations/{userID}/reject", auth(participations.RejectParticipant))
	mux.HandleFunc("GET /users/me/participations", auth(participations.ListMyParticipations))

	// Favorites
	mux.HandleFunc("GET /users/me/favorites", auth(participations.ListFavorites))
	mux.HandleFunc("GET /users/me/favorites/{eventID}", auth(participations.IsFavorite))
	mux.HandleFunc("POST /users/me/favorites/{eventID}", auth(participations.AddFavorite))
	mux.HandleFunc("DELETE /users/me/favorites/{eventID}", auth(participations.RemoveFavorite))

	// Groups
	mux.HandleFunc("POST /groups", auth(groups.CreateGroup))
	mux.HandleFunc("GET /groups/me", auth(groups.ListMyGroups))
	mux.HandleFunc("GET /groups/{groupID}", auth(groups.GetGroup))
	mux.HandleFunc("PATCH /groups/{groupID}", auth(groups.UpdateGroup))
	mux.HandleFunc("DELETE /groups/{groupID}", auth(groups.DeleteGroup))
	mux.HandleFunc("POST /groups/{groupID}/join", auth(groups.JoinGroup))
	mux.HandleFunc("POST /groups/{groupID}/leave", auth(groups.LeaveGroup))
	mux.HandleFunc("POST /groups/{groupID}/mute", auth(groups.MuteGroup))
	mux.HandleFunc("POST /groups/{groupID}/unmute", auth(groups.UnmuteGroup))
	mux.HandleFunc("GET /groups/{groupID}/members", auth(groups.ListMembers))
	mux.HandleFunc("POST /groups/{groupID}/members", auth(groups.AddMember))
	mux.HandleFunc("DELETE /groups/{groupID}/members/{userID}", auth(groups.RemoveMember))
	mux.HandleFunc("POST /groups/{groupID}/members/{userID}/kick", auth(groups.KickMember))
	mux.HandleFunc("POST /groups/{groupID}/members/{userID}/promote", auth(groups.PromoteToAdmin))
	mux.HandleFunc("GET /groups/{groupID}/messages", auth(messages.ListGroupMessages))

	// Conversations and messages
	mux.HandleFunc("POST /conversations", auth(messages.StartConversation))
	mux.HandleFunc("GET /conversations", auth(messages.ListMyConversations))
	mux.HandleFunc("GET /conversations/with/{userID}", auth(messages.ConversationWithUser))
	mux.HandleFunc("GET /conversations/{conversationID}", auth(messages.GetConversation))
	mux.HandleFunc("DELETE /conversations/{conversationID}", auth(messages.DeleteConversation))
	mux.HandleFunc("GET /conversations/{conversationID}/messages", auth(messages.ListConversationMessages))
	mux.HandleFunc("POST /messages", auth(messages.SendMessage))
	mux.HandleFunc("POST /messages/read", auth(messages.MarkAsRead))
	mux.HandleFunc("GET /messages/last", auth(messages.LastMessage))
	mux.HandleFunc("GET /messages/unread/count", auth(messages.UnreadCount))
	mux.HandleFunc("PATCH /messages/{messageID}", auth(messages.EditMessage))
	mux.HandleFunc("DELETE /messages/{messageID}", auth(messages.DeleteMessage))

	// Notifications
	mux.HandleFunc("GET /notifications", auth(notifications.ListMyNotifications))
	mux.HandleFunc("GET /notifications/unread/count", auth(notifications.UnreadCount))
	mux.HandleFunc("POST /notifications/read-all", auth(notifications.MarkAllAsRead))
	mux.HandleFunc("POST /notifications/{notificationID}/read", auth(notifications.MarkAsRead))
	mux.HandleFunc("DELETE /notifications/{notificationID}", auth(notifications.DeleteNotification))

	// Health
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
