package domain

import (
	"context"
	"time"
)

// MessageType classifies message content.
type MessageType string

const (
	MessageTypeText   MessageType = "TEXT"
	MessageTypeImage  MessageType = "IMAGE"
	MessageTypeSystem MessageType = "SYSTEM"
)

// Conversation is a direct thread between exactly two users. At most one
// conversation exists per unordered pair.
// swagger:model Conversation
type Conversation struct {
	ID             string    `json:"id"`
	ParticipantIDs []string  `json:"participant_ids"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// HasParticipant reports whether userID is one of the two participants.
func (c *Conversation) HasParticipant(userID string) bool {
	for _, id := range c.ParticipantIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Message belongs to exactly one of a conversation or a group. Deletion is a
// soft tombstone: the record stays for ordering and audit but is excluded
// from listings.
// swagger:model Message
type Message struct {
	ID             string      `json:"id"`
	Content        string      `json:"content"`
	Type           MessageType `json:"type"`
	SenderID       string      `json:"sender_id"`
	ConversationID *string     `json:"conversation_id,omitempty"`
	GroupID        *string     `json:"group_id,omitempty"`
	IsRead         bool        `json:"is_read"`
	ReadAt         *time.Time  `json:"read_at,omitempty"`
	IsEdited       bool        `json:"is_edited"`
	EditedAt       *time.Time  `json:"edited_at,omitempty"`
	IsDeleted      bool        `json:"is_deleted"`
	DeletedAt      *time.Time  `json:"deleted_at,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}

// MessagePage is one page of a message listing, newest first.
type MessagePage struct {
	Items      []*Message `json:"items"`
	TotalCount int        `json:"total_count"`
	HasMore    bool       `json:"has_more"`
}

// ConversationRepository defines storage for conversations. GetByParticipants
// treats the pair as unordered.
type ConversationRepository interface {
	Create(ctx context.Context, conv *Conversation) error
	GetByID(ctx context.Context, id string) (*Conversation, error)
	GetByParticipants(ctx context.Context, userID, otherUserID string) (*Conversation, error)
	ListByUser(ctx context.Context, userID string) ([]*Conversation, error)
	Delete(ctx context.Context, id string) error
	Touch(ctx context.Context, id string, at time.Time) error
}

// MessageRepository defines storage for messages. List methods exclude
// tombstoned messages and order newest first; GetByID returns tombstones too.
type MessageRepository interface {
	Create(ctx context.Context, msg *Message) error
	GetByID(ctx context.Context, id string) (*Message, error)
	Update(ctx context.Context, msg *Message) error
	ListByConversation(ctx context.Context, conversationID string, params PaginationParams) ([]*Message, int, error)
	ListByGroup(ctx context.Context, groupID string, params PaginationParams) ([]*Message, int, error)
	LastByConversation(ctx context.Context, conversationID string) (*Message, error)
	LastByGroup(ctx context.Context, groupID string) (*Message, error)
	MarkConversationRead(ctx context.Context, conversationID, readerID string, at time.Time) error
	MarkGroupRead(ctx context.Context, groupID, readerID string, at time.Time) error
	CountUnreadByConversation(ctx context.Context, conversationID, readerID string) (int, error)
	CountUnreadByGroup(ctx context.Context, groupID, readerID string) (int, error)
}

// SendMessageInput carries the fields for sending a message. Exactly one of
// ConversationID and GroupID must be set.
type SendMessageInput struct {
	Content        string
	Type           MessageType
	SenderID       string
	ConversationID *string
	GroupID        *string
}

// MessageService is the conversation and messaging engine.
type MessageService interface {
	StartConversation(ctx context.Context, userID, otherUserID string) (*Conversation, error)
	GetConversation(ctx context.Context, conversationID, callerID string) (*Conversation, error)
	ConversationWithUser(ctx context.Context, userID, otherUserID string) (*Conversation, error)
	ListUserConversations(ctx context.Context, userID string) ([]*Conversation, error)
	DeleteConversation(ctx context.Context, conversationID, callerID string) error
	SendMessage(ctx context.Context, input SendMessageInput) (*Message, error)
	EditMessage(ctx context.Context, messageID, callerID, content string) (*Message, error)
	DeleteMessage(ctx context.Context, messageID, callerID string) (bool, error)
	GetMessage(ctx context.Context, messageID string) (*Message, error)
	MarkAsRead(ctx context.Context, conversationID, groupID *string, readerID string) error
	ListConversationMessages(ctx context.Context, conversationID, callerID string, params PaginationParams) (*MessagePage, error)
	ListGroupMessages(ctx context.Context, groupID, callerID string, params PaginationParams) (*MessagePage, error)
	LastMessage(ctx context.Context, conversationID, groupID *string) (*Message, error)
	UnreadCount(ctx context.Context, conversationID, groupID *string, userID string) (int, error)
}
