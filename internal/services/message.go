package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"socialevents/internal/domain"
)

type messageService struct {
	// mu serializes StartConversation so two concurrent starts for the same
	// pair cannot both pass the existence check.
	mu sync.Mutex

	conversationRepo domain.ConversationRepository
	messageRepo      domain.MessageRepository
	groupRepo        domain.GroupRepository
	memberRepo       domain.GroupMemberRepository
	userRepo         domain.UserRepository
	sink             domain.NotificationSink
	logger           *slog.Logger
	contextTimeout   time.Duration
}

// NewMessageService creates the conversation and messaging engine.
func NewMessageService(
	conversationRepo domain.ConversationRepository,
	messageRepo domain.MessageRepository,
	groupRepo domain.GroupRepository,
	memberRepo domain.GroupMemberRepository,
	userRepo domain.UserRepository,
	sink domain.NotificationSink,
	logger *slog.Logger,
	timeout time.Duration,
) domain.MessageService {
	return &messageService{
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		groupRepo:        groupRepo,
		memberRepo:       memberRepo,
		userRepo:         userRepo,
		sink:             sink,
		logger:           logger,
		contextTimeout:   timeout,
	}
}

// StartConversation returns the existing conversation for the pair when one
// exists, otherwise creates it. Starting a conversation with oneself is
// rejected.
func (s *messageService) StartConversation(ctx context.Context, userID, otherUserID string) (*domain.Conversation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if userID == "" || otherUserID == "" || userID == otherUserID {
		return nil, domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.conversationRepo.GetByParticipants(ctx, userID, otherUserID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get conversation: %w", err)
	}

	now := time.Now()
	conv := &domain.Conversation{
		ParticipantIDs: []string{userID, otherUserID},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.conversationRepo.Create(ctx, conv); err != nil {
		// Lost a race with another creator: surface the winner's record.
		if again, getErr := s.conversationRepo.GetByParticipants(ctx, userID, otherUserID); getErr == nil {
			return again, nil
		}
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return conv, nil
}

func (s *messageService) GetConversation(ctx context.Context, conversationID, callerID string) (*domain.Conversation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.conversationForParticipant(ctx, conversationID, callerID)
}

func (s *messageService) ConversationWithUser(ctx context.Context, userID, otherUserID string) (*domain.Conversation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	conv, err := s.conversationRepo.GetByParticipants(ctx, userID, otherUserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return conv, nil
}

func (s *messageService) ListUserConversations(ctx context.Context, userID string) ([]*domain.Conversation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	convs, err := s.conversationRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	if convs == nil {
		convs = []*domain.Conversation{}
	}
	return convs, nil
}

func (s *messageService) DeleteConversation(ctx context.Context, conversationID, callerID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.conversationForParticipant(ctx, conversationID, callerID); err != nil {
		return err
	}
	if err := s.conversationRepo.Delete(ctx, conversationID); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return nil
}

func (s *messageService) SendMessage(ctx context.Context, input domain.SendMessageInput) (*domain.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if input.Content == "" || input.SenderID == "" {
		return nil, domain.ErrInvalidInput
	}
	if (input.ConversationID == nil) == (input.GroupID == nil) {
		return nil, domain.ErrInvalidInput
	}
	msgType := input.Type
	if msgType == "" {
		msgType = domain.MessageTypeText
	}

	var conv *domain.Conversation
	if input.ConversationID != nil {
		var err error
		conv, err = s.conversationForParticipant(ctx, *input.ConversationID, input.SenderID)
		if err != nil {
			return nil, err
		}
	} else {
		if err := s.requireActiveMember(ctx, *input.GroupID, input.SenderID); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	msg := &domain.Message{
		Content:        input.Content,
		Type:           msgType,
		SenderID:       input.SenderID,
		ConversationID: input.ConversationID,
		GroupID:        input.GroupID,
		CreatedAt:      now,
	}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	if conv != nil {
		if err := s.conversationRepo.Touch(ctx, conv.ID, now); err != nil {
			s.logger.Warn("conversation touch failed", "conversation_id", conv.ID, "err", err)
		}
		s.notifyNewMessage(ctx, conv.ParticipantIDs, msg)
	} else {
		if err := s.groupRepo.Touch(ctx, *input.GroupID, now); err != nil {
			s.logger.Warn("group touch failed", "group_id", *input.GroupID, "err", err)
		}
		members, err := s.memberRepo.ListActiveByGroup(ctx, *input.GroupID)
		if err != nil {
			s.logger.Warn("list group members failed", "group_id", *input.GroupID, "err", err)
		} else {
			recipients := make([]string, 0, len(members))
			for _, member := range members {
				recipients = append(recipients, member.UserID)
			}
			s.notifyNewMessage(ctx, recipients, msg)
		}
	}
	return msg, nil
}

// EditMessage lets the sender rewrite a message's content. Tombstoned
// messages cannot be edited.
func (s *messageService) EditMessage(ctx context.Context, messageID, callerID, content string) (*domain.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if content == "" {
		return nil, domain.ErrInvalidInput
	}

	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get message: %w", err)
	}
	if msg.SenderID != callerID {
		return nil, domain.ErrForbidden
	}
	if msg.IsDeleted {
		return nil, domain.ErrInvalidTarget
	}

	now := time.Now()
	msg.Content = content
	msg.IsEdited = true
	msg.EditedAt = &now
	if err := s.messageRepo.Update(ctx, msg); err != nil {
		return nil, fmt.Errorf("update message: %w", err)
	}
	return msg, nil
}

// DeleteMessage tombstones a message. The record remains readable by direct
// lookup but drops out of thread listings. A missing message reports false
// without error, so deletion is idempotent.
func (s *messageService) DeleteMessage(ctx context.Context, messageID, callerID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("get message: %w", err)
	}
	if msg.SenderID != callerID {
		return false, domain.ErrForbidden
	}
	if msg.IsDeleted {
		return true, nil
	}

	now := time.Now()
	msg.IsDeleted = true
	msg.DeletedAt = &now
	if err := s.messageRepo.Update(ctx, msg); err != nil {
		return false, fmt.Errorf("update message: %w", err)
	}
	return true, nil
}

func (s *messageService) GetMessage(ctx context.Context, messageID string) (*domain.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get message: %w", err)
	}
	return msg, nil
}

// MarkAsRead marks every unread message in the thread as read, except those
// the reader sent.
func (s *messageService) MarkAsRead(ctx context.Context, conversationID, groupID *string, readerID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if (conversationID == nil) == (groupID == nil) {
		return domain.ErrInvalidInput
	}

	now := time.Now()
	if conversationID != nil {
		if _, err := s.conversationForParticipant(ctx, *conversationID, readerID); err != nil {
			return err
		}
		if err := s.messageRepo.MarkConversationRead(ctx, *conversationID, readerID, now); err != nil {
			return fmt.Errorf("mark conversation read: %w", err)
		}
		return nil
	}

	if err := s.requireActiveMember(ctx, *groupID, readerID); err != nil {
		return err
	}
	if err := s.messageRepo.MarkGroupRead(ctx, *groupID, readerID, now); err != nil {
		return fmt.Errorf("mark group read: %w", err)
	}
	return nil
}

func (s *messageService) ListConversationMessages(ctx context.Context, conversationID, callerID string, params domain.PaginationParams) (*domain.MessagePage, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.conversationForParticipant(ctx, conversationID, callerID); err != nil {
		return nil, err
	}

	items, total, err := s.messageRepo.ListByConversation(ctx, conversationID, params)
	if err != nil {
		return nil, fmt.Errorf("list conversation messages: %w", err)
	}
	return newMessagePage(items, total, params), nil
}

func (s *messageService) ListGroupMessages(ctx context.Context, groupID, callerID string, params domain.PaginationParams) (*domain.MessagePage, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.requireActiveMember(ctx, groupID, callerID); err != nil {
		return nil, err
	}

	items, total, err := s.messageRepo.ListByGroup(ctx, groupID, params)
	if err != nil {
		return nil, fmt.Errorf("list group messages: %w", err)
	}
	return newMessagePage(items, total, params), nil
}

func (s *messageService) LastMessage(ctx context.Context, conversationID, groupID *string) (*domain.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if (conversationID == nil) == (groupID == nil) {
		return nil, domain.ErrInvalidInput
	}
	if conversationID != nil {
		msg, err := s.messageRepo.LastByConversation(ctx, *conversationID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("last conversation message: %w", err)
		}
		return msg, err
	}
	msg, err := s.messageRepo.LastByGroup(ctx, *groupID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("last group message: %w", err)
	}
	return msg, err
}

func (s *messageService) UnreadCount(ctx context.Context, conversationID, groupID *string, userID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if (conversationID == nil) == (groupID == nil) {
		return 0, domain.ErrInvalidInput
	}
	if conversationID != nil {
		return s.messageRepo.CountUnreadByConversation(ctx, *conversationID, userID)
	}
	return s.messageRepo.CountUnreadByGroup(ctx, *groupID, userID)
}

func newMessagePage(items []*domain.Message, total int, params domain.PaginationParams) *domain.MessagePage {
	if items == nil {
		items = []*domain.Message{}
	}
	return &domain.MessagePage{
		Items:      items,
		TotalCount: total,
		HasMore:    params.HasMore(len(items), total),
	}
}

func (s *messageService) conversationForParticipant(ctx context.Context, conversationID, userID string) (*domain.Conversation, error) {
	conv, err := s.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	if !conv.HasParticipant(userID) {
		return nil, domain.ErrForbidden
	}
	return conv, nil
}

func (s *messageService) requireActiveMember(ctx context.Context, groupID, userID string) error {
	member, err := s.memberRepo.GetByGroupAndUser(ctx, groupID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrForbidden
		}
		return fmt.Errorf("get member: %w", err)
	}
	if member.IsKicked {
		return domain.ErrForbidden
	}
	return nil
}

func (s *messageService) notifyNewMessage(ctx context.Context, recipientIDs []string, msg *domain.Message) {
	senderName := "Someone"
	if sender, err := s.userRepo.GetByID(ctx, msg.SenderID); err == nil {
		senderName = sender.Name
	}
	for _, recipientID := range recipientIDs {
		if recipientID == msg.SenderID {
			continue
		}
		n := &domain.Notification{
			UserID:        recipientID,
			Kind:          domain.NotificationNewMessage,
			Title:         "New message",
			Body:          fmt.Sprintf("%s sent you a message", senderName),
			RelatedUserID: &msg.SenderID,
		}
		if err := s.sink.Notify(ctx, n); err != nil {
			s.logger.Warn("notification delivery failed", "kind", n.Kind, "user_id", recipientID, "err", err)
		}
	}
}
