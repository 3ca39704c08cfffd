package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"socialevents/internal/domain"
)

// ConversationRepository is an in-memory implementation of
// domain.ConversationRepository. The unordered participant pair is indexed so
// duplicate threads cannot be created.
type ConversationRepository struct {
	mu     sync.RWMutex
	byID   map[string]*domain.Conversation
	byPair map[string]string
}

func NewConversationRepository() *ConversationRepository {
	return &ConversationRepository{
		byID:   make(map[string]*domain.Conversation),
		byPair: make(map[string]string),
	}
}

func conversationPairKey(a, b string) string {
	if strings.Compare(a, b) > 0 {
		a, b = b, a
	}
	return a + "\x00" + b
}

func (r *ConversationRepository) Create(ctx context.Context, conv *domain.Conversation) error {
	if len(conv.ParticipantIDs) != 2 {
		return domain.ErrInvalidInput
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := conversationPairKey(conv.ParticipantIDs[0], conv.ParticipantIDs[1])
	if _, exists := r.byPair[key]; exists {
		return domain.ErrInvalidInput
	}
	if conv.ID == "" {
		conv.ID = uuid.NewString()
	}
	stored := *conv
	r.byID[conv.ID] = &stored
	r.byPair[key] = conv.ID
	return nil
}

func (r *ConversationRepository) GetByID(ctx context.Context, id string) (*domain.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *c
	return &out, nil
}

func (r *ConversationRepository) GetByParticipants(ctx context.Context, userID, otherUserID string) (*domain.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byPair[conversationPairKey(userID, otherUserID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *r.byID[id]
	return &out, nil
}

func (r *ConversationRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Conversation
	for _, c := range r.byID {
		if c.HasParticipant(userID) {
			cc := *c
			out = append(out, &cc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (r *ConversationRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(r.byPair, conversationPairKey(c.ParticipantIDs[0], c.ParticipantIDs[1]))
	delete(r.byID, id)
	return nil
}

func (r *ConversationRepository) Touch(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	c.UpdatedAt = at
	return nil
}

// MessageRepository is an in-memory implementation of
// domain.MessageRepository. Tombstoned messages stay in the store but are
// excluded from listings and counts.
type MessageRepository struct {
	mu   sync.RWMutex
	byID map[string]*domain.Message
}

func NewMessageRepository() *MessageRepository {
	return &MessageRepository{byID: make(map[string]*domain.Message)}
}

func (r *MessageRepository) Create(ctx context.Context, msg *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	stored := *msg
	r.byID[msg.ID] = &stored
	return nil
}

func (r *MessageRepository) GetByID(ctx context.Context, id string) (*domain.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *m
	return &out, nil
}

func (r *MessageRepository) Update(ctx context.Context, msg *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[msg.ID]; !ok {
		return domain.ErrNotFound
	}
	stored := *msg
	r.byID[msg.ID] = &stored
	return nil
}

func (r *MessageRepository) listThread(match func(*domain.Message) bool) []*domain.Message {
	var out []*domain.Message
	for _, m := range r.byID {
		if m.IsDeleted || !match(m) {
			continue
		}
		c := *m
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func paginate(items []*domain.Message, params domain.PaginationParams) ([]*domain.Message, int) {
	total := len(items)
	start := params.Offset()
	if start > total {
		start = total
	}
	end := start + params.PageSize
	if params.PageSize <= 0 || end > total {
		end = total
	}
	return items[start:end], total
}

func (r *MessageRepository) ListByConversation(ctx context.Context, conversationID string, params domain.PaginationParams) ([]*domain.Message, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items := r.listThread(func(m *domain.Message) bool {
		return m.ConversationID != nil && *m.ConversationID == conversationID
	})
	page, total := paginate(items, params)
	return page, total, nil
}

func (r *MessageRepository) ListByGroup(ctx context.Context, groupID string, params domain.PaginationParams) ([]*domain.Message, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items := r.listThread(func(m *domain.Message) bool {
		return m.GroupID != nil && *m.GroupID == groupID
	})
	page, total := paginate(items, params)
	return page, total, nil
}

func (r *MessageRepository) LastByConversation(ctx context.Context, conversationID string) (*domain.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items := r.listThread(func(m *domain.Message) bool {
		return m.ConversationID != nil && *m.ConversationID == conversationID
	})
	if len(items) == 0 {
		return nil, domain.ErrNotFound
	}
	return items[0], nil
}

func (r *MessageRepository) LastByGroup(ctx context.Context, groupID string) (*domain.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items := r.listThread(func(m *domain.Message) bool {
		return m.GroupID != nil && *m.GroupID == groupID
	})
	if len(items) == 0 {
		return nil, domain.ErrNotFound
	}
	return items[0], nil
}

func (r *MessageRepository) markRead(match func(*domain.Message) bool, readerID string, at time.Time) {
	for _, m := range r.byID {
		if m.SenderID == readerID || m.IsRead || !match(m) {
			continue
		}
		m.IsRead = true
		readAt := at
		m.ReadAt = &readAt
	}
}

func (r *MessageRepository) MarkConversationRead(ctx context.Context, conversationID, readerID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markRead(func(m *domain.Message) bool {
		return m.ConversationID != nil && *m.ConversationID == conversationID
	}, readerID, at)
	return nil
}

func (r *MessageRepository) MarkGroupRead(ctx context.Context, groupID, readerID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markRead(func(m *domain.Message) bool {
		return m.GroupID != nil && *m.GroupID == groupID
	}, readerID, at)
	return nil
}

func (r *MessageRepository) countUnread(match func(*domain.Message) bool, readerID string) int {
	n := 0
	for _, m := range r.byID {
		if m.IsDeleted || m.IsRead || m.SenderID == readerID || !match(m) {
			continue
		}
		n++
	}
	return n
}

func (r *MessageRepository) CountUnreadByConversation(ctx context.Context, conversationID, readerID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.countUnread(func(m *domain.Message) bool {
		return m.ConversationID != nil && *m.ConversationID == conversationID
	}, readerID), nil
}

func (r *MessageRepository) CountUnreadByGroup(ctx context.Context, groupID, readerID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.countUnread(func(m *domain.Message) bool {
		return m.GroupID != nil && *m.GroupID == groupID
	}, readerID), nil
}
