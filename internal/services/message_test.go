package services

import (
	"context"
	"testing"
	"time"

	"socialevents/internal/domain"
	"socialevents/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type messageFixture struct {
	conversations *memory.ConversationRepository
	messages      *memory.MessageRepository
	members       *memory.GroupMemberRepository
	groups        *memory.GroupRepository
	sink          *sinkRecorder
	svc           domain.MessageService
}

func newMessageFixture() *messageFixture {
	conversations := memory.NewConversationRepository()
	messages := memory.NewMessageRepository()
	members := memory.NewGroupMemberRepository()
	groups := memory.NewGroupRepository(members)
	users := memory.NewUserRepository(
		&domain.User{ID: "alice", Email: "alice@example.com", Name: "Alice", Role: domain.RoleUser},
		&domain.User{ID: "bob", Email: "bob@example.com", Name: "Bob", Role: domain.RoleUser},
	)
	sink := &sinkRecorder{}
	svc := NewMessageService(conversations, messages, groups, members, users, sink, testLogger(), testTimeout)
	return &messageFixture{
		conversations: conversations,
		messages:      messages,
		members:       members,
		groups:        groups,
		sink:          sink,
		svc:           svc,
	}
}

func (f *messageFixture) seedConversation(t *testing.T, a, b string) *domain.Conversation {
	t.Helper()
	conv, err := f.svc.StartConversation(context.Background(), a, b)
	require.NoError(t, err)
	return conv
}

func (f *messageFixture) seedGroupWithMembers(t *testing.T, userIDs ...string) *domain.Group {
	t.Helper()
	ctx := context.Background()
	g := &domain.Group{Name: "Soirée jeux", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	require.NoError(t, f.groups.Create(ctx, g))
	for _, id := range userIDs {
		require.NoError(t, f.members.Create(ctx, &domain.GroupMember{
			UserID: id, GroupID: g.ID, Role: domain.GroupRoleMember, JoinedAt: time.Now(),
		}))
	}
	return g
}

func TestMessageService_StartConversation(t *testing.T) {
	ctx := context.Background()
	f := newMessageFixture()

	conv, err := f.svc.StartConversation(ctx, "alice", "bob")
	require.NoError(t, err)
	require.NotEmpty(t, conv.ID)
	assert.ElementsMatch(t, []string{"alice", "bob"}, conv.ParticipantIDs)

	// Starting again, in either order, returns the same thread.
	same, err := f.svc.StartConversation(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, conv.ID, same.ID)
	reversed, err := f.svc.StartConversation(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.Equal(t, conv.ID, reversed.ID)

	_, err = f.svc.StartConversation(ctx, "alice", "alice")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.svc.StartConversation(ctx, "alice", "")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestMessageService_ConversationAccess(t *testing.T) {
	ctx := context.Background()
	f := newMessageFixture()
	conv := f.seedConversation(t, "alice", "bob")

	got, err := f.svc.GetConversation(ctx, conv.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, conv.ID, got.ID)

	_, err = f.svc.GetConversation(ctx, conv.ID, "mallory")
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.GetConversation(ctx, "missing", "alice")
	require.ErrorIs(t, err, domain.ErrNotFound)

	err = f.svc.DeleteConversation(ctx, conv.ID, "mallory")
	require.ErrorIs(t, err, domain.ErrForbidden)
	require.NoError(t, f.svc.DeleteConversation(ctx, conv.ID, "bob"))
	_, err = f.svc.ConversationWithUser(ctx, "alice", "bob")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMessageService_SendMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("conversation message notifies the other participant", func(t *testing.T) {
		f := newMessageFixture()
		conv := f.seedConversation(t, "alice", "bob")

		msg, err := f.svc.SendMessage(ctx, domain.SendMessageInput{
			Content:        "On se voit samedi ?",
			SenderID:       "alice",
			ConversationID: &conv.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.MessageTypeText, msg.Type)
		assert.False(t, msg.IsRead)

		notices := f.sink.byKind(domain.NotificationNewMessage)
		require.Len(t, notices, 1)
		assert.Equal(t, "bob", notices[0].UserID)
		assert.Contains(t, notices[0].Body, "Alice")
	})

	t.Run("only participants may send", func(t *testing.T) {
		f := newMessageFixture()
		conv := f.seedConversation(t, "alice", "bob")

		_, err := f.svc.SendMessage(ctx, domain.SendMessageInput{
			Content:        "hi",
			SenderID:       "mallory",
			ConversationID: &conv.ID,
		})
		require.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("group message requires active membership", func(t *testing.T) {
		f := newMessageFixture()
		g := f.seedGroupWithMembers(t, "alice", "bob")

		_, err := f.svc.SendMessage(ctx, domain.SendMessageInput{
			Content:  "Salut le groupe",
			SenderID: "alice",
			GroupID:  &g.ID,
		})
		require.NoError(t, err)

		_, err = f.svc.SendMessage(ctx, domain.SendMessageInput{
			Content:  "hello",
			SenderID: "mallory",
			GroupID:  &g.ID,
		})
		require.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("exactly one destination", func(t *testing.T) {
		f := newMessageFixture()
		conv := f.seedConversation(t, "alice", "bob")
		g := f.seedGroupWithMembers(t, "alice")

		_, err := f.svc.SendMessage(ctx, domain.SendMessageInput{Content: "x", SenderID: "alice"})
		require.ErrorIs(t, err, domain.ErrInvalidInput)

		_, err = f.svc.SendMessage(ctx, domain.SendMessageInput{
			Content: "x", SenderID: "alice", ConversationID: &conv.ID, GroupID: &g.ID,
		})
		require.ErrorIs(t, err, domain.ErrInvalidInput)

		_, err = f.svc.SendMessage(ctx, domain.SendMessageInput{SenderID: "alice", ConversationID: &conv.ID})
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestMessageService_EditMessage(t *testing.T) {
	ctx := context.Background()
	f := newMessageFixture()
	conv := f.seedConversation(t, "alice", "bob")

	msg, err := f.svc.SendMessage(ctx, domain.SendMessageInput{
		Content: "brouillon", SenderID: "alice", ConversationID: &conv.ID,
	})
	require.NoError(t, err)

	_, err = f.svc.EditMessage(ctx, msg.ID, "bob", "nope")
	require.ErrorIs(t, err, domain.ErrForbidden)

	edited, err := f.svc.EditMessage(ctx, msg.ID, "alice", "version finale")
	require.NoError(t, err)
	assert.Equal(t, "version finale", edited.Content)
	assert.True(t, edited.IsEdited)
	require.NotNil(t, edited.EditedAt)

	// A tombstoned message can no longer be edited.
	_, err = f.svc.DeleteMessage(ctx, msg.ID, "alice")
	require.NoError(t, err)
	_, err = f.svc.EditMessage(ctx, msg.ID, "alice", "trop tard")
	require.ErrorIs(t, err, domain.ErrInvalidTarget)
}

func TestMessageService_DeleteMessage(t *testing.T) {
	ctx := context.Background()
	f := newMessageFixture()
	conv := f.seedConversation(t, "alice", "bob")

	keep, err := f.svc.SendMessage(ctx, domain.SendMessageInput{
		Content: "reste", SenderID: "alice", ConversationID: &conv.ID,
	})
	require.NoError(t, err)
	gone, err := f.svc.SendMessage(ctx, domain.SendMessageInput{
		Content: "part", SenderID: "alice", ConversationID: &conv.ID,
	})
	require.NoError(t, err)

	_, err = f.svc.DeleteMessage(ctx, gone.ID, "bob")
	require.ErrorIs(t, err, domain.ErrForbidden)

	ok, err := f.svc.DeleteMessage(ctx, gone.ID, "alice")
	require.NoError(t, err)
	assert.True(t, ok)

	// Deleting again, or deleting a missing message, stays quiet.
	ok, err = f.svc.DeleteMessage(ctx, gone.ID, "alice")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = f.svc.DeleteMessage(ctx, "missing", "alice")
	require.NoError(t, err)
	assert.False(t, ok)

	// The tombstone is excluded from listings but still directly readable.
	page, err := f.svc.ListConversationMessages(ctx, conv.ID, "alice", domain.PaginationParams{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, keep.ID, page.Items[0].ID)

	tomb, err := f.svc.GetMessage(ctx, gone.ID)
	require.NoError(t, err)
	assert.True(t, tomb.IsDeleted)
	require.NotNil(t, tomb.DeletedAt)

	last, err := f.svc.LastMessage(ctx, &conv.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, keep.ID, last.ID)
}

func TestMessageService_MarkAsReadAndUnreadCount(t *testing.T) {
	ctx := context.Background()
	f := newMessageFixture()
	conv := f.seedConversation(t, "alice", "bob")

	for _, content := range []string{"un", "deux"} {
		_, err := f.svc.SendMessage(ctx, domain.SendMessageInput{
			Content: content, SenderID: "alice", ConversationID: &conv.ID,
		})
		require.NoError(t, err)
	}
	_, err := f.svc.SendMessage(ctx, domain.SendMessageInput{
		Content: "réponse", SenderID: "bob", ConversationID: &conv.ID,
	})
	require.NoError(t, err)

	n, err := f.svc.UnreadCount(ctx, &conv.ID, nil, "bob")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, f.svc.MarkAsRead(ctx, &conv.ID, nil, "bob"))

	n, err = f.svc.UnreadCount(ctx, &conv.ID, nil, "bob")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// Marking as read never touches the reader's own messages.
	n, err = f.svc.UnreadCount(ctx, &conv.ID, nil, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	err = f.svc.MarkAsRead(ctx, nil, nil, "bob")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	err = f.svc.MarkAsRead(ctx, &conv.ID, nil, "mallory")
	require.ErrorIs(t, err, domain.ErrForbidden)
}

func TestMessageService_ListMessagesPagination(t *testing.T) {
	ctx := context.Background()
	f := newMessageFixture()
	conv := f.seedConversation(t, "alice", "bob")

	base := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, f.messages.Create(ctx, &domain.Message{
			Content:        "msg",
			Type:           domain.MessageTypeText,
			SenderID:       "alice",
			ConversationID: &conv.ID,
			CreatedAt:      base.Add(time.Duration(i) * time.Second),
		}))
	}

	page, err := f.svc.ListConversationMessages(ctx, conv.ID, "bob", domain.PaginationParams{Page: 1, PageSize: 3})
	require.NoError(t, err)
	assert.Len(t, page.Items, 3)
	assert.Equal(t, 5, page.TotalCount)
	assert.True(t, page.HasMore)
	// Newest first.
	assert.True(t, page.Items[0].CreatedAt.After(page.Items[1].CreatedAt))

	page, err = f.svc.ListConversationMessages(ctx, conv.ID, "bob", domain.PaginationParams{Page: 2, PageSize: 3})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.False(t, page.HasMore)

	_, err = f.svc.ListConversationMessages(ctx, conv.ID, "mallory", domain.PaginationParams{Page: 1, PageSize: 3})
	require.ErrorIs(t, err, domain.ErrForbidden)
}

func TestMessageService_GroupMessageSideEffects(t *testing.T) {
	ctx := context.Background()
	f := newMessageFixture()
	g := f.seedGroupWithMembers(t, "alice", "bob", "carol")

	kicked, err := f.members.GetByGroupAndUser(ctx, g.ID, "carol")
	require.NoError(t, err)
	kicked.IsKicked = true
	require.NoError(t, f.members.Update(ctx, kicked))

	before, err := f.groups.GetByID(ctx, g.ID)
	require.NoError(t, err)

	time.Sleep(time.Millisecond)
	_, err = f.svc.SendMessage(ctx, domain.SendMessageInput{
		Content: "On se retrouve où ?", SenderID: "alice", GroupID: &g.ID,
	})
	require.NoError(t, err)

	after, err := f.groups.GetByID(ctx, g.ID)
	require.NoError(t, err)
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt), "group updatedAt must advance on send")

	notified := f.sink.byKind(domain.NotificationNewMessage)
	require.Len(t, notified, 1)
	assert.Equal(t, "bob", notified[0].UserID)
	assert.Equal(t, "Alice sent you a message", notified[0].Body)
}

func TestMessageService_GroupThread(t *testing.T) {
	ctx := context.Background()
	f := newMessageFixture()
	g := f.seedGroupWithMembers(t, "alice", "bob", "carol")

	for _, sender := range []string{"alice", "bob"} {
		_, err := f.svc.SendMessage(ctx, domain.SendMessageInput{
			Content: "salut", SenderID: sender, GroupID: &g.ID,
		})
		require.NoError(t, err)
	}

	page, err := f.svc.ListGroupMessages(ctx, g.ID, "carol", domain.PaginationParams{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)

	n, err := f.svc.UnreadCount(ctx, nil, &g.ID, "carol")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.NoError(t, f.svc.MarkAsRead(ctx, nil, &g.ID, "carol"))
	n, err = f.svc.UnreadCount(ctx, nil, &g.ID, "carol")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	last, err := f.svc.LastMessage(ctx, nil, &g.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", last.SenderID)

	_, err = f.svc.ListGroupMessages(ctx, g.ID, "mallory", domain.PaginationParams{Page: 1, PageSize: 10})
	require.ErrorIs(t, err, domain.ErrForbidden)
}
