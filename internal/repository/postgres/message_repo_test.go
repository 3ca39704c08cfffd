package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"socialevents/internal/domain"
)

func TestConversationRepository_Create(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)

	t.Run("normalizes participant order", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		// "zoe" sorts after "anna", so the stored pair is (anna, zoe).
		mock.ExpectQuery(`INSERT INTO conversations`).
			WithArgs("anna", "zoe", now, now).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("conv-1"))

		repo := NewConversationRepository(db)
		conv := &domain.Conversation{
			ParticipantIDs: []string{"zoe", "anna"},
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		require.NoError(t, repo.Create(ctx, conv))
		require.Equal(t, "conv-1", conv.ID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate pair rejected", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`INSERT INTO conversations`).
			WithArgs("anna", "zoe", now, now).
			WillReturnError(&pq.Error{Code: "23505"})

		repo := NewConversationRepository(db)
		err = repo.Create(ctx, &domain.Conversation{
			ParticipantIDs: []string{"anna", "zoe"},
			CreatedAt:      now,
			UpdatedAt:      now,
		})
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("requires exactly two participants", func(t *testing.T) {
		db, _, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := NewConversationRepository(db)
		err = repo.Create(ctx, &domain.Conversation{ParticipantIDs: []string{"solo"}})
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestConversationRepository_GetByParticipants(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// Lookup order does not matter; args arrive normalized.
	mock.ExpectQuery(`SELECT id, participant_a, participant_b`).
		WithArgs("anna", "zoe").
		WillReturnRows(sqlmock.NewRows([]string{"id", "participant_a", "participant_b", "created_at", "updated_at"}).
			AddRow("conv-1", "anna", "zoe", now, now))

	repo := NewConversationRepository(db)
	conv, err := repo.GetByParticipants(ctx, "zoe", "anna")
	require.NoError(t, err)
	require.Equal(t, "conv-1", conv.ID)
	require.Equal(t, []string{"anna", "zoe"}, conv.ParticipantIDs)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageRepository_ListByConversation(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM messages`).
		WithArgs("conv-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	messageRows := sqlmock.NewRows([]string{
		"id", "content", "type", "sender_id", "conversation_id", "group_id",
		"is_read", "read_at", "is_edited", "edited_at", "is_deleted", "deleted_at", "created_at",
	}).
		AddRow("msg-2", "later", "TEXT", "anna", "conv-1", nil, false, nil, false, nil, false, nil, now.Add(time.Minute)).
		AddRow("msg-1", "first", "TEXT", "zoe", "conv-1", nil, true, now, false, nil, false, nil, now)
	mock.ExpectQuery(`SELECT (.+) FROM messages`).
		WithArgs("conv-1", 10, 0).
		WillReturnRows(messageRows)

	repo := NewMessageRepository(db)
	msgs, total, err := repo.ListByConversation(ctx, "conv-1", domain.PaginationParams{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Len(t, msgs, 2)
	require.Equal(t, "msg-2", msgs[0].ID)
	require.True(t, msgs[1].IsRead)
	require.NotNil(t, msgs[1].ReadAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageRepository_MarkConversationRead(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE messages`).
		WithArgs(at, "conv-1", "anna").
		WillReturnResult(sqlmock.NewResult(0, 3))

	repo := NewMessageRepository(db)
	require.NoError(t, repo.MarkConversationRead(ctx, "conv-1", "anna", at))
	require.NoError(t, mock.ExpectationsWereMet())
}
