package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"socialevents/internal/domain"
)

type conversationRepository struct {
	DB *sql.DB
}

// NewConversationRepository returns storage backed by the conversations
// table. The participant pair is normalized so that participant_a < b,
// and a unique index on the pair rules out duplicate threads.
func NewConversationRepository(db *sql.DB) domain.ConversationRepository {
	return &conversationRepository{
		DB: db,
	}
}

func orderedPair(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}

func (r *conversationRepository) Create(ctx context.Context, c *domain.Conversation) error {
	if len(c.ParticipantIDs) != 2 {
		return domain.ErrInvalidInput
	}
	pa, pb := orderedPair(c.ParticipantIDs[0], c.ParticipantIDs[1])
	query := `
		INSERT INTO conversations (participant_a, participant_b, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query, pa, pb, c.CreatedAt, c.UpdatedAt).Scan(&c.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return domain.ErrInvalidInput
		}
		return err
	}
	return nil
}

func scanConversation(scan func(dest ...any) error) (*domain.Conversation, error) {
	c := &domain.Conversation{}
	var pa, pb string
	err := scan(&c.ID, &pa, &pb, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.ParticipantIDs = []string{pa, pb}
	return c, nil
}

func (r *conversationRepository) GetByID(ctx context.Context, id string) (*domain.Conversation, error) {
	query := `SELECT id, participant_a, participant_b, created_at, updated_at FROM conversations WHERE id = $1`
	c, err := scanConversation(r.DB.QueryRowContext(ctx, query, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *conversationRepository) GetByParticipants(ctx context.Context, userID, otherUserID string) (*domain.Conversation, error) {
	pa, pb := orderedPair(userID, otherUserID)
	query := `
		SELECT id, participant_a, participant_b, created_at, updated_at
		FROM conversations
		WHERE participant_a = $1 AND participant_b = $2
	`
	c, err := scanConversation(r.DB.QueryRowContext(ctx, query, pa, pb).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *conversationRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Conversation, error) {
	query := `
		SELECT id, participant_a, participant_b, created_at, updated_at
		FROM conversations
		WHERE participant_a = $1 OR participant_b = $1
		ORDER BY updated_at DESC
	`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Conversation
	for rows.Next() {
		c, err := scanConversation(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if out == nil {
		out = []*domain.Conversation{}
	}
	return out, nil
}

func (r *conversationRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM conversations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *conversationRepository) Touch(ctx context.Context, id string, at time.Time) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE conversations SET updated_at = $1 WHERE id = $2`, at, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type messageRepository struct {
	DB *sql.DB
}

func NewMessageRepository(db *sql.DB) domain.MessageRepository {
	return &messageRepository{
		DB: db,
	}
}

const messageColumns = `id, content, type, sender_id, conversation_id, group_id,
		is_read, read_at, is_edited, edited_at, is_deleted, deleted_at, created_at`

func (r *messageRepository) Create(ctx context.Context, m *domain.Message) error {
	query := `
		INSERT INTO messages (content, type, sender_id, conversation_id, group_id,
			is_read, read_at, is_edited, edited_at, is_deleted, deleted_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		m.Content, m.Type, m.SenderID, m.ConversationID, m.GroupID,
		m.IsRead, m.ReadAt, m.IsEdited, m.EditedAt, m.IsDeleted, m.DeletedAt, m.CreatedAt,
	).Scan(&m.ID)
}

func scanMessage(scan func(dest ...any) error) (*domain.Message, error) {
	m := &domain.Message{}
	var convID, groupID sql.NullString
	var readAt, editedAt, deletedAt sql.NullTime
	err := scan(
		&m.ID, &m.Content, &m.Type, &m.SenderID, &convID, &groupID,
		&m.IsRead, &readAt, &m.IsEdited, &editedAt, &m.IsDeleted, &deletedAt, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if convID.Valid {
		m.ConversationID = &convID.String
	}
	if groupID.Valid {
		m.GroupID = &groupID.String
	}
	if readAt.Valid {
		m.ReadAt = &readAt.Time
	}
	if editedAt.Valid {
		m.EditedAt = &editedAt.Time
	}
	if deletedAt.Valid {
		m.DeletedAt = &deletedAt.Time
	}
	return m, nil
}

func (r *messageRepository) GetByID(ctx context.Context, id string) (*domain.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = $1`
	m, err := scanMessage(r.DB.QueryRowContext(ctx, query, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

func (r *messageRepository) Update(ctx context.Context, m *domain.Message) error {
	query := `
		UPDATE messages
		SET content = $1, is_read = $2, read_at = $3, is_edited = $4, edited_at = $5,
			is_deleted = $6, deleted_at = $7
		WHERE id = $8
	`
	res, err := r.DB.ExecContext(ctx, query,
		m.Content, m.IsRead, m.ReadAt, m.IsEdited, m.EditedAt, m.IsDeleted, m.DeletedAt, m.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *messageRepository) listThread(ctx context.Context, column, threadID string, params domain.PaginationParams) ([]*domain.Message, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM messages WHERE ` + column + ` = $1 AND is_deleted = FALSE`
	if err := r.DB.QueryRowContext(ctx, countQuery, threadID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE ` + column + ` = $1 AND is_deleted = FALSE
		ORDER BY created_at DESC
	`
	args := []any{threadID}
	if params.PageSize > 0 {
		query += ` LIMIT $2 OFFSET $3`
		args = append(args, params.PageSize, params.Offset())
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*domain.Message
	for rows.Next() {
		m, err := scanMessage(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if out == nil {
		out = []*domain.Message{}
	}
	return out, total, nil
}

func (r *messageRepository) ListByConversation(ctx context.Context, conversationID string, params domain.PaginationParams) ([]*domain.Message, int, error) {
	return r.listThread(ctx, "conversation_id", conversationID, params)
}

func (r *messageRepository) ListByGroup(ctx context.Context, groupID string, params domain.PaginationParams) ([]*domain.Message, int, error) {
	return r.listThread(ctx, "group_id", groupID, params)
}

func (r *messageRepository) lastInThread(ctx context.Context, column, threadID string) (*domain.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE ` + column + ` = $1 AND is_deleted = FALSE
		ORDER BY created_at DESC
		LIMIT 1
	`
	m, err := scanMessage(r.DB.QueryRowContext(ctx, query, threadID).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

func (r *messageRepository) LastByConversation(ctx context.Context, conversationID string) (*domain.Message, error) {
	return r.lastInThread(ctx, "conversation_id", conversationID)
}

func (r *messageRepository) LastByGroup(ctx context.Context, groupID string) (*domain.Message, error) {
	return r.lastInThread(ctx, "group_id", groupID)
}

func (r *messageRepository) markRead(ctx context.Context, column, threadID, readerID string, at time.Time) error {
	query := `
		UPDATE messages
		SET is_read = TRUE, read_at = $1
		WHERE ` + column + ` = $2 AND sender_id != $3 AND is_read = FALSE
	`
	_, err := r.DB.ExecContext(ctx, query, at, threadID, readerID)
	return err
}

func (r *messageRepository) MarkConversationRead(ctx context.Context, conversationID, readerID string, at time.Time) error {
	return r.markRead(ctx, "conversation_id", conversationID, readerID, at)
}

func (r *messageRepository) MarkGroupRead(ctx context.Context, groupID, readerID string, at time.Time) error {
	return r.markRead(ctx, "group_id", groupID, readerID, at)
}

func (r *messageRepository) countUnread(ctx context.Context, column, threadID, readerID string) (int, error) {
	query := `
		SELECT COUNT(*) FROM messages
		WHERE ` + column + ` = $1 AND sender_id != $2 AND is_read = FALSE AND is_deleted = FALSE
	`
	var n int
	err := r.DB.QueryRowContext(ctx, query, threadID, readerID).Scan(&n)
	return n, err
}

func (r *messageRepository) CountUnreadByConversation(ctx context.Context, conversationID, readerID string) (int, error) {
	return r.countUnread(ctx, "conversation_id", conversationID, readerID)
}

func (r *messageRepository) CountUnreadByGroup(ctx context.Context, groupID, readerID string) (int, error) {
	return r.countUnread(ctx, "group_id", groupID, readerID)
}
