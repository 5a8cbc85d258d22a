package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusfound/lostfound-backend/internal/models"
)

// ErrMessageNotFound возвращается, когда сообщение не найдено.
var ErrMessageNotFound = errors.New("message not found")

// MessageRepository отвечает за сообщения в переписках.
type MessageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository создаёт экземпляр репозитория.
func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create сохраняет новое сообщение.
func (r *MessageRepository) Create(ctx context.Context, msg *models.Message) error {
	query := `
		INSERT INTO messages (conversation_id, sender_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	if err := r.db.QueryRowxContext(
		ctx,
		query,
		msg.ConversationID,
		msg.SenderID,
		msg.Content,
	).Scan(&msg.ID, &msg.CreatedAt); err != nil {
		return fmt.Errorf("message repository: create %w", err)
	}

	return nil
}

// messageRow — строка сообщения с данными отправителя.
type messageRow struct {
	models.Message
	Username    *string `db:"s_username"`
	DisplayName *string `db:"s_display_name"`
	SenderRole  *string `db:"s_role"`
}

// ListByConversation возвращает сообщения переписки (новые первыми).
func (r *MessageRepository) ListByConversation(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]models.Message, error) {
	var rows []messageRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT m.*,
			u.username AS s_username,
			COALESCE(p.display_name, u.username) AS s_display_name,
			u.role AS s_role
		FROM messages m
		JOIN users u ON u.id = m.sender_id
		LEFT JOIN profiles p ON p.user_id = u.id
		WHERE m.conversation_id = $1
		ORDER BY m.created_at DESC
		LIMIT $2 OFFSET $3
	`, conversationID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("message repository: list %w", err)
	}

	messages := make([]models.Message, 0, len(rows))
	for i := range rows {
		msg := rows[i].Message
		if rows[i].Username != nil {
			msg.Sender = &models.UserSummary{
				ID:          msg.SenderID,
				Username:    *rows[i].Username,
				DisplayName: *rows[i].DisplayName,
				Role:        *rows[i].SenderRole,
			}
		}
		messages = append(messages, msg)
	}

	return messages, nil
}

// GetByID возвращает сообщение по идентификатору.
func (r *MessageRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	var msg models.Message
	if err := r.db.GetContext(ctx, &msg, `SELECT * FROM messages WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("message repository: get by id %w", err)
	}
	return &msg, nil
}

// CountUnread считает чужие сообщения после отметки прочтения участника.
// NULL last_read_at означает, что непрочитано всё.
func (r *MessageRepository) CountUnread(ctx context.Context, conversationID, userID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*)
		FROM messages m
		JOIN conversation_participants cp
			ON cp.conversation_id = m.conversation_id AND cp.user_id = $2
		WHERE m.conversation_id = $1
			AND m.sender_id <> $2
			AND (cp.last_read_at IS NULL OR m.created_at > cp.last_read_at)
	`, conversationID, userID)
	if err != nil {
		return 0, fmt.Errorf("message repository: count unread %w", err)
	}
	return count, nil
}
