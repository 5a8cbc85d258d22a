package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusfound/lostfound-backend/internal/models"
	"github.com/campusfound/lostfound-backend/internal/repository/common"
)

// ErrConversationNotFound возвращается, когда переписка не найдена.
var ErrConversationNotFound = errors.New("conversation not found")

// ErrParticipantNotFound возвращается, когда активный участник не найден.
var ErrParticipantNotFound = errors.New("participant not found")

// ConversationRepository отвечает за переписки и их участников.
type ConversationRepository struct {
	db *sqlx.DB
}

// NewConversationRepository создаёт экземпляр репозитория.
func NewConversationRepository(db *sqlx.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// CreateWithParticipants создаёт переписку и всех участников одной транзакцией:
// либо появляются и переписка, и все строки участников, либо ничего.
func (r *ConversationRepository) CreateWithParticipants(ctx context.Context, conv *models.Conversation, participants []models.ConversationParticipant) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO conversations (type, title, item_id)
			VALUES ($1, $2, $3)
			RETURNING id, created_at
		`

		if err := tx.QueryRowxContext(ctx, query, conv.Type, conv.Title, conv.ItemID).
			Scan(&conv.ID, &conv.CreatedAt); err != nil {
			return fmt.Errorf("conversation repository: create %w", err)
		}

		inserter := common.NewBatchInserter(tx, `
			INSERT INTO conversation_participants (conversation_id, user_id, role)
		`, 3, 100)

		for i := range participants {
			participants[i].ConversationID = conv.ID
			if err := inserter.Add(ctx, conv.ID, participants[i].UserID, participants[i].Role); err != nil {
				return fmt.Errorf("conversation repository: add participant %w", err)
			}
		}

		if err := inserter.Flush(ctx); err != nil {
			return fmt.Errorf("conversation repository: insert participants %w", err)
		}

		return nil
	})
}

// GetByID возвращает переписку без вложенных данных.
func (r *ConversationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	return common.GetByID[models.Conversation](ctx, r.db, "conversations", id, ErrConversationNotFound)
}

// ListForUser возвращает переписки, где пользователь — активный участник,
// отсортированные по времени последнего сообщения (новые первыми).
// Участники, связанное объявление и последний отправитель подгружаются
// на стороне БД, без join-ов в прикладном коде.
func (r *ConversationRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := r.db.SelectContext(ctx, &convs, `
		SELECT c.* FROM conversations c
		JOIN conversation_participants cp ON cp.conversation_id = c.id
		WHERE cp.user_id = $1 AND cp.is_active = TRUE
		ORDER BY c.last_message_at DESC NULLS LAST
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("conversation repository: list for user %w", err)
	}

	if len(convs) == 0 {
		return convs, nil
	}

	ids := make([]uuid.UUID, 0, len(convs))
	for i := range convs {
		ids = append(ids, convs[i].ID)
	}

	participants, err := r.listParticipants(ctx, ids)
	if err != nil {
		return nil, err
	}

	byConv := make(map[uuid.UUID][]models.ConversationParticipant, len(convs))
	for _, p := range participants {
		byConv[p.ConversationID] = append(byConv[p.ConversationID], p)
	}

	for i := range convs {
		convs[i].Participants = byConv[convs[i].ID]
		if err := r.loadRelated(ctx, &convs[i]); err != nil {
			return nil, err
		}
	}

	return convs, nil
}

// participantRow — строка участника с данными пользователя.
type participantRow struct {
	models.ConversationParticipant
	Username    *string `db:"p_username"`
	DisplayName *string `db:"p_display_name"`
	UserRole    *string `db:"p_user_role"`
}

// listParticipants возвращает участников набора переписок одним запросом.
func (r *ConversationRepository) listParticipants(ctx context.Context, conversationIDs []uuid.UUID) ([]models.ConversationParticipant, error) {
	query, args, err := sqlx.In(`
		SELECT cp.*,
			u.username AS p_username,
			COALESCE(pr.display_name, u.username) AS p_display_name,
			u.role AS p_user_role
		FROM conversation_participants cp
		JOIN users u ON u.id = cp.user_id
		LEFT JOIN profiles pr ON pr.user_id = u.id
		WHERE cp.conversation_id IN (?)
		ORDER BY cp.joined_at
	`, conversationIDs)
	if err != nil {
		return nil, fmt.Errorf("conversation repository: participants query %w", err)
	}

	var rows []participantRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("conversation repository: list participants %w", err)
	}

	participants := make([]models.ConversationParticipant, 0, len(rows))
	for i := range rows {
		p := rows[i].ConversationParticipant
		if rows[i].Username != nil {
			p.User = &models.UserSummary{
				ID:          p.UserID,
				Username:    *rows[i].Username,
				DisplayName: *rows[i].DisplayName,
				Role:        *rows[i].UserRole,
			}
		}
		participants = append(participants, p)
	}

	return participants, nil
}

// loadRelated подгружает связанное объявление и последнего отправителя.
func (r *ConversationRepository) loadRelated(ctx context.Context, conv *models.Conversation) error {
	if conv.ItemID != nil {
		var item models.Item
		err := r.db.GetContext(ctx, &item, `SELECT * FROM items WHERE id = $1`, *conv.ItemID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("conversation repository: load item %w", err)
		}
		if err == nil {
			conv.Item = &item
		}
	}

	if conv.LastSenderID != nil {
		var sender models.UserSummary
		err := r.db.GetContext(ctx, &sender, `
			SELECT u.id, u.username, COALESCE(p.display_name, u.username) AS display_name, u.role
			FROM users u
			LEFT JOIN profiles p ON p.user_id = u.id
			WHERE u.id = $1
		`, *conv.LastSenderID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("conversation repository: load last sender %w", err)
		}
		if err == nil {
			conv.LastSender = &sender
		}
	}

	return nil
}

// GetParticipant возвращает активную строку участника для пользователя.
func (r *ConversationRepository) GetParticipant(ctx context.Context, conversationID, userID uuid.UUID) (*models.ConversationParticipant, error) {
	var participant models.ConversationParticipant
	err := r.db.GetContext(ctx, &participant, `
		SELECT * FROM conversation_participants
		WHERE conversation_id = $1 AND user_id = $2 AND is_active = TRUE
	`, conversationID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrParticipantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("conversation repository: get participant %w", err)
	}
	return &participant, nil
}

// MarkAsRead обновляет last_read_at только у собственной строки участника.
func (r *ConversationRepository) MarkAsRead(ctx context.Context, conversationID, userID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE conversation_participants
		SET last_read_at = NOW()
		WHERE conversation_id = $1 AND user_id = $2 AND is_active = TRUE
	`, conversationID, userID)
	if err != nil {
		return fmt.Errorf("conversation repository: mark as read %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("conversation repository: mark as read rows affected %w", err)
	}

	if rowsAffected == 0 {
		return ErrParticipantNotFound
	}

	return nil
}

// Leave деактивирует собственную строку участника и ставит отметку выхода.
// История и остальные участники не затрагиваются.
func (r *ConversationRepository) Leave(ctx context.Context, conversationID, userID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE conversation_participants
		SET is_active = FALSE, left_at = NOW()
		WHERE conversation_id = $1 AND user_id = $2 AND is_active = TRUE
	`, conversationID, userID)
	if err != nil {
		return fmt.Errorf("conversation repository: leave %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("conversation repository: leave rows affected %w", err)
	}

	if rowsAffected == 0 {
		return ErrParticipantNotFound
	}

	return nil
}

// TouchLastMessage обновляет денормализованные поля последнего сообщения.
func (r *ConversationRepository) TouchLastMessage(ctx context.Context, conversationID, senderID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE conversations SET last_message_at = NOW(), last_sender_id = $2 WHERE id = $1
	`, conversationID, senderID)
	if err != nil {
		return fmt.Errorf("conversation repository: touch last message %w", err)
	}
	return nil
}
