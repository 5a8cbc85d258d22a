package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusfound/lostfound-backend/internal/models"
)

// AdminActionRepository отвечает за журнал действий модерации.
// Журнал append-only: нет ни Update, ни Delete.
type AdminActionRepository struct {
	db *sqlx.DB
}

// NewAdminActionRepository создаёт экземпляр репозитория.
func NewAdminActionRepository(db *sqlx.DB) *AdminActionRepository {
	return &AdminActionRepository{db: db}
}

// Create добавляет запись в журнал.
func (r *AdminActionRepository) Create(ctx context.Context, action *models.AdminAction) error {
	query := `
		INSERT INTO admin_actions (actor_id, action, target_type, target_id, reason, details)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	if err := r.db.QueryRowxContext(
		ctx,
		query,
		action.ActorID,
		action.Action,
		action.TargetType,
		action.TargetID,
		action.Reason,
		action.Details,
	).Scan(&action.ID, &action.CreatedAt); err != nil {
		return fmt.Errorf("admin action repository: create %w", err)
	}

	return nil
}

// ListRecent возвращает последние записи журнала.
func (r *AdminActionRepository) ListRecent(ctx context.Context, limit int) ([]models.AdminAction, error) {
	var actions []models.AdminAction
	err := r.db.SelectContext(ctx, &actions, `
		SELECT * FROM admin_actions ORDER BY created_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("admin action repository: list recent %w", err)
	}
	return actions, nil
}

// ListByTarget возвращает историю модерации конкретной цели.
func (r *AdminActionRepository) ListByTarget(ctx context.Context, targetType string, targetID uuid.UUID, limit, offset int) ([]models.AdminAction, error) {
	var actions []models.AdminAction
	err := r.db.SelectContext(ctx, &actions, `
		SELECT * FROM admin_actions
		WHERE target_type = $1 AND target_id = $2
		ORDER BY created_at DESC LIMIT $3 OFFSET $4
	`, targetType, targetID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("admin action repository: list by target %w", err)
	}
	return actions, nil
}

// ListByActor возвращает действия конкретного модератора.
func (r *AdminActionRepository) ListByActor(ctx context.Context, actorID uuid.UUID, limit, offset int) ([]models.AdminAction, error) {
	var actions []models.AdminAction
	err := r.db.SelectContext(ctx, &actions, `
		SELECT * FROM admin_actions
		WHERE actor_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, actorID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("admin action repository: list by actor %w", err)
	}
	return actions, nil
}
