package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AdminAction — запись журнала действий модерации.
// Инвариант: запись никогда не обновляется и не удаляется после вставки.
type AdminAction struct {
	ID         uuid.UUID       `db:"id" json:"id"`
	ActorID    uuid.UUID       `db:"actor_id" json:"actor_id"`
	Action     string          `db:"action" json:"action"`
	TargetType string          `db:"target_type" json:"target_type"`
	TargetID   uuid.UUID       `db:"target_id" json:"target_id"`
	Reason     *string         `db:"reason" json:"reason,omitempty"`
	Details    json.RawMessage `db:"details" json:"details,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

// AdminStats — агрегированная статистика для панели модерации.
type AdminStats struct {
	PendingItems  int           `json:"pending_items"`
	ApprovedItems int           `json:"approved_items"`
	ResolvedItems int           `json:"resolved_items"`
	RejectedItems int           `json:"rejected_items"`
	TotalUsers    int           `json:"total_users"`
	TotalViews    int           `json:"total_views"`
	RecentActions []AdminAction `json:"recent_actions"`
}
