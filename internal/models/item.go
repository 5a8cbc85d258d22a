package models

import (
	"time"

	"github.com/google/uuid"
)

// Item описывает объявление о потерянной или найденной вещи.
type Item struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	UserID       uuid.UUID  `db:"user_id" json:"user_id"`
	Type         string     `db:"type" json:"type"`
	Title        string     `db:"title" json:"title"`
	Description  string     `db:"description" json:"description"`
	Status       string     `db:"status" json:"status"`
	CategoryID   *uuid.UUID `db:"category_id" json:"category_id,omitempty"`
	LocationID   *uuid.UUID `db:"location_id" json:"location_id,omitempty"`
	RewardAmount *float64   `db:"reward_amount" json:"reward_amount,omitempty"`
	RejectReason *string    `db:"reject_reason" json:"reject_reason,omitempty"`
	ViewsCount   int        `db:"views_count" json:"views_count"`
	ResolvedAt   *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`

	// Связанные данные (загружаются join-ами в репозитории)
	Category *Category    `db:"-" json:"category,omitempty"`
	Location *Location    `db:"-" json:"location,omitempty"`
	Owner    *UserSummary `db:"-" json:"owner,omitempty"`
	Photos   []MediaFile  `db:"-" json:"photos,omitempty"`
}

// ItemFilter задаёт фильтры для выборки объявлений.
type ItemFilter struct {
	Status     string
	Type       string
	CategoryID *uuid.UUID
	LocationID *uuid.UUID
	Search     string
	Limit      int
	Offset     int
}

// Category описывает категорию вещей (документы, электроника и т.д.).
type Category struct {
	ID   uuid.UUID `db:"id" json:"id"`
	Name string    `db:"name" json:"name"`
	Slug string    `db:"slug" json:"slug"`
	Icon *string   `db:"icon" json:"icon,omitempty"`
}

// Location описывает место на кампусе, где вещь потеряна или найдена.
type Location struct {
	ID       uuid.UUID `db:"id" json:"id"`
	Name     string    `db:"name" json:"name"`
	Building *string   `db:"building" json:"building,omitempty"`
}

// MediaFile описывает загруженный файл (фото вещи).
type MediaFile struct {
	ID        uuid.UUID `db:"id" json:"id"`
	OwnerID   uuid.UUID `db:"owner_id" json:"owner_id"`
	Path      string    `db:"path" json:"path"`
	MimeType  string    `db:"mime_type" json:"mime_type"`
	SizeBytes int64     `db:"size_bytes" json:"size_bytes"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
