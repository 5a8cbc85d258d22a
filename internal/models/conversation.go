package models

import (
	"time"

	"github.com/google/uuid"
)

// Conversation описывает переписку между пользователями.
// last_message_at и last_sender_id денормализованы для сортировки списка.
type Conversation struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	Type          string     `db:"type" json:"type"`
	Title         *string    `db:"title" json:"title,omitempty"`
	ItemID        *uuid.UUID `db:"item_id" json:"item_id,omitempty"`
	LastMessageAt *time.Time `db:"last_message_at" json:"last_message_at,omitempty"`
	LastSenderID  *uuid.UUID `db:"last_sender_id" json:"last_sender_id,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`

	// Связанные данные
	Participants []ConversationParticipant `db:"-" json:"participants,omitempty"`
	Item         *Item                     `db:"-" json:"item,omitempty"`
	LastSender   *UserSummary              `db:"-" json:"last_sender,omitempty"`
	UnreadCount  int                       `db:"-" json:"unread_count"`
}

// ConversationParticipant связывает пользователя с перепиской.
// Пользователь считается участником, пока is_active = true;
// выход из переписки не удаляет строку, а только деактивирует её.
type ConversationParticipant struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	ConversationID uuid.UUID  `db:"conversation_id" json:"conversation_id"`
	UserID         uuid.UUID  `db:"user_id" json:"user_id"`
	Role           string     `db:"role" json:"role"`
	IsActive       bool       `db:"is_active" json:"is_active"`
	LastReadAt     *time.Time `db:"last_read_at" json:"last_read_at,omitempty"`
	LeftAt         *time.Time `db:"left_at" json:"left_at,omitempty"`
	JoinedAt       time.Time  `db:"joined_at" json:"joined_at"`

	User *UserSummary `db:"-" json:"user,omitempty"`
}

// Message описывает сообщение в переписке.
type Message struct {
	ID             uuid.UUID `db:"id" json:"id"`
	ConversationID uuid.UUID `db:"conversation_id" json:"conversation_id"`
	SenderID       uuid.UUID `db:"sender_id" json:"sender_id"`
	Content        string    `db:"content" json:"content"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`

	Sender *UserSummary `db:"-" json:"sender,omitempty"`
}
