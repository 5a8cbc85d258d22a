package dto

import (
	"github.com/google/uuid"
)

// RegisterRequest represents the request to register a new account
type RegisterRequest struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

// LoginRequest represents the request to log in
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest represents the request to refresh a token pair
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// CreateItemRequest represents the request to report a lost or found item
type CreateItemRequest struct {
	Type         string   `json:"type" binding:"required"`
	Title        string   `json:"title" binding:"required"`
	Description  string   `json:"description"`
	CategoryID   *string  `json:"category_id"`
	LocationID   *string  `json:"location_id"`
	RewardAmount *float64 `json:"reward_amount"`
	PhotoIDs     []string `json:"photo_ids"`
}

// ModerationRequest represents an admin decision that requires a reason
type ModerationRequest struct {
	Reason string `json:"reason"`
}

// UpdateRoleRequest represents the request to change a user role
type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// CreateConversationRequest represents the request to start a conversation
type CreateConversationRequest struct {
	Type           string   `json:"type"`
	Title          *string  `json:"title"`
	ItemID         *string  `json:"item_id"`
	ParticipantIDs []string `json:"participant_ids" binding:"required"`
}

// SendMessageRequest represents the request to send a message
type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// UpdateProfileRequest represents the request to update user profile
type UpdateProfileRequest struct {
	DisplayName string  `json:"display_name" binding:"required"`
	Phone       *string `json:"phone"`
	Faculty     *string `json:"faculty"`
	Dormitory   *string `json:"dormitory"`
	PhotoID     *string `json:"photo_id"`
}

// ParseCategoryID converts string category ID to uuid.UUID pointer
func (r *CreateItemRequest) ParseCategoryID() (*uuid.UUID, error) {
	return parseUUIDPtr(r.CategoryID)
}

// ParseLocationID converts string location ID to uuid.UUID pointer
func (r *CreateItemRequest) ParseLocationID() (*uuid.UUID, error) {
	return parseUUIDPtr(r.LocationID)
}

// ParsePhotoIDs converts string UUIDs to uuid.UUID slice
func (r *CreateItemRequest) ParsePhotoIDs() ([]uuid.UUID, error) {
	return parseUUIDSlice(r.PhotoIDs)
}

// ParseItemID converts string item ID to uuid.UUID pointer
func (r *CreateConversationRequest) ParseItemID() (*uuid.UUID, error) {
	return parseUUIDPtr(r.ItemID)
}

// ParseParticipantIDs converts string UUIDs to uuid.UUID slice
func (r *CreateConversationRequest) ParseParticipantIDs() ([]uuid.UUID, error) {
	return parseUUIDSlice(r.ParticipantIDs)
}

// ParsePhotoID converts string photo ID to uuid.UUID pointer
func (r *UpdateProfileRequest) ParsePhotoID() (*uuid.UUID, error) {
	return parseUUIDPtr(r.PhotoID)
}

// parseUUIDPtr is a helper to convert an optional string to a UUID pointer
func parseUUIDPtr(s *string) (*uuid.UUID, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	parsed, err := uuid.Parse(*s)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// parseUUIDSlice is a helper to convert string slice to UUID slice
func parseUUIDSlice(strs []string) ([]uuid.UUID, error) {
	if strs == nil {
		return nil, nil
	}

	var uuids []uuid.UUID
	for _, str := range strs {
		if str == "" {
			continue
		}
		parsed, err := uuid.Parse(str)
		if err != nil {
			return nil, err
		}
		uuids = append(uuids, parsed)
	}
	return uuids, nil
}
