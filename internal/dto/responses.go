package dto

import (
	"github.com/campusfound/lostfound-backend/internal/models"
	"github.com/campusfound/lostfound-backend/internal/service"
)

// AuthResponse represents the result of registration or login
type AuthResponse struct {
	User         *models.User    `json:"user"`
	Profile      *models.Profile `json:"profile,omitempty"`
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
}

// NewAuthResponse creates an AuthResponse from a service result
func NewAuthResponse(res *service.AuthResult) *AuthResponse {
	return &AuthResponse{
		User:         res.User,
		Profile:      res.Profile,
		AccessToken:  res.TokenPair.AccessToken,
		RefreshToken: res.TokenPair.RefreshToken,
	}
}

// TokenResponse represents a refreshed token pair
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// ItemListResponse represents a page of items
type ItemListResponse struct {
	Items  []models.Item `json:"items"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// ConversationListResponse represents the user's conversation list
type ConversationListResponse struct {
	Conversations []models.Conversation `json:"conversations"`
}

// MessageListResponse represents a page of messages in a conversation
type MessageListResponse struct {
	Messages []models.Message `json:"messages"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}

// MediaUploadResponse represents an uploaded file
type MediaUploadResponse struct {
	File *models.MediaFile `json:"file"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse represents a standard success response
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
