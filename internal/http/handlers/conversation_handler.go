package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusfound/lostfound-backend/internal/dto"
	"github.com/campusfound/lostfound-backend/internal/http/handlers/common"
	"github.com/campusfound/lostfound-backend/internal/service"
	"github.com/campusfound/lostfound-backend/internal/validation"
)

// ConversationHandler обслуживает маршруты переписок и сообщений.
type ConversationHandler struct {
	conversations *service.ConversationService
}

// NewConversationHandler создаёт новый хэндлер.
func NewConversationHandler(conversations *service.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversations: conversations}
}

// List обрабатывает GET /conversations.
// Анонимный запрос получает пустой список, а не ошибку.
func (h *ConversationHandler) List(c *gin.Context) {
	userID, _ := common.CurrentUserID(c)

	conversations, err := h.conversations.ListForUser(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.ConversationListResponse{Conversations: conversations})
}

// Create обрабатывает POST /conversations.
func (h *ConversationHandler) Create(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	var req dto.CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	participantIDs, err := req.ParseParticipantIDs()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "неверный идентификатор участника"})
		return
	}
	itemID, err := req.ParseItemID()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "неверный идентификатор объявления"})
		return
	}

	conversation, err := h.conversations.Create(c.Request.Context(), userID, service.CreateConversationInput{
		Type:           req.Type,
		Title:          req.Title,
		ItemID:         itemID,
		ParticipantIDs: participantIDs,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, conversation)
}

// MarkAsRead обрабатывает PUT /conversations/:id/read.
func (h *ConversationHandler) MarkAsRead(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	conversationID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "неверный идентификатор переписки"})
		return
	}

	if err := h.conversations.MarkAsRead(c.Request.Context(), userID, conversationID); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "переписка отмечена как прочитанная"})
}

// Leave обрабатывает POST /conversations/:id/leave.
func (h *ConversationHandler) Leave(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	conversationID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "неверный идентификатор переписки"})
		return
	}

	if err := h.conversations.Leave(c.Request.Context(), userID, conversationID); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "вы покинули переписку"})
}

// ListMessages обрабатывает GET /conversations/:id/messages.
func (h *ConversationHandler) ListMessages(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	conversationID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "неверный идентификатор переписки"})
		return
	}

	limit, offset := common.GetPagination(c)

	messages, err := h.conversations.ListMessages(c.Request.Context(), userID, conversationID, limit, offset)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.MessageListResponse{
		Messages: messages,
		Limit:    limit,
		Offset:   offset,
	})
}

// SendMessage обрабатывает POST /conversations/:id/messages.
func (h *ConversationHandler) SendMessage(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	conversationID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "неверный идентификатор переписки"})
		return
	}

	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := validation.ValidateMessageContent(req.Content); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message, err := h.conversations.SendMessage(c.Request.Context(), userID, conversationID, req.Content)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, message)
}
