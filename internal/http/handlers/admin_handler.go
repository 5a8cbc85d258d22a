package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusfound/lostfound-backend/internal/dto"
	"github.com/campusfound/lostfound-backend/internal/http/handlers/common"
	"github.com/campusfound/lostfound-backend/internal/service"
)

// AdminHandler обслуживает модерацию, управление пользователями и статистику.
type AdminHandler struct {
	admin *service.AdminService
	stats *service.StatsService
}

// NewAdminHandler создаёт новый хэндлер.
func NewAdminHandler(admin *service.AdminService, stats *service.StatsService) *AdminHandler {
	return &AdminHandler{admin: admin, stats: stats}
}

// ApproveItem обрабатывает POST /admin/items/:id/approve.
func (h *AdminHandler) ApproveItem(c *gin.Context) {
	actorID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	itemID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "неверный идентификатор объявления"})
		return
	}

	item, err := h.admin.ApproveItem(c.Request.Context(), actorID, itemID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, item)
}

// RejectItem обрабатывает POST /admin/items/:id/reject.
// Причина обязательна: она сохраняется в журнале и показывается владельцу.
func (h *AdminHandler) RejectItem(c *gin.Context) {
	actorID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	itemID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "неверный идентификатор объявления"})
		return
	}

	var req dto.ModerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.admin.RejectItem(c.Request.Context(), actorID, itemID, req.Reason)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, item)
}

// ResolveItem обрабатывает POST /admin/items/:id/resolve.
func (h *AdminHandler) ResolveItem(c *gin.Context) {
	actorID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	itemID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "неверный идентификатор объявления"})
		return
	}

	item, err := h.admin.ResolveItem(c.Request.Context(), actorID, itemID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, item)
}

// DeleteItem обрабатывает DELETE /admin/items/:id.
func (h *AdminHandler) DeleteItem(c *gin.Context) {
	actorID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	itemID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "неверный идентификатор объявления"})
		return
	}

	var req dto.ModerationRequest
	_ = c.ShouldBindJSON(&req)

	var reason *string
	if req.Reason != "" {
		reason = &req.Reason
	}

	if _, err := h.admin.DeleteItem(c.Request.Context(), actorID, itemID, reason); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

// BanUser обрабатывает POST /admin/users/:id/ban.
func (h *AdminHandler) BanUser(c *gin.Context) {
	actorID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	userID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "неверный идентификатор пользователя"})
		return
	}

	var req dto.ModerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.admin.BanUser(c.Request.Context(), actorID, userID, req.Reason)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// UnbanUser обрабатывает POST /admin/users/:id/unban.
func (h *AdminHandler) UnbanUser(c *gin.Context) {
	actorID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	userID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "неверный идентификатор пользователя"})
		return
	}

	user, err := h.admin.UnbanUser(c.Request.Context(), actorID, userID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// ChangeUserRole обрабатывает PUT /admin/users/:id/role.
func (h *AdminHandler) ChangeUserRole(c *gin.Context) {
	actorID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	userID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "неверный идентификатор пользователя"})
		return
	}

	var req dto.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.admin.ChangeUserRole(c.Request.Context(), actorID, userID, req.Role)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// ListUsers обрабатывает GET /admin/users.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	actorID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	limit, offset := common.GetPagination(c)

	users, err := h.admin.ListUsers(c.Request.Context(), actorID, limit, offset)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, users)
}

// GetStats обрабатывает GET /admin/stats.
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats, err := h.stats.GetAdminStats(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
