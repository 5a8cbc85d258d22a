package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/campusfound/lostfound-backend/internal/dto"
	"github.com/campusfound/lostfound-backend/internal/http/handlers/common"
	"github.com/campusfound/lostfound-backend/internal/models"
	"github.com/campusfound/lostfound-backend/internal/service"
	"github.com/campusfound/lostfound-backend/internal/validation"
)

// ItemHandler обслуживает маршруты объявлений.
type ItemHandler struct {
	items *service.ItemService
}

// NewItemHandler создаёт новый хэндлер.
func NewItemHandler(items *service.ItemService) *ItemHandler {
	return &ItemHandler{items: items}
}

// List обрабатывает GET /items - публичная лента одобренных объявлений.
func (h *ItemHandler) List(c *gin.Context) {
	limit, offset := common.GetPagination(c)

	filter := models.ItemFilter{
		Type:   c.Query("type"),
		Search: c.Query("search"),
		Limit:  limit,
		Offset: offset,
	}

	if raw := c.Query("category_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "неверный идентификатор категории"})
			return
		}
		filter.CategoryID = &id
	}
	if raw := c.Query("location_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "неверный идентификатор места"})
			return
		}
		filter.LocationID = &id
	}

	items, err := h.items.List(c.Request.Context(), filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.ItemListResponse{
		Items:  items,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// ListMine обрабатывает GET /items/my - объявления пользователя во всех статусах.
func (h *ItemHandler) ListMine(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	limit, offset := common.GetPagination(c)
	filter := models.ItemFilter{
		Status: c.Query("status"),
		Type:   c.Query("type"),
		Limit:  limit,
		Offset: offset,
	}

	items, err := h.items.ListMine(c.Request.Context(), userID, filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.ItemListResponse{
		Items:  items,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// Get обрабатывает GET /items/:id.
func (h *ItemHandler) Get(c *gin.Context) {
	itemID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "неверный идентификатор объявления"})
		return
	}

	// Просмотр доступен и анонимно
	viewerID, _ := common.CurrentUserID(c)

	item, err := h.items.GetItem(c.Request.Context(), itemID, viewerID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, item)
}

// Report обрабатывает POST /items - публикация потерянной или найденной вещи.
func (h *ItemHandler) Report(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	in, ok := h.bindItemInput(c)
	if !ok {
		return
	}

	item, err := h.items.Report(c.Request.Context(), userID, *in)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, item)
}

// Update обрабатывает PUT /items/:id - правка до модерации.
func (h *ItemHandler) Update(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	itemID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "неверный идентификатор объявления"})
		return
	}

	in, ok := h.bindItemInput(c)
	if !ok {
		return
	}

	item, err := h.items.UpdateItem(c.Request.Context(), userID, itemID, *in)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, item)
}

// Delete обрабатывает DELETE /items/:id - удаление собственного объявления.
func (h *ItemHandler) Delete(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	itemID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "неверный идентификатор объявления"})
		return
	}

	if err := h.items.DeleteOwn(c.Request.Context(), userID, itemID); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

// bindItemInput разбирает и валидирует тело запроса объявления.
func (h *ItemHandler) bindItemInput(c *gin.Context) (*service.CreateItemInput, bool) {
	var req dto.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	if err := validation.ValidateItemTitle(req.Title); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	if err := validation.ValidateItemDescription(req.Description); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	if err := validation.ValidateReward(req.RewardAmount); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	categoryID, err := req.ParseCategoryID()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "неверный идентификатор категории"})
		return nil, false
	}
	locationID, err := req.ParseLocationID()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "неверный идентификатор места"})
		return nil, false
	}
	photoIDs, err := req.ParsePhotoIDs()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "неверный идентификатор фото"})
		return nil, false
	}

	return &service.CreateItemInput{
		Type:         req.Type,
		Title:        req.Title,
		Description:  req.Description,
		CategoryID:   categoryID,
		LocationID:   locationID,
		RewardAmount: req.RewardAmount,
		PhotoIDs:     photoIDs,
	}, true
}
