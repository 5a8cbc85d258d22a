package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusfound/lostfound-backend/internal/service"
)

// CatalogHandler отдаёт справочники категорий и мест кампуса.
type CatalogHandler struct {
	items *service.ItemService
}

// NewCatalogHandler создаёт новый хэндлер.
func NewCatalogHandler(items *service.ItemService) *CatalogHandler {
	return &CatalogHandler{items: items}
}

// ListCategories обрабатывает GET /catalog/categories.
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.items.Categories(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, categories)
}

// ListLocations обрабатывает GET /catalog/locations.
func (h *CatalogHandler) ListLocations(c *gin.Context) {
	locations, err := h.items.Locations(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, locations)
}
