package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestItemHandler_Report_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &ItemHandler{items: nil}
	r.POST("/items", handler.Report)

	req, _ := http.NewRequest("POST", "/items", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestItemHandler_ListMine_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &ItemHandler{items: nil}
	r.GET("/items/my", handler.ListMine)

	req, _ := http.NewRequest("GET", "/items/my", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestItemHandler_Get_InvalidID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &ItemHandler{items: nil}
	r.GET("/items/:id", handler.Get)

	req, _ := http.NewRequest("GET", "/items/not-a-uuid", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestItemHandler_List_InvalidCategoryID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &ItemHandler{items: nil}
	r.GET("/items", handler.List)

	req, _ := http.NewRequest("GET", "/items?category_id=bad", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestItemHandler_Delete_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &ItemHandler{items: nil}
	r.DELETE("/items/:id", handler.Delete)

	itemID := uuid.New()
	req, _ := http.NewRequest("DELETE", "/items/"+itemID.String(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
