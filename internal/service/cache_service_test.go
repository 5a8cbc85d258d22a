package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/campusfound/lostfound-backend/internal/models"
)

func TestCacheService_SetGetExpire(t *testing.T) {
	cache := NewCacheService()

	cache.Set("key", "value", 50*time.Millisecond)
	got, found := cache.Get("key")
	assert.True(t, found)
	assert.Equal(t, "value", got)

	time.Sleep(60 * time.Millisecond)
	_, found = cache.Get("key")
	assert.False(t, found)
}

func TestCacheService_InvalidateByPrefix(t *testing.T) {
	cache := NewCacheService()
	userID := uuid.New()

	cache.Set(ItemListCacheKey(models.ItemStatusApproved, "lost", "", 50, 0), []int{1}, time.Minute)
	cache.Set(MyItemsCacheKey(userID), []int{2}, time.Minute)
	cache.Set(ConversationsCacheKey(userID), []int{3}, time.Minute)

	cache.InvalidateByPrefix("items:")

	_, found := cache.Get(MyItemsCacheKey(userID))
	assert.False(t, found)

	// Ключи других семейств не задеты
	_, found = cache.Get(ConversationsCacheKey(userID))
	assert.True(t, found)
}

func TestCacheService_GetOrSet(t *testing.T) {
	cache := NewCacheService()
	ctx := context.Background()

	calls := 0
	load := func() (interface{}, error) {
		calls++
		return "значение", nil
	}

	first, err := cache.GetOrSet(ctx, "key", time.Minute, load)
	assert.NoError(t, err)
	assert.Equal(t, "значение", first)

	// Повторное чтение отдаёт кэш, загрузчик не вызывается
	second, err := cache.GetOrSet(ctx, "key", time.Minute, load)
	assert.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestCacheService_GetOrSet_ErrorNotCached(t *testing.T) {
	cache := NewCacheService()
	ctx := context.Background()

	calls := 0
	_, err := cache.GetOrSet(ctx, "key", time.Minute, func() (interface{}, error) {
		calls++
		return nil, errors.New("база недоступна")
	})
	assert.Error(t, err)

	// После ошибки значение не сохраняется, следующий вызов считает заново
	got, err := cache.GetOrSet(ctx, "key", time.Minute, func() (interface{}, error) {
		calls++
		return 42, nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 2, calls)
}

func TestCacheService_Invalidate_Idempotent(t *testing.T) {
	cache := NewCacheService()

	cache.Set("admin:stats", 1, time.Minute)
	cache.Invalidate("admin:stats")
	cache.Invalidate("admin:stats")

	_, found := cache.Get("admin:stats")
	assert.False(t, found)
}
