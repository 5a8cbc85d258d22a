package realtime

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// mockInvalidator запоминает помеченные ключи.
type mockInvalidator struct {
	keys []string
}

func (m *mockInvalidator) Invalidate(keys ...string) {
	m.keys = append(m.keys, keys...)
}

func cacheKey(userID uuid.UUID) string {
	return "conversations:list:" + userID.String()
}

func TestConversationWatcher_InvalidatesOnWatchedUpdate(t *testing.T) {
	broker := NewBroker(nil)
	cache := &mockInvalidator{}
	watcher := NewConversationWatcher(broker, cache, cacheKey)
	ctx := context.Background()

	userID := uuid.New()
	convID := uuid.New()
	watcher.Watch(userID, []uuid.UUID{convID})

	// Изменение чужой переписки кэш не трогает
	assert.NoError(t, broker.Publish(ctx, Event{Table: TableConversations, Kind: EventUpdate, RowID: uuid.New()}))
	assert.Empty(t, cache.keys)

	assert.NoError(t, broker.Publish(ctx, Event{Table: TableConversations, Kind: EventUpdate, RowID: convID}))
	assert.Equal(t, []string{cacheKey(userID)}, cache.keys)
}

func TestConversationWatcher_MessageInsertAlwaysInvalidates(t *testing.T) {
	broker := NewBroker(nil)
	cache := &mockInvalidator{}
	watcher := NewConversationWatcher(broker, cache, cacheKey)
	ctx := context.Background()

	userID := uuid.New()
	watcher.Watch(userID, nil)

	// Вставка сообщения в любой переписке помечает список устаревшим
	assert.NoError(t, broker.Publish(ctx, Event{Table: TableMessages, Kind: EventInsert, RowID: uuid.New()}))
	assert.Len(t, cache.keys, 1)
}

func TestConversationWatcher_ResubscribeReplacesFilter(t *testing.T) {
	broker := NewBroker(nil)
	cache := &mockInvalidator{}
	watcher := NewConversationWatcher(broker, cache, cacheKey)
	ctx := context.Background()

	userID := uuid.New()
	oldID := uuid.New()
	newID := uuid.New()

	watcher.Watch(userID, []uuid.UUID{oldID})
	watcher.Watch(userID, []uuid.UUID{newID})

	// Старый фильтр снят целиком, а не дополнен
	assert.NoError(t, broker.Publish(ctx, Event{Table: TableConversations, Kind: EventUpdate, RowID: oldID}))
	assert.Empty(t, cache.keys)

	assert.NoError(t, broker.Publish(ctx, Event{Table: TableConversations, Kind: EventUpdate, RowID: newID}))
	assert.Len(t, cache.keys, 1)
}

func TestConversationWatcher_Unwatch(t *testing.T) {
	broker := NewBroker(nil)
	cache := &mockInvalidator{}
	watcher := NewConversationWatcher(broker, cache, cacheKey)
	ctx := context.Background()

	userID := uuid.New()
	convID := uuid.New()
	watcher.Watch(userID, []uuid.UUID{convID})
	watcher.Unwatch(userID)

	assert.NoError(t, broker.Publish(ctx, Event{Table: TableConversations, Kind: EventUpdate, RowID: convID}))
	assert.NoError(t, broker.Publish(ctx, Event{Table: TableMessages, Kind: EventInsert, RowID: uuid.New()}))
	assert.Empty(t, cache.keys)
}
