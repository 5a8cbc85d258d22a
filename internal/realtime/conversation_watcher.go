package realtime

import (
	"sync"

	"github.com/google/uuid"
)

// CacheInvalidator помечает ключи кэша устаревшими.
type CacheInvalidator interface {
	Invalidate(keys ...string)
}

// ConversationWatcher держит для каждого пользователя две подписки на
// канал изменений: одну с фильтром по известному набору идентификаторов
// переписок (любое изменение этих строк) и одну без фильтра на вставку
// новых сообщений. Любое событие помечает кэш списка переписок
// устаревшим — следующий запрос перечитает его из БД целиком.
//
// Фильтр подписки — статичный список, а не запрос, поэтому при изменении
// набора известных идентификаторов (после каждого успешного перечитывания
// списка) фильтрованная подписка снимается и создаётся заново.
type ConversationWatcher struct {
	broker *Broker
	cache  CacheInvalidator
	keyFn  func(uuid.UUID) string

	mu       sync.Mutex
	filtered map[uuid.UUID]*Subscription
	messages map[uuid.UUID]*Subscription
}

// NewConversationWatcher создаёт наблюдатель.
// keyFn отображает пользователя в ключ кэша его списка переписок.
func NewConversationWatcher(broker *Broker, cache CacheInvalidator, keyFn func(uuid.UUID) string) *ConversationWatcher {
	return &ConversationWatcher{
		broker:   broker,
		cache:    cache,
		keyFn:    keyFn,
		filtered: make(map[uuid.UUID]*Subscription),
		messages: make(map[uuid.UUID]*Subscription),
	}
}

// Watch пересоздаёт подписки пользователя под новый набор переписок.
// Вызывается после каждого успешного перечитывания списка.
func (w *ConversationWatcher) Watch(userID uuid.UUID, conversationIDs []uuid.UUID) {
	w.mu.Lock()
	defer w.mu.Unlock()

	// Сносим старую фильтрованную подписку: фильтр не обновляется на месте
	if old, ok := w.filtered[userID]; ok {
		w.broker.Unsubscribe(old)
	}

	invalidate := func(Event) {
		w.cache.Invalidate(w.keyFn(userID))
	}

	w.filtered[userID] = w.broker.Subscribe(TableConversations, EventUpdate, conversationIDs, invalidate)

	// Подписка на новые сообщения не фильтруется: вставка в любой переписке
	// приводит к полному перечитыванию списка
	if _, ok := w.messages[userID]; !ok {
		w.messages[userID] = w.broker.Subscribe(TableMessages, EventInsert, nil, invalidate)
	}
}

// Unwatch снимает обе подписки пользователя (выход из системы, отключение).
func (w *ConversationWatcher) Unwatch(userID uuid.UUID) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if sub, ok := w.filtered[userID]; ok {
		w.broker.Unsubscribe(sub)
		delete(w.filtered, userID)
	}
	if sub, ok := w.messages[userID]; ok {
		w.broker.Unsubscribe(sub)
		delete(w.messages, userID)
	}
}
