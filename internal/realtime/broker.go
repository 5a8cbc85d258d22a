package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/campusfound/lostfound-backend/internal/goroutine"
	"github.com/campusfound/lostfound-backend/internal/logger"
)

// Таблицы и виды событий канала изменений.
const (
	TableConversations = "conversations"
	TableMessages      = "messages"
	TableItems         = "items"

	EventInsert = "INSERT"
	EventUpdate = "UPDATE"
	EventDelete = "DELETE"
)

// Event описывает изменение строки, разосланное после записи в БД.
type Event struct {
	Table string    `json:"table"`
	Kind  string    `json:"kind"`
	RowID uuid.UUID `json:"row_id"`
}

// Handler вызывается для каждого подходящего события.
// Вызов идёт из горутины слушателя: обработчик не должен блокироваться.
type Handler func(Event)

// Subscription — подписка на события таблицы.
// Filter — статичный список идентификаторов строк; пустой фильтр
// пропускает все строки. Фильтр не обновляется на месте: при изменении
// набора подписка снимается и создаётся заново.
type Subscription struct {
	id     uint64
	table  string
	kind   string
	filter map[uuid.UUID]struct{}
	fn     Handler
}

// Broker рассылает события об изменениях строк подписчикам.
// С Redis события доходят и до других экземпляров приложения;
// без него (nil-клиент) рассылка остаётся локальной.
type Broker struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]*Subscription
	rdb    *redis.Client
	chName string
}

// NewBroker создаёт брокер. redisClient может быть nil (локальный режим).
func NewBroker(redisClient *redis.Client) *Broker {
	return &Broker{
		subs:   make(map[uint64]*Subscription),
		rdb:    redisClient,
		chName: "realtime:changes",
	}
}

// Subscribe регистрирует подписку на таблицу и вид события.
// filter == nil означает «все строки».
func (b *Broker) Subscribe(table, kind string, filter []uuid.UUID, fn Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &Subscription{
		id:    b.nextID,
		table: table,
		kind:  kind,
		fn:    fn,
	}
	if filter != nil {
		sub.filter = make(map[uuid.UUID]struct{}, len(filter))
		for _, id := range filter {
			sub.filter[id] = struct{}{}
		}
	}

	b.subs[sub.id] = sub
	return sub
}

// Unsubscribe снимает подписку.
func (b *Broker) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, sub.id)
}

// Publish рассылает событие подписчикам. С Redis событие уходит в общий
// канал и возвращается через слушателя (в том числе в другие экземпляры);
// без Redis рассылка выполняется напрямую.
func (b *Broker) Publish(ctx context.Context, event Event) error {
	if b.rdb == nil {
		b.dispatch(event)
		return nil
	}

	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("realtime: не удалось сериализовать событие: %w", err)
	}

	if err := b.rdb.Publish(ctx, b.chName, raw).Err(); err != nil {
		return fmt.Errorf("realtime: publish %w", err)
	}

	return nil
}

// dispatch вызывает обработчики подходящих подписок.
func (b *Broker) dispatch(event Event) {
	b.mu.RLock()
	matched := make([]Handler, 0, 4)
	for _, sub := range b.subs {
		if sub.table != event.Table || sub.kind != event.Kind {
			continue
		}
		if sub.filter != nil {
			if _, ok := sub.filter[event.RowID]; !ok {
				continue
			}
		}
		matched = append(matched, sub.fn)
	}
	b.mu.RUnlock()

	for _, fn := range matched {
		fn(event)
	}
}

// StartListener запускает горутину, которая слушает Redis Pub/Sub и
// раздаёт события от других экземпляров локальным подпискам.
func (b *Broker) StartListener(ctx context.Context) {
	if b.rdb == nil {
		return
	}

	goroutine.SafeGoWithContext(ctx, func(ctx context.Context) {
		log := logger.Component("realtime")

		pubsub := b.rdb.Subscribe(ctx, b.chName)
		defer pubsub.Close()

		ch := pubsub.Channel()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					log.WithError(err).Warn("не удалось разобрать событие из Redis")
					continue
				}

				b.dispatch(event)
			}
		}
	})
}
