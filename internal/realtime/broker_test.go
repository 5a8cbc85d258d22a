package realtime

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestBroker_PublishLocal(t *testing.T) {
	broker := NewBroker(nil)
	ctx := context.Background()

	rowID := uuid.New()
	var got []Event
	broker.Subscribe(TableItems, EventInsert, nil, func(e Event) {
		got = append(got, e)
	})

	err := broker.Publish(ctx, Event{Table: TableItems, Kind: EventInsert, RowID: rowID})
	assert.NoError(t, err)
	if assert.Len(t, got, 1) {
		assert.Equal(t, rowID, got[0].RowID)
	}
}

func TestBroker_FilterMatchesOnlyListedRows(t *testing.T) {
	broker := NewBroker(nil)
	ctx := context.Background()

	watchedID := uuid.New()
	otherID := uuid.New()

	var got []Event
	broker.Subscribe(TableConversations, EventUpdate, []uuid.UUID{watchedID}, func(e Event) {
		got = append(got, e)
	})

	assert.NoError(t, broker.Publish(ctx, Event{Table: TableConversations, Kind: EventUpdate, RowID: otherID}))
	assert.Empty(t, got)

	assert.NoError(t, broker.Publish(ctx, Event{Table: TableConversations, Kind: EventUpdate, RowID: watchedID}))
	assert.Len(t, got, 1)
}

func TestBroker_KindAndTableMustMatch(t *testing.T) {
	broker := NewBroker(nil)
	ctx := context.Background()

	var calls int
	broker.Subscribe(TableMessages, EventInsert, nil, func(Event) { calls++ })

	assert.NoError(t, broker.Publish(ctx, Event{Table: TableMessages, Kind: EventDelete, RowID: uuid.New()}))
	assert.NoError(t, broker.Publish(ctx, Event{Table: TableItems, Kind: EventInsert, RowID: uuid.New()}))
	assert.Equal(t, 0, calls)
}

func TestBroker_Unsubscribe(t *testing.T) {
	broker := NewBroker(nil)
	ctx := context.Background()

	var calls int
	sub := broker.Subscribe(TableItems, EventDelete, nil, func(Event) { calls++ })
	broker.Unsubscribe(sub)

	assert.NoError(t, broker.Publish(ctx, Event{Table: TableItems, Kind: EventDelete, RowID: uuid.New()}))
	assert.Equal(t, 0, calls)
}
