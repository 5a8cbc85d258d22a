package ws

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestHub_DisconnectHandlerFiresOnLastConnection(t *testing.T) {
	hub := NewHub()
	gone := make(chan uuid.UUID, 1)
	hub.SetDisconnectHandler(func(id uuid.UUID) {
		gone <- id
	})
	go hub.Run()

	userID := uuid.New()
	first := NewClient(nil, hub, userID)
	second := NewClient(nil, hub, userID)
	hub.Register(first)
	hub.Register(second)

	// Пока живо второе соединение, обработчик молчит
	hub.Unregister(first)
	select {
	case <-gone:
		t.Fatal("обработчик сработал при живом втором соединении")
	case <-time.After(50 * time.Millisecond):
	}

	hub.Unregister(second)
	select {
	case id := <-gone:
		if id != userID {
			t.Fatalf("обработчик получил чужой идентификатор: %s", id)
		}
	case <-time.After(time.Second):
		t.Fatal("обработчик не сработал после закрытия последнего соединения")
	}
}

func TestHub_DisconnectHandlerPerUser(t *testing.T) {
	hub := NewHub()
	gone := make(chan uuid.UUID, 2)
	hub.SetDisconnectHandler(func(id uuid.UUID) {
		gone <- id
	})
	go hub.Run()

	aliceID := uuid.New()
	bobID := uuid.New()
	alice := NewClient(nil, hub, aliceID)
	bob := NewClient(nil, hub, bobID)
	hub.Register(alice)
	hub.Register(bob)

	hub.Unregister(alice)
	select {
	case id := <-gone:
		if id != aliceID {
			t.Fatalf("ожидался %s, получен %s", aliceID, id)
		}
	case <-time.After(time.Second):
		t.Fatal("отключение не дошло до обработчика")
	}

	// Второй пользователь всё ещё подключён
	select {
	case id := <-gone:
		t.Fatalf("лишний вызов обработчика для %s", id)
	case <-time.After(50 * time.Millisecond):
	}
}
