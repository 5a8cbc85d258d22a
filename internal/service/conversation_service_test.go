package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/campusfound/lostfound-backend/internal/models"
	"github.com/campusfound/lostfound-backend/internal/pkg/apperror"
	"github.com/campusfound/lostfound-backend/internal/realtime"
	"github.com/campusfound/lostfound-backend/internal/repository"
)

// readMark фиксирует, чью строку и в какой переписке отметили прочитанной.
type readMark struct {
	conversationID uuid.UUID
	userID         uuid.UUID
}

// mockConversationRepo хранит переписки в памяти.
type mockConversationRepo struct {
	conversations map[uuid.UUID]*models.Conversation
	participants  map[uuid.UUID][]models.ConversationParticipant
	markedRead    []readMark
	left          []uuid.UUID
}

func newMockConversationRepo() *mockConversationRepo {
	return &mockConversationRepo{
		conversations: make(map[uuid.UUID]*models.Conversation),
		participants:  make(map[uuid.UUID][]models.ConversationParticipant),
	}
}

func (m *mockConversationRepo) CreateWithParticipants(ctx context.Context, conv *models.Conversation, participants []models.ConversationParticipant) error {
	conv.ID = uuid.New()
	m.conversations[conv.ID] = conv
	m.participants[conv.ID] = participants
	return nil
}

func (m *mockConversationRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	conv, ok := m.conversations[id]
	if !ok {
		return nil, repository.ErrConversationNotFound
	}
	out := *conv
	out.Participants = m.participants[id]
	return &out, nil
}

func (m *mockConversationRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Conversation, error) {
	var out []models.Conversation
	for id, conv := range m.conversations {
		for _, p := range m.participants[id] {
			if p.UserID == userID && p.IsActive {
				c := *conv
				c.Participants = m.participants[id]
				out = append(out, c)
				break
			}
		}
	}
	return out, nil
}

func (m *mockConversationRepo) GetParticipant(ctx context.Context, conversationID, userID uuid.UUID) (*models.ConversationParticipant, error) {
	for _, p := range m.participants[conversationID] {
		if p.UserID == userID && p.IsActive {
			out := p
			return &out, nil
		}
	}
	return nil, repository.ErrParticipantNotFound
}

func (m *mockConversationRepo) MarkAsRead(ctx context.Context, conversationID, userID uuid.UUID) error {
	m.markedRead = append(m.markedRead, readMark{conversationID: conversationID, userID: userID})
	return nil
}

func (m *mockConversationRepo) Leave(ctx context.Context, conversationID, userID uuid.UUID) error {
	for i, p := range m.participants[conversationID] {
		if p.UserID == userID {
			m.participants[conversationID][i].IsActive = false
			m.left = append(m.left, conversationID)
			return nil
		}
	}
	return repository.ErrParticipantNotFound
}

func (m *mockConversationRepo) TouchLastMessage(ctx context.Context, conversationID, senderID uuid.UUID) error {
	conv, ok := m.conversations[conversationID]
	if !ok {
		return repository.ErrConversationNotFound
	}
	conv.LastSenderID = &senderID
	return nil
}

// mockMessageRepo хранит сообщения в памяти.
type mockMessageRepo struct {
	messages  []*models.Message
	unread    map[uuid.UUID]int
	unreadErr error
}

func newMockMessageRepo() *mockMessageRepo {
	return &mockMessageRepo{unread: make(map[uuid.UUID]int)}
}

func (m *mockMessageRepo) Create(ctx context.Context, msg *models.Message) error {
	msg.ID = uuid.New()
	m.messages = append(m.messages, msg)
	return nil
}

func (m *mockMessageRepo) ListByConversation(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]models.Message, error) {
	var out []models.Message
	for _, msg := range m.messages {
		if msg.ConversationID == conversationID {
			out = append(out, *msg)
		}
	}
	return out, nil
}

func (m *mockMessageRepo) CountUnread(ctx context.Context, conversationID, userID uuid.UUID) (int, error) {
	if m.unreadErr != nil {
		return 0, m.unreadErr
	}
	return m.unread[conversationID], nil
}

func TestConversationService_Create_RolesAndDedup(t *testing.T) {
	repo := newMockConversationRepo()
	svc := NewConversationService(repo, newMockMessageRepo(), nil)
	ctx := context.Background()

	creatorID := uuid.New()
	otherID := uuid.New()

	// Дубликаты и сам создатель в списке участников не создают лишних строк
	conv, err := svc.Create(ctx, creatorID, CreateConversationInput{
		ParticipantIDs: []uuid.UUID{otherID, otherID, creatorID},
	})
	assert.NoError(t, err)
	assert.Equal(t, models.ConversationTypeDirect, conv.Type)

	participants := repo.participants[conv.ID]
	if assert.Len(t, participants, 2) {
		assert.Equal(t, creatorID, participants[0].UserID)
		assert.Equal(t, models.ParticipantRoleAdmin, participants[0].Role)
		assert.Equal(t, otherID, participants[1].UserID)
		assert.Equal(t, models.ParticipantRoleMember, participants[1].Role)
	}
}

func TestConversationService_ListForUser_Anonymous(t *testing.T) {
	svc := NewConversationService(newMockConversationRepo(), newMockMessageRepo(), nil)

	// Анонимный запрос: пустой список вместо ошибки
	convs, err := svc.ListForUser(context.Background(), uuid.Nil)
	assert.NoError(t, err)
	assert.NotNil(t, convs)
	assert.Empty(t, convs)
}

func TestConversationService_ListForUser_UnreadCounts(t *testing.T) {
	repo := newMockConversationRepo()
	messages := newMockMessageRepo()
	svc := NewConversationService(repo, messages, nil)
	ctx := context.Background()

	userID := uuid.New()
	conv, err := svc.Create(ctx, userID, CreateConversationInput{ParticipantIDs: []uuid.UUID{uuid.New()}})
	assert.NoError(t, err)
	messages.unread[conv.ID] = 3

	convs, err := svc.ListForUser(ctx, userID)
	assert.NoError(t, err)
	if assert.Len(t, convs, 1) {
		assert.Equal(t, 3, convs[0].UnreadCount)
	}
}

func TestConversationService_ListForUser_UnreadFailureFailsList(t *testing.T) {
	repo := newMockConversationRepo()
	messages := newMockMessageRepo()
	messages.unreadErr = errors.New("счётчик недоступен")
	svc := NewConversationService(repo, messages, nil)
	ctx := context.Background()

	userID := uuid.New()
	_, err := svc.Create(ctx, userID, CreateConversationInput{ParticipantIDs: []uuid.UUID{uuid.New()}})
	assert.NoError(t, err)

	// Ошибка счётчика проваливает всю выборку, частичный результат не отдаётся
	_, err = svc.ListForUser(ctx, userID)
	assert.Error(t, err)
}

func TestConversationService_Leave_DeactivatesOwnRow(t *testing.T) {
	repo := newMockConversationRepo()
	svc := NewConversationService(repo, newMockMessageRepo(), nil)
	ctx := context.Background()

	userID := uuid.New()
	otherID := uuid.New()
	conv, err := svc.Create(ctx, userID, CreateConversationInput{ParticipantIDs: []uuid.UUID{otherID}})
	assert.NoError(t, err)

	assert.NoError(t, svc.Leave(ctx, userID, conv.ID))

	// Строка деактивирована, но история и второй участник остались
	_, err = repo.GetParticipant(ctx, conv.ID, userID)
	assert.ErrorIs(t, err, repository.ErrParticipantNotFound)
	_, err = repo.GetParticipant(ctx, conv.ID, otherID)
	assert.NoError(t, err)
}

func TestConversationService_SendMessage(t *testing.T) {
	repo := newMockConversationRepo()
	messages := newMockMessageRepo()
	svc := NewConversationService(repo, messages, nil)
	notifier := &mockNotifier{}
	svc.SetNotifier(notifier)
	ctx := context.Background()

	senderID := uuid.New()
	otherID := uuid.New()
	conv, err := svc.Create(ctx, senderID, CreateConversationInput{ParticipantIDs: []uuid.UUID{otherID}})
	assert.NoError(t, err)

	msg, err := svc.SendMessage(ctx, senderID, conv.ID, "привет, нашёл ваш рюкзак")
	assert.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, msg.ID)

	// Денормализованные поля переписки обновлены
	assert.Equal(t, senderID, *repo.conversations[conv.ID].LastSenderID)

	// Уведомление уходит второму участнику, не отправителю
	if assert.Len(t, notifier.sent, 1) {
		assert.Equal(t, otherID, notifier.sent[0].userID)
		assert.Equal(t, models.NotificationNewMessage, notifier.sent[0].kind)
	}
}

// mockEventPublisher собирает опубликованные события канала изменений.
type mockEventPublisher struct {
	events []realtime.Event
}

func (m *mockEventPublisher) Publish(ctx context.Context, event realtime.Event) error {
	m.events = append(m.events, event)
	return nil
}

func (m *mockEventPublisher) byTable(table string) []realtime.Event {
	var out []realtime.Event
	for _, e := range m.events {
		if e.Table == table {
			out = append(out, e)
		}
	}
	return out
}

func TestConversationService_SendMessage_PublishesBothEvents(t *testing.T) {
	repo := newMockConversationRepo()
	svc := NewConversationService(repo, newMockMessageRepo(), nil)
	events := &mockEventPublisher{}
	svc.SetEventPublisher(events)
	ctx := context.Background()

	senderID := uuid.New()
	conv, err := svc.Create(ctx, senderID, CreateConversationInput{ParticipantIDs: []uuid.UUID{uuid.New()}})
	assert.NoError(t, err)

	msg, err := svc.SendMessage(ctx, senderID, conv.ID, "нашёл ваш студенческий")
	assert.NoError(t, err)

	// Вставка сообщения и обновление самой переписки публикуются парой
	inserts := events.byTable(realtime.TableMessages)
	if assert.Len(t, inserts, 1) {
		assert.Equal(t, realtime.EventInsert, inserts[0].Kind)
		assert.Equal(t, msg.ID, inserts[0].RowID)
	}

	updates := events.byTable(realtime.TableConversations)
	if assert.Len(t, updates, 1) {
		assert.Equal(t, realtime.EventUpdate, updates[0].Kind)
		assert.Equal(t, conv.ID, updates[0].RowID)
	}
}

func TestConversationService_SendMessage_TriggersFilteredSubscription(t *testing.T) {
	repo := newMockConversationRepo()
	svc := NewConversationService(repo, newMockMessageRepo(), nil)
	broker := realtime.NewBroker(nil)
	svc.SetEventPublisher(broker)
	ctx := context.Background()

	senderID := uuid.New()
	conv, err := svc.Create(ctx, senderID, CreateConversationInput{ParticipantIDs: []uuid.UUID{uuid.New()}})
	assert.NoError(t, err)

	// Подписка с фильтром по известной переписке, как у второго участника
	fired := 0
	broker.Subscribe(realtime.TableConversations, realtime.EventUpdate, []uuid.UUID{conv.ID}, func(realtime.Event) {
		fired++
	})
	foreign := 0
	broker.Subscribe(realtime.TableConversations, realtime.EventUpdate, []uuid.UUID{uuid.New()}, func(realtime.Event) {
		foreign++
	})

	_, err = svc.SendMessage(ctx, senderID, conv.ID, "привет")
	assert.NoError(t, err)

	assert.Equal(t, 1, fired)
	assert.Equal(t, 0, foreign)
}

func TestConversationService_Leave_PublishesConversationUpdate(t *testing.T) {
	repo := newMockConversationRepo()
	svc := NewConversationService(repo, newMockMessageRepo(), nil)
	events := &mockEventPublisher{}
	svc.SetEventPublisher(events)
	ctx := context.Background()

	userID := uuid.New()
	conv, err := svc.Create(ctx, userID, CreateConversationInput{ParticipantIDs: []uuid.UUID{uuid.New()}})
	assert.NoError(t, err)

	assert.NoError(t, svc.Leave(ctx, userID, conv.ID))

	updates := events.byTable(realtime.TableConversations)
	if assert.Len(t, updates, 1) {
		assert.Equal(t, realtime.EventUpdate, updates[0].Kind)
		assert.Equal(t, conv.ID, updates[0].RowID)
	}
}

func TestConversationService_MarkAsRead_OwnRowOnly(t *testing.T) {
	repo := newMockConversationRepo()
	svc := NewConversationService(repo, newMockMessageRepo(), nil)
	ctx := context.Background()

	userID := uuid.New()
	conv, err := svc.Create(ctx, userID, CreateConversationInput{ParticipantIDs: []uuid.UUID{uuid.New()}})
	assert.NoError(t, err)

	assert.NoError(t, svc.MarkAsRead(ctx, userID, conv.ID))

	// Отметка ставится строке вызывающего, а не всем участникам
	if assert.Len(t, repo.markedRead, 1) {
		assert.Equal(t, conv.ID, repo.markedRead[0].conversationID)
		assert.Equal(t, userID, repo.markedRead[0].userID)
	}
}

func TestConversationService_SendMessage_Validation(t *testing.T) {
	repo := newMockConversationRepo()
	svc := NewConversationService(repo, newMockMessageRepo(), nil)
	ctx := context.Background()

	userID := uuid.New()
	conv, err := svc.Create(ctx, userID, CreateConversationInput{ParticipantIDs: []uuid.UUID{uuid.New()}})
	assert.NoError(t, err)

	_, err = svc.SendMessage(ctx, userID, conv.ID, "   ")
	assert.True(t, apperror.IsValidation(err))

	// Не участник не может писать в переписку
	_, err = svc.SendMessage(ctx, uuid.New(), conv.ID, "текст")
	assert.ErrorIs(t, err, repository.ErrParticipantNotFound)
}

func TestConversationService_Unauthorized(t *testing.T) {
	svc := NewConversationService(newMockConversationRepo(), newMockMessageRepo(), nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, uuid.Nil, CreateConversationInput{})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	assert.ErrorIs(t, svc.MarkAsRead(ctx, uuid.Nil, uuid.New()), apperror.ErrUnauthorized)
	assert.ErrorIs(t, svc.Leave(ctx, uuid.Nil, uuid.New()), apperror.ErrUnauthorized)

	_, err = svc.SendMessage(ctx, uuid.Nil, uuid.New(), "текст")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}
