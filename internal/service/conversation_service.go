package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/campusfound/lostfound-backend/internal/goroutine"
	"github.com/campusfound/lostfound-backend/internal/models"
	"github.com/campusfound/lostfound-backend/internal/pkg/apperror"
	"github.com/campusfound/lostfound-backend/internal/realtime"
)

// ConversationRepository описывает хранилище переписок.
type ConversationRepository interface {
	CreateWithParticipants(ctx context.Context, conv *models.Conversation, participants []models.ConversationParticipant) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Conversation, error)
	GetParticipant(ctx context.Context, conversationID, userID uuid.UUID) (*models.ConversationParticipant, error)
	MarkAsRead(ctx context.Context, conversationID, userID uuid.UUID) error
	Leave(ctx context.Context, conversationID, userID uuid.UUID) error
	TouchLastMessage(ctx context.Context, conversationID, senderID uuid.UUID) error
}

// ConversationMessageRepository описывает хранилище сообщений.
type ConversationMessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	ListByConversation(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]models.Message, error)
	CountUnread(ctx context.Context, conversationID, userID uuid.UUID) (int, error)
}

// ConversationWatcher пересоздаёт realtime-подписки под набор переписок.
type ConversationWatcher interface {
	Watch(userID uuid.UUID, conversationIDs []uuid.UUID)
}

// EventPublisher публикует событие изменения строки в канал изменений.
type EventPublisher interface {
	Publish(ctx context.Context, event realtime.Event) error
}

// CreateConversationInput — входные данные создания переписки.
type CreateConversationInput struct {
	Type           string
	Title          *string
	ItemID         *uuid.UUID
	ParticipantIDs []uuid.UUID
}

// ConversationService синхронизирует список переписок пользователя:
// выборка с количеством непрочитанного, создание, отметка прочтения,
// выход. Каждая мутация помечает кэш списка устаревшим.
type ConversationService struct {
	convs    ConversationRepository
	messages ConversationMessageRepository
	cache    *CacheService
	watcher  ConversationWatcher
	events   EventPublisher
	notifier Notifier
	recovery *goroutine.RecoveryHandler
}

// NewConversationService создаёт сервис переписок.
func NewConversationService(convs ConversationRepository, messages ConversationMessageRepository, cache *CacheService) *ConversationService {
	return &ConversationService{
		convs:    convs,
		messages: messages,
		cache:    cache,
		recovery: goroutine.DefaultRecoveryHandler,
	}
}

// SetWatcher подключает пересоздание realtime-подписок после выборки.
func (s *ConversationService) SetWatcher(watcher ConversationWatcher) {
	s.watcher = watcher
}

// SetEventPublisher подключает публикацию событий изменений.
func (s *ConversationService) SetEventPublisher(events EventPublisher) {
	s.events = events
}

// SetNotifier подключает отправку уведомлений о новых сообщениях.
func (s *ConversationService) SetNotifier(notifier Notifier) {
	s.notifier = notifier
}

// ListForUser возвращает переписки пользователя с количеством
// непрочитанных сообщений. Для неаутентифицированного вызова возвращается
// пустой список. Счётчики непрочитанного считаются конкурентно по одной
// переписке; после успешной выборки фильтр realtime-подписки
// пересоздаётся под новый набор идентификаторов.
func (s *ConversationService) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Conversation, error) {
	if userID == uuid.Nil {
		return []models.Conversation{}, nil
	}

	if s.cache == nil {
		return s.fetchForUser(ctx, userID)
	}

	value, err := s.cache.GetOrSet(ctx, ConversationsCacheKey(userID), TTLConversations, func() (interface{}, error) {
		convs, err := s.fetchForUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		return convs, nil
	})
	if err != nil {
		return nil, err
	}

	return value.([]models.Conversation), nil
}

// fetchForUser читает переписки из БД, дополняет их счётчиками
// непрочитанного и пересоздаёт realtime-подписки под новый набор.
func (s *ConversationService) fetchForUser(ctx context.Context, userID uuid.UUID) ([]models.Conversation, error) {
	convs, err := s.convs.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Непрочитанное по каждой переписке — конкурентно
	g, gctx := errgroup.WithContext(ctx)
	for i := range convs {
		i := i
		g.Go(func() error {
			count, err := s.messages.CountUnread(gctx, convs[i].ID, userID)
			if err != nil {
				return err
			}
			convs[i].UnreadCount = count
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if s.watcher != nil {
		ids := make([]uuid.UUID, 0, len(convs))
		for i := range convs {
			ids = append(ids, convs[i].ID)
		}
		s.watcher.Watch(userID, ids)
	}

	return convs, nil
}

// Create создаёт переписку. Создатель всегда получает роль admin, остальные
// участники — member; повторяющиеся идентификаторы не создают дублей.
// Переписка и участники пишутся одной транзакцией.
func (s *ConversationService) Create(ctx context.Context, userID uuid.UUID, in CreateConversationInput) (*models.Conversation, error) {
	if userID == uuid.Nil {
		return nil, apperror.ErrUnauthorized
	}

	convType := in.Type
	if convType == "" {
		convType = models.ConversationTypeDirect
	}

	conv := &models.Conversation{
		Type:   convType,
		Title:  in.Title,
		ItemID: in.ItemID,
	}

	// Создатель первым, затем остальные без дублей
	seen := map[uuid.UUID]struct{}{userID: {}}
	participants := []models.ConversationParticipant{
		{UserID: userID, Role: models.ParticipantRoleAdmin, IsActive: true},
	}
	for _, id := range in.ParticipantIDs {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		participants = append(participants, models.ConversationParticipant{
			UserID:   id,
			Role:     models.ParticipantRoleMember,
			IsActive: true,
		})
	}

	if err := s.convs.CreateWithParticipants(ctx, conv, participants); err != nil {
		return nil, err
	}

	s.invalidateLists(participants)

	return conv, nil
}

// MarkAsRead обновляет отметку прочтения только собственной строки участника.
func (s *ConversationService) MarkAsRead(ctx context.Context, userID, conversationID uuid.UUID) error {
	if userID == uuid.Nil {
		return apperror.ErrUnauthorized
	}

	if err := s.convs.MarkAsRead(ctx, conversationID, userID); err != nil {
		return err
	}

	if s.cache != nil {
		s.cache.Invalidate(ConversationsCacheKey(userID))
	}

	return nil
}

// Leave деактивирует собственную строку участника; история сохраняется.
// Остальные участники узнают об изменении через событие обновления переписки.
func (s *ConversationService) Leave(ctx context.Context, userID, conversationID uuid.UUID) error {
	if userID == uuid.Nil {
		return apperror.ErrUnauthorized
	}

	if err := s.convs.Leave(ctx, conversationID, userID); err != nil {
		return err
	}

	if s.cache != nil {
		s.cache.Invalidate(ConversationsCacheKey(userID))
	}

	s.publishConversationUpdate(ctx, conversationID)

	return nil
}

// ListMessages возвращает сообщения переписки (только активным участникам).
func (s *ConversationService) ListMessages(ctx context.Context, userID, conversationID uuid.UUID, limit, offset int) ([]models.Message, error) {
	if userID == uuid.Nil {
		return nil, apperror.ErrUnauthorized
	}

	if _, err := s.convs.GetParticipant(ctx, conversationID, userID); err != nil {
		return nil, err
	}

	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	return s.messages.ListByConversation(ctx, conversationID, limit, offset)
}

// SendMessage сохраняет сообщение, обновляет денормализованные поля
// переписки и публикует в канал изменений два события: вставку сообщения
// и обновление строки переписки (его ловят фильтрованные подписки
// остальных участников). Уведомления остальным активным участникам —
// best-effort.
func (s *ConversationService) SendMessage(ctx context.Context, userID, conversationID uuid.UUID, content string) (*models.Message, error) {
	if userID == uuid.Nil {
		return nil, apperror.ErrUnauthorized
	}
	if strings.TrimSpace(content) == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "сообщение не может быть пустым")
	}

	if _, err := s.convs.GetParticipant(ctx, conversationID, userID); err != nil {
		return nil, err
	}

	msg := &models.Message{
		ConversationID: conversationID,
		SenderID:       userID,
		Content:        content,
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}

	if err := s.convs.TouchLastMessage(ctx, conversationID, userID); err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Invalidate(ConversationsCacheKey(userID))
	}

	if s.events != nil {
		s.recovery.BestEffort(ctx, "publish message insert", func(ctx context.Context) error {
			return s.events.Publish(ctx, realtime.Event{
				Table: realtime.TableMessages,
				Kind:  realtime.EventInsert,
				RowID: msg.ID,
			})
		})
	}
	s.publishConversationUpdate(ctx, conversationID)

	if s.notifier != nil {
		s.notifyParticipants(ctx, conversationID, userID, msg)
	}

	return msg, nil
}

// publishConversationUpdate рассылает событие изменения строки переписки
// после записи в БД. Без него фильтрованным подпискам нечего ловить.
func (s *ConversationService) publishConversationUpdate(ctx context.Context, conversationID uuid.UUID) {
	if s.events == nil {
		return
	}
	s.recovery.BestEffort(ctx, "publish conversation update", func(ctx context.Context) error {
		return s.events.Publish(ctx, realtime.Event{
			Table: realtime.TableConversations,
			Kind:  realtime.EventUpdate,
			RowID: conversationID,
		})
	})
}

// notifyParticipants отправляет new_message остальным активным участникам.
func (s *ConversationService) notifyParticipants(ctx context.Context, conversationID, senderID uuid.UUID, msg *models.Message) {
	s.recovery.BestEffort(ctx, "notify new_message", func(ctx context.Context) error {
		conv, err := s.convs.GetByID(ctx, conversationID)
		if err != nil {
			return err
		}

		// Участники могли быть не загружены: берём их из полного списка
		participants := conv.Participants
		if len(participants) == 0 {
			full, err := s.convs.ListForUser(ctx, senderID)
			if err != nil {
				return err
			}
			for i := range full {
				if full[i].ID == conversationID {
					participants = full[i].Participants
					break
				}
			}
		}

		for _, p := range participants {
			if !p.IsActive || p.UserID == senderID {
				continue
			}
			if _, err := s.notifier.Notify(ctx, p.UserID, models.NotificationNewMessage, map[string]interface{}{
				"conversation_id": conversationID,
				"message_id":      msg.ID,
			}); err != nil {
				return err
			}
		}

		return nil
	})
}

// invalidateLists помечает устаревшими списки всех участников.
func (s *ConversationService) invalidateLists(participants []models.ConversationParticipant) {
	if s.cache == nil {
		return
	}
	for _, p := range participants {
		s.cache.Invalidate(ConversationsCacheKey(p.UserID))
	}
}
