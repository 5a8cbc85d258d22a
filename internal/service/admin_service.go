package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/campusfound/lostfound-backend/internal/goroutine"
	"github.com/campusfound/lostfound-backend/internal/models"
	"github.com/campusfound/lostfound-backend/internal/pkg/apperror"
)

// AdminItemRepository описывает узкий срез репозитория объявлений для модерации.
type AdminItemRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, rejectReason *string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// AdminUserRepository описывает срез репозитория пользователей для модерации.
type AdminUserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	SetBanned(ctx context.Context, userID uuid.UUID, banned bool, reason *string) error
	UpdateRole(ctx context.Context, userID uuid.UUID, role string) error
	ListUsers(ctx context.Context, limit, offset int) ([]models.User, error)
}

// AuditLog описывает append-only журнал действий модерации.
type AuditLog interface {
	Create(ctx context.Context, action *models.AdminAction) error
}

// Notifier отправляет уведомление пользователю.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind string, data interface{}) (*models.Notification, error)
}

// AdminService реализует операции модерации: переходы статусов объявлений
// и пользователей, каждый в паре с записью журнала и уведомлением владельцу.
//
// Порядок внутри операции строго последовательный: сначала завершается
// основное обновление, затем журнал, затем уведомление. Журнал и
// уведомление — best-effort: их ошибка логируется и подавляется, основное
// обновление не откатывается.
type AdminService struct {
	items    AdminItemRepository
	users    AdminUserRepository
	audit    AuditLog
	notifier Notifier
	cache    *CacheService
	recovery *goroutine.RecoveryHandler
}

// NewAdminService создаёт сервис модерации.
func NewAdminService(items AdminItemRepository, users AdminUserRepository, audit AuditLog, notifier Notifier, cache *CacheService) *AdminService {
	return &AdminService{
		items:    items,
		users:    users,
		audit:    audit,
		notifier: notifier,
		cache:    cache,
		recovery: goroutine.DefaultRecoveryHandler,
	}
}

// itemNotificationData — полезная нагрузка уведомления владельцу объявления.
type itemNotificationData struct {
	ItemID  uuid.UUID `json:"item_id"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	Reason  string    `json:"reason,omitempty"`
}

// ApproveItem переводит объявление в approved.
// Возвращает снимок объявления до перехода.
func (s *AdminService) ApproveItem(ctx context.Context, actorID, itemID uuid.UUID) (*models.Item, error) {
	return s.itemTransition(ctx, actorID, itemID, models.ItemStatusApproved, models.ActionApproveItem, nil,
		models.NotificationItemApproved, "Ваше объявление «%s» одобрено и опубликовано")
}

// RejectItem переводит объявление в rejected. Причина обязательна.
func (s *AdminService) RejectItem(ctx context.Context, actorID, itemID uuid.UUID, reason string) (*models.Item, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "причина отклонения обязательна")
	}
	return s.itemTransition(ctx, actorID, itemID, models.ItemStatusRejected, models.ActionRejectItem, &reason,
		models.NotificationItemRejected, "Ваше объявление «%s» отклонено")
}

// ResolveItem отмечает объявление как завершённое (вещь вернулась к владельцу).
func (s *AdminService) ResolveItem(ctx context.Context, actorID, itemID uuid.UUID) (*models.Item, error) {
	return s.itemTransition(ctx, actorID, itemID, models.ItemStatusResolved, models.ActionResolveItem, nil,
		models.NotificationItemResolved, "Ваше объявление «%s» отмечено как завершённое")
}

// DeleteItem удаляет объявление. Уведомление владельцу не отправляется.
func (s *AdminService) DeleteItem(ctx context.Context, actorID, itemID uuid.UUID, reason *string) (*models.Item, error) {
	if actorID == uuid.Nil {
		return nil, apperror.ErrUnauthorized
	}

	// Снимок до изменения: и для журнала, и для ответа вызывающему
	before, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if err := s.items.Delete(ctx, itemID); err != nil {
		return nil, err
	}

	s.recordItemAction(ctx, actorID, models.ActionDeleteItem, before, reason)
	s.invalidateItems()

	return before, nil
}

// itemTransition — общий сценарий перехода статуса объявления.
func (s *AdminService) itemTransition(ctx context.Context, actorID, itemID uuid.UUID, status, actionKind string, reason *string, notificationKind, messageFormat string) (*models.Item, error) {
	if actorID == uuid.Nil {
		return nil, apperror.ErrUnauthorized
	}

	before, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if err := s.items.UpdateStatus(ctx, itemID, status, reason); err != nil {
		return nil, err
	}

	// Журнал дожидается завершения перед уведомлением, чтобы фиксировать
	// реально применённый переход
	s.recordItemAction(ctx, actorID, actionKind, before, reason)

	message := fmt.Sprintf(messageFormat, before.Title)
	data := itemNotificationData{ItemID: before.ID, Title: before.Title, Message: message}
	if reason != nil {
		data.Reason = *reason
		data.Message = message + ": " + *reason
	}

	s.recovery.BestEffort(ctx, "notify "+notificationKind, func(ctx context.Context) error {
		_, err := s.notifier.Notify(ctx, before.UserID, notificationKind, data)
		return err
	})

	s.invalidateItems()

	return before, nil
}

// recordItemAction пишет в журнал снимок объявления до перехода.
func (s *AdminService) recordItemAction(ctx context.Context, actorID uuid.UUID, actionKind string, before *models.Item, reason *string) {
	s.recovery.BestEffort(ctx, "audit "+actionKind, func(ctx context.Context) error {
		details, err := json.Marshal(map[string]interface{}{
			"title":           before.Title,
			"previous_status": before.Status,
			"owner_id":        before.UserID,
		})
		if err != nil {
			return err
		}

		return s.audit.Create(ctx, &models.AdminAction{
			ActorID:    actorID,
			Action:     actionKind,
			TargetType: models.TargetTypeItem,
			TargetID:   before.ID,
			Reason:     reason,
			Details:    details,
		})
	})
}

// BanUser блокирует пользователя. Причина обязательна.
// Возвращает снимок пользователя до блокировки.
func (s *AdminService) BanUser(ctx context.Context, actorID, userID uuid.UUID, reason string) (*models.User, error) {
	if actorID == uuid.Nil {
		return nil, apperror.ErrUnauthorized
	}
	if strings.TrimSpace(reason) == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "причина блокировки обязательна")
	}

	before, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.users.SetBanned(ctx, userID, true, &reason); err != nil {
		return nil, err
	}

	s.recordUserAction(ctx, actorID, models.ActionBanUser, before, &reason, nil)

	s.recovery.BestEffort(ctx, "notify "+models.NotificationAccountBanned, func(ctx context.Context) error {
		_, err := s.notifier.Notify(ctx, userID, models.NotificationAccountBanned, map[string]string{
			"message": "Ваш аккаунт заблокирован: " + reason,
			"reason":  reason,
		})
		return err
	})

	s.invalidateUsers()

	return before, nil
}

// UnbanUser снимает блокировку.
func (s *AdminService) UnbanUser(ctx context.Context, actorID, userID uuid.UUID) (*models.User, error) {
	if actorID == uuid.Nil {
		return nil, apperror.ErrUnauthorized
	}

	before, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.users.SetBanned(ctx, userID, false, nil); err != nil {
		return nil, err
	}

	s.recordUserAction(ctx, actorID, models.ActionUnbanUser, before, nil, nil)

	s.recovery.BestEffort(ctx, "notify "+models.NotificationAccountUnbanned, func(ctx context.Context) error {
		_, err := s.notifier.Notify(ctx, userID, models.NotificationAccountUnbanned, map[string]string{
			"message": "Блокировка вашего аккаунта снята",
		})
		return err
	})

	s.invalidateUsers()

	return before, nil
}

// ChangeUserRole меняет роль пользователя и фиксирует переход в журнале.
func (s *AdminService) ChangeUserRole(ctx context.Context, actorID, userID uuid.UUID, role string) (*models.User, error) {
	if actorID == uuid.Nil {
		return nil, apperror.ErrUnauthorized
	}

	if role != models.RoleStudent && role != models.RoleAdmin && role != models.RoleSuperAdmin {
		return nil, apperror.New(apperror.ErrCodeValidation, "неизвестная роль: "+role)
	}

	before, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.users.UpdateRole(ctx, userID, role); err != nil {
		return nil, err
	}

	s.recordUserAction(ctx, actorID, models.ActionChangeUserRole, before, nil, map[string]interface{}{
		"previous_role": before.Role,
		"new_role":      role,
	})

	s.invalidateUsers()

	return before, nil
}

// ListUsers возвращает пользователей для панели модерации.
// Страницы кэшируются; любая операция над пользователем их сбрасывает.
func (s *AdminService) ListUsers(ctx context.Context, actorID uuid.UUID, limit, offset int) ([]models.User, error) {
	if actorID == uuid.Nil {
		return nil, apperror.ErrUnauthorized
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	if s.cache == nil {
		return s.users.ListUsers(ctx, limit, offset)
	}

	value, err := s.cache.GetOrSet(ctx, UsersListCacheKey(limit, offset), TTLUsersList, func() (interface{}, error) {
		return s.users.ListUsers(ctx, limit, offset)
	})
	if err != nil {
		return nil, err
	}

	return value.([]models.User), nil
}

// recordUserAction пишет в журнал действие над пользователем.
func (s *AdminService) recordUserAction(ctx context.Context, actorID uuid.UUID, actionKind string, before *models.User, reason *string, extra map[string]interface{}) {
	s.recovery.BestEffort(ctx, "audit "+actionKind, func(ctx context.Context) error {
		payload := map[string]interface{}{
			"username":      before.Username,
			"was_banned":    before.IsBanned,
			"previous_role": before.Role,
		}
		for k, v := range extra {
			payload[k] = v
		}

		details, err := json.Marshal(payload)
		if err != nil {
			return err
		}

		return s.audit.Create(ctx, &models.AdminAction{
			ActorID:    actorID,
			Action:     actionKind,
			TargetType: models.TargetTypeUser,
			TargetID:   before.ID,
			Reason:     reason,
			Details:    details,
		})
	})
}

// invalidateItems помечает устаревшими списки объявлений и статистику.
func (s *AdminService) invalidateItems() {
	if s.cache == nil {
		return
	}
	s.cache.InvalidateByPrefix("items:")
	s.cache.Invalidate(AdminStatsCacheKey())
}

// invalidateUsers помечает устаревшими списки пользователей и статистику.
func (s *AdminService) invalidateUsers() {
	if s.cache == nil {
		return
	}
	s.cache.InvalidateByPrefix("users:")
	s.cache.Invalidate(AdminStatsCacheKey())
}
