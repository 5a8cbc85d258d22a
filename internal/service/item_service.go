package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/campusfound/lostfound-backend/internal/goroutine"
	"github.com/campusfound/lostfound-backend/internal/models"
	"github.com/campusfound/lostfound-backend/internal/pkg/apperror"
	"github.com/campusfound/lostfound-backend/internal/realtime"
)

const defaultItemPageSize = 50

// ItemRepository описывает хранилище объявлений.
type ItemRepository interface {
	Create(ctx context.Context, item *models.Item) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error)
	GetByIDWithDetails(ctx context.Context, id uuid.UUID) (*models.Item, error)
	List(ctx context.Context, filter models.ItemFilter) ([]models.Item, error)
	ListByUser(ctx context.Context, userID uuid.UUID, filter models.ItemFilter) ([]models.Item, error)
	Update(ctx context.Context, item *models.Item) error
	Delete(ctx context.Context, id uuid.UUID) error
	IncrementViews(ctx context.Context, id uuid.UUID) error
	AttachPhoto(ctx context.Context, itemID, mediaID uuid.UUID) error
}

// CatalogRepository описывает справочники категорий и мест.
type CatalogRepository interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListLocations(ctx context.Context) ([]models.Location, error)
}

// CreateItemInput — входные данные объявления.
type CreateItemInput struct {
	Type         string
	Title        string
	Description  string
	CategoryID   *uuid.UUID
	LocationID   *uuid.UUID
	RewardAmount *float64
	PhotoIDs     []uuid.UUID
}

// ItemService управляет объявлениями: публичная выборка одобренных,
// личный список владельца, создание и редактирование до модерации.
type ItemService struct {
	items    ItemRepository
	catalog  CatalogRepository
	cache    *CacheService
	events   EventPublisher
	recovery *goroutine.RecoveryHandler
}

// NewItemService создаёт сервис объявлений.
func NewItemService(items ItemRepository, catalog CatalogRepository, cache *CacheService) *ItemService {
	return &ItemService{
		items:    items,
		catalog:  catalog,
		cache:    cache,
		recovery: goroutine.DefaultRecoveryHandler,
	}
}

// SetEventPublisher подключает публикацию событий изменений.
func (s *ItemService) SetEventPublisher(events EventPublisher) {
	s.events = events
}

// List возвращает одобренные объявления по фильтру. Статус фильтра
// всегда перекрывается: черновики и отклонённые наружу не выходят.
func (s *ItemService) List(ctx context.Context, filter models.ItemFilter) ([]models.Item, error) {
	filter.Status = models.ItemStatusApproved
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = defaultItemPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	if s.cache == nil {
		return s.items.List(ctx, filter)
	}

	key := ItemListCacheKey(filter.Status, filter.Type, filter.Search, filter.Limit, filter.Offset)
	value, err := s.cache.GetOrSet(ctx, key, TTLItemList, func() (interface{}, error) {
		return s.items.List(ctx, filter)
	})
	if err != nil {
		return nil, err
	}

	return value.([]models.Item), nil
}

// ListMine возвращает объявления пользователя во всех статусах, включая
// отклонённые с причиной. Без аутентификации — ошибка, а не пустой список.
func (s *ItemService) ListMine(ctx context.Context, userID uuid.UUID, filter models.ItemFilter) ([]models.Item, error) {
	if userID == uuid.Nil {
		return nil, apperror.ErrUnauthorized
	}

	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = defaultItemPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	// Кэшируется только первая страница без фильтров
	cacheable := filter.Status == "" && filter.Type == "" && filter.Search == "" && filter.Offset == 0
	if s.cache == nil || !cacheable {
		return s.items.ListByUser(ctx, userID, filter)
	}

	value, err := s.cache.GetOrSet(ctx, MyItemsCacheKey(userID), TTLMyItems, func() (interface{}, error) {
		return s.items.ListByUser(ctx, userID, filter)
	})
	if err != nil {
		return nil, err
	}

	return value.([]models.Item), nil
}

// GetItem возвращает объявление с категорией, местом, владельцем и фото.
// Просмотр чужого одобренного объявления увеличивает счётчик просмотров;
// неодобренное видно только владельцу.
func (s *ItemService) GetItem(ctx context.Context, id uuid.UUID, viewerID uuid.UUID) (*models.Item, error) {
	item, err := s.items.GetByIDWithDetails(ctx, id)
	if err != nil {
		return nil, err
	}

	if item.Status != models.ItemStatusApproved && item.UserID != viewerID {
		return nil, apperror.ErrItemNotFound
	}

	if item.Status == models.ItemStatusApproved && viewerID != item.UserID {
		s.recovery.BestEffort(ctx, "increment item views", func(ctx context.Context) error {
			return s.items.IncrementViews(ctx, id)
		})
		item.ViewsCount++
	}

	return item, nil
}

// Report создаёт объявление в статусе pending: наружу оно попадёт только
// после одобрения модератором.
func (s *ItemService) Report(ctx context.Context, userID uuid.UUID, in CreateItemInput) (*models.Item, error) {
	if userID == uuid.Nil {
		return nil, apperror.ErrUnauthorized
	}
	if err := validateItemInput(in); err != nil {
		return nil, err
	}

	item := &models.Item{
		UserID:       userID,
		Type:         in.Type,
		Title:        strings.TrimSpace(in.Title),
		Description:  strings.TrimSpace(in.Description),
		Status:       models.ItemStatusPending,
		CategoryID:   in.CategoryID,
		LocationID:   in.LocationID,
		RewardAmount: in.RewardAmount,
	}

	if err := s.items.Create(ctx, item); err != nil {
		return nil, err
	}

	for _, photoID := range in.PhotoIDs {
		if err := s.items.AttachPhoto(ctx, item.ID, photoID); err != nil {
			return nil, err
		}
	}

	s.invalidate()
	s.publishChange(ctx, realtime.EventInsert, item.ID)

	return item, nil
}

// UpdateItem редактирует объявление. Доступно только владельцу и только
// пока объявление не прошло модерацию.
func (s *ItemService) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, in CreateItemInput) (*models.Item, error) {
	if userID == uuid.Nil {
		return nil, apperror.ErrUnauthorized
	}
	if err := validateItemInput(in); err != nil {
		return nil, err
	}

	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.UserID != userID {
		return nil, apperror.ErrForbidden
	}
	if item.Status != models.ItemStatusPending {
		return nil, apperror.New(apperror.ErrCodeConflict, "объявление уже прошло модерацию")
	}

	item.Type = in.Type
	item.Title = strings.TrimSpace(in.Title)
	item.Description = strings.TrimSpace(in.Description)
	item.CategoryID = in.CategoryID
	item.LocationID = in.LocationID
	item.RewardAmount = in.RewardAmount

	if err := s.items.Update(ctx, item); err != nil {
		return nil, err
	}

	s.invalidate()
	s.publishChange(ctx, realtime.EventUpdate, itemID)

	return item, nil
}

// DeleteOwn удаляет объявление владельца вместе со связями на фото.
func (s *ItemService) DeleteOwn(ctx context.Context, userID, itemID uuid.UUID) error {
	if userID == uuid.Nil {
		return apperror.ErrUnauthorized
	}

	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return err
	}
	if item.UserID != userID {
		return apperror.ErrForbidden
	}

	if err := s.items.Delete(ctx, itemID); err != nil {
		return err
	}

	s.invalidate()
	s.publishChange(ctx, realtime.EventDelete, itemID)

	return nil
}

// Categories возвращает справочник категорий (кэш на несколько минут).
func (s *ItemService) Categories(ctx context.Context) ([]models.Category, error) {
	if s.cache == nil {
		return s.catalog.ListCategories(ctx)
	}

	value, err := s.cache.GetOrSet(ctx, CatalogCacheKey("categories"), TTLCatalog, func() (interface{}, error) {
		return s.catalog.ListCategories(ctx)
	})
	if err != nil {
		return nil, err
	}

	return value.([]models.Category), nil
}

// Locations возвращает справочник мест кампуса.
func (s *ItemService) Locations(ctx context.Context) ([]models.Location, error) {
	if s.cache == nil {
		return s.catalog.ListLocations(ctx)
	}

	value, err := s.cache.GetOrSet(ctx, CatalogCacheKey("locations"), TTLCatalog, func() (interface{}, error) {
		return s.catalog.ListLocations(ctx)
	})
	if err != nil {
		return nil, err
	}

	return value.([]models.Location), nil
}

// invalidate помечает устаревшими все выборки объявлений: публичные
// и личные списки.
func (s *ItemService) invalidate() {
	if s.cache == nil {
		return
	}
	s.cache.InvalidateByPrefix("items:")
}

func (s *ItemService) publishChange(ctx context.Context, kind string, itemID uuid.UUID) {
	if s.events == nil {
		return
	}
	s.recovery.BestEffort(ctx, "publish item change", func(ctx context.Context) error {
		return s.events.Publish(ctx, realtime.Event{
			Table: realtime.TableItems,
			Kind:  kind,
			RowID: itemID,
		})
	})
}

func validateItemInput(in CreateItemInput) error {
	if in.Type != models.ItemTypeLost && in.Type != models.ItemTypeFound {
		return apperror.New(apperror.ErrCodeValidation, "тип должен быть lost или found")
	}
	if strings.TrimSpace(in.Title) == "" {
		return apperror.New(apperror.ErrCodeValidation, "заголовок не может быть пустым")
	}
	if len(in.Title) > 200 {
		return apperror.New(apperror.ErrCodeValidation, "заголовок слишком длинный")
	}
	if in.RewardAmount != nil && *in.RewardAmount < 0 {
		return apperror.New(apperror.ErrCodeValidation, "вознаграждение не может быть отрицательным")
	}
	return nil
}
