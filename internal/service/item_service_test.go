package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/campusfound/lostfound-backend/internal/models"
	"github.com/campusfound/lostfound-backend/internal/pkg/apperror"
)

type mockItemRepo struct {
	mock.Mock
}

func (m *mockItemRepo) Create(ctx context.Context, item *models.Item) error {
	args := m.Called(ctx, item)
	if args.Error(0) == nil {
		item.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockItemRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Item), args.Error(1)
}

func (m *mockItemRepo) GetByIDWithDetails(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Item), args.Error(1)
}

func (m *mockItemRepo) List(ctx context.Context, filter models.ItemFilter) ([]models.Item, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.Item), args.Error(1)
}

func (m *mockItemRepo) ListByUser(ctx context.Context, userID uuid.UUID, filter models.ItemFilter) ([]models.Item, error) {
	args := m.Called(ctx, userID, filter)
	return args.Get(0).([]models.Item), args.Error(1)
}

func (m *mockItemRepo) Update(ctx context.Context, item *models.Item) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *mockItemRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockItemRepo) IncrementViews(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockItemRepo) AttachPhoto(ctx context.Context, itemID, mediaID uuid.UUID) error {
	args := m.Called(ctx, itemID, mediaID)
	return args.Error(0)
}

type mockCatalogRepo struct {
	mock.Mock
}

func (m *mockCatalogRepo) ListCategories(ctx context.Context) ([]models.Category, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Category), args.Error(1)
}

func (m *mockCatalogRepo) ListLocations(ctx context.Context) ([]models.Location, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Location), args.Error(1)
}

func TestItemService_List_ForcesApprovedStatus(t *testing.T) {
	items := new(mockItemRepo)
	svc := NewItemService(items, new(mockCatalogRepo), nil)
	ctx := context.Background()

	// Даже если снаружи запрошен pending, выборка идёт по approved
	items.On("List", ctx, mock.MatchedBy(func(f models.ItemFilter) bool {
		return f.Status == models.ItemStatusApproved
	})).Return([]models.Item{}, nil)

	_, err := svc.List(ctx, models.ItemFilter{Status: models.ItemStatusPending})
	assert.NoError(t, err)
	items.AssertExpectations(t)
}

func TestItemService_ListMine_RequiresAuth(t *testing.T) {
	svc := NewItemService(new(mockItemRepo), new(mockCatalogRepo), nil)

	// Без аутентификации личный список отдаёт ошибку, не пустой срез
	_, err := svc.ListMine(context.Background(), uuid.Nil, models.ItemFilter{})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestItemService_GetItem_PendingHiddenFromStrangers(t *testing.T) {
	items := new(mockItemRepo)
	svc := NewItemService(items, new(mockCatalogRepo), nil)
	ctx := context.Background()

	ownerID := uuid.New()
	itemID := uuid.New()
	item := &models.Item{ID: itemID, UserID: ownerID, Status: models.ItemStatusPending}
	items.On("GetByIDWithDetails", ctx, itemID).Return(item, nil)

	// Чужой pending выглядит как отсутствующий
	_, err := svc.GetItem(ctx, itemID, uuid.New())
	assert.ErrorIs(t, err, apperror.ErrItemNotFound)

	// Владелец видит своё объявление в любом статусе
	got, err := svc.GetItem(ctx, itemID, ownerID)
	assert.NoError(t, err)
	assert.Equal(t, itemID, got.ID)
	items.AssertNotCalled(t, "IncrementViews", mock.Anything, mock.Anything)
}

func TestItemService_GetItem_CountsForeignViews(t *testing.T) {
	items := new(mockItemRepo)
	svc := NewItemService(items, new(mockCatalogRepo), nil)
	ctx := context.Background()

	itemID := uuid.New()
	item := &models.Item{ID: itemID, UserID: uuid.New(), Status: models.ItemStatusApproved, ViewsCount: 7}
	items.On("GetByIDWithDetails", ctx, itemID).Return(item, nil)
	items.On("IncrementViews", mock.Anything, itemID).Return(nil)

	got, err := svc.GetItem(ctx, itemID, uuid.New())
	assert.NoError(t, err)
	assert.Equal(t, 8, got.ViewsCount)
	items.AssertCalled(t, "IncrementViews", mock.Anything, itemID)
}

func TestItemService_Report(t *testing.T) {
	items := new(mockItemRepo)
	svc := NewItemService(items, new(mockCatalogRepo), nil)
	ctx := context.Background()

	userID := uuid.New()
	photoID := uuid.New()

	items.On("Create", ctx, mock.MatchedBy(func(item *models.Item) bool {
		return item.Status == models.ItemStatusPending && item.Title == "Синий рюкзак"
	})).Return(nil)
	items.On("AttachPhoto", ctx, mock.Anything, photoID).Return(nil)

	item, err := svc.Report(ctx, userID, CreateItemInput{
		Type:     models.ItemTypeLost,
		Title:    "  Синий рюкзак  ",
		PhotoIDs: []uuid.UUID{photoID},
	})
	assert.NoError(t, err)
	assert.Equal(t, models.ItemStatusPending, item.Status)
	items.AssertExpectations(t)
}

func TestItemService_Report_Validation(t *testing.T) {
	svc := NewItemService(new(mockItemRepo), new(mockCatalogRepo), nil)
	ctx := context.Background()
	userID := uuid.New()

	_, err := svc.Report(ctx, userID, CreateItemInput{Type: "stolen", Title: "Телефон"})
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.Report(ctx, userID, CreateItemInput{Type: models.ItemTypeLost, Title: "  "})
	assert.True(t, apperror.IsValidation(err))

	negative := -10.0
	_, err = svc.Report(ctx, userID, CreateItemInput{Type: models.ItemTypeLost, Title: "Телефон", RewardAmount: &negative})
	assert.True(t, apperror.IsValidation(err))
}

func TestItemService_UpdateItem_OnlyOwnerBeforeModeration(t *testing.T) {
	items := new(mockItemRepo)
	svc := NewItemService(items, new(mockCatalogRepo), nil)
	ctx := context.Background()

	ownerID := uuid.New()
	itemID := uuid.New()
	in := CreateItemInput{Type: models.ItemTypeFound, Title: "Ключи от аудитории"}

	items.On("GetByID", ctx, itemID).Return(&models.Item{ID: itemID, UserID: ownerID, Status: models.ItemStatusPending}, nil).Once()
	items.On("Update", ctx, mock.Anything).Return(nil).Once()

	_, err := svc.UpdateItem(ctx, ownerID, itemID, in)
	assert.NoError(t, err)

	// Чужое объявление редактировать нельзя
	items.On("GetByID", ctx, itemID).Return(&models.Item{ID: itemID, UserID: ownerID, Status: models.ItemStatusPending}, nil).Once()
	_, err = svc.UpdateItem(ctx, uuid.New(), itemID, in)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	// После модерации редактирование закрыто
	items.On("GetByID", ctx, itemID).Return(&models.Item{ID: itemID, UserID: ownerID, Status: models.ItemStatusApproved}, nil).Once()
	_, err = svc.UpdateItem(ctx, ownerID, itemID, in)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "модерацию")
}

func TestItemService_Catalog_Cached(t *testing.T) {
	catalog := new(mockCatalogRepo)
	cache := NewCacheService()
	svc := NewItemService(new(mockItemRepo), catalog, cache)
	ctx := context.Background()

	catalog.On("ListCategories", ctx).Return([]models.Category{{Name: "Документы"}}, nil).Once()

	first, err := svc.Categories(ctx)
	assert.NoError(t, err)
	second, err := svc.Categories(ctx)
	assert.NoError(t, err)
	assert.Equal(t, first, second)
	catalog.AssertExpectations(t)
}
