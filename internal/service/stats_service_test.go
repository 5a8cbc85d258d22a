package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/campusfound/lostfound-backend/internal/models"
)

type mockStatsItemRepo struct {
	mock.Mock
}

func (m *mockStatsItemRepo) CountByStatus(ctx context.Context, status string) (int, error) {
	args := m.Called(ctx, status)
	return args.Int(0), args.Error(1)
}

func (m *mockStatsItemRepo) TotalViews(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type mockStatsUserRepo struct {
	mock.Mock
}

func (m *mockStatsUserRepo) CountUsers(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type mockStatsAuditRepo struct {
	mock.Mock
}

func (m *mockStatsAuditRepo) ListRecent(ctx context.Context, limit int) ([]models.AdminAction, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]models.AdminAction), args.Error(1)
}

func TestStatsService_GetAdminStats(t *testing.T) {
	items := new(mockStatsItemRepo)
	users := new(mockStatsUserRepo)
	audit := new(mockStatsAuditRepo)
	svc := NewStatsService(items, users, audit, nil)
	ctx := context.Background()

	items.On("CountByStatus", mock.Anything, models.ItemStatusPending).Return(4, nil)
	items.On("CountByStatus", mock.Anything, models.ItemStatusApproved).Return(17, nil)
	items.On("CountByStatus", mock.Anything, models.ItemStatusResolved).Return(9, nil)
	items.On("CountByStatus", mock.Anything, models.ItemStatusRejected).Return(2, nil)
	items.On("TotalViews", mock.Anything).Return(341, nil)
	users.On("CountUsers", mock.Anything).Return(120, nil)
	audit.On("ListRecent", mock.Anything, recentActionsLimit).Return([]models.AdminAction{{Action: models.ActionApproveItem}}, nil)

	stats, err := svc.GetAdminStats(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 4, stats.PendingItems)
	assert.Equal(t, 17, stats.ApprovedItems)
	assert.Equal(t, 9, stats.ResolvedItems)
	assert.Equal(t, 2, stats.RejectedItems)
	assert.Equal(t, 120, stats.TotalUsers)
	assert.Equal(t, 341, stats.TotalViews)
	assert.Len(t, stats.RecentActions, 1)
}

func TestStatsService_GetAdminStats_PartialFailureFailsAll(t *testing.T) {
	items := new(mockStatsItemRepo)
	users := new(mockStatsUserRepo)
	audit := new(mockStatsAuditRepo)
	svc := NewStatsService(items, users, audit, nil)
	ctx := context.Background()

	items.On("CountByStatus", mock.Anything, mock.Anything).Return(1, nil)
	items.On("TotalViews", mock.Anything).Return(10, nil)
	audit.On("ListRecent", mock.Anything, recentActionsLimit).Return([]models.AdminAction{}, nil)
	users.On("CountUsers", mock.Anything).Return(0, errors.New("users table unavailable"))

	// Ошибка одного счётчика проваливает весь агрегат
	stats, err := svc.GetAdminStats(ctx)
	assert.Error(t, err)
	assert.Nil(t, stats)
}

func TestStatsService_GetAdminStats_Cached(t *testing.T) {
	items := new(mockStatsItemRepo)
	users := new(mockStatsUserRepo)
	audit := new(mockStatsAuditRepo)
	cache := NewCacheService()
	svc := NewStatsService(items, users, audit, cache)
	ctx := context.Background()

	items.On("CountByStatus", mock.Anything, mock.Anything).Return(1, nil).Times(4)
	items.On("TotalViews", mock.Anything).Return(10, nil).Once()
	users.On("CountUsers", mock.Anything).Return(5, nil).Once()
	audit.On("ListRecent", mock.Anything, recentActionsLimit).Return([]models.AdminAction{}, nil).Once()

	first, err := svc.GetAdminStats(ctx)
	assert.NoError(t, err)

	// Повторный запрос обслуживается из кэша без обращения к репозиториям
	second, err := svc.GetAdminStats(ctx)
	assert.NoError(t, err)
	assert.Same(t, first, second)
	items.AssertExpectations(t)
	users.AssertExpectations(t)
}
