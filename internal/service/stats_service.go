package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/campusfound/lostfound-backend/internal/goroutine"
	"github.com/campusfound/lostfound-backend/internal/logger"
	"github.com/campusfound/lostfound-backend/internal/models"
)

// StatsItemRepository — счётчики объявлений для статистики.
type StatsItemRepository interface {
	CountByStatus(ctx context.Context, status string) (int, error)
	TotalViews(ctx context.Context) (int, error)
}

// StatsUserRepository — счётчик пользователей для статистики.
type StatsUserRepository interface {
	CountUsers(ctx context.Context) (int, error)
}

// StatsAuditRepository — последние записи журнала для статистики.
type StatsAuditRepository interface {
	ListRecent(ctx context.Context, limit int) ([]models.AdminAction, error)
}

// StatsService собирает агрегат для панели модерации.
type StatsService struct {
	items StatsItemRepository
	users StatsUserRepository
	audit StatsAuditRepository
	cache *CacheService
}

// NewStatsService создаёт сервис статистики.
func NewStatsService(items StatsItemRepository, users StatsUserRepository, audit StatsAuditRepository, cache *CacheService) *StatsService {
	return &StatsService{
		items: items,
		users: users,
		audit: audit,
		cache: cache,
	}
}

// recentActionsLimit — сколько последних записей журнала попадает в агрегат.
const recentActionsLimit = 5

// GetAdminStats возвращает агрегат статистики. Шесть счётчиков и выборка
// журнала выполняются конкурентно; ошибка любого запроса проваливает весь
// агрегат — частичный результат не возвращается. Результат кэшируется.
func (s *StatsService) GetAdminStats(ctx context.Context) (*models.AdminStats, error) {
	if s.cache == nil {
		return s.computeStats(ctx)
	}

	value, err := s.cache.GetOrSet(ctx, AdminStatsCacheKey(), TTLAdminStats, func() (interface{}, error) {
		return s.computeStats(ctx)
	})
	if err != nil {
		return nil, err
	}

	return value.(*models.AdminStats), nil
}

// StartBackgroundRefresh периодически пересчитывает агрегат в фоне, чтобы
// панель модерации получала свежие данные без ожидания пересчёта.
// Останавливается по отмене контекста.
func (s *StatsService) StartBackgroundRefresh(ctx context.Context, interval time.Duration) {
	goroutine.SafeGoWithContext(ctx, func(ctx context.Context) {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stats, err := s.computeStats(ctx)
				if err != nil {
					logger.Component("stats").WithError(err).Warn("фоновое обновление статистики не удалось")
					continue
				}
				if s.cache != nil {
					s.cache.Set(AdminStatsCacheKey(), stats, TTLAdminStats)
				}
			}
		}
	})
}

func (s *StatsService) computeStats(ctx context.Context) (*models.AdminStats, error) {
	var stats models.AdminStats

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		count, err := s.items.CountByStatus(gctx, models.ItemStatusPending)
		stats.PendingItems = count
		return err
	})
	g.Go(func() error {
		count, err := s.items.CountByStatus(gctx, models.ItemStatusApproved)
		stats.ApprovedItems = count
		return err
	})
	g.Go(func() error {
		count, err := s.items.CountByStatus(gctx, models.ItemStatusResolved)
		stats.ResolvedItems = count
		return err
	})
	g.Go(func() error {
		count, err := s.items.CountByStatus(gctx, models.ItemStatusRejected)
		stats.RejectedItems = count
		return err
	})
	g.Go(func() error {
		count, err := s.users.CountUsers(gctx)
		stats.TotalUsers = count
		return err
	})
	g.Go(func() error {
		total, err := s.items.TotalViews(gctx)
		stats.TotalViews = total
		return err
	})
	g.Go(func() error {
		actions, err := s.audit.ListRecent(gctx, recentActionsLimit)
		stats.RecentActions = actions
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &stats, nil
}
