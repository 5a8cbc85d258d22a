package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/campusfound/lostfound-backend/internal/config"
	"github.com/campusfound/lostfound-backend/internal/db"
	httpHandlers "github.com/campusfound/lostfound-backend/internal/http/handlers"
	httpRouter "github.com/campusfound/lostfound-backend/internal/http/router"
	"github.com/campusfound/lostfound-backend/internal/logger"
	"github.com/campusfound/lostfound-backend/internal/realtime"
	"github.com/campusfound/lostfound-backend/internal/repository"
	"github.com/campusfound/lostfound-backend/internal/service"
	"github.com/campusfound/lostfound-backend/internal/storage"
	"github.com/campusfound/lostfound-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	if cfg.Env == "development" {
		logger.Init("debug")
		logger.SetTextFormatter()
	} else {
		logger.Init("info")
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	// Redis нужен для realtime между инстансами; без него события
	// доставляются только внутри процесса.
	var redisClient *redis.Client
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("main: redis недоступен (%v), realtime работает в одном процессе", err)
		_ = rdb.Close()
	} else {
		redisClient = rdb
		defer redisClient.Close()
	}

	// Инициализируем вспомогательные сервисы.
	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	photoStorage, err := storage.NewPhotoStorage(cfg.MediaStoragePath, cfg.MaxUploadSizeMB)
	if err != nil {
		log.Fatalf("main: не удалось подготовить файловое хранилище: %v", err)
	}

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	itemRepo := repository.NewItemRepository(dbConn)
	catalogRepo := repository.NewCatalogRepository(dbConn)
	conversationRepo := repository.NewConversationRepository(dbConn)
	messageRepo := repository.NewMessageRepository(dbConn)
	adminActionRepo := repository.NewAdminActionRepository(dbConn)
	notificationRepo := repository.NewNotificationRepository(dbConn)
	mediaRepo := repository.NewMediaRepository(dbConn)

	// Кэш и realtime.
	cache := service.NewCacheService()
	broker := realtime.NewBroker(redisClient)
	broker.StartListener(ctx)
	watcher := realtime.NewConversationWatcher(broker, cache, service.ConversationsCacheKey)

	// Сервисы.
	authService := service.NewAuthService(userRepo, tokenManager)
	notificationService := service.NewNotificationService(notificationRepo)
	itemService := service.NewItemService(itemRepo, catalogRepo, cache)
	itemService.SetEventPublisher(broker)
	conversationService := service.NewConversationService(conversationRepo, messageRepo, cache)
	conversationService.SetWatcher(watcher)
	conversationService.SetEventPublisher(broker)
	conversationService.SetNotifier(notificationService)
	adminService := service.NewAdminService(itemRepo, userRepo, adminActionRepo, notificationService, cache)
	statsService := service.NewStatsService(itemRepo, userRepo, adminActionRepo, cache)
	statsService.StartBackgroundRefresh(ctx, 30*time.Second)

	// Вебсокеты: уведомления уходят подключённым клиентам. Когда последнее
	// соединение пользователя закрывается, его realtime-подписки снимаются.
	hub := ws.NewHub()
	hub.SetDisconnectHandler(watcher.Unwatch)
	go hub.Run()
	notificationService.SetPusher(hub)

	// HTTP хэндлеры.
	authHandler := httpHandlers.NewAuthHandler(authService)
	itemHandler := httpHandlers.NewItemHandler(itemService)
	adminHandler := httpHandlers.NewAdminHandler(adminService, statsService)
	conversationHandler := httpHandlers.NewConversationHandler(conversationService)
	notificationHandler := httpHandlers.NewNotificationHandler(notificationService)
	catalogHandler := httpHandlers.NewCatalogHandler(itemService)
	mediaHandler := httpHandlers.NewMediaHandler(mediaRepo, photoStorage)
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager)
	healthHandler := httpHandlers.NewHealthHandler(dbConn, redisClient)

	// Роутер.
	engine := httpRouter.SetupRouter(
		cfg,
		authHandler,
		itemHandler,
		adminHandler,
		conversationHandler,
		notificationHandler,
		catalogHandler,
		mediaHandler,
		wsHandler,
		healthHandler,
		tokenManager,
	)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
