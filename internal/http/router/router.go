package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusfound/lostfound-backend/internal/config"
	"github.com/campusfound/lostfound-backend/internal/http/handlers"
	"github.com/campusfound/lostfound-backend/internal/http/middleware"
	"github.com/campusfound/lostfound-backend/internal/models"
	"github.com/campusfound/lostfound-backend/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	itemHandler *handlers.ItemHandler,
	adminHandler *handlers.AdminHandler,
	conversationHandler *handlers.ConversationHandler,
	notificationHandler *handlers.NotificationHandler,
	catalogHandler *handlers.CatalogHandler,
	mediaHandler *handlers.MediaHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)
	r.StaticFS("/media", http.Dir(cfg.MediaStoragePath))

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authRateLimit := middleware.RateLimitMiddleware(5, cfg.RateLimitPeriod)
	authGroup.Use(authRateLimit)
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.POST("/logout", authHandler.Logout)
	}

	protectedAuth := api.Group("/auth")
	protectedAuth.Use(middleware.AuthMiddleware(tokenManager))
	{
		protectedAuth.GET("/sessions", authHandler.ListSessions)
		protectedAuth.DELETE("/sessions/:id", authHandler.DeleteSession)
		protectedAuth.DELETE("/sessions", authHandler.DeleteAllSessionsExcept)
	}

	// Публичные маршруты: лента одобренных объявлений и справочники
	public := api.Group("/")
	public.Use(middleware.OptionalAuthMiddleware(tokenManager))
	{
		public.GET("/items", itemHandler.List)
		public.GET("/items/:id", middleware.UUIDValidator("id"), itemHandler.Get)
		public.GET("/conversations", conversationHandler.List)
	}

	api.GET("/ws", wsHandler.Handle)
	api.GET("/catalog/categories", catalogHandler.ListCategories)
	api.GET("/catalog/locations", catalogHandler.ListLocations)

	// Защищённые маршруты
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.GET("/profile", authHandler.GetProfile)
		protected.PUT("/profile", authHandler.UpdateProfile)

		protected.POST("/items", itemHandler.Report)
		protected.GET("/items/my", itemHandler.ListMine)
		protected.PUT("/items/:id", middleware.UUIDValidator("id"), itemHandler.Update)
		protected.DELETE("/items/:id", middleware.UUIDValidator("id"), itemHandler.Delete)

		protected.POST("/conversations", conversationHandler.Create)
		protected.PUT("/conversations/:id/read", middleware.UUIDValidator("id"), conversationHandler.MarkAsRead)
		protected.POST("/conversations/:id/leave", middleware.UUIDValidator("id"), conversationHandler.Leave)
		protected.GET("/conversations/:id/messages", middleware.UUIDValidator("id"), conversationHandler.ListMessages)
		protected.POST("/conversations/:id/messages", middleware.UUIDValidator("id"), conversationHandler.SendMessage)

		protected.GET("/notifications", notificationHandler.ListNotifications)
		protected.GET("/notifications/unread/count", notificationHandler.CountUnread)
		protected.GET("/notifications/:id", notificationHandler.GetNotification)
		protected.PUT("/notifications/:id/read", notificationHandler.MarkAsRead)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)

		protected.POST("/media/photos", mediaHandler.UploadPhoto)
		protected.DELETE("/media/:id", middleware.UUIDValidator("id"), mediaHandler.DeleteMedia)
	}

	// Администрирование: модерация, пользователи, статистика
	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(tokenManager))
	admin.Use(middleware.RequireRole(models.RoleAdmin, models.RoleSuperAdmin))
	{
		admin.GET("/stats", adminHandler.GetStats)
		admin.GET("/users", adminHandler.ListUsers)
		admin.POST("/users/:id/ban", middleware.UUIDValidator("id"), adminHandler.BanUser)
		admin.POST("/users/:id/unban", middleware.UUIDValidator("id"), adminHandler.UnbanUser)
		admin.PUT("/users/:id/role", middleware.UUIDValidator("id"), adminHandler.ChangeUserRole)

		admin.POST("/items/:id/approve", middleware.UUIDValidator("id"), adminHandler.ApproveItem)
		admin.POST("/items/:id/reject", middleware.UUIDValidator("id"), adminHandler.RejectItem)
		admin.POST("/items/:id/resolve", middleware.UUIDValidator("id"), adminHandler.ResolveItem)
		admin.DELETE("/items/:id", middleware.UUIDValidator("id"), adminHandler.DeleteItem)
	}

	return r
}
