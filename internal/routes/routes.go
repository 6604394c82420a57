package routes

import (
	"net/http"

	"mailbox-server/internal/auth"
	"mailbox-server/internal/config"
	"mailbox-server/internal/handlers"
	"mailbox-server/internal/middleware"
	"mailbox-server/internal/models"
	"mailbox-server/internal/services"

	"github.com/gin-gonic/gin"
)

// Services bundles the business services the API layer is built on.
type Services struct {
	Auth     *services.AuthService
	Users    *services.UserService
	Messages *services.MessageService
}

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, svc Services, tokens *auth.TokenManager, cfg *config.Config) {
	authHandler := handlers.NewAuthHandler(svc.Auth)
	userHandler := handlers.NewUserHandler(svc.Users)
	messageHandler := handlers.NewMessageHandler(svc.Messages, cfg.Attachments.MaxBytes)

	// Public routes (no authentication required)
	public := router.Group("/api")
	{
		authRoutes := public.Group("/auth")
		{
			authRoutes.POST("/signup", authHandler.Signup)
			authRoutes.POST("/login", authHandler.Login)
		}
	}

	// Authenticated routes
	private := router.Group("/api")
	private.Use(middleware.AuthMiddleware(tokens), middleware.RoleAuthMiddleware(models.DefaultRole))
	{
		userRoutes := private.Group("/users")
		{
			userRoutes.GET("", userHandler.GetUsers)
			userRoutes.GET("/me", userHandler.GetMe)
			userRoutes.GET("/:id", userHandler.GetUserByID)
		}

		messageRoutes := private.Group("/messages")
		{
			messageRoutes.POST("", messageHandler.SendMessage)
			messageRoutes.GET("/inbox", messageHandler.GetInbox)
			messageRoutes.GET("/sent", messageHandler.GetSent)
			messageRoutes.GET("/folders", messageHandler.GetFolders)
			messageRoutes.GET("/folder/:folder", messageHandler.GetFolder)
			messageRoutes.GET("/unread-count", messageHandler.UnreadCount)
			messageRoutes.PUT("/:id/read", messageHandler.MarkRead)
			messageRoutes.DELETE("/:id", messageHandler.DeleteMessage)
			messageRoutes.POST("/:id/attachment", messageHandler.UploadAttachment)
			messageRoutes.GET("/:id/attachment", messageHandler.DownloadAttachment)
		}
	}

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP"})
	})
}
