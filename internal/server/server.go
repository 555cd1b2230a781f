package server

import (
	"net/http"

	"enact/internal/chat"
	"enact/internal/config"
	"enact/internal/document"
	"enact/internal/gemini"
	"enact/internal/handler"
	"enact/internal/middleware"
	"enact/internal/ratelimit"
	"enact/internal/repository"
	"enact/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type Server struct {
	router  *gin.Engine
	db      *sqlx.DB
	cfg     *config.Config
	gemini  *gemini.Client
	limiter *ratelimit.Limiter
	logger  *zap.Logger
}

func NewServer(db *sqlx.DB, cfg *config.Config, geminiClient *gemini.Client, limiter *ratelimit.Limiter, logger *zap.Logger) *Server {
	router := gin.Default()

	s := &Server{
		router:  router,
		db:      db,
		cfg:     cfg,
		gemini:  geminiClient,
		limiter: limiter,
		logger:  logger,
	}

	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	authRepo := repository.NewAuthRepository(s.db, s.logger)
	convRepo := repository.NewConversationRepository(s.db, s.logger)
	msgRepo := repository.NewMessageRepository(s.db, s.logger)

	authService := service.NewAuthService(authRepo, []byte(s.cfg.Auth.JWTSecret), s.cfg.TokenTTL(), s.logger)
	chatService := chat.NewService(chat.NewGeminiGenerator(s.gemini), convRepo, msgRepo, s.logger)
	docService := document.NewService(s.gemini, s.logger)

	authHandler := handler.NewAuthHandler(authService, s.logger)
	convHandler := handler.NewConversationHandler(convRepo, msgRepo, s.logger)
	chatHandler := handler.NewChatHandler(chatService, s.logger)
	docHandler := handler.NewDocumentHandler(docService, s.logger)

	// Ping route for health check
	s.router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	// Authentication routes
	authGroup := s.router.Group("/api/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)

	// Authenticated routes
	authRequired := s.router.Group("/api")
	authRequired.Use(middleware.AuthMiddleware([]byte(s.cfg.Auth.JWTSecret), s.logger))
	{
		authRequired.GET("/conversations", convHandler.List)
		authRequired.POST("/conversations", convHandler.Create)
		authRequired.GET("/conversations/:id", convHandler.Get)
		authRequired.PATCH("/conversations/:id/title", convHandler.Rename)
		authRequired.PATCH("/conversations/:id/pin", convHandler.Pin)
		authRequired.DELETE("/conversations/:id", convHandler.Delete)
		authRequired.GET("/conversations/:id/messages", convHandler.ListMessages)
		authRequired.PATCH("/conversations/:id/messages/:messageId", convHandler.EditMessage)
		authRequired.DELETE("/conversations/:id/messages/:messageId", convHandler.DeleteMessage)
		authRequired.GET("/conversations/:id/export", convHandler.Export)

		limited := authRequired.Group("")
		limited.Use(middleware.RateLimitMiddleware(s.limiter, s.logger))
		{
			limited.POST("/chat", chatHandler.Chat)
			limited.POST("/documents/generate", docHandler.Generate)
		}
	}
}

func (s *Server) Run(addr string) error {
	s.logger.Info("Server starting", zap.String("addr", addr))
	return s.router.Run(addr)
}

// Handler exposes the underlying router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
