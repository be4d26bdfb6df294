package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	_ "github.com/xpanvictor/intervox/docs"
	"github.com/xpanvictor/intervox/internal/config"
	"github.com/xpanvictor/intervox/internal/domains/auth"
	"github.com/xpanvictor/intervox/internal/domains/interview"
	"github.com/xpanvictor/intervox/internal/handlers"
	"github.com/xpanvictor/intervox/internal/handlers/websocket"
	"github.com/xpanvictor/intervox/internal/repository/ratelimit"
	"github.com/xpanvictor/intervox/pkg/Logger"
)

// Dependencies are the services the HTTP surface is built from.
type Dependencies struct {
	Config      *config.Settings
	Logger      *Logger.Logger
	AuthService auth.AuthService
	Interviews  *interview.Service
	// nil disables rate limiting
	Limiter   ratelimit.Limiter
	WebSocket *websocket.WebSocketHandler
}

// InitializeRoutes mounts every route on r.
// @title Intervox API
// @version 1.0
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func InitializeRoutes(r *gin.Engine, dep Dependencies) {
	logger := Logger.OrNop(dep.Logger)
	var origins []string
	if dep.Config != nil {
		origins = dep.Config.Server.AllowedOrigins
	}

	r.Use(
		handlers.RequestLoggerMiddleware(logger),
		handlers.ErrorHandlerMiddleware(logger),
		handlers.CORSMiddleware(origins),
	)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, handlers.HealthResponse{Status: "ok", Time: time.Now().UTC()})
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	limit := func() []gin.HandlerFunc {
		if dep.Limiter == nil {
			return nil
		}
		return []gin.HandlerFunc{handlers.RateLimitMiddleware(dep.Limiter, logger)}
	}

	api := r.Group("/api")

	authHandler := handlers.NewAuthHandler(dep.AuthService, logger)
	authGroup := api.Group("/auth", limit()...)
	{
		authGroup.POST("/token", authHandler.IssueToken)
	}

	interviewHandler := handlers.NewInterviewHandler(dep.Interviews, logger)
	protected := append([]gin.HandlerFunc{handlers.AuthMiddleware(dep.AuthService, logger)}, limit()...)
	interviews := api.Group("/interview", protected...)
	{
		interviews.POST("/start", interviewHandler.StartInterview)
		interviews.GET("/state/:id", interviewHandler.GetInterviewState)
		interviews.POST("/answer/:id", interviewHandler.SubmitAnswer)
		interviews.POST("/:id/code", interviewHandler.SubmitCode)
		interviews.GET("/:id/report", interviewHandler.GetReport)
	}

	resumeHandler := handlers.NewResumeHandler(logger)
	resumes := api.Group("/resume", protected...)
	{
		resumes.POST("/parse", resumeHandler.ParseResume)
	}

	if dep.WebSocket != nil {
		dep.WebSocket.RegisterRoutes(api)
	}
}
