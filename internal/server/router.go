package server

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"fintrack/internal/config"
	_ "fintrack/internal/docs" // swagger docs
	apperrors "fintrack/internal/errors"
	"fintrack/internal/handlers"
	"fintrack/internal/importer"
	"fintrack/internal/metrics"
	"fintrack/internal/middleware"
	"fintrack/internal/validator"
)

// NewRouter builds the gin engine with every route registered.
func NewRouter(cfg *config.Config, db *gorm.DB, svc Services, m *metrics.Metrics) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true
	_ = router.SetTrustedProxies(nil)

	router.Use(gin.Recovery())
	router.Use(requestid.New())
	router.Use(m.Middleware())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	if len(cfg.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:  cfg.CORSOrigins,
			AllowMethods:  []string{"OPTIONS", "GET", "POST", "PUT", "PATCH", "DELETE"},
			AllowHeaders:  []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
			ExposeHeaders: []string{"Content-Disposition", "X-Request-Id"},
		}))
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handlers.ErrorResponse{Error: handlers.ErrorDetail{
			Code: apperrors.ErrNotFound.Code, Message: "Route not found",
		}})
	})
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, handlers.ErrorResponse{Error: handlers.ErrorDetail{
			Code: "METHOD_NOT_ALLOWED", Message: "This HTTP method is not allowed for the endpoint you called",
		}})
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Operational endpoints
	router.GET("/api/health", handlers.NewHealthHandler(db).Health)
	router.GET("/metrics", gin.WrapH(m.Handler()))
	if cfg.EnablePprof {
		pprof.Register(router, "debug/pprof")
	}

	// Handlers
	transactionHandler := handlers.NewTransactionHandler(svc.Transactions)
	recurringHandler := handlers.NewRecurringHandler(svc.Recurring)
	goalHandler := handlers.NewGoalHandler(svc.Goals)
	notificationHandler := handlers.NewNotificationHandler(svc.Notifications)
	profileHandler := handlers.NewProfileHandler(svc.Profiles)
	analyticsHandler := handlers.NewAnalyticsHandler(svc.Analytics)
	dataHandler := handlers.NewDataHandler(svc.Export, svc.Transactions, importer.NewParser(validator.New()))
	pipelineHandler := handlers.NewPipelineHandler(svc.Notifications)

	v1 := router.Group("/api/v1")

	// Pipeline routes authenticate with an API key instead of a user token
	pipeline := v1.Group("/pipeline")
	pipeline.Use(middleware.PipelineAuthMiddleware(cfg.PipelineAPIKey))
	pipeline.POST("/reminders", pipelineHandler.RunReminders)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(cfg.JWTSecret))

	protected.GET("/profile", profileHandler.GetProfile)
	protected.PUT("/profile", profileHandler.UpdateProfile)

	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetUserTransactions)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	recurring := protected.Group("/recurring")
	recurring.POST("", recurringHandler.CreateRule)
	recurring.GET("", recurringHandler.GetUserRules)
	recurring.GET("/upcoming", recurringHandler.GetUpcoming)
	recurring.GET("/:id", recurringHandler.GetRuleByID)
	recurring.PUT("/:id", recurringHandler.UpdateRule)
	recurring.PATCH("/:id/toggle", recurringHandler.ToggleRule)
	recurring.POST("/:id/occurrences", recurringHandler.RecordOccurrence)
	recurring.DELETE("/:id", recurringHandler.DeleteRule)

	goals := protected.Group("/goals")
	goals.POST("", goalHandler.CreateGoal)
	goals.GET("", goalHandler.GetUserGoals)
	goals.GET("/:id", goalHandler.GetGoalByID)
	goals.PUT("/:id", goalHandler.UpdateGoal)
	goals.DELETE("/:id", goalHandler.DeleteGoal)
	goals.POST("/:id/contributions", goalHandler.AddContribution)
	goals.GET("/:id/contributions", goalHandler.GetContributions)

	protected.GET("/analytics/summary", analyticsHandler.GetSummary)

	notifications := protected.Group("/notifications")
	notifications.GET("", notificationHandler.GetNotifications)
	notifications.PATCH("/read-all", notificationHandler.MarkAllRead)
	notifications.PATCH("/:id/read", notificationHandler.MarkRead)
	notifications.DELETE("/:id", notificationHandler.DeleteNotification)

	protected.GET("/export/transactions", dataHandler.ExportTransactions)
	protected.GET("/export/goals", dataHandler.ExportGoals)
	protected.POST("/import/transactions", dataHandler.ImportTransactions)

	return router
}
