// Package router assembles the HTTP surface of the API.
package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "budgetwise/internal/docs" // swagger docs
	"budgetwise/internal/handlers"
	"budgetwise/internal/middleware"
	"budgetwise/internal/services"
)

// Deps are the collaborators the routes are built from. Identity and Live
// may be nil: federated sign-in then answers 503 and /ws is not mounted.
type Deps struct {
	JWT            *middleware.JWTManager
	Users          services.UserServicer
	Identity       services.IdentityVerifier
	Categories     services.CategoryServicer
	Transactions   services.TransactionServicer
	Dashboard      services.DashboardServicer
	Audit          services.AuditServicer
	Live           *handlers.WSHandler
	Location       *time.Location
	AllowedOrigins []string
}

// New builds the gin engine with middleware and every route registered.
func New(d Deps) *gin.Engine {
	authHandler := handlers.NewAuthHandler(d.Users, d.Identity, d.JWT, d.Audit)
	categoryHandler := handlers.NewCategoryHandler(d.Categories, d.Audit, d.Location)
	transactionHandler := handlers.NewTransactionHandler(d.Transactions, d.Audit, d.Location)
	dashboardHandler := handlers.NewDashboardHandler(d.Dashboard)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogging())
	r.Use(middleware.ErrorHandler())

	if len(d.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     d.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
			ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/google", authHandler.GoogleLogin)
	auth.POST("/refresh", authHandler.Refresh)

	if d.Live != nil {
		// Browsers cannot set headers on a WebSocket handshake, so the
		// handler authenticates the token query parameter itself.
		v1.GET("/ws", d.Live.Connect)
	}

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(d.JWT))

	protected.POST("/auth/logout", authHandler.Logout)
	protected.GET("/profile", authHandler.GetProfile)

	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetCategories)
	categories.GET("/:id", categoryHandler.GetCategoryByID)

	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetTransactions)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	protected.GET("/dashboard", dashboardHandler.GetDashboard)
	protected.GET("/analytics", dashboardHandler.GetAnalytics)

	return r
}
