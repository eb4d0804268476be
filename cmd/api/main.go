package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"budgetwise/internal/config"
	"budgetwise/internal/database"
	"budgetwise/internal/events"
	"budgetwise/internal/handlers"
	"budgetwise/internal/logger"
	"budgetwise/internal/middleware"
	"budgetwise/internal/router"
	"budgetwise/internal/services"
	"budgetwise/internal/validator"
)

// @title           Budgetwise API
// @version         1.0
// @description     Budgetwise tracks monthly category budgets and expenses and serves spending dashboards and trend analytics.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

const shutdownTimeout = 10 * time.Second

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbManager, err := database.NewManager(database.NewConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer dbManager.Close()

	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Writes publish to RabbitMQ when configured so every instance sees them;
	// the local bus then only carries what Forward receives.
	bus := events.NewBus()
	defer bus.Close()
	var publisher events.Publisher = bus
	var amqpClient *events.AMQPClient
	if cfg.AMQPURL != "" {
		amqpClient, err = events.DialAMQP(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return fmt.Errorf("failed to connect to AMQP broker: %w", err)
		}
		defer amqpClient.Close()
		publisher = amqpClient
	}

	validator.Register()

	db := dbManager.DB()
	jwt := middleware.NewJWTManager(cfg.JWTSecret, cfg.AccessTokenExpiry, cfg.RefreshTokenExpiry)
	userService := services.NewUserService(db)
	categoryService := services.NewCategoryService(db, publisher)
	transactionService := services.NewTransactionService(db, categoryService, cfg.Location, publisher)
	dashboardService := services.NewDashboardService(categoryService, transactionService, cfg.Location, time.Now)
	auditService := services.NewAuditService(db)
	live := handlers.NewWSHandler(jwt, dashboardService)

	identity := services.NewGoogleVerifier(cfg.GoogleClientID)
	if identity == nil {
		log.Info("GOOGLE_CLIENT_ID not set, federated sign-in disabled")
	}

	engine := router.New(router.Deps{
		JWT:            jwt,
		Users:          userService,
		Identity:       identity,
		Categories:     categoryService,
		Transactions:   transactionService,
		Dashboard:      dashboardService,
		Audit:          auditService,
		Live:           live,
		Location:       cfg.Location,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	changes, unsubscribe := bus.Subscribe(256)
	defer unsubscribe()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("Starting Budgetwise API on port %s", cfg.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return live.Run(gctx, changes)
	})
	if amqpClient != nil {
		g.Go(func() error {
			return amqpClient.Forward(gctx, bus)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
