package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"backend/internal/api/handlers"
	"backend/internal/config"
	"backend/internal/jobs"
	"backend/internal/providers/github"
	"backend/internal/providers/leetcode"
	"backend/internal/repository"
	"backend/internal/service"
	"backend/internal/worker"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize PostgreSQL with connection pooling
	db, err := initPostgres(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	log.Println("Connected to PostgreSQL")

	// Initialize Redis
	redisClient, err := initRedis(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	log.Println("Connected to Redis")

	// Initialize repositories
	postgresRepo := repository.NewPostgresRepository(db)
	redisRepo := repository.NewRedisRepository(redisClient)

	// Run migrations
	if err := postgresRepo.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	// Initialize provider adapters
	githubClient := github.NewClient(cfg.Providers.GitHubBaseURL, cfg.Providers.GitHubToken, cfg.Providers.Timeout)
	leetcodeClient := leetcode.NewClient(cfg.Providers.LeetCodeMirrors, cfg.Providers.Timeout)

	// Initialize the stats pipeline service
	statsService := service.NewStatsService(
		postgresRepo,
		postgresRepo,
		githubClient,
		leetcodeClient,
		redisRepo,
		cfg.Providers.CacheTTL,
	)

	// Initialize Worker Pool for background room refreshes
	workerPool := worker.NewWorkerPool(cfg.Jobs.Workers, cfg.Jobs.QueueSize, statsService, 2*time.Minute)
	workerPool.Start()

	// Initialize the background refresh sweeper
	refresher := jobs.NewRefreshManager(postgresRepo, workerPool, jobs.RefresherConfig{
		Interval:   cfg.Jobs.RefreshInterval,
		StaleAfter: cfg.Jobs.StaleAfter,
	})

	refreshCtx, refreshCancel := context.WithCancel(context.Background())
	defer refreshCancel()
	if err := refresher.Start(refreshCtx); err != nil {
		log.Printf("Failed to start background refresher: %v", err)
	}

	// Initialize handlers
	statsHandler := handlers.NewStatsHandler(statsService, postgresRepo, redisRepo)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:               "CodeRooms Stats Backend",
		DisableStartupMessage: false,
		ErrorHandler:          customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	// Routes
	api := app.Group("/api/v1")

	api.Get("/stats", statsHandler.GetStats)
	api.Get("/rooms/:roomId/leaderboard", statsHandler.GetLeaderboard)
	api.Post("/rooms/:roomId/refresh", statsHandler.RefreshRoom)
	api.Post("/rooms/:roomId/participants/:userId/refresh", statsHandler.RefreshParticipant)
	api.Put("/users/:userId/profiles", statsHandler.UpdateProfiles)
	api.Get("/health", statsHandler.HealthCheck)

	// Root route
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "CodeRooms Stats Backend API",
			"version": "1.0.0",
			"endpoints": []string{
				"GET /api/v1/stats",
				"GET /api/v1/rooms/:roomId/leaderboard",
				"POST /api/v1/rooms/:roomId/refresh",
				"POST /api/v1/rooms/:roomId/participants/:userId/refresh",
				"PUT /api/v1/users/:userId/profiles",
				"GET /api/v1/health",
			},
		})
	})

	// Graceful shutdown with worker pool flushing
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		log.Println("Shutting down server...")

		// First, stop the background refresher
		refresher.Stop()

		// Second, stop accepting new HTTP requests
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := app.ShutdownWithContext(ctx); err != nil {
			log.Printf("Server forced to shutdown: %v", err)
		}

		// Third, gracefully shutdown worker pool (flush pending refreshes)
		log.Println("Flushing worker pool (pending room refreshes)...")
		if err := workerPool.Shutdown(30 * time.Second); err != nil {
			log.Printf("Worker pool shutdown error: %v", err)
		}

		// Finally, close database connections
		if err := postgresRepo.Close(); err != nil {
			log.Printf("Error closing PostgreSQL: %v", err)
		}
		if err := redisRepo.Close(); err != nil {
			log.Printf("Error closing Redis: %v", err)
		}

		log.Println("Server shutdown complete")
	}()

	// Start server
	port := cfg.Server.Port
	log.Printf("Server starting on port %d...", port)
	if err := app.Listen(fmt.Sprintf(":%d", port)); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// initPostgres initializes PostgreSQL connection with connection pooling
func initPostgres(cfg *config.Config) (*gorm.DB, error) {
	dsn := cfg.GetDSN()

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}

	// Get underlying sql.DB for connection pooling
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// Max connections should cover the refresh workers plus request traffic
	sqlDB.SetMaxOpenConns(30)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetConnMaxIdleTime(2 * time.Minute)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, err
	}

	return db, nil
}

// initRedis initializes Redis connection with connection pooling
func initRedis(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Username:     cfg.Redis.Username,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     20,
		MinIdleConns: 5,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return client, nil
}

// customErrorHandler handles errors globally
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   "Request failed",
		"message": err.Error(),
	})
}
