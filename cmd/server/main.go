package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"mentor/internal/config"
	"mentor/internal/crypto"
	"mentor/internal/database"
	"mentor/internal/handlers"
	"mentor/internal/health"
	"mentor/internal/jobs"
	"mentor/internal/llm"
	"mentor/internal/logging"
	"mentor/internal/middleware"
	"mentor/internal/preflight"
	"mentor/internal/services"
	"mentor/internal/tools"
	"mentor/pkg/auth"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	// JSON in production, text in dev
	logging.Init()

	log.Println("🚀 Starting Mentor Server...")

	cfg := config.Load()
	log.Printf("📋 Configuration loaded (Port: %s, Environment: %s, LLM: %s)", cfg.Port, cfg.Environment, cfg.LLMProvider)

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Initialize(); err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}

	if results := preflight.NewChecker(db, cfg).RunAll(); preflight.HasFailures(results) {
		log.Fatal("❌ Pre-flight checks failed, refusing to start")
	}

	// Cross-replica locking for find-or-create on lists
	var locker services.Locker
	if cfg.RedisURL != "" {
		redisLocker, err := services.NewRedisLocker(cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️ Failed to connect to Redis: %v (falling back to in-process locks)", err)
		} else {
			defer redisLocker.Close()
			locker = redisLocker
			log.Println("✅ Redis locker connected")
		}
	}

	userService := services.NewUserService(db)
	entityService := services.NewEntityService(db)
	taskService := services.NewTaskService(db, locker)
	messageService := services.NewMessageService(db, cfg.HistoryLimit, cfg.HistoryCacheTTL)
	metrics := services.NewMetrics(prometheus.DefaultRegisterer)

	if cfg.EncryptionMasterKey != "" {
		cipher, err := crypto.NewCipher(cfg.EncryptionMasterKey)
		if err != nil {
			log.Fatalf("❌ Failed to initialize encryption: %v", err)
		}
		messageService.SetCipher(cipher)
		log.Println("✅ Chat messages encrypted at rest")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	personaStore, err := services.NewPersonaStore(cfg.PersonaFile)
	if err != nil {
		log.Fatalf("❌ Failed to load persona: %v", err)
	}
	if err := personaStore.Watch(ctx); err != nil {
		log.Printf("⚠️ Persona hot reload disabled: %v", err)
	}

	chatModel, err := newChatModel(ctx, cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize chat model: %v", err)
	}
	model := health.NewModelMonitor(chatModel, cfg.LLMModel, cfg.LLMFailureThreshold, cfg.LLMFailureCooldown)

	registry := tools.NewMentorRegistry()
	log.Printf("🧰 Tool registry ready with %d tools", registry.Count())

	mentorService := services.NewMentorService(model, registry, messageService, entityService, taskService,
		userService, personaStore, metrics, services.MentorConfig{
			MaxIterations:    cfg.MaxToolIterations,
			ConfirmationGate: cfg.ConfirmationGate,
		})

	// Local JWT auth; without a secret, dev mode runs every request as the dev user
	var jwtAuth *auth.LocalJWTAuth
	if cfg.JWTSecret != "" {
		jwtAuth, err = auth.NewLocalJWTAuth(cfg.JWTSecret, cfg.AccessTokenExpiry, cfg.RefreshTokenExpiry)
		if err != nil {
			log.Fatalf("❌ Failed to initialize JWT auth: %v", err)
		}
		log.Println("✅ Local JWT authentication enabled")
	} else if cfg.IsProduction() {
		log.Println("❌ JWT_SECRET not set in production, protected routes will refuse requests")
	} else {
		log.Printf("⚠️  JWT_SECRET not set, requests run as %q (development only)", middleware.DevUserID)
	}

	// Background jobs
	jobScheduler, err := jobs.NewJobScheduler()
	if err != nil {
		log.Fatalf("❌ Failed to create job scheduler: %v", err)
	}
	if cfg.MessageRetentionDays > 0 {
		retention := jobs.NewMessageRetentionJob(messageService, cfg.MessageRetentionDays)
		if err := jobScheduler.Register("message_retention", cfg.RetentionSchedule, retention); err != nil {
			log.Fatalf("❌ Failed to register retention job: %v", err)
		}
	}
	jobScheduler.Start()

	app := fiber.New(fiber.Config{
		AppName:      "Mentor v1.0",
		ReadTimeout:  cfg.LLMTimeout + 30*time.Second,
		WriteTimeout: cfg.LLMTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
		BodyLimit:    1 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(logger.New())

	prom := fiberprometheus.New("mentor")
	prom.RegisterAt(app, "/metrics")
	app.Use(prom.Middleware)
	log.Println("📊 Prometheus metrics endpoint enabled at /metrics")

	rateLimitConfig := middleware.LoadRateLimitConfig()
	log.Printf("🛡️  [RATE-LIMIT] Loaded config: Global=%d/min, Auth=%d/min, Chat=%d/min",
		rateLimitConfig.GlobalAPIMax,
		rateLimitConfig.AuthMax,
		rateLimitConfig.ChatMax,
	)

	// Fiber's CORS middleware does not allow AllowCredentials with wildcard origins.
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		AllowCredentials: cfg.AllowedOrigins != "*",
	}))
	log.Printf("🔒 [SECURITY] CORS allowed origins: %s", cfg.AllowedOrigins)

	app.Use("/api", middleware.GlobalAPIRateLimiter(rateLimitConfig))

	healthHandler := handlers.NewHealthHandler(db, model)
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.Handle)

	api := app.Group("/api/v1")
	authMiddleware := middleware.LocalAuthMiddleware(jwtAuth, cfg.Environment)

	if jwtAuth != nil {
		authHandler := handlers.NewLocalAuthHandler(jwtAuth, userService, taskService)
		authRoutes := api.Group("/auth")
		authRoutes.Post("/register", middleware.AuthRateLimiter(rateLimitConfig), authHandler.Register)
		authRoutes.Post("/login", middleware.AuthRateLimiter(rateLimitConfig), authHandler.Login)
		authRoutes.Post("/refresh", authHandler.RefreshToken)
		authRoutes.Get("/me", authMiddleware, authHandler.GetCurrentUser)
	}

	handlers.NewEntityHandler(entityService).Register(api.Group("/entities", authMiddleware))
	handlers.NewTaskHandler(taskService).Register(api.Group("/tasks", authMiddleware))
	handlers.NewChatHandler(mentorService, messageService, cfg.ChatHistoryDefault).
		Register(api.Group("/chat", authMiddleware), middleware.ChatRateLimiter(rateLimitConfig))

	log.Printf("📡 Health check: http://localhost:%s/health", cfg.Port)
	log.Printf("💬 Chat endpoint: http://localhost:%s/api/v1/chat", cfg.Port)

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("\n🛑 Shutting down server...")

		if err := jobScheduler.Stop(); err != nil {
			log.Printf("⚠️ Error stopping job scheduler: %v", err)
		}
		cancel()

		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️ Error shutting down server: %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

func newChatModel(ctx context.Context, cfg *config.Config) (llm.ChatModel, error) {
	switch cfg.LLMProvider {
	case "gemini":
		return llm.NewGeminiClient(ctx, llm.GeminiConfig{
			APIKey:            cfg.LLMAPIKey,
			Model:             cfg.LLMModel,
			Temperature:       cfg.LLMTemperature,
			RequestsPerSecond: cfg.LLMRequestsPerSecond,
		})
	default:
		if cfg.LLMAPIKey == "" {
			log.Println("⚠️  LLM_API_KEY not set, chat requests will fall back")
		}
		return llm.NewOpenAIClient(llm.OpenAIConfig{
			BaseURL:           cfg.LLMBaseURL,
			APIKey:            cfg.LLMAPIKey,
			Model:             cfg.LLMModel,
			Temperature:       cfg.LLMTemperature,
			RequestsPerSecond: cfg.LLMRequestsPerSecond,
			Timeout:           cfg.LLMTimeout,
		}), nil
	}
}
