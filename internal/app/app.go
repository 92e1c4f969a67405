package app

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"dealflow/internal/ai"
	"dealflow/internal/config"
	"dealflow/internal/handlers"
	"dealflow/internal/middleware"
	"dealflow/internal/notify"
	"dealflow/internal/realtime"
	"dealflow/internal/repositories"
	"dealflow/internal/routes"
	"dealflow/internal/services"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "dealflow/docs"
)

const reminderSweepInterval = time.Minute

func Run() {
	cfg := config.LoadConfig()
	middleware.SetJWTKey(cfg.Auth.JWTSecret)

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("database open failed: ", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("database close failed: %v", err)
		}
	}()

	// === Repos ===
	userRepo := repositories.NewUserRepository(db)
	boardRepo := repositories.NewBoardRepository(db)
	dealRepo := repositories.NewDealRepository(db)
	contactRepo := repositories.NewContactRepository(db)
	companyRepo := repositories.NewCompanyRepository(db)
	lifecycleRepo := repositories.NewLifecycleRepository(db)
	activityRepo := repositories.NewActivityRepository(db)
	auditRepo := repositories.NewAuditRepository(db)

	// === Realtime hub ===
	hub := realtime.NewInvalidationHub()

	// === Services ===
	authService := services.NewAuthService()
	emailService := services.NewEmailService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
	)
	auditService := services.NewAuditService(auditRepo)
	userService := services.NewUserService(userRepo, emailService, authService)

	notifier, err := notify.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.DryRun)
	if err != nil {
		log.Fatal("telegram init failed: ", err)
	}

	dealService := services.NewDealService(
		dealRepo, boardRepo, contactRepo, lifecycleRepo, userRepo,
		hub, auditService, notifier,
	)
	boardService := services.NewBoardService(boardRepo, hub, auditService)
	contactService := services.NewContactService(contactRepo, hub, auditService)
	companyService := services.NewCompanyService(companyRepo, auditService)
	lifecycleService := services.NewLifecycleService(lifecycleRepo, contactRepo, auditService)
	activityService := services.NewActivityService(activityRepo, userRepo, emailService, auditService)
	dashboardService := services.NewDashboardService(dealRepo)

	aiClient, err := ai.NewClient(cfg.AI.AnthropicAPIKey, cfg.AI.Model)
	if err != nil {
		log.Fatal("AI client init failed: ", err)
	}
	aiLimiter := ai.NewLimiter(cfg.AI.PerMinuteLimit, cfg.AI.PerDayLimit)
	aiService := ai.NewService(aiClient, aiLimiter, userRepo, dealRepo, contactRepo, emailService)

	// === Handlers ===
	authHandler := handlers.NewAuthHandler(userService, authService, userRepo)
	userHandler := handlers.NewUserHandler(userService)
	boardHandler := handlers.NewBoardHandler(boardService)
	dealHandler := handlers.NewDealHandler(dealService, userService)
	contactHandler := handlers.NewContactHandler(contactService)
	companyHandler := handlers.NewCompanyHandler(companyService)
	lifecycleHandler := handlers.NewLifecycleHandler(lifecycleService)
	activityHandler := handlers.NewActivityHandler(activityService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)
	aiHandler := handlers.NewAIHandler(aiService, userService)
	auditHandler := handlers.NewAuditHandler(auditService)
	realtimeHandler := handlers.NewRealtimeHandler(hub)

	// Reminder sweep for due activities.
	go func() {
		ticker := time.NewTicker(reminderSweepInterval)
		defer ticker.Stop()
		for range ticker.C {
			if n, err := activityService.SendDueReminders(); err != nil {
				log.Printf("[app][reminders] sweep failed: %v", err)
			} else if n > 0 {
				log.Printf("[app][reminders] sent %d reminders", n)
			}
		}
	}()

	// === Gin ===
	router := gin.Default()
	router.Use(corsMiddleware())

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.SetupRoutes(
		router,
		authHandler,
		userHandler,
		boardHandler,
		dealHandler,
		contactHandler,
		companyHandler,
		lifecycleHandler,
		activityHandler,
		dashboardHandler,
		aiHandler,
		auditHandler,
		realtimeHandler,
	)

	// === Run ===
	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("listening on %s", listenAddr)
	if err := router.Run(listenAddr); err != nil {
		log.Fatal("server failed: ", err)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
