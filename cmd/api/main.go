package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/quizroom-api/internal/config"
	"github.com/yourusername/quizroom-api/internal/handler"
	"github.com/yourusername/quizroom-api/internal/middleware"
	pgRepo "github.com/yourusername/quizroom-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/quizroom-api/internal/repository/redis"
	"github.com/yourusername/quizroom-api/internal/service"
	"github.com/yourusername/quizroom-api/pkg/database"
)

func main() {
	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Загрузка конфигурации из %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к PostgreSQL
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	// Применяем миграции
	if err := database.MigrateDB(db); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к Redis с использованием унифицированной конфигурации
	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	// Инициализируем репозитории
	quizRepo := pgRepo.NewQuizRepo(db)
	roomRepo := pgRepo.NewRoomRepo(db)
	participantRepo := pgRepo.NewParticipantRepo(db)
	submissionRepo := pgRepo.NewSubmissionRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Printf("Failed to initialize CacheRepo: %v", err)
		os.Exit(1)
	}

	// Инициализируем сервисы
	answerStore := service.NewAnswerStore(participantRepo, cacheRepo, cfg.Room.DurableAnswerSync)
	roomService := service.NewRoomService(roomRepo, quizRepo, &cfg.Room)
	admissionService := service.NewAdmissionService(roomRepo, participantRepo, submissionRepo, roomService, answerStore)
	submissionService := service.NewSubmissionService(roomRepo, participantRepo, submissionRepo, roomService, answerStore)
	leaderboardService := service.NewLeaderboardService(roomRepo, participantRepo, roomService, &cfg.Room)
	quizService := service.NewQuizService(quizRepo)

	// Разрешённые источники. Один список для CORS и для websocket-апгрейда.
	allowedOrigins := []string{"http://localhost:5173", "http://localhost:3000", "http://localhost:8000"}

	// Инициализируем обработчики
	roomHandler := handler.NewRoomHandler(roomService, admissionService, submissionService, leaderboardService)
	quizHandler := handler.NewQuizHandler(quizService)
	wsHandler := handler.NewWSHandler(roomService, cfg.Room.LiveFeedInterval, allowedOrigins)
	adminHandler := handler.NewAdminHandler()

	// Инициализируем middleware
	adminAuth := middleware.AdminAuth(cfg.Admin.SecretKey)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Инициализируем роутер Gin
	router := gin.Default()

	// Настройка доверенных прокси для корректной работы c.ClientIP()
	// В production (GIN_MODE=release): не доверяем прокси (защита от IP spoofing)
	// В development: доверяем localhost
	isProduction := gin.Mode() == gin.ReleaseMode
	if isProduction {
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	// Настройка CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Admin-Secret"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Настраиваем маршруты API
	api := router.Group("/api")
	{
		// Проверка админ-секрета: админка валидирует его до первого
		// привилегированного действия
		api.POST("/admin/verify",
			rateLimiter.LimitByIP(middleware.AdminRateLimitConfig()), adminAuth,
			adminHandler.VerifySecret)

		// Викторины - поверхность организатора целиком
		quizzes := api.Group("/quizzes")
		quizzes.Use(rateLimiter.LimitByIP(middleware.AdminRateLimitConfig()), adminAuth)
		{
			quizzes.POST("", quizHandler.CreateQuiz)
			quizzes.GET("", quizHandler.ListQuizzes)

			quizWithID := quizzes.Group("/:id")
			quizWithID.Use(middleware.ExtractUintParam("id", "quizID"))
			{
				quizWithID.GET("", quizHandler.GetQuiz)
				quizWithID.DELETE("", quizHandler.DeleteQuiz)
			}
		}

		// Комнаты
		rooms := api.Group("/rooms")
		{
			// Операции организатора без кода комнаты
			roomsAdmin := rooms.Group("")
			roomsAdmin.Use(rateLimiter.LimitByIP(middleware.AdminRateLimitConfig()), adminAuth)
			{
				roomsAdmin.POST("", roomHandler.CreateRoom)
				roomsAdmin.GET("/active", roomHandler.ListActiveRooms)
				roomsAdmin.GET("/recent", roomHandler.ListRecentRooms)
			}

			roomWithCode := rooms.Group("/:code")
			roomWithCode.Use(middleware.ExtractRoomCode("code"))
			{
				// Публичная поверхность участника
				roomWithCode.GET("", roomHandler.GetRoomInfo)
				roomWithCode.GET("/live", wsHandler.LiveFeed)
				roomWithCode.GET("/leaderboard", roomHandler.GetLeaderboard)
				roomWithCode.POST("/join", rateLimiter.Limit(middleware.JoinRateLimitConfig()), roomHandler.Join)
				roomWithCode.POST("/answers", rateLimiter.Limit(middleware.SyncRateLimitConfig()), roomHandler.SaveAnswers)
				roomWithCode.POST("/submit", roomHandler.Submit)

				// Операции организатора над конкретной комнатой
				roomAdmin := roomWithCode.Group("")
				roomAdmin.Use(rateLimiter.LimitByIP(middleware.AdminRateLimitConfig()), adminAuth)
				{
					roomAdmin.POST("/start", roomHandler.StartRoom)
					roomAdmin.POST("/close", roomHandler.CloseRoom)
					roomAdmin.POST("/cancel", roomHandler.CancelRoom)
					roomAdmin.POST("/archive", roomHandler.ArchiveRoom)
					roomAdmin.DELETE("", roomHandler.DeleteRoom)
					roomAdmin.GET("/export", roomHandler.ExportLeaderboard)
				}
			}
		}
	}

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Запускаем сервер в горутине
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	log.Printf("Server started on port %s", cfg.Server.Port)

	// Ждём сигнал остановки
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Контекст с таймаутом для graceful shutdown сервера
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	if err := redisClient.Close(); err != nil {
		log.Printf("Error closing Redis client: %v", err)
	}

	log.Println("Server exited properly")
}
