package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/shenikar/incident_alerts/internal/channel"
	"github.com/shenikar/incident_alerts/internal/config"
	"github.com/shenikar/incident_alerts/internal/detector"
	v1 "github.com/shenikar/incident_alerts/internal/handler/http/v1"
	"github.com/shenikar/incident_alerts/internal/metrics"
	"github.com/shenikar/incident_alerts/internal/realtime"
	"github.com/shenikar/incident_alerts/internal/repository"
	"github.com/shenikar/incident_alerts/internal/service"
	"github.com/shenikar/incident_alerts/internal/session"
	"github.com/shenikar/incident_alerts/internal/webhook"
	"github.com/shenikar/incident_alerts/pkg/logger"
	"github.com/shenikar/incident_alerts/pkg/postgres"
	redisclient "github.com/shenikar/incident_alerts/pkg/redis"
	"github.com/sirupsen/logrus"

	_ "github.com/shenikar/incident_alerts/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title Incident Alerts API
// @version 1.0
// @description Real-time incident alerting engine: watch zones, new-incident detection and multi-channel notifications.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
func runMigrations(cfg *config.Config, log *logrus.Logger) error {
	log.Info("Running database migrations...")

	migrationURL := cfg.DatabaseURL
	if !strings.HasPrefix(migrationURL, "pgx5://") {
		migrationURL = strings.Replace(migrationURL, "postgres://", "pgx5://", 1)
	}

	m, err := migrate.New(
		"file://migrations",
		migrationURL,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("Database migrations applied successfully")
	return nil
}

// sessionConfig переносит настройки движка оповещений из конфига приложения
func sessionConfig(cfg *config.Config) session.Config {
	return session.Config{
		PollInterval:    cfg.PollInterval,
		QueueSize:       cfg.SessionQueueSize,
		DeliveryTimeout: cfg.DeliveryTimeout,
		Detector: detector.Config{
			Lookback:       cfg.DetectorLookback,
			RecentCapacity: cfg.DetectorRecentCapacity,
		},
		PushURL:        cfg.PushURL,
		ReconnectDelay: cfg.PushReconnectDelay,
	}
}

func main() {
	// Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	log := logger.New(cfg.LogLevel)

	// Контекст для graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Запуск миграций
	if err := runMigrations(cfg, log); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	// Подключение к PostgreSQL
	dbpool, err := postgres.NewPostgresDB(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer dbpool.Close()
	log.Info("Successfully connected to PostgreSQL")

	// Инициализация Redis клиента
	redisClient, err := redisclient.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Info("Successfully connected to Redis")

	// Метрики движка оповещений
	alertMetrics, err := metrics.NewAlertMetrics()
	if err != nil {
		log.Fatalf("Failed to register metrics: %v", err)
	}

	// Websocket-клиенты UI
	hub := realtime.NewHub(log)

	// Очередь системных уведомлений и воркер push-шлюза
	pushPublisher := webhook.NewRedisPushPublisher(redisClient)
	pushWorker := webhook.NewPushWorker(redisClient, log, cfg)
	pushWorker.Start(ctx)

	// Инициализация репозиториев
	incidentRepo := repository.NewIncidentRepository(dbpool, redisClient, cfg.IncidentCacheTTL)
	settingsRepo := repository.NewSettingsRepository(dbpool, log)
	notificationRepo := repository.NewNotificationRepository(dbpool)

	// Каналы доставки в фиксированном порядке
	channels := []channel.Channel{
		channel.NewInApp(hub),
		channel.NewSystem(service.NewPermissionChecker(settingsRepo), pushPublisher, log),
		channel.NewAudible(hub),
	}

	// Сессии оповещений, по одной на пользователя
	sessCfg := sessionConfig(cfg)
	manager := session.NewManager(func(userID string) (*session.Monitor, error) {
		return session.NewMonitor(userID, sessCfg, session.Deps{
			Incidents:     incidentRepo,
			Settings:      settingsRepo,
			Notifications: notificationRepo,
			Channels:      channels,
			Logger:        log,
			Metrics:       alertMetrics,
		})
	}, log, alertMetrics)

	// Инициализация сервисов
	alertService := service.NewAlertService(service.NewSessionManager(manager), incidentRepo, hub, log)

	// Инициализация хэндлеров
	handler := v1.NewHandler(alertService, hub, log, cfg)

	// Настройка Gin роутера
	router := gin.Default()
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)

	// Метрики Prometheus
	router.GET("/metrics", gin.WrapH(alertMetrics.Handler()))

	// Добавление маршрута для Swagger UI
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Запуск HTTP-сервера
	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)

	srv := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	// Запуск сервера в горутине
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Error starting HTTP server: %v", err)
		}
	}()
	log.Infof("HTTP server started on port %s", cfg.HTTPPort)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Received shutdown signal, shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}

	// Сессии останавливаются до закрытия hub, чтобы после возврата не было доставок
	manager.CloseAll()
	hub.Close()
	cancel()

	log.Info("Server gracefully stopped")
}
