package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/table-match-manager/config"
	"github.com/Dosada05/table-match-manager/db"
	"github.com/Dosada05/table-match-manager/handlers"
	"github.com/Dosada05/table-match-manager/live"
	"github.com/Dosada05/table-match-manager/repositories"
	api "github.com/Dosada05/table-match-manager/routes"
	"github.com/Dosada05/table-match-manager/services"
	"github.com/Dosada05/table-match-manager/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	// Хранилище аватаров (Cloudflare R2). Без настроек R2 приложение
	// работает, но загрузка аватаров отключена.
	var uploader storage.FileUploader
	if cfg.AvatarStorageConfigured() {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Warn("avatar storage is not configured, uploads disabled")
	}

	// WebSocket-хаб стола
	tableHub := live.NewHub()
	go tableHub.Run()
	logger.Info("table hub started")

	// Репозитории
	personRepo := repositories.NewPostgresPersonRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	queueRepo := repositories.NewPostgresQueueRepository(dbConn)
	txManager := repositories.NewSQLTxManager(dbConn)
	logger.Info("repositories initialized")

	// Сервисы
	matchService := services.NewMatchService(txManager, matchRepo, queueRepo, personRepo, tableHub, logger)
	queueService := services.NewQueueService(txManager, queueRepo, matchRepo, personRepo, tableHub, logger)
	rankingService := services.NewRankingService(matchRepo, personRepo)
	eloService := services.NewEloService(matchRepo, personRepo)
	statsService := services.NewStatsService(matchRepo, personRepo)
	personService := services.NewPersonService(personRepo, uploader, logger)
	adminService := services.NewAdminService(matchRepo, logger)
	logger.Info("services initialized")

	// HTTP-обработчики
	matchHandler := handlers.NewMatchHandler(matchService)
	queueHandler := handlers.NewQueueHandler(queueService)
	rankingHandler := handlers.NewRankingHandler(rankingService, eloService)
	statsHandler := handlers.NewStatsHandler(statsService)
	personHandler := handlers.NewPersonHandler(personService)
	adminHandler := handlers.NewAdminHandler(adminService, cfg.JWTSecretKey, cfg.AdminPasswordHash)
	webSocketHandler := handlers.NewWebSocketHandler(tableHub)
	healthHandler := handlers.NewHealthHandler(dbConn)
	logger.Info("HTTP handlers initialized")

	// Маршрутизатор
	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		api.RouterConfig{
			CORSOrigin: cfg.CORSOrigin,
			JWTSecret:  []byte(cfg.JWTSecretKey),
		},
		matchHandler,
		queueHandler,
		rankingHandler,
		statsHandler,
		personHandler,
		adminHandler,
		webSocketHandler,
		healthHandler,
	)
	logger.Info("routes configured")

	// HTTP-сервер
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		} else {
			logger.Info("server stopped gracefully")
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		} else {
			logger.Info("server shutdown complete")
		}
	}
	logger.Info("application exited")
}
