package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/beach-league/auth"
	"github.com/Dosada05/beach-league/config"
	"github.com/Dosada05/beach-league/db"
	"github.com/Dosada05/beach-league/handlers"
	"github.com/Dosada05/beach-league/middleware"
	"github.com/Dosada05/beach-league/realtime"
	"github.com/Dosada05/beach-league/repositories"
	api "github.com/Dosada05/beach-league/routes"
	"github.com/Dosada05/beach-league/services"
	"github.com/Dosada05/beach-league/storage"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

const connectTimeout = 5 * time.Second

// @title          Beach League API
// @version        1.0
// @description    Players, tournaments, matches and the ranking of a beach tennis league.
// @BasePath       /
// @securityDefinitions.apikey BearerAuth
// @in             header
// @name           Authorization
func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded",
		slog.Int("port", cfg.ServerPort),
		slog.String("store_backend", cfg.StoreBackend),
	)

	// Хранилище
	store, closeStore, err := openStore(cfg, logger)
	if err != nil {
		logger.Error("failed to open store", slog.String("backend", cfg.StoreBackend), slog.Any("error", err))
		os.Exit(1)
	}
	defer closeStore()

	// Сессии
	sessions, closeSessions, err := openSessionStore(cfg, logger)
	if err != nil {
		logger.Error("failed to open session store", slog.Any("error", err))
		os.Exit(1)
	}
	defer closeSessions()

	// Инициализация загрузчика файлов (Cloudflare R2)
	var uploader storage.FileUploader
	if cfg.R2Enabled() {
		uploader, err = storage.NewCloudflareR2Uploader(context.Background(), storage.CloudflareR2UploaderConfig{
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
		logger.Warn("R2 credentials not set, avatar uploads are disabled")
	}

	// Инициализация WebSocket Hub
	wsHub := realtime.NewHub(logger)
	go wsHub.Run()
	defer wsHub.Stop()

	// Инициализация сервисов
	tokens := auth.NewTokenManager(cfg.JWTSecretKey, cfg.JWTTTL)
	broker := auth.NewBroker()

	authService := services.NewAuthService(store.Accounts, store.Players, tokens, sessions, broker, cfg.AdminEmails, logger)
	tournamentService := services.NewTournamentService(store.Tournaments, store.Matches, store.Players, wsHub, logger)
	matchService := services.NewMatchService(store.Matches, store.Tournaments, wsHub, logger)
	resultService := services.NewResultService(store.Matches, store.Tournaments, store.Players, tournamentService, wsHub, logger)
	rankingService := services.NewRankingService(store.Players, uploader, logger)
	playerService := services.NewPlayerService(store.Players, uploader, logger)
	dashboardService := services.NewDashboardService(store.Players, store.Tournaments, store.Matches)
	logger.Info("services initialized")

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(router, api.Handlers{
		Auth:       handlers.NewAuthHandler(authService),
		Player:     handlers.NewPlayerHandler(playerService),
		Ranking:    handlers.NewRankingHandler(rankingService),
		Tournament: handlers.NewTournamentHandler(tournamentService, matchService),
		Match:      handlers.NewMatchHandler(matchService, resultService),
		Dashboard:  handlers.NewDashboardHandler(dashboardService),
		WebSocket:  handlers.NewWebSocketHandler(wsHub, tournamentService, authService, cfg.CORSAllowedOrigins),
	}, api.Options{
		Authenticator:  authService,
		LoginLimiter:   middleware.NewLoginRateLimiter(cfg.LoginRateLimit),
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})
	logger.Info("routes configured")

	// Настройка и запуск HTTP-сервера
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
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}

func openStore(cfg *config.Config, logger *slog.Logger) (*repositories.Store, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		dbConn, err := db.Connect(cfg.DatabaseURL, connectTimeout)
		if err != nil {
			return nil, nil, err
		}
		if cfg.RunMigrations {
			if err := db.RunMigrations(dbConn); err != nil {
				dbConn.Close()
				return nil, nil, err
			}
			logger.Info("database migrations applied")
		}
		logger.Info("database connection established")
		return repositories.NewPostgresStore(dbConn), closeWith(logger, "database", dbConn), nil

	case config.BackendMongo:
		client, err := db.ConnectMongo(cfg.MongoURI, connectTimeout)
		if err != nil {
			return nil, nil, err
		}
		database := client.Database(cfg.MongoDatabase)
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		if err := repositories.EnsureMongoIndexes(ctx, database); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		logger.Info("mongo connection established", slog.String("database", cfg.MongoDatabase))
		return repositories.NewMongoStore(database), disconnectMongo(logger, client), nil

	default:
		logger.Warn("using in-memory store, data is lost on restart")
		return repositories.NewMemoryStore(), func() {}, nil
	}
}

func openSessionStore(cfg *config.Config, logger *slog.Logger) (auth.SessionStore, func(), error) {
	if cfg.RedisURL == "" {
		logger.Warn("REDIS_URL not set, sessions are kept in memory")
		return auth.NewMemorySessionStore(), func() {}, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	client, err := auth.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("redis session store connected")
	return auth.NewRedisSessionStore(client), closeRedis(logger, client), nil
}

func closeWith(logger *slog.Logger, name string, c *sql.DB) func() {
	return func() {
		if err := c.Close(); err != nil {
			logger.Error("failed to close connection", slog.String("name", name), slog.Any("error", err))
			return
		}
		logger.Info("connection closed", slog.String("name", name))
	}
}

func disconnectMongo(logger *slog.Logger, client *mongo.Client) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		if err := client.Disconnect(ctx); err != nil {
			logger.Error("failed to disconnect from mongo", slog.Any("error", err))
		}
	}
}

func closeRedis(logger *slog.Logger, client *redis.Client) func() {
	return func() {
		if err := client.Close(); err != nil {
			logger.Error("failed to close redis client", slog.Any("error", err))
		}
	}
}
