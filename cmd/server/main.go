package main

import (
	"chatdraft/backend/internal/api/handler"
	"chatdraft/backend/internal/api/middleware"
	"chatdraft/backend/internal/chathub"
	"chatdraft/backend/internal/config"
	"chatdraft/backend/internal/draft"
	"chatdraft/backend/internal/models"
	"chatdraft/backend/internal/storage"
	"chatdraft/backend/internal/telegram"
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupDependencies(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*gorm.DB, *redis.Client) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect PostgreSQL")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("failed to connect Redis")
	}

	logger.Info().Msg("database and redis connections established")
	return db, rdb
}

// publishSink returns the storage publisher, wrapped in the Telegram mirror
// when one is configured.
func publishSink(cfg *config.Config, store storage.Storage, logger zerolog.Logger) draft.PublishSink {
	var sink draft.PublishSink = storage.NewPublisher(store, logger)
	if !cfg.MirrorEnabled() {
		return sink
	}
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		logger.Error().Err(err).Msg("telegram mirror disabled: failed to start bot")
		return sink
	}
	logger.Info().Int("chats", len(cfg.TelegramMirrorChats)).Msg("telegram mirror enabled")
	return telegram.NewMirror(sink, bot, cfg.TelegramMirrorChats, cfg.LinkBaseURL, logger)
}

func main() {
	cfg := config.Load()
	logger := cfg.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, rdb := setupDependencies(ctx, cfg, logger)
	defer rdb.Close()

	s := storage.NewStorageService(db, rdb, logger)
	if err := s.Migrate(); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	directory := storage.NewDirectory(s, rdb, cfg.SuggestionCacheTTL, logger)
	typing := storage.NewTypingService(s, cfg.TypingTimeout)
	sink := publishSink(cfg, s, logger)

	hub := chathub.NewManagerService(func(channelID, userID string) *draft.MessageDraft {
		return draft.New(draft.Options{
			ChannelID:                channelID,
			UserID:                   userID,
			TypingIndicatorTriggered: true,
			TypingTimeout:            cfg.TypingTimeout,
			UserSuggestionScope:      models.SuggestionScope(cfg.UserSuggestionScope),
			Limits: draft.SuggestionLimits{
				Users:    cfg.SuggestionUserLimit,
				Channels: cfg.SuggestionChannelLimit,
			},
			MinQueryLength: cfg.SuggestionMinQuery,
			Source:         directory,
			Sink:           sink,
			Typing:         typing,
			Logger:         logger,
		})
	}, logger)
	go hub.Run(ctx)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger(logger), middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handler.NewHandler(hub, s, cfg.SuggestionWait, logger).Register(r)

	server := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting draft server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}
	logger.Info().Msg("server stopped")
}
