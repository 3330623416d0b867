package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"chatfic/internal/config"
	"chatfic/internal/generation"
	"chatfic/internal/logger"
	"chatfic/internal/persistence"
	"chatfic/internal/service"
	"chatfic/internal/storage"
)

// shutdownTimeout ограничивает сброс очереди сохранения и отправку метрик при выходе.
const shutdownTimeout = 15 * time.Second

// app - собранные компоненты приложения на время одной команды.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	kv       storage.KV
	syncer   *persistence.Syncer
	metrics  *generation.Metrics
	settings *service.Settings
	stories  *service.StoryStore
	ideas    *service.IdeaBoard
}

// newApp собирает приложение: конфиг, логгер, хранилище, восстановление состояния, генерация, сервисы.
func newApp(ctx context.Context, configPath string, confirmer service.Confirmer) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(logger.Config{
		Level:      cfg.Log.Level,
		Encoding:   cfg.Log.Encoding,
		OutputPath: cfg.Log.Output,
	})
	if err != nil {
		return nil, err
	}
	log.Debug("Configuration loaded",
		zap.String("provider", cfg.AI.Provider),
		zap.String("apiKey", cfg.MaskedAPIKey()),
		zap.String("storage", cfg.Storage.Driver),
	)

	kv, err := storage.Open(ctx, storage.Config{
		Driver:      cfg.Storage.Driver,
		Path:        cfg.Storage.Path,
		RedisURL:    cfg.Storage.RedisURL,
		PostgresDSN: cfg.Storage.PostgresDSN,
	}, log)
	if err != nil {
		_ = log.Sync()
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	snap := persistence.Load(ctx, kv, log)
	syncer := persistence.NewSyncer(kv, log)
	settings := service.NewSettings(snap, syncer, log)

	client, metrics := newGenerationClient(ctx, cfg, settings, log)

	stories := service.NewStoryStore(snap.Stories, snap.Community, client, syncer, confirmer, settings, log)
	ideas := service.NewIdeaBoard(snap.CustomIdeas, client, syncer, settings, stories, log)

	return &app{
		cfg:      cfg,
		logger:   log,
		kv:       kv,
		syncer:   syncer,
		metrics:  metrics,
		settings: settings,
		stories:  stories,
		ideas:    ideas,
	}, nil
}

// newGenerationClient создает клиент генерации. Отсутствие ключа не ошибка запуска:
// клиент ответит текстом о ненастроенном ключе при первой генерации.
func newGenerationClient(ctx context.Context, cfg *config.Config, settings *service.Settings, log *zap.Logger) (*generation.Client, *generation.Metrics) {
	var backend generation.Backend
	b, err := generation.NewBackend(ctx, generation.BackendConfig{
		Provider: cfg.AI.Provider,
		APIKey:   cfg.AI.APIKey,
		BaseURL:  cfg.AI.BaseURL,
		Timeout:  cfg.AI.Timeout,
	}, log)
	switch {
	case err == nil:
		backend = b
	case errors.Is(err, generation.ErrMissingCredential):
		log.Warn("AI API key is not configured, generation is disabled", zap.String("provider", cfg.AI.Provider))
	default:
		log.Error("Failed to create generation backend", zap.Error(err))
	}

	genCfg := generation.DefaultConfig()
	genCfg.MaxAttempts = cfg.AI.MaxAttempts
	genCfg.BaseDelay = cfg.AI.BaseRetryDelay
	genCfg.ModelAliases = cfg.AI.ModelAliases

	opts := []generation.Option{generation.WithTexts(settings.Texts)}
	var metrics *generation.Metrics
	if cfg.Metrics.PushgatewayURL != "" {
		metrics = generation.NewMetrics()
		opts = append(opts, generation.WithMetrics(metrics))
		if estimator, err := generation.NewTiktokenEstimator(""); err == nil {
			opts = append(opts, generation.WithTokenEstimator(estimator))
		} else {
			log.Warn("Token estimator is unavailable", zap.Error(err))
		}
	}

	return generation.NewClient(backend, genCfg, log, opts...), metrics
}

// close сбрасывает очередь сохранения, отправляет метрики и освобождает хранилище.
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.syncer.Close(ctx); err != nil {
		a.logger.Error("Failed to flush pending writes", zap.Error(err))
	}
	if a.metrics != nil {
		if err := a.metrics.Push(ctx, a.cfg.Metrics.PushgatewayURL); err != nil {
			a.logger.Warn("Failed to push metrics", zap.Error(err))
		}
	}
	if err := a.kv.Close(); err != nil {
		a.logger.Error("Failed to close storage", zap.Error(err))
	}
	_ = a.logger.Sync()
}
