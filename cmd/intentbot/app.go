package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/avvvet/intentbot/internal/classifier"
	"github.com/avvvet/intentbot/internal/config"
	"github.com/avvvet/intentbot/internal/handlers"
	"github.com/avvvet/intentbot/internal/intents"
	"github.com/avvvet/intentbot/internal/stats"
)

// app is the immutable application context built once at startup and
// shared by every request.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	intents *intents.Store
	model   *classifier.Model
	stats   stats.Store
	handler *handlers.ChatHandler
}

// bootstrap loads the definitions and trains the model. withStats picks the
// Redis or in-memory stats store; commands that do not serve traffic skip it.
func bootstrap(cfg *config.Config, logger *slog.Logger, withStats bool) (*app, error) {
	logger.Info("📚 Loading intent definitions", "path", cfg.IntentsPath)
	store, err := intents.Load(cfg.IntentsPath)
	if err != nil {
		return nil, fmt.Errorf("loading intents: %w", err)
	}
	logger.Info("✅ Intents loaded", "intents", store.Len(), "examples", len(store.Examples()))

	opts := classifier.DefaultOptions()
	opts.TestSize = cfg.TestSize
	opts.Seed = cfg.SplitSeed

	model, err := classifier.Train(store.Examples(), opts)
	if err != nil {
		return nil, fmt.Errorf("training classifier: %w", err)
	}
	logger.Info("🧠 Classifier trained",
		"train_examples", model.TrainSize(),
		"held_out", len(model.HeldOut()),
		"vocabulary", len(model.Vectorizer().Vocabulary()),
		"classes", len(model.Classes()),
	)
	if held := model.HeldOut(); len(held) > 0 {
		report := model.Evaluate(held)
		logger.Info("📊 Held-out accuracy", "accuracy", report.Accuracy, "correct", report.Correct, "total", report.Total)
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		intents: store,
		model:   model,
	}

	var opt []handlers.Option
	if withStats {
		a.stats, err = newStatsStore(cfg, logger)
		if err != nil {
			return nil, err
		}
		opt = append(opt, handlers.WithStats(a.stats))
	}
	a.handler = handlers.NewChatHandler(model, store, logger, opt...)

	return a, nil
}

func newStatsStore(cfg *config.Config, logger *slog.Logger) (stats.Store, error) {
	if cfg.RedisURL == "" {
		logger.Info("💾 Using in-memory stats store")
		return stats.NewMemoryStore(), nil
	}

	logger.Info("🔌 Connecting to Redis...", "url", cfg.RedisURL)
	store, err := stats.NewRedisStore(cfg.RedisURL, cfg.StatsPrefix)
	if err != nil {
		return nil, fmt.Errorf("connecting to Redis: %w", err)
	}
	logger.Info("✅ Redis connected", "prefix", cfg.StatsPrefix)
	return store, nil
}

func (a *app) Close(_ context.Context) {
	if a.stats == nil {
		return
	}
	if err := a.stats.Close(); err != nil {
		a.logger.Warn("⚠️ Error closing stats store", "err", err)
	}
}
