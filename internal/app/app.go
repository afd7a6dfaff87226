package app

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/tavolo/internal/common"
	"github.com/ternarybob/tavolo/internal/interfaces"
	"github.com/ternarybob/tavolo/internal/services/intent"
	"github.com/ternarybob/tavolo/internal/services/llm"
	"github.com/ternarybob/tavolo/internal/services/places"
	"github.com/ternarybob/tavolo/internal/services/recommend"
	"github.com/ternarybob/tavolo/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	DB        *badger.DB
	KVStorage interfaces.KeyValueStorage

	LLMFactory    *llm.ProviderFactory
	GeoService    interfaces.GeoService
	IntentService interfaces.IntentService
	Ranker        interfaces.RelevanceRanker
	Recommender   interfaces.RecommendService

	cron *cron.Cron
}

// New initializes the application with all dependencies.
// Construction order matters: storage first (API key resolution reads
// the KV store), then the LLM factory and place source, then the
// pipeline that consumes them.
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	db, err := badger.NewDB(logger, &cfg.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	app.DB = db
	app.KVStorage = badger.NewKVStorage(db, logger)

	app.LLMFactory = llm.NewProviderFactory(&cfg.Gemini, &cfg.Claude, &cfg.LLM, app.KVStorage, logger)

	geo, err := places.NewService(&cfg.PlacesAPI, app.KVStorage, logger)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize place source: %w", err)
	}
	app.GeoService = geo

	app.IntentService = intent.NewService(app.LLMFactory, logger)

	if cfg.LLM.Enabled {
		app.Ranker = recommend.NewModelRanker(app.LLMFactory, logger, cfg.Pipeline.RerankCap)
	} else {
		app.Ranker = recommend.DeterministicRanker{}
		logger.Info().Msg("Model-assisted ranking disabled, using deterministic scoring only")
	}

	app.Recommender = recommend.NewPipeline(geo, app.IntentService, app.Ranker, cfg.Pipeline, logger)

	if err := app.startMaintenance(); err != nil {
		app.Close()
		return nil, err
	}

	logger.Info().
		Str("environment", cfg.Environment).
		Bool("llm_enabled", cfg.LLM.Enabled).
		Msg("Application initialized")

	return app, nil
}

// startMaintenance schedules Badger value-log GC on the configured
// cron expression.
func (a *App) startMaintenance() error {
	schedule := a.Config.Storage.Badger.GCSchedule
	if schedule == "" {
		return nil
	}

	a.cron = cron.New()
	if _, err := a.cron.AddFunc(schedule, func() {
		if err := a.DB.RunGC(); err != nil {
			a.Logger.Warn().Err(err).Msg("Badger value-log GC failed")
		}
	}); err != nil {
		return fmt.Errorf("invalid gc_schedule %q: %w", schedule, err)
	}
	a.cron.Start()

	a.Logger.Debug().Str("schedule", schedule).Msg("Storage maintenance scheduled")
	return nil
}

// Close releases all resources in reverse construction order.
func (a *App) Close() error {
	if a.cron != nil {
		a.cron.Stop()
	}

	if a.LLMFactory != nil {
		if err := a.LLMFactory.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM factory")
		}
	}

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
	}

	return nil
}
