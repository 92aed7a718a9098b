// -----------------------------------------------------------------------
// Application assembly - storage, EDGAR client, services, handlers
// -----------------------------------------------------------------------

package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/edgar"
	"github.com/ternarybob/colligo/internal/extract/relations"
	"github.com/ternarybob/colligo/internal/handlers"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/services/cache"
	"github.com/ternarybob/colligo/internal/services/dispatch"
	"github.com/ternarybob/colligo/internal/services/events"
	"github.com/ternarybob/colligo/internal/services/profile"
	"github.com/ternarybob/colligo/internal/services/scheduler"
	badgerstorage "github.com/ternarybob/colligo/internal/storage/badger"
)

// indexLoadTimeout bounds the startup download of the EDGAR ticker index.
const indexLoadTimeout = 60 * time.Second

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// Core services
	EventService interfaces.EventService
	CacheService interfaces.FilingCache
	Dispatcher   interfaces.TaskDispatcher

	// EDGAR access
	EdgarClient  *edgar.Client
	CompanyIndex *edgar.CompanyIndex

	// Profile pipeline
	RelationsExtractor *relations.Extractor
	ProfileService     *profile.Service
	SchedulerService   *scheduler.Service

	// HTTP handlers
	APIHandler       *handlers.APIHandler
	CompanyHandler   *handlers.CompanyHandler
	ProfileHandler   *handlers.ProfileHandler
	CacheHandler     *handlers.CacheHandler
	StatusHandler    *handlers.StatusHandler
	SchedulerHandler *handlers.SchedulerHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initStorage(); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	if err := app.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.initHandlers()

	if err := app.SchedulerService.Start(); err != nil {
		app.Logger.Warn().Err(err).Msg("Failed to start scheduler service")
	}

	logger.Info().
		Int("companies", app.CompanyIndex.Size()).
		Int("workers", cfg.Dispatch.Workers).
		Bool("scheduler_enabled", cfg.Scheduler.Enabled).
		Msg("Application initialization complete")

	return app, nil
}

// initStorage initializes the storage layer (Badger)
func (a *App) initStorage() error {
	manager, err := badgerstorage.NewManager(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}
	a.StorageManager = manager

	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")
	return nil
}

// initServices initializes all business services in dependency order.
func (a *App) initServices() error {
	var err error

	a.EventService = events.NewService(a.Logger)

	a.CacheService, err = cache.NewService(&a.Config.Cache, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize filing cache: %w", err)
	}
	a.Logger.Debug().
		Str("dir", a.Config.Cache.Dir).
		Int64("capacity_bytes", a.Config.Cache.CapacityBytes).
		Msg("Filing cache initialized")

	a.Dispatcher = dispatch.NewService(&a.Config.Dispatch, a.EventService, a.Logger)
	a.Logger.Debug().
		Int("workers", a.Config.Dispatch.Workers).
		Int("queue_size", a.Config.Dispatch.QueueSize).
		Msg("Task dispatcher initialized")

	a.EdgarClient = edgar.NewClient(
		edgar.WithBaseURL(a.Config.Edgar.BaseURL),
		edgar.WithArchivesURL(a.Config.Edgar.ArchivesURL),
		edgar.WithUserAgent(a.Config.Edgar.UserAgent),
		edgar.WithRateLimit(a.Config.Edgar.RateLimit),
		edgar.WithHTTPClient(&http.Client{Timeout: a.Config.Edgar.RequestTimeout}),
		edgar.WithLogger(a.Logger),
	)

	// Load the registrant directory up front. A failed load degrades
	// ticker resolution and fuzzy matching until a manual refresh, it
	// does not block startup.
	a.CompanyIndex = edgar.NewCompanyIndex(a.Logger)
	ctx, cancel := context.WithTimeout(context.Background(), indexLoadTimeout)
	defer cancel()
	if err := a.CompanyIndex.Load(ctx, a.EdgarClient); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to load EDGAR company index at startup")
	}

	a.RelationsExtractor = relations.NewExtractor(
		a.CompanyIndex.All(),
		a.Config.Relations,
		relations.WithProfileStorage(a.StorageManager.ProfileStorage()),
		relations.WithLogger(a.Logger),
	)

	a.ProfileService = profile.NewService(
		a.Config,
		a.EdgarClient,
		a.CacheService,
		a.Dispatcher,
		a.StorageManager,
		profile.WithFactsSource(a.EdgarClient),
		profile.WithRelationshipExtractor(a.RelationsExtractor),
		profile.WithEventService(a.EventService),
		profile.WithLogger(a.Logger),
	)
	a.Logger.Debug().Msg("Profile service initialized")

	a.SchedulerService = scheduler.NewService(&a.Config.Scheduler, a.ProfileService, a.CompanyIndex, a.Logger)

	return nil
}

// initHandlers initializes all HTTP handlers
func (a *App) initHandlers() {
	a.APIHandler = handlers.NewAPIHandler()
	a.CompanyHandler = handlers.NewCompanyHandler(a.CompanyIndex, a.EdgarClient, a.Logger)
	a.ProfileHandler = handlers.NewProfileHandler(a.ProfileService, a.StorageManager, a.CompanyIndex, a.Config, a.Logger)
	a.CacheHandler = handlers.NewCacheHandler(a.CacheService, a.Logger)
	a.StatusHandler = handlers.NewStatusHandler(a.CacheService, a.Dispatcher, a.StorageManager, a.CompanyIndex, a.Logger)
	a.SchedulerHandler = handlers.NewSchedulerHandler(a.SchedulerService, a.Logger)
}

// Close closes all application resources
func (a *App) Close() error {
	if a.SchedulerService != nil {
		a.SchedulerService.Stop()
	}

	if a.Dispatcher != nil {
		a.Dispatcher.Shutdown()
		a.Logger.Info().Msg("Task dispatcher stopped")
	}

	if a.EventService != nil {
		if err := a.EventService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close event service")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}
