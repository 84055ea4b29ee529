package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/openwitness/witness-backend/internal/config"
	"github.com/openwitness/witness-backend/internal/db"
	"github.com/openwitness/witness-backend/internal/goroutine"
	"github.com/openwitness/witness-backend/internal/infrastructure/persistence"
	"github.com/openwitness/witness-backend/internal/ingestion"
	"github.com/openwitness/witness-backend/internal/interface/http/handler"
	"github.com/openwitness/witness-backend/internal/interface/http/router"
	"github.com/openwitness/witness-backend/internal/logger"
	"github.com/openwitness/witness-backend/internal/media"
	"github.com/openwitness/witness-backend/internal/pkg/keylock"
	"github.com/openwitness/witness-backend/internal/scheduler"
	"github.com/openwitness/witness-backend/internal/seed"
	"github.com/openwitness/witness-backend/internal/usecase/testimony"
	"github.com/openwitness/witness-backend/internal/usecase/witness"
	"github.com/openwitness/witness-backend/internal/ws"
)

const (
	JobIngestion       = "ingestion"
	JobReputationSweep = "reputation-sweep"
)

// App — собранное приложение: хранилище, сценарии, HTTP и фоновые задачи.
type App struct {
	Store        persistence.Store
	Hub          *ws.Hub
	Router       *gin.Engine
	Scheduler    *scheduler.Manager
	Ingestion    *ingestion.Service
	RecomputeAll *witness.RecomputeAllUseCase
	Seeder       *seed.Service
}

// OpenStore выбирает бэкенд по STORAGE_DRIVER и применяет миграции.
// Возвращаемый *sqlx.DB равен nil для хранилища в памяти.
func OpenStore(ctx context.Context, cfg *config.Config) (persistence.Store, *sqlx.DB, error) {
	var (
		conn   *sqlx.DB
		driver string
		err    error
	)

	switch cfg.StorageDriver {
	case config.StorageMemory:
		return persistence.NewMemoryStore(), nil, nil
	case config.StoragePostgres:
		driver = db.DriverPostgres
		conn, err = db.NewPostgres(ctx, cfg.DatabaseURL)
	case config.StorageSQLite:
		driver = db.DriverSQLite
		if cfg.SQLitePath != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
				return nil, nil, fmt.Errorf("app: не удалось создать каталог базы: %w", err)
			}
		}
		conn, err = db.NewSQLite(ctx, cfg.SQLitePath)
	default:
		return nil, nil, fmt.Errorf("app: неизвестное хранилище %q", cfg.StorageDriver)
	}
	if err != nil {
		return nil, nil, err
	}

	fsys, err := db.Migrations(driver)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	if err := db.RunMigrations(ctx, conn, fsys); err != nil {
		conn.Close()
		return nil, nil, err
	}
	return persistence.NewSQLStore(conn), conn, nil
}

// New связывает зависимости. pinger может быть nil.
func New(ctx context.Context, cfg *config.Config, base persistence.Store, pinger handler.Pinger) (*App, error) {
	hub := ws.NewHub(ctx)
	store := persistence.WithNotifications(base, hub)
	locks := keylock.New()
	witnessLocks := keylock.New()
	recompute := witness.NewRecomputeReputationUseCase(store, store, witnessLocks)
	recomputeAll := witness.NewRecomputeAllUseCase(store, store, recompute)
	crossRef := testimony.NewCrossReferenceUseCase(store, store, locks)
	create := testimony.NewCreateTestimonyUseCase(store, crossRef, recompute)
	search := testimony.NewSearchTestimoniesUseCase(store)
	corroborate := testimony.NewCorroborateUseCase(store, witness.NewEnsureWitnessUseCase(store, witnessLocks), crossRef, recompute, locks)
	seeder := seed.NewService(store, create, corroborate)

	storage, err := media.NewStorage(cfg.MediaStoragePath, cfg.MaxUploadSizeMB)
	if err != nil {
		return nil, err
	}

	handlers := router.Handlers{
		Testimony: handler.NewTestimonyHandler(handler.TestimonyUseCases{
			Create:         create,
			Get:            testimony.NewGetTestimonyUseCase(store),
			View:           testimony.NewViewTestimonyUseCase(store, store, locks),
			Search:         search,
			Nearby:         testimony.NewNearbyTestimoniesUseCase(store),
			Timeline:       testimony.NewTimelineUseCase(search),
			CrossReference: crossRef,
			Corroborations: testimony.NewFindCorroborationsUseCase(store),
			Corroborate:    corroborate,
			Flag:           testimony.NewFlagTestimonyUseCase(store, locks),
			TrustScore:     testimony.NewTrustScoreUseCase(store, store),
			Statistics:     testimony.NewStatisticsUseCase(store, store),
			Export:         testimony.NewExportTestimoniesUseCase(search, store),
		}),
		Witness: handler.NewWitnessHandler(witness.NewGetProfileUseCase(store), recompute),
		Media:   handler.NewMediaHandler(storage),
		WS:      handler.NewWSHandler(hub, cfg.AllowedOrigins),
		Health:  handler.NewHealthHandler(pinger, hub.ClientCount),
		Seed:    handler.NewSeedHandler(seeder),
	}

	a := &App{
		Store:        store,
		Hub:          hub,
		Router:       router.SetupRouter(cfg, handlers),
		Scheduler:    scheduler.NewManager(),
		RecomputeAll: recomputeAll,
		Seeder:       seeder,
	}

	if err := a.Scheduler.Add(JobReputationSweep, cfg.ReputationSweepSchedule, a.sweepReputations); err != nil {
		return nil, err
	}

	if cfg.IngestionEnabled && len(cfg.IngestionFeeds) > 0 {
		sources := make([]ingestion.Source, 0, len(cfg.IngestionFeeds))
		for _, f := range cfg.IngestionFeeds {
			sources = append(sources, ingestion.NewFeedSource(f.Name, f.URL))
		}
		a.Ingestion = ingestion.NewService(sources, store, create, ingestion.WithWitnessID(cfg.NewsWitnessID))
		if err := a.Scheduler.Add(JobIngestion, cfg.IngestionSchedule, a.ingest); err != nil {
			return nil, err
		}
	}

	return a, nil
}

// Start запускает хаб и планировщик. Оба останавливаются вместе с ctx и Stop.
func (a *App) Start(ctx context.Context) error {
	goroutine.SafeGo(a.Hub.Run)
	return a.Scheduler.Start(ctx)
}

func (a *App) Stop() {
	a.Scheduler.Stop()
}

func (a *App) sweepReputations(ctx context.Context) error {
	n, err := a.RecomputeAll.Execute(ctx)
	if err != nil {
		return err
	}
	logger.Component("scheduler").WithField("witnesses", n).Info("Репутации пересчитаны")
	return nil
}

func (a *App) ingest(ctx context.Context) error {
	_, err := a.Ingestion.RunOnce(ctx)
	return err
}
