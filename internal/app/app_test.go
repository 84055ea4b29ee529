package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openwitness/witness-backend/internal/config"
	"github.com/openwitness/witness-backend/internal/domain/entity"
	"github.com/openwitness/witness-backend/internal/logger"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Env:                     "test",
		StorageDriver:           config.StorageSQLite,
		SQLitePath:              filepath.Join(t.TempDir(), "db", "witness.db"),
		MediaStoragePath:        t.TempDir(),
		MaxUploadSizeMB:         1,
		RateLimitLimit:          10,
		RateLimitPeriod:         time.Minute,
		IngestionEnabled:        true,
		IngestionSchedule:       "*/10 * * * *",
		IngestionFeeds:          []config.Feed{{Name: "reliefweb", URL: "http://127.0.0.1:1/rss"}},
		ReputationSweepSchedule: "@hourly",
		NewsWitnessID:           "OW_AI_NEWS",
	}
}

func TestOpenStore_SQLiteMigratesAndPersists(t *testing.T) {
	logger.Silence()
	ctx := context.Background()
	cfg := testConfig(t)

	store, conn, err := OpenStore(ctx, cfg)
	require.NoError(t, err)
	require.NotNil(t, conn)
	defer conn.Close()

	saved, err := store.SaveWitness(ctx, entity.NewWitness("w1", time.Now().UTC()))
	require.NoError(t, err)
	got, err := store.GetWitness(ctx, saved.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestOpenStore_UnknownDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.StorageDriver = "mongo"
	_, _, err := OpenStore(context.Background(), cfg)
	assert.Error(t, err)
}

func TestNew_RegistersJobs(t *testing.T) {
	logger.Silence()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cfg := testConfig(t)
	cfg.StorageDriver = config.StorageMemory

	store, _, err := OpenStore(ctx, cfg)
	require.NoError(t, err)
	a, err := New(ctx, cfg, store, nil)
	require.NoError(t, err)
	require.NotNil(t, a.Ingestion)

	_, err = a.Store.SaveWitness(ctx, &entity.Witness{ID: "w1", Reputation: 80})
	require.NoError(t, err)
	require.NoError(t, a.Scheduler.Trigger(JobReputationSweep))

	w, err := a.Store.GetWitness(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, 0, w.Reputation)

	require.NoError(t, a.Scheduler.Trigger(JobIngestion))

	require.NoError(t, a.Start(ctx))
	a.Stop()
}

func TestNew_RejectsBadSchedule(t *testing.T) {
	logger.Silence()
	cfg := testConfig(t)
	cfg.ReputationSweepSchedule = "whenever"
	store, _, err := OpenStore(context.Background(), &config.Config{StorageDriver: config.StorageMemory})
	require.NoError(t, err)

	_, err = New(context.Background(), cfg, store, nil)
	assert.Error(t, err)
}
