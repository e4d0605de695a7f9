package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nursery-platform/internal/models"
	"nursery-platform/internal/repository"
	"nursery-platform/pkg/logging"
)

func TestEmbeddedSpeciesLibraryIsValid(t *testing.T) {
	species, err := LoadSpeciesLibrary(strings.NewReader(string(embeddedSpecies)))
	require.NoError(t, err)
	require.NotEmpty(t, species)

	for _, s := range species {
		assert.NotEmpty(t, s.HardeningRules.ShadeReductionSchedule, s.CommonName)
		assert.Positive(t, s.TransplantReadiness.MinMonthsInPot, s.CommonName)
	}
}

func TestLoadSpeciesLibraryRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "unknown field",
			yaml: "species:\n  - common_name: A\n    colour: red\n",
		},
		{
			name: "missing interval",
			yaml: "species:\n  - {common_name: A, scientific_name: A a, category: fruit}\n",
		},
		{
			name: "duplicate scientific name",
			yaml: "species:\n" +
				"  - {common_name: A, scientific_name: A a, category: fruit, watering_dry_season_days: 2, watering_rainy_season_days: 5}\n" +
				"  - {common_name: B, scientific_name: a A, category: fruit, watering_dry_season_days: 2, watering_rainy_season_days: 5}\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSpeciesLibrary(strings.NewReader(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestEnsureLoadedPopulatesOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.species.EnsureLoaded(ctx)
	require.NoError(t, err)
	assert.False(t, result.Skipped)
	assert.Positive(t, result.Loaded)
	loaded := result.Loaded

	result, err = env.species.EnsureLoaded(ctx)
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Equal(t, loaded, result.Existing)
	assert.Zero(t, result.Loaded)

	assert.Equal(t, float64(loaded), testutil.ToFloat64(env.metrics.SpeciesLoadedTotal))
}

func TestEnsureLoadedConcurrentCallersShareLoad(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := env.species.EnsureLoaded(ctx); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("EnsureLoaded failed: %v", err)
	}

	expected, err := LoadSpeciesLibrary(strings.NewReader(string(embeddedSpecies)))
	require.NoError(t, err)
	count, err := env.species.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(expected), count)
}

func TestReloadReplacesLibrary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.species.EnsureLoaded(ctx)
	require.NoError(t, err)

	result, err := env.species.Reload(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.Loaded, result.Loaded)

	count, _ := env.species.Count(ctx)
	assert.Equal(t, first.Loaded, count)
}

func TestReloadKeepsLibraryWhenSeedIsInvalid(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.species.EnsureLoaded(ctx)
	require.NoError(t, err)

	broken := filepath.Join(t.TempDir(), "species.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("species:\n  - {common_name: Nance, unknown_field: 1}\n"), 0o600))

	for _, path := range []string{broken, filepath.Join(t.TempDir(), "none.yaml")} {
		svc := NewSpeciesService(env.store, env.seasons, path, logging.NewDiscardLogger(), env.metrics)
		_, err := svc.Reload(ctx)
		require.Error(t, err, path)

		count, err := env.species.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, first.Loaded, count, path)
	}
}

// cancelAwareStore fails species writes once the caller's context is done
type cancelAwareStore struct {
	*repository.MemoryStore
}

func (s cancelAwareStore) CountSpecies(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.MemoryStore.CountSpecies(ctx)
}

func (s cancelAwareStore) InsertSpeciesBatch(ctx context.Context, species []*models.Species) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.MemoryStore.InsertSpeciesBatch(ctx, species)
}

func TestEnsureLoadedIgnoresCallerCancellation(t *testing.T) {
	env := newTestEnv(t)
	store := cancelAwareStore{MemoryStore: repository.NewMemoryStore()}
	svc := NewSpeciesService(store, env.seasons, "", logging.NewDiscardLogger(), env.metrics)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := svc.EnsureLoaded(ctx)
	require.NoError(t, err)
	assert.Positive(t, result.Loaded)

	count, err := store.CountSpecies(context.Background())
	require.NoError(t, err)
	assert.Equal(t, result.Loaded, count)
}

func TestSeedFileOverride(t *testing.T) {
	env := newTestEnv(t)
	path := filepath.Join(t.TempDir(), "species.yaml")
	content := "species:\n  - {common_name: Nance, scientific_name: Byrsonima crassifolia, category: fruit, watering_dry_season_days: 3, watering_rainy_season_days: 7, native_to_region: true}\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	svc := NewSpeciesService(env.store, env.seasons, path, logging.NewDiscardLogger(), env.metrics)
	result, err := svc.EnsureLoaded(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Loaded)

	native, err := svc.Native(context.Background())
	require.NoError(t, err)
	require.Len(t, native, 1)
	assert.Equal(t, "Nance", native[0].CommonName)

	missing := NewSpeciesService(repository.NewMemoryStore(), env.seasons, filepath.Join(t.TempDir(), "none.yaml"), logging.NewDiscardLogger(), env.metrics)
	_, err = missing.EnsureLoaded(context.Background())
	assert.Error(t, err)
}

func TestSpeciesQueries(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.species.EnsureLoaded(ctx)
	require.NoError(t, err)

	found, err := env.species.Search(ctx, "enterolobium")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Guanacaste", found[0].CommonName)

	fruit, err := env.species.ByCategory(ctx, "fruit")
	require.NoError(t, err)
	for _, s := range fruit {
		assert.Equal(t, "fruit", s.Category)
	}

	fixers, err := env.species.NitrogenFixers(ctx)
	require.NoError(t, err)
	for _, s := range fixers {
		assert.True(t, s.NitrogenFixer)
	}

	stats, err := env.species.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(fixers), stats.NitrogenFixers)
	assert.Equal(t, len(fruit), stats.ByCategory["fruit"])
}

func TestWateringRecommendation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.species.EnsureLoaded(ctx)
	require.NoError(t, err)

	found, err := env.species.Search(ctx, "Enterolobium")
	require.NoError(t, err)
	require.Len(t, found, 1)
	guanacaste := found[0]

	rec, err := env.species.WateringRecommendation(ctx, guanacaste.ID, date(2025, time.March, 1), "guanacaste")
	require.NoError(t, err)
	assert.Equal(t, &models.WateringRecommendation{
		SpeciesID:    guanacaste.ID,
		CommonName:   "Guanacaste",
		Region:       "guanacaste",
		Season:       "dry",
		IntervalDays: guanacaste.WateringDrySeasonDays,
		Multiplier:   1.5,
	}, rec)

	_, err = env.species.WateringRecommendation(ctx, 9999, date(2025, time.March, 1), "guanacaste")
	var nf *repository.NotFoundError
	assert.True(t, errors.As(err, &nf))
}
