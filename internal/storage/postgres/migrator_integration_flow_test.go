package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMigrator_PostgresLifecycle(t *testing.T) {
	store := openBareTestStore(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	t.Cleanup(func() { _ = store.MigrateUp(context.Background(), 0) })

	steps := []struct {
		name        string
		apply       func() error
		wantVersion int64
		wantCount   int
	}{
		{"reset", func() error { return store.MigrateDown(ctx, 100) }, 0, 0},
		{"up all", func() error { return store.MigrateUp(ctx, 0) }, 2, 2},
		{"up again is no-op", func() error { return store.MigrateUp(ctx, 0) }, 2, 2},
		{"down one", func() error { return store.MigrateDown(ctx, 1) }, 1, 1},
		{"down default step", func() error { return store.MigrateDown(ctx, 0) }, 0, 0},
		{"down on empty is no-op", func() error { return store.MigrateDown(ctx, 1) }, 0, 0},
		{"up one step", func() error { return store.MigrateUp(ctx, 1) }, 1, 1},
	}

	for _, step := range steps {
		require.NoError(t, step.apply(), step.name)

		version, count, err := store.MigrationStatus(ctx)
		require.NoError(t, err, step.name)
		require.Equal(t, step.wantVersion, version, step.name)
		require.Equal(t, step.wantCount, count, step.name)
	}
}

func TestMigrator_DownDropsCatalogTables(t *testing.T) {
	store := openBareTestStore(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	t.Cleanup(func() { _ = store.MigrateUp(context.Background(), 0) })

	require.NoError(t, store.MigrateUp(ctx, 0))
	require.NoError(t, store.MigrateDown(ctx, 100))

	var exists bool
	require.NoError(t, store.DB().QueryRowContext(ctx, `SELECT to_regclass('public.products') IS NOT NULL`).Scan(&exists))
	require.False(t, exists, "products table must be dropped")
}

func TestMigrator_NilStoreGuards(t *testing.T) {
	var nilStore *Store
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.Error(t, nilStore.MigrateUp(ctx, 0))
	require.Error(t, nilStore.MigrateDown(ctx, 1))
	_, _, err := nilStore.MigrationStatus(ctx)
	require.Error(t, err)
}
