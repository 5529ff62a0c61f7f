package repository

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/quote-engine/pkg/database"
)

func setupRepo(t *testing.T) *RunRepository {
	t.Helper()
	logger := zap.NewNop()

	db, err := database.New(database.Config{
		Path:            filepath.Join(t.TempDir(), "history.db"),
		MaxOpenConns:    2,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.NewMigrator(db, logger).RunMigrations())
	return NewRunRepository(db.DB, logger)
}

func TestRunRepository_CreateAndList(t *testing.T) {
	repo := setupRepo(t)

	runs := []*ValidationRun{
		{Filename: "q1.xlsx", Mode: "detailed", Passed: true, CheckedFields: 18, PassedFields: 18, MaxDeviation: "0.004", DurationMs: 120},
		{Filename: "q2.xlsx", Mode: "summary", Passed: false, CheckedFields: 3, PassedFields: 2, MaxDeviation: "10.55", DurationMs: 95},
	}
	for _, run := range runs {
		require.NoError(t, repo.Create(run))
		assert.NotZero(t, run.ID)
	}

	recent, err := repo.ListRecent(10)
	require.NoError(t, err)
	require.Len(t, recent, 2)

	// Newest first
	assert.Equal(t, "q2.xlsx", recent[0].Filename)
	assert.False(t, recent[0].Passed)
	assert.Equal(t, "10.55", recent[0].MaxDeviation)
	assert.Equal(t, "q1.xlsx", recent[1].Filename)
	assert.True(t, recent[1].Passed)

	limited, err := repo.ListRecent(1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
