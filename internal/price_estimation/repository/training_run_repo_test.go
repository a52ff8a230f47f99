package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Walker49x/Car-Price-Prediction-Web-App/internal/price_estimation/domain"
	"github.com/Walker49x/Car-Price-Prediction-Web-App/internal/price_estimation/repository"
)

var runColumns = []string{
	"id", "model_version", "seed", "score", "trials", "test_ratio",
	"train_rows", "test_rows", "artifact_path", "metrics", "created_at",
}

func setupTrainingRunRepo(t *testing.T) (*repository.TrainingRunRepository, sqlmock.Sqlmock, *sql.DB) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := repository.NewTrainingRunRepository(db)
	return repo, mock, db
}

func TestTrainingRunRepository_EnsureSchema(t *testing.T) {
	repo, mock, db := setupTrainingRunRepo(t)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS training_runs`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTrainingRunRepository_Create(t *testing.T) {
	repo, mock, db := setupTrainingRunRepo(t)
	defer db.Close()
	ctx := context.Background()

	t.Run("creates run and assigns id", func(t *testing.T) {
		run := &domain.TrainingRun{
			ModelVersion: "model-v1",
			Seed:         433,
			Score:        0.8991,
			Trials:       1000,
			TestRatio:    0.2,
			TrainRows:    653,
			TestRows:     164,
			ArtifactPath: "models/pipeline.cpp",
			Metrics:      map[string]interface{}{"mae": 81234.5},
		}

		mock.ExpectQuery(`INSERT INTO training_runs`).
			WithArgs(
				sqlmock.AnyArg(), // id (UUID)
				"model-v1",
				int64(433),
				0.8991,
				1000,
				0.2,
				653,
				164,
				"models/pipeline.cpp",
				[]byte(`{"mae":81234.5}`),
			).
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

		require.NoError(t, repo.Create(ctx, run))
		assert.NotEmpty(t, run.ID)
		assert.False(t, run.CreatedAt.IsZero())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wraps database errors", func(t *testing.T) {
		boom := errors.New("connection reset")
		mock.ExpectQuery(`INSERT INTO training_runs`).WillReturnError(boom)

		err := repo.Create(ctx, &domain.TrainingRun{ID: "fixed-id"})
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTrainingRunRepository_GetByID(t *testing.T) {
	repo, mock, db := setupTrainingRunRepo(t)
	defer db.Close()
	ctx := context.Background()

	t.Run("gets run successfully", func(t *testing.T) {
		created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
		id := "6f1c2a9e-3b7d-4e21-9c55-0d8a4b2f7e13"
		mock.ExpectQuery(`SELECT id, model_version, seed`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(runColumns).AddRow(
				id, "model-v1", 433, 0.8991, 1000, 0.2, 653, 164,
				"models/pipeline.cpp", `{"mae":81234.5}`, created,
			))

		run, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "model-v1", run.ModelVersion)
		assert.Equal(t, int64(433), run.Seed)
		assert.Equal(t, 653, run.TrainRows)
		assert.Equal(t, 81234.5, run.Metrics["mae"])
		assert.Equal(t, created, run.CreatedAt)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrRunNotFound", func(t *testing.T) {
		id := "0b9e44d1-8a61-4c3f-b7a2-5e6d1f0c9a88"
		mock.ExpectQuery(`SELECT id, model_version, seed`).
			WithArgs(id).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(ctx, id)
		assert.Equal(t, domain.ErrRunNotFound, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("malformed id is not found without a query", func(t *testing.T) {
		for _, id := range []string{"abc", "run-1", "", "6f1c2a9e-3b7d"} {
			_, err := repo.GetByID(ctx, id)
			assert.ErrorIs(t, err, domain.ErrRunNotFound, "id %q", id)
		}
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTrainingRunRepository_Latest(t *testing.T) {
	repo, mock, db := setupTrainingRunRepo(t)
	defer db.Close()
	ctx := context.Background()

	mock.ExpectQuery(`ORDER BY created_at DESC LIMIT 1`).
		WillReturnRows(sqlmock.NewRows(runColumns).AddRow(
			"run-2", "model-v2", 7, 0.91, 50, 0.2, 10, 3, "", nil, time.Now(),
		))

	run, err := repo.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-2", run.ID)
	assert.NotNil(t, run.Metrics)

	mock.ExpectQuery(`ORDER BY created_at DESC LIMIT 1`).
		WillReturnRows(sqlmock.NewRows(runColumns))

	_, err = repo.Latest(ctx)
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTrainingRunRepository_List(t *testing.T) {
	repo, mock, db := setupTrainingRunRepo(t)
	defer db.Close()
	ctx := context.Background()

	t.Run("lists newest first", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, model_version, seed`).
			WithArgs(2).
			WillReturnRows(sqlmock.NewRows(runColumns).
				AddRow("b", "v2", 4, 0.9, 10, 0.2, 8, 2, "", `{}`, time.Now()).
				AddRow("a", "v1", 1, 0.8, 10, 0.2, 8, 2, "", `{}`, time.Now().Add(-time.Hour)))

		runs, err := repo.List(ctx, 2)
		require.NoError(t, err)
		require.Len(t, runs, 2)
		assert.Equal(t, "b", runs[0].ID)
		assert.Equal(t, "a", runs[1].ID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("defaults the limit", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, model_version, seed`).
			WithArgs(20).
			WillReturnRows(sqlmock.NewRows(runColumns))

		runs, err := repo.List(ctx, 0)
		require.NoError(t, err)
		assert.Empty(t, runs)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
