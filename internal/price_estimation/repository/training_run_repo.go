package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Walker49x/Car-Price-Prediction-Web-App/internal/price_estimation/domain"
)

const trainingRunsSchema = `
	CREATE TABLE IF NOT EXISTS training_runs (
		id            UUID PRIMARY KEY,
		model_version TEXT NOT NULL,
		seed          BIGINT NOT NULL,
		score         DOUBLE PRECISION NOT NULL,
		trials        INTEGER NOT NULL,
		test_ratio    DOUBLE PRECISION NOT NULL,
		train_rows    INTEGER NOT NULL,
		test_rows     INTEGER NOT NULL,
		artifact_path TEXT NOT NULL DEFAULT '',
		metrics       JSONB NOT NULL DEFAULT '{}'::jsonb,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS training_runs_created_at_idx ON training_runs (created_at DESC)
`

const trainingRunColumns = `id, model_version, seed, score, trials, test_ratio,
		       train_rows, test_rows, artifact_path, metrics, created_at`

// TrainingRunRepository handles PostgreSQL operations for training runs
type TrainingRunRepository struct {
	db *sql.DB
}

// NewTrainingRunRepository creates a new TrainingRunRepository
func NewTrainingRunRepository(db *sql.DB) *TrainingRunRepository {
	return &TrainingRunRepository{db: db}
}

// EnsureSchema creates the training_runs table if it does not exist
func (r *TrainingRunRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, trainingRunsSchema); err != nil {
		return fmt.Errorf("failed to create training_runs table: %w", err)
	}
	return nil
}

// Create inserts a training run, assigning an ID when none is set
func (r *TrainingRunRepository) Create(ctx context.Context, run *domain.TrainingRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}

	query := `
		INSERT INTO training_runs (
			id, model_version, seed, score, trials, test_ratio,
			train_rows, test_rows, artifact_path, metrics
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`

	metricsJSON, err := json.Marshal(run.Metrics)
	if err != nil || run.Metrics == nil {
		metricsJSON = []byte("{}")
	}

	var createdAt time.Time
	err = r.db.QueryRowContext(
		ctx,
		query,
		run.ID,
		run.ModelVersion,
		run.Seed,
		run.Score,
		run.Trials,
		run.TestRatio,
		run.TrainRows,
		run.TestRows,
		run.ArtifactPath,
		metricsJSON,
	).Scan(&createdAt)
	if err != nil {
		return fmt.Errorf("failed to create training run: %w", err)
	}

	run.CreatedAt = createdAt
	return nil
}

// GetByID retrieves a training run by its ID
func (r *TrainingRunRepository) GetByID(ctx context.Context, id string) (*domain.TrainingRun, error) {
	// ids are UUIDs; anything else cannot match and would fail the column cast
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrRunNotFound
	}

	query := `SELECT ` + trainingRunColumns + ` FROM training_runs WHERE id = $1`

	run, err := scanRun(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get training run: %w", err)
	}
	return run, nil
}

// Latest retrieves the most recent training run
func (r *TrainingRunRepository) Latest(ctx context.Context) (*domain.TrainingRun, error) {
	query := `SELECT ` + trainingRunColumns + ` FROM training_runs ORDER BY created_at DESC LIMIT 1`

	run, err := scanRun(r.db.QueryRowContext(ctx, query))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest training run: %w", err)
	}
	return run, nil
}

// List retrieves up to limit training runs, newest first
func (r *TrainingRunRepository) List(ctx context.Context, limit int) ([]*domain.TrainingRun, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT ` + trainingRunColumns + ` FROM training_runs ORDER BY created_at DESC LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list training runs: %w", err)
	}
	defer rows.Close()

	runs := make([]*domain.TrainingRun, 0, limit)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan training run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate training runs: %w", err)
	}
	return runs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*domain.TrainingRun, error) {
	var run domain.TrainingRun
	var metricsJSON []byte

	err := row.Scan(
		&run.ID,
		&run.ModelVersion,
		&run.Seed,
		&run.Score,
		&run.Trials,
		&run.TestRatio,
		&run.TrainRows,
		&run.TestRows,
		&run.ArtifactPath,
		&metricsJSON,
		&run.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	// Unmarshal JSONB field
	if len(metricsJSON) == 0 || json.Unmarshal(metricsJSON, &run.Metrics) != nil {
		run.Metrics = make(map[string]interface{})
	}
	return &run, nil
}
