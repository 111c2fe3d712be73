package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"goposthoc/domain/adjust"
	"goposthoc/domain/core"

	"github.com/jmoiron/sqlx"
)

// SweepRun is one persisted adjustment run: the raw p-value family that
// went in and the corrected family that came out.
type SweepRun struct {
	ID          core.RunID    `json:"id"`
	CreatedAt   time.Time     `json:"created_at"`
	Method      adjust.Method `json:"method"`
	Alpha       float64       `json:"alpha"`
	Variables   []string      `json:"variables"`
	RawP        []float64     `json:"raw_p"`
	AdjustedP   []float64     `json:"adjusted_p"`
	Significant int           `json:"significant"`
}

// RunRepository persists sweep runs
type RunRepository struct {
	db *sqlx.DB
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *sqlx.DB) *RunRepository {
	return &RunRepository{db: db}
}

// EnsureSchema creates the backing table when missing
func (r *RunRepository) EnsureSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS sweep_runs (
			id UUID PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			method TEXT NOT NULL,
			alpha DOUBLE PRECISION NOT NULL,
			variables JSONB NOT NULL,
			raw_p JSONB NOT NULL,
			adjusted_p JSONB NOT NULL,
			significant INT NOT NULL
		)`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure sweep_runs schema: %w", err)
	}
	return nil
}

// Insert adds a new sweep run
func (r *RunRepository) Insert(ctx context.Context, run *SweepRun) error {
	query := `
		INSERT INTO sweep_runs (id, created_at, method, alpha, variables, raw_p, adjusted_p, significant)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	variablesJSON, err := json.Marshal(run.Variables)
	if err != nil {
		return fmt.Errorf("failed to marshal variables: %w", err)
	}
	rawJSON, err := json.Marshal(run.RawP)
	if err != nil {
		return fmt.Errorf("failed to marshal raw p-values: %w", err)
	}
	adjustedJSON, err := json.Marshal(run.AdjustedP)
	if err != nil {
		return fmt.Errorf("failed to marshal adjusted p-values: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query,
		run.ID.String(),
		run.CreatedAt,
		string(run.Method),
		run.Alpha,
		variablesJSON,
		rawJSON,
		adjustedJSON,
		run.Significant,
	)
	if err != nil {
		return fmt.Errorf("failed to insert sweep run: %w", err)
	}
	return nil
}

// GetByID returns one sweep run, or ErrRunNotFound
func (r *RunRepository) GetByID(ctx context.Context, id core.RunID) (*SweepRun, error) {
	query := `
		SELECT id, created_at, method, alpha, variables, raw_p, adjusted_p, significant
		FROM sweep_runs
		WHERE id = $1`

	run, err := r.scanRun(r.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: %s", core.ErrRunNotFound, id)
		}
		return nil, fmt.Errorf("failed to get sweep run: %w", err)
	}
	return run, nil
}

// ListRecent returns the most recent sweep runs, newest first
func (r *RunRepository) ListRecent(ctx context.Context, limit int) ([]*SweepRun, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT id, created_at, method, alpha, variables, raw_p, adjusted_p, significant
		FROM sweep_runs
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sweep runs: %w", err)
	}
	defer rows.Close()

	runs := make([]*SweepRun, 0, limit)
	for rows.Next() {
		run, err := r.scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sweep run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *RunRepository) scanRun(row rowScanner) (*SweepRun, error) {
	var run SweepRun
	var id, method string
	var variablesJSON, rawJSON, adjustedJSON []byte

	if err := row.Scan(&id, &run.CreatedAt, &method, &run.Alpha, &variablesJSON, &rawJSON, &adjustedJSON, &run.Significant); err != nil {
		return nil, err
	}
	run.ID = core.RunID(id)
	run.Method = adjust.Method(method)

	if err := json.Unmarshal(variablesJSON, &run.Variables); err != nil {
		return nil, fmt.Errorf("failed to unmarshal variables: %w", err)
	}
	if err := json.Unmarshal(rawJSON, &run.RawP); err != nil {
		return nil, fmt.Errorf("failed to unmarshal raw p-values: %w", err)
	}
	if err := json.Unmarshal(adjustedJSON, &run.AdjustedP); err != nil {
		return nil, fmt.Errorf("failed to unmarshal adjusted p-values: %w", err)
	}
	return &run, nil
}
