package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/steelaxis-eu/inven-bst-sub001/internal/model"
)

// StoredPlan is a persisted planning request together with its computed
// result. The request is kept so a later re-optimization can replay it
// against fresh stock.
type StoredPlan struct {
	ID        string
	Request   model.PlanRequest
	Result    model.PlanResult
	CreatedAt time.Time
}

// PlanRepository handles stored plan data access.
type PlanRepository struct {
	db *sql.DB
}

// NewPlanRepository creates a new plan repository.
func NewPlanRepository(db *sql.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// Save inserts or replaces a stored plan.
func (r *PlanRepository) Save(ctx context.Context, plan StoredPlan) error {
	requestJSON, err := json.Marshal(plan.Request)
	if err != nil {
		return fmt.Errorf("encoding plan request: %w", err)
	}
	resultJSON, err := json.Marshal(plan.Result)
	if err != nil {
		return fmt.Errorf("encoding plan result: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	query := `
		INSERT INTO plans (id, request_json, result_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			request_json = excluded.request_json,
			result_json = excluded.result_json,
			updated_at = excluded.updated_at`

	_, err = r.db.ExecContext(ctx, query, plan.ID, string(requestJSON), string(resultJSON), now, now)
	if err != nil {
		return fmt.Errorf("saving plan %s: %w", plan.ID, err)
	}
	return nil
}

// Get retrieves a stored plan by ID.
func (r *PlanRepository) Get(ctx context.Context, id string) (StoredPlan, error) {
	var plan StoredPlan
	var requestJSON, resultJSON, createdAt string

	err := r.db.QueryRowContext(ctx,
		`SELECT id, request_json, result_json, created_at FROM plans WHERE id = ?`, id,
	).Scan(&plan.ID, &requestJSON, &resultJSON, &createdAt)
	if err == sql.ErrNoRows {
		return StoredPlan{}, &NotFoundError{Entity: "plan", ID: id}
	}
	if err != nil {
		return StoredPlan{}, fmt.Errorf("scanning plan: %w", err)
	}

	if err := json.Unmarshal([]byte(requestJSON), &plan.Request); err != nil {
		return StoredPlan{}, fmt.Errorf("decoding plan request: %w", err)
	}
	if err := json.Unmarshal([]byte(resultJSON), &plan.Result); err != nil {
		return StoredPlan{}, fmt.Errorf("decoding plan result: %w", err)
	}
	plan.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return StoredPlan{}, fmt.Errorf("parsing timestamp %q: %w", createdAt, err)
	}
	return plan, nil
}

// List retrieves stored plan IDs, newest first.
func (r *PlanRepository) List(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM plans ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("querying plans: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning plan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
