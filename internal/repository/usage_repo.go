package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/steelaxis-eu/inven-bst-sub001/internal/model"
)

// UsageRepository handles usage transaction data access.
type UsageRepository struct {
	db *sql.DB
}

// NewUsageRepository creates a new usage repository.
func NewUsageRepository(db *sql.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

// CreateRecord inserts a usage record header.
func (r *UsageRepository) CreateRecord(ctx context.Context, tx *sql.Tx, record model.UsageRecord) error {
	query := `INSERT INTO usage_records (id, project_ref, created_at) VALUES (?, ?, ?)`

	_, err := tx.ExecContext(ctx, query,
		record.ID,
		record.ProjectRef,
		record.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting usage record: %w", err)
	}
	return nil
}

// CreateLine inserts one usage line.
func (r *UsageRepository) CreateLine(ctx context.Context, tx *sql.Tx, line model.UsageLine) error {
	query := `
		INSERT INTO usage_lines (
			id, usage_id, stock_id, kind, quantity, used_mm, cost, remnant_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := tx.ExecContext(ctx, query,
		line.ID,
		line.UsageID,
		line.StockID,
		string(line.Kind),
		line.Quantity,
		line.UsedMm,
		line.Cost.String(),
		line.RemnantID,
	)
	if err != nil {
		return fmt.Errorf("inserting usage line: %w", err)
	}
	return nil
}

// Get retrieves a usage record with its lines.
func (r *UsageRepository) Get(ctx context.Context, id string) (model.UsageRecord, error) {
	return r.get(ctx, r.db, id)
}

// GetTx retrieves a usage record with its lines inside a transaction.
func (r *UsageRepository) GetTx(ctx context.Context, tx *sql.Tx, id string) (model.UsageRecord, error) {
	return r.get(ctx, tx, id)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (r *UsageRepository) get(ctx context.Context, q querier, id string) (model.UsageRecord, error) {
	var record model.UsageRecord
	var createdAt string

	err := q.QueryRowContext(ctx,
		`SELECT id, project_ref, created_at FROM usage_records WHERE id = ?`, id,
	).Scan(&record.ID, &record.ProjectRef, &createdAt)
	if err == sql.ErrNoRows {
		return model.UsageRecord{}, &NotFoundError{Entity: "usage record", ID: id}
	}
	if err != nil {
		return model.UsageRecord{}, fmt.Errorf("scanning usage record: %w", err)
	}
	record.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return model.UsageRecord{}, fmt.Errorf("parsing timestamp %q: %w", createdAt, err)
	}

	rows, err := q.QueryContext(ctx, `
		SELECT id, usage_id, stock_id, kind, quantity, used_mm, cost, remnant_id
		FROM usage_lines
		WHERE usage_id = ?
		ORDER BY id`, id)
	if err != nil {
		return model.UsageRecord{}, fmt.Errorf("querying usage lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line model.UsageLine
		var kind, cost string
		if err := rows.Scan(&line.ID, &line.UsageID, &line.StockID, &kind,
			&line.Quantity, &line.UsedMm, &cost, &line.RemnantID); err != nil {
			return model.UsageRecord{}, fmt.Errorf("scanning usage line: %w", err)
		}
		line.Kind = model.StockKind(kind)
		line.Cost, err = decimal.NewFromString(cost)
		if err != nil {
			return model.UsageRecord{}, fmt.Errorf("parsing cost %q: %w", cost, err)
		}
		record.Lines = append(record.Lines, line)
	}
	return record, rows.Err()
}

// Exists reports whether a usage record with this ID has been committed.
// Commit requests are keyed by the caller's request ID, so a replay is
// detected by the ID already being present.
func (r *UsageRepository) Exists(ctx context.Context, tx *sql.Tx, id string) (bool, error) {
	var found int
	err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM usage_records WHERE id = ?`, id,
	).Scan(&found)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking usage record %s: %w", id, err)
	}
	return true, nil
}

// ListByProject retrieves all usage records for a project reference.
func (r *UsageRepository) ListByProject(ctx context.Context, projectRef string) ([]model.UsageRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM usage_records WHERE project_ref = ? ORDER BY created_at, id`, projectRef)
	if err != nil {
		return nil, fmt.Errorf("querying usage records: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning usage record id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var records []model.UsageRecord
	for _, id := range ids {
		record, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}
