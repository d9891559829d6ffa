package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/steelaxis-eu/inven-bst-sub001/internal/model"
)

// StockRepository handles stock item data access.
type StockRepository struct {
	db *sql.DB
}

// NewStockRepository creates a new stock repository.
func NewStockRepository(db *sql.DB) *StockRepository {
	return &StockRepository{db: db}
}

// Create inserts a new stock item.
func (r *StockRepository) Create(ctx context.Context, tx *sql.Tx, item model.StockItem) error {
	query := `
		INSERT INTO stock_items (
			id, kind, profile, grade, length_mm, quantity_at_hand,
			cost_per_meter, status, root_lot_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := r.execer(tx).ExecContext(ctx, query,
		item.ID,
		string(item.Kind),
		item.Profile,
		item.Grade,
		item.LengthMm,
		item.QuantityAtHand,
		item.CostPerMeter.String(),
		string(item.Status),
		item.RootLotID,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("inserting stock item: %w", err)
	}
	return nil
}

// Get retrieves a stock item by ID.
func (r *StockRepository) Get(ctx context.Context, id string) (model.StockItem, error) {
	return r.getWith(ctx, r.db.QueryRowContext, id)
}

// GetTx retrieves a stock item by ID inside a transaction.
func (r *StockRepository) GetTx(ctx context.Context, tx *sql.Tx, id string) (model.StockItem, error) {
	return r.getWith(ctx, tx.QueryRowContext, id)
}

func (r *StockRepository) getWith(ctx context.Context, queryRow func(context.Context, string, ...any) *sql.Row, id string) (model.StockItem, error) {
	query := `
		SELECT id, kind, profile, grade, length_mm, quantity_at_hand,
			cost_per_meter, status, root_lot_id
		FROM stock_items
		WHERE id = ?`

	item, err := scanStockItem(queryRow(ctx, query, id))
	if err == sql.ErrNoRows {
		return model.StockItem{}, &NotFoundError{Entity: "stock item", ID: id}
	}
	if err != nil {
		return model.StockItem{}, fmt.Errorf("scanning stock item: %w", err)
	}
	return item, nil
}

// StockFilter narrows List results.
type StockFilter struct {
	Profile   string
	Grade     string
	Status    model.StockStatus
	Kind      model.StockKind
	RootLotID string
}

// List retrieves stock items matching the filter, newest first.
func (r *StockRepository) List(ctx context.Context, filter StockFilter) ([]model.StockItem, error) {
	query := `
		SELECT id, kind, profile, grade, length_mm, quantity_at_hand,
			cost_per_meter, status, root_lot_id
		FROM stock_items
		WHERE 1=1`
	var args []any

	if filter.Profile != "" {
		query += " AND profile = ?"
		args = append(args, filter.Profile)
	}
	if filter.Grade != "" {
		query += " AND grade = ?"
		args = append(args, filter.Grade)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, string(filter.Status))
	}
	if filter.Kind != "" {
		query += " AND kind = ?"
		args = append(args, string(filter.Kind))
	}
	if filter.RootLotID != "" {
		query += " AND root_lot_id = ?"
		args = append(args, filter.RootLotID)
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying stock items: %w", err)
	}
	defer rows.Close()

	var items []model.StockItem
	for rows.Next() {
		item, err := scanStockItemRows(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Snapshot returns every consumable stock item: ACTIVE lots with quantity
// at hand and AVAILABLE remnants. This is the optimizer's read input.
func (r *StockRepository) Snapshot(ctx context.Context) ([]model.StockItem, error) {
	query := `
		SELECT id, kind, profile, grade, length_mm, quantity_at_hand,
			cost_per_meter, status, root_lot_id
		FROM stock_items
		WHERE (kind = 'LOT' AND status = 'ACTIVE' AND quantity_at_hand > 0)
		   OR (kind = 'REMNANT' AND status = 'AVAILABLE')
		ORDER BY kind DESC, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying stock snapshot: %w", err)
	}
	defer rows.Close()

	var items []model.StockItem
	for rows.Next() {
		item, err := scanStockItemRows(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ConsumeLot decrements a lot's quantity at hand by one, flipping its status
// to DEPLETED on the last unit. The quantity/status check and the decrement
// are a single conditional UPDATE, so of two concurrent consumers of the
// last unit exactly one succeeds; the other gets a ConflictError.
func (r *StockRepository) ConsumeLot(ctx context.Context, tx *sql.Tx, id string) error {
	query := `
		UPDATE stock_items
		SET quantity_at_hand = quantity_at_hand - 1,
			status = CASE WHEN quantity_at_hand - 1 = 0 THEN 'DEPLETED' ELSE status END,
			updated_at = ?
		WHERE id = ? AND kind = 'LOT' AND status = 'ACTIVE' AND quantity_at_hand > 0`

	result, err := tx.ExecContext(ctx, query, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("consuming lot %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("consuming lot %s: %w", id, err)
	}
	if affected == 0 {
		if _, getErr := r.GetTx(ctx, tx, id); getErr != nil {
			return getErr
		}
		return &ConflictError{StockID: id, Reason: "no quantity at hand or not active"}
	}
	return nil
}

// ConsumeRemnant flips an AVAILABLE remnant to USED, same conditional-update
// contract as ConsumeLot.
func (r *StockRepository) ConsumeRemnant(ctx context.Context, tx *sql.Tx, id string) error {
	query := `
		UPDATE stock_items
		SET status = 'USED', quantity_at_hand = 0, updated_at = ?
		WHERE id = ? AND kind = 'REMNANT' AND status = 'AVAILABLE'`

	result, err := tx.ExecContext(ctx, query, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("consuming remnant %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("consuming remnant %s: %w", id, err)
	}
	if affected == 0 {
		if _, getErr := r.GetTx(ctx, tx, id); getErr != nil {
			return getErr
		}
		return &ConflictError{StockID: id, Reason: "remnant no longer available"}
	}
	return nil
}

// CreateRemnantIfAbsent inserts the successor remnant unless a row with the
// same deterministic ID already exists. Returns whether a row was created;
// a replayed commit finds the existing row and skips creation.
func (r *StockRepository) CreateRemnantIfAbsent(ctx context.Context, tx *sql.Tx, item model.StockItem) (bool, error) {
	query := `
		INSERT INTO stock_items (
			id, kind, profile, grade, length_mm, quantity_at_hand,
			cost_per_meter, status, root_lot_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`

	now := time.Now().UTC().Format(time.RFC3339)
	result, err := tx.ExecContext(ctx, query,
		item.ID,
		string(item.Kind),
		item.Profile,
		item.Grade,
		item.LengthMm,
		item.QuantityAtHand,
		item.CostPerMeter.String(),
		string(item.Status),
		item.RootLotID,
		now,
		now,
	)
	if err != nil {
		return false, fmt.Errorf("inserting remnant %s: %w", item.ID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("inserting remnant %s: %w", item.ID, err)
	}
	return affected > 0, nil
}

// MarkScrap flips an AVAILABLE remnant to SCRAP, a terminal state.
func (r *StockRepository) MarkScrap(ctx context.Context, id string) error {
	query := `
		UPDATE stock_items
		SET status = 'SCRAP', updated_at = ?
		WHERE id = ? AND kind = 'REMNANT' AND status = 'AVAILABLE'`

	result, err := r.db.ExecContext(ctx, query, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("marking remnant %s scrap: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("marking remnant %s scrap: %w", id, err)
	}
	if affected == 0 {
		if _, getErr := r.Get(ctx, id); getErr != nil {
			return getErr
		}
		return &ConflictError{StockID: id, Reason: "remnant not available"}
	}
	return nil
}

func (r *StockRepository) execer(tx *sql.Tx) interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
} {
	if tx != nil {
		return tx
	}
	return r.db
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStockItem(row *sql.Row) (model.StockItem, error) {
	return scanStock(row)
}

func scanStockItemRows(rows *sql.Rows) (model.StockItem, error) {
	item, err := scanStock(rows)
	if err != nil {
		return model.StockItem{}, fmt.Errorf("scanning stock row: %w", err)
	}
	return item, nil
}

func scanStock(s rowScanner) (model.StockItem, error) {
	var item model.StockItem
	var kind, status, cost string

	err := s.Scan(
		&item.ID, &kind, &item.Profile, &item.Grade, &item.LengthMm,
		&item.QuantityAtHand, &cost, &status, &item.RootLotID,
	)
	if err != nil {
		return model.StockItem{}, err
	}

	item.Kind = model.StockKind(kind)
	item.Status = model.StockStatus(status)
	item.CostPerMeter, err = decimal.NewFromString(cost)
	if err != nil {
		return model.StockItem{}, fmt.Errorf("parsing cost %q: %w", cost, err)
	}
	return item, nil
}
