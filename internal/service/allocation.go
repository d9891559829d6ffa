// Package service wires the cutting engine to the SQLite store: planning
// against live stock, atomic usage commits, and re-optimization of stored
// plans.
package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/steelaxis-eu/inven-bst-sub001/internal/cutting"
	"github.com/steelaxis-eu/inven-bst-sub001/internal/database"
	"github.com/steelaxis-eu/inven-bst-sub001/internal/model"
	"github.com/steelaxis-eu/inven-bst-sub001/internal/repository"
)

// AllocationService runs the plan/commit/reoptimize lifecycle.
type AllocationService struct {
	db         *database.DB
	stock      *repository.StockRepository
	usages     *repository.UsageRepository
	plans      *repository.PlanRepository
	translator cutting.Translator

	standardLengthMm int
	log              *logrus.Logger
}

// NewAllocationService creates an allocation service.
func NewAllocationService(db *database.DB, standardLengthMm, minRemnantMm int, log *logrus.Logger) *AllocationService {
	return &AllocationService{
		db:               db,
		stock:            repository.NewStockRepository(db.DB),
		usages:           repository.NewUsageRepository(db.DB),
		plans:            repository.NewPlanRepository(db.DB),
		translator:       cutting.Translator{MinRemnantMm: minRemnantMm},
		standardLengthMm: standardLengthMm,
		log:              log,
	}
}

// ComputePlan snapshots consumable stock, runs the optimizer over the
// requested pieces and stores the request alongside its result so it can be
// re-optimized later.
func (s *AllocationService) ComputePlan(ctx context.Context, pieces []model.RequiredPiece) (repository.StoredPlan, error) {
	snapshot, err := s.stock.Snapshot(ctx)
	if err != nil {
		return repository.StoredPlan{}, err
	}

	opt := cutting.New(s.standardLengthMm)
	result, err := opt.ComputePlan(pieces, snapshot)
	if err != nil {
		return repository.StoredPlan{}, err
	}

	stored := repository.StoredPlan{
		ID: "plan-" + strings.Split(uuid.New().String(), "-")[0],
		Request: model.PlanRequest{
			Pieces:           pieces,
			Stock:            snapshot,
			StandardLengthMm: s.standardLengthMm,
		},
		Result: result,
	}
	if err := s.plans.Save(ctx, stored); err != nil {
		return repository.StoredPlan{}, err
	}

	s.log.WithFields(logrus.Fields{
		"plan":    stored.ID,
		"groups":  len(result.Plans),
		"skipped": len(result.Skipped),
	}).Info("computed allocation plan")
	return stored, nil
}

// GetPlan retrieves a stored plan by ID.
func (s *AllocationService) GetPlan(ctx context.Context, id string) (repository.StoredPlan, error) {
	return s.plans.Get(ctx, id)
}

// CommitRequest asks for a plan's stock consumption to be applied. RequestID
// is the caller's idempotency key: resubmitting the same ID returns the
// result of the first commit without touching stock again.
type CommitRequest struct {
	RequestID    string
	ProjectRef   string
	Plans        []model.AllocationPlan
	Dispositions map[string]model.RemnantDisposition
}

// CommitResult reports what a commit did.
type CommitResult struct {
	UsageID         string
	CreatedRemnants []string
	TotalCost       decimal.Decimal
	Replayed        bool
}

// CommitAllocation applies the plans' stock consumption in one transaction:
// every consumed bar is decremented or retired with a conditional update,
// usage lines are written, and successor remnants are created under their
// deterministic IDs. Any conflict rolls the whole commit back.
func (s *AllocationService) CommitAllocation(ctx context.Context, req CommitRequest) (CommitResult, error) {
	if req.RequestID == "" {
		return CommitResult{}, &cutting.ValidationError{Reason: "commit request id is required"}
	}

	if existing, err := s.usages.Get(ctx, req.RequestID); err == nil {
		s.log.WithField("request", req.RequestID).Info("commit replayed, returning stored result")
		return replayResult(existing), nil
	} else if _, ok := err.(*repository.NotFoundError); !ok {
		return CommitResult{}, err
	}

	snapshot, err := s.stock.Snapshot(ctx)
	if err != nil {
		return CommitResult{}, err
	}

	byID := make(map[string]model.StockItem, len(snapshot))
	for _, item := range snapshot {
		byID[item.ID] = item
	}

	// The snapshot carries only consumable rows, so a stale plan whose stock
	// a prior commit consumed shows up as a missing ID. Resolve those against
	// the ledger to tell a lost race from stock that never existed.
	for _, plan := range req.Plans {
		for _, a := range plan.StockUsed {
			if _, ok := byID[a.StockID]; ok {
				continue
			}
			item, err := s.stock.Get(ctx, a.StockID)
			if err != nil {
				return CommitResult{}, err
			}
			return CommitResult{}, &repository.ConflictError{
				StockID: a.StockID,
				Reason:  fmt.Sprintf("consumed since planning, status %s", item.Status),
			}
		}
	}

	var instructions []cutting.Instruction
	for _, plan := range req.Plans {
		insts, err := s.translator.Translate(plan, snapshot, req.Dispositions)
		if err != nil {
			return CommitResult{}, err
		}
		instructions = append(instructions, insts...)
	}

	result := CommitResult{UsageID: req.RequestID, TotalCost: decimal.Zero}
	err = s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		// The pre-transaction replay check races with a concurrent commit
		// of the same request; re-check under the write lock.
		exists, err := s.usages.Exists(ctx, tx, req.RequestID)
		if err != nil {
			return err
		}
		if exists {
			stored, err := s.usages.GetTx(ctx, tx, req.RequestID)
			if err != nil {
				return err
			}
			result = replayResult(stored)
			return nil
		}

		record := model.UsageRecord{
			ID:         req.RequestID,
			ProjectRef: req.ProjectRef,
			CreatedAt:  time.Now().UTC(),
		}
		if err := s.usages.CreateRecord(ctx, tx, record); err != nil {
			return err
		}

		for i, inst := range instructions {
			switch inst.Kind {
			case model.KindLot:
				if err := s.stock.ConsumeLot(ctx, tx, inst.StockID); err != nil {
					return err
				}
			case model.KindRemnant:
				if err := s.stock.ConsumeRemnant(ctx, tx, inst.StockID); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown stock kind %q", inst.Kind)
			}

			line := model.UsageLine{
				ID:        fmt.Sprintf("%s-%d", req.RequestID, i),
				UsageID:   req.RequestID,
				StockID:   inst.StockID,
				Kind:      inst.Kind,
				Quantity:  1,
				UsedMm:    inst.UsedMm,
				Cost:      inst.Cost,
				RemnantID: inst.RemnantID,
			}
			if err := s.usages.CreateLine(ctx, tx, line); err != nil {
				return err
			}
			result.TotalCost = result.TotalCost.Add(inst.Cost)

			if inst.RemnantID != "" {
				parent := byID[inst.StockID]
				status := model.StatusAvailable
				if inst.Disposition == model.DispositionScrap {
					status = model.StatusScrap
				}
				remnant := model.NewRemnant(parent, inst.RemainingMm, status)
				created, err := s.stock.CreateRemnantIfAbsent(ctx, tx, remnant)
				if err != nil {
					return err
				}
				if created {
					result.CreatedRemnants = append(result.CreatedRemnants, remnant.ID)
				}
			}
		}
		return nil
	})
	if err != nil {
		return CommitResult{}, err
	}

	s.log.WithFields(logrus.Fields{
		"usage":    result.UsageID,
		"remnants": len(result.CreatedRemnants),
		"cost":     result.TotalCost.String(),
	}).Info("committed allocation")
	return result, nil
}

func replayResult(record model.UsageRecord) CommitResult {
	result := CommitResult{
		UsageID:   record.ID,
		TotalCost: record.TotalCost(),
		Replayed:  true,
	}
	for _, line := range record.Lines {
		if line.RemnantID != "" {
			result.CreatedRemnants = append(result.CreatedRemnants, line.RemnantID)
		}
	}
	return result
}

// Reoptimize replays a stored plan's piece demand against current stock,
// applying any material overrides, and stores the outcome as a new plan.
func (s *AllocationService) Reoptimize(ctx context.Context, planID string, overrides []model.MaterialOverride) (repository.StoredPlan, error) {
	stored, err := s.plans.Get(ctx, planID)
	if err != nil {
		return repository.StoredPlan{}, err
	}

	snapshot, err := s.stock.Snapshot(ctx)
	if err != nil {
		return repository.StoredPlan{}, err
	}

	req := model.PlanRequest{
		Pieces:           stored.Request.Pieces,
		Stock:            snapshot,
		StandardLengthMm: stored.Request.StandardLengthMm,
	}
	result, err := cutting.Reoptimize(req, overrides)
	if err != nil {
		return repository.StoredPlan{}, err
	}

	next := repository.StoredPlan{
		ID:      "plan-" + strings.Split(uuid.New().String(), "-")[0],
		Request: req,
		Result:  result,
	}
	if err := s.plans.Save(ctx, next); err != nil {
		return repository.StoredPlan{}, err
	}

	s.log.WithFields(logrus.Fields{
		"plan":      planID,
		"successor": next.ID,
		"overrides": len(overrides),
	}).Info("re-optimized plan")
	return next, nil
}
