// Package model defines the domain types for steel bar stock tracking:
// stock items (purchased lots and reusable remnants), required cut pieces,
// allocation plans and the usage ledger.
package model

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockKind distinguishes the two concrete kinds of stock item.
type StockKind string

const (
	KindLot     StockKind = "LOT"     // purchased full-length stock, quantity may exceed 1
	KindRemnant StockKind = "REMNANT" // single leftover from a prior cut, quantity always 1
)

// StockStatus is the lifecycle state of a stock item.
type StockStatus string

const (
	StatusActive    StockStatus = "ACTIVE"    // lot with quantity at hand
	StatusDepleted  StockStatus = "DEPLETED"  // lot with no quantity left
	StatusAvailable StockStatus = "AVAILABLE" // remnant ready for reuse
	StatusUsed      StockStatus = "USED"      // remnant consumed by a cut
	StatusScrap     StockStatus = "SCRAP"     // remnant written off, value-only
)

// SourcePriority orders stock offers in the optimizer's bin search.
// Remnants are preferred over full lots when a piece fits both equally well.
type SourcePriority int

const (
	PriorityRemnant SourcePriority = iota
	PriorityFullLot
)

// GroupKey is the compound identity that determines material
// interchangeability: cross-section profile (type + dimensions) plus grade.
// Material is never substituted across groups.
type GroupKey struct {
	Profile string
	Grade   string
}

func (k GroupKey) String() string {
	return k.Profile + "/" + k.Grade
}

// StockItem is a physical bar or offcut available for consumption.
type StockItem struct {
	ID             string          `json:"id"`
	Kind           StockKind       `json:"kind"`
	Profile        string          `json:"profile"`
	Grade          string          `json:"grade"`
	LengthMm       int             `json:"length_mm"`
	QuantityAtHand int             `json:"quantity_at_hand"`
	CostPerMeter   decimal.Decimal `json:"cost_per_meter"`
	Status         StockStatus     `json:"status"`
	RootLotID      string          `json:"root_lot_id"` // originating lot, equals ID for lots
}

// NewLot creates an ACTIVE inventory lot with a generated identifier.
func NewLot(profile, grade string, lengthMm, quantity int, costPerMeter decimal.Decimal) StockItem {
	id := "LOT-" + uuid.New().String()[:8]
	return StockItem{
		ID:             id,
		Kind:           KindLot,
		Profile:        profile,
		Grade:          grade,
		LengthMm:       lengthMm,
		QuantityAtHand: quantity,
		CostPerMeter:   costPerMeter,
		Status:         StatusActive,
		RootLotID:      id,
	}
}

// RemnantID derives the deterministic identifier of a successor remnant.
// The format doubles as the natural idempotency key at commit time. It also
// means identical offcuts from the same root lot collapse to one ledger row:
// cutting two bars of a lot the same way in one commit leaves two physical
// offcuts but a single remnant with quantity 1.
func RemnantID(rootLotID string, remainingMm int) string {
	return fmt.Sprintf("%s-%d", rootLotID, remainingMm)
}

// NewRemnant creates the successor remnant left over after cutting from parent.
func NewRemnant(parent StockItem, remainingMm int, status StockStatus) StockItem {
	return StockItem{
		ID:             RemnantID(parent.RootLotID, remainingMm),
		Kind:           KindRemnant,
		Profile:        parent.Profile,
		Grade:          parent.Grade,
		LengthMm:       remainingMm,
		QuantityAtHand: 1,
		CostPerMeter:   parent.CostPerMeter,
		Status:         status,
		RootLotID:      parent.RootLotID,
	}
}

// Key returns the profile/grade group key of the item.
func (s StockItem) Key() GroupKey {
	return GroupKey{Profile: s.Profile, Grade: s.Grade}
}

// Priority returns the source priority used by the optimizer's bin search.
func (s StockItem) Priority() SourcePriority {
	if s.Kind == KindRemnant {
		return PriorityRemnant
	}
	return PriorityFullLot
}

// Consumable reports whether the item can still supply a cut.
func (s StockItem) Consumable() bool {
	switch s.Kind {
	case KindRemnant:
		return s.Status == StatusAvailable
	default:
		return s.Status == StatusActive && s.QuantityAtHand > 0
	}
}

// ConsumptionCost is the monetary cost of consuming usedMm from the item,
// rounded to 2 decimal currency units. Lengths stay integral; rounding
// happens only here.
func (s StockItem) ConsumptionCost(usedMm int) decimal.Decimal {
	meters := decimal.New(int64(usedMm), -3) // mm -> m
	return meters.Mul(s.CostPerMeter).Round(2)
}
