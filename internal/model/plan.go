package model

import "sort"

// PieceCut is one piece as assigned to a bar in a plan.
type PieceCut struct {
	PieceID  string `json:"piece_id"`
	Label    string `json:"label"`
	LengthMm int    `json:"length_mm"`
}

// StockAssignment records the pieces cut from one existing stock unit.
// BinHandle is the optimizer's arena index; StockID is the warehouse item
// it resolves to.
type StockAssignment struct {
	BinHandle     int        `json:"bin_handle"`
	StockID       string     `json:"stock_id"`
	Kind          StockKind  `json:"kind"`
	StockLengthMm int        `json:"stock_length_mm"`
	Pieces        []PieceCut `json:"pieces"`
	WasteMm       int        `json:"waste_mm"` // leftover, candidate remnant length
}

// UsedMm is the total length cut from the bar.
func (a StockAssignment) UsedMm() int {
	var total int
	for _, p := range a.Pieces {
		total += p.LengthMm
	}
	return total
}

// NewStockAssignment is one bar to be purchased, with the pieces it supplies.
// Oversize marks a custom-length special order exceeding the standard
// purchase length.
type NewStockAssignment struct {
	LengthMm int        `json:"length_mm"`
	Oversize bool       `json:"oversize"`
	Pieces   []PieceCut `json:"pieces"`
	WasteMm  int        `json:"waste_mm"`
}

// UsedMm is the total length cut from the new bar.
func (a NewStockAssignment) UsedMm() int {
	var total int
	for _, p := range a.Pieces {
		total += p.LengthMm
	}
	return total
}

// PurchaseLine aggregates new bars of one length for procurement.
type PurchaseLine struct {
	LengthMm int  `json:"length_mm"`
	Quantity int  `json:"quantity"`
	Oversize bool `json:"oversize"`
}

// OversizeNotice is the informational warning attached to a plan when a
// required piece exceeds the standard purchase length. The plan still
// succeeds with a custom-length purchase; procurement must special-order it.
type OversizeNotice struct {
	PieceID  string `json:"piece_id"`
	LengthMm int    `json:"length_mm"`
}

// AllocationPlan is the optimizer output for one profile/grade group.
// Ephemeral: nothing is persisted until the plan is committed.
type AllocationPlan struct {
	Profile   string               `json:"profile"`
	Grade     string               `json:"grade"`
	StockUsed []StockAssignment    `json:"stock_used"`
	NewStock  []NewStockAssignment `json:"new_stock"`
	Oversize  []OversizeNotice     `json:"oversize,omitempty"`
	Overrides []MaterialOverride   `json:"overrides,omitempty"` // set on re-optimized plans
}

// PurchaseList groups the plan's new bars by purchase length,
// standard lengths first, ascending.
func (p AllocationPlan) PurchaseList() []PurchaseLine {
	type key struct {
		length   int
		oversize bool
	}
	counts := make(map[key]int)
	for _, n := range p.NewStock {
		counts[key{n.LengthMm, n.Oversize}]++
	}
	lines := make([]PurchaseLine, 0, len(counts))
	for k, q := range counts {
		lines = append(lines, PurchaseLine{LengthMm: k.length, Quantity: q, Oversize: k.oversize})
	}
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].Oversize != lines[j].Oversize {
			return !lines[i].Oversize
		}
		return lines[i].LengthMm < lines[j].LengthMm
	})
	return lines
}

// TotalWasteMm is the leftover across all used and new bars.
func (p AllocationPlan) TotalWasteMm() int {
	var total int
	for _, a := range p.StockUsed {
		total += a.WasteMm
	}
	for _, n := range p.NewStock {
		total += n.WasteMm
	}
	return total
}

// Utilization returns the used-length percentage over all consumed material.
func (p AllocationPlan) Utilization() float64 {
	var used, total int
	for _, a := range p.StockUsed {
		used += a.UsedMm()
		total += a.StockLengthMm
	}
	for _, n := range p.NewStock {
		used += n.UsedMm()
		total += n.LengthMm
	}
	if total == 0 {
		return 0
	}
	return float64(used) / float64(total) * 100.0
}

// PlanResult is the full optimizer output across groups, plus the pieces
// that could not be grouped for lack of profile/grade data.
type PlanResult struct {
	Plans   []AllocationPlan `json:"plans"`
	Skipped []SkippedPiece   `json:"skipped,omitempty"`
}

// PlanRequest captures the inputs a plan was derived from, so a stored plan
// can be re-optimized from scratch with operator overrides applied.
type PlanRequest struct {
	Pieces           []RequiredPiece `json:"pieces"`
	Stock            []StockItem     `json:"stock"`
	StandardLengthMm int             `json:"standard_length_mm"`
}

// MaterialOverride adjusts the optimizer's view of available material for a
// re-optimization run. Zero values leave the corresponding input untouched.
// Grade substitution is a deliberate operator decision; no compatibility
// check is made here, and the override is echoed on the resulting plan.
type MaterialOverride struct {
	Profile          string         `json:"profile"` // group selector; empty matches all profiles
	Grade            string         `json:"grade"`
	SubstituteGrade  string         `json:"substitute_grade,omitempty"`  // treat this grade's stock as compatible
	PurchaseLengthMm int            `json:"purchase_length_mm,omitempty"` // replaces the standard purchase length
	StockQuantity    map[string]int `json:"stock_quantity,omitempty"`     // per stock ID; 0 removes the offer
}
