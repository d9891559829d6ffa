// Package cutting implements the cutting-stock allocation engine: grouping
// required pieces by material, best-fit-decreasing bin packing over existing
// and newly purchased bars, translation of bin assignments into ledger
// consumption instructions, and re-optimization under operator overrides.
//
// Everything in this package is pure: it reads a stock snapshot and produces
// plans without side effects, so concurrent runs need no coordination.
package cutting

import (
	"sort"

	"github.com/steelaxis-eu/inven-bst-sub001/internal/model"
)

// DefaultStandardLengthMm is the purchase length assumed for new bars when
// the caller does not configure one.
const DefaultStandardLengthMm = 12000

// Optimizer runs the one-dimensional bin-packing algorithm.
type Optimizer struct {
	StandardLengthMm int

	// per-group purchase length overrides, set by Reoptimize
	groupLength map[model.GroupKey]int
}

// New creates an Optimizer with the given standard purchase length.
// Non-positive lengths fall back to DefaultStandardLengthMm.
func New(standardLengthMm int) *Optimizer {
	if standardLengthMm <= 0 {
		standardLengthMm = DefaultStandardLengthMm
	}
	return &Optimizer{StandardLengthMm: standardLengthMm}
}

// ComputePlan groups the required pieces by profile/grade and packs each
// group against the matching stock offers. It never fails on valid input:
// every piece is placed, worst case on a new custom-length bar. Pieces
// lacking profile/grade data are reported as skipped.
func (o *Optimizer) ComputePlan(pieces []model.RequiredPiece, stock []model.StockItem) (model.PlanResult, error) {
	if err := validatePieces(pieces); err != nil {
		return model.PlanResult{}, err
	}

	groups, skipped := GroupPieces(pieces)

	keys := make([]model.GroupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Profile != keys[j].Profile {
			return keys[i].Profile < keys[j].Profile
		}
		return keys[i].Grade < keys[j].Grade
	})

	result := model.PlanResult{Skipped: skipped}
	for _, key := range keys {
		offers := groupStock(stock, key)
		plan := o.packGroup(key, groups[key], offers)
		result.Plans = append(result.Plans, plan)
	}
	return result, nil
}

func validatePieces(pieces []model.RequiredPiece) error {
	for _, p := range pieces {
		if p.LengthMm <= 0 {
			return &ValidationError{PieceID: p.ID, Reason: "non-positive length"}
		}
		if p.Quantity <= 0 {
			return &ValidationError{PieceID: p.ID, Reason: "non-positive quantity"}
		}
	}
	return nil
}

// binKind separates existing-stock bins from bars opened for purchase.
type binKind int

const (
	binExisting binKind = iota
	binNew
)

// bin is one bar's remaining capacity during packing. Bins live in an arena
// and are addressed by integer handle; the plan carries handles and the
// translator resolves them back to warehouse items.
type bin struct {
	kind        binKind
	stockID     string
	stockKind   model.StockKind
	priority    model.SourcePriority
	lengthMm    int
	remainingMm int
	oversize    bool
	pieces      []model.PieceCut
}

type arena struct {
	bins []bin
}

func (a *arena) open(b bin) int {
	a.bins = append(a.bins, b)
	return len(a.bins) - 1
}

// bestFit returns the handle of the bin of the given kind with the smallest
// remaining capacity that still accommodates lengthMm, or -1. Ties go to the
// higher-priority source (remnants before full lots), then the lower handle,
// keeping results deterministic.
func (a *arena) bestFit(kind binKind, lengthMm int) int {
	best := -1
	for h := range a.bins {
		b := &a.bins[h]
		if b.kind != kind || b.remainingMm < lengthMm {
			continue
		}
		if best < 0 {
			best = h
			continue
		}
		cur := &a.bins[best]
		leftover := b.remainingMm - lengthMm
		curLeftover := cur.remainingMm - lengthMm
		if leftover < curLeftover || (leftover == curLeftover && b.priority < cur.priority) {
			best = h
		}
	}
	return best
}

func (a *arena) place(handle int, cut model.PieceCut) {
	b := &a.bins[handle]
	b.remainingMm -= cut.LengthMm
	b.pieces = append(b.pieces, cut)
}

// packGroup places one profile/grade group with best-fit decreasing:
// pieces sorted longest first, each placed into the tightest-fitting existing
// stock bin, then the tightest already-opened purchase bin, and only then a
// new bar. A piece exceeding the standard purchase length opens a
// custom-length bar sized exactly to the piece and raises an oversize notice.
func (o *Optimizer) packGroup(key model.GroupKey, pieces []model.RequiredPiece, offers []model.StockItem) model.AllocationPlan {
	var expanded []model.RequiredPiece
	for _, p := range pieces {
		expanded = append(expanded, p.Expand()...)
	}
	sort.Slice(expanded, func(i, j int) bool {
		if expanded[i].LengthMm != expanded[j].LengthMm {
			return expanded[i].LengthMm > expanded[j].LengthMm
		}
		return expanded[i].ID < expanded[j].ID
	})

	ar := &arena{}
	for _, offer := range offers {
		ar.open(bin{
			kind:        binExisting,
			stockID:     offer.ID,
			stockKind:   offer.Kind,
			priority:    offer.Priority(),
			lengthMm:    offer.LengthMm,
			remainingMm: offer.LengthMm,
		})
	}

	standard := o.StandardLengthMm
	if v, ok := o.groupLength[key]; ok && v > 0 {
		standard = v
	}

	var oversize []model.OversizeNotice
	for _, p := range expanded {
		cut := model.PieceCut{PieceID: p.ID, Label: p.Label, LengthMm: p.LengthMm}

		if h := ar.bestFit(binExisting, p.LengthMm); h >= 0 {
			ar.place(h, cut)
			continue
		}
		if h := ar.bestFit(binNew, p.LengthMm); h >= 0 {
			ar.place(h, cut)
			continue
		}

		length := standard
		custom := false
		if p.LengthMm > standard {
			length = p.LengthMm
			custom = true
			oversize = append(oversize, model.OversizeNotice{PieceID: p.ID, LengthMm: p.LengthMm})
		}
		h := ar.open(bin{kind: binNew, lengthMm: length, remainingMm: length, oversize: custom})
		ar.place(h, cut)
	}

	plan := model.AllocationPlan{Profile: key.Profile, Grade: key.Grade, Oversize: oversize}
	for h, b := range ar.bins {
		if len(b.pieces) == 0 {
			continue
		}
		switch b.kind {
		case binExisting:
			plan.StockUsed = append(plan.StockUsed, model.StockAssignment{
				BinHandle:     h,
				StockID:       b.stockID,
				Kind:          b.stockKind,
				StockLengthMm: b.lengthMm,
				Pieces:        b.pieces,
				WasteMm:       b.remainingMm,
			})
		case binNew:
			plan.NewStock = append(plan.NewStock, model.NewStockAssignment{
				LengthMm: b.lengthMm,
				Oversize: b.oversize,
				Pieces:   b.pieces,
				WasteMm:  b.remainingMm,
			})
		}
	}
	return plan
}
