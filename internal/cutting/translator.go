package cutting

import (
	"github.com/shopspring/decimal"

	"github.com/steelaxis-eu/inven-bst-sub001/internal/model"
)

// Instruction is one concrete inventory mutation derived from a plan:
// which warehouse item is reduced, by how much, at what cost, and what
// becomes of the leftover. This is the boundary where the optimizer's
// numeric plan turns into a database mutation request.
type Instruction struct {
	StockID     string
	Kind        model.StockKind
	Pieces      []model.PieceCut
	UsedMm      int
	RemainingMm int
	Cost        decimal.Decimal
	RemnantID   string // successor remnant, empty when the bar is exhausted
	Disposition model.RemnantDisposition
}

// Translator resolves a plan's stock assignments against the snapshot the
// plan was computed from. Leftovers shorter than MinRemnantMm are forced to
// scrap regardless of the operator's choice.
type Translator struct {
	MinRemnantMm int
}

// Translate converts the plan's stock assignments into consumption
// instructions. dispositions maps stock IDs to the operator's choice for
// the leftover; missing entries default to AVAILABLE. The length
// conservation invariant is checked here, before anything touches the
// store: used + remaining must equal the bar's length exactly.
func (t Translator) Translate(plan model.AllocationPlan, snapshot []model.StockItem, dispositions map[string]model.RemnantDisposition) ([]Instruction, error) {
	byID := make(map[string]model.StockItem, len(snapshot))
	for _, s := range snapshot {
		byID[s.ID] = s
	}

	instructions := make([]Instruction, 0, len(plan.StockUsed))
	for _, a := range plan.StockUsed {
		item, ok := byID[a.StockID]
		if !ok {
			return nil, &ValidationError{StockID: a.StockID, Reason: "not present in stock snapshot"}
		}

		used := a.UsedMm()
		remaining := item.LengthMm - used
		if remaining < 0 {
			return nil, &ValidationError{StockID: a.StockID, Reason: "assigned pieces exceed stock length"}
		}
		if used+a.WasteMm != item.LengthMm {
			return nil, &ValidationError{StockID: a.StockID, Reason: "length conservation violated"}
		}

		inst := Instruction{
			StockID:     a.StockID,
			Kind:        item.Kind,
			Pieces:      a.Pieces,
			UsedMm:      used,
			RemainingMm: remaining,
			Cost:        item.ConsumptionCost(used),
		}

		if remaining > 0 {
			inst.RemnantID = model.RemnantID(item.RootLotID, remaining)
			inst.Disposition = dispositions[a.StockID]
			if inst.Disposition == "" {
				inst.Disposition = model.DispositionAvailable
			}
			if remaining < t.MinRemnantMm {
				inst.Disposition = model.DispositionScrap
			}
		}

		instructions = append(instructions, inst)
	}
	return instructions, nil
}
