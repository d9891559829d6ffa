package cutting

import (
	"github.com/steelaxis-eu/inven-bst-sub001/internal/model"
)

// Reoptimize re-derives the full allocation from scratch with the operator's
// material overrides applied: substituted grades, adjusted purchase lengths,
// capped or removed stock quantities. No incremental patching of the old
// plan, and no persisted stock is touched; the caller commits the new plan
// explicitly if it is acceptable.
func Reoptimize(req model.PlanRequest, overrides []model.MaterialOverride) (model.PlanResult, error) {
	stock := applyStockOverrides(req.Stock, overrides)

	opt := New(req.StandardLengthMm)
	opt.groupLength = make(map[model.GroupKey]int)
	for _, ov := range overrides {
		if ov.PurchaseLengthMm > 0 && ov.Profile != "" && ov.Grade != "" {
			opt.groupLength[model.GroupKey{Profile: ov.Profile, Grade: ov.Grade}] = ov.PurchaseLengthMm
		} else if ov.PurchaseLengthMm > 0 {
			opt.StandardLengthMm = ov.PurchaseLengthMm
		}
	}

	result, err := opt.ComputePlan(req.Pieces, stock)
	if err != nil {
		return model.PlanResult{}, err
	}

	// Echo the overrides on every plan they touched, so the commit trail
	// shows the operator's deliberate choices (grade substitution included).
	for i := range result.Plans {
		key := model.GroupKey{Profile: result.Plans[i].Profile, Grade: result.Plans[i].Grade}
		for _, ov := range overrides {
			if overrideMatches(ov, key) {
				result.Plans[i].Overrides = append(result.Plans[i].Overrides, ov)
			}
		}
	}
	return result, nil
}

func overrideMatches(ov model.MaterialOverride, key model.GroupKey) bool {
	if ov.Profile != "" && ov.Profile != key.Profile {
		return false
	}
	if ov.Grade != "" && ov.Grade != key.Grade {
		return false
	}
	return true
}

// applyStockOverrides rewrites the stock snapshot per the overrides:
// quantity adjustments (zero removes the offer) and grade substitution,
// which relabels the substitute grade's stock so it joins the required
// grade's group for this run only.
func applyStockOverrides(stock []model.StockItem, overrides []model.MaterialOverride) []model.StockItem {
	out := make([]model.StockItem, 0, len(stock))

	for _, s := range stock {
		item := s
		drop := false

		for _, ov := range overrides {
			if qty, ok := ov.StockQuantity[item.ID]; ok {
				if qty <= 0 {
					drop = true
					break
				}
				item.QuantityAtHand = qty
			}
			if ov.SubstituteGrade != "" &&
				item.Grade == ov.SubstituteGrade &&
				(ov.Profile == "" || ov.Profile == item.Profile) {
				item.Grade = ov.Grade
			}
		}

		if !drop {
			out = append(out, item)
		}
	}
	return out
}
