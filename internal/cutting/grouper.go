package cutting

import (
	"github.com/steelaxis-eu/inven-bst-sub001/internal/model"
)

// GroupPieces partitions the cut list into groups sharing an identical
// profile/grade key. Pieces without a profile or grade cannot be matched to
// material and are returned as skipped rather than silently dropped.
func GroupPieces(pieces []model.RequiredPiece) (map[model.GroupKey][]model.RequiredPiece, []model.SkippedPiece) {
	groups := make(map[model.GroupKey][]model.RequiredPiece)
	var skipped []model.SkippedPiece

	for _, p := range pieces {
		switch {
		case p.Profile == "":
			skipped = append(skipped, model.SkippedPiece{Piece: p, Reason: "missing profile"})
		case p.Grade == "":
			skipped = append(skipped, model.SkippedPiece{Piece: p, Reason: "missing grade"})
		default:
			key := p.Key()
			groups[key] = append(groups[key], p)
		}
	}

	return groups, skipped
}

// groupStock filters a stock snapshot down to the consumable offers for one
// profile/grade key, expanded by quantity into individual unit offers.
func groupStock(stock []model.StockItem, key model.GroupKey) []model.StockItem {
	var offers []model.StockItem
	for _, s := range stock {
		if s.Key() != key || !s.Consumable() {
			continue
		}
		units := s.QuantityAtHand
		if s.Kind == model.KindRemnant {
			units = 1
		}
		for i := 0; i < units; i++ {
			unit := s
			unit.QuantityAtHand = 1
			offers = append(offers, unit)
		}
	}
	return offers
}
