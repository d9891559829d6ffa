package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLot(t *testing.T) {
	lot := NewLot("HEA100", "S235", 12000, 5, decimal.RequireFromString("14.50"))

	assert.Equal(t, KindLot, lot.Kind)
	assert.Equal(t, StatusActive, lot.Status)
	assert.Equal(t, 5, lot.QuantityAtHand)
	assert.Equal(t, lot.ID, lot.RootLotID, "a lot is its own root")
	assert.True(t, lot.Consumable())
}

func TestRemnantID_Deterministic(t *testing.T) {
	assert.Equal(t, "LOT-A-1000", RemnantID("LOT-A", 1000))
	assert.Equal(t, RemnantID("LOT-A", 1000), RemnantID("LOT-A", 1000))
	assert.NotEqual(t, RemnantID("LOT-A", 1000), RemnantID("LOT-A", 999))
}

func TestNewRemnant_InheritsRootLot(t *testing.T) {
	lot := NewLot("HEA100", "S235", 12000, 1, decimal.RequireFromString("14.50"))
	first := NewRemnant(lot, 5000, StatusAvailable)

	assert.Equal(t, KindRemnant, first.Kind)
	assert.Equal(t, lot.ID+"-5000", first.ID)
	assert.Equal(t, lot.ID, first.RootLotID)
	assert.Equal(t, 5000, first.LengthMm)
	assert.True(t, first.CostPerMeter.Equal(lot.CostPerMeter))

	// A remnant cut from a remnant still points at the original lot.
	second := NewRemnant(first, 1200, StatusAvailable)
	assert.Equal(t, lot.ID+"-1200", second.ID)
	assert.Equal(t, lot.ID, second.RootLotID)
}

func TestConsumable(t *testing.T) {
	lot := NewLot("HEA100", "S235", 12000, 1, decimal.Zero)
	assert.True(t, lot.Consumable())

	lot.QuantityAtHand = 0
	assert.False(t, lot.Consumable())

	remnant := NewRemnant(lot, 2000, StatusAvailable)
	assert.True(t, remnant.Consumable())

	for _, status := range []StockStatus{StatusUsed, StatusScrap} {
		r := NewRemnant(lot, 2000, status)
		assert.False(t, r.Consumable(), "status %s", status)
	}
}

func TestPriority_RemnantBeforeLot(t *testing.T) {
	lot := NewLot("HEA100", "S235", 12000, 1, decimal.Zero)
	remnant := NewRemnant(lot, 2000, StatusAvailable)

	assert.Less(t, int(remnant.Priority()), int(lot.Priority()))
}

func TestConsumptionCost(t *testing.T) {
	item := StockItem{CostPerMeter: decimal.RequireFromString("14.50")}

	// 5000mm at 14.50/m
	assert.True(t, item.ConsumptionCost(5000).Equal(decimal.RequireFromString("72.50")))
	// Rounded to cents: 333mm at 10.00/m is 3.33
	item.CostPerMeter = decimal.RequireFromString("10.00")
	assert.True(t, item.ConsumptionCost(333).Equal(decimal.RequireFromString("3.33")))
	assert.True(t, item.ConsumptionCost(0).Equal(decimal.Zero.Round(2)))
}

func TestExpand(t *testing.T) {
	piece := NewRequiredPiece("Brace", 2000, 3, "HEA100", "S235")
	expanded := piece.Expand()

	require.Len(t, expanded, 3)
	for _, p := range expanded {
		assert.Equal(t, 1, p.Quantity)
		assert.Equal(t, piece.ID, p.ID)
		assert.Equal(t, 2000, p.LengthMm)
	}
}

func TestPurchaseList_GroupsAndOrders(t *testing.T) {
	plan := AllocationPlan{
		NewStock: []NewStockAssignment{
			{LengthMm: 15000, Oversize: true},
			{LengthMm: 12000},
			{LengthMm: 12000},
			{LengthMm: 6000},
		},
	}

	lines := plan.PurchaseList()
	require.Len(t, lines, 3)
	assert.Equal(t, PurchaseLine{LengthMm: 6000, Quantity: 1}, lines[0])
	assert.Equal(t, PurchaseLine{LengthMm: 12000, Quantity: 2}, lines[1])
	assert.Equal(t, PurchaseLine{LengthMm: 15000, Quantity: 1, Oversize: true}, lines[2])
}

func TestUtilization(t *testing.T) {
	plan := AllocationPlan{
		StockUsed: []StockAssignment{
			{StockLengthMm: 6000, Pieces: []PieceCut{{LengthMm: 5000}}, WasteMm: 1000},
		},
	}
	assert.InDelta(t, 83.33, plan.Utilization(), 0.01)

	empty := AllocationPlan{}
	assert.Equal(t, 0.0, empty.Utilization())
}

func TestUsageRecord_TotalCost(t *testing.T) {
	record := UsageRecord{
		Lines: []UsageLine{
			{Cost: decimal.RequireFromString("72.50")},
			{Cost: decimal.RequireFromString("10.05")},
		},
	}
	assert.True(t, record.TotalCost().Equal(decimal.RequireFromString("82.55")))
}
