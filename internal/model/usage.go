package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RemnantDisposition is the operator's choice for the leftover of a cut.
type RemnantDisposition string

const (
	DispositionAvailable RemnantDisposition = "AVAILABLE" // reusable, back into stock
	DispositionScrap     RemnantDisposition = "SCRAP"     // value-only, not reusable
)

// UsageLine references exactly one consumed stock item within a usage record.
type UsageLine struct {
	ID        string          `json:"id"`
	UsageID   string          `json:"usage_id"`
	StockID   string          `json:"stock_id"`
	Kind      StockKind       `json:"kind"`
	Quantity  int             `json:"quantity"` // physical items consumed, normally 1
	UsedMm    int             `json:"used_mm"`
	Cost      decimal.Decimal `json:"cost"`
	RemnantID string          `json:"remnant_id,omitempty"` // successor, empty when exhausted
}

// UsageRecord is an immutable append-only consumption event for one project.
type UsageRecord struct {
	ID         string      `json:"id"`
	ProjectRef string      `json:"project_ref"`
	CreatedAt  time.Time   `json:"created_at"`
	Lines      []UsageLine `json:"lines"`
}

// TotalCost sums the line costs of the record.
func (u UsageRecord) TotalCost() decimal.Decimal {
	total := decimal.Zero
	for _, l := range u.Lines {
		total = total.Add(l.Cost)
	}
	return total
}
