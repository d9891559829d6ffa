package export

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/steelaxis-eu/inven-bst-sub001/internal/model"
)

func buildTestStock() []model.StockItem {
	lot := model.StockItem{
		ID: "LOT-A", Kind: model.KindLot, Profile: "HEA100", Grade: "S235",
		LengthMm: 12000, QuantityAtHand: 3,
		CostPerMeter: decimal.RequireFromString("14.50"),
		Status:       model.StatusActive, RootLotID: "LOT-A",
	}
	return []model.StockItem{
		lot,
		model.NewRemnant(lot, 2500, model.StatusAvailable),
		model.NewRemnant(lot, 1000, model.StatusAvailable),
	}
}

func TestCollectRemnantLabels_SkipsLots(t *testing.T) {
	labels := CollectRemnantLabels(buildTestStock())

	if len(labels) != 2 {
		t.Fatalf("expected 2 labels, got %d", len(labels))
	}
	if labels[0].RemnantID != "LOT-A-2500" {
		t.Errorf("unexpected remnant ID %q", labels[0].RemnantID)
	}
	if labels[0].Profile != "HEA100" || labels[0].Grade != "S235" {
		t.Errorf("label missing material data: %+v", labels[0])
	}
	if labels[0].RootLotID != "LOT-A" {
		t.Errorf("label should carry root lot, got %q", labels[0].RootLotID)
	}
	if labels[1].LengthMm != 1000 {
		t.Errorf("expected 1000mm, got %d", labels[1].LengthMm)
	}
}

func TestExportRemnantLabels_CreatesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "labels.pdf")

	labels := CollectRemnantLabels(buildTestStock())
	if err := ExportRemnantLabels(path, labels); err != nil {
		t.Fatalf("ExportRemnantLabels returned error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("labels PDF was not created: %v", err)
	}
	if info.Size() < 500 {
		t.Errorf("labels PDF seems too small: %d bytes", info.Size())
	}
}

func TestExportRemnantLabels_Empty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.pdf")

	if err := ExportRemnantLabels(path, nil); err == nil {
		t.Fatal("expected error for empty label list, got nil")
	}
}

func TestExportRemnantLabels_MultiplePages(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pages.pdf")

	// 35 labels overflow the 30-per-page layout onto a second page.
	var labels []RemnantLabel
	for i := 0; i < 35; i++ {
		labels = append(labels, RemnantLabel{
			RemnantID: fmt.Sprintf("LOT-%03d-1500", i),
			Profile:   "HEA100",
			Grade:     "S235",
			LengthMm:  1500,
			RootLotID: fmt.Sprintf("LOT-%03d", i),
		})
	}

	if err := ExportRemnantLabels(path, labels); err != nil {
		t.Fatalf("ExportRemnantLabels returned error: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("labels PDF was not created: %v", err)
	}
	if info.Size() < 1000 {
		t.Errorf("two-page labels PDF seems too small: %d bytes", info.Size())
	}
}
