package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/steelaxis-eu/inven-bst-sub001/internal/model"
)

// ExportWorkbook writes the plan to an Excel workbook: an Allocation sheet
// with one row per cut, a Purchases sheet for procurement, and, when any
// pieces were skipped, a Skipped sheet with the reasons.
func ExportWorkbook(path string, result model.PlanResult) error {
	if len(result.Plans) == 0 {
		return fmt.Errorf("no allocation plans to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	const allocationSheet = "Allocation"
	f.SetSheetName("Sheet1", allocationSheet)
	if err := writeAllocationSheet(f, allocationSheet, result); err != nil {
		return err
	}

	if _, err := f.NewSheet("Purchases"); err != nil {
		return fmt.Errorf("creating purchases sheet: %w", err)
	}
	if err := writePurchaseSheet(f, "Purchases", result); err != nil {
		return err
	}

	if len(result.Skipped) > 0 {
		if _, err := f.NewSheet("Skipped"); err != nil {
			return fmt.Errorf("creating skipped sheet: %w", err)
		}
		if err := writeSkippedSheet(f, "Skipped", result.Skipped); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, headers []string) error {
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("writing header %q: %w", h, err)
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return fmt.Errorf("row cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("writing row %d: %w", row, err)
		}
	}
	return nil
}

func writeAllocationSheet(f *excelize.File, sheet string, result model.PlanResult) error {
	headers := []string{"Profile", "Grade", "Source", "Bar Length (mm)", "Piece", "Piece Length (mm)", "Waste (mm)"}
	if err := writeHeader(f, sheet, headers); err != nil {
		return err
	}

	row := 2
	for _, plan := range result.Plans {
		for _, a := range plan.StockUsed {
			for i, p := range a.Pieces {
				waste := any("")
				if i == len(a.Pieces)-1 {
					waste = a.WasteMm
				}
				values := []any{plan.Profile, plan.Grade, a.StockID, a.StockLengthMm, p.Label, p.LengthMm, waste}
				if err := writeRow(f, sheet, row, values); err != nil {
					return err
				}
				row++
			}
		}
		for barIdx, n := range plan.NewStock {
			source := fmt.Sprintf("NEW-%d", barIdx+1)
			if n.Oversize {
				source += " (special order)"
			}
			for i, p := range n.Pieces {
				waste := any("")
				if i == len(n.Pieces)-1 {
					waste = n.WasteMm
				}
				values := []any{plan.Profile, plan.Grade, source, n.LengthMm, p.Label, p.LengthMm, waste}
				if err := writeRow(f, sheet, row, values); err != nil {
					return err
				}
				row++
			}
		}
	}
	return nil
}

func writePurchaseSheet(f *excelize.File, sheet string, result model.PlanResult) error {
	headers := []string{"Profile", "Grade", "Length (mm)", "Quantity", "Order Type"}
	if err := writeHeader(f, sheet, headers); err != nil {
		return err
	}

	row := 2
	for _, plan := range result.Plans {
		for _, line := range plan.PurchaseList() {
			orderType := "standard"
			if line.Oversize {
				orderType = "special order"
			}
			values := []any{plan.Profile, plan.Grade, line.LengthMm, line.Quantity, orderType}
			if err := writeRow(f, sheet, row, values); err != nil {
				return err
			}
			row++
		}
	}
	return nil
}

func writeSkippedSheet(f *excelize.File, sheet string, skipped []model.SkippedPiece) error {
	headers := []string{"Piece", "Length (mm)", "Quantity", "Reason"}
	if err := writeHeader(f, sheet, headers); err != nil {
		return err
	}

	for i, s := range skipped {
		values := []any{s.Piece.Label, s.Piece.LengthMm, s.Piece.Quantity, s.Reason}
		if err := writeRow(f, sheet, i+2, values); err != nil {
			return err
		}
	}
	return nil
}
