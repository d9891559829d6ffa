// Package export renders allocation plans to shop-floor documents: a
// cutting plan PDF, QR-coded remnant labels, and an Excel workbook for
// procurement.
package export

import (
	"fmt"

	"github.com/go-pdf/fpdf"

	"github.com/steelaxis-eu/inven-bst-sub001/internal/model"
)

// pieceColor represents an RGB color for a cut segment.
type pieceColor struct {
	R, G, B int
}

var pieceColors = []pieceColor{
	{R: 76, G: 175, B: 80},  // green
	{R: 33, G: 150, B: 243}, // blue
	{R: 255, G: 152, B: 0},  // orange
	{R: 156, G: 39, B: 176}, // purple
	{R: 0, G: 188, B: 212},  // cyan
	{R: 244, G: 67, B: 54},  // red
	{R: 255, G: 235, B: 59}, // yellow
	{R: 121, G: 85, B: 72},  // brown
}

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	barRowHeight = 16.0
	barHeight    = 9.0
	drawAreaTop  = marginTop + headerHeight + 8.0
)

// barRender is one bar row on a plan page, either an existing stock unit or
// a bar to purchase.
type barRender struct {
	caption  string
	lengthMm int
	pieces   []model.PieceCut
	wasteMm  int
	oversize bool
}

// ExportPlanPDF generates the cutting plan document. Each profile/grade
// group is rendered on its own page as a stack of horizontal bar diagrams,
// followed by a summary page with purchase lines and overall statistics.
func ExportPlanPDF(path string, result model.PlanResult) error {
	if len(result.Plans) == 0 {
		return fmt.Errorf("no allocation plans to export")
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)

	for _, plan := range result.Plans {
		renderPlanPages(pdf, plan)
	}

	pdf.AddPage()
	renderSummaryPage(pdf, result)

	return pdf.OutputFileAndClose(path)
}

func collectBars(plan model.AllocationPlan) []barRender {
	bars := make([]barRender, 0, len(plan.StockUsed)+len(plan.NewStock))
	for _, a := range plan.StockUsed {
		caption := fmt.Sprintf("%s (%s, %d mm)", a.StockID, a.Kind, a.StockLengthMm)
		bars = append(bars, barRender{
			caption:  caption,
			lengthMm: a.StockLengthMm,
			pieces:   a.Pieces,
			wasteMm:  a.WasteMm,
		})
	}
	for i, n := range plan.NewStock {
		caption := fmt.Sprintf("New bar %d (%d mm)", i+1, n.LengthMm)
		if n.Oversize {
			caption += " SPECIAL ORDER"
		}
		bars = append(bars, barRender{
			caption:  caption,
			lengthMm: n.LengthMm,
			pieces:   n.Pieces,
			wasteMm:  n.WasteMm,
			oversize: n.Oversize,
		})
	}
	return bars
}

// renderPlanPages draws one group's bars, spilling onto extra pages when the
// group has more bars than fit below the header.
func renderPlanPages(pdf *fpdf.Fpdf, plan model.AllocationPlan) {
	bars := collectBars(plan)

	maxLen := 0
	for _, b := range bars {
		if b.lengthMm > maxLen {
			maxLen = b.lengthMm
		}
	}
	if maxLen == 0 {
		maxLen = 1
	}

	drawWidth := pageWidth - marginLeft - marginRight
	scale := drawWidth / float64(maxLen)

	pdf.AddPage()
	renderPlanHeader(pdf, plan)
	y := drawAreaTop

	for _, bar := range bars {
		if y+barRowHeight > pageHeight-marginBottom {
			pdf.AddPage()
			renderPlanHeader(pdf, plan)
			y = drawAreaTop
		}
		renderBar(pdf, marginLeft, y, scale, bar)
		y += barRowHeight
	}

	if len(plan.Oversize) > 0 {
		y += 4
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetTextColor(200, 0, 0)
		for _, notice := range plan.Oversize {
			pdf.SetXY(marginLeft, y)
			text := fmt.Sprintf("Piece %s (%d mm) exceeds the standard bar length; a custom length must be ordered",
				notice.PieceID, notice.LengthMm)
			pdf.CellFormat(drawWidth, 5, text, "", 0, "L", false, 0, "")
			y += 5
		}
		pdf.SetTextColor(0, 0, 0)
	}
}

func renderPlanHeader(pdf *fpdf.Fpdf, plan model.AllocationPlan) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, marginTop)
	title := fmt.Sprintf("Cutting plan: %s / %s", plan.Profile, plan.Grade)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, title, "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	stats := fmt.Sprintf("Stock bars: %d | New bars: %d | Waste: %d mm | Utilization: %.1f%%",
		len(plan.StockUsed), len(plan.NewStock), plan.TotalWasteMm(), plan.Utilization())
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, stats, "", 0, "L", false, 0, "")
}

// renderBar draws one bar as a horizontal strip: colored piece segments in
// cut order, then the leftover tail in gray.
func renderBar(pdf *fpdf.Fpdf, x, y, scale float64, bar barRender) {
	pdf.SetFont("Helvetica", "", 7)
	pdf.SetTextColor(60, 60, 60)
	pdf.SetXY(x, y)
	pdf.CellFormat(120, 4, bar.caption, "", 0, "L", false, 0, "")

	barY := y + 4.5
	barW := float64(bar.lengthMm) * scale

	// Bar outline
	pdf.SetDrawColor(60, 60, 60)
	pdf.SetLineWidth(0.4)
	pdf.SetFillColor(235, 235, 235)
	pdf.Rect(x, barY, barW, barHeight, "FD")

	segX := x
	for i, p := range bar.pieces {
		col := pieceColors[i%len(pieceColors)]
		segW := float64(p.LengthMm) * scale

		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.SetDrawColor(30, 30, 30)
		pdf.SetLineWidth(0.25)
		pdf.Rect(segX, barY, segW, barHeight, "FD")

		label := fmt.Sprintf("%s %d", p.Label, p.LengthMm)
		pdf.SetFont("Helvetica", "", 6)
		pdf.SetTextColor(0, 0, 0)
		labelW := pdf.GetStringWidth(label)
		if labelW < segW-1 {
			pdf.SetXY(segX+(segW-labelW)/2, barY+barHeight/2-1.5)
			pdf.CellFormat(labelW, 3, label, "", 0, "C", false, 0, "")
		}
		segX += segW
	}

	if bar.wasteMm > 0 {
		wasteW := float64(bar.wasteMm) * scale
		label := fmt.Sprintf("%d", bar.wasteMm)
		pdf.SetFont("Helvetica", "I", 6)
		pdf.SetTextColor(120, 120, 120)
		labelW := pdf.GetStringWidth(label)
		if labelW < wasteW-1 {
			pdf.SetXY(segX+(wasteW-labelW)/2, barY+barHeight/2-1.5)
			pdf.CellFormat(labelW, 3, label, "", 0, "C", false, 0, "")
		}
	}
	pdf.SetTextColor(0, 0, 0)
}

// renderSummaryPage draws purchase lines and overall statistics across all
// groups.
func renderSummaryPage(pdf *fpdf.Fpdf, result model.PlanResult) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, "Allocation Summary", "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	y := marginTop + 18

	var stockBars, newBars, wasteMm int
	for _, plan := range result.Plans {
		stockBars += len(plan.StockUsed)
		newBars += len(plan.NewStock)
		wasteMm += plan.TotalWasteMm()
	}

	summaryItems := []struct {
		label string
		value string
	}{
		{"Material Groups", fmt.Sprintf("%d", len(result.Plans))},
		{"Stock Bars Consumed", fmt.Sprintf("%d", stockBars)},
		{"New Bars To Purchase", fmt.Sprintf("%d", newBars)},
		{"Total Waste", fmt.Sprintf("%d mm", wasteMm)},
		{"Skipped Pieces", fmt.Sprintf("%d", len(result.Skipped))},
	}

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range summaryItems {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(60, 6, item.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(40, 6, item.value, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		y += 7
	}

	y += 5
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Purchase List", "", 0, "L", false, 0, "")
	y += 9

	colWidths := []float64{50, 40, 40, 30, 40}
	headers := []string{"Profile", "Grade", "Length", "Quantity", "Order Type"}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	xPos := marginLeft
	for i, header := range headers {
		pdf.SetXY(xPos, y)
		pdf.CellFormat(colWidths[i], 6, header, "1", 0, "C", true, 0, "")
		xPos += colWidths[i]
	}
	y += 6

	pdf.SetFont("Helvetica", "", 9)
	row := 0
	for _, plan := range result.Plans {
		for _, line := range plan.PurchaseList() {
			orderType := "standard"
			if line.Oversize {
				orderType = "special order"
			}
			rowData := []string{
				plan.Profile,
				plan.Grade,
				fmt.Sprintf("%d mm", line.LengthMm),
				fmt.Sprintf("%d", line.Quantity),
				orderType,
			}

			if row%2 == 0 {
				pdf.SetFillColor(245, 245, 245)
			} else {
				pdf.SetFillColor(255, 255, 255)
			}

			xPos = marginLeft
			for j, cell := range rowData {
				pdf.SetXY(xPos, y)
				pdf.CellFormat(colWidths[j], 6, cell, "1", 0, "C", true, 0, "")
				xPos += colWidths[j]
			}
			y += 6
			row++
		}
	}
	if row == 0 {
		pdf.SetXY(marginLeft, y)
		pdf.CellFormat(100, 6, "Nothing to purchase; demand covered from stock.", "", 0, "L", false, 0, "")
		y += 6
	}

	if len(result.Skipped) > 0 {
		y += 8
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetTextColor(200, 0, 0)
		pdf.SetXY(marginLeft, y)
		pdf.CellFormat(200, 7, "WARNING: Skipped Pieces", "", 0, "L", false, 0, "")
		y += 8

		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(0, 0, 0)
		for _, skipped := range result.Skipped {
			pdf.SetXY(marginLeft+5, y)
			text := fmt.Sprintf("- %s (%d mm, qty %d): %s",
				skipped.Piece.Label, skipped.Piece.LengthMm, skipped.Piece.Quantity, skipped.Reason)
			pdf.CellFormat(200, 5, text, "", 0, "L", false, 0, "")
			y += 5
		}
	}

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, "Generated by BarForge - Steel Bar Allocation", "", 0, "C", false, 0, "")
}
