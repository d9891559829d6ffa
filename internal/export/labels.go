package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/steelaxis-eu/inven-bst-sub001/internal/model"
)

// RemnantLabel holds the data encoded into a remnant's QR code. Scanning the
// label on the rack resolves the piece back to its ledger row and root lot.
type RemnantLabel struct {
	RemnantID string `json:"remnant_id"`
	Profile   string `json:"profile"`
	Grade     string `json:"grade"`
	LengthMm  int    `json:"length_mm"`
	RootLotID string `json:"root_lot_id"`
}

// Label layout constants for Avery 5160-compatible labels (3 columns, 10 rows per page).
// Each label cell is approximately 66.7mm x 25.4mm on US Letter paper.
const (
	labelMarginTop  = 12.7 // mm
	labelMarginLeft = 4.8  // mm
	labelWidth      = 66.7 // mm per label
	labelHeight     = 25.4 // mm per label
	labelCols       = 3
	labelRows       = 10
	labelsPerPage   = labelCols * labelRows
	qrSize          = 20.0 // QR code size in mm
	labelPadding    = 2.0  // mm internal padding
)

// CollectRemnantLabels extracts label data for the remnants among the given
// stock items.
func CollectRemnantLabels(items []model.StockItem) []RemnantLabel {
	var labels []RemnantLabel
	for _, item := range items {
		if item.Kind != model.KindRemnant {
			continue
		}
		labels = append(labels, RemnantLabel{
			RemnantID: item.ID,
			Profile:   item.Profile,
			Grade:     item.Grade,
			LengthMm:  item.LengthMm,
			RootLotID: item.RootLotID,
		})
	}
	return labels
}

// ExportRemnantLabels generates a PDF of QR-coded rack labels, one per
// remnant, laid out on a standard label sheet format (Avery 5160 / 3
// columns x 10 rows on US Letter).
func ExportRemnantLabels(path string, labels []RemnantLabel) error {
	if len(labels) == 0 {
		return fmt.Errorf("no remnants to generate labels for")
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)

	for i, label := range labels {
		if i%labelsPerPage == 0 {
			pdf.AddPage()
		}

		posOnPage := i % labelsPerPage
		col := posOnPage % labelCols
		row := posOnPage / labelCols

		x := labelMarginLeft + float64(col)*labelWidth
		y := labelMarginTop + float64(row)*labelHeight

		if err := renderLabel(pdf, x, y, label); err != nil {
			return fmt.Errorf("failed to render label for %q: %w", label.RemnantID, err)
		}
	}

	return pdf.OutputFileAndClose(path)
}

// renderLabel draws a single label at the given position.
func renderLabel(pdf *fpdf.Fpdf, x, y float64, info RemnantLabel) error {
	// Light border as a cutting guide
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, labelWidth, labelHeight, "D")

	qrData, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal label info: %w", err)
	}

	qrPNG, err := qrcode.Encode(string(qrData), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}

	imgName := "qr_" + info.RemnantID
	pdf.RegisterImageOptionsReader(imgName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))

	qrX := x + labelWidth - qrSize - labelPadding
	qrY := y + (labelHeight-qrSize)/2
	pdf.ImageOptions(imgName, qrX, qrY, qrSize, qrSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	textX := x + labelPadding
	textW := labelWidth - qrSize - 3*labelPadding

	// Remnant ID (bold, larger)
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(textX, y+labelPadding)

	remnantID := info.RemnantID
	if pdf.GetStringWidth(remnantID) > textW {
		for len(remnantID) > 0 && pdf.GetStringWidth(remnantID+"...") > textW {
			remnantID = remnantID[:len(remnantID)-1]
		}
		remnantID += "..."
	}
	pdf.CellFormat(textW, 4.5, remnantID, "", 1, "L", false, 0, "")

	// Material and length
	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(textX, y+labelPadding+5)
	material := fmt.Sprintf("%s %s", info.Profile, info.Grade)
	pdf.CellFormat(textW, 3.5, material, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetXY(textX, y+labelPadding+9)
	pdf.CellFormat(textW, 4, fmt.Sprintf("%d mm", info.LengthMm), "", 1, "L", false, 0, "")

	// Origin lot
	pdf.SetFont("Helvetica", "", 6)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(textX, y+labelPadding+13.5)
	pdf.CellFormat(textW, 3, "from "+info.RootLotID, "", 0, "L", false, 0, "")

	pdf.SetTextColor(0, 0, 0)
	return nil
}
