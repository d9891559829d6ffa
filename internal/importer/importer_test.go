package importer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

// ─── DetectCSVDelimiter Tests ──────────────────────────────

func TestDetectCSVDelimiter_Comma(t *testing.T) {
	data := []byte("Label,Length,Qty,Profile,Grade\nBrace,2000,2,HEA100,S235\nStrut,3000,1,HEA100,S235\n")
	got := DetectCSVDelimiter(data)
	if got != ',' {
		t.Errorf("expected comma delimiter, got %q", got)
	}
}

func TestDetectCSVDelimiter_Semicolon(t *testing.T) {
	data := []byte("Label;Length;Qty;Profile;Grade\nBrace;2000;2;HEA100;S235\nStrut;3000;1;HEA100;S235\n")
	got := DetectCSVDelimiter(data)
	if got != ';' {
		t.Errorf("expected semicolon delimiter, got %q", got)
	}
}

func TestDetectCSVDelimiter_Tab(t *testing.T) {
	data := []byte("Label\tLength\tQty\nBrace\t2000\t2\nStrut\t3000\t1\n")
	got := DetectCSVDelimiter(data)
	if got != '\t' {
		t.Errorf("expected tab delimiter, got %q", got)
	}
}

func TestDetectCSVDelimiter_Pipe(t *testing.T) {
	data := []byte("Label|Length|Qty\nBrace|2000|2\nStrut|3000|1\n")
	got := DetectCSVDelimiter(data)
	if got != '|' {
		t.Errorf("expected pipe delimiter, got %q", got)
	}
}

// ─── DetectColumns Tests ───────────────────────────────────

func TestDetectColumns_StandardHeaders(t *testing.T) {
	row := []string{"Label", "Length", "Quantity", "Profile", "Grade"}
	mapping, isHeader := DetectColumns(row)

	if !isHeader {
		t.Error("expected header to be detected")
	}
	if mapping.Label != 0 {
		t.Errorf("expected Label at 0, got %d", mapping.Label)
	}
	if mapping.Length != 1 {
		t.Errorf("expected Length at 1, got %d", mapping.Length)
	}
	if mapping.Quantity != 2 {
		t.Errorf("expected Quantity at 2, got %d", mapping.Quantity)
	}
	if mapping.Profile != 3 {
		t.Errorf("expected Profile at 3, got %d", mapping.Profile)
	}
	if mapping.Grade != 4 {
		t.Errorf("expected Grade at 4, got %d", mapping.Grade)
	}
}

func TestDetectColumns_CaseInsensitive(t *testing.T) {
	row := []string{"NAME", "LENGTH", "QTY", "SECTION", "MATERIAL"}
	mapping, isHeader := DetectColumns(row)

	if !isHeader {
		t.Error("expected header to be detected")
	}
	if mapping.Label != 0 {
		t.Errorf("expected Label at 0, got %d", mapping.Label)
	}
	if mapping.Length != 1 {
		t.Errorf("expected Length at 1, got %d", mapping.Length)
	}
	if mapping.Profile != 3 {
		t.Errorf("expected Profile at 3, got %d", mapping.Profile)
	}
	if mapping.Grade != 4 {
		t.Errorf("expected Grade at 4, got %d", mapping.Grade)
	}
}

func TestDetectColumns_AlternativeNames(t *testing.T) {
	row := []string{"Mark", "Cut Length", "Pcs", "Shape", "Steel Grade"}
	mapping, isHeader := DetectColumns(row)

	if !isHeader {
		t.Error("expected header to be detected")
	}
	if mapping.Label != 0 {
		t.Errorf("expected Label at 0, got %d", mapping.Label)
	}
	if mapping.Length != 1 {
		t.Errorf("expected Length at 1, got %d", mapping.Length)
	}
	if mapping.Quantity != 2 {
		t.Errorf("expected Quantity at 2, got %d", mapping.Quantity)
	}
	if mapping.Profile != 3 {
		t.Errorf("expected Profile at 3, got %d", mapping.Profile)
	}
	if mapping.Grade != 4 {
		t.Errorf("expected Grade at 4, got %d", mapping.Grade)
	}
}

func TestDetectColumns_ReorderedColumns(t *testing.T) {
	row := []string{"Qty", "Length", "Label"}
	mapping, isHeader := DetectColumns(row)

	if !isHeader {
		t.Error("expected header to be detected")
	}
	if mapping.Quantity != 0 {
		t.Errorf("expected Quantity at 0, got %d", mapping.Quantity)
	}
	if mapping.Length != 1 {
		t.Errorf("expected Length at 1, got %d", mapping.Length)
	}
	if mapping.Label != 2 {
		t.Errorf("expected Label at 2, got %d", mapping.Label)
	}
}

func TestDetectColumns_NoHeader(t *testing.T) {
	row := []string{"Brace", "2000", "2", "HEA100", "S235"}
	mapping, isHeader := DetectColumns(row)

	if isHeader {
		t.Error("expected no header detection for numeric data")
	}
	// Should fall back to positional
	if mapping.Label != 0 || mapping.Length != 1 || mapping.Quantity != 2 || mapping.Profile != 3 || mapping.Grade != 4 {
		t.Errorf("expected positional mapping, got %+v", mapping)
	}
}

// ─── CSV Import Tests ──────────────────────────────────────

func TestImportCSVFromReader_WithHeaders(t *testing.T) {
	data := "Label,Length,Quantity,Profile,Grade\nBrace,2000,2,HEA100,S235\nStrut,3000,1,IPE200,S355\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Errors) > 0 {
		t.Errorf("unexpected errors: %v", result.Errors)
	}
	if len(result.Pieces) != 2 {
		t.Fatalf("expected 2 pieces, got %d", len(result.Pieces))
	}

	if result.Pieces[0].Label != "Brace" {
		t.Errorf("expected label 'Brace', got '%s'", result.Pieces[0].Label)
	}
	if result.Pieces[0].LengthMm != 2000 {
		t.Errorf("expected length 2000, got %d", result.Pieces[0].LengthMm)
	}
	if result.Pieces[0].Quantity != 2 {
		t.Errorf("expected quantity 2, got %d", result.Pieces[0].Quantity)
	}
	if result.Pieces[0].Profile != "HEA100" {
		t.Errorf("expected profile 'HEA100', got '%s'", result.Pieces[0].Profile)
	}
	if result.Pieces[0].Grade != "S235" {
		t.Errorf("expected grade 'S235', got '%s'", result.Pieces[0].Grade)
	}
	if result.Pieces[0].ID == "" {
		t.Error("expected generated piece ID")
	}

	if result.Pieces[1].Profile != "IPE200" || result.Pieces[1].Grade != "S355" {
		t.Errorf("unexpected second piece material: %+v", result.Pieces[1])
	}
}

func TestImportCSVFromReader_WithoutHeaders(t *testing.T) {
	data := "Brace,2000,2,HEA100,S235\nStrut,3000,1,HEA100,S235\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Pieces) != 2 {
		t.Fatalf("expected 2 pieces, got %d (errors: %v)", len(result.Pieces), result.Errors)
	}
	if result.Pieces[0].Label != "Brace" {
		t.Errorf("expected label 'Brace', got '%s'", result.Pieces[0].Label)
	}
	if result.Pieces[0].LengthMm != 2000 {
		t.Errorf("expected length 2000, got %d", result.Pieces[0].LengthMm)
	}
}

func TestImportCSVFromReader_SemicolonDelimiter(t *testing.T) {
	data := "Label;Length;Quantity;Profile;Grade\nBrace;2000;2;HEA100;S235\n"
	result := ImportCSVFromReader(strings.NewReader(data), ';')

	if len(result.Errors) > 0 {
		t.Errorf("unexpected errors: %v", result.Errors)
	}
	if len(result.Pieces) != 1 {
		t.Fatalf("expected 1 piece, got %d", len(result.Pieces))
	}
	if result.Pieces[0].Label != "Brace" {
		t.Errorf("expected label 'Brace', got '%s'", result.Pieces[0].Label)
	}
}

func TestImportCSVFromReader_ReorderedColumns(t *testing.T) {
	data := "Qty,Length,Name,Grade,Profile\n2,2000,Brace,S235,HEA100\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Errors) > 0 {
		t.Errorf("unexpected errors: %v", result.Errors)
	}
	if len(result.Pieces) != 1 {
		t.Fatalf("expected 1 piece, got %d", len(result.Pieces))
	}
	if result.Pieces[0].Label != "Brace" {
		t.Errorf("expected label 'Brace', got '%s'", result.Pieces[0].Label)
	}
	if result.Pieces[0].LengthMm != 2000 {
		t.Errorf("expected length 2000, got %d", result.Pieces[0].LengthMm)
	}
	if result.Pieces[0].Quantity != 2 {
		t.Errorf("expected quantity 2, got %d", result.Pieces[0].Quantity)
	}
	if result.Pieces[0].Profile != "HEA100" {
		t.Errorf("expected profile 'HEA100', got '%s'", result.Pieces[0].Profile)
	}
}

func TestImportCSVFromReader_EmptyFile(t *testing.T) {
	result := ImportCSVFromReader(strings.NewReader(""), ',')

	if len(result.Errors) == 0 {
		t.Error("expected error for empty file")
	}
}

func TestImportCSVFromReader_InvalidLength(t *testing.T) {
	data := "Label,Length,Quantity\nBrace,abc,2\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Errors) == 0 {
		t.Error("expected error for invalid length")
	}
	if len(result.Pieces) != 0 {
		t.Errorf("expected 0 pieces, got %d", len(result.Pieces))
	}
}

func TestImportCSVFromReader_InvalidQuantity(t *testing.T) {
	data := "Label,Length,Quantity\nBrace,2000,abc\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Errors) == 0 {
		t.Error("expected error for invalid quantity")
	}
}

func TestImportCSVFromReader_NegativeValues(t *testing.T) {
	data := "Label,Length,Quantity\nBrace,-2000,2\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Errors) == 0 {
		t.Error("expected error for negative length")
	}
}

func TestImportCSVFromReader_ZeroQuantity(t *testing.T) {
	data := "Label,Length,Quantity\nBrace,2000,0\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Errors) == 0 {
		t.Error("expected error for zero quantity")
	}
}

func TestImportCSVFromReader_MixedValidAndInvalid(t *testing.T) {
	data := "Label,Length,Quantity,Profile,Grade\nGood,2000,2,HEA100,S235\nBad,abc,2,HEA100,S235\nAlsoGood,3000,1,HEA100,S235\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Pieces) != 2 {
		t.Errorf("expected 2 valid pieces, got %d", len(result.Pieces))
	}
	if len(result.Errors) != 1 {
		t.Errorf("expected 1 error, got %d", len(result.Errors))
	}
}

func TestImportCSVFromReader_EmptyRows(t *testing.T) {
	data := "Label,Length,Quantity\nBrace,2000,2\n\n\nStrut,3000,1\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Pieces) != 2 {
		t.Errorf("expected 2 pieces (skipping empty rows), got %d (errors: %v)", len(result.Pieces), result.Errors)
	}
}

func TestImportCSVFromReader_EmptyLabel(t *testing.T) {
	data := "Label,Length,Quantity\n,2000,2\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Pieces) != 1 {
		t.Fatalf("expected 1 piece, got %d", len(result.Pieces))
	}
	if result.Pieces[0].Label != "Piece 1" {
		t.Errorf("expected auto-generated label 'Piece 1', got '%s'", result.Pieces[0].Label)
	}
}

func TestImportCSVFromReader_MissingMaterialWarns(t *testing.T) {
	data := "Label,Length,Quantity\nBrace,2000,2\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Pieces) != 1 {
		t.Fatalf("expected 1 piece, got %d (errors: %v)", len(result.Pieces), result.Errors)
	}
	hasWarning := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "Missing profile or grade") {
			hasWarning = true
		}
	}
	if !hasWarning {
		t.Errorf("expected missing-material warning, got: %v", result.Warnings)
	}
}

func TestImportCSVFromReader_MissingRequiredColumnInHeader(t *testing.T) {
	data := "Label,Profile,Grade\nBrace,HEA100,S235\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Errors) == 0 {
		t.Error("expected error for missing Length and Quantity columns")
	}
	foundMissing := false
	for _, e := range result.Errors {
		if strings.Contains(e, "Required columns not found") {
			foundMissing = true
		}
	}
	if !foundMissing {
		t.Errorf("expected 'Required columns not found' error, got: %v", result.Errors)
	}
}

// ─── CSV File Import Tests ──────────────────────────────────

func TestImportCSV_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pieces.csv")
	content := "Label,Length,Quantity,Profile,Grade\nBrace,2000,2,HEA100,S235\nStrut,3000,1,HEA100,S235\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	result := ImportCSV(path)

	if len(result.Errors) > 0 {
		t.Errorf("unexpected errors: %v", result.Errors)
	}
	if len(result.Pieces) != 2 {
		t.Fatalf("expected 2 pieces, got %d", len(result.Pieces))
	}
}

func TestImportCSV_SemicolonFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pieces.csv")
	content := "Label;Length;Quantity;Profile;Grade\nBrace;2000;2;HEA100;S235\nStrut;3000;1;HEA100;S235\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	result := ImportCSV(path)

	if len(result.Pieces) != 2 {
		t.Errorf("expected 2 pieces, got %d (errors: %v)", len(result.Pieces), result.Errors)
	}

	// Should have a warning about semicolon delimiter
	hasSemicolonWarning := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "semicolon") {
			hasSemicolonWarning = true
		}
	}
	if !hasSemicolonWarning {
		t.Error("expected warning about semicolon delimiter detection")
	}
}

func TestImportCSV_FileNotFound(t *testing.T) {
	result := ImportCSV("/nonexistent/path/file.csv")

	if len(result.Errors) == 0 {
		t.Error("expected error for nonexistent file")
	}
}

func TestImportCSV_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.csv")
	if err := os.WriteFile(path, []byte(""), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	result := ImportCSV(path)

	if len(result.Errors) == 0 {
		t.Error("expected error for empty file")
	}
}

// ─── Excel Import Tests ────────────────────────────────────

func createTestExcel(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "pieces.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	for i, row := range rows {
		for j, cell := range row {
			cellRef, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatalf("failed to create cell reference: %v", err)
			}
			if err := f.SetCellValue(sheet, cellRef, cell); err != nil {
				t.Fatalf("failed to set cell value: %v", err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		t.Fatalf("failed to save Excel file: %v", err)
	}
	return path
}

func TestImportExcel_WithHeaders(t *testing.T) {
	path := createTestExcel(t, [][]interface{}{
		{"Label", "Length", "Quantity", "Profile", "Grade"},
		{"Brace", 2000, 2, "HEA100", "S235"},
		{"Strut", 3000, 1, "IPE200", "S355"},
	})

	result := ImportExcel(path)

	if len(result.Errors) > 0 {
		t.Errorf("unexpected errors: %v", result.Errors)
	}
	if len(result.Pieces) != 2 {
		t.Fatalf("expected 2 pieces, got %d", len(result.Pieces))
	}

	if result.Pieces[0].Label != "Brace" {
		t.Errorf("expected 'Brace', got '%s'", result.Pieces[0].Label)
	}
	if result.Pieces[0].LengthMm != 2000 {
		t.Errorf("expected length 2000, got %d", result.Pieces[0].LengthMm)
	}
	if result.Pieces[1].Grade != "S355" {
		t.Errorf("expected grade 'S355', got '%s'", result.Pieces[1].Grade)
	}
}

func TestImportExcel_WithoutHeaders(t *testing.T) {
	path := createTestExcel(t, [][]interface{}{
		{"Brace", 2000, 2, "HEA100", "S235"},
		{"Strut", 3000, 1, "HEA100", "S235"},
	})

	result := ImportExcel(path)

	if len(result.Pieces) != 2 {
		t.Fatalf("expected 2 pieces, got %d (errors: %v)", len(result.Pieces), result.Errors)
	}
}

func TestImportExcel_ReorderedColumns(t *testing.T) {
	path := createTestExcel(t, [][]interface{}{
		{"Qty", "Name", "Length", "Grade", "Profile"},
		{2, "Brace", 2000, "S235", "HEA100"},
	})

	result := ImportExcel(path)

	if len(result.Errors) > 0 {
		t.Errorf("unexpected errors: %v", result.Errors)
	}
	if len(result.Pieces) != 1 {
		t.Fatalf("expected 1 piece, got %d", len(result.Pieces))
	}
	if result.Pieces[0].Label != "Brace" {
		t.Errorf("expected 'Brace', got '%s'", result.Pieces[0].Label)
	}
	if result.Pieces[0].LengthMm != 2000 {
		t.Errorf("expected length 2000, got %d", result.Pieces[0].LengthMm)
	}
	if result.Pieces[0].Profile != "HEA100" {
		t.Errorf("expected profile 'HEA100', got '%s'", result.Pieces[0].Profile)
	}
}

func TestImportExcel_FileNotFound(t *testing.T) {
	result := ImportExcel("/nonexistent/file.xlsx")

	if len(result.Errors) == 0 {
		t.Error("expected error for nonexistent file")
	}
}

func TestImportExcel_InvalidData(t *testing.T) {
	path := createTestExcel(t, [][]interface{}{
		{"Label", "Length", "Quantity"},
		{"Brace", "abc", 2},
	})

	result := ImportExcel(path)

	if len(result.Errors) == 0 {
		t.Error("expected error for invalid length")
	}
}

// ─── Edge Cases ────────────────────────────────────────────

func TestImportCSVFromReader_OnlyHeaders(t *testing.T) {
	data := "Label,Length,Quantity\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Pieces) != 0 {
		t.Errorf("expected 0 pieces for header-only file, got %d", len(result.Pieces))
	}
	// Should not have errors (just no data)
}

func TestImportCSVFromReader_WhitespaceInValues(t *testing.T) {
	data := "Label , Length , Quantity\n Brace , 2000 , 2 \n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Pieces) != 1 {
		t.Fatalf("expected 1 piece, got %d (errors: %v)", len(result.Pieces), result.Errors)
	}
	if result.Pieces[0].LengthMm != 2000 {
		t.Errorf("expected length 2000, got %d", result.Pieces[0].LengthMm)
	}
}

func TestImportCSVFromReader_FractionalLengthRejected(t *testing.T) {
	data := "Label,Length,Quantity\nBrace,2000.5,2\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	// Lengths are whole millimeters; fractional values are invalid.
	if len(result.Errors) == 0 {
		t.Error("expected error for fractional length")
	}
}
