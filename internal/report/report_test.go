package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"phpmdlens/internal/status"
	"phpmdlens/internal/types"
)

func sampleDiagnostics() []types.Diagnostic {
	return []types.Diagnostic{
		{
			Range:    types.FullLine(9),
			Message:  "The method addItem has 11 parameters.",
			Severity: types.SeverityWarning,
			Source:   "phpmd",
			Code:     types.DiagnosticCode{Value: "ExcessiveParameterList", Target: "https://phpmd.org/rules/codesize.html#excessiveparameterlist"},
			RuleSet:  "Code Size Rules",
		},
		{
			Range:    types.FullLine(19),
			Message:  "Avoid variables with short names like $id.",
			Severity: types.SeverityError,
			Source:   "phpmd",
			Code:     types.DiagnosticCode{Value: "ShortVariable"},
			RuleSet:  "Naming Rules",
		},
		{
			Range:    types.FullLine(30),
			Message:  "Avoid variables with short names like $x.",
			Severity: types.SeverityError,
			Source:   "phpmd",
			Code:     types.DiagnosticCode{Value: "ShortVariable"},
			RuleSet:  "Naming Rules",
		},
	}
}

func TestGenerateRuleSummary(t *testing.T) {
	entries := GenerateRuleSummary(sampleDiagnostics())

	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, but got %d", len(entries))
	}

	if entries[0].Rule != "ShortVariable" || entries[0].Count != 2 || entries[0].Errors != 2 {
		t.Errorf("Unexpected first entry: %+v", entries[0])
	}
	if entries[0].Rank != 1 || entries[1].Rank != 2 {
		t.Errorf("Expected ranks 1 and 2, got %d and %d", entries[0].Rank, entries[1].Rank)
	}
	if entries[1].Rule != "ExcessiveParameterList" || entries[1].Warnings != 1 {
		t.Errorf("Unexpected second entry: %+v", entries[1])
	}
}

func TestCountBySeverity(t *testing.T) {
	errs, warnings, infos := CountBySeverity(sampleDiagnostics())
	if errs != 2 || warnings != 1 || infos != 0 {
		t.Errorf("Expected 2/1/0, got %d/%d/%d", errs, warnings, infos)
	}
}

func TestPrintDiagnostics(t *testing.T) {
	var buf bytes.Buffer
	PrintDiagnostics(&buf, "src/Cart.php", sampleDiagnostics())
	out := buf.String()

	for _, want := range []string{"src/Cart.php", "10", "ExcessiveParameterList", "20", "ShortVariable", "3 issues"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q:\n%s", want, out)
		}
	}
}

func TestPrintDiagnosticsEmpty(t *testing.T) {
	var buf bytes.Buffer
	PrintDiagnostics(&buf, "src/Cart.php", nil)

	if !strings.Contains(buf.String(), "No issues found") {
		t.Errorf("Expected clean message, got:\n%s", buf.String())
	}
}

func TestPrintStatus(t *testing.T) {
	var buf bytes.Buffer
	PrintStatus(&buf, status.Present(status.Unavailable, "DDEV project shop is not running"))

	out := buf.String()
	if !strings.Contains(out, "PHPMD unavailable: DDEV project shop is not running") {
		t.Errorf("Missing tooltip:\n%s", out)
	}
	if !strings.Contains(out, "phpmdlens doctor") {
		t.Errorf("Missing command hint:\n%s", out)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, "src/Cart.php", sampleDiagnostics()); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("Failed to read CSV: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("Expected header plus 3 rows, got %d", len(records))
	}
	if records[1][1] != "10" || records[1][2] != "warning" || records[1][3] != "ExcessiveParameterList" {
		t.Errorf("Unexpected first row: %v", records[1])
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, "src/Cart.php", nil); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	var doc Document
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if doc.File != "src/Cart.php" || doc.Diagnostics == nil || len(doc.Diagnostics) != 0 {
		t.Errorf("Unexpected document: %+v", doc)
	}
}

func TestExportCSV(t *testing.T) {
	dir := t.TempDir()

	path, err := ExportCSV(dir, "/srv/shop/src/Cart.php", sampleDiagnostics())
	if err != nil {
		t.Fatalf("ExportCSV failed: %v", err)
	}
	if !strings.Contains(path, "phpmd_Cart_") {
		t.Errorf("Unexpected file name %s", path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read exported file: %v", err)
	}
	if !strings.HasPrefix(string(content), "File,Line,Severity") {
		t.Errorf("Missing header:\n%s", content)
	}

	if _, err := ExportCSV("", "x.php", nil); err == nil {
		t.Error("Expected error for empty directory")
	}
}
