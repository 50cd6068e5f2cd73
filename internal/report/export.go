package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"phpmdlens/internal/types"
)

var csvHeader = []string{"File", "Line", "Severity", "Rule", "RuleSet", "Message", "Source", "Link"}

// Document is the JSON shape of one analyzed file.
type Document struct {
	File        string             `json:"file"`
	Diagnostics []types.Diagnostic `json:"diagnostics"`
}

// WriteJSON writes the diagnostics of doc as indented JSON.
func WriteJSON(w io.Writer, doc string, diagnostics []types.Diagnostic) error {
	if diagnostics == nil {
		diagnostics = []types.Diagnostic{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Document{File: doc, Diagnostics: diagnostics}); err != nil {
		return fmt.Errorf("failed to encode diagnostics: %w", err)
	}
	return nil
}

// WriteCSV writes one row per diagnostic with a header row.
func WriteCSV(w io.Writer, doc string, diagnostics []types.Diagnostic) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range diagnosticRows(doc, diagnostics) {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// ExportCSV writes the diagnostics of doc to a timestamped CSV file in dir
// and returns its path.
func ExportCSV(dir, doc string, diagnostics []types.Diagnostic) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("export directory not specified")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory %s: %w", dir, err)
	}

	base := strings.TrimSuffix(filepath.Base(doc), filepath.Ext(doc))
	filePath := filepath.Join(dir, fmt.Sprintf("phpmd_%s_%s.csv", base, time.Now().Format("20060102_150405")))
	file, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create CSV file %s: %w", filePath, err)
	}
	defer file.Close()

	if err := WriteCSV(file, doc, diagnostics); err != nil {
		return "", err
	}
	return filePath, nil
}

func diagnosticRows(doc string, diagnostics []types.Diagnostic) [][]string {
	rows := make([][]string, len(diagnostics))
	for i, d := range diagnostics {
		rows[i] = []string{
			doc,
			fmt.Sprintf("%d", d.Range.Start.Line+1),
			d.Severity.String(),
			d.Code.Value,
			d.RuleSet,
			d.Message,
			d.Source,
			d.Code.Target,
		}
	}
	return rows
}
