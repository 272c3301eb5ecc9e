// Package json persists review reports as machine-readable JSON artifacts.
package json

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/patchlens/patchlens/internal/domain"
)

// Writer persists reports to disk as JSON files.
type Writer struct {
	now func() string
}

// NewWriter creates a JSON writer with a timestamp supplier for filenames.
func NewWriter(now func() string) *Writer {
	return &Writer{now: now}
}

// Format names the artifact format.
func (w *Writer) Format() string { return "json" }

// Write persists the report to outputDir and returns the file path.
func (w *Writer) Write(ctx context.Context, report domain.Report, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(outputDir, fmt.Sprintf("review-%s-%s.json", report.AnalyzerName, w.now()))

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create json file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}

	return path, nil
}
