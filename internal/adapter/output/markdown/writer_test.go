package markdown_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/patchlens/patchlens/internal/adapter/output/markdown"
	"github.com/patchlens/patchlens/internal/domain"
	"github.com/patchlens/patchlens/internal/usecase/review"
)

var _ review.ReportWriter = (*markdown.Writer)(nil)

func fixedClock() string { return "2026-01-02T03-04-05Z" }

func sampleReport() domain.Report {
	analyses := []domain.FileAnalysis{
		{
			Path:    "internal/db/query.go",
			Summary: "Query construction needs attention.",
			Score:   6,
			Issues: []domain.Issue{
				domain.NewIssue(domain.IssueInput{
					File:           "internal/db/query.go",
					Line:           42,
					Severity:       domain.SeverityHigh,
					Category:       "security",
					Description:    "Query concatenates user input.",
					Recommendation: "Use parameterized queries.",
				}),
			},
		},
		{
			Path:  "README.md",
			Score: 9,
		},
	}
	return domain.Report{
		Change: domain.ChangeRequest{
			Provider:   "github",
			Repository: "acme/widgets",
			Number:     7,
			Title:      "Add query helpers",
			Author:     "octocat",
		},
		AnalyzerName:  "openai",
		ModelName:     "gpt-4",
		TotalFiles:    3,
		AnalyzedFiles: 2,
		Analyses:      analyses,
		Summary:       "One security issue needs fixing.",
		Stats:         domain.ComputeStatistics(analyses),
		GeneratedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestWriter_Format(t *testing.T) {
	if got := markdown.NewWriter(fixedClock).Format(); got != "markdown" {
		t.Errorf("Format() = %q, want %q", got, "markdown")
	}
}

func TestWriter_Write(t *testing.T) {
	dir := t.TempDir()
	writer := markdown.NewWriter(fixedClock)

	path, err := writer.Write(context.Background(), sampleReport(), dir)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	want := "acme-widgets_openai_2026-01-02T03-04-05Z.md"
	if filepath.Base(path) != want {
		t.Errorf("filename = %q, want %q", filepath.Base(path), want)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	content := string(raw)

	for _, fragment := range []string{
		"# Code Review Report",
		"- Change: acme/widgets #7: Add query helpers",
		"- Author: octocat",
		"- Analyzer: openai (gpt-4)",
		"- Files analyzed: 2 of 3",
		"- Issues found: 1",
		"- Average score: 7.5/10",
		"One security issue needs fixing.",
		"### internal/db/query.go",
		"Score: 6/10",
		"Query construction needs attention.",
		"- **High** (security) internal/db/query.go:42",
		"  Query concatenates user input.",
		"  Suggestion: Use parameterized queries.",
	} {
		if !strings.Contains(content, fragment) {
			t.Errorf("markdown missing %q:\n%s", fragment, content)
		}
	}

	if strings.Contains(content, "### README.md") {
		t.Errorf("clean files should not get a findings section:\n%s", content)
	}
}

func TestWriter_WriteCleanReport(t *testing.T) {
	dir := t.TempDir()
	writer := markdown.NewWriter(fixedClock)

	report := sampleReport()
	report.Analyses = []domain.FileAnalysis{{Path: "main.go", Score: 9}}
	report.Stats = domain.ComputeStatistics(report.Analyses)
	report.Summary = ""

	path, err := writer.Write(context.Background(), report, dir)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	content := string(raw)

	if !strings.Contains(content, "No issues found.") {
		t.Errorf("clean report missing marker:\n%s", content)
	}
	if !strings.Contains(content, "Analysis completed successfully.") {
		t.Errorf("missing summary fallback:\n%s", content)
	}
	if strings.Contains(content, "## Findings") {
		t.Errorf("clean report should have no findings section:\n%s", content)
	}
}

func TestWriter_WriteCreatesOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "reports")
	writer := markdown.NewWriter(fixedClock)

	path, err := writer.Write(context.Background(), sampleReport(), dir)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("artifact not written: %v", err)
	}
}

func TestWriter_FilenameFallsBackForMissingMetadata(t *testing.T) {
	dir := t.TempDir()
	writer := markdown.NewWriter(fixedClock)

	report := sampleReport()
	report.Change.Repository = ""

	path, err := writer.Write(context.Background(), report, dir)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if !strings.HasPrefix(filepath.Base(path), "unknown_") {
		t.Errorf("filename = %q, want unknown_ prefix", filepath.Base(path))
	}
}
