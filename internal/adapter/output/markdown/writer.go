// Package markdown renders review reports into standalone Markdown files.
package markdown

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/patchlens/patchlens/internal/domain"
)

type clock func() string

// Writer renders reports into Markdown files.
type Writer struct {
	now clock
}

// NewWriter constructs a Markdown writer with a timestamp supplier for
// filenames.
func NewWriter(now clock) *Writer {
	return &Writer{now: now}
}

// Format names the artifact format.
func (w *Writer) Format() string { return "markdown" }

// Write persists the report to outputDir and returns the file path.
func (w *Writer) Write(ctx context.Context, report domain.Report, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	filename := fmt.Sprintf("%s_%s_%s.md",
		sanitise(report.Change.Repository),
		sanitise(report.AnalyzerName),
		w.now(),
	)
	path := filepath.Join(outputDir, filename)

	content := buildContent(report)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write markdown: %w", err)
	}

	return path, nil
}

func buildContent(report domain.Report) string {
	var builder strings.Builder
	caser := cases.Title(language.English)

	builder.WriteString("# Code Review Report\n\n")
	builder.WriteString(fmt.Sprintf("- Change: %s\n", changeLabel(report.Change)))
	if report.Change.Author != "" {
		builder.WriteString(fmt.Sprintf("- Author: %s\n", report.Change.Author))
	}
	builder.WriteString(fmt.Sprintf("- Analyzer: %s (%s)\n", report.AnalyzerName, report.ModelName))
	builder.WriteString(fmt.Sprintf("- Files analyzed: %d of %d\n", report.AnalyzedFiles, report.TotalFiles))
	builder.WriteString(fmt.Sprintf("- Issues found: %d\n", report.Stats.TotalIssues))
	builder.WriteString(fmt.Sprintf("- Average score: %s/10\n\n", formatScore(report.Stats.AverageScore)))

	builder.WriteString("## Summary\n\n")
	if report.Summary != "" {
		builder.WriteString(report.Summary)
	} else {
		builder.WriteString("Analysis completed successfully.")
	}
	builder.WriteString("\n\n")

	if report.Stats.TotalIssues == 0 {
		builder.WriteString("No issues found.\n")
		return builder.String()
	}

	builder.WriteString("## Findings\n\n")
	for _, analysis := range report.Analyses {
		if len(analysis.Issues) == 0 {
			continue
		}
		builder.WriteString(fmt.Sprintf("### %s\n\n", analysis.Path))
		builder.WriteString(fmt.Sprintf("Score: %s/10\n\n", formatScore(analysis.Score)))
		if analysis.Summary != "" {
			builder.WriteString(analysis.Summary)
			builder.WriteString("\n\n")
		}
		for _, issue := range analysis.Issues {
			builder.WriteString(fmt.Sprintf("- **%s** (%s) %s\n",
				caser.String(string(issue.Severity)),
				orGeneral(issue.Category),
				location(analysis.Path, issue.Line),
			))
			if issue.Description != "" {
				builder.WriteString(fmt.Sprintf("  %s\n", issue.Description))
			}
			if issue.Recommendation != "" {
				builder.WriteString(fmt.Sprintf("  Suggestion: %s\n", issue.Recommendation))
			}
		}
		builder.WriteString("\n")
	}

	return builder.String()
}

func changeLabel(change domain.ChangeRequest) string {
	label := change.Repository
	if label == "" {
		label = "unknown"
	}
	if change.Number > 0 {
		label = fmt.Sprintf("%s #%d", label, change.Number)
	}
	if change.Title != "" {
		label = fmt.Sprintf("%s: %s", label, change.Title)
	}
	return label
}

func location(path string, line int) string {
	if line > 0 {
		return fmt.Sprintf("%s:%d", path, line)
	}
	return path
}

func orGeneral(category string) string {
	if category == "" {
		return "general"
	}
	return category
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}

func sanitise(value string) string {
	if value == "" {
		return "unknown"
	}
	value = strings.ToLower(value)
	value = strings.ReplaceAll(value, string(filepath.Separator), "-")
	value = strings.ReplaceAll(value, " ", "-")
	return value
}
