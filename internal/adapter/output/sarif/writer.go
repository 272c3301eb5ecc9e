// Package sarif exports review reports as SARIF 2.1.0 documents so findings
// can be ingested by code scanning dashboards.
package sarif

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/patchlens/patchlens/internal/domain"
)

const (
	schemaURI     = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json"
	defaultRuleID = "code-review"
)

// Writer persists reports to disk as SARIF files.
type Writer struct {
	now func() string
}

// NewWriter creates a SARIF writer with a timestamp supplier for filenames.
func NewWriter(now func() string) *Writer {
	return &Writer{now: now}
}

// Format names the artifact format.
func (w *Writer) Format() string { return "sarif" }

// Write persists the report to outputDir and returns the file path.
func (w *Writer) Write(ctx context.Context, report domain.Report, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(outputDir, fmt.Sprintf("review-%s-%s.sarif", report.AnalyzerName, w.now()))

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create sarif file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(convert(report)); err != nil {
		return "", fmt.Errorf("encode sarif: %w", err)
	}

	return path, nil
}

type logFile struct {
	Version string `json:"version"`
	Schema  string `json:"$schema"`
	Runs    []run  `json:"runs"`
}

type run struct {
	Tool       tool           `json:"tool"`
	Results    []result       `json:"results"`
	Properties map[string]any `json:"properties,omitempty"`
}

type tool struct {
	Driver driver `json:"driver"`
}

type driver struct {
	Name           string `json:"name"`
	InformationURI string `json:"informationUri,omitempty"`
	Rules          []rule `json:"rules,omitempty"`
}

type rule struct {
	ID               string  `json:"id"`
	Name             string  `json:"name,omitempty"`
	ShortDescription message `json:"shortDescription"`
}

type result struct {
	RuleID     string         `json:"ruleId"`
	Level      string         `json:"level"`
	Message    message        `json:"message"`
	Locations  []location     `json:"locations,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

type message struct {
	Text string `json:"text"`
}

type location struct {
	PhysicalLocation physicalLocation `json:"physicalLocation"`
}

type physicalLocation struct {
	ArtifactLocation artifactLocation `json:"artifactLocation"`
	Region           *region          `json:"region,omitempty"`
}

type artifactLocation struct {
	URI string `json:"uri"`
}

type region struct {
	StartLine int `json:"startLine"`
}

func convert(report domain.Report) logFile {
	results := make([]result, 0, report.Stats.TotalIssues)
	for _, analysis := range report.Analyses {
		for _, issue := range analysis.Issues {
			results = append(results, convertIssue(analysis.Path, issue))
		}
	}

	return logFile{
		Version: "2.1.0",
		Schema:  schemaURI,
		Runs: []run{
			{
				Tool: tool{
					Driver: driver{
						Name:           "patchlens",
						InformationURI: "https://github.com/patchlens/patchlens",
						Rules: []rule{
							{
								ID:               defaultRuleID,
								Name:             "CodeReview",
								ShortDescription: message{Text: "LLM code review finding"},
							},
						},
					},
				},
				Results: results,
				Properties: map[string]any{
					"summary":       report.Summary,
					"analyzer":      report.AnalyzerName,
					"model":         report.ModelName,
					"totalFiles":    report.TotalFiles,
					"analyzedFiles": report.AnalyzedFiles,
					"averageScore":  report.Stats.AverageScore,
				},
			},
		},
	}
}

func convertIssue(path string, issue domain.Issue) result {
	text := issue.Description
	if text == "" {
		text = "No description provided"
	}
	ruleID := issue.Category
	if ruleID == "" {
		ruleID = defaultRuleID
	}

	res := result{
		RuleID:  ruleID,
		Level:   convertSeverity(issue.Severity),
		Message: message{Text: text},
	}

	if path != "" {
		physical := physicalLocation{
			ArtifactLocation: artifactLocation{URI: path},
		}
		// File-level findings carry no line, so no region is fabricated
		// for them.
		if issue.Line >= 1 {
			physical.Region = &region{StartLine: issue.Line}
		}
		res.Locations = []location{{PhysicalLocation: physical}}
	}

	if issue.Recommendation != "" {
		res.Properties = map[string]any{"suggestion": issue.Recommendation}
	}

	return res
}

// convertSeverity maps review severities to SARIF levels.
func convertSeverity(severity domain.Severity) string {
	switch severity {
	case domain.SeverityCritical, domain.SeverityHigh:
		return "error"
	case domain.SeverityMedium:
		return "warning"
	case domain.SeverityLow, domain.SeverityInfo:
		return "note"
	default:
		return "warning"
	}
}
