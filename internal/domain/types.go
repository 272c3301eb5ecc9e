package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

const (
	FileStatusAdded    = "added"
	FileStatusModified = "modified"
	FileStatusDeleted  = "deleted"
	FileStatusRenamed  = "renamed"
)

// ChangeRequest identifies the change under review: a pull request, a
// merge request, or a local commit range.
type ChangeRequest struct {
	Provider   string `json:"provider"`
	Repository string `json:"repository"`
	Number     int    `json:"number,omitempty"`
	Title      string `json:"title,omitempty"`
	Author     string `json:"author,omitempty"`
	SourceRef  string `json:"sourceRef,omitempty"`
	TargetRef  string `json:"targetRef,omitempty"`
	BaseSHA    string `json:"baseSha,omitempty"`
	StartSHA   string `json:"startSha,omitempty"`
	HeadSHA    string `json:"headSha,omitempty"`
	WebURL     string `json:"webUrl,omitempty"`
}

// FileChange captures the unified diff for a single file in a change.
type FileChange struct {
	Path    string `json:"path"`
	OldPath string `json:"oldPath,omitempty"`
	Status  string `json:"status"`
	Patch   string `json:"patch"`
}

// Severity classifies how urgent an issue is.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// ParseSeverity normalizes a raw severity label. Empty input defaults to
// medium; unrecognized labels are kept lowercased so consumers decide how
// to treat them.
func ParseSeverity(raw string) Severity {
	s := Severity(strings.ToLower(strings.TrimSpace(raw)))
	if s == "" {
		return SeverityMedium
	}
	return s
}

// Rank orders severities from most urgent (0) downward. Unrecognized
// severities sort last.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	case SeverityInfo:
		return 4
	default:
		return 5
	}
}

// Issue represents a single problem detected in a file's changes. Line is
// the new-file line number the issue refers to; 0 means the reviewer gave
// none.
type Issue struct {
	ID             string   `json:"id"`
	File           string   `json:"file"`
	Line           int      `json:"line,omitempty"`
	Severity       Severity `json:"severity"`
	Category       string   `json:"category"`
	Description    string   `json:"description"`
	Recommendation string   `json:"recommendation,omitempty"`
}

// IssueInput captures the information required to create an Issue.
type IssueInput struct {
	File           string
	Line           int
	Severity       Severity
	Category       string
	Description    string
	Recommendation string
}

// NewIssue constructs an Issue with a deterministic ID, so repeated runs
// over the same change produce stable identifiers.
func NewIssue(input IssueInput) Issue {
	return Issue{
		ID:             hashIssue(input),
		File:           input.File,
		Line:           input.Line,
		Severity:       input.Severity,
		Category:       input.Category,
		Description:    input.Description,
		Recommendation: input.Recommendation,
	}
}

func hashIssue(input IssueInput) string {
	payload := fmt.Sprintf("%s|%d|%s|%s|%s",
		input.File,
		input.Line,
		input.Severity,
		input.Category,
		input.Description,
	)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// FileAnalysis is the outcome of reviewing one file's changes. A failed
// analysis carries an explanatory Summary and a zero Score.
type FileAnalysis struct {
	Path    string  `json:"path"`
	Issues  []Issue `json:"issues"`
	Summary string  `json:"summary"`
	Score   float64 `json:"score"`
}

// Report is the assembled outcome of a full review run.
type Report struct {
	Change        ChangeRequest  `json:"change"`
	AnalyzerName  string         `json:"analyzerName"`
	ModelName     string         `json:"modelName"`
	TotalFiles    int            `json:"totalFiles"`
	AnalyzedFiles int            `json:"analyzedFiles"`
	Analyses      []FileAnalysis `json:"fileAnalyses"`
	Summary       string         `json:"overallSummary"`
	Stats         Statistics     `json:"statistics"`
	GeneratedAt   time.Time      `json:"generatedAt"`
}
