package static

import (
	"context"
	"fmt"

	"github.com/patchlens/patchlens/internal/domain"
	"github.com/patchlens/patchlens/internal/usecase/review"
)

const analyzerName = "static"

// Analyzer implements the usecase Analyzer port with canned responses.
type Analyzer struct {
	model string
}

// NewAnalyzer constructs a static Analyzer.
func NewAnalyzer(model string) *Analyzer {
	return &Analyzer{
		model: model,
	}
}

// Name identifies the analyzer.
func (a *Analyzer) Name() string { return analyzerName }

// Model reports the configured model name.
func (a *Analyzer) Model() string { return a.model }

// Analyze returns a static, pre-determined analysis for the file.
func (a *Analyzer) Analyze(ctx context.Context, req review.AnalysisRequest) (domain.FileAnalysis, error) {
	issue := domain.NewIssue(domain.IssueInput{
		File:           req.Path,
		Line:           1,
		Severity:       domain.SeverityLow,
		Category:       "style",
		Description:    "This is a static issue.",
		Recommendation: "No recommendation.",
	})

	return domain.FileAnalysis{
		Path:    req.Path,
		Issues:  []domain.Issue{issue},
		Summary: fmt.Sprintf("Static analysis of %s.", req.Path),
		Score:   8,
	}, nil
}

// Summarize returns a fixed executive summary.
func (a *Analyzer) Summarize(ctx context.Context, req review.SummaryRequest) (string, error) {
	return "This is a static summary from a mock analyzer.", nil
}
