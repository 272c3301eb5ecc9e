package openai

import (
	"context"
	"fmt"
	"strings"

	llmhttp "github.com/patchlens/patchlens/internal/adapter/llm/http"
	"github.com/patchlens/patchlens/internal/domain"
	"github.com/patchlens/patchlens/internal/usecase/review"
)

const (
	analyzerName = "openai"

	analysisSystemPrompt = "You are an expert code reviewer. Analyze the code changes and respond with a single JSON object matching the requested schema."
	summarySystemPrompt  = "You are an expert code reviewer providing executive summaries of code reviews."

	// fallbackScore is assigned when the model answers in prose instead
	// of the JSON contract.
	fallbackScore = 7
)

// Client abstracts the HTTP client behaviour the analyzer needs.
type Client interface {
	Call(ctx context.Context, prompt string, options CallOptions) (*APIResponse, error)
}

// Analyzer implements the review.Analyzer port on top of the Chat
// Completions API.
type Analyzer struct {
	model       string
	client      Client
	temperature float64
}

// NewAnalyzer constructs an Analyzer for the supplied model.
func NewAnalyzer(model string, client Client, temperature float64) *Analyzer {
	return &Analyzer{
		model:       model,
		client:      client,
		temperature: temperature,
	}
}

// Name identifies the analyzer implementation.
func (a *Analyzer) Name() string { return analyzerName }

// Model identifies the underlying model.
func (a *Analyzer) Model() string { return a.model }

// Analyze sends the per-file prompt and translates the response into a
// FileAnalysis. Prose responses degrade to a summary-only analysis rather
// than failing the file.
func (a *Analyzer) Analyze(ctx context.Context, req review.AnalysisRequest) (domain.FileAnalysis, error) {
	if a.client == nil {
		return domain.FileAnalysis{}, fmt.Errorf("openai client missing")
	}

	resp, err := a.client.Call(ctx, req.Prompt, CallOptions{
		SystemPrompt: analysisSystemPrompt,
		Temperature:  a.temperature,
		Seed:         req.Seed,
		MaxTokens:    req.MaxTokens,
	})
	if err != nil {
		return domain.FileAnalysis{}, err
	}

	payload, err := llmhttp.ParseAnalysisResponse(resp.Text)
	if err != nil {
		return domain.FileAnalysis{
			Path:    req.Path,
			Issues:  []domain.Issue{},
			Summary: strings.TrimSpace(resp.Text),
			Score:   fallbackScore,
		}, nil
	}

	return toFileAnalysis(req.Path, payload), nil
}

// Summarize sends the aggregate prompt and returns the executive summary.
func (a *Analyzer) Summarize(ctx context.Context, req review.SummaryRequest) (string, error) {
	if a.client == nil {
		return "", fmt.Errorf("openai client missing")
	}

	resp, err := a.client.Call(ctx, req.Prompt, CallOptions{
		SystemPrompt: summarySystemPrompt,
		Temperature:  a.temperature,
		MaxTokens:    req.MaxTokens,
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(resp.Text), nil
}

func toFileAnalysis(path string, payload llmhttp.AnalysisPayload) domain.FileAnalysis {
	issues := make([]domain.Issue, 0, len(payload.Issues))
	for _, issue := range payload.Issues {
		issues = append(issues, domain.NewIssue(domain.IssueInput{
			File:           path,
			Line:           issue.Line,
			Severity:       domain.ParseSeverity(issue.Severity),
			Category:       issue.Category,
			Description:    issue.Description,
			Recommendation: issue.Recommendation,
		}))
	}

	return domain.FileAnalysis{
		Path:    path,
		Issues:  issues,
		Summary: payload.Summary,
		Score:   payload.Score,
	}
}
