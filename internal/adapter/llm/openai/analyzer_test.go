package openai_test

import (
	"context"
	"errors"
	"testing"

	"github.com/patchlens/patchlens/internal/adapter/llm/openai"
	"github.com/patchlens/patchlens/internal/domain"
	"github.com/patchlens/patchlens/internal/usecase/review"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	text    string
	err     error
	prompt  string
	options openai.CallOptions
}

func (f *fakeClient) Call(ctx context.Context, prompt string, options openai.CallOptions) (*openai.APIResponse, error) {
	f.prompt = prompt
	f.options = options
	if f.err != nil {
		return nil, f.err
	}
	return &openai.APIResponse{Text: f.text, Model: "gpt-4"}, nil
}

func TestAnalyzer_NameAndModel(t *testing.T) {
	analyzer := openai.NewAnalyzer("gpt-4", &fakeClient{}, 0.0)
	assert.Equal(t, "openai", analyzer.Name())
	assert.Equal(t, "gpt-4", analyzer.Model())
}

func TestAnalyzer_Analyze_ParsesStructuredResponse(t *testing.T) {
	client := &fakeClient{text: `{
		"summary": "Found one problem.",
		"score": 6.5,
		"issues": [
			{
				"line": 42,
				"severity": "HIGH",
				"category": "security",
				"description": "Query built by string concatenation",
				"recommendation": "Use parameterized queries"
			}
		]
	}`}
	analyzer := openai.NewAnalyzer("gpt-4", client, 0.0)

	seed := uint64(99)
	analysis, err := analyzer.Analyze(context.Background(), review.AnalysisRequest{
		Path:      "db/query.go",
		Prompt:    "analyze this diff",
		Seed:      &seed,
		MaxTokens: 1500,
	})
	require.NoError(t, err)

	assert.Equal(t, "db/query.go", analysis.Path)
	assert.Equal(t, "Found one problem.", analysis.Summary)
	assert.Equal(t, 6.5, analysis.Score)
	require.Len(t, analysis.Issues, 1)

	issue := analysis.Issues[0]
	assert.NotEmpty(t, issue.ID)
	assert.Equal(t, "db/query.go", issue.File)
	assert.Equal(t, 42, issue.Line)
	assert.Equal(t, domain.SeverityHigh, issue.Severity)
	assert.Equal(t, "security", issue.Category)
	assert.Equal(t, "Use parameterized queries", issue.Recommendation)
}

func TestAnalyzer_Analyze_ForwardsCallOptions(t *testing.T) {
	client := &fakeClient{text: `{"summary": "ok", "score": 10, "issues": []}`}
	analyzer := openai.NewAnalyzer("gpt-4", client, 0.2)

	seed := uint64(7)
	_, err := analyzer.Analyze(context.Background(), review.AnalysisRequest{
		Path:      "main.go",
		Prompt:    "the prompt",
		Seed:      &seed,
		MaxTokens: 1200,
	})
	require.NoError(t, err)

	assert.Equal(t, "the prompt", client.prompt)
	assert.Contains(t, client.options.SystemPrompt, "expert code reviewer")
	assert.Contains(t, client.options.SystemPrompt, "JSON")
	assert.Equal(t, 0.2, client.options.Temperature)
	require.NotNil(t, client.options.Seed)
	assert.Equal(t, uint64(7), *client.options.Seed)
	assert.Equal(t, 1200, client.options.MaxTokens)
}

func TestAnalyzer_Analyze_ProseFallback(t *testing.T) {
	client := &fakeClient{text: "  The change looks fine overall, no issues worth flagging.\n"}
	analyzer := openai.NewAnalyzer("gpt-4", client, 0.0)

	analysis, err := analyzer.Analyze(context.Background(), review.AnalysisRequest{
		Path:   "main.go",
		Prompt: "analyze",
	})
	require.NoError(t, err)

	assert.Equal(t, "main.go", analysis.Path)
	assert.Equal(t, "The change looks fine overall, no issues worth flagging.", analysis.Summary)
	assert.Equal(t, 7.0, analysis.Score)
	assert.Empty(t, analysis.Issues)
	assert.NotNil(t, analysis.Issues)
}

func TestAnalyzer_Analyze_ClientError(t *testing.T) {
	client := &fakeClient{err: errors.New("connection refused")}
	analyzer := openai.NewAnalyzer("gpt-4", client, 0.0)

	_, err := analyzer.Analyze(context.Background(), review.AnalysisRequest{Path: "main.go", Prompt: "analyze"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestAnalyzer_Analyze_NilClient(t *testing.T) {
	analyzer := openai.NewAnalyzer("gpt-4", nil, 0.0)

	_, err := analyzer.Analyze(context.Background(), review.AnalysisRequest{Path: "main.go", Prompt: "analyze"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client missing")
}

func TestAnalyzer_Summarize(t *testing.T) {
	client := &fakeClient{text: "  Overall the change is sound. Approve.\n"}
	analyzer := openai.NewAnalyzer("gpt-4", client, 0.3)

	summary, err := analyzer.Summarize(context.Background(), review.SummaryRequest{
		Prompt:    "summarize these findings",
		MaxTokens: 500,
	})
	require.NoError(t, err)

	assert.Equal(t, "Overall the change is sound. Approve.", summary)
	assert.Equal(t, "summarize these findings", client.prompt)
	assert.Contains(t, client.options.SystemPrompt, "executive summaries")
	assert.Equal(t, 500, client.options.MaxTokens)
	assert.Nil(t, client.options.Seed)
}

func TestAnalyzer_Summarize_ClientError(t *testing.T) {
	client := &fakeClient{err: errors.New("boom")}
	analyzer := openai.NewAnalyzer("gpt-4", client, 0.0)

	_, err := analyzer.Summarize(context.Background(), review.SummaryRequest{Prompt: "summarize"})
	require.Error(t, err)
}

func TestAnalyzer_ImplementsReviewAnalyzer(t *testing.T) {
	var _ review.Analyzer = (*openai.Analyzer)(nil)
}
