package http_test

import (
	"testing"

	llmhttp "github.com/patchlens/patchlens/internal/adapter/llm/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONFromMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "json fence",
			input:    "```json\n{\"summary\": \"ok\"}\n```",
			expected: `{"summary": "ok"}`,
		},
		{
			name:     "plain fence",
			input:    "```\n{\"summary\": \"ok\"}\n```",
			expected: `{"summary": "ok"}`,
		},
		{
			name:     "raw json without fence",
			input:    `  {"summary": "ok"}  `,
			expected: `{"summary": "ok"}`,
		},
		{
			name:     "prose around fence",
			input:    "Here is the result:\n```json\n{\"score\": 8}\n```\nLet me know!",
			expected: `{"score": 8}`,
		},
		{
			name:     "nested code fence inside json",
			input:    "```json\n{\"recommendation\": \"Use:\\n```go\\nx := 1\\n```\"}\n```",
			expected: "{\"recommendation\": \"Use:\\n```go\\nx := 1\\n```\"}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, llmhttp.ExtractJSONFromMarkdown(tt.input))
		})
	}
}

func TestParseAnalysisResponse(t *testing.T) {
	t.Run("parses complete payload", func(t *testing.T) {
		input := `{
			"summary": "Mostly solid changes with one security concern.",
			"score": 6.5,
			"issues": [
				{
					"line": 42,
					"severity": "high",
					"category": "security",
					"description": "SQL built by string concatenation",
					"recommendation": "Use parameterized queries"
				},
				{
					"line": 0,
					"severity": "low",
					"category": "style",
					"description": "Inconsistent naming"
				}
			]
		}`

		payload, err := llmhttp.ParseAnalysisResponse(input)
		require.NoError(t, err)

		assert.Equal(t, "Mostly solid changes with one security concern.", payload.Summary)
		assert.Equal(t, 6.5, payload.Score)
		require.Len(t, payload.Issues, 2)
		assert.Equal(t, 42, payload.Issues[0].Line)
		assert.Equal(t, "high", payload.Issues[0].Severity)
		assert.Equal(t, "Use parameterized queries", payload.Issues[0].Recommendation)
		assert.Empty(t, payload.Issues[1].Recommendation)
	})

	t.Run("parses markdown-wrapped payload", func(t *testing.T) {
		input := "```json\n{\"summary\": \"clean\", \"score\": 10, \"issues\": []}\n```"

		payload, err := llmhttp.ParseAnalysisResponse(input)
		require.NoError(t, err)

		assert.Equal(t, "clean", payload.Summary)
		assert.Equal(t, float64(10), payload.Score)
		assert.Empty(t, payload.Issues)
	})

	t.Run("rejects non-JSON text", func(t *testing.T) {
		_, err := llmhttp.ParseAnalysisResponse("The changes look fine to me.")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse analysis JSON")
	})
}
