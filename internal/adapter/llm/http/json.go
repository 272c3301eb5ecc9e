package http

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	// Matches from the first ```json (or ```) fence to the LAST fence in
	// the text. The greedy match survives nested code fences inside JSON
	// string values, which model output frequently contains.
	jsonBlockRegex = regexp.MustCompile("(?s)```(?:json)?\\s*([\\s\\S]*)```")
)

// ExtractJSONFromMarkdown extracts JSON from markdown code blocks.
//
// Supports both ```json and ``` fences. Models are instructed to return a
// single JSON block; when no fence is present the text is assumed to be raw
// JSON and returned trimmed.
func ExtractJSONFromMarkdown(text string) string {
	matches := jsonBlockRegex.FindStringSubmatch(text)
	if len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}
	return strings.TrimSpace(text)
}

// AnalysisPayload is the JSON contract the analysis prompt asks the model
// to produce for one file's changes.
type AnalysisPayload struct {
	Summary string         `json:"summary"`
	Score   float64        `json:"score"`
	Issues  []IssuePayload `json:"issues"`
}

// IssuePayload is a single issue as reported by the model. Line refers to
// the new-file side of the diff.
type IssuePayload struct {
	Line           int    `json:"line"`
	Severity       string `json:"severity"`
	Category       string `json:"category"`
	Description    string `json:"description"`
	Recommendation string `json:"recommendation"`
}

// ParseAnalysisResponse parses model output into the analysis contract.
// Handles both markdown-wrapped and raw JSON responses.
func ParseAnalysisResponse(text string) (AnalysisPayload, error) {
	jsonText := ExtractJSONFromMarkdown(text)

	var payload AnalysisPayload
	if err := json.Unmarshal([]byte(jsonText), &payload); err != nil {
		return AnalysisPayload{}, fmt.Errorf("failed to parse analysis JSON: %w", err)
	}

	return payload, nil
}
