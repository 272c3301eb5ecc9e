package review

import (
	"fmt"
	"sort"
	"strings"

	"github.com/patchlens/patchlens/internal/domain"
)

const (
	// defaultTokenBudget caps the diff portion of an analysis prompt.
	// Oversized diffs are truncated rather than rejected.
	defaultTokenBudget = 4000

	// summaryMaxTokens bounds the executive summary response.
	summaryMaxTokens = 500

	truncationMarker = "\n... [diff truncated to fit token budget]"
)

// defaultCategories is the review focus when no rules file narrows it.
var defaultCategories = []string{
	"security",
	"bugs",
	"best_practices",
	"performance",
	"code_quality",
	"testing",
	"documentation",
	"style",
}

// AnalysisContext carries the per-file inputs for prompt construction.
type AnalysisContext struct {
	Path      string
	Status    string
	Diff      string
	Additions int
	Deletions int
}

// PromptOptions carries review guidance injected into analyzer prompts.
type PromptOptions struct {
	Instructions string   // extra reviewer guidance from the rules file
	Categories   []string // enabled issue categories, highest weight first
	TokenBudget  int      // token budget for the diff portion; 0 uses the default
	MaxTokens    int      // response token cap forwarded to the analyzer
}

// BuildAnalysisPrompt renders the reviewer prompt for one file. The diff
// portion is truncated to the token budget using the supplied estimator.
func BuildAnalysisPrompt(actx AnalysisContext, opts PromptOptions, estimate func(string) int) string {
	categories := opts.Categories
	if len(categories) == 0 {
		categories = defaultCategories
	}

	budget := opts.TokenBudget
	if budget <= 0 {
		budget = defaultTokenBudget
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("You are an expert code reviewer %s in a change request.\n", changeContext(actx.Status)))
	b.WriteString("Review ONLY the changed lines shown below and provide focused, actionable feedback.\n\n")

	b.WriteString("Rules:\n")
	b.WriteString("- Comment only on added (+) lines, using line numbers from the new side of the diff\n")
	b.WriteString("- Use the unmarked context lines for understanding, not for comments\n")
	b.WriteString("- Ignore removed (-) lines unless the deletion itself is a problem\n")
	b.WriteString("- Be concise and specific to the actual changes\n\n")

	b.WriteString(fmt.Sprintf("Review focusing on: %s\n\n", strings.Join(categories, ", ")))

	if opts.Instructions != "" {
		b.WriteString(fmt.Sprintf("Additional instructions: %s\n\n", opts.Instructions))
	}

	b.WriteString(fmt.Sprintf("Change type: %s\n", actx.Status))
	b.WriteString(fmt.Sprintf("Change size: +%d -%d\n\n", actx.Additions, actx.Deletions))
	b.WriteString(truncateToBudget(actx.Diff, budget, estimate))
	b.WriteString("\n\n")

	b.WriteString("Respond with a single JSON object:\n")
	b.WriteString("{\n")
	b.WriteString("  \"summary\": \"<2-3 sentence assessment of the changes>\",\n")
	b.WriteString("  \"score\": <0-10 quality score>,\n")
	b.WriteString("  \"issues\": [\n")
	b.WriteString("    {\n")
	b.WriteString("      \"line\": <new-file line number>,\n")
	b.WriteString("      \"severity\": \"critical|high|medium|low\",\n")
	b.WriteString("      \"category\": \"<one of the focus categories>\",\n")
	b.WriteString("      \"description\": \"<specific problem in the changed code>\",\n")
	b.WriteString("      \"recommendation\": \"<actionable fix>\"\n")
	b.WriteString("    }\n")
	b.WriteString("  ]\n")
	b.WriteString("}\n\n")
	b.WriteString("If no issues are found in the changes, return an empty issues array and a score of 10.")

	return b.String()
}

// BuildSummaryPrompt renders the aggregate prompt for the executive summary.
func BuildSummaryPrompt(analyses []domain.FileAnalysis, stats domain.Statistics) string {
	var b strings.Builder
	b.WriteString("Summarize the following code review findings for a change request:\n\n")
	b.WriteString(fmt.Sprintf("Total files analyzed: %d\n", len(analyses)))
	b.WriteString(fmt.Sprintf("Total issues found: %d\n\n", stats.TotalIssues))

	b.WriteString("Issues by severity:\n")
	b.WriteString(fmt.Sprintf("- Critical: %d\n", stats.BySeverity[domain.SeverityCritical]))
	b.WriteString(fmt.Sprintf("- High: %d\n", stats.BySeverity[domain.SeverityHigh]))
	b.WriteString(fmt.Sprintf("- Medium: %d\n", stats.BySeverity[domain.SeverityMedium]))
	b.WriteString(fmt.Sprintf("- Low: %d\n\n", stats.BySeverity[domain.SeverityLow]))

	if len(stats.ByCategory) > 0 {
		b.WriteString("Issues by category:\n")
		categories := make([]string, 0, len(stats.ByCategory))
		for category := range stats.ByCategory {
			categories = append(categories, category)
		}
		sort.Strings(categories)
		for _, category := range categories {
			b.WriteString(fmt.Sprintf("- %s: %d\n", category, stats.ByCategory[category]))
		}
		b.WriteString("\n")
	}

	b.WriteString("Provide a concise executive summary (3-5 sentences) and recommendation on whether the change should be approved, needs changes, or requires major revisions.")

	return b.String()
}

func changeContext(status string) string {
	switch status {
	case domain.FileStatusModified:
		return "analyzing modifications to existing code"
	case domain.FileStatusAdded:
		return "reviewing newly added code"
	case domain.FileStatusDeleted:
		return "reviewing code deletions for potential impacts"
	default:
		return "analyzing code changes"
	}
}

// truncateToBudget cuts text so its estimated token count fits the budget.
// The cut is proportional to the overshoot, so one pass suffices.
func truncateToBudget(text string, budget int, estimate func(string) int) string {
	if estimate == nil {
		estimate = func(s string) int { return len(s) / 4 }
	}

	estimated := estimate(text)
	if estimated <= budget {
		return text
	}

	keep := len(text) * budget / estimated
	if keep < 0 {
		keep = 0
	}
	if keep > len(text) {
		keep = len(text)
	}
	return text[:keep] + truncationMarker
}
