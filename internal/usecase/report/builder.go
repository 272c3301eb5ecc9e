// Package report renders review reports and publishes them back to the
// change request as summary and inline comments.
package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/patchlens/patchlens/internal/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const keyIssueLimit = 5

var titleCaser = cases.Title(language.English)

// BuildSummaryComment renders the report as a Markdown comment suitable for
// posting on the change request. Header and footer come from configuration.
func BuildSummaryComment(report domain.Report, header, footer string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## %s\n\n", header)

	fmt.Fprintf(&b, "**Pull Request**: %s\n", orNA(report.Change.Title))
	fmt.Fprintf(&b, "**Author**: %s\n", orNA(report.Change.Author))
	fmt.Fprintf(&b, "**Files Analyzed**: %d / %d\n", report.AnalyzedFiles, report.TotalFiles)
	fmt.Fprintf(&b, "**Total Issues Found**: %d\n", report.Stats.TotalIssues)
	fmt.Fprintf(&b, "**Code Quality Score**: %s/10\n\n", formatScore(report.Stats.AverageScore))

	if report.Stats.TotalIssues > 0 {
		writeSeverityBreakdown(&b, report.Stats)
		writeKeyIssues(&b, report.Analyses)
	}

	b.WriteString("### 📝 Summary\n\n")
	summary := report.Summary
	if summary == "" {
		summary = "Analysis completed successfully."
	}
	b.WriteString(summary)
	b.WriteString("\n\n")

	b.WriteString("### ✅ Recommendation\n\n")
	b.WriteString(Recommendation(report.Stats))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "---\n*%s*\n", footer)

	return b.String()
}

func writeSeverityBreakdown(b *strings.Builder, stats domain.Statistics) {
	b.WriteString("### 📊 Issues by Severity\n\n")

	if n := stats.BySeverity[domain.SeverityCritical]; n > 0 {
		fmt.Fprintf(b, "- 🔴 **Critical**: %d\n", n)
	}
	if n := stats.BySeverity[domain.SeverityHigh]; n > 0 {
		fmt.Fprintf(b, "- 🟠 **High**: %d\n", n)
	}
	if n := stats.BySeverity[domain.SeverityMedium]; n > 0 {
		fmt.Fprintf(b, "- 🟡 **Medium**: %d\n", n)
	}
	if n := stats.BySeverity[domain.SeverityLow]; n > 0 {
		fmt.Fprintf(b, "- 🔵 **Low**: %d\n", n)
	}

	b.WriteString("\n")
}

func writeKeyIssues(b *strings.Builder, analyses []domain.FileAnalysis) {
	b.WriteString("### 🎯 Key Issues\n\n")

	for i, issue := range domain.TopIssues(analyses, keyIssueLimit) {
		description := issue.Description
		if description == "" {
			description = "No description"
		}
		file := issue.File
		if file == "" {
			file = "unknown"
		}

		fmt.Fprintf(b, "%d. %s **%s** in `%s`", i+1, severityIcon(issue.Severity), displayCategory(issue.Category), file)
		if issue.Line > 0 {
			fmt.Fprintf(b, " (Line %d)", issue.Line)
		}
		fmt.Fprintf(b, "\n   - %s\n", description)
	}

	b.WriteString("\n")
}

// FormatInlineComment renders a single issue as an inline review comment.
func FormatInlineComment(issue domain.Issue) string {
	var b strings.Builder

	description := issue.Description
	if description == "" {
		description = "No description provided"
	}

	fmt.Fprintf(&b, "%s **%s Issue - %s Priority**\n\n", severityIcon(issue.Severity), displayCategory(issue.Category), strings.ToUpper(string(issue.Severity)))
	b.WriteString(description)
	b.WriteString("\n\n")

	if issue.Recommendation != "" {
		fmt.Fprintf(&b, "**💡 Recommendation**: %s\n", issue.Recommendation)
	}

	return b.String()
}

// Recommendation maps run statistics to a merge recommendation.
func Recommendation(stats domain.Statistics) string {
	switch {
	case stats.BySeverity[domain.SeverityCritical] > 0:
		return "❌ **Not Ready for Merge** - Critical issues must be addressed before merging."
	case stats.BySeverity[domain.SeverityHigh] > 0:
		return "⚠️ **Needs Changes** - High priority issues should be resolved before merging."
	case stats.AverageScore >= 8:
		return "✅ **Approved** - Code looks good! Minor issues can be addressed in future PRs."
	case stats.AverageScore >= 6:
		return "👍 **Approved with Minor Changes** - Consider addressing medium priority issues."
	default:
		return "⚠️ **Needs Improvement** - Please review and address the identified issues."
	}
}

func severityIcon(severity domain.Severity) string {
	switch severity {
	case domain.SeverityCritical:
		return "🔴"
	case domain.SeverityHigh:
		return "🟠"
	case domain.SeverityMedium:
		return "🟡"
	case domain.SeverityLow:
		return "🔵"
	case domain.SeverityInfo:
		return "ℹ️"
	default:
		return "⚪"
	}
}

// displayCategory turns a machine category like "best_practices" into a
// human heading like "Best Practices".
func displayCategory(category string) string {
	if category == "" {
		return "General"
	}
	return titleCaser.String(strings.ReplaceAll(category, "_", " "))
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// formatScore renders the rounded average without trailing zeros.
func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}
