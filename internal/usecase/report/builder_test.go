package report_test

import (
	"strings"
	"testing"

	"github.com/patchlens/patchlens/internal/domain"
	"github.com/patchlens/patchlens/internal/usecase/report"
	"github.com/stretchr/testify/assert"
)

func TestBuildSummaryComment_FullReport(t *testing.T) {
	analyses := []domain.FileAnalysis{
		{
			Path: "auth/login.go",
			Issues: []domain.Issue{
				{
					File:        "auth/login.go",
					Line:        10,
					Severity:    domain.SeverityCritical,
					Category:    "security",
					Description: "Hardcoded credential",
				},
			},
			Summary: "One critical issue.",
			Score:   3,
		},
	}

	rep := domain.Report{
		Change:        domain.ChangeRequest{Title: "Add login", Author: "alice"},
		TotalFiles:    2,
		AnalyzedFiles: 1,
		Analyses:      analyses,
		Summary:       "Needs work.",
		Stats:         domain.ComputeStatistics(analyses),
	}

	got := report.BuildSummaryComment(rep, "🤖 AI Code Review", "Powered by PatchLens")

	expected := strings.Join([]string{
		"## 🤖 AI Code Review",
		"",
		"**Pull Request**: Add login",
		"**Author**: alice",
		"**Files Analyzed**: 1 / 2",
		"**Total Issues Found**: 1",
		"**Code Quality Score**: 3/10",
		"",
		"### 📊 Issues by Severity",
		"",
		"- 🔴 **Critical**: 1",
		"",
		"### 🎯 Key Issues",
		"",
		"1. 🔴 **Security** in `auth/login.go` (Line 10)",
		"   - Hardcoded credential",
		"",
		"### 📝 Summary",
		"",
		"Needs work.",
		"",
		"### ✅ Recommendation",
		"",
		"❌ **Not Ready for Merge** - Critical issues must be addressed before merging.",
		"",
		"---",
		"*Powered by PatchLens*",
		"",
	}, "\n")

	assert.Equal(t, expected, got)
}

func TestBuildSummaryComment_CleanReport(t *testing.T) {
	analyses := []domain.FileAnalysis{
		{Path: "main.go", Issues: []domain.Issue{}, Summary: "Looks good.", Score: 9},
	}

	rep := domain.Report{
		Change:        domain.ChangeRequest{Title: "Tidy up", Author: "bob"},
		TotalFiles:    1,
		AnalyzedFiles: 1,
		Analyses:      analyses,
		Summary:       "All clear.",
		Stats:         domain.ComputeStatistics(analyses),
	}

	got := report.BuildSummaryComment(rep, "🤖 AI Code Review", "Powered by PatchLens")

	assert.NotContains(t, got, "Issues by Severity")
	assert.NotContains(t, got, "Key Issues")
	assert.Contains(t, got, "**Total Issues Found**: 0")
	assert.Contains(t, got, "✅ **Approved** - Code looks good!")
}

func TestBuildSummaryComment_MissingMetadata(t *testing.T) {
	rep := domain.Report{
		Stats: domain.ComputeStatistics(nil),
	}

	got := report.BuildSummaryComment(rep, "Review", "footer")

	assert.Contains(t, got, "**Pull Request**: N/A")
	assert.Contains(t, got, "**Author**: N/A")
	assert.Contains(t, got, "Analysis completed successfully.")
}

func TestBuildSummaryComment_KeyIssuesCappedAndOrdered(t *testing.T) {
	var issues []domain.Issue
	for i := 0; i < 4; i++ {
		issues = append(issues, domain.Issue{
			File: "a.go", Line: i + 1, Severity: domain.SeverityLow,
			Category: "style", Description: "minor",
		})
	}
	issues = append(issues,
		domain.Issue{File: "a.go", Line: 50, Severity: domain.SeverityHigh, Category: "bugs", Description: "race"},
		domain.Issue{File: "a.go", Line: 60, Severity: domain.SeverityCritical, Category: "security", Description: "injection"},
	)
	analyses := []domain.FileAnalysis{{Path: "a.go", Issues: issues, Score: 4}}

	rep := domain.Report{
		Analyses: analyses,
		Stats:    domain.ComputeStatistics(analyses),
	}

	got := report.BuildSummaryComment(rep, "h", "f")

	assert.Contains(t, got, "1. 🔴 **Security**")
	assert.Contains(t, got, "2. 🟠 **Bugs**")
	assert.NotContains(t, got, "6. ", "key issues should be capped at five")
}

func TestBuildSummaryComment_ScoreFormatting(t *testing.T) {
	analyses := []domain.FileAnalysis{
		{Path: "a.go", Score: 6},
		{Path: "b.go", Score: 9},
	}

	rep := domain.Report{
		Analyses: analyses,
		Stats:    domain.ComputeStatistics(analyses),
	}

	got := report.BuildSummaryComment(rep, "h", "f")

	assert.Contains(t, got, "**Code Quality Score**: 7.5/10")
}

func TestRecommendation(t *testing.T) {
	tests := []struct {
		name     string
		stats    domain.Statistics
		expected string
	}{
		{
			name: "critical issues block merge",
			stats: domain.Statistics{
				BySeverity:   map[domain.Severity]int{domain.SeverityCritical: 1},
				AverageScore: 9,
			},
			expected: "❌ **Not Ready for Merge**",
		},
		{
			name: "high issues need changes",
			stats: domain.Statistics{
				BySeverity:   map[domain.Severity]int{domain.SeverityHigh: 2},
				AverageScore: 9,
			},
			expected: "⚠️ **Needs Changes**",
		},
		{
			name: "high score approves",
			stats: domain.Statistics{
				BySeverity:   map[domain.Severity]int{},
				AverageScore: 8,
			},
			expected: "✅ **Approved**",
		},
		{
			name: "medium score approves with minor changes",
			stats: domain.Statistics{
				BySeverity:   map[domain.Severity]int{domain.SeverityMedium: 3},
				AverageScore: 6.5,
			},
			expected: "👍 **Approved with Minor Changes**",
		},
		{
			name: "low score needs improvement",
			stats: domain.Statistics{
				BySeverity:   map[domain.Severity]int{domain.SeverityLow: 1},
				AverageScore: 4,
			},
			expected: "⚠️ **Needs Improvement**",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, report.Recommendation(tt.stats), tt.expected)
		})
	}
}

func TestFormatInlineComment(t *testing.T) {
	issue := domain.Issue{
		File:           "db/query.go",
		Line:           42,
		Severity:       domain.SeverityHigh,
		Category:       "best_practices",
		Description:    "Query built by concatenation",
		Recommendation: "Use parameterized queries",
	}

	got := report.FormatInlineComment(issue)

	expected := "🟠 **Best Practices Issue - HIGH Priority**\n\n" +
		"Query built by concatenation\n\n" +
		"**💡 Recommendation**: Use parameterized queries\n"
	assert.Equal(t, expected, got)
}

func TestFormatInlineComment_NoRecommendation(t *testing.T) {
	issue := domain.Issue{
		Severity:    domain.SeverityLow,
		Category:    "style",
		Description: "Inconsistent naming",
	}

	got := report.FormatInlineComment(issue)

	assert.Equal(t, "🔵 **Style Issue - LOW Priority**\n\nInconsistent naming\n\n", got)
}

func TestFormatInlineComment_Defaults(t *testing.T) {
	got := report.FormatInlineComment(domain.Issue{Severity: domain.SeverityInfo})

	assert.Contains(t, got, "ℹ️ **General Issue - INFO Priority**")
	assert.Contains(t, got, "No description provided")
}
