package domain_test

import (
	"testing"

	"github.com/patchlens/patchlens/internal/domain"
)

func TestIssueDeterministicID(t *testing.T) {
	issue := domain.NewIssue(domain.IssueInput{
		File:           "main.go",
		Line:           10,
		Severity:       domain.SeverityHigh,
		Category:       "bugs",
		Description:    "Example bug",
		Recommendation: "Fix bug",
	})

	again := domain.NewIssue(domain.IssueInput{
		File:           "main.go",
		Line:           10,
		Severity:       domain.SeverityHigh,
		Category:       "bugs",
		Description:    "Example bug",
		Recommendation: "Fix bug",
	})

	if issue.ID != again.ID {
		t.Fatalf("expected deterministic IDs, got %s and %s", issue.ID, again.ID)
	}
}

func TestIssueIDVariesWithContent(t *testing.T) {
	base := domain.IssueInput{
		File:        "main.go",
		Line:        10,
		Severity:    domain.SeverityHigh,
		Category:    "bugs",
		Description: "Example bug",
	}

	issue := domain.NewIssue(base)

	moved := base
	moved.Line = 11
	if domain.NewIssue(moved).ID == issue.ID {
		t.Error("expected ID to change with line")
	}

	reworded := base
	reworded.Description = "Different description"
	if domain.NewIssue(reworded).ID == issue.ID {
		t.Error("expected ID to change with description")
	}
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		raw  string
		want domain.Severity
	}{
		{"critical", domain.SeverityCritical},
		{"Critical", domain.SeverityCritical},
		{" HIGH ", domain.SeverityHigh},
		{"medium", domain.SeverityMedium},
		{"Low", domain.SeverityLow},
		{"info", domain.SeverityInfo},
		{"", domain.SeverityMedium},
		{"blocker", domain.Severity("blocker")},
	}

	for _, tt := range tests {
		if got := domain.ParseSeverity(tt.raw); got != tt.want {
			t.Errorf("ParseSeverity(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestSeverityRank(t *testing.T) {
	ordered := []domain.Severity{
		domain.SeverityCritical,
		domain.SeverityHigh,
		domain.SeverityMedium,
		domain.SeverityLow,
		domain.SeverityInfo,
	}

	for i := 1; i < len(ordered); i++ {
		if ordered[i-1].Rank() >= ordered[i].Rank() {
			t.Errorf("expected %q to rank before %q", ordered[i-1], ordered[i])
		}
	}

	if domain.Severity("blocker").Rank() <= domain.SeverityInfo.Rank() {
		t.Error("expected unrecognized severity to rank last")
	}
}
