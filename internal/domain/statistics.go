package domain

import (
	"math"
	"sort"
)

// Statistics aggregates issue counts and scores across file analyses.
type Statistics struct {
	TotalIssues     int              `json:"totalIssues"`
	BySeverity      map[Severity]int `json:"bySeverity"`
	ByCategory      map[string]int   `json:"byCategory"`
	AverageScore    float64          `json:"averageScore"`
	FilesWithIssues int              `json:"filesWithIssues"`
}

// ComputeStatistics aggregates analyses into run-level statistics. The
// severity map always carries the four standard levels so renderers can
// rely on their presence; issues with other severities count toward the
// total only.
func ComputeStatistics(analyses []FileAnalysis) Statistics {
	stats := Statistics{
		BySeverity: map[Severity]int{
			SeverityCritical: 0,
			SeverityHigh:     0,
			SeverityMedium:   0,
			SeverityLow:      0,
		},
		ByCategory: map[string]int{},
	}

	var scoreSum float64
	for _, analysis := range analyses {
		scoreSum += analysis.Score
		if len(analysis.Issues) > 0 {
			stats.FilesWithIssues++
		}
		for _, issue := range analysis.Issues {
			stats.TotalIssues++
			if _, ok := stats.BySeverity[issue.Severity]; ok {
				stats.BySeverity[issue.Severity]++
			}
			category := issue.Category
			if category == "" {
				category = "other"
			}
			stats.ByCategory[category]++
		}
	}

	if len(analyses) > 0 {
		stats.AverageScore = math.Round(scoreSum/float64(len(analyses))*100) / 100
	}

	return stats
}

// TopIssues returns up to limit issues across all analyses, most severe
// first. Order within a severity level follows analysis order.
func TopIssues(analyses []FileAnalysis, limit int) []Issue {
	var all []Issue
	for _, analysis := range analyses {
		all = append(all, analysis.Issues...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Severity.Rank() < all[j].Severity.Rank()
	})

	if limit >= 0 && len(all) > limit {
		all = all[:limit]
	}
	return all
}
