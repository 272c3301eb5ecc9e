package report

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/patchlens/patchlens/internal/domain"
)

const defaultMaxInlinePerFile = 10

// CommentPoster defines the interface for posting comments to the hosting
// service. This interface allows for mocking in tests.
type CommentPoster interface {
	PostSummaryComment(ctx context.Context, change domain.ChangeRequest, body string) error
	PostInlineComment(ctx context.Context, change domain.ChangeRequest, path string, line int, body string) error
}

// Options control which parts of the report get published.
type Options struct {
	// Header is the title line of the summary comment.
	Header string

	// Footer is the attribution line at the bottom of the summary comment.
	Footer string

	// SummaryEnabled posts the aggregate summary comment.
	SummaryEnabled bool

	// InlineCommentsEnabled posts per-issue comments on changed lines.
	InlineCommentsEnabled bool

	// SeverityLevels restricts inline comments to these severities.
	// Empty means the four standard levels.
	SeverityLevels []string

	// MaxInlineCommentsPerFile caps inline comments per file, keeping the
	// most severe. Zero or negative means the default of 10.
	MaxInlineCommentsPerFile int
}

// Publisher posts review reports back to the change request. Per-comment
// failures are logged and aggregated so one rejected comment does not stop
// the rest of the report from landing.
type Publisher struct {
	poster  CommentPoster
	options Options
}

// NewPublisher creates a Publisher with the given poster and options.
func NewPublisher(poster CommentPoster, options Options) *Publisher {
	return &Publisher{
		poster:  poster,
		options: options,
	}
}

// Publish posts the summary comment and inline comments per Options.
func (p *Publisher) Publish(ctx context.Context, report domain.Report) error {
	if p.poster == nil {
		return fmt.Errorf("comment poster missing")
	}

	var errs []error

	if p.options.SummaryEnabled {
		body := BuildSummaryComment(report, p.options.Header, p.options.Footer)
		if err := p.poster.PostSummaryComment(ctx, report.Change, body); err != nil {
			log.Printf("warning: failed to post summary comment: %v", err)
			errs = append(errs, fmt.Errorf("summary comment: %w", err))
		}
	}

	if p.options.InlineCommentsEnabled {
		errs = append(errs, p.postInlineComments(ctx, report)...)
	}

	return errors.Join(errs...)
}

func (p *Publisher) postInlineComments(ctx context.Context, report domain.Report) []error {
	maxPerFile := p.options.MaxInlineCommentsPerFile
	if maxPerFile <= 0 {
		maxPerFile = defaultMaxInlinePerFile
	}
	levels := severitySet(p.options.SeverityLevels)

	var errs []error
	for _, analysis := range report.Analyses {
		issues := postableIssues(analysis.Issues, levels)
		if len(issues) == 0 {
			continue
		}

		sort.SliceStable(issues, func(i, j int) bool {
			return issues[i].Severity.Rank() < issues[j].Severity.Rank()
		})
		if len(issues) > maxPerFile {
			issues = issues[:maxPerFile]
		}

		for _, issue := range issues {
			body := FormatInlineComment(issue)
			if err := p.poster.PostInlineComment(ctx, report.Change, analysis.Path, issue.Line, body); err != nil {
				log.Printf("warning: failed to post inline comment on %s:%d: %v", analysis.Path, issue.Line, err)
				errs = append(errs, fmt.Errorf("inline comment %s:%d: %w", analysis.Path, issue.Line, err))
			}
		}
	}

	return errs
}

// postableIssues keeps issues that are line-anchored and within the
// configured severity levels. Issues without a line number cannot be
// attached to the diff and belong in the summary instead.
func postableIssues(issues []domain.Issue, levels map[domain.Severity]bool) []domain.Issue {
	var kept []domain.Issue
	for _, issue := range issues {
		if issue.Line <= 0 {
			continue
		}
		if !levels[issue.Severity] {
			continue
		}
		kept = append(kept, issue)
	}
	return kept
}

func severitySet(levels []string) map[domain.Severity]bool {
	set := make(map[domain.Severity]bool, len(levels))
	for _, level := range levels {
		set[domain.ParseSeverity(level)] = true
	}
	if len(set) == 0 {
		set[domain.SeverityCritical] = true
		set[domain.SeverityHigh] = true
		set[domain.SeverityMedium] = true
		set[domain.SeverityLow] = true
	}
	return set
}
