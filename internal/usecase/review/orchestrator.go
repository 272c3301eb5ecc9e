package review

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/patchlens/patchlens/internal/diff"
	"github.com/patchlens/patchlens/internal/domain"
)

// ChangeSource abstracts where a change under review comes from: a GitHub
// pull request, a GitLab merge request, or a local commit range.
type ChangeSource interface {
	// GetChangeRequest returns the metadata for the change under review.
	GetChangeRequest(ctx context.Context) (domain.ChangeRequest, error)

	// ListChangedFiles returns every changed file with its unified diff.
	ListChangedFiles(ctx context.Context) ([]domain.FileChange, error)
}

// Analyzer defines the outbound port for LLM-backed file analysis.
type Analyzer interface {
	// Analyze reviews one file's formatted changes.
	Analyze(ctx context.Context, req AnalysisRequest) (domain.FileAnalysis, error)

	// Summarize produces the executive summary for the whole change.
	Summarize(ctx context.Context, req SummaryRequest) (string, error)

	// Name identifies the analyzer implementation (e.g. "openai").
	Name() string

	// Model identifies the underlying model.
	Model() string
}

// Publisher posts the finished review back to the hosting provider.
type Publisher interface {
	Publish(ctx context.Context, report domain.Report) error
}

// ReportWriter persists a report artifact to disk.
type ReportWriter interface {
	// Format names the artifact format (e.g. "markdown", "json").
	Format() string

	// Write renders the report into outputDir and returns the file path.
	Write(ctx context.Context, report domain.Report, outputDir string) (string, error)
}

// HistoryStore persists finished reports for later inspection.
type HistoryStore interface {
	SaveReport(ctx context.Context, report domain.Report) error
}

// Redactor defines the outbound port for secret redaction.
type Redactor interface {
	Redact(input string) (string, error)
}

// TokenEstimator approximates how many tokens a prompt fragment costs.
type TokenEstimator interface {
	EstimateTokens(text string) int
}

// SeedFunc generates deterministic seeds per analyzed file.
type SeedFunc func(analyzer, change, file string) uint64

// AnalysisRequest describes the payload the analyzer expects for one file.
type AnalysisRequest struct {
	Path      string
	Prompt    string
	Seed      *uint64
	MaxTokens int
}

// SummaryRequest carries the aggregate inputs for the overall summary.
type SummaryRequest struct {
	Prompt    string
	MaxTokens int
}

// OrchestratorDeps captures the inbound dependencies for the orchestrator.
type OrchestratorDeps struct {
	Source    ChangeSource
	Analyzer  Analyzer
	Writers   []ReportWriter // one artifact per writer; may be empty
	Publisher Publisher      // Optional: nil disables publishing (local mode)
	Store     HistoryStore   // Optional: persistence layer for review history
	Redactor  Redactor       // Optional: secret redaction before prompts leave the process
	Estimator TokenEstimator // Optional: falls back to a bytes/4 heuristic
	Logger    Logger         // Optional: structured logging for warnings and info
	Seeds     SeedFunc       // Optional: deterministic per-file seeds
}

// Request represents an inbound review request.
type Request struct {
	OutputDir      string
	DryRun         bool
	MaxConcurrency int
	Filters        FilterOptions
	Prompts        PromptOptions
}

// Result captures the orchestrator outcome.
type Result struct {
	Report        domain.Report
	ArtifactPaths map[string]string
}

const defaultMaxConcurrency = 4

// Orchestrator implements the core review flow: fetch the change, analyze
// each file's diff, assemble a report, persist it, and publish it.
type Orchestrator struct {
	deps OrchestratorDeps
}

// NewOrchestrator wires the orchestrator dependencies.
func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	return &Orchestrator{deps: deps}
}

// validateDependencies checks that all required dependencies are present.
func (o *Orchestrator) validateDependencies() error {
	if o.deps.Source == nil {
		return errors.New("change source is required")
	}
	if o.deps.Analyzer == nil {
		return errors.New("analyzer is required")
	}
	// Writers may be empty when artifact output is disabled
	// Publisher, Store, Redactor, Estimator, Logger, Seeds are optional
	return nil
}

// Run executes a full review of the configured change.
func (o *Orchestrator) Run(ctx context.Context, req Request) (Result, error) {
	if err := o.validateDependencies(); err != nil {
		return Result{}, err
	}

	change, err := o.deps.Source.GetChangeRequest(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to fetch change request: %w", err)
	}

	files, err := o.deps.Source.ListChangedFiles(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to list changed files: %w", err)
	}

	o.logInfo(ctx, "starting review", map[string]interface{}{
		"repository": change.Repository,
		"number":     change.Number,
		"files":      len(files),
	})

	kept := FilterFiles(files, req.Filters)
	if dropped := len(files) - len(kept); dropped > 0 {
		o.logInfo(ctx, "filtered files from review", map[string]interface{}{
			"dropped": dropped,
			"kept":    len(kept),
		})
	}

	analyses := o.analyzeFiles(ctx, change, kept, req)

	stats := domain.ComputeStatistics(analyses)

	report := domain.Report{
		Change:        change,
		AnalyzerName:  o.deps.Analyzer.Name(),
		ModelName:     o.deps.Analyzer.Model(),
		TotalFiles:    len(files),
		AnalyzedFiles: len(analyses),
		Analyses:      analyses,
		Summary:       o.buildOverallSummary(ctx, analyses, stats),
		Stats:         stats,
		GeneratedAt:   time.Now(),
	}

	paths := make(map[string]string)
	for _, writer := range o.deps.Writers {
		path, err := writer.Write(ctx, report, req.OutputDir)
		if err != nil {
			o.logWarning(ctx, "failed to write report artifact", map[string]interface{}{
				"format": writer.Format(),
				"error":  err.Error(),
			})
			continue
		}
		paths[writer.Format()] = path
	}

	if o.deps.Store != nil {
		if err := o.deps.Store.SaveReport(ctx, report); err != nil {
			o.logWarning(ctx, "failed to persist report", map[string]interface{}{
				"repository": change.Repository,
				"number":     change.Number,
				"error":      err.Error(),
			})
		}
	}

	if o.deps.Publisher != nil && !req.DryRun {
		if err := o.deps.Publisher.Publish(ctx, report); err != nil {
			return Result{Report: report, ArtifactPaths: paths},
				fmt.Errorf("failed to publish review: %w", err)
		}
	}

	o.logInfo(ctx, "review completed", map[string]interface{}{
		"repository": change.Repository,
		"files":      len(analyses),
		"issues":     stats.TotalIssues,
	})

	return Result{Report: report, ArtifactPaths: paths}, nil
}

// analyzeFiles fans analysis out across files with bounded concurrency,
// preserving the input file order in the returned slice.
func (o *Orchestrator) analyzeFiles(ctx context.Context, change domain.ChangeRequest, files []domain.FileChange, req Request) []domain.FileAnalysis {
	maxConcurrency := req.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = defaultMaxConcurrency
	}

	results := make([]*domain.FileAnalysis, len(files))

	var wg sync.WaitGroup
	sem := make(chan struct{}, maxConcurrency)

	for i, file := range files {
		wg.Add(1)
		go func(i int, file domain.FileChange) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					results[i] = &domain.FileAnalysis{
						Path:    file.Path,
						Issues:  []domain.Issue{},
						Summary: fmt.Sprintf("Analysis failed: panic: %v", r),
					}
				}
			}()

			sem <- struct{}{}
			defer func() { <-sem }()

			results[i] = o.analyzeFile(ctx, change, file, req)
		}(i, file)
	}
	wg.Wait()

	analyses := make([]domain.FileAnalysis, 0, len(files))
	for _, result := range results {
		if result != nil {
			analyses = append(analyses, *result)
		}
	}
	return analyses
}

// analyzeFile reviews a single file. Returns nil when the file has nothing
// reviewable. Analyzer failures produce a zero-score analysis so the file
// still appears in the report, mirroring the per-file failure policy.
func (o *Orchestrator) analyzeFile(ctx context.Context, change domain.ChangeRequest, file domain.FileChange, req Request) *domain.FileAnalysis {
	formatted := diff.FormatForAnalysis(file.Patch, file.Path)
	if formatted == "" {
		o.logInfo(ctx, "skipping file with no reviewable changes", map[string]interface{}{
			"path": file.Path,
		})
		return nil
	}

	changes := diff.ExtractChanges(file.Patch, false, 0)
	prompt := BuildAnalysisPrompt(AnalysisContext{
		Path:      file.Path,
		Status:    file.Status,
		Diff:      formatted,
		Additions: changes.TotalAdditions,
		Deletions: changes.TotalDeletions,
	}, req.Prompts, o.estimateTokens)

	if o.deps.Redactor != nil {
		redacted, err := o.deps.Redactor.Redact(prompt)
		if err != nil {
			o.logWarning(ctx, "redaction failed", map[string]interface{}{
				"path":  file.Path,
				"error": err.Error(),
			})
			return &domain.FileAnalysis{
				Path:    file.Path,
				Issues:  []domain.Issue{},
				Summary: "Analysis failed: " + err.Error(),
			}
		}
		prompt = redacted
	}

	areq := AnalysisRequest{
		Path:      file.Path,
		Prompt:    prompt,
		MaxTokens: req.Prompts.MaxTokens,
	}
	if o.deps.Seeds != nil {
		seed := o.deps.Seeds(o.deps.Analyzer.Name(), changeID(change), file.Path)
		areq.Seed = &seed
	}

	analysis, err := o.deps.Analyzer.Analyze(ctx, areq)
	if err != nil {
		o.logWarning(ctx, "analysis failed", map[string]interface{}{
			"path":  file.Path,
			"error": err.Error(),
		})
		return &domain.FileAnalysis{
			Path:    file.Path,
			Issues:  []domain.Issue{},
			Summary: "Analysis failed: " + err.Error(),
		}
	}

	normalizeAnalysis(&analysis, file.Path)
	return &analysis
}

// buildOverallSummary asks the analyzer for an executive summary of the
// whole change. Failures degrade to a fixed message rather than aborting.
func (o *Orchestrator) buildOverallSummary(ctx context.Context, analyses []domain.FileAnalysis, stats domain.Statistics) string {
	if len(analyses) == 0 {
		return "No reviewable changes were found."
	}

	summary, err := o.deps.Analyzer.Summarize(ctx, SummaryRequest{
		Prompt:    BuildSummaryPrompt(analyses, stats),
		MaxTokens: summaryMaxTokens,
	})
	if err != nil {
		o.logWarning(ctx, "summary generation failed", map[string]interface{}{
			"error": err.Error(),
		})
		return "Unable to generate summary due to an error."
	}
	return summary
}

// normalizeAnalysis enforces domain invariants on analyzer output: the
// path is authoritative, severities are normalized, and scores stay in
// the 0-10 range.
func normalizeAnalysis(analysis *domain.FileAnalysis, path string) {
	analysis.Path = path
	if analysis.Issues == nil {
		analysis.Issues = []domain.Issue{}
	}
	for i := range analysis.Issues {
		if analysis.Issues[i].File == "" {
			analysis.Issues[i].File = path
		}
		analysis.Issues[i].Severity = domain.ParseSeverity(string(analysis.Issues[i].Severity))
	}
	if analysis.Score < 0 {
		analysis.Score = 0
	}
	if analysis.Score > 10 {
		analysis.Score = 10
	}
}

func changeID(change domain.ChangeRequest) string {
	if change.Number > 0 {
		return fmt.Sprintf("%s#%d", change.Repository, change.Number)
	}
	return fmt.Sprintf("%s@%s..%s", change.Repository, change.TargetRef, change.SourceRef)
}

func (o *Orchestrator) estimateTokens(text string) int {
	if o.deps.Estimator != nil {
		return o.deps.Estimator.EstimateTokens(text)
	}
	return len(text) / 4
}

func (o *Orchestrator) logInfo(ctx context.Context, message string, fields map[string]interface{}) {
	if o.deps.Logger != nil {
		o.deps.Logger.LogInfo(ctx, message, fields)
	}
}

func (o *Orchestrator) logWarning(ctx context.Context, message string, fields map[string]interface{}) {
	if o.deps.Logger != nil {
		o.deps.Logger.LogWarning(ctx, message, fields)
		return
	}
	log.Printf("warning: %s %v", message, fields)
}
