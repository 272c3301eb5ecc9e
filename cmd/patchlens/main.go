package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/patchlens/patchlens/internal/adapter/cli"
	"github.com/patchlens/patchlens/internal/adapter/github"
	"github.com/patchlens/patchlens/internal/adapter/gitlab"
	"github.com/patchlens/patchlens/internal/adapter/llm"
	llmhttp "github.com/patchlens/patchlens/internal/adapter/llm/http"
	"github.com/patchlens/patchlens/internal/adapter/llm/openai"
	"github.com/patchlens/patchlens/internal/adapter/llm/static"
	"github.com/patchlens/patchlens/internal/adapter/observability"
	jsonwriter "github.com/patchlens/patchlens/internal/adapter/output/json"
	"github.com/patchlens/patchlens/internal/adapter/output/markdown"
	"github.com/patchlens/patchlens/internal/adapter/output/sarif"
	"github.com/patchlens/patchlens/internal/adapter/repository"
	"github.com/patchlens/patchlens/internal/adapter/store/sqlite"
	"github.com/patchlens/patchlens/internal/config"
	"github.com/patchlens/patchlens/internal/determinism"
	"github.com/patchlens/patchlens/internal/redaction"
	"github.com/patchlens/patchlens/internal/usecase/report"
	"github.com/patchlens/patchlens/internal/usecase/review"
	"github.com/patchlens/patchlens/internal/version"
)

func main() {
	if err := run(); err != nil {
		// Redact API keys from URLs in error messages before logging
		log.Println(llmhttp.RedactURLSecrets(err.Error()))
		os.Exit(1)
	}
}

func run() error {
	// Create cancellable context with signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: defaultConfigPaths(),
	})
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	app := &app{cfg: cfg}

	var history cli.HistoryBrowser
	if cfg.Store.Enabled {
		store, err := openStore(cfg.Store.Path)
		if err != nil {
			log.Printf("warning: history store unavailable: %v", err)
		} else {
			defer store.Close()
			app.store = store
			history = store
		}
	}

	root := cli.NewRootCommand(cli.Dependencies{
		Runner:  app,
		History: history,
		Defaults: cli.Defaults{
			Provider:  cfg.Provider,
			Owner:     cfg.GitHub.Owner,
			Repo:      cfg.GitHub.Repo,
			Project:   cfg.GitLab.Project,
			RepoDir:   cfg.Git.RepositoryDir,
			OutputDir: cfg.Output.Directory,
		},
		Version: version.Value(),
	})

	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, cli.ErrVersionRequested) {
			return nil
		}
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}

func defaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "patchlens"))
	}
	return paths
}

func openStore(path string) (*sqlite.Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}
	return sqlite.NewStore(path)
}

// app assembles the review pipeline per command invocation, so every run
// picks up the provider and analyzer the request actually asks for.
type app struct {
	cfg   config.Config
	store *sqlite.Store
}

// RunReview implements cli.ReviewRunner.
func (a *app) RunReview(ctx context.Context, req cli.ReviewRequest) (review.Result, error) {
	source, publisher, err := a.buildProvider(req)
	if err != nil {
		return review.Result{}, err
	}

	analyzer, metrics, err := a.buildAnalyzer()
	if err != nil {
		return review.Result{}, err
	}

	rules, err := config.LoadRules(req.RepoDir)
	if err != nil {
		return review.Result{}, err
	}

	deps := review.OrchestratorDeps{
		Source:    source,
		Analyzer:  analyzer,
		Writers:   a.buildWriters(),
		Publisher: publisher,
		Estimator: llm.NewEstimator(),
		Logger:    a.buildLogger(),
	}
	if a.store != nil {
		deps.Store = a.store
	}
	if a.cfg.Redaction.Enabled {
		deps.Redactor = redaction.NewEngine()
	}
	if a.cfg.Determinism.Enabled && a.cfg.Determinism.UseSeed {
		deps.Seeds = determinism.GenerateSeed
	}

	orchestrator := review.NewOrchestrator(deps)

	result, err := orchestrator.Run(ctx, review.Request{
		OutputDir:      req.OutputDir,
		DryRun:         req.DryRun,
		MaxConcurrency: a.cfg.Analysis.MaxConcurrency,
		Filters: review.FilterOptions{
			MaxPatchSize:       a.cfg.Analysis.MaxFileSize,
			MaxFiles:           a.cfg.Analysis.MaxFiles,
			IncludeExtensions:  a.cfg.Analysis.IncludeExtensions,
			ExcludeDirectories: a.cfg.Analysis.ExcludeDirectories,
			ExcludePaths:       rules.ExcludePaths,
		},
		Prompts: review.PromptOptions{
			Instructions: rules.Instructions,
			Categories:   rules.EnabledCategories(),
			TokenBudget:  a.cfg.Analysis.TokenBudget,
			MaxTokens:    a.cfg.LLM.OpenAI.MaxTokens,
		},
	})
	if err != nil {
		return review.Result{}, err
	}
	logLLMUsage(metrics)
	return result, nil
}

// logLLMUsage reports aggregate LLM call totals for the completed run.
func logLLMUsage(metrics *llmhttp.DefaultMetrics) {
	if metrics == nil {
		return
	}
	stats := metrics.GetStats()
	if stats.TotalRequests == 0 {
		return
	}
	log.Printf("llm usage: %d requests, %d tokens in, %d tokens out, %s elapsed, %d errors",
		stats.TotalRequests, stats.TotalTokensIn, stats.TotalTokensOut,
		stats.TotalDuration.Round(time.Millisecond), stats.ErrorCount)
}

// buildProvider returns the change source and, for hosted providers, the
// comment publisher. Local reviews have nowhere to publish to.
func (a *app) buildProvider(req cli.ReviewRequest) (review.ChangeSource, review.Publisher, error) {
	switch req.Provider {
	case "github":
		token := a.cfg.GitHub.Token
		if token == "" {
			token = os.Getenv("GITHUB_TOKEN")
		}
		if token == "" {
			return nil, nil, errors.New("github token missing: set github.token or GITHUB_TOKEN")
		}
		client := github.NewClient(token, req.Owner, req.Repo, req.Number)
		if a.cfg.GitHub.BaseURL != "" {
			if err := client.SetBaseURL(a.cfg.GitHub.BaseURL); err != nil {
				return nil, nil, fmt.Errorf("github base URL: %w", err)
			}
		}
		return client, a.publisherFor(client), nil

	case "gitlab":
		token := a.cfg.GitLab.Token
		if token == "" {
			token = os.Getenv("GITLAB_TOKEN")
		}
		if token == "" {
			return nil, nil, errors.New("gitlab token missing: set gitlab.token or GITLAB_TOKEN")
		}
		client := gitlab.NewClient(a.cfg.GitLab.URL, token, req.Project, req.Number)
		a.tuneGitLabClient(client)
		return client, a.publisherFor(client), nil

	default:
		return repository.NewSource(req.RepoDir, req.BaseRef, req.HeadRef, req.IncludeUncommitted), nil, nil
	}
}

func (a *app) publisherFor(poster report.CommentPoster) review.Publisher {
	return report.NewPublisher(poster, report.Options{
		Header:                   a.cfg.Reporting.CommentHeader,
		Footer:                   a.cfg.Reporting.CommentFooter,
		SummaryEnabled:           a.cfg.Reporting.SummaryEnabled,
		InlineCommentsEnabled:    a.cfg.Reporting.InlineCommentsEnabled,
		SeverityLevels:           a.cfg.Reporting.SeverityLevels,
		MaxInlineCommentsPerFile: a.cfg.Reporting.MaxInlineCommentsPerFile,
	})
}

// buildAnalyzer returns the configured analyzer and, when metrics collection
// is enabled, the collector its LLM client records into.
func (a *app) buildAnalyzer() (review.Analyzer, *llmhttp.DefaultMetrics, error) {
	switch a.cfg.LLM.Provider {
	case "", "openai":
		return a.buildOpenAIAnalyzer()
	case "static":
		return static.NewAnalyzer(a.cfg.LLM.OpenAI.Model), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown llm provider %q (expected openai or static)", a.cfg.LLM.Provider)
	}
}

func (a *app) buildOpenAIAnalyzer() (review.Analyzer, *llmhttp.DefaultMetrics, error) {
	cfg := a.cfg.LLM.OpenAI
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		log.Println("openai: no API key configured, falling back to the static analyzer")
		return static.NewAnalyzer(cfg.Model), nil, nil
	}

	var client *openai.HTTPClient
	if cfg.APIType == "azure" {
		if cfg.BaseURL == "" || cfg.Deployment == "" {
			return nil, nil, errors.New("azure openai requires llm.openai.baseURL and llm.openai.deployment")
		}
		client = openai.NewAzureHTTPClient(cfg.BaseURL, apiKey, cfg.Deployment, cfg.APIVersion)
	} else {
		client = openai.NewHTTPClient(apiKey, cfg.Model)
		if cfg.BaseURL != "" {
			client.SetBaseURL(cfg.BaseURL)
		}
	}
	a.tuneOpenAIClient(client)

	var metrics *llmhttp.DefaultMetrics
	if a.cfg.Observability.Metrics.Enabled {
		metrics = llmhttp.NewDefaultMetrics()
		client.SetMetrics(metrics)
	}

	temperature := cfg.Temperature
	if a.cfg.Determinism.Enabled {
		temperature = a.cfg.Determinism.Temperature
	}
	return openai.NewAnalyzer(cfg.Model, client, temperature), metrics, nil
}

func (a *app) tuneOpenAIClient(client *openai.HTTPClient) {
	if timeout, err := time.ParseDuration(a.cfg.HTTP.Timeout); err == nil {
		client.SetTimeout(timeout)
	}

	initial, errInitial := time.ParseDuration(a.cfg.HTTP.InitialBackoff)
	maxBackoff, errMax := time.ParseDuration(a.cfg.HTTP.MaxBackoff)
	if a.cfg.HTTP.MaxRetries > 0 && errInitial == nil && errMax == nil {
		client.SetRetryConfig(llmhttp.NewRetryConfig(
			a.cfg.HTTP.MaxRetries, initial, maxBackoff, a.cfg.HTTP.BackoffMultiplier))
	}
}

func (a *app) tuneGitLabClient(client *gitlab.Client) {
	if timeout, err := time.ParseDuration(a.cfg.HTTP.Timeout); err == nil {
		client.SetTimeout(timeout)
	}
	if a.cfg.HTTP.MaxRetries > 0 {
		client.SetMaxRetries(a.cfg.HTTP.MaxRetries)
	}
	if backoff, err := time.ParseDuration(a.cfg.HTTP.InitialBackoff); err == nil {
		client.SetInitialBackoff(backoff)
	}
}

// buildWriters maps the configured output formats onto report writers.
// Artifact filenames embed a UTC timestamp so repeat runs do not clobber
// each other.
func (a *app) buildWriters() []review.ReportWriter {
	nowFunc := func() string {
		return time.Now().UTC().Format("20060102T150405Z")
	}

	var writers []review.ReportWriter
	for _, format := range a.cfg.Output.Formats {
		switch strings.ToLower(format) {
		case "markdown", "md":
			writers = append(writers, markdown.NewWriter(nowFunc))
		case "json":
			writers = append(writers, jsonwriter.NewWriter(nowFunc))
		case "sarif":
			writers = append(writers, sarif.NewWriter(nowFunc))
		default:
			log.Printf("warning: unknown output format %q, skipping", format)
		}
	}
	return writers
}

func (a *app) buildLogger() review.Logger {
	logging := a.cfg.Observability.Logging
	if !logging.Enabled {
		return nil
	}
	base := llmhttp.NewDefaultLogger(
		llmhttp.ParseLogLevel(logging.Level),
		llmhttp.ParseLogFormat(logging.Format),
		logging.RedactAPIKeys,
	)
	return observability.NewReviewLogger(base)
}

// Compile-time interface compliance checks
var _ cli.ReviewRunner = (*app)(nil)
var _ cli.HistoryBrowser = (*sqlite.Store)(nil)
var _ review.ChangeSource = (*github.Client)(nil)
var _ review.ChangeSource = (*gitlab.Client)(nil)
var _ review.ChangeSource = (*repository.Source)(nil)
var _ review.Analyzer = (*openai.Analyzer)(nil)
var _ review.Analyzer = (*static.Analyzer)(nil)
var _ review.Publisher = (*report.Publisher)(nil)
var _ review.ReportWriter = (*markdown.Writer)(nil)
var _ review.ReportWriter = (*jsonwriter.Writer)(nil)
var _ review.ReportWriter = (*sarif.Writer)(nil)
var _ review.HistoryStore = (*sqlite.Store)(nil)
var _ review.Redactor = (*redaction.Engine)(nil)
var _ review.TokenEstimator = llm.Estimator{}
var _ report.CommentPoster = (*github.Client)(nil)
var _ report.CommentPoster = (*gitlab.Client)(nil)
