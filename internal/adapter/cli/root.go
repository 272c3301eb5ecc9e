// Package cli wires the cobra command tree for the patchlens binary.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/patchlens/patchlens/internal/adapter/store/sqlite"
	"github.com/patchlens/patchlens/internal/domain"
	"github.com/patchlens/patchlens/internal/usecase/review"
)

// ErrVersionRequested signals that execution stopped because the user asked
// for the version string rather than a review.
var ErrVersionRequested = errors.New("version requested")

const topIssueLimit = 5

// ReviewRequest carries everything the review command collected from flags
// and configuration defaults.
type ReviewRequest struct {
	Provider           string
	Owner              string
	Repo               string
	Project            string
	Number             int
	RepoDir            string
	BaseRef            string
	HeadRef            string
	IncludeUncommitted bool
	OutputDir          string
	DryRun             bool
}

// ReviewRunner executes a full review for the request assembled by the CLI.
type ReviewRunner interface {
	RunReview(ctx context.Context, req ReviewRequest) (review.Result, error)
}

// HistoryBrowser reads past review runs from the history store.
type HistoryBrowser interface {
	ListRuns(ctx context.Context, limit int) ([]sqlite.RunRecord, error)
	GetRunIssues(ctx context.Context, runID string) ([]domain.Issue, error)
}

// Arguments holds the writers command output is directed to. Nil writers
// fall back to the standard streams.
type Arguments struct {
	OutWriter io.Writer
	ErrWriter io.Writer
}

// Defaults are the configuration-derived fallbacks for flags the user did
// not pass explicitly.
type Defaults struct {
	Provider  string
	Owner     string
	Repo      string
	Project   string
	BaseRef   string
	HeadRef   string
	RepoDir   string
	OutputDir string
}

func (d Defaults) withFallbacks() Defaults {
	if d.Provider == "" {
		d.Provider = "local"
	}
	if d.BaseRef == "" {
		d.BaseRef = "main"
	}
	if d.RepoDir == "" {
		d.RepoDir = "."
	}
	if d.OutputDir == "" {
		d.OutputDir = "out"
	}
	return d
}

// Dependencies bundles everything the command tree needs to run.
type Dependencies struct {
	Runner   ReviewRunner
	History  HistoryBrowser
	Args     Arguments
	Defaults Defaults
	Version  string
}

// NewRootCommand builds the patchlens root command with the review and
// history subcommands attached.
func NewRootCommand(deps Dependencies) *cobra.Command {
	version := deps.Version
	if version == "" {
		version = "v0.0.0"
	}

	var showVersion bool

	root := &cobra.Command{
		Use:           "patchlens",
		Short:         "LLM-assisted code review for pull requests, merge requests, and local diffs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return versionHandler(cmd, showVersion, version)
		},
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return versionHandler(cmd, showVersion, version)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := versionHandler(cmd, showVersion, version); err != nil {
				return err
			}
			return cmd.Help()
		},
	}

	out := deps.Args.OutWriter
	if out == nil {
		out = os.Stdout
	}
	errOut := deps.Args.ErrWriter
	if errOut == nil {
		errOut = os.Stderr
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "Print the version and exit")

	root.AddCommand(reviewCommand(deps.Runner, deps.Defaults.withFallbacks()))
	root.AddCommand(historyCommand(deps.History))

	return root
}

func versionHandler(cmd *cobra.Command, showVersion bool, version string) error {
	if !showVersion {
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), version)
	return ErrVersionRequested
}

func reviewCommand(runner ReviewRunner, defaults Defaults) *cobra.Command {
	var (
		provider           string
		owner              string
		repo               string
		project            string
		number             int
		repoDir            string
		baseRef            string
		headRef            string
		includeUncommitted bool
		outputDir          string
		dryRun             bool
	)

	cmd := &cobra.Command{
		Use:   "review",
		Short: "Review a change and write report artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			provider = strings.ToLower(strings.TrimSpace(provider))
			switch provider {
			case "github":
				if owner == "" || repo == "" {
					return errors.New("--owner and --repo are required with the github provider")
				}
				if number <= 0 {
					return errors.New("--number must be a positive integer with the github provider")
				}
			case "gitlab":
				if project == "" {
					return errors.New("--project is required with the gitlab provider")
				}
				if number <= 0 {
					return errors.New("--number must be a positive integer with the gitlab provider")
				}
			case "local":
			default:
				return fmt.Errorf("unknown provider %q (expected github, gitlab, or local)", provider)
			}

			result, err := runner.RunReview(cmd.Context(), ReviewRequest{
				Provider:           provider,
				Owner:              owner,
				Repo:               repo,
				Project:            project,
				Number:             number,
				RepoDir:            repoDir,
				BaseRef:            baseRef,
				HeadRef:            headRef,
				IncludeUncommitted: includeUncommitted,
				OutputDir:          outputDir,
				DryRun:             dryRun,
			})
			if err != nil {
				return err
			}

			printSummary(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().StringVar(&provider, "provider", defaults.Provider, "Change source: github, gitlab, or local")
	cmd.Flags().StringVar(&owner, "owner", defaults.Owner, "GitHub repository owner")
	cmd.Flags().StringVar(&repo, "repo", defaults.Repo, "GitHub repository name")
	cmd.Flags().StringVar(&project, "project", defaults.Project, "GitLab project path or numeric ID")
	cmd.Flags().IntVarP(&number, "number", "n", 0, "Pull or merge request number")
	cmd.Flags().StringVar(&repoDir, "repo-dir", defaults.RepoDir, "Local repository directory")
	cmd.Flags().StringVar(&baseRef, "base", defaults.BaseRef, "Base reference to diff against")
	cmd.Flags().StringVar(&headRef, "head", defaults.HeadRef, "Head reference to review (defaults to HEAD)")
	cmd.Flags().BoolVar(&includeUncommitted, "include-uncommitted", false, "Include uncommitted working tree changes (local provider only)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", defaults.OutputDir, "Directory review artifacts are written to")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Analyze and write artifacts without publishing comments")

	return cmd
}

func printSummary(out io.Writer, result review.Result) {
	report := result.Report
	fmt.Fprintf(out, "Analyzed %d of %d files: %d issue(s), average score %.1f/10\n",
		report.AnalyzedFiles, report.TotalFiles, report.Stats.TotalIssues, report.Stats.AverageScore)

	if review.IsOutputTerminal() {
		for _, issue := range domain.TopIssues(report.Analyses, topIssueLimit) {
			fmt.Fprintf(out, "  [%s] %s\n", issue.Severity, issueLine(issue))
		}
	}

	formats := make([]string, 0, len(result.ArtifactPaths))
	for format := range result.ArtifactPaths {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	for _, format := range formats {
		fmt.Fprintf(out, "%s artifact: %s\n", format, result.ArtifactPaths[format])
	}
}

func historyCommand(browser HistoryBrowser) *cobra.Command {
	var (
		limit int
		runID string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent review runs from the history store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if browser == nil {
				return errors.New("history store is disabled; enable store.enabled in patchlens.yaml")
			}
			if runID != "" {
				return printRunIssues(cmd.Context(), cmd.OutOrStdout(), browser, runID)
			}
			return printRuns(cmd.Context(), cmd.OutOrStdout(), browser, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of runs to show")
	cmd.Flags().StringVar(&runID, "run", "", "Show the issues recorded for a single run")

	return cmd
}

func printRuns(ctx context.Context, out io.Writer, browser HistoryBrowser, limit int) error {
	runs, err := browser.ListRuns(ctx, limit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No review runs recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tWHEN\tCHANGE\tANALYZER\tISSUES\tSCORE")
	for _, run := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%.1f\n",
			run.RunID,
			run.CreatedAt.UTC().Format("2006-01-02 15:04"),
			changeRef(run),
			run.Analyzer,
			run.TotalIssues,
			run.AverageScore,
		)
	}
	return tw.Flush()
}

func changeRef(run sqlite.RunRecord) string {
	if run.ChangeNumber > 0 {
		return fmt.Sprintf("%s#%d", run.Repository, run.ChangeNumber)
	}
	return run.Repository
}

func printRunIssues(ctx context.Context, out io.Writer, browser HistoryBrowser, runID string) error {
	issues, err := browser.GetRunIssues(ctx, runID)
	if err != nil {
		return fmt.Errorf("load issues for %s: %w", runID, err)
	}
	if len(issues) == 0 {
		fmt.Fprintf(out, "No issues recorded for %s.\n", runID)
		return nil
	}
	for _, issue := range issues {
		fmt.Fprintf(out, "[%s] %s\n", issue.Severity, issueLine(issue))
	}
	return nil
}

func issueLine(issue domain.Issue) string {
	location := issue.File
	if issue.Line > 0 {
		location = fmt.Sprintf("%s:%d", issue.File, issue.Line)
	}
	if issue.Description == "" {
		return location
	}
	return fmt.Sprintf("%s: %s", location, issue.Description)
}
