package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/patchlens/patchlens/internal/config"
)

func TestMergePrioritizesLaterConfigs(t *testing.T) {
	base := config.Config{
		Output: config.OutputConfig{Directory: "default"},
	}
	file := config.Config{
		Output: config.OutputConfig{Directory: "file"},
	}
	final := config.Config{
		Output: config.OutputConfig{Directory: "env"},
	}

	merged := config.Merge(base, file, final)

	if merged.Output.Directory != "env" {
		t.Fatalf("expected env directory to win, got %s", merged.Output.Directory)
	}
}

func TestMergePreservesBaseForEmptyOverlay(t *testing.T) {
	base := config.Config{
		Provider: "github",
		GitHub: config.GitHubConfig{
			Token: "base-token",
			Owner: "acme",
			Repo:  "widgets",
		},
		LLM: config.LLMConfig{
			Provider: "openai",
			OpenAI:   config.OpenAIConfig{Model: "gpt-4", Temperature: 0.3},
		},
	}
	overlay := config.Config{
		GitHub: config.GitHubConfig{Token: "overlay-token"},
	}

	merged := config.Merge(base, overlay)

	if merged.Provider != "github" {
		t.Errorf("expected provider preserved, got %s", merged.Provider)
	}
	if merged.GitHub.Token != "overlay-token" {
		t.Errorf("expected overlay token, got %s", merged.GitHub.Token)
	}
	if merged.GitHub.Owner != "acme" || merged.GitHub.Repo != "widgets" {
		t.Errorf("expected base owner/repo preserved, got %s/%s", merged.GitHub.Owner, merged.GitHub.Repo)
	}
	if merged.LLM.OpenAI.Model != "gpt-4" {
		t.Errorf("expected base model preserved, got %s", merged.LLM.OpenAI.Model)
	}
}

func TestLoadReadsFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "patchlens.yaml")
	if err := os.WriteFile(file, []byte("output:\n  directory: file\n"), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv("PATCHLENS_OUTPUT_DIRECTORY", "env")

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: []string{dir},
		FileName:    "patchlens",
		EnvPrefix:   "PATCHLENS",
	})
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}

	if cfg.Output.Directory != "env" {
		t.Fatalf("expected env override, got %s", cfg.Output.Directory)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: []string{},
		FileName:    "nonexistent",
		EnvPrefix:   "PATCHLENS",
	})
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}

	if cfg.Provider != "local" {
		t.Errorf("expected default provider 'local', got %s", cfg.Provider)
	}
	if cfg.LLM.Provider != "openai" {
		t.Errorf("expected default llm provider 'openai', got %s", cfg.LLM.Provider)
	}
	if cfg.LLM.OpenAI.Model != "gpt-4" {
		t.Errorf("expected default model 'gpt-4', got %s", cfg.LLM.OpenAI.Model)
	}
	if cfg.LLM.OpenAI.MaxTokens != 2000 {
		t.Errorf("expected default max tokens 2000, got %d", cfg.LLM.OpenAI.MaxTokens)
	}
	if cfg.Analysis.MaxFileSize != 100000 {
		t.Errorf("expected default max file size 100000, got %d", cfg.Analysis.MaxFileSize)
	}
	if cfg.Analysis.MaxFiles != 50 {
		t.Errorf("expected default max files 50, got %d", cfg.Analysis.MaxFiles)
	}
	if cfg.Analysis.MaxConcurrency != 4 {
		t.Errorf("expected default concurrency 4, got %d", cfg.Analysis.MaxConcurrency)
	}
	if len(cfg.Analysis.IncludeExtensions) == 0 {
		t.Error("expected default include extensions")
	}
	if cfg.GitLab.URL != "https://gitlab.com" {
		t.Errorf("expected default gitlab url, got %s", cfg.GitLab.URL)
	}
	if !cfg.Reporting.SummaryEnabled || !cfg.Reporting.InlineCommentsEnabled {
		t.Error("expected reporting enabled by default")
	}
	if cfg.Reporting.MaxInlineCommentsPerFile != 10 {
		t.Errorf("expected default inline cap 10, got %d", cfg.Reporting.MaxInlineCommentsPerFile)
	}
	if cfg.Reporting.CommentHeader != "🤖 AI Code Review" {
		t.Errorf("unexpected default comment header %q", cfg.Reporting.CommentHeader)
	}
	if !cfg.Redaction.Enabled {
		t.Error("expected redaction enabled by default")
	}
	if !cfg.Determinism.Enabled || !cfg.Determinism.UseSeed {
		t.Error("expected determinism defaults enabled")
	}
	if !cfg.Store.Enabled || cfg.Store.Path == "" {
		t.Error("expected store enabled with a default path")
	}
	if !cfg.Observability.Logging.Enabled || cfg.Observability.Logging.Level != "info" {
		t.Error("expected default logging enabled at info")
	}
}

func TestLoadAnalysisFromFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "patchlens.yaml")
	content := `provider: gitlab
gitlab:
  url: https://gitlab.example.com
  project: group/project
analysis:
  maxFiles: 5
  includeExtensions: [".go"]
llm:
  openai:
    apiType: azure
    deployment: gpt4-review
`
	if err := os.WriteFile(file, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: []string{dir},
		FileName:    "patchlens",
		EnvPrefix:   "PATCHLENS",
	})
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}

	if cfg.Provider != "gitlab" {
		t.Errorf("expected provider gitlab, got %s", cfg.Provider)
	}
	if cfg.GitLab.URL != "https://gitlab.example.com" {
		t.Errorf("expected gitlab url from file, got %s", cfg.GitLab.URL)
	}
	if cfg.GitLab.Project != "group/project" {
		t.Errorf("expected gitlab project from file, got %s", cfg.GitLab.Project)
	}
	if cfg.Analysis.MaxFiles != 5 {
		t.Errorf("expected max files 5, got %d", cfg.Analysis.MaxFiles)
	}
	if len(cfg.Analysis.IncludeExtensions) != 1 || cfg.Analysis.IncludeExtensions[0] != ".go" {
		t.Errorf("expected single .go extension, got %v", cfg.Analysis.IncludeExtensions)
	}
	if cfg.LLM.OpenAI.APIType != "azure" || cfg.LLM.OpenAI.Deployment != "gpt4-review" {
		t.Errorf("expected azure deployment from file, got %s/%s", cfg.LLM.OpenAI.APIType, cfg.LLM.OpenAI.Deployment)
	}

	// Defaults survive for settings the file never mentions.
	if cfg.Analysis.MaxFileSize != 100000 {
		t.Errorf("expected default max file size preserved, got %d", cfg.Analysis.MaxFileSize)
	}
	if cfg.LLM.OpenAI.Model != "gpt-4" {
		t.Errorf("expected default model preserved, got %s", cfg.LLM.OpenAI.Model)
	}
}

func TestLoadExpandsEnvInFileValues(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "patchlens.yaml")
	content := "github:\n  token: ${TEST_GH_TOKEN}\n"
	if err := os.WriteFile(file, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv("TEST_GH_TOKEN", "ghp_expanded")

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: []string{dir},
		FileName:    "patchlens",
		EnvPrefix:   "PATCHLENS",
	})
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}

	if cfg.GitHub.Token != "ghp_expanded" {
		t.Fatalf("expected expanded token, got %s", cfg.GitHub.Token)
	}
}
