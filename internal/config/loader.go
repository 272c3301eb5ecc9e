package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// LoaderOptions describes how configuration should be discovered.
type LoaderOptions struct {
	ConfigPaths []string
	FileName    string
	EnvPrefix   string
}

// Load returns the merged configuration from files and environment variables.
func Load(opts LoaderOptions) (Config, error) {
	v := viper.New()

	name := opts.FileName
	if name == "" {
		name = "patchlens"
	}

	configFile := locateConfigFile(name, opts.ConfigPaths)
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(name)
	}

	prefix := opts.EnvPrefix
	if prefix == "" {
		prefix = "PATCHLENS"
	}
	v.SetEnvPrefix(prefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AllowEmptyEnv(true)

	setDefaults(v)

	if configFile != "" {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	// Expand environment variables in config values
	cfg = expandEnvVars(cfg)

	return cfg, nil
}

// expandEnvVars expands ${VAR} and $VAR syntax in configuration strings.
func expandEnvVars(cfg Config) Config {
	cfg.GitHub.Token = expandEnvString(cfg.GitHub.Token)
	cfg.GitHub.Owner = expandEnvString(cfg.GitHub.Owner)
	cfg.GitHub.Repo = expandEnvString(cfg.GitHub.Repo)
	cfg.GitHub.BaseURL = expandEnvString(cfg.GitHub.BaseURL)

	cfg.GitLab.URL = expandEnvString(cfg.GitLab.URL)
	cfg.GitLab.Token = expandEnvString(cfg.GitLab.Token)
	cfg.GitLab.Project = expandEnvString(cfg.GitLab.Project)

	cfg.LLM.OpenAI.APIKey = expandEnvString(cfg.LLM.OpenAI.APIKey)
	cfg.LLM.OpenAI.Model = expandEnvString(cfg.LLM.OpenAI.Model)
	cfg.LLM.OpenAI.BaseURL = expandEnvString(cfg.LLM.OpenAI.BaseURL)
	cfg.LLM.OpenAI.Deployment = expandEnvString(cfg.LLM.OpenAI.Deployment)
	cfg.LLM.OpenAI.APIVersion = expandEnvString(cfg.LLM.OpenAI.APIVersion)

	cfg.HTTP.Timeout = expandEnvString(cfg.HTTP.Timeout)
	cfg.HTTP.InitialBackoff = expandEnvString(cfg.HTTP.InitialBackoff)
	cfg.HTTP.MaxBackoff = expandEnvString(cfg.HTTP.MaxBackoff)

	cfg.Analysis.IncludeExtensions = expandEnvStringSlice(cfg.Analysis.IncludeExtensions)
	cfg.Analysis.ExcludeDirectories = expandEnvStringSlice(cfg.Analysis.ExcludeDirectories)

	cfg.Git.RepositoryDir = expandEnvString(cfg.Git.RepositoryDir)
	cfg.Output.Directory = expandEnvString(cfg.Output.Directory)
	cfg.Store.Path = expandEnvString(cfg.Store.Path)

	cfg.Observability.Logging.Level = expandEnvString(cfg.Observability.Logging.Level)
	cfg.Observability.Logging.Format = expandEnvString(cfg.Observability.Logging.Format)

	return cfg
}

// expandEnvString replaces ${VAR} or $VAR with environment variable values.
func expandEnvString(s string) string {
	if s == "" {
		return s
	}

	// Replace ${VAR} syntax
	re := regexp.MustCompile(`\$\{([A-Z_][A-Z0-9_]*)\}`)
	s = re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1] // Remove ${ and }
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // Keep original if not found
	})

	// Replace $VAR syntax (without braces)
	re = regexp.MustCompile(`\$([A-Z_][A-Z0-9_]*)`)
	s = re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[1:] // Remove $
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // Keep original if not found
	})

	return s
}

// expandEnvStringSlice expands environment variables in a slice of strings.
func expandEnvStringSlice(slice []string) []string {
	if len(slice) == 0 {
		return slice
	}
	result := make([]string, len(slice))
	for i, s := range slice {
		result[i] = expandEnvString(s)
	}
	return result
}

func locateConfigFile(name string, paths []string) string {
	searchPaths := append([]string{}, paths...)
	searchPaths = append(searchPaths, ".")
	for _, dir := range searchPaths {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, name+".yaml")
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", "local")

	// GitLab defaults
	v.SetDefault("gitlab.url", "https://gitlab.com")

	// LLM defaults
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.openai.model", "gpt-4")
	v.SetDefault("llm.openai.apiType", "openai")
	v.SetDefault("llm.openai.apiVersion", "2024-02-15-preview")
	v.SetDefault("llm.openai.temperature", 0.3)
	v.SetDefault("llm.openai.maxTokens", 2000)

	// HTTP defaults
	v.SetDefault("http.timeout", "60s")
	v.SetDefault("http.maxRetries", 5)
	v.SetDefault("http.initialBackoff", "2s")
	v.SetDefault("http.maxBackoff", "32s")
	v.SetDefault("http.backoffMultiplier", 2.0)

	// Analysis defaults
	v.SetDefault("analysis.maxFileSize", 100000)
	v.SetDefault("analysis.maxFiles", 50)
	v.SetDefault("analysis.includeExtensions", []string{".go", ".py", ".js", ".ts", ".java", ".cs"})
	v.SetDefault("analysis.excludeDirectories", []string{"node_modules", "vendor", "venv", "env", "dist", "build"})
	v.SetDefault("analysis.maxConcurrency", 4)
	v.SetDefault("analysis.tokenBudget", 4000)

	// Reporting defaults
	v.SetDefault("reporting.summaryEnabled", true)
	v.SetDefault("reporting.inlineCommentsEnabled", true)
	v.SetDefault("reporting.severityLevels", []string{"critical", "high", "medium", "low"})
	v.SetDefault("reporting.maxInlineCommentsPerFile", 10)
	v.SetDefault("reporting.commentHeader", "🤖 AI Code Review")
	v.SetDefault("reporting.commentFooter", "Powered by PatchLens")

	// Output defaults
	v.SetDefault("output.directory", "out")
	v.SetDefault("output.formats", []string{"markdown", "json"})

	// Redaction defaults
	v.SetDefault("redaction.enabled", true)

	// Determinism defaults
	v.SetDefault("determinism.enabled", true)
	v.SetDefault("determinism.temperature", 0.0)
	v.SetDefault("determinism.useSeed", true)

	// Store defaults
	v.SetDefault("store.enabled", true)
	v.SetDefault("store.path", defaultStorePath())

	// Observability defaults
	v.SetDefault("observability.logging.enabled", true)
	v.SetDefault("observability.logging.level", "info")
	v.SetDefault("observability.logging.format", "human")
	v.SetDefault("observability.logging.redactAPIKeys", true)
	v.SetDefault("observability.metrics.enabled", true)
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./reviews.db"
	}
	return filepath.Join(home, ".config", "patchlens", "reviews.db")
}
