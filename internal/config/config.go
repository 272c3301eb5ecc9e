package config

// Config represents the full application configuration.
type Config struct {
	Provider      string              `yaml:"provider"`
	GitHub        GitHubConfig        `yaml:"github"`
	GitLab        GitLabConfig        `yaml:"gitlab"`
	LLM           LLMConfig           `yaml:"llm"`
	HTTP          HTTPConfig          `yaml:"http"`
	Analysis      AnalysisConfig      `yaml:"analysis"`
	Reporting     ReportingConfig     `yaml:"reporting"`
	Git           GitConfig           `yaml:"git"`
	Output        OutputConfig        `yaml:"output"`
	Redaction     RedactionConfig     `yaml:"redaction"`
	Determinism   DeterminismConfig   `yaml:"determinism"`
	Store         StoreConfig         `yaml:"store"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// GitHubConfig configures the GitHub change source and comment publisher.
type GitHubConfig struct {
	Token   string `yaml:"token"`
	Owner   string `yaml:"owner"`
	Repo    string `yaml:"repo"`
	BaseURL string `yaml:"baseURL"`
}

// GitLabConfig configures the GitLab change source and comment publisher.
type GitLabConfig struct {
	URL     string `yaml:"url"`
	Token   string `yaml:"token"`
	Project string `yaml:"project"`
}

// LLMConfig selects and configures the analysis backend.
type LLMConfig struct {
	Provider string       `yaml:"provider"`
	OpenAI   OpenAIConfig `yaml:"openai"`
}

// OpenAIConfig covers both the public OpenAI API and Azure OpenAI
// deployments. APIType selects the authentication and URL scheme.
type OpenAIConfig struct {
	APIKey      string  `yaml:"apiKey"`
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"baseURL"`
	APIType     string  `yaml:"apiType"` // "openai" or "azure"
	Deployment  string  `yaml:"deployment"`
	APIVersion  string  `yaml:"apiVersion"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"maxTokens"`
}

// HTTPConfig holds global HTTP client settings.
type HTTPConfig struct {
	Timeout           string  `yaml:"timeout"`
	MaxRetries        int     `yaml:"maxRetries"`
	InitialBackoff    string  `yaml:"initialBackoff"`
	MaxBackoff        string  `yaml:"maxBackoff"`
	BackoffMultiplier float64 `yaml:"backoffMultiplier"`
}

// AnalysisConfig bounds which files are analyzed and how.
type AnalysisConfig struct {
	MaxFileSize        int      `yaml:"maxFileSize"`
	MaxFiles           int      `yaml:"maxFiles"`
	IncludeExtensions  []string `yaml:"includeExtensions"`
	ExcludeDirectories []string `yaml:"excludeDirectories"`
	MaxConcurrency     int      `yaml:"maxConcurrency"`
	TokenBudget        int      `yaml:"tokenBudget"`
}

// ReportingConfig controls what gets posted back to the change request.
type ReportingConfig struct {
	SummaryEnabled           bool     `yaml:"summaryEnabled"`
	InlineCommentsEnabled    bool     `yaml:"inlineCommentsEnabled"`
	SeverityLevels           []string `yaml:"severityLevels"`
	MaxInlineCommentsPerFile int      `yaml:"maxInlineCommentsPerFile"`
	CommentHeader            string   `yaml:"commentHeader"`
	CommentFooter            string   `yaml:"commentFooter"`
}

type GitConfig struct {
	RepositoryDir string `yaml:"repositoryDir"`
}

type OutputConfig struct {
	Directory string   `yaml:"directory"`
	Formats   []string `yaml:"formats"`
}

type RedactionConfig struct {
	Enabled bool `yaml:"enabled"`
}

type DeterminismConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Temperature float64 `yaml:"temperature"`
	UseSeed     bool    `yaml:"useSeed"`
}

// StoreConfig configures the persistence layer.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ObservabilityConfig configures logging and metrics.
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures request/response logging.
type LoggingConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Level         string `yaml:"level"`  // debug, info, error
	Format        string `yaml:"format"` // json, human
	RedactAPIKeys bool   `yaml:"redactAPIKeys"`
}

// MetricsConfig configures performance metrics tracking.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Merge combines multiple configuration instances, prioritising the latter ones.
func Merge(configs ...Config) Config {
	result := Config{}
	for _, cfg := range configs {
		result = merge(result, cfg)
	}
	return result
}

func merge(base, overlay Config) Config {
	result := base

	if overlay.Provider != "" {
		result.Provider = overlay.Provider
	}
	result.GitHub = chooseGitHub(base.GitHub, overlay.GitHub)
	result.GitLab = chooseGitLab(base.GitLab, overlay.GitLab)
	result.LLM = chooseLLM(base.LLM, overlay.LLM)
	result.HTTP = chooseHTTP(base.HTTP, overlay.HTTP)
	result.Analysis = chooseAnalysis(base.Analysis, overlay.Analysis)
	result.Reporting = chooseReporting(base.Reporting, overlay.Reporting)
	result.Git = chooseGit(base.Git, overlay.Git)
	result.Output = chooseOutput(base.Output, overlay.Output)
	result.Redaction = chooseRedaction(base.Redaction, overlay.Redaction)
	result.Determinism = chooseDeterminism(base.Determinism, overlay.Determinism)
	result.Store = chooseStore(base.Store, overlay.Store)
	result.Observability = chooseObservability(base.Observability, overlay.Observability)

	return result
}

func chooseGitHub(base, overlay GitHubConfig) GitHubConfig {
	result := base
	if overlay.Token != "" {
		result.Token = overlay.Token
	}
	if overlay.Owner != "" {
		result.Owner = overlay.Owner
	}
	if overlay.Repo != "" {
		result.Repo = overlay.Repo
	}
	if overlay.BaseURL != "" {
		result.BaseURL = overlay.BaseURL
	}
	return result
}

func chooseGitLab(base, overlay GitLabConfig) GitLabConfig {
	result := base
	if overlay.URL != "" {
		result.URL = overlay.URL
	}
	if overlay.Token != "" {
		result.Token = overlay.Token
	}
	if overlay.Project != "" {
		result.Project = overlay.Project
	}
	return result
}

func chooseLLM(base, overlay LLMConfig) LLMConfig {
	result := base
	if overlay.Provider != "" {
		result.Provider = overlay.Provider
	}
	result.OpenAI = chooseOpenAI(base.OpenAI, overlay.OpenAI)
	return result
}

func chooseOpenAI(base, overlay OpenAIConfig) OpenAIConfig {
	result := base
	if overlay.APIKey != "" {
		result.APIKey = overlay.APIKey
	}
	if overlay.Model != "" {
		result.Model = overlay.Model
	}
	if overlay.BaseURL != "" {
		result.BaseURL = overlay.BaseURL
	}
	if overlay.APIType != "" {
		result.APIType = overlay.APIType
	}
	if overlay.Deployment != "" {
		result.Deployment = overlay.Deployment
	}
	if overlay.APIVersion != "" {
		result.APIVersion = overlay.APIVersion
	}
	if overlay.Temperature != 0 {
		result.Temperature = overlay.Temperature
	}
	if overlay.MaxTokens != 0 {
		result.MaxTokens = overlay.MaxTokens
	}
	return result
}

func chooseHTTP(base, overlay HTTPConfig) HTTPConfig {
	if overlay.Timeout != "" || overlay.MaxRetries != 0 || overlay.InitialBackoff != "" || overlay.MaxBackoff != "" || overlay.BackoffMultiplier != 0 {
		return overlay
	}
	return base
}

func chooseAnalysis(base, overlay AnalysisConfig) AnalysisConfig {
	result := base
	if overlay.MaxFileSize != 0 {
		result.MaxFileSize = overlay.MaxFileSize
	}
	if overlay.MaxFiles != 0 {
		result.MaxFiles = overlay.MaxFiles
	}
	if len(overlay.IncludeExtensions) > 0 {
		result.IncludeExtensions = overlay.IncludeExtensions
	}
	if len(overlay.ExcludeDirectories) > 0 {
		result.ExcludeDirectories = overlay.ExcludeDirectories
	}
	if overlay.MaxConcurrency != 0 {
		result.MaxConcurrency = overlay.MaxConcurrency
	}
	if overlay.TokenBudget != 0 {
		result.TokenBudget = overlay.TokenBudget
	}
	return result
}

func chooseReporting(base, overlay ReportingConfig) ReportingConfig {
	result := base
	if overlay.SummaryEnabled {
		result.SummaryEnabled = true
	}
	if overlay.InlineCommentsEnabled {
		result.InlineCommentsEnabled = true
	}
	if len(overlay.SeverityLevels) > 0 {
		result.SeverityLevels = overlay.SeverityLevels
	}
	if overlay.MaxInlineCommentsPerFile != 0 {
		result.MaxInlineCommentsPerFile = overlay.MaxInlineCommentsPerFile
	}
	if overlay.CommentHeader != "" {
		result.CommentHeader = overlay.CommentHeader
	}
	if overlay.CommentFooter != "" {
		result.CommentFooter = overlay.CommentFooter
	}
	return result
}

func chooseGit(base, overlay GitConfig) GitConfig {
	if overlay.RepositoryDir != "" {
		return overlay
	}
	return base
}

func chooseOutput(base, overlay OutputConfig) OutputConfig {
	result := base
	if overlay.Directory != "" {
		result.Directory = overlay.Directory
	}
	if len(overlay.Formats) > 0 {
		result.Formats = overlay.Formats
	}
	return result
}

func chooseRedaction(base, overlay RedactionConfig) RedactionConfig {
	if overlay.Enabled {
		return overlay
	}
	return base
}

func chooseDeterminism(base, overlay DeterminismConfig) DeterminismConfig {
	if overlay.Enabled || overlay.Temperature != 0 || overlay.UseSeed {
		return overlay
	}
	return base
}

func chooseStore(base, overlay StoreConfig) StoreConfig {
	if overlay.Enabled || overlay.Path != "" {
		return overlay
	}
	return base
}

func chooseObservability(base, overlay ObservabilityConfig) ObservabilityConfig {
	result := base

	if overlay.Logging.Enabled || overlay.Logging.Level != "" || overlay.Logging.Format != "" {
		result.Logging = overlay.Logging
	}
	if overlay.Metrics.Enabled {
		result.Metrics = overlay.Metrics
	}

	return result
}
