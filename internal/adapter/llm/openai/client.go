package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	llmhttp "github.com/patchlens/patchlens/internal/adapter/llm/http"
)

const (
	defaultBaseURL    = "https://api.openai.com"
	defaultTimeout    = 60 * time.Second
	defaultAPIVersion = "2024-02-15-preview"
)

// HTTPClient is an HTTP client for the OpenAI Chat Completions API. It
// also speaks the Azure OpenAI dialect: deployment-scoped URL with an
// api-version query parameter and api-key header authentication.
type HTTPClient struct {
	apiKey     string
	model      string
	baseURL    string
	timeout    time.Duration
	client     *http.Client
	retry      llmhttp.RetryConfig
	metrics    llmhttp.Metrics
	azure      bool
	deployment string
	apiVersion string
}

// NewHTTPClient creates a client for the public OpenAI API.
func NewHTTPClient(apiKey, model string) *HTTPClient {
	return &HTTPClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
		timeout: defaultTimeout,
		client:  &http.Client{Timeout: defaultTimeout},
		retry:   llmhttp.DefaultRetryConfig(),
	}
}

// NewAzureHTTPClient creates a client for an Azure OpenAI deployment.
// endpoint is the resource URL (https://<resource>.openai.azure.com);
// an empty apiVersion selects the current default.
func NewAzureHTTPClient(endpoint, apiKey, deployment, apiVersion string) *HTTPClient {
	if apiVersion == "" {
		apiVersion = defaultAPIVersion
	}
	return &HTTPClient{
		apiKey:     apiKey,
		model:      deployment,
		baseURL:    endpoint,
		timeout:    defaultTimeout,
		client:     &http.Client{Timeout: defaultTimeout},
		retry:      llmhttp.DefaultRetryConfig(),
		azure:      true,
		deployment: deployment,
		apiVersion: apiVersion,
	}
}

// SetBaseURL sets a custom base URL (for testing).
func (c *HTTPClient) SetBaseURL(url string) {
	c.baseURL = url
}

// SetTimeout sets the HTTP timeout.
func (c *HTTPClient) SetTimeout(timeout time.Duration) {
	c.timeout = timeout
	c.client.Timeout = timeout
}

// SetRetryConfig overrides the default retry behaviour.
func (c *HTTPClient) SetRetryConfig(config llmhttp.RetryConfig) {
	c.retry = config
}

// SetMetrics attaches a collector that records every call's outcome.
func (c *HTTPClient) SetMetrics(metrics llmhttp.Metrics) {
	c.metrics = metrics
}

// CallOptions contains options for a single API call.
type CallOptions struct {
	SystemPrompt string
	Temperature  float64
	Seed         *uint64
	MaxTokens    int
}

// APIResponse represents the parsed response from the API.
type APIResponse struct {
	Text         string
	TokensIn     int
	TokensOut    int
	Model        string
	FinishReason string
}

// Call makes a request to the Chat Completions API with retry on
// transient failures.
func (c *HTTPClient) Call(ctx context.Context, prompt string, options CallOptions) (*APIResponse, error) {
	reqBody := ChatCompletionRequest{
		Messages: []Message{
			{Role: "system", Content: options.SystemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: options.Temperature,
		Seed:        options.Seed,
		MaxTokens:   options.MaxTokens,
	}
	if !c.azure {
		reqBody.Model = c.model
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var response *APIResponse
	operation := func(ctx context.Context) error {
		c.recordRequest()
		started := time.Now()
		defer func() { c.recordDuration(started) }()

		// The request is rebuilt per attempt; its body reader is
		// consumed by each send.
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(jsonData))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.azure {
			req.Header.Set("api-key", c.apiKey)
		} else {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() == context.DeadlineExceeded {
				return llmhttp.NewTimeoutError(c.provider(), "request timed out")
			}
			return llmhttp.NewTimeoutError(c.provider(), err.Error())
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			return c.handleErrorResponse(resp.StatusCode, body)
		}

		var chatResp ChatCompletionResponse
		if err := json.Unmarshal(body, &chatResp); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}

		if len(chatResp.Choices) == 0 {
			return fmt.Errorf("no choices in response")
		}

		response = &APIResponse{
			Text:         chatResp.Choices[0].Message.Content,
			TokensIn:     chatResp.Usage.PromptTokens,
			TokensOut:    chatResp.Usage.CompletionTokens,
			Model:        chatResp.Model,
			FinishReason: chatResp.Choices[0].FinishReason,
		}
		c.recordTokens(response.TokensIn, response.TokensOut)
		return nil
	}

	if err := llmhttp.RetryWithBackoff(ctx, operation, c.retry); err != nil {
		c.recordError(err)
		return nil, err
	}

	return response, nil
}

func (c *HTTPClient) endpoint() string {
	base := strings.TrimSuffix(c.baseURL, "/")
	if c.azure {
		return fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
			base, c.deployment, c.apiVersion)
	}
	return base + "/v1/chat/completions"
}

func (c *HTTPClient) provider() string {
	if c.azure {
		return "azure"
	}
	return "openai"
}

func (c *HTTPClient) recordRequest() {
	if c.metrics != nil {
		c.metrics.RecordRequest(c.provider(), c.model)
	}
}

func (c *HTTPClient) recordDuration(started time.Time) {
	if c.metrics != nil {
		c.metrics.RecordDuration(c.provider(), c.model, time.Since(started))
	}
}

func (c *HTTPClient) recordTokens(tokensIn, tokensOut int) {
	if c.metrics != nil {
		c.metrics.RecordTokens(c.provider(), c.model, tokensIn, tokensOut)
	}
}

// recordError attributes a failed call to its error type. Retries are
// rolled up into one error per call.
func (c *HTTPClient) recordError(err error) {
	if c.metrics == nil {
		return
	}
	errType := llmhttp.ErrTypeUnknown
	var httpErr *llmhttp.Error
	if errors.As(err, &httpErr) {
		errType = httpErr.Type
	}
	c.metrics.RecordError(c.provider(), c.model, errType)
}

// handleErrorResponse converts HTTP error responses to typed errors.
func (c *HTTPClient) handleErrorResponse(statusCode int, body []byte) error {
	message := fmt.Sprintf("HTTP %d", statusCode)
	code := ""

	// Prefer the API's error message when the body parses.
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
		code = errResp.Error.Code
	} else if len(body) > 0 && len(body) < 200 {
		message = string(body)
	}

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return llmhttp.NewAuthenticationError(c.provider(), message)
	case http.StatusNotFound:
		return llmhttp.NewModelNotFoundError(c.provider(), message)
	case http.StatusTooManyRequests:
		return llmhttp.NewRateLimitError(c.provider(), message)
	case http.StatusBadRequest:
		// Azure rejects filtered prompts as a 400 with this code.
		if code == "content_filter" {
			return llmhttp.NewContentFilteredError(c.provider(), message)
		}
		return llmhttp.NewInvalidRequestError(c.provider(), message)
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		return llmhttp.NewServiceUnavailableError(c.provider(), message)
	default:
		return &llmhttp.Error{
			Type:       llmhttp.ErrTypeUnknown,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  false,
			Provider:   c.provider(),
		}
	}
}
