package gitlab

import (
	"encoding/json"
	"fmt"
	"net/http"

	llmhttp "github.com/patchlens/patchlens/internal/adapter/llm/http"
)

const providerName = "gitlab"

// MapHTTPError maps GitLab API HTTP status codes to typed llmhttp.Error.
// This allows reuse of existing retry logic and error handling infrastructure.
func MapHTTPError(statusCode int, body []byte) *llmhttp.Error {
	message := parseErrorMessage(statusCode, body)

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &llmhttp.Error{
			Type:       llmhttp.ErrTypeAuthentication,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  false,
			Provider:   providerName,
		}

	case http.StatusTooManyRequests:
		return &llmhttp.Error{
			Type:       llmhttp.ErrTypeRateLimit,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  true,
			Provider:   providerName,
		}

	case http.StatusBadRequest,
		http.StatusNotFound,
		http.StatusConflict,
		http.StatusUnprocessableEntity:
		return &llmhttp.Error{
			Type:       llmhttp.ErrTypeInvalidRequest,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  false,
			Provider:   providerName,
		}

	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable:
		return &llmhttp.Error{
			Type:       llmhttp.ErrTypeServiceUnavailable,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  true,
			Provider:   providerName,
		}

	default:
		return &llmhttp.Error{
			Type:       llmhttp.ErrTypeUnknown,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  false,
			Provider:   providerName,
		}
	}
}

// gitlabErrorResponse covers both error shapes GitLab returns. Message may
// be a string, a list, or a field map depending on the endpoint.
type gitlabErrorResponse struct {
	Message any    `json:"message"`
	Error   string `json:"error"`
}

// parseErrorMessage extracts a user-friendly error message from GitLab's response.
func parseErrorMessage(statusCode int, body []byte) string {
	var errResp gitlabErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 100 {
			bodyPreview = bodyPreview[:100] + "..."
		}
		if bodyPreview == "" {
			return fmt.Sprintf("HTTP %d", statusCode)
		}
		return fmt.Sprintf("HTTP %d: %s", statusCode, bodyPreview)
	}

	switch {
	case errResp.Error != "":
		return errResp.Error
	case errResp.Message != nil:
		return fmt.Sprintf("%v", errResp.Message)
	default:
		return fmt.Sprintf("HTTP %d", statusCode)
	}
}
