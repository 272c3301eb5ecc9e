// Package llm provides LLM analyzer adapters.
package llm

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	defaultEncoder *tiktoken.Tiktoken
	encoderOnce    sync.Once
	encoderErr     error
)

// getEncoder returns the shared tiktoken encoder, initializing it lazily.
// Uses cl100k_base encoding, which GPT-4 uses and which approximates other
// modern LLM tokenizers well enough for budgeting.
func getEncoder() (*tiktoken.Tiktoken, error) {
	encoderOnce.Do(func() {
		defaultEncoder, encoderErr = tiktoken.GetEncoding("cl100k_base")
	})
	return defaultEncoder, encoderErr
}

// EstimateTokens returns an estimated token count for the given text
// using the cl100k_base encoding. Falls back to a bytes/4 heuristic if
// the encoding is unavailable.
func EstimateTokens(text string) int {
	enc, err := getEncoder()
	if err != nil {
		return len(text) / 4
	}
	tokens := enc.Encode(text, nil, nil)
	return len(tokens)
}

// Estimator implements the review pipeline's token estimator port.
type Estimator struct{}

// NewEstimator returns the shared tiktoken-backed estimator.
func NewEstimator() Estimator {
	return Estimator{}
}

// EstimateTokens implements the port.
func (Estimator) EstimateTokens(text string) int {
	return EstimateTokens(text)
}
