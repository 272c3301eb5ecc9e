package http

import (
	"sync"
	"time"
)

// Metrics collects aggregate statistics for API calls. Clients call the
// Record methods per request; the run reads GetStats once at the end.
type Metrics interface {
	RecordRequest(provider, model string)
	RecordDuration(provider, model string, duration time.Duration)
	RecordTokens(provider, model string, tokensIn, tokensOut int)
	RecordError(provider, model string, errType ErrorType)
	GetStats() Stats
}

// Stats is a snapshot of the totals recorded so far.
type Stats struct {
	TotalRequests  int
	TotalTokensIn  int
	TotalTokensOut int
	TotalDuration  time.Duration
	ErrorCount     int
	ByProvider     map[string]ProviderStats
}

// ProviderStats breaks the totals down per provider.
type ProviderStats struct {
	Requests  int
	TokensIn  int
	TokensOut int
	Duration  time.Duration
	Errors    int
}

// DefaultMetrics is an in-memory Metrics implementation, safe for use from
// concurrent file analyses.
type DefaultMetrics struct {
	mu    sync.RWMutex
	stats Stats
}

// NewDefaultMetrics creates an empty metrics collector.
func NewDefaultMetrics() *DefaultMetrics {
	return &DefaultMetrics{
		stats: Stats{ByProvider: make(map[string]ProviderStats)},
	}
}

// record applies one update to the totals and the provider bucket under the
// write lock.
func (m *DefaultMetrics) record(provider string, update func(total *Stats, bucket *ProviderStats)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	bucket := m.stats.ByProvider[provider]
	update(&m.stats, &bucket)
	m.stats.ByProvider[provider] = bucket
}

// RecordRequest counts one API request.
func (m *DefaultMetrics) RecordRequest(provider, model string) {
	m.record(provider, func(total *Stats, bucket *ProviderStats) {
		total.TotalRequests++
		bucket.Requests++
	})
}

// RecordDuration adds one request's wall time.
func (m *DefaultMetrics) RecordDuration(provider, model string, duration time.Duration) {
	m.record(provider, func(total *Stats, bucket *ProviderStats) {
		total.TotalDuration += duration
		bucket.Duration += duration
	})
}

// RecordTokens adds one request's token usage.
func (m *DefaultMetrics) RecordTokens(provider, model string, tokensIn, tokensOut int) {
	m.record(provider, func(total *Stats, bucket *ProviderStats) {
		total.TotalTokensIn += tokensIn
		total.TotalTokensOut += tokensOut
		bucket.TokensIn += tokensIn
		bucket.TokensOut += tokensOut
	})
}

// RecordError counts one failed request.
func (m *DefaultMetrics) RecordError(provider, model string, errType ErrorType) {
	m.record(provider, func(total *Stats, bucket *ProviderStats) {
		total.ErrorCount++
		bucket.Errors++
	})
}

// GetStats returns a copy of the current totals, so callers cannot mutate
// the shared state through the provider map.
func (m *DefaultMetrics) GetStats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := m.stats
	out.ByProvider = make(map[string]ProviderStats, len(m.stats.ByProvider))
	for provider, bucket := range m.stats.ByProvider {
		out.ByProvider[provider] = bucket
	}
	return out
}
