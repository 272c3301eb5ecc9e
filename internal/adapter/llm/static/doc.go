// Package static provides a mock LLM analyzer that returns a static,
// pre-determined analysis. This is useful for testing the orchestrator
// and other parts of the system without making live API calls.
package static
