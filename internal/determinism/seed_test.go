package determinism_test

import (
	"testing"

	"github.com/patchlens/patchlens/internal/determinism"
	"github.com/patchlens/patchlens/internal/usecase/review"
	"github.com/stretchr/testify/assert"
)

func TestGenerateSeed(t *testing.T) {
	t.Run("generates consistent seed for same inputs", func(t *testing.T) {
		seed1 := determinism.GenerateSeed("openai", "acme/widgets#42", "main.go")
		seed2 := determinism.GenerateSeed("openai", "acme/widgets#42", "main.go")

		assert.Equal(t, seed1, seed2, "seed should be deterministic for same inputs")
	})

	t.Run("generates different seeds for different files", func(t *testing.T) {
		seed1 := determinism.GenerateSeed("openai", "acme/widgets#42", "main.go")
		seed2 := determinism.GenerateSeed("openai", "acme/widgets#42", "util.go")

		assert.NotEqual(t, seed1, seed2, "different files should produce different seeds")
	})

	t.Run("generates different seeds for different changes", func(t *testing.T) {
		seed1 := determinism.GenerateSeed("openai", "acme/widgets#42", "main.go")
		seed2 := determinism.GenerateSeed("openai", "acme/widgets#43", "main.go")

		assert.NotEqual(t, seed1, seed2, "different changes should produce different seeds")
	})

	t.Run("generates different seeds for different analyzers", func(t *testing.T) {
		seed1 := determinism.GenerateSeed("openai", "acme/widgets#42", "main.go")
		seed2 := determinism.GenerateSeed("static", "acme/widgets#42", "main.go")

		assert.NotEqual(t, seed1, seed2, "different analyzers should produce different seeds")
	})

	t.Run("handles empty strings", func(t *testing.T) {
		seed1 := determinism.GenerateSeed("", "", "")
		seed2 := determinism.GenerateSeed("", "", "")

		assert.Equal(t, seed1, seed2, "empty strings should still produce deterministic seed")
	})

	t.Run("generates non-zero seed", func(t *testing.T) {
		seed := determinism.GenerateSeed("openai", "acme/widgets#42", "main.go")

		assert.NotEqual(t, uint64(0), seed, "seed should not be zero")
	})

	t.Run("fits in signed int64 range", func(t *testing.T) {
		seed := determinism.GenerateSeed("openai", "acme/widgets#42", "main.go")

		assert.LessOrEqual(t, seed, uint64(1)<<63-1, "seed must fit in int64 for API compatibility")
	})

	t.Run("satisfies the orchestrator seed port", func(t *testing.T) {
		var fn review.SeedFunc = determinism.GenerateSeed

		assert.NotZero(t, fn("openai", "acme/widgets#42", "main.go"))
	})
}
