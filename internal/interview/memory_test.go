package interview

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func interactionWithScore(n int, score float64) Interaction {
	return Interaction{
		Question: Question{
			Text:       fmt.Sprintf("question %d", n),
			Type:       TypeTechnical,
			Topic:      "concurrency",
			Difficulty: DifficultyMedium,
		},
		Answer: fmt.Sprintf("answer %d", n),
		Evaluation: Evaluation{
			Score:    score,
			Feedback: "ok",
		},
	}
}

func TestMemoryBoundHolds(t *testing.T) {
	t.Parallel()

	m := NewMemory(20)
	for i := 0; i < 25; i++ {
		m.Append(interactionWithScore(i, 6))
		require.LessOrEqual(t, m.Len(), 20, "live window must never exceed capacity")
	}

	assert.Equal(t, 20, m.Len())
	assert.Equal(t, 5, m.CompressedCount())
	assert.Equal(t, 25, m.TotalAppended())
}

func TestMemoryCompressedSummaryOrder(t *testing.T) {
	t.Parallel()

	m := NewMemory(20)
	for i := 0; i < 25; i++ {
		m.Append(interactionWithScore(i, float64(i%10)))
	}

	entries := strings.Split(m.CompressedSummary(), "; ")
	require.Len(t, entries, 5)

	for i, entry := range entries {
		assert.Equal(t, fmt.Sprintf("Q%d: score %d/10", i+1, i%10), entry)
	}
}

func TestMemoryAverageScoreLiveWindowOnly(t *testing.T) {
	t.Parallel()

	m := NewMemory(2)
	m.Append(interactionWithScore(1, 2))
	m.Append(interactionWithScore(2, 8))
	m.Append(interactionWithScore(3, 8))

	// The score-2 entry is compressed away; the live average ignores it.
	assert.Equal(t, 8.0, m.AverageScore())

	// The lifetime average still accounts for it.
	assert.InDelta(t, 6.0, m.LifetimeAverage(), 0.001)
}

func TestMemoryEmpty(t *testing.T) {
	t.Parallel()

	m := NewMemory(0)
	assert.Equal(t, DefaultMemorySize, m.Capacity())
	assert.Zero(t, m.AverageScore())
	assert.Zero(t, m.LifetimeAverage())

	_, ok := m.Last()
	assert.False(t, ok)
}

func TestMemoryCloneIsIndependent(t *testing.T) {
	t.Parallel()

	m := NewMemory(5)
	m.Append(interactionWithScore(1, 7))

	clone := m.Clone()
	clone.Append(interactionWithScore(2, 3))

	assert.Equal(t, 1, m.Len())
	assert.Equal(t, 2, clone.Len())
}

func TestMemoryDescribe(t *testing.T) {
	t.Parallel()

	m := NewMemory(2)
	m.Append(interactionWithScore(1, 4))
	m.Append(interactionWithScore(2, 6))
	m.Append(interactionWithScore(3, 9))

	described := m.Describe()
	assert.Contains(t, described, "Earlier: Q1: score 4/10")
	assert.Contains(t, described, "Q2 (concurrency, technical): score 6/10")
	assert.Contains(t, described, "Q3 (concurrency, technical): score 9/10")
}
