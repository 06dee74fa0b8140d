package interview

import (
	"fmt"
	"slices"
	"strings"
)

// DefaultMemorySize is the default bound on the live interaction window.
const DefaultMemorySize = 20

const summarySeparator = "; "

// Memory is the bounded, ordered interaction log. The live window never
// exceeds its capacity: an append that would overflow folds the oldest
// entries into a flat textual summary. Compaction is irreversible; once
// compressed, an interaction survives only as its summary line and its
// contribution to the compressed score totals.
type Memory struct {
	capacity int
	live     []Interaction

	compressedSummary string
	compressedCount   int
	compressedScore   float64
}

// NewMemory creates a Memory bounded at capacity live entries. A
// non-positive capacity falls back to the default.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultMemorySize
	}
	return &Memory{capacity: capacity}
}

// Append adds the interaction, compacting the oldest live entries when the
// window would overflow.
func (m *Memory) Append(interaction Interaction) {
	m.live = append(m.live, interaction)

	overflow := len(m.live) - m.capacity
	if overflow <= 0 {
		return
	}

	for i := 0; i < overflow; i++ {
		m.compress(m.live[i], m.compressedCount+i+1)
	}
	m.compressedCount += overflow
	m.live = slices.Delete(m.live, 0, overflow)
}

func (m *Memory) compress(interaction Interaction, ordinal int) {
	line := fmt.Sprintf("Q%d: score %.0f/10", ordinal, interaction.Evaluation.Score)
	if m.compressedSummary == "" {
		m.compressedSummary = line
	} else {
		m.compressedSummary += summarySeparator + line
	}
	m.compressedScore += interaction.Evaluation.Score
}

// Live returns the uncompressed window in order. The slice is shared; callers
// must not mutate it.
func (m *Memory) Live() []Interaction {
	if m == nil {
		return nil
	}
	return m.live
}

// Last returns the most recent live interaction.
func (m *Memory) Last() (Interaction, bool) {
	if m == nil || len(m.live) == 0 {
		return Interaction{}, false
	}
	return m.live[len(m.live)-1], true
}

// Len is the size of the live window.
func (m *Memory) Len() int {
	if m == nil {
		return 0
	}
	return len(m.live)
}

// Capacity is the configured bound on the live window.
func (m *Memory) Capacity() int { return m.capacity }

// TotalAppended is the number of interactions ever appended, live plus
// compressed.
func (m *Memory) TotalAppended() int {
	if m == nil {
		return 0
	}
	return len(m.live) + m.compressedCount
}

// CompressedCount is the number of interactions folded into the summary.
func (m *Memory) CompressedCount() int {
	if m == nil {
		return 0
	}
	return m.compressedCount
}

// CompressedSummary is the flat textual record of compacted interactions.
func (m *Memory) CompressedSummary() string {
	if m == nil {
		return ""
	}
	return m.compressedSummary
}

// AverageScore is the mean score over the live window only. Compressed
// interactions do not contribute here; see LifetimeAverage.
func (m *Memory) AverageScore() float64 {
	if m == nil || len(m.live) == 0 {
		return 0
	}

	var total float64
	for _, interaction := range m.live {
		total += interaction.Evaluation.Score
	}
	return total / float64(len(m.live))
}

// LifetimeAverage is the mean score over every interaction ever appended,
// including compressed ones. The final report aggregates over this.
func (m *Memory) LifetimeAverage() float64 {
	total := m.TotalAppended()
	if total == 0 {
		return 0
	}

	var sum float64
	for _, interaction := range m.live {
		sum += interaction.Evaluation.Score
	}
	sum += m.compressedScore

	return sum / float64(total)
}

// Clone returns a deep copy of the memory.
func (m *Memory) Clone() *Memory {
	if m == nil {
		return nil
	}

	copied := *m
	copied.live = slices.Clone(m.live)
	return &copied
}

// Describe renders a compact textual view of the memory for prompt context:
// the compressed summary followed by the live window.
func (m *Memory) Describe() string {
	if m == nil {
		return ""
	}

	var parts []string
	if m.compressedSummary != "" {
		parts = append(parts, "Earlier: "+m.compressedSummary)
	}
	for i, interaction := range m.live {
		parts = append(parts, fmt.Sprintf("Q%d (%s, %s): score %.0f/10",
			m.compressedCount+i+1,
			interaction.Question.Topic,
			interaction.Question.Type,
			interaction.Evaluation.Score,
		))
	}
	return strings.Join(parts, "\n")
}
