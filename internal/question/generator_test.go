package question

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/srujanlakku/ai-interview-agent/internal/interview"
	"github.com/srujanlakku/ai-interview-agent/internal/oracle"
)

type stubCompleter struct {
	response   string
	err        error
	lastPrompt string
}

func (s *stubCompleter) Complete(_ context.Context, req oracle.Request) (string, error) {
	s.lastPrompt = req.Prompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubCompleter) Model() string { return "stub-model" }

func request() interview.QuestionRequest {
	return interview.QuestionRequest{
		Profile:    interview.Profile{Role: "backend engineer", Company: "acme", Experience: "senior"},
		Stage:      interview.StageOngoing,
		Difficulty: interview.DifficultyHard,
		PreviousQuestions: []string{
			"Explain goroutine scheduling.",
			"Design a rate limiter.",
		},
		Topic: "databases",
	}
}

func TestGeneratorNext(t *testing.T) {
	t.Parallel()

	stub := &stubCompleter{response: `{"text": "How would you shard a write-heavy table?", "type": "technical", "topic": "databases"}`}
	g := NewGenerator(stub, zap.NewNop())

	q, err := g.Next(context.Background(), request())
	require.NoError(t, err)

	assert.Equal(t, "How would you shard a write-heavy table?", q.Text)
	assert.Equal(t, interview.TypeTechnical, q.Type)
	assert.Equal(t, "databases", q.Topic)
	// Difficulty is pinned to the requested target, not the model's choice.
	assert.Equal(t, interview.DifficultyHard, q.Difficulty)
	assert.False(t, q.FollowUp)

	assert.Contains(t, stub.lastPrompt, "backend engineer")
	assert.Contains(t, stub.lastPrompt, "Explain goroutine scheduling.")
	assert.Contains(t, stub.lastPrompt, "Preferred topic: databases")
}

func TestGeneratorCarriesCodingSpec(t *testing.T) {
	t.Parallel()

	stub := &stubCompleter{response: `{
		"text": "Implement an LRU cache.",
		"type": "coding",
		"topic": "data structures",
		"coding": {"statement": "Implement an LRU cache with O(1) operations.", "expected_approach": "hash map plus doubly linked list", "reference_answer": "type LRU struct{...}"}
	}`}
	g := NewGenerator(stub, zap.NewNop())

	q, err := g.Next(context.Background(), request())
	require.NoError(t, err)

	assert.Equal(t, interview.TypeCoding, q.Type)
	require.NotNil(t, q.Coding)
	assert.Contains(t, q.Coding.Statement, "O(1)")
	assert.Equal(t, "hash map plus doubly linked list", q.Coding.ExpectedApproach)
}

func TestGeneratorNoMoreQuestions(t *testing.T) {
	t.Parallel()

	stub := &stubCompleter{response: `{"no_more_questions": true}`}
	g := NewGenerator(stub, zap.NewNop())

	_, err := g.Next(context.Background(), request())
	assert.ErrorIs(t, err, interview.ErrNoMoreQuestions)
}

func TestGeneratorErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		response string
		err      error
	}{
		{name: "oracle failure", err: errors.New("unavailable")},
		{name: "unparseable", response: "not json"},
		{name: "missing text", response: `{"type": "technical", "topic": "go"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g := NewGenerator(&stubCompleter{response: tt.response, err: tt.err}, zap.NewNop())

			_, err := g.Next(context.Background(), request())
			require.Error(t, err)
			assert.NotErrorIs(t, err, interview.ErrNoMoreQuestions)
		})
	}
}

func TestNormalizeType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw    string
		expect interview.QuestionType
	}{
		{raw: "technical", expect: interview.TypeTechnical},
		{raw: " Coding ", expect: interview.TypeCoding},
		{raw: "system design", expect: interview.TypeSystemDesign},
		{raw: "system-design", expect: interview.TypeSystemDesign},
		{raw: "behavioral", expect: interview.TypeBehavioral},
		{raw: "puzzles", expect: interview.TypeBehavioral},
		{raw: "", expect: interview.TypeBehavioral},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expect, normalizeType(tt.raw), "raw %q", tt.raw)
	}
}
