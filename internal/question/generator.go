// Package question selects interview questions through the text oracle.
package question

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/srujanlakku/ai-interview-agent/internal/interview"
	"github.com/srujanlakku/ai-interview-agent/internal/oracle"
	"github.com/srujanlakku/ai-interview-agent/internal/util"
)

const generatorSystemMessage = `You are a senior interviewer preparing the next question of a mock interview.
Respond with a single JSON object:
{"text": "...", "type": "technical" | "coding" | "behavioral" | "system-design", "topic": "...",
 "coding": {"statement": "...", "expected_approach": "...", "reference_answer": "..."},
 "no_more_questions": false}
Include the coding object only for coding questions. Never repeat a previously asked question.
Set no_more_questions to true only when every reasonable question for this candidate is exhausted.`

type questionPayload struct {
	Text            string                `json:"text"`
	Type            string                `json:"type"`
	Topic           string                `json:"topic"`
	Coding          *interview.CodingSpec `json:"coding"`
	NoMoreQuestions bool                  `json:"no_more_questions"`
}

// Generator is an interview.QuestionSource backed by the oracle.
type Generator struct {
	completer oracle.Completer
	logger    *zap.Logger
	maxLogLen int
}

// NewGenerator creates a question generator over the completer.
func NewGenerator(completer oracle.Completer, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		completer: completer,
		logger:    logger,
		maxLogLen: 200,
	}
}

// Next selects the next question. It returns interview.ErrNoMoreQuestions
// when the oracle signals exhaustion; any other failure, including a
// malformed response, surfaces as an error for the orchestrator to handle
// (terminal at start, early termination mid-session).
func (g *Generator) Next(ctx context.Context, req interview.QuestionRequest) (*interview.Question, error) {
	if g == nil || g.completer == nil {
		return nil, errors.New("question generator is not initialized")
	}

	raw, err := g.completer.Complete(ctx, oracle.Request{
		Prompt:        buildGenerationPrompt(req),
		SystemMessage: generatorSystemMessage,
		Temperature:   0.7,
		MaxTokens:     1024,
	})
	if err != nil {
		return nil, fmt.Errorf("select question: %w", err)
	}

	result := oracle.Parse[questionPayload](raw)
	payload, ok := result.Ok()
	if !ok {
		g.logger.Warn("question response unparseable",
			zap.String("response_preview", util.TruncateForLog(result.Raw(), g.maxLogLen)),
		)
		return nil, errors.New("question response unparseable")
	}

	if payload.NoMoreQuestions {
		return nil, interview.ErrNoMoreQuestions
	}

	text := strings.TrimSpace(payload.Text)
	if text == "" {
		return nil, errors.New("question response missing text")
	}

	q := &interview.Question{
		Text:       text,
		Type:       normalizeType(payload.Type),
		Topic:      strings.TrimSpace(payload.Topic),
		Difficulty: req.Difficulty,
	}
	if q.Type == interview.TypeCoding {
		q.Coding = payload.Coding
	}
	if q.Topic == "" {
		q.Topic = "general"
	}

	g.logger.Debug("question selected",
		zap.String("type", string(q.Type)),
		zap.String("topic", q.Topic),
		zap.String("difficulty", string(q.Difficulty)),
	)

	return q, nil
}

func buildGenerationPrompt(req interview.QuestionRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Candidate: %s", req.Profile.Role)
	if req.Profile.Company != "" {
		fmt.Fprintf(&b, " interviewing at %s", req.Profile.Company)
	}
	if req.Profile.Experience != "" {
		fmt.Fprintf(&b, " (%s experience)", req.Profile.Experience)
	}
	b.WriteString(".\n")

	fmt.Fprintf(&b, "Stage: %s. Target difficulty: %s.\n", req.Stage, req.Difficulty)

	if req.Topic != "" {
		fmt.Fprintf(&b, "Preferred topic: %s.\n", req.Topic)
	}

	if len(req.PreviousQuestions) > 0 {
		b.WriteString("\nAlready asked, do not repeat:\n")
		for i, prev := range req.PreviousQuestions {
			fmt.Fprintf(&b, "%d. %s\n", i+1, prev)
		}
	}

	b.WriteString("\nProduce the next question. JSON only.")
	return b.String()
}

func normalizeType(raw string) interview.QuestionType {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), " ", "-")
	switch interview.QuestionType(normalized) {
	case interview.TypeTechnical:
		return interview.TypeTechnical
	case interview.TypeCoding:
		return interview.TypeCoding
	case interview.TypeSystemDesign:
		return interview.TypeSystemDesign
	default:
		return interview.TypeBehavioral
	}
}
