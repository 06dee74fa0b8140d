// Package evaluate dispatches answers to type-specific evaluators and
// enforces the uniform degrade policy that keeps the interview loop total.
package evaluate

import (
	"context"

	"go.uber.org/zap"

	"github.com/srujanlakku/ai-interview-agent/internal/interview"
)

// Evaluator scores one answer. Implementations may fail; the Gateway absorbs
// failures so callers never see an error.
type Evaluator interface {
	Evaluate(ctx context.Context, question interview.Question, answer string) (interview.Evaluation, error)
}

// DefaultEvaluation is the fixed neutral result used whenever an evaluator
// fails or returns something unusable.
func DefaultEvaluation() interview.Evaluation {
	return interview.Evaluation{
		Score:    interview.NeutralScore,
		Feedback: "The answer could not be assessed this round; a neutral score was recorded.",
		Degraded: true,
	}
}

// Gateway routes an answer to the evaluator matching the question type.
// The capability set is {technical, coding, behavioral}; system-design and
// any unrecognized type route to the behavioral evaluator.
type Gateway struct {
	evaluators map[interview.QuestionType]Evaluator
	fallback   Evaluator
	logger     *zap.Logger
}

// NewGateway wires the three capability evaluators.
func NewGateway(technical, coding, behavioral Evaluator, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{
		evaluators: map[interview.QuestionType]Evaluator{
			interview.TypeTechnical:  technical,
			interview.TypeCoding:     coding,
			interview.TypeBehavioral: behavioral,
		},
		fallback: behavioral,
		logger:   logger,
	}
}

// Evaluate scores the answer, degrading to the neutral default on any
// failure. It satisfies interview.AnswerEvaluator.
func (g *Gateway) Evaluate(ctx context.Context, question interview.Question, answer string) interview.Evaluation {
	evaluator, ok := g.evaluators[question.Type]
	if !ok || evaluator == nil {
		evaluator = g.fallback
	}
	if evaluator == nil {
		g.logger.Warn("no evaluator available", zap.String("question_type", string(question.Type)))
		return DefaultEvaluation()
	}

	evaluation, err := evaluator.Evaluate(ctx, question, answer)
	if err != nil {
		g.logger.Warn("evaluation degraded",
			zap.String("question_type", string(question.Type)),
			zap.Error(err),
		)
		return DefaultEvaluation()
	}

	evaluation.Score = interview.ClampScore(evaluation.Score)
	return evaluation
}
