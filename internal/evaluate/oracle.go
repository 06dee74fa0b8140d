package evaluate

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

type evaluationPayload struct {
	Score      *float64 `json:"score"`
	Feedback   string   `json:"feedback"`
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
}

const evaluationSchema = `Respond with a single JSON object:
{"score": 0-10, "feedback": "...", "strengths": ["..."], "weaknesses": ["..."]}`

// OracleEvaluator scores answers through the text oracle using a
// capability-specific system prompt.
type OracleEvaluator struct {
	capability string
	system     string
	completer  oracle.Completer
	logger     *zap.Logger
	maxLogLen  int
}

func newOracleEvaluator(capability, system string, completer oracle.Completer, logger *zap.Logger) *OracleEvaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OracleEvaluator{
		capability: capability,
		system:     system,
		completer:  completer,
		logger:     logger,
		maxLogLen:  200,
	}
}

// NewTechnical evaluates conceptual and system-design answers.
func NewTechnical(completer oracle.Completer, logger *zap.Logger) *OracleEvaluator {
	system := `You are a strict technical interviewer grading one answer of a mock interview.
Judge correctness, depth and precision for the stated difficulty. ` + evaluationSchema
	return newOracleEvaluator("technical", system, completer, logger)
}

// NewCoding evaluates submitted code against the embedded problem spec.
func NewCoding(completer oracle.Completer, logger *zap.Logger) *OracleEvaluator {
	system := `You are a strict coding interviewer grading a code submission.
Judge correctness against the problem statement, the chosen approach against the expected one, and code quality. ` + evaluationSchema
	return newOracleEvaluator("coding", system, completer, logger)
}

// NewBehavioral evaluates behavioral and soft-skill answers. It also serves
// as the fallback for unrecognized question types.
func NewBehavioral(completer oracle.Completer, logger *zap.Logger) *OracleEvaluator {
	system := `You are an experienced interviewer grading a behavioral answer.
Judge structure, ownership, and communication. ` + evaluationSchema
	return newOracleEvaluator("behavioral", system, completer, logger)
}

// Evaluate sends the question/answer pair to the oracle and decodes the
// verdict. Failures and unparseable responses return an error for the
// gateway to degrade.
func (e *OracleEvaluator) Evaluate(ctx context.Context, question interview.Question, answer string) (interview.Evaluation, error) {
	if e == nil || e.completer == nil {
		return interview.Evaluation{}, errors.New("evaluator is not initialized")
	}

	raw, err := e.completer.Complete(ctx, oracle.Request{
		Prompt:        e.buildPrompt(question, answer),
		SystemMessage: e.system,
		Temperature:   0.2,
		MaxTokens:     1024,
	})
	if err != nil {
		return interview.Evaluation{}, fmt.Errorf("%s evaluation: %w", e.capability, err)
	}

	result := oracle.Parse[evaluationPayload](raw)
	payload, ok := result.Ok()
	if !ok || payload.Score == nil {
		e.logger.Warn("evaluation response unparseable",
			zap.String("capability", e.capability),
			zap.String("response_preview", util.TruncateForLog(result.Raw(), e.maxLogLen)),
		)
		return interview.Evaluation{}, fmt.Errorf("%s evaluation response unparseable", e.capability)
	}

	evaluation := interview.Evaluation{
		Score:      interview.ClampScore(*payload.Score),
		Feedback:   strings.TrimSpace(payload.Feedback),
		Strengths:  payload.Strengths,
		Weaknesses: payload.Weaknesses,
	}
	if evaluation.Feedback == "" {
		evaluation.Feedback = "No detailed feedback was provided."
	}

	return evaluation, nil
}

func (e *OracleEvaluator) buildPrompt(question interview.Question, answer string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Question (%s, topic %q, difficulty %s):\n%s\n\n",
		question.Type, question.Topic, question.Difficulty, question.Text)

	// Coding questions carry their problem spec; the other capabilities
	// tolerate its absence.
	if question.Coding != nil {
		if question.Coding.Statement != "" {
			fmt.Fprintf(&b, "Problem statement:\n%s\n\n", question.Coding.Statement)
		}
		if question.Coding.ExpectedApproach != "" {
			fmt.Fprintf(&b, "Expected approach:\n%s\n\n", question.Coding.ExpectedApproach)
		}
		if question.Coding.ReferenceAnswer != "" {
			fmt.Fprintf(&b, "Reference solution:\n%s\n\n", question.Coding.ReferenceAnswer)
		}
	}

	fmt.Fprintf(&b, "Candidate answer:\n%s\n", strings.TrimSpace(answer))
	b.WriteString("\nGrade the answer. JSON only.")

	return b.String()
}
