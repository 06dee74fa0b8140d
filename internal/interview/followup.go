package interview

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/srujanlakku/ai-interview-agent/internal/oracle"
	"github.com/srujanlakku/ai-interview-agent/internal/util"
)

// DecisionKind is the closed set of follow-up decisions. Exactly one is
// produced per turn; the orchestrator's progress guarantee depends on the
// decision always resolving to one of these three values.
type DecisionKind string

const (
	DecisionFollowUp           DecisionKind = "follow_up"
	DecisionIncreaseDifficulty DecisionKind = "increase_difficulty"
	DecisionSwitchTopic        DecisionKind = "switch_topic"
)

// Decision is the outcome of the follow-up engine for one turn.
type Decision struct {
	Kind      DecisionKind
	Rationale string
	// FollowUpText is the derived question text, set only for follow_up.
	FollowUpText string
	// NextTopic is an optional topic suggestion, set only for switch_topic.
	NextTopic string
	// Degraded marks decisions produced by the fallback path.
	Degraded bool
}

const fallbackRationale = "could not interpret the interviewer's judgment; moving to a fresh topic"

// fallbackDecision is the safe default that always makes forward progress.
func fallbackDecision() Decision {
	return Decision{
		Kind:      DecisionSwitchTopic,
		Rationale: fallbackRationale,
		Degraded:  true,
	}
}

type decisionPayload struct {
	Decision  string `json:"decision"`
	Rationale string `json:"rationale"`
	FollowUp  string `json:"follow_up_question"`
	NextTopic string `json:"next_topic"`
}

const decisionSystemMessage = `You are a senior interviewer deciding how to continue a mock interview.
Respond with a single JSON object:
{"decision": "follow_up" | "increase_difficulty" | "switch_topic", "rationale": "...", "follow_up_question": "...", "next_topic": "..."}
Choose follow_up only when probing the same answer deeper would be valuable, and then include follow_up_question.
Choose increase_difficulty only after an effortless, clearly strong answer.
Otherwise choose switch_topic and suggest next_topic.`

// DecisionEngine decides, after each answer, whether to probe deeper,
// escalate difficulty or pivot to a new topic. The judgment is delegated to
// the oracle; the contract is local. Any failure degrades to switch_topic.
type DecisionEngine struct {
	completer oracle.Completer
	logger    *zap.Logger
	maxLogLen int
}

// NewDecisionEngine creates an engine over the given completer.
func NewDecisionEngine(completer oracle.Completer, logger *zap.Logger) *DecisionEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DecisionEngine{
		completer: completer,
		logger:    logger,
		maxLogLen: 200,
	}
}

// Decide returns exactly one of the three decisions. It never returns an
// error: a failed or unparseable oracle call maps to the switch_topic
// fallback so the interview always advances.
func (e *DecisionEngine) Decide(ctx context.Context, question Question, answer string, eval Evaluation, perf PerformanceContext) Decision {
	if e == nil || e.completer == nil {
		return fallbackDecision()
	}

	prompt := buildDecisionPrompt(question, answer, eval, perf)

	raw, err := e.completer.Complete(ctx, oracle.Request{
		Prompt:        prompt,
		SystemMessage: decisionSystemMessage,
		Temperature:   0.3,
		MaxTokens:     512,
	})
	if err != nil {
		e.logger.Warn("follow-up decision degraded", zap.Error(err))
		return fallbackDecision()
	}

	result := oracle.Parse[decisionPayload](raw)
	payload, ok := result.Ok()
	if !ok {
		e.logger.Warn("follow-up decision unparseable",
			zap.String("response_preview", util.TruncateForLog(result.Raw(), e.maxLogLen)),
		)
		return fallbackDecision()
	}

	decision := normalizeDecision(payload)
	if decision.Degraded {
		e.logger.Warn("follow-up decision normalized to fallback",
			zap.String("raw_decision", payload.Decision),
		)
	}

	e.logger.Debug("follow-up decision",
		zap.String("decision", string(decision.Kind)),
		zap.String("rationale", util.TruncateForLog(decision.Rationale, e.maxLogLen)),
	)

	return decision
}

// normalizeDecision maps the oracle payload onto the closed decision set. An
// out-of-set decision, or a follow_up without question text to derive from,
// falls back to switch_topic.
func normalizeDecision(payload decisionPayload) Decision {
	kind := DecisionKind(strings.ToLower(strings.TrimSpace(payload.Decision)))
	rationale := strings.TrimSpace(payload.Rationale)
	followUp := strings.TrimSpace(payload.FollowUp)
	nextTopic := strings.TrimSpace(payload.NextTopic)

	switch kind {
	case DecisionFollowUp:
		if followUp == "" {
			return fallbackDecision()
		}
		return Decision{Kind: kind, Rationale: orDefault(rationale), FollowUpText: followUp}
	case DecisionIncreaseDifficulty:
		return Decision{Kind: kind, Rationale: orDefault(rationale)}
	case DecisionSwitchTopic:
		return Decision{Kind: kind, Rationale: orDefault(rationale), NextTopic: nextTopic}
	default:
		return fallbackDecision()
	}
}

func orDefault(rationale string) string {
	if rationale == "" {
		return fallbackRationale
	}
	return rationale
}

func buildDecisionPrompt(question Question, answer string, eval Evaluation, perf PerformanceContext) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Question (%s, topic %q, difficulty %s):\n%s\n\n", question.Type, question.Topic, question.Difficulty, question.Text)
	fmt.Fprintf(&b, "Candidate answer:\n%s\n\n", strings.TrimSpace(answer))
	fmt.Fprintf(&b, "Evaluation: score %.1f/10.\nFeedback: %s\n\n", eval.Score, eval.Feedback)
	fmt.Fprintf(&b, "Session so far: %d answers, average score %.1f, current difficulty %s.\n",
		perf.Interactions, perf.AverageScore, perf.Difficulty)
	b.WriteString("\nDecide how to continue. JSON only.")

	return b.String()
}
