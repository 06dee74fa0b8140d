package interview

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/srujanlakku/ai-interview-agent/internal/oracle"
)

// Readiness is the final categorical verdict.
type Readiness string

const (
	NotReady       Readiness = "Not Ready"
	AlmostReady    Readiness = "Almost Ready"
	InterviewReady Readiness = "Interview Ready"
)

const (
	readyThreshold  = 7.5
	almostThreshold = 5.0
)

// ReadinessFor maps an aggregate score onto the readiness verdict.
func ReadinessFor(score float64) Readiness {
	switch {
	case score >= readyThreshold:
		return InterviewReady
	case score >= almostThreshold:
		return AlmostReady
	default:
		return NotReady
	}
}

// Report is the terminal artifact of a session, created exactly once at end.
type Report struct {
	SessionID      string                   `json:"session_id"`
	Profile        Profile                  `json:"profile"`
	QuestionsAsked int                      `json:"questions_asked"`
	OverallScore   float64                  `json:"overall_score"`
	Readiness      Readiness                `json:"readiness"`
	CategoryScores map[QuestionType]float64 `json:"category_scores,omitempty"`
	Narrative      string                   `json:"narrative"`
	Strengths      []string                 `json:"strengths,omitempty"`
	Weaknesses     []string                 `json:"weaknesses,omitempty"`
	EarlierRounds  string                   `json:"earlier_rounds,omitempty"`
	CompletedAt    time.Time                `json:"completed_at"`
}

type narrativePayload struct {
	Narrative  string   `json:"narrative"`
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
}

const summarySystemMessage = `You are a senior interviewer writing a final readiness report for a mock interview.
Respond with a single JSON object:
{"narrative": "...", "strengths": ["..."], "weaknesses": ["..."]}
Be specific and reference the interview performance; three to five sentences of narrative.`

// OracleSummarizer builds the report. The aggregate numbers are computed
// locally from memory; only the narrative comes from the oracle, with a
// deterministic fallback so report creation never fails.
type OracleSummarizer struct {
	completer oracle.Completer
	logger    *zap.Logger
}

// NewSummarizer creates a summarizer over the completer. A nil completer is
// allowed; the fallback narrative is used.
func NewSummarizer(completer oracle.Completer, log *zap.Logger) *OracleSummarizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &OracleSummarizer{completer: completer, logger: log}
}

// Summarize produces the terminal report from the full session history,
// compressed rounds included. The overall score is the lifetime average.
func (s *OracleSummarizer) Summarize(ctx context.Context, session *Session) *Report {
	report := &Report{
		SessionID:      session.ID,
		Profile:        session.Profile,
		QuestionsAsked: session.QuestionCount,
		OverallScore:   session.Memory.LifetimeAverage(),
		CategoryScores: categoryScores(session.Memory),
		EarlierRounds:  session.Memory.CompressedSummary(),
		CompletedAt:    session.CompletedAt,
	}
	if report.CompletedAt.IsZero() {
		report.CompletedAt = time.Now().UTC()
	}
	report.Readiness = ReadinessFor(report.OverallScore)

	narrative, strengths, weaknesses := s.narrative(ctx, session, report)
	report.Narrative = narrative
	report.Strengths = strengths
	report.Weaknesses = weaknesses

	return report
}

func (s *OracleSummarizer) narrative(ctx context.Context, session *Session, report *Report) (string, []string, []string) {
	fallback := fallbackNarrative(report)
	strengths, weaknesses := collectNotes(session.Memory)

	if s.completer == nil {
		return fallback, strengths, weaknesses
	}

	raw, err := s.completer.Complete(ctx, oracle.Request{
		Prompt:        buildSummaryPrompt(session, report),
		SystemMessage: summarySystemMessage,
		Temperature:   0.5,
		MaxTokens:     1024,
	})
	if err != nil {
		s.logger.Warn("summary narrative degraded", zap.Error(err))
		return fallback, strengths, weaknesses
	}

	payload, ok := oracle.Parse[narrativePayload](raw).Ok()
	if !ok || strings.TrimSpace(payload.Narrative) == "" {
		s.logger.Warn("summary narrative unparseable")
		return fallback, strengths, weaknesses
	}

	if len(payload.Strengths) > 0 {
		strengths = payload.Strengths
	}
	if len(payload.Weaknesses) > 0 {
		weaknesses = payload.Weaknesses
	}

	return strings.TrimSpace(payload.Narrative), strengths, weaknesses
}

func fallbackNarrative(report *Report) string {
	return fmt.Sprintf(
		"Answered %d questions with an overall score of %.1f/10. Verdict: %s.",
		report.QuestionsAsked, report.OverallScore, report.Readiness,
	)
}

func buildSummaryPrompt(session *Session, report *Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Candidate: %s at %s (%s experience).\n", session.Profile.Role, session.Profile.Company, session.Profile.Experience)
	fmt.Fprintf(&b, "Questions answered: %d. Overall score: %.1f/10. Verdict: %s.\n\n", report.QuestionsAsked, report.OverallScore, report.Readiness)

	if history := session.Memory.Describe(); history != "" {
		b.WriteString("Interview history:\n")
		b.WriteString(history)
		b.WriteString("\n")
	}

	b.WriteString("\nWrite the final report. JSON only.")
	return b.String()
}

func categoryScores(m *Memory) map[QuestionType]float64 {
	live := m.Live()
	if len(live) == 0 {
		return nil
	}

	totals := make(map[QuestionType]float64)
	counts := make(map[QuestionType]int)
	for _, interaction := range live {
		totals[interaction.Question.Type] += interaction.Evaluation.Score
		counts[interaction.Question.Type]++
	}

	scores := make(map[QuestionType]float64, len(totals))
	for t, total := range totals {
		scores[t] = total / float64(counts[t])
	}
	return scores
}

// collectNotes gathers deduplicated strengths and weaknesses from the live
// evaluations, sorted for stable output.
func collectNotes(m *Memory) ([]string, []string) {
	seenStrength := make(map[string]struct{})
	seenWeakness := make(map[string]struct{})
	var strengths, weaknesses []string

	for _, interaction := range m.Live() {
		for _, s := range interaction.Evaluation.Strengths {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			if _, ok := seenStrength[strings.ToLower(s)]; ok {
				continue
			}
			seenStrength[strings.ToLower(s)] = struct{}{}
			strengths = append(strengths, s)
		}
		for _, w := range interaction.Evaluation.Weaknesses {
			w = strings.TrimSpace(w)
			if w == "" {
				continue
			}
			if _, ok := seenWeakness[strings.ToLower(w)]; ok {
				continue
			}
			seenWeakness[strings.ToLower(w)] = struct{}{}
			weaknesses = append(weaknesses, w)
		}
	}

	sort.Strings(strengths)
	sort.Strings(weaknesses)
	return strengths, weaknesses
}
