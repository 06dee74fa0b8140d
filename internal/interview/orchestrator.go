package interview

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/srujanlakku/ai-interview-agent/internal/logger"
)

// QuestionRequest carries everything a QuestionSource needs to select the
// next question.
type QuestionRequest struct {
	Profile           Profile
	Stage             Stage
	Difficulty        Difficulty
	PreviousQuestions []string
	Topic             string
}

// QuestionSource selects the next question for a session, or returns
// ErrNoMoreQuestions when the pool is exhausted.
type QuestionSource interface {
	Next(ctx context.Context, req QuestionRequest) (*Question, error)
}

// AnswerEvaluator scores an answer against its question. Implementations
// degrade internally and always return a usable evaluation.
type AnswerEvaluator interface {
	Evaluate(ctx context.Context, question Question, answer string) Evaluation
}

// DecisionMaker decides how to continue after an answer. Implementations
// never fail; they degrade to the switch_topic default.
type DecisionMaker interface {
	Decide(ctx context.Context, question Question, answer string, eval Evaluation, perf PerformanceContext) Decision
}

// Summarizer builds the terminal report from a completed session.
type Summarizer interface {
	Summarize(ctx context.Context, session *Session) *Report
}

// Config bounds a session run.
type Config struct {
	MaxQuestions      int
	MemorySize        int
	DefaultDifficulty Difficulty
}

const defaultMaxQuestions = 10

func (c Config) withDefaults() Config {
	if c.MaxQuestions <= 0 {
		c.MaxQuestions = defaultMaxQuestions
	}
	if c.MemorySize <= 0 {
		c.MemorySize = DefaultMemorySize
	}
	if c.DefaultDifficulty == "" {
		c.DefaultDifficulty = DifficultyMedium
	}
	return c
}

// Orchestrator drives the interview turn loop. It owns no storage: sessions
// are values passed in and returned transformed, with every turn applied to
// a private clone so the caller's copy is never half-mutated.
type Orchestrator struct {
	source     QuestionSource
	evaluator  AnswerEvaluator
	decisions  DecisionMaker
	summarizer Summarizer
	calibrator Calibrator
	config     Config
	logger     *zap.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// New creates an Orchestrator with the given collaborators.
func New(source QuestionSource, evaluator AnswerEvaluator, decisions DecisionMaker, summarizer Summarizer, config Config, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		source:     source,
		evaluator:  evaluator,
		decisions:  decisions,
		summarizer: summarizer,
		config:     config.withDefaults(),
		logger:     log,
		inFlight:   make(map[string]struct{}),
	}
}

// Start initializes a session for the profile and requests the opening
// question. This is the only point where a question-source failure is
// terminal: there is no previous question to fall back to.
func (o *Orchestrator) Start(ctx context.Context, profile Profile) (*Session, error) {
	session := NewSession(profile, o.config.DefaultDifficulty, o.config.MaxQuestions, o.config.MemorySize)

	question, err := o.source.Next(ctx, QuestionRequest{
		Profile:    profile,
		Stage:      StageInitial,
		Difficulty: session.Difficulty,
	})
	if err != nil {
		return nil, &GenerationError{Err: err}
	}

	session.Active = question

	logger.WithSession(o.logger, session.ID).Info("session started",
		zap.String("role", profile.Role),
		zap.String("difficulty", string(session.Difficulty)),
		zap.Int("max_questions", session.MaxQuestions),
	)

	return session, nil
}

// ProcessAnswer runs one full turn: evaluate the answer, record the
// interaction, decide how to continue, recalibrate difficulty and resolve
// the next question (or complete the session). The input session is not
// mutated; the advanced session is returned.
func (o *Orchestrator) ProcessAnswer(ctx context.Context, session *Session, answer string) (*Session, error) {
	if session == nil {
		return nil, ErrSessionCompleted
	}
	if session.Status == StatusCompleted {
		return nil, ErrSessionCompleted
	}
	if session.Active == nil {
		return nil, ErrNoActiveQuestion
	}

	if err := o.acquire(session.ID); err != nil {
		return nil, err
	}
	defer o.release(session.ID)

	next := session.Clone()
	question := *next.Active
	log := logger.WithSession(o.logger, next.ID)

	evaluation := o.evaluator.Evaluate(ctx, question, answer)
	evaluation.Score = ClampScore(evaluation.Score)

	next.Memory.Append(Interaction{
		Question:   question,
		Answer:     answer,
		Evaluation: evaluation,
		AskedAt:    time.Now().UTC(),
	})

	decision := o.decisions.Decide(ctx, question, answer, evaluation, next.Performance())

	next.QuestionCount++

	log.Info("turn processed",
		zap.Int("question_count", next.QuestionCount),
		zap.Float64("score", evaluation.Score),
		zap.String("decision", string(decision.Kind)),
	)

	if next.QuestionCount >= next.MaxQuestions {
		o.complete(next, "max questions reached")
		return next, nil
	}

	if decision.Kind == DecisionFollowUp {
		// A follow-up is derived directly from the decision text; no
		// generation call and no difficulty change.
		followUp := FollowUpFrom(question, decision.FollowUpText)
		next.Active = &followUp
		return next, nil
	}

	next.Difficulty = o.calibrator.Next(next.Difficulty, evaluation.Score, decision.Kind)

	generated, err := o.source.Next(ctx, QuestionRequest{
		Profile:           next.Profile,
		Stage:             StageOngoing,
		Difficulty:        next.Difficulty,
		PreviousQuestions: next.PreviousQuestions(),
		Topic:             decision.NextTopic,
	})
	if err != nil {
		// Running out of questions, or failing to generate one mid-session,
		// ends the interview early instead of erroring: every answered turn
		// must still land in the final report.
		o.complete(next, "question source exhausted")
		log.Info("ending session early", zap.Error(err))
		return next, nil
	}

	next.Active = generated
	return next, nil
}

// End terminates the session (if still in progress) and produces the report.
// It serves both the natural max-questions exit and explicit early
// termination by the caller.
func (o *Orchestrator) End(ctx context.Context, session *Session) (*Session, *Report, error) {
	if session == nil {
		return nil, nil, ErrSessionCompleted
	}

	if err := o.acquire(session.ID); err != nil {
		return nil, nil, err
	}
	defer o.release(session.ID)

	next := session.Clone()
	if next.Status != StatusCompleted {
		o.complete(next, "ended by caller")
	}

	report := o.summarizer.Summarize(ctx, next)
	return next, report, nil
}

func (o *Orchestrator) complete(session *Session, reason string) {
	session.Status = StatusCompleted
	session.Active = nil
	session.CompletedAt = time.Now().UTC()

	logger.WithSession(o.logger, session.ID).Info("session completed",
		zap.String("reason", reason),
		zap.Int("question_count", session.QuestionCount),
	)
}

func (o *Orchestrator) acquire(sessionID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, busy := o.inFlight[sessionID]; busy {
		return ErrTurnInProgress
	}
	o.inFlight[sessionID] = struct{}{}
	return nil
}

func (o *Orchestrator) release(sessionID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.inFlight, sessionID)
}
