package interview

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Difficulty is the question difficulty label.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty normalizes a free-form difficulty label, falling back to
// medium for anything unrecognized.
func ParseDifficulty(s string) Difficulty {
	switch Difficulty(strings.ToLower(strings.TrimSpace(s))) {
	case DifficultyEasy:
		return DifficultyEasy
	case DifficultyHard:
		return DifficultyHard
	default:
		return DifficultyMedium
	}
}

// QuestionType classifies a question for evaluator dispatch.
type QuestionType string

const (
	TypeTechnical    QuestionType = "technical"
	TypeCoding       QuestionType = "coding"
	TypeBehavioral   QuestionType = "behavioral"
	TypeSystemDesign QuestionType = "system-design"
)

// Stage distinguishes the opening question request from subsequent ones.
type Stage string

const (
	StageInitial Stage = "initial"
	StageOngoing Stage = "ongoing"
)

// Status is the session lifecycle state.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Profile describes the candidate being interviewed.
type Profile struct {
	Role       string
	Company    string
	Experience string
}

// CodingSpec carries the embedded problem specification for coding questions.
type CodingSpec struct {
	Statement        string `json:"statement"`
	ExpectedApproach string `json:"expected_approach"`
	ReferenceAnswer  string `json:"reference_answer"`
}

// Question is immutable once issued. A follow-up is a new Question derived
// from its parent, sharing topic and type.
type Question struct {
	Text       string       `json:"text"`
	Type       QuestionType `json:"type"`
	Topic      string       `json:"topic"`
	Difficulty Difficulty   `json:"difficulty"`
	FollowUp   bool         `json:"follow_up,omitempty"`
	Coding     *CodingSpec  `json:"coding,omitempty"`
}

// FollowUpFrom derives a follow-up question from a parent, keeping its topic,
// type and difficulty.
func FollowUpFrom(parent Question, text string) Question {
	return Question{
		Text:       text,
		Type:       parent.Type,
		Topic:      parent.Topic,
		Difficulty: parent.Difficulty,
		FollowUp:   true,
		Coding:     parent.Coding,
	}
}

const (
	// MinScore and MaxScore bound every evaluation score.
	MinScore = 0
	MaxScore = 10
	// NeutralScore is the degrade default used when an evaluator cannot
	// produce a parseable result.
	NeutralScore = 5
)

// Evaluation is the structured verdict for one answer.
type Evaluation struct {
	Score      float64  `json:"score"`
	Feedback   string   `json:"feedback"`
	Strengths  []string `json:"strengths,omitempty"`
	Weaknesses []string `json:"weaknesses,omitempty"`
	// Degraded marks evaluations synthesized after an evaluator failure.
	Degraded bool `json:"degraded,omitempty"`
}

// ClampScore forces a score into the valid range; NaN-free inputs only.
func ClampScore(score float64) float64 {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

// Interaction is the immutable (question, answer, evaluation) triple appended
// to memory once per turn.
type Interaction struct {
	Question   Question   `json:"question"`
	Answer     string     `json:"answer"`
	Evaluation Evaluation `json:"evaluation"`
	AskedAt    time.Time  `json:"asked_at"`
}

// PerformanceContext is the running aggregate consumed by the calibrator and
// the follow-up engine. It is a cache over the interaction log, never a
// source of truth.
type PerformanceContext struct {
	Difficulty   Difficulty
	LastScore    float64
	AverageScore float64
	Interactions int
}

// Session is the unit of one interview run. It is treated as a value: the
// orchestrator clones it, applies a full turn, and returns the new value, so
// a failed or abandoned turn never leaves a half-mutated session behind.
type Session struct {
	ID            string
	Profile       Profile
	Status        Status
	Difficulty    Difficulty
	QuestionCount int
	MaxQuestions  int
	Active        *Question
	Memory        *Memory
	StartedAt     time.Time
	CompletedAt   time.Time
}

// NewSession initializes an in-progress session for the profile.
func NewSession(profile Profile, defaultDifficulty Difficulty, maxQuestions, memorySize int) *Session {
	return &Session{
		ID:           uuid.NewString(),
		Profile:      profile,
		Status:       StatusInProgress,
		Difficulty:   defaultDifficulty,
		MaxQuestions: maxQuestions,
		Memory:       NewMemory(memorySize),
		StartedAt:    time.Now().UTC(),
	}
}

// Clone returns a deep copy safe to mutate during a turn.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}

	copied := *s
	if s.Active != nil {
		active := *s.Active
		copied.Active = &active
	}
	copied.Memory = s.Memory.Clone()

	return &copied
}

// Performance snapshots the current performance context from the session.
func (s *Session) Performance() PerformanceContext {
	ctx := PerformanceContext{
		Difficulty: s.Difficulty,
	}
	if s.Memory != nil {
		ctx.AverageScore = s.Memory.AverageScore()
		ctx.Interactions = s.Memory.TotalAppended()
		if last, ok := s.Memory.Last(); ok {
			ctx.LastScore = last.Evaluation.Score
		}
	}
	return ctx
}

// PreviousQuestions returns the texts of every question asked so far, in
// order, for use as generation exclusion context.
func (s *Session) PreviousQuestions() []string {
	if s.Memory == nil {
		return nil
	}

	questions := make([]string, 0, len(s.Memory.Live())+1)
	for _, interaction := range s.Memory.Live() {
		questions = append(questions, interaction.Question.Text)
	}
	if s.Active != nil {
		questions = append(questions, s.Active.Text)
	}
	return questions
}
