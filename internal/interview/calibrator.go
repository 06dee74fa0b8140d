package interview

// lowScoreFloor is the raw score below which difficulty always drops to easy.
const lowScoreFloor = 4

// escalationScore is the minimum raw score for an escalation recommendation
// to be honored.
const escalationScore = 8

// Calibrator maps the latest evaluation and decision onto the next question
// difficulty. Only the most recent score is consulted.
type Calibrator struct{}

// Next applies the transition rule once per turn, before a new (non
// follow-up) question is requested. The low-score floor overrides an
// escalation recommendation.
func (Calibrator) Next(current Difficulty, lastScore float64, decision DecisionKind) Difficulty {
	if lastScore < lowScoreFloor {
		return DifficultyEasy
	}

	if decision == DecisionIncreaseDifficulty && lastScore >= escalationScore && current != DifficultyHard {
		return DifficultyHard
	}

	return current
}
