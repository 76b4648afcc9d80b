package engine

import (
	"math"

	"vortkvizo/internal/ladder"
)

// Progressive is the story-progression mode state. Lives run out, tiers
// climb, and every level is gated by recall rounds.
type Progressive struct {
	Lives              int `json:"lives"`
	Score              int `json:"score"`
	ConsecutiveCorrect int `json:"consecutiveCorrect"`
	MultiplierLevel    int `json:"multiplierLevel"`
	RoundsPlayed       int `json:"roundsPlayed"`
	SuccessfulRounds   int `json:"successfulRounds"`
}

// NewProgressive returns the starting progressive state. The multiplier
// level comes from the player's equipped score upgrade.
func NewProgressive(multiplierLevel int) Progressive {
	return Progressive{
		Lives:           StartLives,
		MultiplierLevel: multiplierLevel,
	}
}

// Tier derives the current difficulty tier from rounds played: one rung
// up every two gate intervals, clamped at the top of the ladder.
func (p Progressive) Tier() ladder.Tier {
	return ladder.ByIndex(p.RoundsPlayed / (MemoryGameInterval * 2))
}

// Apply scores one answered challenge and returns the next state plus
// the earned rewards.
func (p Progressive) Apply(tier ladder.Tier, out Outcome) (Progressive, Reward) {
	var reward Reward
	p.RoundsPlayed++

	if out.Correct {
		points := int(math.Round(float64(tier.BasePoints+out.TimeLeft) * (1 + float64(p.MultiplierLevel)*0.1)))
		p.Score += points
		p.SuccessfulRounds++
		p.ConsecutiveCorrect++
		reward.Points = points
		if p.ConsecutiveCorrect >= LifeBonusInterval {
			p.ConsecutiveCorrect = 0
			if p.Lives < MaxLives {
				p.Lives++
				reward.LifeGained = true
			}
		}
		return p, reward
	}

	p.Lives--
	p.ConsecutiveCorrect = 0
	reward.LifeLost = true
	return p, reward
}

// NextStep decides where the session goes after the dwell delay,
// deterministically from (outcome, rounds played, lives).
func (p Progressive) NextStep(out Outcome) Step {
	if !out.Correct && p.Lives <= 0 {
		return StepGameOver
	}
	if p.RoundsPlayed > 0 && p.RoundsPlayed%MemoryGameInterval == 0 {
		return StepMemoryGame
	}
	return StepAdvance
}

// ApplyGate resolves a recall gate round. A failed gate ends the run; a
// passed gate on a level boundary completes the level.
func (p Progressive) ApplyGate(success bool) (Progressive, Step) {
	if !success {
		return p, StepGameOver
	}
	if p.RoundsPlayed > 0 && p.RoundsPlayed%(MemoryGameInterval*GatesPerLevel) == 0 {
		return p, StepLevelComplete
	}
	return p, StepAdvance
}
