package engine

import "vortkvizo/internal/ladder"

// Difficulty is the endless-mode starting difficulty chosen on entry.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// baseline holds the deterministic starting point per difficulty.
type baseline struct {
	wordCount int
	score     int
	coinUnit  int
}

var baselines = map[Difficulty]baseline{
	DifficultyEasy:   {wordCount: 0, score: 0, coinUnit: 1},
	DifficultyMedium: {wordCount: 15, score: 250, coinUnit: 2},
	DifficultyHard:   {wordCount: 30, score: 600, coinUnit: 3},
}

// Endless is the survival mode state. There is no game-over: failed
// gates roll progress back to the last checkpoint instead.
type Endless struct {
	Start      Difficulty `json:"start"`
	Money      int        `json:"money"`
	Score      int        `json:"score"`
	WordCount  int        `json:"wordCount"`
	RoundCount int        `json:"roundCount"`
	// SegmentMoney is what the current gate segment has earned; a passed
	// gate pays it out again as the perfect bonus.
	SegmentMoney int `json:"segmentMoney"`
}

// NewEndless returns the starting endless state for a difficulty.
// Unknown difficulties fall back to easy.
func NewEndless(d Difficulty) Endless {
	b, ok := baselines[d]
	if !ok {
		d = DifficultyEasy
		b = baselines[d]
	}
	return Endless{
		Start:     d,
		WordCount: b.wordCount,
		Score:     b.score,
	}
}

// Tier derives the difficulty tier purely from the word count, clamped
// to the top of the ladder.
func (e Endless) Tier() ladder.Tier {
	return ladder.ByIndex(e.WordCount / MemoryGameInterval)
}

// Apply scores one answered challenge. Only correct answers move the
// word count; a miss costs nothing but the round.
func (e Endless) Apply(tier ladder.Tier, out Outcome) (Endless, Reward) {
	var reward Reward
	e.RoundCount++

	if out.Correct {
		unit := baselines[e.Start].coinUnit
		points := out.TimeLeft + tier.BasePoints*2
		e.Money += unit
		e.SegmentMoney += unit
		e.Score += points
		e.WordCount++
		reward.Points = points
		reward.Coins = unit
	}
	return e, reward
}

// NextStep sends the session to a recall gate after every
// MemoryGameInterval successful words, otherwise onward.
func (e Endless) NextStep(out Outcome) Step {
	if out.Correct && e.WordCount > 0 && e.WordCount%MemoryGameInterval == 0 {
		return StepMemoryGame
	}
	return StepAdvance
}

// ApplyGate resolves a recall gate. Success pays the segment out a
// second time (perfect bonus) and tells the caller to commit a
// checkpoint; failure tells the caller to roll back. Endless never ends.
func (e Endless) ApplyGate(success bool) (next Endless, bonus int, commit bool) {
	if success {
		bonus = e.SegmentMoney
		e.Money += bonus
		e.SegmentMoney = 0
		return e, bonus, true
	}
	e.SegmentMoney = 0
	return e, 0, false
}
