// Package engine holds the per-mode scoring and progression rules. Each
// engine is a pure state transformer: the session controller feeds it an
// answer outcome and gets back the new state plus the rewards to report.
// Nothing in this package touches timers, I/O, or the challenge queue.
package engine

// Gameplay pacing constants shared across modes.
const (
	// MemoryGameInterval is how many rounds (progressive) or successful
	// words (endless) sit between two recall gate rounds.
	MemoryGameInterval = 5
	// GatesPerLevel is how many gates make up one progressive level.
	GatesPerLevel = 4
	// LifeBonusInterval is the consecutive-correct streak that earns a
	// bonus life in progressive mode.
	LifeBonusInterval = 10
	// MaxLives caps progressive lives.
	MaxLives = 5
	// StartLives is the progressive starting life count.
	StartLives = 3
)

// Outcome is what the controller observed for one challenge. Timer
// expiry and empty submissions arrive as Correct=false, TimeLeft=0.
type Outcome struct {
	Correct  bool
	TimeLeft int // whole seconds left on the answer timer
}

// Step tells the controller where the session goes after the dwell
// delay. It is computed deterministically from the engine state.
type Step int

const (
	StepAdvance Step = iota
	StepMemoryGame
	StepLevelComplete
	StepGameOver
)

// String returns the step name for logs.
func (s Step) String() string {
	switch s {
	case StepAdvance:
		return "advance"
	case StepMemoryGame:
		return "memoryGame"
	case StepLevelComplete:
		return "levelComplete"
	case StepGameOver:
		return "gameOver"
	default:
		return "unknown"
	}
}

// Reward is what a single answer earned, for the presentation layer.
type Reward struct {
	Points     int
	Coins      int
	LifeGained bool
	LifeLost   bool
}
