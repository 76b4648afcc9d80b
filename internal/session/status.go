// Package session implements the game session controller: the state
// machine that drives a play session through its lifecycle, pulls
// challenges from the supply pipeline, invokes the per-mode engines,
// and owns every timer in the game.
package session

// Status is the controller's lifecycle state. The main loop is
// idle → loading → countdown → playing → correct/incorrect → advancing
// → loading, with mode-specific branches for recall gates and terminal
// screens. Terminal states only return to idle via ReturnToMenu.
type Status string

const (
	StatusIdle          Status = "idle"
	StatusLoading       Status = "loading"
	StatusCountdown     Status = "countdown"
	StatusPlaying       Status = "playing"
	StatusCorrect       Status = "correct"
	StatusIncorrect     Status = "incorrect"
	StatusAdvancing     Status = "advancing"
	StatusMemoryGame    Status = "memoryGame"
	StatusGameOver      Status = "gameOver"
	StatusLevelComplete Status = "levelComplete"
	StatusDuelRoundOver Status = "duelRoundOver"
	StatusDuelGameOver  Status = "duelGameOver"
)

// terminal reports whether a status only exits via ReturnToMenu.
func (s Status) terminal() bool {
	switch s {
	case StatusGameOver, StatusLevelComplete, StatusDuelGameOver:
		return true
	}
	return false
}

// Mode selects which progression engine drives the session.
type Mode string

const (
	ModeNone        Mode = "none"
	ModeProgressive Mode = "progressive"
	ModeEndless     Mode = "endless"
	ModeDuel        Mode = "duel"
	ModePractice    Mode = "practice"
)
