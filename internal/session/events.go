package session

import "vortkvizo/internal/engine"

// Event types pushed to the presentation sink. "state" carries a full
// snapshot; the rest are discrete notifications for audio and feedback.
const (
	EventState      = "state"
	EventCorrect    = "correct"
	EventIncorrect  = "incorrect"
	EventLifeLost   = "lifeLost"
	EventLifeGained = "lifeGained"
	EventBonus      = "bonus"
	EventRollback   = "rollback"
	EventGameOver   = "gameOver"
	EventDuelTurn   = "duelTurn"
	EventRoundOver  = "roundOver"
	EventTieBreak   = "tieBreak"
)

// Event is one notification to the presentation layer.
type Event struct {
	Type   string         `json:"type"`
	State  *Snapshot      `json:"state,omitempty"`
	Reward *engine.Reward `json:"reward,omitempty"`
	Winner string         `json:"winner,omitempty"`
}

// Sink receives controller events for rendering and feedback. The
// controller has no opinion on how they are consumed.
type Sink interface {
	Publish(sessionID string, ev Event)
}

// Snapshot is the render-ready view of a session. The correct answer is
// never exposed while a challenge is live; only the shuffled options are.
type Snapshot struct {
	Status  Status   `json:"status"`
	Mode    Mode     `json:"mode"`
	Paused  bool     `json:"paused"`
	TierID  string   `json:"tierId"`
	Options []string `json:"options,omitempty"`

	TimeLeft      int `json:"timeLeft"`
	CountdownLeft int `json:"countdownLeft,omitempty"`

	Score              int `json:"score"`
	Lives              int `json:"lives"`
	ConsecutiveCorrect int `json:"consecutiveCorrect"`
	RoundsPlayed       int `json:"roundsPlayed"`

	Money     int `json:"money,omitempty"`
	WordCount int `json:"wordCount,omitempty"`

	Streak int `json:"streak,omitempty"`

	Duel     *engine.Duel `json:"duel,omitempty"`
	DuelTurn int          `json:"duelTurn,omitempty"`
}
