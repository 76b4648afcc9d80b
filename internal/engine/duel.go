package engine

import "vortkvizo/internal/ladder"

// Winner identifies which local player took a round, or neither.
type Winner string

const (
	WinnerP1   Winner = "p1"
	WinnerP2   Winner = "p2"
	WinnerDraw Winner = "draw"
)

// duelWinsNeeded is the round-win count that ends the match outright.
const duelWinsNeeded = 3

// duelRoundBase is the flat score for a correct duel answer, before the
// time bonus.
const duelRoundBase = 10

// Duel coordinates a best-of rounds match between two players on the
// same device. Both players answer the same challenge, player 1 first.
type Duel struct {
	P1Wins       int               `json:"player1Wins"`
	P2Wins       int               `json:"player2Wins"`
	CurrentRound int               `json:"currentRound"`
	Results      map[string]Winner `json:"results"` // tier ID → round winner
	TieBreak     bool              `json:"tieBreak"`

	// Per-round scratch state.
	P1Score   int  `json:"player1Score"`
	P2Score   int  `json:"player2Score"`
	P1Done    bool `json:"player1Done"`
	P2Done    bool `json:"player2Done"`
	TierIndex int  `json:"tierIndex"`
}

// NewDuel returns a fresh match at round zero, lowest tier.
func NewDuel() Duel {
	return Duel{Results: make(map[string]Winner)}
}

// Tier returns the round's tier. Tiers advance one per round, wrapping
// cyclically through the ladder.
func (d Duel) Tier() ladder.Tier {
	return ladder.Wrap(d.TierIndex)
}

// RoundScore computes one player's score against the shared challenge.
func RoundScore(out Outcome) int {
	if !out.Correct {
		return 0
	}
	return duelRoundBase + out.TimeLeft
}

// ApplyAnswer records one player's outcome for the current round.
// Player 1 answers first; the caller resets the timer to the tier's full
// budget before player 2's turn.
func (d Duel) ApplyAnswer(player int, out Outcome) Duel {
	score := RoundScore(out)
	if player == 1 {
		d.P1Score, d.P1Done = score, true
	} else {
		d.P2Score, d.P2Done = score, true
	}
	return d
}

// RoundComplete reports whether both players have answered.
func (d Duel) RoundComplete() bool {
	return d.P1Done && d.P2Done
}

// ResolveRound scores the finished round, records the winner against the
// round's tier, and advances to the next round. Equal scores are a draw
// and award neither player.
func (d Duel) ResolveRound() (Duel, Winner) {
	var winner Winner
	switch {
	case d.P1Score > d.P2Score:
		winner = WinnerP1
		d.P1Wins++
	case d.P2Score > d.P1Score:
		winner = WinnerP2
		d.P2Wins++
	default:
		winner = WinnerDraw
	}

	if d.Results == nil {
		d.Results = make(map[string]Winner)
	}
	d.Results[d.Tier().ID] = winner

	d.CurrentRound++
	d.TierIndex++
	d.P1Score, d.P2Score = 0, 0
	d.P1Done, d.P2Done = false, false
	return d, winner
}

// DuelStep is the match-level consequence of a resolved round.
type DuelStep int

const (
	DuelNextRound DuelStep = iota
	DuelTieBreak
	DuelMatchOver
)

// NextStep decides whether the match continues, enters sudden death, or
// ends. A match ends the instant either player reaches three round wins;
// 2–2 forces one tie-break round instead. A 2–2 score after the
// tie-break has been played ends the match as a draw.
func (d Duel) NextStep() (Duel, DuelStep) {
	if d.P1Wins >= duelWinsNeeded || d.P2Wins >= duelWinsNeeded {
		return d, DuelMatchOver
	}
	if d.P1Wins == duelWinsNeeded-1 && d.P2Wins == duelWinsNeeded-1 {
		if d.TieBreak {
			return d, DuelMatchOver
		}
		d.TieBreak = true
		return d, DuelTieBreak
	}
	return d, DuelNextRound
}

// MatchWinner reports the final match result by round-win count.
func (d Duel) MatchWinner() Winner {
	switch {
	case d.P1Wins > d.P2Wins:
		return WinnerP1
	case d.P2Wins > d.P1Wins:
		return WinnerP2
	default:
		return WinnerDraw
	}
}
