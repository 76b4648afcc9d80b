package engine

import (
	"testing"

	"vortkvizo/internal/ladder"
)

// playRound pushes one full round through the duel with the given
// outcomes and returns the resolved state and round winner.
func playRound(d Duel, p1, p2 Outcome) (Duel, Winner) {
	d = d.ApplyAnswer(1, p1)
	d = d.ApplyAnswer(2, p2)
	return d.ResolveRound()
}

// TestRoundScore checks the 10+timeRemaining formula.
func TestRoundScore(t *testing.T) {
	tests := []struct {
		out  Outcome
		want int
	}{
		{Outcome{Correct: true, TimeLeft: 2}, 12},
		{Outcome{Correct: true, TimeLeft: 0}, 10},
		{Outcome{Correct: false, TimeLeft: 9}, 0},
	}
	for _, tt := range tests {
		if got := RoundScore(tt.out); got != tt.want {
			t.Errorf("RoundScore(%+v) = %d, want %d", tt.out, got, tt.want)
		}
	}
}

// TestRoundDraw checks equal round scores award neither player.
func TestRoundDraw(t *testing.T) {
	d := NewDuel()
	d, winner := playRound(d,
		Outcome{Correct: true, TimeLeft: 2}, // 12
		Outcome{Correct: true, TimeLeft: 2}, // 12
	)
	if winner != WinnerDraw {
		t.Errorf("winner = %s, want draw", winner)
	}
	if d.P1Wins != 0 || d.P2Wins != 0 {
		t.Errorf("wins = %d/%d, want 0/0", d.P1Wins, d.P2Wins)
	}
}

// TestRoundWinnerRecordedPerTier checks the result map keys on the
// round's tier and tiers wrap cyclically.
func TestRoundWinnerRecordedPerTier(t *testing.T) {
	d := NewDuel()
	firstTier := d.Tier().ID

	d, winner := playRound(d,
		Outcome{Correct: true, TimeLeft: 5},
		Outcome{Correct: false},
	)
	if winner != WinnerP1 {
		t.Fatalf("winner = %s, want p1", winner)
	}
	if got := d.Results[firstTier]; got != WinnerP1 {
		t.Errorf("Results[%s] = %s, want p1", firstTier, got)
	}
	if d.Tier().Index != 1 {
		t.Errorf("next round tier = %d, want 1", d.Tier().Index)
	}

	// Play through a full ladder cycle and confirm the wrap.
	for _i := 0; _i < ladder.Count()-1; _i++ {
		d, _ = playRound(d, Outcome{}, Outcome{})
	}
	if d.Tier().Index != 0 {
		t.Errorf("tier after full cycle = %d, want 0", d.Tier().Index)
	}
}

// TestMatchEndsAtThree checks the match ends the instant a player takes
// a third round.
func TestMatchEndsAtThree(t *testing.T) {
	d := NewDuel()
	for _i := 0; _i < 3; _i++ {
		d, _ = playRound(d, Outcome{Correct: true, TimeLeft: 5}, Outcome{Correct: false})
	}
	d, step := d.NextStep()
	if step != DuelMatchOver {
		t.Errorf("step = %v, want match over", step)
	}
	if d.MatchWinner() != WinnerP1 {
		t.Errorf("match winner = %s, want p1", d.MatchWinner())
	}
}

// TestTwoTwoEntersTieBreak checks 2–2 forces a sudden-death round
// instead of ending, and a drawn tie-break ends the match as a draw.
func TestTwoTwoEntersTieBreak(t *testing.T) {
	d := NewDuel()
	for _i := 0; _i < 2; _i++ {
		d, _ = playRound(d, Outcome{Correct: true, TimeLeft: 5}, Outcome{Correct: false})
		d, _ = playRound(d, Outcome{Correct: false}, Outcome{Correct: true, TimeLeft: 5})
	}
	if d.P1Wins != 2 || d.P2Wins != 2 {
		t.Fatalf("wins = %d/%d, want 2/2", d.P1Wins, d.P2Wins)
	}

	d, step := d.NextStep()
	if step != DuelTieBreak {
		t.Fatalf("step at 2–2 = %v, want tie-break", step)
	}

	// The tie-break itself is drawn: match over, drawn.
	d, winner := playRound(d, Outcome{Correct: true, TimeLeft: 1}, Outcome{Correct: true, TimeLeft: 1})
	if winner != WinnerDraw {
		t.Fatalf("tie-break winner = %s, want draw", winner)
	}
	d, step = d.NextStep()
	if step != DuelMatchOver {
		t.Errorf("step after drawn tie-break = %v, want match over", step)
	}
	if d.MatchWinner() != WinnerDraw {
		t.Errorf("match winner = %s, want draw", d.MatchWinner())
	}
}

// TestTieBreakDecides checks a won tie-break produces a 3–2 winner.
func TestTieBreakDecides(t *testing.T) {
	d := NewDuel()
	for _i := 0; _i < 2; _i++ {
		d, _ = playRound(d, Outcome{Correct: true, TimeLeft: 5}, Outcome{Correct: false})
		d, _ = playRound(d, Outcome{Correct: false}, Outcome{Correct: true, TimeLeft: 5})
	}
	d, _ = d.NextStep()

	d, _ = playRound(d, Outcome{Correct: false}, Outcome{Correct: true, TimeLeft: 3})
	d, step := d.NextStep()
	if step != DuelMatchOver {
		t.Errorf("step = %v, want match over", step)
	}
	if d.MatchWinner() != WinnerP2 {
		t.Errorf("match winner = %s, want p2", d.MatchWinner())
	}
}

// TestRoundComplete checks turn bookkeeping.
func TestRoundComplete(t *testing.T) {
	d := NewDuel()
	if d.RoundComplete() {
		t.Error("fresh round reported complete")
	}
	d = d.ApplyAnswer(1, Outcome{Correct: true, TimeLeft: 4})
	if d.RoundComplete() {
		t.Error("round complete after one answer")
	}
	d = d.ApplyAnswer(2, Outcome{Correct: false})
	if !d.RoundComplete() {
		t.Error("round not complete after both answers")
	}
}
