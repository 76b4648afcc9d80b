package engine

import "testing"

// TestPracticeStreakCoin checks every tenth streak answer pays a coin.
func TestPracticeStreakCoin(t *testing.T) {
	var p Practice
	coins := 0
	for i := 1; i <= 25; i++ {
		var reward Reward
		p, reward = p.Apply(Outcome{Correct: true, TimeLeft: 1})
		coins += reward.Coins
	}
	if coins != 2 {
		t.Errorf("coins after 25 correct = %d, want 2", coins)
	}
	if p.Streak != 25 || p.BestStreak != 25 {
		t.Errorf("streak = %d/%d, want 25/25", p.Streak, p.BestStreak)
	}
}

// TestPracticeMissResetsStreak checks a miss resets the streak but
// keeps the best streak and coins.
func TestPracticeMissResetsStreak(t *testing.T) {
	var p Practice
	for _i := 0; _i < 12; _i++ {
		p, _ = p.Apply(Outcome{Correct: true, TimeLeft: 1})
	}
	p, reward := p.Apply(Outcome{Correct: false})
	if p.Streak != 0 {
		t.Errorf("streak = %d, want 0", p.Streak)
	}
	if p.BestStreak != 12 {
		t.Errorf("best streak = %d, want 12", p.BestStreak)
	}
	if p.Coins != 1 {
		t.Errorf("coins = %d, want 1", p.Coins)
	}
	if reward.Coins != 0 || reward.Points != 0 {
		t.Errorf("reward on miss = %+v, want zero", reward)
	}
}
