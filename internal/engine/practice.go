package engine

// practiceCoinStreak is the streak length that pays one coin.
const practiceCoinStreak = 10

// Practice is the free-play mode state: no lives, no game-over, just a
// streak counter and the occasional coin.
type Practice struct {
	Streak     int `json:"streak"`
	BestStreak int `json:"bestStreak"`
	Coins      int `json:"coins"`
	Rounds     int `json:"rounds"`
}

// Apply updates the streak for one answered challenge. Every tenth
// consecutive correct answer pays one coin; a miss resets the streak.
func (p Practice) Apply(out Outcome) (Practice, Reward) {
	var reward Reward
	p.Rounds++

	if !out.Correct {
		p.Streak = 0
		return p, reward
	}

	p.Streak++
	if p.Streak > p.BestStreak {
		p.BestStreak = p.Streak
	}
	if p.Streak%practiceCoinStreak == 0 {
		p.Coins++
		reward.Coins = 1
	}
	return p, reward
}
