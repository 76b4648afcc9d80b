// Package ladder defines the static difficulty ladder: an ordered list
// of tiers, each with a word length, an answer time budget, and a base
// point value. The ladder is a pure lookup table with no state.
package ladder

import "time"

// Tier is one rung of the difficulty ladder.
type Tier struct {
	ID         string        `json:"id"`
	WordLength int           `json:"wordLength"`
	TimeBudget time.Duration `json:"timeBudget"`
	BasePoints int           `json:"basePoints"`
	Index      int           `json:"index"`
}

// tiers is totally ordered by Index. Longer words get tighter budgets
// but more points.
var tiers = []Tier{
	{ID: "novice", WordLength: 4, TimeBudget: 30 * time.Second, BasePoints: 1, Index: 0},
	{ID: "apprentice", WordLength: 5, TimeBudget: 25 * time.Second, BasePoints: 2, Index: 1},
	{ID: "adept", WordLength: 6, TimeBudget: 20 * time.Second, BasePoints: 3, Index: 2},
	{ID: "expert", WordLength: 7, TimeBudget: 15 * time.Second, BasePoints: 5, Index: 3},
	{ID: "grandmaster", WordLength: 8, TimeBudget: 12 * time.Second, BasePoints: 8, Index: 4},
}

// Count returns the number of tiers on the ladder.
func Count() int {
	return len(tiers)
}

// ByIndex returns the tier at the given index, clamped to the ladder's
// ends so callers never receive an out-of-range tier.
func ByIndex(i int) Tier {
	if i < 0 {
		i = 0
	}
	if i >= len(tiers) {
		i = len(tiers) - 1
	}
	return tiers[i]
}

// ByID returns the tier with the given ID and whether it exists.
func ByID(id string) (Tier, bool) {
	for _, t := range tiers {
		if t.ID == id {
			return t, true
		}
	}
	return Tier{}, false
}

// Next returns the tier above t, clamped at the top of the ladder.
func Next(t Tier) Tier {
	return ByIndex(t.Index + 1)
}

// Wrap returns the tier at index i modulo the ladder length. Duel mode
// cycles through the ladder one tier per round.
func Wrap(i int) Tier {
	n := len(tiers)
	return tiers[((i%n)+n)%n]
}

// All returns a copy of the ladder, lowest tier first.
func All() []Tier {
	out := make([]Tier, len(tiers))
	copy(out, tiers)
	return out
}
