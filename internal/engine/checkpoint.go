package engine

import "slices"

// Checkpoint is an immutable snapshot of endless progress, taken only
// after a passed gate. A single slot is retained: each commit overwrites
// the previous one.
type Checkpoint struct {
	Money        int        `json:"money"`
	Score        int        `json:"score"`
	WordCount    int        `json:"wordCount"`
	RoundCount   int        `json:"roundCount"`
	UsedAnswers  []string   `json:"usedAnswers"`
	StartingTier int        `json:"startingTier"`
	Start        Difficulty `json:"start"`
}

// CheckpointManager holds the single retained checkpoint for an endless
// run.
type CheckpointManager struct {
	slot *Checkpoint
}

// Snapshot captures a checkpoint from the live endless state.
func Snapshot(e Endless, usedAnswers []string) Checkpoint {
	return Checkpoint{
		Money:        e.Money,
		Score:        e.Score,
		WordCount:    e.WordCount,
		RoundCount:   e.RoundCount,
		UsedAnswers:  slices.Clone(usedAnswers),
		StartingTier: NewEndless(e.Start).Tier().Index,
		Start:        e.Start,
	}
}

// Commit stores cp, overwriting any previous checkpoint.
func (m *CheckpointManager) Commit(cp Checkpoint) {
	m.slot = &cp
}

// Last returns the stored checkpoint, if any.
func (m *CheckpointManager) Last() (Checkpoint, bool) {
	if m.slot == nil {
		return Checkpoint{}, false
	}
	return *m.slot, true
}

// Clear drops the stored checkpoint. Called on return-to-menu.
func (m *CheckpointManager) Clear() {
	m.slot = nil
}

// Rollback restores the endless state after a failed gate. Progress
// (score, word count, rounds, used answers) reverts to the last
// checkpoint, or to the difficulty baseline when none exists. Money is
// intentionally asymmetric: coins earned past the checkpoint stay.
func (m *CheckpointManager) Rollback(live Endless) (Endless, []string) {
	if m.slot == nil {
		base := NewEndless(live.Start)
		base.Money = live.Money
		return base, nil
	}
	cp := *m.slot
	restored := Endless{
		Start:      cp.Start,
		Money:      live.Money,
		Score:      cp.Score,
		WordCount:  cp.WordCount,
		RoundCount: cp.RoundCount,
	}
	if restored.Money < cp.Money {
		restored.Money = cp.Money
	}
	return restored, slices.Clone(cp.UsedAnswers)
}
