package session

import (
	"crypto/rand"
	"errors"
	"log"
	"math/big"
	"strings"
	"sync"
	"time"

	"vortkvizo/internal/challenge"
	"vortkvizo/internal/engine"
	"vortkvizo/internal/ladder"
	"vortkvizo/internal/pipeline"
	"vortkvizo/internal/store"
)

// Defaults for the controller's timing knobs.
const (
	DefaultDwellDelay   = 1500 * time.Millisecond
	DefaultTickInterval = time.Second
	DefaultCountdown    = 3
	// DefaultEndlessTime is the fixed answer timer endless mode uses
	// regardless of tier.
	DefaultEndlessTime = 15
)

// Errors returned by the public API.
var (
	ErrSessionActive = errors.New("session: a mode is already active")
	ErrUnknownMode   = errors.New("session: unknown mode")
)

// Config carries the controller's tunables. Zero values fall back to
// the defaults above; tests shrink the timing knobs.
type Config struct {
	Language        string
	MultiplierLevel int
	DwellDelay      time.Duration
	TickInterval    time.Duration
	CountdownTicks  int
	EndlessTime     int // seconds
}

func (c Config) withDefaults() Config {
	if c.Language == "" {
		c.Language = "en"
	}
	if c.DwellDelay <= 0 {
		c.DwellDelay = DefaultDwellDelay
	}
	if c.TickInterval <= 0 {
		c.TickInterval = DefaultTickInterval
	}
	if c.CountdownTicks <= 0 {
		c.CountdownTicks = DefaultCountdown
	}
	if c.EndlessTime <= 0 {
		c.EndlessTime = DefaultEndlessTime
	}
	return c
}

// StartOptions selects mode-specific entry parameters.
type StartOptions struct {
	Difficulty engine.Difficulty // endless starting difficulty
	TierID     string            // practice tier, defaults to the lowest
	Resume     bool              // endless: restore the saved run
}

// savedRun is the endless run record kept in the persistence store.
// Settled is the portion of Money already credited to the wallet;
// resuming carries it so the same coins are never banked twice.
type savedRun struct {
	Endless    engine.Endless     `json:"endless"`
	Used       []string           `json:"used"`
	Checkpoint *engine.Checkpoint `json:"checkpoint,omitempty"`
	Settled    int                `json:"settled,omitempty"`
}

// Controller is the session state machine. All fields are guarded by mu;
// timer callbacks re-acquire it and are invalidated by generation on
// every superseding transition.
type Controller struct {
	id   string
	cfg  Config
	pipe *pipeline.Pipeline
	stor *store.Store // optional, best-effort durability
	sink Sink         // optional

	mu     sync.Mutex
	status Status
	mode   Mode
	paused bool

	// Mode sub-state; exactly the one matching mode is non-nil.
	prog        *engine.Progressive
	endless     *engine.Endless
	duel        *engine.Duel
	practice    *engine.Practice
	checkpoints engine.CheckpointManager

	practiceTier ladder.Tier
	duelTurn     int
	// settledMoney is endless Money already credited to the wallet.
	settledMoney int

	current  *challenge.Challenge
	options  []string
	answered bool
	used     map[string]struct{}

	timeLeft      int
	countdownLeft int

	// Timer ownership: handles are cleared (invalidated) on every
	// transition that supersedes them. A stale callback sees a bumped
	// generation and returns without touching state.
	timerGen     uint64
	tickTimer    *time.Timer
	dwellTimer   *time.Timer
	pendingDwell func()
}

// New builds an idle controller for one player session.
func New(id string, cfg Config, pipe *pipeline.Pipeline, stor *store.Store, sink Sink) *Controller {
	return &Controller{
		id:     id,
		cfg:    cfg.withDefaults(),
		pipe:   pipe,
		stor:   stor,
		sink:   sink,
		status: StatusIdle,
		mode:   ModeNone,
		used:   make(map[string]struct{}),
	}
}

// Start selects a mode and begins the session. Only valid from idle;
// terminal states return to idle via ReturnToMenu first.
func (c *Controller) Start(mode Mode, opts StartOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status != StatusIdle {
		return ErrSessionActive
	}

	switch mode {
	case ModeProgressive:
		p := engine.NewProgressive(c.cfg.MultiplierLevel)
		c.prog = &p
	case ModeEndless:
		e := engine.NewEndless(opts.Difficulty)
		c.endless = &e
		if opts.Resume {
			c.restoreEndlessRun()
		}
	case ModeDuel:
		d := engine.NewDuel()
		c.duel = &d
		c.duelTurn = 1
	case ModePractice:
		p := engine.Practice{}
		c.practice = &p
		c.practiceTier = ladder.ByIndex(0)
		if opts.TierID != "" {
			if t, ok := ladder.ByID(opts.TierID); ok {
				c.practiceTier = t
			}
		}
	default:
		return ErrUnknownMode
	}

	c.mode = mode
	log.Printf("[INFO] session %s: starting %s mode", c.id, mode)
	c.loadNext(true)
	return nil
}

// SubmitAnswer scores the player's pick for the live challenge. The
// first submission per challenge wins; duplicates and out-of-turn
// submissions are silently ignored, as is input while paused.
func (c *Controller) SubmitAnswer(answer string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.paused || c.answered || c.current == nil {
		return
	}
	switch c.status {
	case StatusPlaying:
		c.resolveAnswer(normalizeAnswer(answer))
	case StatusMemoryGame:
		c.resolveGate(normalizeAnswer(answer))
	}
}

// Pause freezes the answer timer and blocks input without changing
// status. Idempotent.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.paused || c.status == StatusIdle {
		return
	}
	c.paused = true
	c.stopTimers()
	c.emit(EventState)
}

// Resume picks the session back up exactly where Pause left it.
func (c *Controller) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.paused {
		return
	}
	c.paused = false
	switch c.status {
	case StatusPlaying, StatusMemoryGame:
		c.scheduleTick()
	case StatusCountdown:
		c.scheduleTick()
	case StatusCorrect, StatusIncorrect, StatusDuelRoundOver:
		if c.pendingDwell != nil {
			c.scheduleDwell(c.pendingDwell)
		}
	}
	c.emit(EventState)
}

// ReturnToMenu ends the session from any state: cancels all timers,
// settles earned coins into the wallet, clears session and queue state,
// and drops back to idle.
func (c *Controller) ReturnToMenu() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == StatusIdle {
		return
	}

	c.stopTimers()
	c.settleWallet()
	c.pipe.Reset()

	c.prog, c.endless, c.duel, c.practice = nil, nil, nil, nil
	c.checkpoints.Clear()
	c.current = nil
	c.options = nil
	c.answered = false
	c.used = make(map[string]struct{})
	c.timeLeft = 0
	c.countdownLeft = 0
	c.duelTurn = 0
	c.settledMoney = 0
	c.paused = false
	c.mode = ModeNone
	c.status = StatusIdle
	log.Printf("[INFO] session %s: returned to menu", c.id)
	c.emit(EventState)
}

// Snapshot returns the render-ready view of the session.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return *c.snapshotLocked()
}

// Status returns the current lifecycle state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// ---- state machine internals (mu held) ----

// currentTier resolves the difficulty tier for the active mode.
func (c *Controller) currentTier() ladder.Tier {
	switch c.mode {
	case ModeProgressive:
		return c.prog.Tier()
	case ModeEndless:
		return c.endless.Tier()
	case ModeDuel:
		return c.duel.Tier()
	case ModePractice:
		return c.practiceTier
	}
	return ladder.ByIndex(0)
}

// timeBudget is the answer timer in seconds. Endless uses a fixed
// override regardless of tier.
func (c *Controller) timeBudget() int {
	if c.mode == ModeEndless {
		return c.cfg.EndlessTime
	}
	return int(c.currentTier().TimeBudget / time.Second)
}

// constraints builds the pipeline request for the current tier.
func (c *Controller) constraints() challenge.Constraints {
	used := make([]string, 0, len(c.used))
	for a := range c.used {
		used = append(used, a)
	}
	return challenge.Constraints{
		WordLength: c.currentTier().WordLength,
		Language:   c.cfg.Language,
		Excluded:   used,
	}
}

// loadNext obtains the next challenge. The first challenge of a session
// goes through the visual countdown; later ones start playing directly.
// Total supply exhaustion is fatal for the session and drops to idle.
func (c *Controller) loadNext(first bool) {
	c.stopTimers()
	c.status = StatusLoading
	c.emit(EventState)

	con := c.constraints()
	ch, recycled, err := c.pipe.Take(con)
	if err != nil {
		log.Printf("[WARN] session %s: challenge supply exhausted, aborting session: %v", c.id, err)
		c.abortToIdle()
		return
	}
	if recycled {
		// Every answer of this length has been seen; the corpus recycled
		// the pool, so forget this length's used answers too.
		for a := range c.used {
			if len(a) == con.WordLength {
				delete(c.used, a)
			}
		}
	}

	c.current = &ch
	c.options = shuffledOptions(ch)
	c.answered = false

	if first {
		c.status = StatusCountdown
		c.countdownLeft = c.cfg.CountdownTicks
		c.emit(EventState)
		c.scheduleTick()
		return
	}
	c.beginPlay()
}

// beginPlay enters playing and arms a fresh answer timer.
func (c *Controller) beginPlay() {
	c.status = StatusPlaying
	c.timeLeft = c.timeBudget()
	c.emit(EventState)
	c.scheduleTick()
}

// abortToIdle is the fatal-supply path: the session cannot continue.
// Coins earned so far still settle, same as a normal return to menu.
func (c *Controller) abortToIdle() {
	c.stopTimers()
	c.settleWallet()
	c.pipe.Reset()
	c.prog, c.endless, c.duel, c.practice = nil, nil, nil, nil
	c.checkpoints.Clear()
	c.current = nil
	c.options = nil
	c.used = make(map[string]struct{})
	c.settledMoney = 0
	c.mode = ModeNone
	c.status = StatusIdle
	c.emit(EventState)
}

// resolveAnswer scores the live challenge. Exactly once per challenge.
func (c *Controller) resolveAnswer(answer string) {
	out := engine.Outcome{
		Correct:  answer == c.current.Answer,
		TimeLeft: c.timeLeft,
	}
	c.used[c.current.Answer] = struct{}{}

	if c.mode == ModeDuel {
		c.resolveDuelAnswer(out)
		return
	}

	c.answered = true
	c.stopTimers()

	var reward engine.Reward
	var step engine.Step
	tier := c.currentTier()

	switch c.mode {
	case ModeProgressive:
		next, r := c.prog.Apply(tier, out)
		*c.prog = next
		reward = r
		step = next.NextStep(out)
	case ModeEndless:
		next, r := c.endless.Apply(tier, out)
		*c.endless = next
		reward = r
		step = next.NextStep(out)
	case ModePractice:
		next, r := c.practice.Apply(out)
		*c.practice = next
		reward = r
		step = engine.StepAdvance
	}

	if out.Correct {
		c.status = StatusCorrect
		c.emitReward(EventCorrect, reward)
		if reward.LifeGained {
			c.emitReward(EventLifeGained, reward)
		}
	} else {
		c.status = StatusIncorrect
		c.emitReward(EventIncorrect, reward)
		if reward.LifeLost {
			c.emitReward(EventLifeLost, reward)
		}
	}

	c.scheduleDwell(func() { c.afterDwell(step) })
}

// afterDwell moves on from correct/incorrect once the dwell elapsed.
func (c *Controller) afterDwell(step engine.Step) {
	switch step {
	case engine.StepAdvance:
		c.advance()
	case engine.StepMemoryGame:
		c.enterMemoryGame()
	case engine.StepGameOver:
		c.finish(StatusGameOver)
	case engine.StepLevelComplete:
		c.finish(StatusLevelComplete)
	}
}

// advance is the transient hop back into loading for the next round.
func (c *Controller) advance() {
	c.status = StatusAdvancing
	c.emit(EventState)
	c.loadNext(false)
}

// finish parks the session in a terminal state. Only ReturnToMenu
// leaves it.
func (c *Controller) finish(st Status) {
	c.stopTimers()
	c.status = st
	log.Printf("[INFO] session %s: %s", c.id, st)
	if st == StatusGameOver {
		c.emit(EventGameOver)
	}
	c.emit(EventState)
}

// enterMemoryGame builds the recall gate round: the player must pick a
// word they already answered this run from among fresh decoys.
func (c *Controller) enterMemoryGame() {
	if len(c.used) == 0 {
		c.advance()
		return
	}

	used := make([]string, 0, len(c.used))
	for a := range c.used {
		used = append(used, a)
	}
	answer := used[randomIndex(len(used))]
	decoys := c.pipe.Corpus().Decoys(len(answer), c.cfg.Language, used, challenge.DistractorCount)
	if len(decoys) == 0 {
		c.advance()
		return
	}

	ch := challenge.Challenge{Answer: answer, Distractors: decoys}
	c.current = &ch
	c.options = shuffledOptions(ch)
	c.answered = false
	c.status = StatusMemoryGame
	c.timeLeft = c.timeBudget()
	c.emit(EventState)
	c.scheduleTick()
}

// resolveGate settles a recall gate round.
func (c *Controller) resolveGate(answer string) {
	success := answer == c.current.Answer
	c.answered = true
	c.stopTimers()

	switch c.mode {
	case ModeProgressive:
		next, step := c.prog.ApplyGate(success)
		*c.prog = next
		if success {
			c.status = StatusCorrect
			c.emit(EventBonus)
		} else {
			c.status = StatusIncorrect
			c.emit(EventIncorrect)
		}
		c.scheduleDwell(func() { c.afterDwell(step) })

	case ModeEndless:
		next, bonus, commit := c.endless.ApplyGate(success)
		*c.endless = next
		if commit {
			used := make([]string, 0, len(c.used))
			for a := range c.used {
				used = append(used, a)
			}
			c.checkpoints.Commit(engine.Snapshot(*c.endless, used))
			c.persistEndless()
			c.status = StatusCorrect
			c.emitReward(EventBonus, engine.Reward{Coins: bonus})
		} else {
			restored, cpUsed := c.checkpoints.Rollback(*c.endless)
			*c.endless = restored
			c.used = make(map[string]struct{}, len(cpUsed))
			for _, a := range cpUsed {
				c.used[a] = struct{}{}
			}
			c.status = StatusIncorrect
			c.emit(EventRollback)
		}
		c.scheduleDwell(func() { c.advance() })

	default:
		// Gates only exist in progressive and endless.
		c.scheduleDwell(func() { c.advance() })
	}
}

// resolveDuelAnswer handles the two-turn duel round. Player 1 answers
// first; handing over to player 2 resets the timer to the tier's full
// budget for fairness.
func (c *Controller) resolveDuelAnswer(out engine.Outcome) {
	next := c.duel.ApplyAnswer(c.duelTurn, out)
	*c.duel = next

	if c.duelTurn == 1 {
		c.duelTurn = 2
		c.answered = false
		c.stopTimers()
		c.timeLeft = c.timeBudget()
		c.emit(EventDuelTurn)
		c.emit(EventState)
		c.scheduleTick()
		return
	}

	c.answered = true
	c.stopTimers()

	resolved, winner := c.duel.ResolveRound()
	*c.duel = resolved
	c.status = StatusDuelRoundOver
	c.emitWinner(EventRoundOver, string(winner))
	c.emit(EventState)

	stepped, step := c.duel.NextStep()
	*c.duel = stepped

	c.scheduleDwell(func() {
		switch step {
		case engine.DuelNextRound:
			c.duelTurn = 1
			c.advance()
		case engine.DuelTieBreak:
			c.emitWinner(EventTieBreak, "")
			c.duelTurn = 1
			c.advance()
		case engine.DuelMatchOver:
			c.status = StatusDuelGameOver
			c.emitWinner(EventGameOver, string(c.duel.MatchWinner()))
			c.emit(EventState)
		}
	})
}

// expire fires when the answer timer runs out: scored as an empty,
// incorrect submission.
func (c *Controller) expire() {
	if c.answered || c.current == nil {
		return
	}
	switch c.status {
	case StatusPlaying:
		c.resolveAnswer("")
	case StatusMemoryGame:
		c.resolveGate("")
	}
}

// ---- timers (mu held) ----

// stopTimers invalidates every outstanding timer. Any callback already
// in flight sees the bumped generation and gives up.
func (c *Controller) stopTimers() {
	c.timerGen++
	if c.tickTimer != nil {
		c.tickTimer.Stop()
		c.tickTimer = nil
	}
	if c.dwellTimer != nil {
		c.dwellTimer.Stop()
		c.dwellTimer = nil
	}
}

// scheduleTick arms the one-second heartbeat used by the countdown and
// the answer timer.
func (c *Controller) scheduleTick() {
	gen := c.timerGen
	c.tickTimer = time.AfterFunc(c.cfg.TickInterval, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if gen != c.timerGen || c.paused {
			return
		}
		c.tick()
	})
}

// tick advances whichever second-counter the current status owns.
func (c *Controller) tick() {
	switch c.status {
	case StatusCountdown:
		c.countdownLeft--
		if c.countdownLeft <= 0 {
			c.beginPlay()
			return
		}
		c.emit(EventState)
		c.scheduleTick()
	case StatusPlaying, StatusMemoryGame:
		c.timeLeft--
		if c.timeLeft <= 0 {
			c.timeLeft = 0
			c.emit(EventState)
			c.expire()
			return
		}
		c.emit(EventState)
		c.scheduleTick()
	}
}

// scheduleDwell arms the post-answer dwell delay. The step is remembered
// so a pause during the dwell can re-arm it on resume.
func (c *Controller) scheduleDwell(fn func()) {
	c.pendingDwell = fn
	gen := c.timerGen
	c.dwellTimer = time.AfterFunc(c.cfg.DwellDelay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if gen != c.timerGen {
			return
		}
		if c.paused {
			// Keep pendingDwell; Resume re-arms it.
			return
		}
		c.pendingDwell = nil
		fn()
	})
}

// ---- persistence (mu held, best-effort) ----

// persistEndless saves the endless run and high score. Failures are
// logged and ignored; durability is not a correctness dependency.
func (c *Controller) persistEndless() {
	if c.stor == nil || c.endless == nil {
		return
	}

	used := make([]string, 0, len(c.used))
	for a := range c.used {
		used = append(used, a)
	}
	run := savedRun{Endless: *c.endless, Used: used, Settled: c.settledMoney}
	if cp, ok := c.checkpoints.Last(); ok {
		run.Checkpoint = &cp
	}
	if err := c.stor.Save(store.KeyEndlessRun, run); err != nil {
		log.Printf("[WARN] session %s: saving endless run failed: %v", c.id, err)
	}

	var high int
	if err := c.stor.Load(store.KeyEndlessHighScore, &high); err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Printf("[WARN] session %s: loading high score failed: %v", c.id, err)
	}
	if c.endless.Score > high {
		if err := c.stor.Save(store.KeyEndlessHighScore, c.endless.Score); err != nil {
			log.Printf("[WARN] session %s: saving high score failed: %v", c.id, err)
		}
	}
}

// restoreEndlessRun loads the saved endless run, if any.
func (c *Controller) restoreEndlessRun() {
	if c.stor == nil {
		return
	}
	var run savedRun
	if err := c.stor.Load(store.KeyEndlessRun, &run); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("[WARN] session %s: restoring endless run failed: %v", c.id, err)
		}
		return
	}
	*c.endless = run.Endless
	c.settledMoney = run.Settled
	c.used = make(map[string]struct{}, len(run.Used))
	for _, a := range run.Used {
		c.used[a] = struct{}{}
	}
	if run.Checkpoint != nil {
		c.checkpoints.Commit(*run.Checkpoint)
	}
	log.Printf("[INFO] session %s: restored endless run (score %d, words %d)", c.id, run.Endless.Score, run.Endless.WordCount)
}

// settleWallet credits coins earned this session to the lifetime
// wallet. Endless credits only what the settled watermark has not seen
// yet, and the saved run is rewritten with the new watermark so a later
// resume cannot bank the same coins again.
func (c *Controller) settleWallet() {
	if c.stor == nil {
		return
	}
	coins := 0
	if c.endless != nil {
		if earned := c.endless.Money - c.settledMoney; earned > 0 {
			coins += earned
		}
	}
	if c.practice != nil {
		coins += c.practice.Coins
	}
	if coins == 0 {
		return
	}

	var wallet int
	if err := c.stor.Load(store.KeyWallet, &wallet); err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Printf("[WARN] session %s: loading wallet failed: %v", c.id, err)
	}
	if err := c.stor.Save(store.KeyWallet, wallet+coins); err != nil {
		log.Printf("[WARN] session %s: saving wallet failed: %v", c.id, err)
		return
	}
	if c.endless != nil {
		c.settledMoney = c.endless.Money
		c.persistEndless()
	}
}

// ---- events (mu held) ----

func (c *Controller) emit(eventType string) {
	if c.sink == nil {
		return
	}
	c.sink.Publish(c.id, Event{Type: eventType, State: c.snapshotLocked()})
}

func (c *Controller) emitReward(eventType string, reward engine.Reward) {
	if c.sink == nil {
		return
	}
	c.sink.Publish(c.id, Event{Type: eventType, State: c.snapshotLocked(), Reward: &reward})
}

func (c *Controller) emitWinner(eventType, winner string) {
	if c.sink == nil {
		return
	}
	c.sink.Publish(c.id, Event{Type: eventType, State: c.snapshotLocked(), Winner: winner})
}

func (c *Controller) snapshotLocked() *Snapshot {
	snap := &Snapshot{
		Status:        c.status,
		Mode:          c.mode,
		Paused:        c.paused,
		TimeLeft:      c.timeLeft,
		CountdownLeft: c.countdownLeft,
	}
	if c.mode != ModeNone {
		snap.TierID = c.currentTier().ID
	}
	if c.current != nil && !c.status.terminal() {
		snap.Options = c.options
	}

	switch c.mode {
	case ModeProgressive:
		snap.Score = c.prog.Score
		snap.Lives = c.prog.Lives
		snap.ConsecutiveCorrect = c.prog.ConsecutiveCorrect
		snap.RoundsPlayed = c.prog.RoundsPlayed
	case ModeEndless:
		snap.Score = c.endless.Score
		snap.Money = c.endless.Money
		snap.WordCount = c.endless.WordCount
		snap.RoundsPlayed = c.endless.RoundCount
	case ModeDuel:
		d := *c.duel
		snap.Duel = &d
		snap.DuelTurn = c.duelTurn
	case ModePractice:
		snap.Streak = c.practice.Streak
		snap.RoundsPlayed = c.practice.Rounds
	}
	return snap
}

// ---- helpers ----

// normalizeAnswer canonicalises player input for comparison.
func normalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// shuffledOptions returns the answer and distractors in random order.
func shuffledOptions(ch challenge.Challenge) []string {
	opts := make([]string, 0, len(ch.Distractors)+1)
	opts = append(opts, ch.Answer)
	opts = append(opts, ch.Distractors...)
	for i := len(opts) - 1; i > 0; i-- {
		j := randomIndex(i + 1)
		opts[i], opts[j] = opts[j], opts[i]
	}
	return opts
}

// randomIndex returns a uniform index in [0, n), falling back to 0 if
// the random source fails.
func randomIndex(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}
