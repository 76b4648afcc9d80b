package pipeline

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"vortkvizo/internal/challenge"
)

const TestLangEN = "en"

// fakeSupplier serves scripted challenges and can hold fetches open to
// exercise the in-flight guard.
type fakeSupplier struct {
	mu            sync.Mutex
	answers       []string
	fail          bool
	ignoreExclude bool
	inFlight      atomic.Int32
	maxSeen       atomic.Int32
	release       chan struct{} // when non-nil, Fetch blocks until closed
	calls         atomic.Int32
}

func (f *fakeSupplier) Fetch(ctx context.Context, con challenge.Constraints) (challenge.Challenge, error) {
	f.calls.Add(1)
	cur := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		prev := f.maxSeen.Load()
		if cur <= prev || f.maxSeen.CompareAndSwap(prev, cur) {
			break
		}
	}
	if f.release != nil {
		<-f.release
	}
	if f.fail {
		return challenge.Challenge{}, errors.New("supplier down")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for i, a := range f.answers {
		if f.ignoreExclude || !slices.Contains(con.Excluded, a) {
			f.answers = append(f.answers[:i:i], f.answers[i+1:]...)
			return challenge.Challenge{Answer: a, Distractors: []string{"xxxx", "yyyy", "zzzz"}}, nil
		}
	}
	return challenge.Challenge{}, errors.New("supplier exhausted")
}

func testCorpus() *challenge.Corpus {
	return challenge.NewCorpus([]challenge.Entry{
		{Answer: "fish", Distractors: []string{"dish", "wish", "fist"}, Language: TestLangEN},
		{Answer: "mist", Distractors: []string{"fist", "wish", "dish"}, Language: TestLangEN},
	})
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

// TestQueueNeverExceedsCapacity checks repeated refills stop at QueueSize.
func TestQueueNeverExceedsCapacity(t *testing.T) {
	sup := &fakeSupplier{answers: []string{"aaaa", "bbbb", "cccc", "dddd", "eeee"}}
	p := New(sup, testCorpus())
	con := challenge.Constraints{WordLength: 4, Language: TestLangEN}

	for _i := 0; _i < 10; _i++ {
		p.TryRefill(con)
		waitFor(t, func() bool { return sup.inFlight.Load() == 0 })
	}
	if got := p.Len(); got != QueueSize {
		t.Errorf("queue length = %d, want %d", got, QueueSize)
	}
}

// TestSingleRefillInFlight checks redundant TryRefill calls while a
// fetch is outstanding do not start a second fetch.
func TestSingleRefillInFlight(t *testing.T) {
	sup := &fakeSupplier{
		answers: []string{"aaaa", "bbbb"},
		release: make(chan struct{}),
	}
	p := New(sup, testCorpus())
	con := challenge.Constraints{WordLength: 4, Language: TestLangEN}

	p.TryRefill(con)
	waitFor(t, func() bool { return sup.inFlight.Load() == 1 })
	for _i := 0; _i < 5; _i++ {
		p.TryRefill(con)
	}
	close(sup.release)
	waitFor(t, func() bool { return sup.inFlight.Load() == 0 })

	if got := sup.maxSeen.Load(); got != 1 {
		t.Errorf("max concurrent fetches = %d, want 1", got)
	}
	if got := sup.calls.Load(); got != 1 {
		t.Errorf("fetch calls = %d, want 1", got)
	}
}

// TestTakePopsFIFO checks queued challenges come out in arrival order.
func TestTakePopsFIFO(t *testing.T) {
	sup := &fakeSupplier{answers: []string{"aaaa", "bbbb"}}
	p := New(sup, testCorpus())
	con := challenge.Constraints{WordLength: 4, Language: TestLangEN}

	p.TryRefill(con)
	waitFor(t, func() bool { return p.Len() == 1 })
	p.TryRefill(con)
	waitFor(t, func() bool { return p.Len() == 2 })

	first, _, err := p.Take(con)
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	if first.Answer != "aaaa" {
		t.Errorf("first take = %s, want aaaa", first.Answer)
	}
}

// TestTakeFallsBackToCorpus checks an empty queue is served
// synchronously from the corpus, and a background refill is scheduled.
func TestTakeFallsBackToCorpus(t *testing.T) {
	sup := &fakeSupplier{fail: true}
	p := New(sup, testCorpus())
	con := challenge.Constraints{WordLength: 4, Language: TestLangEN}

	ch, recycled, err := p.Take(con)
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	if recycled {
		t.Error("Take recycled on first draw")
	}
	if ch.Answer != "fish" && ch.Answer != "mist" {
		t.Errorf("Take = %s, want a corpus answer", ch.Answer)
	}
	waitFor(t, func() bool { return sup.calls.Load() >= 1 })
}

// TestTakeExhausted checks the fatal no-data case propagates.
func TestTakeExhausted(t *testing.T) {
	sup := &fakeSupplier{fail: true}
	p := New(sup, testCorpus())

	_, _, err := p.Take(challenge.Constraints{WordLength: 9, Language: TestLangEN})
	if !errors.Is(err, challenge.ErrExhausted) {
		t.Errorf("Take = %v, want ErrExhausted", err)
	}
}

// TestRefillFailureLeavesQueueUnchanged checks supplier errors do not
// shrink or corrupt the queue.
func TestRefillFailureLeavesQueueUnchanged(t *testing.T) {
	sup := &fakeSupplier{answers: []string{"aaaa"}}
	p := New(sup, testCorpus())
	con := challenge.Constraints{WordLength: 4, Language: TestLangEN}

	p.TryRefill(con)
	waitFor(t, func() bool { return p.Len() == 1 })

	sup.fail = true
	p.TryRefill(con)
	waitFor(t, func() bool { return sup.inFlight.Load() == 0 && sup.calls.Load() == 2 })

	if got := p.Len(); got != 1 {
		t.Errorf("queue length after failed refill = %d, want 1", got)
	}
}

// TestRefillDedupsQueuedAnswer checks an answer already queued is not
// appended twice.
func TestRefillDedupsQueuedAnswer(t *testing.T) {
	sup := &fakeSupplier{answers: []string{"aaaa", "aaaa"}, ignoreExclude: true}
	p := New(sup, testCorpus())
	con := challenge.Constraints{WordLength: 4, Language: TestLangEN}

	p.TryRefill(con)
	waitFor(t, func() bool { return p.Len() == 1 })

	// A misbehaving supplier may repeat an answer despite the exclusion
	// list; the queue must still hold it only once.
	p.TryRefill(con)
	waitFor(t, func() bool { return sup.calls.Load() == 2 && sup.inFlight.Load() == 0 })

	if got := p.QueuedAnswers(); len(got) != 1 {
		t.Errorf("queued answers = %v, want exactly one aaaa", got)
	}
}

// TestReset clears the queue.
func TestReset(t *testing.T) {
	sup := &fakeSupplier{answers: []string{"aaaa"}}
	p := New(sup, testCorpus())
	con := challenge.Constraints{WordLength: 4, Language: TestLangEN}

	p.TryRefill(con)
	waitFor(t, func() bool { return p.Len() == 1 })
	p.Reset()
	if got := p.Len(); got != 0 {
		t.Errorf("queue length after reset = %d, want 0", got)
	}
}
