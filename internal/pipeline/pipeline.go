// Package pipeline keeps a warm, bounded queue of upcoming challenges so
// the session controller never waits on the network. Refills happen in
// the background, one at a time; consumption always succeeds
// synchronously as long as the local corpus has data for the requested
// constraints.
package pipeline

import (
	"context"
	"log"
	"slices"
	"sync"

	"github.com/samber/lo"

	"vortkvizo/internal/challenge"
)

// QueueSize is the prefetch queue capacity.
const QueueSize = 3

// Pipeline owns the challenge queue and the single in-flight refill.
type Pipeline struct {
	supplier challenge.Supplier
	corpus   *challenge.Corpus

	mu        sync.Mutex
	queue     []challenge.Challenge
	refilling bool
	capacity  int
}

// New builds a pipeline over a remote supplier and a local fallback
// corpus.
func New(supplier challenge.Supplier, corpus *challenge.Corpus) *Pipeline {
	return &Pipeline{
		supplier: supplier,
		corpus:   corpus,
		capacity: QueueSize,
	}
}

// Corpus exposes the local fallback corpus for callers that need direct
// draws, such as recall gate decoys.
func (p *Pipeline) Corpus() *challenge.Corpus {
	return p.corpus
}

// Len reports the current queue length.
func (p *Pipeline) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// QueuedAnswers returns the answers currently sitting in the queue.
func (p *Pipeline) QueuedAnswers() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return lo.Map(p.queue, func(ch challenge.Challenge, _ int) string {
		return ch.Answer
	})
}

// Reset drops all queued challenges. Called on return-to-menu.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	p.queue = nil
	p.mu.Unlock()
}

// TryRefill starts one background fetch unless a refill is already in
// flight or the queue is full. Safe to call redundantly. The exclusion
// sent to the supplier is the union of con.Excluded (answers used this
// session) and everything already queued.
func (p *Pipeline) TryRefill(con challenge.Constraints) {
	p.mu.Lock()
	if p.refilling || len(p.queue) >= p.capacity {
		p.mu.Unlock()
		return
	}
	p.refilling = true
	excluded := make([]string, 0, len(con.Excluded)+len(p.queue))
	excluded = append(excluded, con.Excluded...)
	for _, ch := range p.queue {
		if !slices.Contains(excluded, ch.Answer) {
			excluded = append(excluded, ch.Answer)
		}
	}
	p.mu.Unlock()

	fetchCon := challenge.Constraints{
		WordLength: con.WordLength,
		Language:   con.Language,
		Excluded:   excluded,
	}

	go func() {
		ch, err := p.supplier.Fetch(context.Background(), fetchCon)

		p.mu.Lock()
		defer p.mu.Unlock()
		p.refilling = false
		if err != nil {
			// No retry here; the next take triggers another attempt.
			log.Printf("[WARN] challenge refill failed: %v", err)
			return
		}
		if len(p.queue) >= p.capacity {
			return
		}
		for _, queued := range p.queue {
			if queued.Answer == ch.Answer {
				return
			}
		}
		p.queue = append(p.queue, ch)
	}()
}

// Take returns the next challenge without blocking. It pops the queue
// head when available, otherwise draws synchronously from the local
// corpus, preferring unused answers and recycling when none remain; the
// recycled flag tells the caller to clear its used-set for this length.
// Every take schedules a best-effort background refill. Returns
// challenge.ErrExhausted only when the corpus has no data at all for the
// constraints.
func (p *Pipeline) Take(con challenge.Constraints) (ch challenge.Challenge, recycled bool, err error) {
	p.mu.Lock()
	if len(p.queue) > 0 {
		ch = p.queue[0]
		p.queue = p.queue[1:]
		p.mu.Unlock()
		p.TryRefill(con)
		return ch, false, nil
	}
	p.mu.Unlock()

	log.Printf("[WARN] challenge queue empty, falling back to local corpus (length=%d)", con.WordLength)
	ch, recycled, err = p.corpus.Draw(con)
	p.TryRefill(con)
	if err != nil {
		return challenge.Challenge{}, false, err
	}
	return ch, recycled, nil
}
