// Package challenge defines the quiz challenge type and its two sources:
// a remote supplier fetched over HTTP and a local corpus used as the
// synchronous fallback when the prefetch queue is empty.
package challenge

import (
	"context"
	"errors"
)

// Challenge is a single question instance: one correct answer plus
// distractor options. Immutable once created.
type Challenge struct {
	Answer      string   `json:"answer"`
	Distractors []string `json:"distractors"`
}

// Constraints narrow which challenge a source may produce.
type Constraints struct {
	WordLength int
	Language   string
	// Excluded lists answers that must not be produced again: everything
	// already queued plus everything already used this session.
	Excluded []string
}

// Supplier produces challenges from a remote service. Fetch may fail;
// no retry contract is assumed by callers.
type Supplier interface {
	Fetch(ctx context.Context, c Constraints) (Challenge, error)
}

// ErrExhausted is returned when no corpus data exists at all for the
// requested word length and language. This is the fatal supply case.
var ErrExhausted = errors.New("challenge: no corpus data for constraints")
