package challenge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"
)

// DistractorCount is how many wrong options accompany each answer.
const DistractorCount = 3

// HTTPSupplier fetches challenges from a random-word HTTP API. One call
// fetches a batch of words of the requested length; the first word not
// excluded becomes the answer and the next three become distractors.
type HTTPSupplier struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPSupplier builds a supplier against baseURL with a sane client
// timeout. The pipeline tolerates slow or failed fetches, so the timeout
// only bounds how long a refill goroutine can linger.
func NewHTTPSupplier(baseURL string) *HTTPSupplier {
	return &HTTPSupplier{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Fetch requests a batch of words and assembles one challenge matching
// the constraints. Returns an error on transport failure, bad status,
// or when the API cannot produce enough non-excluded words.
func (s *HTTPSupplier) Fetch(ctx context.Context, con Constraints) (Challenge, error) {
	// Request extra words so exclusions still leave enough for a full
	// challenge.
	count := DistractorCount + 1 + len(con.Excluded)
	u := fmt.Sprintf("%s?length=%d&number=%d&lang=%s",
		s.BaseURL, con.WordLength, count, url.QueryEscape(con.Language))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Challenge{}, fmt.Errorf("build word request: %w", err)
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return Challenge{}, fmt.Errorf("fetch words: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Challenge{}, fmt.Errorf("word API status %d", resp.StatusCode)
	}

	var words []string
	if err := json.NewDecoder(resp.Body).Decode(&words); err != nil {
		return Challenge{}, fmt.Errorf("decode word response: %w", err)
	}

	return assemble(words, con)
}

// assemble turns a raw word batch into a challenge: first usable word is
// the answer, the following distinct words are distractors.
func assemble(words []string, con Constraints) (Challenge, error) {
	var answer string
	var distractors []string
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if len(w) != con.WordLength {
			continue
		}
		if answer == "" {
			if slices.Contains(con.Excluded, w) {
				continue
			}
			answer = w
			continue
		}
		if w != answer && !slices.Contains(distractors, w) {
			distractors = append(distractors, w)
		}
		if len(distractors) == DistractorCount {
			break
		}
	}

	if answer == "" || len(distractors) < DistractorCount {
		return Challenge{}, fmt.Errorf("word API returned %d usable words, need %d", len(words), DistractorCount+1)
	}
	return Challenge{Answer: answer, Distractors: distractors}, nil
}
