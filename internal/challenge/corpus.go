package challenge

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// corpusFile is the JSON structure of the on-disk corpus.
type corpusFile struct {
	Entries []Entry `json:"entries"`
}

// Entry is one corpus record as stored on disk.
type Entry struct {
	Answer      string   `json:"answer"`
	Distractors []string `json:"distractors"`
	Language    string   `json:"language"`
}

// Corpus is the local static challenge source, keyed by language and
// word length. Read-only after Load.
type Corpus struct {
	byLang map[string]map[int][]Challenge
}

// LoadCorpus reads the corpus JSON from path and indexes it by language
// and word length. Entries whose answer length disagrees with itself
// never happen, but entries with no distractors are skipped.
func LoadCorpus(path string) (*Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	var file corpusFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse corpus: %w", err)
	}
	return NewCorpus(file.Entries), nil
}

// NewCorpus builds a corpus from entries directly. Used by tests.
func NewCorpus(entries []Entry) *Corpus {
	c := &Corpus{byLang: make(map[string]map[int][]Challenge)}
	for _, e := range entries {
		if len(e.Distractors) == 0 {
			continue
		}
		lang := strings.ToLower(e.Language)
		if lang == "" {
			lang = "en"
		}
		byLen, ok := c.byLang[lang]
		if !ok {
			byLen = make(map[int][]Challenge)
			c.byLang[lang] = byLen
		}
		answer := strings.ToLower(e.Answer)
		byLen[len(answer)] = append(byLen[len(answer)], Challenge{
			Answer:      answer,
			Distractors: e.Distractors,
		})
	}
	return c
}

// Size reports the total number of indexed challenges.
func (c *Corpus) Size() int {
	total := 0
	for _, byLen := range c.byLang {
		for _, chs := range byLen {
			total += len(chs)
		}
	}
	return total
}

// ByLength returns the candidate challenges for a word length and
// language. The returned slice is shared; callers must not mutate it.
func (c *Corpus) ByLength(wordLength int, language string) []Challenge {
	byLen, ok := c.byLang[strings.ToLower(language)]
	if !ok {
		return nil
	}
	return byLen[wordLength]
}

// Draw picks a random challenge matching the constraints, preferring
// answers not in Excluded. When every entry of the required length has
// already been used, the exclusion is ignored and recycled reports true
// so the caller can clear its used-set for that length. Returns
// ErrExhausted only when no corpus data exists for the length/language
// at all.
func (c *Corpus) Draw(con Constraints) (ch Challenge, recycled bool, err error) {
	candidates := c.ByLength(con.WordLength, con.Language)
	if len(candidates) == 0 {
		return Challenge{}, false, ErrExhausted
	}

	fresh := lo.Filter(candidates, func(ch Challenge, _ int) bool {
		return !slices.Contains(con.Excluded, ch.Answer)
	})
	if len(fresh) == 0 {
		// Everything of this length has been used; recycle the pool.
		fresh = candidates
		recycled = true
	}

	return fresh[randomIndex(len(fresh))], recycled, nil
}

// Decoys returns up to n distinct answers of the given length and
// language, skipping anything in exclude. Used to pad recall gate
// rounds with plausible wrong options.
func (c *Corpus) Decoys(wordLength int, language string, exclude []string, n int) []string {
	candidates := c.ByLength(wordLength, language)
	pool := lo.FilterMap(candidates, func(ch Challenge, _ int) (string, bool) {
		return ch.Answer, !slices.Contains(exclude, ch.Answer)
	})
	out := make([]string, 0, n)
	for len(pool) > 0 && len(out) < n {
		i := randomIndex(len(pool))
		out = append(out, pool[i])
		pool = append(pool[:i], pool[i+1:]...)
	}
	return out
}

// randomIndex returns a uniform index in [0, n). Falls back to 0 if the
// random source fails, matching how word selection degrades elsewhere.
func randomIndex(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}
