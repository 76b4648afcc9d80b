package store

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "game.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// TestSaveLoadRoundTrip checks a struct value survives the store.
func TestSaveLoadRoundTrip(t *testing.T) {
	s := openTestStore(t)

	type run struct {
		Score     int      `json:"score"`
		WordCount int      `json:"wordCount"`
		Used      []string `json:"used"`
	}
	want := run{Score: 410, WordCount: 24, Used: []string{"fish", "mist"}}

	if err := s.Save(KeyEndlessRun, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	var got run
	if err := s.Load(KeyEndlessRun, &got); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

// TestLoadAbsentKey checks the not-found sentinel.
func TestLoadAbsentKey(t *testing.T) {
	s := openTestStore(t)

	var v int
	if err := s.Load("absent", &v); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load(absent) = %v, want ErrNotFound", err)
	}
}

// TestSaveOverwrites checks keys hold exactly one value.
func TestSaveOverwrites(t *testing.T) {
	s := openTestStore(t)

	if err := s.Save(KeyWallet, 10); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save(KeyWallet, 25); err != nil {
		t.Fatalf("Save: %v", err)
	}
	var coins int
	if err := s.Load(KeyWallet, &coins); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if coins != 25 {
		t.Errorf("wallet = %d, want 25", coins)
	}
}

// TestDelete checks removal, including of absent keys.
func TestDelete(t *testing.T) {
	s := openTestStore(t)

	if err := s.Save(KeyEndlessHighScore, 900); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Delete(KeyEndlessHighScore); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	var v int
	if err := s.Load(KeyEndlessHighScore, &v); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load after delete = %v, want ErrNotFound", err)
	}
	if err := s.Delete("never-existed"); err != nil {
		t.Errorf("Delete(absent) = %v, want nil", err)
	}
}
