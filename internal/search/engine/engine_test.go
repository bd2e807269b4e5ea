package engine

import (
	"errors"
	"math"
	"reflect"
	"testing"

	apperrors "github.com/Janucorn/searchd/pkg/errors"
)

func newEngine(t *testing.T, stopWords string) *Engine {
	t.Helper()
	e, err := New(stopWords)
	if err != nil {
		t.Fatalf("New(%q): %v", stopWords, err)
	}
	return e
}

func mustAdd(t *testing.T, e *Engine, id int, text string, status Status, ratings []int) {
	t.Helper()
	if err := e.AddDocument(id, text, status, ratings); err != nil {
		t.Fatalf("AddDocument(%d, %q): %v", id, text, err)
	}
}

func TestNewRejectsInvalidStopWords(t *testing.T) {
	if _, err := New("in th\x02e"); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("New with control byte: error = %v, want ErrInvalidInput", err)
	}
	if _, err := NewFromWords([]string{"in", "", "the"}); err != nil {
		t.Errorf("empty stop words should be dropped silently, got %v", err)
	}
}

func TestAddDocumentErrors(t *testing.T) {
	e := newEngine(t, "")
	mustAdd(t, e, 1, "cat", StatusActual, nil)

	tests := []struct {
		name string
		id   int
		text string
		want error
	}{
		{"negative id", -1, "cat", apperrors.ErrInvalidInput},
		{"existing id", 1, "dog", apperrors.ErrDocumentExists},
		{"control byte", 2, "c\x12t in the city", apperrors.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.AddDocument(tt.id, tt.text, StatusActual, nil)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}

	// A failed add must leave the engine unchanged.
	if got := e.DocumentCount(); got != 1 {
		t.Errorf("DocumentCount() = %d after failed adds, want 1", got)
	}
	if freqs := e.WordFrequencies(2); len(freqs) != 0 {
		t.Errorf("rejected document left frequencies %v", freqs)
	}
}

func TestAverageRating(t *testing.T) {
	tests := []struct {
		ratings []int
		want    int
	}{
		{nil, 0},
		{[]int{}, 0},
		{[]int{1, 2, 3}, 2},
		{[]int{5, 2}, 3},
		{[]int{1, 2}, 1},
		{[]int{-1, -2}, -1}, // truncation toward zero
		{[]int{7}, 7},
	}
	for _, tt := range tests {
		if got := averageRating(tt.ratings); got != tt.want {
			t.Errorf("averageRating(%v) = %d, want %d", tt.ratings, got, tt.want)
		}
	}
}

func TestWordFrequencies(t *testing.T) {
	e := newEngine(t, "in the")
	mustAdd(t, e, 42, "cat in the city cat", StatusActual, []int{1})

	freqs := e.WordFrequencies(42)
	want := map[string]float64{"cat": 2.0 / 3.0, "city": 1.0 / 3.0}
	if len(freqs) != len(want) {
		t.Fatalf("frequencies = %v, want %v", freqs, want)
	}
	for word, tf := range want {
		if math.Abs(freqs[word]-tf) > 1e-12 {
			t.Errorf("tf[%s] = %v, want %v", word, freqs[word], tf)
		}
	}

	if freqs := e.WordFrequencies(99); freqs == nil || len(freqs) != 0 {
		t.Errorf("absent id frequencies = %v, want empty map", freqs)
	}
}

func TestFrequenciesSumToOne(t *testing.T) {
	e := newEngine(t, "the")
	mustAdd(t, e, 1, "the quick brown fox jumps over the lazy dog", StatusActual, nil)
	sum := 0.0
	for _, tf := range e.WordFrequencies(1) {
		sum += tf
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("frequencies sum to %v, want 1", sum)
	}
}

func TestEmptyDocumentAdmitted(t *testing.T) {
	e := newEngine(t, "in the")
	for _, tt := range []struct {
		id   int
		text string
	}{
		{1, ""},
		{2, "in the"},
		{3, "   "},
	} {
		if err := e.AddDocument(tt.id, tt.text, StatusActual, []int{1}); err != nil {
			t.Fatalf("AddDocument(%d, %q): %v", tt.id, tt.text, err)
		}
		if freqs := e.WordFrequencies(tt.id); len(freqs) != 0 {
			t.Errorf("document %d has frequencies %v, want none", tt.id, freqs)
		}
	}
	if got := e.DocumentCount(); got != 3 {
		t.Errorf("DocumentCount() = %d, want 3", got)
	}
	if got := e.IDs(); !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Errorf("IDs() = %v, want [1 2 3]", got)
	}
}

func TestIDsAscending(t *testing.T) {
	e := newEngine(t, "")
	for _, id := range []int{30, 4, 17, 0, 99} {
		mustAdd(t, e, id, "word", StatusActual, nil)
	}
	if got := e.IDs(); !reflect.DeepEqual(got, []int{0, 4, 17, 30, 99}) {
		t.Errorf("IDs() = %v, want ascending", got)
	}
}

func TestRemoveDocument(t *testing.T) {
	for _, mode := range []Mode{Sequential, Parallel} {
		e := newEngine(t, "")
		mustAdd(t, e, 1, "cat city dog house mouse", StatusActual, []int{1})
		mustAdd(t, e, 2, "cat town", StatusActual, []int{1})

		if err := e.RemoveDocument(mode, 1); err != nil {
			t.Fatalf("mode %v: RemoveDocument: %v", mode, err)
		}
		if got := e.DocumentCount(); got != 1 {
			t.Errorf("mode %v: DocumentCount() = %d, want 1", mode, got)
		}
		if freqs := e.WordFrequencies(1); len(freqs) != 0 {
			t.Errorf("mode %v: removed document still has frequencies %v", mode, freqs)
		}
		// Words unique to document 1 must be gone from the inverted index.
		e.mu.RLock()
		for _, word := range []string{"city", "dog", "house", "mouse"} {
			if _, ok := e.wordDocs[word]; ok {
				t.Errorf("mode %v: word %q survived removal", mode, word)
			}
		}
		if postings := e.wordDocs["cat"]; len(postings) != 1 {
			t.Errorf("mode %v: cat postings = %v, want only document 2", mode, postings)
		}
		e.mu.RUnlock()

		if err := e.RemoveDocument(mode, 1); !errors.Is(err, apperrors.ErrDocumentNotFound) {
			t.Errorf("mode %v: second removal error = %v, want ErrDocumentNotFound", mode, err)
		}

		// Add-remove round trip: the id is free for reuse.
		if err := e.AddDocument(1, "fresh text", StatusActual, nil); err != nil {
			t.Errorf("mode %v: re-add after removal: %v", mode, err)
		}
	}
}

func TestIndexSymmetry(t *testing.T) {
	e := newEngine(t, "and")
	mustAdd(t, e, 1, "cat and dog", StatusActual, nil)
	mustAdd(t, e, 2, "dog and bird", StatusActual, nil)
	mustAdd(t, e, 3, "cat cat bird", StatusActual, nil)
	if err := e.RemoveDocument(Sequential, 2); err != nil {
		t.Fatal(err)
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	for id, words := range e.docWords {
		for word, tf := range words {
			got, ok := e.wordDocs[word][id]
			if !ok {
				t.Errorf("forward[%d][%s] has no inverted twin", id, word)
			} else if got != tf {
				t.Errorf("tf mismatch for (%s, %d): %v vs %v", word, id, tf, got)
			}
		}
	}
	for word, postings := range e.wordDocs {
		if len(postings) == 0 {
			t.Errorf("word %q kept with no postings", word)
		}
		for id, tf := range postings {
			if got, ok := e.docWords[id][word]; !ok || got != tf {
				t.Errorf("inverted[%s][%d] has no forward twin", word, id)
			}
		}
	}
}

func TestStatusRoundTrip(t *testing.T) {
	for _, s := range []Status{StatusActual, StatusIrrelevant, StatusBanned, StatusRemoved} {
		parsed, err := ParseStatus(s.String())
		if err != nil {
			t.Fatalf("ParseStatus(%q): %v", s.String(), err)
		}
		if parsed != s {
			t.Errorf("round trip %v -> %q -> %v", s, s.String(), parsed)
		}
	}
	if _, err := ParseStatus("NOPE"); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("ParseStatus(NOPE) error = %v, want ErrInvalidInput", err)
	}
}
