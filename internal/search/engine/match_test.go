package engine

import (
	"errors"
	"reflect"
	"testing"

	apperrors "github.com/Janucorn/searchd/pkg/errors"
)

func TestMatchDocument(t *testing.T) {
	e := newEngine(t, "")
	mustAdd(t, e, 44, "cat in the city", StatusActual, []int{1})

	for _, mode := range modes {
		words, status, err := e.MatchDocument(mode, "gray -cat city", 44)
		if err != nil {
			t.Fatal(err)
		}
		if len(words) != 0 {
			t.Errorf("mode %v: minus hit should empty the match, got %v", mode, words)
		}
		if status != StatusActual {
			t.Errorf("mode %v: status = %v, want ACTUAL", mode, status)
		}

		words, status, err = e.MatchDocument(mode, "gray cat city", 44)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(words, []string{"cat", "city"}) {
			t.Errorf("mode %v: matched = %v, want [cat city]", mode, words)
		}
		if status != StatusActual {
			t.Errorf("mode %v: status = %v, want ACTUAL", mode, status)
		}
	}
}

func TestMatchDocumentStatus(t *testing.T) {
	e := newEngine(t, "")
	mustAdd(t, e, 7, "cat", StatusBanned, nil)
	for _, mode := range modes {
		_, status, err := e.MatchDocument(mode, "cat", 7)
		if err != nil {
			t.Fatal(err)
		}
		if status != StatusBanned {
			t.Errorf("mode %v: status = %v, want BANNED", mode, status)
		}
	}
}

func TestMatchDocumentParallelSortedUnique(t *testing.T) {
	e := newEngine(t, "")
	mustAdd(t, e, 1, "zebra cat apple", StatusActual, nil)

	// Duplicate query words survive parsing in the parallel variant and
	// must be deduplicated in the result.
	words, _, err := e.MatchDocument(Parallel, "zebra apple zebra cat apple", 1)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(words, []string{"apple", "cat", "zebra"}) {
		t.Errorf("matched = %v, want sorted unique [apple cat zebra]", words)
	}
}

func TestMatchDocumentErrors(t *testing.T) {
	e := newEngine(t, "")
	mustAdd(t, e, 1, "cat", StatusActual, nil)

	for _, mode := range modes {
		if _, _, err := e.MatchDocument(mode, "cat", 99); !errors.Is(err, apperrors.ErrDocumentNotFound) {
			t.Errorf("mode %v: absent id error = %v, want ErrDocumentNotFound", mode, err)
		}
		if _, _, err := e.MatchDocument(mode, "--cat", 1); !errors.Is(err, apperrors.ErrInvalidInput) {
			t.Errorf("mode %v: double minus error = %v, want ErrInvalidInput", mode, err)
		}
	}
}

func TestMatchDocumentStopWordsIgnored(t *testing.T) {
	e := newEngine(t, "in the")
	mustAdd(t, e, 1, "cat in the city", StatusActual, nil)
	for _, mode := range modes {
		words, _, err := e.MatchDocument(mode, "in the cat", 1)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(words, []string{"cat"}) {
			t.Errorf("mode %v: matched = %v, want [cat]", mode, words)
		}
	}
}
