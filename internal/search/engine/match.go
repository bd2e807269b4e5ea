package engine

import (
	"fmt"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"

	apperrors "github.com/Janucorn/searchd/pkg/errors"
)

// MatchDocument reports which plus terms of raw appear in the document.
// If any minus term appears, the word list is empty. The document's
// status is returned alongside. The Parallel variant returns the words
// sorted ascending with duplicates removed; the Sequential variant keeps
// the parsed (sorted, deduplicated) query order.
func (e *Engine) MatchDocument(mode Mode, raw string, id int) ([]string, Status, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	data, ok := e.docs[id]
	if !ok {
		return nil, 0, fmt.Errorf("document id %d: %w", id, apperrors.ErrDocumentNotFound)
	}

	// The parallel path skips query deduplication and cleans up after
	// matching instead; scanning a few duplicate words is cheaper than
	// sorting the whole query up front.
	query, err := e.parseQuery(raw, mode == Sequential)
	if err != nil {
		return nil, 0, err
	}

	words := e.docWords[id]

	if mode == Parallel {
		matched := matchParallel(query.Minus, query.Plus, words)
		return matched, data.status, nil
	}

	for _, word := range query.Minus {
		if _, hit := words[word]; hit {
			return []string{}, data.status, nil
		}
	}
	matched := make([]string, 0, len(query.Plus))
	for _, word := range query.Plus {
		if _, hit := words[word]; hit {
			matched = append(matched, word)
		}
	}
	return matched, data.status, nil
}

func matchParallel(minus, plus []string, words map[string]float64) []string {
	var minusHit atomic.Bool
	scan(minus, func(_ int, word string) {
		if _, hit := words[word]; hit {
			minusHit.Store(true)
		}
	})
	if minusHit.Load() {
		return []string{}
	}

	// Workers write to their own positions; the compaction below drops
	// the gaps left by non-matching words.
	hits := make([]string, len(plus))
	scan(plus, func(i int, word string) {
		if _, hit := words[word]; hit {
			hits[i] = word
		}
	})

	matched := make([]string, 0, len(plus))
	for _, word := range hits {
		if word != "" {
			matched = append(matched, word)
		}
	}
	slices.Sort(matched)
	return slices.Compact(matched)
}

// scan applies fn to every word, striping the slice across goroutines.
func scan(words []string, fn func(i int, word string)) {
	if len(words) == 0 {
		return
	}
	workers := runtime.GOMAXPROCS(0)
	if workers > len(words) {
		workers = len(words)
	}
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			for i := offset; i < len(words); i += workers {
				fn(i, words[i])
			}
		}(w)
	}
	wg.Wait()
}
