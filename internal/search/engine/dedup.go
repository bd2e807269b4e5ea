package engine

import (
	"fmt"
	"io"
	"slices"
	"strings"

	farmhash "github.com/leemcloughlin/gofarmhash"
)

// Word-set signatures join sorted words with a unit separator; valid
// words cannot contain it, so distinct sets hash distinct strings.
const signatureSep = "\x1f"

// RemoveDuplicates removes every document whose distinct-word set equals
// that of an earlier document, keeping the lowest id of each group.
// Frequencies are ignored: two documents with the same words in
// different proportions are duplicates. One line per removal is written
// to out; the removed ids are returned in ascending order. Documents
// with no indexed words are never considered duplicates of each other.
func (e *Engine) RemoveDuplicates(out io.Writer) []int {
	e.mu.Lock()
	defer e.mu.Unlock()

	type wordSet struct {
		id    int
		words []string
	}
	seen := make(map[uint32][]wordSet)
	var removed []int

	for elem := e.ids.Front(); elem != nil; elem = elem.Next() {
		id := elem.Key().(int)
		freqs := e.docWords[id]
		if len(freqs) == 0 {
			continue
		}
		words := make([]string, 0, len(freqs))
		for word := range freqs {
			words = append(words, word)
		}
		slices.Sort(words)

		sig := farmhash.Hash32WithSeed([]byte(strings.Join(words, signatureSep)), 0)
		duplicate := false
		for _, earlier := range seen[sig] {
			if slices.Equal(earlier.words, words) {
				duplicate = true
				break
			}
		}
		if duplicate {
			removed = append(removed, id)
			continue
		}
		seen[sig] = append(seen[sig], wordSet{id: id, words: words})
	}

	for _, id := range removed {
		if out != nil {
			fmt.Fprintf(out, "Found duplicate document id %d\n", id)
		}
		// The id came from the identifier set moments ago; removal
		// cannot fail.
		_ = e.removeLocked(Sequential, id)
	}
	if len(removed) > 0 {
		e.logger.Info("duplicates removed", "count", len(removed))
	}
	return removed
}
