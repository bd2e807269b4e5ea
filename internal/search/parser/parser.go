// Package parser turns raw query strings into structured queries of
// positive and negated terms.
package parser

import (
	"fmt"
	"slices"

	"github.com/Janucorn/searchd/internal/search/tokenizer"
	apperrors "github.com/Janucorn/searchd/pkg/errors"
)

// Query holds the parsed terms of one search request. Plus terms must
// appear in a matching document, minus terms must not.
type Query struct {
	Plus  []string
	Minus []string
}

// Parse tokenizes raw and classifies every word as a plus or minus term.
// A leading '-' marks a minus term; the bare term must be non-empty, must
// not start with another '-', and must contain no control bytes. Stop
// words (per isStop) are dropped after classification. With dedup set,
// both term lists are sorted and deduplicated; otherwise insertion order
// is preserved.
func Parse(raw string, isStop func(string) bool, dedup bool) (Query, error) {
	var q Query
	for _, word := range tokenizer.Split(raw) {
		term, minus, err := parseWord(word)
		if err != nil {
			return Query{}, err
		}
		if isStop != nil && isStop(term) {
			continue
		}
		if minus {
			q.Minus = append(q.Minus, term)
		} else {
			q.Plus = append(q.Plus, term)
		}
	}
	if dedup {
		slices.Sort(q.Plus)
		q.Plus = slices.Compact(q.Plus)
		slices.Sort(q.Minus)
		q.Minus = slices.Compact(q.Minus)
	}
	return q, nil
}

func parseWord(word string) (term string, minus bool, err error) {
	term = word
	if term != "" && term[0] == '-' {
		minus = true
		term = term[1:]
	}
	if term == "" || term[0] == '-' || !tokenizer.IsValid(term) {
		return "", false, fmt.Errorf("query word %q: %w", word, apperrors.ErrInvalidInput)
	}
	return term, minus, nil
}
