// Package engine implements the in-memory search index: document
// add/remove, TF-IDF ranked queries with plus/minus terms, per-document
// matching, and duplicate pruning. All state lives in process memory.
//
// The engine keeps a forward index (document id → word → term frequency)
// and its transpose, an inverted index (word → document id → term
// frequency). Each document's raw text is retained for the life of the
// document; index keys are substrings of that text, so a word costs a
// string header, not a copy. Writers take the engine lock exclusively,
// readers share it.
package engine

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/huandu/skiplist"

	"github.com/Janucorn/searchd/internal/search/parser"
	"github.com/Janucorn/searchd/internal/search/tokenizer"
	apperrors "github.com/Janucorn/searchd/pkg/errors"
)

// MaxResults caps the length of every ranked result list.
const MaxResults = 5

// Status tags a document. It has no effect on ranking; predicates and
// match results observe it.
type Status int

const (
	StatusActual Status = iota
	StatusIrrelevant
	StatusBanned
	StatusRemoved
)

var statusNames = map[Status]string{
	StatusActual:     "ACTUAL",
	StatusIrrelevant: "IRRELEVANT",
	StatusBanned:     "BANNED",
	StatusRemoved:    "REMOVED",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// ParseStatus converts the wire form ("ACTUAL", "BANNED", ...) back to a
// Status.
func ParseStatus(name string) (Status, error) {
	for s, n := range statusNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown status %q: %w", name, apperrors.ErrInvalidInput)
}

// Document is one ranked search hit.
type Document struct {
	ID        int     `json:"id"`
	Relevance float64 `json:"relevance"`
	Rating    int     `json:"rating"`
}

// Predicate filters documents during ranking.
type Predicate func(id int, status Status, rating int) bool

// ByStatus returns a predicate keeping only documents with the given
// status.
func ByStatus(status Status) Predicate {
	return func(_ int, s Status, _ int) bool { return s == status }
}

// Mode selects the execution strategy of an operation. Sequential and
// Parallel produce identical observable results for every input.
type Mode int

const (
	Sequential Mode = iota
	Parallel
)

type docData struct {
	rating int
	status Status
}

// Engine is the search index. The zero value is not usable; construct
// with New or NewFromWords.
type Engine struct {
	mu        sync.RWMutex
	stopWords map[string]struct{}
	wordDocs  map[string]map[int]float64
	docWords  map[int]map[string]float64
	docs      map[int]docData
	ids       *skiplist.SkipList
	texts     map[int]string
	logger    *slog.Logger
}

// New builds an engine whose stop words are the space-separated words of
// stopWords.
func New(stopWords string) (*Engine, error) {
	return NewFromWords(tokenizer.Split(stopWords))
}

// NewFromWords builds an engine from a stop-word slice. Empty entries are
// dropped; an entry containing a control byte fails construction.
func NewFromWords(stopWords []string) (*Engine, error) {
	set := make(map[string]struct{}, len(stopWords))
	for _, word := range stopWords {
		if word == "" {
			continue
		}
		if !tokenizer.IsValid(word) {
			return nil, fmt.Errorf("stop word %q: %w", word, apperrors.ErrInvalidInput)
		}
		set[word] = struct{}{}
	}
	return &Engine{
		stopWords: set,
		wordDocs:  make(map[string]map[int]float64),
		docWords:  make(map[int]map[string]float64),
		docs:      make(map[int]docData),
		ids:       skiplist.New(skiplist.Int),
		texts:     make(map[int]string),
		logger:    slog.Default().With("component", "engine"),
	}, nil
}

func (e *Engine) isStop(word string) bool {
	_, ok := e.stopWords[word]
	return ok
}

// AddDocument indexes a document. The id must be non-negative and not yet
// indexed; every word of text must be free of control bytes. Validation
// happens before any index mutation, so a failed add leaves the engine
// unchanged. A document whose words are all stop words is admitted with
// no index entries.
func (e *Engine) AddDocument(id int, text string, status Status, ratings []int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if id < 0 {
		return fmt.Errorf("document id %d is negative: %w", id, apperrors.ErrInvalidInput)
	}
	if _, ok := e.docs[id]; ok {
		return fmt.Errorf("document id %d: %w", id, apperrors.ErrDocumentExists)
	}

	words := make([]string, 0)
	for _, word := range tokenizer.Split(text) {
		if !tokenizer.IsValid(word) {
			return fmt.Errorf("document word %q: %w", word, apperrors.ErrInvalidInput)
		}
		if !e.isStop(word) {
			words = append(words, word)
		}
	}

	// The words above are substrings of text; retaining text keeps them
	// all alive until the document is removed.
	e.texts[id] = text

	if n := len(words); n > 0 {
		inv := 1.0 / float64(n)
		freqs := make(map[string]float64, n)
		for _, word := range words {
			freqs[word] += inv
			dm, ok := e.wordDocs[word]
			if !ok {
				dm = make(map[int]float64)
				e.wordDocs[word] = dm
			}
			dm[id] += inv
		}
		e.docWords[id] = freqs
	} else {
		e.docWords[id] = make(map[string]float64)
	}

	e.docs[id] = docData{rating: averageRating(ratings), status: status}
	e.ids.Set(id, struct{}{})

	e.logger.Debug("document added",
		"doc_id", id,
		"words", len(words),
		"status", status.String(),
	)
	return nil
}

// averageRating truncates toward zero, returning 0 for an empty list.
func averageRating(ratings []int) int {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return sum / len(ratings)
}

// RemoveDocument deletes a document and every index entry derived from
// it. In Parallel mode the per-word posting erasure runs across
// goroutines; words left without postings are swept afterwards.
func (e *Engine) RemoveDocument(mode Mode, id int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.removeLocked(mode, id)
}

func (e *Engine) removeLocked(mode Mode, id int) error {
	freqs, ok := e.docWords[id]
	if !ok {
		return fmt.Errorf("document id %d: %w", id, apperrors.ErrDocumentNotFound)
	}

	words := make([]string, 0, len(freqs))
	for word := range freqs {
		words = append(words, word)
	}

	if mode == Parallel && len(words) > 1 {
		// Each word owns a distinct posting map, so erasures touch
		// disjoint maps; the outer index is only read here.
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
					delete(e.wordDocs[words[i]], id)
				}
			}(w)
		}
		wg.Wait()
		for _, word := range words {
			if len(e.wordDocs[word]) == 0 {
				delete(e.wordDocs, word)
			}
		}
	} else {
		for _, word := range words {
			dm := e.wordDocs[word]
			delete(dm, id)
			if len(dm) == 0 {
				delete(e.wordDocs, word)
			}
		}
	}

	delete(e.docWords, id)
	delete(e.docs, id)
	e.ids.Remove(id)
	delete(e.texts, id)

	e.logger.Debug("document removed", "doc_id", id, "words", len(words))
	return nil
}

// DocumentCount returns the number of indexed documents.
func (e *Engine) DocumentCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.docs)
}

// WordFrequencies returns a copy of the word → term-frequency mapping of
// a document, empty when the id is absent.
func (e *Engine) WordFrequencies(id int) map[string]float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	freqs, ok := e.docWords[id]
	if !ok {
		return map[string]float64{}
	}
	out := make(map[string]float64, len(freqs))
	for word, tf := range freqs {
		out[word] = tf
	}
	return out
}

// IDs returns every indexed document id in ascending order.
func (e *Engine) IDs() []int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]int, 0, e.ids.Len())
	for elem := e.ids.Front(); elem != nil; elem = elem.Next() {
		out = append(out, elem.Key().(int))
	}
	return out
}

func (e *Engine) parseQuery(raw string, dedup bool) (parser.Query, error) {
	return parser.Parse(raw, e.isStop, dedup)
}
