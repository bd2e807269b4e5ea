package engine

import (
	"math"
	"runtime"
	"sort"
	"sync"

	"github.com/Janucorn/searchd/internal/search/concurrent"
	"github.com/Janucorn/searchd/internal/search/parser"
)

// Two relevances within this distance are a tie; the tie falls to the
// higher rating, then the lower id.
const relevanceEpsilon = 0x1p-52

func lessDocuments(a, b Document) bool {
	if math.Abs(a.Relevance-b.Relevance) < relevanceEpsilon {
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
		return a.ID < b.ID
	}
	return a.Relevance > b.Relevance
}

// FindTop runs a ranked query over documents with status ACTUAL,
// sequentially.
func (e *Engine) FindTop(raw string) ([]Document, error) {
	return e.FindTopDocuments(Sequential, raw, nil)
}

// FindTopByStatus runs a ranked query keeping only documents with the
// given status.
func (e *Engine) FindTopByStatus(mode Mode, raw string, status Status) ([]Document, error) {
	return e.FindTopDocuments(mode, raw, ByStatus(status))
}

// FindTopDocuments parses raw and returns at most MaxResults documents
// ranked by TF-IDF relevance, ties broken by descending rating. A nil
// predicate keeps documents with status ACTUAL. Documents matching any
// minus term are excluded. Sequential and Parallel modes return
// pointwise-equal results.
func (e *Engine) FindTopDocuments(mode Mode, raw string, predicate Predicate) ([]Document, error) {
	if predicate == nil {
		predicate = ByStatus(StatusActual)
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	query, err := e.parseQuery(raw, true)
	if err != nil {
		return nil, err
	}

	var matched []Document
	if mode == Parallel {
		matched = e.findAllParallel(query, predicate)
		concurrent.Sort(matched, lessDocuments)
	} else {
		matched = e.findAllSequential(query, predicate)
		sort.SliceStable(matched, func(i, j int) bool {
			return lessDocuments(matched[i], matched[j])
		})
	}

	if len(matched) > MaxResults {
		matched = matched[:MaxResults]
	}
	return matched, nil
}

// inverseDocumentFreq is ln(total documents / documents containing word).
// Callers guarantee the word has at least one posting.
func (e *Engine) inverseDocumentFreq(word string) float64 {
	return math.Log(float64(len(e.docs)) / float64(len(e.wordDocs[word])))
}

func (e *Engine) findAllSequential(query parser.Query, predicate Predicate) []Document {
	relevance := make(map[int]float64)
	for _, word := range query.Plus {
		postings, ok := e.wordDocs[word]
		if !ok {
			continue
		}
		idf := e.inverseDocumentFreq(word)
		for id, tf := range postings {
			data := e.docs[id]
			if predicate(id, data.status, data.rating) {
				relevance[id] += tf * idf
			}
		}
	}

	for _, word := range query.Minus {
		for id := range e.wordDocs[word] {
			delete(relevance, id)
		}
	}

	matched := make([]Document, 0, len(relevance))
	for id, rel := range relevance {
		matched = append(matched, Document{ID: id, Relevance: rel, Rating: e.docs[id].rating})
	}
	return matched
}

func (e *Engine) findAllParallel(query parser.Query, predicate Predicate) []Document {
	// Minus postings are few; collecting them up front is cheaper than
	// synchronising an exclusion check inside the hot loop.
	minusIDs := make(map[int]struct{})
	for _, word := range query.Minus {
		for id := range e.wordDocs[word] {
			minusIDs[id] = struct{}{}
		}
	}

	acc := concurrent.NewMap(len(query.Plus))
	workers := runtime.GOMAXPROCS(0)
	if workers > len(query.Plus) {
		workers = len(query.Plus)
	}
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			for i := offset; i < len(query.Plus); i += workers {
				word := query.Plus[i]
				postings, ok := e.wordDocs[word]
				if !ok {
					continue
				}
				idf := e.inverseDocumentFreq(word)
				for id, tf := range postings {
					if _, excluded := minusIDs[id]; excluded {
						continue
					}
					data := e.docs[id]
					if predicate(id, data.status, data.rating) {
						acc.Add(id, tf*idf)
					}
				}
			}
		}(w)
	}
	wg.Wait()

	ordered := acc.Build()
	matched := make([]Document, 0, ordered.Len())
	for elem := ordered.Front(); elem != nil; elem = elem.Next() {
		id := elem.Key().(int)
		matched = append(matched, Document{
			ID:        id,
			Relevance: elem.Value.(float64),
			Rating:    e.docs[id].rating,
		})
	}
	return matched
}
