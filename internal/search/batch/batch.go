// Package batch runs independent queries against one engine in parallel.
package batch

import (
	"github.com/Janucorn/searchd/internal/search/engine"
	"golang.org/x/sync/errgroup"
)

// ProcessQueries runs every query through FindTop concurrently. The i-th
// result slot holds the i-th query's documents. The first query error
// aborts the batch.
func ProcessQueries(e *engine.Engine, queries []string) ([][]engine.Document, error) {
	results := make([][]engine.Document, len(queries))
	var g errgroup.Group
	for i, query := range queries {
		g.Go(func() error {
			docs, err := e.FindTop(query)
			if err != nil {
				return err
			}
			results[i] = docs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// ProcessQueriesJoined flattens ProcessQueries output into a single list,
// preserving query order.
func ProcessQueriesJoined(e *engine.Engine, queries []string) ([]engine.Document, error) {
	results, err := ProcessQueries(e, queries)
	if err != nil {
		return nil, err
	}
	var joined []engine.Document
	for _, docs := range results {
		joined = append(joined, docs...)
	}
	return joined, nil
}
