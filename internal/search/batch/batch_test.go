package batch

import (
	"errors"
	"testing"

	"github.com/Janucorn/searchd/internal/search/engine"
	apperrors "github.com/Janucorn/searchd/pkg/errors"
)

func seed(t *testing.T) *engine.Engine {
	t.Helper()
	e, err := engine.New("and with")
	if err != nil {
		t.Fatal(err)
	}
	texts := []string{
		"white cat and yellow hat",
		"curly cat curly tail",
		"nasty dog with big eyes",
		"nasty pigeon john",
	}
	for i, text := range texts {
		if err := e.AddDocument(i+1, text, engine.StatusActual, []int{1, 2}); err != nil {
			t.Fatal(err)
		}
	}
	return e
}

func TestProcessQueries(t *testing.T) {
	e := seed(t)
	queries := []string{"nasty rat -not", "not very funny nasty pet", "curly hat nasty cat", ""}

	results, err := ProcessQueries(e, queries)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != len(queries) {
		t.Fatalf("got %d result lists, want %d", len(results), len(queries))
	}

	// Output order is the query order: slot i answers query i.
	for i, query := range queries {
		want, err := e.FindTop(query)
		if err != nil {
			t.Fatal(err)
		}
		if len(results[i]) != len(want) {
			t.Errorf("query %d %q: %d results, want %d", i, query, len(results[i]), len(want))
			continue
		}
		for j := range want {
			if results[i][j] != want[j] {
				t.Errorf("query %d slot %d: %+v, want %+v", i, j, results[i][j], want[j])
			}
		}
	}
}

func TestProcessQueriesJoined(t *testing.T) {
	e := seed(t)
	queries := []string{"nasty dog", "curly cat", "pigeon"}

	perQuery, err := ProcessQueries(e, queries)
	if err != nil {
		t.Fatal(err)
	}
	joined, err := ProcessQueriesJoined(e, queries)
	if err != nil {
		t.Fatal(err)
	}

	var want []engine.Document
	for _, docs := range perQuery {
		want = append(want, docs...)
	}
	if len(joined) != len(want) {
		t.Fatalf("joined length = %d, want %d", len(joined), len(want))
	}
	for i := range want {
		if joined[i] != want[i] {
			t.Errorf("joined[%d] = %+v, want %+v", i, joined[i], want[i])
		}
	}
}

func TestProcessQueriesError(t *testing.T) {
	e := seed(t)
	if _, err := ProcessQueries(e, []string{"cat", "--broken"}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("error = %v, want ErrInvalidInput", err)
	}
}

func TestProcessQueriesEmpty(t *testing.T) {
	e := seed(t)
	results, err := ProcessQueries(e, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("results = %v, want none", results)
	}
}
