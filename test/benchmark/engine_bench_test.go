// Package benchmark contains Go benchmarks for the search engine core:
// document indexing, ranked queries in both execution modes, and
// duplicate pruning.
package benchmark

import (
	"fmt"
	"io"
	"math/rand"
	"strings"
	"testing"

	"github.com/Janucorn/searchd/internal/search/engine"
)

var words = []string{
	"cat", "dog", "sparrow", "starling", "collar", "tail", "city",
	"curly", "fluffy", "groomed", "fancy", "big", "gray", "white",
	"nasty", "funny", "pet", "rat", "hamster", "eyes", "whiskers",
	"evgeny", "vasily", "eugene", "john", "house", "mouse", "town",
}

func randomText(rng *rand.Rand, n int) string {
	out := make([]string, n)
	for i := range out {
		out[i] = words[rng.Intn(len(words))]
	}
	return strings.Join(out, " ")
}

func seededEngine(b *testing.B, docs int) *engine.Engine {
	b.Helper()
	e, err := engine.New("in the and with")
	if err != nil {
		b.Fatal(err)
	}
	rng := rand.New(rand.NewSource(1))
	for id := 0; id < docs; id++ {
		status := engine.Status(rng.Intn(4))
		if err := e.AddDocument(id, randomText(rng, 8), status, []int{rng.Intn(10)}); err != nil {
			b.Fatal(err)
		}
	}
	return e
}

// BenchmarkAddDocument measures per-document insert throughput.
func BenchmarkAddDocument(b *testing.B) {
	e, err := engine.New("in the")
	if err != nil {
		b.Fatal(err)
	}
	rng := rand.New(rand.NewSource(1))
	texts := make([]string, 1024)
	for i := range texts {
		texts[i] = randomText(rng, 8)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := e.AddDocument(i, texts[i%len(texts)], engine.StatusActual, []int{1, 2, 3}); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkFindTopSequential measures ranked query latency over 10 000
// documents.
func BenchmarkFindTopSequential(b *testing.B) {
	e := seededEngine(b, 10000)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.FindTopByStatus(engine.Sequential, "curly cat -nasty", engine.StatusActual); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkFindTopParallel measures the sharded-accumulator query path.
func BenchmarkFindTopParallel(b *testing.B) {
	e := seededEngine(b, 10000)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.FindTopByStatus(engine.Parallel, "curly fluffy groomed fancy cat -nasty", engine.StatusActual); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkFindTopConcurrentReaders measures reader throughput with the
// engine lock shared across goroutines.
func BenchmarkFindTopConcurrentReaders(b *testing.B) {
	e := seededEngine(b, 10000)
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := e.FindTopByStatus(engine.Sequential, "big dog", engine.StatusActual); err != nil {
				b.Fatal(err)
			}
		}
	})
}

// BenchmarkMatchDocument measures single-document matching.
func BenchmarkMatchDocument(b *testing.B) {
	e := seededEngine(b, 1000)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := e.MatchDocument(engine.Sequential, "curly cat fancy collar", i%1000); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkRemoveDuplicates measures a pruning pass over a corpus with
// many repeated word sets.
func BenchmarkRemoveDuplicates(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		e, err := engine.New("")
		if err != nil {
			b.Fatal(err)
		}
		rng := rand.New(rand.NewSource(7))
		for id := 0; id < 2000; id++ {
			// Few distinct word sets, so most documents collide.
			text := fmt.Sprintf("pet %s %s", words[rng.Intn(6)], words[rng.Intn(6)])
			if err := e.AddDocument(id, text, engine.StatusActual, nil); err != nil {
				b.Fatal(err)
			}
		}
		b.StartTimer()
		e.RemoveDuplicates(io.Discard)
	}
}
