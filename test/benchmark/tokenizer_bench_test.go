package benchmark

import (
	"math/rand"
	"testing"

	"github.com/Janucorn/searchd/internal/search/parser"
	"github.com/Janucorn/searchd/internal/search/tokenizer"
)

// BenchmarkTokenizerSplit measures zero-copy word splitting.
func BenchmarkTokenizerSplit(b *testing.B) {
	text := randomText(rand.New(rand.NewSource(1)), 64)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tokenizer.Split(text)
	}
}

// BenchmarkParserParse measures query parsing with deduplication.
func BenchmarkParserParse(b *testing.B) {
	raw := "curly fluffy cat -nasty -rat big dog curly cat"
	isStop := func(string) bool { return false }
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := parser.Parse(raw, isStop, true); err != nil {
			b.Fatal(err)
		}
	}
}
