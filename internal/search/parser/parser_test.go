package parser

import (
	"errors"
	"reflect"
	"testing"

	apperrors "github.com/Janucorn/searchd/pkg/errors"
)

func noStop(string) bool { return false }

func stopSet(words ...string) func(string) bool {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return func(w string) bool {
		_, ok := set[w]
		return ok
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		isStop    func(string) bool
		dedup     bool
		wantPlus  []string
		wantMinus []string
	}{
		{
			name:     "plus words only",
			raw:      "cat in the city",
			isStop:   noStop,
			wantPlus: []string{"cat", "in", "the", "city"},
		},
		{
			name:      "minus words split off",
			raw:       "cat -city -gray dog",
			isStop:    noStop,
			wantPlus:  []string{"cat", "dog"},
			wantMinus: []string{"city", "gray"},
		},
		{
			name:     "stop words dropped",
			raw:      "cat in the city",
			isStop:   stopSet("in", "the"),
			wantPlus: []string{"cat", "city"},
		},
		{
			name:      "minus stop word dropped too",
			raw:       "cat -the city",
			isStop:    stopSet("the"),
			wantPlus:  []string{"cat", "city"},
			wantMinus: nil,
		},
		{
			name:      "dedup sorts and removes repeats",
			raw:       "dog cat dog -b -a -b cat",
			isStop:    noStop,
			dedup:     true,
			wantPlus:  []string{"cat", "dog"},
			wantMinus: []string{"a", "b"},
		},
		{
			name:      "insertion order without dedup",
			raw:       "dog cat dog",
			isStop:    noStop,
			wantPlus:  []string{"dog", "cat", "dog"},
			wantMinus: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := Parse(tt.raw, tt.isStop, tt.dedup)
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", tt.raw, err)
			}
			if !reflect.DeepEqual(q.Plus, tt.wantPlus) {
				t.Errorf("plus = %v, want %v", q.Plus, tt.wantPlus)
			}
			if !reflect.DeepEqual(q.Minus, tt.wantMinus) {
				t.Errorf("minus = %v, want %v", q.Minus, tt.wantMinus)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	bad := []string{
		"--cat",
		"cat --dog",
		"-",
		"cat -",
		"inva\x12lid",
		"-inva\x01lid",
	}
	for _, raw := range bad {
		if _, err := Parse(raw, noStop, true); !errors.Is(err, apperrors.ErrInvalidInput) {
			t.Errorf("Parse(%q) error = %v, want ErrInvalidInput", raw, err)
		}
	}
}

func TestParseDeterministic(t *testing.T) {
	a, err := Parse("b a -c a", noStop, true)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Parse("b a -c a", noStop, true)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("same input parsed differently: %v vs %v", a, b)
	}
}
