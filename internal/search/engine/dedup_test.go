package engine

import (
	"bytes"
	"reflect"
	"testing"
)

func TestRemoveDuplicates(t *testing.T) {
	e := newEngine(t, "and with")
	// The fixture mirrors the classic duplicate cases: reordered words,
	// repeated words, stop-word-only differences.
	mustAdd(t, e, 1, "funny pet and nasty rat", StatusActual, []int{7})
	mustAdd(t, e, 2, "funny pet with curly hair", StatusActual, []int{7})
	mustAdd(t, e, 3, "funny pet with curly hair", StatusActual, []int{7})                 // duplicate of 2
	mustAdd(t, e, 4, "funny pet and curly hair", StatusActual, []int{7})                 // same set as 2
	mustAdd(t, e, 5, "funny funny pet and nasty nasty rat", StatusActual, []int{7})      // same set as 1
	mustAdd(t, e, 6, "funny pet and not very nasty rat", StatusActual, []int{7})         // distinct
	mustAdd(t, e, 7, "very nasty rat and not very funny pet", StatusActual, []int{7})    // same set as 6
	mustAdd(t, e, 8, "pet with rat and rat and rat", StatusActual, []int{7})             // distinct
	mustAdd(t, e, 9, "nasty rat with curly hair", StatusActual, []int{7})                // distinct

	var out bytes.Buffer
	removed := e.RemoveDuplicates(&out)

	wantRemoved := []int{3, 4, 5, 7}
	if !reflect.DeepEqual(removed, wantRemoved) {
		t.Fatalf("removed = %v, want %v", removed, wantRemoved)
	}
	wantIDs := []int{1, 2, 6, 8, 9}
	if got := e.IDs(); !reflect.DeepEqual(got, wantIDs) {
		t.Errorf("surviving ids = %v, want %v", got, wantIDs)
	}

	wantOut := "Found duplicate document id 3\n" +
		"Found duplicate document id 4\n" +
		"Found duplicate document id 5\n" +
		"Found duplicate document id 7\n"
	if out.String() != wantOut {
		t.Errorf("diagnostics = %q, want %q", out.String(), wantOut)
	}
}

func TestRemoveDuplicatesIdempotent(t *testing.T) {
	e := newEngine(t, "")
	mustAdd(t, e, 1, "cat dog", StatusActual, nil)
	mustAdd(t, e, 2, "dog cat", StatusActual, nil)

	first := e.RemoveDuplicates(nil)
	if !reflect.DeepEqual(first, []int{2}) {
		t.Fatalf("first pass removed %v, want [2]", first)
	}
	if second := e.RemoveDuplicates(nil); len(second) != 0 {
		t.Errorf("second pass removed %v, want nothing", second)
	}
	if got := e.IDs(); !reflect.DeepEqual(got, []int{1}) {
		t.Errorf("ids = %v, want [1]", got)
	}
}

func TestRemoveDuplicatesKeepsEmptyDocuments(t *testing.T) {
	e := newEngine(t, "the")
	mustAdd(t, e, 1, "the", StatusActual, nil)
	mustAdd(t, e, 2, "the the", StatusActual, nil)
	mustAdd(t, e, 3, "cat", StatusActual, nil)

	if removed := e.RemoveDuplicates(nil); len(removed) != 0 {
		t.Errorf("empty documents treated as duplicates: %v", removed)
	}
	if got := e.DocumentCount(); got != 3 {
		t.Errorf("DocumentCount() = %d, want 3", got)
	}
}

func TestRemoveDuplicatesIgnoresFrequencies(t *testing.T) {
	e := newEngine(t, "")
	mustAdd(t, e, 10, "cat cat cat dog", StatusActual, nil)
	mustAdd(t, e, 11, "cat dog dog dog", StatusActual, nil)

	removed := e.RemoveDuplicates(nil)
	if !reflect.DeepEqual(removed, []int{11}) {
		t.Errorf("removed = %v, want [11] (frequencies must not matter)", removed)
	}
}
