package concurrent

import (
	"runtime"
	"sort"
	"sync"
)

// Below this length the goroutine overhead outweighs the split.
const minParallelSort = 2048

// Sort sorts items in place with the given comparator, splitting the
// work across goroutines for large inputs. The result is exactly what a
// sequential sort with the same comparator would produce.
func Sort[T any](items []T, less func(a, b T) bool) {
	depth := 0
	for n := runtime.GOMAXPROCS(0); n > 1; n >>= 1 {
		depth++
	}
	scratch := make([]T, len(items))
	sortRange(items, scratch, less, depth)
}

func sortRange[T any](items, scratch []T, less func(a, b T) bool, depth int) {
	if depth <= 0 || len(items) < minParallelSort {
		sort.SliceStable(items, func(i, j int) bool { return less(items[i], items[j]) })
		return
	}
	mid := len(items) / 2
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sortRange(items[:mid], scratch[:mid], less, depth-1)
	}()
	sortRange(items[mid:], scratch[mid:], less, depth-1)
	wg.Wait()
	merge(items, scratch, mid, less)
}

func merge[T any](items, scratch []T, mid int, less func(a, b T) bool) {
	copy(scratch, items)
	left, right := scratch[:mid], scratch[mid:]
	i, j, k := 0, 0, 0
	for i < len(left) && j < len(right) {
		// Take from the left on ties to keep the merge stable.
		if less(right[j], left[i]) {
			items[k] = right[j]
			j++
		} else {
			items[k] = left[i]
			i++
		}
		k++
	}
	for i < len(left) {
		items[k] = left[i]
		i++
		k++
	}
	for j < len(right) {
		items[k] = right[j]
		j++
		k++
	}
}
