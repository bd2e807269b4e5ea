// Command loadtest seeds the search service with generated documents and
// replays a query mix against it, reporting throughput and latency.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

var vocabulary = []string{
	"cat", "dog", "sparrow", "starling", "collar", "tail", "city",
	"curly", "fluffy", "groomed", "fancy", "big", "gray", "white",
	"nasty", "funny", "pet", "rat", "hamster", "eyes", "whiskers",
}

var statuses = []string{"ACTUAL", "IRRELEVANT", "BANNED", "REMOVED"}

type stats struct {
	total     atomic.Int64
	success   atomic.Int64
	errors    atomic.Int64
	mu        sync.Mutex
	latencies []time.Duration
}

func (s *stats) record(d time.Duration, status int, err error) {
	s.total.Add(1)
	if err != nil || status < 200 || status >= 300 {
		s.errors.Add(1)
		return
	}
	s.success.Add(1)
	s.mu.Lock()
	s.latencies = append(s.latencies, d)
	s.mu.Unlock()
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "base URL of the search service")
	docs := flag.Int("docs", 1000, "documents to seed before querying")
	concurrency := flag.Int("concurrency", 10, "number of concurrent query workers")
	duration := flag.Duration("duration", 30*time.Second, "query phase duration")
	flag.Parse()

	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        *concurrency * 2,
			MaxIdleConnsPerHost: *concurrency * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	fmt.Println("=== searchd load test ===")
	fmt.Printf("Target:      %s\n", *baseURL)
	fmt.Printf("Documents:   %d\n", *docs)
	fmt.Printf("Concurrency: %d\n", *concurrency)
	fmt.Printf("Duration:    %s\n", *duration)
	fmt.Println()

	if err := seed(client, *baseURL, *docs); err != nil {
		fmt.Fprintf(os.Stderr, "seeding failed: %v\n", err)
		os.Exit(1)
	}

	st := query(client, *baseURL, *concurrency, *duration)
	report(st, *duration)
}

func seed(client *http.Client, baseURL string, count int) error {
	rng := rand.New(rand.NewSource(42))
	fmt.Print("Seeding")
	for id := 0; id < count; id++ {
		words := make([]string, 3+rng.Intn(6))
		for i := range words {
			words[i] = vocabulary[rng.Intn(len(vocabulary))]
		}
		body, err := json.Marshal(map[string]any{
			"id":      id,
			"text":    strings.Join(words, " "),
			"status":  statuses[rng.Intn(len(statuses))],
			"ratings": []int{rng.Intn(10), rng.Intn(10), rng.Intn(10)},
		})
		if err != nil {
			return err
		}
		resp, err := client.Post(baseURL+"/api/v1/documents", "application/json", bytes.NewReader(body))
		if err != nil {
			return err
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusConflict {
			return fmt.Errorf("document %d: status %d", id, resp.StatusCode)
		}
		if id%100 == 0 {
			fmt.Print(".")
		}
	}
	fmt.Println(" done")
	return nil
}

func query(client *http.Client, baseURL string, concurrency int, duration time.Duration) *stats {
	st := &stats{latencies: make([]time.Duration, 0, 100000)}
	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()

	var wg sync.WaitGroup
	fmt.Print("Querying")
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(int64(workerID)))
			for {
				select {
				case <-ctx.Done():
					return
				default:
				}

				q := vocabulary[rng.Intn(len(vocabulary))] + " " + vocabulary[rng.Intn(len(vocabulary))]
				if rng.Intn(4) == 0 {
					q += " -" + vocabulary[rng.Intn(len(vocabulary))]
				}
				searchURL := fmt.Sprintf("%s/api/v1/search?q=%s", baseURL, url.QueryEscape(q))
				if rng.Intn(2) == 0 {
					searchURL += "&mode=parallel"
				}

				req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
				if err != nil {
					st.record(0, 0, err)
					continue
				}
				start := time.Now()
				resp, err := client.Do(req)
				elapsed := time.Since(start)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					st.record(elapsed, 0, err)
					continue
				}
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				st.record(elapsed, resp.StatusCode, nil)
			}
		}(w)
	}
	wg.Wait()
	fmt.Println(" done")
	fmt.Println()
	return st
}

func report(st *stats, duration time.Duration) {
	total := st.total.Load()
	fmt.Println("=== Results ===")
	fmt.Printf("Total Requests: %d\n", total)
	fmt.Printf("Successful:     %d\n", st.success.Load())
	fmt.Printf("Errors:         %d\n", st.errors.Load())
	if total > 0 {
		fmt.Printf("Requests/sec:   %.2f\n", float64(total)/duration.Seconds())
	}

	st.mu.Lock()
	latencies := make([]time.Duration, len(st.latencies))
	copy(latencies, st.latencies)
	st.mu.Unlock()
	if len(latencies) == 0 {
		return
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}
	fmt.Println()
	fmt.Println("=== Latency ===")
	fmt.Printf("Min: %s\n", latencies[0])
	fmt.Printf("Avg: %s\n", sum/time.Duration(len(latencies)))
	fmt.Printf("P50: %s\n", percentile(latencies, 50))
	fmt.Printf("P95: %s\n", percentile(latencies, 95))
	fmt.Printf("P99: %s\n", percentile(latencies, 99))
	fmt.Printf("Max: %s\n", latencies[len(latencies)-1])
}

func percentile(sorted []time.Duration, pct int) time.Duration {
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
