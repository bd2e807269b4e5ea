// Package handler exposes the search engine over HTTP.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Janucorn/searchd/internal/analytics"
	"github.com/Janucorn/searchd/internal/search/batch"
	"github.com/Janucorn/searchd/internal/search/cache"
	"github.com/Janucorn/searchd/internal/search/engine"
	"github.com/Janucorn/searchd/internal/search/requests"
	apperrors "github.com/Janucorn/searchd/pkg/errors"
	"github.com/Janucorn/searchd/pkg/logger"
	"github.com/Janucorn/searchd/pkg/metrics"
	"github.com/Janucorn/searchd/pkg/middleware"
)

// Handler wires the engine, the rolling request queue, and the optional
// cache, analytics, and metrics collaborators into HTTP endpoints.
type Handler struct {
	eng       *engine.Engine
	queue     *requests.Queue
	cache     *cache.QueryCache
	collector *analytics.Collector
	metrics   *metrics.Metrics
	pageSize  int
	logger    *slog.Logger
}

// New creates a Handler. cache, collector, and m may be nil; the
// corresponding features are skipped.
func New(
	eng *engine.Engine,
	queue *requests.Queue,
	queryCache *cache.QueryCache,
	collector *analytics.Collector,
	m *metrics.Metrics,
	pageSize int,
) *Handler {
	if pageSize < 1 {
		pageSize = engine.MaxResults
	}
	return &Handler{
		eng:       eng,
		queue:     queue,
		cache:     queryCache,
		collector: collector,
		metrics:   m,
		pageSize:  pageSize,
		logger:    slog.Default().With("component", "search-handler"),
	}
}

type addDocumentRequest struct {
	ID      int    `json:"id"`
	Text    string `json:"text"`
	Status  string `json:"status"`
	Ratings []int  `json:"ratings"`
}

// AddDocument handles POST /api/v1/documents.
func (h *Handler) AddDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var req addDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	status := engine.StatusActual
	if req.Status != "" {
		var err error
		if status, err = engine.ParseStatus(req.Status); err != nil {
			h.writeError(w, http.StatusBadRequest, "unknown status "+req.Status)
			return
		}
	}

	if err := h.eng.AddDocument(req.ID, req.Text, status, req.Ratings); err != nil {
		log.Error("add document failed", "doc_id", req.ID, "error", err)
		h.writeError(w, apperrors.HTTPStatusCode(err), err.Error())
		return
	}

	h.afterMutation(r)
	if h.metrics != nil {
		h.metrics.DocsIndexedTotal.Inc()
	}
	if h.collector != nil {
		h.collector.Track(analytics.IndexEvent{
			Type:       analytics.EventIndex,
			DocumentID: req.ID,
			Words:      len(h.eng.WordFrequencies(req.ID)),
			Timestamp:  time.Now().UTC(),
		})
	}
	log.Info("document added", "doc_id", req.ID, "status", status.String())
	h.writeJSON(w, http.StatusCreated, map[string]any{"id": req.ID})
}

// RemoveDocument handles DELETE /api/v1/documents/{id}. The optional
// mode=parallel query parameter selects the parallel removal path.
func (h *Handler) RemoveDocument(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "document id must be an integer")
		return
	}
	mode := engine.Sequential
	if r.URL.Query().Get("mode") == "parallel" {
		mode = engine.Parallel
	}

	if err := h.eng.RemoveDocument(mode, id); err != nil {
		h.writeError(w, apperrors.HTTPStatusCode(err), err.Error())
		return
	}

	h.afterMutation(r)
	if h.metrics != nil {
		h.metrics.DocsRemovedTotal.Inc()
	}
	if h.collector != nil {
		h.collector.Track(analytics.IndexEvent{
			Type:       analytics.EventRemove,
			DocumentID: id,
			Timestamp:  time.Now().UTC(),
		})
	}
	log.Info("document removed", "doc_id", id)
	h.writeJSON(w, http.StatusOK, map[string]any{"id": id, "removed": true})
}

// ListDocuments handles GET /api/v1/documents.
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	ids := h.eng.IDs()
	h.writeJSON(w, http.StatusOK, map[string]any{
		"count": len(ids),
		"ids":   ids,
	})
}

// WordFrequencies handles GET /api/v1/documents/{id}/frequencies. An
// unknown id yields an empty mapping, mirroring the engine contract.
func (h *Handler) WordFrequencies(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "document id must be an integer")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"id":          id,
		"frequencies": h.eng.WordFrequencies(id),
	})
}

// MatchDocument handles GET /api/v1/documents/{id}/match.
func (h *Handler) MatchDocument(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "document id must be an integer")
		return
	}
	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	mode := engine.Sequential
	if r.URL.Query().Get("mode") == "parallel" {
		mode = engine.Parallel
	}

	words, status, err := h.eng.MatchDocument(mode, query, id)
	if err != nil {
		h.writeError(w, apperrors.HTTPStatusCode(err), err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"id":     id,
		"words":  words,
		"status": status.String(),
	})
}

// Search handles GET /api/v1/search. Sequential queries flow through the
// rolling request queue, so no-result bookkeeping sees them; with
// mode=parallel the query runs on the engine's parallel path directly and
// the queue does not record it. The optional cache short-circuits
// repeats. The ≤5 ranked results are sliced into pages for display.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	statusName := r.URL.Query().Get("status")
	if statusName == "" {
		statusName = engine.StatusActual.String()
	}
	status, err := engine.ParseStatus(statusName)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "unknown status "+statusName)
		return
	}
	page, pageSize, ok := h.pageParams(w, r)
	if !ok {
		return
	}
	parallel := r.URL.Query().Get("mode") == "parallel"

	compute := func() (*cache.Result, error) {
		var docs []engine.Document
		var err error
		if parallel {
			docs, err = h.eng.FindTopByStatus(engine.Parallel, query, status)
		} else {
			docs, err = h.queue.AddFindRequestByStatus(query, status)
		}
		if err != nil {
			return nil, err
		}
		return &cache.Result{
			Query:     query,
			Status:    statusName,
			Page:      page,
			PageSize:  pageSize,
			Total:     len(docs),
			Documents: paginate(docs, page, pageSize),
		}, nil
	}

	var result *cache.Result
	cacheHit := false
	if h.cache != nil {
		result, cacheHit, err = h.cache.GetOrCompute(ctx, query, statusName, page, pageSize, compute)
	} else {
		result, err = compute()
	}
	if err != nil {
		if h.metrics != nil {
			h.metrics.SearchQueriesTotal.WithLabelValues("error").Inc()
		}
		log.Error("search failed", "query", query, "error", err)
		h.writeError(w, apperrors.HTTPStatusCode(err), err.Error())
		return
	}

	latency := time.Since(start)
	h.recordSearch(r, result, cacheHit, latency)
	log.Info("search completed",
		"query", query,
		"status", statusName,
		"hits", result.Total,
		"cache_hit", cacheHit,
		"latency_ms", latency.Milliseconds(),
	)
	h.writeJSON(w, http.StatusOK, result)
}

type batchRequest struct {
	Queries []string `json:"queries"`
	Joined  bool     `json:"joined"`
}

// BatchSearch handles POST /api/v1/search/batch.
func (h *Handler) BatchSearch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Joined {
		docs, err := batch.ProcessQueriesJoined(h.eng, req.Queries)
		if err != nil {
			h.writeError(w, apperrors.HTTPStatusCode(err), err.Error())
			return
		}
		if docs == nil {
			docs = []engine.Document{}
		}
		h.writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
		return
	}
	results, err := batch.ProcessQueries(h.eng, req.Queries)
	if err != nil {
		h.writeError(w, apperrors.HTTPStatusCode(err), err.Error())
		return
	}
	for i := range results {
		if results[i] == nil {
			results[i] = []engine.Document{}
		}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// Deduplicate handles POST /api/v1/documents/deduplicate. Diagnostic
// lines go to the service log; the removed ids come back to the caller.
func (h *Handler) Deduplicate(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	removed := h.eng.RemoveDuplicates(logLineWriter{log})
	if removed == nil {
		removed = []int{}
	}

	if len(removed) > 0 {
		h.afterMutation(r)
	}
	if h.metrics != nil {
		h.metrics.DuplicatesRemoved.Add(float64(len(removed)))
	}
	if h.collector != nil {
		for _, id := range removed {
			h.collector.Track(analytics.IndexEvent{
				Type:       analytics.EventRemove,
				DocumentID: id,
				Timestamp:  time.Now().UTC(),
			})
		}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"removed": removed,
		"count":   len(removed),
	})
}

// RequestStats handles GET /api/v1/requests/stats.
func (h *Handler) RequestStats(w http.ResponseWriter, r *http.Request) {
	count := h.queue.NoResultCount()
	if h.metrics != nil {
		h.metrics.NoResultWindowCount.Set(float64(count))
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"no_result_requests": count})
}

// CacheStats handles GET /api/v1/cache/stats.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": hitRate,
	})
}

// CacheInvalidate handles POST /api/v1/cache/invalidate.
func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) pageParams(w http.ResponseWriter, r *http.Request) (page, pageSize int, ok bool) {
	page = 1
	pageSize = h.pageSize
	if v := r.URL.Query().Get("page"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "page must be a positive integer")
			return 0, 0, false
		}
		page = parsed
	}
	if v := r.URL.Query().Get("page_size"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "page_size must be a positive integer")
			return 0, 0, false
		}
		pageSize = parsed
	}
	return page, pageSize, true
}

func paginate(docs []engine.Document, page, pageSize int) []engine.Document {
	start := (page - 1) * pageSize
	if start >= len(docs) {
		return []engine.Document{}
	}
	end := start + pageSize
	if end > len(docs) {
		end = len(docs)
	}
	return docs[start:end]
}

func (h *Handler) recordSearch(r *http.Request, result *cache.Result, cacheHit bool, latency time.Duration) {
	if h.metrics != nil {
		resultType := "hit"
		if result.Total == 0 {
			resultType = "zero_result"
		}
		h.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
		h.metrics.SearchResultsCount.Observe(float64(result.Total))
		cacheStatus := "miss"
		if cacheHit {
			cacheStatus = "hit"
			h.metrics.CacheHitsTotal.Inc()
		} else if h.cache != nil {
			h.metrics.CacheMissesTotal.Inc()
		}
		h.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(latency.Seconds())
		h.metrics.IndexedDocuments.Set(float64(h.eng.DocumentCount()))
	}
	if h.collector != nil {
		h.collector.Track(analytics.SearchEvent{
			Type:       analytics.EventSearch,
			Query:      result.Query,
			Status:     result.Status,
			Hits:       result.Total,
			LatencyMs:  latency.Milliseconds(),
			CacheHit:   cacheHit,
			ZeroResult: result.Total == 0,
			Timestamp:  time.Now().UTC(),
			RequestID:  middleware.GetRequestID(r.Context()),
		})
	}
}

// afterMutation invalidates cached search results once the index changed.
func (h *Handler) afterMutation(r *http.Request) {
	if h.metrics != nil {
		h.metrics.IndexedDocuments.Set(float64(h.eng.DocumentCount()))
	}
	if h.cache == nil {
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
	}
}

// logLineWriter forwards diagnostic lines to the structured log.
type logLineWriter struct {
	log *slog.Logger
}

func (w logLineWriter) Write(p []byte) (int, error) {
	line := string(p)
	if n := len(line); n > 0 && line[n-1] == '\n' {
		line = line[:n-1]
	}
	if line != "" {
		w.log.Info(line)
	}
	return len(p), nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
