// Package ingest reads document events from Kafka and feeds them to the
// search engine.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Janucorn/searchd/internal/search/engine"
	apperrors "github.com/Janucorn/searchd/pkg/errors"
	"github.com/Janucorn/searchd/pkg/kafka"
)

// DocumentEvent is one document on the documents topic.
type DocumentEvent struct {
	ID      int    `json:"id"`
	Text    string `json:"text"`
	Status  string `json:"status"`
	Ratings []int  `json:"ratings"`
}

// Consumer wraps a Kafka consumer that drives the indexing pipeline.
type Consumer struct {
	consumer *kafka.Consumer
	logger   *slog.Logger
}

// New creates a Consumer backed by the given Kafka consumer.
func New(kafkaConsumer *kafka.Consumer) *Consumer {
	return &Consumer{
		consumer: kafkaConsumer,
		logger:   slog.Default().With("component", "ingest-consumer"),
	}
}

// Start begins consuming. It blocks until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("ingest consumer starting")
	return c.consumer.Start(ctx)
}

// Invalidator drops cached search results after a successful mutation.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// HandleMessage returns a Kafka MessageHandler that indexes every
// document event. Malformed events and rejected documents are logged and
// skipped; AddDocument leaves the engine untouched on failure, so a skip
// never corrupts the index. A non-nil invalidator is called after each
// successful add.
func HandleMessage(eng *engine.Engine, invalidator Invalidator) kafka.MessageHandler {
	logger := slog.Default().With("component", "ingest-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[DocumentEvent](value)
		if err != nil {
			logger.Error("failed to decode document event",
				"error", err,
				"key", string(key),
			)
			return nil
		}

		status := engine.StatusActual
		if event.Status != "" {
			status, err = engine.ParseStatus(event.Status)
			if err != nil {
				logger.Error("document event carries unknown status",
					"doc_id", event.ID,
					"status", event.Status,
				)
				return nil
			}
		}

		if err := eng.AddDocument(event.ID, event.Text, status, event.Ratings); err != nil {
			if errors.Is(err, apperrors.ErrDocumentExists) {
				// Redelivery after a commit failure lands here; the
				// first copy already won.
				logger.Debug("document already indexed", "doc_id", event.ID)
				return nil
			}
			if errors.Is(err, apperrors.ErrInvalidInput) {
				logger.Error("document rejected", "doc_id", event.ID, "error", err)
				return nil
			}
			return fmt.Errorf("indexing document %d: %w", event.ID, err)
		}

		if invalidator != nil {
			if err := invalidator.Invalidate(ctx); err != nil {
				logger.Error("cache invalidation failed", "error", err)
			}
		}
		logger.Info("document indexed", "doc_id", event.ID)
		return nil
	}
}
