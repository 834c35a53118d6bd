package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/station-monitor-service/internal/config"
	"github.com/couchcryptid/station-monitor-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces station results to a Kafka topic.
// It implements pipeline.ResultSink.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured result topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaResultTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes the results of one cycle and writes them in a single
// WriteMessages call. Results of the same station share a partition.
func (w *Writer) Publish(ctx context.Context, results []domain.StationResult) error {
	if len(results) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(results))
	for i := range results {
		msg, err := serializeToMessage(results[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write station results: %w", err)
	}
	w.logger.Debug("published station results", "count", len(msgs), "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a StationResult into a Kafka message.
func serializeToMessage(result domain.StationResult) (kafkago.Message, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize station result: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(result.Station),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "status", Value: []byte(result.Status)},
			{Key: "rendered_at", Value: []byte(result.RenderedAt.Format(time.RFC3339))},
		},
	}, nil
}
