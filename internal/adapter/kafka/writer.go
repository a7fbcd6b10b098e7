package kafka

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/hydrograph-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes hydrograph records to a Kafka topic.
// It implements pipeline.Loader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the given brokers and topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Load serializes and publishes all hydrographs in a single WriteMessages call.
// Messages are keyed by geometry table name so updates of a scenario stay ordered.
func (w *Writer) Load(ctx context.Context, hs []domain.Hydrograph) error {
	if len(hs) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(hs))
	for i := range hs {
		msg, err := serializeToMessage(hs[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return err
	}
	w.logger.Debug("published hydrographs", "topic", w.writer.Topic, "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a Hydrograph into a Kafka message.
func serializeToMessage(h domain.Hydrograph) (kafkago.Message, error) {
	data, err := domain.SerializeHydrograph(h)
	if err != nil {
		return kafkago.Message{}, err
	}
	return kafkago.Message{
		Key:   []byte(h.TableName),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "floodplain_type", Value: []byte(h.Type)},
			{Key: "processed_at", Value: []byte(h.ProcessedAt.Format(time.RFC3339))},
		},
	}, nil
}
