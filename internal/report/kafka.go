package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/compress"

	"firestige.xyz/flowsniff/internal/config"
)

const (
	defaultKafkaBatchTimeout = 100 * time.Millisecond
	defaultKafkaMaxAttempts  = 3
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes JSON reports to a Kafka topic.
type KafkaSink struct {
	writer messageWriter
	config config.KafkaConfig

	reportedCount atomic.Uint64
	errorCount    atomic.Uint64
}

// NewKafkaSink creates a synchronous Kafka writer for cfg.
func NewKafkaSink(cfg config.KafkaConfig) (*KafkaSink, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers is required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("topic is required")
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultKafkaMaxAttempts
	}

	codec, err := compressionCodec(cfg.Compression)
	if err != nil {
		return nil, err
	}

	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:          cfg.Brokers,
		Topic:            cfg.Topic,
		Balancer:         &kafka.Hash{}, // one session lands on one partition
		BatchSize:        1,
		BatchTimeout:     defaultKafkaBatchTimeout,
		MaxAttempts:      cfg.MaxAttempts,
		CompressionCodec: codec,
		Async:            false,
	})

	slog.Info("kafka sink started",
		"brokers", cfg.Brokers,
		"topic", cfg.Topic,
		"compression", cfg.Compression,
	)
	return &KafkaSink{writer: writer, config: cfg}, nil
}

func compressionCodec(name string) (kafka.CompressionCodec, error) {
	switch name {
	case "none", "":
		return nil, nil
	case "gzip":
		return compress.Gzip.Codec(), nil
	case "snappy":
		return compress.Snappy.Codec(), nil
	case "lz4":
		return compress.Lz4.Codec(), nil
	case "zstd":
		return compress.Zstd.Codec(), nil
	default:
		return nil, fmt.Errorf("invalid compression type: %s", name)
	}
}

// Name returns the sink name.
func (s *KafkaSink) Name() string {
	return "kafka"
}

// Publish writes r as one message keyed by session ID.
func (s *KafkaSink) Publish(ctx context.Context, r *Report) error {
	if r == nil {
		return fmt.Errorf("nil report")
	}

	value, err := json.Marshal(r)
	if err != nil {
		s.errorCount.Add(1)
		return fmt.Errorf("serialize report failed: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(r.SessionID),
		Value: value,
		Time:  r.Timestamp,
	}
	if r.Final {
		msg.Headers = []kafka.Header{{Key: "final", Value: []byte("true")}}
	}

	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		s.errorCount.Add(1)
		return fmt.Errorf("kafka write failed: %w", err)
	}

	s.reportedCount.Add(1)
	return nil
}

// Close flushes and closes the writer.
func (s *KafkaSink) Close() error {
	if err := s.writer.Close(); err != nil {
		slog.Error("error closing kafka writer", "error", err)
		return err
	}
	slog.Info("kafka sink stopped",
		"total_reported", s.reportedCount.Load(),
		"total_errors", s.errorCount.Load(),
	)
	return nil
}
