package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"firestige.xyz/flowsniff/internal/config"
)

type natsConn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// NATSSink publishes JSON reports on a NATS subject.
type NATSSink struct {
	nc      natsConn
	subject string
}

// NewNATSSink connects to cfg.URL.
func NewNATSSink(cfg config.NATSConfig) (*NATSSink, error) {
	if cfg.Subject == "" {
		return nil, fmt.Errorf("subject is required")
	}
	nc, err := nats.Connect(cfg.URL, nats.Name("flowsniff"))
	if err != nil {
		return nil, fmt.Errorf("nats connect %s: %w", cfg.URL, err)
	}
	slog.Info("connected to NATS server", "url", cfg.URL, "subject", cfg.Subject)
	return &NATSSink{nc: nc, subject: cfg.Subject}, nil
}

// Name returns the sink name.
func (s *NATSSink) Name() string {
	return "nats"
}

// Publish sends r on the configured subject.
func (s *NATSSink) Publish(ctx context.Context, r *Report) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("serialize report failed: %w", err)
	}
	return s.nc.Publish(s.subject, data)
}

// Close drains the connection so buffered reports are flushed.
func (s *NATSSink) Close() error {
	if err := s.nc.Drain(); err != nil {
		return fmt.Errorf("nats drain: %w", err)
	}
	slog.Info("NATS connection drained")
	return nil
}
