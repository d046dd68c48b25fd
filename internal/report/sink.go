package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"firestige.xyz/flowsniff/internal/metrics"
)

// Sink delivers rendered reports somewhere.
type Sink interface {
	Name() string
	Publish(ctx context.Context, r *Report) error
	Close() error
}

// Console writes traces and reports to one writer. Writes are serialized so
// blocks from the capture and report goroutines never interleave.
type Console struct {
	mu     sync.Mutex
	w      io.Writer
	format string

	reportedCount atomic.Uint64
}

// NewConsole creates a console sink encoding reports as format.
func NewConsole(w io.Writer, format string) *Console {
	return &Console{w: w, format: format}
}

// Name returns the sink name.
func (c *Console) Name() string {
	return "console"
}

// WriteTrace writes one trace block. Failures are counted against the
// console sink; tracing never stops capture.
func (c *Console) WriteTrace(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := io.WriteString(c.w, text); err != nil {
		metrics.SinkErrorsTotal.WithLabelValues(c.Name()).Inc()
		slog.Debug("trace write failed", "sink", c.Name(), "error", err)
	}
}

// Publish writes r in the console format.
func (c *Console) Publish(ctx context.Context, r *Report) error {
	data, err := Marshal(r, c.format)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.w.Write(data); err != nil {
		return fmt.Errorf("console write failed: %w", err)
	}
	c.reportedCount.Add(1)
	return nil
}

// Close is a no-op; the console does not own its writer.
func (c *Console) Close() error {
	slog.Debug("console sink stopped", "total_reported", c.reportedCount.Load())
	return nil
}

// Fanout publishes to every sink. A failing sink does not stop the others.
type Fanout struct {
	sinks []Sink
}

// NewFanout wraps sinks.
func NewFanout(sinks ...Sink) *Fanout {
	return &Fanout{sinks: sinks}
}

// Publish delivers r to all sinks and joins their errors.
func (f *Fanout) Publish(ctx context.Context, r *Report) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.Publish(ctx, r); err != nil {
			metrics.SinkErrorsTotal.WithLabelValues(s.Name()).Inc()
			slog.Warn("report publish failed", "sink", s.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Close closes all sinks.
func (f *Fanout) Close() error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}
