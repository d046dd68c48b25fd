// Package capture runs the capture/report engine: frames flow from a source
// through the decoder into the flow table while a timer renders reports.
package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/gopacket/layers"

	"firestige.xyz/flowsniff/internal/core"
	"firestige.xyz/flowsniff/internal/core/decoder"
	"firestige.xyz/flowsniff/internal/flow"
	"firestige.xyz/flowsniff/internal/metrics"
	"firestige.xyz/flowsniff/internal/report"
	"firestige.xyz/flowsniff/internal/source"
)

const (
	DefaultInterval = 10 * time.Second

	// finalPublishTimeout bounds delivery of the last report after the
	// session context is gone.
	finalPublishTimeout = 5 * time.Second
)

// Opener binds the frame source. Errors should wrap core.ErrInterfaceUnavailable.
type Opener func() (source.FrameSource, error)

// Publisher receives rendered reports.
type Publisher interface {
	Publish(ctx context.Context, r *report.Report) error
}

// Tracer receives per-frame trace blocks.
type Tracer interface {
	WriteTrace(text string)
}

// Config configures a Loop.
type Config struct {
	Interface string
	SessionID string
	Interval  time.Duration
	Decoder   decoder.Options
	// Trace enables per-frame trace blocks; requires a Tracer.
	Trace bool
	// Now is the report clock; defaults to time.Now.
	Now func() time.Time
}

// Loop owns the flow table for one capture session.
type Loop struct {
	cfg    Config
	open   Opener
	pub    Publisher
	tracer Tracer

	dec   *decoder.Decoder
	table *flow.Table
	state atomic.Int32
	stats counters
}

// New creates a loop. tracer may be nil.
func New(cfg Config, open Opener, pub Publisher, tracer Tracer) *Loop {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Loop{
		cfg:    cfg,
		open:   open,
		pub:    pub,
		tracer: tracer,
		dec:    decoder.New(cfg.Decoder),
		table:  flow.NewTable(),
	}
}

// Table returns the session flow table.
func (l *Loop) Table() *flow.Table {
	return l.table
}

// State returns the current lifecycle state.
func (l *Loop) State() State {
	return State(l.state.Load())
}

// Stats returns the session counters.
func (l *Loop) Stats() Stats {
	return l.stats.snapshot()
}

func (l *Loop) setState(s State) {
	old := State(l.state.Swap(int32(s)))
	if old != s {
		slog.Debug("capture state changed", "interface", l.cfg.Interface, "from", old, "to", s)
	}
}

// Run binds the source and captures until ctx is cancelled or the source
// ends. A final report is always published once the source was bound.
//
// Returns nil on cancellation and at the end of a replay. A bind failure
// is returned before any report; any other source failure is returned after
// the final report.
func (l *Loop) Run(ctx context.Context) error {
	l.setState(Binding)
	src, err := l.open()
	if err != nil {
		l.setState(Terminated)
		return fmt.Errorf("bind %s: %w", l.cfg.Interface, err)
	}

	l.setState(Running)
	slog.Info("capture started",
		"interface", l.cfg.Interface,
		"session_id", l.cfg.SessionID,
		"report_interval", l.cfg.Interval)

	captureErr := make(chan error, 1)
	go func() {
		captureErr <- l.capture(ctx, src)
	}()

	reportCtx, stopReports := context.WithCancel(ctx)
	var reportWG sync.WaitGroup
	reportWG.Add(1)
	go func() {
		defer reportWG.Done()
		l.reportLoop(reportCtx)
	}()

	err = <-captureErr
	stopReports()
	reportWG.Wait()

	l.setState(ShuttingDown)
	if d, ok := src.(interface{ Drops() uint }); ok {
		slog.Info("kernel drop statistics", "interface", l.cfg.Interface, "drops", d.Drops())
	}
	if cerr := src.Close(); cerr != nil {
		slog.Warn("failed to close capture source", "interface", l.cfg.Interface, "error", cerr)
	}

	finalCtx, cancel := context.WithTimeout(context.Background(), finalPublishTimeout)
	l.report(finalCtx, true)
	cancel()

	stats := l.Stats()
	slog.Info("capture stopped",
		"interface", l.cfg.Interface,
		"received", stats.Received,
		"snapped", stats.Snapped,
		"classified", stats.Classified,
		"flows", l.table.Len())
	l.setState(Terminated)

	switch {
	case err == nil, errors.Is(err, io.EOF), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil
	default:
		return fmt.Errorf("capture %s: %w", l.cfg.Interface, err)
	}
}

// capture reads frames until the source fails or ctx is done. Decoding a
// frame is never interrupted.
func (l *Loop) capture(ctx context.Context, src source.FrameSource) error {
	for {
		frame, err := src.NextFrame(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		l.handle(frame)
	}
}

func (l *Loop) handle(frame core.Frame) {
	iface := l.cfg.Interface
	l.stats.Received.Add(1)
	metrics.FramesReceivedTotal.WithLabelValues(iface).Inc()
	if frame.OrigLen > frame.CaptureLen {
		l.stats.Snapped.Add(1)
		metrics.FramesSnappedTotal.WithLabelValues(iface).Inc()
		slog.Debug("frame cut by snap length", "interface", iface,
			"captured", frame.CaptureLen, "wire", frame.OrigLen)
	}

	d, err := l.dec.Decode(frame)
	if err != nil {
		l.drop(err)
		return
	}

	l.table.Record(flow.KeyOf(&d), d.IP.Protocol)
	l.stats.Classified.Add(1)
	metrics.FramesClassifiedTotal.WithLabelValues(iface, layers.IPProtocol(d.IP.Protocol).String()).Inc()
	metrics.FlowsActive.WithLabelValues(iface).Set(float64(l.table.Len()))

	if l.cfg.Trace && l.tracer != nil {
		ts := d.Timestamp
		if ts.IsZero() {
			ts = l.cfg.Now()
		}
		l.tracer.WriteTrace(report.Trace(&d, ts))
	}
}

// drop accounts for a frame that never reaches the table. Non-IPv4 traffic
// is expected and not logged.
func (l *Loop) drop(err error) {
	var reason string
	switch {
	case errors.Is(err, core.ErrUnsupportedEtherType):
		l.stats.Unsupported.Add(1)
		reason = metrics.DropUnsupportedType
	case errors.Is(err, core.ErrMalformedHeader):
		l.stats.Malformed.Add(1)
		reason = metrics.DropMalformed
		slog.Debug("malformed frame dropped", "interface", l.cfg.Interface, "error", err)
	default:
		l.stats.Truncated.Add(1)
		reason = metrics.DropTruncated
		slog.Debug("truncated frame dropped", "interface", l.cfg.Interface, "error", err)
	}
	metrics.FramesDroppedTotal.WithLabelValues(l.cfg.Interface, reason).Inc()
}

// reportLoop renders a report every interval. The timer is re-armed after
// each report completes, so the interval runs from the end of the last one.
func (l *Loop) reportLoop(ctx context.Context) {
	timer := time.NewTimer(l.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			l.setState(Reporting)
			l.report(ctx, false)
			l.setState(Running)
			timer.Reset(l.cfg.Interval)
		}
	}
}

// report snapshots the table and publishes. Capture is held up only for
// the snapshot copy.
func (l *Loop) report(ctx context.Context, final bool) *report.Report {
	start := time.Now()
	snap := l.table.Snapshot()

	r := report.Render(snap.Entries, snap.Total, l.cfg.Now())
	r.SessionID = l.cfg.SessionID
	r.Interface = l.cfg.Interface
	r.Final = final

	if err := l.pub.Publish(ctx, r); err != nil {
		slog.Warn("report delivery incomplete", "interface", l.cfg.Interface, "final", final, "error", err)
	}

	kind := "periodic"
	if final {
		kind = "final"
	}
	l.stats.Reports.Add(1)
	metrics.ReportsRenderedTotal.WithLabelValues(l.cfg.Interface, kind).Inc()
	metrics.ReportLatencySeconds.WithLabelValues(l.cfg.Interface).Observe(time.Since(start).Seconds())
	return r
}
