// Package report renders flow table snapshots and per-frame traces, and
// delivers reports to sinks.
package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"firestige.xyz/flowsniff/internal/config"
	"firestige.xyz/flowsniff/internal/flow"
)

// TimeLayout matches the classic ctime(3) rendering.
const TimeLayout = time.ANSIC

// FlowCount is one line of a report.
type FlowCount struct {
	Flow     string `json:"flow" yaml:"flow"`
	Protocol uint8  `json:"protocol" yaml:"protocol"`
	Packets  uint64 `json:"packets" yaml:"packets"`
}

// Report is a rendered view of the flow table at one instant.
type Report struct {
	SessionID string      `json:"session_id,omitempty" yaml:"session_id,omitempty"`
	Interface string      `json:"interface,omitempty" yaml:"interface,omitempty"`
	Timestamp time.Time   `json:"timestamp" yaml:"timestamp"`
	Final     bool        `json:"final" yaml:"final"`
	Total     uint64      `json:"total_packets" yaml:"total_packets"`
	Flows     []FlowCount `json:"flows" yaml:"flows"`
}

// Render builds a report from snapshot entries. It only reads its inputs.
func Render(entries []flow.Entry, total uint64, ts time.Time) *Report {
	r := &Report{
		Timestamp: ts,
		Total:     total,
		Flows:     make([]FlowCount, 0, len(entries)),
	}
	for _, e := range entries {
		r.Flows = append(r.Flows, FlowCount{
			Flow:     e.Key.Endpoints(),
			Protocol: e.Record.Protocol,
			Packets:  e.Record.Packets,
		})
	}
	return r
}

// Empty reports whether no flow has been observed.
func (r *Report) Empty() bool {
	return len(r.Flows) == 0
}

// Text renders the human-readable form.
func (r *Report) Text() string {
	var b strings.Builder
	ts := r.Timestamp.Format(TimeLayout)

	if r.Final {
		b.WriteString("--------------- End of Session Statistics ---------------\n")
		if r.SessionID != "" {
			fmt.Fprintf(&b, "Session %s\n", r.SessionID)
		}
		fmt.Fprintf(&b, "Total number of packets captured in the session: %d\n\n", r.Total)
	}

	if r.Empty() {
		fmt.Fprintf(&b, "No packets were captured in the session as of %s\n", ts)
		return b.String()
	}

	fmt.Fprintf(&b, "Summary of packets exchanged between endpoints at %s\n", ts)
	b.WriteString("Format: source <--> destination : packets\n")
	for _, f := range r.Flows {
		fmt.Fprintf(&b, "%s : %d\n", f.Flow, f.Packets)
	}
	fmt.Fprintf(&b, "\nTotal number of packets captured in the session as of %s: %d\n", ts, r.Total)
	return b.String()
}

// Marshal encodes r in one of the configured report formats.
func Marshal(r *Report, format string) ([]byte, error) {
	switch format {
	case config.FormatText, "":
		return []byte(r.Text()), nil
	case config.FormatJSON:
		data, err := json.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("json marshal failed: %w", err)
		}
		return append(data, '\n'), nil
	case config.FormatYAML:
		data, err := yaml.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("yaml marshal failed: %w", err)
		}
		return append([]byte("---\n"), data...), nil
	default:
		return nil, fmt.Errorf("unsupported report format: %s", format)
	}
}
