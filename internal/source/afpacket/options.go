// Package afpacket reads Ethernet frames from a live interface through a
// TPACKET_V3 ring.
package afpacket

import "time"

// Options configures the ring and the attached filter.
type Options struct {
	Interface    string
	SnapLen      int
	BufferSizeMB int
	PollTimeout  time.Duration
	BPFFilter    string
}
