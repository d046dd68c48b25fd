package capture

import (
	"sync/atomic"
)

// counters holds per-session frame counters.
type counters struct {
	Received    atomic.Uint64
	Snapped     atomic.Uint64
	Classified  atomic.Uint64
	Truncated   atomic.Uint64
	Unsupported atomic.Uint64
	Malformed   atomic.Uint64
	Reports     atomic.Uint64
}

// Stats is a point-in-time copy of the loop counters.
type Stats struct {
	Received    uint64
	Snapped     uint64
	Classified  uint64
	Truncated   uint64
	Unsupported uint64
	Malformed   uint64
	Reports     uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Received:    c.Received.Load(),
		Snapped:     c.Snapped.Load(),
		Classified:  c.Classified.Load(),
		Truncated:   c.Truncated.Load(),
		Unsupported: c.Unsupported.Load(),
		Malformed:   c.Malformed.Load(),
		Reports:     c.Reports.Load(),
	}
}
