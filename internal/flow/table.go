package flow

import (
	"sync"
)

// Record is the running state of one flow.
type Record struct {
	Protocol uint8
	Packets  uint64
}

// Entry pairs a key with a copy of its record.
type Entry struct {
	Key    Key
	Record Record
}

// Snapshot is a consistent, immutable copy of the table.
type Snapshot struct {
	Entries []Entry // insertion order
	Total   uint64
}

// Table maps flow keys to records and keeps the session packet total.
// The flow update and the total increment share one critical section, so a
// snapshot never sees one without the other. Records are never removed.
type Table struct {
	mu    sync.Mutex
	flows map[Key]*Record
	order []Key
	total uint64
}

// NewTable creates an empty flow table.
func NewTable() *Table {
	return &Table{
		flows: make(map[Key]*Record),
	}
}

// Record counts one classified frame for key and returns the flow's new
// packet count.
func (t *Table) Record(key Key, protocol uint8) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.flows[key]
	if !ok {
		rec = &Record{Protocol: protocol}
		t.flows[key] = rec
		t.order = append(t.order, key)
	}
	rec.Packets++
	t.total++
	return rec.Packets
}

// Snapshot copies all records and the session total.
func (t *Table) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	entries := make([]Entry, len(t.order))
	for i, key := range t.order {
		entries[i] = Entry{Key: key, Record: *t.flows[key]}
	}
	return Snapshot{Entries: entries, Total: t.total}
}

// Lookup returns a copy of the record for key.
func (t *Table) Lookup(key Key) (Record, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.flows[key]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// Len returns the number of flows.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.order)
}

// Total returns the number of frames recorded in this session.
func (t *Table) Total() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total
}
