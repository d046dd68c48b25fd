package flow

import (
	"net/netip"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/flowsniff/internal/core"
)

func TestTableRecordNewAndRepeat(t *testing.T) {
	table := NewTable()
	key := BuildKey(core.ProtocolTCP, hostA, hostB, &Ports{Src: 443, Dst: 51000})

	assert.Equal(t, uint64(1), table.Record(key, core.ProtocolTCP))
	assert.Equal(t, uint64(2), table.Record(key, core.ProtocolTCP))

	rec, ok := table.Lookup(key)
	require.True(t, ok)
	assert.Equal(t, Record{Protocol: core.ProtocolTCP, Packets: 2}, rec)
	assert.Equal(t, 1, table.Len())
	assert.Equal(t, uint64(2), table.Total())
}

func TestTableRecordNTimes(t *testing.T) {
	const n = 137
	table := NewTable()
	key := BuildKey(core.ProtocolUDP, hostA, hostB, &Ports{Src: 53, Dst: 40000})

	for i := 0; i < n; i++ {
		table.Record(key, core.ProtocolUDP)
	}

	rec, ok := table.Lookup(key)
	require.True(t, ok)
	assert.Equal(t, uint64(n), rec.Packets)
	assert.Equal(t, uint64(n), table.Total())
}

func TestTableLookupMissing(t *testing.T) {
	table := NewTable()
	_, ok := table.Lookup(Key{})
	assert.False(t, ok)
	assert.Zero(t, table.Len())
	assert.Zero(t, table.Total())
}

func TestTableSnapshotInsertionOrder(t *testing.T) {
	table := NewTable()
	keys := []Key{
		BuildKey(core.ProtocolTCP, hostA, hostB, &Ports{Src: 1, Dst: 2}),
		BuildKey(core.ProtocolICMP, hostB, hostA, nil),
		BuildKey(core.ProtocolUDP, hostA, hostB, &Ports{Src: 3, Dst: 4}),
	}
	for _, k := range keys {
		table.Record(k, k.Protocol)
	}
	table.Record(keys[0], keys[0].Protocol)

	snap := table.Snapshot()
	require.Len(t, snap.Entries, 3)
	for i, k := range keys {
		assert.Equal(t, k, snap.Entries[i].Key)
	}
	assert.Equal(t, uint64(2), snap.Entries[0].Record.Packets)
	assert.Equal(t, uint64(4), snap.Total)
}

func TestTableSnapshotIsCopy(t *testing.T) {
	table := NewTable()
	key := BuildKey(core.ProtocolTCP, hostA, hostB, &Ports{Src: 1, Dst: 2})
	table.Record(key, core.ProtocolTCP)

	snap := table.Snapshot()
	table.Record(key, core.ProtocolTCP)

	assert.Equal(t, uint64(1), snap.Entries[0].Record.Packets)
	assert.Equal(t, uint64(1), snap.Total)
	assert.Equal(t, uint64(2), table.Total())
}

// Each snapshot's per-flow counts must add up to its total.
func TestTableConcurrentRecordAndSnapshot(t *testing.T) {
	table := NewTable()
	const writers, perWriter = 4, 2000

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			key := BuildKey(core.ProtocolUDP, netip.AddrFrom4([4]byte{10, 0, 0, byte(w)}), hostB, &Ports{Src: 1, Dst: 2})
			for i := 0; i < perWriter; i++ {
				table.Record(key, core.ProtocolUDP)
			}
		}(w)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	for {
		snap := table.Snapshot()
		var sum uint64
		for _, e := range snap.Entries {
			sum += e.Record.Packets
		}
		require.Equal(t, snap.Total, sum)

		select {
		case <-done:
			assert.Equal(t, uint64(writers*perWriter), table.Total())
			assert.Equal(t, writers, table.Len())
			return
		default:
		}
	}
}
