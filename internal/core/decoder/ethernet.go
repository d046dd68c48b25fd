// Package decoder implements protocol decoding.
package decoder

import (
	"encoding/binary"

	"firestige.xyz/flowsniff/internal/core"
)

const (
	macLen            = 6
	etherTypeLen      = 2
	ethernetHeaderLen = 2*macLen + etherTypeLen
)

// DecodeEthernet decodes the Ethernet II header.
// Returns the header and the remaining bytes after it.
func DecodeEthernet(data []byte) (core.EthernetHeader, []byte, error) {
	if len(data) < ethernetHeaderLen {
		return core.EthernetHeader{}, nil, core.ErrTruncated
	}

	eth := core.EthernetHeader{}
	copy(eth.DstMAC[:], data[0:macLen])
	copy(eth.SrcMAC[:], data[macLen:2*macLen])

	// Wire order is big-endian; convert before comparing against host constants.
	eth.EtherType = binary.BigEndian.Uint16(data[2*macLen : ethernetHeaderLen])

	return eth, data[ethernetHeaderLen:], nil
}
