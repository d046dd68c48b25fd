// Package decoder implements protocol decoding.
package decoder

import (
	"encoding/binary"

	"firestige.xyz/flowsniff/internal/core"
)

const portPairLen = 4

// DecodeTransportPorts reads the source and destination ports that open
// both TCP and UDP headers. Nothing past the first 4 bytes is interpreted.
func DecodeTransportPorts(data []byte) (core.TransportHeader, []byte, error) {
	if len(data) < portPairLen {
		return core.TransportHeader{}, nil, core.ErrTruncated
	}

	transport := core.TransportHeader{
		SrcPort: binary.BigEndian.Uint16(data[0:2]),
		DstPort: binary.BigEndian.Uint16(data[2:4]),
	}
	return transport, data[portPairLen:], nil
}
