// Package decoder implements protocol decoding.
package decoder

import (
	"encoding/binary"
	"net/netip"

	"firestige.xyz/flowsniff/internal/core"
)

// IPv4 field offsets from the start of the header.
const (
	ipv4OffVersionIHL = 0
	ipv4OffTOS        = 1
	ipv4OffTotalLen   = 2
	ipv4OffID         = 4
	ipv4OffFragOff    = 6
	ipv4OffTTL        = 8
	ipv4OffProtocol   = 9
	ipv4OffChecksum   = 10
	ipv4OffSrcIP      = 12
	ipv4OffDstIP      = 16

	ipv4HeaderMinLen = 20
	ipv4AddrLen      = 4
)

// DecodeIPv4 decodes an IPv4 header.
//
// Unless honorIHL is set the header is assumed to be exactly 20 bytes, so
// headers carrying options leave those option bytes at the front of the
// returned payload.
func DecodeIPv4(data []byte, honorIHL bool) (core.IPv4Header, []byte, error) {
	if len(data) < ipv4HeaderMinLen {
		return core.IPv4Header{}, nil, core.ErrTruncated
	}

	ip := core.IPv4Header{
		Version:        data[ipv4OffVersionIHL] >> 4,
		IHL:            data[ipv4OffVersionIHL] & 0x0F,
		TOS:            data[ipv4OffTOS],
		TotalLen:       binary.BigEndian.Uint16(data[ipv4OffTotalLen : ipv4OffTotalLen+2]),
		ID:             binary.BigEndian.Uint16(data[ipv4OffID : ipv4OffID+2]),
		FragmentOffset: binary.BigEndian.Uint16(data[ipv4OffFragOff : ipv4OffFragOff+2]),
		TTL:            data[ipv4OffTTL],
		Protocol:       data[ipv4OffProtocol],
		Checksum:       binary.BigEndian.Uint16(data[ipv4OffChecksum : ipv4OffChecksum+2]),
		SrcIP:          netip.AddrFrom4([4]byte(data[ipv4OffSrcIP : ipv4OffSrcIP+ipv4AddrLen])),
		DstIP:          netip.AddrFrom4([4]byte(data[ipv4OffDstIP : ipv4OffDstIP+ipv4AddrLen])),
	}

	headerLen := ipv4HeaderMinLen
	if honorIHL {
		headerLen = int(ip.IHL) * 4
		if headerLen < ipv4HeaderMinLen {
			return ip, nil, core.ErrMalformedHeader
		}
		if len(data) < headerLen {
			return ip, nil, core.ErrTruncated
		}
	}

	return ip, data[headerLen:], nil
}
