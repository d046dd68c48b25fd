// Package core defines core types with zero external dependencies.
package core

import "net/netip"

// Well-known header values.
const (
	EtherTypeIPv4 uint16 = 0x0800

	ProtocolICMP uint8 = 1
	ProtocolTCP  uint8 = 6
	ProtocolUDP  uint8 = 17
)

// EthernetHeader represents the L2 Ethernet frame header.
type EthernetHeader struct {
	DstMAC    [6]byte
	SrcMAC    [6]byte
	EtherType uint16 // host order
}

// IPv4Header represents the fixed part of an IPv4 header.
// Only Protocol, SrcIP and DstIP drive classification; the rest locate them.
type IPv4Header struct {
	Version        uint8
	IHL            uint8 // in 32-bit words
	TOS            uint8
	TotalLen       uint16
	ID             uint16
	FragmentOffset uint16 // flags included
	TTL            uint8
	Protocol       uint8
	Checksum       uint16
	SrcIP          netip.Addr
	DstIP          netip.Addr
}

// TransportHeader holds the first 4 bytes of a TCP or UDP segment.
type TransportHeader struct {
	SrcPort uint16
	DstPort uint16
}

// HasPorts reports whether the protocol carries a port pair we decode.
func HasPorts(protocol uint8) bool {
	return protocol == ProtocolTCP || protocol == ProtocolUDP
}
