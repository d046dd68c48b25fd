// Package core defines core data structures with zero external dependencies.
package core

import "time"

// MaxFrameLen is the largest frame a source hands to the engine.
const MaxFrameLen = 65535

// Frame is one link-layer capture unit. Data is owned by the receiver.
type Frame struct {
	Data       []byte
	Timestamp  time.Time
	CaptureLen uint32
	OrigLen    uint32
}

// DecodedFrame is the result of L2-L4 decoding of a single frame.
type DecodedFrame struct {
	Timestamp time.Time
	Ethernet  EthernetHeader
	IP        IPv4Header
	Transport TransportHeader
	// HasPorts is set when Transport was decoded (TCP or UDP).
	HasPorts bool
	Payload  []byte
}
