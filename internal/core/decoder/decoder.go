// Package decoder implements Ethernet/IPv4/TCP/UDP header decoding.
package decoder

import (
	"firestige.xyz/flowsniff/internal/core"
)

// Options controls decoder behaviour.
type Options struct {
	// HonorIHL reads the IPv4 header length from the IHL field instead of
	// assuming a fixed 20-byte header.
	HonorIHL bool
}

// Decoder decodes raw frames into structured headers.
// It is stateless and safe for concurrent use.
type Decoder struct {
	opts Options
}

// New creates a decoder.
func New(opts Options) *Decoder {
	return &Decoder{opts: opts}
}

// Decode walks Ethernet -> IPv4 -> (TCP|UDP ports).
//
// Frames that are not IPv4 return core.ErrUnsupportedEtherType. Frames too
// short for the layer being decoded return core.ErrTruncated. IPv4 frames
// carrying neither TCP nor UDP decode successfully with HasPorts=false.
func (d *Decoder) Decode(frame core.Frame) (core.DecodedFrame, error) {
	out := core.DecodedFrame{Timestamp: frame.Timestamp}

	eth, rest, err := DecodeEthernet(frame.Data)
	if err != nil {
		return out, err
	}
	out.Ethernet = eth

	if eth.EtherType != core.EtherTypeIPv4 {
		return out, core.ErrUnsupportedEtherType
	}

	ip, rest, err := DecodeIPv4(rest, d.opts.HonorIHL)
	if err != nil {
		return out, err
	}
	out.IP = ip

	if core.HasPorts(ip.Protocol) {
		transport, payload, err := DecodeTransportPorts(rest)
		if err != nil {
			return out, err
		}
		out.Transport = transport
		out.HasPorts = true
		rest = payload
	}

	out.Payload = rest
	return out, nil
}
