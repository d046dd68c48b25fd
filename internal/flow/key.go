// Package flow implements flow classification and the session flow table.
package flow

import (
	"net/netip"
	"strconv"

	"firestige.xyz/flowsniff/internal/core"
)

// Ports is a source/destination port pair.
type Ports struct {
	Src uint16
	Dst uint16
}

// Key identifies a flow. It is comparable and usable as a map key.
//
// Keys are direction-sensitive: A->B and B->A are different flows.
type Key struct {
	SrcIP    netip.Addr
	DstIP    netip.Addr
	SrcPort  uint16
	DstPort  uint16
	HasPorts bool
	Protocol uint8
}

// BuildKey derives the flow key. When ports is nil the key carries no ports.
func BuildKey(protocol uint8, src, dst netip.Addr, ports *Ports) Key {
	k := Key{
		SrcIP:    src,
		DstIP:    dst,
		Protocol: protocol,
	}
	if ports != nil {
		k.SrcPort = ports.Src
		k.DstPort = ports.Dst
		k.HasPorts = true
	}
	return k
}

// KeyOf derives the flow key of a decoded frame.
func KeyOf(d *core.DecodedFrame) Key {
	var ports *Ports
	if d.HasPorts {
		ports = &Ports{Src: d.Transport.SrcPort, Dst: d.Transport.DstPort}
	}
	return BuildKey(d.IP.Protocol, d.IP.SrcIP, d.IP.DstIP, ports)
}

// Endpoints renders the key without the protocol suffix,
// e.g. "10.0.0.1:443 <--> 10.0.0.2:51000".
func (k Key) Endpoints() string {
	return k.endpoint(k.SrcIP, k.SrcPort) + " <--> " + k.endpoint(k.DstIP, k.DstPort)
}

// String renders the raw key, e.g. "10.0.0.1:443 <--> 10.0.0.2:51000.6".
func (k Key) String() string {
	return k.Endpoints() + "." + strconv.Itoa(int(k.Protocol))
}

func (k Key) endpoint(addr netip.Addr, port uint16) string {
	if !k.HasPorts {
		return addr.String()
	}
	return addr.String() + ":" + strconv.Itoa(int(port))
}
