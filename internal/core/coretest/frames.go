// Package coretest builds wire-format frames for tests.
package coretest

import (
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

var (
	srcMAC = net.HardwareAddr{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}
	dstMAC = net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}
)

// FrameSpec describes an Ethernet/IPv4 frame to serialize.
type FrameSpec struct {
	EtherType layers.EthernetType // default IPv4
	Protocol  layers.IPProtocol
	SrcIP     string
	DstIP     string
	SrcPort   uint16
	DstPort   uint16
	Payload   []byte
}

// Build serializes spec with gopacket. It panics on serialization errors,
// which only happen for invalid specs.
func Build(spec FrameSpec) []byte {
	etherType := spec.EtherType
	if etherType == 0 {
		etherType = layers.EthernetTypeIPv4
	}
	eth := &layers.Ethernet{
		SrcMAC:       srcMAC,
		DstMAC:       dstMAC,
		EthernetType: etherType,
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true}

	var err error
	if etherType != layers.EthernetTypeIPv4 {
		err = gopacket.SerializeLayers(buf, opts, eth, gopacket.Payload(spec.Payload))
		if err != nil {
			panic(err)
		}
		return buf.Bytes()
	}

	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: spec.Protocol,
		SrcIP:    net.ParseIP(spec.SrcIP).To4(),
		DstIP:    net.ParseIP(spec.DstIP).To4(),
	}

	switch spec.Protocol {
	case layers.IPProtocolTCP:
		tcp := &layers.TCP{
			SrcPort: layers.TCPPort(spec.SrcPort),
			DstPort: layers.TCPPort(spec.DstPort),
			SYN:     true,
			Window:  65535,
		}
		err = gopacket.SerializeLayers(buf, opts, eth, ip, tcp, gopacket.Payload(spec.Payload))
	case layers.IPProtocolUDP:
		udp := &layers.UDP{
			SrcPort: layers.UDPPort(spec.SrcPort),
			DstPort: layers.UDPPort(spec.DstPort),
		}
		err = gopacket.SerializeLayers(buf, opts, eth, ip, udp, gopacket.Payload(spec.Payload))
	default:
		err = gopacket.SerializeLayers(buf, opts, eth, ip, gopacket.Payload(spec.Payload))
	}
	if err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// TCP is shorthand for a TCP frame without payload.
func TCP(src string, sport uint16, dst string, dport uint16) []byte {
	return Build(FrameSpec{
		Protocol: layers.IPProtocolTCP,
		SrcIP:    src, SrcPort: sport,
		DstIP: dst, DstPort: dport,
	})
}

// UDP is shorthand for a UDP frame without payload.
func UDP(src string, sport uint16, dst string, dport uint16) []byte {
	return Build(FrameSpec{
		Protocol: layers.IPProtocolUDP,
		SrcIP:    src, SrcPort: sport,
		DstIP: dst, DstPort: dport,
	})
}

// ICMP builds an IPv4 frame with protocol 1 and an echo-request-shaped body.
func ICMP(src, dst string) []byte {
	return Build(FrameSpec{
		Protocol: layers.IPProtocolICMPv4,
		SrcIP:    src,
		DstIP:    dst,
		Payload:  []byte{0x08, 0x00, 0xF7, 0xFF, 0x00, 0x00, 0x00, 0x00},
	})
}

// ARP builds a frame with EtherType 0x0806 and a 28-byte body.
func ARP() []byte {
	return Build(FrameSpec{
		EtherType: layers.EthernetTypeARP,
		Payload:   make([]byte, 28),
	})
}
