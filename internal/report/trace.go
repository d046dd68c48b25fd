package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/gopacket/layers"

	"firestige.xyz/flowsniff/internal/core"
)

// Trace renders the per-frame block printed while capturing.
func Trace(d *core.DecodedFrame, ts time.Time) string {
	var b strings.Builder
	b.WriteString("--------------- Packet Information Start ---------------\n")
	fmt.Fprintf(&b, "IP Source Address: %s\n", d.IP.SrcIP)
	fmt.Fprintf(&b, "IP Destination Address: %s\n", d.IP.DstIP)
	fmt.Fprintf(&b, "IP Protocol: %s (%d)\n", layers.IPProtocol(d.IP.Protocol), d.IP.Protocol)
	if d.HasPorts {
		fmt.Fprintf(&b, "Source Port: %d\n", d.Transport.SrcPort)
		fmt.Fprintf(&b, "Destination Port: %d\n", d.Transport.DstPort)
	}
	fmt.Fprintf(&b, "Captured at: %s\n", ts.Format(TimeLayout))
	b.WriteString("--------------- Packet Information End -----------------\n\n")
	return b.String()
}
