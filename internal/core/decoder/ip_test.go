package decoder

import (
	"errors"
	"net/netip"
	"testing"

	"firestige.xyz/flowsniff/internal/core"
)

func TestDecodeIPv4Basic(t *testing.T) {
	// Minimal IPv4 header (20 bytes)
	data := []byte{
		0x45,                   // Version 4, IHL 5
		0x00,                   // DSCP, ECN
		0x00, 0x1C,             // Total Length: 28 bytes
		0x12, 0x34,             // Identification
		0x40, 0x00,             // Flags (DF), Fragment Offset
		0x40,                   // TTL: 64
		0x11,                   // Protocol: UDP (17)
		0xAB, 0xCD,             // Checksum
		192, 168, 1, 1,         // Src IP
		192, 168, 1, 2,         // Dst IP
		0x01, 0x02, 0x03, 0x04, // Payload
	}

	ip, payload, err := DecodeIPv4(data, false)
	if err != nil {
		t.Fatalf("DecodeIPv4 failed: %v", err)
	}

	if ip.Version != 4 || ip.IHL != 5 {
		t.Errorf("Expected version 4 IHL 5, got %d/%d", ip.Version, ip.IHL)
	}
	if ip.Protocol != 17 {
		t.Errorf("Expected protocol 17, got %d", ip.Protocol)
	}
	if ip.TTL != 64 {
		t.Errorf("Expected TTL 64, got %d", ip.TTL)
	}
	if ip.TotalLen != 28 {
		t.Errorf("Expected TotalLen 28, got %d", ip.TotalLen)
	}
	if ip.ID != 0x1234 {
		t.Errorf("Expected ID 0x1234, got 0x%04x", ip.ID)
	}
	if ip.FragmentOffset != 0x4000 {
		t.Errorf("Expected flags/fragment 0x4000, got 0x%04x", ip.FragmentOffset)
	}
	if ip.Checksum != 0xABCD {
		t.Errorf("Expected checksum 0xabcd, got 0x%04x", ip.Checksum)
	}

	expectedSrcIP := netip.MustParseAddr("192.168.1.1")
	if ip.SrcIP != expectedSrcIP {
		t.Errorf("Expected SrcIP %v, got %v", expectedSrcIP, ip.SrcIP)
	}
	expectedDstIP := netip.MustParseAddr("192.168.1.2")
	if ip.DstIP != expectedDstIP {
		t.Errorf("Expected DstIP %v, got %v", expectedDstIP, ip.DstIP)
	}
	if ip.SrcIP.String() != "192.168.1.1" {
		t.Errorf("Expected dotted decimal, got %s", ip.SrcIP.String())
	}

	if len(payload) != 4 {
		t.Errorf("Expected payload length 4, got %d", len(payload))
	}
}

func TestDecodeIPv4TooShort(t *testing.T) {
	for _, n := range []int{0, 1, 9, 10, 15, 19} {
		_, _, err := DecodeIPv4(make([]byte, n), false)
		if !errors.Is(err, core.ErrTruncated) {
			t.Errorf("len=%d: expected ErrTruncated, got %v", n, err)
		}
	}
}

func TestDecodeIPv4Options(t *testing.T) {
	// IHL 6: one 4-byte option word before the transport header.
	data := []byte{
		0x46, 0x00, 0x00, 0x20,
		0x00, 0x00, 0x00, 0x00,
		0x40, 0x06, 0x00, 0x00,
		10, 0, 0, 1,
		10, 0, 0, 2,
		0x94, 0x04, 0x00, 0x00, // Router Alert option
		0x01, 0xBB, 0xC7, 0x38, // ports 443 -> 51000
	}

	t.Run("fixed header", func(t *testing.T) {
		_, rest, err := DecodeIPv4(data, false)
		if err != nil {
			t.Fatalf("DecodeIPv4 failed: %v", err)
		}
		// Option bytes stay in front of the transport segment.
		if len(rest) != 8 || rest[0] != 0x94 {
			t.Errorf("Expected options left in payload, got % x", rest)
		}
	})

	t.Run("honor IHL", func(t *testing.T) {
		_, rest, err := DecodeIPv4(data, true)
		if err != nil {
			t.Fatalf("DecodeIPv4 failed: %v", err)
		}
		if len(rest) != 4 || rest[0] != 0x01 || rest[1] != 0xBB {
			t.Errorf("Expected transport after options, got % x", rest)
		}
	})

	t.Run("IHL beyond data", func(t *testing.T) {
		short := append([]byte(nil), data[:20]...)
		short[0] = 0x4F
		_, _, err := DecodeIPv4(short, true)
		if !errors.Is(err, core.ErrTruncated) {
			t.Errorf("Expected ErrTruncated, got %v", err)
		}
	})

	t.Run("IHL below minimum", func(t *testing.T) {
		bad := append([]byte(nil), data...)
		bad[0] = 0x44
		_, _, err := DecodeIPv4(bad, true)
		if !errors.Is(err, core.ErrMalformedHeader) {
			t.Errorf("Expected ErrMalformedHeader, got %v", err)
		}
		// Without IHL handling the same header decodes.
		if _, _, err := DecodeIPv4(bad, false); err != nil {
			t.Errorf("Expected fixed-length decode to succeed, got %v", err)
		}
	})
}
