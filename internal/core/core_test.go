package core

import (
	"errors"
	"fmt"
	"testing"
)

// Test zero values of core structs
func TestStructZeroValues(t *testing.T) {
	t.Run("EthernetHeader", func(t *testing.T) {
		var eth EthernetHeader
		if eth.EtherType != 0 {
			t.Errorf("expected EtherType=0, got %d", eth.EtherType)
		}
	})

	t.Run("IPv4Header", func(t *testing.T) {
		var ip IPv4Header
		if ip.SrcIP.IsValid() {
			t.Errorf("expected invalid SrcIP, got %v", ip.SrcIP)
		}
		if ip.DstIP.IsValid() {
			t.Errorf("expected invalid DstIP, got %v", ip.DstIP)
		}
	})

	t.Run("DecodedFrame", func(t *testing.T) {
		var decoded DecodedFrame
		if decoded.HasPorts {
			t.Errorf("expected HasPorts=false, got true")
		}
		if decoded.Payload != nil {
			t.Errorf("expected Payload=nil, got %v", decoded.Payload)
		}
	})
}

func TestHasPorts(t *testing.T) {
	tests := []struct {
		protocol uint8
		want     bool
	}{
		{ProtocolTCP, true},
		{ProtocolUDP, true},
		{ProtocolICMP, false},
		{132, false}, // SCTP
		{0, false},
	}
	for _, tt := range tests {
		if got := HasPorts(tt.protocol); got != tt.want {
			t.Errorf("HasPorts(%d) = %v, want %v", tt.protocol, got, tt.want)
		}
	}
}

func TestSentinelErrorsWrap(t *testing.T) {
	sentinels := []error{
		ErrInterfaceUnavailable,
		ErrSourceClosed,
		ErrTruncated,
		ErrUnsupportedEtherType,
		ErrMalformedHeader,
		ErrConfigInvalid,
	}
	for _, s := range sentinels {
		wrapped := fmt.Errorf("context: %w", s)
		if !errors.Is(wrapped, s) {
			t.Errorf("errors.Is failed for %v", s)
		}
	}
	if errors.Is(ErrTruncated, ErrMalformedHeader) {
		t.Error("distinct sentinels must not match")
	}
}
