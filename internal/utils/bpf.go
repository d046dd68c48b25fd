// Package utils holds small helpers shared by the capture sources.
package utils

import (
	"fmt"

	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
	"golang.org/x/net/bpf"
)

// CompileBpf compiles a tcpdump-style expression for Ethernet frames.
func CompileBpf(filter string, snapLen int) ([]bpf.RawInstruction, error) {
	pcapBpf, err := pcap.CompileBPFFilter(layers.LinkTypeEthernet, snapLen, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to compile BPF filter %q: %w", filter, err)
	}

	rawBpf := make([]bpf.RawInstruction, len(pcapBpf))
	for i, ins := range pcapBpf {
		rawBpf[i] = bpf.RawInstruction{Op: ins.Code, Jt: ins.Jt, Jf: ins.Jf, K: ins.K}
	}
	return rawBpf, nil
}

// Filter evaluates a compiled program in user space, for sources that
// cannot attach it to a socket.
type Filter struct {
	vm *bpf.VM
}

// NewFilter compiles filter into a user-space BPF VM.
func NewFilter(filter string, snapLen int) (*Filter, error) {
	raw, err := CompileBpf(filter, snapLen)
	if err != nil {
		return nil, err
	}
	insns, ok := bpf.Disassemble(raw)
	if !ok {
		return nil, fmt.Errorf("BPF filter %q contains unsupported instructions", filter)
	}
	vm, err := bpf.NewVM(insns)
	if err != nil {
		return nil, fmt.Errorf("failed to load BPF filter %q: %w", filter, err)
	}
	return &Filter{vm: vm}, nil
}

// Matches reports whether the frame passes the filter.
func (f *Filter) Matches(data []byte) bool {
	n, err := f.vm.Run(data)
	return err == nil && n > 0
}
