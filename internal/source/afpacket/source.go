//go:build linux

package afpacket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/gopacket/afpacket"

	"firestige.xyz/flowsniff/internal/core"
	"firestige.xyz/flowsniff/internal/utils"
)

// Source is a live capture bound to one interface.
type Source struct {
	handle *afpacket.TPacket
	iface  string
}

// Open binds a raw socket to opts.Interface. Failures to bind wrap
// core.ErrInterfaceUnavailable.
func Open(opts Options) (*Source, error) {
	frameSize, blockSize, numBlocks, err := recomputeSize(opts.BufferSizeMB, opts.SnapLen, os.Getpagesize())
	if err != nil {
		return nil, fmt.Errorf("%w: ring sizing: %v", core.ErrConfigInvalid, err)
	}

	tp, err := afpacket.NewTPacket(
		afpacket.OptInterface(opts.Interface),
		afpacket.OptFrameSize(frameSize),
		afpacket.OptBlockSize(blockSize),
		afpacket.OptNumBlocks(numBlocks),
		afpacket.OptPollTimeout(opts.PollTimeout),
		afpacket.SocketRaw,
		afpacket.TPacketVersion3,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrInterfaceUnavailable, opts.Interface, err)
	}

	if opts.BPFFilter != "" {
		raw, err := utils.CompileBpf(opts.BPFFilter, frameSize)
		if err != nil {
			tp.Close()
			return nil, fmt.Errorf("%w: %v", core.ErrConfigInvalid, err)
		}
		if err := tp.SetBPF(raw); err != nil {
			tp.Close()
			return nil, fmt.Errorf("%w: %s: failed to set BPF: %v", core.ErrInterfaceUnavailable, opts.Interface, err)
		}
		slog.Debug("BPF filter applied", "interface", opts.Interface, "filter", opts.BPFFilter)
	}

	if err := tp.InitSocketStats(); err != nil {
		slog.Warn("failed to init socket stats", "interface", opts.Interface, "error", err)
	}

	slog.Info("afpacket capture bound",
		"interface", opts.Interface,
		"frame_size", frameSize,
		"block_size", blockSize,
		"num_blocks", numBlocks)

	return &Source{handle: tp, iface: opts.Interface}, nil
}

// NextFrame blocks until a frame arrives or ctx is done. Poll timeouts are
// retried so cancellation is observed within one poll interval.
func (s *Source) NextFrame(ctx context.Context) (core.Frame, error) {
	for {
		if err := ctx.Err(); err != nil {
			return core.Frame{}, err
		}

		// ReadPacketData copies out of the ring; the frame outlives the next read.
		data, ci, err := s.handle.ReadPacketData()
		if err != nil {
			if ctx.Err() != nil {
				return core.Frame{}, ctx.Err()
			}
			if errors.Is(err, afpacket.ErrTimeout) {
				continue
			}
			return core.Frame{}, fmt.Errorf("%w: %s: %v", core.ErrSourceClosed, s.iface, err)
		}

		return core.Frame{
			Data:       data,
			Timestamp:  ci.Timestamp,
			CaptureLen: uint32(ci.CaptureLength),
			OrigLen:    uint32(ci.Length),
		}, nil
	}
}

// Drops returns the kernel drop count since the socket was opened.
func (s *Source) Drops() uint {
	_, v3, err := s.handle.SocketStats()
	if err != nil {
		return 0
	}
	return v3.Drops()
}

// Close releases the ring. It must not race with NextFrame.
func (s *Source) Close() error {
	s.handle.Close()
	return nil
}
