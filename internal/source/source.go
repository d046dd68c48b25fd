// Package source opens the frame source selected by configuration.
package source

import (
	"context"

	"firestige.xyz/flowsniff/internal/config"
	"firestige.xyz/flowsniff/internal/core"
	"firestige.xyz/flowsniff/internal/source/afpacket"
	"firestige.xyz/flowsniff/internal/source/file"
)

// FrameSource delivers raw frames one at a time.
//
// NextFrame blocks until a frame is available, ctx is done, or the source
// fails. A replayed capture returns io.EOF when exhausted. Frame data is
// owned by the caller.
type FrameSource interface {
	NextFrame(ctx context.Context) (core.Frame, error)
	Close() error
}

// Open binds the source described by cfg.
func Open(cfg config.CaptureConfig) (FrameSource, error) {
	if cfg.Source == config.SourcePcap {
		s, err := file.Open(file.Options{
			Path:      cfg.PcapFile,
			BPFFilter: cfg.BPFFilter,
			SnapLen:   cfg.SnapLen,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	s, err := afpacket.Open(afpacket.Options{
		Interface:    cfg.Interface,
		SnapLen:      cfg.SnapLen,
		BufferSizeMB: cfg.BufferSizeMB,
		PollTimeout:  cfg.PollTimeout,
		BPFFilter:    cfg.BPFFilter,
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}
