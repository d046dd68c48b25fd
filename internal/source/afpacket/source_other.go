//go:build !linux

package afpacket

import (
	"context"
	"fmt"

	"firestige.xyz/flowsniff/internal/core"
)

// Source is unavailable off Linux.
type Source struct{}

// Open always fails: AF_PACKET is Linux-only.
func Open(opts Options) (*Source, error) {
	return nil, fmt.Errorf("%w: %s: AF_PACKET requires linux", core.ErrInterfaceUnavailable, opts.Interface)
}

func (s *Source) NextFrame(ctx context.Context) (core.Frame, error) {
	return core.Frame{}, core.ErrSourceClosed
}

func (s *Source) Drops() uint { return 0 }

func (s *Source) Close() error { return nil }
