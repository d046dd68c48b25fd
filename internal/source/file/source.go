// Package file replays Ethernet frames from a pcap or pcapng capture.
package file

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"firestige.xyz/flowsniff/internal/core"
	"firestige.xyz/flowsniff/internal/utils"
)

// pcapng files open with a Section Header Block.
var ngMagic = []byte{0x0A, 0x0D, 0x0D, 0x0A}

type packetReader interface {
	ReadPacketData() ([]byte, gopacket.CaptureInfo, error)
	LinkType() layers.LinkType
}

// Options configures a replay source.
type Options struct {
	Path      string
	BPFFilter string
	SnapLen   int
}

// Source replays a capture file. NextFrame returns io.EOF after the last frame.
type Source struct {
	path   string
	f      *os.File
	r      packetReader
	filter *utils.Filter
}

// Open opens opts.Path and checks that it carries Ethernet frames.
func Open(opts Options) (*Source, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("%w: pcap file path is required", core.ErrConfigInvalid)
	}

	f, err := os.Open(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInterfaceUnavailable, err)
	}

	r, err := newReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %s: %v", core.ErrInterfaceUnavailable, opts.Path, err)
	}
	if lt := r.LinkType(); lt != layers.LinkTypeEthernet {
		f.Close()
		return nil, fmt.Errorf("%w: %s: unsupported link type %s", core.ErrInterfaceUnavailable, opts.Path, lt)
	}

	s := &Source{path: opts.Path, f: f, r: r}
	if opts.BPFFilter != "" {
		s.filter, err = utils.NewFilter(opts.BPFFilter, opts.SnapLen)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("%w: %v", core.ErrConfigInvalid, err)
		}
	}

	slog.Info("pcap replay opened", "path", opts.Path, "filter", opts.BPFFilter)
	return s, nil
}

func newReader(f *os.File) (packetReader, error) {
	br := bufio.NewReader(f)
	magic, err := br.Peek(len(ngMagic))
	if err != nil {
		return nil, fmt.Errorf("failed to read file header: %w", err)
	}
	if bytes.Equal(magic, ngMagic) {
		return pcapgo.NewNgReader(br, pcapgo.DefaultNgReaderOptions)
	}
	return pcapgo.NewReader(br)
}

// NextFrame returns the next frame that passes the filter.
func (s *Source) NextFrame(ctx context.Context) (core.Frame, error) {
	for {
		if err := ctx.Err(); err != nil {
			return core.Frame{}, err
		}

		data, ci, err := s.r.ReadPacketData()
		if err == io.EOF {
			return core.Frame{}, io.EOF
		}
		if err != nil {
			return core.Frame{}, fmt.Errorf("%w: %s: %v", core.ErrSourceClosed, s.path, err)
		}
		if s.filter != nil && !s.filter.Matches(data) {
			continue
		}

		return core.Frame{
			Data:       data,
			Timestamp:  ci.Timestamp,
			CaptureLen: uint32(ci.CaptureLength),
			OrigLen:    uint32(ci.Length),
		}, nil
	}
}

// Close closes the underlying file.
func (s *Source) Close() error {
	return s.f.Close()
}
