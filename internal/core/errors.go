// Package core defines sentinel errors.
package core

import "errors"

var (
	// Capture errors
	ErrInterfaceUnavailable = errors.New("flowsniff: interface unavailable")
	ErrSourceClosed         = errors.New("flowsniff: frame source closed")

	// Packet decoding errors
	ErrTruncated            = errors.New("flowsniff: frame truncated")
	ErrUnsupportedEtherType = errors.New("flowsniff: unsupported ether type")
	ErrMalformedHeader      = errors.New("flowsniff: malformed header")

	// Configuration errors
	ErrConfigInvalid = errors.New("flowsniff: invalid configuration")
)
