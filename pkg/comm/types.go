// Package comm defines transport abstractions for exchanging SBUS frames.
package comm

import (
	"github.com/robotalks/sbus.go/pkg/sbus"
)

// FrameReader reads raw frames.
type FrameReader interface {
	ReadFrame() (sbus.RawFrame, error)
}

// FrameWriter writes raw frames.
type FrameWriter interface {
	WriteFrame(*sbus.RawFrame) error
}

// FrameReadWriter reads/writes raw frames.
type FrameReadWriter interface {
	FrameReader
	FrameWriter
}
