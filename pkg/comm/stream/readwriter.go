// Package stream carries SBUS frames over a raw byte stream.
package stream

import (
	"io"

	"github.com/robotalks/sbus.go/pkg/sbus"
)

// ReadWriter implements FrameReadWriter.
// Frames are carried back to back with no extra framing, the format
// used by SITL links over TCP and by raw serial captures. Reading runs
// through a Parser, so attaching to a stream mid-frame resynchronizes
// on the next header byte.
type ReadWriter struct {
	io.ReadWriter

	parser  sbus.Parser
	pending []byte
	buf     [64]byte
}

// New creates a ReadWriter with io.ReadWriter.
func New(s io.ReadWriter) *ReadWriter {
	return &ReadWriter{ReadWriter: s}
}

// ReadFrame implements FrameReader. A frame failing validation is
// returned together with the error; the caller decides whether to
// keep reading.
func (p *ReadWriter) ReadFrame() (sbus.RawFrame, error) {
	for {
		for len(p.pending) > 0 {
			b := p.pending[0]
			p.pending = p.pending[1:]
			if r, done := p.parser.Feed(b); done {
				return r.Frame, r.Err
			}
		}
		n, err := p.Read(p.buf[:])
		if err != nil {
			return sbus.RawFrame{}, err
		}
		p.pending = p.buf[:n]
	}
}

// WriteFrame implements FrameWriter.
func (p *ReadWriter) WriteFrame(f *sbus.RawFrame) error {
	_, err := p.Write(f[:])
	return err
}
