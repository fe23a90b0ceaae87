// Package websocket carries SBUS frames over websocket messages.
package websocket

import (
	"fmt"

	"golang.org/x/net/websocket"

	"github.com/robotalks/sbus.go/pkg/sbus"
)

// ReadWriter implements FrameReadWriter.
// Each websocket message carries exactly one frame.
type ReadWriter websocket.Conn

// New wraps websocket.Conn.
func New(conn *websocket.Conn) *ReadWriter {
	return (*ReadWriter)(conn)
}

// ReadFrame implements FrameReader.
func (p *ReadWriter) ReadFrame() (f sbus.RawFrame, err error) {
	var msg []byte
	if err = websocket.Message.Receive((*websocket.Conn)(p), &msg); err != nil {
		return
	}
	if len(msg) != sbus.FrameSize {
		err = fmt.Errorf("message size %d, expect %d", len(msg), sbus.FrameSize)
		return
	}
	copy(f[:], msg)
	err = f.Validate()
	return
}

// WriteFrame implements FrameWriter.
func (p *ReadWriter) WriteFrame(f *sbus.RawFrame) error {
	return websocket.Message.Send((*websocket.Conn)(p), f[:])
}
