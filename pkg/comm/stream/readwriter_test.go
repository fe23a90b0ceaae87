package stream

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/sbus.go/pkg/sbus"
)

func TestReadWriter(t *testing.T) {
	first := sbus.Packet{Channel17: true}
	first.Channels[0] = 1024
	second := sbus.Packet{FrameLost: true}
	second.Channels[15] = sbus.ChannelMax

	var buf bytes.Buffer
	// partial garbage before the first frame, as seen when attaching
	// to a live stream mid-frame
	buf.Write([]byte{0x55, 0xAA, 0x0E})

	rw := New(&buf)
	for _, p := range []*sbus.Packet{&first, &second} {
		var f sbus.RawFrame
		p.Encode(&f)
		require.NoError(t, rw.WriteFrame(&f))
	}

	f, err := rw.ReadFrame()
	require.NoError(t, err)
	require.Equal(t, first, f.Packet())

	f, err = rw.ReadFrame()
	require.NoError(t, err)
	require.Equal(t, second, f.Packet())

	_, err = rw.ReadFrame()
	require.Equal(t, io.EOF, err)
}

func TestReadFrameInvalid(t *testing.T) {
	var bad, good sbus.Packet
	good.Channel18 = true
	raw := bad.Bytes()
	raw[sbus.FrameSize-1] = 0xA5

	var buf bytes.Buffer
	buf.Write(raw)
	buf.Write(good.Bytes())

	rw := New(&buf)
	_, err := rw.ReadFrame()
	require.Equal(t, &sbus.InvalidFooterError{Footer: 0xA5}, err)

	f, err := rw.ReadFrame()
	require.NoError(t, err)
	require.Equal(t, good, f.Packet())
}
