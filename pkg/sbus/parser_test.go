package sbus

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// feedAll feeds bytes expecting no frame completion.
func feedAll(t *testing.T, p *Parser, data []byte) {
	for _, b := range data {
		_, done := p.Feed(b)
		require.False(t, done)
	}
}

// collect drains an iterator.
func collect(it *FrameIter) (results []Result) {
	for r, ok := it.Next(); ok; r, ok = it.Next() {
		results = append(results, r)
	}
	return
}

// fiveFrameStream concatenates five frames: bad footer, the reference
// frame, all channels high, all channels low, bad flags.
func fiveFrameStream() []byte {
	var data []byte
	data = append(data, fillFrame(0xFF, 0x0F, 0xFF)...)
	data = append(data, testFrameBytes...)
	data = append(data, fillFrame(0xFF, 0x0F, 0x00)...)
	data = append(data, fillFrame(0x00, 0x00, 0x00)...)
	data = append(data, fillFrame(0xFF, 0xFF, 0x00)...)
	return data
}

func TestParserFeed(t *testing.T) {
	var p Parser
	feedAll(t, &p, testFrameBytes[:FrameSize-1])
	res, done := p.Feed(testFrameBytes[FrameSize-1])
	require.True(t, done)
	require.NoError(t, res.Err)
	require.Equal(t, testFrameBytes, res.Frame[:])
	require.Equal(t, testFramePacket, res.Packet())
	require.False(t, p.Receiving())
}

func TestParserFeedErrors(t *testing.T) {
	testCases := []struct {
		name   string
		frame  []byte
		expect error
	}{
		{"bad footer", fillFrame(0xFF, 0x0F, 0xFF), &InvalidFooterError{Footer: 0xFF}},
		{"bad flags", fillFrame(0xFF, 0xFF, 0x00), &InvalidFlagsError{Flags: 0xFF}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var p Parser
			feedAll(t, &p, tc.frame[:FrameSize-1])
			res, done := p.Feed(tc.frame[FrameSize-1])
			require.True(t, done)
			require.Equal(t, tc.expect, res.Err)
		})
	}
}

func TestParserResync(t *testing.T) {
	var p Parser
	// noise before the header is discarded without a state change
	for _, b := range []byte{0x00, 0xFF, 0x55, 0xAA, 0x0E, 0x10} {
		_, done := p.Feed(b)
		require.False(t, done)
		require.False(t, p.Receiving())
	}
	// the header byte always starts a new read
	_, done := p.Feed(0x0F)
	require.False(t, done)
	require.True(t, p.Receiving())

	feedAll(t, &p, testFrameBytes[1:FrameSize-1])
	res, done := p.Feed(testFrameBytes[FrameSize-1])
	require.True(t, done)
	require.NoError(t, res.Err)
	require.Equal(t, testFramePacket, res.Packet())
}

func TestParserReset(t *testing.T) {
	var p Parser
	feedAll(t, &p, testFrameBytes[:10])
	require.True(t, p.Receiving())
	p.Reset()
	require.False(t, p.Receiving())

	results := collect(p.Frames(testFrameBytes))
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	require.Equal(t, testFramePacket, results[0].Packet())
}

func TestParserFrames(t *testing.T) {
	data := fiveFrameStream()
	var p Parser
	results := collect(p.Frames(data))
	require.Len(t, results, 5)

	require.Equal(t, &InvalidFooterError{Footer: 0xFF}, results[0].Err)
	require.NoError(t, results[1].Err)
	require.Equal(t, testFramePacket, results[1].Packet())
	require.NoError(t, results[2].Err)
	require.Equal(t, uint16(ChannelMax), results[2].Packet().Channels[0])
	require.NoError(t, results[3].Err)
	require.Equal(t, Packet{}, results[3].Packet())
	require.Equal(t, &InvalidFlagsError{Flags: 0xFF}, results[4].Err)
}

func TestParserFramesMatchFeed(t *testing.T) {
	data := fiveFrameStream()
	// interleave some noise so resynchronization paths are covered
	noisy := append([]byte{0x00, 0x0F, 0x13}, data[:40]...)
	noisy = append(noisy, data[40:]...)

	var ref Parser
	var expect []Result
	for _, b := range noisy {
		if r, done := ref.Feed(b); done {
			expect = append(expect, r)
		}
	}

	for _, chunkLen := range []int{1, 7, FrameSize, len(noisy)} {
		t.Run(fmt.Sprintf("chunk-%d", chunkLen), func(t *testing.T) {
			var p Parser
			var results []Result
			for off := 0; off < len(noisy); off += chunkLen {
				end := off + chunkLen
				if end > len(noisy) {
					end = len(noisy)
				}
				results = append(results, collect(p.Frames(noisy[off:end]))...)
			}
			require.Equal(t, expect, results)
		})
	}
}
