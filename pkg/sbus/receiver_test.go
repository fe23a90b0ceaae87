package sbus

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type chanReader struct {
	ch chan []byte
}

func (r *chanReader) Read(p []byte) (int, error) {
	data, ok := <-r.ch
	if !ok {
		return 0, io.EOF
	}
	return copy(p, data), nil
}

type receiverTestCtx struct {
	t        *testing.T
	readCh   chan []byte
	packetCh chan Packet
	stateCh  chan LinkState
	recv     *Receiver
	cancel   func()
	errCh    chan error
}

func startReceiver(t *testing.T, timeout time.Duration) *receiverTestCtx {
	tc := &receiverTestCtx{
		t:        t,
		readCh:   make(chan []byte),
		packetCh: make(chan Packet, 8),
		stateCh:  make(chan LinkState, 8),
		errCh:    make(chan error, 1),
	}
	tc.recv = NewReceiver(&chanReader{ch: tc.readCh})
	if timeout != 0 {
		tc.recv.Timeout = timeout
	}
	tc.recv.Handler = HandlePacketFunc(func(ctx context.Context, pkt *Packet) {
		tc.packetCh <- *pkt
	})
	tc.recv.Notifier = LinkChangedFunc(func(ctx context.Context, state LinkState) {
		tc.stateCh <- state
	})
	var ctx context.Context
	ctx, tc.cancel = context.WithCancel(context.TODO())
	go func() { tc.errCh <- tc.recv.Run(ctx) }()
	return tc
}

func (tc *receiverTestCtx) stop() {
	tc.cancel()
	select {
	case err := <-tc.errCh:
		require.Equal(tc.t, context.Canceled, err)
	case <-time.After(500 * time.Millisecond):
		tc.t.Fatal("receiver did not stop")
	}
	close(tc.readCh)
}

func (tc *receiverTestCtx) inject(data []byte) {
	select {
	case tc.readCh <- data:
	case <-time.After(500 * time.Millisecond):
		tc.t.Fatal("inject timeout")
	}
}

func (tc *receiverTestCtx) expectPacket(expect Packet) {
	select {
	case pkt := <-tc.packetCh:
		require.Equal(tc.t, expect, pkt)
	case <-time.After(500 * time.Millisecond):
		tc.t.Fatal("expect packet timeout")
	}
}

func (tc *receiverTestCtx) expectState(expect LinkState) {
	select {
	case state := <-tc.stateCh:
		require.Equal(tc.t, expect, state)
	case <-time.After(500 * time.Millisecond):
		tc.t.Fatalf("expect state %v timeout", expect)
	}
}

func TestReceiver(t *testing.T) {
	tc := startReceiver(t, time.Second)
	defer tc.stop()

	tc.inject(testFrameBytes)
	tc.expectState(LinkActive)
	tc.expectPacket(testFramePacket)

	failsafe := Packet{Failsafe: true, FrameLost: true}
	tc.inject(failsafe.Bytes())
	tc.expectState(LinkFailsafe)
	tc.expectPacket(failsafe)
}

func TestReceiverSplitFrames(t *testing.T) {
	tc := startReceiver(t, time.Second)
	defer tc.stop()

	tc.inject(testFrameBytes[:11])
	tc.inject(testFrameBytes[11:])
	tc.expectPacket(testFramePacket)
	tc.expectState(LinkActive)
}

func TestReceiverIdleReset(t *testing.T) {
	tc := startReceiver(t, 20*time.Millisecond)
	defer tc.stop()

	// a partial frame followed by silence must not swallow the next frame
	tc.inject(testFrameBytes[:10])
	time.Sleep(60 * time.Millisecond)
	tc.inject(testFrameBytes)
	tc.expectPacket(testFramePacket)
	require.Empty(t, tc.packetCh)

	// silence after traffic drops the link
	tc.expectState(LinkActive)
	tc.expectState(LinkDown)
}

func TestReceiverDropsInvalid(t *testing.T) {
	tc := startReceiver(t, time.Second)
	defer tc.stop()

	tc.inject(fillFrame(0xFF, 0x0F, 0xFF))
	tc.inject(testFrameBytes)
	tc.expectPacket(testFramePacket)
	require.Equal(t, uint64(1), tc.recv.Dropped())
	require.Empty(t, tc.packetCh)
}

type timeoutError struct{}

func (timeoutError) Error() string { return "read timeout" }
func (timeoutError) Timeout() bool { return true }

// scriptReader replays data slices; a nil slice yields a timeout error.
type scriptReader struct {
	steps [][]byte
}

func (r *scriptReader) Read(p []byte) (int, error) {
	if len(r.steps) == 0 {
		time.Sleep(10 * time.Millisecond)
		return 0, timeoutError{}
	}
	step := r.steps[0]
	r.steps = r.steps[1:]
	if step == nil {
		return 0, timeoutError{}
	}
	return copy(p, step), nil
}

func TestReceiverReadTimeout(t *testing.T) {
	recv := NewReceiver(&scriptReader{steps: [][]byte{
		testFrameBytes[:10],
		nil, // idle gap resets the partial frame
		testFrameBytes,
	}})
	recv.ReadTimeout = true
	packetCh := make(chan Packet, 8)
	recv.Handler = HandlePacketFunc(func(ctx context.Context, pkt *Packet) {
		packetCh <- *pkt
	})

	ctx, cancel := context.WithCancel(context.TODO())
	errCh := make(chan error, 1)
	go func() { errCh <- recv.Run(ctx) }()

	select {
	case pkt := <-packetCh:
		require.Equal(t, testFramePacket, pkt)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expect packet timeout")
	}
	require.Empty(t, packetCh)

	cancel()
	select {
	case err := <-errCh:
		require.Equal(t, context.Canceled, err)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("receiver did not stop")
	}
}
