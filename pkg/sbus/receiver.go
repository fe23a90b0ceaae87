package sbus

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/golang/glog"
)

// PacketHandler is called for every frame that passes validation.
type PacketHandler interface {
	HandlePacket(context.Context, *Packet)
}

// HandlePacketFunc is func type of PacketHandler.
type HandlePacketFunc func(context.Context, *Packet)

// HandlePacket implements PacketHandler.
func (f HandlePacketFunc) HandlePacket(ctx context.Context, pkt *Packet) {
	f(ctx, pkt)
}

// LinkState describes the condition of the RC link.
type LinkState int

const (
	// LinkDown means no frames are arriving.
	LinkDown LinkState = iota
	// LinkActive means frames are arriving with clear status flags.
	LinkActive
	// LinkFrameLost means the transmitting receiver reports missed frames.
	LinkFrameLost
	// LinkFailsafe means the transmitting receiver activated failsafe.
	LinkFailsafe
)

// String returns a human readable state name.
func (s LinkState) String() string {
	switch s {
	case LinkActive:
		return "active"
	case LinkFrameLost:
		return "frame-lost"
	case LinkFailsafe:
		return "failsafe"
	}
	return "down"
}

// LinkNotifier is called when the link state changed.
type LinkNotifier interface {
	LinkChanged(context.Context, LinkState)
}

// LinkChangedFunc is func type of LinkNotifier.
type LinkChangedFunc func(context.Context, LinkState)

// LinkChanged implements LinkNotifier.
func (f LinkChangedFunc) LinkChanged(ctx context.Context, state LinkState) {
	f(ctx, state)
}

// Receiver pumps bytes from a reader into a Parser and delivers
// decoded packets. Frames failing validation are counted and dropped;
// the parser resynchronizes on its own. A read gap longer than Timeout
// resets the parser so a partially filled buffer never swallows the
// frame following a silence.
type Receiver struct {
	Reader   io.Reader
	Handler  PacketHandler
	Notifier LinkNotifier
	Timeout  time.Duration
	// ReadTimeout is set when Reader.Read itself fails with a timeout
	// error on an idle line (e.g. a serial port with a read deadline).
	// Otherwise an internal timer detects the gap.
	ReadTimeout bool

	state   LinkState
	dropped uint64
	lock    sync.RWMutex

	idleTimer <-chan time.Time
	parser    Parser
}

// NewReceiver creates a Receiver. The default Timeout covers two
// frame intervals of an analog-mode link.
func NewReceiver(r io.Reader) *Receiver {
	return &Receiver{
		Reader:  r,
		Timeout: 28 * time.Millisecond,
	}
}

// State gets the current link state.
func (r *Receiver) State() LinkState {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.state
}

// Dropped returns the count of frames discarded for validation errors.
func (r *Receiver) Dropped() uint64 {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.dropped
}

// Run processes the byte stream until ctx is done or the reader fails.
func (r *Receiver) Run(ctx context.Context) error {
	if r.ReadTimeout {
		buf := make([]byte, 64)
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				n, err := r.Reader.Read(buf)
				switch {
				case err == nil && n > 0:
					r.feed(ctx, buf[:n])
				case err == nil || os.IsTimeout(err):
					r.idle(ctx)
				default:
					return err
				}
			}
		}
	}

	dataCh, errCh := make(chan []byte), make(chan error, 1)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go r.readLoop(subCtx, dataCh, errCh)
	for {
		select {
		case data := <-dataCh:
			r.feed(ctx, data)
			r.idleTimer = time.After(r.Timeout)
		case <-r.idleTimer:
			r.idle(ctx)
		case err := <-errCh:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (r *Receiver) readLoop(ctx context.Context, dataCh chan []byte, errCh chan error) {
	buf := make([]byte, 64)
	for {
		select {
		case <-ctx.Done():
			return
		default:
			n, err := r.Reader.Read(buf)
			if err != nil {
				errCh <- err
				return
			}
			if n == 0 {
				continue
			}
			data := make([]byte, n)
			copy(data, buf[:n])
			dataCh <- data
		}
	}
}

func (r *Receiver) feed(ctx context.Context, data []byte) {
	it := r.parser.Frames(data)
	for res, ok := it.Next(); ok; res, ok = it.Next() {
		r.applyResult(ctx, &res)
	}
}

func (r *Receiver) applyResult(ctx context.Context, res *Result) {
	if res.Err != nil {
		r.lock.Lock()
		r.dropped++
		n := r.dropped
		r.lock.Unlock()
		if glog.V(1) {
			glog.Infof("frame dropped (%d total): %v", n, res.Err)
		}
		return
	}
	pkt := res.Packet()
	state := LinkActive
	if pkt.Failsafe {
		state = LinkFailsafe
	} else if pkt.FrameLost {
		state = LinkFrameLost
	}
	r.setState(ctx, state)
	if h := r.Handler; h != nil {
		h.HandlePacket(ctx, &pkt)
	}
}

// idle handles a gap on the line: any partial frame is stale.
func (r *Receiver) idle(ctx context.Context) {
	r.parser.Reset()
	r.setState(ctx, LinkDown)
}

func (r *Receiver) setState(ctx context.Context, state LinkState) {
	r.lock.Lock()
	changed := r.state != state
	r.state = state
	r.lock.Unlock()
	if changed {
		if glog.V(2) {
			glog.Infof("link %v", state)
		}
		if n := r.Notifier; n != nil {
			n.LinkChanged(ctx, state)
		}
	}
}
