package mqtt

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/sbus.go/pkg/sbus"
)

// ChannelsMessage is the JSON document published per decoded frame.
type ChannelsMessage struct {
	Channels  []uint16 `json:"channels"`
	Channel17 bool     `json:"ch17"`
	Channel18 bool     `json:"ch18"`
	FrameLost bool     `json:"frame_lost"`
	Failsafe  bool     `json:"failsafe"`
}

// StatusMessage is published retained when the link state changes.
type StatusMessage struct {
	Link    string `json:"link"`
	Dropped uint64 `json:"dropped,omitempty"`
}

// Publisher publishes decoded frames on the channels topic and link
// state on the status topic. Frames arrive every 7-14ms which would
// flood the broker, so only the latest packet is published, at
// Interval. Status changes are published immediately and retained.
type Publisher struct {
	Queue    *Queue
	Interval time.Duration
	// Dropped optionally reports the receiver's dropped frame count
	// for inclusion in status messages.
	Dropped func() uint64

	lock   sync.Mutex
	latest *sbus.Packet
}

// NewPublisher creates a Publisher.
func NewPublisher(q *Queue) *Publisher {
	return &Publisher{
		Queue:    q,
		Interval: 100 * time.Millisecond,
	}
}

// HandlePacket implements sbus.PacketHandler.
func (p *Publisher) HandlePacket(ctx context.Context, pkt *sbus.Packet) {
	p.lock.Lock()
	p.latest = pkt
	p.lock.Unlock()
}

// LinkChanged implements sbus.LinkNotifier.
func (p *Publisher) LinkChanged(ctx context.Context, state sbus.LinkState) {
	msg := StatusMessage{Link: state.String()}
	if p.Dropped != nil {
		msg.Dropped = p.Dropped()
	}
	payload, err := json.Marshal(&msg)
	if err != nil {
		glog.Errorf("status encode: %v", err)
		return
	}
	p.Queue.PubWith("status", payload, 0, true)
}

// Run implements framework.Runnable.
func (p *Publisher) Run(ctx context.Context) error {
	interval := p.Interval
	if interval == 0 {
		interval = 100 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.lock.Lock()
			pkt := p.latest
			p.latest = nil
			p.lock.Unlock()
			if pkt == nil {
				continue
			}
			msg := ChannelsMessage{
				Channels:  pkt.Channels[:],
				Channel17: pkt.Channel17,
				Channel18: pkt.Channel18,
				FrameLost: pkt.FrameLost,
				Failsafe:  pkt.Failsafe,
			}
			payload, err := json.Marshal(&msg)
			if err != nil {
				glog.Errorf("channels encode: %v", err)
				continue
			}
			p.Queue.Pub("channels", payload)
		}
	}
}
