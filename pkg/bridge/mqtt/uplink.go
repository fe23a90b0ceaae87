package mqtt

import (
	"github.com/golang/glog"

	"github.com/robotalks/sbus.go/pkg/comm"
	"github.com/robotalks/sbus.go/pkg/sbus"
)

// SubscribeTX forwards frames published on the tx topic to a frame
// writer. Payloads must be exactly one raw frame; invalid frames are
// rejected before they reach the wire.
func (q *Queue) SubscribeTX(w comm.FrameWriter) {
	q.Sub("tx", func(topic string, payload []byte) {
		if len(payload) != sbus.FrameSize {
			glog.Warningf("tx payload size %d, expect %d", len(payload), sbus.FrameSize)
			return
		}
		var f sbus.RawFrame
		copy(f[:], payload)
		if err := f.Validate(); err != nil {
			glog.Warningf("tx frame rejected: %v", err)
			return
		}
		if err := w.WriteFrame(&f); err != nil {
			glog.Errorf("tx write: %v", err)
		}
	})
}
