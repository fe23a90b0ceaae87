package main

// Feeds encoded frames to a TCP sink at the protocol frame interval,
// for SITL links and bench testing of receivers.

import (
	"flag"
	"log"
	"net"
	"time"

	"github.com/robotalks/sbus.go/pkg/comm/stream"
	"github.com/robotalks/sbus.go/pkg/sbus"
)

var (
	connect  = "localhost:5761"
	value    = 992
	interval = 14 * time.Millisecond
	sweep    bool
	count    int
)

func init() {
	flag.StringVar(&connect, "connect", connect, "TCP address to send frames to.")
	flag.IntVar(&value, "value", value, "Value for all channels.")
	flag.DurationVar(&interval, "interval", interval, "Frame interval.")
	flag.BoolVar(&sweep, "sweep", sweep, "Sweep channel values across the full range.")
	flag.IntVar(&count, "count", count, "Number of frames to send, 0 for no limit.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	if value < 0 || value > sbus.ChannelMax {
		log.Fatalf("value must be 0-%d", sbus.ChannelMax)
	}

	conn, err := net.Dial("tcp", connect)
	if err != nil {
		log.Fatalln(err)
	}
	defer conn.Close()
	log.Printf("sending to %s every %v", connect, interval)

	rw := stream.New(conn)
	var pkt sbus.Packet
	for i := range pkt.Channels {
		pkt.Channels[i] = uint16(value)
	}

	var f sbus.RawFrame
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for sent := 0; count == 0 || sent < count; sent++ {
		if sweep {
			v := uint16(sent * 16 % (sbus.ChannelMax + 1))
			for i := range pkt.Channels {
				pkt.Channels[i] = v
			}
		}
		pkt.Encode(&f)
		if err := rw.WriteFrame(&f); err != nil {
			log.Fatalln(err)
		}
		<-ticker.C
	}
}
