package main

import (
	"context"
	"flag"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/robotalks/sbus.go/pkg/bridge/mqtt"
	"github.com/robotalks/sbus.go/pkg/comm/stream"
	wscomm "github.com/robotalks/sbus.go/pkg/comm/websocket"
	"github.com/robotalks/sbus.go/pkg/framework"
	"github.com/robotalks/sbus.go/pkg/sbus"
)

var (
	source   = "localhost:5761"
	mqttURL  = "mqtt://localhost:1883/sbus/"
	wsListen = ""
	interval = 100 * time.Millisecond
)

func init() {
	if val := os.Getenv("SBUS_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&source, "source", source, "TCP address delivering raw SBUS bytes.")
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.StringVar(&wsListen, "ws", wsListen, "Optional listen address serving frames over websocket.")
	flag.DurationVar(&interval, "interval", interval, "Channel publish interval.")
}

// broadcaster fans valid frames out to websocket clients.
type broadcaster struct {
	lock  sync.Mutex
	conns map[*wscomm.ReadWriter]struct{}
}

func newBroadcaster() *broadcaster {
	return &broadcaster{conns: make(map[*wscomm.ReadWriter]struct{})}
}

// HandlePacket implements sbus.PacketHandler.
func (b *broadcaster) HandlePacket(ctx context.Context, pkt *sbus.Packet) {
	var f sbus.RawFrame
	pkt.Encode(&f)
	b.lock.Lock()
	defer b.lock.Unlock()
	for conn := range b.conns {
		if err := conn.WriteFrame(&f); err != nil {
			glog.V(1).Infof("websocket client dropped: %v", err)
			delete(b.conns, conn)
		}
	}
}

func (b *broadcaster) serve(ws *websocket.Conn) {
	conn := wscomm.New(ws)
	b.lock.Lock()
	b.conns[conn] = struct{}{}
	b.lock.Unlock()
	// hold the connection open; clients only consume
	var buf [1]byte
	for {
		if _, err := ws.Read(buf[:]); err != nil {
			break
		}
	}
	b.lock.Lock()
	delete(b.conns, conn)
	b.lock.Unlock()
}

// multiHandler dispatches a packet to multiple handlers.
type multiHandler []sbus.PacketHandler

// HandlePacket implements sbus.PacketHandler.
func (m multiHandler) HandlePacket(ctx context.Context, pkt *sbus.Packet) {
	for _, h := range m {
		h.HandlePacket(ctx, pkt)
	}
}

func main() {
	flag.Parse()

	conn, err := net.Dial("tcp", source)
	if err != nil {
		glog.Exitln(err)
	}
	defer conn.Close()

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		glog.Exitln(err)
	}
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		glog.Exitln(token.Error())
	}
	defer q.Close()
	q.SubscribeTX(stream.New(conn))

	pub := mqtt.NewPublisher(q)
	pub.Interval = interval

	recv := sbus.NewReceiver(conn)
	recv.Notifier = pub
	pub.Dropped = recv.Dropped

	handlers := multiHandler{pub}
	if wsListen != "" {
		bc := newBroadcaster()
		handlers = append(handlers, bc)
		go func() {
			glog.Exitln(http.ListenAndServe(wsListen, websocket.Handler(bc.serve)))
		}()
	}
	recv.Handler = handlers

	err = framework.NewRunner().HandleSignals().
		Go(framework.NamedRun("receiver", recv), framework.NamedRun("publisher", pub)).
		Wait()
	if err != nil {
		glog.Exitln(err)
	}
}
