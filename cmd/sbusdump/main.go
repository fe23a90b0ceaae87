package main

import (
	"bytes"
	"encoding/hex"
	"flag"
	"io"
	"log"
	"net"
	"os"
	"strings"

	"github.com/robotalks/sbus.go/pkg/sbus"
)

var (
	inFile  = "-"
	connect = ""
	hexStr  = ""
)

func init() {
	flag.StringVar(&inFile, "in", inFile, "Input file with raw SBUS bytes, - for stdin.")
	flag.StringVar(&connect, "connect", connect, "Read bytes from a TCP address instead of a file.")
	flag.StringVar(&hexStr, "hex", hexStr, "Decode a hex encoded byte stream and exit.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	var in io.Reader
	switch {
	case hexStr != "":
		data, err := hex.DecodeString(strings.NewReplacer(":", "", " ", "").Replace(hexStr))
		if err != nil {
			log.Fatalln(err)
		}
		in = bytes.NewReader(data)
	case connect != "":
		conn, err := net.Dial("tcp", connect)
		if err != nil {
			log.Fatalln(err)
		}
		defer conn.Close()
		in = conn
	case inFile == "-":
		in = os.Stdin
	default:
		f, err := os.Open(inFile)
		if err != nil {
			log.Fatalln(err)
		}
		defer f.Close()
		in = f
	}

	dump(in)
}

func dump(in io.Reader) {
	var parser sbus.Parser
	var frames, bad int
	buf := make([]byte, 64)
	for {
		n, err := in.Read(buf)
		if n > 0 {
			it := parser.Frames(buf[:n])
			for res, ok := it.Next(); ok; res, ok = it.Next() {
				frames++
				if res.Err != nil {
					bad++
					log.Printf("bad frame: %v", res.Err)
					continue
				}
				pkt := res.Packet()
				log.Printf("%v ch17=%v ch18=%v frame_lost=%v failsafe=%v",
					pkt.Channels, pkt.Channel17, pkt.Channel18, pkt.FrameLost, pkt.Failsafe)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalln(err)
		}
	}
	log.Printf("%d frames, %d bad", frames, bad)
}
