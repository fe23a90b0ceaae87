// Package sh provides the interactive shell for crafting and
// inspecting SBUS frames.
package sh

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/sbus.go/pkg/comm"
	"github.com/robotalks/sbus.go/pkg/comm/stream"
	"github.com/robotalks/sbus.go/pkg/sbus"
)

// Shell provides ishell backed interactive shell. It holds one
// work-in-progress packet which commands edit, inspect and send.
type Shell struct {
	Interactive bool
	OutputJSON  bool

	Shell  *ishell.Shell
	Packet sbus.Packet

	conn net.Conn
	sink comm.FrameWriter
}

const (
	shellKey           = "$shell"
	unconnectedPrompt  = "sbus > "
	connectedPromptFmt = "sbus [%s] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&SetCmd,
		&FlagsCmd,
		&ShowCmd,
		&HexCmd,
		&DecodeCmd,
		&ConnectCmd,
		&DisconnectCmd,
		&SendCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other command providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New() *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell: ishell.New(),
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// packetDoc is the JSON form of a packet for display.
type packetDoc struct {
	Channels  []uint16 `json:"channels"`
	Channel17 bool     `json:"ch17"`
	Channel18 bool     `json:"ch18"`
	FrameLost bool     `json:"frame_lost"`
	Failsafe  bool     `json:"failsafe"`
}

// PrintPacket prints a packet in plain or JSON form.
func PrintPacket(c *ishell.Context, pkt *sbus.Packet) error {
	s := ShellFrom(c)
	if s.OutputJSON {
		out, err := json.Marshal(&packetDoc{
			Channels:  pkt.Channels[:],
			Channel17: pkt.Channel17,
			Channel18: pkt.Channel18,
			FrameLost: pkt.FrameLost,
			Failsafe:  pkt.Failsafe,
		})
		if err != nil {
			c.Err(err)
			return err
		}
		c.Println(string(out))
		return nil
	}
	var w strings.Builder
	for i, v := range pkt.Channels {
		fmt.Fprintf(&w, "ch%02d=%-5d", i+1, v)
		if (i+1)%4 == 0 {
			w.WriteByte('\n')
		}
	}
	fmt.Fprintf(&w, "ch17=%v ch18=%v frame_lost=%v failsafe=%v",
		pkt.Channel17, pkt.Channel18, pkt.FrameLost, pkt.Failsafe)
	c.Println(w.String())
	return nil
}

// Connect dials a TCP frame sink.
func (s *Shell) Connect(addr string) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return err
	}
	if s.conn != nil {
		s.conn.Close()
	}
	s.conn, s.sink = conn, stream.New(conn)
	s.Shell.SetPrompt(fmt.Sprintf(connectedPromptFmt, addr))
	return nil
}

// Disconnect closes the current frame sink.
func (s *Shell) Disconnect() {
	if s.conn != nil {
		s.conn.Close()
		s.conn, s.sink = nil, nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// Send encodes the current packet and writes it to the sink.
func (s *Shell) Send() error {
	if s.sink == nil {
		return fmt.Errorf("not connected")
	}
	var f sbus.RawFrame
	s.Packet.Encode(&f)
	return s.sink.WriteFrame(&f)
}

// Run runs the shell.
func (s *Shell) Run(args ...string) error {
	defer s.Disconnect()
	if len(args) > 0 {
		return s.Shell.Process(args...)
	}
	if s.Interactive {
		s.Shell.Run()
		return nil
	}
	return fmt.Errorf("command expected")
}

func parseHexFrame(args []string) (*sbus.RawFrame, error) {
	str := strings.Join(args, "")
	str = strings.NewReplacer(":", "", " ", "").Replace(str)
	raw, err := hex.DecodeString(str)
	if err != nil {
		return nil, err
	}
	if len(raw) != sbus.FrameSize {
		return nil, fmt.Errorf("%d bytes, expect %d", len(raw), sbus.FrameSize)
	}
	var f sbus.RawFrame
	copy(f[:], raw)
	return &f, nil
}

var (
	// SetCmd sets a channel value.
	SetCmd = ishell.Cmd{
		Name: "set",
		Help: "CHANNEL VALUE (channel 1-16, value 0-2047)",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 2 {
				c.Err(fmt.Errorf("usage: set CHANNEL VALUE"))
				return
			}
			ch, err := strconv.Atoi(c.Args[0])
			if err != nil || ch < 1 || ch > sbus.NumChannels {
				c.Err(fmt.Errorf("channel must be 1-%d", sbus.NumChannels))
				return
			}
			val, err := strconv.Atoi(c.Args[1])
			if err != nil || val < 0 || val > sbus.ChannelMax {
				c.Err(fmt.Errorf("value must be 0-%d", sbus.ChannelMax))
				return
			}
			ShellFrom(c).Packet.Channels[ch-1] = uint16(val)
		},
	}

	// FlagsCmd shows or sets status flags.
	FlagsCmd = ishell.Cmd{
		Name: "flags",
		Help: "[ch17|ch18|framelost|failsafe on|off]",
		Func: func(c *ishell.Context) {
			pkt := &ShellFrom(c).Packet
			if len(c.Args) == 0 {
				c.Printf("ch17=%v ch18=%v frame_lost=%v failsafe=%v\n",
					pkt.Channel17, pkt.Channel18, pkt.FrameLost, pkt.Failsafe)
				return
			}
			if len(c.Args) != 2 {
				c.Err(fmt.Errorf("usage: flags NAME on|off"))
				return
			}
			var val bool
			switch c.Args[1] {
			case "on":
				val = true
			case "off":
			default:
				c.Err(fmt.Errorf("expect on or off"))
				return
			}
			switch c.Args[0] {
			case "ch17":
				pkt.Channel17 = val
			case "ch18":
				pkt.Channel18 = val
			case "framelost":
				pkt.FrameLost = val
			case "failsafe":
				pkt.Failsafe = val
			default:
				c.Err(fmt.Errorf("unknown flag %q", c.Args[0]))
			}
		},
	}

	// ShowCmd prints the current packet.
	ShowCmd = ishell.Cmd{
		Name:    "show",
		Aliases: []string{"s"},
		Help:    "",
		Func: func(c *ishell.Context) {
			PrintPacket(c, &ShellFrom(c).Packet)
		},
	}

	// HexCmd prints the encoded frame.
	HexCmd = ishell.Cmd{
		Name: "hex",
		Help: "",
		Func: func(c *ishell.Context) {
			c.Println(hex.EncodeToString(ShellFrom(c).Packet.Bytes()))
		},
	}

	// DecodeCmd decodes a hex encoded frame.
	DecodeCmd = ishell.Cmd{
		Name: "decode",
		Help: "HEX (25 bytes; spaces and colons ignored)",
		Func: func(c *ishell.Context) {
			f, err := parseHexFrame(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			if err = f.Validate(); err != nil {
				c.Err(err)
				return
			}
			pkt := f.Packet()
			PrintPacket(c, &pkt)
		},
	}

	// ConnectCmd connects a TCP frame sink.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "HOST:PORT",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(fmt.Errorf("usage: connect HOST:PORT"))
				return
			}
			if err := ShellFrom(c).Connect(c.Args[0]); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd disconnects the current sink.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}

	// SendCmd sends the current packet to the sink.
	SendCmd = ishell.Cmd{
		Name: "send",
		Help: "",
		Func: func(c *ishell.Context) {
			if err := ShellFrom(c).Send(); err != nil {
				c.Err(err)
			}
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	if err := New().Run(flag.Args()...); err != nil {
		fmt.Println(err)
	}
}
