package sbus

import "io"

// FrameSize is the fixed length of an SBUS frame in bytes.
const FrameSize = 25

// NumChannels is the number of proportional channels in a frame.
const NumChannels = 16

// ChannelMax is the largest value an 11-bit channel can hold.
const ChannelMax = 0x07FF

const (
	frameHead byte = 0x0F
	frameEnd  byte = 0x00
	flagMask  byte = 0xF0
	chanMask       = uint16(ChannelMax)
)

// isFooter checks the footer byte against the values the protocol defines.
func isFooter(b byte) bool {
	switch b {
	case 0x00: // end of frame
		return true
	case 0x04, 0x14, 0x24, 0x34: // telemetry slots 0-7, 8-15, 16-23, 24-31
		return true
	}
	return false
}

// RawFrame is a complete frame as it appears on the wire.
type RawFrame [FrameSize]byte

// Footer returns the footer byte.
func (f *RawFrame) Footer() byte {
	return f[FrameSize-1]
}

// Validate checks frame integrity: the footer byte must be a recognized
// value and the upper nibble of the flag byte must be zero. The footer
// is checked first, so a frame with both defects reports the footer.
func (f *RawFrame) Validate() error {
	if !isFooter(f[FrameSize-1]) {
		return &InvalidFooterError{Footer: f[FrameSize-1]}
	}
	if flags := f[FrameSize-2]; flags&flagMask != 0 {
		return &InvalidFlagsError{Flags: flags}
	}
	return nil
}

// Packet decodes the channel values and status flags.
//
// Channel i occupies bits [11*i, 11*i+11) of the payload counting from
// the LSB of f[1]. The shifts below are the unrolled form of that
// layout; every channel is masked to 11 bits.
func (f *RawFrame) Packet() (p Packet) {
	for g := 0; g < 2; g++ {
		b := f[1+11*g:]
		ch := p.Channels[8*g:]
		ch[0] = (uint16(b[0]) | uint16(b[1])<<8) & chanMask
		ch[1] = (uint16(b[1])>>3 | uint16(b[2])<<5) & chanMask
		ch[2] = (uint16(b[2])>>6 | uint16(b[3])<<2 | uint16(b[4])<<10) & chanMask
		ch[3] = (uint16(b[4])>>1 | uint16(b[5])<<7) & chanMask
		ch[4] = (uint16(b[5])>>4 | uint16(b[6])<<4) & chanMask
		ch[5] = (uint16(b[6])>>7 | uint16(b[7])<<1 | uint16(b[8])<<9) & chanMask
		ch[6] = (uint16(b[8])>>2 | uint16(b[9])<<6) & chanMask
		ch[7] = (uint16(b[9])>>5 | uint16(b[10])<<3) & chanMask
	}
	flags := f[FrameSize-2]
	p.Channel17 = flags&0x01 != 0
	p.Channel18 = flags&0x02 != 0
	p.FrameLost = flags&0x04 != 0
	p.Failsafe = flags&0x08 != 0
	return
}

// Packet contains the decoded content of a frame.
type Packet struct {
	// Channels holds the proportional channel values, 0 to ChannelMax.
	Channels [NumChannels]uint16
	// Channel17 and Channel18 are the two digital channels.
	Channel17 bool
	Channel18 bool
	// FrameLost reports the receiver missed the last frame.
	FrameLost bool
	// Failsafe reports the receiver activated failsafe outputs.
	Failsafe bool
}

// Encode fills a caller-provided frame buffer with the wire
// representation. The footer is always the end-of-frame value; encoding
// telemetry slot frames is not supported. Stale buffer content is fully
// overwritten. Channel values above ChannelMax are truncated to 11 bits.
func (p *Packet) Encode(f *RawFrame) {
	var ch [NumChannels]uint16
	for i, v := range p.Channels {
		ch[i] = v & chanMask
	}

	f[0] = frameHead
	for g := 0; g < 2; g++ {
		b := f[1+11*g:]
		c := ch[8*g:]
		b[0] = byte(c[0])
		b[1] = byte(c[0]>>8) | byte(c[1]<<3)
		b[2] = byte(c[1]>>5) | byte(c[2]<<6)
		b[3] = byte(c[2] >> 2)
		b[4] = byte(c[2]>>10) | byte(c[3]<<1)
		b[5] = byte(c[3]>>7) | byte(c[4]<<4)
		b[6] = byte(c[4]>>4) | byte(c[5]<<7)
		b[7] = byte(c[5] >> 1)
		b[8] = byte(c[5]>>9) | byte(c[6]<<2)
		b[9] = byte(c[6]>>6) | byte(c[7]<<5)
		b[10] = byte(c[7] >> 3)
	}

	var flags byte
	if p.Channel17 {
		flags |= 0x01
	}
	if p.Channel18 {
		flags |= 0x02
	}
	if p.FrameLost {
		flags |= 0x04
	}
	if p.Failsafe {
		flags |= 0x08
	}
	f[FrameSize-2] = flags
	f[FrameSize-1] = frameEnd
}

// Bytes returns encoded bytes for sending.
func (p *Packet) Bytes() []byte {
	var f RawFrame
	p.Encode(&f)
	return f[:]
}

// WriteTo writes encoded bytes.
func (p *Packet) WriteTo(w io.Writer) (int, error) {
	var f RawFrame
	p.Encode(&f)
	return w.Write(f[:])
}
