package sbus

// Result is produced when the parser completes a frame. Err is non-nil
// if the frame failed validation; Frame holds the raw bytes either way.
type Result struct {
	Frame RawFrame
	Err   error
}

// Packet decodes the completed frame. Meaningful only when Err is nil.
func (r *Result) Packet() Packet {
	return r.Frame.Packet()
}

// Parser assembles frames from a byte stream one byte at a time.
//
// The zero value is ready to use. A Parser must not be fed from more
// than one goroutine; bytes must be fed in wire order.
type Parser struct {
	buf RawFrame
	// recvLen counts bytes placed into buf. Zero means awaiting the
	// header byte; bytes at index >= recvLen are stale.
	recvLen int
}

// Feed consumes one byte. The second return is true exactly when the
// byte completes a frame. While awaiting the header, non-header bytes
// are discarded; this is how the parser resynchronizes after
// corruption without external intervention. The header value can
// legally occur inside channel payload bytes, so a desynchronized
// stream may lock onto a false header; the footer and flag checks
// catch that on the next frame boundary. Feed never allocates.
func (p *Parser) Feed(b byte) (Result, bool) {
	switch {
	case p.recvLen == 0:
		if b == frameHead {
			p.buf[0] = b
			p.recvLen = 1
		}
	case p.recvLen == FrameSize-1:
		p.buf[p.recvLen] = b
		p.recvLen = 0
		r := Result{Frame: p.buf}
		r.Err = r.Frame.Validate()
		return r, true
	default:
		p.buf[p.recvLen] = b
		p.recvLen++
	}
	return Result{}, false
}

// Receiving indicates a frame is partially assembled.
func (p *Parser) Receiving() bool {
	return p.recvLen > 0
}

// Reset discards any partially assembled frame and returns to scanning
// for a header. Callers invoke it after an inter-byte gap longer than
// the protocol's frame interval, turning upstream byte loss or silence
// back into clean resynchronization. Reset never emits a frame.
func (p *Parser) Reset() {
	p.recvLen = 0
}

// Frames scans data through the parser and returns a lazy iterator
// over the frames completed along the way. The iterator is single-pass
// and not restartable; parser state persists across calls, so feeding
// consecutive chunks of a stream yields the same results as feeding
// every byte individually.
func (p *Parser) Frames(data []byte) *FrameIter {
	return &FrameIter{parser: p, data: data}
}

// FrameIter iterates over frames completed while scanning a byte slice.
type FrameIter struct {
	parser *Parser
	data   []byte
}

// Next returns the next completed frame result; the second return is
// false when the remaining bytes complete no frame.
func (it *FrameIter) Next() (Result, bool) {
	for len(it.data) > 0 {
		b := it.data[0]
		it.data = it.data[1:]
		if r, done := it.parser.Feed(b); done {
			return r, true
		}
	}
	return Result{}, false
}
