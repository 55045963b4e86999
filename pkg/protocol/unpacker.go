package protocol

// Unpacker is a stateful byte-stream framer: feed it arbitrary chunks of
// a byte stream and it emits whole, CRC-valid Frames, resynchronising
// byte-by-byte on corruption instead of losing the stream.
type Unpacker struct {
	buf     []byte
	start   int
	dropped uint64
}

// NewUnpacker returns an empty Unpacker.
func NewUnpacker() *Unpacker { return &Unpacker{} }

// Feed appends b to the internal buffer and returns every whole frame
// that can now be extracted, in wire order.
func (u *Unpacker) Feed(b []byte) []Frame {
	u.buf = append(u.buf, b...)

	var out []Frame
	for {
		if len(u.buf)-u.start < FrameSize {
			break
		}
		if u.buf[u.start] != StartByte {
			u.start++
			u.dropped++
			continue
		}
		f, err := Decode(u.buf[u.start : u.start+FrameSize])
		if err != nil {
			// Byte-precise resync: the start byte was a false positive,
			// discard only it and retry from the next byte.
			u.start++
			u.dropped++
			continue
		}
		out = append(out, f)
		u.start += FrameSize
	}

	// Compact the consumed prefix back into the front of buf instead of
	// just advancing a slice header, so a long corrupt run doesn't pin
	// the whole history in the backing array.
	if u.start > 0 {
		if u.start >= len(u.buf) {
			u.buf = u.buf[:0]
		} else {
			n := copy(u.buf, u.buf[u.start:])
			u.buf = u.buf[:n]
		}
		u.start = 0
	}
	return out
}

// Dropped returns the running count of bytes discarded during resync,
// for telemetry.
func (u *Unpacker) Dropped() uint64 { return u.dropped }
