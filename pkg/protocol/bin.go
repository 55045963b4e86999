package protocol

import (
	"encoding/binary"
	"math"
)

// reader walks a payload slice emitting little-endian fields in
// declaration order, matching the wire's no-padding layout.
type reader struct {
	buf []byte
	pos int
}

func newReader(buf []byte) *reader { return &reader{buf: buf} }

func (r *reader) u8() uint8 {
	v := r.buf[r.pos]
	r.pos++
	return v
}

func (r *reader) i8() int8 { return int8(r.u8()) }

func (r *reader) u16() uint16 {
	v := binary.LittleEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v
}

func (r *reader) i16() int16 { return int16(r.u16()) }

func (r *reader) u32() uint32 {
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v
}

func (r *reader) u64() uint64 {
	v := binary.LittleEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v
}

func (r *reader) i64() int64 { return int64(r.u64()) }

func (r *reader) f32() float32 {
	bits := r.u32()
	return math.Float32frombits(bits)
}

func (r *reader) bytes(n int) []byte {
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return append([]byte(nil), b...)
}

func (r *reader) vec3i16(scale float64) Vec3 {
	var raw [3]int16
	for i := range raw {
		raw[i] = r.i16()
	}
	return decodeVec3(raw, scale)
}

// writer is the inverse of reader: appends little-endian fields in order.
type writer struct {
	buf []byte
}

func newWriter(cap int) *writer { return &writer{buf: make([]byte, 0, cap)} }

func (w *writer) u8(v uint8)   { w.buf = append(w.buf, v) }
func (w *writer) i8(v int8)    { w.u8(uint8(v)) }

func (w *writer) u16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}
func (w *writer) i16(v int16) { w.u16(uint16(v)) }

func (w *writer) u32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *writer) u64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *writer) i64(v int64) { w.u64(uint64(v)) }

func (w *writer) f32(v float32) { w.u32(math.Float32bits(v)) }

func (w *writer) bytes(b []byte) { w.buf = append(w.buf, b...) }

func (w *writer) vec3i16(v Vec3, scale float64) {
	raw := encodeVec3(v, scale)
	for _, r := range raw {
		w.i16(r)
	}
}

// fixedASCII copies s into an n-byte NUL-padded field, truncating if s is
// longer than n.
func fixedASCII(s string, n int) []byte {
	b := make([]byte, n)
	copy(b, s)
	return b
}

func trimASCII(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
