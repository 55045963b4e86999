package protocol

import (
	"encoding/binary"
	"hash/crc32"
)

// FrameSize is the fixed size of a SensorSerialPackage envelope on the wire.
const FrameSize = 244

// StartByte marks the beginning of a Frame.
const StartByte = 0x02

// MaxPayloadSize is the largest payload a Frame can carry.
const MaxPayloadSize = 236

const (
	offStart   = 0
	offCRC     = 1
	offSize    = 5
	offHeader  = 6
	offPayload = 8
)

// Frame is the decoded view of a 244-byte wire envelope: start byte, CRC32,
// payload size, 16-bit header and up to 236 bytes of payload.
type Frame struct {
	Header  Header
	Payload []byte
}

// Encode writes header and payload as a 244-byte wire frame. The payload is zero-padded to
// MaxPayloadSize; CRC32 (IEEE) is computed over header||payload[:len].
func Encode(header Header, payload []byte) (out [FrameSize]byte, err error) {
	if len(payload) > MaxPayloadSize {
		return out, &Error{Kind: ErrDecodeError, Message: "payload too large"}
	}

	body := make([]byte, 2+len(payload))
	binary.LittleEndian.PutUint16(body, uint16(header))
	copy(body[2:], payload)
	crc := crc32.ChecksumIEEE(body)

	out[offStart] = StartByte
	binary.LittleEndian.PutUint32(out[offCRC:], crc)
	out[offSize] = byte(len(payload))
	binary.LittleEndian.PutUint16(out[offHeader:], uint16(header))
	copy(out[offPayload:], payload)
	return out, nil
}

// Decode parses a 244-byte wire frame, verifying the start byte, payload
// size bound and CRC32 before returning the decoded Frame.
func Decode(buf []byte) (Frame, error) {
	if len(buf) < FrameSize {
		return Frame{}, &Error{Kind: ErrFrameError, Message: "short frame"}
	}
	if buf[offStart] != StartByte {
		return Frame{}, &Error{Kind: ErrFrameError, Message: "bad start byte"}
	}
	size := int(buf[offSize])
	if size > MaxPayloadSize {
		return Frame{}, &Error{Kind: ErrFrameError, Message: "bad payload size"}
	}

	wantCRC := binary.LittleEndian.Uint32(buf[offCRC:])
	body := make([]byte, 2+size)
	copy(body, buf[offHeader:offHeader+2])
	copy(body[2:], buf[offPayload:offPayload+size])
	gotCRC := crc32.ChecksumIEEE(body)
	if gotCRC != wantCRC {
		return Frame{}, &Error{Kind: ErrFrameError, Message: "crc mismatch"}
	}

	payload := make([]byte, size)
	copy(payload, buf[offPayload:offPayload+size])
	return Frame{
		Header:  Header(binary.LittleEndian.Uint16(buf[offHeader:])),
		Payload: payload,
	}, nil
}
