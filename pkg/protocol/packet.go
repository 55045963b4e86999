package protocol

import "reflect"

// Packet is any decoded payload type. Concrete types live alongside their
// family (packets_device.go, packets_sensor.go, ...); Opaque covers
// reserved/unknown headers.
type Packet interface {
	// Header returns the wire header this packet encodes/decodes under.
	Header() Header
}

// Opaque is returned for a Header not present in the registry, so
// forward-compatible callers can inspect the raw bytes instead of
// failing the whole session.
type Opaque struct {
	Head    Header
	Payload []byte
}

func (o Opaque) Header() Header { return o.Head }

// codec is the registry entry for one Header: how to turn bytes into a
// Packet and back. size < 0 means variable-length (the decoder itself
// validates length).
type codec struct {
	size    int
	decode  func(payload []byte) (Packet, error)
	encode  func(p Packet) ([]byte, error)
}

// registry maps each known header to its codec; it is filled at init time
// by the per-family register calls.
var registry = map[Header]codec{}

func register(h Header, size int, decode func([]byte) (Packet, error), encode func(Packet) ([]byte, error)) {
	registry[h] = codec{size: size, decode: decode, encode: encode}
}

// DecodePacket turns a wire Frame into a typed Packet, or an Opaque
// wrapper if the header is unregistered. An unknown header is not an
// error: it is valid forward-compatible wire content.
func DecodePacket(f Frame) (Packet, error) {
	c, ok := registry[f.Header]
	if !ok {
		return Opaque{Head: f.Header, Payload: f.Payload}, nil
	}
	if c.size >= 0 && len(f.Payload) != c.size {
		return nil, &Error{
			Kind:    ErrDecodeError,
			Header:  f.Header,
			Message: "payload size mismatch for registered header",
		}
	}
	p, err := c.decode(f.Payload)
	if err != nil || p.Header() == f.Header {
		return p, err
	}
	// Variants shared by a Cmd/Ack pair decode without their header; stamp
	// the frame's header into their Head field.
	v := reflect.New(reflect.TypeOf(p)).Elem()
	v.Set(reflect.ValueOf(p))
	if v.Kind() == reflect.Struct {
		if head := v.FieldByName("Head"); head.IsValid() && head.CanSet() {
			head.SetUint(uint64(f.Header))
			return v.Interface().(Packet), nil
		}
	}
	return p, nil
}

// EncodeFrame turns a typed Packet back into a wire Frame.
func EncodeFrame(p Packet) (header Header, payload []byte, err error) {
	h := p.Header()
	if op, ok := p.(Opaque); ok {
		return op.Head, op.Payload, nil
	}
	c, ok := registry[h]
	if !ok {
		return 0, nil, &Error{Kind: ErrUnknownHeader, Header: h, Message: "no codec registered"}
	}
	payload, err = c.encode(p)
	if err != nil {
		return 0, nil, err
	}
	return h, payload, nil
}
