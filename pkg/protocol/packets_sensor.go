package protocol

// Sample counts per packed package: Full-family packages anchor 8
// samples, Quat-only packages (cheaper per sample, gyro only, no
// acc/mag) anchor 20.
const (
	fullPackedSamples = 8
	quatPackedSamples = 20
)

func init() {
	for rate := RateRt; rate <= Rate1Hz; rate++ {
		registerSensor(sensorHeader(EncodingFullPacked, rate), 165, decodeFullPacked, encodeFullPacked,
			func(p Packet, h Header) Packet { v := p.(FullPacked); v.Head = h; return v })
		registerSensor(sensorHeader(EncodingFull6DPacked, rate), 117, decodeFull6DPacked, encodeFull6DPacked,
			func(p Packet, h Header) Packet { v := p.(Full6DPacked); v.Head = h; return v })
		registerSensor(sensorHeader(EncodingFullFixed, rate), 39, decodeFullFixed, encodeFullFixed,
			func(p Packet, h Header) Packet { v := p.(FullFixed); v.Head = h; return v })
		registerSensor(sensorHeader(EncodingFull6DFixed, rate), 33, decodeFull6DFixed, encodeFull6DFixed,
			func(p Packet, h Header) Packet { v := p.(Full6DFixed); v.Head = h; return v })
		registerSensor(sensorHeader(EncodingFullFloat, rate), 67, decodeFullFloat, encodeFullFloat,
			func(p Packet, h Header) Packet { v := p.(FullFloat); v.Head = h; return v })
		registerSensor(sensorHeader(EncodingQuatPacked, rate), 192, decodeQuatPacked, encodeQuatPacked,
			func(p Packet, h Header) Packet { v := p.(QuatPacked); v.Head = h; return v })
		registerSensor(sensorHeader(EncodingQuatFixed, rate), 21, decodeQuatFixed, encodeQuatFixed,
			func(p Packet, h Header) Packet { v := p.(QuatFixed); v.Head = h; return v })
		registerSensor(sensorHeader(EncodingQuatFloat, rate), 31, decodeQuatFloat, encodeQuatFloat,
			func(p Packet, h Header) Packet { v := p.(QuatFloat); v.Head = h; return v })
	}
	register(DataRawBurst, -1, decodeRawBurst, encodeRawBurst)
}

// registerSensor adapts a header-agnostic decode/encode pair (shared by
// all 7 rates of one encoding) into per-header codecs that stamp the
// decoded value's Head field, so the same struct round-trips through
// whichever rate variant it was read from.
func registerSensor(h Header, size int, decode func([]byte) (Packet, error), encode func(Packet) ([]byte, error), stamp func(Packet, Header) Packet) {
	register(h, size,
		func(payload []byte) (Packet, error) {
			p, err := decode(payload)
			if err != nil {
				return nil, err
			}
			return stamp(p, h), nil
		},
		encode,
	)
}

// FullPacked is DataFullPacked: an 8-sample package with one anchor
// quaternion and one delta/errorFlags pair for the whole package. It
// carries one gyro reading per sample (8 for 8), whereas QuatPacked
// carries one fewer gyro reading than it has samples (19 for 20).
type FullPacked struct {
	Head        Header
	Sequence    uint16
	TimestampNs int64
	AnchorQuat  uint64
	DeltaRaw    int16
	ErrorFlags  ErrorFlags
	Gyro        [fullPackedSamples][3]int16
	Acc         [fullPackedSamples][3]int16
	Mag         [fullPackedSamples][3]int16
}

func (p FullPacked) Header() Header { return p.Head }

func decodeFullPacked(payload []byte) (Packet, error) {
	r := newReader(payload)
	var p FullPacked
	p.Sequence = r.u16()
	p.TimestampNs = r.i64()
	p.AnchorQuat = r.u64()
	p.DeltaRaw = r.i16()
	p.ErrorFlags = ErrorFlags(r.u8())
	for i := range p.Gyro {
		p.Gyro[i] = [3]int16{r.i16(), r.i16(), r.i16()}
	}
	for i := range p.Acc {
		p.Acc[i] = [3]int16{r.i16(), r.i16(), r.i16()}
	}
	for i := range p.Mag {
		p.Mag[i] = [3]int16{r.i16(), r.i16(), r.i16()}
	}
	return p, nil
}

func encodeFullPacked(pk Packet) ([]byte, error) {
	p := pk.(FullPacked)
	w := newWriter(165)
	w.u16(p.Sequence)
	w.i64(p.TimestampNs)
	w.u64(p.AnchorQuat)
	w.i16(p.DeltaRaw)
	w.u8(uint8(p.ErrorFlags))
	for _, g := range p.Gyro {
		w.i16(g[0])
		w.i16(g[1])
		w.i16(g[2])
	}
	for _, a := range p.Acc {
		w.i16(a[0])
		w.i16(a[1])
		w.i16(a[2])
	}
	for _, m := range p.Mag {
		w.i16(m[0])
		w.i16(m[1])
		w.i16(m[2])
	}
	return w.buf, nil
}

// Full6DPacked is DataFull6DPacked: FullPacked without the magnetometer
// channel.
type Full6DPacked struct {
	Head        Header
	Sequence    uint16
	TimestampNs int64
	AnchorQuat  uint64
	DeltaRaw    int16
	ErrorFlags  ErrorFlags
	Gyro        [fullPackedSamples][3]int16
	Acc         [fullPackedSamples][3]int16
}

func (p Full6DPacked) Header() Header { return p.Head }

func decodeFull6DPacked(payload []byte) (Packet, error) {
	r := newReader(payload)
	var p Full6DPacked
	p.Sequence = r.u16()
	p.TimestampNs = r.i64()
	p.AnchorQuat = r.u64()
	p.DeltaRaw = r.i16()
	p.ErrorFlags = ErrorFlags(r.u8())
	for i := range p.Gyro {
		p.Gyro[i] = [3]int16{r.i16(), r.i16(), r.i16()}
	}
	for i := range p.Acc {
		p.Acc[i] = [3]int16{r.i16(), r.i16(), r.i16()}
	}
	return p, nil
}

func encodeFull6DPacked(pk Packet) ([]byte, error) {
	p := pk.(Full6DPacked)
	w := newWriter(117)
	w.u16(p.Sequence)
	w.i64(p.TimestampNs)
	w.u64(p.AnchorQuat)
	w.i16(p.DeltaRaw)
	w.u8(uint8(p.ErrorFlags))
	for _, g := range p.Gyro {
		w.i16(g[0])
		w.i16(g[1])
		w.i16(g[2])
	}
	for _, a := range p.Acc {
		w.i16(a[0])
		w.i16(a[1])
		w.i16(a[2])
	}
	return w.buf, nil
}

// QuatPacked is DataQuatPacked: a 20-sample quaternion-only package,
// cheap enough per sample that delta and errorFlags are stored for
// every sample rather than once per package (contrast FullPacked).
type QuatPacked struct {
	Head        Header
	Sequence    uint16
	TimestampNs int64
	AnchorQuat  uint64
	Gyro        [quatPackedSamples - 1][3]int16
	DeltaRaw    [quatPackedSamples]int16
	ErrorFlags  [quatPackedSamples]ErrorFlags
}

func (p QuatPacked) Header() Header { return p.Head }

func decodeQuatPacked(payload []byte) (Packet, error) {
	r := newReader(payload)
	var p QuatPacked
	p.Sequence = r.u16()
	p.TimestampNs = r.i64()
	p.AnchorQuat = r.u64()
	for i := range p.Gyro {
		p.Gyro[i] = [3]int16{r.i16(), r.i16(), r.i16()}
	}
	for i := range p.DeltaRaw {
		p.DeltaRaw[i] = r.i16()
	}
	for i := range p.ErrorFlags {
		p.ErrorFlags[i] = ErrorFlags(r.u8())
	}
	return p, nil
}

func encodeQuatPacked(pk Packet) ([]byte, error) {
	p := pk.(QuatPacked)
	w := newWriter(192)
	w.u16(p.Sequence)
	w.i64(p.TimestampNs)
	w.u64(p.AnchorQuat)
	for _, g := range p.Gyro {
		w.i16(g[0])
		w.i16(g[1])
		w.i16(g[2])
	}
	for _, d := range p.DeltaRaw {
		w.i16(d)
	}
	for _, f := range p.ErrorFlags {
		w.u8(uint8(f))
	}
	return w.buf, nil
}

// FullFixed is DataFullFixed: one complete 9-axis sample, no packing.
type FullFixed struct {
	Head        Header
	Sequence    uint16
	TimestampNs int64
	Quat        uint64
	Gyro        [3]int16
	Acc         [3]int16
	Mag         [3]int16
	DeltaRaw    int16
	ErrorFlags  ErrorFlags
}

func (p FullFixed) Header() Header { return p.Head }

func decodeFullFixed(payload []byte) (Packet, error) {
	r := newReader(payload)
	return FullFixed{
		Sequence:    r.u16(),
		TimestampNs: r.i64(),
		Quat:        r.u64(),
		Gyro:        [3]int16{r.i16(), r.i16(), r.i16()},
		Acc:         [3]int16{r.i16(), r.i16(), r.i16()},
		Mag:         [3]int16{r.i16(), r.i16(), r.i16()},
		DeltaRaw:    r.i16(),
		ErrorFlags:  ErrorFlags(r.u8()),
	}, nil
}

func encodeFullFixed(pk Packet) ([]byte, error) {
	p := pk.(FullFixed)
	w := newWriter(39)
	w.u16(p.Sequence)
	w.i64(p.TimestampNs)
	w.u64(p.Quat)
	for _, v := range p.Gyro {
		w.i16(v)
	}
	for _, v := range p.Acc {
		w.i16(v)
	}
	for _, v := range p.Mag {
		w.i16(v)
	}
	w.i16(p.DeltaRaw)
	w.u8(uint8(p.ErrorFlags))
	return w.buf, nil
}

// Full6DFixed is DataFull6DFixed: FullFixed without the magnetometer.
type Full6DFixed struct {
	Head        Header
	Sequence    uint16
	TimestampNs int64
	Quat        uint64
	Gyro        [3]int16
	Acc         [3]int16
	DeltaRaw    int16
	ErrorFlags  ErrorFlags
}

func (p Full6DFixed) Header() Header { return p.Head }

func decodeFull6DFixed(payload []byte) (Packet, error) {
	r := newReader(payload)
	return Full6DFixed{
		Sequence:    r.u16(),
		TimestampNs: r.i64(),
		Quat:        r.u64(),
		Gyro:        [3]int16{r.i16(), r.i16(), r.i16()},
		Acc:         [3]int16{r.i16(), r.i16(), r.i16()},
		DeltaRaw:    r.i16(),
		ErrorFlags:  ErrorFlags(r.u8()),
	}, nil
}

func encodeFull6DFixed(pk Packet) ([]byte, error) {
	p := pk.(Full6DFixed)
	w := newWriter(33)
	w.u16(p.Sequence)
	w.i64(p.TimestampNs)
	w.u64(p.Quat)
	for _, v := range p.Gyro {
		w.i16(v)
	}
	for _, v := range p.Acc {
		w.i16(v)
	}
	w.i16(p.DeltaRaw)
	w.u8(uint8(p.ErrorFlags))
	return w.buf, nil
}

// FullFloat is DataFullFloat: IEEE-754 float32 throughout, for callers
// that want to skip fixed-point rescaling client-side.
type FullFloat struct {
	Head        Header
	Sequence    uint16
	TimestampNs int64
	Quat        [4]float32
	Gyro        [3]float32
	Acc         [3]float32
	Mag         [3]float32
	Delta       float32
	ErrorFlags  ErrorFlags
}

func (p FullFloat) Header() Header { return p.Head }

func decodeFullFloat(payload []byte) (Packet, error) {
	r := newReader(payload)
	return FullFloat{
		Sequence:    r.u16(),
		TimestampNs: r.i64(),
		Quat:        [4]float32{r.f32(), r.f32(), r.f32(), r.f32()},
		Gyro:        [3]float32{r.f32(), r.f32(), r.f32()},
		Acc:         [3]float32{r.f32(), r.f32(), r.f32()},
		Mag:         [3]float32{r.f32(), r.f32(), r.f32()},
		Delta:       r.f32(),
		ErrorFlags:  ErrorFlags(r.u8()),
	}, nil
}

func encodeFullFloat(pk Packet) ([]byte, error) {
	p := pk.(FullFloat)
	w := newWriter(67)
	w.u16(p.Sequence)
	w.i64(p.TimestampNs)
	for _, v := range p.Quat {
		w.f32(v)
	}
	for _, v := range p.Gyro {
		w.f32(v)
	}
	for _, v := range p.Acc {
		w.f32(v)
	}
	for _, v := range p.Mag {
		w.f32(v)
	}
	w.f32(p.Delta)
	w.u8(uint8(p.ErrorFlags))
	return w.buf, nil
}

// QuatFixed is DataQuatFixed: one quaternion-only sample, no packing.
type QuatFixed struct {
	Head        Header
	Sequence    uint16
	TimestampNs int64
	Quat        uint64
	DeltaRaw    int16
	ErrorFlags  ErrorFlags
}

func (p QuatFixed) Header() Header { return p.Head }

func decodeQuatFixed(payload []byte) (Packet, error) {
	r := newReader(payload)
	return QuatFixed{
		Sequence:    r.u16(),
		TimestampNs: r.i64(),
		Quat:        r.u64(),
		DeltaRaw:    r.i16(),
		ErrorFlags:  ErrorFlags(r.u8()),
	}, nil
}

func encodeQuatFixed(pk Packet) ([]byte, error) {
	p := pk.(QuatFixed)
	w := newWriter(21)
	w.u16(p.Sequence)
	w.i64(p.TimestampNs)
	w.u64(p.Quat)
	w.i16(p.DeltaRaw)
	w.u8(uint8(p.ErrorFlags))
	return w.buf, nil
}

// QuatFloat is DataQuatFloat: one quaternion-only sample in float32.
type QuatFloat struct {
	Head        Header
	Sequence    uint16
	TimestampNs int64
	Quat        [4]float32
	Delta       float32
	ErrorFlags  ErrorFlags
}

func (p QuatFloat) Header() Header { return p.Head }

func decodeQuatFloat(payload []byte) (Packet, error) {
	r := newReader(payload)
	return QuatFloat{
		Sequence:    r.u16(),
		TimestampNs: r.i64(),
		Quat:        [4]float32{r.f32(), r.f32(), r.f32(), r.f32()},
		Delta:       r.f32(),
		ErrorFlags:  ErrorFlags(r.u8()),
	}, nil
}

func encodeQuatFloat(pk Packet) ([]byte, error) {
	p := pk.(QuatFloat)
	w := newWriter(31)
	w.u16(p.Sequence)
	w.i64(p.TimestampNs)
	for _, v := range p.Quat {
		w.f32(v)
	}
	w.f32(p.Delta)
	w.u8(uint8(p.ErrorFlags))
	return w.buf, nil
}

// RawBurst is DataRawBurst: an unparsed burst-mode capture, passed
// through as raw bytes for callers that apply their own decoding.
type RawBurst struct {
	Payload []byte
}

func (RawBurst) Header() Header { return DataRawBurst }

func decodeRawBurst(payload []byte) (Packet, error) {
	return RawBurst{Payload: append([]byte(nil), payload...)}, nil
}

func encodeRawBurst(pk Packet) ([]byte, error) {
	return pk.(RawBurst).Payload, nil
}
