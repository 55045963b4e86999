package protocol

func init() {
	register(CmdSetAbsoluteTime, 8, decodeAbsoluteTime, encodeAbsoluteTime)
	register(AckSetAbsoluteTime, 8, decodeAbsoluteTime, encodeAbsoluteTime)
	register(DataClockRoundtrip, 24, decodeClockRoundtrip, encodeClockRoundtrip)
}

// AbsoluteTime is the Cmd/AckSetAbsoluteTime payload: a host wall-clock
// timestamp in nanoseconds since the Unix epoch.
type AbsoluteTime struct {
	Head        Header
	TimestampNs int64
}

func (a AbsoluteTime) Header() Header { return a.Head }

func decodeAbsoluteTime(payload []byte) (Packet, error) {
	return AbsoluteTime{TimestampNs: newReader(payload).i64()}, nil
}

func encodeAbsoluteTime(p Packet) ([]byte, error) {
	a := p.(AbsoluteTime)
	w := newWriter(8)
	w.i64(a.TimestampNs)
	return w.buf, nil
}

// ClockRoundtrip is the DataClockRoundtrip payload: the host sends one
// with HostSendNs=now and the other two fields zero; the
// device echoes it back with SensorRecvNs/SensorSendNs filled in. The
// host stamps its own receive time locally (not on the wire) to compute
// delay and offset.
type ClockRoundtrip struct {
	HostSendNs   int64
	SensorRecvNs int64
	SensorSendNs int64
}

func (ClockRoundtrip) Header() Header { return DataClockRoundtrip }

func decodeClockRoundtrip(payload []byte) (Packet, error) {
	r := newReader(payload)
	return ClockRoundtrip{HostSendNs: r.i64(), SensorRecvNs: r.i64(), SensorSendNs: r.i64()}, nil
}

func encodeClockRoundtrip(p Packet) ([]byte, error) {
	c := p.(ClockRoundtrip)
	w := newWriter(24)
	w.i64(c.HostSendNs)
	w.i64(c.SensorRecvNs)
	w.i64(c.SensorSendNs)
	return w.buf, nil
}

// ClockSample is one computed {delay, offset} observation derived from a
// round-trip echo.
type ClockSample struct {
	DelayNs  int64
	OffsetNs int64
}

// EstimateClockSample computes delay and offset from a completed round
// trip: delay = ((hostRecv+sensorRecv) - (hostSend+sensorSend)) / 2,
// offset = ((hostSend+hostRecv) - (sensorRecv+sensorSend)) / 2.
func EstimateClockSample(c ClockRoundtrip, hostRecvNs int64) ClockSample {
	return ClockSample{
		DelayNs:  ((hostRecvNs + c.SensorRecvNs) - (c.HostSendNs + c.SensorSendNs)) / 2,
		OffsetNs: ((c.HostSendNs + hostRecvNs) - (c.SensorRecvNs + c.SensorSendNs)) / 2,
	}
}
