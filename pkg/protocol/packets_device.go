package protocol

// SensorState mirrors the device's current operating mode, as reported in
// DataStatus and cached client-side to drive command refusal policies.
type SensorState uint8

const (
	SensorIdle SensorState = iota
	SensorRecording
	SensorStreaming
	SensorRealTimeStreaming
)

func (s SensorState) String() string {
	switch s {
	case SensorIdle:
		return "Idle"
	case SensorRecording:
		return "Recording"
	case SensorStreaming:
		return "Streaming"
	case SensorRealTimeStreaming:
		return "RealTimeStreaming"
	default:
		return "Unknown"
	}
}

func init() {
	registerEmpty(CmdGetDeviceInfo)
	register(DataDeviceInfo, 38, decodeDeviceInfo, encodeDeviceInfo)

	registerEmpty(CmdSetSleep)
	registerEmpty(AckSetSleep)
	registerEmpty(CmdSetDeepSleep)
	registerEmpty(AckSetDeepSleep)

	register(CmdSetMeasurementMode, 1, decodeMeasurementMode, encodeMeasurementMode)
	register(AckSetMeasurementMode, 1, decodeMeasurementMode, encodeMeasurementMode)
	register(DataMeasurementMode, 1, decodeMeasurementMode, encodeMeasurementMode)

	register(CmdSetBurstMode, 3, decodeBurstMode, encodeBurstMode)
	register(AckSetBurstMode, 3, decodeBurstMode, encodeBurstMode)

	register(CmdSetRecordingConfig, 4, decodeRecordingConfig, encodeRecordingConfig)
	register(AckSetRecordingConfig, 4, decodeRecordingConfig, encodeRecordingConfig)
	registerEmpty(CmdStartRecording)
	registerEmpty(AckStartRecording)
	registerEmpty(CmdStopRecording)
	registerEmpty(AckStopRecording)

	register(CmdStartStreaming, 4, decodeRecordingConfig, encodeRecordingConfig)
	register(AckStartStreaming, 4, decodeRecordingConfig, encodeRecordingConfig)
	registerEmpty(CmdStopStreaming)
	registerEmpty(AckStopStreaming)

	register(CmdStartRealTimeStreaming, 2, decodeRealTimeRate, encodeRealTimeRate)
	register(AckStartRealTimeStreaming, 2, decodeRealTimeRate, encodeRealTimeRate)
	registerEmpty(CmdStopRealTimeStreaming)
	registerEmpty(AckStopRealTimeStreaming)
	register(CmdSetRealTimeRate, 2, decodeRealTimeRate, encodeRealTimeRate)
	register(AckSetRealTimeRate, 2, decodeRealTimeRate, encodeRealTimeRate)

	register(CmdSetLED, 4, decodeLED, encodeLED)
	register(AckSetLED, 4, decodeLED, encodeLED)

	register(CmdSetSyncOutput, 2, decodeSyncOutput, encodeSyncOutput)
	register(AckSetSyncOutput, 2, decodeSyncOutput, encodeSyncOutput)
	register(DataSyncTrigger, 8, decodeSyncTrigger, encodeSyncTrigger)

	registerEmpty(CmdGetStatus)
	register(DataStatus, 7, decodeStatus, encodeStatus)

	register(SensorError, 3, decodeSensorError, encodeSensorError)
}

func registerEmpty(h Header) {
	register(h, 0,
		func(payload []byte) (Packet, error) { return Empty{Head: h}, nil },
		func(p Packet) ([]byte, error) { return nil, nil },
	)
}

// Empty is the payload shape for commands and acks that carry no fields.
type Empty struct{ Head Header }

func (e Empty) Header() Header { return e.Head }

// DeviceInfo is the DataDeviceInfo payload.
type DeviceInfo struct {
	Serial          [6]byte
	HardwareVersion string
	FirmwareVersion string
}

func (DeviceInfo) Header() Header { return DataDeviceInfo }

func decodeDeviceInfo(payload []byte) (Packet, error) {
	r := newReader(payload)
	var d DeviceInfo
	copy(d.Serial[:], r.bytes(6))
	d.HardwareVersion = trimASCII(r.bytes(16))
	d.FirmwareVersion = trimASCII(r.bytes(16))
	return d, nil
}

func encodeDeviceInfo(p Packet) ([]byte, error) {
	d := p.(DeviceInfo)
	w := newWriter(38)
	w.bytes(d.Serial[:])
	w.bytes(fixedASCII(d.HardwareVersion, 16))
	w.bytes(fixedASCII(d.FirmwareVersion, 16))
	return w.buf, nil
}

// MeasurementMode is the Cmd/Ack/Data MeasurementMode payload.
type MeasurementMode struct {
	Head Header
	Mode uint8
}

func (m MeasurementMode) Header() Header { return m.Head }

func decodeMeasurementMode(payload []byte) (Packet, error) {
	return MeasurementMode{Mode: newReader(payload).u8()}, nil
}

func encodeMeasurementMode(p Packet) ([]byte, error) {
	m := p.(MeasurementMode)
	w := newWriter(1)
	w.u8(m.Mode)
	return w.buf, nil
}

// BurstMode is the Cmd/Ack BurstMode payload.
type BurstMode struct {
	Head       Header
	Enabled    bool
	BurstRateHz uint16
}

func (b BurstMode) Header() Header { return b.Head }

func decodeBurstMode(payload []byte) (Packet, error) {
	r := newReader(payload)
	enabled := r.u8() != 0
	rate := r.u16()
	return BurstMode{Enabled: enabled, BurstRateHz: rate}, nil
}

func encodeBurstMode(p Packet) ([]byte, error) {
	b := p.(BurstMode)
	w := newWriter(3)
	if b.Enabled {
		w.u8(1)
	} else {
		w.u8(0)
	}
	w.u16(b.BurstRateHz)
	return w.buf, nil
}

// RecordingConfig is the Cmd/Ack RecordingConfig and StartStreaming payload.
type RecordingConfig struct {
	Head         Header
	SampleRateHz uint16
	Encoding     Encoding
	Flags        uint8
}

func (c RecordingConfig) Header() Header { return c.Head }

func decodeRecordingConfig(payload []byte) (Packet, error) {
	r := newReader(payload)
	rate := r.u16()
	enc := Encoding(r.u8())
	flags := r.u8()
	return RecordingConfig{SampleRateHz: rate, Encoding: enc, Flags: flags}, nil
}

func encodeRecordingConfig(p Packet) ([]byte, error) {
	c := p.(RecordingConfig)
	w := newWriter(4)
	w.u16(c.SampleRateHz)
	w.u8(uint8(c.Encoding))
	w.u8(c.Flags)
	return w.buf, nil
}

// RealTimeRate is the Cmd/Ack StartRealTimeStreaming/SetRealTimeRate
// payload. RateHz == 0 means "device default" (50 Hz).
type RealTimeRate struct {
	Head  Header
	RateHz uint16
}

func (r RealTimeRate) Header() Header { return r.Head }

func decodeRealTimeRate(payload []byte) (Packet, error) {
	return RealTimeRate{RateHz: newReader(payload).u16()}, nil
}

func encodeRealTimeRate(p Packet) ([]byte, error) {
	r := p.(RealTimeRate)
	w := newWriter(2)
	w.u16(r.RateHz)
	return w.buf, nil
}

// LED is the Cmd/Ack SetLED payload.
type LED struct {
	Head           Header
	Pattern        uint8
	R, G, B        uint8
}

func (l LED) Header() Header { return l.Head }

func decodeLED(payload []byte) (Packet, error) {
	r := newReader(payload)
	return LED{Pattern: r.u8(), R: r.u8(), G: r.u8(), B: r.u8()}, nil
}

func encodeLED(p Packet) ([]byte, error) {
	l := p.(LED)
	w := newWriter(4)
	w.u8(l.Pattern)
	w.u8(l.R)
	w.u8(l.G)
	w.u8(l.B)
	return w.buf, nil
}

// SyncOutput is the Cmd/Ack SetSyncOutput payload.
type SyncOutput struct {
	Head    Header
	Enabled bool
	Mode    uint8
}

func (s SyncOutput) Header() Header { return s.Head }

func decodeSyncOutput(payload []byte) (Packet, error) {
	r := newReader(payload)
	enabled := r.u8() != 0
	mode := r.u8()
	return SyncOutput{Enabled: enabled, Mode: mode}, nil
}

func encodeSyncOutput(p Packet) ([]byte, error) {
	s := p.(SyncOutput)
	w := newWriter(2)
	if s.Enabled {
		w.u8(1)
	} else {
		w.u8(0)
	}
	w.u8(s.Mode)
	return w.buf, nil
}

// SyncTrigger is the DataSyncTrigger payload.
type SyncTrigger struct {
	TimestampNs int64
}

func (SyncTrigger) Header() Header { return DataSyncTrigger }

func decodeSyncTrigger(payload []byte) (Packet, error) {
	return SyncTrigger{TimestampNs: newReader(payload).i64()}, nil
}

func encodeSyncTrigger(p Packet) ([]byte, error) {
	s := p.(SyncTrigger)
	w := newWriter(8)
	w.i64(s.TimestampNs)
	return w.buf, nil
}

// Status is the DataStatus payload, cached by the session to drive
// client-side refusal of illegal transitions.
type Status struct {
	State          SensorState
	BatteryPercent uint8
	FreeStorageKB  uint32
	ErrorFlags     ErrorFlags
}

func (Status) Header() Header { return DataStatus }

func decodeStatus(payload []byte) (Packet, error) {
	r := newReader(payload)
	s := Status{
		State:          SensorState(r.u8()),
		BatteryPercent: r.u8(),
		FreeStorageKB:  r.u32(),
	}
	s.ErrorFlags = ErrorFlags(r.u8())
	return s, nil
}

func encodeStatus(p Packet) ([]byte, error) {
	s := p.(Status)
	w := newWriter(7)
	w.u8(uint8(s.State))
	w.u8(s.BatteryPercent)
	w.u32(s.FreeStorageKB)
	w.u8(uint8(s.ErrorFlags))
	return w.buf, nil
}

// SensorErrorPacket is the error-family payload: the command header that
// failed plus a DeviceErrorCode.
type SensorErrorPacket struct {
	Command   Header
	ErrorCode DeviceErrorCode
}

func (SensorErrorPacket) Header() Header { return SensorError }

func decodeSensorError(payload []byte) (Packet, error) {
	r := newReader(payload)
	return SensorErrorPacket{Command: Header(r.u16()), ErrorCode: DeviceErrorCode(r.u8())}, nil
}

func encodeSensorError(p Packet) ([]byte, error) {
	s := p.(SensorErrorPacket)
	w := newWriter(3)
	w.u16(uint16(s.Command))
	w.u8(uint8(s.ErrorCode))
	return w.buf, nil
}
