package protocol

// Header is the 16-bit code at bytes [6:8] of a Frame that identifies which
// packet variant the payload holds. Values not present in the registry
// decode to an Opaque packet so forward-compatible callers can ignore them.
type Header uint16

// Encoding identifies one of the eight sensor-data payload shapes a
// Header in the sensor-data family can carry.
type Encoding uint8

const (
	EncodingFullPacked Encoding = iota
	EncodingFull6DPacked
	EncodingFullFixed
	EncodingFull6DFixed
	EncodingFullFloat
	EncodingQuatPacked
	EncodingQuatFixed
	EncodingQuatFloat
)

// Rate identifies the sampling rate a sensor-data Header was emitted at.
// RateRt is the BLE real-time sub-channel's "latest snapshot" rate, which
// carries no sample-period semantics of its own.
type Rate uint8

const (
	RateRt Rate = iota
	Rate200Hz
	Rate100Hz
	Rate50Hz
	Rate25Hz
	Rate10Hz
	Rate1Hz
)

// Hz returns the sample-period-bearing frequency for r, or 0 for RateRt
// (which carries no periodic sample-period semantics).
func (r Rate) Hz() float64 {
	switch r {
	case Rate200Hz:
		return 200
	case Rate100Hz:
		return 100
	case Rate50Hz:
		return 50
	case Rate25Hz:
		return 25
	case Rate10Hz:
		return 10
	case Rate1Hz:
		return 1
	default:
		return 0
	}
}

const sensorFamilyBase = Header(0x0200)
const sensorFamilyStride = Header(0x0010)

// sensorHeader computes the Header for a given (encoding, rate) pair.
// Rate fits in the low 4 bits of each 0x0010 family block.
func sensorHeader(enc Encoding, rate Rate) Header {
	return sensorFamilyBase + Header(enc)*sensorFamilyStride + Header(rate)
}

// decodeSensorHeader recovers (encoding, rate, ok) from a Header, ok is
// false if h does not fall in the sensor-data family range.
func decodeSensorHeader(h Header) (Encoding, Rate, bool) {
	if h < sensorFamilyBase {
		return 0, 0, false
	}
	off := h - sensorFamilyBase
	enc := off / sensorFamilyStride
	rate := off % sensorFamilyStride
	if enc > Header(EncodingQuatFloat) || rate > Header(Rate1Hz) {
		return 0, 0, false
	}
	return Encoding(enc), Rate(rate), true
}

// Header codes, grouped by family. Families and codes not named here are
// reserved and decode to Opaque.
const (
	CmdGetDeviceInfo Header = 0x0001
	DataDeviceInfo   Header = 0x0002

	CmdSetSleep     Header = 0x0010
	AckSetSleep     Header = 0x0011
	CmdSetDeepSleep Header = 0x0012
	AckSetDeepSleep Header = 0x0013

	CmdSetMeasurementMode  Header = 0x0020
	AckSetMeasurementMode  Header = 0x0021
	DataMeasurementMode    Header = 0x0022

	CmdSetBurstMode Header = 0x0030
	AckSetBurstMode Header = 0x0031

	CmdSetRecordingConfig Header = 0x0040
	AckSetRecordingConfig Header = 0x0041
	CmdStartRecording     Header = 0x0042
	AckStartRecording     Header = 0x0043
	CmdStopRecording      Header = 0x0044
	AckStopRecording      Header = 0x0045

	CmdStartStreaming Header = 0x0050
	AckStartStreaming Header = 0x0051
	CmdStopStreaming  Header = 0x0052
	AckStopStreaming  Header = 0x0053

	CmdStartRealTimeStreaming Header = 0x0060
	AckStartRealTimeStreaming Header = 0x0061
	CmdStopRealTimeStreaming  Header = 0x0062
	AckStopRealTimeStreaming  Header = 0x0063
	CmdSetRealTimeRate        Header = 0x0064
	AckSetRealTimeRate        Header = 0x0065

	CmdSetLED Header = 0x0090
	AckSetLED Header = 0x0091

	CmdSetSyncOutput Header = 0x00A0
	AckSetSyncOutput Header = 0x00A1
	DataSyncTrigger  Header = 0x00A2

	CmdGetStatus Header = 0x00B0
	DataStatus   Header = 0x00B1

	CmdSetAbsoluteTime Header = 0x0170
	AckSetAbsoluteTime Header = 0x0171
	DataClockRoundtrip Header = 0x0180

	DataRawBurst Header = 0x0280

	CmdFsListFiles    Header = 0x0300
	DataFsFileCount   Header = 0x0301
	DataFsFile        Header = 0x0302
	CmdFsGetBytes     Header = 0x0310
	DataFsBytes       Header = 0x0311
	CmdFsStopGetBytes Header = 0x0312
	AckFsStopGetBytes Header = 0x0313
	CmdFsDeleteFile   Header = 0x0320
	AckFsDeleteFile   Header = 0x0321
	CmdFsFormat       Header = 0x0330
	AckFsFormat       Header = 0x0331

	SensorError Header = 0x0400
)
