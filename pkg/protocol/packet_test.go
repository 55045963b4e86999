package protocol

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPacketRegistryRoundTrip(t *testing.T) {
	cases := []Packet{
		Empty{Head: CmdGetStatus},
		DeviceInfo{Serial: [6]byte{1, 2, 3, 4, 5, 6}, HardwareVersion: "rev-b", FirmwareVersion: "1.4.2"},
		Status{State: SensorStreaming, BatteryPercent: 87, FreeStorageKB: 12345, ErrorFlags: ErrorFlagGyrClipping},
		SensorErrorPacket{Command: CmdStartRecording, ErrorCode: DeviceErrWrongState},
		FsFile{Name: "capture-001.bin", SizeBytes: 90210},
		FsGetBytes{Name: "capture-001.bin", StartPos: 0, EndPos: 4096},
	}
	for _, want := range cases {
		header, payload, err := EncodeFrame(want)
		require.NoError(t, err)
		require.Equal(t, want.Header(), header)

		got, err := DecodePacket(Frame{Header: header, Payload: payload})
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestDecodePacketUnknownHeaderIsOpaque(t *testing.T) {
	f := Frame{Header: Header(0x7FFF), Payload: []byte{9, 9, 9}}
	p, err := DecodePacket(f)
	require.NoError(t, err)
	require.Equal(t, Opaque{Head: Header(0x7FFF), Payload: []byte{9, 9, 9}}, p)
}

func TestDecodePacketSizeMismatchIsFatal(t *testing.T) {
	f := Frame{Header: DataStatus, Payload: []byte{1, 2, 3}}
	_, err := DecodePacket(f)
	require.Error(t, err)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	require.Equal(t, ErrDecodeError, perr.Kind)
}

func TestSensorDataRoundTrip(t *testing.T) {
	header := sensorHeader(EncodingFullPacked, Rate50Hz)
	pkt := FullPacked{
		Head:        header,
		Sequence:    7,
		TimestampNs: 1_600_000_000,
		AnchorQuat:  EncodeSmallestThree(Quaternion{W: 1}, false, false),
		DeltaRaw:    42,
		ErrorFlags:  ErrorFlagTimeGap,
	}
	h, payload, err := EncodeFrame(pkt)
	require.NoError(t, err)
	require.Equal(t, header, h)
	require.Len(t, payload, 165)

	got, err := DecodePacket(Frame{Header: h, Payload: payload})
	require.NoError(t, err)
	require.Equal(t, pkt, got)

	pkg, err := ParsePackage(got)
	require.NoError(t, err)
	require.Len(t, pkg.Samples, fullPackedSamples)
	require.Equal(t, Rate50Hz, pkg.Rate)
}
