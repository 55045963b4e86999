package protocol

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	cases := []struct {
		name    string
		payload []byte
	}{
		{"empty payload", nil},
		{"max payload", make([]byte, MaxPayloadSize)},
		{"typical payload", []byte{1, 2, 3, 4, 5, 6, 7, 8}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			wire, err := Encode(CmdGetStatus, tc.payload)
			require.NoError(t, err)

			f, err := Decode(wire[:])
			require.NoError(t, err)
			require.Equal(t, CmdGetStatus, f.Header)
			require.Equal(t, len(tc.payload), len(f.Payload))
		})
	}
}

func TestFrameRejectsCorruption(t *testing.T) {
	wire, err := Encode(CmdGetStatus, []byte{0xAB})
	require.NoError(t, err)

	// Every byte up to the end of the 1-byte payload is covered by the
	// start-byte, size or CRC check; the zero padding after it is not.
	for i := 0; i < offPayload+1; i++ {
		corrupt := wire
		corrupt[i] ^= 0xFF
		_, err := Decode(corrupt[:])
		require.Error(t, err, "flipping byte %d should invalidate the frame", i)
	}
}

func TestAbsoluteTimeLiteralExample(t *testing.T) {
	// newTimestamp = 1_700_000_000_000_000_000 ns encodes to the 8
	// little-endian bytes 00 00 2A 36 FE 9C 97 17 (0x17979CFE362A0000).
	const ts = int64(1_700_000_000_000_000_000)
	payload, err := encodeAbsoluteTime(AbsoluteTime{Head: CmdSetAbsoluteTime, TimestampNs: ts})
	require.NoError(t, err)
	require.Equal(t, []byte{0x00, 0x00, 0x2A, 0x36, 0xFE, 0x9C, 0x97, 0x17}, payload)

	decoded, err := decodeAbsoluteTime(payload)
	require.NoError(t, err)
	require.Equal(t, ts, decoded.(AbsoluteTime).TimestampNs)
}

func TestClockRoundtripLiteralExample(t *testing.T) {
	// hostSend=1000, sensorRecv=1050, sensorSend=1060, hostRecv=1120.
	c := ClockRoundtrip{HostSendNs: 1000, SensorRecvNs: 1050, SensorSendNs: 1060}
	sample := EstimateClockSample(c, 1120)
	require.Equal(t, int64(55), sample.DelayNs)
	require.Equal(t, int64(5), sample.OffsetNs)
}
