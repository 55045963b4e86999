package protocol

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUnpackerEmitsFramesFromCleanStream(t *testing.T) {
	wire1, err := Encode(CmdGetStatus, []byte{1, 2, 3})
	require.NoError(t, err)
	wire2, err := Encode(DataStatus, make([]byte, 7))
	require.NoError(t, err)

	u := NewUnpacker()
	frames := u.Feed(append(append([]byte{}, wire1[:]...), wire2[:]...))
	require.Len(t, frames, 2)
	require.Equal(t, CmdGetStatus, frames[0].Header)
	require.Equal(t, DataStatus, frames[1].Header)
	require.Zero(t, u.Dropped())
}

func TestUnpackerResyncsAfterCorruption(t *testing.T) {
	valid, err := Encode(CmdGetStatus, []byte{0xAB})
	require.NoError(t, err)

	garbage := []byte{0x02, 0xFF, 0xFF, 0x02, 0x02, 0x00}
	stream := append(append([]byte{}, garbage...), valid[:]...)

	u := NewUnpacker()
	frames := u.Feed(stream)
	require.Len(t, frames, 1)
	require.Equal(t, CmdGetStatus, frames[0].Header)
	require.GreaterOrEqual(t, u.Dropped(), uint64(1))
}

func TestUnpackerTruncatedTailWaitsForMoreBytes(t *testing.T) {
	wire, err := Encode(CmdGetStatus, nil)
	require.NoError(t, err)

	u := NewUnpacker()
	frames := u.Feed(wire[:100])
	require.Empty(t, frames)

	frames = u.Feed(wire[100:])
	require.Len(t, frames, 1)
}

func TestUnpackerZeroAndMaxPayloadRoundTrip(t *testing.T) {
	small, err := Encode(CmdGetStatus, nil)
	require.NoError(t, err)
	large, err := Encode(CmdGetStatus, make([]byte, MaxPayloadSize))
	require.NoError(t, err)

	u := NewUnpacker()
	frames := u.Feed(append(append([]byte{}, small[:]...), large[:]...))
	require.Len(t, frames, 2)
	require.Len(t, frames[0].Payload, 0)
	require.Len(t, frames[1].Payload, MaxPayloadSize)
}
