package transport

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sensorstim/capture2go/pkg/protocol"
)

func TestDemuxSplitsRealTimeAndSendBuffer(t *testing.T) {
	frame1, err := protocol.Encode(protocol.CmdGetStatus, []byte{1})
	require.NoError(t, err)
	frame2, err := protocol.Encode(protocol.DataStatus, make([]byte, 7))
	require.NoError(t, err)

	sendBufferTail := []byte{0xAA, 0xBB, 0xCC}
	notification := append([]byte{0xFD}, frame1[:]...) // 0xFF - 0xFD = 2
	notification = append(notification, frame2[:]...)
	notification = append(notification, sendBufferTail...)

	d := NewDemux()
	received := d.Feed(notification)
	require.Len(t, received, 2)
	require.Equal(t, ChannelRealTime, received[0].Channel)
	require.Equal(t, protocol.CmdGetStatus, received[0].Frame.Header)
	require.Equal(t, ChannelRealTime, received[1].Channel)
	require.Equal(t, protocol.DataStatus, received[1].Frame.Header)

	// The trailing 3 bytes are not a whole frame yet; they sit buffered
	// in the send-buffer Unpacker until more notifications arrive.
	require.Zero(t, d.SendBuffer.Dropped())
}

func TestDemuxZeroRealTimeCount(t *testing.T) {
	notification := append([]byte{0xFF}, []byte{1, 2, 3, 4}...)
	d := NewDemux()
	received := d.Feed(notification)
	require.Empty(t, received)
}

func TestDemuxReassemblesSendBufferAcrossNotifications(t *testing.T) {
	wire, err := protocol.Encode(protocol.CmdGetDeviceInfo, nil)
	require.NoError(t, err)

	d := NewDemux()
	first := append([]byte{0xFF}, wire[:100]...)
	require.Empty(t, d.Feed(first))

	second := append([]byte{0xFF}, wire[100:]...)
	received := d.Feed(second)
	require.Len(t, received, 1)
	require.Equal(t, ChannelSendBuffer, received[0].Channel)
	require.Equal(t, protocol.CmdGetDeviceInfo, received[0].Frame.Header)
}
