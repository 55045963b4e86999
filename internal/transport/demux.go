package transport

import "github.com/sensorstim/capture2go/pkg/protocol"

// Demux splits a BLE notification buffer into its leading run of
// real-time frames and its trailing send-buffer bytes: the first byte F
// encodes rt_count = 0xFF - F; rt_count whole 244-byte frames follow
// immediately (complete within the notification, already aligned), and
// anything left over belongs to the send-buffer stream.
type Demux struct {
	RealTime   *protocol.Unpacker
	SendBuffer *protocol.Unpacker
}

// NewDemux returns a Demux with fresh, empty Unpackers for each channel.
func NewDemux() *Demux {
	return &Demux{
		RealTime:   protocol.NewUnpacker(),
		SendBuffer: protocol.NewUnpacker(),
	}
}

// Feed processes one BLE notification buffer and returns the Received
// frames it produced, tagged by channel, in arrival order (real-time
// frames of this notification precede its send-buffer bytes).
func (d *Demux) Feed(notification []byte) []Received {
	if len(notification) == 0 {
		return nil
	}

	rtCount := int(0xFF - notification[0])
	if rtCount > 254 {
		rtCount = 254
	}

	var out []Received
	cursor := 1
	for i := 0; i < rtCount; i++ {
		end := cursor + protocol.FrameSize
		if end > len(notification) {
			break
		}
		for _, f := range d.RealTime.Feed(notification[cursor:end]) {
			out = append(out, Received{Channel: ChannelRealTime, Frame: f})
		}
		cursor = end
	}

	for _, f := range d.SendBuffer.Feed(notification[cursor:]) {
		out = append(out, Received{Channel: ChannelSendBuffer, Frame: f})
	}
	return out
}
