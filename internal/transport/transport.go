// Package transport provides the uniform abstraction above BLE,
// USB-serial, and file-playback links that the session drives: connect,
// send one frame, receive a stream of decoded frames, disconnect.
package transport

import (
	"context"

	"github.com/sensorstim/capture2go/pkg/protocol"
)

// Channel distinguishes which logical stream a Frame arrived on. USB and
// playback transports only ever produce ChannelSendBuffer; BLE produces
// both.
type Channel uint8

const (
	ChannelSendBuffer Channel = iota
	ChannelRealTime
)

// Received pairs a decoded Frame with the channel it arrived on.
type Received struct {
	Channel Channel
	Frame   protocol.Frame
}

// Transport is the minimal surface a session needs from any link.
type Transport interface {
	// Connect establishes the link. USB and playback transports may
	// treat this as a no-op past open(); BLE performs GATT discovery
	// and subscribes to the TX characteristic.
	Connect(ctx context.Context) error

	// SendFrame writes exactly one 244-byte frame.
	SendFrame(ctx context.Context, wire [protocol.FrameSize]byte) error

	// RecvStream returns a channel of decoded frames. It is closed when
	// the transport disconnects; a read error is reported once via
	// errc before closing recvc.
	RecvStream() (recvc <-chan Received, errc <-chan error)

	// Disconnect releases the underlying link. Idempotent.
	Disconnect() error
}
