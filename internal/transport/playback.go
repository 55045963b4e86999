package transport

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sensorstim/capture2go/pkg/protocol"
)

// Playback is a Transport that replays a previously recorded binary
// file at no wall-clock rate. SendFrame is a no-op: there is no live
// device on the other end.
type Playback struct {
	path     string
	file     *os.File
	unpacker *protocol.Unpacker
	recvc    chan Received
	errc     chan error
}

// NewPlayback returns a Playback transport over the file at path. The
// file is opened on Connect, mirroring the other transports' lazy-open
// convention.
func NewPlayback(path string) *Playback {
	return &Playback{
		path:     path,
		unpacker: protocol.NewUnpacker(),
		recvc:    make(chan Received, 64),
		errc:     make(chan error, 1),
	}
}

func (p *Playback) Connect(ctx context.Context) error {
	f, err := os.Open(p.path)
	if err != nil {
		return fmt.Errorf("transport: open playback file: %w", err)
	}
	p.file = f
	go p.drain()
	return nil
}

func (p *Playback) drain() {
	defer close(p.recvc)
	buf := make([]byte, protocol.FrameSize*16)
	for {
		n, err := p.file.Read(buf)
		if n > 0 {
			for _, f := range p.unpacker.Feed(buf[:n]) {
				p.recvc <- Received{Channel: ChannelSendBuffer, Frame: f}
			}
		}
		if err != nil {
			if err != io.EOF {
				select {
				case p.errc <- fmt.Errorf("transport: playback read: %w", err):
				default:
				}
			}
			return
		}
	}
}

// SendFrame is a no-op: a recorded file has no live peer to write to.
func (p *Playback) SendFrame(ctx context.Context, wire [protocol.FrameSize]byte) error {
	return nil
}

func (p *Playback) RecvStream() (<-chan Received, <-chan error) { return p.recvc, p.errc }

func (p *Playback) Disconnect() error {
	if p.file == nil {
		return nil
	}
	return p.file.Close()
}
