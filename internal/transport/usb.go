//go:build !mips && !mipsle
// +build !mips,!mipsle

// USB transport: a CDC-ACM serial link exposed as raw bulk endpoints
// through gousb.
//
// NOTE: excluded on MIPS builds, since gousb's cgo-backed libusb binding
// does not support that target.
package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/gousb"
	"github.com/sirupsen/logrus"

	"github.com/sensorstim/capture2go/pkg/protocol"
)

const (
	usbVendorID  = gousb.ID(0x2e8a)
	usbProductID = gousb.ID(0xf00d)
	usbEndpointOut = 0x01
	usbEndpointIn  = 0x81
)

// USB is a Transport backed by a direct libusb bulk connection to the
// device's CDC-ACM endpoints.
type USB struct {
	log *logrus.Entry

	ctx    *gousb.Context
	device *gousb.Device
	config *gousb.Config
	intf   *gousb.Interface
	epOut  *gousb.OutEndpoint
	epIn   *gousb.InEndpoint

	unpacker *protocol.Unpacker
	recvc    chan Received
	errc     chan error
	stop     chan struct{}
}

// NewUSB opens the first device matching the IMU's USB vendor/product ID.
func NewUSB(log *logrus.Entry) (*USB, error) {
	ctx := gousb.NewContext()

	device, err := ctx.OpenDeviceWithVIDPID(usbVendorID, usbProductID)
	if err != nil {
		ctx.Close()
		return nil, fmt.Errorf("transport: open usb device: %w", err)
	}
	if device == nil {
		ctx.Close()
		return nil, fmt.Errorf("transport: usb device not found (VID:0x%04x PID:0x%04x)", usbVendorID, usbProductID)
	}

	config, err := device.Config(1)
	if err != nil {
		device.Close()
		ctx.Close()
		return nil, fmt.Errorf("transport: set usb config: %w", err)
	}

	intf, err := config.Interface(0, 0)
	if err != nil {
		config.Close()
		device.Close()
		ctx.Close()
		return nil, fmt.Errorf("transport: claim usb interface: %w", err)
	}

	epOut, err := intf.OutEndpoint(usbEndpointOut)
	if err != nil {
		intf.Close()
		config.Close()
		device.Close()
		ctx.Close()
		return nil, fmt.Errorf("transport: open out endpoint: %w", err)
	}

	epIn, err := intf.InEndpoint(usbEndpointIn)
	if err != nil {
		intf.Close()
		config.Close()
		device.Close()
		ctx.Close()
		return nil, fmt.Errorf("transport: open in endpoint: %w", err)
	}

	return &USB{
		log:      log,
		ctx:      ctx,
		device:   device,
		config:   config,
		intf:     intf,
		epOut:    epOut,
		epIn:     epIn,
		unpacker: protocol.NewUnpacker(),
		recvc:    make(chan Received, 64),
		errc:     make(chan error, 1),
		stop:     make(chan struct{}),
	}, nil
}

// Connect sends CmdGetDeviceInfo, which the host must do first on USB to
// elicit any transmission from the device, then starts the read loop.
func (u *USB) Connect(ctx context.Context) error {
	wire, err := protocol.Encode(protocol.CmdGetDeviceInfo, nil)
	if err != nil {
		return err
	}
	if err := u.SendFrame(ctx, wire); err != nil {
		return fmt.Errorf("transport: initial device-info probe: %w", err)
	}
	go u.readLoop()
	return nil
}

func (u *USB) SendFrame(ctx context.Context, wire [protocol.FrameSize]byte) error {
	_, err := u.epOut.WriteContext(ctx, wire[:])
	if err != nil {
		return fmt.Errorf("transport: usb write: %w", err)
	}
	return nil
}

func (u *USB) RecvStream() (<-chan Received, <-chan error) { return u.recvc, u.errc }

func (u *USB) Disconnect() error {
	select {
	case <-u.stop:
	default:
		close(u.stop)
	}
	if u.intf != nil {
		u.intf.Close()
	}
	if u.config != nil {
		u.config.Close()
	}
	if u.device != nil {
		u.device.Close()
	}
	if u.ctx != nil {
		u.ctx.Close()
	}
	return nil
}

// readLoop pulls raw bytes off the bulk IN endpoint and feeds them
// through the single send-buffer Unpacker; USB interleaves real-time and
// send-buffer packets on one stream, so there is no demultiplexing step.
//
// Each ReadContext carries its own short deadline so the loop can notice
// u.stop promptly; a timeout with nothing to read is the ordinary idle
// state between commands, not a transport failure, and is not reported
// on errc.
func (u *USB) readLoop() {
	buf := make([]byte, protocol.FrameSize*4)
	for {
		select {
		case <-u.stop:
			close(u.recvc)
			return
		default:
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		n, err := u.epIn.ReadContext(ctx, buf)
		cancel()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, gousb.TransferTimedOut) {
				continue
			}
			select {
			case <-u.stop:
			default:
				u.log.WithError(err).Warn("usb read failed")
				select {
				case u.errc <- fmt.Errorf("transport: usb read: %w", err):
				default:
				}
			}
			close(u.recvc)
			return
		}
		for _, f := range u.unpacker.Feed(buf[:n]) {
			u.recvc <- Received{Channel: ChannelSendBuffer, Frame: f}
		}
	}
}
