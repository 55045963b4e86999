// BLE transport: a notification-driven link over the device's GATT
// service, demultiplexing real-time frames from the reliable
// send-buffer stream.
package transport

import (
	"context"
	"fmt"

	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"

	"github.com/sensorstim/capture2go/pkg/protocol"
)

// ServiceUUID, TXCharUUID and RXCharUUID are the device's GATT
// identifiers.
var (
	ServiceUUID = ble.MustParse("80030001-e629-4c98-9324-aa7fc0c66de7")
	TXCharUUID  = ble.MustParse("80030003-e629-4c98-9324-aa7fc0c66de7")
	RXCharUUID  = ble.MustParse("80030002-e629-4c98-9324-aa7fc0c66de7")
)

// BLE is a Transport backed by a go-ble/ble GATT connection.
type BLE struct {
	log    *logrus.Entry
	addr   ble.Addr
	client ble.Client
	rxChar *ble.Characteristic

	demux *Demux
	recvc chan Received
	errc  chan error
}

// NewBLE returns a BLE transport that will connect to addr on Connect.
func NewBLE(addr ble.Addr, log *logrus.Entry) *BLE {
	return &BLE{
		log:   log,
		addr:  addr,
		demux: NewDemux(),
		recvc: make(chan Received, 256),
		errc:  make(chan error, 1),
	}
}

func (b *BLE) Connect(ctx context.Context) error {
	client, err := ble.Dial(ctx, b.addr)
	if err != nil {
		return fmt.Errorf("transport: ble dial: %w", err)
	}

	profile, err := client.DiscoverProfile(true)
	if err != nil {
		client.CancelConnection()
		return fmt.Errorf("transport: ble discover profile: %w", err)
	}

	txChar := profile.Find(ble.NewCharacteristic(TXCharUUID))
	if txChar == nil {
		client.CancelConnection()
		return fmt.Errorf("transport: tx characteristic %s not found", TXCharUUID)
	}
	rxChar := profile.Find(ble.NewCharacteristic(RXCharUUID))
	if rxChar == nil {
		client.CancelConnection()
		return fmt.Errorf("transport: rx characteristic %s not found", RXCharUUID)
	}

	if err := client.Subscribe(txChar.(*ble.Characteristic), false, b.onNotification); err != nil {
		client.CancelConnection()
		return fmt.Errorf("transport: ble subscribe: %w", err)
	}

	b.client = client
	b.rxChar = rxChar.(*ble.Characteristic)

	go func() {
		<-client.Disconnected()
		select {
		case b.errc <- fmt.Errorf("transport: %w", protocol.SentinelDisconnected):
		default:
		}
		close(b.recvc)
	}()
	return nil
}

// onNotification runs on the go-ble notification goroutine. recvc is
// generously buffered (256 frames); the send blocks, stalling the GATT
// stack, only while that buffer is full.
func (b *BLE) onNotification(data []byte) {
	for _, r := range b.demux.Feed(data) {
		b.recvc <- r
	}
}

func (b *BLE) SendFrame(ctx context.Context, wire [protocol.FrameSize]byte) error {
	if err := b.client.WriteCharacteristic(b.rxChar, wire[:], false); err != nil {
		return fmt.Errorf("transport: ble write: %w", err)
	}
	return nil
}

func (b *BLE) RecvStream() (<-chan Received, <-chan error) { return b.recvc, b.errc }

func (b *BLE) Disconnect() error {
	if b.client == nil {
		return nil
	}
	return b.client.CancelConnection()
}
