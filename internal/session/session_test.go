package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/sensorstim/capture2go/internal/config"
	"github.com/sensorstim/capture2go/internal/transport"
	"github.com/sensorstim/capture2go/pkg/protocol"
)

// fakeTransport is an in-memory Transport double: Connect/Disconnect are
// no-ops, SendFrame records frames, and the test pushes Received values
// directly onto recvc to script the device side of the conversation.
type fakeTransport struct {
	sent        [][protocol.FrameSize]byte
	recvc       chan transport.Received
	errc        chan error
	disconnects int
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		recvc: make(chan transport.Received, 32),
		errc:  make(chan error, 1),
	}
}

func (f *fakeTransport) Connect(ctx context.Context) error { return nil }
func (f *fakeTransport) SendFrame(ctx context.Context, wire [protocol.FrameSize]byte) error {
	f.sent = append(f.sent, wire)
	return nil
}
func (f *fakeTransport) RecvStream() (<-chan transport.Received, <-chan error) {
	return f.recvc, f.errc
}
func (f *fakeTransport) Disconnect() error {
	f.disconnects++
	return nil
}

func testLogger() *logrus.Entry {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log.WithField("test", true)
}

func pushFrame(t *testing.T, tr *fakeTransport, pkt protocol.Packet, ch transport.Channel) {
	t.Helper()
	header, payload, err := protocol.EncodeFrame(pkt)
	require.NoError(t, err)
	wire, err := protocol.Encode(header, payload)
	require.NoError(t, err)
	f, err := protocol.Decode(wire[:])
	require.NoError(t, err)
	tr.recvc <- transport.Received{Channel: ch, Frame: f}
}

func TestSendAndAwaitResolvesOnMatchingEcho(t *testing.T) {
	tr := newFakeTransport()
	cfg := config.Default()
	s := New(tr, cfg, testLogger())
	require.NoError(t, s.Connect(context.Background()))
	defer s.Disconnect()

	go func() {
		time.Sleep(10 * time.Millisecond)
		pushFrame(t, tr, protocol.Empty{Head: protocol.AckStartRecording}, transport.ChannelSendBuffer)
	}()

	resp, err := s.SendAndAwait(context.Background(), protocol.Empty{Head: protocol.CmdStartRecording},
		[]protocol.Header{protocol.AckStartRecording}, time.Second)
	require.NoError(t, err)
	require.Equal(t, protocol.AckStartRecording, resp.Header())
	require.Len(t, tr.sent, 1)
}

func TestSendAndAwaitTimesOut(t *testing.T) {
	tr := newFakeTransport()
	cfg := config.Default()
	s := New(tr, cfg, testLogger())
	require.NoError(t, s.Connect(context.Background()))
	defer s.Disconnect()

	_, err := s.SendAndAwait(context.Background(), protocol.Empty{Head: protocol.CmdStartRecording},
		[]protocol.Header{protocol.AckStartRecording}, 20*time.Millisecond)
	require.Error(t, err)
	require.True(t, errors.Is(err, protocol.SentinelTimeout))
}

func TestSensorErrorCompletesWaiterWithDeviceError(t *testing.T) {
	tr := newFakeTransport()
	cfg := config.Default()
	s := New(tr, cfg, testLogger())
	require.NoError(t, s.Connect(context.Background()))
	defer s.Disconnect()

	go func() {
		time.Sleep(10 * time.Millisecond)
		pushFrame(t, tr, protocol.SensorErrorPacket{
			Command:   protocol.CmdFsDeleteFile,
			ErrorCode: protocol.DeviceErrFileNotFound,
		}, transport.ChannelSendBuffer)
	}()

	_, err := s.SendAndAwait(context.Background(), protocol.FsDeleteFile{Name: "missing.bin"},
		[]protocol.Header{protocol.AckFsDeleteFile}, time.Second)
	require.Error(t, err)
	var protoErr *protocol.Error
	require.ErrorAs(t, err, &protoErr)
	require.Equal(t, protocol.ErrDeviceError, protoErr.Kind)
	require.Equal(t, protocol.DeviceErrFileNotFound, protocol.DeviceErrorCode(protoErr.ErrorCode))
}

func TestUnmatchedPacketsGoToConsumerQueue(t *testing.T) {
	tr := newFakeTransport()
	cfg := config.Default()
	s := New(tr, cfg, testLogger())
	require.NoError(t, s.Connect(context.Background()))
	defer s.Disconnect()

	pushFrame(t, tr, protocol.Status{State: protocol.SensorIdle, BatteryPercent: 80}, transport.ChannelSendBuffer)

	select {
	case item := <-s.Stream():
		require.Equal(t, protocol.DataStatus, item.Packet().Header())
		require.Equal(t, transport.ChannelSendBuffer, item.Channel())
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for queued packet")
	}

	require.Equal(t, protocol.SensorIdle, s.SensorState())
}

func TestSecondWaiterForSameHeaderIsRefused(t *testing.T) {
	tr := newFakeTransport()
	cfg := config.Default()
	s := New(tr, cfg, testLogger())
	require.NoError(t, s.Connect(context.Background()))
	defer s.Disconnect()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.SendAndAwait(context.Background(), protocol.Empty{Head: protocol.CmdStartRecording},
			[]protocol.Header{protocol.AckStartRecording}, 200*time.Millisecond)
	}()
	time.Sleep(20 * time.Millisecond)

	_, err := s.SendAndAwait(context.Background(), protocol.Empty{Head: protocol.CmdStartRecording},
		[]protocol.Header{protocol.AckStartRecording}, 200*time.Millisecond)
	require.Error(t, err)
	var protoErr *protocol.Error
	require.ErrorAs(t, err, &protoErr)
	require.Equal(t, protocol.ErrStateError, protoErr.Kind)

	<-done
}

func TestDisconnectPoisonsPendingWaiters(t *testing.T) {
	tr := newFakeTransport()
	cfg := config.Default()
	s := New(tr, cfg, testLogger())
	require.NoError(t, s.Connect(context.Background()))

	resultc := make(chan error, 1)
	go func() {
		_, err := s.SendAndAwait(context.Background(), protocol.Empty{Head: protocol.CmdStartRecording},
			[]protocol.Header{protocol.AckStartRecording}, 5*time.Second)
		resultc <- err
	}()
	time.Sleep(20 * time.Millisecond)

	close(tr.recvc)

	select {
	case err := <-resultc:
		require.Error(t, err)
		require.True(t, errors.Is(err, protocol.SentinelDisconnected))
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for poisoned waiter")
	}
}
