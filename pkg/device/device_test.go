package device

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/sensorstim/capture2go/internal/config"
	"github.com/sensorstim/capture2go/internal/session"
	"github.com/sensorstim/capture2go/internal/transport"
	"github.com/sensorstim/capture2go/pkg/protocol"
)

type fakeTransport struct {
	sent  [][protocol.FrameSize]byte
	recvc chan transport.Received
	errc  chan error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{recvc: make(chan transport.Received, 64), errc: make(chan error, 1)}
}
func (f *fakeTransport) Connect(ctx context.Context) error { return nil }
func (f *fakeTransport) SendFrame(ctx context.Context, wire [protocol.FrameSize]byte) error {
	f.sent = append(f.sent, wire)
	return nil
}
func (f *fakeTransport) RecvStream() (<-chan transport.Received, <-chan error) { return f.recvc, f.errc }
func (f *fakeTransport) Disconnect() error                                    { return nil }

func testLogger() *logrus.Entry {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log.WithField("test", true)
}

func pushFrame(t *testing.T, tr *fakeTransport, pkt protocol.Packet) {
	t.Helper()
	header, payload, err := protocol.EncodeFrame(pkt)
	require.NoError(t, err)
	wire, err := protocol.Encode(header, payload)
	require.NoError(t, err)
	f, err := protocol.Decode(wire[:])
	require.NoError(t, err)
	tr.recvc <- transport.Received{Channel: transport.ChannelSendBuffer, Frame: f}
}

func newTestDevice(t *testing.T) (*Device, *fakeTransport) {
	tr := newFakeTransport()
	cfg := config.Default()
	s := session.New(tr, cfg, testLogger())
	require.NoError(t, s.Connect(context.Background()))
	t.Cleanup(func() { s.Disconnect() })
	return New(s, cfg, testLogger()), tr
}

func TestInitReturnsDeviceInfo(t *testing.T) {
	d, tr := newTestDevice(t)
	go func() {
		time.Sleep(10 * time.Millisecond)
		pushFrame(t, tr, protocol.DeviceInfo{Serial: [6]byte{1, 2, 3, 4, 5, 6}, HardwareVersion: "hw1", FirmwareVersion: "fw1"})
	}()
	info, err := d.Init(context.Background())
	require.NoError(t, err)
	require.Equal(t, "hw1", info.HardwareVersion)
	require.Equal(t, "fw1", info.FirmwareVersion)
}

func TestStartRecordingRefusedWhenAlreadyRecording(t *testing.T) {
	d, tr := newTestDevice(t)
	pushFrame(t, tr, protocol.Status{State: protocol.SensorRecording, BatteryPercent: 50})
	require.Eventually(t, func() bool {
		return d.s.SensorState() == protocol.SensorRecording
	}, time.Second, time.Millisecond)

	err := d.StartRecording(context.Background(), 100, protocol.EncodingFullFixed)
	require.Error(t, err)
	var protoErr *protocol.Error
	require.ErrorAs(t, err, &protoErr)
	require.Equal(t, protocol.ErrStateError, protoErr.Kind)
	require.Empty(t, tr.sent)
}

func TestListFilesReceivesEntriesInOrder(t *testing.T) {
	d, tr := newTestDevice(t)
	go func() {
		time.Sleep(10 * time.Millisecond)
		pushFrame(t, tr, protocol.FsFileCount{Count: 2})
		time.Sleep(5 * time.Millisecond)
		pushFrame(t, tr, protocol.FsFile{Name: "a.bin", SizeBytes: 10})
		time.Sleep(5 * time.Millisecond)
		pushFrame(t, tr, protocol.FsFile{Name: "b.bin", SizeBytes: 20})
	}()

	files, err := d.ListFiles(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 2)
	require.Equal(t, "a.bin", files[0].Name)
	require.Equal(t, "b.bin", files[1].Name)
}

func TestDownloadFileAssemblesChunksAndStops(t *testing.T) {
	d, tr := newTestDevice(t)
	go func() {
		time.Sleep(10 * time.Millisecond)
		pushFrame(t, tr, protocol.FsBytes{OffsetBytes: 0, Data: []byte("hello ")})
		time.Sleep(5 * time.Millisecond)
		pushFrame(t, tr, protocol.FsBytes{OffsetBytes: 6, Data: []byte("world!")})
		time.Sleep(5 * time.Millisecond)
		pushFrame(t, tr, protocol.Empty{Head: protocol.AckFsStopGetBytes})
	}()

	var sink bytes.Buffer
	result, err := d.DownloadFile(context.Background(), "greeting.bin", 0, 12, &sink)
	require.NoError(t, err)
	require.Equal(t, "hello world!", sink.String())
	require.EqualValues(t, 12, result.BytesWritten)
	require.NotZero(t, result.Checksum)
}

func TestDownloadFileRetriesSingleGap(t *testing.T) {
	d, tr := newTestDevice(t)
	go func() {
		time.Sleep(10 * time.Millisecond)
		pushFrame(t, tr, protocol.FsBytes{OffsetBytes: 0, Data: []byte("AAAA")})
		time.Sleep(5 * time.Millisecond)
		// Skip [4,8) the first time around.
		pushFrame(t, tr, protocol.FsBytes{OffsetBytes: 8, Data: []byte("CCCC")})
		time.Sleep(20 * time.Millisecond)
		// The gap retry request lands here.
		pushFrame(t, tr, protocol.FsBytes{OffsetBytes: 4, Data: []byte("BBBB")})
		time.Sleep(5 * time.Millisecond)
		pushFrame(t, tr, protocol.Empty{Head: protocol.AckFsStopGetBytes})
	}()

	var sink bytes.Buffer
	result, err := d.DownloadFile(context.Background(), "gap.bin", 0, 8, &sink)
	require.NoError(t, err)
	require.Equal(t, "AAAABBBB", sink.String())
	require.EqualValues(t, 8, result.BytesWritten)
}
