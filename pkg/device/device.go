// Package device provides the high-level operations a caller wants from
// a connected sensor: init, setAbsoluteTime, startRealTimeStreaming,
// listFiles, downloadFile, formatFilesystem, plus recording and
// plain-streaming control. Each composes primitive send/send-and-await
// calls on top of a session.Session.
package device

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sensorstim/capture2go/internal/config"
	"github.com/sensorstim/capture2go/internal/session"
	"github.com/sensorstim/capture2go/pkg/protocol"
)

// Device wraps a connected Session with the command vocabulary a caller
// actually wants: named operations instead of raw packet plumbing.
type Device struct {
	s   *session.Session
	cfg config.ClientConfig
	log *logrus.Entry
}

// New wraps an already-connected Session.
func New(s *session.Session, cfg config.ClientConfig, log *logrus.Entry) *Device {
	return &Device{s: s, cfg: cfg, log: log}
}

// Session exposes the underlying Session for callers that need primitives
// Device doesn't wrap directly, such as reading the consumer queue.
func (d *Device) Session() *session.Session { return d.s }

// Init sends CmdGetDeviceInfo, the handshake every transport requires
// before the device will talk (mandatory on USB, harmless on BLE).
func (d *Device) Init(ctx context.Context) (protocol.DeviceInfo, error) {
	resp, err := d.s.SendAndAwait(ctx, protocol.Empty{Head: protocol.CmdGetDeviceInfo},
		[]protocol.Header{protocol.DataDeviceInfo}, d.cfg.CommandTimeout)
	if err != nil {
		return protocol.DeviceInfo{}, fmt.Errorf("device: init: %w", err)
	}
	return resp.(protocol.DeviceInfo), nil
}

// SetAbsoluteTime tells the device the host's current wall-clock time.
func (d *Device) SetAbsoluteTime(ctx context.Context, t time.Time) error {
	_, err := d.s.SendAndAwait(ctx, protocol.AbsoluteTime{Head: protocol.CmdSetAbsoluteTime, TimestampNs: t.UnixNano()},
		[]protocol.Header{protocol.AckSetAbsoluteTime}, d.cfg.CommandTimeout)
	if err != nil {
		return fmt.Errorf("device: set absolute time: %w", err)
	}
	return nil
}

// StartRecording begins on-device recording at the given sample rate and
// encoding, refusing client-side if the cached sensor state already shows
// a recording in progress.
func (d *Device) StartRecording(ctx context.Context, sampleRateHz uint16, enc protocol.Encoding) error {
	if d.s.SensorState() == protocol.SensorRecording {
		return &protocol.Error{Kind: protocol.ErrStateError, Message: "device is already recording"}
	}
	if _, err := d.s.SendAndAwait(ctx, protocol.RecordingConfig{Head: protocol.CmdSetRecordingConfig, SampleRateHz: sampleRateHz, Encoding: enc},
		[]protocol.Header{protocol.AckSetRecordingConfig}, d.cfg.CommandTimeout); err != nil {
		return fmt.Errorf("device: set recording config: %w", err)
	}
	if _, err := d.s.SendAndAwait(ctx, protocol.Empty{Head: protocol.CmdStartRecording},
		[]protocol.Header{protocol.AckStartRecording}, d.cfg.CommandTimeout); err != nil {
		return fmt.Errorf("device: start recording: %w", err)
	}
	return nil
}

// StopRecording ends an active recording.
func (d *Device) StopRecording(ctx context.Context) error {
	_, err := d.s.SendAndAwait(ctx, protocol.Empty{Head: protocol.CmdStopRecording},
		[]protocol.Header{protocol.AckStopRecording}, d.cfg.CommandTimeout)
	if err != nil {
		return fmt.Errorf("device: stop recording: %w", err)
	}
	return nil
}

// StartStreaming begins live send-buffer streaming at the given sample
// rate and encoding (refusal policy mirrors StartRecording).
func (d *Device) StartStreaming(ctx context.Context, sampleRateHz uint16, enc protocol.Encoding) error {
	if d.s.SensorState() == protocol.SensorStreaming {
		return &protocol.Error{Kind: protocol.ErrStateError, Message: "device is already streaming"}
	}
	_, err := d.s.SendAndAwait(ctx, protocol.RecordingConfig{Head: protocol.CmdStartStreaming, SampleRateHz: sampleRateHz, Encoding: enc},
		[]protocol.Header{protocol.AckStartStreaming}, d.cfg.CommandTimeout)
	if err != nil {
		return fmt.Errorf("device: start streaming: %w", err)
	}
	return nil
}

// StopStreaming ends plain send-buffer streaming.
func (d *Device) StopStreaming(ctx context.Context) error {
	_, err := d.s.SendAndAwait(ctx, protocol.Empty{Head: protocol.CmdStopStreaming},
		[]protocol.Header{protocol.AckStopStreaming}, d.cfg.CommandTimeout)
	if err != nil {
		return fmt.Errorf("device: stop streaming: %w", err)
	}
	return nil
}

// StartRealTimeStreaming begins BLE real-time sub-channel streaming at
// rateHz (0 selects the device default of 50 Hz).
func (d *Device) StartRealTimeStreaming(ctx context.Context, rateHz uint16) error {
	if d.s.SensorState() == protocol.SensorRealTimeStreaming {
		return &protocol.Error{Kind: protocol.ErrStateError, Message: "device is already real-time streaming"}
	}
	_, err := d.s.SendAndAwait(ctx, protocol.RealTimeRate{Head: protocol.CmdStartRealTimeStreaming, RateHz: rateHz},
		[]protocol.Header{protocol.AckStartRealTimeStreaming}, d.cfg.CommandTimeout)
	if err != nil {
		return fmt.Errorf("device: start real-time streaming: %w", err)
	}
	return nil
}

// StopRealTimeStreaming ends real-time sub-channel streaming.
func (d *Device) StopRealTimeStreaming(ctx context.Context) error {
	_, err := d.s.SendAndAwait(ctx, protocol.Empty{Head: protocol.CmdStopRealTimeStreaming},
		[]protocol.Header{protocol.AckStopRealTimeStreaming}, d.cfg.CommandTimeout)
	if err != nil {
		return fmt.Errorf("device: stop real-time streaming: %w", err)
	}
	return nil
}

// FormatFilesystem erases the on-device file store.
func (d *Device) FormatFilesystem(ctx context.Context) error {
	_, err := d.s.SendAndAwait(ctx, protocol.Empty{Head: protocol.CmdFsFormat},
		[]protocol.Header{protocol.AckFsFormat}, 30*time.Second)
	if err != nil {
		return fmt.Errorf("device: format filesystem: %w", err)
	}
	return nil
}

// ListFiles runs the list-files sub-protocol: one CmdFsListFiles, one
// DataFsFileCount, then that many DataFsFile entries in index order.
func (d *Device) ListFiles(ctx context.Context) ([]protocol.FsFile, error) {
	countPkt, err := d.s.SendAndAwait(ctx, protocol.Empty{Head: protocol.CmdFsListFiles},
		[]protocol.Header{protocol.DataFsFileCount}, 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("device: list files: %w", err)
	}
	count := countPkt.(protocol.FsFileCount).Count

	files := make([]protocol.FsFile, 0, count)
	for i := uint16(0); i < count; i++ {
		entry, err := d.s.Await(ctx, []protocol.Header{protocol.DataFsFile}, 30*time.Second)
		if err != nil {
			return nil, fmt.Errorf("device: list files: entry %d: %w", i, err)
		}
		files = append(files, entry.(protocol.FsFile))
	}
	return files, nil
}
