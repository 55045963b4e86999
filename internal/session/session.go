// Package session implements the single-receive-task dispatcher: it owns
// one transport, routes echoes to synchronous waiters, routes everything
// else to a bounded consumer queue, and tracks the cached device state
// used for client-side refusal policies.
//
// A mutex guards the connection state, the pending-echo table and the
// cached device state; the consumer queue is fed only by the receive task.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sensorstim/capture2go/internal/config"
	"github.com/sensorstim/capture2go/internal/transport"
	"github.com/sensorstim/capture2go/pkg/protocol"
)

// ConnState is the session's connection lifecycle.
type ConnState int

const (
	Disconnected ConnState = iota
	Connecting
	Connected
	Closing
)

func (s ConnState) String() string {
	switch s {
	case Disconnected:
		return "Disconnected"
	case Connecting:
		return "Connecting"
	case Connected:
		return "Connected"
	case Closing:
		return "Closing"
	default:
		return "Unknown"
	}
}

type waiterResult struct {
	pkt protocol.Packet
	err error
}

type pendingEntry struct {
	headers []protocol.Header
	resultc chan waiterResult
}

// Session is the host-side stateful peer of one connected device.
type Session struct {
	log *logrus.Entry
	cfg config.ClientConfig
	tr  transport.Transport

	mu          sync.Mutex
	state       ConnState
	pending     map[protocol.Header]*pendingEntry
	sensorState protocol.SensorState
	clockSample protocol.ClockSample
	droppedFromQueue uint64

	queue  chan queuedPacket
	cancel context.CancelFunc
}

// queuedPacket tags a decoded packet with the channel it arrived on, so
// BLE real-time and send-buffer packets remain distinguishable once
// merged into one consumer queue.
type queuedPacket struct {
	channel transport.Channel
	packet  protocol.Packet
}

// New wraps an already-constructed Transport in a Session. Call Connect
// to establish the link and start the receive task.
func New(tr transport.Transport, cfg config.ClientConfig, log *logrus.Entry) *Session {
	return &Session{
		log:     log,
		cfg:     cfg,
		tr:      tr,
		state:   Disconnected,
		pending: make(map[protocol.Header]*pendingEntry),
		queue:   make(chan queuedPacket, cfg.QueueCapacity),
	}
}

// Connect opens the transport and starts the single receive task.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.state != Disconnected {
		s.mu.Unlock()
		return fmt.Errorf("session: connect called in state %s", s.state)
	}
	s.state = Connecting
	s.mu.Unlock()

	connectCtx, cancel := context.WithTimeout(ctx, s.cfg.ConnectTimeout)
	defer cancel()
	if err := s.tr.Connect(connectCtx); err != nil {
		s.mu.Lock()
		s.state = Disconnected
		s.mu.Unlock()
		return fmt.Errorf("session: transport connect: %w", err)
	}

	recvCtx, recvCancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.state = Connected
	s.cancel = recvCancel
	s.mu.Unlock()

	go s.recvLoop(recvCtx)
	if s.cfg.ClockRoundtripEnabled {
		go s.clockRoundtripLoop(recvCtx)
	}
	return nil
}

// recvLoop drains the transport's decoded frames in arrival order,
// dispatching each to a pending waiter or the consumer queue.
func (s *Session) recvLoop(ctx context.Context) {
	recvc, errc := s.tr.RecvStream()
	for {
		select {
		case r, ok := <-recvc:
			if !ok {
				s.poison(errors.New("transport stream closed"))
				return
			}
			pkt, err := protocol.DecodePacket(r.Frame)
			if err != nil {
				// DecodeError is fatal to this frame, not the session.
				s.log.WithError(err).WithField("header", r.Frame.Header).Warn("dropping undecodable frame")
				continue
			}
			s.dispatch(r.Channel, pkt)
		case err := <-errc:
			s.poison(err)
			return
		case <-ctx.Done():
			s.poison(errors.New("session disconnected"))
			return
		}
	}
}

func (s *Session) dispatch(ch transport.Channel, pkt protocol.Packet) {
	if status, ok := pkt.(protocol.Status); ok {
		s.mu.Lock()
		s.sensorState = status.State
		s.mu.Unlock()
	}

	if sensorErr, ok := pkt.(protocol.SensorErrorPacket); ok {
		if s.completeWaiter(sensorErr.Command, waiterResult{err: &protocol.Error{
			Kind:      protocol.ErrDeviceError,
			Header:    sensorErr.Command,
			ErrorCode: uint8(sensorErr.ErrorCode),
			Message:   sensorErr.ErrorCode.String(),
		}}) {
			return
		}
		s.enqueue(ch, pkt)
		return
	}

	if s.completeWaiter(pkt.Header(), waiterResult{pkt: pkt}) {
		return
	}
	s.enqueue(ch, pkt)
}

// completeWaiter delivers result to the waiter registered for header, if
// any, removing every header alias that waiter was registered under.
func (s *Session) completeWaiter(header protocol.Header, result waiterResult) bool {
	s.mu.Lock()
	entry, ok := s.pending[header]
	if ok {
		for _, h := range entry.headers {
			delete(s.pending, h)
		}
	}
	s.mu.Unlock()
	if !ok {
		return false
	}
	entry.resultc <- result
	return true
}

func (s *Session) enqueue(ch transport.Channel, pkt protocol.Packet) {
	item := queuedPacket{channel: ch, packet: pkt}
	select {
	case s.queue <- item:
		return
	default:
	}

	switch s.cfg.OverflowPolicy {
	case config.OverflowError:
		s.log.Warn("consumer queue overflow, policy=error: dropping newest packet")
		s.mu.Lock()
		s.droppedFromQueue++
		s.mu.Unlock()
	default:
		select {
		case <-s.queue:
			s.mu.Lock()
			s.droppedFromQueue++
			s.mu.Unlock()
		default:
		}
		select {
		case s.queue <- item:
		default:
		}
	}
}

// poison fails every pending waiter with Disconnected and marks the
// session closed; the transport itself is not re-closed here (Disconnect
// owns that).
func (s *Session) poison(cause error) {
	s.mu.Lock()
	s.state = Closing
	pending := s.pending
	s.pending = make(map[protocol.Header]*pendingEntry)
	s.mu.Unlock()

	delivered := map[chan waiterResult]bool{}
	for _, entry := range pending {
		if delivered[entry.resultc] {
			continue
		}
		delivered[entry.resultc] = true
		entry.resultc <- waiterResult{err: fmt.Errorf("%w: %v", protocol.SentinelDisconnected, cause)}
	}

	s.mu.Lock()
	s.state = Disconnected
	s.mu.Unlock()
	close(s.queue)
}

// Send encodes and writes one frame, returning after the transport
// completes the write.
func (s *Session) Send(ctx context.Context, pkt protocol.Packet) error {
	header, payload, err := protocol.EncodeFrame(pkt)
	if err != nil {
		return err
	}
	wire, err := protocol.Encode(header, payload)
	if err != nil {
		return err
	}
	return s.tr.SendFrame(ctx, wire)
}

// SendAndAwait sends pkt and waits for one of expectedHeaders, or a
// SensorError naming pkt's header, within timeout. At most one in-flight
// command per expected-echo header is permitted; a second caller racing
// for the same header fails immediately rather than silently displacing
// the first.
func (s *Session) SendAndAwait(ctx context.Context, pkt protocol.Packet, expectedHeaders []protocol.Header, timeout time.Duration) (protocol.Packet, error) {
	// The waiter is also keyed by pkt's own header, which is where dispatch
	// looks up a SensorError (by its Command field).
	waitHeaders := append(append([]protocol.Header(nil), expectedHeaders...), pkt.Header())
	entry, err := s.registerWaiter(waitHeaders)
	if err != nil {
		return nil, err
	}
	if err := s.Send(ctx, pkt); err != nil {
		s.removeWaiter(entry, waitHeaders)
		return nil, err
	}
	return s.awaitEntry(ctx, entry, waitHeaders, timeout)
}

// Await registers a waiter for expectedHeaders without sending anything,
// for sub-protocols where a single request elicits a run of same-header
// responses (e.g. a file-listing request followed by `fileCount`
// DataFsFile entries).
func (s *Session) Await(ctx context.Context, expectedHeaders []protocol.Header, timeout time.Duration) (protocol.Packet, error) {
	entry, err := s.registerWaiter(expectedHeaders)
	if err != nil {
		return nil, err
	}
	return s.awaitEntry(ctx, entry, expectedHeaders, timeout)
}

func (s *Session) registerWaiter(expectedHeaders []protocol.Header) (*pendingEntry, error) {
	entry := &pendingEntry{headers: expectedHeaders, resultc: make(chan waiterResult, 1)}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range expectedHeaders {
		if _, busy := s.pending[h]; busy {
			return nil, &protocol.Error{Kind: protocol.ErrStateError, Header: h, Message: "command already in flight for this echo header"}
		}
	}
	for _, h := range expectedHeaders {
		s.pending[h] = entry
	}
	return entry, nil
}

func (s *Session) removeWaiter(entry *pendingEntry, expectedHeaders []protocol.Header) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range expectedHeaders {
		if s.pending[h] == entry {
			delete(s.pending, h)
		}
	}
}

func (s *Session) awaitEntry(ctx context.Context, entry *pendingEntry, expectedHeaders []protocol.Header, timeout time.Duration) (protocol.Packet, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case result := <-entry.resultc:
		if result.err != nil {
			return nil, result.err
		}
		return result.pkt, nil
	case <-timer.C:
		// Cancellation: remove the waiter now; a response that arrives
		// after this point is rerouted to the consumer queue by
		// completeWaiter's ordinary miss path, never silently dropped.
		s.removeWaiter(entry, expectedHeaders)
		return nil, fmt.Errorf("%w: no response for %v", protocol.SentinelTimeout, expectedHeaders)
	case <-ctx.Done():
		s.removeWaiter(entry, expectedHeaders)
		return nil, ctx.Err()
	}
}

// State returns the session's current connection state.
func (s *Session) State() ConnState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SensorState returns the cached device mode from the last DataStatus.
func (s *Session) SensorState() protocol.SensorState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sensorState
}

// LastClockSample returns the most recent clock round-trip observation.
func (s *Session) LastClockSample() protocol.ClockSample {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clockSample
}

// DroppedFromQueue reports how many packets queue overflow has discarded
// so far: the oldest under drop-oldest, the newest under the error policy.
func (s *Session) DroppedFromQueue() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.droppedFromQueue
}

// Stream exposes the consumer queue as a channel of (channel, packet)
// pairs. Cancelling the consuming goroutine (simply ceasing to read)
// drops unread packets without closing the session.
func (s *Session) Stream() <-chan queuedPacket { return s.queue }

// QueuedPacket is the public view of one consumer-queue entry.
type QueuedPacket = queuedPacket

// Channel reports which wire channel a QueuedPacket arrived on.
func (q QueuedPacket) Channel() transport.Channel { return q.channel }

// Packet returns the decoded payload.
func (q QueuedPacket) Packet() protocol.Packet { return q.packet }

// clockRoundtripLoop periodically sends a DataClockRoundtrip probe and
// records the resulting {delay, offset} sample. It never corrects
// timestamps itself; LastClockSample exposes the moving estimate to
// callers.
func (s *Session) clockRoundtripLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.ClockRoundtripInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.runClockRoundtrip(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Session) runClockRoundtrip(ctx context.Context) {
	sendCtx, cancel := context.WithTimeout(ctx, s.cfg.CommandTimeout)
	defer cancel()

	hostSend := time.Now().UnixNano()
	resp, err := s.SendAndAwait(sendCtx, protocol.ClockRoundtrip{HostSendNs: hostSend},
		[]protocol.Header{protocol.DataClockRoundtrip}, s.cfg.CommandTimeout)
	hostRecv := time.Now().UnixNano()
	if err != nil {
		s.log.WithError(err).Debug("clock round-trip probe failed")
		return
	}
	echo, ok := resp.(protocol.ClockRoundtrip)
	if !ok {
		return
	}
	sample := protocol.EstimateClockSample(echo, hostRecv)
	s.mu.Lock()
	s.clockSample = sample
	s.mu.Unlock()
}

// Disconnect cancels the receive task, fails every pending waiter with
// Disconnected, and releases the transport.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return s.tr.Disconnect()
}
