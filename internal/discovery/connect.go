package discovery

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"

	"github.com/sensorstim/capture2go/internal/transport"
)

// TargetKind discriminates the three ways a connect target can be
// named.
type TargetKind int

const (
	TargetBLE TargetKind = iota
	TargetUSB
	TargetPlayback
)

// Target names one entry of a connect() call: a BLE address, the
// literal "usb", or a playback file path.
type Target struct {
	Kind    TargetKind
	Address string // BLE address, for TargetBLE
	Path    string // file path, for TargetPlayback
}

// ParseTarget interprets one connect() target string: "usb" picks the
// single USB-attached device, a string that looks like a BLE address
// names a BLE device, anything else is treated as a playback file path.
func ParseTarget(s string) Target {
	switch s {
	case "usb":
		return Target{Kind: TargetUSB}
	default:
		if looksLikeBLEAddress(s) {
			return Target{Kind: TargetBLE, Address: s}
		}
		return Target{Kind: TargetPlayback, Path: s}
	}
}

func looksLikeBLEAddress(s string) bool {
	// A BLE MAC address is 6 colon-separated hex octets.
	parts := 1
	for _, c := range s {
		if c == ':' {
			parts++
		}
	}
	return parts == 6
}

// connectResult carries one target's outcome back to Connect in
// unordered arrival, tagged with its original index so Connect can
// restore input order (fan-out: WaitGroup + semaphore + results channel).
type connectResult struct {
	index int
	tr    transport.Transport
	err   error
}

// Connect opens every target concurrently and returns their transports
// in input order. On any failure, it disconnects every target that did
// succeed before returning the first error.
func Connect(ctx context.Context, targets []Target, log *logrus.Entry, maxConcurrent int) ([]transport.Transport, error) {
	if maxConcurrent <= 0 {
		maxConcurrent = len(targets)
	}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, maxConcurrent)
	results := make(chan connectResult, len(targets))

	for i, tgt := range targets {
		wg.Add(1)
		semaphore <- struct{}{}
		go func(i int, tgt Target) {
			defer wg.Done()
			defer func() { <-semaphore }()

			tr, err := openTarget(ctx, tgt, log)
			results <- connectResult{index: i, tr: tr, err: err}
		}(i, tgt)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	opened := make([]transport.Transport, len(targets))
	var firstErr error
	for r := range results {
		if r.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("discovery: connect target %d: %w", r.index, r.err)
			}
			continue
		}
		opened[r.index] = r.tr
	}

	if firstErr != nil {
		for _, tr := range opened {
			if tr != nil {
				tr.Disconnect()
			}
		}
		return nil, firstErr
	}
	return opened, nil
}

func openTarget(ctx context.Context, tgt Target, log *logrus.Entry) (transport.Transport, error) {
	var tr transport.Transport
	switch tgt.Kind {
	case TargetUSB:
		usb, err := transport.NewUSB(log)
		if err != nil {
			return nil, err
		}
		tr = usb
	case TargetPlayback:
		tr = transport.NewPlayback(tgt.Path)
	case TargetBLE:
		tr = transport.NewBLE(ble.NewAddr(tgt.Address), log)
	default:
		return nil, fmt.Errorf("discovery: unknown target kind %v", tgt.Kind)
	}

	if err := tr.Connect(ctx); err != nil {
		tr.Disconnect()
		return nil, err
	}
	return tr, nil
}
