// Package discovery finds devices by BLE advertisement and opens
// concurrent sessions against a mix of BLE, USB, and playback targets.
package discovery

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-ble/ble"

	"github.com/sensorstim/capture2go/internal/transport"
)

// Advertisement is one scan hit: a stable device identifier plus the
// advertised name and signal strength.
type Advertisement struct {
	Address string
	Name    string
	RSSI    int
}

// ScanFilter narrows Scan to advertisements whose name matches one of
// NamePrefixes (typical: "IMU_ab1234"), or accepts everything when empty.
type ScanFilter struct {
	NamePrefixes []string
}

func (f ScanFilter) matches(name string) bool {
	if len(f.NamePrefixes) == 0 {
		return true
	}
	for _, prefix := range f.NamePrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// Scan activates the OS BLE scan filtered to the device's service UUID,
// applies filter, and streams deduplicated advertisements until ctx is
// cancelled.
func Scan(ctx context.Context, filter ScanFilter) (<-chan Advertisement, error) {
	out := make(chan Advertisement, 32)
	seen := make(map[string]bool)
	var mu sync.Mutex

	advHandler := func(a ble.Advertisement) {
		hasService := false
		for _, u := range a.Services() {
			if u.Equal(transport.ServiceUUID) {
				hasService = true
				break
			}
		}
		if !hasService {
			return
		}
		if !filter.matches(a.LocalName()) {
			return
		}

		addr := a.Addr().String()
		mu.Lock()
		dup := seen[addr]
		seen[addr] = true
		mu.Unlock()
		if dup {
			return
		}

		select {
		case out <- Advertisement{Address: addr, Name: a.LocalName(), RSSI: a.RSSI()}:
		case <-ctx.Done():
		}
	}

	go func() {
		defer close(out)
		// allowDup=true at the ble.Scan layer: deduplication happens
		// above, keyed by address, within a scan session.
		if err := ble.Scan(ctx, true, advHandler, nil); err != nil && ctx.Err() == nil {
			// Scan stopped for a reason other than caller cancellation;
			// nothing more will arrive on out.
			return
		}
	}()

	return out, nil
}

// ScanFor runs Scan with a timeout and collects every advertisement seen
// in that window, a convenience wrapper over the streaming form above.
func ScanFor(timeout time.Duration, filter ScanFilter) ([]Advertisement, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	advc, err := Scan(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("discovery: scan: %w", err)
	}
	var found []Advertisement
	for a := range advc {
		found = append(found, a)
	}
	return found, nil
}
