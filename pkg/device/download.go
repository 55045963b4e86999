package device

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/sensorstim/capture2go/pkg/protocol"
)

// DownloadGracePeriod is how long download waits for the next
// DataFsBytes chunk before treating the transfer as finished.
const DownloadGracePeriod = 3 * time.Second

// DownloadResult summarises a completed download: total bytes written
// and a running xxhash64 checksum over the bytes as received, so callers
// can detect a truncated transfer without re-reading the sink.
type DownloadResult struct {
	BytesWritten uint32
	Checksum     uint64
}

// DownloadFile runs the file-transfer sub-protocol: request a byte
// range, consume DataFsBytes chunks whose offset advances monotonically,
// retry any single gap, and stop the transfer once expectedBytes have
// arrived or the device goes quiet for DownloadGracePeriod.
func (d *Device) DownloadFile(ctx context.Context, filename string, startPos, endPos uint32, sink io.Writer) (DownloadResult, error) {
	expected := endPos - startPos
	if err := d.s.Send(ctx, protocol.FsGetBytes{Name: filename, StartPos: startPos, EndPos: endPos}); err != nil {
		return DownloadResult{}, fmt.Errorf("device: download %s: request range: %w", filename, err)
	}

	digest := xxhash.New()
	nextOffset := startPos
	var written uint32

	for written < expected {
		chunkPkt, err := d.s.Await(ctx, []protocol.Header{protocol.DataFsBytes}, DownloadGracePeriod)
		if err != nil {
			stopErr := d.stopGetBytes(ctx)
			result := DownloadResult{BytesWritten: written, Checksum: digest.Sum64()}
			if stopErr != nil {
				return result, fmt.Errorf("device: download %s: incomplete at %d/%d bytes: %w (stopGetBytes also failed: %v)",
					filename, written, expected, err, stopErr)
			}
			return result, fmt.Errorf("device: download %s: incomplete at %d/%d bytes: %w", filename, written, expected, err)
		}
		chunk := chunkPkt.(protocol.FsBytes)

		if chunk.OffsetBytes != nextOffset {
			if err := d.retryGap(ctx, filename, nextOffset, chunk.OffsetBytes); err != nil {
				return DownloadResult{BytesWritten: written, Checksum: digest.Sum64()}, err
			}
			gapPkt, err := d.s.Await(ctx, []protocol.Header{protocol.DataFsBytes}, DownloadGracePeriod)
			if err != nil {
				return DownloadResult{BytesWritten: written, Checksum: digest.Sum64()},
					fmt.Errorf("device: download %s: gap retry at offset %d: %w", filename, nextOffset, err)
			}
			chunk = gapPkt.(protocol.FsBytes)
			if chunk.OffsetBytes != nextOffset {
				return DownloadResult{BytesWritten: written, Checksum: digest.Sum64()},
					fmt.Errorf("device: download %s: gap retry still out of order: want offset %d, got %d", filename, nextOffset, chunk.OffsetBytes)
			}
		}

		if _, err := sink.Write(chunk.Data); err != nil {
			return DownloadResult{BytesWritten: written, Checksum: digest.Sum64()}, fmt.Errorf("device: download %s: write sink: %w", filename, err)
		}
		digest.Write(chunk.Data)
		written += uint32(len(chunk.Data))
		nextOffset += uint32(len(chunk.Data))
	}

	if err := d.stopGetBytes(ctx); err != nil {
		return DownloadResult{BytesWritten: written, Checksum: digest.Sum64()}, fmt.Errorf("device: download %s: %w", filename, err)
	}
	return DownloadResult{BytesWritten: written, Checksum: digest.Sum64()}, nil
}

// retryGap re-requests exactly the missing range [want, got) after a
// single DataFsBytes chunk was skipped.
func (d *Device) retryGap(ctx context.Context, filename string, want, got uint32) error {
	if err := d.s.Send(ctx, protocol.FsGetBytes{Name: filename, StartPos: want, EndPos: got}); err != nil {
		return fmt.Errorf("device: download %s: retry gap [%d,%d): %w", filename, want, got, err)
	}
	return nil
}

func (d *Device) stopGetBytes(ctx context.Context) error {
	_, err := d.s.SendAndAwait(ctx, protocol.Empty{Head: protocol.CmdFsStopGetBytes},
		[]protocol.Header{protocol.AckFsStopGetBytes}, d.cfg.CommandTimeout)
	return err
}
