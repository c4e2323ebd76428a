package groundstation

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/roman-kulish/cansat-telemetry/internal/storage"
	"github.com/roman-kulish/cansat-telemetry/internal/telemetry"
)

// PacketIterator walks archived packets
type PacketIterator interface {
	Next(ctx context.Context) bool
	Current() *storage.Packet
	Err() error
}

// Export writes archived packets as CSV in the log's column layout, each row
// rebuilt from the stored payload. It returns the number of rows written.
func Export(ctx context.Context, packets PacketIterator, w io.Writer) (int, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return 0, fmt.Errorf("writing header: %w", err)
	}

	var n int
	for packets.Next(ctx) {
		p := packets.Current()

		tag, fields, err := telemetry.Split(p.Payload)
		if err != nil {
			return n, fmt.Errorf("packet %d: %w", p.ID, err)
		}

		if err = cw.Write(NewRow(Frame{Payload: p.Payload, Tag: tag, Fields: fields}).Strings()); err != nil {
			return n, fmt.Errorf("writing packet %d: %w", p.ID, err)
		}
		n++
	}
	if err := packets.Err(); err != nil {
		return n, fmt.Errorf("reading packets: %w", err)
	}

	cw.Flush()
	return n, cw.Error()
}
