package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const DefaultBatchSize = 500

// ReaderOption configures a PacketReader
type ReaderOption func(*PacketReader)

// WithBatchSize sets how many packets are fetched per query
func WithBatchSize(n int) ReaderOption {
	return func(r *PacketReader) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// PacketReader iterates over the packets of one session in arrival order,
// fetching them in batches. Not safe for concurrent use.
type PacketReader struct {
	db        *sql.DB
	session   *Session
	batchSize int

	lastID  int64
	batch   []*Packet
	current *Packet
	done    bool
	err     error
}

func newPacketReader(ctx context.Context, db *sql.DB, sessionID string, opts ...ReaderOption) (*PacketReader, error) {
	if sessionID == "" {
		return nil, errors.New("session ID required")
	}

	r := &PacketReader{db: db, batchSize: DefaultBatchSize}
	for _, opt := range opts {
		opt(r)
	}

	session, err := loadSession(ctx, db, sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	r.session = session

	return r, nil
}

// Session returns the session being read
func (r *PacketReader) Session() *Session {
	return r.session
}

// Next advances to the next packet. It returns false at the end of the data or
// on error; check Err to tell them apart.
func (r *PacketReader) Next(ctx context.Context) bool {
	if r.err != nil {
		return false
	}

	if len(r.batch) == 0 {
		if r.done {
			return false
		}
		if r.err = r.fetch(ctx); r.err != nil || len(r.batch) == 0 {
			return false
		}
	}

	r.current, r.batch = r.batch[0], r.batch[1:]
	return true
}

// Current returns the packet Next advanced to
func (r *PacketReader) Current() *Packet {
	return r.current
}

func (r *PacketReader) Err() error {
	return r.err
}

func (r *PacketReader) Close() error {
	r.batch, r.current, r.done = nil, nil, true
	return nil
}

func (r *PacketReader) fetch(ctx context.Context) (err error) {
	rows, err := r.db.QueryContext(ctx, selectPacketsSQL, r.session.ID, r.lastID, r.batchSize)
	if err != nil {
		return fmt.Errorf("querying packets: %w", err)
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var d packetData
		if err = rows.Scan(
			&d.ID, &d.SessionID, &d.ReceivedAt, &d.Sequence, &d.RSSI, &d.Checksum, &d.Type, &d.Timestamp,
			&d.Temperature, &d.Pressure, &d.Altitude, &d.Latitude, &d.Longitude, &d.Satellites,
			&d.Voltage, &d.Current, &d.Payload,
		); err != nil {
			return fmt.Errorf("scanning packet: %w", err)
		}
		r.batch = append(r.batch, fromPacketData(&d))
		r.lastID = d.ID
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("reading packets: %w", err)
	}

	if len(r.batch) < r.batchSize {
		r.done = true
	}
	return nil
}
