package storage

import (
	"context"

	_ "github.com/mattn/go-sqlite3"
)

// Store archives received telemetry packets grouped into ground station sessions
type Store interface {
	// CreateSession starts a new session and returns its UUID.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - source: Description of the radio input (e.g., "serial:/dev/ttyUSB0")
	//   - config: Optional configuration. Can be string, []byte, or JSON-serializable object
	CreateSession(ctx context.Context, source string, config any) (sessionID string, err error)

	// Session returns a session by its ID
	Session(ctx context.Context, id string) (*Session, error)

	// Sessions returns all sessions ordered by start time
	Sessions(ctx context.Context) ([]*Session, error)

	// StorePacket archives one accepted packet. SessionID must be set.
	StorePacket(ctx context.Context, p *Packet) (packetID int64, err error)

	// ReadPackets returns a reader over a session's packets in arrival order.
	// The reader must be closed after use.
	ReadPackets(ctx context.Context, sessionID string, opts ...ReaderOption) (*PacketReader, error)

	// Close releases all database connections. It is safe to call Close multiple times.
	Close() error
}
