package groundstation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"time"

	"github.com/roman-kulish/cansat-telemetry/internal/config"
	"github.com/roman-kulish/cansat-telemetry/internal/link"
)

// RowLogger persists accepted rows
type RowLogger interface {
	Append(r Row) error
}

// WithLogger sets the diagnostic logger
func WithLogger(logger *slog.Logger) func(i *Ingestor) {
	return func(i *Ingestor) {
		i.logger = logger.With(slog.String("component", "ingestor"))
	}
}

// WithArchive also stores accepted packets under sessionID
func WithArchive(archive Archiver, sessionID string) func(i *Ingestor) {
	return func(i *Ingestor) {
		i.archive = archive
		i.sessionID = sessionID
	}
}

// WithChecksumVerification discards frames whose header checksum does not match
// the payload's CRC
func WithChecksumVerification(verify bool) func(i *Ingestor) {
	return func(i *Ingestor) {
		i.verifyChecksum = verify
	}
}

// WithIngestMetrics sets the metrics sink
func WithIngestMetrics(m *Metrics) func(i *Ingestor) {
	return func(i *Ingestor) {
		i.metrics = m
	}
}

// Ingestor is the single writer of the window. It never renders anything.
type Ingestor struct {
	window *Window
	log    RowLogger

	archive        Archiver
	sessionID      string
	verifyChecksum bool

	now     func() time.Time
	metrics *Metrics
	logger  *slog.Logger
}

func NewIngestor(window *Window, log RowLogger, options ...func(i *Ingestor)) *Ingestor {
	i := Ingestor{
		window: window,
		log:    log,
		now:    time.Now,
		logger: config.DiscardLogger(),
	}

	for _, option := range options {
		option(&i)
	}

	return &i
}

// Run reads frames from r until the stream ends or ctx is cancelled. Closing r
// unblocks a pending read.
func (i *Ingestor) Run(ctx context.Context, r io.Reader) error {
	i.logger.Info("receiving")

	scanner := link.NewLineScanner(r, link.MaxLineLength)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		if scanner.TooLong() {
			i.metrics.received()
			i.discard(ReasonTooLong, "", fmt.Errorf("line longer than %d bytes", link.MaxLineLength))
			continue
		}
		i.Handle(ctx, scanner.Text())
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, fs.ErrClosed) && ctx.Err() == nil {
		return fmt.Errorf("error reading radio input: %w", err)
	}

	i.logger.Info("radio input ended")
	return nil
}

// Handle processes one received line. Malformed frames are dropped without a
// log row or window change. It reports whether the frame was accepted.
func (i *Ingestor) Handle(ctx context.Context, line string) bool {
	i.metrics.received()

	frame, err := ParseFrame(line)
	if err != nil {
		reason := ReasonFieldCount
		if errors.Is(err, ErrNoDelimiter) {
			reason = ReasonNoDelimiter
		}
		i.discard(reason, line, err)
		return false
	}

	if i.verifyChecksum {
		if err = frame.VerifyChecksum(); err != nil {
			i.discard(ReasonChecksum, line, err)
			return false
		}
	}

	row := NewRow(frame)

	logged := true
	if err = i.log.Append(row); err != nil {
		logged = false
		i.logger.Error("error writing log row", slog.String("error", err.Error()))
	}

	i.window.Push(row)
	i.metrics.accepted(frame, i.window.Len(), logged)

	if i.archive != nil {
		if _, err = i.archive.StorePacket(ctx, toPacket(i.sessionID, i.now(), frame, row)); err != nil {
			i.metrics.archiveFailed()
			i.logger.Warn("error archiving packet", slog.String("error", err.Error()))
		}
	}

	return true
}

func (i *Ingestor) discard(reason, line string, err error) {
	i.metrics.discarded(reason)
	i.logger.Debug("discarding frame", slog.String("reason", reason), slog.String("error", err.Error()), slog.String("line", line))
}
