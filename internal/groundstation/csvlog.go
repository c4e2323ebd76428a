package groundstation

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"sync"
)

// CSVLog is the append-only telemetry log. The header is written only when the
// file is new or empty, so restarts keep appending to the same log.
type CSVLog struct {
	mu   sync.Mutex
	file *os.File
	w    *csv.Writer
}

func OpenCSVLog(path string) (*CSVLog, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("error opening log %s: %w", path, err)
	}

	info, err := file.Stat()
	if err != nil {
		return nil, errors.Join(fmt.Errorf("error reading log %s: %w", path, err), file.Close())
	}

	l := &CSVLog{file: file, w: csv.NewWriter(file)}
	if info.Size() == 0 {
		if err = l.write(CSVHeader); err != nil {
			return nil, errors.Join(fmt.Errorf("error writing log header: %w", err), file.Close())
		}
	}

	return l, nil
}

// Append writes one row and flushes it to the file
func (l *CSVLog) Append(r Row) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.write(r.Strings())
}

func (l *CSVLog) write(record []string) error {
	if err := l.w.Write(record); err != nil {
		return err
	}
	l.w.Flush()
	return l.w.Error()
}

func (l *CSVLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.w.Flush()
	return errors.Join(l.w.Error(), l.file.Close())
}
