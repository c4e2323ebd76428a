package link

import (
	"bufio"
	"errors"
	"io"
)

// MaxLineLength bounds a single line. Records and frames are a few hundred bytes
// at most, so anything longer is line noise.
const MaxLineLength = 4096

// LineScanner reads newline-terminated lines like bufio.Scanner, except that a
// line longer than the limit is skipped whole instead of ending the stream.
type LineScanner struct {
	r       *bufio.Reader
	max     int
	line    []byte
	tooLong bool
	err     error
}

// NewLineScanner reads lines of at most max bytes from r. A non-positive max
// means MaxLineLength.
func NewLineScanner(r io.Reader, max int) *LineScanner {
	if max <= 0 {
		max = MaxLineLength
	}
	return &LineScanner{r: bufio.NewReader(r), max: max}
}

// Scan advances to the next line. It returns false at the end of the stream or
// on a read error; check Err to tell them apart.
func (s *LineScanner) Scan() bool {
	if s.err != nil {
		return false
	}

	s.line, s.tooLong = s.line[:0], false
	for {
		chunk, isPrefix, err := s.r.ReadLine()
		if err != nil {
			s.err = err
			// an unterminated overlong tail still counts as a skipped line
			return s.tooLong
		}

		if !s.tooLong {
			if len(s.line)+len(chunk) > s.max {
				s.line, s.tooLong = s.line[:0], true
			} else {
				s.line = append(s.line, chunk...)
			}
		}

		if !isPrefix {
			return true
		}
	}
}

// Text returns the current line without its terminator. It is empty for a
// line that was too long.
func (s *LineScanner) Text() string {
	return string(s.line)
}

// TooLong reports whether the current line exceeded the limit and was skipped
func (s *LineScanner) TooLong() bool {
	return s.tooLong
}

// Err returns the first non-EOF read error
func (s *LineScanner) Err() error {
	if errors.Is(s.err, io.EOF) {
		return nil
	}
	return s.err
}
