package splitter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/opengs/pgnstream/source"
)

// Pending data grew past the configured cap without containing a complete
// record. Treated as fatal, like a read error: the input is either corrupt
// or adversarial and there is no boundary to resynchronize on.
var ErrRecordTooLarge = errors.New("no record boundary found within the maximum record size")

const DefaultMaxRecordSize = 4 << 20

type Option func(s *Splitter)

func WithMaxRecordSize(size int) Option {
	return func(s *Splitter) {
		s.maxRecordSize = size
	}
}

// WithLogger enables per-chunk diagnostic logging. Chunk events are
// emitted at debug level only.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Splitter) {
		s.logger = logger
	}
}

// Splitter converts the raw chunk stream into a sequence of complete game
// records. It never splits a record and never drops bytes: detection runs
// on the accumulated pending data as a whole, so a chunk boundary falling
// inside a tag line or inside the movetext only delays detection until the
// full structural unit is visible.
type Splitter struct {
	chunks        source.ChunkIterator
	maxRecordSize int
	logger        *zap.Logger

	// Tail of previously read chunks that has not yet produced a complete
	// record. Always empty or a prefix of a future record.
	pending    []byte
	chunkCount uint64
	// Chunk source returned io.EOF.
	exhausted bool
	// Terminal state, every Next call returns io.EOF.
	done bool
}

func New(chunks source.ChunkIterator, options ...Option) *Splitter {
	s := &Splitter{
		chunks:        chunks,
		maxRecordSize: DefaultMaxRecordSize,
		logger:        zap.NewNop(),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// Next returns the next complete raw record: a tag-pair block followed by
// a movetext block, terminated by a blank line, by the start of the next
// tag block, or by end of stream. Returns [io.EOF] once the source is
// drained; the sequence is finite and not restartable.
func (s *Splitter) Next(ctx context.Context) ([]byte, error) {
	if s.done {
		return nil, io.EOF
	}

	for {
		if err := ctx.Err(); err != nil {
			s.done = true
			return nil, err
		}

		if rec, consumed, found := scanRecord(s.pending, s.exhausted); found {
			record := make([]byte, len(rec))
			copy(record, rec)
			s.pending = s.pending[consumed:]
			return record, nil
		}

		if s.exhausted {
			// Nothing but separating whitespace left.
			s.done = true
			s.pending = nil
			return nil, io.EOF
		}

		if len(s.pending) > s.maxRecordSize {
			s.done = true
			return nil, fmt.Errorf("%w (%d bytes pending)", ErrRecordTooLarge, len(s.pending))
		}

		chunk, err := s.chunks.Next(ctx)
		if err == io.EOF {
			s.exhausted = true
			continue
		}
		if err != nil {
			s.done = true
			return nil, err
		}
		s.chunkCount++
		s.logger.Debug("reading chunk",
			zap.Uint64("chunk", s.chunkCount),
			zap.Int("bytes", len(chunk)))
		s.pending = append(s.pending, chunk...)
	}
}

// Chunks reports how many chunks were pulled from the source so far.
func (s *Splitter) Chunks() uint64 {
	return s.chunkCount
}

// scanRecord looks for one complete record at the front of data. A record
// starts at the opening tag block and is complete once movetext has been
// seen and is terminated by a blank line, by a line opening the next tag
// block, or, when atEOF is set, by the end of the data. consumed covers
// the record plus any leading separator whitespace and the terminating
// blank line, so the caller can cut it off the front of its buffer.
func scanRecord(data []byte, atEOF bool) (record []byte, consumed int, found bool) {
	start := 0
	for start < len(data) && isSpace(data[start]) {
		start++
	}

	sawMoves := false
	pos := start
	for pos < len(data) {
		nl := bytes.IndexByte(data[pos:], '\n')
		if nl < 0 {
			if !atEOF {
				// Unterminated line, need more data.
				return nil, 0, false
			}
			nl = len(data) - pos
		}
		line := trimLine(data[pos : pos+nl])
		next := pos + nl
		if next < len(data) {
			next++ // consume the newline itself
		}

		switch {
		case len(line) == 0:
			if sawMoves {
				return data[start:pos], next, true
			}
			// Separator between the tag block and the movetext.
		case line[0] == '[':
			if sawMoves {
				// The next game's tag block starts here. Leave it in place.
				return data[start:pos], pos, true
			}
		default:
			sawMoves = true
		}
		pos = next
	}

	if atEOF && pos > start {
		// End of stream acts as the implicit terminator for the last record.
		return data[start:], len(data), true
	}
	return nil, 0, false
}

func trimLine(line []byte) []byte {
	return bytes.TrimRight(line, " \t\r")
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n':
		return true
	}
	return false
}
