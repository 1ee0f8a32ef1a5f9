package source

import (
	"context"
	"io"
)

// Place where PGN data is located
type Source interface {
	// Open data source for chunked reading. The returned iterator owns the
	// underlying handle until it is closed or exhausted.
	Open() (ChunkIterator, error)
}

// Opened data source. Yields the raw byte stream in fixed-size chunks.
type ChunkIterator interface {
	io.Closer

	// Get next chunk of at most the configured buffer size. If there is no
	// data left, returns [io.EOF] error. After the first [io.EOF] every
	// subsequent call also returns [io.EOF].
	Next(ctx context.Context) ([]byte, error)
}
