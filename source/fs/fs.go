package fs

import (
	"context"
	"errors"
	"io"
	"io/fs"

	"github.com/opengs/pgnstream/source"
)

var ErrBadBufferSize = errors.New("buffer size must be a positive number of bytes")

// FS reads PGN data from a single file inside an [fs.FS].
type FS struct {
	fs         fs.FS
	path       string
	bufferSize int
}

func New(fsys fs.FS, path string, bufferSize int) *FS {
	return &FS{
		fs:         fsys,
		path:       path,
		bufferSize: bufferSize,
	}
}

func (f *FS) Open() (source.ChunkIterator, error) {
	if f.bufferSize <= 0 {
		return nil, ErrBadBufferSize
	}

	fp, err := f.fs.Open(f.path)
	if err != nil {
		return nil, errors.Join(errors.New("failed to open source file"), err)
	}

	return &fsChunkIterator{
		fp:  fp,
		buf: make([]byte, f.bufferSize),
	}, nil
}

type fsChunkIterator struct {
	fp fs.File
	// Read buffer, reused between calls. Chunks handed out are copies.
	buf    []byte
	done   bool
	closed bool
}

func (i *fsChunkIterator) Next(ctx context.Context) ([]byte, error) {
	if i.done {
		return nil, io.EOF
	}
	if err := ctx.Err(); err != nil {
		i.Close()
		return nil, err
	}

	for {
		n, err := i.fp.Read(i.buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, i.buf[:n])
			if err == io.EOF {
				i.Close()
			} else if err != nil {
				i.Close()
				return nil, errors.Join(errors.New("error while reading source file"), err)
			}
			return chunk, nil
		}

		if err == io.EOF {
			i.Close()
			return nil, io.EOF
		}
		if err != nil {
			i.Close()
			return nil, errors.Join(errors.New("error while reading source file"), err)
		}
	}
}

// Close releases the underlying file handle. Safe to call multiple times
// and after the iterator is exhausted.
func (i *fsChunkIterator) Close() error {
	if i.closed {
		return nil
	}
	i.closed = true
	i.done = true
	return i.fp.Close()
}
