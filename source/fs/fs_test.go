package fs

import (
	"bytes"
	"context"
	"io"
	"testing"
	"testing/fstest"
)

func TestFS_ChunkSizes(t *testing.T) {
	data := []byte("0123456789abcdef!")
	memFS := fstest.MapFS{
		"games.pgn": &fstest.MapFile{Data: data},
	}

	f := New(memFS, "games.pgn", 4)
	iter, err := f.Open()
	if err != nil {
		t.Fatalf("failed to open source: %v", err)
	}
	defer iter.Close()

	ctx := context.Background()
	var got []byte
	chunks := 0
	for {
		chunk, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("unexpected error from Next: %v", err)
		}
		if len(chunk) > 4 {
			t.Errorf("chunk of %d bytes exceeds buffer size 4", len(chunk))
		}
		got = append(got, chunk...)
		chunks++
	}

	if !bytes.Equal(got, data) {
		t.Errorf("reassembled stream differs from source: %q", got)
	}
	if chunks < 5 {
		t.Errorf("expected at least 5 chunks for 17 bytes, got %d", chunks)
	}
}

func TestFS_IdempotentExhaustion(t *testing.T) {
	memFS := fstest.MapFS{
		"games.pgn": &fstest.MapFile{Data: []byte("data")},
	}

	iter, err := New(memFS, "games.pgn", 16).Open()
	if err != nil {
		t.Fatalf("failed to open source: %v", err)
	}

	ctx := context.Background()
	if _, err := iter.Next(ctx); err != nil {
		t.Fatalf("first chunk failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := iter.Next(ctx); err != io.EOF {
			t.Fatalf("call %d after exhaustion returned %v, want io.EOF", i, err)
		}
	}
	if err := iter.Close(); err != nil {
		t.Errorf("close after exhaustion failed: %v", err)
	}
}

func TestFS_ChunksAreCopies(t *testing.T) {
	memFS := fstest.MapFS{
		"games.pgn": &fstest.MapFile{Data: []byte("firstsecond")},
	}

	iter, err := New(memFS, "games.pgn", 5).Open()
	if err != nil {
		t.Fatalf("failed to open source: %v", err)
	}
	defer iter.Close()

	ctx := context.Background()
	first, err := iter.Next(ctx)
	if err != nil {
		t.Fatalf("first chunk failed: %v", err)
	}
	if _, err := iter.Next(ctx); err != nil {
		t.Fatalf("second chunk failed: %v", err)
	}

	if string(first) != "first" {
		t.Errorf("first chunk was mutated by a later read: %q", first)
	}
}

func TestFS_MissingFile(t *testing.T) {
	if _, err := New(fstest.MapFS{}, "missing.pgn", 16).Open(); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestFS_BadBufferSize(t *testing.T) {
	memFS := fstest.MapFS{
		"games.pgn": &fstest.MapFile{Data: []byte("data")},
	}

	for _, size := range []int{0, -1} {
		if _, err := New(memFS, "games.pgn", size).Open(); err != ErrBadBufferSize {
			t.Errorf("buffer size %d: got %v, want ErrBadBufferSize", size, err)
		}
	}
}

func TestFS_ContextCancellation(t *testing.T) {
	memFS := fstest.MapFS{
		"games.pgn": &fstest.MapFile{Data: []byte("data")},
	}

	iter, err := New(memFS, "games.pgn", 2).Open()
	if err != nil {
		t.Fatalf("failed to open source: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := iter.Next(ctx); err != context.Canceled {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	// The handle is released, later calls report exhaustion.
	if _, err := iter.Next(context.Background()); err != io.EOF {
		t.Fatalf("got %v after cancellation, want io.EOF", err)
	}
}
