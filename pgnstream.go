package pgnstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/creasty/defaults"
	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/opengs/pgnstream/game"
	"github.com/opengs/pgnstream/parser"
	"github.com/opengs/pgnstream/source"
	sourcefs "github.com/opengs/pgnstream/source/fs"
	"github.com/opengs/pgnstream/splitter"
)

var ErrBadConfig = errors.New("bad parser configuration")

// Source file is not plain text. The parser only reads the plain PGN
// dumps published by lichess, never compressed or binary data.
var ErrNotPlainText = errors.New("source file is not a plain text file")

type DebugMode string

const (
	// Log only failures, to the log file.
	DebugModeSilent DebugMode = "silent"
	// Log informational and failure events to stderr and the log file.
	DebugModeVerbose DebugMode = "verbose"
	// Additionally log per-chunk and per-record diagnostic detail.
	DebugModeDebug DebugMode = "debug"
)

type Config struct {
	// Full path of the plain text file containing the PGN data.
	FileName string `yaml:"file_name"`
	// Size in bytes of the chunks read from the source file. Smaller than
	// the largest game in the file is legal, it only costs extra scan
	// passes over the pending data.
	BufferSize int `yaml:"buffer_size" default:"65536"`
	// Upper bound on the bytes retained while looking for a record
	// boundary. Exceeding it fails the stream instead of growing without
	// limit on corrupt input.
	MaxRecordSize int       `yaml:"max_record_size" default:"4194304"`
	DebugMode     DebugMode `yaml:"debug_mode" default:"silent"`
	LogPath       string    `yaml:"log_path" default:"Logs/PgnParser.log"`
}

type Option func(p *Parser)

// WithFS makes the parser read Config.FileName from the given filesystem
// instead of the host one. Used with [testing/fstest.MapFS] in tests.
func WithFS(fsys fs.FS) Option {
	return func(p *Parser) {
		p.fsys = fsys
	}
}

// WithLogger replaces the log-file backed logger built from the
// configuration.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Parser) {
		p.logger = logger
	}
}

// Parser extracts chess games from huge PGN files from the open lichess
// database (https://database.lichess.org/) without loading a file into
// memory.
//
// This is NOT designed to support every possible PGN dialect, only the
// flat records lichess publishes: no variations, no comments, no nested
// sub-lines.
type Parser struct {
	cfg      Config
	fsys     fs.FS
	path     string
	logger   *zap.Logger
	closeLog func()
	parser   *parser.Parser
}

func New(cfg Config, options ...Option) (*Parser, error) {
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Join(errors.New("failed to apply configuration defaults"), err)
	}

	if cfg.FileName == "" {
		return nil, fmt.Errorf("%w: file_name is required", ErrBadConfig)
	}
	if cfg.BufferSize <= 0 {
		return nil, fmt.Errorf("%w: buffer_size must be positive, got %d", ErrBadConfig, cfg.BufferSize)
	}
	if cfg.MaxRecordSize < cfg.BufferSize {
		return nil, fmt.Errorf("%w: max_record_size %d is smaller than buffer_size %d", ErrBadConfig, cfg.MaxRecordSize, cfg.BufferSize)
	}
	switch cfg.DebugMode {
	case DebugModeSilent, DebugModeVerbose, DebugModeDebug:
	default:
		return nil, fmt.Errorf("%w: unknown debug mode %q", ErrBadConfig, cfg.DebugMode)
	}

	p := &Parser{
		cfg:    cfg,
		parser: parser.New(),
	}
	for _, option := range options {
		option(p)
	}

	if p.fsys == nil {
		dir, file := filepath.Split(cfg.FileName)
		if dir == "" {
			dir = "."
		}
		p.fsys = os.DirFS(dir)
		p.path = file
	} else {
		p.path = cfg.FileName
	}

	if _, err := fs.Stat(p.fsys, p.path); err != nil {
		return nil, errors.Join(fmt.Errorf("the provided file name doesn't exist: %s", cfg.FileName), err)
	}

	if p.logger == nil {
		logger, closeLog, err := newLogger(cfg.DebugMode, cfg.LogPath)
		if err != nil {
			return nil, errors.Join(errors.New("failed to initialize logger"), err)
		}
		p.logger = logger
		p.closeLog = closeLog
	}
	p.logger.Debug("logger initiated")

	return p, nil
}

// Close flushes the logger and releases the log file handle. Safe to call
// multiple times, and a no-op when the logger was injected with
// [WithLogger].
func (p *Parser) Close() error {
	p.logger.Sync()
	if p.closeLog != nil {
		p.closeLog()
		p.closeLog = nil
	}
	return nil
}

// Games opens the source file and returns the lazy sequence of validated
// games. The sequence is finite and not restartable; call Games again for
// a fresh scan. Records that fail validation are skipped and logged, they
// never surface through the iterator. Only read failures do.
func (p *Parser) Games(ctx context.Context) (*GameIterator, error) {
	if err := p.sniff(); err != nil {
		return nil, err
	}

	src := sourcefs.New(p.fsys, p.path, p.cfg.BufferSize)
	chunks, err := src.Open()
	if err != nil {
		return nil, err
	}

	p.logger.Info("opening file read-only",
		zap.String("file", p.cfg.FileName),
		zap.Int("bufferSize", p.cfg.BufferSize))

	return &GameIterator{
		fileName: p.cfg.FileName,
		chunks:   chunks,
		split: splitter.New(chunks,
			splitter.WithMaxRecordSize(p.cfg.MaxRecordSize),
			splitter.WithLogger(p.logger)),
		parser:   p.parser,
		logger:   p.logger,
	}, nil
}

// sniff rejects non-text input before any record parsing starts.
func (p *Parser) sniff() error {
	fp, err := p.fsys.Open(p.path)
	if err != nil {
		return errors.Join(errors.New("failed to open source file"), err)
	}
	defer fp.Close()

	head := make([]byte, 1024)
	n, err := io.ReadFull(fp, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return errors.Join(errors.New("failed to read file to determine mime type"), err)
	}
	if n == 0 {
		// Empty file is a valid, empty database.
		return nil
	}

	mime := mimetype.Detect(head[:n])
	for mt := mime; mt != nil; mt = mt.Parent() {
		if mt.Is("text/plain") {
			return nil
		}
	}
	return fmt.Errorf("%w: detected %s", ErrNotPlainText, mime)
}

// GameIterator is the lazy sequence of games produced by one scan of the
// source file. The caller drives the whole pipeline: between Next calls
// no work proceeds and no state mutates.
type GameIterator struct {
	fileName string
	chunks   source.ChunkIterator
	split    *splitter.Splitter
	parser   *parser.Parser
	logger   *zap.Logger

	validGames   uint64
	invalidGames uint64
	finished     bool
}

// Next returns the next validated game. Returns [io.EOF] once the source
// is drained; any other error is fatal and terminates the stream.
func (it *GameIterator) Next(ctx context.Context) (*game.ChessGame, error) {
	for {
		raw, err := it.split.Next(ctx)
		if err == io.EOF {
			it.finish(nil)
			return nil, io.EOF
		}
		if err != nil {
			it.finish(err)
			return nil, err
		}

		it.logger.Debug("splitting produced a record", zap.Int("bytes", len(raw)))

		result := it.parser.Parse(raw)
		for _, warning := range result.Warnings {
			it.logger.Warn(warning)
		}
		for _, degraded := range result.Degraded {
			it.logger.Info(degraded)
		}
		if result.Err != nil {
			it.invalidGames++
			it.logger.Error("discarding game", zap.Error(result.Err))
			continue
		}

		it.validGames++
		return result.Game, nil
	}
}

// Valid reports how many games were emitted so far.
func (it *GameIterator) Valid() uint64 {
	return it.validGames
}

// Invalid reports how many records were rejected so far.
func (it *GameIterator) Invalid() uint64 {
	return it.invalidGames
}

// Close releases the underlying file handle. Called automatically on
// exhaustion and on stream errors; the caller must call it when
// abandoning the sequence early.
func (it *GameIterator) Close() error {
	it.finish(nil)
	return it.chunks.Close()
}

func (it *GameIterator) finish(err error) {
	if it.finished {
		return
	}
	it.finished = true
	it.chunks.Close()

	if err != nil {
		it.logger.Error("closing file after stream failure",
			zap.String("file", it.fileName),
			zap.Error(err))
		return
	}
	it.logger.Info("closing file",
		zap.String("file", it.fileName),
		zap.Uint64("chunks", it.split.Chunks()),
		zap.Uint64("validGames", it.validGames),
		zap.Uint64("invalidGames", it.invalidGames))
}
