package storage

import (
	"context"
	"errors"
	"time"

	"github.com/opengs/pgnstream/game"
)

type ImportUUID string

// Import is one run of the extraction pipeline over one source file.
type Import struct {
	UUID       ImportUUID `json:"uuid"`
	SourceFile string     `json:"sourceFile"`

	// Timestamp when the run was registered
	StartedAt time.Time `json:"startedAt"`
	// Indicates when the run is finished
	FinishedAt *time.Time `json:"finishedAt"`

	ValidGames   uint64 `json:"validGames"`
	InvalidGames uint64 `json:"invalidGames"`
}

var ErrImportDoesntExist = errors.New("import does not exist in storage")

type Storage interface {
	// Registers a new import run for the given source file
	CreateImport(ctx context.Context, importUUID ImportUUID, sourceFile string) (*Import, error)
	// Stores one extracted game under the import run
	PutGame(ctx context.Context, importUUID ImportUUID, g *game.ChessGame) error
	// Marks the import run as finished and stores the final counters
	FinishImport(ctx context.Context, importUUID ImportUUID, validGames uint64, invalidGames uint64) error
	// Returns the import run information
	GetImport(ctx context.Context, importUUID ImportUUID) (*Import, error)
}
