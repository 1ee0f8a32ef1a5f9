package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/opengs/pgnstream/game"
	"github.com/opengs/pgnstream/storage"
	"github.com/opengs/pgnstream/storage/postgres/migrations"
)

// PostgresStorage persists extracted games in a Postgres database. Open
// the database with the pgx stdlib driver and pass it in.
type PostgresStorage struct {
	db *sql.DB

	databaseName   string
	databaseSchema string
	databasePrefix string

	importTable string
	gameTable   string
}

func NewPostgresStorage(db *sql.DB, options ...PostgresOption) PostgresStorage {
	storage := PostgresStorage{
		db:             db,
		databaseName:   "postgres",
		databaseSchema: "public",
		databasePrefix: "pgnstream_",
	}

	for _, option := range options {
		option(&storage)
	}

	storage.importTable = fmt.Sprintf("%s.%simport", storage.databaseSchema, storage.databasePrefix)
	storage.gameTable = fmt.Sprintf("%s.%sgame", storage.databaseSchema, storage.databasePrefix)

	return storage
}

// Make sure that all the tables are created and the database is ready to
// work. You can run this safely several times.
func (s *PostgresStorage) Install(ctx context.Context) error {
	migrator, err := s.newMigrator()
	if err != nil {
		return err
	}

	if err := migrator.Up(); err != nil && err != migrate.ErrNoChange {
		return errors.Join(errors.New("error while performing migration on the database"), err)
	}

	return nil
}

// Completely removes itself from the database
func (s *PostgresStorage) UnInstall(ctx context.Context) error {
	migrator, err := s.newMigrator()
	if err != nil {
		return err
	}

	if err := migrator.Down(); err != nil {
		return errors.Join(errors.New("error while performing migration on the database"), err)
	}

	if _, err := s.db.Exec("DROP TABLE " + fmt.Sprintf("%s.%smigrations", s.databaseSchema, s.databasePrefix)); err != nil {
		return errors.Join(errors.New("failed to drop migrations table"), err)
	}

	return nil
}

func (s *PostgresStorage) newMigrator() (*migrate.Migrate, error) {
	migrationFiles, err := migrations.PrepareMigrations(s.databaseSchema, s.databasePrefix)
	if err != nil {
		return nil, errors.Join(errors.New("failed to prepare migration files"), err)
	}

	driver, err := postgres.WithInstance(s.db, &postgres.Config{
		SchemaName:      s.databaseSchema,
		MigrationsTable: fmt.Sprintf("%smigrations", s.databasePrefix),
	})
	if err != nil {
		return nil, errors.Join(errors.New("failed to create postgres migration driver"), err)
	}

	migrationsSource, err := iofs.New(migrationFiles, ".")
	if err != nil {
		return nil, errors.Join(errors.New("failed to open postgres migrations source"), err)
	}

	migrator, err := migrate.NewWithInstance("migrations", migrationsSource, s.databaseName, driver)
	if err != nil {
		return nil, errors.Join(errors.New("failed to create migrator"), err)
	}

	return migrator, nil
}

func (s *PostgresStorage) CreateImport(ctx context.Context, importUUID storage.ImportUUID, sourceFile string) (*storage.Import, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (
			uuid, source_file
		)
		VALUES ($1, $2)
		RETURNING started_at
	`, s.importTable)

	imp := storage.Import{
		UUID:       importUUID,
		SourceFile: sourceFile,
	}
	if err := s.db.QueryRowContext(ctx, query, importUUID, sourceFile).Scan(&imp.StartedAt); err != nil {
		return nil, errors.Join(errors.New("failed to create import run in database"), err)
	}

	return &imp, nil
}

func (s *PostgresStorage) PutGame(ctx context.Context, importUUID storage.ImportUUID, g *game.ChessGame) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (
			import_id,
			event, site, white, black, result,
			utc_date, utc_time, white_elo, black_elo,
			eco, opening, time_control, termination, moves
		)
		SELECT import_id, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
		FROM %s WHERE uuid = $1
	`, s.gameTable, s.importTable)

	result, err := s.db.ExecContext(ctx, query,
		importUUID,
		g.Event, g.Site, g.White, g.Black, string(g.Result),
		g.UTCDate, g.UTCTime, g.WhiteElo, g.BlackElo,
		nullIfEmpty(g.ECO), nullIfEmpty(g.Opening), nullIfEmpty(g.TimeControl), nullIfEmpty(g.Termination),
		g.Moves,
	)
	if err != nil {
		return errors.Join(errors.New("failed to store game in database"), err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Join(errors.New("failed to read affected rows"), err)
	}
	if affected == 0 {
		return storage.ErrImportDoesntExist
	}

	return nil
}

func (s *PostgresStorage) FinishImport(ctx context.Context, importUUID storage.ImportUUID, validGames uint64, invalidGames uint64) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET finished_at = now(), valid_games = $2, invalid_games = $3
		WHERE uuid = $1
	`, s.importTable)

	result, err := s.db.ExecContext(ctx, query, importUUID, validGames, invalidGames)
	if err != nil {
		return errors.Join(errors.New("failed to finalize import run in database"), err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Join(errors.New("failed to read affected rows"), err)
	}
	if affected == 0 {
		return storage.ErrImportDoesntExist
	}

	return nil
}

func (s *PostgresStorage) GetImport(ctx context.Context, importUUID storage.ImportUUID) (*storage.Import, error) {
	query := fmt.Sprintf(`
		SELECT source_file, started_at, finished_at, valid_games, invalid_games
		FROM %s WHERE uuid = $1
	`, s.importTable)

	imp := storage.Import{UUID: importUUID}
	var finishedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, query, importUUID).Scan(
		&imp.SourceFile, &imp.StartedAt, &finishedAt, &imp.ValidGames, &imp.InvalidGames,
	)
	if err == sql.ErrNoRows {
		return nil, storage.ErrImportDoesntExist
	}
	if err != nil {
		return nil, errors.Join(errors.New("failed to read import run from database"), err)
	}

	if finishedAt.Valid {
		imp.FinishedAt = &finishedAt.Time
	}

	return &imp, nil
}

func nullIfEmpty(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
