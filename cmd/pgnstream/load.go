package main

import (
	"errors"
	"io"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/opengs/pgnstream"
	"github.com/opengs/pgnstream/game"
	"github.com/opengs/pgnstream/storage"
	"github.com/opengs/pgnstream/storage/postgres"
)

var loadCMD = &cobra.Command{
	Use:   "load",
	Short: "Parse a PGN file and load the games into Postgres",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		databaseURL, _ := cmd.Flags().GetString("database-url")
		if databaseURL == "" {
			return errors.New("database-url is required")
		}
		schema, _ := cmd.Flags().GetString("schema")
		prefix, _ := cmd.Flags().GetString("prefix")

		parser, err := pgnstream.New(cfg)
		if err != nil {
			return err
		}
		defer parser.Close()

		pgxConfig, err := pgx.ParseConfig(databaseURL)
		if err != nil {
			return errors.Join(errors.New("failed to parse database url"), err)
		}
		db := stdlib.OpenDB(*pgxConfig)
		defer db.Close()

		store := postgres.NewPostgresStorage(db,
			postgres.WithDatabaseSchema(schema),
			postgres.WithDatabasePrefix(prefix))
		if err := store.Install(cmd.Context()); err != nil {
			return err
		}

		importUUID := storage.ImportUUID(uuid.NewString())
		if _, err := store.CreateImport(cmd.Context(), importUUID, cfg.FileName); err != nil {
			return err
		}

		games, err := parser.Games(cmd.Context())
		if err != nil {
			return err
		}
		defer games.Close()

		pipe := make(chan *game.ChessGame, 64)
		group, ctx := errgroup.WithContext(cmd.Context())

		group.Go(func() error {
			defer close(pipe)
			for {
				g, err := games.Next(ctx)
				if err == io.EOF {
					return nil
				}
				if err != nil {
					return err
				}

				select {
				case pipe <- g:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		})

		group.Go(func() error {
			for g := range pipe {
				if err := store.PutGame(ctx, importUUID, g); err != nil {
					return err
				}
			}
			return nil
		})

		if err := group.Wait(); err != nil {
			return err
		}

		return store.FinishImport(cmd.Context(), importUUID, games.Valid(), games.Invalid())
	},
}

func init() {
	addParserFlags(loadCMD)
	loadCMD.Flags().String("database-url", "", "Postgres connection url")
	loadCMD.Flags().String("schema", "public", "database schema holding the pgnstream tables")
	loadCMD.Flags().String("prefix", "pgnstream_", "prefix for the pgnstream tables")
}
