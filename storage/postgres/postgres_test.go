package postgres

import (
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/opengs/pgnstream/storage/testlib"
)

func getTestingStorage(t *testing.T, options ...PostgresOption) *PostgresStorage {
	dbURL := os.Getenv("TEST_STORAGE_POSTGRES_DBURL")
	if dbURL == "" {
		t.Skip("TEST_STORAGE_POSTGRES_DBURL is not configured")
	}

	cfg, err := pgx.ParseConfig(dbURL)
	if err != nil {
		t.Fatal(err.Error())
	}

	db := stdlib.OpenDB(*cfg)
	t.Cleanup(func() {
		db.Close()
	})

	schemaName := testlib.RandSchemaName(32)
	if _, err := db.ExecContext(t.Context(), "CREATE SCHEMA "+schemaName); err != nil {
		t.Fatal(err.Error())
	}
	t.Cleanup(func() {
		db.ExecContext(t.Context(), "DROP SCHEMA "+schemaName+" CASCADE")
	})

	options = append([]PostgresOption{WithDatabaseSchema(schemaName)}, options...)
	store := NewPostgresStorage(db, options...)
	t.Cleanup(func() {
		store.UnInstall(t.Context())
	})

	if err := store.Install(t.Context()); err != nil {
		t.Fatal(err.Error())
	}

	return &store
}

func TestPostgresStorage(t *testing.T) {
	store := getTestingStorage(t)
	testlib.TestStorage(t, store)
}

func TestInstallIsIdempotent(t *testing.T) {
	store := getTestingStorage(t)
	if err := store.Install(t.Context()); err != nil {
		t.Fatal(err.Error())
	}
}
