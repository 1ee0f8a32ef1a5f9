package migrations

import (
	"embed"
	"errors"
	"io/fs"
	"strings"

	"github.com/psanford/memfs"
)

//go:embed *.sql
var migrations embed.FS

// PrepareMigrations renders the embedded migration files with the schema
// and table prefix substituted, so several deployments can share one
// database.
func PrepareMigrations(schema string, prefix string) (fs.FS, error) {
	rootFS := memfs.New()

	entries, err := migrations.ReadDir(".")
	if err != nil {
		return nil, errors.Join(errors.New("failed to read migrations directory"), err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		fileData, err := fs.ReadFile(migrations, entry.Name())
		if err != nil {
			return nil, err
		}

		rendered := strings.ReplaceAll(string(fileData), "SCHEMA_NAME", schema)
		rendered = strings.ReplaceAll(rendered, "DATABASE_PREFIX_", prefix)

		if err := rootFS.WriteFile(entry.Name(), []byte(rendered), 0755); err != nil {
			return nil, err
		}
	}

	return rootFS, nil
}
