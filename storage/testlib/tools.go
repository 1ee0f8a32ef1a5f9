package testlib

import (
	"math/rand"
	"testing"
	"time"

	"github.com/opengs/pgnstream/game"
	"github.com/opengs/pgnstream/storage"
)

func RandString(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyz" + "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}

func RandSchemaName(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyz"

	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}

func randGame() *game.ChessGame {
	elo := 1500 + rand.Intn(1000)
	utcDate := time.Date(2013, time.Month(1+rand.Intn(12)), 1+rand.Intn(28), 0, 0, 0, 0, time.UTC)

	return &game.ChessGame{
		Event:    "Rated Blitz game",
		Site:     "https://lichess.org/" + RandString(8),
		White:    RandString(10),
		Black:    RandString(10),
		Result:   game.WhiteWins,
		Moves:    "1. e4 e5 2. Nf3 Nc6 3. Bb5 a6",
		WhiteElo: &elo,
		UTCDate:  &utcDate,
		ECO:      "C60",
	}
}

// TestStorage runs the conformance suite every [storage.Storage]
// implementation must pass.
func TestStorage(t *testing.T, s storage.Storage) {
	t.Run("CreateImport", func(t *testing.T) {
		importUUID := storage.ImportUUID(RandString(32))

		imp, err := s.CreateImport(t.Context(), importUUID, "games.pgn")
		if err != nil {
			t.Fatal(err.Error())
		}
		if imp.UUID != importUUID || imp.SourceFile != "games.pgn" {
			t.Fatalf("import mismatch: %+v", imp)
		}
		if imp.FinishedAt != nil {
			t.Fatal("fresh import should not be finished")
		}
	})

	t.Run("PutGames", func(t *testing.T) {
		importUUID := storage.ImportUUID(RandString(32))
		if _, err := s.CreateImport(t.Context(), importUUID, "games.pgn"); err != nil {
			t.Fatal(err.Error())
		}

		for i := 0; i < 20; i++ {
			if err := s.PutGame(t.Context(), importUUID, randGame()); err != nil {
				t.Fatalf("failed to store game %d: %v", i, err)
			}
		}
	})

	t.Run("PutGameWithoutImport", func(t *testing.T) {
		err := s.PutGame(t.Context(), storage.ImportUUID(RandString(32)), randGame())
		if err != storage.ErrImportDoesntExist {
			t.Fatalf("got %v, want ErrImportDoesntExist", err)
		}
	})

	t.Run("FinishImport", func(t *testing.T) {
		importUUID := storage.ImportUUID(RandString(32))
		if _, err := s.CreateImport(t.Context(), importUUID, "games.pgn"); err != nil {
			t.Fatal(err.Error())
		}

		if err := s.FinishImport(t.Context(), importUUID, 12, 3); err != nil {
			t.Fatal(err.Error())
		}

		imp, err := s.GetImport(t.Context(), importUUID)
		if err != nil {
			t.Fatal(err.Error())
		}
		if imp.FinishedAt == nil {
			t.Fatal("finished import should carry a finish timestamp")
		}
		if imp.ValidGames != 12 || imp.InvalidGames != 3 {
			t.Fatalf("counters = %d / %d, want 12 / 3", imp.ValidGames, imp.InvalidGames)
		}
	})

	t.Run("FinishUnknownImport", func(t *testing.T) {
		err := s.FinishImport(t.Context(), storage.ImportUUID(RandString(32)), 0, 0)
		if err != storage.ErrImportDoesntExist {
			t.Fatalf("got %v, want ErrImportDoesntExist", err)
		}
	})

	t.Run("GetUnknownImport", func(t *testing.T) {
		_, err := s.GetImport(t.Context(), storage.ImportUUID(RandString(32)))
		if err != storage.ErrImportDoesntExist {
			t.Fatalf("got %v, want ErrImportDoesntExist", err)
		}
	})
}
