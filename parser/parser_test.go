package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/opengs/pgnstream/game"
)

const fullRecord = `[Event "Rated Blitz game"]
[Site "https://lichess.org/abcd1234"]
[White "alice"]
[Black "bob"]
[Result "1-0"]
[UTCDate "2013.01.05"]
[UTCTime "22:01:13"]
[WhiteElo "1654"]
[BlackElo "1598"]
[ECO "C20"]
[Opening "King's Pawn Game"]
[TimeControl "300+0"]
[Termination "Normal"]

1. e4 e5 2. Qh5 Nc6 3. Bc4 g6 4. Qf3 Nd4 5. Qxf7# 1-0
`

func TestParse_FullRecord(t *testing.T) {
	result := New().Parse([]byte(fullRecord))
	if result.Err != nil {
		t.Fatalf("unexpected parse error: %v", result.Err)
	}
	if len(result.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", result.Warnings)
	}

	g := result.Game
	if g.Event != "Rated Blitz game" {
		t.Errorf("event = %q", g.Event)
	}
	if g.Site != "https://lichess.org/abcd1234" {
		t.Errorf("site = %q", g.Site)
	}
	if g.White != "alice" || g.Black != "bob" {
		t.Errorf("players = %q / %q", g.White, g.Black)
	}
	if g.Result != game.WhiteWins {
		t.Errorf("result = %q", g.Result)
	}
	if g.UTCDate == nil || g.UTCDate.Format("2006.01.02") != "2013.01.05" {
		t.Errorf("utcdate = %v", g.UTCDate)
	}
	if g.UTCTime == nil || g.UTCTime.Format("15:04:05") != "22:01:13" {
		t.Errorf("utctime = %v", g.UTCTime)
	}
	if g.WhiteElo == nil || *g.WhiteElo != 1654 {
		t.Errorf("whiteelo = %v", g.WhiteElo)
	}
	if g.BlackElo == nil || *g.BlackElo != 1598 {
		t.Errorf("blackelo = %v", g.BlackElo)
	}
	if g.ECO != "C20" || g.Opening != "King's Pawn Game" || g.TimeControl != "300+0" || g.Termination != "Normal" {
		t.Errorf("optional text fields = %q %q %q %q", g.ECO, g.Opening, g.TimeControl, g.Termination)
	}
	if g.Moves != "1. e4 e5 2. Qh5 Nc6 3. Bc4 g6 4. Qf3 Nd4 5. Qxf7#" {
		t.Errorf("moves = %q", g.Moves)
	}
}

func TestParse_RequiredFieldMissing(t *testing.T) {
	tests := []struct {
		name   string
		record string
		field  string
	}{
		{
			name:   "missing white",
			record: "[Event \"x\"]\n[Site \"y\"]\n[Black \"B\"]\n[Result \"1-0\"]\n\n1. e4 1-0\n",
			field:  "white",
		},
		{
			name:   "missing result",
			record: "[Event \"x\"]\n[Site \"y\"]\n[White \"A\"]\n[Black \"B\"]\n\n1. e4 1-0\n",
			field:  "result",
		},
		{
			name:   "bad result value",
			record: "[Event \"x\"]\n[Site \"y\"]\n[White \"A\"]\n[Black \"B\"]\n[Result \"2-0\"]\n\n1. e4 1-0\n",
			field:  "result",
		},
		{
			name:   "missing movetext",
			record: "[Event \"x\"]\n[Site \"y\"]\n[White \"A\"]\n[Black \"B\"]\n[Result \"1-0\"]\n",
			field:  "moves",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := New().Parse([]byte(tt.record))
			if result.Err == nil {
				t.Fatal("expected parse error")
			}
			var fieldErr *RequiredFieldError
			if !errors.As(result.Err, &fieldErr) {
				t.Fatalf("got %T, want RequiredFieldError", result.Err)
			}
			if fieldErr.Field != tt.field {
				t.Errorf("error names field %q, want %q", fieldErr.Field, tt.field)
			}
			if result.Game != nil {
				t.Error("rejected record must not emit a game")
			}
		})
	}
}

func TestParse_TagSyntax(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{name: "missing closing bracket", line: "[Event \"x\""},
		{name: "missing opening bracket", line: "Event \"x\"]"},
		{name: "unterminated quote", line: "[Event \"x]"},
		{name: "no value", line: "[Event]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := tt.line + "\n[White \"A\"]\n\n1. e4 1-0\n"
			result := New().Parse([]byte(record))
			var tagErr *TagSyntaxError
			if !errors.As(result.Err, &tagErr) {
				t.Fatalf("got %v, want TagSyntaxError", result.Err)
			}
			if !strings.Contains(tagErr.Error(), tt.line) {
				t.Errorf("error %q does not name the offending line %q", tagErr.Error(), tt.line)
			}
		})
	}
}

func TestParse_OptionalFieldsDegrade(t *testing.T) {
	record := "[Event \"x\"]\n[Site \"y\"]\n[White \"A\"]\n[Black \"B\"]\n[Result \"0-1\"]\n" +
		"[UTCDate \"????.??.??\"]\n[UTCTime \"whenever\"]\n[WhiteElo \"?\"]\n[BlackElo \"-12x\"]\n\n1. d4 d5 0-1\n"

	result := New().Parse([]byte(record))
	if result.Err != nil {
		t.Fatalf("optional conversion failures must not reject the record: %v", result.Err)
	}

	g := result.Game
	if g.UTCDate != nil {
		t.Errorf("utcdate should be absent, got %v", g.UTCDate)
	}
	if g.UTCTime != nil {
		t.Errorf("utctime should be absent, got %v", g.UTCTime)
	}
	if g.WhiteElo != nil {
		t.Errorf("whiteelo should be absent, got %v", g.WhiteElo)
	}
	if g.BlackElo != nil {
		t.Errorf("blackelo should be absent, got %v", g.BlackElo)
	}

	// Every degraded field is reported, so the caller can log it.
	if len(result.Degraded) != 4 {
		t.Fatalf("got %d degradation notices, want 4: %v", len(result.Degraded), result.Degraded)
	}
	for i, field := range []string{"utcdate", "utctime", "whiteelo", "blackelo"} {
		if !strings.Contains(result.Degraded[i], field) {
			t.Errorf("notice %d = %q, does not name field %q", i, result.Degraded[i], field)
		}
	}
}

func TestParse_NoDegradationOnCleanRecord(t *testing.T) {
	result := New().Parse([]byte(fullRecord))
	if result.Err != nil {
		t.Fatalf("unexpected parse error: %v", result.Err)
	}
	if len(result.Degraded) != 0 {
		t.Errorf("unexpected degradation notices: %v", result.Degraded)
	}
}

func TestParse_ResultTokenMismatch(t *testing.T) {
	record := "[Event \"x\"]\n[Site \"y\"]\n[White \"A\"]\n[Black \"B\"]\n[Result \"1-0\"]\n\n1. e4 e5 1/2-1/2\n"

	result := New().Parse([]byte(record))
	if result.Err != nil {
		t.Fatalf("a result mismatch must not reject the record: %v", result.Err)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("got %d warnings, want 1: %v", len(result.Warnings), result.Warnings)
	}
	if !strings.Contains(result.Warnings[0], "1/2-1/2") || !strings.Contains(result.Warnings[0], "1-0") {
		t.Errorf("warning does not name both results: %q", result.Warnings[0])
	}
	if result.Game.Moves != "1. e4 e5" {
		t.Errorf("moves = %q, token not stripped", result.Game.Moves)
	}
}

func TestParse_MissingResultToken(t *testing.T) {
	record := "[Event \"x\"]\n[Site \"y\"]\n[White \"A\"]\n[Black \"B\"]\n[Result \"1-0\"]\n\n1. e4 e5\n"

	result := New().Parse([]byte(record))
	if result.Err != nil {
		t.Fatalf("unexpected parse error: %v", result.Err)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("got %d warnings, want 1: %v", len(result.Warnings), result.Warnings)
	}
	if result.Game.Moves != "1. e4 e5" {
		t.Errorf("moves = %q", result.Game.Moves)
	}
}

func TestParse_ValueRoundTrip(t *testing.T) {
	// A tag value without special characters comes back verbatim.
	values := []string{"alice", "Rated Blitz game", "300+0", "B01", "A. Nimzowitsch"}
	for _, value := range values {
		record := "[Event \"" + value + "\"]\n[Site \"y\"]\n[White \"A\"]\n[Black \"B\"]\n[Result \"*\"]\n\n1. e4 *\n"
		result := New().Parse([]byte(record))
		if result.Err != nil {
			t.Fatalf("value %q: unexpected error: %v", value, result.Err)
		}
		if result.Game.Event != value {
			t.Errorf("value %q came back as %q", value, result.Game.Event)
		}
	}
}

func TestParse_MultilineMovetext(t *testing.T) {
	record := "[Event \"x\"]\n[Site \"y\"]\n[White \"A\"]\n[Black \"B\"]\n[Result \"0-1\"]\n\n1. d4 d5 2. c4 e6\n3. Nc3 Nf6 0-1\n"

	result := New().Parse([]byte(record))
	if result.Err != nil {
		t.Fatalf("unexpected parse error: %v", result.Err)
	}
	if result.Game.Moves != "1. d4 d5 2. c4 e6\n3. Nc3 Nf6" {
		t.Errorf("moves = %q", result.Game.Moves)
	}
}
