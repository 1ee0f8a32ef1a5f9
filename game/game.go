package game

import (
	"fmt"
	"strings"
	"time"
)

// Result of a game as written in the PGN `Result` tag and at the end of
// the movetext.
type Result string

const (
	WhiteWins  Result = "1-0"
	BlackWins  Result = "0-1"
	Draw       Result = "1/2-1/2"
	Unfinished Result = "*"
)

func ParseResult(value string) (Result, error) {
	switch r := Result(value); r {
	case WhiteWins, BlackWins, Draw, Unfinished:
		return r, nil
	}
	return "", fmt.Errorf("unknown game result %q", value)
}

// ChessGame is one fully validated game record extracted from a PGN
// database. Optional tags that are missing from the source, or hold the
// `?` placeholders lichess writes for unknown values, stay nil / empty.
type ChessGame struct {
	Event  string
	Site   string
	White  string
	Black  string
	Result Result
	// Movetext without the trailing result token.
	Moves string

	UTCDate  *time.Time
	UTCTime  *time.Time
	WhiteElo *int
	BlackElo *int

	ECO         string
	Opening     string
	TimeControl string
	Termination string
}

const maxValueDisplaySize = 15

// String renders a short representation with long values truncated,
// suitable for streaming games to a terminal.
func (g *ChessGame) String() string {
	var params []string
	appendStr := func(name, value string) {
		if len(value) > maxValueDisplaySize {
			value = value[:maxValueDisplaySize] + "..."
		}
		params = append(params, fmt.Sprintf("%s=%q", name, value))
	}

	appendStr("event", g.Event)
	appendStr("site", g.Site)
	appendStr("white", g.White)
	appendStr("black", g.Black)
	params = append(params, fmt.Sprintf("result=%s", g.Result))
	if g.UTCDate != nil {
		params = append(params, fmt.Sprintf("utcdate=%s", g.UTCDate.Format("2006.01.02")))
	}
	if g.UTCTime != nil {
		params = append(params, fmt.Sprintf("utctime=%s", g.UTCTime.Format("15:04:05")))
	}
	if g.WhiteElo != nil {
		params = append(params, fmt.Sprintf("whiteelo=%d", *g.WhiteElo))
	}
	if g.BlackElo != nil {
		params = append(params, fmt.Sprintf("blackelo=%d", *g.BlackElo))
	}
	if g.ECO != "" {
		appendStr("eco", g.ECO)
	}
	if g.Opening != "" {
		appendStr("opening", g.Opening)
	}
	if g.TimeControl != "" {
		appendStr("timecontrol", g.TimeControl)
	}
	if g.Termination != "" {
		appendStr("termination", g.Termination)
	}
	appendStr("moves", g.Moves)

	return fmt.Sprintf("ChessGame(%s)", strings.Join(params, ", "))
}
