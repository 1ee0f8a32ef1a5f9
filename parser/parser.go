package parser

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/opengs/pgnstream/game"
)

const (
	dateLayout = "2006.01.02"
	timeLayout = "15:04:05"
)

// TagSyntaxError reports a tag-pair line that does not follow the
// `[Key "Value"]` shape: missing brackets, missing key, or an
// unterminated quoted value.
type TagSyntaxError struct {
	Line string
}

func (e *TagSyntaxError) Error() string {
	return fmt.Sprintf("malformed tag line: %s", e.Line)
}

// RequiredFieldError reports a required field that is missing from the
// record or could not be converted to its typed representation.
type RequiredFieldError struct {
	Field string
	Cause error
}

func (e *RequiredFieldError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("required field %q: %s", e.Field, e.Cause)
	}
	return fmt.Sprintf("required field %q not found", e.Field)
}

func (e *RequiredFieldError) Unwrap() error {
	return e.Cause
}

// Result of parsing one raw record. Warnings carry data-quality findings
// that do not block emission of the game; Degraded names the optional
// fields whose values could not be converted and were left absent.
type Result struct {
	Game     *game.ChessGame
	Warnings []string
	Degraded []string
	Err      error
}

// Parser converts one complete raw record into a validated [game.ChessGame].
// A zero Parser is ready to use; Parse is thread safe.
type Parser struct{}

func New() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(raw []byte) Result {
	tags, movetext, err := splitRecord(string(raw))
	if err != nil {
		return Result{Err: err}
	}

	g := &game.ChessGame{}

	if g.Event, err = requiredTag(tags, "event"); err != nil {
		return Result{Err: err}
	}
	if g.Site, err = requiredTag(tags, "site"); err != nil {
		return Result{Err: err}
	}
	if g.White, err = requiredTag(tags, "white"); err != nil {
		return Result{Err: err}
	}
	if g.Black, err = requiredTag(tags, "black"); err != nil {
		return Result{Err: err}
	}

	resultTag, err := requiredTag(tags, "result")
	if err != nil {
		return Result{Err: err}
	}
	if g.Result, err = game.ParseResult(resultTag); err != nil {
		return Result{Err: &RequiredFieldError{Field: "result", Cause: err}}
	}

	if movetext == "" {
		return Result{Err: &RequiredFieldError{Field: "moves"}}
	}

	// Optional fields degrade to absent on conversion failure. Lichess
	// writes `????.??.??` and `?` placeholders for unknown values, which
	// fail conversion like any other junk.
	var degraded []string
	degrade := func(field, value string) {
		degraded = append(degraded, fmt.Sprintf("optional field %q holds unconvertible value %q, leaving it absent", field, value))
	}
	if v, ok := tags["utcdate"]; ok {
		if t, err := time.Parse(dateLayout, v); err == nil {
			g.UTCDate = &t
		} else {
			degrade("utcdate", v)
		}
	}
	if v, ok := tags["utctime"]; ok {
		if t, err := time.Parse(timeLayout, v); err == nil {
			g.UTCTime = &t
		} else {
			degrade("utctime", v)
		}
	}
	if v, ok := tags["whiteelo"]; ok {
		if elo, err := strconv.Atoi(v); err == nil {
			g.WhiteElo = &elo
		} else {
			degrade("whiteelo", v)
		}
	}
	if v, ok := tags["blackelo"]; ok {
		if elo, err := strconv.Atoi(v); err == nil {
			g.BlackElo = &elo
		} else {
			degrade("blackelo", v)
		}
	}
	g.ECO = tags["eco"]
	g.Opening = tags["opening"]
	g.TimeControl = tags["timecontrol"]
	g.Termination = tags["termination"]

	var warnings []string
	g.Moves, warnings = stripResultToken(movetext, g.Result)

	return Result{Game: g, Warnings: warnings, Degraded: degraded}
}

// splitRecord separates the tag-pair region from the movetext region and
// extracts the key/value pairs. Everything before the first blank line is
// the tag region and must parse as `[Key "Value"]` lines; everything after
// is movetext. Tag keys are lowercased so lookups match the field names
// regardless of source casing.
func splitRecord(record string) (tags map[string]string, movetext string, err error) {
	tags = make(map[string]string, 16)
	var moveLines []string
	inMoves := false

	for _, line := range strings.Split(record, "\n") {
		line = strings.TrimRight(line, " \t\r")
		if line == "" {
			if len(tags) > 0 {
				inMoves = true
			}
			continue
		}

		if inMoves {
			moveLines = append(moveLines, line)
			continue
		}

		key, value, err := parseTagLine(line)
		if err != nil {
			return nil, "", err
		}
		tags[strings.ToLower(key)] = value
	}

	return tags, strings.Join(moveLines, "\n"), nil
}

func parseTagLine(line string) (key, value string, err error) {
	if !strings.HasPrefix(line, "[") || !strings.HasSuffix(line, "]") {
		return "", "", &TagSyntaxError{Line: line}
	}

	inner := line[1 : len(line)-1]
	key, quoted, ok := strings.Cut(inner, " ")
	if !ok || key == "" {
		return "", "", &TagSyntaxError{Line: line}
	}

	quoted = strings.TrimSpace(quoted)
	if len(quoted) < 2 || quoted[0] != '"' || quoted[len(quoted)-1] != '"' {
		return "", "", &TagSyntaxError{Line: line}
	}

	return key, quoted[1 : len(quoted)-1], nil
}

// stripResultToken removes the trailing result token from the movetext.
// The token is expected to match the Result tag; a mismatch occurs in
// real databases and is reported as a warning, not an error.
func stripResultToken(movetext string, declared game.Result) (string, []string) {
	trimmed := strings.TrimRight(movetext, " \t\n")

	for _, token := range []game.Result{game.Draw, game.WhiteWins, game.BlackWins, game.Unfinished} {
		if !strings.HasSuffix(trimmed, string(token)) {
			continue
		}

		moves := strings.TrimRight(trimmed[:len(trimmed)-len(token)], " \t\n")
		if token != declared {
			return moves, []string{fmt.Sprintf("movetext result token %q does not match the Result tag %q", token, declared)}
		}
		return moves, nil
	}

	return trimmed, []string{fmt.Sprintf("movetext has no terminating result token, Result tag is %q", declared)}
}

func requiredTag(tags map[string]string, field string) (string, error) {
	value, ok := tags[field]
	if !ok {
		return "", &RequiredFieldError{Field: field}
	}
	return value, nil
}
