package testdata

import "embed"

//go:embed *.pgn
var FS embed.FS

//go:embed games.pgn
var Games []byte

//go:embed corrupt.pgn
var Corrupt []byte
