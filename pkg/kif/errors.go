package kif

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownKey = errors.New("unknown key")
	ErrTimeLimit  = errors.New("malformed time limit")
	ErrNoMoves    = errors.New("game end before any move")
	ErrBadElapsed = errors.New("malformed elapsed time")
)

// LookupError reports a record whose square, piece or end code is missing
// from the lexicon.
type LookupError struct {
	Line   int
	Record string
	Field  string
	Key    string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("line %d: %s %q not found in %q", e.Line, e.Field, e.Key, e.Record)
}

func (e *LookupError) Unwrap() error {
	return ErrUnknownKey
}

var ErrBadAction = errors.New("malformed action")
