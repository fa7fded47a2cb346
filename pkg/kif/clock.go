package kif

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Side is the CSA turn marker of the player making a move.
type Side byte

const (
	Sente Side = '+'
	Gote  Side = '-'
)

func (s Side) String() string {
	if s == Sente {
		return "先手"
	}
	return "後手"
}

func (s Side) other() Side {
	if s == Sente {
		return Gote
	}
	return Sente
}

// Clock holds the cumulative elapsed seconds of each side.
type Clock map[Side]int

func NewClock() Clock {
	return Clock{Sente: 0, Gote: 0}
}

// AccumulateElapsed adds seconds to side's running total and returns it.
func AccumulateElapsed(side Side, clock Clock, seconds int) int {
	total := clock[side] + seconds
	clock[side] = total
	return total
}

// DecomposeSeconds splits total into hours, minutes and seconds.
func DecomposeSeconds(total int) (int, int, int) {
	hours, rest := total/3600, total%3600
	return hours, rest / 60, rest % 60
}

// FormatElapsed renders "MM:SS/HH:MM:SS": the move time (hours dropped)
// over the running total.
func FormatElapsed(seconds, total int) string {
	_, m, s := DecomposeSeconds(seconds)
	th, tm, ts := DecomposeSeconds(total)
	return fmt.Sprintf("%2d:%02d/%02d:%02d:%02d", m, s, th, tm, ts)
}

// parseElapsed reads the ",T" field of a CSA move. Empty means zero;
// fractional values are rounded up.
func parseElapsed(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
		return n, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("%w: %q", ErrBadElapsed, raw)
	}
	return int(math.Ceil(f)), nil
}
