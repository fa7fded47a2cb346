package kif

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

const (
	csaSameSquare = "同　"
	csaHand       = "00"
)

// ConvertCSA reads a CSA record and renders it as KIF move lines.
// Unrecognised lines are reported on logger and otherwise skipped.
func ConvertCSA(r io.Reader, logger *zap.Logger) (*Game, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	lex := NewShogiLexicon()
	g := newGame("csa2kif", "Casual Blitz game")

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		var err error
		switch line[0] {
		case '\'', 'V', 'P':
			logger.Debug("ignored record", zap.Int("line", lineNo), zap.String("record", line))
		case 'N':
			g.applyName(line)
		case '+', '-':
			err = renderCSAMove(g, lex, lineNo, line)
		case '$':
			err = g.applyMetadata(line, logger)
		case '%':
			err = renderGameEnd(g, lex, lineNo, line)
		default:
			logger.Warn("unrecognized record", zap.Int("line", lineNo), zap.String("record", line))
		}
		if err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Game) applyName(line string) {
	if name, ok := strings.CutPrefix(line, "N+"); ok {
		g.Sente = name
	} else if name, ok := strings.CutPrefix(line, "N-"); ok {
		g.Gote = name
	}
}

func (g *Game) applyMetadata(line string, logger *zap.Logger) error {
	if v, ok := strings.CutPrefix(line, "$START_TIME:"); ok {
		g.Start = v
	} else if v, ok := strings.CutPrefix(line, "$END_TIME:"); ok {
		g.End = v
	} else if v, ok := strings.CutPrefix(line, "$SITE:"); ok {
		g.Site = v
	} else if strings.HasPrefix(line, "$EVENT:ぴよ将棋") {
		g.Site = piyoSite
	} else if v, ok := strings.CutPrefix(line, "$TIME_LIMIT:"); ok {
		if _, _, err := ParseTimeLimit(v); err != nil {
			return err
		}
		g.TimeLimit = v
	} else {
		logger.Debug("ignored metadata", zap.String("record", line))
	}
	return nil
}

// renderCSAMove renders a record such as "+7776FU,T5". A bare turn marker
// ("+" or "-") renders nothing.
func renderCSAMove(g *Game, lex *Lexicon, lineNo int, line string) error {
	if len(line) == 1 {
		return nil
	}
	if len(line) < 7 {
		return &LookupError{Line: lineNo, Record: line, Field: "move", Key: line[1:]}
	}
	from, to, code := line[1:3], line[3:5], line[5:7]
	raw := ""
	if rest := line[7:]; rest != "" {
		var ok bool
		if raw, ok = strings.CutPrefix(rest, ",T"); !ok {
			return fmt.Errorf("line %d: %w: %q", lineNo, ErrBadElapsed, rest)
		}
	}
	seconds, err := parseElapsed(raw)
	if err != nil {
		return fmt.Errorf("line %d: %w", lineNo, err)
	}
	dest, ok := lex.Square(to)
	if !ok {
		return &LookupError{Line: lineNo, Record: line, Field: "destination square", Key: to}
	}
	drop := from == csaHand
	if !drop {
		if _, ok := lex.Square(from); !ok {
			return &LookupError{Line: lineNo, Record: line, Field: "origin square", Key: from}
		}
	}
	name, ok := lex.Piece(code)
	if !ok {
		return &LookupError{Line: lineNo, Record: line, Field: "piece", Key: code}
	}

	g.n++
	side := Side(line[0])
	total := AccumulateElapsed(side, g.clock, seconds)
	shown := dest
	if dest == g.prev {
		shown = csaSameSquare
	}
	name, ok = g.promo.resolve(lex, from, to, code, name)
	if !ok {
		return &LookupError{Line: lineNo, Record: line, Field: "promoted piece", Key: code}
	}

	text := shown + name + "(" + from + ")"
	if drop {
		text = shown + name + "打"
	}
	// 8 runes and drops sit one column narrower in KIF viewers
	width := 11
	if drop || utf8.RuneCountInString(text) == 8 {
		width = 10
	}
	g.Lines = append(g.Lines, fmt.Sprintf("%4d   %-*s    (%s)\n", g.n, width, text, FormatElapsed(seconds, total)))
	g.last = side
	g.moved = true
	if shown == dest {
		g.prev = dest
	}
	return nil
}

// renderGameEnd renders the terminal record and the result summary. The
// last mover's clock is dropped and the remaining side's total is shown.
func renderGameEnd(g *Game, lex *Lexicon, lineNo int, line string) error {
	code, _, _ := strings.Cut(line, ",")
	text, ok := lex.End(code)
	if !ok {
		return &LookupError{Line: lineNo, Record: line, Field: "end code", Key: code}
	}
	if !g.moved {
		return fmt.Errorf("line %d: %w: %s", lineNo, ErrNoMoves, code)
	}
	g.n++
	delete(g.clock, g.last)
	remaining := g.clock[g.last.other()]
	g.Lines = append(g.Lines, fmt.Sprintf("%4d   %-12s    (%s)\n", g.n, text, FormatElapsed(0, remaining)))

	result := g.last.String() + "の勝ち"
	switch {
	case strings.Contains(code, "SEN"):
		result = "千日手"
	case strings.Contains(code, "TSUMI"):
		result = text
	}
	g.Lines = append(g.Lines, fmt.Sprintf("まで%d手で%s\n\n", g.n-1, result))
	return nil
}

func containsPromotionMarker(name string) bool {
	return strings.Contains(name, "成")
}
