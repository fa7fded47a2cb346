package kif

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
)

const chuSameSquare = "仝"

// Action is one parsed JSON move: the piece code, the squares it visits
// (origin first) and the code it promotes to, if any.
type Action struct {
	Piece   string
	Path    []string
	Promote string
}

// Code is the piece code the move renders with.
func (a Action) Code() string {
	if a.Promote != "" {
		return a.Promote
	}
	return a.Piece
}

// ParseAction parses "P e4-e5", "DH i7xf4=HF+" or a double step such as
// "Ln f5-e6-f5".
func ParseAction(s string) (Action, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return Action{}, fmt.Errorf("%w: %q", ErrBadAction, s)
	}
	coords, promote, hasPromote := strings.Cut(fields[1], "=")
	if hasPromote && promote == "" {
		return Action{}, fmt.Errorf("%w: %q", ErrBadAction, s)
	}
	path := strings.FieldsFunc(coords, func(r rune) bool {
		return r == '-' || r == 'x'
	})
	if len(path) < 2 || len(path) > 3 {
		return Action{}, fmt.Errorf("%w: %q", ErrBadAction, s)
	}
	return Action{Piece: fields[0], Path: path, Promote: promote}, nil
}

type jsonRecord struct {
	Actions   []json.RawMessage `json:"actions"`
	Sente     string            `json:"sente"`
	Gote      string            `json:"gote"`
	StartTime string            `json:"start_time"`
	EndTime   string            `json:"end_time"`
	Site      string            `json:"site"`
	Event     string            `json:"event"`
	TimeLimit string            `json:"time_limit"`
	Result    string            `json:"result"`
}

type jsonAction struct {
	Move string `json:"move"`
}

// ConvertJSON reads a JSON document with an "actions" array and renders
// it as chushogi KIF move lines.
func ConvertJSON(r io.Reader, logger *zap.Logger) (*Game, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var doc jsonRecord
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	lex := NewChushogiLexicon()
	g := newGame("json2kif", "Rated Chushogi game")
	if err := g.applyJSONMetadata(doc); err != nil {
		return nil, err
	}
	for i, raw := range doc.Actions {
		move, err := actionText(raw)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i+1, err)
		}
		if move == "" {
			logger.Warn("unrecognized record", zap.Int("line", i+1), zap.String("record", string(raw)))
			continue
		}
		action, err := ParseAction(move)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i+1, err)
		}
		if err := renderJSONMove(g, lex, i+1, move, action); err != nil {
			return nil, err
		}
	}
	if doc.Result != "" {
		if err := renderGameEnd(g, lex, len(doc.Actions)+1, doc.Result); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func actionText(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		err := json.Unmarshal(raw, &s)
		return s, err
	}
	var obj jsonAction
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", err
	}
	return obj.Move, nil
}

func (g *Game) applyJSONMetadata(doc jsonRecord) error {
	g.Sente = doc.Sente
	g.Gote = doc.Gote
	if doc.StartTime != "" {
		g.Start = doc.StartTime
	}
	if doc.EndTime != "" {
		g.End = doc.EndTime
	}
	if strings.HasPrefix(doc.Event, "ぴよ将棋") {
		g.Site = piyoSite
	}
	if doc.Site != "" {
		g.Site = doc.Site
	}
	if doc.TimeLimit != "" {
		if _, _, err := ParseTimeLimit(doc.TimeLimit); err != nil {
			return err
		}
		g.TimeLimit = doc.TimeLimit
	}
	return nil
}

func renderJSONMove(g *Game, lex *Lexicon, idx int, record string, a Action) error {
	code := a.Code()
	from, to := a.Path[0], a.Path[1]
	dest, ok := lex.Square(to)
	if !ok {
		return &LookupError{Line: idx, Record: record, Field: "destination square", Key: to}
	}
	origin, ok := lex.Square(from)
	if !ok {
		return &LookupError{Line: idx, Record: record, Field: "origin square", Key: from}
	}
	name, ok := lex.Piece(code)
	if !ok {
		return &LookupError{Line: idx, Record: record, Field: "piece", Key: code}
	}
	var final string
	if len(a.Path) == 3 {
		if final, ok = lex.Square(a.Path[2]); !ok {
			return &LookupError{Line: idx, Record: record, Field: "destination square", Key: a.Path[2]}
		}
	}

	g.n++
	shown := dest
	if dest == g.prev {
		shown = chuSameSquare
	}
	name, ok = g.promo.resolve(lex, from, to, code, name)
	if !ok {
		return &LookupError{Line: idx, Record: record, Field: "promoted piece", Key: code}
	}

	text := shown + name + " （←" + origin + "）"
	if final == "" {
		g.Lines = append(g.Lines, fmt.Sprintf("%4d手目   %-9s\n", g.n, text))
		if shown == dest {
			g.prev = dest
		}
	} else {
		g.Lines = append(g.Lines, fmt.Sprintf("%4d手目一歩目 %-9s\n", g.n, text))
		// the piece leaves the first square again
		if original, ok := g.promo.Lookup(to); ok {
			g.promo.Relocate(to, a.Path[2], original)
		} else {
			g.promo.Clear(a.Path[2])
		}
		text = final + name + " （←" + dest + "）"
		g.Lines = append(g.Lines, fmt.Sprintf("%4d手目二歩目 %-9s\n", g.n, text))
		g.prev = final
	}
	g.last = Gote
	if g.n%2 == 1 {
		g.last = Sente
	}
	g.moved = true
	return nil
}
