package kif

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Summary is the archived view of one written KIF file.
type Summary struct {
	GameID    string      `parquet:"name=game_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Event     string      `parquet:"name=event, type=BYTE_ARRAY, convertedtype=UTF8"`
	Site      string      `parquet:"name=site, type=BYTE_ARRAY, convertedtype=UTF8"`
	Start     string      `parquet:"name=start, type=BYTE_ARRAY, convertedtype=UTF8"`
	End       string      `parquet:"name=end, type=BYTE_ARRAY, convertedtype=UTF8"`
	SenteName string      `parquet:"name=sente_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	GoteName  string      `parquet:"name=gote_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	Result    string      `parquet:"name=result, type=BYTE_ARRAY, convertedtype=UTF8"`
	WinReason string      `parquet:"name=win_reason, type=BYTE_ARRAY, convertedtype=UTF8"`
	MoveCount int32       `parquet:"name=move_count, type=INT32"`
	Moves     []MoveEntry `parquet:"name=moves, type=LIST"`
}

type MoveEntry struct {
	Ply int32  `parquet:"name=ply, type=INT32"`
	USI string `parquet:"name=usi, type=BYTE_ARRAY, convertedtype=UTF8"`
}

var (
	moveLineRe     = regexp.MustCompile(`^\s*(\d+)\s+(.+?)\s+\(`)
	terminalLineRe = regexp.MustCompile(`^\s*(\d+)\s+(.+?)\s*$`)
	originRe       = regexp.MustCompile(`\((\d)(\d)\)$`)
	closingLineRe  = regexp.MustCompile(`^まで(\d+)手で(.+)$`)
)

func ReadKIFLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text, err := DecodeInput(data)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], "\r")
	}
	return lines, nil
}

// LoadSummary reads a KIF file and summarises it.
func LoadSummary(path string) (Summary, error) {
	lines, err := ReadKIFLines(path)
	if err != nil {
		return Summary{}, err
	}
	s, err := SummaryFromKIFLines(lines)
	if err != nil {
		return Summary{}, fmt.Errorf("%s: %w", path, err)
	}
	s.GameID = filepath.Base(path)
	return s, nil
}

// SummaryFromKIFLines extracts header fields, the outcome and, for 9x9
// records, the USI move list.
func SummaryFromKIFLines(lines []string) (Summary, error) {
	moves, err := parseKIFMoves(lines)
	if err != nil {
		return Summary{}, err
	}
	s := Summary{
		Event:     headerValue(lines, "棋戦"),
		Site:      headerValue(lines, "場所"),
		Start:     headerValue(lines, "開始日時"),
		End:       headerValue(lines, "終了日時"),
		SenteName: headerValue(lines, "先手"),
		GoteName:  headerValue(lines, "後手"),
	}
	for i, usi := range moves {
		s.Moves = append(s.Moves, MoveEntry{Ply: int32(i + 1), USI: usi})
	}
	o := readOutcome(lines, len(moves))
	s.Result, s.WinReason, s.MoveCount = o.result, o.reason, int32(o.plies)
	return s, nil
}

type square struct {
	file int
	rank int
}

func (s square) valid() bool {
	return s.file >= 1 && s.file <= 9 && s.rank >= 1 && s.rank <= 9
}

func (s square) usi() string {
	return strconv.Itoa(s.file) + string(rune('a'+s.rank-1))
}

// kifMove is one parsed 9x9 move cell.
type kifMove struct {
	from    square
	to      square
	piece   string
	drop    bool
	promote bool
}

func (m kifMove) usi() string {
	if m.drop {
		return m.piece + "*" + m.to.usi()
	}
	if m.promote {
		return m.from.usi() + m.to.usi() + "+"
	}
	return m.from.usi() + m.to.usi()
}

// kifPieces maps KIF piece names to USI letters. A leading "+" marks a
// name that is already promoted.
var kifPieces = map[string]string{
	"歩": "P", "香": "L", "桂": "N", "銀": "S", "金": "G",
	"角": "B", "飛": "R", "玉": "K", "王": "K",
	"と": "+P", "成香": "+L", "成桂": "+N", "成銀": "+S",
	"馬": "+B", "龍": "+R", "竜": "+R",
}

func parseKIFMoves(lines []string) ([]string, error) {
	var moves []string
	var prev *square
	for i, line := range lines {
		cell, ok := moveCell(line)
		if !ok {
			continue
		}
		if _, end := terminals[cell]; end {
			break
		}
		m, err := readKIFMove(cell, prev)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		moves = append(moves, m.usi())
		dest := m.to
		prev = &dest
	}
	return moves, nil
}

func moveCell(line string) (string, bool) {
	match := moveLineRe.FindStringSubmatch(line)
	if match == nil {
		return "", false
	}
	cell := strings.TrimSpace(match[2])
	return cell, cell != ""
}

// readKIFMove parses cells such as "７六歩(77)", "同　銀(31)", "５五角打"
// and "２二角成(88)". prev is the previous destination.
func readKIFMove(cell string, prev *square) (kifMove, error) {
	var m kifMove
	rest, err := m.readDestination(cell, prev)
	if err != nil {
		return m, err
	}
	if loc := originRe.FindStringSubmatchIndex(rest); loc != nil {
		m.from = square{file: int(rest[loc[2]] - '0'), rank: int(rest[loc[4]] - '0')}
		if !m.from.valid() {
			return m, fmt.Errorf("invalid origin in %s", cell)
		}
		rest = rest[:loc[0]]
	} else if name, ok := strings.CutSuffix(rest, "打"); ok {
		m.drop = true
		rest = name
	} else {
		return m, fmt.Errorf("missing origin in %s", cell)
	}

	switch {
	case strings.HasSuffix(rest, "不成"):
		rest = strings.TrimSuffix(rest, "不成")
	case strings.HasSuffix(rest, "成"):
		rest = strings.TrimSuffix(rest, "成")
		m.promote = true
	}
	letter, ok := kifPieces[rest]
	if !ok {
		return m, fmt.Errorf("unknown piece in %s", cell)
	}
	promoted := strings.HasPrefix(letter, "+")
	if m.drop && (promoted || m.promote) {
		return m, fmt.Errorf("cannot drop promoted piece in %s", cell)
	}
	m.piece = strings.TrimPrefix(letter, "+")
	return m, nil
}

func (m *kifMove) readDestination(cell string, prev *square) (string, error) {
	if rest, ok := strings.CutPrefix(cell, "同"); ok {
		if prev == nil {
			return "", errors.New("same-square move without previous destination")
		}
		m.to = *prev
		return strings.TrimLeft(rest, " 　"), nil
	}
	runes := []rune(cell)
	if len(runes) < 3 {
		return "", fmt.Errorf("invalid move %s", cell)
	}
	file, fileOK := parseFileRune(runes[0])
	rank, rankOK := parseRankRune(runes[1])
	if !fileOK || !rankOK {
		return "", fmt.Errorf("invalid destination in %s", cell)
	}
	m.to = square{file: file, rank: rank}
	return string(runes[2:]), nil
}

func parseFileRune(r rune) (int, bool) {
	switch {
	case r >= '1' && r <= '9':
		return int(r - '0'), true
	case r >= '１' && r <= '９':
		return int(r-'１') + 1, true
	}
	return 0, false
}

func parseRankRune(r rune) (int, bool) {
	for i, k := range kanjiRanks[:9] {
		if string(r) == k {
			return i + 1, true
		}
	}
	return 0, false
}

// terminalKind says who a terminal cell favours, relative to the side to
// move at that ply.
type terminalKind int

const (
	moverLoses terminalKind = iota
	moverWins
	noWinner
	interrupted
)

var terminals = map[string]terminalKind{
	"投了":   moverLoses,
	"詰み":   moverLoses,
	"切れ負け": moverLoses,
	"反則負け": moverLoses,
	"反則勝ち": moverWins,
	"入玉勝ち": moverWins,
	"勝ち宣言": moverWins,
	"入力宣言": moverWins,
	"持将棋":  noWinner,
	"千日手":  noWinner,
	"中断":   interrupted,
}

func (k terminalKind) result(ply int) string {
	switch k {
	case moverWins:
		return sideWin(ply)
	case moverLoses:
		return sideWin(ply + 1)
	case noWinner:
		return "draw"
	default:
		return "abort"
	}
}

func sideWin(ply int) string {
	if ply%2 == 1 {
		return "sente_win"
	}
	return "gote_win"
}

type outcome struct {
	result string
	reason string
	plies  int
}

// readOutcome takes the result from the first terminal cell. A closing
// "まで…" line, when present, settles the winner and the ply count.
func readOutcome(lines []string, plies int) outcome {
	o := outcome{result: "unknown", plies: plies}
	ply := 0
	for _, line := range lines {
		cell, ok := moveCell(line)
		if !ok {
			match := terminalLineRe.FindStringSubmatch(line)
			if match == nil {
				continue
			}
			if cell = strings.TrimSpace(match[2]); cell == "" {
				continue
			}
		}
		ply++
		if kind, end := terminals[cell]; end {
			o.result, o.reason = kind.result(ply), cell
			break
		}
	}
	if n, text, ok := closingLine(lines); ok {
		o.plies = n
		switch {
		case text == "千日手":
			o.result = "draw"
		case strings.HasPrefix(text, Sente.String()):
			o.result = "sente_win"
		case strings.HasPrefix(text, Gote.String()):
			o.result = "gote_win"
		}
	}
	return o
}

func closingLine(lines []string) (int, string, bool) {
	for i := len(lines) - 1; i >= 0; i-- {
		match := closingLineRe.FindStringSubmatch(strings.TrimSpace(lines[i]))
		if match == nil {
			continue
		}
		n, err := strconv.Atoi(match[1])
		if err != nil {
			return 0, "", false
		}
		return n, match[2], true
	}
	return 0, "", false
}

func headerValue(lines []string, key string) string {
	for _, line := range lines {
		trim := strings.TrimSpace(line)
		for _, sep := range []string{"：", ":"} {
			if v, ok := strings.CutPrefix(trim, key+sep); ok {
				return strings.TrimSpace(v)
			}
		}
	}
	return ""
}

// CollectKIF lists every .kif file under root in sorted order.
func CollectKIF(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".kif") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
