package kif

import (
	"sort"
	"strconv"

	"golang.org/x/exp/maps"
)

// Lexicon holds the static tables one pipeline renders with.
type Lexicon struct {
	squares  map[string]string
	pieces   map[string]string
	promoted map[string]string
	ends     map[string]string
}

var kanjiRanks = []string{"一", "二", "三", "四", "五", "六", "七", "八", "九", "十"}

var wideFiles = []string{"１", "２", "３", "４", "５", "６", "７", "８", "９"}

var endCodes = map[string]string{
	"%TORYO":        "投了",
	"%TSUMI":        "詰み",
	"%CHUDAN":       "中断",
	"%SENNICHITE":   "千日手",
	"%TIME_UP":      "切れ負け",
	"%ILLEGAL_MOVE": "反則負け",
	"%JISHOGI":      "持将棋",
	"%KACHI":        "入力宣言",
}

// NewShogiLexicon builds the 9x9 tables used by the CSA pipeline.
// CSA square "76" renders as "７六".
func NewShogiLexicon() *Lexicon {
	squares := make(map[string]string, 81)
	for f := 1; f <= 9; f++ {
		for r := 1; r <= 9; r++ {
			squares[strconv.Itoa(10*f+r)] = wideFiles[f-1] + kanjiRanks[r-1]
		}
	}
	return &Lexicon{
		squares: squares,
		pieces: map[string]string{
			"FU": "歩", "KY": "香", "KE": "桂",
			"GI": "銀", "KI": "金", "KA": "角",
			"HI": "飛", "OU": "玉",
			"TO": "歩成", "NY": "香成", "NK": "桂成",
			"NG": "銀成", "UM": "角成", "RY": "飛成",
		},
		promoted: map[string]string{
			"TO": "と", "NY": "成香", "NK": "成桂",
			"NG": "成銀", "UM": "馬", "RY": "龍",
		},
		ends: endCodes,
	}
}

// NewChushogiLexicon builds the 12x12 tables used by the JSON pipeline.
// Files run a..l from the right edge of the target board (a is file 12) and
// ranks 1..12 count down from the target rank 十二, so "a1" renders as
// "12十二" and "l12" as "1一".
func NewChushogiLexicon() *Lexicon {
	squares := make(map[string]string, 144)
	for i, letter := range "abcdefghijkl" {
		file := strconv.Itoa(12 - i)
		for r := 1; r <= 12; r++ {
			squares[string(letter)+strconv.Itoa(r)] = file + largeRank(13-r)
		}
	}
	return &Lexicon{
		squares: squares,
		pieces: map[string]string{
			"P": "歩兵", "GB": "仲人", "SM": "横行",
			"VM": "竪行", "R": "飛車", "DH": "龍馬",
			"DK": "龍王", "Ln": "獅子", "Q": "奔王", "FK": "奔王",
			"RC": "反車", "B": "角行", "BT": "盲虎",
			"Kr": "麒麟", "Ph": "鳳凰", "L": "香車",
			"FL": "猛豹", "C": "銅将", "S": "銀将",
			"G": "金将", "K": "玉将", "DE": "醉象",
			// promoted codes carry 成 so the tracker sees them
			"HF+": "龍馬成", "+B": "角行成", "SE+": "龍王成",
		},
		promoted: map[string]string{
			"HF+": "角鷹", "+B": "龍馬", "SE+": "飛鷲",
		},
		ends: endCodes,
	}
}

// largeRank renders ranks above 10 as 十 followed by the units digit.
func largeRank(n int) string {
	if n > 10 {
		return "十" + kanjiRanks[n%10-1]
	}
	return kanjiRanks[n-1]
}

func (l *Lexicon) Square(code string) (string, bool) {
	v, ok := l.squares[code]
	return v, ok
}

func (l *Lexicon) Piece(code string) (string, bool) {
	v, ok := l.pieces[code]
	return v, ok
}

// Promoted returns the name a piece shows once it is already known to be
// promoted at the square it moves from.
func (l *Lexicon) Promoted(code string) (string, bool) {
	v, ok := l.promoted[code]
	return v, ok
}

func (l *Lexicon) End(code string) (string, bool) {
	v, ok := l.ends[code]
	return v, ok
}

// Squares returns every source square code in sorted order.
func (l *Lexicon) Squares() []string {
	keys := maps.Keys(l.squares)
	sort.Strings(keys)
	return keys
}

func (l *Lexicon) PieceCodes() []string {
	keys := maps.Keys(l.pieces)
	sort.Strings(keys)
	return keys
}
