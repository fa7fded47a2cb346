package kif

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/araddon/dateparse"
)

const (
	DefaultSite      = "https://syougi.qinoa.com/ja/game"
	DefaultTimeLimit = "00:05+10"

	piyoSite    = "https://studiok-i.net/ps/"
	kifDateTime = "2006/01/02 15:04:05"
)

// Game accumulates one converted record: metadata, rendered lines and the
// per-move state the renderers carry forward.
type Game struct {
	Title     string
	Event     string
	Site      string
	Start     string
	End       string
	TimeLimit string
	Sente     string
	Gote      string
	Lines     []string

	n     int
	prev  string
	last  Side
	moved bool
	clock Clock
	promo *PromotionTracker
}

func newGame(title, event string) *Game {
	return &Game{
		Title:     title,
		Event:     event,
		Start:     "?",
		End:       "?",
		TimeLimit: DefaultTimeLimit,
		clock:     NewClock(),
		promo:     NewPromotionTracker(),
	}
}

// Moves is the number of plies rendered so far.
func (g *Game) Moves() int {
	return g.n
}

func (g *Game) Promotions() *PromotionTracker {
	return g.promo
}

var headerTemplate = `
	|# ---- %s ----
	|棋戦：%s
	|場所：%s
	|開始日時：%s
	|終了日時：%s
	|持ち時間：%d分秒読み%d秒
	|手合割：平手
	|先手：%s
	|後手：%s
	|手数----指手---------消費時間--
	|`

// Header fills the KIF header block. site is used when the record did not
// name one.
func (g *Game) Header(site string) (string, error) {
	minutes, byoyomi, err := ParseTimeLimit(g.TimeLimit)
	if err != nil {
		return "", err
	}
	if g.Site != "" {
		site = g.Site
	}
	if site == "" {
		site = DefaultSite
	}
	text := fmt.Sprintf(StripMargin(headerTemplate, "|"),
		g.Title, g.Event, site,
		normalizeTimestamp(g.Start), normalizeTimestamp(g.End),
		minutes, byoyomi,
		orDefault(g.Sente, "A"), orDefault(g.Gote, "B"))
	return strings.TrimPrefix(text, "\n"), nil
}

// WriteTo writes the header followed by every rendered line.
func (g *Game) WriteTo(w io.Writer, site string) error {
	header, err := g.Header(site)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, header); err != nil {
		return err
	}
	for _, line := range g.Lines {
		if _, err := io.WriteString(w, line); err != nil {
			return err
		}
	}
	return nil
}

var marginRes sync.Map

// StripMargin removes leading blanks and the margin marker from every line
// after the first, the way multi-line literals are written above.
func StripMargin(text, marker string) string {
	return marginRe(marker).ReplaceAllString(text, "\n")
}

func marginRe(marker string) *regexp.Regexp {
	if re, ok := marginRes.Load(marker); ok {
		return re.(*regexp.Regexp)
	}
	re, _ := marginRes.LoadOrStore(marker, regexp.MustCompile(`\n[ \t]*`+regexp.QuoteMeta(marker)))
	return re.(*regexp.Regexp)
}

var timeLimitRe = regexp.MustCompile(`^(\d{1,2}):(\d{2})\+(\d{1,2})$`)

// ParseTimeLimit turns "HH:MM+SS" into main time in minutes and byoyomi
// seconds.
func ParseTimeLimit(s string) (int, int, error) {
	m := timeLimitRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrTimeLimit, s)
	}
	var fields [3]int
	for i := range fields {
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return 0, 0, fmt.Errorf("%w: %q: %v", ErrTimeLimit, s, err)
		}
		fields[i] = n
	}
	hh, mm, ss := fields[0], fields[1], fields[2]
	if hh > 23 || mm > 59 || ss > 61 {
		return 0, 0, fmt.Errorf("%w: %q", ErrTimeLimit, s)
	}
	return hh*60 + mm, ss, nil
}

// fullTimestampRe accepts year-first dates with a time of day and no
// fraction or zone. Only these are rewritten without losing information.
var fullTimestampRe = regexp.MustCompile(`^\d{4}[-/]\d{1,2}[-/]\d{1,2}[ T]\d{1,2}:\d{2}(:\d{2})?$`)

// normalizeTimestamp rewrites full timestamps in KIF layout and keeps
// anything else verbatim.
func normalizeTimestamp(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || s == "?" {
		return "?"
	}
	if !fullTimestampRe.MatchString(s) {
		return s
	}
	t, err := dateparse.ParseStrict(s, dateparse.PreferMonthFirst(false))
	if err != nil {
		return s
	}
	return t.Format(kifDateTime)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
