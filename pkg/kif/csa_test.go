package kif_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/sheerluck/csa2kif/pkg/kif"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func sp(n int) string {
	return strings.Repeat(" ", n)
}

func convertCSA(t *testing.T, record string) *kif.Game {
	t.Helper()
	g, err := kif.ConvertCSA(strings.NewReader(record), nil)
	if err != nil {
		t.Fatalf("failed to convert: %v", err)
	}
	return g
}

func assertLines(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("unexpected line count: got %d want %d\n%q", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected line %d: got %q want %q", i+1, got[i], want[i])
		}
	}
}

func TestConvertCSAResignation(t *testing.T) {
	record := strings.Join([]string{
		"V2.2",
		"N+Alice",
		"N-Bob",
		"'comment",
		"$START_TIME:2024/01/02 10:00:00",
		"P1-KY-KE-GI-KI-OU-KI-GI-KE-KY",
		"+",
		"+7776FU,T5",
		"-3334FU,T3",
		"%TORYO",
	}, "\n")
	g := convertCSA(t, record)

	assertLines(t, g.Lines, []string{
		"   1   ７六歩(77)" + sp(8) + "( 0:05/00:00:05)\n",
		"   2   ３四歩(33)" + sp(8) + "( 0:03/00:00:03)\n",
		"   3   投了" + sp(14) + "( 0:00/00:00:05)\n",
		"まで2手で後手の勝ち\n\n",
	})
	if g.Moves() != 3 {
		t.Fatalf("unexpected move counter: %d", g.Moves())
	}

	header, err := g.Header("")
	if err != nil {
		t.Fatal(err)
	}
	want := "# ---- csa2kif ----\n" +
		"棋戦：Casual Blitz game\n" +
		"場所：https://syougi.qinoa.com/ja/game\n" +
		"開始日時：2024/01/02 10:00:00\n" +
		"終了日時：?\n" +
		"持ち時間：5分秒読み10秒\n" +
		"手合割：平手\n" +
		"先手：Alice\n" +
		"後手：Bob\n" +
		"手数----指手---------消費時間--\n"
	if header != want {
		t.Fatalf("unexpected header:\n%s\nwant:\n%s", header, want)
	}
}

func TestConvertCSASameSquareAndDrop(t *testing.T) {
	g := convertCSA(t, "+7776FU\n-3334FU\n+8822UM\n-3122GI\n+0055KA\n")
	zero := "( 0:00/00:00:00)\n"
	assertLines(t, g.Lines, []string{
		"   1   ７六歩(77)" + sp(8) + zero,
		"   2   ３四歩(33)" + sp(8) + zero,
		"   3   ２二角成(88)" + sp(6) + zero,
		"   4   同　銀(31)" + sp(8) + zero,
		"   5   ５五角打" + sp(10) + zero,
	})
	if g.Promotions().Len() != 0 {
		t.Fatal("capture by a plain silver must clear the promotion marker")
	}
}

func TestConvertCSASameSquareRepeats(t *testing.T) {
	g := convertCSA(t, "+2824HI\n-2324FU\n+2524KE\n-1213FU\n")
	if !strings.HasPrefix(g.Lines[1], "   2   同　歩(23)") {
		t.Fatalf("unexpected line 2: %q", g.Lines[1])
	}
	if !strings.HasPrefix(g.Lines[2], "   3   同　桂(25)") {
		t.Fatalf("unexpected line 3: %q", g.Lines[2])
	}
	if !strings.HasPrefix(g.Lines[3], "   4   １三歩(12)") {
		t.Fatalf("unexpected line 4: %q", g.Lines[3])
	}
}

func TestConvertCSAPromotedPieceMoves(t *testing.T) {
	g := convertCSA(t, "+8822UM\n-4132KI\n+2233UM\n")
	if !strings.HasPrefix(g.Lines[2], "   3   ３三馬(22)") {
		t.Fatalf("unexpected line 3: %q", g.Lines[2])
	}
	promo := g.Promotions()
	if _, ok := promo.Lookup("22"); ok {
		t.Fatal("marker left behind on 22")
	}
	if code, ok := promo.Lookup("33"); !ok || code != "UM" {
		t.Fatalf("unexpected marker on 33: %s %v", code, ok)
	}
}

func TestConvertCSAEndings(t *testing.T) {
	tests := []struct {
		end     string
		line    string
		summary string
	}{
		{"%SENNICHITE,T0", "千日手", "まで2手で千日手\n\n"},
		{"%TSUMI", "詰み", "まで2手で詰み\n\n"},
		{"%TIME_UP", "切れ負け", "まで2手で後手の勝ち\n\n"},
	}
	for _, tt := range tests {
		g := convertCSA(t, "+7776FU,T10\n-3334FU,T70\n"+tt.end+"\n")
		if !strings.HasPrefix(g.Lines[2], "   3   "+tt.line) {
			t.Fatalf("unexpected end line for %s: %q", tt.end, g.Lines[2])
		}
		if !strings.HasSuffix(g.Lines[2], "( 0:00/00:00:10)\n") {
			t.Fatalf("end line must show the remaining clock: %q", g.Lines[2])
		}
		if g.Lines[3] != tt.summary {
			t.Fatalf("unexpected summary for %s: %q", tt.end, g.Lines[3])
		}
	}
}

func TestConvertCSAMetadata(t *testing.T) {
	g := convertCSA(t, "$SITE:https://example.com/g/1\n$END_TIME:2024/01/02 10:30:00\n$TIME_LIMIT:00:10+30\n")
	if g.Site != "https://example.com/g/1" || g.End != "2024/01/02 10:30:00" || g.TimeLimit != "00:10+30" {
		t.Fatalf("unexpected metadata: %+v", g)
	}
	header, err := g.Header("https://fallback.example")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(header, "場所：https://example.com/g/1\n") || !strings.Contains(header, "持ち時間：10分秒読み30秒\n") {
		t.Fatalf("unexpected header:\n%s", header)
	}

	g = convertCSA(t, "$EVENT:ぴよ将棋 レベル10\n")
	if g.Site != "https://studiok-i.net/ps/" {
		t.Fatalf("unexpected site: %s", g.Site)
	}
}

func TestConvertCSAUnrecognizedRecordWarns(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	g, err := kif.ConvertCSA(strings.NewReader("+7776FU\nT12\n-3334FU\n"), zap.New(core))
	if err != nil {
		t.Fatalf("failed to convert: %v", err)
	}
	if len(g.Lines) != 2 {
		t.Fatalf("unexpected line count: %d", len(g.Lines))
	}
	entries := logs.FilterMessage("unrecognized record").All()
	if len(entries) != 1 {
		t.Fatalf("unexpected warning count: %d", len(entries))
	}
	if got := entries[0].ContextMap()["record"]; got != "T12" {
		t.Fatalf("unexpected record field: %v", got)
	}
}

func TestConvertCSAErrors(t *testing.T) {
	tests := []struct {
		record string
		field  string
		key    string
	}{
		{"+7770FU\n", "destination square", "70"},
		{"+7776XX\n", "piece", "XX"},
		{"+AB76FU\n", "origin square", "AB"},
		{"+7776FU\n-9076FU\n", "origin square", "90"},
		{"+7776FU\n%WHAT\n", "end code", "%WHAT"},
	}
	for _, tt := range tests {
		_, err := kif.ConvertCSA(strings.NewReader(tt.record), nil)
		var lookup *kif.LookupError
		if !errors.As(err, &lookup) {
			t.Fatalf("expected lookup error for %q, got %v", tt.record, err)
		}
		if lookup.Field != tt.field || lookup.Key != tt.key {
			t.Fatalf("unexpected lookup error: %+v", lookup)
		}
		if !errors.Is(err, kif.ErrUnknownKey) {
			t.Fatalf("lookup error must match ErrUnknownKey: %v", err)
		}
	}

	if _, err := kif.ConvertCSA(strings.NewReader("%TORYO\n"), nil); !errors.Is(err, kif.ErrNoMoves) {
		t.Fatalf("expected ErrNoMoves, got %v", err)
	}
	if _, err := kif.ConvertCSA(strings.NewReader("$TIME_LIMIT:5min\n"), nil); !errors.Is(err, kif.ErrTimeLimit) {
		t.Fatalf("expected ErrTimeLimit, got %v", err)
	}
	if _, err := kif.ConvertCSA(strings.NewReader("+7776FU,Tabc\n"), nil); !errors.Is(err, kif.ErrBadElapsed) {
		t.Fatalf("expected ErrBadElapsed, got %v", err)
	}
}
