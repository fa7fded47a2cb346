package kif_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/sheerluck/csa2kif/pkg/kif"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

const sampleCSA = "V2.2\nN+Alice\nN-Bob\n$START_TIME:2024/01/02 10:00:00\n+7776FU,T5\n-3334FU,T3\n%TORYO\n"

func writeInput(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write input: %v", err)
	}
	return path
}

func TestOutputPath(t *testing.T) {
	tests := map[string]string{
		"game.csa":          "game.x.kif",
		"dir/game.json":     "dir/game.x.kif",
		"game":              "game.x.kif",
		"dir/game.tar.json": "dir/game.tar.x.kif",
	}
	for in, want := range tests {
		if got := kif.OutputPath(in); got != want {
			t.Fatalf("unexpected output path for %s: got %s want %s", in, got, want)
		}
	}
}

func TestDetectFormat(t *testing.T) {
	if kif.DetectFormat("a.JSON") != kif.FormatJSON || kif.DetectFormat("a.mgs") != kif.FormatJSON {
		t.Fatal("json extensions must select the json pipeline")
	}
	if kif.DetectFormat("a.csa") != kif.FormatCSA {
		t.Fatal("csa extension must select the csa pipeline")
	}
}

func TestConvertFileCSA(t *testing.T) {
	in := writeInput(t, "game.csa", []byte(sampleCSA))
	out, err := kif.ConvertFile(in, kif.FormatCSA, kif.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("failed to convert: %v", err)
	}
	if out != filepath.Join(filepath.Dir(in), "game.x.kif") {
		t.Fatalf("unexpected output path: %s", out)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	if !strings.HasPrefix(text, "# ---- csa2kif ----\n棋戦：Casual Blitz game\n") {
		t.Fatalf("unexpected header:\n%s", text)
	}
	if !strings.HasSuffix(text, "手数----指手---------消費時間--\n"+
		"   1   ７六歩(77)"+sp(8)+"( 0:05/00:00:05)\n"+
		"   2   ３四歩(33)"+sp(8)+"( 0:03/00:00:03)\n"+
		"   3   投了"+sp(14)+"( 0:00/00:00:05)\n"+
		"まで2手で後手の勝ち\n\n") {
		t.Fatalf("unexpected body:\n%s", text)
	}
}

func TestConvertFileIsRepeatable(t *testing.T) {
	in := writeInput(t, "game.csa", []byte(sampleCSA))
	out, err := kif.ConvertFile(in, kif.FormatCSA, kif.DefaultConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	first, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(out); err != nil {
		t.Fatal(err)
	}
	if _, err := kif.ConvertFile(in, kif.FormatCSA, kif.DefaultConfig(), nil); err != nil {
		t.Fatal(err)
	}
	second, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Fatal("second run produced different output")
	}
}

func TestConvertFileShiftJIS(t *testing.T) {
	record := "N+羽生\nN-藤井\n+7776FU\n"
	encoded, _, err := transform.String(japanese.ShiftJIS.NewEncoder(), record)
	if err != nil {
		t.Fatal(err)
	}
	in := writeInput(t, "sjis.csa", []byte(encoded))

	cfg := kif.DefaultConfig()
	cfg.Encoding = "sjis"
	out, err := kif.ConvertFile(in, kif.FormatCSA, cfg, nil)
	if err != nil {
		t.Fatalf("failed to convert: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if utf8.Valid(data) {
		t.Fatal("output should be Shift-JIS")
	}
	text, err := kif.DecodeInput(data)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text, "先手：羽生\n後手：藤井\n") {
		t.Fatalf("unexpected players:\n%s", text)
	}
}

func TestConvertFileFailureLeavesNoOutput(t *testing.T) {
	in := writeInput(t, "bad.csa", []byte("+7776FU\n+7775XX\n"))
	if _, err := kif.ConvertFile(in, kif.FormatCSA, kif.DefaultConfig(), nil); err == nil {
		t.Fatal("expected an error")
	}
	entries, err := os.ReadDir(filepath.Dir(in))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "bad.csa" {
		t.Fatalf("unexpected files left behind: %v", entries)
	}
}

func TestConvertFileJSON(t *testing.T) {
	in := writeInput(t, "chu.json", []byte(`{"actions": ["P e4-e5", "Ln f5-e6-f5"], "result": "%TORYO"}`))
	out, err := kif.ConvertFile(in, kif.FormatJSON, kif.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("failed to convert: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "   2手目二歩目 7八獅子 （←8七）\n") {
		t.Fatalf("unexpected body:\n%s", data)
	}
}

func TestDecodeInputStripsBOM(t *testing.T) {
	text, err := kif.DecodeInput(append([]byte{0xEF, 0xBB, 0xBF}, "N+a\n"...))
	if err != nil {
		t.Fatal(err)
	}
	if text != "N+a\n" {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestEncodeOutputRejectsUnknownEncoding(t *testing.T) {
	if _, err := kif.EncodeOutput([]byte("x"), "ebcdic"); err == nil {
		t.Fatal("expected an error")
	}
}
