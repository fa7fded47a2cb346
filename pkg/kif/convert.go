package kif

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Format selects the conversion pipeline.
type Format int

const (
	FormatCSA Format = iota
	FormatJSON
)

func (f Format) String() string {
	if f == FormatJSON {
		return "json"
	}
	return "csa"
}

// DetectFormat picks the pipeline from the file extension.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".mgs":
		return FormatJSON
	default:
		return FormatCSA
	}
}

// OutputPath replaces the extension of in with ".x.kif".
func OutputPath(in string) string {
	return strings.TrimSuffix(in, filepath.Ext(in)) + ".x.kif"
}

// Convert runs the pipeline for format over r.
func Convert(format Format, r io.Reader, logger *zap.Logger) (*Game, error) {
	if format == FormatJSON {
		return ConvertJSON(r, logger)
	}
	return ConvertCSA(r, logger)
}

// ConvertFile converts the record at in and writes the KIF next to it.
// It returns the path written.
func ConvertFile(in string, format Format, cfg Config, logger *zap.Logger) (string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	data, err := os.ReadFile(in)
	if err != nil {
		return "", err
	}
	text, err := DecodeInput(data)
	if err != nil {
		return "", fmt.Errorf("%s: %w", in, err)
	}
	game, err := Convert(format, strings.NewReader(text), logger.With(zap.String("input", in)))
	if err != nil {
		return "", fmt.Errorf("%s: %w", in, err)
	}
	var buf bytes.Buffer
	if err := game.WriteTo(&buf, cfg.Site); err != nil {
		return "", fmt.Errorf("%s: %w", in, err)
	}
	encoded, err := EncodeOutput(buf.Bytes(), cfg.Encoding)
	if err != nil {
		return "", err
	}
	out := OutputPath(in)
	if err := WriteFileAtomic(out, encoded, 0o644); err != nil {
		return "", err
	}
	logger.Info("converted",
		zap.String("input", in),
		zap.String("output", out),
		zap.Stringer("format", format),
		zap.Int("moves", game.Moves()))
	return out, nil
}
